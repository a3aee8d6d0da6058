package engine

// Event is a notable occurrence in the world, drained into the journal.
type Event struct {
	Tick        uint64 `json:"tick"`
	Description string `json:"description"`
	Category    string `json:"category"` // "build", "snapshot", "agent", ...
}

// Record appends an event to the world's buffer.
func (w *World) Record(tick uint64, category, description string) {
	w.Events = append(w.Events, Event{
		Tick:        tick,
		Description: description,
		Category:    category,
	})
}

// DrainEvents returns buffered events and clears the buffer.
func (w *World) DrainEvents() []Event {
	ev := w.Events
	w.Events = nil
	return ev
}
