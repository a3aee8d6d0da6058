// Package build provides the per-settlement construction queue and the
// pending work items it spawns into the world.
package build

import (
	"errors"

	"github.com/talgya/hearthstead/internal/village"
	"github.com/talgya/hearthstead/internal/world"
)

// ErrPlacementUnavailable is returned when the placement finder cannot find
// a free tile for the requested structure. Non-fatal: the request is dropped
// and queue state is unchanged.
var ErrPlacementUnavailable = errors.New("no free placement for structure")

// PlacementFinder locates a valid, collision-free tile for a structure near
// a settlement. Returns false when no position exists.
type PlacementFinder interface {
	FindPlacement(s *village.Settlement, typ village.StructureType) (world.TileCoord, bool)
}

// FinderFunc adapts a function to the PlacementFinder interface.
type FinderFunc func(s *village.Settlement, typ village.StructureType) (world.TileCoord, bool)

// FindPlacement implements PlacementFinder.
func (f FinderFunc) FindPlacement(s *village.Settlement, typ village.StructureType) (world.TileCoord, bool) {
	return f(s, typ)
}

// Placement is one planned, pre-validated structure location.
type Placement struct {
	Tile world.TileCoord       `json:"tile"`
	Type village.StructureType `json:"type"`
}

// queue holds one settlement's pending intent: a count per structure type
// plus the ordered placements backing those counts. During live play
// counts[t] always equals the number of placements of type t.
type queue struct {
	counts     map[village.StructureType]int
	placements []Placement // Insertion order, all types interleaved
}

// Manager tracks build queues for every settlement.
//
// Queues are created lazily on first access; a settlement without a queue
// behaves as all-zero counts. The manager is owned by the calling shell and
// mutated only through these operations, from a single control thread.
type Manager struct {
	finder PlacementFinder
	queues map[village.SettlementID]*queue
}

// NewManager creates a queue manager using the given placement capability.
func NewManager(finder PlacementFinder) *Manager {
	return &Manager{
		finder: finder,
		queues: make(map[village.SettlementID]*queue),
	}
}

func (m *Manager) queueFor(id village.SettlementID) *queue {
	q, ok := m.queues[id]
	if !ok {
		q = &queue{counts: make(map[village.StructureType]int)}
		m.queues[id] = q
	}
	return q
}

// Enqueue asks the placement finder for a free tile and, on success, records
// the placement and bumps the type's pending count. On failure it returns
// ErrPlacementUnavailable and leaves the queue untouched.
//
// A tile another order already reserved counts as unavailable even if the
// finder offers it again: two orders must never share a tile.
func (m *Manager) Enqueue(s *village.Settlement, typ village.StructureType) (world.TileCoord, error) {
	tile, ok := m.finder.FindPlacement(s, typ)
	if !ok || m.TileReserved(tile) {
		return world.TileCoord{}, ErrPlacementUnavailable
	}

	q := m.queueFor(s.ID)
	q.placements = append(q.placements, Placement{Tile: tile, Type: typ})
	q.counts[typ]++
	return tile, nil
}

// TileReserved reports whether any settlement's queue holds a planned
// placement on the tile. Reserved tiles are occupied for placement purposes
// even though nothing stands on them yet.
func (m *Manager) TileReserved(t world.TileCoord) bool {
	for _, q := range m.queues {
		for _, p := range q.placements {
			if p.Tile == t {
				return true
			}
		}
	}
	return false
}

// DequeueNext removes the oldest planned placement of the given type and
// decrements its count, flooring at zero. Called when a builder begins work.
// Returns false when nothing of that type is queued.
func (m *Manager) DequeueNext(id village.SettlementID, typ village.StructureType) (Placement, bool) {
	q, ok := m.queues[id]
	if !ok {
		return Placement{}, false
	}

	for i, p := range q.placements {
		if p.Type != typ {
			continue
		}
		q.placements = append(q.placements[:i], q.placements[i+1:]...)
		if q.counts[typ] > 0 {
			q.counts[typ]--
		}
		return p, true
	}
	return Placement{}, false
}

// Decrement removes one unit of pending intent for the type, for example
// when the player cancels an order. No-op at zero. Reports whether a unit
// was actually removed.
func (m *Manager) Decrement(id village.SettlementID, typ village.StructureType) bool {
	q, ok := m.queues[id]
	if !ok || q.counts[typ] == 0 {
		return false
	}

	q.counts[typ]--
	// Drop the oldest matching placement so counts and placements stay paired.
	for i, p := range q.placements {
		if p.Type == typ {
			q.placements = append(q.placements[:i], q.placements[i+1:]...)
			break
		}
	}
	return true
}

// Count returns the pending count for a (settlement, type) pair.
func (m *Manager) Count(id village.SettlementID, typ village.StructureType) int {
	q, ok := m.queues[id]
	if !ok {
		return 0
	}
	return q.counts[typ]
}

// HasPending reports whether the settlement has any queued intent.
func (m *Manager) HasPending(id village.SettlementID) bool {
	q, ok := m.queues[id]
	if !ok {
		return false
	}
	for _, n := range q.counts {
		if n > 0 {
			return true
		}
	}
	return false
}

// PeekNext returns some structure type with a pending count > 0.
// The choice among multiple pending types is arbitrary; callers that need
// ordering take it from the priority on the spawned work item, not here.
// Returns false when nothing is pending.
func (m *Manager) PeekNext(id village.SettlementID) (village.StructureType, bool) {
	q, ok := m.queues[id]
	if !ok {
		return "", false
	}
	for typ, n := range q.counts {
		if n > 0 {
			return typ, true
		}
	}
	return "", false
}

// Placements returns a copy of the settlement's planned placements in
// insertion order, for display.
func (m *Manager) Placements(id village.SettlementID) []Placement {
	q, ok := m.queues[id]
	if !ok {
		return nil
	}
	out := make([]Placement, len(q.placements))
	copy(out, q.placements)
	return out
}
