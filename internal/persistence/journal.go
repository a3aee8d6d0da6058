package persistence

import (
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/talgya/hearthstead/internal/engine"
)

// Journal records notable world events and small metadata in SQLite,
// independent of the snapshot files.
type Journal struct {
	conn *sqlx.DB
}

// OpenJournal opens or creates the journal database at the given path.
func OpenJournal(path string) (*Journal, error) {
	conn, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}

	j := &Journal{conn: conn}
	if err := j.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate journal: %w", err)
	}
	return j, nil
}

// Close closes the database connection.
func (j *Journal) Close() error {
	return j.conn.Close()
}

func (j *Journal) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		tick INTEGER NOT NULL,
		description TEXT NOT NULL,
		category TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_events_tick ON events(tick);
	`
	_, err := j.conn.Exec(schema)
	return err
}

// Append writes events to the journal.
func (j *Journal) Append(events []engine.Event) error {
	if len(events) == 0 {
		return nil
	}

	tx, err := j.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, e := range events {
		_, err := tx.Exec(
			"INSERT INTO events (tick, description, category) VALUES (?, ?, ?)",
			e.Tick, e.Description, e.Category,
		)
		if err != nil {
			return fmt.Errorf("insert event: %w", err)
		}
	}

	return tx.Commit()
}

// Recent returns the most recent N events, newest first.
func (j *Journal) Recent(limit int) ([]engine.Event, error) {
	var events []engine.Event
	err := j.conn.Select(&events,
		"SELECT tick, description, category FROM events ORDER BY id DESC LIMIT ?",
		limit,
	)
	return events, err
}

// SetMeta stores a key-value pair.
func (j *Journal) SetMeta(key, value string) error {
	_, err := j.conn.Exec(
		"INSERT OR REPLACE INTO meta (key, value) VALUES (?, ?)",
		key, value,
	)
	return err
}

// GetMeta retrieves a metadata value.
func (j *Journal) GetMeta(key string) (string, error) {
	var value string
	err := j.conn.Get(&value, "SELECT value FROM meta WHERE key = ?", key)
	return value, err
}

// Flush drains the world's event buffer into the journal. Journal failures
// are logged, never fatal.
func (j *Journal) Flush(w *engine.World) {
	events := w.DrainEvents()
	if err := j.Append(events); err != nil {
		slog.Warn("journal append failed", "events", len(events), "error", err)
	}
}
