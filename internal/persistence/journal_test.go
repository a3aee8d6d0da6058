package persistence

import (
	"path/filepath"
	"testing"

	"github.com/talgya/hearthstead/internal/engine"
)

func TestJournalAppendAndRecent(t *testing.T) {
	j, err := OpenJournal(filepath.Join(t.TempDir(), "journal.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer j.Close()

	events := []engine.Event{
		{Tick: 1, Description: "house completed at (4,7)", Category: "build"},
		{Tick: 2, Description: "snapshot saved", Category: "snapshot"},
	}
	if err := j.Append(events); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := j.Append(nil); err != nil {
		t.Fatalf("empty append: %v", err)
	}

	got, err := j.Recent(10)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("recent = %d events, want 2", len(got))
	}
	// Newest first.
	if got[0].Tick != 2 || got[0].Category != "snapshot" {
		t.Errorf("recent[0] = %+v", got[0])
	}
}

func TestJournalMeta(t *testing.T) {
	j, err := OpenJournal(filepath.Join(t.TempDir(), "journal.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer j.Close()

	if err := j.SetMeta("last_save", "village_x.save"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := j.SetMeta("last_save", "village_y.save"); err != nil {
		t.Fatalf("overwrite: %v", err)
	}

	v, err := j.GetMeta("last_save")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if v != "village_y.save" {
		t.Errorf("meta = %q, want village_y.save", v)
	}
}
