package persistence

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestListMissingDirectory(t *testing.T) {
	st := &Store{Dir: filepath.Join(t.TempDir(), "not", "yet", "there")}

	entries, err := st.List()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("entries = %d, want 0", len(entries))
	}

	// The directory was created so the next save has a home.
	if _, err := os.Stat(st.Dir); err != nil {
		t.Errorf("directory not created: %v", err)
	}

	// Listing again is idempotent.
	if _, err := st.List(); err != nil {
		t.Fatalf("second list: %v", err)
	}
}

func TestListOrdersByModTime(t *testing.T) {
	st := testStore(t)
	w := driftedWorld()

	older, err := st.Save(w, "older")
	if err != nil {
		t.Fatal(err)
	}
	newer, err := st.Save(w, "newer")
	if err != nil {
		t.Fatal(err)
	}

	// Make mtimes unambiguous regardless of filesystem resolution.
	now := time.Now()
	os.Chtimes(older, now.Add(-time.Hour), now.Add(-time.Hour))
	os.Chtimes(newer, now, now)

	entries, err := st.List()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("entries = %d, want 2", len(entries))
	}
	if entries[0].Name != "newer.save" || entries[1].Name != "older.save" {
		t.Errorf("order = %s, %s; want newest first", entries[0].Name, entries[1].Name)
	}
	if entries[0].Summary == noSummary {
		t.Error("valid header should yield a summary")
	}
	if entries[0].SavedAt == unknownDate {
		t.Error("valid header should yield a timestamp")
	}
	if entries[0].Age == "" {
		t.Error("age should be humanized")
	}
}

func TestListIgnoresForeignFiles(t *testing.T) {
	st := testStore(t)
	w := driftedWorld()
	if _, err := st.Save(w, "real"); err != nil {
		t.Fatal(err)
	}
	os.WriteFile(filepath.Join(st.Dir, "notes.txt"), []byte("hi"), 0o644)
	os.Mkdir(filepath.Join(st.Dir, "sub.save"), 0o755)

	entries, err := st.List()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(entries) != 1 || entries[0].Name != "real.save" {
		t.Fatalf("entries = %+v, want only real.save", entries)
	}
}

func TestListBadHeaderStillListed(t *testing.T) {
	st := testStore(t)

	bad := filepath.Join(st.Dir, "mystery.save")
	os.MkdirAll(st.Dir, 0o755)
	if err := os.WriteFile(bad, []byte("garbage first line\nmore garbage"), 0o644); err != nil {
		t.Fatal(err)
	}

	entries, err := st.List()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("entries = %d, want the unparseable file listed", len(entries))
	}
	e := entries[0]
	if e.SavedAt != unknownDate || e.Summary != noSummary {
		t.Errorf("placeholders not applied: %+v", e)
	}
}

func TestListDeterministicTieBreak(t *testing.T) {
	st := testStore(t)
	os.MkdirAll(st.Dir, 0o755)

	stamp := time.Now().Truncate(time.Second)
	for _, name := range []string{"b.save", "a.save", "c.save"} {
		p := filepath.Join(st.Dir, name)
		os.WriteFile(p, []byte("x\n"), 0o644)
		os.Chtimes(p, stamp, stamp)
	}

	entries, err := st.List()
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"a.save", "b.save", "c.save"}
	for i, e := range entries {
		if e.Name != want[i] {
			t.Fatalf("tie order = %v at %d, want %v", e.Name, i, want)
		}
	}
}
