package persistence

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

// Placeholders for snapshots whose header cannot be read. Listing is
// best-effort: metadata trouble never hides a file.
const (
	unknownDate = "date unknown"
	noSummary   = "no summary"
)

// Entry describes one snapshot in the catalog.
type Entry struct {
	Path    string    `json:"path"`
	Name    string    `json:"name"`
	ModTime time.Time `json:"mod_time"`
	Age     string    `json:"age"`      // Humanized, e.g. "3 minutes ago"
	SavedAt string    `json:"saved_at"` // Timestamp token from the header
	Summary string    `json:"summary"`  // Free text after the timestamp
}

// List returns the catalog of snapshots in the store's directory, most
// recently modified first (ties broken by name, deterministically). A
// directory that does not yet exist is created empty rather than treated as
// an error.
func (st *Store) List() ([]Entry, error) {
	if err := os.MkdirAll(st.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure snapshot dir: %w", err)
	}

	dirents, err := os.ReadDir(st.Dir)
	if err != nil {
		return nil, fmt.Errorf("list snapshot dir: %w", err)
	}

	var entries []Entry
	for _, de := range dirents {
		if de.IsDir() || !strings.HasSuffix(de.Name(), snapshotExt) {
			continue
		}

		e := Entry{
			Name:    de.Name(),
			Path:    filepath.Join(st.Dir, de.Name()),
			SavedAt: unknownDate,
			Summary: noSummary,
		}
		if info, err := de.Info(); err == nil {
			e.ModTime = info.ModTime()
			e.Age = humanize.Time(e.ModTime)
		}
		readHeader(&e)

		entries = append(entries, e)
	}

	sort.Slice(entries, func(i, j int) bool {
		if !entries[i].ModTime.Equal(entries[j].ModTime) {
			return entries[i].ModTime.After(entries[j].ModTime)
		}
		return entries[i].Name < entries[j].Name
	})

	return entries, nil
}

// readHeader extracts the timestamp and summary from the snapshot's first
// line without deserializing the body. Failures leave the placeholders.
func readHeader(e *Entry) {
	f, err := os.Open(e.Path)
	if err != nil {
		return
	}
	defer f.Close()

	line, err := bufio.NewReader(f).ReadString('\n')
	if err != nil && line == "" {
		return
	}
	line = strings.TrimSpace(line)

	rest, ok := strings.CutPrefix(line, headerMarker+" ")
	if !ok {
		return
	}

	// "<timestamp> <free-text summary>"
	ts, summary, found := strings.Cut(rest, " ")
	if _, err := time.Parse(time.RFC3339, ts); err != nil {
		return
	}
	e.SavedAt = ts
	if found && summary != "" {
		e.Summary = summary
	}
}
