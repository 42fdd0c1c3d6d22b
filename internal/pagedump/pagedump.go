// Package pagedump keeps the rendered markup of every scraped page on disk so
// that extraction can be replayed offline.
package pagedump

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
)

// Output writes page snapshots to a directory. The zero value discards them.
type Output struct {
	directory string
}

// New empties dir (creating it when needed) and returns an Output writing to it.
func New(dir string) (Output, error) {
	if dir == "" {
		return Output{}, nil
	}
	err := os.RemoveAll(dir)
	if err != nil {
		return Output{}, err
	}
	err = os.MkdirAll(dir, 0777)
	if err != nil {
		return Output{}, err
	}
	return Output{directory: dir}, nil
}

func (o Output) Enabled() bool {
	return o.directory != ""
}

// Name is the snapshot file name of the page-th page of a run.
func Name(page int) string {
	return fmt.Sprintf("page-%03d.html", page)
}

// Write stores markup under id, failures are only logged since snapshots
// never affect the run.
func (o Output) Write(id string, markup string) {
	if !o.Enabled() {
		return
	}
	err := os.WriteFile(filepath.Join(o.directory, id), []byte(markup), 0600)
	if err != nil {
		slog.Warn("failed to write page snapshot", "id", id, "err", err)
	}
}

// List returns the html snapshots in dir in page order.
func List(dir string) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*.html"))
	if err != nil {
		return nil, err
	}
	sort.Strings(matches)
	return matches, nil
}
