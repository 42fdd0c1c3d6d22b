// Package sink persists the reviews collected by a run.
package sink

import (
	"context"
	"errors"
	"fmt"
	"time"

	"yelpreviews/internal/reviews"
)

// Run describes the scrape that produced the reviews being written.
type Run struct {
	TargetURL  string
	StartedAt  time.Time
	FinishedAt time.Time
	Pages      int
	StopReason string
}

// Sink writes the final sequence of reviews somewhere.
type Sink interface {
	Write(ctx context.Context, run Run, list []reviews.Review) error
}

// Multi writes to every sink, one failing does not prevent the others from
// being written.
type Multi []Sink

func (m Multi) Write(ctx context.Context, run Run, list []reviews.Review) error {
	var errs []error
	for _, s := range m {
		if err := s.Write(ctx, run, list); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Files is the pair of json and csv outputs every run produces.
func Files(jsonPath, csvPath string) Multi {
	return Multi{JSONFile{Path: jsonPath}, CSVFile{Path: csvPath}}
}

func wrap(path string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("write %s: %w", path, err)
}
