package scrape

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"yelpreviews/internal/components/chrono"
	"yelpreviews/internal/pagedump"
	"yelpreviews/internal/pagination"
	"yelpreviews/internal/reviews"
)

// ExpandPaths replaces every directory in paths by the page snapshots it
// contains.
func ExpandPaths(paths []string) ([]string, error) {
	var out []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			out = append(out, p)
			continue
		}
		files, err := pagedump.List(p)
		if err != nil {
			return nil, err
		}
		out = append(out, files...)
	}
	return out, nil
}

// ExtractFiles collects the reviews of saved pages as if they had been
// scraped in order.
func ExtractFiles(ctx context.Context, ex PageExtractor, clock chrono.API, paths []string) (Result, error) {
	ctx, span := tracer.Start(ctx, "ExtractFiles")
	defer span.End()

	// running out of files is running out of pages
	result := Result{StartedAt: clock.Now(), StopReason: pagination.STOP_NO_NEXT_PAGE}
	collector := reviews.NewCollector()
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			result.StopReason = pagination.STOP_INTERRUPTED
			break
		}

		markup, err := os.ReadFile(path)
		if err != nil {
			return Result{}, err
		}
		page, err := ex.Extract(ctx, string(markup))
		if err != nil {
			return Result{}, fmt.Errorf("extract %s: %w", path, err)
		}

		accepted := 0
		for _, r := range page.Reviews() {
			if collector.Add(r) == reviews.ACCEPTED {
				accepted++
			}
		}
		result.Pages++
		slog.InfoContext(ctx, "extracted page",
			"path", path,
			"blocks", len(page.Blocks),
			"accepted", accepted,
			"total", collector.Count(),
		)
	}

	result.Reviews = collector.Reviews()
	result.FinishedAt = clock.Now()
	return result, nil
}
