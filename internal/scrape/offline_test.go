package scrape

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"yelpreviews/internal/components/chrono"
	"yelpreviews/internal/components/telemetry"
	"yelpreviews/internal/pagedump"
	"yelpreviews/internal/pagination"
	"yelpreviews/internal/scrapers/yelp"

	"github.com/stretchr/testify/require"
)

func TestExtractFiles(t *testing.T) {
	dir := t.TempDir()
	out, err := pagedump.New(dir)
	require.NoError(t, err)
	out.Write(pagedump.Name(1), pageMarkup(
		reviewItem("Marisol T.", "Best lasagna in Seattle."),
		reviewItem("Jörg K.", "Très bon."),
	))
	out.Write(pagedump.Name(2), pageMarkup(
		reviewItem("Copycat", "Best lasagna in Seattle."),
		reviewItem("Priya N.", "Busy on weekends."),
	))

	loose := filepath.Join(t.TempDir(), "saved.html")
	require.NoError(t, os.WriteFile(loose, []byte(pageMarkup(reviewItem("Sam W.", "Nice view."))), 0600))

	paths, err := ExpandPaths([]string{dir, loose})
	require.NoError(t, err)
	require.Equal(t, []string{
		filepath.Join(dir, "page-001.html"),
		filepath.Join(dir, "page-002.html"),
		loose,
	}, paths)

	ex := yelp.NewExtractor(yelp.DefaultSelectors(), &telemetry.Recorder{})
	result, err := ExtractFiles(context.Background(), ex, chrono.NewFake(time.Time{}), paths)
	require.NoError(t, err)
	require.Equal(t, 3, result.Pages)
	require.Equal(t, pagination.STOP_NO_NEXT_PAGE, result.StopReason)

	var texts []string
	for _, r := range result.Reviews {
		texts = append(texts, r.Text)
	}
	require.Equal(t, []string{"Best lasagna in Seattle.", "Très bon.", "Busy on weekends.", "Nice view."}, texts)
}

func TestExtractFilesMissing(t *testing.T) {
	_, err := ExpandPaths([]string{filepath.Join(t.TempDir(), "nope.html")})
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestExtractFilesInterrupted(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ex := yelp.NewExtractor(yelp.DefaultSelectors(), &telemetry.Recorder{})
	result, err := ExtractFiles(ctx, ex, chrono.NewFake(time.Time{}), []string{"unused.html"})
	require.NoError(t, err)
	require.Equal(t, pagination.STOP_INTERRUPTED, result.StopReason)
	require.Zero(t, result.Pages)
}
