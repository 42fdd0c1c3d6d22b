package yelp

import (
	"context"
	"testing"
	"time"

	"yelpreviews/internal/browser/browsertest"
	"yelpreviews/internal/components/chrono"
	"yelpreviews/internal/components/poll"
	"yelpreviews/internal/components/telemetry"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func fastFetchOptions() FetchOptions {
	opts := DefaultFetchOptions()
	opts.ListWait = poll.Options{
		Interval:    time.Millisecond,
		Timeout:     200 * time.Millisecond,
		MaxAttempts: 3,
	}
	return opts
}

func TestFetch(t *testing.T) {
	cases := []struct {
		name        string
		missingList bool
		warnings    int
	}{
		{name: "review list present"},
		{name: "review list never shows up", missingList: true, warnings: 1},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			b := &browsertest.Fake{
				Pages:       map[string]string{DefaultURL: "<html><body>reviews</body></html>"},
				MissingList: c.missingList,
			}
			require.NoError(t, b.Navigate(context.Background(), DefaultURL))

			clock := chrono.NewFake(time.Date(2024, 3, 3, 12, 0, 0, 0, time.UTC))
			tel := &telemetry.Recorder{}
			fetcher := NewFetcher(b, clock, tel, DefaultSelectors().ReviewList, fastFetchOptions())

			markup, err := fetcher.Fetch(context.Background())
			require.NoError(t, err)
			require.Equal(t, "<html><body>reviews</body></html>", markup)

			expectedScrolls := []float64{1.0 / 8, 2.0 / 8, 3.0 / 8, 4.0 / 8, 5.0 / 8, 6.0 / 8, 7.0 / 8, 1}
			if diff := cmp.Diff(expectedScrolls, b.Scrolls()); diff != "" {
				t.Fatal("scroll fractions:", diff)
			}

			expectedSleeps := make([]time.Duration, 9)
			for i := range expectedSleeps {
				expectedSleeps[i] = time.Second
			}
			if diff := cmp.Diff(expectedSleeps, clock.Slept()); diff != "" {
				t.Fatal("pauses:", diff)
			}

			require.Len(t, tel.Find(telemetry.LEVEL_WARNING, report_fetch_wait), c.warnings)
		})
	}
}

func TestFetchCanceled(t *testing.T) {
	b := &browsertest.Fake{Default: "<html></html>"}
	clock := chrono.NewFake(time.Time{})
	fetcher := NewFetcher(b, clock, &telemetry.Recorder{}, DefaultSelectors().ReviewList, fastFetchOptions())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := fetcher.Fetch(ctx)
	require.ErrorIs(t, err, context.Canceled)
}
