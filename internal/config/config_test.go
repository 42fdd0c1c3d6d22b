package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"yelpreviews/internal/browser"
	"yelpreviews/internal/components/poll"
	"yelpreviews/internal/scrapers/yelp"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	require.NoError(t, Default().Validate())
}

func TestLoadMissingFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "yelpreviews.json5"))
	require.NoError(t, err)
	if diff := cmp.Diff(Default(), cfg); diff != "" {
		t.Fatal(diff)
	}
}

func TestLoadOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "yelpreviews.json5")
	require.NoError(t, os.WriteFile(path, []byte(`{
		target_url: "https://www.yelp.com/biz/some-other-place",
		pagination: { pages: 5, stride: 10 },
		selectors: {
			fields: {
				rating: { queries: ["span.stars"], attr: "title" },
			},
			next: { query: "a.next-link", xpath: false },
		},
	}`), 0600))
	require.NoError(t, os.WriteFile(filepath.Join(filepath.Dir(path), "yelpreviews.local.json5"), []byte(`{
		pagination: { min_reviews: 40 },
	}`), 0600))

	cfg, err := Load(path)
	require.NoError(t, err)

	require.Equal(t, "https://www.yelp.com/biz/some-other-place", cfg.TargetURL)
	require.Equal(t, 5, cfg.Pagination.Pages)
	require.Equal(t, 40, cfg.Pagination.MinReviews)
	require.Equal(t, 10, cfg.Pagination.Stride)
	require.Equal(t, 10, cfg.Pagination.SafetyCap)
	require.Equal(t, browser.Target{Query: "a.next-link"}, cfg.Selectors.Next)
	if diff := cmp.Diff(yelp.DefaultSelectors().Blocks, cfg.Selectors.Blocks); diff != "" {
		t.Fatal("blocks keep their defaults:", diff)
	}

	expectedRating := yelp.FieldRule{Queries: []string{"span.stars"}, Attr: "title"}
	if diff := cmp.Diff(expectedRating, cfg.Selectors.Fields[yelp.FIELD_RATING]); diff != "" {
		t.Fatal(diff)
	}
	defaults := yelp.DefaultSelectors()
	if diff := cmp.Diff(defaults.Fields[yelp.FIELD_TEXT], cfg.Selectors.Fields[yelp.FIELD_TEXT]); diff != "" {
		t.Fatal("untouched rules keep their defaults:", diff)
	}
}

func TestLoadExplicitZeros(t *testing.T) {
	path := filepath.Join(t.TempDir(), "yelpreviews.json5")
	require.NoError(t, os.WriteFile(path, []byte(`{
		pagination: { pages: 5, safety_cap: 0, initial_pause_ms: 0, advance_pause_ms: 0 },
		browser: { click_pause_ms: 0 },
	}`), 0600))

	cfg, err := Load(path)
	require.NoError(t, err)

	require.Equal(t, 5, cfg.Pagination.Pages)
	require.Equal(t, 0, cfg.Pagination.SafetyCap)
	require.Equal(t, 0, cfg.Pagination.InitialPauseMs)
	require.Equal(t, 0, cfg.Pagination.AdvancePauseMs)
	require.Equal(t, 0, cfg.Browser.ClickPauseMs)
	require.Equal(t, Default().Pagination.MinReviews, cfg.Pagination.MinReviews)
	require.Equal(t, Default().Pagination.SettleTimeoutMs, cfg.Pagination.SettleTimeoutMs)
}

func TestLoadBlocksReplaceDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "yelpreviews.json5")
	require.NoError(t, os.WriteFile(path, []byte(`{
		selectors: { blocks: [{ item: "article.review" }] },
	}`), 0600))

	cfg, err := Load(path)
	require.NoError(t, err)
	if diff := cmp.Diff([]yelp.BlockQuery{{Item: "article.review"}}, cfg.Selectors.Blocks); diff != "" {
		t.Fatal(diff)
	}
}

func TestLoadInvalid(t *testing.T) {
	cases := []struct {
		name     string
		contents string
		contains string
	}{
		{
			name:     "broken selector",
			contents: `{selectors: {review_list: "ul[data-testid="}}`,
			contains: "review_list",
		},
		{
			name:     "relative target",
			contents: `{target_url: "/biz/the-pink-door-seattle-4"}`,
			contains: "target_url",
		},
		{
			name:     "negative cap",
			contents: `{pagination: {safety_cap: -1}}`,
			contains: "safety_cap",
		},
		{
			name:     "syntax error",
			contents: `{pagination: `,
			contains: "read config",
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "yelpreviews.json5")
			require.NoError(t, os.WriteFile(path, []byte(c.contents), 0600))

			_, err := Load(path)
			require.ErrorContains(t, err, c.contains)
		})
	}
}

func TestOptions(t *testing.T) {
	cfg := Default()

	expectedFetch := yelp.FetchOptions{
		ScrollSteps: 8,
		ScrollPause: time.Second,
		SettlePause: time.Second,
		ListWait: poll.Options{
			Interval:    500 * time.Millisecond,
			Timeout:     12 * time.Second,
			MaxAttempts: 24,
		},
	}
	if diff := cmp.Diff(expectedFetch, cfg.FetchOptions()); diff != "" {
		t.Fatal(diff)
	}

	expectedBrowser := browser.Options{
		UserAgent:       browser.DefaultUserAgent,
		PageLoadTimeout: time.Minute,
		ActionTimeout:   10 * time.Second,
		ClickPause:      600 * time.Millisecond,
	}
	if diff := cmp.Diff(expectedBrowser, cfg.BrowserOptions()); diff != "" {
		t.Fatal(diff)
	}

	require.Equal(t, browser.DefaultSettle, cfg.SettleOptions())
}
