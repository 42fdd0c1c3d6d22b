package commands

import (
	"context"
	"fmt"
	"time"

	"yelpreviews/internal/browser"
	"yelpreviews/internal/components/chrono"
	"yelpreviews/internal/components/telemetry"
	"yelpreviews/internal/config"
	"yelpreviews/internal/pagedump"
	"yelpreviews/internal/pagination"
	"yelpreviews/internal/scrape"
	"yelpreviews/internal/scrapers/yelp"
	"yelpreviews/lib/serviceutil"

	"github.com/spf13/cobra"
)

var (
	pages        int
	minReviews   int
	headless     bool
	snapshotsDir string
)

func init() {
	flags := rootCmd.Flags()
	flags.IntVar(&pages, "pages", 3, "The amount of pages to scrape.")
	flags.IntVar(&minReviews, "min_reviews", 15, "The minimum amount of reviews to collect, more pages are scraped until it is reached.")
	flags.BoolVar(&headless, "headless", false, "Run chrome without a window.")
	flags.StringVar(&snapshotsDir, "snapshots", "", "A directory to dump the markup of every scraped page into.")
}

func ms(v int) time.Duration {
	return time.Duration(v) * time.Millisecond
}

// applyFlags overrides the configuration with the flags given explicitly.
func applyFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("pages") {
		cfg.Pagination.Pages = pages
	}
	if flags.Changed("min_reviews") {
		cfg.Pagination.MinReviews = minReviews
	}
	if flags.Changed("headless") {
		cfg.Browser.Headless = headless
	}
	if flags.Changed("snapshots") {
		cfg.Output.SnapshotDir = snapshotsDir
	}
}

func runScrape(cmd *cobra.Command, args []string) {
	cfg, err := loadConfig()
	if err != nil {
		serviceutil.Fatal("failed to load configuration", err)
	}
	applyFlags(cmd, &cfg)

	err = scrapeTarget(cmd.Context(), cfg)
	if err != nil {
		serviceutil.Fatal("scrape failed", err)
	}
}

func scrapeTarget(ctx context.Context, cfg config.Config) error {
	shutdown, err := setupTelemetry(ctx, cfg)
	if err != nil {
		return err
	}
	defer shutdown()

	out, closeSink, err := openSink(ctx, cfg)
	if err != nil {
		return fmt.Errorf("open outputs: %w", err)
	}
	defer closeSink()

	snapshots, err := pagedump.New(cfg.Output.SnapshotDir)
	if err != nil {
		return fmt.Errorf("prepare snapshot directory: %w", err)
	}

	tel := telemetry.SlogAPI{}
	clock := chrono.StandardImpl{}

	chrome, err := browser.Launch(ctx, cfg.BrowserOptions(), tel)
	if err != nil {
		return fmt.Errorf("launch browser: %w", err)
	}

	session := scrape.NewSession(scrape.Deps{
		Browser:   chrome,
		Fetcher:   yelp.NewFetcher(chrome, clock, tel, cfg.Selectors.ReviewList, cfg.FetchOptions()),
		Extractor: yelp.NewExtractor(cfg.Selectors, tel),
		Advancer: pagination.NewAdvancer(chrome, clock, tel, pagination.AdvanceOptions{
			Next:   cfg.Selectors.Next,
			Stride: cfg.Pagination.Stride,
			Settle: cfg.SettleOptions(),
			Pause:  ms(cfg.Pagination.AdvancePauseMs),
		}),
		Sink:      out,
		Snapshots: snapshots,
		Clock:     clock,
		Tel:       tel,
	}, scrape.Options{
		TargetURL: cfg.TargetURL,
		Limits: pagination.Limits{
			TargetPages: cfg.Pagination.Pages,
			MinReviews:  cfg.Pagination.MinReviews,
			SafetyCap:   cfg.Pagination.SafetyCap,
		},
		Settle:       cfg.SettleOptions(),
		InitialPause: ms(cfg.Pagination.InitialPauseMs),
	})

	result, err := session.Run(ctx)
	printSummary(cfg, cfg.TargetURL, result)
	return err
}
