package commands

import (
	"context"
	"fmt"

	"yelpreviews/internal/components/chrono"
	"yelpreviews/internal/components/telemetry"
	"yelpreviews/internal/config"
	"yelpreviews/internal/scrape"
	"yelpreviews/internal/scrapers/yelp"
	"yelpreviews/internal/sink"
	"yelpreviews/lib/serviceutil"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(extractCmd)
}

var extractCmd = &cobra.Command{
	Use:   "extract <file.html|snapshot dir>...",
	Short: "Extracts reviews from saved pages and writes them like a scrape would.",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig()
		if err != nil {
			serviceutil.Fatal("failed to load configuration", err)
		}
		err = extractFiles(cmd.Context(), cfg, args)
		if err != nil {
			serviceutil.Fatal("extract failed", err)
		}
	},
}

func extractFiles(ctx context.Context, cfg config.Config, args []string) error {
	paths, err := scrape.ExpandPaths(args)
	if err != nil {
		return err
	}

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

	tel := telemetry.SlogAPI{}
	result, err := scrape.ExtractFiles(ctx, yelp.NewExtractor(cfg.Selectors, tel), chrono.StandardImpl{}, paths)
	if err != nil {
		return err
	}

	err = out.Write(context.WithoutCancel(ctx), sink.Run{
		TargetURL:  cfg.TargetURL,
		StartedAt:  result.StartedAt,
		FinishedAt: result.FinishedAt,
		Pages:      result.Pages,
		StopReason: result.StopReason.String(),
	}, result.Reviews)
	printSummary(cfg, fmt.Sprintf("%d saved pages", len(paths)), result)
	return err
}
