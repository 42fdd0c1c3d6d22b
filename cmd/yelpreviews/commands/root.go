package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"yelpreviews/internal/components/telemetry"
	"yelpreviews/internal/config"
	"yelpreviews/internal/db"
	"yelpreviews/internal/report"
	"yelpreviews/internal/scrape"
	"yelpreviews/internal/sink"

	"github.com/spf13/cobra"
)

const serviceName = "yelpreviews"

var (
	configPath string
	dbPath     string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "yelpreviews [--pages <n>] [--min_reviews <n>] [--headless]",
	Short: "yelpreviews scrapes the reviews of a yelp business page into data.json and data.csv.",
	Args:  cobra.NoArgs,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		telemetry.InitSlog(verbose)
	},
	Run: runScrape,
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configPath, "config", config.DefaultPath, "The configuration file with selector and timing overrides.")
	flags.StringVar(&dbPath, "db", "", "A sqlite database to archive the run into.")
	flags.BoolVar(&verbose, "verbose", false, "Log debug messages.")
}

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadConfig() (config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return config.Config{}, err
	}
	if dbPath != "" {
		cfg.Output.DBPath = dbPath
	}
	return cfg, nil
}

// setupTelemetry starts exporting traces and metrics when the config asks
// for it, the returned function flushes them.
func setupTelemetry(ctx context.Context, cfg config.Config) (func(), error) {
	otel, err := telemetry.SetupOtel(ctx, serviceName, cfg.Telemetry)
	if err != nil {
		return nil, fmt.Errorf("setup otel: %w", err)
	}
	perfCtx, stopPerf := context.WithCancel(ctx)
	if cfg.Telemetry.Enabled() {
		telemetry.InstrumentPerfStats(perfCtx, 15*time.Second)
	}

	return func() {
		stopPerf()
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := otel.Shutdown(ctx); err != nil {
			slog.Warn("failed to flush telemetry", "err", err)
		}
	}, nil
}

// openSink returns the sinks configured by cfg and a function releasing them.
func openSink(ctx context.Context, cfg config.Config) (sink.Sink, func(), error) {
	out := sink.Files(cfg.Output.JSONPath, cfg.Output.CSVPath)
	if cfg.Output.DBPath == "" {
		return out, func() {}, nil
	}

	database, err := db.Open(ctx, cfg.Output.DBPath)
	if err != nil {
		return nil, nil, err
	}
	out = append(out, sink.NewSQLite(database))
	return out, func() {
		if err := database.Close(); err != nil {
			slog.Warn("failed to close archive", "path", cfg.Output.DBPath, "err", err)
		}
	}, nil
}

func outputs(cfg config.Config) []string {
	out := []string{cfg.Output.JSONPath, cfg.Output.CSVPath}
	if cfg.Output.DBPath != "" {
		out = append(out, cfg.Output.DBPath)
	}
	return out
}

func printSummary(cfg config.Config, target string, result scrape.Result) {
	report.Render(os.Stdout, report.Summary{
		TargetURL:  target,
		Pages:      result.Pages,
		StopReason: result.StopReason.String(),
		Reviews:    result.Reviews,
		Outputs:    outputs(cfg),
	})
	slog.Info("done",
		"pages", result.Pages,
		"reviews", len(result.Reviews),
		"seconds", result.FinishedAt.Sub(result.StartedAt).Seconds(),
	)
}
