// Package config holds the settings of a scrape run, read from an optional
// json5 file decoded over built-in defaults.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"yelpreviews/internal/browser"
	"yelpreviews/internal/components/poll"
	"yelpreviews/internal/components/telemetry"
	"yelpreviews/internal/scrapers/yelp"
	"yelpreviews/lib/configutil"
)

const DefaultPath = "yelpreviews.json5"

type BrowserConfig struct {
	Headless  bool   `json:"headless"`
	UserAgent string `json:"user_agent"`
	ExecPath  string `json:"exec_path"`
	// every navigation is bounded by this
	PageLoadTimeoutMs int `json:"page_load_timeout_ms"`
	ActionTimeoutMs   int `json:"action_timeout_ms"`
	// ClickPauseMs is waited between scrolling the next control into view and
	// clicking it.
	ClickPauseMs int `json:"click_pause_ms"`
}

type FetchConfig struct {
	ScrollSteps   int `json:"scroll_steps"`
	ScrollPauseMs int `json:"scroll_pause_ms"`
	SettlePauseMs int `json:"settle_pause_ms"`
	ListWaitMs    int `json:"list_wait_ms"`
	ListPollMs    int `json:"list_poll_ms"`
}

type PaginationConfig struct {
	Pages      int `json:"pages"`
	MinReviews int `json:"min_reviews"`
	// SafetyCap bounds the pages scraped past Pages while MinReviews is unmet.
	SafetyCap int `json:"safety_cap"`
	// Stride is added to the start= query parameter when paginating by url.
	Stride int `json:"stride"`
	// InitialPauseMs is waited once the target url has loaded.
	InitialPauseMs int `json:"initial_pause_ms"`
	// AdvancePauseMs is waited after moving to the next page.
	AdvancePauseMs  int `json:"advance_pause_ms"`
	SettleTimeoutMs int `json:"settle_timeout_ms"`
}

type OutputConfig struct {
	JSONPath string `json:"json_path"`
	CSVPath  string `json:"csv_path"`
	// DBPath enables the sqlite archive of the run when set.
	DBPath string `json:"db_path"`
	// SnapshotDir enables dumping the markup of every scraped page when set.
	SnapshotDir string `json:"snapshot_dir"`
}

type Config struct {
	TargetURL  string           `json:"target_url"`
	Pagination PaginationConfig `json:"pagination"`
	Browser    BrowserConfig    `json:"browser"`
	Fetch      FetchConfig      `json:"fetch"`
	Output     OutputConfig     `json:"output"`
	Selectors  yelp.Selectors   `json:"selectors"`
	Telemetry  telemetry.Config `json:"telemetry"`
}

func Default() Config {
	return Config{
		TargetURL: yelp.DefaultURL,
		Pagination: PaginationConfig{
			Pages:           3,
			MinReviews:      15,
			SafetyCap:       10,
			Stride:          20,
			InitialPauseMs:  2000,
			AdvancePauseMs:  2500,
			SettleTimeoutMs: 10_000,
		},
		Browser: BrowserConfig{
			UserAgent:         browser.DefaultUserAgent,
			PageLoadTimeoutMs: 60_000,
			ActionTimeoutMs:   10_000,
			ClickPauseMs:      int(browser.DefaultClickPause / time.Millisecond),
		},
		Fetch: FetchConfig{
			ScrollSteps:   8,
			ScrollPauseMs: 1000,
			SettlePauseMs: 1000,
			ListWaitMs:    12_000,
			ListPollMs:    500,
		},
		Output: OutputConfig{
			JSONPath: "data.json",
			CSVPath:  "data.csv",
		},
		Selectors: yelp.DefaultSelectors(),
	}
}

// Load decodes the configuration file at path (and its local override) over
// the defaults. A bare file name is also searched for in the parent
// directories. Missing files are not an error.
func Load(path string) (Config, error) {
	cfg := Default()
	// the decoder fills existing array elements in place, blocks from a file
	// replace the default cascade as a whole
	cfg.Selectors.Blocks = nil

	read := configutil.ReadConfig[Config]
	if filepath.Base(path) == path {
		read = configutil.ReadRecursively[Config]
	}
	err := read(path, &cfg)
	if errors.Is(err, os.ErrNotExist) {
		cfg = Default()
		return cfg, cfg.Validate()
	}
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}
	if cfg.Selectors.Blocks == nil {
		cfg.Selectors.Blocks = yelp.DefaultSelectors().Blocks
	}

	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	var errs []error
	u, err := url.Parse(c.TargetURL)
	if err != nil {
		errs = append(errs, fmt.Errorf("target_url: %w", err))
	} else if u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Errorf("target_url: %q is not absolute", c.TargetURL))
	}
	if c.Pagination.Stride <= 0 {
		errs = append(errs, fmt.Errorf("pagination.stride: must be positive, got %d", c.Pagination.Stride))
	}
	if c.Pagination.SafetyCap < 0 {
		errs = append(errs, fmt.Errorf("pagination.safety_cap: must not be negative, got %d", c.Pagination.SafetyCap))
	}
	if c.Fetch.ScrollSteps <= 0 {
		errs = append(errs, fmt.Errorf("fetch.scroll_steps: must be positive, got %d", c.Fetch.ScrollSteps))
	}
	if c.Output.JSONPath == "" || c.Output.CSVPath == "" {
		errs = append(errs, errors.New("output: json_path and csv_path are required"))
	}
	if err := c.Selectors.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("selectors: %w", err))
	}
	return errors.Join(errs...)
}

func ms(v int) time.Duration {
	return time.Duration(v) * time.Millisecond
}

// attempts spreads a wait of total over checks every interval.
func attempts(total, interval time.Duration) uint64 {
	if interval <= 0 || total <= 0 {
		return 0
	}
	n := uint64(total / interval)
	if n == 0 {
		return 1
	}
	return n
}

func (c Config) BrowserOptions() browser.Options {
	return browser.Options{
		Headless:        c.Browser.Headless,
		UserAgent:       c.Browser.UserAgent,
		ExecPath:        c.Browser.ExecPath,
		PageLoadTimeout: ms(c.Browser.PageLoadTimeoutMs),
		ActionTimeout:   ms(c.Browser.ActionTimeoutMs),
		ClickPause:      ms(c.Browser.ClickPauseMs),
	}
}

func (c Config) FetchOptions() yelp.FetchOptions {
	wait, interval := ms(c.Fetch.ListWaitMs), ms(c.Fetch.ListPollMs)
	return yelp.FetchOptions{
		ScrollSteps: c.Fetch.ScrollSteps,
		ScrollPause: ms(c.Fetch.ScrollPauseMs),
		SettlePause: ms(c.Fetch.SettlePauseMs),
		ListWait: poll.Options{
			Interval:    interval,
			Timeout:     wait,
			MaxAttempts: attempts(wait, interval),
		},
	}
}

// SettleOptions is the wait for a page to finish loading after a navigation
// or a click.
func (c Config) SettleOptions() poll.Options {
	timeout := ms(c.Pagination.SettleTimeoutMs)
	return poll.Options{
		Interval:    browser.DefaultSettle.Interval,
		Timeout:     timeout,
		MaxAttempts: attempts(timeout, browser.DefaultSettle.Interval),
	}
}
