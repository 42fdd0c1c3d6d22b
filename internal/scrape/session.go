// Package scrape runs a scrape session: it walks the pages of reviews,
// collects what it finds and persists the result however the run ends.
package scrape

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"yelpreviews/internal/browser"
	"yelpreviews/internal/components/assert"
	"yelpreviews/internal/components/chrono"
	"yelpreviews/internal/components/poll"
	"yelpreviews/internal/components/telemetry"
	"yelpreviews/internal/pagedump"
	"yelpreviews/internal/pagination"
	"yelpreviews/internal/reviews"
	"yelpreviews/internal/scrapers/yelp"
	"yelpreviews/internal/sink"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("yelpreviews/scrape")
var meter = otel.Meter("yelpreviews/scrape")

var pagesCounter, _ = meter.Int64Counter("scrape.pages")
var acceptedCounter, _ = meter.Int64Counter("scrape.reviews_accepted")
var rejectedCounter, _ = meter.Int64Counter("scrape.reviews_rejected")

const (
	report_session_open      = "session.open"
	report_session_close     = "session.close-browser"
	report_session_invalid   = "session.rejected-invalid"
	report_session_duplicate = "session.rejected-duplicate"
	report_session_panic     = "session.panic"
)

type PageFetcher interface {
	Fetch(ctx context.Context) (string, error)
}

type PageExtractor interface {
	Extract(ctx context.Context, markup string) (yelp.Page, error)
}

type PageAdvancer interface {
	Advance(ctx context.Context) (pagination.Method, error)
}

type Deps struct {
	Browser   browser.Controller
	Fetcher   PageFetcher
	Extractor PageExtractor
	Advancer  PageAdvancer
	Sink      sink.Sink
	// Snapshots receives the markup of every page, the zero value discards it.
	Snapshots pagedump.Output
	Clock     chrono.API
	Tel       telemetry.API
}

type Options struct {
	TargetURL string
	Limits    pagination.Limits
	// Settle bounds the wait for the target url to load.
	Settle poll.Options
	// InitialPause is waited once the target url has loaded.
	InitialPause time.Duration
	// PersistTimeout bounds writing the results, which happens on a context
	// detached from the one given to Run.
	PersistTimeout time.Duration
}

type Result struct {
	Pages      int
	Reviews    []reviews.Review
	StopReason pagination.StopReason
	StartedAt  time.Time
	FinishedAt time.Time
}

// Session owns the browser for the duration of a single run.
type Session struct {
	Deps
	opts      Options
	driver    *pagination.Driver
	collector *reviews.Collector
	ran       bool
}

func NewSession(deps Deps, opts Options) *Session {
	assert.NotNil(deps.Browser)
	assert.NotNil(deps.Fetcher)
	assert.NotNil(deps.Extractor)
	assert.NotNil(deps.Advancer)
	assert.NotNil(deps.Sink)
	assert.NotNil(deps.Clock)
	assert.NotNil(deps.Tel)
	assert.NotEmptyStr(opts.TargetURL)

	if opts.PersistTimeout <= 0 {
		opts.PersistTimeout = 30 * time.Second
	}
	deps.Tel = telemetry.NewScopedAPI("scrape", deps.Tel)

	return &Session{
		Deps:      deps,
		opts:      opts,
		driver:    pagination.NewDriver(opts.Limits),
		collector: reviews.NewCollector(),
	}
}

// Run scrapes until the driver stops. Whatever happens, including a panic
// (which is re-raised afterwards), the collected reviews are written to the
// sink exactly once and the browser is closed. An interruption through ctx is
// a normal stop.
func (s *Session) Run(ctx context.Context) (result Result, err error) {
	if s.ran {
		return Result{}, errors.New("a session can only run once")
	}
	s.ran = true

	startedAt := s.Clock.Now()
	defer func() {
		recovered := recover()
		if recovered != nil {
			s.Tel.ReportBroken(report_session_panic, recovered)
			s.driver.Fail()
		} else if err != nil {
			s.driver.Fail()
		}

		result = Result{
			Pages:      s.driver.Pages(),
			Reviews:    s.collector.Reviews(),
			StopReason: s.driver.StopReason(),
			StartedAt:  startedAt,
			FinishedAt: s.Clock.Now(),
		}
		persistErr := s.persist(ctx, result)

		if closeErr := s.Browser.Close(); closeErr != nil {
			s.Tel.ReportWarning(report_session_close, closeErr)
		}
		if recovered != nil {
			panic(recovered)
		}
		err = errors.Join(err, persistErr)
	}()

	ctx, span := tracer.Start(ctx, "Run", trace.WithAttributes(
		attribute.String("target_url", s.opts.TargetURL),
	))
	defer span.End()

	err = s.open(ctx)
	if err != nil {
		return result, s.interrupted(ctx, err)
	}
	return result, s.loop(ctx)
}

func (s *Session) persist(ctx context.Context, result Result) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.opts.PersistTimeout)
	defer cancel()

	slog.InfoContext(ctx, "saving results", "reviews", len(result.Reviews))
	err := s.Sink.Write(ctx, sink.Run{
		TargetURL:  s.opts.TargetURL,
		StartedAt:  result.StartedAt,
		FinishedAt: result.FinishedAt,
		Pages:      result.Pages,
		StopReason: result.StopReason.String(),
	}, result.Reviews)
	if err != nil {
		return fmt.Errorf("persist results: %w", err)
	}
	return nil
}

// interrupted turns err into a normal stop when it was caused by ctx being
// canceled.
func (s *Session) interrupted(ctx context.Context, err error) error {
	if ctx.Err() == nil {
		return err
	}
	s.driver.Interrupt()
	slog.WarnContext(ctx, "scrape interrupted", "pages", s.driver.Pages(), "reviews", s.collector.Count())
	return nil
}

func (s *Session) open(ctx context.Context) error {
	slog.InfoContext(ctx, "opening target", "url", s.opts.TargetURL)
	err := s.Browser.Navigate(ctx, s.opts.TargetURL)
	if err != nil {
		return fmt.Errorf("open %s: %w", s.opts.TargetURL, err)
	}
	err = browser.WaitLoaded(ctx, s.Browser, s.opts.Settle)
	if errors.Is(err, poll.ErrTimeout) {
		s.Tel.ReportWarning(report_session_open, s.opts.TargetURL, err)
	} else if err != nil {
		return err
	}
	return s.Clock.Sleep(ctx, s.opts.InitialPause)
}

func (s *Session) loop(ctx context.Context) error {
	for s.driver.State() == pagination.STATE_SCRAPING_PAGE {
		page := s.driver.Pages() + 1
		err := s.scrapePage(ctx, page)
		if err != nil {
			return s.interrupted(ctx, err)
		}
		s.driver.PageScraped()

		collected := s.collector.Count()
		extraBefore := s.driver.ExtraPages()
		if s.driver.Evaluate(collected) == pagination.STATE_STOPPED {
			slog.InfoContext(ctx, "stopping", "reason", s.driver.StopReason(), "pages", page, "reviews", collected)
			return nil
		}
		if s.driver.ExtraPages() > extraBefore {
			slog.InfoContext(ctx, "not enough reviews yet, attempting extra page",
				"reviews", collected,
				"extra", s.driver.ExtraPages(),
			)
		}

		method, err := s.Advancer.Advance(ctx)
		if err != nil {
			return s.interrupted(ctx, err)
		}
		if s.driver.Advanced(method != pagination.ADVANCE_NONE) == pagination.STATE_STOPPED {
			slog.InfoContext(ctx, "no next page available", "pages", page, "reviews", collected)
			return nil
		}
		slog.DebugContext(ctx, "moved to next page", "method", method)
	}
	return nil
}

func (s *Session) scrapePage(ctx context.Context, page int) error {
	ctx, span := tracer.Start(ctx, "ScrapePage", trace.WithAttributes(
		attribute.Int("page", page),
	))
	defer span.End()

	slog.InfoContext(ctx, "scraping page", "page", page)
	markup, err := s.Fetcher.Fetch(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch page")
		return fmt.Errorf("fetch page %d: %w", page, err)
	}
	s.Snapshots.Write(pagedump.Name(page), markup)

	extracted, err := s.Extractor.Extract(ctx, markup)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to extract page")
		return fmt.Errorf("extract page %d: %w", page, err)
	}
	slog.InfoContext(ctx, "found candidate review blocks",
		"page", page,
		"count", len(extracted.Blocks),
		"strategy", extracted.Strategy,
	)

	var accepted, invalid, duplicate int64
	for _, r := range extracted.Reviews() {
		switch s.collector.Add(r) {
		case reviews.ACCEPTED:
			accepted++
		case reviews.REJECTED_INVALID:
			invalid++
		case reviews.REJECTED_DUPLICATE:
			duplicate++
		}
	}
	span.SetAttributes(
		attribute.Int("blocks", len(extracted.Blocks)),
		attribute.Int64("accepted", accepted),
	)

	pagesCounter.Add(ctx, 1)
	acceptedCounter.Add(ctx, accepted)
	rejectedCounter.Add(ctx, invalid, metric.WithAttributes(attribute.String("reason", reviews.REJECTED_INVALID.String())))
	rejectedCounter.Add(ctx, duplicate, metric.WithAttributes(attribute.String("reason", reviews.REJECTED_DUPLICATE.String())))
	s.Tel.ReportCount(report_session_invalid, invalid)
	s.Tel.ReportCount(report_session_duplicate, duplicate)

	slog.InfoContext(ctx, "collected reviews", "page", page, "accepted", accepted, "total", s.collector.Count())
	return nil
}
