package pagination

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"yelpreviews/internal/browser"
	"yelpreviews/internal/components/assert"
	"yelpreviews/internal/components/chrono"
	"yelpreviews/internal/components/poll"
	"yelpreviews/internal/components/telemetry"

	"github.com/PuerkitoBio/purell"
)

const (
	report_advance_click    = "advancer.click-next"
	report_advance_url      = "advancer.url"
	report_advance_settle   = "advancer.settle"
	report_advance_navigate = "advancer.navigate"
)

var startParam = regexp.MustCompile(`start=(\d+)`)

// NextPageURL returns the url of the page after current, found by adding
// stride to its start= offset. A url with no usable offset gets start=stride.
func NextPageURL(current string, stride int) (string, error) {
	var next string
	if m := startParam.FindStringSubmatch(current); m != nil {
		offset, err := strconv.Atoi(m[1])
		if err != nil {
			return "", fmt.Errorf("start offset %q: %w", m[1], err)
		}
		next = startParam.ReplaceAllString(current, "start="+strconv.Itoa(offset+stride))
	} else if strings.Contains(current, "start=") || strings.Contains(current, "?") {
		next = current + "&start=" + strconv.Itoa(stride)
	} else {
		next = current + "?start=" + strconv.Itoa(stride)
	}

	normalized, err := purell.NormalizeURLString(next, purell.FlagsSafe)
	if err != nil {
		return "", fmt.Errorf("normalize %q: %w", next, err)
	}
	return normalized, nil
}

type Method int

const (
	ADVANCE_NONE Method = iota
	ADVANCE_CLICK
	ADVANCE_URL
)

func (m Method) String() string {
	switch m {
	case ADVANCE_CLICK:
		return "click"
	case ADVANCE_URL:
		return "url"
	}
	return "none"
}

type AdvanceOptions struct {
	// Next is the control clicked to reach the next page.
	Next   browser.Target
	Stride int
	// Settle bounds the wait for the next page to finish loading.
	Settle poll.Options
	// Pause is waited once the next page has loaded.
	Pause time.Duration
}

// Advancer moves the browser to the next page of reviews, by clicking the
// next control or, failing that, by rewriting the url.
type Advancer struct {
	browser browser.Controller
	clock   chrono.API
	tel     telemetry.API
	opts    AdvanceOptions
}

func NewAdvancer(b browser.Controller, clock chrono.API, tel telemetry.API, opts AdvanceOptions) Advancer {
	assert.NotNil(b)
	assert.NotNil(clock)
	assert.NotNil(tel)
	assert.NotEmptyStr(opts.Next.Query)
	assert.Positive("stride", opts.Stride)

	return Advancer{
		browser: b,
		clock:   clock,
		tel:     telemetry.NewScopedAPI("pagination", tel),
		opts:    opts,
	}
}

// settle waits for the page to load, a page that never reports complete is
// still scraped.
func (a Advancer) settle(ctx context.Context) error {
	err := browser.WaitLoaded(ctx, a.browser, a.opts.Settle)
	if errors.Is(err, poll.ErrTimeout) {
		a.tel.ReportWarning(report_advance_settle, err)
	} else if err != nil {
		return err
	}
	return a.clock.Sleep(ctx, a.opts.Pause)
}

// Advance returns ADVANCE_NONE when neither strategy reached a next page.
// Errors are only returned when ctx is done.
func (a Advancer) Advance(ctx context.Context) (Method, error) {
	if a.browser.FindAndClick(ctx, a.opts.Next) {
		return ADVANCE_CLICK, a.settle(ctx)
	}
	if err := ctx.Err(); err != nil {
		return ADVANCE_NONE, err
	}
	a.tel.ReportDebug(report_advance_click, "next control unavailable, paginating by url")

	current, err := a.browser.CurrentURL(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return ADVANCE_NONE, ctx.Err()
		}
		a.tel.ReportWarning(report_advance_url, err)
		return ADVANCE_NONE, nil
	}
	next, err := NextPageURL(current, a.opts.Stride)
	if err != nil {
		a.tel.ReportWarning(report_advance_url, current, err)
		return ADVANCE_NONE, nil
	}

	err = a.browser.Navigate(ctx, next)
	if err != nil {
		if ctx.Err() != nil {
			return ADVANCE_NONE, ctx.Err()
		}
		a.tel.ReportWarning(report_advance_navigate, next, err)
		return ADVANCE_NONE, nil
	}
	return ADVANCE_URL, a.settle(ctx)
}
