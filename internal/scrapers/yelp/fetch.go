package yelp

import (
	"context"
	"errors"
	"fmt"
	"time"

	"yelpreviews/internal/browser"
	"yelpreviews/internal/components/assert"
	"yelpreviews/internal/components/chrono"
	"yelpreviews/internal/components/poll"
	"yelpreviews/internal/components/telemetry"
)

const (
	report_fetch_scroll = "fetcher.scroll"
	report_fetch_wait   = "fetcher.wait-review-list"
)

type FetchOptions struct {
	// ScrollSteps is the amount of increments used to scroll to the bottom.
	ScrollSteps int
	// ScrollPause gives lazily loaded content time to render after each step.
	ScrollPause time.Duration
	// SettlePause is waited once after the last scroll step.
	SettlePause time.Duration
	// ListWait bounds the wait for the review list to appear.
	ListWait poll.Options
}

func DefaultFetchOptions() FetchOptions {
	return FetchOptions{
		ScrollSteps: 8,
		ScrollPause: time.Second,
		SettlePause: time.Second,
		ListWait: poll.Options{
			Interval:    500 * time.Millisecond,
			Timeout:     12 * time.Second,
			MaxAttempts: 24,
		},
	}
}

// Fetcher reads the rendered markup of the page the browser is currently on.
type Fetcher struct {
	browser    browser.Controller
	clock      chrono.API
	tel        telemetry.API
	reviewList string
	opts       FetchOptions
}

func NewFetcher(b browser.Controller, clock chrono.API, tel telemetry.API, reviewList string, opts FetchOptions) Fetcher {
	assert.NotNil(b)
	assert.NotNil(clock)
	assert.NotNil(tel)
	assert.NotEmptyStr(reviewList)
	assert.Positive("scroll steps", opts.ScrollSteps)

	return Fetcher{
		browser:    b,
		clock:      clock,
		tel:        telemetry.NewScopedAPI("yelp", tel),
		reviewList: reviewList,
		opts:       opts,
	}
}

// Fetch scrolls through the page to trigger lazy loading, waits for the
// review list (a timeout is tolerated) and returns the page markup.
func (f Fetcher) Fetch(ctx context.Context) (string, error) {
	ctx, span := tracer.Start(ctx, "Fetch")
	defer span.End()

	steps := f.opts.ScrollSteps
	for i := 1; i <= steps; i++ {
		err := f.browser.ScrollToFraction(ctx, float64(i)/float64(steps))
		if err != nil {
			f.tel.ReportBroken(report_fetch_scroll, err, i)
			return "", fmt.Errorf("scroll step %d/%d: %w", i, steps, err)
		}
		if err := f.clock.Sleep(ctx, f.opts.ScrollPause); err != nil {
			return "", err
		}
	}
	if err := f.clock.Sleep(ctx, f.opts.SettlePause); err != nil {
		return "", err
	}

	err := poll.Until(ctx, f.opts.ListWait, func(ctx context.Context) (bool, error) {
		return f.browser.Exists(ctx, f.reviewList)
	})
	if errors.Is(err, poll.ErrTimeout) {
		f.tel.ReportWarning(report_fetch_wait, f.reviewList, err)
	} else if err != nil {
		return "", err
	}

	markup, err := f.browser.HTML(ctx)
	if err != nil {
		return "", fmt.Errorf("read page markup: %w", err)
	}
	return markup, nil
}
