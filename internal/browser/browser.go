// Package browser drives a single controlled browser session.
package browser

import (
	"context"
	"time"

	"yelpreviews/internal/components/poll"
)

// Target locates an element either by CSS selector or by XPath expression.
type Target struct {
	Query string `json:"query"`
	XPath bool   `json:"xpath"`
}

// Controller is the surface of the browser session the scraper depends on.
//
// note: fault injection point
type Controller interface {
	Navigate(ctx context.Context, url string) error
	// RunScript calls the javascript function expression fn with args (encoded
	// as JSON) and decodes its return value into out, out may be nil.
	RunScript(ctx context.Context, fn string, out any, args ...any) error
	// ScrollToFraction scrolls the window to fraction (0..1) of the document height.
	ScrollToFraction(ctx context.Context, fraction float64) error
	// FindAndClick scrolls target into view and clicks it. Every failure
	// (missing, hidden, intercepted, timed out) is swallowed and reported as
	// false, meaning no further action is possible with this target.
	FindAndClick(ctx context.Context, target Target) bool
	CurrentURL(ctx context.Context) (string, error)
	// Exists reports whether an element matching the css selector is in the DOM.
	Exists(ctx context.Context, css string) (bool, error)
	ReadyState(ctx context.Context) (string, error)
	// HTML returns the current rendered markup of the whole document.
	HTML(ctx context.Context) (string, error)
	Close() error
}

// WaitLoaded polls until the document finished loading.
func WaitLoaded(ctx context.Context, c Controller, opts poll.Options) error {
	return poll.Until(ctx, opts, func(ctx context.Context) (bool, error) {
		state, err := c.ReadyState(ctx)
		if err != nil {
			return false, err
		}
		return state == "complete", nil
	})
}

// DefaultSettle is the wait used after a navigation or a click.
var DefaultSettle = poll.Options{
	Interval:    250 * time.Millisecond,
	Timeout:     10 * time.Second,
	MaxAttempts: 40,
}
