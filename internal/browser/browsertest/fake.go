// Package browsertest provides an in-memory browser.Controller for tests.
package browsertest

import (
	"context"
	"fmt"
	"sync"

	"yelpreviews/internal/browser"
)

// Fake serves canned markup per URL. Clicking the "next" target moves to the
// URL registered in NextLinks for the current page.
type Fake struct {
	// Pages maps a URL to the markup served for it, unknown URLs serve Default.
	Pages   map[string]string
	Default string
	// NextLinks maps a URL to the URL reached by clicking its next control,
	// pages without an entry have no next control.
	NextLinks map[string]string
	// FailNavigate makes navigating to the listed URLs fail.
	FailNavigate map[string]bool
	// MissingList makes Exists report false for every selector.
	MissingList bool
	// OnHTML, when set, is invoked every time the markup is read.
	OnHTML func(url string)

	mutex       sync.Mutex
	current     string
	navigations []string
	clicks      int
	scrolls     []float64
	closed      int
}

var _ browser.Controller = (*Fake)(nil)

func (f *Fake) Navigate(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.mutex.Lock()
	defer f.mutex.Unlock()
	if f.FailNavigate[url] {
		return fmt.Errorf("navigate to %s: net::ERR_CONNECTION_RESET", url)
	}
	f.current = url
	f.navigations = append(f.navigations, url)
	return nil
}

func (f *Fake) RunScript(ctx context.Context, fn string, out any, args ...any) error {
	return ctx.Err()
}

func (f *Fake) ScrollToFraction(ctx context.Context, fraction float64) error {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	f.scrolls = append(f.scrolls, fraction)
	return ctx.Err()
}

func (f *Fake) FindAndClick(ctx context.Context, target browser.Target) bool {
	if ctx.Err() != nil {
		return false
	}
	f.mutex.Lock()
	defer f.mutex.Unlock()
	next, ok := f.NextLinks[f.current]
	if !ok {
		return false
	}
	f.clicks++
	f.current = next
	return true
}

func (f *Fake) CurrentURL(ctx context.Context) (string, error) {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	return f.current, ctx.Err()
}

func (f *Fake) Exists(ctx context.Context, css string) (bool, error) {
	return !f.MissingList, ctx.Err()
}

func (f *Fake) ReadyState(ctx context.Context) (string, error) {
	return "complete", ctx.Err()
}

func (f *Fake) HTML(ctx context.Context) (string, error) {
	f.mutex.Lock()
	current := f.current
	markup, ok := f.Pages[current]
	if !ok {
		markup = f.Default
	}
	f.mutex.Unlock()

	if f.OnHTML != nil {
		f.OnHTML(current)
	}
	return markup, ctx.Err()
}

func (f *Fake) Close() error {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	f.closed++
	return nil
}

func (f *Fake) Navigations() []string {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	out := make([]string, len(f.navigations))
	copy(out, f.navigations)
	return out
}

func (f *Fake) Clicks() int {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	return f.clicks
}

func (f *Fake) Scrolls() []float64 {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	out := make([]float64, len(f.scrolls))
	copy(out, f.scrolls)
	return out
}

func (f *Fake) Closed() int {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	return f.closed
}
