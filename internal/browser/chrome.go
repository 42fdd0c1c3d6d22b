package browser

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"yelpreviews/internal/components/assert"
	"yelpreviews/internal/components/telemetry"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
)

const (
	report_chrome_click  = "chrome.find-and-click"
	report_chrome_launch = "chrome.launch"
)

// DefaultClickPause is waited between scrolling a control into view and
// clicking it.
const DefaultClickPause = 600 * time.Millisecond

const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/140.0.0.0 Safari/537.36"

// runs before any page script so sites see a regular, non-automated navigator
const hideWebdriverScript = `Object.defineProperty(navigator, 'webdriver', {get: () => undefined});`

type Options struct {
	Headless  bool
	UserAgent string
	// ExecPath overrides the chrome binary chromedp looks up.
	ExecPath string
	// PageLoadTimeout bounds every navigation.
	PageLoadTimeout time.Duration
	// ActionTimeout bounds script evaluations and clicks.
	ActionTimeout time.Duration
	// ClickPause is waited after scrolling a control into view, zero clicks
	// right away.
	ClickPause time.Duration
}

func (o Options) allocatorOptions() []chromedp.ExecAllocatorOption {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("enable-automation", false),
		chromedp.UserAgent(o.UserAgent),
	)
	if o.Headless {
		opts = append(opts, chromedp.Flag("headless", "new"))
	} else {
		opts = append(opts, chromedp.Flag("headless", false))
	}
	if o.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(o.ExecPath))
	}
	return opts
}

func (o Options) clickActions(target Target) []chromedp.Action {
	by := chromedp.ByQuery
	if target.XPath {
		by = chromedp.BySearch
	}
	actions := []chromedp.Action{chromedp.ScrollIntoView(target.Query, by)}
	if o.ClickPause > 0 {
		actions = append(actions, chromedp.Sleep(o.ClickPause))
	}
	return append(actions, chromedp.Click(target.Query, by, chromedp.NodeVisible))
}

// Chrome is a Controller backed by a chromedp-managed chrome process.
type Chrome struct {
	ctx           context.Context
	cancelAlloc   context.CancelFunc
	cancelBrowser context.CancelFunc
	closeOnce     sync.Once
	opts          Options
	tel           telemetry.API
}

// Launch starts chrome and opens the tab every later call operates on.
// The browser lives until Close, independently of ctx, so that it can still
// be shut down cleanly after ctx has been canceled.
func Launch(ctx context.Context, opts Options, tel telemetry.API) (*Chrome, error) {
	assert.NotNil(tel)
	tel = telemetry.NewScopedAPI("browser", tel)

	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	if opts.PageLoadTimeout <= 0 {
		opts.PageLoadTimeout = 60 * time.Second
	}
	if opts.ActionTimeout <= 0 {
		opts.ActionTimeout = 10 * time.Second
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), opts.allocatorOptions()...)
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)

	c := &Chrome{
		ctx:           browserCtx,
		cancelAlloc:   cancelAlloc,
		cancelBrowser: cancelBrowser,
		opts:          opts,
		tel:           tel,
	}

	// the first Run on the browser context is what starts the process
	err := chromedp.Run(browserCtx, chromedp.ActionFunc(func(ctx context.Context) error {
		_, err := page.AddScriptToEvaluateOnNewDocument(hideWebdriverScript).Do(ctx)
		return err
	}))
	if err != nil {
		tel.ReportBroken(report_chrome_launch, err)
		c.Close()
		return nil, fmt.Errorf("launch chrome: %w", err)
	}
	if err := ctx.Err(); err != nil {
		c.Close()
		return nil, err
	}
	return c, nil
}

// run executes actions in the tab, bounded by timeout and canceled with ctx.
// Canceling the derived context only aborts the actions, the tab stays open.
func (c *Chrome) run(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithTimeout(c.ctx, timeout)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	err := chromedp.Run(runCtx, actions...)
	if err != nil && ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}

func (c *Chrome) Navigate(ctx context.Context, url string) error {
	err := c.run(ctx, c.opts.PageLoadTimeout, chromedp.Navigate(url))
	if err != nil {
		return fmt.Errorf("navigate to %s: %w", url, err)
	}
	return nil
}

func scriptCall(fn string, args []any) (string, error) {
	encoded := make([]string, len(args))
	for i, a := range args {
		buf, err := json.Marshal(a)
		if err != nil {
			return "", fmt.Errorf("encode script argument %d: %w", i, err)
		}
		encoded[i] = string(buf)
	}
	return fmt.Sprintf("(%s)(%s)", fn, strings.Join(encoded, ", ")), nil
}

func (c *Chrome) RunScript(ctx context.Context, fn string, out any, args ...any) error {
	expr, err := scriptCall(fn, args)
	if err != nil {
		return err
	}
	return c.run(ctx, c.opts.ActionTimeout, chromedp.Evaluate(expr, out))
}

func (c *Chrome) ScrollToFraction(ctx context.Context, fraction float64) error {
	return c.RunScript(
		ctx,
		`(f) => window.scrollTo(0, document.body.scrollHeight * f)`,
		nil,
		fraction,
	)
}

const targetExistsScript = `(query, xpath) => {
	if (xpath) {
		return document.evaluate(query, document, null, XPathResult.FIRST_ORDERED_NODE_TYPE, null).singleNodeValue !== null;
	}
	return document.querySelector(query) !== null;
}`

func (c *Chrome) FindAndClick(ctx context.Context, target Target) bool {
	var found bool
	err := c.RunScript(ctx, targetExistsScript, &found, target.Query, target.XPath)
	if err != nil {
		c.tel.ReportDebug(report_chrome_click, "lookup failed", target.Query, err)
		return false
	}
	if !found {
		c.tel.ReportDebug(report_chrome_click, "not found", target.Query)
		return false
	}

	err = c.run(ctx, c.opts.ActionTimeout, c.opts.clickActions(target)...)
	if err != nil {
		c.tel.ReportDebug(report_chrome_click, "click failed", target.Query, err)
		return false
	}
	return true
}

func (c *Chrome) CurrentURL(ctx context.Context) (string, error) {
	var url string
	err := c.run(ctx, c.opts.ActionTimeout, chromedp.Location(&url))
	return url, err
}

func (c *Chrome) Exists(ctx context.Context, css string) (bool, error) {
	var found bool
	err := c.RunScript(ctx, targetExistsScript, &found, css, false)
	return found, err
}

func (c *Chrome) ReadyState(ctx context.Context) (string, error) {
	var state string
	err := c.RunScript(ctx, `() => document.readyState`, &state)
	return state, err
}

func (c *Chrome) HTML(ctx context.Context) (string, error) {
	var markup string
	err := c.RunScript(ctx, `() => document.documentElement.outerHTML`, &markup)
	return markup, err
}

// Close shuts the browser down, it is safe to call more than once.
func (c *Chrome) Close() error {
	var err error
	c.closeOnce.Do(func() {
		err = chromedp.Cancel(c.ctx)
		c.cancelBrowser()
		c.cancelAlloc()
	})
	return err
}
