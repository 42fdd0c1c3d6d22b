// Package pagination decides when a scrape stops and moves the browser to
// the next page of reviews.
package pagination

type State int

const (
	STATE_SCRAPING_PAGE State = iota
	STATE_EVALUATING
	STATE_ADVANCING
	STATE_STOPPED
)

func (s State) String() string {
	switch s {
	case STATE_SCRAPING_PAGE:
		return "scraping-page"
	case STATE_EVALUATING:
		return "evaluating"
	case STATE_ADVANCING:
		return "advancing"
	case STATE_STOPPED:
		return "stopped"
	}
	return "unknown"
}

type StopReason int

const (
	STOP_NONE StopReason = iota
	STOP_TARGET_MET
	STOP_SAFETY_CAP
	STOP_NO_NEXT_PAGE
	STOP_INTERRUPTED
	STOP_FAILED
)

func (r StopReason) String() string {
	switch r {
	case STOP_NONE:
		return "none"
	case STOP_TARGET_MET:
		return "target-met"
	case STOP_SAFETY_CAP:
		return "safety-cap"
	case STOP_NO_NEXT_PAGE:
		return "no-next-page"
	case STOP_INTERRUPTED:
		return "interrupted"
	case STOP_FAILED:
		return "failed"
	}
	return "unknown"
}

type Limits struct {
	// TargetPages is the amount of pages always scraped.
	TargetPages int
	// MinReviews is the amount of accepted reviews wanted, more pages are
	// scraped past TargetPages until it is reached.
	MinReviews int
	// SafetyCap bounds the pages scraped past TargetPages.
	SafetyCap int
}

// Clamped returns the limits with TargetPages and MinReviews raised to 1 and
// SafetyCap raised to 0.
func (l Limits) Clamped() Limits {
	l.TargetPages = max(l.TargetPages, 1)
	l.MinReviews = max(l.MinReviews, 1)
	l.SafetyCap = max(l.SafetyCap, 0)
	return l
}

// MaxPages is the most pages a driver with these limits lets through, the
// extra page counter starts at the last target page.
func (l Limits) MaxPages() int {
	l = l.Clamped()
	return l.TargetPages + l.SafetyCap
}

// Driver is the stop/continue state machine of a scrape:
//
//	SCRAPING_PAGE -> EVALUATING -> ADVANCING -> SCRAPING_PAGE
//	                            \            \
//	                             -> STOPPED   -> STOPPED
//
// Any state can move to STOPPED on interruption or failure.
type Driver struct {
	limits Limits
	state  State
	pages  int
	extra  int
	reason StopReason
}

func NewDriver(limits Limits) *Driver {
	return &Driver{limits: limits.Clamped()}
}

func (d *Driver) Limits() Limits         { return d.limits }
func (d *Driver) State() State           { return d.state }
func (d *Driver) Pages() int             { return d.pages }
func (d *Driver) ExtraPages() int        { return d.extra }
func (d *Driver) StopReason() StopReason { return d.reason }

func (d *Driver) stop(reason StopReason) {
	d.state = STATE_STOPPED
	d.reason = reason
}

// PageScraped counts the page that was just scraped.
func (d *Driver) PageScraped() {
	if d.state != STATE_SCRAPING_PAGE {
		return
	}
	d.pages++
	d.state = STATE_EVALUATING
}

// Evaluate decides whether to move on with collected accepted reviews so far.
func (d *Driver) Evaluate(collected int) State {
	if d.state != STATE_EVALUATING {
		return d.state
	}

	if d.pages < d.limits.TargetPages {
		d.state = STATE_ADVANCING
		return d.state
	}
	if collected >= d.limits.MinReviews {
		d.stop(STOP_TARGET_MET)
		return d.state
	}
	d.extra++
	if d.extra > d.limits.SafetyCap {
		d.stop(STOP_SAFETY_CAP)
		return d.state
	}
	d.state = STATE_ADVANCING
	return d.state
}

// Advanced records the outcome of moving to the next page.
func (d *Driver) Advanced(ok bool) State {
	if d.state != STATE_ADVANCING {
		return d.state
	}
	if !ok {
		d.stop(STOP_NO_NEXT_PAGE)
		return d.state
	}
	d.state = STATE_SCRAPING_PAGE
	return d.state
}

// Interrupt stops the driver unless it already stopped.
func (d *Driver) Interrupt() {
	if d.state == STATE_STOPPED {
		return
	}
	d.stop(STOP_INTERRUPTED)
}

// Fail stops the driver because the scrape hit an error, unless it already
// stopped.
func (d *Driver) Fail() {
	if d.state == STATE_STOPPED {
		return
	}
	d.stop(STOP_FAILED)
}
