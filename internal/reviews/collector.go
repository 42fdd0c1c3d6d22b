package reviews

type Rejection int

const (
	ACCEPTED Rejection = iota
	REJECTED_INVALID
	REJECTED_DUPLICATE
)

func (r Rejection) String() string {
	switch r {
	case ACCEPTED:
		return "accepted"
	case REJECTED_INVALID:
		return "invalid"
	case REJECTED_DUPLICATE:
		return "duplicate"
	}
	return "unknown"
}

// Collector accumulates valid reviews in arrival order, keeping at most one
// review per distinct text.
type Collector struct {
	reviews []Review
	texts   map[string]struct{}
}

func NewCollector() *Collector {
	return &Collector{texts: map[string]struct{}{}}
}

// Add appends the review if it is valid and its text has not been seen yet.
func (c *Collector) Add(r Review) Rejection {
	if !r.Valid() {
		return REJECTED_INVALID
	}
	if _, seen := c.texts[r.Text]; seen {
		return REJECTED_DUPLICATE
	}
	c.texts[r.Text] = struct{}{}
	c.reviews = append(c.reviews, r)
	return ACCEPTED
}

func (c *Collector) Count() int {
	return len(c.reviews)
}

// Reviews returns a copy of the accepted reviews, never nil.
func (c *Collector) Reviews() []Review {
	out := make([]Review, len(c.reviews))
	copy(out, c.reviews)
	return out
}
