package yelp

import (
	"errors"
	"fmt"

	"yelpreviews/internal/browser"

	"github.com/andybalholm/cascadia"
)

const DefaultURL = "https://www.yelp.com/biz/the-pink-door-seattle-4?osq=Restaurants"

type FieldName string

const (
	FIELD_REVIEWER FieldName = "reviewer"
	FIELD_RATING   FieldName = "rating"
	FIELD_DATE     FieldName = "date"
	FIELD_TEXT     FieldName = "text"
)

var fieldOrder = []FieldName{FIELD_REVIEWER, FIELD_RATING, FIELD_DATE, FIELD_TEXT}

// BlockQuery selects candidate review blocks, Item is searched inside the
// first Container match when Container is set, in the whole page otherwise.
type BlockQuery struct {
	Container string `json:"container"`
	Item      string `json:"item"`
}

// FieldRule resolves one field of a review block.
//
// Queries are tried in order. Without text filters the first node matched by
// the first matching query decides the value. With RequireAll/RequireAny the
// first node whose stripped text passes the filters wins.
type FieldRule struct {
	Queries []string `json:"queries"`
	// Attr reads this attribute instead of the node text.
	Attr string `json:"attr"`
	// Separator joins the stripped text nodes of the matched element.
	Separator  string   `json:"separator"`
	RequireAll []string `json:"require_all"`
	RequireAny []string `json:"require_any"`
}

func (r FieldRule) filtered() bool {
	return len(r.RequireAll) > 0 || len(r.RequireAny) > 0
}

type Selectors struct {
	// Blocks is a cascade, the first query yielding any block is used.
	Blocks []BlockQuery `json:"blocks"`
	// ReviewList is awaited before the page markup is read.
	ReviewList string                  `json:"review_list"`
	Fields     map[FieldName]FieldRule `json:"fields"`
	// Next is the control clicked to go to the next page of reviews.
	Next browser.Target `json:"next"`
}

var months = []string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}

// DefaultSelectors matches the review markup of yelp business pages.
func DefaultSelectors() Selectors {
	return Selectors{
		Blocks: []BlockQuery{
			{Container: "ul[data-testid='reviews-list']", Item: "li"},
			{Item: "div[data-testid='review']"},
			{Item: "li:has(p)"},
		},
		ReviewList: "ul[data-testid='reviews-list'], div[data-testid='reviews-list']",
		Fields: map[FieldName]FieldRule{
			FIELD_REVIEWER: {
				Queries: []string{
					"span[data-font-weight='bold'] a",
					"a[href*='/user_details']",
				},
			},
			FIELD_RATING: {
				Queries: []string{"div[role='img'][aria-label]"},
				Attr:    "aria-label",
			},
			FIELD_DATE: {
				Queries:    []string{"span"},
				RequireAll: []string{","},
				RequireAny: months,
			},
			FIELD_TEXT: {
				Queries: []string{
					"p.comment__09f24__D0cxf span.raw__09f24__T4Ezm",
					"span.raw__09f24__T4Ezm",
					"p",
				},
				Separator: " ",
			},
		},
		Next: browser.Target{
			Query: `//a[contains(@aria-label, "Next")]`,
			XPath: true,
		},
	}
}

func compile(what, query string) error {
	if query == "" {
		return fmt.Errorf("%s: empty selector", what)
	}
	if _, err := cascadia.Compile(query); err != nil {
		return fmt.Errorf("%s: %w", what, err)
	}
	return nil
}

// Validate checks that every css selector in the table compiles.
func (s Selectors) Validate() error {
	var errs []error
	if len(s.Blocks) == 0 {
		errs = append(errs, errors.New("blocks: no block query"))
	}
	for i, b := range s.Blocks {
		if b.Container != "" {
			errs = append(errs, compile(fmt.Sprintf("blocks[%d].container", i), b.Container))
		}
		errs = append(errs, compile(fmt.Sprintf("blocks[%d].item", i), b.Item))
	}
	errs = append(errs, compile("review_list", s.ReviewList))
	for _, name := range fieldOrder {
		rule, ok := s.Fields[name]
		if !ok {
			errs = append(errs, fmt.Errorf("fields.%s: missing", name))
			continue
		}
		for i, q := range rule.Queries {
			errs = append(errs, compile(fmt.Sprintf("fields.%s.queries[%d]", name, i), q))
		}
	}
	if s.Next.Query == "" {
		errs = append(errs, errors.New("next: empty query"))
	} else if !s.Next.XPath {
		errs = append(errs, compile("next", s.Next.Query))
	}
	return errors.Join(errs...)
}
