package yelp

import (
	"context"
	"fmt"
	"strings"

	"yelpreviews/internal/components/telemetry"
	"yelpreviews/internal/reviews"
	"yelpreviews/lib/htmlutil"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("yelpreviews/scrapers/yelp")

const (
	report_extract_field = "extractor.field"
	report_extract_page  = "extractor.page"
)

type Reason int

const (
	RESOLVED Reason = iota
	// no query matched any node
	NOT_FOUND
	// a node matched but had no text or attribute value
	EMPTY
	// resolving the field panicked or errored
	FAILED
)

func (r Reason) String() string {
	switch r {
	case RESOLVED:
		return "resolved"
	case NOT_FOUND:
		return "not-found"
	case EMPTY:
		return "empty"
	case FAILED:
		return "failed"
	}
	return "unknown"
}

// Field is the outcome of resolving one field, Value is only meaningful when
// Reason is RESOLVED.
type Field struct {
	Value  string
	Reason Reason
	Err    error
}

// OrSentinel returns the value, or the sentinel if the field did not resolve.
func (f Field) OrSentinel() string {
	if f.Reason != RESOLVED {
		return reviews.Sentinel
	}
	return f.Value
}

// Extraction is the per-field outcome of parsing one candidate block.
type Extraction struct {
	Fields map[FieldName]Field
}

func (e Extraction) Review() reviews.Review {
	return reviews.Review{
		Reviewer: e.Fields[FIELD_REVIEWER].OrSentinel(),
		Rating:   e.Fields[FIELD_RATING].OrSentinel(),
		Date:     e.Fields[FIELD_DATE].OrSentinel(),
		Text:     e.Fields[FIELD_TEXT].OrSentinel(),
	}
}

type Page struct {
	// Strategy is the index of the block query that produced the blocks,
	// -1 when no query matched.
	Strategy int
	Blocks   []Extraction
}

func (p Page) Reviews() []reviews.Review {
	out := make([]reviews.Review, len(p.Blocks))
	for i, b := range p.Blocks {
		out[i] = b.Review()
	}
	return out
}

type Extractor struct {
	selectors Selectors
	tel       telemetry.API
}

func NewExtractor(selectors Selectors, tel telemetry.API) Extractor {
	return Extractor{
		selectors: selectors,
		tel:       telemetry.NewScopedAPI("yelp", tel),
	}
}

// Extract parses every candidate review block in markup. Blocks whose fields
// did not all resolve are kept, it is up to the caller to reject them.
func (e Extractor) Extract(ctx context.Context, markup string) (Page, error) {
	ctx, span := tracer.Start(ctx, "Extract")
	defer span.End()

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to parse html")
		return Page{}, fmt.Errorf("parse page markup: %w", err)
	}

	strategy, blocks := e.candidates(doc)
	page := Page{Strategy: strategy}
	blocks.Each(func(i int, block *goquery.Selection) {
		page.Blocks = append(page.Blocks, e.extractBlock(i, block))
	})

	span.SetAttributes(
		attribute.Int("strategy", strategy),
		attribute.Int("blocks", len(page.Blocks)),
	)
	e.tel.ReportDebug(report_extract_page, strategy, len(page.Blocks))
	return page, nil
}

func (e Extractor) candidates(doc *goquery.Document) (int, *goquery.Selection) {
	for i, q := range e.selectors.Blocks {
		var items *goquery.Selection
		if q.Container != "" {
			container := doc.Find(q.Container).First()
			if container.Length() == 0 {
				continue
			}
			items = container.Find(q.Item)
		} else {
			items = doc.Find(q.Item)
		}
		if items.Length() > 0 {
			return i, items
		}
	}
	return -1, doc.Selection.Slice(0, 0)
}

func (e Extractor) extractBlock(index int, block *goquery.Selection) Extraction {
	out := Extraction{Fields: make(map[FieldName]Field, len(fieldOrder))}
	for _, name := range fieldOrder {
		rule, ok := e.selectors.Fields[name]
		if !ok {
			out.Fields[name] = Field{Reason: NOT_FOUND}
			continue
		}
		field := safeResolve(rule, block)
		if field.Reason != RESOLVED {
			e.tel.ReportDebug(report_extract_field, index, string(name), field.Reason.String(), field.Err)
		}
		out.Fields[name] = field
	}
	return out
}

// safeResolve confines any failure while resolving a field to that field.
func safeResolve(rule FieldRule, block *goquery.Selection) (field Field) {
	defer func() {
		if r := recover(); r != nil {
			field = Field{Reason: FAILED, Err: fmt.Errorf("recovered: %v", r)}
		}
	}()
	return resolve(rule, block)
}

func resolve(rule FieldRule, block *goquery.Selection) Field {
	for _, query := range rule.Queries {
		// goquery silently matches nothing on an invalid selector
		matcher, err := cascadia.Compile(query)
		if err != nil {
			return Field{Reason: FAILED, Err: fmt.Errorf("query %q: %w", query, err)}
		}
		matches := block.FindMatcher(matcher)
		if matches.Length() == 0 {
			continue
		}

		if rule.filtered() {
			var found string
			matches.EachWithBreak(func(_ int, node *goquery.Selection) bool {
				text := htmlutil.StrippedText(node, rule.Separator)
				if text != "" && passes(rule, text) {
					found = text
					return false
				}
				return true
			})
			if found != "" {
				return Field{Value: found, Reason: RESOLVED}
			}
			continue
		}

		first := matches.First()
		var value string
		if rule.Attr != "" {
			attr, ok := htmlutil.TrimmedAttr(first, rule.Attr)
			if !ok {
				continue
			}
			value = attr
		} else {
			value = htmlutil.StrippedText(first, rule.Separator)
		}
		if value == "" {
			return Field{Reason: EMPTY}
		}
		return Field{Value: value, Reason: RESOLVED}
	}
	return Field{Reason: NOT_FOUND}
}

func passes(rule FieldRule, text string) bool {
	for _, s := range rule.RequireAll {
		if !strings.Contains(text, s) {
			return false
		}
	}
	if len(rule.RequireAny) == 0 {
		return true
	}
	for _, s := range rule.RequireAny {
		if strings.Contains(text, s) {
			return true
		}
	}
	return false
}
