// Package report renders the end of run summary.
package report

import (
	"fmt"
	"io"
	"strings"

	"yelpreviews/internal/reviews"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// Summary is what a run reports once it is over.
type Summary struct {
	TargetURL  string
	Pages      int
	StopReason string
	Reviews    []reviews.Review
	Outputs    []string
}

const excerptWidth = 60

func newTable(out io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(out)
	return t
}

// excerpt collapses whitespace and shortens s to width runes.
func excerpt(s string, width int) string {
	s = strings.Join(strings.Fields(s), " ")
	if text.RuneWidthWithoutEscSequences(s) <= width {
		return s
	}
	return text.Trim(s, width-1) + "…"
}

// Render writes the run totals followed by one row per collected review.
func Render(out io.Writer, s Summary) {
	totals := newTable(out)
	totals.SetTitle("Run")
	totals.AppendRows([]table.Row{
		{"Target", s.TargetURL},
		{"Pages scraped", s.Pages},
		{"Reviews collected", len(s.Reviews)},
		{"Stopped because", s.StopReason},
		{"Written to", strings.Join(s.Outputs, ", ")},
	})
	totals.Render()

	if len(s.Reviews) == 0 {
		return
	}

	list := newTable(out)
	list.AppendHeader(table.Row{"#", "Reviewer", "Rating", "Date", "Text"})
	for i, r := range s.Reviews {
		list.AppendRow(table.Row{i + 1, r.Reviewer, r.Rating, r.Date, excerpt(r.Text, excerptWidth)})
	}
	list.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight},
	})
	list.AppendFooter(table.Row{"", "", "", "Total", fmt.Sprint(len(s.Reviews))})
	list.Render()
}
