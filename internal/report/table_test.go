package report

import (
	"bytes"
	"strings"
	"testing"

	"yelpreviews/internal/reviews"

	"github.com/stretchr/testify/require"
)

func TestExcerpt(t *testing.T) {
	cases := []struct {
		in       string
		width    int
		expected string
	}{
		{in: "short", width: 10, expected: "short"},
		{in: "  spread\n over   lines ", width: 20, expected: "spread over lines"},
		{in: "Best lasagna in Seattle", width: 10, expected: "Best lasa…"},
		{in: "Très bon, really", width: 5, expected: "Très…"},
	}
	for _, c := range cases {
		require.Equal(t, c.expected, excerpt(c.in, c.width))
	}
}

func TestRender(t *testing.T) {
	var buf bytes.Buffer
	Render(&buf, Summary{
		TargetURL:  "https://www.yelp.com/biz/the-pink-door-seattle-4",
		Pages:      2,
		StopReason: "target-met",
		Reviews: []reviews.Review{
			{Reviewer: "Marisol T.", Rating: "5 star rating", Date: "Mar 3, 2024", Text: strings.Repeat("lasagna ", 20)},
		},
		Outputs: []string{"data.json", "data.csv"},
	})

	out := buf.String()
	require.Contains(t, out, "target-met")
	require.Contains(t, out, "data.json, data.csv")
	require.Contains(t, out, "Marisol T.")
	require.Contains(t, out, "…")
	require.NotContains(t, out, strings.Repeat("lasagna ", 20))
}

func TestRenderWithoutReviews(t *testing.T) {
	var buf bytes.Buffer
	Render(&buf, Summary{Pages: 1, StopReason: "no-next-page"})
	require.Contains(t, buf.String(), "no-next-page")
	require.NotContains(t, buf.String(), "Reviewer")
}
