package sink

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"yelpreviews/internal/db"
	"yelpreviews/internal/reviews"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

var sample = []reviews.Review{
	{
		Reviewer: "Marisol T.",
		Rating:   "5 star rating",
		Date:     "Mar 3, 2024",
		Text:     "Best lasagna in Seattle. The cabaret was a lovely surprise & the staff were <kind>.",
	},
	{
		Reviewer: "Jörg K.",
		Rating:   "4 star rating",
		Date:     "Feb 18, 2024",
		Text:     "Très bon, \"really\" good pesto,\nwith a second line.",
	},
}

var sampleRun = Run{
	TargetURL:  "https://www.yelp.com/biz/the-pink-door-seattle-4?osq=Restaurants",
	StartedAt:  time.Date(2024, 3, 3, 12, 0, 0, 0, time.UTC),
	FinishedAt: time.Date(2024, 3, 3, 12, 1, 0, 0, time.UTC),
	Pages:      3,
	StopReason: "target-met",
}

func TestEncodeJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, EncodeJSON(&buf, nil))
	require.Equal(t, "[]\n", buf.String())

	buf.Reset()
	require.NoError(t, EncodeJSON(&buf, sample[:1]))
	expected := `[
  {
    "reviewer": "Marisol T.",
    "rating": "5 star rating",
    "date": "Mar 3, 2024",
    "text": "Best lasagna in Seattle. The cabaret was a lovely surprise & the staff were <kind>."
  }
]
`
	require.Equal(t, expected, buf.String())
}

func TestEncodeCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, EncodeCSV(&buf, nil))
	require.Equal(t, "reviewer,rating,date,text\r\n", buf.String())
}

func TestEncodeCSVLineEndings(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, EncodeCSV(&buf, sample))

	out := buf.String()
	require.Contains(t, out, "\"Très bon, \"\"really\"\" good pesto,\nwith a second line.\"\r\n")
	require.NotContains(t, out, "pesto,\r\n")

	lines := strings.Split(strings.TrimSuffix(out, "\r\n"), "\r\n")
	require.Len(t, lines, len(sample)+1)
	require.Equal(t, "reviewer,rating,date,text", lines[0])
}

func TestFilesRoundTrip(t *testing.T) {
	dir := t.TempDir()
	jsonPath := filepath.Join(dir, "data.json")
	csvPath := filepath.Join(dir, "data.csv")

	err := Files(jsonPath, csvPath).Write(context.Background(), sampleRun, sample)
	require.NoError(t, err)

	jsonContents, err := os.ReadFile(jsonPath)
	require.NoError(t, err)
	require.Contains(t, string(jsonContents), "Jörg K.")
	var decoded []reviews.Review
	require.NoError(t, json.Unmarshal(jsonContents, &decoded))
	if diff := cmp.Diff(sample, decoded); diff != "" {
		t.Fatal("json:", diff)
	}

	f, err := os.Open(csvPath)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Equal(t, reviews.Header, rows[0])
	var fromCSV []reviews.Review
	for _, row := range rows[1:] {
		fromCSV = append(fromCSV, reviews.Review{Reviewer: row[0], Rating: row[1], Date: row[2], Text: row[3]})
	}
	if diff := cmp.Diff(sample, fromCSV); diff != "" {
		t.Fatal("csv:", diff)
	}
}

type failingSink struct{ err error }

func (s failingSink) Write(context.Context, Run, []reviews.Review) error {
	return s.err
}

func TestMultiWritesEverySink(t *testing.T) {
	jsonPath := filepath.Join(t.TempDir(), "data.json")
	failure := errors.New("read-only filesystem")

	err := Multi{failingSink{err: failure}, JSONFile{Path: jsonPath}}.Write(context.Background(), sampleRun, sample)
	require.ErrorIs(t, err, failure)
	require.FileExists(t, jsonPath)
}

func TestFileErrorsNamePath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "data.csv")
	err := CSVFile{Path: path}.Write(context.Background(), sampleRun, sample)
	require.ErrorContains(t, err, path)
}

func TestSQLite(t *testing.T) {
	ctx := context.Background()
	database, err := db.Open(ctx, ":memory:")
	require.NoError(t, err)
	defer database.Close()

	require.NoError(t, NewSQLite(database).Write(ctx, sampleRun, sample))

	qry := db.New(database)
	run, err := qry.GetLatestRun(ctx)
	require.NoError(t, err)
	require.Equal(t, sampleRun.StartedAt.Unix(), run.StartedAt)
	require.Equal(t, int64(3), run.Pages)

	rows, err := qry.GetReviews(ctx, run.ID)
	require.NoError(t, err)
	var archived []reviews.Review
	for _, row := range rows {
		archived = append(archived, reviews.Review{Reviewer: row.Reviewer, Rating: row.Rating, Date: row.Date, Text: row.Text})
	}
	if diff := cmp.Diff(sample, archived); diff != "" {
		t.Fatal(diff)
	}
}
