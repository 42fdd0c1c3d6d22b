package db

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestArchive(t *testing.T) {
	ctx := context.Background()
	database, err := Open(ctx, ":memory:")
	require.NoError(t, err)
	defer database.Close()

	var runID int64
	err = RunTx(ctx, database, func(qry *Queries) error {
		runID, err = qry.CreateRun(ctx, CreateRunParams{
			TargetUrl:  "https://www.yelp.com/biz/the-pink-door-seattle-4",
			StartedAt:  1709467200,
			FinishedAt: 1709467260,
			Pages:      3,
			StopReason: "target-met",
		})
		if err != nil {
			return err
		}
		for i, text := range []string{"Best lasagna in Seattle.", "Très bon."} {
			err = qry.AddReview(ctx, AddReviewParams{
				RunID:    runID,
				Position: int64(i),
				Reviewer: "Marisol T.",
				Rating:   "5 star rating",
				Date:     "Mar 3, 2024",
				Text:     text,
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(t, err)

	qry := New(database)
	latest, err := qry.GetLatestRun(ctx)
	require.NoError(t, err)
	require.Equal(t, runID, latest.ID)
	require.Equal(t, "target-met", latest.StopReason)

	reviews, err := qry.GetReviews(ctx, runID)
	require.NoError(t, err)
	var texts []string
	for _, r := range reviews {
		texts = append(texts, r.Text)
	}
	if diff := cmp.Diff([]string{"Best lasagna in Seattle.", "Très bon."}, texts); diff != "" {
		t.Fatal(diff)
	}
}

func TestRunTxRollback(t *testing.T) {
	ctx := context.Background()
	database, err := Open(ctx, ":memory:")
	require.NoError(t, err)
	defer database.Close()

	failure := errors.New("disk on fire")
	err = RunTx(ctx, database, func(qry *Queries) error {
		_, err := qry.CreateRun(ctx, CreateRunParams{TargetUrl: "https://example.com", StopReason: "interrupted"})
		require.NoError(t, err)
		return failure
	})
	require.ErrorIs(t, err, failure)

	_, err = New(database).GetLatestRun(ctx)
	require.Error(t, err)
}
