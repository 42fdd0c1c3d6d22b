package sink

import (
	"context"
	"database/sql"
	"fmt"

	"yelpreviews/internal/components/assert"
	"yelpreviews/internal/db"
	"yelpreviews/internal/reviews"
)

// SQLite archives every run with its reviews.
type SQLite struct {
	database *sql.DB
}

func NewSQLite(database *sql.DB) SQLite {
	assert.NotNil(database)
	return SQLite{database: database}
}

func (s SQLite) Write(ctx context.Context, run Run, list []reviews.Review) error {
	err := db.RunTx(ctx, s.database, func(qry *db.Queries) error {
		runID, err := qry.CreateRun(ctx, db.CreateRunParams{
			TargetUrl:  run.TargetURL,
			StartedAt:  run.StartedAt.Unix(),
			FinishedAt: run.FinishedAt.Unix(),
			Pages:      int64(run.Pages),
			StopReason: run.StopReason,
		})
		if err != nil {
			return err
		}
		for i, r := range list {
			err = qry.AddReview(ctx, db.AddReviewParams{
				RunID:    runID,
				Position: int64(i),
				Reviewer: r.Reviewer,
				Rating:   r.Rating,
				Date:     r.Date,
				Text:     r.Text,
			})
			if err != nil {
				return fmt.Errorf("review %d: %w", i, err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("archive run: %w", err)
	}
	return nil
}
