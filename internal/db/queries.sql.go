package db

import (
	"context"
)

const addReview = `-- name: AddReview :exec
insert into review(run_id, position, reviewer, rating, date, text)
values (?, ?, ?, ?, ?, ?)
`

type AddReviewParams struct {
	RunID    int64
	Position int64
	Reviewer string
	Rating   string
	Date     string
	Text     string
}

func (q *Queries) AddReview(ctx context.Context, arg AddReviewParams) error {
	_, err := q.db.ExecContext(ctx, addReview,
		arg.RunID,
		arg.Position,
		arg.Reviewer,
		arg.Rating,
		arg.Date,
		arg.Text,
	)
	return err
}

const createRun = `-- name: CreateRun :one
insert into run(target_url, started_at, finished_at, pages, stop_reason)
values (?, ?, ?, ?, ?)
returning id
`

type CreateRunParams struct {
	TargetUrl  string
	StartedAt  int64
	FinishedAt int64
	Pages      int64
	StopReason string
}

func (q *Queries) CreateRun(ctx context.Context, arg CreateRunParams) (int64, error) {
	row := q.db.QueryRowContext(ctx, createRun,
		arg.TargetUrl,
		arg.StartedAt,
		arg.FinishedAt,
		arg.Pages,
		arg.StopReason,
	)
	var id int64
	err := row.Scan(&id)
	return id, err
}

const getLatestRun = `-- name: GetLatestRun :one
select id, target_url, started_at, finished_at, pages, stop_reason from run order by id desc limit 1
`

func (q *Queries) GetLatestRun(ctx context.Context) (Run, error) {
	row := q.db.QueryRowContext(ctx, getLatestRun)
	var i Run
	err := row.Scan(
		&i.ID,
		&i.TargetUrl,
		&i.StartedAt,
		&i.FinishedAt,
		&i.Pages,
		&i.StopReason,
	)
	return i, err
}

const getReviews = `-- name: GetReviews :many
select run_id, position, reviewer, rating, date, text from review where run_id = ? order by position
`

func (q *Queries) GetReviews(ctx context.Context, runID int64) ([]Review, error) {
	rows, err := q.db.QueryContext(ctx, getReviews, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Review
	for rows.Next() {
		var i Review
		if err := rows.Scan(
			&i.RunID,
			&i.Position,
			&i.Reviewer,
			&i.Rating,
			&i.Date,
			&i.Text,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const getRun = `-- name: GetRun :one
select id, target_url, started_at, finished_at, pages, stop_reason from run where id = ?
`

func (q *Queries) GetRun(ctx context.Context, id int64) (Run, error) {
	row := q.db.QueryRowContext(ctx, getRun, id)
	var i Run
	err := row.Scan(
		&i.ID,
		&i.TargetUrl,
		&i.StartedAt,
		&i.FinishedAt,
		&i.Pages,
		&i.StopReason,
	)
	return i, err
}
