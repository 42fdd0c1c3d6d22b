package db

type Review struct {
	RunID    int64
	Position int64
	Reviewer string
	Rating   string
	Date     string
	Text     string
}

type Run struct {
	ID         int64
	TargetUrl  string
	StartedAt  int64
	FinishedAt int64
	Pages      int64
	StopReason string
}
