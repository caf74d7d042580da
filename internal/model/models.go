// Package model holds the data types shared across the scoring and
// generation pipeline.
package model

import "time"

// Post is a candidate social post. Immutable once fetched; the pipeline
// never writes back to it.
type Post struct {
	ID              string
	Text            string
	AuthorHandle    string
	AuthorFollowers int
	PostedAt        time.Time
	Likes           int
	Replies         int
	Reshares        int
	Views           int
	Language        string
}

// MinutesSince returns whole minutes between the post time and now,
// floored at zero for clock skew.
func (p Post) MinutesSince(now time.Time) float64 {
	minutes := now.Sub(p.PostedAt).Minutes()
	if minutes < 0 {
		return 0
	}
	return minutes
}

// SuggestionType tags one of the three reply variants every generation
// response must contain.
type SuggestionType string

const (
	SuggestionQuestion   SuggestionType = "question"
	SuggestionValueAdd   SuggestionType = "value_add"
	SuggestionExperience SuggestionType = "personal_experience"
)

// SuggestionTypes lists the required variants in rank order.
var SuggestionTypes = []SuggestionType{
	SuggestionQuestion,
	SuggestionValueAdd,
	SuggestionExperience,
}

// Suggestion is a single accepted reply variant.
type Suggestion struct {
	Type SuggestionType
	Text string
	Rank int
}

// RunStatus is the lifecycle state of an analysis run. Terminal states are
// never re-opened; a new analysis creates a new run.
type RunStatus string

const (
	RunPending   RunStatus = "pending"
	RunRunning   RunStatus = "running"
	RunCompleted RunStatus = "completed"
	RunFailed    RunStatus = "failed"
)

// AnalysisRun is the audit record for one orchestrated analysis.
type AnalysisRun struct {
	ID             string
	ProjectID      string
	SearchTerm     string
	Status         RunStatus
	RequestedPosts int
	ActualPosts    int
	GreenCount     int
	YellowCount    int
	RedCount       int
	TotalCostUSD   float64
	Error          string
	StartedAt      time.Time
	FinishedAt     *time.Time
}
