package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"prospector/internal/model"
)

// CreateRun inserts a new analysis run and returns its ID.
func (s *Store) CreateRun(ctx context.Context, run model.AnalysisRun) (string, error) {
	id := run.ID
	if id == "" {
		id = uuid.NewString()
	}
	status := run.Status
	if status == "" {
		status = model.RunPending
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO analysis_runs (
			id,
			project_id,
			search_term,
			status,
			requested_posts,
			started_at
		) VALUES ($1, $2, $3, $4, $5, NOW())
	`, id, run.ProjectID, run.SearchTerm, string(status), run.RequestedPosts)
	if err != nil {
		return "", fmt.Errorf("create run: %w", err)
	}
	return id, nil
}

// MarkRunRunning transitions a run into the running state.
func (s *Store) MarkRunRunning(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE analysis_runs SET status = 'running' WHERE id = $1`,
		id,
	)
	if err != nil {
		return fmt.Errorf("mark run running: %w", err)
	}
	return nil
}

// UpdateRunPostCount records how many candidate posts the run actually
// fetched.
func (s *Store) UpdateRunPostCount(ctx context.Context, id string, actualPosts int) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE analysis_runs SET actual_posts = $2 WHERE id = $1`,
		id, actualPosts,
	)
	if err != nil {
		return fmt.Errorf("update run post count: %w", err)
	}
	return nil
}

// RunCounts are the final aggregates written when a run completes.
type RunCounts struct {
	Green        int
	Yellow       int
	Red          int
	TotalCostUSD float64
}

// CompleteRun finalizes a run as completed. Terminal; runs are never
// re-opened.
func (s *Store) CompleteRun(ctx context.Context, id string, counts RunCounts) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE analysis_runs
		SET status = 'completed',
			green_count = $2,
			yellow_count = $3,
			red_count = $4,
			total_cost_usd = $5,
			finished_at = NOW()
		WHERE id = $1
		AND status NOT IN ('completed', 'failed')
	`, id, counts.Green, counts.Yellow, counts.Red, counts.TotalCostUSD)
	if err != nil {
		return fmt.Errorf("complete run: %w", err)
	}
	return nil
}

// FailRun finalizes a run as failed with the error message. Terminal.
func (s *Store) FailRun(ctx context.Context, id, message string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE analysis_runs
		SET status = 'failed',
			error = $2,
			finished_at = NOW()
		WHERE id = $1
		AND status NOT IN ('completed', 'failed')
	`, id, message)
	if err != nil {
		return fmt.Errorf("fail run: %w", err)
	}
	return nil
}

// GetRun loads one analysis run by ID.
func (s *Store) GetRun(ctx context.Context, id string) (model.AnalysisRun, error) {
	var run model.AnalysisRun
	var status string
	var errMsg sql.NullString
	var finishedAt sql.NullTime
	err := s.db.QueryRowContext(ctx, `
		SELECT id,
			project_id,
			search_term,
			status,
			requested_posts,
			actual_posts,
			green_count,
			yellow_count,
			red_count,
			total_cost_usd,
			error,
			started_at,
			finished_at
		FROM analysis_runs
		WHERE id = $1
	`, id).Scan(
		&run.ID,
		&run.ProjectID,
		&run.SearchTerm,
		&status,
		&run.RequestedPosts,
		&run.ActualPosts,
		&run.GreenCount,
		&run.YellowCount,
		&run.RedCount,
		&run.TotalCostUSD,
		&errMsg,
		&run.StartedAt,
		&finishedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return model.AnalysisRun{}, fmt.Errorf("run %q: %w", id, ErrNotFound)
	}
	if err != nil {
		return model.AnalysisRun{}, fmt.Errorf("get run: %w", err)
	}
	run.Status = model.RunStatus(status)
	if errMsg.Valid {
		run.Error = errMsg.String
	}
	if finishedAt.Valid {
		t := finishedAt.Time
		run.FinishedAt = &t
	}
	return run, nil
}
