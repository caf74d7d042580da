// Package store is the Postgres persistence layer: projects, candidate
// posts, scores, suggestions, and analysis run records. All writes that can
// repeat across runs are upserts on their natural key.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"prospector/internal/model"
	"prospector/internal/scoring"
)

// ErrNotFound marks lookups that matched nothing. Callers treat it as a
// run-aborting condition, not a retryable error.
var ErrNotFound = errors.New("not found")

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// DB exposes the underlying handle for health checks.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Project is the minimal projection the pipeline needs.
type Project struct {
	ID   string
	Slug string
}

func (s *Store) GetProject(ctx context.Context, slug string) (Project, error) {
	var project Project
	err := s.db.QueryRowContext(ctx,
		`SELECT id, slug FROM projects WHERE slug = $1`,
		slug,
	).Scan(&project.ID, &project.Slug)
	if errors.Is(err, sql.ErrNoRows) {
		return Project{}, fmt.Errorf("project %q: %w", slug, ErrNotFound)
	}
	if err != nil {
		return Project{}, fmt.Errorf("get project: %w", err)
	}
	return project, nil
}

// PostQuery filters candidate posts server-side. Ordering is always newest
// first with a hard row cap.
type PostQuery struct {
	ProjectID     string
	Since         time.Time
	MinEngagement int
	Limit         int
}

// PostRow is a fetched post with its joined author columns. Author fields
// are nullable; the fetcher decides what to do with incomplete rows.
type PostRow struct {
	ID              string
	Text            string
	AuthorHandle    sql.NullString
	AuthorFollowers sql.NullInt64
	PostedAt        time.Time
	Likes           int
	Replies         int
	Reshares        int
	Views           int
	Language        sql.NullString
}

func (s *Store) QueryPosts(ctx context.Context, q PostQuery) ([]PostRow, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = 100
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT p.id,
			p.text,
			a.handle,
			a.followers,
			p.posted_at,
			p.likes,
			p.replies,
			p.reshares,
			p.views,
			p.language
		FROM posts p
		LEFT JOIN accounts a ON a.handle = p.author_handle
		WHERE p.project_id = $1
		AND p.posted_at >= $2
		AND (p.likes + p.replies + p.reshares) >= $3
		ORDER BY p.posted_at DESC
		LIMIT $4
	`, q.ProjectID, q.Since, q.MinEngagement, limit)
	if err != nil {
		return nil, fmt.Errorf("query posts: %w", err)
	}
	defer rows.Close()

	var posts []PostRow
	for rows.Next() {
		var row PostRow
		if err := rows.Scan(
			&row.ID,
			&row.Text,
			&row.AuthorHandle,
			&row.AuthorFollowers,
			&row.PostedAt,
			&row.Likes,
			&row.Replies,
			&row.Reshares,
			&row.Views,
			&row.Language,
		); err != nil {
			return nil, fmt.Errorf("scan post row: %w", err)
		}
		posts = append(posts, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate post rows: %w", err)
	}
	return posts, nil
}

// UpsertScore persists one scoring result, replacing any previous score for
// the same (project, post).
func (s *Store) UpsertScore(ctx context.Context, projectID string, result scoring.Result) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO post_scores (
			project_id,
			post_id,
			velocity,
			relevance,
			openness,
			author_quality,
			total,
			label,
			best_topic,
			best_similarity,
			gate_passed,
			gate_reason,
			scored_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, NOW())
		ON CONFLICT (project_id, post_id)
		DO UPDATE SET
			velocity = EXCLUDED.velocity,
			relevance = EXCLUDED.relevance,
			openness = EXCLUDED.openness,
			author_quality = EXCLUDED.author_quality,
			total = EXCLUDED.total,
			label = EXCLUDED.label,
			best_topic = EXCLUDED.best_topic,
			best_similarity = EXCLUDED.best_similarity,
			gate_passed = EXCLUDED.gate_passed,
			gate_reason = EXCLUDED.gate_reason,
			scored_at = NOW()
	`,
		projectID,
		result.PostID,
		result.Velocity,
		result.Relevance,
		result.Openness,
		result.AuthorQuality,
		result.Total,
		string(result.Label),
		result.BestTopic,
		result.BestSimilarity,
		result.GatePassed,
		nullString(result.GateReason),
	)
	if err != nil {
		return fmt.Errorf("upsert score: %w", err)
	}
	return nil
}

// UpsertSuggestions persists suggestions for one post. The conflict target
// (project_id, post_id, suggestion_type) makes re-runs overwrite instead of
// duplicating.
func (s *Store) UpsertSuggestions(ctx context.Context, projectID, postID string, suggestions []model.Suggestion) error {
	for _, suggestion := range suggestions {
		_, err := s.db.ExecContext(ctx, `
			INSERT INTO generated_comments (
				project_id,
				post_id,
				suggestion_type,
				text,
				rank,
				created_at
			) VALUES ($1, $2, $3, $4, $5, NOW())
			ON CONFLICT (project_id, post_id, suggestion_type)
			DO UPDATE SET
				text = EXCLUDED.text,
				rank = EXCLUDED.rank,
				created_at = NOW()
		`, projectID, postID, string(suggestion.Type), suggestion.Text, suggestion.Rank)
		if err != nil {
			return fmt.Errorf("upsert suggestion %s: %w", suggestion.Type, err)
		}
	}
	return nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
