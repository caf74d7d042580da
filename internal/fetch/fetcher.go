// Package fetch retrieves candidate posts from the store and converts them
// into the pipeline's post representation.
package fetch

import (
	"context"
	"fmt"
	"time"

	"prospector/internal/model"
	"prospector/internal/store"
	"prospector/pkg/logging"
)

// Source is the read surface the fetcher needs from the store.
type Source interface {
	QueryPosts(ctx context.Context, q store.PostQuery) ([]store.PostRow, error)
}

// Params filter the candidate set. TimeWindow and MinEngagement are applied
// server-side; MinFollowers requires joined author data and is applied here.
type Params struct {
	ProjectID     string
	TimeWindow    time.Duration
	MinFollowers  int
	MinEngagement int
	MaxCount      int
}

type Fetcher struct {
	source Source
	logger logging.Logger
}

func NewFetcher(source Source, logger logging.Logger) *Fetcher {
	return &Fetcher{source: source, logger: logger}
}

// Fetch returns up to MaxCount posts, newest first. Rows missing joined
// author data are skipped with a log line rather than failing the batch;
// returning fewer posts than requested is not an error.
func (f *Fetcher) Fetch(ctx context.Context, params Params) ([]model.Post, error) {
	window := params.TimeWindow
	if window <= 0 {
		window = 72 * time.Hour
	}

	rows, err := f.source.QueryPosts(ctx, store.PostQuery{
		ProjectID:     params.ProjectID,
		Since:         time.Now().Add(-window),
		MinEngagement: params.MinEngagement,
		Limit:         params.MaxCount,
	})
	if err != nil {
		return nil, fmt.Errorf("fetch candidates: %w", err)
	}

	posts := make([]model.Post, 0, len(rows))
	var skipped int
	for _, row := range rows {
		if !row.AuthorHandle.Valid || !row.AuthorFollowers.Valid {
			skipped++
			f.logger.WithField("post_id", row.ID).Debug("Skipping post with missing author data")
			continue
		}
		if int(row.AuthorFollowers.Int64) < params.MinFollowers {
			continue
		}
		language := ""
		if row.Language.Valid {
			language = row.Language.String
		}
		posts = append(posts, model.Post{
			ID:              row.ID,
			Text:            row.Text,
			AuthorHandle:    row.AuthorHandle.String,
			AuthorFollowers: int(row.AuthorFollowers.Int64),
			PostedAt:        row.PostedAt,
			Likes:           row.Likes,
			Replies:         row.Replies,
			Reshares:        row.Reshares,
			Views:           row.Views,
			Language:        language,
		})
	}

	if skipped > 0 {
		f.logger.WithFields(logging.Fields{
			"project_id": params.ProjectID,
			"skipped":    skipped,
			"returned":   len(posts),
		}).Info("Skipped candidates with incomplete author data")
	}
	return posts, nil
}
