package taxonomy

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"
)

// SQLCacheStore keeps taxonomy embeddings in a pgvector column keyed by
// content hash.
type SQLCacheStore struct {
	db *sql.DB
}

func NewSQLCacheStore(db *sql.DB) *SQLCacheStore {
	return &SQLCacheStore{db: db}
}

func (s *SQLCacheStore) GetEmbeddings(ctx context.Context, hashes []string) (map[string][]float32, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("embedding cache store unavailable")
	}
	if len(hashes) == 0 {
		return map[string][]float32{}, nil
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT content_hash, embedding
		FROM taxonomy_embedding_cache
		WHERE content_hash = ANY($1)
	`, pq.Array(hashes))
	if err != nil {
		return nil, fmt.Errorf("query embedding cache: %w", err)
	}
	defer rows.Close()

	result := make(map[string][]float32)
	for rows.Next() {
		var hash string
		var vec pgvector.Vector
		if err := rows.Scan(&hash, &vec); err != nil {
			return nil, fmt.Errorf("scan embedding cache row: %w", err)
		}
		result[hash] = vec.Slice()
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate embedding cache rows: %w", err)
	}
	return result, nil
}

func (s *SQLCacheStore) UpsertEmbedding(ctx context.Context, hash string, vector []float32) error {
	if s == nil || s.db == nil {
		return errors.New("embedding cache store unavailable")
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO taxonomy_embedding_cache (content_hash, embedding, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (content_hash)
		DO UPDATE SET embedding = EXCLUDED.embedding, updated_at = NOW()
	`, hash, pgvector.NewVector(vector))
	if err != nil {
		return fmt.Errorf("upsert embedding cache entry: %w", err)
	}
	return nil
}
