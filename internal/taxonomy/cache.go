package taxonomy

import (
	"context"
	"fmt"

	"prospector/pkg/llm"
	"prospector/pkg/logging"
)

// CacheStore persists embeddings keyed by content hash. Implementations must
// treat Upsert as insert-or-replace.
type CacheStore interface {
	GetEmbeddings(ctx context.Context, hashes []string) (map[string][]float32, error)
	UpsertEmbedding(ctx context.Context, hash string, vector []float32) error
}

// Cache resolves taxonomy node embeddings, reusing persisted vectors for
// unchanged nodes and embedding only what changed. A broken store degrades
// to recomputing everything; it never fails the caller on its own.
type Cache struct {
	embedder llm.EmbeddingClient
	store    CacheStore
	logger   logging.Logger
}

func NewCache(embedder llm.EmbeddingClient, store CacheStore, logger logging.Logger) *Cache {
	return &Cache{embedder: embedder, store: store, logger: logger}
}

// Embeddings returns one vector per node, keyed by label.
func (c *Cache) Embeddings(ctx context.Context, nodes []Node) (map[string][]float32, error) {
	if len(nodes) == 0 {
		return map[string][]float32{}, nil
	}

	hashes := make([]string, len(nodes))
	for i, node := range nodes {
		hashes[i] = node.ContentHash()
	}

	cached := map[string][]float32{}
	if c.store != nil {
		stored, err := c.store.GetEmbeddings(ctx, hashes)
		if err != nil {
			c.logger.WithError(err).Warn("Embedding cache store unavailable, recomputing all taxonomy embeddings")
		} else {
			cached = stored
		}
	}

	result := make(map[string][]float32, len(nodes))
	var missing []Node
	var missingHashes []string
	for i, node := range nodes {
		if vec, ok := cached[hashes[i]]; ok && len(vec) > 0 {
			result[node.Label] = vec
			continue
		}
		missing = append(missing, node)
		missingHashes = append(missingHashes, hashes[i])
	}

	if len(missing) == 0 {
		return result, nil
	}

	texts := make([]string, len(missing))
	for i, node := range missing {
		texts[i] = node.EmbeddingText()
	}
	vectors, err := c.embedder.Embed(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embed %d taxonomy nodes: %w", len(missing), err)
	}
	if len(vectors) != len(missing) {
		return nil, fmt.Errorf("taxonomy embed returned %d vectors for %d nodes", len(vectors), len(missing))
	}

	for i, node := range missing {
		result[node.Label] = vectors[i]
		if c.store == nil {
			continue
		}
		if err := c.store.UpsertEmbedding(ctx, missingHashes[i], vectors[i]); err != nil {
			c.logger.WithError(err).WithField("label", node.Label).Warn("Failed to persist taxonomy embedding")
		}
	}

	return result, nil
}
