package taxonomy

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "taxonomy:embedding:"

// RedisCacheStore keeps taxonomy embeddings in Redis with a TTL. Useful when
// several analyzer instances share one cache without touching Postgres.
type RedisCacheStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisCacheStore(client *redis.Client, ttl time.Duration) *RedisCacheStore {
	if ttl <= 0 {
		ttl = 30 * 24 * time.Hour
	}
	return &RedisCacheStore{client: client, ttl: ttl}
}

func (s *RedisCacheStore) GetEmbeddings(ctx context.Context, hashes []string) (map[string][]float32, error) {
	if s == nil || s.client == nil {
		return nil, errors.New("redis cache store unavailable")
	}
	if len(hashes) == 0 {
		return map[string][]float32{}, nil
	}

	keys := make([]string, len(hashes))
	for i, hash := range hashes {
		keys[i] = redisKeyPrefix + hash
	}
	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("mget embedding cache: %w", err)
	}

	result := make(map[string][]float32)
	for i, value := range values {
		raw, ok := value.(string)
		if !ok || raw == "" {
			continue
		}
		var vec []float32
		if err := json.Unmarshal([]byte(raw), &vec); err != nil {
			// A corrupt entry is treated as a miss; it gets re-embedded
			// and overwritten.
			continue
		}
		result[hashes[i]] = vec
	}
	return result, nil
}

func (s *RedisCacheStore) UpsertEmbedding(ctx context.Context, hash string, vector []float32) error {
	if s == nil || s.client == nil {
		return errors.New("redis cache store unavailable")
	}
	raw, err := json.Marshal(vector)
	if err != nil {
		return fmt.Errorf("encode embedding: %w", err)
	}
	if err := s.client.Set(ctx, redisKeyPrefix+hash, raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("set embedding cache entry: %w", err)
	}
	return nil
}
