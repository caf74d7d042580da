// Package config assembles the typed service configuration. Everything is
// read and validated once at startup; the pipeline packages receive plain
// structs and never touch the environment.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"prospector/internal/gate"
	"prospector/internal/generation"
	"prospector/internal/scoring"
	"prospector/internal/taxonomy"
	"prospector/pkg/config"
	"prospector/pkg/llm"
)

// Config stores environment configuration for Prospector.
type Config struct {
	Port        string
	DatabaseURL string
	RedisURL    string

	LLM       llm.Config
	Embedding llm.Config

	TaxonomyFile string
	Taxonomy     []taxonomy.Node

	Weights     scoring.Weights
	Thresholds  scoring.Thresholds
	AuthorLists scoring.AuthorLists
	GateRules   gate.Rules

	Generation     generation.Config
	RateLimitCalls int
	RateLimitSpan  time.Duration

	FetchWindow        time.Duration
	FetchMinFollowers  int
	FetchMinEngagement int
	FetchMaxCount      int
	ViralViewFloor     int

	ScheduleSpec     string
	ScheduleProjects []string
}

// Load reads the full configuration from the environment and the taxonomy
// file, validating once. LLM and embedding sections are required; a missing
// taxonomy file is an error, an empty taxonomy is not (scoring fails
// closed on relevance).
func Load() (Config, error) {
	cfg := Config{
		Port:        config.GetEnv("PORT", "18080"),
		DatabaseURL: config.RequireEnv("DATABASE_URL"),
		RedisURL:    config.GetEnv("REDIS_URL", ""),

		LLM:       llm.LoadConfig(),
		Embedding: llm.LoadEmbeddingConfig(),

		TaxonomyFile: config.GetEnv("TAXONOMY_FILE", "taxonomy.json"),

		Weights: scoring.Weights{
			Velocity:      config.GetEnvFloat("SCORE_WEIGHT_VELOCITY", 0.35),
			Relevance:     config.GetEnvFloat("SCORE_WEIGHT_RELEVANCE", 0.35),
			Openness:      config.GetEnvFloat("SCORE_WEIGHT_OPENNESS", 0.20),
			AuthorQuality: config.GetEnvFloat("SCORE_WEIGHT_AUTHOR", 0.10),
		},
		Thresholds: scoring.Thresholds{
			GreenMin:  config.GetEnvFloat("SCORE_GREEN_MIN", 0.72),
			YellowMin: config.GetEnvFloat("SCORE_YELLOW_MIN", 0.55),
		},
		AuthorLists: scoring.AuthorLists{
			Whitelist: config.GetEnvList("AUTHOR_WHITELIST"),
			Blacklist: config.GetEnvList("AUTHOR_BLACKLIST"),
		},
		GateRules: gate.Rules{
			BlacklistKeywords: config.GetEnvList("GATE_BLACKLIST_KEYWORDS"),
			BlacklistHandles:  config.GetEnvList("GATE_BLACKLIST_HANDLES"),
			RequireEnglish:    config.GetEnvBool("GATE_REQUIRE_ENGLISH", true),
		},

		Generation: generation.Config{
			MaxConcurrent:  config.GetEnvInt("GENERATION_MAX_CONCURRENT", 5),
			MaxAttempts:    config.GetEnvInt("GENERATION_MAX_ATTEMPTS", 3),
			RetryBaseDelay: config.GetEnvDuration("GENERATION_RETRY_BASE_DELAY", 2*time.Second),
			Temperature:    config.GetEnvFloat("GENERATION_TEMPERATURE", 0.8),
			MaxTokens:      config.GetEnvInt("GENERATION_MAX_TOKENS", 512),
			Voice: generation.Voice{
				Persona:    config.GetEnv("VOICE_PERSONA", ""),
				Tone:       config.GetEnv("VOICE_TONE", ""),
				Avoid:      config.GetEnvList("VOICE_AVOID"),
				BrandNotes: config.GetEnv("VOICE_BRAND_NOTES", ""),
			},
		},
		RateLimitCalls: config.GetEnvInt("GENERATION_RATE_LIMIT_CALLS", 15),
		RateLimitSpan:  config.GetEnvDuration("GENERATION_RATE_LIMIT_WINDOW", time.Minute),

		FetchWindow:        config.GetEnvDuration("FETCH_TIME_WINDOW", 72*time.Hour),
		FetchMinFollowers:  config.GetEnvInt("FETCH_MIN_FOLLOWERS", 0),
		FetchMinEngagement: config.GetEnvInt("FETCH_MIN_ENGAGEMENT", 0),
		FetchMaxCount:      config.GetEnvInt("FETCH_MAX_COUNT", 100),
		ViralViewFloor:     config.GetEnvInt("VIRAL_VIEW_FLOOR", 10000),

		ScheduleSpec:     config.GetEnv("SCHEDULE_CRON", ""),
		ScheduleProjects: config.GetEnvList("SCHEDULE_PROJECTS"),
	}

	nodes, err := LoadTaxonomy(cfg.TaxonomyFile)
	if err != nil {
		return Config{}, err
	}
	cfg.Taxonomy = nodes

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects configurations the pipeline would silently misbehave
// under. Called once by Load; exported for tests and embedded callers.
func (c Config) Validate() error {
	if c.Thresholds.GreenMin < c.Thresholds.YellowMin {
		return fmt.Errorf("config: green threshold %.2f below yellow threshold %.2f",
			c.Thresholds.GreenMin, c.Thresholds.YellowMin)
	}
	for name, w := range map[string]float64{
		"velocity":  c.Weights.Velocity,
		"relevance": c.Weights.Relevance,
		"openness":  c.Weights.Openness,
		"author":    c.Weights.AuthorQuality,
	} {
		if w < 0 {
			return fmt.Errorf("config: negative %s weight %.2f", name, w)
		}
	}
	if c.RateLimitCalls <= 0 {
		return fmt.Errorf("config: rate limit calls must be positive, got %d", c.RateLimitCalls)
	}
	if c.RateLimitSpan <= 0 {
		return fmt.Errorf("config: rate limit window must be positive, got %s", c.RateLimitSpan)
	}
	if c.Generation.MaxConcurrent <= 0 {
		return fmt.Errorf("config: generation concurrency must be positive, got %d", c.Generation.MaxConcurrent)
	}
	if c.FetchMaxCount <= 0 {
		return fmt.Errorf("config: fetch max count must be positive, got %d", c.FetchMaxCount)
	}
	for _, node := range c.Taxonomy {
		if node.Label == "" {
			return fmt.Errorf("config: taxonomy node with empty label")
		}
	}
	return nil
}

// LoadTaxonomy reads taxonomy node definitions from a JSON file.
func LoadTaxonomy(path string) ([]taxonomy.Node, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read taxonomy file %s: %w", path, err)
	}
	var nodes []taxonomy.Node
	if err := json.Unmarshal(data, &nodes); err != nil {
		return nil, fmt.Errorf("parse taxonomy file %s: %w", path, err)
	}
	return nodes, nil
}
