// Package generation drives concurrent, rate-limited LLM calls that turn
// scored posts into reply suggestions.
package generation

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"prospector/internal/model"
	"prospector/pkg/llm"
	"prospector/pkg/logging"
)

// Outcome tags the result of one post's generation. Callers branch on the
// tag; no string sniffing.
type Outcome string

const (
	OutcomeSuccess       Outcome = "success"
	OutcomeSafetyBlocked Outcome = "safety_blocked"
	OutcomeParseError    Outcome = "parse_error"
	OutcomeProviderError Outcome = "provider_error"
	OutcomeAllFiltered   Outcome = "all_filtered"
)

// Candidate pairs a post with its best-matching taxonomy topic.
type Candidate struct {
	Post  model.Post
	Topic string
}

// Result is the per-post generation outcome. GenerateBatch returns exactly
// one Result per input Candidate, index-aligned.
type Result struct {
	PostID      string
	Outcome     Outcome
	Suggestions []model.Suggestion
	Err         string
	Usage       llm.Usage
	CostUSD     float64
}

func (r Result) Success() bool { return r.Outcome == OutcomeSuccess }

// SuggestionSink persists accepted suggestions. Upsert semantics keyed by
// (project, post, suggestion type) make repeated runs idempotent.
type SuggestionSink interface {
	UpsertSuggestions(ctx context.Context, projectID, postID string, suggestions []model.Suggestion) error
}

// Config bounds the engine. MaxConcurrent is the in-flight call cap;
// the limiter bounds calls per window across all tasks.
type Config struct {
	MaxConcurrent  int
	MaxAttempts    int
	RetryBaseDelay time.Duration
	Temperature    float64
	MaxTokens      int
	Voice          Voice
}

func DefaultConfig() Config {
	return Config{
		MaxConcurrent:  5,
		MaxAttempts:    3,
		RetryBaseDelay: 2 * time.Second,
		Temperature:    0.8,
		MaxTokens:      512,
	}
}

type Engine struct {
	llm     llm.CompletionClient
	limiter *SlidingWindowLimiter
	sink    SuggestionSink
	logger  logging.Logger
	cfg     Config
	rates   Rates
	tally   Tally

	// injectable for tests
	sleep func(ctx context.Context, d time.Duration) error
}

// NewEngine builds the generation engine. The limiter is passed in, not a
// package singleton, so tests and callers own their rate state. sink may be
// nil when persistence is handled elsewhere.
func NewEngine(client llm.CompletionClient, limiter *SlidingWindowLimiter, sink SuggestionSink, cfg Config, logger logging.Logger) *Engine {
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = 1
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.RetryBaseDelay <= 0 {
		cfg.RetryBaseDelay = 2 * time.Second
	}
	return &Engine{
		llm:     client,
		limiter: limiter,
		sink:    sink,
		logger:  logger,
		cfg:     cfg,
		rates:   RatesFor(client.Provider()),
		sleep:   sleepCtx,
	}
}

// TotalCost returns the accumulated USD cost of all successful calls.
func (e *Engine) TotalCost() float64 {
	return e.tally.Cost(e.rates)
}

// GenerateBatch fans out over all candidates with bounded concurrency.
// Every candidate yields exactly one result at its input index; one task's
// failure never aborts the others.
func (e *Engine) GenerateBatch(ctx context.Context, projectID string, candidates []Candidate) []Result {
	results := make([]Result, len(candidates))
	if len(candidates) == 0 {
		return results
	}

	sem := semaphore.NewWeighted(int64(e.cfg.MaxConcurrent))
	var wg sync.WaitGroup
	for i := range candidates {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			results[idx] = e.generateOne(ctx, projectID, candidates[idx], sem)
		}(i)
	}
	wg.Wait()

	for _, result := range results {
		generationResults.WithLabelValues(string(result.Outcome)).Inc()
	}
	return results
}

func (e *Engine) generateOne(ctx context.Context, projectID string, candidate Candidate, sem *semaphore.Weighted) Result {
	result := Result{PostID: candidate.Post.ID}

	if err := sem.Acquire(ctx, 1); err != nil {
		result.Outcome = OutcomeProviderError
		result.Err = fmt.Sprintf("acquire slot: %v", err)
		return result
	}
	defer sem.Release(1)

	generated, err := e.callWithRetry(ctx, candidate)
	if err != nil {
		return e.failedResult(candidate.Post.ID, err)
	}
	result.Usage = generated.Usage

	parsed, err := parseSuggestions(generated.Text)
	if err != nil {
		result.Outcome = OutcomeParseError
		result.Err = err.Error()
		return result
	}

	rank := 1
	for _, suggestionType := range model.SuggestionTypes {
		text := parsed[suggestionType]
		ok, reason := CheckQuality(text, candidate.Post.Text)
		if !ok {
			suggestionsFiltered.WithLabelValues(filterReasonClass(reason)).Inc()
			e.logger.WithFields(logging.Fields{
				"post_id": candidate.Post.ID,
				"type":    string(suggestionType),
				"reason":  reason,
			}).Debug("Suggestion rejected by quality filter")
			continue
		}
		result.Suggestions = append(result.Suggestions, model.Suggestion{
			Type: suggestionType,
			Text: text,
			Rank: rank,
		})
		rank++
	}

	if len(result.Suggestions) == 0 {
		result.Outcome = OutcomeAllFiltered
		result.Err = "all suggestions filtered"
		return result
	}

	result.Outcome = OutcomeSuccess
	result.CostUSD = CostUSD(e.rates, generated.Usage.InputTokens, generated.Usage.OutputTokens)
	e.tally.Add(generated.Usage)

	if e.sink != nil {
		if err := e.sink.UpsertSuggestions(ctx, projectID, candidate.Post.ID, result.Suggestions); err != nil {
			e.logger.WithError(err).WithField("post_id", candidate.Post.ID).Warn("Failed to persist suggestions")
		}
	}
	return result
}

// callWithRetry waits on the limiter and calls the provider, retrying with
// exponential backoff only for rate-limit errors. Safety blocks and other
// failures are terminal on first sight.
func (e *Engine) callWithRetry(ctx context.Context, candidate Candidate) (*llm.GenerateResult, error) {
	prompt := buildPrompt(candidate.Post, candidate.Topic, e.cfg.Voice)
	req := llm.GenerateRequest{
		System:       generationSystemPrompt,
		Prompt:       prompt,
		Temperature:  e.cfg.Temperature,
		MaxTokens:    e.cfg.MaxTokens,
		JSONResponse: true,
	}

	var lastErr error
	for attempt := 1; attempt <= e.cfg.MaxAttempts; attempt++ {
		if attempt > 1 {
			generationRetries.Inc()
			delay := e.cfg.RetryBaseDelay << (attempt - 2)
			if err := e.sleep(ctx, delay); err != nil {
				return nil, err
			}
		}
		if e.limiter != nil {
			if err := e.limiter.Wait(ctx); err != nil {
				return nil, err
			}
		}

		generated, err := e.llm.Generate(ctx, req)
		if err == nil {
			return generated, nil
		}
		lastErr = err
		if !errors.Is(err, llm.ErrRateLimited) {
			return nil, err
		}
	}
	return nil, lastErr
}

func (e *Engine) failedResult(postID string, err error) Result {
	result := Result{PostID: postID, Err: err.Error()}
	switch {
	case errors.Is(err, llm.ErrSafetyBlocked):
		result.Outcome = OutcomeSafetyBlocked
	default:
		result.Outcome = OutcomeProviderError
	}
	return result
}
