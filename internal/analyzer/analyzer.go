// Package analyzer sequences a full analysis run: fetch, gate, embed,
// score, generate, aggregate. Per-post generation failures are data; any
// other error fails the whole run.
package analyzer

import (
	"context"
	"fmt"
	"time"

	"prospector/internal/fetch"
	"prospector/internal/gate"
	"prospector/internal/generation"
	"prospector/internal/model"
	"prospector/internal/scoring"
	"prospector/internal/store"
	"prospector/internal/taxonomy"
	"prospector/pkg/logging"
)

// Phase names a pipeline stage for progress reporting.
type Phase string

const (
	PhaseScraping   Phase = "scraping"
	PhaseEmbedding  Phase = "embedding"
	PhaseScoring    Phase = "scoring"
	PhaseGenerating Phase = "generating"
	PhaseAnalyzing  Phase = "analyzing"
)

// ProgressFunc receives (phase, done, total) updates as the run advances.
type ProgressFunc func(phase Phase, done, total int)

// RunStore records the run lifecycle. Implemented by *store.Store.
type RunStore interface {
	CreateRun(ctx context.Context, run model.AnalysisRun) (string, error)
	MarkRunRunning(ctx context.Context, id string) error
	UpdateRunPostCount(ctx context.Context, id string, actualPosts int) error
	CompleteRun(ctx context.Context, id string, counts store.RunCounts) error
	FailRun(ctx context.Context, id, message string) error
}

// ScoreStore persists per-post scoring results. Implemented by *store.Store.
type ScoreStore interface {
	UpsertScore(ctx context.Context, projectID string, result scoring.Result) error
}

// Fetcher supplies the candidate posts.
type Fetcher interface {
	Fetch(ctx context.Context, params fetch.Params) ([]model.Post, error)
}

// Embedder embeds post texts. Satisfied by llm.EmbeddingClient.
type Embedder interface {
	Embed(ctx context.Context, inputs []string) ([][]float32, error)
}

// TopicEmbeddings resolves taxonomy node vectors, cached or fresh.
type TopicEmbeddings interface {
	Embeddings(ctx context.Context, nodes []taxonomy.Node) (map[string][]float32, error)
}

// Generator produces reply suggestions for gated-and-labeled candidates.
type Generator interface {
	GenerateBatch(ctx context.Context, projectID string, candidates []generation.Candidate) []generation.Result
}

// Config is the per-project analysis configuration, validated at load time
// by internal/config.
type Config struct {
	GateRules      gate.Rules
	Weights        scoring.Weights
	Thresholds     scoring.Thresholds
	AuthorLists    scoring.AuthorLists
	Taxonomy       []taxonomy.Node
	ViralViewFloor int
}

// Params are the per-run inputs. RunID may be pre-assigned by callers that
// need the ID before the run finishes (the HTTP trigger); left empty, the
// store generates one.
type Params struct {
	RunID      string
	ProjectID  string
	SearchTerm string
	Fetch      fetch.Params
	Progress   ProgressFunc
}

type Analyzer struct {
	runs      RunStore
	scores    ScoreStore
	fetcher   Fetcher
	embedder  Embedder
	topics    TopicEmbeddings
	generator Generator
	cfg       Config
	logger    logging.Logger

	now func() time.Time
}

func New(runs RunStore, scores ScoreStore, fetcher Fetcher, embedder Embedder,
	topics TopicEmbeddings, generator Generator, cfg Config, logger logging.Logger) *Analyzer {
	if cfg.ViralViewFloor <= 0 {
		cfg.ViralViewFloor = defaultViralViewFloor
	}
	return &Analyzer{
		runs:      runs,
		scores:    scores,
		fetcher:   fetcher,
		embedder:  embedder,
		topics:    topics,
		generator: generator,
		cfg:       cfg,
		logger:    logger,
		now:       time.Now,
	}
}

// Run executes one full analysis. Any error after run creation marks the
// run failed with the error message and returns it; per-post generation
// failures do not fail the run.
func (a *Analyzer) Run(ctx context.Context, params Params) (*Report, error) {
	progress := params.Progress
	if progress == nil {
		progress = func(Phase, int, int) {}
	}
	params.Fetch.ProjectID = params.ProjectID

	runID, err := a.runs.CreateRun(ctx, model.AnalysisRun{
		ID:             params.RunID,
		ProjectID:      params.ProjectID,
		SearchTerm:     params.SearchTerm,
		Status:         model.RunPending,
		RequestedPosts: params.Fetch.MaxCount,
	})
	if err != nil {
		return nil, fmt.Errorf("create analysis run: %w", err)
	}
	if err := a.runs.MarkRunRunning(ctx, runID); err != nil {
		return nil, a.fail(ctx, runID, fmt.Errorf("mark run running: %w", err))
	}

	report, err := a.execute(ctx, runID, params, progress)
	if err != nil {
		return nil, a.fail(ctx, runID, err)
	}

	counts := store.RunCounts{
		Green:        report.Tiers.Green,
		Yellow:       report.Tiers.Yellow,
		Red:          report.Tiers.Red,
		TotalCostUSD: report.Cost.TotalUSD,
	}
	if err := a.runs.CompleteRun(ctx, runID, counts); err != nil {
		return nil, a.fail(ctx, runID, fmt.Errorf("complete run: %w", err))
	}

	a.logger.WithFields(logging.Fields{
		"run_id": runID,
		"posts":  report.Posts,
		"green":  report.Tiers.Green,
		"cost":   report.Cost.TotalUSD,
	}).Info("Analysis run completed")
	return report, nil
}

func (a *Analyzer) execute(ctx context.Context, runID string, params Params, progress ProgressFunc) (*Report, error) {
	// scraping
	posts, err := a.fetcher.Fetch(ctx, params.Fetch)
	if err != nil {
		return nil, fmt.Errorf("fetch candidates: %w", err)
	}
	if err := a.runs.UpdateRunPostCount(ctx, runID, len(posts)); err != nil {
		return nil, fmt.Errorf("record post count: %w", err)
	}
	progress(PhaseScraping, len(posts), len(posts))

	// gate before paying for embeddings
	passed := make([]model.Post, 0, len(posts))
	results := make([]scoring.Result, 0, len(posts))
	for _, post := range posts {
		if ok, reason := gate.Check(post, a.cfg.GateRules); !ok {
			results = append(results, scoring.Result{
				PostID:     post.ID,
				Label:      scoring.LabelRed,
				GatePassed: false,
				GateReason: reason,
			})
			continue
		}
		passed = append(passed, post)
	}

	// embedding
	topicVecs, err := a.topics.Embeddings(ctx, a.cfg.Taxonomy)
	if err != nil {
		return nil, fmt.Errorf("taxonomy embeddings: %w", err)
	}
	postVecs, err := a.embedPosts(ctx, passed)
	if err != nil {
		return nil, err
	}
	progress(PhaseEmbedding, len(passed), len(passed))

	// scoring
	now := a.now()
	candidates := make([]generation.Candidate, 0, len(passed))
	for i, post := range passed {
		result := scoring.Score(post, postVecs[i], topicVecs,
			a.cfg.Weights, a.cfg.Thresholds, a.cfg.AuthorLists, post.MinutesSince(now))
		results = append(results, result)
		if result.Label != scoring.LabelRed {
			candidates = append(candidates, generation.Candidate{Post: post, Topic: result.BestTopic})
		}
		progress(PhaseScoring, i+1, len(passed))
	}
	for _, result := range results {
		if err := a.scores.UpsertScore(ctx, params.ProjectID, result); err != nil {
			return nil, fmt.Errorf("persist score for post %s: %w", result.PostID, err)
		}
	}

	// generating
	genResults := a.generator.GenerateBatch(ctx, params.ProjectID, candidates)
	progress(PhaseGenerating, len(genResults), len(candidates))

	// analyzing
	report := Aggregate(runID, posts, results, genResults, now, a.cfg.ViralViewFloor)
	progress(PhaseAnalyzing, 1, 1)
	return &report, nil
}

func (a *Analyzer) embedPosts(ctx context.Context, posts []model.Post) ([][]float32, error) {
	texts := make([]string, len(posts))
	for i, post := range posts {
		texts[i] = post.Text
	}
	vecs, err := a.embedder.Embed(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embed posts: %w", err)
	}
	if len(vecs) != len(posts) {
		return nil, fmt.Errorf("embed posts: got %d vectors for %d posts", len(vecs), len(posts))
	}
	return vecs, nil
}

// fail marks the run failed and returns the original error. A FailRun
// error is logged, not returned; the run error is the one the caller needs.
func (a *Analyzer) fail(ctx context.Context, runID string, err error) error {
	if ferr := a.runs.FailRun(ctx, runID, err.Error()); ferr != nil {
		a.logger.WithError(ferr).WithField("run_id", runID).Error("Failed to mark run failed")
	}
	return err
}
