package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"

	"prospector/internal/analyzer"
	"prospector/internal/fetch"
	"prospector/pkg/logging"
)

type recordingRunner struct {
	mu       sync.Mutex
	projects []string
	failFor  string
}

func (r *recordingRunner) Run(_ context.Context, params analyzer.Params) (*analyzer.Report, error) {
	r.mu.Lock()
	r.projects = append(r.projects, params.ProjectID)
	r.mu.Unlock()
	if params.ProjectID == r.failFor {
		return nil, errors.New("run failed")
	}
	return &analyzer.Report{RunID: "run-" + params.ProjectID}, nil
}

func TestRunCycleCoversAllProjects(t *testing.T) {
	runner := &recordingRunner{}
	s := New(runner, []string{"a", "b", "c"}, fetch.Params{MaxCount: 10}, "@every 1h", logging.NewTestLogger())

	s.runCycle(context.Background())

	if len(runner.projects) != 3 {
		t.Fatalf("ran %d projects, want 3", len(runner.projects))
	}
}

func TestRunCycleContinuesPastFailure(t *testing.T) {
	runner := &recordingRunner{failFor: "a"}
	s := New(runner, []string{"a", "b"}, fetch.Params{}, "@every 1h", logging.NewTestLogger())

	s.runCycle(context.Background())

	if len(runner.projects) != 2 {
		t.Fatalf("one project's failure must not skip the rest; ran %v", runner.projects)
	}
}

func TestStartDisabledWithoutSpec(t *testing.T) {
	s := New(&recordingRunner{}, []string{"a"}, fetch.Params{}, "", logging.NewTestLogger())
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("disabled scheduler must not error: %v", err)
	}
}

func TestStartRejectsBadSpec(t *testing.T) {
	s := New(&recordingRunner{}, []string{"a"}, fetch.Params{}, "not a cron spec", logging.NewTestLogger())
	if err := s.Start(context.Background()); err == nil {
		t.Fatal("expected error for invalid cron spec")
	}
}
