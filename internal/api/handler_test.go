package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"prospector/internal/analyzer"
	"prospector/internal/model"
	"prospector/internal/store"
	"prospector/pkg/logging"
)

type fakeRunner struct {
	mu     sync.Mutex
	params []analyzer.Params
	done   chan struct{}
}

func (f *fakeRunner) Run(_ context.Context, params analyzer.Params) (*analyzer.Report, error) {
	f.mu.Lock()
	f.params = append(f.params, params)
	f.mu.Unlock()
	if f.done != nil {
		close(f.done)
	}
	return &analyzer.Report{RunID: params.RunID}, nil
}

type fakeStores struct {
	project    store.Project
	projectErr error
	run        model.AnalysisRun
	runErr     error
}

func (f *fakeStores) GetProject(_ context.Context, _ string) (store.Project, error) {
	return f.project, f.projectErr
}

func (f *fakeStores) GetRun(_ context.Context, _ string) (model.AnalysisRun, error) {
	return f.run, f.runErr
}

func newTestRouter(runner Runner, stores Stores) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	handler := NewHandler(runner, stores, FetchDefaults{MaxCount: 100, TimeWindow: 72 * time.Hour}, logging.NewTestLogger())
	handler.RegisterRoutes(router)
	return router
}

func TestTriggerRunReturnsAcceptedWithRunID(t *testing.T) {
	runner := &fakeRunner{done: make(chan struct{})}
	router := newTestRouter(runner, &fakeStores{project: store.Project{ID: "proj-1", Slug: "acme"}})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/runs",
		strings.NewReader(`{"project": "acme", "search_term": "automation", "max_posts": 40}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	if w.Code != http.StatusAccepted {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body["run_id"] == "" || body["status"] != "pending" {
		t.Fatalf("body = %v", body)
	}

	select {
	case <-runner.done:
	case <-time.After(time.Second):
		t.Fatal("runner was not invoked")
	}
	runner.mu.Lock()
	defer runner.mu.Unlock()
	got := runner.params[0]
	if got.ProjectID != "proj-1" || got.SearchTerm != "automation" || got.Fetch.MaxCount != 40 {
		t.Fatalf("params = %+v", got)
	}
	if got.RunID != body["run_id"] {
		t.Fatalf("response run_id %q does not match params %q", body["run_id"], got.RunID)
	}
}

func TestTriggerRunUnknownProject(t *testing.T) {
	router := newTestRouter(&fakeRunner{}, &fakeStores{projectErr: store.ErrNotFound})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/runs", strings.NewReader(`{"project": "ghost"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestTriggerRunRejectsMissingProject(t *testing.T) {
	router := newTestRouter(&fakeRunner{}, &fakeStores{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/runs", strings.NewReader(`{"search_term": "x"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestGetRun(t *testing.T) {
	finished := time.Now()
	router := newTestRouter(&fakeRunner{}, &fakeStores{run: model.AnalysisRun{
		ID:           "run-9",
		ProjectID:    "proj-1",
		Status:       model.RunCompleted,
		GreenCount:   4,
		TotalCostUSD: 0.12,
		FinishedAt:   &finished,
	}})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/runs/run-9", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var body runResponse
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body.ID != "run-9" || body.Status != "completed" || body.GreenCount != 4 {
		t.Fatalf("body = %+v", body)
	}
}

func TestGetRunNotFound(t *testing.T) {
	router := newTestRouter(&fakeRunner{}, &fakeStores{runErr: store.ErrNotFound})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/runs/absent", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestGetRunStoreError(t *testing.T) {
	router := newTestRouter(&fakeRunner{}, &fakeStores{runErr: errors.New("connection refused")})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/runs/run-9", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", w.Code)
	}
}
