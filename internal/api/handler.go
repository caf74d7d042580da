// Package api is the HTTP control surface: trigger an analysis run and
// inspect its status. The pipeline itself runs detached from the request.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"prospector/internal/analyzer"
	"prospector/internal/fetch"
	"prospector/internal/model"
	"prospector/internal/store"
	"prospector/pkg/logging"
	"prospector/pkg/middleware"
)

// Runner executes one analysis run. Implemented by *analyzer.Analyzer.
type Runner interface {
	Run(ctx context.Context, params analyzer.Params) (*analyzer.Report, error)
}

// Stores is the read side the handler needs.
type Stores interface {
	GetProject(ctx context.Context, slug string) (store.Project, error)
	GetRun(ctx context.Context, id string) (model.AnalysisRun, error)
}

// FetchDefaults seed the fetch parameters for triggered runs; the request
// can override MaxCount only.
type FetchDefaults struct {
	TimeWindow    time.Duration
	MinFollowers  int
	MinEngagement int
	MaxCount      int
}

type Handler struct {
	runner   Runner
	stores   Stores
	defaults FetchDefaults
	logger   logging.Logger
}

func NewHandler(runner Runner, stores Stores, defaults FetchDefaults, logger logging.Logger) *Handler {
	return &Handler{runner: runner, stores: stores, defaults: defaults, logger: logger}
}

// RegisterRoutes mounts the run endpoints under /api.
func (h *Handler) RegisterRoutes(router *gin.Engine) {
	api := router.Group("/api")
	api.POST("/runs", h.triggerRun)
	api.GET("/runs/:id", h.getRun)
}

type triggerRequest struct {
	Project    string `json:"project" binding:"required"`
	SearchTerm string `json:"search_term"`
	MaxPosts   int    `json:"max_posts"`
}

func (h *Handler) triggerRun(c *gin.Context) {
	var req triggerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	project, err := h.stores.GetProject(c.Request.Context(), req.Project)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "project not found"})
			return
		}
		middleware.GetContextLogger(c, h.logger).WithError(err).Error("Failed to load project")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load project"})
		return
	}

	maxCount := req.MaxPosts
	if maxCount <= 0 {
		maxCount = h.defaults.MaxCount
	}
	params := analyzer.Params{
		RunID:      uuid.NewString(),
		ProjectID:  project.ID,
		SearchTerm: req.SearchTerm,
		Fetch: fetch.Params{
			TimeWindow:    h.defaults.TimeWindow,
			MinFollowers:  h.defaults.MinFollowers,
			MinEngagement: h.defaults.MinEngagement,
			MaxCount:      maxCount,
		},
	}

	// The run outlives the request; failures are recorded on the run row.
	go func() {
		if _, err := h.runner.Run(context.Background(), params); err != nil {
			h.logger.WithError(err).WithFields(logging.Fields{
				"run_id":  params.RunID,
				"project": project.ID,
			}).Error("Analysis run failed")
		}
	}()

	c.JSON(http.StatusAccepted, gin.H{
		"run_id": params.RunID,
		"status": string(model.RunPending),
	})
}

type runResponse struct {
	ID             string     `json:"id"`
	ProjectID      string     `json:"project_id"`
	SearchTerm     string     `json:"search_term,omitempty"`
	Status         string     `json:"status"`
	RequestedPosts int        `json:"requested_posts"`
	ActualPosts    int        `json:"actual_posts"`
	GreenCount     int        `json:"green_count"`
	YellowCount    int        `json:"yellow_count"`
	RedCount       int        `json:"red_count"`
	TotalCostUSD   float64    `json:"total_cost_usd"`
	Error          string     `json:"error,omitempty"`
	StartedAt      time.Time  `json:"started_at"`
	FinishedAt     *time.Time `json:"finished_at,omitempty"`
}

func (h *Handler) getRun(c *gin.Context) {
	run, err := h.stores.GetRun(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "run not found"})
			return
		}
		middleware.GetContextLogger(c, h.logger).WithError(err).Error("Failed to load run")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load run"})
		return
	}

	c.JSON(http.StatusOK, runResponse{
		ID:             run.ID,
		ProjectID:      run.ProjectID,
		SearchTerm:     run.SearchTerm,
		Status:         string(run.Status),
		RequestedPosts: run.RequestedPosts,
		ActualPosts:    run.ActualPosts,
		GreenCount:     run.GreenCount,
		YellowCount:    run.YellowCount,
		RedCount:       run.RedCount,
		TotalCostUSD:   run.TotalCostUSD,
		Error:          run.Error,
		StartedAt:      run.StartedAt,
		FinishedAt:     run.FinishedAt,
	})
}
