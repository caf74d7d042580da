// Package scheduler wires up the cron job that periodically runs an
// analysis for each configured project.
package scheduler

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"

	"prospector/internal/analyzer"
	"prospector/internal/fetch"
	"prospector/pkg/logging"
)

// Runner executes one analysis run. Implemented by *analyzer.Analyzer.
type Runner interface {
	Run(ctx context.Context, params analyzer.Params) (*analyzer.Report, error)
}

// Scheduler wraps robfig/cron and triggers recurring analyses.
type Scheduler struct {
	cron     *cron.Cron
	runner   Runner
	projects []string
	fetch    fetch.Params
	spec     string
	logger   logging.Logger
}

// New creates a Scheduler firing on the given cron spec (e.g. "@every 6h")
// for each project ID in projects.
func New(runner Runner, projects []string, fetchDefaults fetch.Params, spec string, logger logging.Logger) *Scheduler {
	return &Scheduler{
		cron:     cron.New(),
		runner:   runner,
		projects: projects,
		fetch:    fetchDefaults,
		spec:     spec,
		logger:   logger,
	}
}

// Start registers the job and starts the scheduler. Projects are analyzed
// sequentially per tick; one project's failure does not skip the rest.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.spec == "" || len(s.projects) == 0 {
		s.logger.Debug("Scheduler disabled: no cron spec or no projects")
		return nil
	}

	_, err := s.cron.AddFunc(s.spec, func() {
		s.runCycle(ctx)
	})
	if err != nil {
		return fmt.Errorf("cron.AddFunc: %w", err)
	}

	s.cron.Start()
	s.logger.WithFields(logging.Fields{
		"spec":     s.spec,
		"projects": len(s.projects),
	}).Info("Scheduler started")
	return nil
}

// Stop gracefully shuts down the scheduler.
func (s *Scheduler) Stop() {
	s.cron.Stop()
	s.logger.Info("Scheduler stopped")
}

func (s *Scheduler) runCycle(ctx context.Context) {
	s.logger.Info("Scheduled analysis cycle started")

	for _, projectID := range s.projects {
		params := analyzer.Params{
			ProjectID: projectID,
			Fetch:     s.fetch,
		}
		report, err := s.runner.Run(ctx, params)
		if err != nil {
			s.logger.WithError(err).WithField("project", projectID).Error("Scheduled analysis failed")
			continue
		}
		s.logger.WithFields(logging.Fields{
			"project": projectID,
			"run_id":  report.RunID,
			"green":   report.Tiers.Green,
		}).Info("Scheduled analysis completed")
	}
}
