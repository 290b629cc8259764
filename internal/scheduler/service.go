package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/reputrack/reputrack/internal/config"
	"github.com/reputrack/reputrack/internal/pipeline"
)

// Service handles scheduling of the periodic ingestion and aggregation runs
type Service struct {
	config   *config.Config
	pipeline *pipeline.Service
	cron     *cron.Cron
}

// NewService creates a new scheduler service
func NewService(cfg *config.Config, p *pipeline.Service) *Service {
	return &Service{
		config:   cfg,
		pipeline: p,
		cron:     cron.New(cron.WithSeconds()),
	}
}

// Start registers the ingestion and aggregation jobs and starts the cron
// loop. The scheduled aggregation recomputes the combined all-sources scope.
func (s *Service) Start() error {
	_, err := s.cron.AddFunc(s.config.IngestSchedule, func() {
		logrus.Info("Starting scheduled ingestion run")
		if _, err := s.pipeline.RunIngestion(context.Background()); err != nil {
			logrus.Errorf("Scheduled ingestion run failed: %v", err)
		}
	})
	if err != nil {
		return err
	}

	_, err = s.cron.AddFunc(s.config.AggregateSchedule, func() {
		logrus.Info("Starting scheduled aggregation run")
		if _, err := s.pipeline.RunAggregation(context.Background(), s.config.Target, "", time.Time{}); err != nil {
			logrus.Errorf("Scheduled aggregation run failed: %v", err)
		}
	})
	if err != nil {
		return err
	}

	s.cron.Start()
	logrus.Infof("Scheduler started (ingest %q, aggregate %q)",
		s.config.IngestSchedule, s.config.AggregateSchedule)
	return nil
}

// Stop stops the scheduler
func (s *Service) Stop() {
	if s.cron != nil {
		s.cron.Stop()
		logrus.Info("Scheduler stopped")
	}
}
