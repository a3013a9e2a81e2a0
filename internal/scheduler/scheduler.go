// Package scheduler runs the periodic ingestion and cache-clear jobs.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Ingestor runs one ingestion pass.
type Ingestor interface {
	Run(ctx context.Context) error
}

type Config struct {
	Timezone           string
	ParseSchedule      string
	CacheClearSchedule string
}

type Scheduler struct {
	cron     *cron.Cron
	ingestor Ingestor
	flush    func(ctx context.Context) error
	logger   *logrus.Logger
	startup  sync.WaitGroup
}

// New builds a scheduler with both jobs registered. flushCache may be nil
// when response caching is disabled.
func New(cfg Config, ingestor Ingestor, flushCache func(ctx context.Context) error, logger *logrus.Logger) (*Scheduler, error) {
	location, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", cfg.Timezone, err)
	}

	s := &Scheduler{
		cron:     cron.New(cron.WithLocation(location)),
		ingestor: ingestor,
		flush:    flushCache,
		logger:   logger,
	}

	if _, err := s.cron.AddFunc(cfg.ParseSchedule, s.runIngestion); err != nil {
		return nil, fmt.Errorf("register ingestion job: %w", err)
	}
	if flushCache != nil {
		if _, err := s.cron.AddFunc(cfg.CacheClearSchedule, s.runCacheClear); err != nil {
			return nil, fmt.Errorf("register cache clear job: %w", err)
		}
	}
	return s, nil
}

// Start runs one ingestion pass immediately so a fresh deployment does not
// wait for the next scheduled slot, then starts the cron loop.
func (s *Scheduler) Start(ctx context.Context) {
	s.startup.Add(1)
	go func() {
		defer s.startup.Done()
		if err := s.ingestor.Run(ctx); err != nil {
			s.logger.WithError(err).Error("initial ingestion run failed")
		}
	}()
	s.cron.Start()
}

// Stop halts scheduling and waits for running jobs to finish, the startup
// run included.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.startup.Wait()
}

// Job errors are logged, never propagated: a failed run must not take the
// scheduler down with it.
func (s *Scheduler) runIngestion() {
	if err := s.ingestor.Run(context.Background()); err != nil {
		s.logger.WithError(err).Error("scheduled ingestion run failed")
	}
}

func (s *Scheduler) runCacheClear() {
	if err := s.flush(context.Background()); err != nil {
		s.logger.WithError(err).Error("scheduled cache clear failed")
		return
	}
	s.logger.Info("response cache cleared")
}
