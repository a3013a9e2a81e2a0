// Package ingestion coordinates one full pass of the trading-results
// pipeline: watermark lookup, link discovery, report download, parsing and
// duplicate-safe persistence.
package ingestion

import (
	"context"
	"fmt"
	"sync"
	"time"

	trading "github.com/annaputilovskaya/TradingResults/internal/domain/entity/trading"
	"github.com/annaputilovskaya/TradingResults/internal/infrastructure/spimex"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Results for dates up to this one predate the service; an empty database
// starts ingesting from here.
const defaultEarliestDate = "20221231"

const defaultWorkers = 4

// Source discovers report links and downloads report files.
type Source interface {
	DiscoverLinks(ctx context.Context, earliest string) ([]spimex.ReportLink, error)
	GetBytes(ctx context.Context, url string) ([]byte, error)
}

// Storage is the slice of the repository the orchestrator needs.
type Storage interface {
	LastDates(ctx context.Context, days int) ([]string, error)
	AddResults(ctx context.Context, results []trading.Result) (int64, error)
}

type Service struct {
	source  Source
	storage Storage
	logger  *logrus.Logger
	workers int
}

func NewService(source Source, storage Storage, workers int, logger *logrus.Logger) *Service {
	if workers <= 0 {
		workers = defaultWorkers
	}
	return &Service{
		source:  source,
		storage: storage,
		logger:  logger,
		workers: workers,
	}
}

// Run executes one ingestion pass. Failures local to one report are logged
// and counted but never abort the run; only a failed watermark lookup or a
// failed discovery, which make the whole run meaningless, are returned.
func (s *Service) Run(ctx context.Context) error {
	started := time.Now()
	log := s.logger.WithFields(logrus.Fields{
		"component": "ingestion",
		"run_id":    uuid.NewString(),
	})

	earliest, err := s.watermark(ctx)
	if err != nil {
		return fmt.Errorf("determine watermark: %w", err)
	}
	log.WithField("earliest_date", earliest).Info("ingestion run started")

	links, err := s.source.DiscoverLinks(ctx, earliest)
	if err != nil {
		return fmt.Errorf("discover report links: %w", err)
	}
	if len(links) == 0 {
		log.Info("no new trading results found")
		return nil
	}

	// Each link's download→parse→persist chain is independent; only the
	// unique constraint coordinates concurrent writers.
	var (
		mu        sync.Mutex
		processed int
		failed    int
		generated int64
		inserted  int64
	)
	sem := make(chan struct{}, s.workers)
	var wg sync.WaitGroup
	for _, link := range links {
		wg.Add(1)
		sem <- struct{}{}
		go func(link spimex.ReportLink) {
			defer wg.Done()
			defer func() { <-sem }()

			count, stored, err := s.processLink(ctx, link)

			mu.Lock()
			defer mu.Unlock()
			generated += count
			inserted += stored
			if err != nil {
				failed++
				log.WithError(err).WithField("link", link.URL).Error("report processing failed")
				return
			}
			processed++
		}(link)
	}
	wg.Wait()

	log.WithFields(logrus.Fields{
		"links":     len(links),
		"processed": processed,
		"failed":    failed,
		"records":   generated,
		"inserted":  inserted,
		"elapsed":   time.Since(started).String(),
	}).Info("ingestion run finished")
	return nil
}

func (s *Service) watermark(ctx context.Context) (string, error) {
	dates, err := s.storage.LastDates(ctx, 1)
	if err != nil {
		return "", err
	}
	if len(dates) == 0 {
		return defaultEarliestDate, nil
	}
	return dates[0], nil
}

func (s *Service) processLink(ctx context.Context, link spimex.ReportLink) (generated, inserted int64, err error) {
	data, err := s.source.GetBytes(ctx, link.URL)
	if err != nil {
		return 0, 0, fmt.Errorf("download report: %w", err)
	}

	table, err := spimex.ExtractTable(data)
	if err != nil {
		return 0, 0, fmt.Errorf("parse report: %w", err)
	}

	results := make([]trading.Result, 0, len(table))
	for result := range spimex.Records(table, link.Date) {
		results = append(results, result)
	}
	if len(results) == 0 {
		return 0, 0, nil
	}

	stored, err := s.storage.AddResults(ctx, results)
	if err != nil {
		return int64(len(results)), stored, fmt.Errorf("store results: %w", err)
	}
	return int64(len(results)), stored, nil
}
