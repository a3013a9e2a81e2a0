package trading

import (
	"context"
	"errors"
	"time"

	trading "github.com/annaputilovskaya/TradingResults/internal/domain/entity/trading"
	interfaces "github.com/annaputilovskaya/TradingResults/internal/domain/interfaces"
)

var (
	ErrInvalidDays     = errors.New("days must be positive")
	ErrInvalidInterval = errors.New("start date is after end date")
)

const (
	dateLayout = "20060102"

	// Results older than this date were never published in the current
	// format, so open-ended queries start here.
	defaultStartDate = "20230101"
)

type Service struct {
	repo interfaces.TradingResultRepository
}

func NewService(repo interfaces.TradingResultRepository) *Service {
	return &Service{repo: repo}
}

// GetLastDates returns the dates of the last days trading days, newest first.
func (s *Service) GetLastDates(ctx context.Context, days int) ([]string, error) {
	if days <= 0 {
		return nil, ErrInvalidDays
	}
	return s.repo.LastDates(ctx, days)
}

// GetDynamics returns results matching the filter over a period. Nil bounds
// fall back to the default start date and today respectively.
func (s *Service) GetDynamics(ctx context.Context, f trading.Filter, start, end *time.Time) ([]trading.Result, error) {
	startDate, endDate, err := normalizeInterval(start, end)
	if err != nil {
		return nil, err
	}
	return s.repo.GetDynamics(ctx, f, startDate, endDate)
}

// GetLastResults returns results for the latest stored trading date.
func (s *Service) GetLastResults(ctx context.Context, f trading.Filter) ([]trading.Result, error) {
	return s.repo.GetLastResults(ctx, f)
}

func (s *Service) Close() {
	s.repo.Close()
}

func normalizeInterval(start, end *time.Time) (string, string, error) {
	startDate := defaultStartDate
	if start != nil {
		startDate = start.Format(dateLayout)
	}
	endDate := time.Now().Format(dateLayout)
	if end != nil {
		endDate = end.Format(dateLayout)
	}
	if startDate > endDate {
		return "", "", ErrInvalidInterval
	}
	return startDate, endDate, nil
}
