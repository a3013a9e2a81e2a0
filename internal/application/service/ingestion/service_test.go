package ingestion

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"

	trading "github.com/annaputilovskaya/TradingResults/internal/domain/entity/trading"
	"github.com/annaputilovskaya/TradingResults/internal/infrastructure/spimex"

	"github.com/sirupsen/logrus"
	logrustest "github.com/sirupsen/logrus/hooks/test"
	"github.com/xuri/excelize/v2"
)

type fakeSource struct {
	links     []spimex.ReportLink
	reports   map[string][]byte
	fetchErrs map[string]error
}

func (f *fakeSource) DiscoverLinks(ctx context.Context, earliest string) ([]spimex.ReportLink, error) {
	var newer []spimex.ReportLink
	for _, link := range f.links {
		if link.Date > earliest {
			newer = append(newer, link)
		}
	}
	return newer, nil
}

func (f *fakeSource) GetBytes(ctx context.Context, url string) ([]byte, error) {
	if err := f.fetchErrs[url]; err != nil {
		return nil, err
	}
	data, ok := f.reports[url]
	if !ok {
		return nil, fmt.Errorf("no report at %s", url)
	}
	return data, nil
}

type fakeStorage struct {
	mu        sync.Mutex
	lastDates []string
	datesErr  error
	addErr    error
	stored    map[string]trading.Result
}

func (f *fakeStorage) LastDates(ctx context.Context, days int) ([]string, error) {
	if f.datesErr != nil {
		return nil, f.datesErr
	}
	if len(f.lastDates) > days {
		return f.lastDates[:days], nil
	}
	return f.lastDates, nil
}

func (f *fakeStorage) AddResults(ctx context.Context, results []trading.Result) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.stored == nil {
		f.stored = make(map[string]trading.Result)
	}
	var inserted int64
	for _, result := range results {
		key := result.ExchangeProductID + "/" + result.Date
		if _, ok := f.stored[key]; ok {
			continue
		}
		f.stored[key] = result
		inserted++
	}
	return inserted, f.addErr
}

func reportWith(t *testing.T, codes ...string) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)

	f.SetCellValue(sheet, "B3", "Единица измерения: Метрическая тонна")
	for i, code := range codes {
		n := 5 + i
		f.SetCellValue(sheet, fmt.Sprintf("B%d", n), code)
		f.SetCellValue(sheet, fmt.Sprintf("C%d", n), "Бензин")
		f.SetCellValue(sheet, fmt.Sprintf("D%d", n), "Ачинский НПЗ")
		f.SetCellValue(sheet, fmt.Sprintf("E%d", n), "100")
		f.SetCellValue(sheet, fmt.Sprintf("F%d", n), "5000000")
		f.SetCellValue(sheet, fmt.Sprintf("O%d", n), "7")
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		t.Fatalf("write workbook: %v", err)
	}
	return buf.Bytes()
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func TestRunStoresNewReports(t *testing.T) {
	source := &fakeSource{
		links: []spimex.ReportLink{
			{URL: "u2", Date: "20250102"},
			{URL: "u1", Date: "20250101"},
		},
		reports: map[string][]byte{
			"u2": reportWith(t, "A100STI060F", "A592ACH005A"),
			"u1": reportWith(t, "A100STI060F"),
		},
	}
	storage := &fakeStorage{lastDates: []string{"20241230"}}

	service := NewService(source, storage, 2, quietLogger())
	if err := service.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(storage.stored) != 3 {
		t.Fatalf("stored %d results, want 3", len(storage.stored))
	}
	if _, ok := storage.stored["A592ACH005A/20250102"]; !ok {
		t.Errorf("missing result for A592ACH005A on 20250102")
	}
}

func TestRunUsesDefaultWatermarkOnEmptyStorage(t *testing.T) {
	source := &fakeSource{
		links:   []spimex.ReportLink{{URL: "u1", Date: "20230101"}},
		reports: map[string][]byte{"u1": reportWith(t, "A100STI060F")},
	}
	storage := &fakeStorage{}

	service := NewService(source, storage, 1, quietLogger())
	if err := service.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(storage.stored) != 1 {
		t.Fatalf("stored %d results, want 1", len(storage.stored))
	}
}

func TestRunSkipsAlreadyIngestedDates(t *testing.T) {
	source := &fakeSource{
		links:   []spimex.ReportLink{{URL: "u1", Date: "20250101"}},
		reports: map[string][]byte{"u1": reportWith(t, "A100STI060F")},
	}
	storage := &fakeStorage{lastDates: []string{"20250101"}}

	service := NewService(source, storage, 1, quietLogger())
	if err := service.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(storage.stored) != 0 {
		t.Fatalf("stored %d results, want 0", len(storage.stored))
	}
}

func TestRunIsolatesFailingReports(t *testing.T) {
	source := &fakeSource{
		links: []spimex.ReportLink{
			{URL: "bad", Date: "20250102"},
			{URL: "good", Date: "20250101"},
		},
		reports:   map[string][]byte{"good": reportWith(t, "A100STI060F")},
		fetchErrs: map[string]error{"bad": errors.New("boom")},
	}
	storage := &fakeStorage{lastDates: []string{"20241230"}}

	service := NewService(source, storage, 2, quietLogger())
	if err := service.Run(context.Background()); err != nil {
		t.Fatalf("Run should not fail on a single bad report: %v", err)
	}
	if len(storage.stored) != 1 {
		t.Fatalf("stored %d results, want 1", len(storage.stored))
	}
}

func TestRunCountsPartialInsertsOnStorageError(t *testing.T) {
	source := &fakeSource{
		links:   []spimex.ReportLink{{URL: "u1", Date: "20250101"}},
		reports: map[string][]byte{"u1": reportWith(t, "A100STI060F")},
	}
	storage := &fakeStorage{addErr: errors.New("connection reset mid batch")}
	logger, hook := logrustest.NewNullLogger()

	service := NewService(source, storage, 1, logger)
	if err := service.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	var finished *logrus.Entry
	for _, entry := range hook.AllEntries() {
		if entry.Message == "ingestion run finished" {
			finished = entry
		}
	}
	if finished == nil {
		t.Fatal("no completion log entry")
	}
	if finished.Data["failed"] != 1 {
		t.Errorf("failed = %v, want 1", finished.Data["failed"])
	}
	if finished.Data["records"] != int64(1) || finished.Data["inserted"] != int64(1) {
		t.Errorf("records = %v, inserted = %v, want 1 and 1 (rows written before the error)",
			finished.Data["records"], finished.Data["inserted"])
	}
}

func TestRunFailsOnWatermarkError(t *testing.T) {
	storage := &fakeStorage{datesErr: errors.New("db down")}
	service := NewService(&fakeSource{}, storage, 1, quietLogger())

	if err := service.Run(context.Background()); err == nil {
		t.Fatal("expected error when watermark lookup fails")
	}
}

func TestRunIdempotentSecondPass(t *testing.T) {
	source := &fakeSource{
		links:   []spimex.ReportLink{{URL: "u1", Date: "20250101"}},
		reports: map[string][]byte{"u1": reportWith(t, "A100STI060F")},
	}
	storage := &fakeStorage{}
	service := NewService(source, storage, 1, quietLogger())

	if err := service.Run(context.Background()); err != nil {
		t.Fatalf("first Run: %v", err)
	}
	// Second pass discovers the same link again; the duplicate is absorbed.
	if err := service.Run(context.Background()); err != nil {
		t.Fatalf("second Run: %v", err)
	}
	if len(storage.stored) != 1 {
		t.Fatalf("stored %d results, want 1", len(storage.stored))
	}
}
