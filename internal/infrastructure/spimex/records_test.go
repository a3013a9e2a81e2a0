package spimex

import (
	"testing"

	trading "github.com/annaputilovskaya/TradingResults/internal/domain/entity/trading"
)

func collect(table []Row, date string) []trading.Result {
	var results []trading.Result
	for result := range Records(table, date) {
		results = append(results, result)
	}
	return results
}

func TestRecordsStopsAtTotalRow(t *testing.T) {
	table := []Row{
		{Code: "A100STI060F", Name: "Бензин", Basis: "ст. Стенькино II", Volume: "60", Total: "6000000", Count: "3"},
		{Code: "Итого:", Volume: "60", Total: "6000000", Count: "3"},
		{Code: "A592ACH005A", Name: "Бензин", Basis: "Ачинский НПЗ", Volume: "100", Total: "5000000", Count: "7"},
	}

	results := collect(table, "20250110")
	if len(results) != 1 {
		t.Fatalf("got %d results, want 1: %v", len(results), results)
	}
	if results[0].ExchangeProductID != "A100STI060F" {
		t.Errorf("ExchangeProductID = %q", results[0].ExchangeProductID)
	}
}

func TestRecordsSkipsUnusableRows(t *testing.T) {
	table := []Row{
		{Code: "", Volume: "60", Total: "6000000", Count: "3"},
		{Code: "SHORT", Volume: "60", Total: "6000000", Count: "3"},
		{Code: "A100STI060F", Volume: "n/a", Total: "6000000", Count: "3"},
		{Code: "A100STI060F", Volume: "60", Total: "", Count: "3"},
		{Code: "A592ACH005A", Name: "Бензин", Basis: "Ачинский НПЗ", Volume: "100", Total: "5000000", Count: "7"},
	}

	results := collect(table, "20250110")
	if len(results) != 1 {
		t.Fatalf("got %d results, want 1: %v", len(results), results)
	}
	if results[0].ExchangeProductID != "A592ACH005A" {
		t.Errorf("ExchangeProductID = %q", results[0].ExchangeProductID)
	}
}

func TestRecordsDateAndDerivation(t *testing.T) {
	table := []Row{
		{Code: " A100STI060F ", Name: " Бензин ", Basis: " ст. Стенькино II ", Volume: "60", Total: "6000000", Count: "3"},
	}

	results := collect(table, "20250110")
	if len(results) != 1 {
		t.Fatalf("got %d results, want 1", len(results))
	}
	got := results[0]
	if got.Date != "20250110" {
		t.Errorf("Date = %q, want from link not sheet", got.Date)
	}
	if got.OilID != "A100" || got.DeliveryBasisID != "STI" || got.DeliveryTypeID != "F" {
		t.Errorf("derived ids = %s/%s/%s", got.OilID, got.DeliveryBasisID, got.DeliveryTypeID)
	}
	if got.ExchangeProductName != "Бензин" || got.DeliveryBasisName != "ст. Стенькино II" {
		t.Errorf("names not trimmed: %+v", got)
	}
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		cell   string
		want   int64
		wantOK bool
	}{
		{cell: "60", want: 60, wantOK: true},
		{cell: "6000000.5", want: 6000000, wantOK: true},
		{cell: "6000000,5", want: 6000000, wantOK: true},
		{cell: "1 234 567", want: 1234567, wantOK: true},
		{cell: "1 234", want: 1234, wantOK: true},
		{cell: " 42 ", want: 42, wantOK: true},
		{cell: ""},
		{cell: "-"},
		{cell: "n/a"},
	}

	for _, tt := range tests {
		t.Run(tt.cell, func(t *testing.T) {
			got, ok := parseAmount(tt.cell)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("parseAmount(%q) = (%d, %v), want (%d, %v)", tt.cell, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}
