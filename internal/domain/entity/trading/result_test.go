package trading

import (
	"errors"
	"testing"
)

func TestNewResultDerivesIdentifiers(t *testing.T) {
	result, err := NewResult("A100STI060F", "Бензин (АИ-100-К5)", "ст. Стенькино II", 60, 6000000, 3, "20250110")
	if err != nil {
		t.Fatalf("NewResult: %v", err)
	}

	if result.OilID != "A100" {
		t.Errorf("OilID = %q, want %q", result.OilID, "A100")
	}
	if result.DeliveryBasisID != "STI" {
		t.Errorf("DeliveryBasisID = %q, want %q", result.DeliveryBasisID, "STI")
	}
	if result.DeliveryTypeID != "F" {
		t.Errorf("DeliveryTypeID = %q, want %q", result.DeliveryTypeID, "F")
	}
	if result.Date != "20250110" {
		t.Errorf("Date = %q, want %q", result.Date, "20250110")
	}
}

func TestNewResultValidation(t *testing.T) {
	tests := []struct {
		name      string
		productID string
		date      string
		wantErr   error
	}{
		{name: "minimal product id", productID: "A100STIF", date: "20250110"},
		{name: "short product id", productID: "A100STI", date: "20250110", wantErr: ErrShortProductID},
		{name: "empty product id", productID: "", date: "20250110", wantErr: ErrShortProductID},
		{name: "long product id", productID: "A100STI060FXX", date: "20250110", wantErr: ErrLongProductID},
		{name: "short date", productID: "A100STI060F", date: "2025011", wantErr: ErrBadDate},
		{name: "non numeric date", productID: "A100STI060F", date: "2025-1-10", wantErr: ErrBadDate},
		{name: "empty date", productID: "A100STI060F", date: "", wantErr: ErrBadDate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewResult(tt.productID, "name", "basis", 1, 1, 1, tt.date)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("NewResult err = %v, want %v", err, tt.wantErr)
			}
		})
	}
}
