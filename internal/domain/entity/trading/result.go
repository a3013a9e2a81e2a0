// Package trading defines the domain model of oil-products trading results.
package trading

import (
	"errors"
	"fmt"
	"time"
)

const (
	productIDMaxLen = 11
	oilIDLen        = 4
	basisIDEnd      = 7
	typeIDEnd       = 8
	dateLen         = 8
)

var (
	ErrShortProductID = errors.New("exchange product id is too short to derive identifiers")
	ErrLongProductID  = fmt.Errorf("exchange product id is longer than %d characters", productIDMaxLen)
	ErrBadDate        = errors.New("date must be 8 digits in YYYYMMDD form")
)

// Result models one row of one trading day's results as published by the
// exchange. OilID, DeliveryBasisID and DeliveryTypeID are derived from
// ExchangeProductID, never supplied by the source.
type Result struct {
	ID                  int64     `json:"id"`
	ExchangeProductID   string    `json:"exchange_product_id"`
	ExchangeProductName string    `json:"exchange_product_name"`
	OilID               string    `json:"oil_id"`
	DeliveryBasisID     string    `json:"delivery_basis_id"`
	DeliveryBasisName   string    `json:"delivery_basis_name"`
	DeliveryTypeID      string    `json:"delivery_type_id"`
	Volume              int64     `json:"volume"`
	Total               int64     `json:"total"`
	Count               int64     `json:"count"`
	Date                string    `json:"date"`
	CreatedOn           time.Time `json:"created_on"`
	UpdatedOn           time.Time `json:"updated_on"`
}

// NewResult assembles a Result from raw report values, deriving the oil,
// delivery basis and delivery type identifiers from the product code.
func NewResult(productID, productName, basisName string, volume, total, count int64, date string) (*Result, error) {
	if len(productID) < typeIDEnd {
		return nil, ErrShortProductID
	}
	if len(productID) > productIDMaxLen {
		return nil, ErrLongProductID
	}
	if !isDate(date) {
		return nil, ErrBadDate
	}
	return &Result{
		ExchangeProductID:   productID,
		ExchangeProductName: productName,
		OilID:               productID[:oilIDLen],
		DeliveryBasisID:     productID[oilIDLen:basisIDEnd],
		DeliveryBasisName:   basisName,
		DeliveryTypeID:      productID[basisIDEnd:typeIDEnd],
		Volume:              volume,
		Total:               total,
		Count:               count,
		Date:                date,
	}, nil
}

// Filter narrows read queries. Empty fields impose no constraint; present
// fields are combined with AND.
type Filter struct {
	OilID           string
	DeliveryTypeID  string
	DeliveryBasisID string
}

func isDate(value string) bool {
	if len(value) != dateLen {
		return false
	}
	for _, r := range value {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
