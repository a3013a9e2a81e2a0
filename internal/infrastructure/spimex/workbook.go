package spimex

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// The report workbook mixes several sections; the metric-ton section is
// located by this literal header cell, exactly as published.
const unitMarker = "Единица измерения: Метрическая тонна"

// Section and footer rows carry "-" in the contract-count column.
const countPlaceholder = "-"

// ErrMarkerNotFound means the workbook layout is not understood; the file
// must be skipped rather than guessed at.
var ErrMarkerNotFound = errors.New("unit of measure marker not found in workbook")

// Columns of the metric-ton section, zero-based: instrument code, instrument
// name, delivery basis, volume in units, value in rubles, contract count.
const (
	colCode   = 1
	colName   = 2
	colBasis  = 3
	colVolume = 4
	colTotal  = 5
	colCount  = 14
)

// Row is one projected row of the metric-ton section.
type Row struct {
	Code   string
	Name   string
	Basis  string
	Volume string
	Total  string
	Count  string
}

// ExtractTable locates the metric-ton section of a report workbook and
// returns its rows. Rows start two below the marker (the marker row plus one
// header row); rows whose contract-count cell is the "-" placeholder are
// section separators and are dropped. An empty region yields an empty table.
func ExtractTable(data []byte) ([]Row, error) {
	workbook, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer workbook.Close()

	sheets := workbook.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("workbook has no sheets")
	}
	rows, err := workbook.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}

	marker := -1
	for i, row := range rows {
		for _, cell := range row {
			if cell == unitMarker {
				marker = i
				break
			}
		}
		if marker >= 0 {
			break
		}
	}
	if marker < 0 {
		return nil, ErrMarkerNotFound
	}

	start := marker + 2
	if start >= len(rows) {
		return nil, nil
	}

	var table []Row
	for _, row := range rows[start:] {
		projected := Row{
			Code:   cellAt(row, colCode),
			Name:   cellAt(row, colName),
			Basis:  cellAt(row, colBasis),
			Volume: cellAt(row, colVolume),
			Total:  cellAt(row, colTotal),
			Count:  cellAt(row, colCount),
		}
		if strings.TrimSpace(projected.Count) == countPlaceholder {
			continue
		}
		table = append(table, projected)
	}
	return table, nil
}

func cellAt(row []string, idx int) string {
	if idx < len(row) {
		return row[idx]
	}
	return ""
}
