// Package quality runs a lightweight structural scan over an uploaded CSV.
package quality

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"campaign-dashboard/internal/models"
	"campaign-dashboard/internal/source"
)

const (
	DefaultSampleRows = 5000
	sampleRecords     = 10
	sampleValues      = 10
	distinctLimit     = 1000
	rowSeparator      = "\u001F"
)

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006/01/02",
	"01/02/2006",
	"1/2/2006",
	"01/02/2006 15:04:05",
	"02 Jan 2006",
	"2 Jan 2006",
	"Jan 2, 2006",
	"January 2, 2006",
}

func isNumeric(v string) bool {
	f, err := strconv.ParseFloat(v, 64)
	return err == nil && !math.IsNaN(f) && !math.IsInf(f, 0)
}

func isDate(v string) bool {
	for _, layout := range dateLayouts {
		if _, err := time.Parse(layout, v); err == nil {
			return true
		}
	}
	return false
}

func blank(row []string) bool {
	return len(row) == 1 && strings.TrimSpace(row[0]) == ""
}

// InferType classifies a column from its counters.
func InferType(c *models.ColumnStats) string {
	switch {
	case c.NonNullCount == 0:
		return models.ColumnEmpty
	case c.NumericCount > 0 && c.NumericCount >= c.DateCount && c.NumericCount >= c.StringCount:
		return models.ColumnNumeric
	case c.DateCount > 0 && c.DateCount >= c.StringCount:
		return models.ColumnDate
	default:
		return models.ColumnString
	}
}

// Scan analyses up to sampleRows non-blank rows of r in detail and counts
// the rest. It never fails: read errors are reported in the Error field.
func Scan(ctx context.Context, r io.Reader, filename string, sampleRows int) *models.QualityReport {
	if sampleRows <= 0 {
		sampleRows = DefaultSampleRows
	}
	report := &models.QualityReport{
		FileName:      filename,
		DetectedAt:    time.Now().UTC(),
		Columns:       []*models.ColumnStats{},
		SampleRecords: [][]string{},
	}
	if err := scan(ctx, source.NewCSVReader(r), report, sampleRows); err != nil {
		report.Error = "Validation failed: " + err.Error()
	}
	for _, col := range report.Columns {
		col.InferredType = InferType(col)
	}
	return report
}

func next(reader *csv.Reader) ([]string, error) {
	for {
		row, err := reader.Read()
		if err != nil {
			return nil, err
		}
		if !blank(row) {
			return row, nil
		}
	}
}

func scan(ctx context.Context, reader *csv.Reader, report *models.QualityReport, sampleRows int) error {
	header, err := next(reader)
	if errors.Is(err, io.EOF) {
		return errors.New("empty file or no header line found")
	}
	if err != nil {
		return fmt.Errorf("read header: %w", err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	report.ColumnCount = len(header)
	for i, name := range header {
		name = strings.TrimSpace(name)
		if name == "" {
			name = fmt.Sprintf("Column%d", i+1)
		}
		report.Columns = append(report.Columns, &models.ColumnStats{Name: name, SampleValues: []string{}})
	}

	seen := make(map[string]struct{})
	for {
		if report.RowCount%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		row, err := next(reader)
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read row %d: %w", report.RowCount+1, err)
		}
		report.RowCount++
		if report.RowCount > sampleRows {
			continue
		}

		if len(row) < report.ColumnCount {
			row = append(row, make([]string, report.ColumnCount-len(row))...)
		}
		if len(report.SampleRecords) < sampleRecords {
			report.SampleRecords = append(report.SampleRecords, row)
		}

		key := strings.Join(row, rowSeparator)
		if _, dup := seen[key]; dup {
			report.DuplicateRows++
		} else {
			seen[key] = struct{}{}
		}

		for i, col := range report.Columns {
			observe(col, row[i])
		}
	}
}

func observe(col *models.ColumnStats, value string) {
	if strings.TrimSpace(value) == "" {
		col.NullCount++
		return
	}
	col.NonNullCount++
	if len(col.SampleValues) < sampleValues {
		col.SampleValues = append(col.SampleValues, value)
	}

	trimmed := strings.TrimSpace(value)
	switch {
	case isNumeric(trimmed):
		col.NumericCount++
	case isDate(trimmed):
		col.DateCount++
	default:
		col.StringCount++
	}
	col.Observe(value, distinctLimit)
}
