package models

import "time"

// Inferred column types of a quality scan.
const (
	ColumnEmpty   = "empty"
	ColumnNumeric = "numeric"
	ColumnDate    = "date"
	ColumnString  = "string"
)

type QualityReport struct {
	FileName      string         `json:"file_name"`
	DetectedAt    time.Time      `json:"detected_at"`
	RowCount      int            `json:"row_count"`
	ColumnCount   int            `json:"column_count"`
	Columns       []*ColumnStats `json:"columns"`
	DuplicateRows int            `json:"duplicate_rows"`
	SampleRecords [][]string     `json:"sample_records"`
	Error         string         `json:"error,omitempty"`
}

type ColumnStats struct {
	Name          string   `json:"name"`
	NullCount     int      `json:"null_count"`
	NonNullCount  int      `json:"non_null_count"`
	NumericCount  int      `json:"numeric_count"`
	DateCount     int      `json:"date_count"`
	StringCount   int      `json:"string_count"`
	DistinctCount int      `json:"distinct_count"`
	SampleValues  []string `json:"sample_values"`
	InferredType  string   `json:"inferred_type"`

	distinct map[string]struct{}
}

// Observe records one distinct value, keeping at most limit of them.
func (c *ColumnStats) Observe(value string, limit int) {
	if c.distinct == nil {
		c.distinct = make(map[string]struct{})
	}
	if len(c.distinct) < limit {
		c.distinct[value] = struct{}{}
	}
	c.DistinctCount = len(c.distinct)
}
