package source

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"unicode"

	"campaign-dashboard/internal/models"
)

// headerKey folds header spellings such as "emp.var.rate", "emp_var_rate"
// and "EmpVarRate" onto one key.
func headerKey(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			b.WriteRune(r)
		}
	}
	switch key := b.String(); key {
	case "subscribed":
		return "y"
	case "day":
		return "dayofweek"
	default:
		return key
	}
}

// columns maps header keys to row positions.
type columns map[string]int

var requiredColumns = []string{"age", "y"}

func newColumns(header []string) (columns, error) {
	cols := make(columns, len(header))
	for i, name := range header {
		key := headerKey(name)
		if _, seen := cols[key]; !seen && key != "" {
			cols[key] = i
		}
	}
	for _, key := range requiredColumns {
		if _, ok := cols[key]; !ok {
			return nil, fmt.Errorf("missing required column %q", key)
		}
	}
	return cols, nil
}

func (c columns) str(row []string, key string) string {
	i, ok := c[key]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func (c columns) integer(row []string, key string) (int, error) {
	s := c.str(row, key)
	if s == "" {
		if _, ok := c[key]; !ok {
			return 0, nil
		}
		return 0, fmt.Errorf("empty %s", key)
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return n, nil
}

func (c columns) float(row []string, key string) (float64, error) {
	s := c.str(row, key)
	if s == "" {
		if _, ok := c[key]; !ok {
			return 0, nil
		}
		return 0, fmt.Errorf("empty %s", key)
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("parse %s: non-finite value %q", key, s)
	}
	return f, nil
}

// parseRecord converts one data row. Columns absent from the header are
// left at their zero value; a present but malformed number rejects the row.
func parseRecord(row []string, cols columns) (models.CampaignRecord, error) {
	rec := models.CampaignRecord{
		Job:       cols.str(row, "job"),
		Marital:   cols.str(row, "marital"),
		Education: cols.str(row, "education"),
		Default:   cols.str(row, "default"),
		Housing:   cols.str(row, "housing"),
		Loan:      cols.str(row, "loan"),
		Contact:   cols.str(row, "contact"),
		Month:     cols.str(row, "month"),
		DayOfWeek: cols.str(row, "dayofweek"),
		Poutcome:  cols.str(row, "poutcome"),
		Y:         cols.str(row, "y"),
	}

	ints := []struct {
		key string
		dst *int
	}{
		{"age", &rec.Age},
		{"duration", &rec.Duration},
		{"campaign", &rec.Campaign},
		{"pdays", &rec.Pdays},
		{"previous", &rec.Previous},
	}
	for _, f := range ints {
		v, err := cols.integer(row, f.key)
		if err != nil {
			return models.CampaignRecord{}, err
		}
		*f.dst = v
	}

	floats := []struct {
		key string
		dst *float64
	}{
		{"empvarrate", &rec.EmpVarRate},
		{"conspriceidx", &rec.ConsPriceIdx},
		{"consconfidx", &rec.ConsConfIdx},
		{"euribor3m", &rec.Euribor3m},
		{"nremployed", &rec.NrEmployed},
	}
	for _, f := range floats {
		v, err := cols.float(row, f.key)
		if err != nil {
			return models.CampaignRecord{}, err
		}
		*f.dst = v
	}

	rec.Pdays = models.NormalizePdays(rec.Pdays)
	return rec, nil
}

// NewCSVReader returns a lenient reader over r that accepts ragged rows
// and the delimiter detected from the first line.
func NewCSVReader(r io.Reader) *csv.Reader {
	br := bufio.NewReaderSize(r, 1024*1024)
	reader := csv.NewReader(br)
	reader.Comma = detectDelimiter(br)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	return reader
}

// detectDelimiter picks ';' or ',' from the first line, whichever is more frequent.
func detectDelimiter(r *bufio.Reader) rune {
	peek, _ := r.Peek(64 * 1024)
	if i := bytes.IndexByte(peek, '\n'); i >= 0 {
		peek = peek[:i]
	}
	if bytes.Count(peek, []byte{';'}) > bytes.Count(peek, []byte{','}) {
		return ';'
	}
	return ','
}
