package quality

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"campaign-dashboard/internal/models"
)

func TestScan(t *testing.T) {
	input := strings.Join([]string{
		"",
		"id,name,,joined,score",
		"1,alice,x,2024-01-05,3.5",
		"2,bob,,2024-02-10,",
		"",
		"1,alice,x,2024-01-05,3.5",
		"3,carol",
		"4,dave,y,not a date,7",
	}, "\n")

	report := Scan(context.Background(), strings.NewReader(input), "people.csv", 0)
	if report.Error != "" {
		t.Fatalf("Error = %q", report.Error)
	}
	if report.FileName != "people.csv" || report.ColumnCount != 5 {
		t.Errorf("file = %q, columns = %d", report.FileName, report.ColumnCount)
	}
	if report.RowCount != 5 {
		t.Errorf("RowCount = %d, want 5", report.RowCount)
	}
	if report.DuplicateRows != 1 {
		t.Errorf("DuplicateRows = %d, want 1", report.DuplicateRows)
	}
	if len(report.SampleRecords) != 5 {
		t.Errorf("kept %d samples, want 5", len(report.SampleRecords))
	}
	if got := report.SampleRecords[3]; len(got) != 5 || got[4] != "" {
		t.Errorf("short row was not padded: %q", got)
	}

	tests := []struct {
		name     string
		nulls    int
		numeric  int
		dates    int
		strs     int
		distinct int
		inferred string
	}{
		{"id", 0, 5, 0, 0, 4, models.ColumnNumeric},
		{"name", 0, 0, 0, 5, 4, models.ColumnString},
		{"Column3", 2, 0, 0, 3, 2, models.ColumnString},
		{"joined", 1, 0, 3, 1, 3, models.ColumnDate},
		{"score", 2, 3, 0, 0, 2, models.ColumnNumeric},
	}
	for i, tt := range tests {
		col := report.Columns[i]
		if col.Name != tt.name {
			t.Errorf("column %d name = %q, want %q", i, col.Name, tt.name)
			continue
		}
		if col.NullCount != tt.nulls || col.NumericCount != tt.numeric || col.DateCount != tt.dates || col.StringCount != tt.strs {
			t.Errorf("%s: counts = %+v", tt.name, col)
		}
		if col.NonNullCount+col.NullCount != report.RowCount {
			t.Errorf("%s: null + non-null = %d, want %d", tt.name, col.NonNullCount+col.NullCount, report.RowCount)
		}
		if col.DistinctCount != tt.distinct {
			t.Errorf("%s: DistinctCount = %d, want %d", tt.name, col.DistinctCount, tt.distinct)
		}
		if col.InferredType != tt.inferred {
			t.Errorf("%s: InferredType = %q, want %q", tt.name, col.InferredType, tt.inferred)
		}
	}
}

func TestScan_SemicolonDelimiter(t *testing.T) {
	input := "age;job;y\n56;housemaid;no\n57;services;yes\n"
	report := Scan(context.Background(), strings.NewReader(input), "bank.csv", 0)
	if report.ColumnCount != 3 || report.RowCount != 2 {
		t.Fatalf("columns = %d, rows = %d", report.ColumnCount, report.RowCount)
	}
	if report.Columns[0].InferredType != models.ColumnNumeric {
		t.Errorf("age inferred as %q", report.Columns[0].InferredType)
	}
}

func TestScan_SampleLimit(t *testing.T) {
	var b strings.Builder
	b.WriteString("n\n")
	for i := range 50 {
		fmt.Fprintf(&b, "%d\n", i)
	}

	report := Scan(context.Background(), strings.NewReader(b.String()), "big.csv", 20)
	if report.RowCount != 50 {
		t.Errorf("RowCount = %d, want 50", report.RowCount)
	}
	col := report.Columns[0]
	if col.NonNullCount != 20 || col.DistinctCount != 20 {
		t.Errorf("analysed %d rows and %d distinct values, want 20", col.NonNullCount, col.DistinctCount)
	}
	if len(col.SampleValues) != 10 || len(report.SampleRecords) != 10 {
		t.Errorf("samples = %d values, %d records", len(col.SampleValues), len(report.SampleRecords))
	}
}

func TestScan_DistinctCap(t *testing.T) {
	var b strings.Builder
	b.WriteString("v\n")
	for i := range 1500 {
		fmt.Fprintf(&b, "v%d\n", i)
	}

	report := Scan(context.Background(), strings.NewReader(b.String()), "wide.csv", 0)
	if got := report.Columns[0].DistinctCount; got != 1000 {
		t.Errorf("DistinctCount = %d, want 1000", got)
	}
}

func TestScan_Empty(t *testing.T) {
	for _, input := range []string{"", "\n\n  \n"} {
		report := Scan(context.Background(), strings.NewReader(input), "empty.csv", 0)
		if report.Error == "" {
			t.Errorf("Scan(%q) reported no error", input)
		}
		if report.RowCount != 0 || len(report.Columns) != 0 {
			t.Errorf("Scan(%q) = %+v", input, report)
		}
	}
}

func TestScan_HeaderOnly(t *testing.T) {
	report := Scan(context.Background(), strings.NewReader("\ufeffa,b\n"), "h.csv", 0)
	if report.Error != "" || report.RowCount != 0 {
		t.Fatalf("report = %+v", report)
	}
	if report.Columns[0].Name != "a" {
		t.Errorf("BOM not stripped: %q", report.Columns[0].Name)
	}
	for _, col := range report.Columns {
		if col.InferredType != models.ColumnEmpty {
			t.Errorf("%s inferred as %q", col.Name, col.InferredType)
		}
	}
}

type failingReader struct{ after string }

func (r *failingReader) Read(p []byte) (int, error) {
	if r.after == "" {
		return 0, errors.New("disk on fire")
	}
	n := copy(p, r.after)
	r.after = r.after[n:]
	return n, nil
}

func TestScan_ReadError(t *testing.T) {
	report := Scan(context.Background(), &failingReader{after: "a,b\n1,2\n"}, "broken.csv", 0)
	if !strings.Contains(report.Error, "disk on fire") {
		t.Errorf("Error = %q", report.Error)
	}
	if report.ColumnCount != 2 {
		t.Errorf("ColumnCount = %d, want 2", report.ColumnCount)
	}
}

func TestScan_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	report := Scan(ctx, strings.NewReader("a\n1\n"), "c.csv", 0)
	if !strings.Contains(report.Error, context.Canceled.Error()) {
		t.Errorf("Error = %q", report.Error)
	}
}

func TestInferType(t *testing.T) {
	tests := []struct {
		col  models.ColumnStats
		want string
	}{
		{models.ColumnStats{}, models.ColumnEmpty},
		{models.ColumnStats{NonNullCount: 4, NumericCount: 2, DateCount: 2}, models.ColumnNumeric},
		{models.ColumnStats{NonNullCount: 4, NumericCount: 1, DateCount: 2, StringCount: 1}, models.ColumnDate},
		{models.ColumnStats{NonNullCount: 4, NumericCount: 1, DateCount: 1, StringCount: 2}, models.ColumnString},
		{models.ColumnStats{NonNullCount: 2, StringCount: 2}, models.ColumnString},
	}
	for _, tt := range tests {
		if got := InferType(&tt.col); got != tt.want {
			t.Errorf("InferType(%+v) = %q, want %q", tt.col, got, tt.want)
		}
	}
}

func BenchmarkScan(b *testing.B) {
	var sb strings.Builder
	sb.WriteString("age;job;marital;duration;y\n")
	for i := range 5000 {
		fmt.Fprintf(&sb, "%d;admin.;married;%d;no\n", 20+i%60, i)
	}
	input := sb.String()

	for b.Loop() {
		Scan(context.Background(), strings.NewReader(input), "bench.csv", 0)
	}
}
