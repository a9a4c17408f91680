package export

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"campaign-dashboard/internal/models"
)

func sampleRecords() []models.CampaignRecord {
	return []models.CampaignRecord{
		{
			Age: 56, Job: "housemaid", Marital: "married", Education: "basic.4y", Default: "no",
			Housing: "no", Loan: "no", Contact: "telephone", Month: "may", DayOfWeek: "mon",
			Duration: 261, Campaign: 1, Pdays: models.PdaysNever, Previous: 0, Poutcome: "nonexistent",
			EmpVarRate: 1.1, ConsPriceIdx: 93.994, ConsConfIdx: -36.4, Euribor3m: 4.857, NrEmployed: 5191, Y: "no",
		},
		{
			Age: 41, Job: `blue "collar"`, Marital: "single", Education: "unknown", Default: "unknown",
			Duration: 10, Campaign: 3, Pdays: 6, Previous: 2, Poutcome: "success", NrEmployed: 5099.1, Y: "yes",
		},
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, sampleRecords()); err != nil {
		t.Fatalf("WriteCSV() error = %v", err)
	}

	out := buf.String()
	if !strings.HasPrefix(out, "\ufeffAge,Job,Marital,") {
		t.Fatalf("missing BOM or header: %q", out[:20])
	}
	if !strings.Contains(out, `"blue ""collar"""`) {
		t.Error("embedded quotes were not doubled")
	}
	if !strings.Contains(out, `"56","housemaid","married"`) {
		t.Error("data values are not quoted")
	}

	rows, err := csv.NewReader(strings.NewReader(strings.TrimPrefix(out, "\ufeff"))).ReadAll()
	if err != nil {
		t.Fatalf("output is not valid csv: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("got %d rows, want 3", len(rows))
	}
	if strings.Join(rows[0], ",") != strings.Join(Header, ",") {
		t.Errorf("header = %v", rows[0])
	}

	want := []string{
		"56", "housemaid", "married", "basic.4y", "no", "no", "no", "telephone", "may", "mon",
		"261", "1", "-1", "0", "nonexistent", "1.1", "93.994", "-36.4", "4.857", "5191", "no",
	}
	for i := range want {
		if rows[1][i] != want[i] {
			t.Errorf("column %s = %q, want %q", Header[i], rows[1][i], want[i])
		}
	}
	if rows[2][1] != `blue "collar"` || rows[2][19] != "5099.1" {
		t.Errorf("second row = %v", rows[2])
	}
}

func TestWriteCSV_Empty(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, nil); err != nil {
		t.Fatal(err)
	}
	if buf.String() != "\ufeff"+strings.Join(Header, ",")+"\r\n" {
		t.Errorf("empty export = %q", buf.String())
	}
}

func TestWriteXLSX(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteXLSX(&buf, sampleRecords()); err != nil {
		t.Fatalf("WriteXLSX() error = %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("OpenReader() error = %v", err)
	}
	defer f.Close()

	if sheets := f.GetSheetList(); len(sheets) != 1 || sheets[0] != SheetName {
		t.Fatalf("sheets = %v, want [%s]", sheets, SheetName)
	}

	rows, err := f.GetRows(SheetName)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 3 {
		t.Fatalf("got %d rows, want 3", len(rows))
	}
	if rows[0][0] != "Age" || rows[0][20] != "Y" {
		t.Errorf("header = %v", rows[0])
	}
	if rows[1][0] != "56" || rows[1][1] != "housemaid" || rows[1][12] != "-1" || rows[1][20] != "no" {
		t.Errorf("first data row = %v", rows[1])
	}
	if rows[2][1] != `blue "collar"` {
		t.Errorf("job = %q", rows[2][1])
	}

	styleID, err := f.GetCellStyle(SheetName, "A1")
	if err != nil {
		t.Fatal(err)
	}
	style, err := f.GetStyle(styleID)
	if err != nil {
		t.Fatal(err)
	}
	if style.Font == nil || !style.Font.Bold {
		t.Error("header cell is not bold")
	}
}

func BenchmarkWriteCSV(b *testing.B) {
	var records []models.CampaignRecord
	for range 5000 {
		records = append(records, sampleRecords()...)
	}
	var buf bytes.Buffer

	for b.Loop() {
		buf.Reset()
		if err := WriteCSV(&buf, records); err != nil {
			b.Fatal(err)
		}
	}
}
