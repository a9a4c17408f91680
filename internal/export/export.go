// Package export writes filtered campaign records as downloadable files.
package export

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"campaign-dashboard/internal/models"
)

const (
	CSVFileName  = "bankmarketing_export_filtered.csv"
	XLSXFileName = "bankmarketing_export_filtered.xlsx"

	CSVContentType  = "text/csv; charset=utf-8"
	XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

	SheetName = "Filtered Data"

	headerFill = "CB3CFF"
	utf8BOM    = "\ufeff"
)

// Header is the column order of both export formats.
var Header = []string{
	"Age", "Job", "Marital", "Education", "Default", "Housing", "Loan", "Contact",
	"Month", "DayOfWeek", "Duration", "Campaign", "Pdays", "Previous", "Poutcome",
	"EmpVarRate", "ConsPriceIdx", "ConsConfIdx", "Euribor3m", "NrEmployed", "Y",
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// row renders r as text cells in Header order.
func row(r models.CampaignRecord) []string {
	return []string{
		strconv.Itoa(r.Age), r.Job, r.Marital, r.Education, r.Default, r.Housing, r.Loan, r.Contact,
		r.Month, r.DayOfWeek, strconv.Itoa(r.Duration), strconv.Itoa(r.Campaign), strconv.Itoa(r.Pdays),
		strconv.Itoa(r.Previous), r.Poutcome,
		formatFloat(r.EmpVarRate), formatFloat(r.ConsPriceIdx), formatFloat(r.ConsConfIdx),
		formatFloat(r.Euribor3m), formatFloat(r.NrEmployed), r.Y,
	}
}

// cells renders r with native numeric types so spreadsheets keep them as numbers.
func cells(r models.CampaignRecord) []any {
	return []any{
		r.Age, r.Job, r.Marital, r.Education, r.Default, r.Housing, r.Loan, r.Contact,
		r.Month, r.DayOfWeek, r.Duration, r.Campaign, r.Pdays, r.Previous, r.Poutcome,
		r.EmpVarRate, r.ConsPriceIdx, r.ConsConfIdx, r.Euribor3m, r.NrEmployed, r.Y,
	}
}

func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// WriteCSV writes records as UTF-8 CSV with a byte order mark. The header is
// bare and every data value is double-quoted.
func WriteCSV(w io.Writer, records []models.CampaignRecord) error {
	bw := bufio.NewWriter(w)
	bw.WriteString(utf8BOM)
	bw.WriteString(strings.Join(Header, ","))
	bw.WriteString("\r\n")

	quoted := make([]string, len(Header))
	for _, r := range records {
		for i, v := range row(r) {
			quoted[i] = quote(v)
		}
		bw.WriteString(strings.Join(quoted, ","))
		bw.WriteString("\r\n")
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return nil
}

// WriteXLSX streams records into a single-sheet workbook with a styled header row.
func WriteXLSX(w io.Writer, records []models.CampaignRecord) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	style, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{headerFill}},
	})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}

	sw, err := f.NewStreamWriter(SheetName)
	if err != nil {
		return fmt.Errorf("stream writer: %w", err)
	}

	header := make([]any, len(Header))
	for i, h := range Header {
		header[i] = excelize.Cell{StyleID: style, Value: h}
	}
	if err := sw.SetRow("A1", header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i, r := range records {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := sw.SetRow(cell, cells(r)); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}
	if err := sw.Flush(); err != nil {
		return fmt.Errorf("flush sheet: %w", err)
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}
