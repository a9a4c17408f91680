package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"campaign-dashboard/internal/models"
	"campaign-dashboard/internal/quality"
)

const maxSampleColumn = 3

func newScanCommand(a *app) *cobra.Command {
	var sampleRows int

	cmd := &cobra.Command{
		Use:   "scan FILE",
		Short: "Print a data quality report for a CSV file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			file, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("open %s: %w", args[0], err)
			}
			defer file.Close()

			report := quality.Scan(cmd.Context(), file, filepath.Base(args[0]), sampleRows)
			a.logger.Debug("scan complete", "file", report.FileName, "rows", report.RowCount)
			if report.Error != "" {
				return fmt.Errorf("scan %s: %s", args[0], report.Error)
			}

			renderReport(cmd, report)
			return nil
		},
	}

	cmd.Flags().IntVar(&sampleRows, "sample-rows", quality.DefaultSampleRows, "number of rows to analyse")
	return cmd
}

func renderReport(cmd *cobra.Command, report *models.QualityReport) {
	overview := newTable(cmd, "Quality report: "+report.FileName)
	overview.AppendRows([]table.Row{
		{"Rows", report.RowCount},
		{"Columns", report.ColumnCount},
		{"Duplicate rows", report.DuplicateRows},
	})
	overview.Render()

	columns := newTable(cmd, "Columns")
	columns.AppendHeader(table.Row{"Name", "Type", "Nulls", "Non-null", "Numeric", "Date", "String", "Distinct", "Samples"})
	for _, col := range report.Columns {
		samples := col.SampleValues
		if len(samples) > maxSampleColumn {
			samples = samples[:maxSampleColumn]
		}
		columns.AppendRow(table.Row{
			col.Name, col.InferredType, col.NullCount, col.NonNullCount,
			col.NumericCount, col.DateCount, col.StringCount, col.DistinctCount,
			strings.Join(samples, ", "),
		})
	}
	columns.SetColumnConfigs([]table.ColumnConfig{
		{Number: 3, Align: text.AlignRight},
		{Number: 4, Align: text.AlignRight},
		{Number: 8, Align: text.AlignRight},
	})
	columns.Render()
}
