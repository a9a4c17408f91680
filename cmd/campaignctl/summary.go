package main

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"campaign-dashboard/internal/filter"
	"campaign-dashboard/internal/models"
	"campaign-dashboard/internal/services"
	"campaign-dashboard/internal/source"
)

func newSummaryCommand(a *app) *cobra.Command {
	var (
		csvFile       string
		filters       []string
		strictZeroMin bool
	)

	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Print campaign KPIs and conversion by month and weekday",
		Example: `  campaignctl summary --csv bank-additional-full.csv
  campaignctl summary --csv data.csv --filter marital=married --filter age_min=30`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			values, err := parseFilters(filters)
			if err != nil {
				return err
			}
			spec := filter.ParseWith(values, filter.Options{StrictZeroMin: strictZeroMin})

			mem := source.NewMemory("", a.logger)
			if err := mem.LoadFromCSV(cmd.Context(), csvFile); err != nil {
				return fmt.Errorf("load %s: %w", csvFile, err)
			}

			dashboard := services.NewDashboard(mem, nil, services.Options{}, a.logger)
			result, err := dashboard.Aggregate(cmd.Context(), spec)
			if err != nil {
				return fmt.Errorf("aggregate: %w", err)
			}

			renderSummary(cmd, result)
			return nil
		},
	}

	cmd.Flags().StringVar(&csvFile, "csv", "", "campaign CSV file")
	cmd.Flags().StringArrayVar(&filters, "filter", nil, "filter as key=value, repeatable")
	cmd.Flags().BoolVar(&strictZeroMin, "strict-zero-min", false, "honor a minimum of exactly zero")
	_ = cmd.MarkFlagRequired("csv")

	return cmd
}

// parseFilters turns key=value pairs into query values. Repeated keys
// accumulate like repeated query parameters.
func parseFilters(pairs []string) (url.Values, error) {
	values := url.Values{}
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid filter %q, want key=value", pair)
		}
		values.Add(key, value)
	}
	return values, nil
}

func renderSummary(cmd *cobra.Command, result models.AggregationResult) {
	kpis := newTable(cmd, "KPIs")
	kpis.AppendRows([]table.Row{
		{"Total records", result.KPIs.TotalRecords},
		{"Subscribed", result.KPIs.ConvertedCount},
		{"Conversion rate", fmt.Sprintf("%.2f%%", result.KPIs.ConversionRate)},
		{"Avg. call duration", fmt.Sprintf("%.2fs", result.KPIs.AvgDuration)},
	})
	kpis.Render()

	renderRates(cmd, "Conversion by month", "Month", result.MonthConversion)
	renderRates(cmd, "Conversion by weekday", "Day", result.WeekdayConversion)
}

func renderRates(cmd *cobra.Command, title, label string, series models.ValueSeries) {
	t := newTable(cmd, title)
	t.AppendHeader(table.Row{label, "Rate"})
	for _, point := range series {
		t.AppendRow(table.Row{point.Label, fmt.Sprintf("%.2f%%", point.Value)})
	}
	t.Render()
}
