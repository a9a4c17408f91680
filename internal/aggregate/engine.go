// Package aggregate computes the dashboard statistics of a filtered record set.
package aggregate

import (
	"context"
	"log/slog"
	"time"

	"campaign-dashboard/internal/filter"
	"campaign-dashboard/internal/models"
	"golang.org/x/sync/errgroup"
)

const defaultWorkers = 4

// Engine runs the independent aggregation steps concurrently. It holds no
// mutable state and is safe for concurrent use.
type Engine struct {
	workers int
	logger  *slog.Logger
}

func NewEngine(workers int, logger *slog.Logger) *Engine {
	if workers <= 0 {
		workers = defaultWorkers
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		workers: workers,
		logger:  logger.With("component", "aggregate"),
	}
}

type step struct {
	name string
	run  func()
}

// Compute builds the full result for records. Steps that have not started
// are skipped once ctx is done, and no partial result is returned.
func (e *Engine) Compute(ctx context.Context, records []models.CampaignRecord, sub filter.SubscriptionFilter) (models.AggregationResult, error) {
	start := time.Now()
	mode := Mode(sub)

	res := models.AggregationResult{
		ScatterMode:     mode,
		Groups:          make(map[string]models.CountSeries, len(filter.CategoricalFields)),
		EconomicScatter: make(map[string]models.ScatterSeries, len(filter.EconomicIndicators)),
	}

	// Each step writes to its own field or its own preallocated slot.
	groups := make([]models.CountSeries, len(filter.CategoricalFields))
	economic := make([]models.ScatterSeries, len(filter.EconomicIndicators))

	steps := []step{
		{"kpis", func() { res.KPIs = KPIs(records) }},
		{"month", func() { res.MonthConversion = MonthConversion(records) }},
		{"weekday", func() { res.WeekdayConversion = WeekdayConversion(records) }},
		{"age", func() { res.AgeBucketCounts, res.AgeBucketConversion = AgeBuckets(records) }},
		{"pdays", func() { res.PdaysHistogram = PdaysHistogram(records) }},
		{"previous", func() { res.PreviousConversion = PreviousConversion(records) }},
		{"duration", func() { res.DurationBoxplot = DurationBoxplot(records) }},
		{"outcome", func() { res.OutcomeStacked = OutcomeStacked(records) }},
		{"campaign", func() { res.CampaignScatter = CampaignScatter(records, mode) }},
		{"target", func() { res.TargetDistribution = TargetDistribution(records) }},
	}
	for i, field := range filter.CategoricalFields {
		steps = append(steps, step{"group_" + string(field), func() { groups[i] = GroupCounts(records, field) }})
	}
	for i, field := range filter.EconomicIndicators {
		steps = append(steps, step{"scatter_" + string(field), func() { economic[i] = EconomicScatter(records, field, mode) }})
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)
	for _, s := range steps {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			s.run()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		e.logger.Debug("aggregation aborted", "error", err, "records", len(records))
		return models.AggregationResult{}, err
	}
	// A cancel that lands after the last step still discards the result.
	if err := ctx.Err(); err != nil {
		return models.AggregationResult{}, err
	}

	for i, field := range filter.CategoricalFields {
		res.Groups[string(field)] = groups[i]
	}
	for i, field := range filter.EconomicIndicators {
		res.EconomicScatter[string(field)] = economic[i]
	}

	e.logger.Debug("aggregation complete",
		"records", len(records),
		"steps", len(steps),
		"duration", time.Since(start))
	return res, nil
}
