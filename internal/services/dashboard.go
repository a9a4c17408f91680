// Package services runs filtered reads against the record source and turns
// them into dashboard results.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"campaign-dashboard/internal/aggregate"
	"campaign-dashboard/internal/cache"
	"campaign-dashboard/internal/filter"
	"campaign-dashboard/internal/models"
	"campaign-dashboard/internal/observability"
	"campaign-dashboard/internal/source"
	"campaign-dashboard/internal/stats"
)

const (
	defaultPageSize = 100
	cacheNamespace  = "agg"
)

type Options struct {
	PageSize           int
	AggregationWorkers int
}

// Dashboard is the filter engine of the application. It holds no per-request
// state and is safe for concurrent use.
type Dashboard struct {
	source   source.RecordSource
	engine   *aggregate.Engine
	cache    cache.Cache
	pageSize int
	logger   *slog.Logger
}

func NewDashboard(src source.RecordSource, c cache.Cache, opts Options, logger *slog.Logger) *Dashboard {
	if logger == nil {
		logger = slog.Default()
	}
	if c == nil {
		c = cache.Noop{}
	}
	if opts.PageSize <= 0 {
		opts.PageSize = defaultPageSize
	}
	return &Dashboard{
		source:   src,
		engine:   aggregate.NewEngine(opts.AggregationWorkers, logger),
		cache:    c,
		pageSize: opts.PageSize,
		logger:   logger.With("component", "dashboard"),
	}
}

func (d *Dashboard) PageSize() int { return d.pageSize }

func timed[T any](op string, fn func() (T, error)) (T, error) {
	start := time.Now()
	v, err := fn()
	observability.SourceQueryDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	return v, err
}

// cacheKey ties cached results to the loaded dataset so a reload never
// serves stale aggregates.
func (d *Dashboard) cacheKey(spec filter.Spec) string {
	info := d.source.Info()
	return cache.Key(cacheNamespace, info.Driver+"|"+strconv.FormatInt(info.LoadedAt.UnixNano(), 10)+"|"+spec.CacheKey())
}

// Aggregate computes the full result bundle for spec.
func (d *Dashboard) Aggregate(ctx context.Context, spec filter.Spec) (models.AggregationResult, error) {
	ctx, span := observability.StartSpan(ctx, "dashboard.aggregate")
	defer span.End(d.logger)

	key := d.cacheKey(spec)
	var cached models.AggregationResult
	hit, err := d.cache.Get(ctx, key, &cached)
	switch {
	case err != nil:
		observability.AggregationCacheTotal.WithLabelValues(observability.CacheError).Inc()
		d.logger.Warn("aggregation cache read failed", "error", err)
	case hit:
		observability.AggregationCacheTotal.WithLabelValues(observability.CacheHit).Inc()
		span.SetTag("cache", observability.CacheHit)
		return cached, nil
	default:
		observability.AggregationCacheTotal.WithLabelValues(observability.CacheMiss).Inc()
	}
	span.SetTag("cache", observability.CacheMiss)

	records, err := timed("filter", func() ([]models.CampaignRecord, error) {
		return d.source.Filter(ctx, spec)
	})
	if err != nil {
		span.SetError(err)
		return models.AggregationResult{}, fmt.Errorf("filter records: %w", err)
	}
	span.SetTag("records", strconv.Itoa(len(records)))

	start := time.Now()
	res, err := d.engine.Compute(ctx, records, spec.Subscription())
	if err != nil {
		span.SetError(err)
		return models.AggregationResult{}, fmt.Errorf("aggregate: %w", err)
	}
	observability.AggregationDuration.Observe(time.Since(start).Seconds())

	if err := d.cache.Set(ctx, key, res); err != nil {
		d.logger.Warn("aggregation cache write failed", "error", err)
	}
	return res, nil
}

// Summary computes the KPIs with count and average pushdown.
func (d *Dashboard) Summary(ctx context.Context, spec filter.Spec) (models.KPIs, error) {
	total, err := timed("count", func() (int, error) { return d.source.Count(ctx, spec) })
	if err != nil {
		return models.KPIs{}, fmt.Errorf("count records: %w", err)
	}

	converted := 0
	if yes, ok := spec.Converted(); ok && total > 0 {
		converted, err = timed("count", func() (int, error) { return d.source.Count(ctx, yes) })
		if err != nil {
			return models.KPIs{}, fmt.Errorf("count converted: %w", err)
		}
	}

	avg, err := timed("average", func() (float64, error) { return d.source.Average(ctx, spec, filter.Duration) })
	if err != nil {
		return models.KPIs{}, fmt.Errorf("average duration: %w", err)
	}

	return models.KPIs{
		TotalRecords:   total,
		ConvertedCount: converted,
		ConversionRate: stats.Rate(converted, total),
		AvgDuration:    stats.Round2(avg),
	}, nil
}

// Groups counts matching records per value of field.
func (d *Dashboard) Groups(ctx context.Context, spec filter.Spec, field filter.CategoricalField) (models.CountSeries, error) {
	groups, err := timed("count_by", func() (models.CountSeries, error) {
		return d.source.CountBy(ctx, spec, field)
	})
	if err != nil {
		return nil, fmt.Errorf("group by %s: %w", field, err)
	}
	return groups, nil
}

// Page returns one table page ordered by age. Pages below 1 read as page 1.
func (d *Dashboard) Page(ctx context.Context, spec filter.Spec, page int) (models.RecordPage, error) {
	page, _ = source.Offset(page, d.pageSize)

	type result struct {
		records []models.CampaignRecord
		total   int
	}
	res, err := timed("page", func() (result, error) {
		records, total, err := d.source.Page(ctx, spec, page, d.pageSize)
		return result{records, total}, err
	})
	if err != nil {
		return models.RecordPage{}, fmt.Errorf("page records: %w", err)
	}

	return models.RecordPage{
		Page:         page,
		PageSize:     d.pageSize,
		TotalPages:   (res.total + d.pageSize - 1) / d.pageSize,
		TotalRecords: res.total,
		Records:      res.records,
	}, nil
}

// Records returns every matching record for export.
func (d *Dashboard) Records(ctx context.Context, spec filter.Spec) ([]models.CampaignRecord, error) {
	records, err := timed("filter", func() ([]models.CampaignRecord, error) {
		return d.source.Filter(ctx, spec)
	})
	if err != nil {
		return nil, fmt.Errorf("filter records: %w", err)
	}
	return records, nil
}

func (d *Dashboard) Ping(ctx context.Context) error {
	return d.source.Ping(ctx)
}

// Stats reports the loaded dataset for monitoring.
func (d *Dashboard) Stats(ctx context.Context) map[string]any {
	info := d.source.Info()
	out := map[string]any{
		"driver":    info.Driver,
		"location":  info.Location,
		"loaded_at": info.LoadedAt,
		"page_size": d.pageSize,
	}
	if n, err := d.source.Len(ctx); err == nil {
		out["record_count"] = n
	} else {
		out["record_count_error"] = err.Error()
	}
	return out
}
