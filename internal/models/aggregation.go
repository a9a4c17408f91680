package models

// Chart names used as keys of AggregationResult.Charts.
const (
	ChartMonthConversion     = "month_conversion"
	ChartWeekdayConversion   = "weekday_conversion"
	ChartAgeBucketCounts     = "age_bucket_counts"
	ChartAgeBucketConversion = "age_bucket_conversion"
	ChartPdaysHistogram      = "pdays_histogram"
	ChartPreviousConversion  = "previous_conversion"
	ChartDurationBoxplot     = "duration_boxplot"
	ChartOutcomeStacked      = "outcome_stacked"
	ChartCampaignScatter     = "campaign_scatter"
	ChartTargetDistribution  = "target_distribution"
)

// SeriesKind tags the fixed shape of a chart series.
type SeriesKind string

const (
	KindCount   SeriesKind = "count"
	KindValue   SeriesKind = "value"
	KindStacked SeriesKind = "stacked"
	KindBoxplot SeriesKind = "boxplot"
	KindScatter SeriesKind = "scatter"
)

// ScatterMode says what the Y axis of scatter series holds.
type ScatterMode string

const (
	// ScatterRate plots the conversion rate percent of each group.
	ScatterRate ScatterMode = "rate"
	// ScatterCount plots the raw group size; used once the subscription
	// filter pins a single outcome and the rate would be constant.
	ScatterCount ScatterMode = "count"
)

type LabelCount struct {
	Label string `json:"label" db:"label"`
	Count int    `json:"count" db:"count"`
}

type LabelValue struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

type StackedPoint struct {
	Label string `json:"label"`
	Yes   int    `json:"yes"`
	No    int    `json:"no"`
}

type BoxplotPoint struct {
	Label  string  `json:"label"`
	Min    float64 `json:"min"`
	Q1     float64 `json:"q1"`
	Median float64 `json:"median"`
	Q3     float64 `json:"q3"`
	Max    float64 `json:"max"`
}

type ScatterPoint struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Total int     `json:"total"`
}

// Series is implemented by every chart series type so a presentation layer
// can switch on Kind without inspecting values.
type Series interface {
	Kind() SeriesKind
	Len() int
}

type CountSeries []LabelCount
type ValueSeries []LabelValue
type StackedSeries []StackedPoint
type BoxplotSeries []BoxplotPoint
type ScatterSeries []ScatterPoint

func (s CountSeries) Kind() SeriesKind   { return KindCount }
func (s ValueSeries) Kind() SeriesKind   { return KindValue }
func (s StackedSeries) Kind() SeriesKind { return KindStacked }
func (s BoxplotSeries) Kind() SeriesKind { return KindBoxplot }
func (s ScatterSeries) Kind() SeriesKind { return KindScatter }

func (s CountSeries) Len() int   { return len(s) }
func (s ValueSeries) Len() int   { return len(s) }
func (s StackedSeries) Len() int { return len(s) }
func (s BoxplotSeries) Len() int { return len(s) }
func (s ScatterSeries) Len() int { return len(s) }

type KPIs struct {
	TotalRecords   int     `json:"total_records"`
	ConvertedCount int     `json:"converted_count"`
	ConversionRate float64 `json:"conversion_rate"`
	AvgDuration    float64 `json:"avg_duration"`
}

// AggregationResult is the per-request bundle computed from a filtered record
// set. It is built fresh for every request and returned by value.
type AggregationResult struct {
	KPIs KPIs `json:"kpis"`

	// Groups holds categorical group counts keyed by filter field name.
	Groups map[string]CountSeries `json:"groups"`

	MonthConversion     ValueSeries   `json:"month_conversion"`
	WeekdayConversion   ValueSeries   `json:"weekday_conversion"`
	AgeBucketCounts     CountSeries   `json:"age_bucket_counts"`
	AgeBucketConversion ValueSeries   `json:"age_bucket_conversion"`
	PdaysHistogram      CountSeries   `json:"pdays_histogram"`
	PreviousConversion  ValueSeries   `json:"previous_conversion"`
	DurationBoxplot     BoxplotSeries `json:"duration_boxplot"`
	OutcomeStacked      StackedSeries `json:"outcome_stacked"`
	CampaignScatter     ScatterSeries `json:"campaign_scatter"`
	TargetDistribution  CountSeries   `json:"target_distribution"`

	// EconomicScatter is keyed by indicator name (empvarrate, conspriceidx, ...).
	EconomicScatter map[string]ScatterSeries `json:"economic_scatter"`
	ScatterMode     ScatterMode              `json:"scatter_mode"`
}

// Charts flattens the result into chart name -> series. Group counts are
// exposed as "group_<field>" and economic scatters as "scatter_<indicator>".
func (a AggregationResult) Charts() map[string]Series {
	charts := map[string]Series{
		ChartMonthConversion:     a.MonthConversion,
		ChartWeekdayConversion:   a.WeekdayConversion,
		ChartAgeBucketCounts:     a.AgeBucketCounts,
		ChartAgeBucketConversion: a.AgeBucketConversion,
		ChartPdaysHistogram:      a.PdaysHistogram,
		ChartPreviousConversion:  a.PreviousConversion,
		ChartDurationBoxplot:     a.DurationBoxplot,
		ChartOutcomeStacked:      a.OutcomeStacked,
		ChartCampaignScatter:     a.CampaignScatter,
		ChartTargetDistribution:  a.TargetDistribution,
	}
	for field, series := range a.Groups {
		charts["group_"+field] = series
	}
	for indicator, series := range a.EconomicScatter {
		charts["scatter_"+indicator] = series
	}
	return charts
}
