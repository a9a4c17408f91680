package aggregate

import (
	"cmp"
	"math"
	"slices"
	"strconv"
	"strings"

	"campaign-dashboard/internal/filter"
	"campaign-dashboard/internal/models"
	"campaign-dashboard/internal/stats"
)

var (
	monthCodes   = []string{"jan", "feb", "mar", "apr", "may", "jun", "jul", "aug", "sep", "oct", "nov", "dec"}
	weekdayCodes = []string{"mon", "tue", "wed", "thu", "fri"}
)

type bucket struct {
	label    string
	min, max int
}

var ageBuckets = []bucket{
	{"17-30", 17, 30},
	{"31-45", 31, 45},
	{"46-60", 46, 60},
	{"61-98", 61, 98},
}

var pdaysBuckets = []bucket{
	{"never", models.PdaysNever, models.PdaysNever},
	{"0-5", 0, 5},
	{"6-15", 6, 15},
	{"16-30", 16, 30},
	{"31+", 31, math.MaxInt},
}

// previousCap is the contact count from which previous contacts share a bucket.
const previousCap = 5

// indicatorPrecision is the number of decimals economic indicators are grouped by.
var indicatorPrecision = map[filter.NumericField]int{
	filter.EmpVarRate:   2,
	filter.ConsPriceIdx: 2,
	filter.ConsConfIdx:  2,
	filter.Euribor3m:    3,
	filter.NrEmployed:   0,
}

type tally struct {
	total, converted int
}

func (t *tally) add(r models.CampaignRecord) {
	t.total++
	if r.Subscribed() {
		t.converted++
	}
}

func (t tally) rate() float64 { return stats.Rate(t.converted, t.total) }

// KPIs computes the scalar summary of records.
func KPIs(records []models.CampaignRecord) models.KPIs {
	var t tally
	var duration float64
	for _, r := range records {
		t.add(r)
		duration += float64(r.Duration)
	}
	return models.KPIs{
		TotalRecords:   t.total,
		ConvertedCount: t.converted,
		ConversionRate: t.rate(),
		AvgDuration:    stats.Mean(duration, t.total),
	}
}

// GroupCounts counts records per raw field value in first-seen order. Blank
// values are reported as "Unknown".
func GroupCounts(records []models.CampaignRecord, field filter.CategoricalField) models.CountSeries {
	index := make(map[string]int)
	out := models.CountSeries{}
	for _, r := range records {
		label := field.Value(r)
		if strings.TrimSpace(label) == "" {
			label = "Unknown"
		}
		i, ok := index[label]
		if !ok {
			i = len(out)
			index[label] = i
			out = append(out, models.LabelCount{Label: label})
		}
		out[i].Count++
	}
	return out
}

// fixedRates emits one rate per canonical code, zero for codes without records.
func fixedRates(records []models.CampaignRecord, codes []string, value func(models.CampaignRecord) string) models.ValueSeries {
	groups := make(map[string]*tally, len(codes))
	for _, code := range codes {
		groups[code] = &tally{}
	}
	for _, r := range records {
		if t, ok := groups[models.Normalize(value(r))]; ok {
			t.add(r)
		}
	}
	out := make(models.ValueSeries, 0, len(codes))
	for _, code := range codes {
		out = append(out, models.LabelValue{Label: code, Value: groups[code].rate()})
	}
	return out
}

// MonthConversion always holds the twelve months in calendar order.
func MonthConversion(records []models.CampaignRecord) models.ValueSeries {
	return fixedRates(records, monthCodes, func(r models.CampaignRecord) string { return r.Month })
}

// WeekdayConversion always holds Monday to Friday.
func WeekdayConversion(records []models.CampaignRecord) models.ValueSeries {
	return fixedRates(records, weekdayCodes, func(r models.CampaignRecord) string { return r.DayOfWeek })
}

func bucketTallies(records []models.CampaignRecord, buckets []bucket, value func(models.CampaignRecord) int) []tally {
	out := make([]tally, len(buckets))
	for _, r := range records {
		v := value(r)
		for i, b := range buckets {
			if v >= b.min && v <= b.max {
				out[i].add(r)
				break
			}
		}
	}
	return out
}

// AgeBuckets returns record counts and conversion rates per age bucket.
// Ages outside every bucket are left out.
func AgeBuckets(records []models.CampaignRecord) (models.CountSeries, models.ValueSeries) {
	tallies := bucketTallies(records, ageBuckets, func(r models.CampaignRecord) int { return r.Age })
	counts := make(models.CountSeries, len(ageBuckets))
	rates := make(models.ValueSeries, len(ageBuckets))
	for i, b := range ageBuckets {
		counts[i] = models.LabelCount{Label: b.label, Count: tallies[i].total}
		rates[i] = models.LabelValue{Label: b.label, Value: tallies[i].rate()}
	}
	return counts, rates
}

// PdaysHistogram counts records per days-since-contact bucket.
func PdaysHistogram(records []models.CampaignRecord) models.CountSeries {
	tallies := bucketTallies(records, pdaysBuckets, func(r models.CampaignRecord) int { return r.Pdays })
	out := make(models.CountSeries, len(pdaysBuckets))
	for i, b := range pdaysBuckets {
		out[i] = models.LabelCount{Label: b.label, Count: tallies[i].total}
	}
	return out
}

// PreviousConversion groups by previous contact count, capped at 5+.
func PreviousConversion(records []models.CampaignRecord) models.ValueSeries {
	groups := make(map[int]*tally)
	for _, r := range records {
		key := min(r.Previous, previousCap)
		t, ok := groups[key]
		if !ok {
			t = &tally{}
			groups[key] = t
		}
		t.add(r)
	}
	keys := sortedKeys(groups)
	out := make(models.ValueSeries, 0, len(keys))
	for _, k := range keys {
		label := strconv.Itoa(k)
		if k == previousCap {
			label = strconv.Itoa(previousCap) + "+"
		}
		out = append(out, models.LabelValue{Label: label, Value: groups[k].rate()})
	}
	return out
}

func fiveNumber(label string, durations []int) models.BoxplotPoint {
	slices.Sort(durations)
	p := models.BoxplotPoint{Label: label}
	if len(durations) == 0 {
		return p
	}
	p.Min = float64(durations[0])
	p.Q1 = stats.Percentile(durations, 25)
	p.Median = stats.Percentile(durations, 50)
	p.Q3 = stats.Percentile(durations, 75)
	p.Max = float64(durations[len(durations)-1])
	return p
}

// DurationBoxplot summarizes call durations of subscribed and other records.
func DurationBoxplot(records []models.CampaignRecord) models.BoxplotSeries {
	var yes, no []int
	for _, r := range records {
		if r.Subscribed() {
			yes = append(yes, r.Duration)
		} else {
			no = append(no, r.Duration)
		}
	}
	return models.BoxplotSeries{fiveNumber("yes", yes), fiveNumber("no", no)}
}

// OutcomeStacked counts yes and no per previous outcome in first-seen order.
func OutcomeStacked(records []models.CampaignRecord) models.StackedSeries {
	index := make(map[string]int)
	out := models.StackedSeries{}
	for _, r := range records {
		label := r.Poutcome
		if strings.TrimSpace(label) == "" {
			label = "unknown"
		}
		i, ok := index[label]
		if !ok {
			i = len(out)
			index[label] = i
			out = append(out, models.StackedPoint{Label: label})
		}
		if r.Subscribed() {
			out[i].Yes++
		} else {
			out[i].No++
		}
	}
	return out
}

// Mode picks the scatter Y axis for a subscription filter.
func Mode(sub filter.SubscriptionFilter) models.ScatterMode {
	if sub == filter.SubscriptionNone {
		return models.ScatterRate
	}
	return models.ScatterCount
}

func scatter[K cmp.Ordered](groups map[K]*tally, x func(K) float64, mode models.ScatterMode) models.ScatterSeries {
	keys := sortedKeys(groups)
	out := make(models.ScatterSeries, 0, len(keys))
	for _, k := range keys {
		t, ok := groups[k]
		if !ok {
			continue
		}
		y := t.rate()
		if mode == models.ScatterCount {
			y = float64(t.total)
		}
		out = append(out, models.ScatterPoint{X: x(k), Y: y, Total: t.total})
	}
	return out
}

// CampaignScatter groups by campaign contact count ascending.
func CampaignScatter(records []models.CampaignRecord, mode models.ScatterMode) models.ScatterSeries {
	groups := make(map[int]*tally)
	for _, r := range records {
		t, ok := groups[r.Campaign]
		if !ok {
			t = &tally{}
			groups[r.Campaign] = t
		}
		t.add(r)
	}
	return scatter(groups, func(k int) float64 { return float64(k) }, mode)
}

// EconomicScatter groups by an economic indicator rounded to its precision.
// Records with a NaN or infinite indicator are left out.
func EconomicScatter(records []models.CampaignRecord, field filter.NumericField, mode models.ScatterMode) models.ScatterSeries {
	decimals := indicatorPrecision[field]
	groups := make(map[float64]*tally)
	for _, r := range records {
		key := stats.RoundTo(field.Value(r), decimals)
		if math.IsNaN(key) || math.IsInf(key, 0) {
			continue
		}
		t, ok := groups[key]
		if !ok {
			t = &tally{}
			groups[key] = t
		}
		t.add(r)
	}
	return scatter(groups, func(k float64) float64 { return k }, mode)
}

// TargetDistribution is the yes/no split of records.
func TargetDistribution(records []models.CampaignRecord) models.CountSeries {
	k := KPIs(records)
	return models.CountSeries{
		{Label: "yes", Count: k.ConvertedCount},
		{Label: "no", Count: k.TotalRecords - k.ConvertedCount},
	}
}

func sortedKeys[K cmp.Ordered, V any](m map[K]V) []K {
	keys := make([]K, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
