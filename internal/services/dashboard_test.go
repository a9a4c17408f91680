package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"testing"

	"campaign-dashboard/internal/filter"
	"campaign-dashboard/internal/models"
	"campaign-dashboard/internal/source"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func testRecords() []models.CampaignRecord {
	return []models.CampaignRecord{
		{Age: 25, Marital: "married", Job: "admin.", Month: "may", Duration: 100, Y: "yes"},
		{Age: 35, Marital: "married", Job: "technician", Month: "may", Duration: 250, Y: "no"},
		{Age: 55, Marital: "Married", Job: "admin.", Month: "jun", Duration: 333, Y: "yes"},
		{Age: 70, Marital: "single", Job: "retired", Month: "nov", Duration: 80, Y: "no"},
		{Age: 19, Marital: "single", Job: "student", Month: "nov", Duration: 17, Y: "no"},
	}
}

func newTestDashboard(t *testing.T, c *mapCache) *Dashboard {
	t.Helper()
	mem := source.NewMemory("", testLogger())
	mem.SetData(testRecords())
	if c == nil {
		return NewDashboard(mem, nil, Options{PageSize: 2}, testLogger())
	}
	return NewDashboard(mem, c, Options{PageSize: 2}, testLogger())
}

// mapCache is an in-process cache that counts lookups.
type mapCache struct {
	data       map[string][]byte
	hits, sets int
	failGet    bool
}

func newMapCache() *mapCache { return &mapCache{data: make(map[string][]byte)} }

func (c *mapCache) Get(_ context.Context, key string, dst any) (bool, error) {
	if c.failGet {
		return false, errors.New("cache down")
	}
	b, ok := c.data[key]
	if !ok {
		return false, nil
	}
	c.hits++
	return true, json.Unmarshal(b, dst)
}

func (c *mapCache) Set(_ context.Context, key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	c.sets++
	c.data[key] = b
	return nil
}

func (c *mapCache) Ping(context.Context) error { return nil }
func (c *mapCache) Close() error               { return nil }

func TestDashboard_Aggregate(t *testing.T) {
	d := newTestDashboard(t, nil)
	res, err := d.Aggregate(context.Background(), filter.Parse(url.Values{"marital": {"married"}}))
	if err != nil {
		t.Fatalf("Aggregate() error = %v", err)
	}
	if res.KPIs.TotalRecords != 3 || res.KPIs.ConvertedCount != 2 {
		t.Errorf("KPIs = %+v, want 3 total, 2 converted", res.KPIs)
	}
	if res.KPIs.ConversionRate != 66.67 {
		t.Errorf("rate = %v, want 66.67", res.KPIs.ConversionRate)
	}
	if len(res.MonthConversion) != 12 {
		t.Errorf("month series has %d entries", len(res.MonthConversion))
	}
}

func TestDashboard_AggregateCache(t *testing.T) {
	c := newMapCache()
	d := newTestDashboard(t, c)
	ctx := context.Background()
	spec := filter.Parse(url.Values{"job": {"admin."}})

	first, err := d.Aggregate(ctx, spec)
	if err != nil {
		t.Fatal(err)
	}
	second, err := d.Aggregate(ctx, filter.Parse(url.Values{"job": {" ADMIN. "}}))
	if err != nil {
		t.Fatal(err)
	}
	if c.sets != 1 || c.hits != 1 {
		t.Errorf("cache sets = %d, hits = %d; want 1, 1", c.sets, c.hits)
	}
	if first.KPIs != second.KPIs {
		t.Errorf("cached KPIs = %+v, want %+v", second.KPIs, first.KPIs)
	}
}

func TestDashboard_AggregateCacheFailureIsNotFatal(t *testing.T) {
	c := newMapCache()
	c.failGet = true
	d := newTestDashboard(t, c)

	res, err := d.Aggregate(context.Background(), filter.Spec{})
	if err != nil {
		t.Fatalf("Aggregate() error = %v", err)
	}
	if res.KPIs.TotalRecords != 5 {
		t.Errorf("total = %d, want 5", res.KPIs.TotalRecords)
	}
}

func TestDashboard_SummaryMatchesAggregate(t *testing.T) {
	d := newTestDashboard(t, nil)
	ctx := context.Background()

	for _, values := range []url.Values{
		{},
		{"marital": {"married"}},
		{"y": {"no"}},
		{"y": {"yes"}},
		{"job": {"nobody"}},
		{"age_min": {"30"}, "age_max": {"60"}},
	} {
		spec := filter.Parse(values)
		summary, err := d.Summary(ctx, spec)
		if err != nil {
			t.Fatal(err)
		}
		res, err := d.Aggregate(ctx, spec)
		if err != nil {
			t.Fatal(err)
		}
		if summary != res.KPIs {
			t.Errorf("%v: Summary() = %+v, Aggregate().KPIs = %+v", values, summary, res.KPIs)
		}
	}
}

func TestDashboard_Page(t *testing.T) {
	d := newTestDashboard(t, nil)
	ctx := context.Background()

	page, err := d.Page(ctx, filter.Spec{}, 1)
	if err != nil {
		t.Fatal(err)
	}
	if page.TotalRecords != 5 || page.TotalPages != 3 || page.PageSize != 2 {
		t.Errorf("page = %+v", page)
	}
	if len(page.Records) != 2 || page.Records[0].Age != 19 || page.Records[1].Age != 25 {
		t.Errorf("first page records = %+v", page.Records)
	}
	if page.HasPrev() || !page.HasNext() {
		t.Error("first page navigation flags are wrong")
	}

	clamped, err := d.Page(ctx, filter.Spec{}, -3)
	if err != nil {
		t.Fatal(err)
	}
	if clamped.Page != 1 {
		t.Errorf("page = %d, want 1", clamped.Page)
	}

	empty, err := d.Page(ctx, filter.Parse(url.Values{"job": {"nobody"}}), 1)
	if err != nil {
		t.Fatal(err)
	}
	if empty.TotalPages != 0 || len(empty.Records) != 0 {
		t.Errorf("empty page = %+v", empty)
	}
}

func TestDashboard_Groups(t *testing.T) {
	d := newTestDashboard(t, nil)
	groups, err := d.Groups(context.Background(), filter.Spec{}, filter.Marital)
	if err != nil {
		t.Fatal(err)
	}
	want := models.CountSeries{{Label: "married", Count: 2}, {Label: "Married", Count: 1}, {Label: "single", Count: 2}}
	if len(groups) != len(want) {
		t.Fatalf("groups = %v, want %v", groups, want)
	}
	for i := range want {
		if groups[i] != want[i] {
			t.Errorf("group %d = %+v, want %+v", i, groups[i], want[i])
		}
	}
}

func TestDashboard_Stats(t *testing.T) {
	d := newTestDashboard(t, nil)
	stats := d.Stats(context.Background())
	if stats["record_count"] != 5 || stats["driver"] != "csv" {
		t.Errorf("Stats() = %v", stats)
	}
}

// downSource fails every query the way an unreachable database does.
type downSource struct{ *source.Memory }

func (downSource) err(op string) error {
	return fmt.Errorf("%s: %w", op, source.ErrUnavailable)
}

func (s downSource) Filter(context.Context, filter.Spec) ([]models.CampaignRecord, error) {
	return nil, s.err("filter")
}

func (s downSource) Count(context.Context, filter.Spec) (int, error) {
	return 0, s.err("count")
}

func (s downSource) Page(context.Context, filter.Spec, int, int) ([]models.CampaignRecord, int, error) {
	return nil, 0, s.err("page")
}

func TestDashboard_SourceUnavailable(t *testing.T) {
	d := NewDashboard(downSource{source.NewMemory("", testLogger())}, nil, Options{}, testLogger())
	ctx := context.Background()

	if _, err := d.Aggregate(ctx, filter.Spec{}); !errors.Is(err, source.ErrUnavailable) {
		t.Errorf("Aggregate() error = %v, want ErrUnavailable", err)
	}
	if _, err := d.Summary(ctx, filter.Spec{}); !errors.Is(err, source.ErrUnavailable) {
		t.Errorf("Summary() error = %v, want ErrUnavailable", err)
	}
	if _, err := d.Page(ctx, filter.Spec{}, 1); !errors.Is(err, source.ErrUnavailable) {
		t.Errorf("Page() error = %v, want ErrUnavailable", err)
	}
	if _, err := d.Records(ctx, filter.Spec{}); !errors.Is(err, source.ErrUnavailable) {
		t.Errorf("Records() error = %v, want ErrUnavailable", err)
	}
}

func BenchmarkDashboard_Aggregate(b *testing.B) {
	var records []models.CampaignRecord
	for range 8000 {
		records = append(records, testRecords()...)
	}
	mem := source.NewMemory("", testLogger())
	mem.SetData(records)
	d := NewDashboard(mem, nil, Options{}, testLogger())
	spec := filter.Parse(url.Values{"marital": {"married"}})
	ctx := context.Background()

	for b.Loop() {
		if _, err := d.Aggregate(ctx, spec); err != nil {
			b.Fatal(err)
		}
	}
}
