package filter

import (
	"context"
	"net/url"
	"testing"

	"campaign-dashboard/internal/models"
)

func sampleRecords() []models.CampaignRecord {
	return []models.CampaignRecord{
		{Age: 25, Job: "admin.", Marital: "married", Duration: 100, Pdays: models.PdaysNever, Y: "yes"},
		{Age: 35, Job: "Blue-Collar", Marital: "Married ", Duration: 200, Pdays: 3, Y: "no"},
		{Age: 55, Job: "technician", Marital: "married", Duration: 300, Pdays: 0, Y: " YES"},
		{Age: 70, Job: "admin.", Marital: "single", Duration: 400, Pdays: 10, Y: "no"},
		{Age: 41, Job: "blue-collar", Marital: "single", Duration: 0, Pdays: models.PdaysNever, Y: "unknown"},
	}
}

func filterAll(t *testing.T, values url.Values) []models.CampaignRecord {
	t.Helper()
	out, err := Apply(context.Background(), sampleRecords(), Parse(values).Predicate())
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	return out
}

func ages(records []models.CampaignRecord) []int {
	out := make([]int, len(records))
	for i, r := range records {
		out[i] = r.Age
	}
	return out
}

func TestMatches(t *testing.T) {
	tests := []struct {
		name   string
		values url.Values
		want   []int
	}{
		{"no filter", url.Values{}, []int{25, 35, 55, 70, 41}},
		{"and across, or within", url.Values{"marital": {"married"}, "job": {"admin.", "blue-collar"}}, []int{25, 35}},
		{"exact match only", url.Values{"job": {"admin"}}, nil},
		{"subscribed yes", url.Values{"y": {"yes"}}, []int{25, 55}},
		{"subscribed no excludes other values", url.Values{"y": {"no"}}, []int{35, 70}},
		{"age range", url.Values{"age_min": {"30"}, "age_max": {"55"}}, []int{35, 55, 41}},
		{"zero max honored", url.Values{"duration_max": {"0"}}, []int{41}},
		{"never contacted", url.Values{"pdays_max": {"-1"}}, []int{25, 41}},
		{"pdays max includes never contacted", url.Values{"pdays_max": {"5"}}, []int{25, 35, 55, 41}},
		{"pdays min excludes never contacted", url.Values{"pdays_min": {"1"}}, []int{35, 70}},
		{"contacted within five days", url.Values{"pdays_min": {"1"}, "pdays_max": {"5"}}, []int{35}},
		{"zero min ignored", url.Values{"pdays_min": {"0"}}, []int{25, 35, 55, 70, 41}},
		{"malformed ignored", url.Values{"age_min": {"old"}}, []int{25, 35, 55, 70, 41}},
		{"empty result", url.Values{"marital": {"divorced"}}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ages(filterAll(t, tt.values))
			if len(got) != len(tt.want) {
				t.Fatalf("ages = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Fatalf("ages = %v, want %v", got, tt.want)
				}
			}
		})
	}
}

func TestApply_Idempotent(t *testing.T) {
	records := sampleRecords()
	pred := Parse(url.Values{"marital": {"married"}}).Predicate()

	first, _ := Apply(context.Background(), records, pred)
	second, _ := Apply(context.Background(), records, pred)
	if len(first) != len(second) {
		t.Fatalf("lengths differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("record %d differs", i)
		}
	}
	if records[1].Marital != "Married " {
		t.Error("input records were modified")
	}
}

func TestApply_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Apply(ctx, sampleRecords(), All()); err != context.Canceled {
		t.Errorf("Apply() error = %v, want context.Canceled", err)
	}
}

func TestSpec_MatchesEqualsPredicate(t *testing.T) {
	spec := Parse(url.Values{"job": {"admin."}, "age_max": {"30"}})
	for _, r := range sampleRecords() {
		if spec.Matches(r) != spec.Predicate()(r) {
			t.Errorf("Matches and Predicate disagree for %+v", r)
		}
	}
}

func BenchmarkApply(b *testing.B) {
	records := make([]models.CampaignRecord, 0, 40000)
	for range 8000 {
		records = append(records, sampleRecords()...)
	}
	pred := Parse(url.Values{"marital": {"married"}, "job": {"admin.", "blue-collar"}, "age_min": {"20"}}).Predicate()
	ctx := context.Background()

	for b.Loop() {
		if _, err := Apply(ctx, records, pred); err != nil {
			b.Fatal(err)
		}
	}
}
