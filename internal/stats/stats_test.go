package stats

import (
	"math"
	"testing"
)

func TestPercentile(t *testing.T) {
	tests := []struct {
		name   string
		values []int
		p      float64
		want   float64
	}{
		{"median even", []int{10, 20, 30, 40}, 50, 25},
		{"q1 even", []int{10, 20, 30, 40}, 25, 17.5},
		{"q3 even", []int{10, 20, 30, 40}, 75, 32.5},
		{"empty", nil, 50, 0},
		{"single p0", []int{5}, 0, 5},
		{"single p100", []int{5}, 100, 5},
		{"exact rank", []int{100, 200, 300, 400, 500}, 25, 200},
		{"min", []int{3, 7, 9}, 0, 3},
		{"max", []int{3, 7, 9}, 100, 9},
		{"duplicates", []int{1, 1, 1, 1}, 60, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Percentile(tt.values, tt.p); got != tt.want {
				t.Errorf("Percentile(%v, %v) = %v, want %v", tt.values, tt.p, got, tt.want)
			}
		})
	}
}

func TestPercentile_DoesNotSort(t *testing.T) {
	values := []int{40, 10, 30, 20}
	Percentile(values, 50)
	if values[0] != 40 || values[3] != 20 {
		t.Errorf("input was reordered: %v", values)
	}
}

func TestRoundTo(t *testing.T) {
	tests := []struct {
		x        float64
		decimals int
		want     float64
	}{
		{0.125, 2, 0.13},
		{-0.125, 2, -0.13},
		{2.5, 0, 3},
		{-2.5, 0, -3},
		{4.8571, 3, 4.857},
		{5191.5, 0, 5192},
		{5099.1, 0, 5099},
		{-1.8, 2, -1.8},
	}
	for _, tt := range tests {
		if got := RoundTo(tt.x, tt.decimals); got != tt.want {
			t.Errorf("RoundTo(%v, %d) = %v, want %v", tt.x, tt.decimals, got, tt.want)
		}
	}
}

func TestRate(t *testing.T) {
	tests := []struct {
		converted, total int
		want             float64
	}{
		{0, 0, 0},
		{2, 4, 50},
		{1, 3, 33.33},
		{2, 3, 66.67},
		{5, 5, 100},
	}
	for _, tt := range tests {
		got := Rate(tt.converted, tt.total)
		if math.IsNaN(got) || got != tt.want {
			t.Errorf("Rate(%d, %d) = %v, want %v", tt.converted, tt.total, got, tt.want)
		}
	}
}

func TestMean(t *testing.T) {
	if got := Mean(0, 0); got != 0 {
		t.Errorf("Mean(0, 0) = %v, want 0", got)
	}
	if got := Mean(1000, 3); got != 333.33 {
		t.Errorf("Mean(1000, 3) = %v, want 333.33", got)
	}
}

func BenchmarkPercentile(b *testing.B) {
	values := make([]int, 10000)
	for i := range values {
		values[i] = i
	}
	for b.Loop() {
		Percentile(values, 75)
	}
}
