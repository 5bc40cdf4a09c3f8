package drawdown

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSeries(t *testing.T) {
	got := Series([]float64{100, 110, 99, 121, 60.5})

	want := []float64{0, 0, -0.1, 0, -0.5}
	assert.InDeltaSlice(t, want, got, 1e-12)
}

func TestSeries_Empty(t *testing.T) {
	assert.Empty(t, Series(nil))
}

func TestMax(t *testing.T) {
	tests := []struct {
		name   string
		equity []float64
		want   float64
	}{
		{"empty", nil, 0},
		{"single point", []float64{100}, 0},
		{"non-decreasing", []float64{100, 100, 101, 105}, 0},
		{"one dip", []float64{100, 110, 99, 121}, -10},
		{"deepest wins", []float64{100, 90, 120, 60, 130}, -50},
		{"below zero", []float64{100, 50, -50}, -150},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Max(tt.equity), 1e-9)
		})
	}
}

func TestMax_NeverPositive(t *testing.T) {
	curves := [][]float64{
		{1, 2, 3},
		{3, 2, 1},
		{5, 1, 5, 1, 5},
	}
	for _, c := range curves {
		assert.LessOrEqual(t, Max(c), 0.0)
	}
}
