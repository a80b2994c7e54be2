package monitor

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RyanBlaney/cepstral-monitor/pkg/audio/classify"
)

func TestCalculateStats(t *testing.T) {
	mc := NewMetricsCalculator(nil)

	// 1..20 out of order; calculateStats sorts internally
	data := make([]float64, 0, 20)
	for i := 20; i >= 1; i-- {
		data = append(data, float64(i))
	}

	stats := mc.calculateStats(3, data)
	require.NotNil(t, stats)

	assert.Equal(t, 3, stats.Index)
	assert.Equal(t, 20, stats.Count)
	assert.Equal(t, 1.0, stats.Min)
	assert.Equal(t, 20.0, stats.Max)
	assert.InDelta(t, 10.5, stats.Mean, 1e-9)
	// population standard deviation of 1..20 is sqrt((20^2-1)/12)
	assert.InDelta(t, math.Sqrt(33.25), stats.StdDev, 1e-9)
	assert.Equal(t, 10.0, stats.Median)
	assert.Equal(t, 19.0, stats.P95)
}

func TestCalculateStatsSingleValue(t *testing.T) {
	mc := NewMetricsCalculator(nil)

	stats := mc.calculateStats(0, []float64{3.5})

	assert.Equal(t, 1, stats.Count)
	assert.Equal(t, 3.5, stats.Min)
	assert.Equal(t, 3.5, stats.Max)
	assert.Equal(t, 3.5, stats.Mean)
	assert.Equal(t, 3.5, stats.Median)
	assert.Equal(t, 3.5, stats.P95)
	assert.Equal(t, 0.0, stats.StdDev)
}

func TestCalculateStatsEmpty(t *testing.T) {
	mc := NewMetricsCalculator(nil)

	stats := mc.calculateStats(7, nil)

	assert.Equal(t, 7, stats.Index)
	assert.Equal(t, 0, stats.Count)
	assert.Equal(t, 0.0, stats.Mean)
	assert.Equal(t, 0.0, stats.Min)
	assert.Equal(t, 0.0, stats.Max)
}

func TestCalculateStatsSanitizesNonFinite(t *testing.T) {
	mc := NewMetricsCalculator(nil)

	stats := mc.calculateStats(0, []float64{1, 2, math.Inf(1)})

	assert.Equal(t, 3, stats.Count)
	assert.Equal(t, 1.0, stats.Min)
	assert.Equal(t, 2.0, stats.Median)
	// the infinite sample poisons max, mean, p95, and stddev; all of them
	// must come back as zero instead of breaking JSON encoding
	assert.Equal(t, 0.0, stats.Max)
	assert.Equal(t, 0.0, stats.Mean)
	assert.Equal(t, 0.0, stats.P95)
	assert.Equal(t, 0.0, stats.StdDev)
}

func TestCalculateCoefficientMetrics(t *testing.T) {
	mc := NewMetricsCalculator(nil)

	observations := make([]Observation, 0, 10)
	for i := range 10 {
		observations = append(observations, Observation{
			Sequence:     uint64(i + 1),
			Coefficients: []float64{float64(i), 2 * float64(i), -1.0},
		})
	}

	metrics := mc.CalculateCoefficientMetrics(observations)
	require.NotNil(t, metrics)

	assert.Equal(t, 10, metrics.Observations)
	require.Len(t, metrics.Coefficients, 3)

	first := metrics.Coefficients[0]
	assert.Equal(t, 0, first.Index)
	assert.Equal(t, 10, first.Count)
	assert.Equal(t, 0.0, first.Min)
	assert.Equal(t, 9.0, first.Max)
	assert.InDelta(t, 4.5, first.Mean, 1e-9)
	assert.InDelta(t, math.Sqrt(8.25), first.StdDev, 1e-9)
	assert.Equal(t, 4.0, first.Median)
	assert.Equal(t, 9.0, first.P95)

	second := metrics.Coefficients[1]
	assert.InDelta(t, 9.0, second.Mean, 1e-9)
	assert.Equal(t, 18.0, second.Max)

	constant := metrics.Coefficients[2]
	assert.Equal(t, -1.0, constant.Min)
	assert.Equal(t, -1.0, constant.Max)
	assert.Equal(t, -1.0, constant.Median)
	assert.Equal(t, 0.0, constant.StdDev)
}

func TestCalculateCoefficientMetricsEmpty(t *testing.T) {
	mc := NewMetricsCalculator(nil)

	metrics := mc.CalculateCoefficientMetrics(nil)
	require.NotNil(t, metrics)

	assert.Equal(t, 0, metrics.Observations)
	assert.Empty(t, metrics.Coefficients)
}

func TestCalculateClassificationMetrics(t *testing.T) {
	mc := NewMetricsCalculator(nil)

	var observations []Observation
	for range 6 {
		observations = append(observations, Observation{
			Classification: &classify.Classification{Index: 0, Label: "speech", Confidence: 0.9},
		})
	}
	for range 2 {
		observations = append(observations, Observation{
			Classification: &classify.Classification{Index: 1, Label: "music", Confidence: 0.8},
		})
	}
	for range 2 {
		observations = append(observations, Observation{})
	}

	metrics := mc.CalculateClassificationMetrics(observations)
	require.NotNil(t, metrics)

	assert.Equal(t, 8, metrics.ClassifiedCount)
	assert.InDelta(t, 0.8, metrics.ClassificationRate, 1e-9)
	assert.Equal(t, map[string]int{"speech": 6, "music": 2}, metrics.Tally)
	assert.Equal(t, "speech", metrics.DominantLabel)
	assert.InDelta(t, 0.75, metrics.DominantShare, 1e-9)
	assert.InDelta(t, 0.875, metrics.MeanConfidence, 1e-9)
}

func TestCalculateClassificationMetricsTieBreaksByLabel(t *testing.T) {
	mc := NewMetricsCalculator(nil)

	observations := []Observation{
		{Classification: &classify.Classification{Label: "speech", Confidence: 1}},
		{Classification: &classify.Classification{Label: "music", Confidence: 1}},
		{Classification: &classify.Classification{Label: "speech", Confidence: 1}},
		{Classification: &classify.Classification{Label: "music", Confidence: 1}},
	}

	metrics := mc.CalculateClassificationMetrics(observations)

	assert.Equal(t, "music", metrics.DominantLabel)
	assert.InDelta(t, 0.5, metrics.DominantShare, 1e-9)
}

func TestCalculateClassificationMetricsEmpty(t *testing.T) {
	mc := NewMetricsCalculator(nil)

	metrics := mc.CalculateClassificationMetrics(nil)
	require.NotNil(t, metrics)

	assert.Equal(t, 0, metrics.ClassifiedCount)
	assert.Equal(t, 0.0, metrics.ClassificationRate)
	assert.Empty(t, metrics.Tally)
	assert.Empty(t, metrics.DominantLabel)
}

func TestCalculateSessionMetrics(t *testing.T) {
	mc := NewMetricsCalculator(nil)

	summary := &SessionSummary{
		Observations: []Observation{
			{
				Coefficients:   []float64{1, 2},
				Classification: &classify.Classification{Label: "speech", Confidence: 0.7},
			},
			{
				Coefficients: []float64{3, 4},
			},
		},
	}

	metrics := mc.CalculateSessionMetrics(summary)
	require.NotNil(t, metrics)
	require.NotNil(t, metrics.Coefficients)
	require.NotNil(t, metrics.Classification)

	assert.Equal(t, 2, metrics.Coefficients.Observations)
	require.Len(t, metrics.Coefficients.Coefficients, 2)
	assert.InDelta(t, 2.0, metrics.Coefficients.Coefficients[0].Mean, 1e-9)
	assert.Equal(t, 1, metrics.Classification.ClassifiedCount)
	assert.Equal(t, "speech", metrics.Classification.DominantLabel)
}
