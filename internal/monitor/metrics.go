package monitor

import (
	"math"
	"sort"

	"github.com/RyanBlaney/latency-benchmark-common/logging"
	"gonum.org/v1/gonum/stat"
)

// MetricsCalculator handles calculation of session statistics
type MetricsCalculator struct {
	logger logging.Logger
}

// NewMetricsCalculator creates a new metrics calculator
func NewMetricsCalculator(logger logging.Logger) *MetricsCalculator {
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}

	return &MetricsCalculator{
		logger: logger,
	}
}

// CoefficientStats represents statistical measures of one cepstral
// coefficient across a session
type CoefficientStats struct {
	Index  int     `json:"index"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	P95    float64 `json:"p95"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	StdDev float64 `json:"std_dev"`
	Count  int     `json:"count"`
}

// CoefficientMetrics represents the per-coefficient statistical view of a
// completed session
type CoefficientMetrics struct {
	Coefficients []*CoefficientStats `json:"coefficients"`
	Observations int                 `json:"observations"`
}

// ClassificationMetrics represents how classified observations were
// distributed across labels
type ClassificationMetrics struct {
	Tally              map[string]int `json:"tally"`
	ClassifiedCount    int            `json:"classified_count"`
	ClassificationRate float64        `json:"classification_rate"`
	DominantLabel      string         `json:"dominant_label,omitempty"`
	DominantShare      float64        `json:"dominant_share"`
	MeanConfidence     float64        `json:"mean_confidence"`
}

// SessionMetrics represents the complete statistical analysis of a session
type SessionMetrics struct {
	Coefficients   *CoefficientMetrics    `json:"coefficients"`
	Classification *ClassificationMetrics `json:"classification"`
}

// CalculateSessionMetrics calculates all metric groups for a completed
// session
func (mc *MetricsCalculator) CalculateSessionMetrics(summary *SessionSummary) *SessionMetrics {
	return &SessionMetrics{
		Coefficients:   mc.CalculateCoefficientMetrics(summary.Observations),
		Classification: mc.CalculateClassificationMetrics(summary.Observations),
	}
}

// CalculateCoefficientMetrics calculates detailed per-coefficient statistics
func (mc *MetricsCalculator) CalculateCoefficientMetrics(observations []Observation) *CoefficientMetrics {
	metrics := &CoefficientMetrics{
		Observations: len(observations),
	}

	if len(observations) == 0 {
		return metrics
	}

	// Collect each coefficient's series across the session. The vector
	// width is fixed for a session, so the first observation sizes the
	// series.
	width := len(observations[0].Coefficients)
	series := make([][]float64, width)

	for _, observation := range observations {
		for i, value := range observation.Coefficients {
			if i < width {
				series[i] = append(series[i], value)
			}
		}
	}

	metrics.Coefficients = make([]*CoefficientStats, width)
	for i, data := range series {
		metrics.Coefficients[i] = mc.calculateStats(i, data)
	}

	return metrics
}

// CalculateClassificationMetrics calculates the label distribution across
// classified observations
func (mc *MetricsCalculator) CalculateClassificationMetrics(observations []Observation) *ClassificationMetrics {
	tally := make(map[string]int)
	classified := 0
	totalConfidence := 0.0

	for _, observation := range observations {
		if observation.Classification == nil {
			continue
		}

		classified++
		tally[observation.Classification.Label]++
		totalConfidence += observation.Classification.Confidence
	}

	metrics := &ClassificationMetrics{
		Tally:           tally,
		ClassifiedCount: classified,
	}

	if len(observations) > 0 {
		metrics.ClassificationRate = float64(classified) / float64(len(observations))
	}

	if classified > 0 {
		metrics.MeanConfidence = totalConfidence / float64(classified)

		dominantLabel := ""
		dominantCount := 0
		for label, count := range tally {
			if count > dominantCount || (count == dominantCount && label < dominantLabel) {
				dominantLabel = label
				dominantCount = count
			}
		}
		metrics.DominantLabel = dominantLabel
		metrics.DominantShare = float64(dominantCount) / float64(classified)
	}

	return metrics
}

// calculateStats calculates statistical measures for one coefficient series
func (mc *MetricsCalculator) calculateStats(index int, data []float64) *CoefficientStats {
	if len(data) == 0 {
		return &CoefficientStats{Index: index, Count: 0}
	}

	// Quantile requires sorted input
	sortedData := make([]float64, len(data))
	copy(sortedData, data)
	sort.Float64s(sortedData)

	stats := &CoefficientStats{
		Index:  index,
		Count:  len(data),
		Min:    sortedData[0],
		Max:    sortedData[len(sortedData)-1],
		Mean:   stat.Mean(sortedData, nil),
		StdDev: stat.PopStdDev(sortedData, nil),
		Median: stat.Quantile(0.50, stat.Empirical, sortedData, nil),
		P95:    stat.Quantile(0.95, stat.Empirical, sortedData, nil),
	}

	// Clean up any infinite or NaN values for JSON serialization
	stats = mc.sanitizeStats(stats)

	return stats
}

// sanitizeStats removes infinite and NaN values to prevent JSON
// serialization errors
func (mc *MetricsCalculator) sanitizeStats(stats *CoefficientStats) *CoefficientStats {
	if math.IsInf(stats.Mean, 0) || math.IsNaN(stats.Mean) {
		stats.Mean = 0
	}
	if math.IsInf(stats.Median, 0) || math.IsNaN(stats.Median) {
		stats.Median = 0
	}
	if math.IsInf(stats.P95, 0) || math.IsNaN(stats.P95) {
		stats.P95 = 0
	}
	if math.IsInf(stats.Min, 0) || math.IsNaN(stats.Min) {
		stats.Min = 0
	}
	if math.IsInf(stats.Max, 0) || math.IsNaN(stats.Max) {
		stats.Max = 0
	}
	if math.IsInf(stats.StdDev, 0) || math.IsNaN(stats.StdDev) {
		stats.StdDev = 0
	}

	return stats
}
