package app

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RyanBlaney/cepstral-monitor/configs"
	"github.com/RyanBlaney/cepstral-monitor/internal/extraction"
	"github.com/RyanBlaney/cepstral-monitor/internal/monitor"
	"github.com/RyanBlaney/cepstral-monitor/pkg/audio/capture"
)

func testSummary() *monitor.SessionSummary {
	start := time.Now().Add(-30 * time.Second)
	return &monitor.SessionSummary{
		StartTime:     start,
		EndTime:       start.Add(30 * time.Second),
		TotalDuration: 30 * time.Second,
		Source: capture.SourceMetadata{
			Type:       capture.SourceTypeSynthetic,
			SampleRate: 8000,
			FFTSize:    256,
			HopSize:    128,
		},
		FramesProcessed:  15,
		TicksSkipped:     1,
		ClassifierErrors: 2,
		LastError:        "classifier rejected vector",
		Observations: []monitor.Observation{
			{Sequence: 1, Coefficients: []float64{-512.3, 4.2}},
			{Sequence: 2, Coefficients: []float64{-510.8, 4.4}},
		},
	}
}

func TestCleanSessionSummary(t *testing.T) {
	summary := testSummary()

	clean := cleanSessionSummary(summary, false)

	assert.Equal(t, 30.0, clean["total_duration"])
	assert.Equal(t, uint64(15), clean["frames_processed"])
	assert.Equal(t, uint64(1), clean["ticks_skipped"])
	assert.Equal(t, uint64(2), clean["classifier_errors"])
	assert.Equal(t, 2, clean["observation_count"])
	assert.Equal(t, "classifier rejected vector", clean["last_error"])

	source, ok := clean["source"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, capture.SourceTypeSynthetic, source["type"])
	assert.Equal(t, 8000, source["sample_rate"])

	// Per-tick observations stay out of the default output
	_, hasObservations := clean["observations"]
	assert.False(t, hasObservations)
	_, hasMetrics := clean["metrics"]
	assert.False(t, hasMetrics)
}

func TestCleanSessionSummaryWithObservations(t *testing.T) {
	summary := testSummary()
	summary.Metrics = monitor.NewMetricsCalculator(nil).CalculateSessionMetrics(summary)

	clean := cleanSessionSummary(summary, true)

	observations, ok := clean["observations"].([]any)
	require.True(t, ok)
	require.Len(t, observations, 2)

	first, ok := observations[0].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, uint64(1), first["sequence"])
	assert.Equal(t, []float64{-512.3, 4.2}, first["coefficients"])
	_, hasClassification := first["classification"]
	assert.False(t, hasClassification)

	assert.NotNil(t, clean["metrics"])
}

func TestSanitizeForJSONScrubsNonFinite(t *testing.T) {
	data := map[string]any{
		"mean":         math.Inf(1),
		"coefficients": []float64{1.5, math.NaN(), -3.0},
		"nested": map[string]any{
			"ratio": math.Inf(-1),
		},
		"label": "speech",
	}

	sanitized, ok := sanitizeForJSON(data).(map[string]any)
	require.True(t, ok)

	assert.Equal(t, 0.0, sanitized["mean"])
	assert.Equal(t, []float64{1.5, 0.0, -3.0}, sanitized["coefficients"])
	assert.Equal(t, "speech", sanitized["label"])

	nested, ok := sanitized["nested"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, 0.0, nested["ratio"])
}

func TestSanitizeForJSONHandlesStructs(t *testing.T) {
	stats := &monitor.CoefficientStats{
		Index:  3,
		Mean:   math.Inf(1),
		Median: 2.5,
		Count:  10,
	}

	sanitized, ok := sanitizeForJSON(stats).(map[string]any)
	require.True(t, ok)

	// Struct fields come back keyed by their json tags
	assert.Equal(t, 0.0, sanitized["mean"])
	assert.Equal(t, 2.5, sanitized["median"])
	assert.Equal(t, 3, sanitized["index"])
	assert.Equal(t, 10, sanitized["count"])
}

func TestStatusLine(t *testing.T) {
	status := extraction.Status{
		State:            extraction.StateRunning,
		FramesProcessed:  4,
		TicksSkipped:     1,
		ExtractionErrors: 1,
		ClassifierErrors: 1,
	}

	assert.Equal(t, "state=running frames=4 skipped=1 errors=2", statusLine(status))

	status.LastLabel = "speech"
	status.LastConfidence = 0.9
	assert.Equal(t, "state=running frames=4 skipped=1 errors=2 label=speech (0.90)", statusLine(status))
}

func TestBuildClassifierBackends(t *testing.T) {
	app := &MonitorApp{
		ctx:    &Context{},
		config: &MonitorConfig{Config: configs.GetDefaultConfig()},
	}

	classifier, err := app.buildClassifier(12)
	require.NoError(t, err)
	assert.Equal(t, []string{"silence", "active"}, classifier.Labels())

	app.config.Classifier.Labels = nil
	classifier, err = app.buildClassifier(12)
	require.NoError(t, err)
	assert.NotEmpty(t, classifier.Labels())

	app.config.Classifier.Backend = "tensorflow"
	_, err = app.buildClassifier(12)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown classifier backend")
}

func TestBuildSessionSynthetic(t *testing.T) {
	baseConfig := configs.GetDefaultConfig()
	app := &MonitorApp{
		ctx:    &Context{},
		config: mergeMonitorConfig(baseConfig, nil, &Context{}),
	}

	session, err := app.buildSession()
	require.NoError(t, err)
	require.NotNil(t, session)
	assert.Equal(t, extraction.StateIdle, session.Status().State)
}
