package app

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/RyanBlaney/latency-benchmark-common/logging"
	"github.com/RyanBlaney/latency-benchmark-common/output"
	"github.com/tunein/go-logging/v7/pkg/logger"
	"github.com/tunein/go-logging/v7/pkg/logger/logtypes"
	"github.com/tunein/go-logging/v7/pkg/rootcollector"
	"github.com/tunein/go-logging/v7/pkg/rootlogger"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/RyanBlaney/cepstral-monitor/configs"
	"github.com/RyanBlaney/cepstral-monitor/internal/extraction"
	"github.com/RyanBlaney/cepstral-monitor/internal/monitor"
	"github.com/RyanBlaney/cepstral-monitor/pkg/audio/capture"
	"github.com/RyanBlaney/cepstral-monitor/pkg/audio/classify"
)

// Context holds the application context and configuration
type Context struct {
	// CLI arguments
	ConfigFile         string // Session configuration file (optional)
	OutputFile         string
	OutputFormat       string
	Input              string
	SourceType         string
	Profile            string
	Duration           time.Duration
	PollInterval       time.Duration
	ExtractionInterval time.Duration
	MaxObservations    int
	UntilCancelled     bool
	Verbose            bool
	Quiet              bool
	EnableDiagnostics  bool
	EnableClassifier   bool

	// Runtime context
	Logger logging.Logger
	Config *MonitorConfig
}

// MonitorApp handles the monitor application lifecycle
type MonitorApp struct {
	ctx    *Context
	config *MonitorConfig
	logger logging.Logger
}

// NewMonitorApp creates a new monitor application
func NewMonitorApp(ctx *Context) (*MonitorApp, error) {
	// Set up logging
	logger := setupLogging(ctx)
	ctx.Logger = logger

	// Load configuration
	config, err := loadAndMergeConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	ctx.Config = config

	logger.Debug("Monitor application initialized", logging.Fields{
		"config_file":      ctx.ConfigFile,
		"output_format":    config.Monitor.OutputFormat,
		"session_duration": config.Monitor.SessionDuration.Seconds(),
		"source_type":      config.Capture.SourceType,
	})

	return &MonitorApp{
		ctx:    ctx,
		config: config,
		logger: logger,
	}, nil
}

// Run executes the monitoring session
func (app *MonitorApp) Run(ctx context.Context) error {
	app.logger.Debug("Starting cepstral monitor session", logging.Fields{
		"session_duration":    app.config.Monitor.SessionDuration.Seconds(),
		"extraction_interval": app.config.Monitor.ExtractionInterval.Seconds(),
		"classifier_enabled":  app.config.Monitor.EnableClassifier,
	})

	// Create the session with its capture source and optional classifier
	session, err := app.buildSession()
	if err != nil {
		return fmt.Errorf("failed to build monitor session: %w", err)
	}

	stopStatus := app.startStatusReporter(session)
	summary, err := session.Run(ctx)
	stopStatus()
	if err != nil {
		return fmt.Errorf("session execution failed: %w", err)
	}

	// Output results
	if err := app.outputResults(summary); err != nil {
		return fmt.Errorf("failed to output results: %w", err)
	}

	// Print summary to console if not quiet
	if !app.ctx.Quiet && app.config.Monitor.GenerateSummary {
		app.printSummary(summary)
	}

	// Return error if the session never produced a coefficient vector
	if len(summary.Observations) == 0 && summary.ExtractionErrors > 0 {
		return fmt.Errorf("session produced no observations: %s", summary.LastError)
	}

	return nil
}

// setupLogging configures logging based on context
func setupLogging(ctx *Context) logging.Logger {
	return logging.NewDefaultLogger()
}

// loadAndMergeConfig loads configuration from file and merges with CLI flags
func loadAndMergeConfig(ctx *Context) (*MonitorConfig, error) {
	// Load base configuration
	baseConfig, err := configs.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load base configuration: %w", err)
	}

	// Overlay a named profile before the session file and flags
	if ctx.Profile != "" {
		if err := applyProfile(baseConfig, ctx.Profile); err != nil {
			return nil, err
		}
	}

	// Load session-specific configuration from file
	var monitorConfig *MonitorConfig
	if ctx.ConfigFile != "" {
		monitorConfig, err = loadMonitorConfigFromFile(ctx.ConfigFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load session configuration: %w", err)
		}
	}

	// Merge configurations
	mergedConfig := mergeMonitorConfig(baseConfig, monitorConfig, ctx)

	// Validate final configuration
	if err := mergedConfig.Validate(); err != nil {
		return nil, fmt.Errorf("invalid session configuration: %w", err)
	}

	return mergedConfig, nil
}

// buildSession wires the capture source, optional classifier and extraction
// engine into a monitor session
func (app *MonitorApp) buildSession() (*monitor.Session, error) {
	sourceConfig := app.config.Capture.ToSourceConfig()

	factory := capture.NewFactory()
	source, err := factory.CreateSource(sourceConfig.Type, sourceConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create capture source: %w", err)
	}

	params := app.config.Extraction.ToParams()

	var classifier classify.Classifier
	if app.config.Monitor.EnableClassifier {
		classifier, err = app.buildClassifier(params.CoefficientCount)
		if err != nil {
			return nil, fmt.Errorf("failed to create classifier: %w", err)
		}
	}

	sessionConfig := &monitor.SessionConfig{
		Duration:        app.config.Monitor.SessionDuration,
		PollInterval:    app.config.Monitor.PollInterval,
		MaxObservations: app.config.Monitor.MaxObservations,
		Engine: &extraction.EngineConfig{
			Interval:          app.config.Monitor.ExtractionInterval,
			Params:            params,
			Source:            source,
			Classifier:        classifier,
			EnableDiagnostics: app.config.Monitor.EnableDiagnostics,
			Logger:            app.logger,
		},
	}

	session, err := monitor.NewSession(sessionConfig, app.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create monitor session: %w", err)
	}

	return session, nil
}

// buildClassifier constructs the configured classifier backend
func (app *MonitorApp) buildClassifier(coefficientCount int) (classify.Classifier, error) {
	classifierConfig := app.config.Classifier

	switch strings.ToLower(classifierConfig.Backend) {
	case "", "static":
		if len(classifierConfig.Labels) == 0 {
			return classify.DefaultStaticClassifier(), nil
		}
		staticClassifier, err := classify.NewStaticClassifier(classifierConfig.Labels, classifierConfig.Thresholds)
		if err != nil {
			return nil, fmt.Errorf("failed to create static classifier: %w", err)
		}
		return staticClassifier, nil

	case "onnx":
		onnxConfig := classifierConfig.ToONNXConfig(coefficientCount)
		onnxClassifier, err := classify.NewONNXClassifier(*onnxConfig)
		if err != nil {
			return nil, fmt.Errorf("failed to create onnx classifier: %w", err)
		}
		return onnxClassifier, nil

	default:
		return nil, fmt.Errorf("unknown classifier backend: %s", classifierConfig.Backend)
	}
}

// startStatusReporter prints engine status on the configured interval until
// the returned stop function is called
func (app *MonitorApp) startStatusReporter(session *monitor.Session) func() {
	interval := app.config.Monitor.StatusInterval
	if app.ctx.Quiet || interval <= 0 {
		return func() {}
	}

	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				fmt.Printf("📊 %s\n", statusLine(session.Status()))
			}
		}
	}()

	return func() { close(done) }
}

// statusLine renders one status report line
func statusLine(status extraction.Status) string {
	line := fmt.Sprintf("state=%s frames=%d skipped=%d errors=%d",
		status.State, status.FramesProcessed, status.TicksSkipped,
		status.ExtractionErrors+status.ClassifierErrors)

	if status.LastLabel != "" {
		line += fmt.Sprintf(" label=%s (%.2f)", status.LastLabel, status.LastConfidence)
	}

	return line
}

// outputResults handles all result output
func (app *MonitorApp) outputResults(summary *monitor.SessionSummary) error {
	includeObservations := app.config.Monitor.IncludeObservations || app.config.Verbose

	params := app.config.Extraction.ToParams()

	// Create clean output structure (exclude per-tick data unless asked)
	outputData := map[string]any{
		"session_summary": cleanSessionSummary(summary, includeObservations),
		"timestamp":       time.Now(),
		"configuration": map[string]any{
			"session_duration":    app.config.Monitor.SessionDuration.Seconds(),
			"extraction_interval": app.config.Monitor.ExtractionInterval.Seconds(),
			"band_count":          params.BandCount,
			"coefficient_count":   params.CoefficientCount,
			"classifier_enabled":  app.config.Monitor.EnableClassifier,
			"diagnostics_enabled": app.config.Monitor.EnableDiagnostics,
		},
	}

	// Create formatter
	var formatter output.Formatter
	switch app.config.Monitor.OutputFormat {
	case "json":
		formatter = &output.JSONFormatter{}
	case "yaml":
		formatter = &output.YAMLFormatter{}
	case "csv":
		formatter = &output.CSVFormatter{}
	case "table":
		formatter = &output.TableFormatter{}
	default:
		formatter = &output.JSONFormatter{}
	}

	// Format data
	formattedData, err := formatter.Format(outputData, app.config.Monitor.PrettyPrint)
	if err != nil {
		// If JSON formatting fails due to infinite values, try to sanitize the data
		if strings.Contains(err.Error(), "unsupported value") {
			sanitizedData := sanitizeForJSON(outputData)
			formattedData, err = formatter.Format(sanitizedData, app.config.Monitor.PrettyPrint)
		}
		if err != nil {
			return fmt.Errorf("failed to format output data: %w", err)
		}
	}

	app.collectSessionMetrics(summary)

	// Write to file or stdout
	if app.ctx.OutputFile != "" {
		return app.writeToFile(formattedData)
	}

	_, err = os.Stdout.Write(formattedData)
	return err
}

// collectSessionMetrics sends session counters to rootcollector
func (app *MonitorApp) collectSessionMetrics(summary *monitor.SessionSummary) {
	if summary == nil {
		return
	}

	err := rootlogger.Configure(logger.LogOptions{
		Out:          "/tmp/cepstral-monitor.log",
		ReopenSignal: syscall.SIGHUP,
		Level:        logtypes.InfoLevel,
	})
	if err != nil {
		logging.Error(err, "Failed configuring log writer")
	}

	baseTags := []string{
		"source:" + string(summary.Source.Type),
	}
	if summary.Source.Path != "" {
		baseTags = append(baseTags, "input:"+filepath.Base(summary.Source.Path))
	}

	rootcollector.Metric("audio.cepstral.frames.processed", int64(summary.FramesProcessed), baseTags)
	rootcollector.Metric("audio.cepstral.ticks.skipped", int64(summary.TicksSkipped), baseTags)
	rootcollector.Metric("audio.cepstral.extraction.errors", int64(summary.ExtractionErrors), baseTags)
	rootcollector.Metric("audio.cepstral.classifier.errors", int64(summary.ClassifierErrors), baseTags)

	// Send total session time if available
	if summary.TotalDuration.Seconds() > 0 {
		sessionTimeMs := summary.TotalDuration.Milliseconds()
		rootcollector.Metric("audio.cepstral.session.duration.milliseconds", sessionTimeMs, baseTags)
	}

	if summary.Metrics != nil && summary.Metrics.Classification != nil {
		app.sendClassificationMetrics(summary.Metrics.Classification, baseTags)
	}
}

// sendClassificationMetrics sends per-label counts for a session
func (app *MonitorApp) sendClassificationMetrics(classification *monitor.ClassificationMetrics, baseTags []string) {
	for label, count := range classification.Tally {
		tags := append(baseTags, "label:"+label)
		rootcollector.Metric("audio.cepstral.classification.count", int64(count), tags)
	}

	// Send mean confidence (convert to milli-units because int64)
	if classification.ClassifiedCount > 0 {
		confidenceMillis := int64(classification.MeanConfidence * 1000)
		rootcollector.Metric("audio.cepstral.classification.confidence.millis", confidenceMillis, baseTags)
	}
}

// cleanSessionSummary flattens the session summary, leaving the per-tick
// observations out unless requested
func cleanSessionSummary(summary *monitor.SessionSummary, includeObservations bool) map[string]any {
	cleanSummary := map[string]any{
		"start_time":     summary.StartTime,
		"end_time":       summary.EndTime,
		"total_duration": summary.TotalDuration.Seconds(),
		"source": map[string]any{
			"type":        summary.Source.Type,
			"path":        summary.Source.Path,
			"sample_rate": summary.Source.SampleRate,
			"fft_size":    summary.Source.FFTSize,
			"hop_size":    summary.Source.HopSize,
		},
		"frames_processed":  summary.FramesProcessed,
		"ticks_skipped":     summary.TicksSkipped,
		"extraction_errors": summary.ExtractionErrors,
		"classifier_errors": summary.ClassifierErrors,
		"observation_count": len(summary.Observations),
	}

	if summary.LastError != "" {
		cleanSummary["last_error"] = summary.LastError
	}

	if summary.Metrics != nil {
		cleanSummary["metrics"] = summary.Metrics
	}

	if includeObservations {
		cleanSummary["observations"] = cleanObservations(summary.Observations)
	}

	return cleanSummary
}

// cleanObservations flattens per-tick observations for serialization
func cleanObservations(observations []monitor.Observation) []any {
	clean := make([]any, 0, len(observations))

	for _, observation := range observations {
		cleanObservation := map[string]any{
			"sequence":        observation.Sequence,
			"frame_timestamp": observation.FrameTimestamp,
			"computed_at":     observation.ComputedAt,
			"coefficients":    observation.Coefficients,
		}

		if observation.Classification != nil {
			cleanObservation["classification"] = observation.Classification
		}

		if observation.Diagnostics != nil {
			cleanObservation["diagnostics"] = observation.Diagnostics
		}

		clean = append(clean, cleanObservation)
	}

	return clean
}

// writeToFile writes data to the specified output file
func (app *MonitorApp) writeToFile(data []byte) error {
	// Ensure directory exists
	dir := filepath.Dir(app.ctx.OutputFile)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	// Write file
	if err := os.WriteFile(app.ctx.OutputFile, data, 0644); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}

	app.logger.Debug("Results written to file", logging.Fields{
		"output_file": app.ctx.OutputFile,
		"size_bytes":  len(data),
	})

	return nil
}

// printSummary prints a human-readable summary to stdout
func (app *MonitorApp) printSummary(summary *monitor.SessionSummary) {
	titleCaser := cases.Title(language.English)

	fmt.Printf("\n🎯 CEPSTRAL SESSION SUMMARY\n")
	fmt.Printf("===========================\n")
	fmt.Printf("Total Duration:     %.1fs\n", summary.TotalDuration.Seconds())
	fmt.Printf("Source:             %s", summary.Source.Type)
	if summary.Source.Path != "" {
		fmt.Printf(" (%s)", summary.Source.Path)
	}
	fmt.Printf("\n")
	fmt.Printf("Frames Processed:   %d\n", summary.FramesProcessed)
	fmt.Printf("Ticks Skipped:      %d\n", summary.TicksSkipped)
	fmt.Printf("Extraction Errors:  %d\n", summary.ExtractionErrors)
	fmt.Printf("Classifier Errors:  %d\n", summary.ClassifierErrors)

	if summary.LastError != "" {
		fmt.Printf("Last Error:         %s\n", summary.LastError)
	}

	if summary.Metrics != nil && summary.Metrics.Coefficients != nil && len(summary.Metrics.Coefficients.Coefficients) > 0 {
		fmt.Printf("\n📊 COEFFICIENT STATISTICS\n")
		fmt.Printf("=========================\n")

		for _, stats := range summary.Metrics.Coefficients.Coefficients {
			fmt.Printf("c%-2d  mean %9.2f  stddev %8.2f  p95 %9.2f  range [%.2f, %.2f]\n",
				stats.Index, stats.Mean, stats.StdDev, stats.P95, stats.Min, stats.Max)
		}
	}

	if summary.Metrics != nil && summary.Metrics.Classification != nil && summary.Metrics.Classification.ClassifiedCount > 0 {
		classification := summary.Metrics.Classification

		fmt.Printf("\n📋 CLASSIFICATION\n")
		fmt.Printf("=================\n")

		labels := make([]string, 0, len(classification.Tally))
		for label := range classification.Tally {
			labels = append(labels, label)
		}
		sort.Strings(labels)

		for _, label := range labels {
			count := classification.Tally[label]
			share := float64(count) / float64(classification.ClassifiedCount)

			status := "  "
			if label == classification.DominantLabel {
				status = "✅"
			}

			fmt.Printf("%s %-14s %5d (%.1f%%)\n", status, titleCaser.String(label), count, share*100)
		}

		fmt.Printf("Classification Rate: %.1f%%\n", classification.ClassificationRate*100)
		fmt.Printf("Mean Confidence:     %.2f\n", classification.MeanConfidence)
	}

	fmt.Printf("\n")
}

// sanitizeForJSON recursively cleans infinite and NaN values from any data structure
func sanitizeForJSON(data any) any {
	switch v := data.(type) {
	case float64:
		if math.IsInf(v, 0) || math.IsNaN(v) {
			return 0.0
		}
		return v
	case float32:
		if math.IsInf(float64(v), 0) || math.IsNaN(float64(v)) {
			return float32(0.0)
		}
		return v
	case map[string]any:
		result := make(map[string]any)
		for k, val := range v {
			result[k] = sanitizeForJSON(val)
		}
		return result
	case []any:
		result := make([]any, len(v))
		for i, val := range v {
			result[i] = sanitizeForJSON(val)
		}
		return result
	case []float64:
		result := make([]float64, len(v))
		for i, val := range v {
			if math.IsInf(val, 0) || math.IsNaN(val) {
				result[i] = 0.0
			} else {
				result[i] = val
			}
		}
		return result
	default:
		// Use reflection to handle structs and other complex types
		return sanitizeWithReflection(data)
	}
}

// sanitizeWithReflection uses reflection to sanitize struct fields
func sanitizeWithReflection(data any) any {
	if data == nil {
		return nil
	}

	val := reflect.ValueOf(data)
	if val.Kind() == reflect.Ptr {
		if val.IsNil() {
			return nil
		}
		val = val.Elem()
	}

	switch val.Kind() {
	case reflect.Struct:
		result := make(map[string]any)
		typ := val.Type()
		for i := 0; i < val.NumField(); i++ {
			field := val.Field(i)
			fieldType := typ.Field(i)

			// Skip unexported fields
			if !field.CanInterface() {
				continue
			}

			// Get JSON tag name or use field name
			jsonTag := fieldType.Tag.Get("json")
			fieldName := fieldType.Name
			if jsonTag != "" && jsonTag != "-" {
				// Parse JSON tag (handle omitempty, etc.)
				parts := strings.Split(jsonTag, ",")
				if parts[0] != "" {
					fieldName = parts[0]
				}
			}

			result[fieldName] = sanitizeForJSON(field.Interface())
		}
		return result
	case reflect.Slice:
		result := make([]any, val.Len())
		for i := 0; i < val.Len(); i++ {
			result[i] = sanitizeForJSON(val.Index(i).Interface())
		}
		return result
	case reflect.Map:
		result := make(map[string]any)
		for _, key := range val.MapKeys() {
			keyStr := fmt.Sprintf("%v", key.Interface())
			result[keyStr] = sanitizeForJSON(val.MapIndex(key).Interface())
		}
		return result
	case reflect.Float64:
		f := val.Float()
		if math.IsInf(f, 0) || math.IsNaN(f) {
			return 0.0
		}
		return f
	case reflect.Float32:
		f := val.Float()
		if math.IsInf(f, 0) || math.IsNaN(f) {
			return float32(0.0)
		}
		return float32(f)
	default:
		return val.Interface()
	}
}
