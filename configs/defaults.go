package configs

import (
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// setDefaults sets default configuration values for all components
func setDefaults(v *viper.Viper) {
	// Capture defaults
	if !v.IsSet("capture.input") {
		v.Set("capture.input", "")
	}
	if !v.IsSet("capture.source_type") {
		v.Set("capture.source_type", "auto")
	}
	if !v.IsSet("capture.sample_rate") {
		v.Set("capture.sample_rate", 8000)
	}
	if !v.IsSet("capture.fft_size") {
		v.Set("capture.fft_size", 256)
	}
	if !v.IsSet("capture.hop_size") {
		v.Set("capture.hop_size", 128)
	}
	if !v.IsSet("capture.window_function") {
		v.Set("capture.window_function", "hann")
	}
	if !v.IsSet("capture.sample_format") {
		v.Set("capture.sample_format", "auto")
	}

	// Synthetic generator defaults (used when no input file is given)
	setSyntheticDefaults(v)

	// Extraction defaults
	if !v.IsSet("extraction.interval") {
		v.Set("extraction.interval", 2*time.Second)
	}
	if !v.IsSet("extraction.band_count") {
		v.Set("extraction.band_count", 26)
	}
	if !v.IsSet("extraction.coefficient_count") {
		v.Set("extraction.coefficient_count", 12)
	}
	if !v.IsSet("extraction.enable_diagnostics") {
		v.Set("extraction.enable_diagnostics", false)
	}

	// Classifier defaults
	setClassifierDefaults(v)

	// Session defaults
	if !v.IsSet("session.duration") {
		v.Set("session.duration", 30*time.Second)
	}
	if !v.IsSet("session.poll_interval") {
		v.Set("session.poll_interval", 500*time.Millisecond)
	}
	if !v.IsSet("session.status_interval") {
		v.Set("session.status_interval", 10*time.Second)
	}
	if !v.IsSet("session.max_observations") {
		v.Set("session.max_observations", 0)
	}

	// Output defaults
	if !v.IsSet("output.precision") {
		v.Set("output.precision", 3)
	}
	if !v.IsSet("output.include_metadata") {
		v.Set("output.include_metadata", true)
	}
	if !v.IsSet("output.include_observations") {
		v.Set("output.include_observations", false)
	}
	if !v.IsSet("output.timestamps") {
		v.Set("output.timestamps", true)
	}
	if !v.IsSet("output.colors") {
		v.Set("output.colors", true)
	}

	// Application defaults
	if !v.IsSet("verbose") {
		v.Set("verbose", false)
	}
	if !v.IsSet("log_level") {
		v.Set("log_level", "info")
	}
	if !v.IsSet("output_format") {
		v.Set("output_format", "table")
	}
}

// setSyntheticDefaults sets generator defaults for the synthetic source
func setSyntheticDefaults(v *viper.Viper) {
	if !v.IsSet("capture.synthetic.base_frequency") {
		v.Set("capture.synthetic.base_frequency", 440.0)
	}
	if !v.IsSet("capture.synthetic.harmonic_count") {
		v.Set("capture.synthetic.harmonic_count", 3)
	}
	if !v.IsSet("capture.synthetic.noise_level") {
		v.Set("capture.synthetic.noise_level", 0.01)
	}
	if !v.IsSet("capture.synthetic.seed") {
		v.Set("capture.synthetic.seed", 1)
	}
}

// setClassifierDefaults sets classifier configuration defaults
func setClassifierDefaults(v *viper.Viper) {
	if !v.IsSet("classifier.enabled") {
		v.Set("classifier.enabled", false)
	}
	if !v.IsSet("classifier.backend") {
		v.Set("classifier.backend", "static")
	}
	if !v.IsSet("classifier.model_path") {
		v.Set("classifier.model_path", "./models/classifier.onnx")
	}
	if !v.IsSet("classifier.labels_path") {
		v.Set("classifier.labels_path", "./models/labels.txt")
	}
	if !v.IsSet("classifier.input_name") {
		v.Set("classifier.input_name", "features")
	}
	if !v.IsSet("classifier.output_name") {
		v.Set("classifier.output_name", "logits")
	}
	if !v.IsSet("classifier.use_cuda") {
		v.Set("classifier.use_cuda", false)
	}
	if !v.IsSet("classifier.num_threads") {
		v.Set("classifier.num_threads", 0)
	}
	if !v.IsSet("classifier.labels") {
		v.Set("classifier.labels", []string{"silence", "active"})
	}
	if !v.IsSet("classifier.thresholds") {
		v.Set("classifier.thresholds", []float64{-800})
	}
}

// GetDefaultConfig returns a Config struct with all default values set
func GetDefaultConfig() *Config {
	home, _ := os.UserHomeDir()

	return &Config{
		// Application settings defaults
		Verbose:      false,
		LogLevel:     "info",
		OutputFormat: "table",
		ConfigDir:    filepath.Join(home, ".config", "cepstral-monitor"),
		DataDir:      filepath.Join(home, ".local", "share", "cepstral-monitor"),

		// Capture source defaults
		Capture: GetDefaultCaptureConfig(),

		// Extraction engine defaults
		Extraction: GetDefaultExtractionConfig(),

		// Classifier defaults
		Classifier: GetDefaultClassifierConfig(),

		// Session execution defaults
		Session: GetDefaultSessionConfig(),

		// Output configuration defaults
		Output: GetDefaultOutputConfig(),

		// Monitoring profiles defaults
		Profiles: GetDefaultProfiles(),
	}
}

// GetDefaultCaptureConfig returns default capture source settings
func GetDefaultCaptureConfig() CaptureConfig {
	return CaptureConfig{
		Input:          "",
		SourceType:     "auto",
		SampleRate:     8000,
		FFTSize:        256,
		HopSize:        128,
		WindowFunction: "hann",
		SampleFormat:   "auto",
		Synthetic:      GetDefaultSyntheticConfig(),
	}
}

// GetDefaultSyntheticConfig returns default synthetic generator settings
func GetDefaultSyntheticConfig() SyntheticConfig {
	return SyntheticConfig{
		BaseFrequency: 440.0,
		HarmonicCount: 3,
		NoiseLevel:    0.01,
		Seed:          1,
	}
}

// GetDefaultExtractionConfig returns default extraction engine settings
func GetDefaultExtractionConfig() ExtractionConfig {
	return ExtractionConfig{
		Interval:          2 * time.Second,
		BandCount:         26,
		CoefficientCount:  12,
		EnableDiagnostics: false,
	}
}

// GetDefaultClassifierConfig returns default classifier settings
func GetDefaultClassifierConfig() ClassifierConfig {
	return ClassifierConfig{
		Enabled:    false,
		Backend:    "static",
		ModelPath:  "./models/classifier.onnx",
		LabelsPath: "./models/labels.txt",
		InputName:  "features",
		OutputName: "logits",
		Labels:     []string{"silence", "active"},
		Thresholds: []float64{-800},
	}
}

// GetDefaultSessionConfig returns default session execution settings
func GetDefaultSessionConfig() SessionConfig {
	return SessionConfig{
		Duration:        30 * time.Second,
		PollInterval:    500 * time.Millisecond,
		StatusInterval:  10 * time.Second,
		MaxObservations: 0,
	}
}

// GetDefaultOutputConfig returns default output formatting settings
func GetDefaultOutputConfig() OutputConfig {
	return OutputConfig{
		Precision:           3,
		IncludeMetadata:     true,
		IncludeObservations: false,
		Timestamps:          true,
		Colors:              true,
	}
}

// GetDefaultProfiles returns default monitoring profiles
func GetDefaultProfiles() map[string]MonitorProfile {
	return map[string]MonitorProfile{
		"quick": {
			Name:        "Quick Check",
			Description: "Short run with the default pipeline sizes",
			Duration:    30 * time.Second,
			Extraction:  GetDefaultExtractionConfig(),
			Tags: map[string]string{
				"profile": "quick",
				"type":    "development",
			},
		},
		"standard": {
			Name:        "Standard Monitor",
			Description: "Medium run with per-frame spectral diagnostics",
			Duration:    2 * time.Minute,
			Extraction: ExtractionConfig{
				Interval:          2 * time.Second,
				BandCount:         26,
				CoefficientCount:  12,
				EnableDiagnostics: true,
			},
			Tags: map[string]string{
				"profile": "standard",
				"type":    "testing",
			},
		},
		"soak": {
			Name:        "Soak Monitor",
			Description: "Long run on a slower cadence for drift analysis",
			Duration:    10 * time.Minute,
			Extraction: ExtractionConfig{
				Interval:          5 * time.Second,
				BandCount:         26,
				CoefficientCount:  12,
				EnableDiagnostics: true,
			},
			Tags: map[string]string{
				"profile": "soak",
				"type":    "production",
			},
		},
	}
}

// HighResolutionExtractionConfig returns extraction settings with a denser
// filter bank and faster cadence
func HighResolutionExtractionConfig() ExtractionConfig {
	return ExtractionConfig{
		Interval:          500 * time.Millisecond,
		BandCount:         40,
		CoefficientCount:  20,
		EnableDiagnostics: true,
	}
}

// FastExtractionConfig returns extraction settings optimized for throughput
func FastExtractionConfig() ExtractionConfig {
	return ExtractionConfig{
		Interval:          1 * time.Second,
		BandCount:         20,
		CoefficientCount:  8,
		EnableDiagnostics: false,
	}
}

// DevelopmentSessionConfig returns short session settings for development
func DevelopmentSessionConfig() SessionConfig {
	return SessionConfig{
		Duration:        10 * time.Second,
		PollInterval:    250 * time.Millisecond,
		StatusInterval:  2 * time.Second,
		MaxObservations: 0,
	}
}

// ProductionSessionConfig returns long session settings for unattended runs
func ProductionSessionConfig() SessionConfig {
	return SessionConfig{
		Duration:        1 * time.Hour,
		PollInterval:    1 * time.Second,
		StatusInterval:  30 * time.Second,
		MaxObservations: 0,
	}
}

// GetDefaultOutputConfigForFormat returns output config optimized for a
// specific format
func GetDefaultOutputConfigForFormat(format string) OutputConfig {
	base := GetDefaultOutputConfig()

	switch format {
	case "json":
		base.Colors = false
		base.Precision = 6
		base.IncludeObservations = true
	case "csv":
		base.Colors = false
		base.IncludeMetadata = false
		base.Timestamps = false
	case "table":
		base.Colors = true
		base.Precision = 2
	default:
		// Keep defaults
	}

	return base
}
