package configs

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/RyanBlaney/cepstral-monitor/pkg/audio/analysis"
	"github.com/RyanBlaney/cepstral-monitor/pkg/audio/capture"
	"github.com/RyanBlaney/cepstral-monitor/pkg/audio/classify"
	"github.com/RyanBlaney/cepstral-monitor/pkg/audio/mfcc"
)

// Config represents the application configuration
type Config struct {
	// Application settings
	Verbose      bool   `mapstructure:"verbose"`
	LogLevel     string `mapstructure:"log_level"`
	OutputFormat string `mapstructure:"output_format"`
	ConfigDir    string `mapstructure:"config_dir"`
	DataDir      string `mapstructure:"data_dir"`

	// Capture source configuration
	Capture CaptureConfig `mapstructure:"capture"`

	// Extraction engine configuration
	Extraction ExtractionConfig `mapstructure:"extraction"`

	// Classifier configuration
	Classifier ClassifierConfig `mapstructure:"classifier"`

	// Session execution configuration
	Session SessionConfig `mapstructure:"session"`

	// Output configuration
	Output OutputConfig `mapstructure:"output"`

	// Monitoring profiles
	Profiles map[string]MonitorProfile `mapstructure:"profiles"`
}

// CaptureConfig contains capture source settings
type CaptureConfig struct {
	Input          string          `mapstructure:"input"`
	SourceType     string          `mapstructure:"source_type"`
	SampleRate     int             `mapstructure:"sample_rate"`
	FFTSize        int             `mapstructure:"fft_size"`
	HopSize        int             `mapstructure:"hop_size"`
	WindowFunction string          `mapstructure:"window_function"`
	SampleFormat   string          `mapstructure:"sample_format"`
	Synthetic      SyntheticConfig `mapstructure:"synthetic"`
}

// SyntheticConfig contains generator settings for the synthetic source
type SyntheticConfig struct {
	BaseFrequency float64 `mapstructure:"base_frequency"`
	HarmonicCount int     `mapstructure:"harmonic_count"`
	NoiseLevel    float64 `mapstructure:"noise_level"`
	Seed          int64   `mapstructure:"seed"`
}

// ExtractionConfig contains extraction engine settings
type ExtractionConfig struct {
	Interval          time.Duration `mapstructure:"interval"`
	BandCount         int           `mapstructure:"band_count"`
	CoefficientCount  int           `mapstructure:"coefficient_count"`
	EnableDiagnostics bool          `mapstructure:"enable_diagnostics"`
}

// ClassifierConfig contains classifier settings
type ClassifierConfig struct {
	Enabled        bool      `mapstructure:"enabled"`
	Backend        string    `mapstructure:"backend"`
	ModelPath      string    `mapstructure:"model_path"`
	LabelsPath     string    `mapstructure:"labels_path"`
	RuntimeLibPath string    `mapstructure:"runtime_lib_path"`
	InputName      string    `mapstructure:"input_name"`
	OutputName     string    `mapstructure:"output_name"`
	UseCuda        bool      `mapstructure:"use_cuda"`
	NumThreads     int       `mapstructure:"num_threads"`
	Labels         []string  `mapstructure:"labels"`
	Thresholds     []float64 `mapstructure:"thresholds"`
}

// SessionConfig contains session execution settings
type SessionConfig struct {
	Duration        time.Duration `mapstructure:"duration"`
	PollInterval    time.Duration `mapstructure:"poll_interval"`
	StatusInterval  time.Duration `mapstructure:"status_interval"`
	MaxObservations int           `mapstructure:"max_observations"`
}

// OutputConfig contains output formatting settings
type OutputConfig struct {
	Precision           int  `mapstructure:"precision"`
	IncludeMetadata     bool `mapstructure:"include_metadata"`
	IncludeObservations bool `mapstructure:"include_observations"`
	Timestamps          bool `mapstructure:"timestamps"`
	Colors              bool `mapstructure:"colors"`
}

// MonitorProfile contains a complete monitoring preset
type MonitorProfile struct {
	Name        string            `mapstructure:"name"`
	Description string            `mapstructure:"description"`
	Duration    time.Duration     `mapstructure:"duration"`
	Extraction  ExtractionConfig  `mapstructure:"extraction"`
	Tags        map[string]string `mapstructure:"tags"`
}

// LoadConfig loads configuration from viper
func LoadConfig() (*Config, error) {
	setDefaults(viper.GetViper())

	config := &Config{}

	if err := viper.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("unable to decode configuration: %w", err)
	}

	return config, nil
}

// ValidateConfig validates the configuration
func ValidateConfig(config *Config) error {
	if config.Capture.SampleRate <= 0 {
		return fmt.Errorf("capture sample rate must be positive")
	}

	if config.Capture.FFTSize <= 0 {
		return fmt.Errorf("capture fft size must be positive")
	}

	if config.Capture.HopSize <= 0 {
		return fmt.Errorf("capture hop size must be positive")
	}

	if config.Extraction.Interval < 0 {
		return fmt.Errorf("extraction interval cannot be negative")
	}

	if config.Extraction.BandCount <= 0 {
		return fmt.Errorf("extraction band count must be positive")
	}

	if config.Extraction.CoefficientCount <= 0 {
		return fmt.Errorf("extraction coefficient count must be positive")
	}

	if config.Extraction.CoefficientCount > config.Extraction.BandCount {
		return fmt.Errorf("extraction coefficient count cannot exceed band count")
	}

	if config.Session.Duration < 0 {
		return fmt.Errorf("session duration cannot be negative")
	}

	if config.Session.PollInterval < 0 {
		return fmt.Errorf("session poll interval cannot be negative")
	}

	if config.Classifier.Enabled {
		switch strings.ToLower(config.Classifier.Backend) {
		case "static":
			if len(config.Classifier.Labels) == 0 {
				return fmt.Errorf("static classifier requires at least one label")
			}
			if len(config.Classifier.Thresholds) != len(config.Classifier.Labels)-1 {
				return fmt.Errorf("static classifier requires one threshold less than labels")
			}
		case "onnx":
			if config.Classifier.ModelPath == "" {
				return fmt.Errorf("onnx classifier requires a model path")
			}
		default:
			return fmt.Errorf("unknown classifier backend: %s", config.Classifier.Backend)
		}
	}

	return nil
}

// ToSourceConfig converts the capture settings into a frame source
// configuration
func (c CaptureConfig) ToSourceConfig() *capture.SourceConfig {
	sourceConfig := capture.DefaultSourceConfig()
	sourceConfig.Path = c.Input

	switch {
	case c.SourceType != "" && !strings.EqualFold(c.SourceType, "auto"):
		sourceConfig.Type = capture.SourceType(strings.ToLower(c.SourceType))
	case c.Input != "":
		sourceConfig.Type = capture.DetectTypeFromPath(c.Input)
	}

	if c.SampleRate > 0 {
		sourceConfig.SampleRate = c.SampleRate
	}
	if c.FFTSize > 0 {
		sourceConfig.FFTSize = c.FFTSize
	}
	if c.HopSize > 0 {
		sourceConfig.HopSize = c.HopSize
	}
	if c.WindowFunction != "" {
		sourceConfig.Window = analysis.WindowType(strings.ToLower(c.WindowFunction))
	}
	if c.SampleFormat != "" {
		sourceConfig.Format = capture.SampleFormat(strings.ToLower(c.SampleFormat))
	}

	if c.Synthetic != (SyntheticConfig{}) {
		synthetic := capture.DefaultSyntheticConfig()
		synthetic.SampleRate = sourceConfig.SampleRate
		synthetic.FFTSize = sourceConfig.FFTSize
		synthetic.HopSize = sourceConfig.HopSize
		synthetic.Window = sourceConfig.Window
		if c.Synthetic.BaseFrequency > 0 {
			synthetic.BaseFrequency = c.Synthetic.BaseFrequency
		}
		if c.Synthetic.HarmonicCount > 0 {
			synthetic.HarmonicCount = c.Synthetic.HarmonicCount
		}
		synthetic.NoiseLevel = c.Synthetic.NoiseLevel
		if c.Synthetic.Seed != 0 {
			synthetic.Seed = c.Synthetic.Seed
		}
		sourceConfig.Synthetic = synthetic
	}

	return sourceConfig
}

// ToParams converts the extraction settings into pipeline parameters
func (c ExtractionConfig) ToParams() mfcc.Params {
	params := mfcc.DefaultParams()
	if c.BandCount > 0 {
		params.BandCount = c.BandCount
	}
	if c.CoefficientCount > 0 {
		params.CoefficientCount = c.CoefficientCount
	}
	return params
}

// ToONNXConfig converts the classifier settings into an ONNX session
// configuration. The input width tracks the extraction coefficient count
// so the model contract is checked in one place.
func (c ClassifierConfig) ToONNXConfig(inputWidth int) *classify.ONNXConfig {
	onnxConfig := classify.DefaultONNXConfig()

	if c.RuntimeLibPath != "" {
		onnxConfig.OnnxRuntimeLibPath = c.RuntimeLibPath
	}
	if c.ModelPath != "" {
		onnxConfig.ModelPath = c.ModelPath
	}
	if c.LabelsPath != "" {
		onnxConfig.LabelsPath = c.LabelsPath
	}
	if c.InputName != "" {
		onnxConfig.InputName = c.InputName
	}
	if c.OutputName != "" {
		onnxConfig.OutputName = c.OutputName
	}
	if inputWidth > 0 {
		onnxConfig.InputWidth = inputWidth
	}
	onnxConfig.UseCuda = c.UseCuda
	if c.NumThreads > 0 {
		onnxConfig.NumThreads = c.NumThreads
	}

	return &onnxConfig
}
