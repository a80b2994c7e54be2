package monitor

import (
	"fmt"
	"time"

	"github.com/RyanBlaney/cepstral-monitor/configs"
)

// MonitorConfig extends the base config with session-specific settings
type MonitorConfig struct {
	// Base configuration
	*configs.Config

	// Session-specific settings
	Monitor MonitorSettings `json:"monitor" yaml:"monitor"`
}

// MonitorSettings contains session-specific configuration
type MonitorSettings struct {
	// Session execution settings
	SessionDuration time.Duration `json:"session_duration" yaml:"session_duration"`
	PollInterval    time.Duration `json:"poll_interval" yaml:"poll_interval"`
	StatusInterval  time.Duration `json:"status_interval" yaml:"status_interval"`
	MaxObservations int           `json:"max_observations" yaml:"max_observations"`

	// Extraction settings
	ExtractionInterval time.Duration `json:"extraction_interval" yaml:"extraction_interval"`
	EnableDiagnostics  bool          `json:"enable_diagnostics" yaml:"enable_diagnostics"`
	EnableClassifier   bool          `json:"enable_classifier" yaml:"enable_classifier"`

	// Output settings
	OutputFormat        string `json:"output_format" yaml:"output_format"`
	IncludeObservations bool   `json:"include_observations" yaml:"include_observations"`
	PrettyPrint         bool   `json:"pretty_print" yaml:"pretty_print"`
	GenerateSummary     bool   `json:"generate_summary" yaml:"generate_summary"`
}

// Validate validates the monitor configuration
func (c *MonitorConfig) Validate() error {
	if err := configs.ValidateConfig(c.Config); err != nil {
		return fmt.Errorf("base configuration invalid: %w", err)
	}

	if c.Monitor.SessionDuration < 0 {
		return fmt.Errorf("session duration cannot be negative")
	}

	if c.Monitor.PollInterval <= 0 {
		return fmt.Errorf("poll interval must be positive")
	}

	if c.Monitor.StatusInterval < 0 {
		return fmt.Errorf("status interval cannot be negative")
	}

	if c.Monitor.MaxObservations < 0 {
		return fmt.Errorf("max observations cannot be negative")
	}

	if c.Monitor.ExtractionInterval <= 0 {
		return fmt.Errorf("extraction interval must be positive")
	}

	return nil
}
