package app

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/RyanBlaney/cepstral-monitor/configs"
	"github.com/RyanBlaney/cepstral-monitor/internal/monitor"
)

type MonitorConfig = monitor.MonitorConfig
type MonitorSettings = monitor.MonitorSettings

// loadMonitorConfigFromFile loads session configuration from a file (app settings only)
func loadMonitorConfigFromFile(filePath string) (*MonitorConfig, error) {
	// Check if file exists
	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		return nil, fmt.Errorf("configuration file does not exist: %s", filePath)
	}

	// Determine file format
	ext := filepath.Ext(filePath)
	switch ext {
	case ".yaml", ".yml":
		return loadMonitorConfigFromYAML(filePath)
	case ".json":
		return loadMonitorConfigFromJSON(filePath)
	default:
		// Try YAML first, then JSON
		if cfg, err := loadMonitorConfigFromYAML(filePath); err == nil {
			return cfg, nil
		}
		return loadMonitorConfigFromJSON(filePath)
	}
}

// loadMonitorConfigFromYAML loads from YAML file
func loadMonitorConfigFromYAML(filePath string) (*MonitorConfig, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open YAML config file: %w", err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read YAML config file: %w", err)
	}

	var config MonitorConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}

	return &config, nil
}

// loadMonitorConfigFromJSON loads from JSON file
func loadMonitorConfigFromJSON(filePath string) (*MonitorConfig, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open JSON config file: %w", err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read JSON config file: %w", err)
	}

	var config MonitorConfig
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse JSON config: %w", err)
	}

	return &config, nil
}

// mergeMonitorConfig merges base config, session config, and CLI flags
func mergeMonitorConfig(baseConfig *configs.Config, monitorConfig *MonitorConfig, ctx *Context) *MonitorConfig {
	// Start with session config if it exists, otherwise create new one
	if monitorConfig == nil {
		monitorConfig = &MonitorConfig{
			Config: baseConfig,
		}
	} else {
		// Use base config as foundation
		monitorConfig.Config = baseConfig
	}

	settings := &monitorConfig.Monitor

	// Seed unset session settings from the base configuration
	if settings.SessionDuration == 0 {
		settings.SessionDuration = baseConfig.Session.Duration
	}
	if settings.PollInterval == 0 {
		settings.PollInterval = baseConfig.Session.PollInterval
	}
	if settings.StatusInterval == 0 {
		settings.StatusInterval = baseConfig.Session.StatusInterval
	}
	if settings.MaxObservations == 0 {
		settings.MaxObservations = baseConfig.Session.MaxObservations
	}
	if settings.ExtractionInterval == 0 {
		settings.ExtractionInterval = baseConfig.Extraction.Interval
	}
	if baseConfig.Extraction.EnableDiagnostics {
		settings.EnableDiagnostics = true
	}
	if baseConfig.Classifier.Enabled {
		settings.EnableClassifier = true
	}

	// Apply defaults
	applyMonitorDefaults(settings)

	// Override with CLI flags
	if ctx.Input != "" {
		monitorConfig.Capture.Input = ctx.Input
	}
	if ctx.SourceType != "" {
		monitorConfig.Capture.SourceType = ctx.SourceType
	}
	if ctx.Duration > 0 {
		settings.SessionDuration = ctx.Duration
	}
	if ctx.PollInterval > 0 {
		settings.PollInterval = ctx.PollInterval
	}
	if ctx.ExtractionInterval > 0 {
		settings.ExtractionInterval = ctx.ExtractionInterval
	}
	if ctx.MaxObservations > 0 {
		settings.MaxObservations = ctx.MaxObservations
	}
	if ctx.OutputFormat != "" {
		settings.OutputFormat = ctx.OutputFormat
	}
	if ctx.UntilCancelled {
		settings.SessionDuration = 0
	}

	if ctx.EnableDiagnostics {
		settings.EnableDiagnostics = true
	}
	if ctx.EnableClassifier {
		settings.EnableClassifier = true
	}

	return monitorConfig
}

// applyMonitorDefaults sets default values for session settings
func applyMonitorDefaults(settings *MonitorSettings) {
	if settings.PollInterval == 0 {
		settings.PollInterval = 500 * time.Millisecond
	}
	if settings.StatusInterval == 0 {
		settings.StatusInterval = 10 * time.Second
	}
	if settings.ExtractionInterval == 0 {
		settings.ExtractionInterval = 2 * time.Second
	}
	if settings.OutputFormat == "" {
		settings.OutputFormat = "json"
	}

	// Default output settings
	settings.PrettyPrint = true
	settings.GenerateSummary = true
}

// applyProfile overlays a named monitor profile onto the base configuration.
// Profile values land on the base config, so an explicit session file or CLI
// flag still wins.
func applyProfile(baseConfig *configs.Config, name string) error {
	profiles := baseConfig.Profiles
	if len(profiles) == 0 {
		profiles = configs.GetDefaultProfiles()
	}

	profile, ok := profiles[name]
	if !ok {
		known := make([]string, 0, len(profiles))
		for profileName := range profiles {
			known = append(known, profileName)
		}
		sort.Strings(known)
		return fmt.Errorf("unknown profile %q (known profiles: %s)", name, strings.Join(known, ", "))
	}

	if profile.Duration > 0 {
		baseConfig.Session.Duration = profile.Duration
	}
	if profile.Extraction.Interval > 0 {
		baseConfig.Extraction.Interval = profile.Extraction.Interval
	}
	if profile.Extraction.BandCount > 0 {
		baseConfig.Extraction.BandCount = profile.Extraction.BandCount
	}
	if profile.Extraction.CoefficientCount > 0 {
		baseConfig.Extraction.CoefficientCount = profile.Extraction.CoefficientCount
	}
	if profile.Extraction.EnableDiagnostics {
		baseConfig.Extraction.EnableDiagnostics = true
	}

	return nil
}

// GenerateExampleConfig generates an example session configuration file
func GenerateExampleConfig(outputFile string) error {
	exampleConfig := &MonitorConfig{
		Config: configs.GetDefaultConfig(),
		Monitor: MonitorSettings{
			SessionDuration:     30 * time.Second,
			PollInterval:        500 * time.Millisecond,
			StatusInterval:      10 * time.Second,
			MaxObservations:     0,
			ExtractionInterval:  2 * time.Second,
			EnableDiagnostics:   false,
			EnableClassifier:    false,
			OutputFormat:        "json",
			IncludeObservations: false,
			PrettyPrint:         true,
			GenerateSummary:     true,
		},
	}

	// Write to YAML file
	data, err := yaml.Marshal(exampleConfig)
	if err != nil {
		return fmt.Errorf("failed to marshal example config: %w", err)
	}

	// Ensure directory exists
	dir := filepath.Dir(outputFile)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	if err := os.WriteFile(outputFile, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	fmt.Printf("✅ Example session configuration written to: %s\n", outputFile)
	return nil
}

// ValidateConfig validates a configuration file
func ValidateConfig(configFile string) error {
	config, err := loadMonitorConfigFromFile(configFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Use default base config for validation
	baseConfig := configs.GetDefaultConfig()
	mergedConfig := mergeMonitorConfig(baseConfig, config, &Context{})

	if err := mergedConfig.Validate(); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	fmt.Printf("✅ Session configuration is valid: %s\n", configFile)
	fmt.Printf("   - Session duration: %.1fs\n", mergedConfig.Monitor.SessionDuration.Seconds())
	fmt.Printf("   - Extraction interval: %.1fs\n", mergedConfig.Monitor.ExtractionInterval.Seconds())

	return nil
}
