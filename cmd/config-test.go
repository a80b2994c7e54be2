package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/RyanBlaney/cepstral-monitor/configs"
	"github.com/RyanBlaney/cepstral-monitor/internal/app"
)

var (
	configTestGenerate string
	configTestValidate string
)

// configTestCmd represents the config test command
var configTestCmd = &cobra.Command{
	Use:   "config-test",
	Short: "Test and display all configuration values",
	Long: `Test configuration loading and display all values to verify proper parsing.

This command loads the configuration and displays all values in a structured format
to help verify that your YAML configuration is being parsed correctly.

Examples:
  # Test with default config file
  cepstral-monitor config-test

  # Test with specific config file
  cepstral-monitor --config /path/to/config.yaml config-test

  # Write an example session configuration
  cepstral-monitor config-test --generate-example session.yaml

  # Validate a session configuration file
  cepstral-monitor config-test --validate session.yaml`,
	RunE: runConfigTest,
}

func init() {
	rootCmd.AddCommand(configTestCmd)

	configTestCmd.Flags().StringVar(&configTestGenerate, "generate-example", "",
		"write an example session configuration to the given path and exit")
	configTestCmd.Flags().StringVar(&configTestValidate, "validate", "",
		"validate a session configuration file and exit")
}

func runConfigTest(cmd *cobra.Command, args []string) error {
	if configTestGenerate != "" {
		return app.GenerateExampleConfig(configTestGenerate)
	}
	if configTestValidate != "" {
		return app.ValidateConfig(configTestValidate)
	}

	fmt.Println("CEPSTRAL MONITOR CONFIGURATION TEST")
	fmt.Println(strings.Repeat("=", 80))

	// Load configuration
	config, err := configs.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	printSection("APPLICATION SETTINGS")
	printKeyValue("Verbose", fmt.Sprintf("%t", config.Verbose))
	printKeyValue("Log Level", config.LogLevel)
	printKeyValue("Output Format", config.OutputFormat)
	printKeyValue("Config Directory", config.ConfigDir)
	printKeyValue("Data Directory", config.DataDir)

	printSection("CAPTURE CONFIGURATION")
	if config.Capture.Input != "" {
		printKeyValue("Input", config.Capture.Input)
	} else {
		printKeyValue("Input", "(synthetic)")
	}
	printKeyValue("Source Type", config.Capture.SourceType)
	printKeyValue("Sample Rate", fmt.Sprintf("%d Hz", config.Capture.SampleRate))
	printKeyValue("FFT Size", fmt.Sprintf("%d", config.Capture.FFTSize))
	printKeyValue("Hop Size", fmt.Sprintf("%d", config.Capture.HopSize))
	printKeyValue("Window Function", config.Capture.WindowFunction)
	printKeyValue("Sample Format", config.Capture.SampleFormat)

	printSubsection("Synthetic Generator")
	printKeyValue("  Base Frequency", fmt.Sprintf("%.1f Hz", config.Capture.Synthetic.BaseFrequency))
	printKeyValue("  Harmonic Count", fmt.Sprintf("%d", config.Capture.Synthetic.HarmonicCount))
	printKeyValue("  Noise Level", fmt.Sprintf("%.3f", config.Capture.Synthetic.NoiseLevel))
	printKeyValue("  Seed", fmt.Sprintf("%d", config.Capture.Synthetic.Seed))

	printSection("EXTRACTION CONFIGURATION")
	printKeyValue("Interval", config.Extraction.Interval.String())
	printKeyValue("Band Count", fmt.Sprintf("%d", config.Extraction.BandCount))
	printKeyValue("Coefficient Count", fmt.Sprintf("%d", config.Extraction.CoefficientCount))
	printKeyValue("Diagnostics", fmt.Sprintf("%t", config.Extraction.EnableDiagnostics))

	printSection("CLASSIFIER CONFIGURATION")
	printKeyValue("Enabled", fmt.Sprintf("%t", config.Classifier.Enabled))
	printKeyValue("Backend", config.Classifier.Backend)
	printKeyValue("Model Path", config.Classifier.ModelPath)
	printKeyValue("Labels Path", config.Classifier.LabelsPath)
	if config.Classifier.RuntimeLibPath != "" {
		printKeyValue("Runtime Library", config.Classifier.RuntimeLibPath)
	}
	printKeyValue("Input Name", config.Classifier.InputName)
	printKeyValue("Output Name", config.Classifier.OutputName)
	printKeyValue("Use CUDA", fmt.Sprintf("%t", config.Classifier.UseCuda))
	printKeyValue("Threads", fmt.Sprintf("%d", config.Classifier.NumThreads))
	printKeyValue("Labels", fmt.Sprintf("(%d) %v", len(config.Classifier.Labels), config.Classifier.Labels))
	printKeyValue("Thresholds", fmt.Sprintf("(%d) %v", len(config.Classifier.Thresholds), config.Classifier.Thresholds))

	printSection("SESSION CONFIGURATION")
	printKeyValue("Duration", config.Session.Duration.String())
	printKeyValue("Poll Interval", config.Session.PollInterval.String())
	printKeyValue("Status Interval", config.Session.StatusInterval.String())
	printKeyValue("Max Observations", fmt.Sprintf("%d", config.Session.MaxObservations))

	printSection("OUTPUT CONFIGURATION")
	printKeyValue("Precision", fmt.Sprintf("%d", config.Output.Precision))
	printKeyValue("Include Metadata", fmt.Sprintf("%t", config.Output.IncludeMetadata))
	printKeyValue("Include Observations", fmt.Sprintf("%t", config.Output.IncludeObservations))
	printKeyValue("Timestamps", fmt.Sprintf("%t", config.Output.Timestamps))
	printKeyValue("Colors", fmt.Sprintf("%t", config.Output.Colors))

	printSection("PROFILES")
	// The profile table falls back to the built-ins, matching session resolution
	profiles := config.Profiles
	if len(profiles) == 0 {
		profiles = configs.GetDefaultProfiles()
	}
	for name, profile := range profiles {
		printSubsection(strings.ToUpper(name))
		printKeyValue("  Name", profile.Name)
		printKeyValue("  Description", profile.Description)
		printKeyValue("  Duration", profile.Duration.String())
		printKeyValue("  Extraction Interval", profile.Extraction.Interval.String())
		printKeyValue("  Band Count", fmt.Sprintf("%d", profile.Extraction.BandCount))
		printKeyValue("  Coefficient Count", fmt.Sprintf("%d", profile.Extraction.CoefficientCount))
		printKeyValue("  Diagnostics", fmt.Sprintf("%t", profile.Extraction.EnableDiagnostics))
		if len(profile.Tags) > 0 {
			printKeyValue("  Tags", fmt.Sprintf("(%d)", len(profile.Tags)))
			for key, value := range profile.Tags {
				printKeyValue("    "+key, value)
			}
		}
	}

	fmt.Println()
	fmt.Println(ColorGreen + strings.Repeat("-", 80))
	fmt.Println("CONFIGURATION TEST COMPLETED SUCCESSFULLY")
	fmt.Printf("Config file: %s\n", getConfigFilePath())
	fmt.Println(strings.Repeat("=", 80) + ColorReset)

	return nil
}

func printSection(title string) {
	fmt.Printf("\n%s\n", title)
	fmt.Println(strings.Repeat("-", len(title)))
}

func printSubsection(title string) {
	fmt.Printf("\n  %s\n", title)
}

func printKeyValue(key, value string) {
	if value == "" {
		fmt.Printf("%-35s\n", key)
	} else {
		fmt.Printf("%-35s %s\n", key+":", value)
	}
}

func getConfigFilePath() string {
	if used := viper.ConfigFileUsed(); used != "" {
		return used
	}
	homeDir, _ := os.UserHomeDir()
	return fmt.Sprintf("%s/.config/cepstral-monitor/cepstral-monitor.yaml", homeDir)
}
