package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

var (
	configFile   string
	verbose      bool
	logLevel     string
	outputFormat string
	configDir    string
	dataDir      string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "cepstral-monitor",
	Short: "Streaming cepstral feature monitor",
	Long: `A monitoring tool that watches an audio signal through its mel-frequency
cepstral coefficients. It slices spectrum frames from a WAV file, raw PCM
stream or synthetic generator, condenses each frame into a compact cepstral
vector on a fixed cadence, and reports per-coefficient statistics for the
session.

Key features:
- Streaming MFCC extraction with rectangular mel filters
- WAV, raw PCM and synthetic capture sources
- Optional ONNX or threshold-based frame classification
- Per-coefficient session statistics and distribution summaries
- Periodic status reporting with configurable cadence
- Configurable monitoring profiles and output formats`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initializeConfig(cmd)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global persistent flags
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "",
		"config directory (default is $HOME/.config/cepstral-monitor)")

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "",
		"config file (default is $HOME/.config/cepstral-monitor/cepstral-monitor.yaml)")

	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "",
		"data directory (default is $HOME/.local/share/cepstral-monitor)")

	// Output and logging flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"verbose output")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info",
		"log level (debug, info, error)")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "table",
		"output format (json, table, csv, yaml)")

	viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("output_format", rootCmd.PersistentFlags().Lookup("output"))
	viper.BindPFlag("config_dir", rootCmd.PersistentFlags().Lookup("config-dir"))
	viper.BindPFlag("data_dir", rootCmd.PersistentFlags().Lookup("data-dir"))
}

// initConfig reads in config file and ENV variables if set
func initConfig() {
	if configFile != "" {
		// Use config file from the flag
		viper.SetConfigFile(configFile)
	} else {
		// Find home directory
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error finding home directory: %v\n", err)
			os.Exit(1)
		}

		// Search config in home directory and /etc
		viper.AddConfigPath(home)
		viper.AddConfigPath(filepath.Join(home, ".config", "cepstral-monitor"))
		viper.AddConfigPath("/etc/cepstral-monitor")
		viper.AddConfigPath("./configs")
		viper.SetConfigName("cepstral-monitor")
		viper.SetConfigType("yaml")
	}

	// Environment variable support
	viper.SetEnvPrefix("CEPSTRAL_MONITOR")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	viper.AutomaticEnv()

	// Set default values
	setDefaults()

	// If a config file is found, read it in
	if err := viper.ReadInConfig(); err == nil {
		if viper.GetBool("verbose") {
			fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
		}
	}
}

// initializeConfig initializes configuration after flags are parsed
func initializeConfig(cmd *cobra.Command) error {
	// Bind all flags to viper
	return bindFlags(cmd, viper.GetViper())
}

// bindFlags binds each cobra flag to its associated viper configuration
func bindFlags(cmd *cobra.Command, v *viper.Viper) error {
	var lastErr error

	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		// Environment variable name
		envVarSuffix := strings.ToUpper(strings.ReplaceAll(f.Name, "-", "_"))

		// Apply the viper config value to the flag when the flag is not set
		// and viper has a value. Flag names that double as section keys
		// ("output") resolve to nested maps, which cannot round-trip
		// through a flag value.
		if !f.Changed && v.IsSet(f.Name) {
			val := v.Get(f.Name)
			if _, isSection := val.(map[string]any); !isSection {
				if err := cmd.Flags().Set(f.Name, fmt.Sprintf("%v", val)); err != nil {
					lastErr = err
				}
			}
		}

		// Bind the flag to viper
		if err := v.BindPFlag(f.Name, f); err != nil {
			lastErr = err
		}

		// Bind to environment variable
		if err := v.BindEnv(f.Name, "CEPSTRAL_MONITOR_"+envVarSuffix); err != nil {
			lastErr = err
		}
	})

	return lastErr
}

// setDefaults sets default configuration values
func setDefaults() {
	// Application defaults
	viper.SetDefault("verbose", false)
	viper.SetDefault("log_level", "info")
	viper.SetDefault("output_format", "table")

	// Directory defaults
	home, _ := os.UserHomeDir()
	viper.SetDefault("config_dir", filepath.Join(home, ".config", "cepstral-monitor"))
	viper.SetDefault("data_dir", filepath.Join(home, ".local", "share", "cepstral-monitor"))

	// Capture defaults
	viper.SetDefault("capture.source_type", "auto")
	viper.SetDefault("capture.sample_rate", 8000)
	viper.SetDefault("capture.fft_size", 256)
	viper.SetDefault("capture.hop_size", 128)
	viper.SetDefault("capture.window_function", "hann")

	// Extraction defaults
	viper.SetDefault("extraction.interval", "2s")
	viper.SetDefault("extraction.band_count", 26)
	viper.SetDefault("extraction.coefficient_count", 12)

	// Session defaults
	viper.SetDefault("session.duration", "30s")
	viper.SetDefault("session.poll_interval", "500ms")
	viper.SetDefault("session.status_interval", "10s")

	// Output defaults
	viper.SetDefault("output.precision", 3)
	viper.SetDefault("output.include_metadata", true)
	viper.SetDefault("output.timestamps", true)
}

// GetConfig returns the current viper instance
func GetConfig() *viper.Viper {
	return viper.GetViper()
}
