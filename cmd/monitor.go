package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/RyanBlaney/cepstral-monitor/internal/app"
)

var (
	// Monitor command flags
	monitorConfigFile         string
	monitorOutputFile         string
	monitorInput              string
	monitorSourceType         string
	monitorProfile            string
	monitorDuration           time.Duration
	monitorPollInterval       time.Duration
	monitorExtractionInterval time.Duration
	monitorMaxObservations    int
	monitorUntilCancelled     bool
	monitorQuiet              bool
	monitorDiagnostics        bool
	monitorClassifier         bool
)

// monitorCmd represents the monitor command
var monitorCmd = &cobra.Command{
	Use:   "monitor [flags]",
	Short: "Run a cepstral monitoring session",
	Long: `Run a monitoring session against the configured capture source.

The session arms the extraction engine, polls it on a fixed cadence and
records every new cepstral vector as an observation. When the duration
elapses or the process is interrupted, it reports per-coefficient
statistics and an optional classification breakdown.

Examples:
  # Monitor the synthetic source with default settings
  cepstral-monitor monitor

  # Monitor a WAV file for five minutes
  cepstral-monitor monitor --input recording.wav --duration 5m

  # Raw PCM feed, run until interrupted, classify every vector
  cepstral-monitor monitor --input feed.pcm --source-type pcm --until-cancelled --classifier

  # Use the soak profile and write JSON results to a file
  cepstral-monitor monitor --profile soak --output json --output-file results.json`,
	RunE: runMonitor,
}

func init() {
	rootCmd.AddCommand(monitorCmd)

	monitorCmd.Flags().StringVarP(&monitorConfigFile, "session-config", "c", "",
		"session configuration file (YAML or JSON)")
	monitorCmd.Flags().StringVar(&monitorOutputFile, "output-file", "",
		"write results to file instead of stdout")
	monitorCmd.Flags().StringVarP(&monitorInput, "input", "i", "",
		"input file path (WAV or raw PCM); empty selects the synthetic source")
	monitorCmd.Flags().StringVar(&monitorSourceType, "source-type", "",
		"capture source type (wav, pcm, synthetic, auto)")
	monitorCmd.Flags().StringVarP(&monitorProfile, "profile", "p", "",
		"monitoring profile to apply")
	monitorCmd.Flags().DurationVarP(&monitorDuration, "duration", "d", 0,
		"session duration (default from configuration)")
	monitorCmd.Flags().DurationVar(&monitorPollInterval, "poll-interval", 0,
		"snapshot poll cadence")
	monitorCmd.Flags().DurationVar(&monitorExtractionInterval, "extraction-interval", 0,
		"extraction trigger cadence")
	monitorCmd.Flags().IntVar(&monitorMaxObservations, "max-observations", 0,
		"stop after this many observations (0 = unlimited)")
	monitorCmd.Flags().BoolVar(&monitorUntilCancelled, "until-cancelled", false,
		"ignore the configured duration and run until interrupted")
	monitorCmd.Flags().BoolVarP(&monitorQuiet, "quiet", "q", false,
		"suppress status lines and the summary")
	monitorCmd.Flags().BoolVar(&monitorDiagnostics, "diagnostics", false,
		"attach spectral diagnostics to every observation")
	monitorCmd.Flags().BoolVar(&monitorClassifier, "classifier", false,
		"classify every extracted vector")
}

func runMonitor(cmd *cobra.Command, args []string) error {
	appCtx := &app.Context{
		ConfigFile:         monitorConfigFile,
		OutputFile:         monitorOutputFile,
		Input:              monitorInput,
		SourceType:         monitorSourceType,
		Profile:            monitorProfile,
		Duration:           monitorDuration,
		PollInterval:       monitorPollInterval,
		ExtractionInterval: monitorExtractionInterval,
		MaxObservations:    monitorMaxObservations,
		UntilCancelled:     monitorUntilCancelled,
		Verbose:            viper.GetBool("verbose"),
		Quiet:              monitorQuiet,
		EnableDiagnostics:  monitorDiagnostics,
		EnableClassifier:   monitorClassifier,
	}

	// Only an explicit -o should override the session file's format
	if flag := cmd.Flag("output"); flag != nil && flag.Changed {
		appCtx.OutputFormat = flag.Value.String()
	}

	monitorApp, err := app.NewMonitorApp(appCtx)
	if err != nil {
		return fmt.Errorf("failed to initialize monitor: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		sig := <-sigChan
		if !monitorQuiet {
			fmt.Printf("\nReceived %v, stopping session...\n", sig)
		}
		cancel()
	}()

	return monitorApp.Run(ctx)
}
