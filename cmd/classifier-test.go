package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/RyanBlaney/cepstral-monitor/configs"
	"github.com/RyanBlaney/cepstral-monitor/pkg/audio/capture"
	"github.com/RyanBlaney/cepstral-monitor/pkg/audio/mfcc"
)

var ( // clt => classifier-test
	cltVerbose bool
	cltBackend string
	cltFrames  int
	cltTimeout time.Duration
)

var classifierTestCmd = &cobra.Command{
	Use:   "classifier-test [input]",
	Short: "Test classifier construction and inference",
	Long: `Construct the configured classifier and run it against cepstral vectors
extracted from an input file or the synthetic source.

Examples:
  # Classify synthetic vectors with the static classifier
  cepstral-monitor classifier-test

  # Classify vectors from a WAV file with the ONNX backend
  cepstral-monitor classifier-test recording.wav --backend onnx`,
	Args: cobra.MaximumNArgs(1),
	RunE: runClassifierTest,
}

func init() {
	rootCmd.AddCommand(classifierTestCmd)

	classifierTestCmd.Flags().BoolVarP(&cltVerbose, "verbose", "v", false,
		"verbose output (overrides global verbose)")
	classifierTestCmd.Flags().StringVar(&cltBackend, "backend", "",
		"classifier backend (static, onnx)")
	classifierTestCmd.Flags().IntVar(&cltFrames, "frames", 5,
		"number of vectors to classify")
	classifierTestCmd.Flags().DurationVarP(&cltTimeout, "timeout", "T", time.Second*30,
		"timeout for source acquisition")
}

func runClassifierTest(cmd *cobra.Command, args []string) error {
	verbose := cltVerbose || viper.GetBool("verbose")

	fmt.Printf("🧪 Classifier Test\n")
	fmt.Printf("==================\n\n")

	ctx, cancel := context.WithTimeout(context.Background(), cltTimeout)
	defer cancel()

	timer := NewPerformanceTimer()
	timer.StartEvent("overall")

	// Step 1: Configuration
	timer.StartEvent("config_loading")
	fmt.Printf("⚙️  Configuration Loading...\n")

	appConfig, err := configs.LoadConfig()
	if err != nil {
		return fmt.Errorf("   %sFailed to load config: %v%s", ColorRed, err, ColorReset)
	}
	if len(args) > 0 {
		appConfig.Capture.Input = args[0]
	}
	if cltBackend != "" {
		appConfig.Classifier.Backend = cltBackend
	}
	fmt.Printf("   ✅ Application configuration loaded\n\n")
	timer.EndEvent("config_loading")

	// Step 2: Classifier construction
	timer.StartEvent("classifier_setup")
	fmt.Printf("🏗️  Creating %s classifier...\n", appConfig.Classifier.Backend)

	classifier, err := buildExtractClassifier(appConfig)
	if err != nil {
		return fmt.Errorf("   %sFailed to create classifier: %v%s", ColorRed, err, ColorReset)
	}
	defer classifier.Close()

	labels := classifier.Labels()
	fmt.Printf("   ✅ Classifier ready\n")
	fmt.Printf("      Labels: (%d) %v\n\n", len(labels), labels)
	timer.EndEvent("classifier_setup")

	// Step 3: Vector extraction
	timer.StartEvent("vector_extraction")
	fmt.Printf("🎵 Extracting %d vectors...\n", cltFrames)

	sourceConfig := appConfig.Capture.ToSourceConfig()
	factory := capture.NewFactory()

	source, err := factory.CreateSource(sourceConfig.Type, sourceConfig)
	if err != nil {
		return fmt.Errorf("   %sFailed to create capture source: %v%s", ColorRed, err, ColorReset)
	}

	if err := source.Acquire(ctx); err != nil {
		return fmt.Errorf("   %sFailed to acquire capture source: %v%s", ColorRed, err, ColorReset)
	}
	defer source.Release()

	extractor, err := mfcc.NewExtractor(appConfig.Extraction.ToParams())
	if err != nil {
		return fmt.Errorf("   %sFailed to create extractor: %v%s", ColorRed, err, ColorReset)
	}

	vectors := make([][]float64, 0, cltFrames)
	for len(vectors) < cltFrames {
		frame, ok := source.Latest()
		if !ok {
			fmt.Printf("   ⚠️  Source ran out after %d vectors\n", len(vectors))
			break
		}

		result, err := extractor.Compute(frame.Magnitudes)
		if err != nil {
			return fmt.Errorf("   %sFailed to extract frame %d: %v%s", ColorRed, frame.Sequence, err, ColorReset)
		}
		vectors = append(vectors, result.Coefficients)
	}

	if len(vectors) == 0 {
		return fmt.Errorf("   %sNo frames available from source%s", ColorRed, ColorReset)
	}
	fmt.Printf("   ✅ Extracted %d vectors\n\n", len(vectors))
	timer.EndEvent("vector_extraction")

	// Step 4: Inference
	timer.StartEvent("inference")
	fmt.Printf("🔮 Classifying...\n")

	labelCounts := make(map[string]int)
	confidenceOK := true
	indexOK := true

	for i, vector := range vectors {
		classification, err := classifier.Classify(vector)
		if err != nil {
			return fmt.Errorf("   %sFailed to classify vector %d: %v%s", ColorRed, i, err, ColorReset)
		}

		fmt.Printf("   %2d: %-14s (confidence %.3f, c0 %.2f)\n",
			i+1, classification.Label, classification.Confidence, vector[0])

		labelCounts[classification.Label]++
		if classification.Confidence < 0 || classification.Confidence > 1 {
			confidenceOK = false
		}
		if classification.Index < 0 || classification.Index >= len(labels) {
			indexOK = false
		}

		if verbose {
			jsonData, err := json.MarshalIndent(classification, "", "  ")
			if err == nil {
				fmt.Println(string(jsonData))
			}
		}
	}
	fmt.Println()
	timer.EndEvent("inference")

	fmt.Printf("📊 Label Breakdown:\n")
	for _, label := range labels {
		fmt.Printf("   %-14s %d\n", titleCaser.String(label), labelCounts[label])
	}
	fmt.Println()

	fmt.Printf("🔍 Validation:\n")
	printResult("Construction", classifier != nil)
	printResult("Inference", len(labelCounts) > 0)
	printResult("Confidence Range", confidenceOK)
	printResult("Label Indexes", indexOK)
	fmt.Println()

	fmt.Printf("⏱️  Performance Summary:\n")
	fmt.Printf("   Configuration: %.1fms\n", timer.GetDuration("config_loading").Seconds()*1000)
	fmt.Printf("   Classifier Setup: %.1fms\n", timer.GetDuration("classifier_setup").Seconds()*1000)
	fmt.Printf("   Vector Extraction: %.1fms\n", timer.GetDuration("vector_extraction").Seconds()*1000)
	fmt.Printf("   Inference: %.1fms (%.2fms per vector)\n",
		timer.GetDuration("inference").Seconds()*1000,
		timer.GetDuration("inference").Seconds()*1000/float64(len(vectors)))
	fmt.Printf("   Total: %.1fms\n", timer.EndEvent("overall").Seconds()*1000)

	return nil
}
