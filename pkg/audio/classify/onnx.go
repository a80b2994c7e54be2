package classify

import (
	"bufio"
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/getcharzp/go-speech"
	ort "github.com/getcharzp/onnxruntime_purego"
	"github.com/up-zero/gotool/convertutil"
)

// ONNXConfig configures the ONNX-backed classifier. The runtime library
// and threading fields are copied straight onto the ONNX bootstrap
// config, so their names must not change.
type ONNXConfig struct {
	OnnxRuntimeLibPath string `json:"onnx_runtime_lib_path" yaml:"onnx_runtime_lib_path"`
	ModelPath          string `json:"model_path" yaml:"model_path"`
	LabelsPath         string `json:"labels_path" yaml:"labels_path"`
	InputName          string `json:"input_name" yaml:"input_name"`
	OutputName         string `json:"output_name" yaml:"output_name"`
	InputWidth         int    `json:"input_width" yaml:"input_width"`
	UseCuda            bool   `json:"use_cuda" yaml:"use_cuda"`
	NumThreads         int    `json:"num_threads" yaml:"num_threads"`
	EnableCpuMemArena  bool   `json:"enable_cpu_mem_arena" yaml:"enable_cpu_mem_arena"`
}

// DefaultONNXConfig returns a configuration based on the common layout
func DefaultONNXConfig() ONNXConfig {
	return ONNXConfig{
		OnnxRuntimeLibPath: speech.DefaultLibraryPath(),
		ModelPath:          "./models/classifier.onnx",
		LabelsPath:         "./models/labels.txt",
		InputName:          "features",
		OutputName:         "logits",
		InputWidth:         12,
	}
}

// ONNXClassifier labels coefficient vectors with an ONNX model. The model
// takes a [1, InputWidth] float32 tensor and produces one logit per
// label; softmax over the logits gives the confidence.
type ONNXClassifier struct {
	session    *ort.Session
	labels     []string
	inputName  string
	outputName string
	inputWidth int
}

// NewONNXClassifier loads the labels file, bootstraps the ONNX runtime
// and opens a session for the model
func NewONNXClassifier(cfg ONNXConfig) (*ONNXClassifier, error) {
	if cfg.InputWidth < 1 {
		return nil, NewInferenceError(StageInit, ErrCodeConfig,
			fmt.Sprintf("input width must be at least 1, got %d", cfg.InputWidth), nil)
	}
	if cfg.InputName == "" || cfg.OutputName == "" {
		return nil, NewInferenceError(StageInit, ErrCodeConfig,
			"model input and output names are required", nil)
	}

	labels, err := loadLabels(cfg.LabelsPath)
	if err != nil {
		return nil, NewInferenceError(StageInit, ErrCodeLabels,
			"failed to load labels file", err)
	}

	oc := new(speech.OnnxConfig)
	_ = convertutil.CopyProperties(cfg, oc)

	if err := oc.New(); err != nil {
		return nil, NewInferenceError(StageInit, ErrCodeModel,
			"failed to initialize ONNX runtime", err)
	}

	session, err := oc.OnnxEngine.NewSession(cfg.ModelPath, oc.SessionOptions)
	if err != nil {
		return nil, NewInferenceError(StageInit, ErrCodeModel,
			"failed to create ONNX session", err)
	}

	return &ONNXClassifier{
		session:    session,
		labels:     labels,
		inputName:  cfg.InputName,
		outputName: cfg.OutputName,
		inputWidth: cfg.InputWidth,
	}, nil
}

// Classify runs one inference pass over a coefficient vector
func (c *ONNXClassifier) Classify(vector []float64) (*Classification, error) {
	if len(vector) != c.inputWidth {
		return nil, NewInferenceError(StageRun, ErrCodeInput,
			fmt.Sprintf("classifier expects %d coefficients, got %d",
				c.inputWidth, len(vector)), nil)
	}

	features := make([]float32, len(vector))
	for i, v := range vector {
		features[i] = float32(v)
	}

	tensor, err := ort.NewTensor([]int64{1, int64(c.inputWidth)}, features)
	if err != nil {
		return nil, NewInferenceError(StageRun, ErrCodeInference,
			"failed to create input tensor", err)
	}
	defer tensor.Destroy()

	outputs, err := c.session.Run(map[string]*ort.Value{
		c.inputName: tensor,
	})
	if err != nil {
		return nil, NewInferenceError(StageRun, ErrCodeInference,
			"inference run failed", err)
	}

	outputValue, ok := outputs[c.outputName]
	if !ok {
		return nil, NewInferenceError(StageRun, ErrCodeInference,
			fmt.Sprintf("model produced no output named %q", c.outputName), nil)
	}
	defer outputValue.Destroy()

	logits, err := ort.GetTensorData[float32](outputValue)
	if err != nil {
		return nil, NewInferenceError(StageRun, ErrCodeInference,
			"failed to read output tensor", err)
	}
	if len(logits) == 0 {
		return nil, NewInferenceError(StageRun, ErrCodeInference,
			"model produced an empty output", nil)
	}

	scores := softmax(logits)
	idx := argmax(scores)

	label := fmt.Sprintf("class_%d", idx)
	if idx < len(c.labels) {
		label = c.labels[idx]
	}

	return &Classification{
		Index:      idx,
		Label:      label,
		Confidence: float64(scores[idx]),
	}, nil
}

// Labels returns the label set in index order
func (c *ONNXClassifier) Labels() []string {
	return append([]string(nil), c.labels...)
}

// Close destroys the ONNX session
func (c *ONNXClassifier) Close() error {
	if c.session != nil {
		c.session.Destroy()
		c.session = nil
	}
	return nil
}

// loadLabels reads one label per line, ignoring blanks and # comments
func loadLabels(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var labels []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		labels = append(labels, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(labels) == 0 {
		return nil, fmt.Errorf("labels file %s contains no labels", path)
	}
	return labels, nil
}

// softmax converts logits to a probability distribution, shifted by the
// max logit for numeric stability
func softmax(logits []float32) []float32 {
	maxLogit := logits[0]
	for _, v := range logits[1:] {
		if v > maxLogit {
			maxLogit = v
		}
	}

	scores := make([]float32, len(logits))
	var sum float32
	for i, v := range logits {
		scores[i] = float32(math.Exp(float64(v - maxLogit)))
		sum += scores[i]
	}
	for i := range scores {
		scores[i] /= sum
	}
	return scores
}

func argmax(scores []float32) int {
	idx := 0
	for i, v := range scores {
		if v > scores[idx] {
			idx = i
		}
	}
	return idx
}
