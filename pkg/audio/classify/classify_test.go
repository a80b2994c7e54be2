package classify

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStaticClassifierBuckets(t *testing.T) {
	classifier := DefaultStaticClassifier()
	require.NotNil(t, classifier)

	tests := []struct {
		name      string
		zeroth    float64
		wantIndex int
		wantLabel string
	}{
		{"silent spectrum", -1488.0, 0, "silence"},
		{"active signal", -100.0, 1, "active"},
		{"loud signal", 5.0, 1, "active"},
		{"exactly on threshold", -800.0, 1, "active"},
		{"just below threshold", -800.0001, 0, "silence"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vector := []float64{tt.zeroth, 0.1, -0.2}
			result, err := classifier.Classify(vector)
			require.NoError(t, err)
			assert.Equal(t, tt.wantIndex, result.Index)
			assert.Equal(t, tt.wantLabel, result.Label)
			assert.Equal(t, 1.0, result.Confidence)
		})
	}
}

func TestStaticClassifierThreeWay(t *testing.T) {
	classifier, err := NewStaticClassifier(
		[]string{"low", "mid", "high"}, []float64{-500, 0})
	require.NoError(t, err)

	result, err := classifier.Classify([]float64{-600})
	require.NoError(t, err)
	assert.Equal(t, "low", result.Label)

	result, err = classifier.Classify([]float64{-250})
	require.NoError(t, err)
	assert.Equal(t, "mid", result.Label)

	result, err = classifier.Classify([]float64{3})
	require.NoError(t, err)
	assert.Equal(t, "high", result.Label)
}

func TestStaticClassifierValidation(t *testing.T) {
	_, err := NewStaticClassifier(nil, nil)
	assert.Error(t, err)

	_, err = NewStaticClassifier([]string{"a", "b"}, nil)
	assert.Error(t, err)

	_, err = NewStaticClassifier([]string{"a", "b", "c"}, []float64{5, -5})
	assert.Error(t, err)

	var infErr *InferenceError
	_, err = NewStaticClassifier([]string{"a", "b"}, []float64{1, 2})
	require.ErrorAs(t, err, &infErr)
	assert.Equal(t, ErrCodeConfig, infErr.Code)
}

func TestStaticClassifierEmptyVector(t *testing.T) {
	classifier := DefaultStaticClassifier()

	_, err := classifier.Classify(nil)
	require.Error(t, err)

	var infErr *InferenceError
	require.ErrorAs(t, err, &infErr)
	assert.Equal(t, ErrCodeInput, infErr.Code)
}

func TestStaticClassifierLabelsCopy(t *testing.T) {
	classifier := DefaultStaticClassifier()

	labels := classifier.Labels()
	labels[0] = "mutated"

	assert.Equal(t, "silence", classifier.Labels()[0])
	assert.NoError(t, classifier.Close())
}

func TestLoadLabels(t *testing.T) {
	path := filepath.Join(t.TempDir(), "labels.txt")
	content := "# model labels\nspeech\nmusic\n\nnoise\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	labels, err := loadLabels(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"speech", "music", "noise"}, labels)
}

func TestLoadLabelsMissingFile(t *testing.T) {
	_, err := loadLabels(filepath.Join(t.TempDir(), "absent.txt"))
	assert.Error(t, err)
}

func TestLoadLabelsEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "labels.txt")
	require.NoError(t, os.WriteFile(path, []byte("# nothing here\n\n"), 0o644))

	_, err := loadLabels(path)
	assert.Error(t, err)
}

func TestSoftmax(t *testing.T) {
	scores := softmax([]float32{1, 2, 3})

	var sum float32
	for _, s := range scores {
		sum += s
	}
	assert.InDelta(t, 1.0, float64(sum), 1e-5)
	assert.Equal(t, 2, argmax(scores))

	// Shifting by the max keeps huge logits finite.
	scores = softmax([]float32{1000, 999})
	assert.False(t, math.IsNaN(float64(scores[0])))
	assert.InDelta(t, 0.731, float64(scores[0]), 0.01)
	assert.InDelta(t, 0.269, float64(scores[1]), 0.01)
}

func TestONNXClassifierInputWidth(t *testing.T) {
	// The width check runs before any session work, so no model is
	// needed to exercise it.
	classifier := &ONNXClassifier{
		inputName:  "features",
		outputName: "logits",
		inputWidth: 12,
	}

	_, err := classifier.Classify(make([]float64, 5))
	require.Error(t, err)

	var infErr *InferenceError
	require.ErrorAs(t, err, &infErr)
	assert.Equal(t, ErrCodeInput, infErr.Code)
}

func TestNewONNXClassifierValidation(t *testing.T) {
	cfg := DefaultONNXConfig()
	cfg.InputWidth = 0
	_, err := NewONNXClassifier(cfg)
	assert.Error(t, err)

	cfg = DefaultONNXConfig()
	cfg.InputName = ""
	_, err = NewONNXClassifier(cfg)
	assert.Error(t, err)

	// A missing labels file fails before the runtime library is touched.
	cfg = DefaultONNXConfig()
	cfg.LabelsPath = filepath.Join(t.TempDir(), "absent.txt")
	_, err = NewONNXClassifier(cfg)
	require.Error(t, err)

	var infErr *InferenceError
	require.ErrorAs(t, err, &infErr)
	assert.Equal(t, ErrCodeLabels, infErr.Code)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}
