// Package classify labels cepstral coefficient vectors. The engine treats
// classification as an optional collaborator: any implementation of
// Classifier can be attached, and classification failures never stop the
// extraction pipeline.
package classify

import (
	"fmt"
	"sort"
)

// Classification is the result of labelling one coefficient vector
type Classification struct {
	Index      int     `json:"index"`
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
}

// Classifier labels coefficient vectors
type Classifier interface {
	// Classify labels a single coefficient vector
	Classify(vector []float64) (*Classification, error)

	// Labels returns the label set in index order
	Labels() []string

	// Close releases any resources held by the classifier
	Close() error
}

// StaticClassifier buckets vectors by their zeroth coefficient against a
// sorted threshold list. It needs no model file, which makes it the
// default classifier and the one used in tests.
type StaticClassifier struct {
	labels     []string
	thresholds []float64
}

// NewStaticClassifier creates a threshold classifier. thresholds must be
// ascending and one shorter than labels: vectors whose zeroth coefficient
// falls below thresholds[i] get labels[i], everything at or above the
// last threshold gets the final label.
func NewStaticClassifier(labels []string, thresholds []float64) (*StaticClassifier, error) {
	if len(labels) == 0 {
		return nil, NewInferenceError(StageInit, ErrCodeConfig,
			"at least one label is required", nil)
	}
	if len(thresholds) != len(labels)-1 {
		return nil, NewInferenceError(StageInit, ErrCodeConfig,
			fmt.Sprintf("%d labels need %d thresholds, got %d",
				len(labels), len(labels)-1, len(thresholds)), nil)
	}
	if !sort.Float64sAreSorted(thresholds) {
		return nil, NewInferenceError(StageInit, ErrCodeConfig,
			"thresholds must be ascending", nil)
	}

	return &StaticClassifier{
		labels:     append([]string(nil), labels...),
		thresholds: append([]float64(nil), thresholds...),
	}, nil
}

// DefaultStaticClassifier separates silence from active signal. The
// zeroth coefficient of an all-zero spectrum sits near 2*log of the
// smallest positive float64, far below anything a live signal produces.
func DefaultStaticClassifier() *StaticClassifier {
	c, _ := NewStaticClassifier([]string{"silence", "active"}, []float64{-800})
	return c
}

// Classify buckets the vector by its zeroth coefficient
func (c *StaticClassifier) Classify(vector []float64) (*Classification, error) {
	if len(vector) == 0 {
		return nil, NewInferenceError(StageRun, ErrCodeInput,
			"cannot classify an empty vector", nil)
	}

	idx := sort.SearchFloat64s(c.thresholds, vector[0])
	if idx < len(c.thresholds) && vector[0] == c.thresholds[idx] {
		// Values exactly on a threshold belong to the upper bucket
		idx++
	}

	return &Classification{
		Index:      idx,
		Label:      c.labels[idx],
		Confidence: 1.0,
	}, nil
}

// Labels returns the label set in index order
func (c *StaticClassifier) Labels() []string {
	return append([]string(nil), c.labels...)
}

// Close is a no-op; the static classifier holds no resources
func (c *StaticClassifier) Close() error {
	return nil
}
