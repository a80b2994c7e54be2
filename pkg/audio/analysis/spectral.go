package analysis

import (
	"fmt"
	"math/cmplx"

	"github.com/RyanBlaney/latency-benchmark-common/logging"
	"github.com/mjibson/go-dsp/fft"
)

// SpectralAnalyzer provides core FFT and magnitude spectrum functionality
type SpectralAnalyzer struct {
	windowGenerator *WindowGenerator
	windowType      WindowType
	sampleRate      int
	logger          logging.Logger
}

// NewSpectralAnalyzer creates a new spectral analyzer
func NewSpectralAnalyzer(sampleRate int, windowType WindowType) *SpectralAnalyzer {
	return &SpectralAnalyzer{
		windowGenerator: NewWindowGenerator(),
		windowType:      windowType,
		sampleRate:      sampleRate,
		logger: logging.WithFields(logging.Fields{
			"component":   "spectral_analyzer",
			"sample_rate": sampleRate,
		}),
	}
}

// FFT computes Fast Fourier Transform using mjibson/go-dsp.
// Handles all sizes efficiently, including non-power-of-2.
func (sa *SpectralAnalyzer) FFT(x []float64) []complex128 {
	if len(x) == 0 {
		return []complex128{}
	}

	return fft.FFTReal(x)
}

// ComputeMagnitudes windows the signal and returns the full-length magnitude
// spectrum, mirror half included. Downstream band partitioning addresses the
// lower half of this array by index, so the array length must stay equal to
// the FFT size.
func (sa *SpectralAnalyzer) ComputeMagnitudes(signal []float64) ([]float64, error) {
	if len(signal) == 0 {
		return nil, fmt.Errorf("empty signal")
	}

	windowed, err := sa.windowGenerator.Apply(signal, sa.windowType)
	if err != nil {
		return nil, fmt.Errorf("windowing failed: %w", err)
	}

	fftResult := sa.FFT(windowed)

	magnitudes := make([]float64, len(fftResult))
	for i, bin := range fftResult {
		magnitudes[i] = cmplx.Abs(bin)
	}

	return magnitudes, nil
}

// PositiveHalf returns the non-mirrored bins of a full-length magnitude
// spectrum, DC and Nyquist included
func PositiveHalf(magnitudes []float64) []float64 {
	if len(magnitudes) == 0 {
		return nil
	}

	freqBins := len(magnitudes)/2 + 1
	freqBins = min(len(magnitudes), freqBins)

	return magnitudes[:freqBins]
}

// GetFrequencyBins returns frequency values for each positive-half bin
func (sa *SpectralAnalyzer) GetFrequencyBins(numBins int) []float64 {
	freqs := make([]float64, numBins)
	for i := range numBins {
		freqs[i] = float64(i) * float64(sa.sampleRate) / float64((numBins-1)*2)
	}
	return freqs
}

// SampleRate returns the sample rate the analyzer was configured with
func (sa *SpectralAnalyzer) SampleRate() int {
	return sa.sampleRate
}
