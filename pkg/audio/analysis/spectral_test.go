package analysis

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWindowGeneration(t *testing.T) {
	wg := NewWindowGenerator()

	tests := []struct {
		name       string
		windowType WindowType
		size       int
		wantErr    bool
	}{
		{"hann window", WindowHann, 512, false},
		{"hamming window", WindowHamming, 512, false},
		{"blackman window", WindowBlackman, 512, false},
		{"rectangular window", WindowRectangular, 512, false},
		{"unknown window type", WindowType("kaiser"), 512, true},
		{"zero size", WindowHann, 0, true},
		{"negative size", WindowHann, -4, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			window, err := wg.Generate(tt.windowType, tt.size)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Len(t, window, tt.size)
		})
	}
}

func TestWindowShapes(t *testing.T) {
	wg := NewWindowGenerator()
	const size = 64

	hann, err := wg.Generate(WindowHann, size)
	require.NoError(t, err)
	assert.InDelta(t, 0.0, hann[0], 1e-12)
	assert.InDelta(t, 0.0, hann[size-1], 1e-12)
	assert.InDelta(t, 1.0, hann[(size-1)/2], 0.01)

	hamming, err := wg.Generate(WindowHamming, size)
	require.NoError(t, err)
	assert.InDelta(t, 0.08, hamming[0], 1e-12)
	assert.InDelta(t, 0.08, hamming[size-1], 1e-12)

	rect, err := wg.Generate(WindowRectangular, size)
	require.NoError(t, err)
	for _, coeff := range rect {
		assert.Equal(t, 1.0, coeff)
	}
}

func TestWindowCaching(t *testing.T) {
	wg := NewWindowGenerator()

	first, err := wg.Generate(WindowHann, 256)
	require.NoError(t, err)
	second, err := wg.Generate(WindowHann, 256)
	require.NoError(t, err)

	// Same table instance from the cache
	assert.Same(t, &first[0], &second[0])
}

func TestSinglePointWindow(t *testing.T) {
	wg := NewWindowGenerator()

	window, err := wg.Generate(WindowHann, 1)
	require.NoError(t, err)
	assert.Equal(t, []float64{1.0}, window)
}

func TestComputeMagnitudesDC(t *testing.T) {
	sa := NewSpectralAnalyzer(8000, WindowRectangular)

	signal := []float64{1, 1, 1, 1, 1, 1, 1, 1}
	magnitudes, err := sa.ComputeMagnitudes(signal)
	require.NoError(t, err)
	require.Len(t, magnitudes, len(signal))

	// All energy collapses into the DC bin
	assert.InDelta(t, float64(len(signal)), magnitudes[0], 1e-9)
	for i := 1; i < len(magnitudes); i++ {
		assert.InDelta(t, 0.0, magnitudes[i], 1e-9, "bin %d", i)
	}
}

func TestComputeMagnitudesSine(t *testing.T) {
	sa := NewSpectralAnalyzer(8000, WindowRectangular)

	const size = 64
	const cycleBin = 4

	signal := make([]float64, size)
	for n := range signal {
		signal[n] = math.Sin(2 * math.Pi * cycleBin * float64(n) / size)
	}

	magnitudes, err := sa.ComputeMagnitudes(signal)
	require.NoError(t, err)

	// A bin-aligned sine concentrates in its bin and the mirror bin
	assert.InDelta(t, size/2.0, magnitudes[cycleBin], 1e-6)
	assert.InDelta(t, size/2.0, magnitudes[size-cycleBin], 1e-6)
	assert.InDelta(t, 0.0, magnitudes[0], 1e-6)
	assert.InDelta(t, 0.0, magnitudes[cycleBin+2], 1e-6)
}

func TestComputeMagnitudesEmptySignal(t *testing.T) {
	sa := NewSpectralAnalyzer(8000, WindowHann)

	_, err := sa.ComputeMagnitudes(nil)
	assert.Error(t, err)
}

func TestPositiveHalf(t *testing.T) {
	full := make([]float64, 64)
	half := PositiveHalf(full)
	assert.Len(t, half, 33)

	assert.Nil(t, PositiveHalf(nil))
	assert.Len(t, PositiveHalf([]float64{1.0}), 1)
}

func TestGetFrequencyBins(t *testing.T) {
	sa := NewSpectralAnalyzer(8000, WindowHann)

	freqs := sa.GetFrequencyBins(33)
	require.Len(t, freqs, 33)
	assert.Equal(t, 0.0, freqs[0])
	assert.InDelta(t, 4000.0, freqs[len(freqs)-1], 1e-9)
}

func TestFrameDiagnostics(t *testing.T) {
	fd := NewFrameDiagnostics(8000)
	sa := NewSpectralAnalyzer(8000, WindowHann)

	signal := make([]float64, 128)
	for n := range signal {
		signal[n] = math.Sin(2*math.Pi*1000*float64(n)/8000) +
			0.3*math.Sin(2*math.Pi*2500*float64(n)/8000)
	}

	magnitudes, err := sa.ComputeMagnitudes(signal)
	require.NoError(t, err)

	profile := fd.Analyze(magnitudes)
	require.NotNil(t, profile)

	assert.False(t, math.IsNaN(profile.SpectralCentroid))
	assert.False(t, math.IsNaN(profile.SpectralRolloff))
	assert.False(t, math.IsNaN(profile.SpectralFlatness))
	assert.False(t, math.IsNaN(profile.SpectralCrest))
	assert.Greater(t, profile.Energy, 0.0)

	// Energy must match the sum of squared positive-half magnitudes
	wantEnergy := 0.0
	for _, mag := range PositiveHalf(magnitudes) {
		wantEnergy += mag * mag
	}
	assert.InDelta(t, wantEnergy, profile.Energy, 1e-9)
}

func TestFrameDiagnosticsEmptyFrame(t *testing.T) {
	fd := NewFrameDiagnostics(8000)

	profile := fd.Analyze(nil)
	require.NotNil(t, profile)
	assert.Equal(t, 0.0, profile.Energy)
}
