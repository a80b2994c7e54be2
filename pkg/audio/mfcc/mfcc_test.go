package mfcc

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

// ExtractorTestSuite defines the test suite for the cepstral pipeline
type ExtractorTestSuite struct {
	suite.Suite
	testSpectrum []float64
	testParams   Params
}

// SetupSuite runs once before all tests
func (s *ExtractorTestSuite) SetupSuite() {
	s.testParams = DefaultParams()

	// Generate a deterministic harmonic-looking magnitude spectrum.
	// Values stay strictly positive so log compression never hits the
	// epsilon floor.
	s.testSpectrum = make([]float64, 512)
	for i := range s.testSpectrum {
		s.testSpectrum[i] = 1.0 +
			0.5*math.Sin(2*math.Pi*float64(i)/64) +
			0.25*math.Sin(2*math.Pi*float64(i)/16)
	}
}

// Test single-bin partition: with spectrum length F = 2*B every band
// covers exactly one bin, so the filter bank is the identity on the
// lower half of the spectrum.
func (s *ExtractorTestSuite) TestFilterBankSingleBinPartition() {
	bandCount := 8
	spectrum := make([]float64, 2*bandCount)
	for i := range spectrum {
		spectrum[i] = float64(i + 1) // distinct values expose any misalignment
	}

	bands, err := ComputeFilterBank(spectrum, bandCount)
	s.Require().NoError(err)
	s.Require().Len(bands, bandCount)

	for i := range bands {
		s.Equal(spectrum[i], bands[i], "band %d should equal spectrum bin %d", i, i)
	}
}

// Test that a constant spectrum yields constant band energies no matter
// how unevenly the integer band edges divide it
func (s *ExtractorTestSuite) TestFilterBankConstantSpectrum() {
	for _, spectrumLen := range []int{52, 63, 100, 512, 1024} {
		spectrum := make([]float64, spectrumLen)
		for i := range spectrum {
			spectrum[i] = 3.25
		}

		bands, err := ComputeFilterBank(spectrum, 26)
		s.Require().NoError(err, "spectrum length %d", spectrumLen)

		for i, b := range bands {
			s.InDelta(3.25, b, 1e-12, "band %d for spectrum length %d", i, spectrumLen)
		}
	}
}

// Test that scaling the spectrum scales every band energy linearly
func (s *ExtractorTestSuite) TestFilterBankScaleLinearity() {
	const scale = 4.0

	scaled := make([]float64, len(s.testSpectrum))
	for i, v := range s.testSpectrum {
		scaled[i] = scale * v
	}

	base, err := ComputeFilterBank(s.testSpectrum, 26)
	s.Require().NoError(err)
	got, err := ComputeFilterBank(scaled, 26)
	s.Require().NoError(err)

	for i := range base {
		s.InDelta(scale*base[i], got[i], 1e-9, "band %d", i)
	}
}

// Test that log compression breaks linearity in the expected way: a
// gain change shifts the zeroth coefficient by 2*log(gain) and leaves
// the higher coefficients untouched
func (s *ExtractorTestSuite) TestCepstrumGainShift() {
	const gain = 4.0

	bands := []float64{1, 2, 3, 4, 5, 6, 7, 8}
	scaled := make([]float64, len(bands))
	for i, v := range bands {
		scaled[i] = gain * v
	}

	base, err := ComputeCepstrum(bands, len(bands))
	s.Require().NoError(err)
	got, err := ComputeCepstrum(scaled, len(scaled))
	s.Require().NoError(err)

	s.InDelta(base[0]+2*math.Log(gain), got[0], 1e-9)
	for k := 1; k < len(base); k++ {
		s.InDelta(base[k], got[k], 1e-9, "coefficient %d", k)
	}

	// The zeroth coefficient must not scale linearly with the gain.
	s.Greater(math.Abs(gain*base[0]-got[0]), 1e-6)
}

// Test the silence floor: an all-zero spectrum must produce a finite,
// deterministic vector with c0 = 2*log(epsilon)
func (s *ExtractorTestSuite) TestCepstrumSilenceFloor() {
	spectrum := make([]float64, 52)

	bands, err := ComputeFilterBank(spectrum, 26)
	s.Require().NoError(err)

	coeffs, err := ComputeCepstrum(bands, 12)
	s.Require().NoError(err)

	for k, c := range coeffs {
		s.False(math.IsNaN(c), "coefficient %d is NaN", k)
		s.False(math.IsInf(c, 0), "coefficient %d is infinite", k)
	}

	// All bands sit on the epsilon floor, so the transform sees a
	// constant log energy: c0 = 2*log(eps), higher coefficients vanish.
	s.InDelta(2*math.Log(math.SmallestNonzeroFloat64), coeffs[0], 1e-6)
	for k := 1; k < len(coeffs); k++ {
		s.InDelta(0.0, coeffs[k], 1e-9, "coefficient %d", k)
	}
}

// Test that requesting fewer coefficients yields an exact prefix of the
// full-length transform
func (s *ExtractorTestSuite) TestCepstrumTruncationPrefix() {
	bands, err := ComputeFilterBank(s.testSpectrum, 26)
	s.Require().NoError(err)

	full, err := ComputeCepstrum(bands, 26)
	s.Require().NoError(err)

	for k := 1; k <= 26; k++ {
		truncated, err := ComputeCepstrum(bands, k)
		s.Require().NoError(err)
		s.Equal(full[:k], truncated, "coefficient count %d", k)
	}
}

// Test the reference vector: a flat unit spectrum log-compresses to
// exactly zero, so every coefficient is zero
func (s *ExtractorTestSuite) TestCepstrumFlatUnitSpectrum() {
	spectrum := []float64{1, 1, 1, 1, 1, 1, 1, 1}

	bands, err := ComputeFilterBank(spectrum, 4)
	s.Require().NoError(err)
	s.Require().Len(bands, 4)
	for i, b := range bands {
		s.InDelta(1.0, b, 1e-12, "band %d", i)
	}

	coeffs, err := ComputeCepstrum(bands, 2)
	s.Require().NoError(err)
	s.Require().Len(coeffs, 2)
	s.InDelta(0.0, coeffs[0], 1e-4)
	s.InDelta(0.0, coeffs[1], 1e-4)
}

// Test that repeated extraction of the same spectrum is bit-identical
func (s *ExtractorTestSuite) TestExtractionIdempotent() {
	extractor, err := NewExtractor(s.testParams)
	s.Require().NoError(err)

	first, err := extractor.Compute(s.testSpectrum)
	s.Require().NoError(err)
	second, err := extractor.Compute(s.testSpectrum)
	s.Require().NoError(err)

	s.Equal(first.Coefficients, second.Coefficients)
	s.Equal(first.BandEnergies, second.BandEnergies)
	s.Equal(first.LogEnergy, second.LogEnergy)
}

// Test stale retention: when a pass delivers fewer bands than the
// configured vector length, the unwritten tail keeps its previous values
func (s *ExtractorTestSuite) TestStaleCoefficientRetention() {
	extractor, err := NewExtractor(Params{BandCount: 6, CoefficientCount: 4})
	s.Require().NoError(err)

	first, err := extractor.ComputeFromBands([]float64{2, 4, 8, 16, 32, 64})
	s.Require().NoError(err)
	s.Equal(4, first.Updated)

	second, err := extractor.ComputeFromBands([]float64{5, 9})
	s.Require().NoError(err)
	s.Equal(2, second.Updated)

	// Head refreshed, tail retained from the first pass.
	s.NotEqual(first.Coefficients[0], second.Coefficients[0])
	s.Equal(first.Coefficients[2], second.Coefficients[2])
	s.Equal(first.Coefficients[3], second.Coefficients[3])

	s.Equal(second.Coefficients, extractor.Current())
}

// Test that Current returns a defensive copy
func (s *ExtractorTestSuite) TestCurrentReturnsCopy() {
	extractor, err := NewExtractor(s.testParams)
	s.Require().NoError(err)

	result, err := extractor.Compute(s.testSpectrum)
	s.Require().NoError(err)

	snapshot := extractor.Current()
	snapshot[0] = math.Inf(1)

	s.Equal(result.Coefficients, extractor.Current())
}

// Test that the full pipeline result is internally consistent
func (s *ExtractorTestSuite) TestComputeResultShape() {
	extractor, err := NewExtractor(s.testParams)
	s.Require().NoError(err)

	result, err := extractor.Compute(s.testSpectrum)
	s.Require().NoError(err)
	s.Require().NotNil(result)

	s.Len(result.Coefficients, s.testParams.CoefficientCount)
	s.Len(result.BandEnergies, s.testParams.BandCount)
	s.Equal(s.testParams.CoefficientCount, result.Updated)
	s.Equal(result.Coefficients[0], result.LogEnergy)

	for k, c := range result.Coefficients {
		s.False(math.IsNaN(c), "coefficient %d is NaN", k)
		s.False(math.IsInf(c, 0), "coefficient %d is infinite", k)
	}
}

// Test degenerate spectra: too few bins for the configured band count
// must fail up front instead of producing an empty-range average
func (s *ExtractorTestSuite) TestDegenerateSpectrumRejected() {
	// 6 bins across 4 bands leaves band 0 with the empty range [0, 0).
	_, err := ComputeFilterBank(make([]float64, 6), 4)
	s.Require().Error(err)
	s.True(IsDegenerateInputError(err))

	var fe *FeatureError
	s.Require().ErrorAs(err, &fe)
	s.Equal(StageFilterBank, fe.Stage)
	s.Equal(ErrCodeDegenerateInput, fe.Code)

	// A single-bin spectrum degenerates for any band count.
	_, err = ComputeFilterBank([]float64{1.0}, 1)
	s.Require().Error(err)
	s.True(IsDegenerateInputError(err))
}

// Test that non-finite and negative magnitudes are rejected instead of
// being propagated into the log transform
func (s *ExtractorTestSuite) TestInvalidMagnitudesRejected() {
	spectrum := make([]float64, 52)
	for i := range spectrum {
		spectrum[i] = 1.0
	}

	spectrum[10] = math.NaN()
	_, err := ComputeFilterBank(spectrum, 26)
	s.Error(err)

	spectrum[10] = math.Inf(1)
	_, err = ComputeFilterBank(spectrum, 26)
	s.Error(err)

	spectrum[10] = -0.5
	_, err = ComputeFilterBank(spectrum, 26)
	s.Error(err)

	_, err = ComputeCepstrum([]float64{1, -1, 1}, 2)
	s.Error(err)
}

// Run the test suite
func TestExtractorSuite(t *testing.T) {
	suite.Run(t, new(ExtractorTestSuite))
}

// Additional unit tests for parameter validation
func TestParamsValidation(t *testing.T) {
	tests := []struct {
		name    string
		params  Params
		wantErr bool
	}{
		{"defaults", DefaultParams(), false},
		{"minimal", Params{BandCount: 1, CoefficientCount: 1}, false},
		{"equal counts", Params{BandCount: 12, CoefficientCount: 12}, false},
		{"zero bands", Params{BandCount: 0, CoefficientCount: 12}, true},
		{"negative bands", Params{BandCount: -3, CoefficientCount: 12}, true},
		{"zero coefficients", Params{BandCount: 26, CoefficientCount: 0}, true},
		{"coefficients exceed bands", Params{BandCount: 12, CoefficientCount: 13}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.params.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, IsConfigError(err))

				_, err = NewExtractor(tt.params)
				assert.Error(t, err)
			} else {
				require.NoError(t, err)

				extractor, err := NewExtractor(tt.params)
				require.NoError(t, err)
				assert.Equal(t, tt.params, extractor.Params())
			}
		})
	}
}

func TestComputeCepstrumValidation(t *testing.T) {
	bands := []float64{1, 2, 3, 4}

	_, err := ComputeCepstrum(bands, 0)
	require.Error(t, err)
	assert.True(t, IsConfigError(err))

	_, err = ComputeCepstrum(bands, 5)
	require.Error(t, err)
	assert.True(t, IsConfigError(err))

	_, err = ComputeCepstrum(nil, 1)
	require.Error(t, err)
	assert.True(t, IsDegenerateInputError(err))
}

func TestDefaultParams(t *testing.T) {
	params := DefaultParams()
	assert.Equal(t, 26, params.BandCount)
	assert.Equal(t, 12, params.CoefficientCount)
	require.NoError(t, params.Validate())
}
