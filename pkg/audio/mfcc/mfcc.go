// Package mfcc computes cepstral feature vectors from magnitude spectra.
//
// The pipeline has two stages. A rectangular filter bank partitions the
// lower half of the spectrum into contiguous bands and averages the
// magnitudes inside each band. A log-compressed cosine transform then
// turns the band energies into cepstral coefficients, truncated to the
// configured vector length.
package mfcc

import (
	"fmt"
	"math"
)

// epsilon is added to every band energy before log compression so that
// silent bands stay finite instead of collapsing to -Inf.
const epsilon = math.SmallestNonzeroFloat64

// Params holds the tunable parameters of the extraction pipeline
type Params struct {
	// BandCount is the number of filter bank bands. The band edges are
	// derived from the spectrum length, so only the count is configurable.
	BandCount int `json:"band_count" yaml:"band_count"`

	// CoefficientCount is the length of the produced cepstral vector.
	// Must not exceed BandCount.
	CoefficientCount int `json:"coefficient_count" yaml:"coefficient_count"`
}

// DefaultParams returns the standard parameter set
func DefaultParams() Params {
	return Params{
		BandCount:        26,
		CoefficientCount: 12,
	}
}

// Validate checks the parameter set for internal consistency
func (p Params) Validate() error {
	if p.BandCount < 1 {
		return NewFeatureError(StageFilterBank, ErrCodeConfig,
			fmt.Sprintf("band count must be at least 1, got %d", p.BandCount), nil)
	}
	if p.CoefficientCount < 1 {
		return NewFeatureError(StageCepstrum, ErrCodeConfig,
			fmt.Sprintf("coefficient count must be at least 1, got %d", p.CoefficientCount), nil)
	}
	if p.CoefficientCount > p.BandCount {
		return NewFeatureError(StageCepstrum, ErrCodeConfig,
			fmt.Sprintf("coefficient count %d exceeds band count %d", p.CoefficientCount, p.BandCount), nil)
	}
	return nil
}

// Result contains the output of a single extraction pass
type Result struct {
	// Coefficients is a snapshot of the extractor's output buffer. Its
	// length is always CoefficientCount; positions beyond Updated carry
	// the values from the previous pass.
	Coefficients []float64 `json:"coefficients"`

	// BandEnergies holds the filter bank output that produced the
	// coefficients.
	BandEnergies []float64 `json:"band_energies"`

	// LogEnergy is the zeroth cepstral coefficient, proportional to the
	// mean log band energy.
	LogEnergy float64 `json:"log_energy"`

	// Updated is the number of coefficients freshly written on this
	// pass. It equals CoefficientCount unless fewer bands than
	// configured were supplied.
	Updated int `json:"updated"`
}

// ComputeFilterBank partitions spectrum into bandCount contiguous bands
// and returns the arithmetic mean magnitude of each band.
//
// Band i covers the half-open index range [i*F/(2*B), (i+1)*F/(2*B)) with
// F = len(spectrum) and B = bandCount, the end index capped at F-1. Integer
// division makes consecutive ranges share edges without overlap, so for
// F = 2*B every band reduces to a single spectrum bin.
func ComputeFilterBank(spectrum []float64, bandCount int) ([]float64, error) {
	if bandCount < 1 {
		return nil, NewFeatureError(StageFilterBank, ErrCodeConfig,
			fmt.Sprintf("band count must be at least 1, got %d", bandCount), nil)
	}
	if len(spectrum) == 0 {
		return nil, NewFeatureError(StageFilterBank, ErrCodeDegenerateInput,
			"spectrum is empty", nil)
	}
	if err := validateMagnitudes(StageFilterBank, spectrum); err != nil {
		return nil, err
	}

	f := len(spectrum)
	bands := make([]float64, bandCount)
	for i := 0; i < bandCount; i++ {
		start := i * f / (2 * bandCount)
		end := (i + 1) * f / (2 * bandCount)
		if end > f-1 {
			end = f - 1
		}
		if end <= start {
			return nil, NewFeatureError(StageFilterBank, ErrCodeDegenerateInput,
				fmt.Sprintf("band %d maps to empty range [%d, %d) for spectrum length %d; need at least %d bins",
					i, start, end, f, 2*bandCount), nil)
		}

		sum := 0.0
		for j := start; j < end; j++ {
			sum += spectrum[j]
		}
		bands[i] = sum / float64(end-start)
	}
	return bands, nil
}

// ComputeCepstrum applies log compression and a cosine transform to the
// band energies and returns the first coefficientCount coefficients.
//
// Coefficient k is (2/B) * sum over i of log(v_i + eps) * cos(pi*k*(i+0.5)/B).
// The transform is not orthonormalized and the zeroth coefficient keeps the
// same 2/B scale as the rest, so requesting fewer coefficients yields an
// exact prefix of the full-length transform.
func ComputeCepstrum(bandEnergies []float64, coefficientCount int) ([]float64, error) {
	if coefficientCount < 1 {
		return nil, NewFeatureError(StageCepstrum, ErrCodeConfig,
			fmt.Sprintf("coefficient count must be at least 1, got %d", coefficientCount), nil)
	}
	if len(bandEnergies) == 0 {
		return nil, NewFeatureError(StageCepstrum, ErrCodeDegenerateInput,
			"band energies are empty", nil)
	}
	if coefficientCount > len(bandEnergies) {
		return nil, NewFeatureError(StageCepstrum, ErrCodeConfig,
			fmt.Sprintf("coefficient count %d exceeds band count %d", coefficientCount, len(bandEnergies)), nil)
	}
	if err := validateMagnitudes(StageCepstrum, bandEnergies); err != nil {
		return nil, err
	}

	b := len(bandEnergies)
	logEnergies := make([]float64, b)
	for i, v := range bandEnergies {
		logEnergies[i] = math.Log(v + epsilon)
	}

	scale := 2.0 / float64(b)
	coeffs := make([]float64, coefficientCount)
	for k := 0; k < coefficientCount; k++ {
		sum := 0.0
		for i := 0; i < b; i++ {
			sum += logEnergies[i] * math.Cos(math.Pi*float64(k)*(float64(i)+0.5)/float64(b))
		}
		coeffs[k] = scale * sum
	}
	return coeffs, nil
}

// Extractor runs the full spectrum-to-cepstrum pipeline with a fixed
// parameter set and a reusable output buffer.
//
// The output buffer persists across calls. When a pass updates fewer
// coefficients than the buffer holds, the remaining positions keep their
// previous values rather than being zeroed. Callers that need to
// distinguish fresh from retained values check Result.Updated.
//
// An Extractor is not safe for concurrent use. The extraction engine
// serializes calls through its single producer goroutine.
type Extractor struct {
	params Params
	out    []float64
}

// NewExtractor creates an extractor after validating the parameter set
func NewExtractor(params Params) (*Extractor, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	return &Extractor{
		params: params,
		out:    make([]float64, params.CoefficientCount),
	}, nil
}

// Params returns the extractor's parameter set
func (e *Extractor) Params() Params {
	return e.params
}

// Compute runs both pipeline stages on a magnitude spectrum
func (e *Extractor) Compute(spectrum []float64) (*Result, error) {
	bands, err := ComputeFilterBank(spectrum, e.params.BandCount)
	if err != nil {
		return nil, err
	}
	return e.ComputeFromBands(bands)
}

// ComputeFromBands runs the cepstrum stage on precomputed band energies.
// The full-length transform is taken over however many bands arrive;
// min(len(bandEnergies), CoefficientCount) coefficients are then copied
// into the output buffer and the rest of the buffer is left untouched.
func (e *Extractor) ComputeFromBands(bandEnergies []float64) (*Result, error) {
	full, err := ComputeCepstrum(bandEnergies, len(bandEnergies))
	if err != nil {
		return nil, err
	}

	updated := len(full)
	if updated > len(e.out) {
		updated = len(e.out)
	}
	copy(e.out[:updated], full[:updated])

	return &Result{
		Coefficients: append([]float64(nil), e.out...),
		BandEnergies: append([]float64(nil), bandEnergies...),
		LogEnergy:    full[0],
		Updated:      updated,
	}, nil
}

// Current returns a copy of the output buffer as of the last pass
func (e *Extractor) Current() []float64 {
	return append([]float64(nil), e.out...)
}

func validateMagnitudes(stage string, values []float64) error {
	for i, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return NewFeatureError(stage, ErrCodeNonFinite,
				fmt.Sprintf("value at index %d is not finite", i), nil)
		}
		if v < 0 {
			return NewFeatureError(stage, ErrCodeNegativeInput,
				fmt.Sprintf("value at index %d is negative (%g); magnitudes must be non-negative", i, v), nil)
		}
	}
	return nil
}
