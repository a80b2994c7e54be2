package analysis

import (
	"github.com/RyanBlaney/latency-benchmark-common/logging"
	"github.com/RyanBlaney/sonido-sonar/algorithms/spectral"
)

// SpectrumProfile holds per-frame spectral shape indicators. Useful as a
// quick speech/music/noise sanity check next to the cepstral vector.
type SpectrumProfile struct {
	SpectralCentroid float64 `json:"spectral_centroid"`
	SpectralRolloff  float64 `json:"spectral_rolloff"`
	SpectralFlatness float64 `json:"spectral_flatness"`
	SpectralCrest    float64 `json:"spectral_crest"`
	Energy           float64 `json:"energy"`
}

// FrameDiagnostics computes spectral shape indicators for magnitude frames
type FrameDiagnostics struct {
	spectralCentroid *spectral.SpectralCentroid
	spectralRolloff  *spectral.SpectralRolloff
	spectralFlatness *spectral.SpectralFlatness
	spectralCrest    *spectral.SpectralCrest
	logger           logging.Logger
}

// NewFrameDiagnostics creates a diagnostics calculator for the given sample rate
func NewFrameDiagnostics(sampleRate int) *FrameDiagnostics {
	return &FrameDiagnostics{
		spectralCentroid: spectral.NewSpectralCentroid(sampleRate),
		spectralRolloff:  spectral.NewSpectralRolloff(sampleRate),
		spectralFlatness: spectral.NewSpectralFlatness(),
		spectralCrest:    spectral.NewSpectralCrest(),
		logger: logging.WithFields(logging.Fields{
			"component":   "frame_diagnostics",
			"sample_rate": sampleRate,
		}),
	}
}

// Analyze computes the profile for a full-length magnitude frame. Only the
// positive-frequency half feeds the shape indicators.
func (fd *FrameDiagnostics) Analyze(magnitudes []float64) *SpectrumProfile {
	profile := &SpectrumProfile{}

	half := PositiveHalf(magnitudes)
	if len(half) == 0 {
		return profile
	}

	profile.SpectralCentroid = fd.spectralCentroid.Compute(half)
	profile.SpectralRolloff = fd.spectralRolloff.Compute(half, 0.85)
	profile.SpectralFlatness = fd.spectralFlatness.Compute(half)
	profile.SpectralCrest = fd.spectralCrest.Compute(half)

	for _, mag := range half {
		profile.Energy += mag * mag
	}

	return profile
}
