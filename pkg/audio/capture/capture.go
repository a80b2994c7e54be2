package capture

import (
	"context"
	"time"

	"github.com/RyanBlaney/cepstral-monitor/pkg/audio/analysis"
)

// SourceType represents the kind of backend supplying spectrum frames
type SourceType string

const (
	SourceTypeSynthetic   SourceType = "synthetic"
	SourceTypeWAV         SourceType = "wav"
	SourceTypePCM         SourceType = "pcm"
	SourceTypeUnsupported SourceType = "unsupported"
)

// SourceMetadata contains metadata and info about a frame source
type SourceMetadata struct {
	Path       string     `json:"path,omitempty"`
	Type       SourceType `json:"type"`
	SampleRate int        `json:"sample_rate"`
	Channels   int        `json:"channels,omitempty"`
	FFTSize    int        `json:"fft_size"`
	HopSize    int        `json:"hop_size"`
}

// Frame is a single magnitude spectrum snapshot. Magnitudes keeps the full
// FFT length, mirror half included, so band partitioning can index the lower
// half of the array directly.
type Frame struct {
	Magnitudes []float64 `json:"magnitudes"`
	Timestamp  time.Time `json:"timestamp"`
	Sequence   uint64    `json:"sequence"`
	SampleRate int       `json:"sample_rate"`
	FFTSize    int       `json:"fft_size"`
}

// FrameSource supplies the most recent spectrum frame to the extraction
// engine. Implementations own their backing signal and advance one hop per
// Latest call once acquired.
type FrameSource interface {
	// Acquire prepares the source for frame delivery
	Acquire(ctx context.Context) error

	// Latest returns the freshest frame, or false when no frame is
	// currently available
	Latest() (*Frame, bool)

	// Release frees the source. Acquire may be called again afterwards.
	Release() error

	// Metadata retrieves metadata about the source
	Metadata() SourceMetadata
}

// framer cuts a mono PCM buffer into magnitude frames one hop at a time
type framer struct {
	analyzer   *analysis.SpectralAnalyzer
	samples    []float64
	fftSize    int
	hopSize    int
	position   int
	sequence   uint64
	sampleRate int
}

func newFramer(samples []float64, sampleRate, fftSize, hopSize int, window analysis.WindowType) *framer {
	return &framer{
		analyzer:   analysis.NewSpectralAnalyzer(sampleRate, window),
		samples:    samples,
		fftSize:    fftSize,
		hopSize:    hopSize,
		sampleRate: sampleRate,
	}
}

// next returns the frame at the current position and advances one hop.
// Returns false once the remaining signal is shorter than the FFT size.
func (f *framer) next() (*Frame, bool) {
	if f == nil || f.position+f.fftSize > len(f.samples) {
		return nil, false
	}

	segment := f.samples[f.position : f.position+f.fftSize]
	magnitudes, err := f.analyzer.ComputeMagnitudes(segment)
	if err != nil {
		return nil, false
	}

	f.position += f.hopSize
	f.sequence++

	return &Frame{
		Magnitudes: magnitudes,
		Timestamp:  time.Now(),
		Sequence:   f.sequence,
		SampleRate: f.sampleRate,
		FFTSize:    f.fftSize,
	}, true
}

// remaining reports how many full frames are still ahead of the cursor
func (f *framer) remaining() int {
	if f == nil {
		return 0
	}

	left := len(f.samples) - f.position
	if left < f.fftSize {
		return 0
	}
	return (left-f.fftSize)/f.hopSize + 1
}
