package capture

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/RyanBlaney/cepstral-monitor/pkg/audio/analysis"
)

// SourceConfig carries the framing and decoding parameters shared by
// every source kind. File-backed sources read the sample rate from the
// file where the container provides one; raw PCM and synthetic sources
// take it from here.
type SourceConfig struct {
	Path       string              `json:"path" yaml:"path"`
	Type       SourceType          `json:"type" yaml:"type"`
	SampleRate int                 `json:"sample_rate" yaml:"sample_rate"`
	FFTSize    int                 `json:"fft_size" yaml:"fft_size"`
	HopSize    int                 `json:"hop_size" yaml:"hop_size"`
	Format     SampleFormat        `json:"format" yaml:"format"`
	Window     analysis.WindowType `json:"window" yaml:"window"`
	Synthetic  *SyntheticConfig    `json:"synthetic,omitempty" yaml:"synthetic,omitempty"`
}

// DefaultSourceConfig returns sensible defaults for frame sources
func DefaultSourceConfig() *SourceConfig {
	return &SourceConfig{
		Type:       SourceTypeSynthetic,
		SampleRate: 8000,
		FFTSize:    256,
		HopSize:    128,
		Format:     FormatAuto,
		Window:     analysis.WindowHann,
	}
}

// Validate validates the shared source configuration
func (c *SourceConfig) Validate() error {
	if c.FFTSize <= 0 {
		return NewCaptureError(c.Type, c.Path, ErrCodeInvalidConfig,
			"fft size must be positive", nil)
	}
	if c.HopSize <= 0 {
		return NewCaptureError(c.Type, c.Path, ErrCodeInvalidConfig,
			"hop size must be positive", nil)
	}
	return nil
}

// syntheticConfig projects the shared settings onto the synthetic
// generator when no explicit generator config was given
func (c *SourceConfig) syntheticConfig() *SyntheticConfig {
	if c.Synthetic != nil {
		return c.Synthetic
	}

	sc := DefaultSyntheticConfig()
	if c.SampleRate > 0 {
		sc.SampleRate = c.SampleRate
	}
	if c.FFTSize > 0 {
		sc.FFTSize = c.FFTSize
	}
	if c.HopSize > 0 {
		sc.HopSize = c.HopSize
	}
	if c.Window != "" {
		sc.Window = c.Window
	}
	return sc
}

// Factory creates frame sources by type
type Factory struct {
	sources map[SourceType]func(config *SourceConfig) (FrameSource, error)
	mu      sync.RWMutex
}

// NewFactory creates a new source factory with default sources
func NewFactory() *Factory {
	f := &Factory{
		sources: make(map[SourceType]func(config *SourceConfig) (FrameSource, error)),
	}

	// Register default sources
	f.RegisterSourceFactory(SourceTypeSynthetic, func(config *SourceConfig) (FrameSource, error) {
		return NewSyntheticSource(config.syntheticConfig()), nil
	})
	f.RegisterSourceFactory(SourceTypeWAV, func(config *SourceConfig) (FrameSource, error) {
		return NewWAVSource(config.Path, config), nil
	})
	f.RegisterSourceFactory(SourceTypePCM, func(config *SourceConfig) (FrameSource, error) {
		return NewPCMSource(config.Path, config), nil
	})

	return f
}

// CreateSource creates a frame source for the given source type
func (f *Factory) CreateSource(sourceType SourceType, config *SourceConfig) (FrameSource, error) {
	if config == nil {
		config = DefaultSourceConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	f.mu.RLock()
	sourceFactory, exists := f.sources[sourceType]
	f.mu.RUnlock()

	if !exists {
		return nil, NewCaptureError(
			sourceType, config.Path, ErrCodeUnsupported,
			fmt.Sprintf("unsupported source type: %s", sourceType),
			nil,
		)
	}

	return sourceFactory(config)
}

// DetectAndCreate detects the source type from the path and creates the
// appropriate source
func (f *Factory) DetectAndCreate(config *SourceConfig) (FrameSource, error) {
	if config == nil {
		config = DefaultSourceConfig()
	}

	sourceType := DetectTypeFromPath(config.Path)
	if sourceType == SourceTypeUnsupported {
		return nil, NewCaptureError(
			SourceTypeUnsupported, config.Path, ErrCodeUnsupported,
			fmt.Sprintf("cannot determine source type for: %s", config.Path),
			nil,
		)
	}

	return f.CreateSource(sourceType, config)
}

// RegisterSourceFactory registers a source factory function
func (f *Factory) RegisterSourceFactory(sourceType SourceType, factory func(config *SourceConfig) (FrameSource, error)) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.sources[sourceType] = factory
	return nil
}

// SupportedTypes returns list of supported source types
func (f *Factory) SupportedTypes() []SourceType {
	f.mu.RLock()
	defer f.mu.RUnlock()

	types := make([]SourceType, 0, len(f.sources))
	for sourceType := range f.sources {
		types = append(types, sourceType)
	}
	return types
}

// DetectTypeFromPath detects the source type from a file path. An empty
// path selects the synthetic generator.
func DetectTypeFromPath(path string) SourceType {
	if path == "" {
		return SourceTypeSynthetic
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav", ".wave":
		return SourceTypeWAV
	case ".pcm", ".raw":
		return SourceTypePCM
	default:
		return SourceTypeUnsupported
	}
}
