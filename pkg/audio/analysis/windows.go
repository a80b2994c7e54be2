package analysis

import (
	"fmt"
	"math"
	"sync"
)

// WindowType identifies the taper applied to a signal frame before the FFT
type WindowType string

const (
	WindowHann        WindowType = "hann"
	WindowHamming     WindowType = "hamming"
	WindowBlackman    WindowType = "blackman"
	WindowRectangular WindowType = "rectangular"
)

// WindowGenerator produces window coefficient tables and caches them by
// type and size so repeated framing doesn't recompute the taper
type WindowGenerator struct {
	mu    sync.Mutex
	cache map[string][]float64
}

// NewWindowGenerator creates a new window generator
func NewWindowGenerator() *WindowGenerator {
	return &WindowGenerator{
		cache: make(map[string][]float64),
	}
}

// Generate returns the coefficient table for the given window type and size
func (wg *WindowGenerator) Generate(windowType WindowType, size int) ([]float64, error) {
	if size <= 0 {
		return nil, fmt.Errorf("window size must be positive, got %d", size)
	}

	key := fmt.Sprintf("%s_%d", windowType, size)

	wg.mu.Lock()
	defer wg.mu.Unlock()

	if cached, ok := wg.cache[key]; ok {
		return cached, nil
	}

	window := make([]float64, size)

	switch windowType {
	case WindowHann:
		for n := range size {
			window[n] = 0.5 * (1.0 - math.Cos(2.0*math.Pi*float64(n)/float64(size-1)))
		}
	case WindowHamming:
		for n := range size {
			window[n] = 0.54 - 0.46*math.Cos(2.0*math.Pi*float64(n)/float64(size-1))
		}
	case WindowBlackman:
		for n := range size {
			phase := 2.0 * math.Pi * float64(n) / float64(size-1)
			window[n] = 0.42 - 0.5*math.Cos(phase) + 0.08*math.Cos(2.0*phase)
		}
	case WindowRectangular:
		for n := range size {
			window[n] = 1.0
		}
	default:
		return nil, fmt.Errorf("unknown window type: %s", windowType)
	}

	// Single-point windows degenerate to division by zero above
	if size == 1 {
		window[0] = 1.0
	}

	wg.cache[key] = window
	return window, nil
}

// Apply multiplies the signal by the window coefficients and returns the
// tapered copy. The input is never modified.
func (wg *WindowGenerator) Apply(signal []float64, windowType WindowType) ([]float64, error) {
	window, err := wg.Generate(windowType, len(signal))
	if err != nil {
		return nil, err
	}

	windowed := make([]float64, len(signal))
	for i, sample := range signal {
		windowed[i] = sample * window[i]
	}

	return windowed, nil
}
