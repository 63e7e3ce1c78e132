// SPDX-License-Identifier: MIT
package analysis

import (
	"fmt"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/dsp/window"

	"pulse/internal/audio"
	"pulse/internal/log"
	"pulse/pkg/bitint"
)

// spectralWorkspace holds the pre-allocated scratch buffers for one
// analyzer. Owned exclusively by the analysis session; written only from
// the buffer callback goroutine.
type spectralWorkspace struct {
	input  []float64    // Windowed input samples
	coeffs []complex128 // FFT complex output
	power  []float64    // Magnitude-squared per bin
	window []float64    // Hann window coefficients
}

// SpectralAnalyzer extracts the dominant frequency of fixed-size audio
// buffers. Constructed once per session with the session's frame count;
// a buffer of any other size produces no estimate (DominantFrequency
// returns 0) rather than an error, because a missed detection must never
// stop the audio stream.
type SpectralAnalyzer struct {
	fftSize    int
	sampleRate float64
	fft        *fourier.FFT
	workspace  spectralWorkspace
}

// NewSpectralAnalyzer pre-allocates all scratch buffers and the Hann
// window for the given FFT size. The size must be a power of two and the
// sample rate positive.
func NewSpectralAnalyzer(fftSize int, sampleRate float64) (*SpectralAnalyzer, error) {
	if !bitint.IsPowerOfTwo(fftSize) {
		return nil, fmt.Errorf("analysis: fft size must be a power of 2, got %d", fftSize)
	}
	if sampleRate <= 0 {
		return nil, fmt.Errorf("analysis: sample rate must be positive, got %f", sampleRate)
	}

	hann := make([]float64, fftSize)
	for i := range hann {
		hann[i] = 1.0
	}
	window.Hann(hann)

	// Real-input FFT yields N/2 + 1 complex bins.
	binCount := fftSize/2 + 1

	log.Debugf("analysis: spectral analyzer ready (size %d, %.1f Hz, %.2f Hz/bin)",
		fftSize, sampleRate, sampleRate/float64(fftSize))

	return &SpectralAnalyzer{
		fftSize:    fftSize,
		sampleRate: sampleRate,
		fft:        fourier.NewFFT(fftSize),
		workspace: spectralWorkspace{
			input:  make([]float64, fftSize),
			coeffs: make([]complex128, binCount),
			power:  make([]float64, binCount),
			window: hann,
		},
	}, nil
}

// DominantFrequency returns the frequency (Hz) of the strongest spectral
// bin up to Nyquist, or 0 when no estimate is possible (empty buffer or a
// frame count other than the configured FFT size). Resolution is one bin
// width; callers must not expect sub-bin precision.
//
// Hot path: reuses the workspace, zero allocations in the steady state.
func (a *SpectralAnalyzer) DominantFrequency(buf audio.Buffer) float64 {
	n := buf.Frames()
	if n == 0 {
		return 0
	}
	if n != a.fftSize {
		log.Debugf("analysis: buffer of %d frames does not match fft size %d, no spectral estimate", n, a.fftSize)
		return 0
	}

	for i, s := range buf.Samples {
		a.workspace.input[i] = float64(s) * a.workspace.window[i]
	}

	a.fft.Coefficients(a.workspace.coeffs, a.workspace.input)

	// Magnitude-squared up to Nyquist; track the peak bin as we go.
	peakBin := 0
	peakPower := 0.0
	for i := 0; i <= a.fftSize/2; i++ {
		c := a.workspace.coeffs[i]
		p := real(c)*real(c) + imag(c)*imag(c)
		a.workspace.power[i] = p
		if p > peakPower {
			peakPower = p
			peakBin = i
		}
	}

	return float64(peakBin) * a.sampleRate / float64(a.fftSize)
}

// BinWidth returns the analyzer's frequency resolution in Hz per bin.
func (a *SpectralAnalyzer) BinWidth() float64 {
	return a.sampleRate / float64(a.fftSize)
}

// FFTSize returns the configured FFT size. Immutable after creation.
func (a *SpectralAnalyzer) FFTSize() int {
	return a.fftSize
}

// SampleRate returns the configured sample rate (Hz).
func (a *SpectralAnalyzer) SampleRate() float64 {
	return a.sampleRate
}
