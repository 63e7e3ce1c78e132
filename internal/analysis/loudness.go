// SPDX-License-Identifier: MIT
/*
Package analysis implements the per-buffer DSP core: RMS loudness
estimation and dominant-frequency extraction over a fixed-size FFT.

Both operations run synchronously inside the audio source's buffer
callback and must stay well under one buffer period. The spectral
analyzer pre-allocates all scratch memory at construction; nothing in
this package allocates in the steady state.
*/
package analysis

import (
	"math"

	"pulse/internal/audio"
)

// Result is the per-buffer analysis output consumed by the trigger
// policy. Derived fresh for every buffer.
type Result struct {
	RMS                 float64 // >= 0
	DominantFrequencyHz float64 // >= 0; 0 means no spectral estimate
}

// RMS returns the root-mean-square energy of the buffer's samples.
// An empty buffer yields 0; never divides by zero. Pure function.
func RMS(buf audio.Buffer) float64 {
	n := buf.Frames()
	if n == 0 {
		return 0
	}

	var sum float64
	for _, s := range buf.Samples {
		fs := float64(s)
		sum += fs * fs
	}
	return math.Sqrt(sum / float64(n))
}
