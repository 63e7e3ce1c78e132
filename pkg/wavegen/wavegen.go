// SPDX-License-Identifier: MIT
// Package wavegen generates synthetic mono test signals shared by the
// analysis and session tests.
package wavegen

import "math"

// Sine returns frames samples of a sine wave at the given frequency and
// peak amplitude, sampled at sampleRate Hz.
func Sine(frames int, sampleRate, frequency, amplitude float64) []float32 {
	buffer := make([]float32, frames)
	for i := range buffer {
		t := float64(i) / sampleRate
		buffer[i] = float32(amplitude * math.Sin(2*math.Pi*frequency*t))
	}
	return buffer
}

// Harmonic returns a 440Hz fundamental plus two harmonics, useful when a
// test needs a signal with a known dominant component among others.
func Harmonic(frames int, sampleRate float64) []float32 {
	buffer := make([]float32, frames)
	for i := range buffer {
		t := float64(i) / sampleRate
		signal := math.Sin(2*math.Pi*440*t)*0.5 +
			math.Sin(2*math.Pi*880*t)*0.3 +
			math.Sin(2*math.Pi*1320*t)*0.2
		buffer[i] = float32(signal * 0.9)
	}
	return buffer
}

// Silence returns frames zero samples.
func Silence(frames int) []float32 {
	return make([]float32, frames)
}
