// SPDX-License-Identifier: MIT
/*
Package audio provides the audio source capability for the analysis
pipeline: live PortAudio capture, paced WAV file playback, device
discovery, and an optional WAV tap of the analysis channel.

Every source delivers mono float32 buffers on a single consistent
goroutine, at the cadence of one buffer period (frames / sampleRate).
Buffers are owned by the source and valid only for the duration of the
callback; consumers must not retain them.
*/
package audio

// Buffer is one callback's worth of samples for the mono analysis channel.
type Buffer struct {
	Samples    []float32 // Normalized to [-1, 1]
	SampleRate float64   // Hz
}

// Frames returns the number of sample frames in the buffer.
func (b Buffer) Frames() int {
	return len(b.Samples)
}

// Period returns the buffer's duration in seconds, the time budget for
// all per-buffer analysis work. Zero if the sample rate is unset.
func (b Buffer) Period() float64 {
	if b.SampleRate <= 0 {
		return 0
	}
	return float64(len(b.Samples)) / b.SampleRate
}

// BufferFunc is invoked once per buffer on the source's delivery
// goroutine. Implementations must be real-time safe: non-blocking, no
// allocations in the steady state.
type BufferFunc func(Buffer)

// Source is the audio source capability. Start registers the per-buffer
// callback and begins delivery; Stop halts delivery synchronously, so no
// callback invocation can begin after Stop returns.
type Source interface {
	Start(fn BufferFunc) error
	Stop() error
}
