// SPDX-License-Identifier: MIT
package audio

import (
	"fmt"
	"time"

	"github.com/gordonklaus/portaudio"

	"pulse/internal/config"
	"pulse/internal/log"
)

// InputSource captures the live input device through PortAudio and
// delivers mono analysis buffers to the registered callback.
//
// Performance notes:
//   - The PortAudio callback runs on a dedicated real-time thread.
//   - The mono scratch buffer is pre-allocated once; the callback does
//     no allocation in the steady state.
//   - Multi-channel input is downmixed by taking channel 0, matching the
//     single analysis channel the pipeline works on.
type InputSource struct {
	device     *portaudio.DeviceInfo
	sampleRate float64
	frames     int
	channels   int
	latency    time.Duration

	stream *portaudio.Stream
	fn     BufferFunc
	mono   []float32 // Pre-allocated mono scratch, reused every callback
}

// NewInputSource resolves the configured device and pre-allocates the
// capture scratch buffers. PortAudio must already be initialized.
func NewInputSource(cfg config.AudioConfig) (*InputSource, error) {
	device, err := InputDevice(cfg.InputDevice)
	if err != nil {
		return nil, err
	}

	s := &InputSource{
		device:     device,
		sampleRate: cfg.SampleRate,
		frames:     cfg.FramesPerBuffer,
		channels:   cfg.InputChannels,
		mono:       make([]float32, cfg.FramesPerBuffer),
	}

	if cfg.LowLatency {
		s.latency = device.DefaultLowInputLatency
	} else {
		s.latency = device.DefaultHighInputLatency
	}

	return s, nil
}

// Start opens the capture stream and begins invoking fn once per buffer
// on the PortAudio callback thread.
func (s *InputSource) Start(fn BufferFunc) error {
	if s.stream != nil {
		return fmt.Errorf("audio: input source already started")
	}
	s.fn = fn

	params := portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Channels: s.channels,
			Device:   s.device,
			Latency:  s.latency,
		},
		Output: portaudio.StreamDeviceParameters{
			Channels: 0, // Capture only
			Device:   nil,
		},
		FramesPerBuffer: s.frames,
		SampleRate:      s.sampleRate,
	}

	stream, err := portaudio.OpenStream(params, s.processInput)
	if err != nil {
		return fmt.Errorf("audio: opening input stream: %w", err)
	}
	s.stream = stream

	if err := s.stream.Start(); err != nil {
		s.stream.Close()
		s.stream = nil
		return fmt.Errorf("audio: starting input stream: %w", err)
	}

	log.Infof("audio: capturing %q (%d frames @ %.0f Hz, latency %s)",
		s.device.Name, s.frames, s.sampleRate, s.latency)
	return nil
}

// Stop halts the capture stream. PortAudio's Stop blocks until the
// in-flight callback has returned, so no delivery can begin after Stop
// returns.
func (s *InputSource) Stop() error {
	if s.stream == nil {
		return nil
	}
	if err := s.stream.Stop(); err != nil {
		return fmt.Errorf("audio: stopping input stream: %w", err)
	}
	if err := s.stream.Close(); err != nil {
		return fmt.Errorf("audio: closing input stream: %w", err)
	}
	s.stream = nil
	return nil
}

// processInput is the PortAudio capture callback. Hot path: pre-allocated
// buffers only, no allocations, no blocking.
func (s *InputSource) processInput(in []float32) {
	if s.channels == 1 {
		copy(s.mono, in)
	} else {
		// Interleaved frames; keep channel 0 as the analysis channel.
		for i := 0; i < s.frames; i++ {
			idx := i * s.channels
			if idx < len(in) {
				s.mono[i] = in[idx]
			} else {
				s.mono[i] = 0
			}
		}
	}

	s.fn(Buffer{Samples: s.mono, SampleRate: s.sampleRate})
}

var _ Source = (*InputSource)(nil)
