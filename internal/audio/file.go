// SPDX-License-Identifier: MIT
package audio

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"pulse/internal/log"
)

// FileSource decodes a WAV file and delivers mono analysis buffers at
// real-time cadence: one buffer every frames/sampleRate seconds, on a
// single goroutine, so the session sees the same timing a live device
// would produce. Delivery ends at EOF or when Stop is called.
type FileSource struct {
	path   string
	frames int

	done     chan struct{} // Closed by Stop to halt delivery
	finished chan struct{} // Closed by the delivery goroutine on exit
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewFileSource creates a source reading from the WAV file at path,
// delivering framesPerBuffer frames per callback.
func NewFileSource(path string, framesPerBuffer int) *FileSource {
	return &FileSource{
		path:   path,
		frames: framesPerBuffer,
	}
}

// WAVSampleRate reads the header of the WAV file at path and returns its
// sample rate. Analysis components sized before playback starts need the
// file's rate, not the configured device rate.
func WAVSampleRate(path string) (float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("audio: opening %s: %w", path, err)
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return 0, fmt.Errorf("audio: %s is not a valid WAV file", path)
	}
	return float64(dec.SampleRate), nil
}

// Start opens and validates the file, then launches the paced delivery
// goroutine. The file's own sample rate drives the cadence.
func (s *FileSource) Start(fn BufferFunc) error {
	if s.done != nil {
		return fmt.Errorf("audio: file source already started")
	}

	f, err := os.Open(s.path)
	if err != nil {
		return fmt.Errorf("audio: opening %s: %w", s.path, err)
	}

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		f.Close()
		return fmt.Errorf("audio: %s is not a valid WAV file", s.path)
	}

	sampleRate := float64(dec.SampleRate)
	channels := int(dec.NumChans)
	bitDepth := uint(dec.BitDepth)
	if sampleRate <= 0 || channels < 1 || bitDepth < 8 {
		f.Close()
		return fmt.Errorf("audio: %s has unusable format (%d ch, %.0f Hz, %d bit)",
			s.path, channels, sampleRate, bitDepth)
	}

	// Scale factor from signed PCM at this bit depth to [-1, 1).
	norm := float32(1.0) / float32(int64(1)<<(bitDepth-1))

	pcm := &audio.IntBuffer{
		Format: &audio.Format{
			NumChannels: channels,
			SampleRate:  int(dec.SampleRate),
		},
		Data: make([]int, s.frames*channels),
	}
	mono := make([]float32, s.frames)
	period := time.Duration(float64(s.frames) / sampleRate * float64(time.Second))

	log.Infof("audio: playing %s (%d ch, %.0f Hz, %d bit, %s per buffer)",
		s.path, channels, sampleRate, bitDepth, period)

	s.done = make(chan struct{})
	s.finished = make(chan struct{})
	s.wg.Add(1)

	go func() {
		defer s.wg.Done()
		defer close(s.finished)
		defer f.Close()

		ticker := time.NewTicker(period)
		defer ticker.Stop()

		for {
			n, err := dec.PCMBuffer(pcm)
			if err != nil {
				log.Errorf("audio: decoding %s: %v", s.path, err)
				return
			}
			if n == 0 {
				log.Infof("audio: end of file %s", s.path)
				return
			}

			// Downmix interleaved frames to the mono analysis channel.
			frames := n / channels
			for i := 0; i < frames; i++ {
				mono[i] = float32(pcm.Data[i*channels]) * norm
			}

			fn(Buffer{Samples: mono[:frames], SampleRate: sampleRate})

			select {
			case <-s.done:
				return
			case <-ticker.C:
			}
		}
	}()

	return nil
}

// Stop halts delivery and waits for the goroutine to exit, so no callback
// invocation can begin after Stop returns. Safe to call more than once
// and after EOF.
func (s *FileSource) Stop() error {
	if s.done == nil {
		return nil
	}
	s.stopOnce.Do(func() {
		close(s.done)
	})
	s.wg.Wait()
	return nil
}

// Done returns a channel closed when delivery has ended, whether by EOF,
// a decode error, or Stop.
func (s *FileSource) Done() <-chan struct{} {
	return s.finished
}

var _ Source = (*FileSource)(nil)
