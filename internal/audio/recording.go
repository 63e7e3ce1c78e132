// SPDX-License-Identifier: MIT
package audio

import (
	"fmt"
	"os"
	"sync/atomic"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"pulse/internal/log"
)

const recordingBitDepth = 16

// Recorder taps the mono analysis channel to a WAV file. Write is called
// from the real-time buffer callback, so format conversion reuses a
// pre-allocated sample buffer. State is guarded by an atomic flag; Start
// and Stop are expected from a single control goroutine.
type Recorder struct {
	isRecording int32 // Atomic flag for thread-safe state
	outputFile  *os.File
	encoder     *wav.Encoder
	sampleBuf   *audio.IntBuffer // Reusable buffer for format conversion
}

// Start creates the output file and prepares the encoder for mono
// 16-bit PCM at the given sample rate.
func (r *Recorder) Start(filename string, sampleRate float64, framesPerBuffer int) error {
	if atomic.LoadInt32(&r.isRecording) == 1 {
		return fmt.Errorf("audio: already recording")
	}

	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("audio: creating recording file: %w", err)
	}
	r.outputFile = file

	r.encoder = wav.NewEncoder(file, int(sampleRate), recordingBitDepth, 1, 1)
	r.sampleBuf = &audio.IntBuffer{
		Format: &audio.Format{
			NumChannels: 1,
			SampleRate:  int(sampleRate),
		},
		Data: make([]int, framesPerBuffer),
	}

	atomic.StoreInt32(&r.isRecording, 1)
	log.Infof("audio: recording analysis channel to %s", filename)

	return nil
}

// Write appends one analysis buffer to the recording. Errors are logged,
// not returned; a failed disk write must never disturb the audio path.
func (r *Recorder) Write(buf Buffer) {
	if atomic.LoadInt32(&r.isRecording) == 0 || r.encoder == nil {
		return
	}

	r.sampleBuf.Data = r.sampleBuf.Data[:cap(r.sampleBuf.Data)]
	n := buf.Frames()
	if n > len(r.sampleBuf.Data) {
		n = len(r.sampleBuf.Data)
	}
	for i := 0; i < n; i++ {
		s := buf.Samples[i]
		if s > 1 {
			s = 1
		} else if s < -1 {
			s = -1
		}
		r.sampleBuf.Data[i] = int(s * 32767)
	}
	r.sampleBuf.Data = r.sampleBuf.Data[:n]

	if err := r.encoder.Write(r.sampleBuf); err != nil {
		log.Errorf("audio: writing recording: %v", err)
	}
}

// Stop finalizes the WAV header and closes the file. Safe to call when
// not recording.
func (r *Recorder) Stop() error {
	if atomic.LoadInt32(&r.isRecording) == 0 {
		return nil
	}

	atomic.StoreInt32(&r.isRecording, 0)

	if r.encoder != nil {
		if err := r.encoder.Close(); err != nil {
			return fmt.Errorf("audio: finalizing recording: %w", err)
		}
		r.encoder = nil
	}

	if r.outputFile != nil {
		if err := r.outputFile.Close(); err != nil {
			return fmt.Errorf("audio: closing recording file: %w", err)
		}
		r.outputFile = nil
	}

	return nil
}
