// SPDX-License-Identifier: MIT
package audio

import (
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/go-audio/wav"

	"pulse/pkg/wavegen"
)

const (
	testSampleRate = 44100.0
	testFrameSize  = 1024
)

func TestRecordingStartStop(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "test_recording.wav")
	rec := &Recorder{}

	if err := rec.Start(filename, testSampleRate, testFrameSize); err != nil {
		t.Fatalf("Failed to start recording: %v", err)
	}

	if atomic.LoadInt32(&rec.isRecording) != 1 {
		t.Error("Recorder should be in recording state")
	}
	if rec.outputFile == nil {
		t.Error("Output file should be initialized")
	}
	if rec.encoder == nil {
		t.Error("WAV encoder should be initialized")
	}
	if rec.sampleBuf == nil {
		t.Error("Sample buffer should be initialized")
	}
	if len(rec.sampleBuf.Data) != testFrameSize {
		t.Errorf("Buffer size mismatch: got %d, want %d", len(rec.sampleBuf.Data), testFrameSize)
	}

	if err := rec.Stop(); err != nil {
		t.Fatalf("Failed to stop recording: %v", err)
	}

	if atomic.LoadInt32(&rec.isRecording) != 0 {
		t.Error("Recorder should not be in recording state after stopping")
	}
	if rec.outputFile != nil {
		t.Error("Output file should be nil after stopping")
	}
	if rec.encoder != nil {
		t.Error("WAV encoder should be nil after stopping")
	}

	if _, err := os.Stat(filename); os.IsNotExist(err) {
		t.Error("Recording file was not created")
	}
}

func TestRecordingRoundTrip(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "roundtrip.wav")
	rec := &Recorder{}

	if err := rec.Start(filename, testSampleRate, testFrameSize); err != nil {
		t.Fatalf("Failed to start recording: %v", err)
	}

	buf := Buffer{
		Samples:    wavegen.Sine(testFrameSize, testSampleRate, 440, 0.5),
		SampleRate: testSampleRate,
	}
	for i := 0; i < 4; i++ {
		rec.Write(buf)
	}

	if err := rec.Stop(); err != nil {
		t.Fatalf("Failed to stop recording: %v", err)
	}

	f, err := os.Open(filename)
	if err != nil {
		t.Fatalf("Failed to open recording: %v", err)
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		t.Fatal("Recording is not a valid WAV file")
	}
	if dec.NumChans != 1 {
		t.Errorf("Channels = %d, want 1", dec.NumChans)
	}
	if dec.SampleRate != uint32(testSampleRate) {
		t.Errorf("Sample rate = %d, want %d", dec.SampleRate, int(testSampleRate))
	}
	if dec.BitDepth != recordingBitDepth {
		t.Errorf("Bit depth = %d, want %d", dec.BitDepth, recordingBitDepth)
	}

	pcm, err := dec.FullPCMBuffer()
	if err != nil {
		t.Fatalf("Failed to decode recording: %v", err)
	}
	if len(pcm.Data) != 4*testFrameSize {
		t.Errorf("Decoded %d samples, want %d", len(pcm.Data), 4*testFrameSize)
	}
}

func TestRecordingClampsOutOfRangeSamples(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "clamp.wav")
	rec := &Recorder{}

	if err := rec.Start(filename, testSampleRate, 4); err != nil {
		t.Fatalf("Failed to start recording: %v", err)
	}

	rec.Write(Buffer{
		Samples:    []float32{2.0, -2.0, 0.0, 1.0},
		SampleRate: testSampleRate,
	})

	if rec.sampleBuf.Data[0] != 32767 {
		t.Errorf("Sample above +1 should clamp to 32767, got %d", rec.sampleBuf.Data[0])
	}
	if rec.sampleBuf.Data[1] != -32767 {
		t.Errorf("Sample below -1 should clamp to -32767, got %d", rec.sampleBuf.Data[1])
	}

	if err := rec.Stop(); err != nil {
		t.Fatalf("Failed to stop recording: %v", err)
	}
}

func TestRecordingErrorCases(t *testing.T) {
	dir := t.TempDir()

	t.Run("Already recording", func(t *testing.T) {
		rec := &Recorder{}
		if err := rec.Start(filepath.Join(dir, "a.wav"), testSampleRate, testFrameSize); err != nil {
			t.Fatalf("Start error: %v", err)
		}
		defer rec.Stop()

		err := rec.Start(filepath.Join(dir, "b.wav"), testSampleRate, testFrameSize)
		if err == nil || !strings.Contains(err.Error(), "already recording") {
			t.Errorf("expected already recording error, got %v", err)
		}
	})

	t.Run("Invalid path", func(t *testing.T) {
		rec := &Recorder{}
		if err := rec.Start("/nonexistent/path/file.wav", testSampleRate, testFrameSize); err == nil {
			t.Error("expected error for invalid path")
		}
	})

	t.Run("Stop when not recording", func(t *testing.T) {
		rec := &Recorder{}
		if err := rec.Stop(); err != nil {
			t.Errorf("Stop on idle recorder should be a no-op, got %v", err)
		}
	})

	t.Run("Write when not recording", func(t *testing.T) {
		rec := &Recorder{}
		rec.Write(Buffer{Samples: []float32{0.5}, SampleRate: testSampleRate})
	})
}

func TestRecordingNoAllocsConversion(t *testing.T) {
	rec := &Recorder{}
	filename := filepath.Join(t.TempDir(), "alloc.wav")
	if err := rec.Start(filename, testSampleRate, testFrameSize); err != nil {
		t.Fatalf("Failed to start recording: %v", err)
	}
	defer rec.Stop()

	samples := wavegen.Sine(testFrameSize, testSampleRate, 440, 0.5)

	// The recorder's own format conversion must not allocate; the encoder
	// write is excluded since it buffers internally.
	allocs := testing.AllocsPerRun(100, func() {
		for i, s := range samples {
			if s > 1 {
				s = 1
			} else if s < -1 {
				s = -1
			}
			rec.sampleBuf.Data[i] = int(s * 32767)
		}
	})
	if allocs > 0 {
		t.Errorf("Conversion loop allocated memory: got %.1f allocs, want 0", allocs)
	}
}

func BenchmarkRecordingWrite(b *testing.B) {
	rec := &Recorder{}
	filename := filepath.Join(b.TempDir(), "bench.wav")
	if err := rec.Start(filename, testSampleRate, testFrameSize); err != nil {
		b.Fatalf("Failed to start recording: %v", err)
	}
	defer rec.Stop()

	buf := Buffer{
		Samples:    wavegen.Sine(testFrameSize, testSampleRate, 440, 0.5),
		SampleRate: testSampleRate,
	}

	b.ReportAllocs()
	b.ResetTimer()

	for b.Loop() {
		rec.Write(buf)
	}
}
