// SPDX-License-Identifier: MIT
package analysis

import (
	"fmt"
	"math"
	"testing"

	"pulse/internal/audio"
	"pulse/pkg/wavegen"
)

const (
	testFFTSize    = 1024
	testSampleRate = 44100.0
)

func newTestAnalyzer(t *testing.T) *SpectralAnalyzer {
	t.Helper()
	a, err := NewSpectralAnalyzer(testFFTSize, testSampleRate)
	if err != nil {
		t.Fatalf("NewSpectralAnalyzer: %v", err)
	}
	return a
}

func TestNewSpectralAnalyzer_Validation(t *testing.T) {
	tests := []struct {
		name       string
		fftSize    int
		sampleRate float64
		wantErr    bool
	}{
		{"Valid", 1024, 44100, false},
		{"Small power of two", 256, 8000, false},
		{"Non power of two", 1000, 44100, true},
		{"Zero size", 0, 44100, true},
		{"Negative size", -1024, 44100, true},
		{"Zero sample rate", 1024, 0, true},
		{"Negative sample rate", 1024, -44100, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewSpectralAnalyzer(tt.fftSize, tt.sampleRate)
			if (err != nil) != tt.wantErr {
				t.Errorf("NewSpectralAnalyzer(%d, %f) error = %v, wantErr %v",
					tt.fftSize, tt.sampleRate, err, tt.wantErr)
			}
		})
	}
}

func TestDominantFrequency_PureTones(t *testing.T) {
	analyzer := newTestAnalyzer(t)
	binWidth := analyzer.BinWidth()

	// Detection must land within one bin width of the true frequency for
	// any tone in [0, Nyquist).
	frequencies := []float64{
		110,                   // Bass
		440,                   // A4
		1000,                  // Mid
		5000,                  // Presence
		0.45 * testSampleRate, // Near Nyquist
	}

	for _, freq := range frequencies {
		t.Run(fmt.Sprintf("%.0fHz", freq), func(t *testing.T) {
			buf := audio.Buffer{
				Samples:    wavegen.Sine(testFFTSize, testSampleRate, freq, 0.8),
				SampleRate: testSampleRate,
			}

			got := analyzer.DominantFrequency(buf)

			if math.Abs(got-freq) > binWidth {
				t.Errorf("DominantFrequency = %.2f Hz, want %.2f ± %.2f Hz",
					got, freq, binWidth)
			}
		})
	}
}

func TestDominantFrequency_HarmonicSignal(t *testing.T) {
	// 440Hz fundamental carries the most energy among the harmonics.
	analyzer := newTestAnalyzer(t)

	buf := audio.Buffer{
		Samples:    wavegen.Harmonic(testFFTSize, testSampleRate),
		SampleRate: testSampleRate,
	}

	got := analyzer.DominantFrequency(buf)

	if math.Abs(got-440) > analyzer.BinWidth() {
		t.Errorf("DominantFrequency = %.2f Hz, want 440 ± %.2f Hz", got, analyzer.BinWidth())
	}
}

func TestDominantFrequency_FailSoft(t *testing.T) {
	analyzer := newTestAnalyzer(t)

	tests := []struct {
		name string
		buf  audio.Buffer
	}{
		{"Empty buffer", audio.Buffer{SampleRate: testSampleRate}},
		{"Nil samples", audio.Buffer{Samples: nil, SampleRate: testSampleRate}},
		{"Short buffer", audio.Buffer{
			Samples:    wavegen.Sine(100, testSampleRate, 440, 0.8),
			SampleRate: testSampleRate,
		}},
		{"Oversized buffer", audio.Buffer{
			Samples:    wavegen.Sine(testFFTSize*2, testSampleRate, 440, 0.8),
			SampleRate: testSampleRate,
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := analyzer.DominantFrequency(tt.buf); got != 0 {
				t.Errorf("DominantFrequency = %f, want 0 (degraded, non-fatal)", got)
			}
		})
	}
}

func TestDominantFrequency_Silence(t *testing.T) {
	// All-zero input has a flat zero spectrum; the peak search settles on
	// the DC bin, which maps to 0 Hz.
	analyzer := newTestAnalyzer(t)

	buf := audio.Buffer{
		Samples:    wavegen.Silence(testFFTSize),
		SampleRate: testSampleRate,
	}

	if got := analyzer.DominantFrequency(buf); got != 0 {
		t.Errorf("DominantFrequency of silence = %f, want 0", got)
	}
}

func TestDominantFrequency_HotPath(t *testing.T) {
	analyzer := newTestAnalyzer(t)
	buf := audio.Buffer{
		Samples:    wavegen.Harmonic(testFFTSize, testSampleRate),
		SampleRate: testSampleRate,
	}

	// Warm-up call absorbs any one-time setup allocations.
	analyzer.DominantFrequency(buf)

	allocs := testing.AllocsPerRun(100, func() {
		analyzer.DominantFrequency(buf)
	})

	if allocs > 0 {
		t.Errorf("Expected zero allocations in DominantFrequency hot path, got %.1f", allocs)
	}
}

func TestBinWidth(t *testing.T) {
	analyzer := newTestAnalyzer(t)

	want := testSampleRate / float64(testFFTSize)
	if got := analyzer.BinWidth(); got != want {
		t.Errorf("BinWidth = %f, want %f", got, want)
	}
	if analyzer.FFTSize() != testFFTSize {
		t.Errorf("FFTSize = %d, want %d", analyzer.FFTSize(), testFFTSize)
	}
	if analyzer.SampleRate() != testSampleRate {
		t.Errorf("SampleRate = %f, want %f", analyzer.SampleRate(), testSampleRate)
	}
}

func BenchmarkDominantFrequency(b *testing.B) {
	analyzer, err := NewSpectralAnalyzer(testFFTSize, testSampleRate)
	if err != nil {
		b.Fatalf("NewSpectralAnalyzer: %v", err)
	}
	buf := audio.Buffer{
		Samples:    wavegen.Harmonic(testFFTSize, testSampleRate),
		SampleRate: testSampleRate,
	}

	b.ReportAllocs()
	for b.Loop() {
		analyzer.DominantFrequency(buf)
	}
}
