// SPDX-License-Identifier: MIT
/*
Package session wires the analysis pipeline together: it owns the audio
stream lifecycle and, once per buffer, runs loudness estimation, spectral
analysis and the trigger policy synchronously on the source's delivery
goroutine. Positive decisions are handed to a dispatch goroutine so that
a slow haptic backend can never stall the audio path.

A session moves Idle → Running → Stopped; Stopped is terminal, construct
a new session to run again.
*/
package session

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"pulse/internal/analysis"
	"pulse/internal/audio"
	"pulse/internal/haptics"
	"pulse/internal/log"
)

const (
	stateIdle int32 = iota
	stateRunning
	stateStopped
)

var (
	// ErrNotIdle is returned by Start on a session that already ran.
	ErrNotIdle = errors.New("session: not idle")
	// ErrNotRunning is returned by Stop on a session that isn't running.
	ErrNotRunning = errors.New("session: not running")
)

// dispatchQueueSize bounds the emission backlog. At one event per
// debounce interval the dispatcher would need to fall 1.6s behind before
// anything is dropped.
const dispatchQueueSize = 16

// Session orchestrates one analysis run over one audio source.
type Session struct {
	source  audio.Source
	emitter haptics.Emitter

	analyzer *analysis.SpectralAnalyzer
	policy   *haptics.TriggerPolicy

	// Queried once at construction and immutable after; the capability
	// check must not run per buffer.
	supportsEvents bool

	recorder *audio.Recorder // Optional analysis-channel tap

	state    atomic.Int32
	events   chan haptics.Event
	done     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup

	clock func() time.Time // Injectable for tests
}

// New builds a session for the given source and emission backend. The
// analyzer's scratch buffers are sized here, once, to framesPerBuffer;
// nothing allocates per buffer after this point. A nil emitter is valid:
// analysis runs, emission is skipped.
func New(framesPerBuffer int, sampleRate float64, source audio.Source, emitter haptics.Emitter) (*Session, error) {
	analyzer, err := analysis.NewSpectralAnalyzer(framesPerBuffer, sampleRate)
	if err != nil {
		return nil, err
	}

	supportsEvents := false
	if emitter != nil {
		supportsEvents = emitter.SupportsEvents()
		if !supportsEvents {
			log.Infof("session: emitter lacks parametric support, using coarse pulses")
		}
	}

	return &Session{
		source:         source,
		emitter:        emitter,
		analyzer:       analyzer,
		policy:         haptics.NewTriggerPolicy(),
		supportsEvents: supportsEvents,
		events:         make(chan haptics.Event, dispatchQueueSize),
		done:           make(chan struct{}),
		clock:          time.Now,
	}, nil
}

// AttachRecorder taps the analysis channel into r. Must be called before
// Start.
func (s *Session) AttachRecorder(r *audio.Recorder) {
	s.recorder = r
}

// Start transitions Idle → Running: launches the dispatch goroutine and
// opens the audio source with the per-buffer callback. A failed source
// start leaves the session Stopped.
func (s *Session) Start() error {
	if !s.state.CompareAndSwap(stateIdle, stateRunning) {
		return ErrNotIdle
	}

	s.wg.Add(1)
	go s.dispatch()

	if err := s.source.Start(s.ProcessBuffer); err != nil {
		s.state.Store(stateStopped)
		s.stopOnce.Do(func() { close(s.done) })
		s.wg.Wait()
		return fmt.Errorf("session: starting audio source: %w", err)
	}

	log.Infof("session: running")
	return nil
}

// ProcessBuffer is the per-buffer analysis callback, invoked by the
// source on its delivery goroutine. Hot path: everything here must stay
// well under one buffer period, so it uses pre-sized scratch only and
// hands emission to the dispatcher without blocking.
func (s *Session) ProcessBuffer(buf audio.Buffer) {
	if s.state.Load() != stateRunning {
		return
	}

	if s.recorder != nil {
		s.recorder.Write(buf)
	}

	rms := analysis.RMS(buf)
	freq := s.analyzer.DominantFrequency(buf)

	if !s.policy.Decide(rms, s.clock()) {
		return
	}

	ev := haptics.MapEvent(rms, freq)
	select {
	case s.events <- ev:
	default:
		// Dispatcher has fallen far behind; dropping beats blocking the
		// audio path.
		log.Warnf("session: haptic dispatch queue full, dropping event")
	}
}

// dispatch forwards queued events to the emitter off the real-time path.
// It exits immediately when the session stops; events still queued at
// that point are discarded, never emitted.
func (s *Session) dispatch() {
	defer s.wg.Done()
	for {
		select {
		case <-s.done:
			return
		case ev := <-s.events:
			s.emit(ev)
		}
	}
}

// emit delivers one event, degrading per the capability model: no
// emitter means skip silently, a backend without parametric support gets
// the coarse pulse, and a failed parametric emission falls back to the
// coarse pulse. No outcome here may disturb the audio stream.
func (s *Session) emit(ev haptics.Event) {
	if s.emitter == nil {
		return
	}

	if !s.supportsEvents {
		if err := s.emitter.EmitPulse(); err != nil {
			log.Errorf("session: coarse pulse failed: %v", err)
		}
		return
	}

	if err := s.emitter.EmitEvent(ev); err != nil {
		log.Errorf("session: emitting haptic event: %v", err)
		if err := s.emitter.EmitPulse(); err != nil {
			log.Debugf("session: fallback pulse also failed: %v", err)
		}
	}
}

// Stop transitions Running → Stopped. The source is halted first and
// synchronously, so no new buffer callback can begin; the state word
// keeps any already-running callback from enqueueing; then the
// dispatcher is signalled and awaited. When Stop returns, no further
// emission call can occur.
func (s *Session) Stop() error {
	if !s.state.CompareAndSwap(stateRunning, stateStopped) {
		return ErrNotRunning
	}

	srcErr := s.source.Stop()

	s.stopOnce.Do(func() { close(s.done) })
	s.wg.Wait()

	var recErr error
	if s.recorder != nil {
		recErr = s.recorder.Stop()
	}

	log.Infof("session: stopped")

	if srcErr != nil {
		return fmt.Errorf("session: stopping audio source: %w", srcErr)
	}
	return recErr
}
