// SPDX-License-Identifier: MIT
package haptics

import "pulse/internal/log"

// Emitter is the haptic emission capability. Implementations must be
// thread-safe; the session dispatches to them from a single non-real-time
// goroutine, but Close may race with a final emission.
//
// SupportsEvents reports whether the backend accepts parametric events.
// The session queries it once at construction; backends without
// fine-grained support receive EmitPulse, a coarse non-parametric pulse,
// instead.
type Emitter interface {
	SupportsEvents() bool
	EmitEvent(ev Event) error
	EmitPulse() error
	Close() error
}

// LogEmitter writes pulses to the application log instead of driving an
// actuator. It never fails, which makes it the default emission backend.
type LogEmitter struct{}

// NewLogEmitter creates a LogEmitter.
func NewLogEmitter() *LogEmitter {
	log.Infof("haptics: using log emitter")
	return &LogEmitter{}
}

// SupportsEvents always reports true; the log can render any parameters.
func (e *LogEmitter) SupportsEvents() bool { return true }

// EmitEvent logs the event's parameters.
func (e *LogEmitter) EmitEvent(ev Event) error {
	log.Infof("haptics: pulse intensity=%.2f sharpness=%.2f duration=%.2fs",
		ev.Intensity, ev.Sharpness, ev.Duration)
	return nil
}

// EmitPulse logs a coarse fallback pulse.
func (e *LogEmitter) EmitPulse() error {
	log.Infof("haptics: coarse pulse")
	return nil
}

// Close is a no-op.
func (e *LogEmitter) Close() error { return nil }

var _ Emitter = (*LogEmitter)(nil)
