// SPDX-License-Identifier: MIT
package haptics

import "time"

// DebounceInterval is the minimum elapsed time between two pulse
// firings. Actuators have a physical settling time; back-to-back pulses
// during a sustained loud passage feel incoherent.
const DebounceInterval = 100 * time.Millisecond

// TriggerPolicy decides, per buffer, whether a haptic pulse fires. It
// owns the last-trigger timestamp for one analysis session; sessions
// never share a policy, so concurrent sessions never share a debounce
// clock. The timestamp is written only from the session's buffer
// callback goroutine, so no lock is needed.
type TriggerPolicy struct {
	lastTrigger time.Time
}

// NewTriggerPolicy returns a policy that has never fired.
func NewTriggerPolicy() *TriggerPolicy {
	return &TriggerPolicy{}
}

// Decide reports whether a pulse fires for a buffer with the given RMS
// at time now. Fires only when the RMS exceeds the loudness gate AND
// more than DebounceInterval has passed since the previous firing. On a
// positive decision the last-trigger timestamp is advanced to now.
//
// now must come from a monotonic clock (time.Now is fine; Go timestamps
// carry a monotonic reading).
func (p *TriggerPolicy) Decide(rms float64, now time.Time) bool {
	if rms <= LoudnessGate {
		return false
	}
	if !p.lastTrigger.IsZero() && now.Sub(p.lastTrigger) <= DebounceInterval {
		return false
	}
	p.lastTrigger = now
	return true
}
