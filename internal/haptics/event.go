// SPDX-License-Identifier: MIT
/*
Package haptics turns per-buffer analysis results into haptic pulses:
the trigger policy decides whether a pulse fires, the parameter mapper
derives its intensity and texture, and an Emitter delivers it to
whatever actuator bridge is configured.
*/
package haptics

// Event is a single parametric haptic pulse. Constructed by MapEvent,
// consumed once by an Emitter, then discarded.
type Event struct {
	Intensity     float64 `json:"intensity"`      // Perceived strength, [0, 1]
	Sharpness     float64 `json:"sharpness"`      // Perceived texture, [0, 1]
	Duration      float64 `json:"duration"`       // Seconds, > 0
	RelativeStart float64 `json:"relative_start"` // Seconds from emission, >= 0
}
