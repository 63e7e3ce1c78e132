// SPDX-License-Identifier: MIT
package haptics

// Tuning constants. These are deliberate fixed values, not derived:
// the gate filters the noise floor, the band edges approximate the
// perceptual correspondence between pitch and touch sharpness.
const (
	// LoudnessGate is the RMS level a buffer must exceed before a pulse
	// may fire. Shared by the trigger policy and the intensity mapping.
	LoudnessGate = 0.2

	lowBandHz = 60.0  // Below: dull bass texture
	midBandHz = 120.0 // Below: middle texture; at or above: sharp

	pulseDuration = 0.5 // Seconds, fixed for every pulse
)

// MapEvent converts a buffer's RMS and dominant frequency into pulse
// parameters. Loudness at or below the gate never reaches this mapper in
// the pipeline (filtered by the trigger policy), but the mapping is
// defined for all inputs. Pure function.
func MapEvent(rms, freq float64) Event {
	// Rescale the gate-to-max loudness range onto full intensity.
	intensity := (rms - LoudnessGate) * 2
	if intensity < 0 {
		intensity = 0
	} else if intensity > 1 {
		intensity = 1
	}

	var sharpness float64
	switch {
	case freq < lowBandHz:
		sharpness = 0.1
	case freq < midBandHz:
		sharpness = 0.3
	default:
		sharpness = 1.0
	}

	return Event{
		Intensity:     intensity,
		Sharpness:     sharpness,
		Duration:      pulseDuration,
		RelativeStart: 0,
	}
}
