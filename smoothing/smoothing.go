// Package smoothing applies the cross-frame linear gain ramp every
// rendered entity (bed channel or object) goes through, keyed by a
// per-entity gain history that persists across RenderIABFrame calls.
package smoothing

import "github.com/dts-iab/renderer/config"

// EntityID identifies one rendered entity's place in the gain-history
// map. Bed channels use a surrogate derived from their parent bed's
// metadata ID and channel, so they never collide with object IDs.
type EntityID struct {
	MetadataID uint32
	Channel    config.ChannelID // "" for objects
}

// History is the persistent per-entity, per-output-channel gain vector
// a renderer carries across frames.
type History struct {
	gains   map[EntityID][]float64
	touched map[EntityID]bool
}

// NewHistory returns an empty gain history.
func NewHistory() *History {
	return &History{gains: make(map[EntityID][]float64), touched: make(map[EntityID]bool)}
}

// Touch marks id as present in the current frame, so Sweep keeps it.
func (h *History) Touch(id EntityID) { h.touched[id] = true }

// Gains returns the entity's most recently applied gain vector, or nil
// if the entity has no history yet.
func (h *History) Gains(id EntityID) []float64 { return h.gains[id] }

// Set stores target as the entity's gain vector, for callers (such as
// the multi-threaded renderer) that compute the output samples
// themselves rather than going through Apply.
func (h *History) Set(id EntityID, target []float64) {
	stored := make([]float64, len(target))
	copy(stored, target)
	h.gains[id] = stored
}

// Sweep drops every history entry not touched since the last Sweep,
// and clears the touched set for the next frame.
func (h *History) Sweep() {
	for id := range h.gains {
		if !h.touched[id] {
			delete(h.gains, id)
		}
	}
	h.touched = make(map[EntityID]bool)
}

// Apply ramps dst[c][offset:offset+length] from the entity's previous
// gain vector toward target, linearly over length samples, and records
// target as the entity's new starting point for the next call. If
// smoothingEnabled is false the target gain is applied immediately
// (no ramp). initOutput selects overwrite vs. accumulate into dst (bed
// remaps and multiple objects sharing an output channel accumulate).
func Apply(dst [][]float32, entity EntityID, hist *History, target []float64, x []float32, offset, length int, smoothingEnabled, initOutput bool) {
	start := hist.gains[entity]
	if start == nil {
		start = make([]float64, len(target))
	}

	for c, t := range target {
		s := 0.0
		if c < len(start) {
			s = start[c]
		}
		for k := 0; k < length; k++ {
			var mult float64
			if smoothingEnabled {
				mult = s + (t-s)*float64(k+1)/float64(length)
			} else {
				mult = t
			}
			sample := float32(mult) * x[offset+k]
			if initOutput {
				dst[c][offset+k] = sample
			} else {
				dst[c][offset+k] += sample
			}
		}
	}

	stored := make([]float64, len(target))
	copy(stored, target)
	hist.gains[entity] = stored
	hist.Touch(entity)
}
