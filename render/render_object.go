package render

import (
	"github.com/dts-iab/renderer/extent"
	"github.com/dts-iab/renderer/iabframe"
	"github.com/dts-iab/renderer/smoothing"
	"github.com/dts-iab/renderer/vbap"
)

// snapTolerance is the maximum IAB-cube distance a snap-to-speaker
// object position may be from a physical speaker for the snap to take
// effect.
const snapTolerance = 0.05

// renderObject walks an object's sub-block sequence, panning each
// sub-block's span of samples (snap-to-speaker, or extent-expanded
// VBAP followed by zone-9 redistribution) and applying gain smoothing
// into out. It returns whether any sub-block requested decorrelation.
func (r *Renderer) renderObject(obj iabframe.Object, frame *iabframe.Frame, out [][]float32, frameSamples, numSubBlocks int) (decorrUsed bool, err error) {
	samples, err := r.decodeAsset(frame, obj.AudioDataID, frameSamples)
	if err != nil {
		return false, err
	}
	if samples == nil {
		return false, nil
	}

	spanLen := frameSamples / numSubBlocks
	entity := smoothing.EntityID{MetadataID: obj.MetadataID}

	var last iabframe.ObjectSubBlock
	for i := 0; i < numSubBlocks; i++ {
		var sb iabframe.ObjectSubBlock
		if i < len(obj.SubBlocks) {
			sb = obj.SubBlocks[i]
		}
		if sb.Exists {
			last = sb
		} else {
			sb = last
		}

		offset := i * spanLen
		length := spanLen
		if i == numSubBlocks-1 {
			length = frameSamples - offset
		}

		pos := objectSourcePosition(sb)

		var gains []float64
		if sb.SnapToSpeaker {
			g, snapped := vbap.Snap(r.cfg.PhysicalSpeakers(), pos, snapTolerance, sb.Gain)
			if snapped {
				gains = g
			}
		}
		if gains == nil {
			if cached, ok := r.cache.Lookup(pos, sb.Aperture, sb.Divergence, sb.Gain, 0); ok {
				gains = cached
			} else {
				sources := extent.Expand(pos, sb.Aperture, sb.Divergence)
				g, warn := vbap.Pan(r.patches, r.cfg.ChannelCount(), sources, sb.Gain)
				if warn {
					r.warn("vbap_no_enclosing_patch")
				}
				r.cache.Store(pos, sb.Aperture, sb.Divergence, sb.Gain, 0, g)
				gains = g
			}
		}

		if sb.ObjectZoneControl {
			g, matched := r.zone.ProcessZoneGains(true, sb.ZoneGains, gains)
			if !matched {
				r.warn("zone9_pattern_mismatch")
			}
			gains = g
		}

		smoothing.Apply(out, entity, r.hist, gains, samples, offset, length, r.cfg.SmoothingEnabled(), false)

		if sb.DecorrelationOn {
			decorrUsed = true
		}
	}

	return decorrUsed, nil
}
