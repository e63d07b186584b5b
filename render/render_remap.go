package render

import (
	"fmt"

	"github.com/dts-iab/renderer/coords"
	"github.com/dts-iab/renderer/errs"
	"github.com/dts-iab/renderer/extent"
	"github.com/dts-iab/renderer/iabframe"
	"github.com/dts-iab/renderer/smoothing"
	"github.com/dts-iab/renderer/vbap"
)

// renderBedRemap renders a bed remap: each destination row is either a
// named physical speaker (unit gain vector) or a nominal IAB-cube
// position rendered through VBAP, and the remap's D x S gain matrix
// scales each source channel's contribution to each destination before
// summing into out.
func (r *Renderer) renderBedRemap(remap iabframe.BedRemap, frame *iabframe.Frame, out [][]float32, frameSamples, numSubBlocks int) error {
	sourceBed := findBed(frame, remap.SourceBedID)
	if sourceBed == nil {
		return fmt.Errorf("%w: bed remap references unknown source bed %q", errs.ErrMalformedElement, remap.SourceBedID)
	}

	destGains := make([][]float64, len(remap.Destinations))
	for d, dest := range remap.Destinations {
		if dest.SpeakerName != "" {
			idx, ok := r.cfg.IndexByName(dest.SpeakerName)
			if !ok {
				return fmt.Errorf("%w: bed remap destination references unknown speaker %q", errs.ErrMalformedElement, dest.SpeakerName)
			}
			v := make([]float64, r.cfg.ChannelCount())
			v[idx] = 1
			destGains[d] = v
			continue
		}
		pos := coords.IABToVBAP(dest.X, dest.Y, dest.Z)
		sources := extent.Expand(pos, 0, 0)
		g, warn := vbap.Pan(r.patches, r.cfg.ChannelCount(), sources, 1.0)
		if warn {
			r.warn("vbap_no_enclosing_patch")
		}
		destGains[d] = g
	}

	sourceSamples := make([][]float32, len(sourceBed.Channels))
	for s, ch := range sourceBed.Channels {
		samples, err := r.decodeAsset(frame, ch.AudioDataID, frameSamples)
		if err != nil {
			return err
		}
		sourceSamples[s] = samples
	}

	spanLen := frameSamples / numSubBlocks
	var last iabframe.BedRemapSubBlock
	for i := 0; i < numSubBlocks; i++ {
		var sb iabframe.BedRemapSubBlock
		if i < len(remap.SubBlocks) {
			sb = remap.SubBlocks[i]
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

		for s, ch := range sourceBed.Channels {
			samples := sourceSamples[s]
			if samples == nil {
				continue
			}

			target := make([]float64, r.cfg.ChannelCount())
			for d := range remap.Destinations {
				if s >= len(sb.Gains) || len(sb.Gains[s]) == 0 {
					continue
				}
				colGain := 0.0
				if d < len(sb.Gains[s]) {
					colGain = sb.Gains[s][d]
				}
				for c, g := range destGains[d] {
					target[c] += g * colGain
				}
			}

			entity := smoothing.EntityID{MetadataID: remap.MetadataID, Channel: ch.Channel}
			smoothing.Apply(out, entity, r.hist, target, samples, offset, length, r.cfg.SmoothingEnabled(), false)
		}
	}

	return nil
}

func findBed(frame *iabframe.Frame, id string) *iabframe.Bed {
	for _, elem := range frame.Elements {
		if bed, ok := elem.(iabframe.Bed); ok && bed.ID == id {
			return &bed
		}
	}
	return nil
}
