package mtrender

import (
	"fmt"

	"github.com/dts-iab/renderer/config"
	"github.com/dts-iab/renderer/errs"
	"github.com/dts-iab/renderer/extent"
	"github.com/dts-iab/renderer/iabframe"
	"github.com/dts-iab/renderer/smoothing"
	"github.com/dts-iab/renderer/vbap"
)

func (r *Renderer) renderBed(bed iabframe.Bed, frame *iabframe.Frame, decoded map[uint32][]float32, out [][]float32, frameSamples, numSubBlocks, depth int) (bool, error) {
	const maxDepth = 4
	if depth > maxDepth {
		return false, fmt.Errorf("%w: bed nesting exceeds depth limit %d", errs.ErrMalformedElement, maxDepth)
	}

	for _, ch := range bed.Channels {
		if ch.AudioDataID == 0 {
			continue
		}
		samples, ok := decoded[ch.AudioDataID]
		if !ok {
			return false, fmt.Errorf("%w: audioDataID %d was not decoded", errs.ErrMalformedElement, ch.AudioDataID)
		}

		entity := smoothing.EntityID{MetadataID: bed.MetadataID, Channel: ch.Channel}

		if idx, ok := r.cfg.IndexByURI(channelURI(ch.Channel)); ok {
			target := make([]float64, r.cfg.ChannelCount())
			target[idx] = ch.Gain
			r.smoothAndMix(entity, target, samples, 0, frameSamples, out)
			continue
		}

		info, ok := config.BedChannelTable()[ch.Channel]
		if !ok {
			return false, fmt.Errorf("%w: unknown bed channel %q", errs.ErrMalformedElement, ch.Channel)
		}
		sources := extent.Expand(info.VBAP, 0, 0)
		gains, warn := vbap.Pan(r.patches, r.cfg.ChannelCount(), sources, ch.Gain)
		if warn {
			r.warn("vbap_no_enclosing_patch")
		}
		r.smoothAndMix(entity, gains, samples, 0, frameSamples, out)
	}

	decorrUsed := false
	for _, nested := range bed.Nested {
		nestedDecorr, err := r.renderBed(nested, frame, decoded, out, frameSamples, numSubBlocks, depth+1)
		if err != nil {
			return decorrUsed, err
		}
		decorrUsed = decorrUsed || nestedDecorr
	}
	return decorrUsed, nil
}

func channelURI(ch config.ChannelID) string {
	if info, ok := config.BedChannelTable()[ch]; ok {
		return info.URI
	}
	return ""
}

func (r *Renderer) renderObject(obj iabframe.Object, frame *iabframe.Frame, decoded map[uint32][]float32, out [][]float32, frameSamples, numSubBlocks int) (bool, error) {
	if obj.AudioDataID == 0 {
		return false, nil
	}
	samples, ok := decoded[obj.AudioDataID]
	if !ok {
		return false, fmt.Errorf("%w: audioDataID %d was not decoded", errs.ErrMalformedElement, obj.AudioDataID)
	}

	spanLen := frameSamples / numSubBlocks
	entity := smoothing.EntityID{MetadataID: obj.MetadataID}
	decorrUsed := false

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

		pos := objectSourcePosition(sb.X, sb.Y, sb.Z)

		var gains []float64
		if sb.SnapToSpeaker {
			g, snapped := vbap.Snap(r.cfg.PhysicalSpeakers(), pos, 0.05, sb.Gain)
			if snapped {
				gains = g
			}
		}
		if gains == nil {
			g, warn := vbapGainsFor(r, pos, sb.Aperture, sb.Divergence, sb.Gain)
			if warn {
				r.warn("vbap_no_enclosing_patch")
			}
			gains = g
		}

		if sb.ObjectZoneControl {
			g, matched := r.zone.ProcessZoneGains(true, sb.ZoneGains, gains)
			if !matched {
				r.warn("zone9_pattern_mismatch")
			}
			gains = g
		}

		r.smoothAndMix(entity, gains, samples, offset, length, out)

		if sb.DecorrelationOn {
			decorrUsed = true
		}
	}

	return decorrUsed, nil
}

func (r *Renderer) renderBedRemap(remap iabframe.BedRemap, frame *iabframe.Frame, decoded map[uint32][]float32, out [][]float32, frameSamples, numSubBlocks int) error {
	var sourceBed *iabframe.Bed
	for _, elem := range frame.Elements {
		if bed, ok := elem.(iabframe.Bed); ok && bed.ID == remap.SourceBedID {
			b := bed
			sourceBed = &b
			break
		}
	}
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
		pos := objectSourcePosition(dest.X, dest.Y, dest.Z)
		g, warn := vbapGainsFor(r, pos, 0, 0, 1.0)
		if warn {
			r.warn("vbap_no_enclosing_patch")
		}
		destGains[d] = g
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
			if ch.AudioDataID == 0 {
				continue
			}
			samples, ok := decoded[ch.AudioDataID]
			if !ok {
				return fmt.Errorf("%w: audioDataID %d was not decoded", errs.ErrMalformedElement, ch.AudioDataID)
			}

			target := make([]float64, r.cfg.ChannelCount())
			for d := range remap.Destinations {
				if s >= len(sb.Gains) {
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
			r.smoothAndMix(entity, target, samples, offset, length, out)
		}
	}

	return nil
}
