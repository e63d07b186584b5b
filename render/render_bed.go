package render

import (
	"fmt"

	"github.com/dts-iab/renderer/config"
	"github.com/dts-iab/renderer/errs"
	"github.com/dts-iab/renderer/extent"
	"github.com/dts-iab/renderer/iabframe"
	"github.com/dts-iab/renderer/smoothing"
	"github.com/dts-iab/renderer/vbap"
)

// renderBed renders a (possibly nested) bed definition's channels into
// out. Direct-routed channels (whose channel-ID resolves to a
// physical speaker) are copied with smoothing; channels with no
// matching physical speaker are rendered as fixed-position VBAP
// objects ("bed channel as object"), per the reference renderer's
// RenderIABChannelAsObject.
func (r *Renderer) renderBed(bed iabframe.Bed, frame *iabframe.Frame, out [][]float32, frameSamples, numSubBlocks, depth int) (decorrUsed bool, err error) {
	if depth > MaxBedNestingDepth {
		return false, fmt.Errorf("%w: bed nesting exceeds depth limit %d", errs.ErrMalformedElement, MaxBedNestingDepth)
	}

	for _, ch := range bed.Channels {
		samples, err := r.decodeAsset(frame, ch.AudioDataID, frameSamples)
		if err != nil {
			return decorrUsed, err
		}
		if samples == nil {
			continue
		}

		entity := smoothing.EntityID{MetadataID: bed.MetadataID, Channel: ch.Channel}

		if idx, ok := r.cfg.IndexByURI(channelURI(ch.Channel)); ok {
			target := make([]float64, r.cfg.ChannelCount())
			target[idx] = ch.Gain
			smoothing.Apply(out, entity, r.hist, target, samples, 0, frameSamples, r.cfg.SmoothingEnabled(), false)
			continue
		}

		info, ok := config.BedChannelTable()[ch.Channel]
		if !ok {
			return decorrUsed, fmt.Errorf("%w: unknown bed channel %q", errs.ErrMalformedElement, ch.Channel)
		}
		sources := extent.Expand(info.VBAP, 0, 0)
		gains, warn := vbap.Pan(r.patches, r.cfg.ChannelCount(), sources, ch.Gain)
		if warn {
			r.warn("vbap_no_enclosing_patch")
		}
		smoothing.Apply(out, entity, r.hist, gains, samples, 0, frameSamples, r.cfg.SmoothingEnabled(), false)
	}

	for _, nested := range bed.Nested {
		nestedDecorr, err := r.renderBed(nested, frame, out, frameSamples, numSubBlocks, depth+1)
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
