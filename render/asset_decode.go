package render

import (
	"fmt"

	"github.com/dts-iab/renderer/asset"
	"github.com/dts-iab/renderer/errs"
	"github.com/dts-iab/renderer/iabframe"
)

func (r *Renderer) decodeAsset(frame *iabframe.Frame, audioDataID uint32, frameSamples int) ([]float32, error) {
	if audioDataID == 0 {
		return nil, nil // silence
	}
	a, ok := frame.Assets[audioDataID]
	if !ok {
		return nil, fmt.Errorf("%w: unresolvable audioDataID %d", errs.ErrMalformedElement, audioDataID)
	}

	buf := make([]float32, frameSamples)
	if a.IsDLC {
		err := r.dec.DecodeDLC(asset.DLCElement{
			AudioDataID: audioDataID,
			FrameRate:   frame.FrameRate,
			CodedRate:   a.CodedRate,
			Payload:     a.Payload,
		}, frame.SampleRate, buf)
		if err != nil {
			return nil, err
		}
		return buf, nil
	}

	err := r.dec.UnpackPCM(asset.PCMElement{
		AudioDataID: audioDataID,
		BitDepth:    24,
		SampleRate:  frame.SampleRate,
		Payload:     a.Payload,
	}, buf)
	if err != nil {
		return nil, err
	}
	return buf, nil
}
