package mtrender

import (
	"fmt"
	"sync"

	"github.com/golang/geo/r3"

	"github.com/dts-iab/renderer/asset"
	"github.com/dts-iab/renderer/config"
	"github.com/dts-iab/renderer/coords"
	"github.com/dts-iab/renderer/errs"
	"github.com/dts-iab/renderer/extent"
	"github.com/dts-iab/renderer/iabframe"
	"github.com/dts-iab/renderer/render"
	"github.com/dts-iab/renderer/smoothing"
	"github.com/dts-iab/renderer/vbap"
)

// RenderIABFrame renders frame into out using the worker pool: one
// decode job per referenced audio asset (run to completion before any
// render job starts), then one render job per top-level sub-element,
// drained concurrently by the pool. The first error raised by any
// worker wins and closes the renderer.
func (r *Renderer) RenderIABFrame(frame *iabframe.Frame, out [][]float32) (int, error) {
	if r.closed {
		return 0, errs.ErrClosed
	}
	if frame == nil {
		return 0, fmt.Errorf("%w: nil frame", errs.ErrBadArgument)
	}
	if len(out) != r.cfg.ChannelCount() {
		return 0, fmt.Errorf("%w: output has %d channels, want %d", errs.ErrBadArgument, len(out), r.cfg.ChannelCount())
	}

	numSubBlocks, err := render.NumSubBlocks(frame.FrameRate)
	if err != nil {
		r.closed = true
		return 0, err
	}
	frameSamples, err := render.NumFrameSamples(frame.FrameRate, frame.SampleRate)
	if err != nil {
		r.closed = true
		return 0, err
	}
	for i, ch := range out {
		if len(ch) < frameSamples {
			return 0, fmt.Errorf("%w: output channel %d has %d samples, want >= %d", errs.ErrBadArgument, i, len(ch), frameSamples)
		}
	}
	for _, ch := range out {
		for i := 0; i < frameSamples; i++ {
			ch[i] = 0
		}
	}

	q := newJobQueue()
	var wg sync.WaitGroup
	for i := 0; i < r.poolSize; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			q.worker()
		}()
	}

	decoded := make(map[uint32][]float32)
	var decodeMu sync.Mutex
	var firstErr error
	var errMu sync.Mutex
	setErr := func(e error) {
		errMu.Lock()
		if firstErr == nil {
			firstErr = e
		}
		errMu.Unlock()
	}

	ids := map[uint32]bool{}
	for _, elem := range frame.Elements {
		if !r.useCaseMatches(elem.UseCase()) {
			continue
		}
		collectAudioIDs(frame, elem, ids)
	}
	for id := range ids {
		id := id
		q.submit(func() {
			samples, err := decodeOne(r.dec, frame, id, frameSamples)
			if err != nil {
				setErr(err)
				return
			}
			decodeMu.Lock()
			decoded[id] = samples
			decodeMu.Unlock()
		})
	}
	q.closeAfterWait()
	wg.Wait()

	if firstErr != nil {
		r.closed = true
		return 0, firstErr
	}

	decorrFlags := make([]bool, len(frame.Elements))
	q2 := newJobQueue()
	var wg2 sync.WaitGroup
	for i := 0; i < r.poolSize; i++ {
		wg2.Add(1)
		go func() {
			defer wg2.Done()
			q2.worker()
		}()
	}

	for i, elem := range frame.Elements {
		if !r.useCaseMatches(elem.UseCase()) {
			continue
		}
		i, elem := i, elem
		q2.submit(func() {
			var decorrUsed bool
			var err error
			switch e := elem.(type) {
			case iabframe.Bed:
				decorrUsed, err = r.renderBed(e, frame, decoded, out, frameSamples, numSubBlocks, 0)
			case iabframe.Object:
				decorrUsed, err = r.renderObject(e, frame, decoded, out, frameSamples, numSubBlocks)
			case iabframe.BedRemap:
				err = r.renderBedRemap(e, frame, decoded, out, frameSamples, numSubBlocks)
			}
			if err != nil {
				setErr(err)
				return
			}
			decorrFlags[i] = decorrUsed
		})
	}
	q2.closeAfterWait()
	wg2.Wait()

	if firstErr != nil {
		r.closed = true
		return 0, firstErr
	}

	anyDecorr := false
	for _, f := range decorrFlags {
		anyDecorr = anyDecorr || f
	}
	r.applyDecorrelationTail(out, frameSamples, anyDecorr)

	r.histMu.Lock()
	r.hist.Sweep()
	r.histMu.Unlock()

	return frameSamples, nil
}

func (r *Renderer) useCaseMatches(uc config.UseCase) bool {
	return uc == config.UseCaseAlways || uc == r.cfg.TargetUseCase()
}

func collectAudioIDs(frame *iabframe.Frame, elem iabframe.SubElement, ids map[uint32]bool) {
	switch e := elem.(type) {
	case iabframe.Bed:
		collectBedAudioIDs(e, ids)
	case iabframe.Object:
		if e.AudioDataID != 0 {
			ids[e.AudioDataID] = true
		}
	case iabframe.BedRemap:
		// A remap's source bed may itself be skipped for its use case,
		// so the source bed's channels are collected here as well.
		for _, other := range frame.Elements {
			if bed, ok := other.(iabframe.Bed); ok && bed.ID == e.SourceBedID {
				for _, ch := range bed.Channels {
					if ch.AudioDataID != 0 {
						ids[ch.AudioDataID] = true
					}
				}
				break
			}
		}
	}
}

func collectBedAudioIDs(bed iabframe.Bed, ids map[uint32]bool) {
	for _, ch := range bed.Channels {
		if ch.AudioDataID != 0 {
			ids[ch.AudioDataID] = true
		}
	}
	for _, nested := range bed.Nested {
		collectBedAudioIDs(nested, ids)
	}
}

func decodeOne(dec asset.Decoder, frame *iabframe.Frame, id uint32, frameSamples int) ([]float32, error) {
	a, ok := frame.Assets[id]
	if !ok {
		return nil, fmt.Errorf("%w: unresolvable audioDataID %d", errs.ErrMalformedElement, id)
	}
	buf := make([]float32, frameSamples)
	if a.IsDLC {
		if err := dec.DecodeDLC(asset.DLCElement{AudioDataID: id, FrameRate: frame.FrameRate, CodedRate: a.CodedRate, Payload: a.Payload}, frame.SampleRate, buf); err != nil {
			return nil, err
		}
		return buf, nil
	}
	if err := dec.UnpackPCM(asset.PCMElement{AudioDataID: id, BitDepth: 24, SampleRate: frame.SampleRate, Payload: a.Payload}, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

func vbapGainsFor(r *Renderer, pos r3.Vector, aperture, divergence, gain float64) ([]float64, bool) {
	sources := extent.Expand(pos, aperture, divergence)
	return vbap.Pan(r.patches, r.cfg.ChannelCount(), sources, gain)
}

func (r *Renderer) smoothAndMix(entity smoothing.EntityID, target []float64, samples []float32, offset, length int, out [][]float32) {
	r.histMu.Lock()
	start := r.hist.Gains(entity)
	r.histMu.Unlock()

	local := make([][]float32, len(out))
	for c := range out {
		local[c] = make([]float32, length)
	}

	for c, t := range target {
		s := 0.0
		if c < len(start) {
			s = start[c]
		}
		for k := 0; k < length; k++ {
			mult := t
			if r.cfg.SmoothingEnabled() {
				mult = s + (t-s)*float64(k+1)/float64(length)
			}
			local[c][k] = float32(mult) * samples[offset+k]
		}
	}

	for c := range out {
		r.addToChannel(out[c], c, offset, length, local[c])
	}

	r.histMu.Lock()
	r.hist.Set(entity, target)
	r.hist.Touch(entity)
	r.histMu.Unlock()
}

func objectSourcePosition(x, y, z float64) r3.Vector {
	return coords.IABToVBAP(x, y, z)
}
