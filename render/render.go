// Package render implements the single-threaded IAB frame renderer: the
// full per-frame pipeline from parsed sub-elements to rendered PCM,
// wiring together the coords, extent, vbap, zone9, smoothing, asset and
// decorrelation packages.
package render

import (
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/golang/geo/r3"
	"github.com/lestrrat-go/strftime"

	"github.com/dts-iab/renderer/asset"
	"github.com/dts-iab/renderer/config"
	"github.com/dts-iab/renderer/coords"
	"github.com/dts-iab/renderer/decorrelation"
	"github.com/dts-iab/renderer/errs"
	"github.com/dts-iab/renderer/extent"
	"github.com/dts-iab/renderer/iabframe"
	"github.com/dts-iab/renderer/smoothing"
	"github.com/dts-iab/renderer/vbap"
	"github.com/dts-iab/renderer/zone9"
)

// MaxBedNestingDepth bounds how deep nested bed sub-elements may go
// before the frame is rejected as malformed. The reference format does
// not fix a number; this mirrors the "explicit depth limit" the format
// guidance calls for.
const MaxBedNestingDepth = 4

// DecorrelationHoldoverFrames is how many frames the decorrelation tail
// continues mixing in after the last decorrelation-enabled object,
// avoiding an audible hard cut when an object's decorrelation flag
// toggles off.
const DecorrelationHoldoverFrames = 4

const diagnosticTimestampFormat = "%Y-%m-%d %H:%M:%S"

// Renderer renders successive IAB frames against a fixed Config,
// carrying gain-smoothing history and decorrelation delay-line state
// across frames, plus a VBAP result cache that is cleared at the start
// of every frame.
type Renderer struct {
	cfg     *config.Config
	dec     asset.Decoder
	logger  *log.Logger
	patches []vbap.PreparedPatch
	zone    *zone9.Engine
	hist    *smoothing.History
	cache   *vbap.Cache

	decorr       []decorrelation.Processor // one per output channel
	decorrHold   int                       // frames remaining in the current tail-off

	warnings map[string]int
	closed   bool
}

// New constructs a Renderer for cfg, decoding audio assets via dec.
func New(cfg *config.Config, dec asset.Decoder) (*Renderer, error) {
	if cfg == nil {
		return nil, fmt.Errorf("%w: nil config", errs.ErrBadArgument)
	}
	if dec == nil {
		return nil, fmt.Errorf("%w: nil decoder", errs.ErrBadArgument)
	}

	decorr := make([]decorrelation.Processor, cfg.ChannelCount())
	for i := range decorr {
		decorr[i] = decorrelation.NewNestedAllpass()
	}

	return &Renderer{
		cfg:      cfg,
		dec:      dec,
		logger:   log.Default(),
		patches:  vbap.Prepare(cfg.PhysicalSpeakers(), cfg.RenderPatches()),
		zone:     zone9.NewEngine(cfg),
		hist:     smoothing.NewHistory(),
		cache:    vbap.NewCache(),
		decorr:   decorr,
		warnings: make(map[string]int),
	}, nil
}

// OutputChannelCount returns the number of physical output channels.
func (r *Renderer) OutputChannelCount() int { return r.cfg.ChannelCount() }

// MaxOutputSampleCount returns the largest per-channel sample count any
// supported frame rate/sample rate pair can require, useful for sizing
// reusable output buffers.
func (r *Renderer) MaxOutputSampleCount() int {
	max := 0
	for _, n := range samplesPerFrame96k {
		if n > max {
			max = n
		}
	}
	return max
}

// Warnings returns the accumulated non-fatal diagnostic counts, indexed
// by warning kind.
func (r *Renderer) Warnings() map[string]int { return r.warnings }

func (r *Renderer) warn(kind string) {
	r.warnings[kind]++
	formattedTime, _ := strftime.Format(diagnosticTimestampFormat, time.Now())
	r.logger.Warn(kind, "time", formattedTime)
}

// RenderIABFrame renders frame into out (one []float32 per output
// channel, each at least NumFrameSamples(frame.FrameRate,
// frame.SampleRate) long) and returns the number of samples rendered
// per channel.
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

	numSubBlocks, err := NumSubBlocks(frame.FrameRate)
	if err != nil {
		r.closed = true
		return 0, err
	}
	frameSamples, err := NumFrameSamples(frame.FrameRate, frame.SampleRate)
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
	r.cache.Reset()

	anyDecorrThisFrame := false

	for _, elem := range frame.Elements {
		if !r.useCaseMatches(elem.UseCase()) {
			continue
		}
		switch e := elem.(type) {
		case iabframe.Bed:
			decorrUsed, err := r.renderBed(e, frame, out, frameSamples, numSubBlocks, 0)
			if err != nil {
				r.closed = true
				return 0, err
			}
			anyDecorrThisFrame = anyDecorrThisFrame || decorrUsed
		case iabframe.Object:
			decorrUsed, err := r.renderObject(e, frame, out, frameSamples, numSubBlocks)
			if err != nil {
				r.closed = true
				return 0, err
			}
			anyDecorrThisFrame = anyDecorrThisFrame || decorrUsed
		case iabframe.BedRemap:
			if err := r.renderBedRemap(e, frame, out, frameSamples, numSubBlocks); err != nil {
				r.closed = true
				return 0, err
			}
		default:
			// Authoring tool info, user data, zone-19: not rendered.
		}
	}

	r.applyDecorrelationTail(out, frameSamples, anyDecorrThisFrame)
	r.hist.Sweep()

	return frameSamples, nil
}

func (r *Renderer) useCaseMatches(uc config.UseCase) bool {
	return uc == config.UseCaseAlways || uc == r.cfg.TargetUseCase()
}

// Close marks the renderer unusable; subsequent calls return
// errs.ErrClosed. Exported for symmetry with New even though most
// failures close the renderer implicitly.
func (r *Renderer) Close() { r.closed = true }

func objectSourcePosition(sb iabframe.ObjectSubBlock) r3.Vector {
	return coords.IABToVBAP(sb.X, sb.Y, sb.Z)
}
