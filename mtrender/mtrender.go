// Package mtrender implements the multi-threaded IAB frame renderer: a
// worker pool draining a shared job queue guarded by a mutex and
// condition variable, in the same style as the teacher's transmit-queue
// (tq.go) producer/consumer pattern, generalized from "one queue per
// radio channel" to "one shared job queue, N render workers."
package mtrender

import (
	"fmt"
	"sync"

	"github.com/dts-iab/renderer/asset"
	"github.com/dts-iab/renderer/config"
	"github.com/dts-iab/renderer/decorrelation"
	"github.com/dts-iab/renderer/errs"
	"github.com/dts-iab/renderer/smoothing"
	"github.com/dts-iab/renderer/vbap"
	"github.com/dts-iab/renderer/zone9"
)

// MinPoolSize and MaxPoolSize bound the worker pool size accepted by New.
const (
	MinPoolSize = 1
	MaxPoolSize = 8
)

// Renderer is the multi-threaded counterpart to render.Renderer,
// implementing the same public contract but rendering top-level
// sub-elements concurrently across a fixed worker pool.
type Renderer struct {
	cfg *config.Config
	dec asset.Decoder

	poolSize int

	patches []vbap.PreparedPatch
	zone    *zone9.Engine

	histMu sync.Mutex
	hist   *smoothing.History

	chanMu []sync.Mutex // one per output channel

	decorr     []decorrelation.Processor
	decorrHold int

	warnMu   sync.Mutex
	warnings map[string]int

	closed bool
}

// New constructs a multi-threaded Renderer with the given worker pool
// size, clamped into [MinPoolSize, MaxPoolSize]. A pool size of 1
// renders deterministically bit-for-bit the same as render.Renderer,
// since sub-elements then execute in frame order on a single worker.
func New(cfg *config.Config, dec asset.Decoder, poolSize int) (*Renderer, error) {
	if cfg == nil {
		return nil, fmt.Errorf("%w: nil config", errs.ErrBadArgument)
	}
	if dec == nil {
		return nil, fmt.Errorf("%w: nil decoder", errs.ErrBadArgument)
	}
	if poolSize < MinPoolSize {
		poolSize = MinPoolSize
	}
	if poolSize > MaxPoolSize {
		poolSize = MaxPoolSize
	}

	decorr := make([]decorrelation.Processor, cfg.ChannelCount())
	for i := range decorr {
		decorr[i] = decorrelation.NewNestedAllpass()
	}

	return &Renderer{
		cfg:      cfg,
		dec:      dec,
		poolSize: poolSize,
		patches:  vbap.Prepare(cfg.PhysicalSpeakers(), cfg.RenderPatches()),
		zone:     zone9.NewEngine(cfg),
		hist:     smoothing.NewHistory(),
		chanMu:   make([]sync.Mutex, cfg.ChannelCount()),
		decorr:   decorr,
		warnings: make(map[string]int),
	}, nil
}

// Deterministic constructs a single-worker Renderer, for callers that
// need bit-reproducible output across runs at the cost of parallelism.
func Deterministic(cfg *config.Config, dec asset.Decoder) (*Renderer, error) {
	return New(cfg, dec, 1)
}

// OutputChannelCount returns the number of physical output channels.
func (r *Renderer) OutputChannelCount() int { return r.cfg.ChannelCount() }

// Warnings returns the accumulated non-fatal diagnostic counts.
func (r *Renderer) Warnings() map[string]int {
	r.warnMu.Lock()
	defer r.warnMu.Unlock()
	out := make(map[string]int, len(r.warnings))
	for k, v := range r.warnings {
		out[k] = v
	}
	return out
}

func (r *Renderer) warn(kind string) {
	r.warnMu.Lock()
	r.warnings[kind]++
	r.warnMu.Unlock()
}

func (r *Renderer) addToChannel(ch []float32, idx int, offset, length int, values []float32) {
	r.chanMu[idx].Lock()
	for k := 0; k < length; k++ {
		ch[offset+k] += values[k]
	}
	r.chanMu[idx].Unlock()
}

// Close marks the renderer unusable.
func (r *Renderer) Close() { r.closed = true }
