// Package decorrelation provides the renderer's decorrelation
// processing boundary. The reference filter bank's internals are out
// of scope; this package is a fixed black box behind a small interface,
// with a nested allpass implementation adequate for exercising the
// renderer's wiring and tail-off behavior.
package decorrelation

// Processor decorrelates a single output channel's samples from in
// into out, carrying delay-line state across calls.
type Processor interface {
	Process(in []float32, out []float32)
	Reset()
}

// allpassStage is one first-order allpass section: y[n] = -g*x[n] +
// x[n-1] + g*y[n-1].
type allpassStage struct {
	g          float32
	xPrev, yPrev float32
}

func (s *allpassStage) process(x float32) float32 {
	y := -s.g*x + s.xPrev + s.g*s.yPrev
	s.xPrev = x
	s.yPrev = y
	return y
}

// NestedAllpass is a small fixed cascade of allpass stages, used as the
// renderer's default Processor: enough decorrelation character to
// exercise tail-off wiring and tests without reproducing the reference
// filter bank's tuning.
type NestedAllpass struct {
	stages [4]allpassStage
}

// NewNestedAllpass returns a cascade with a fixed, distinct coefficient
// per stage.
func NewNestedAllpass() *NestedAllpass {
	return &NestedAllpass{stages: [4]allpassStage{
		{g: 0.65}, {g: -0.45}, {g: 0.3}, {g: -0.2},
	}}
}

// Process implements Processor.
func (n *NestedAllpass) Process(in []float32, out []float32) {
	for i, x := range in {
		y := x
		for s := range n.stages {
			y = n.stages[s].process(y)
		}
		out[i] = y
	}
}

// Reset implements Processor, clearing all delay-line state.
func (n *NestedAllpass) Reset() {
	for i := range n.stages {
		n.stages[i] = allpassStage{g: n.stages[i].g}
	}
}
