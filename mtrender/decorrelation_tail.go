package mtrender

// applyDecorrelationTail mirrors render.Renderer's tail-off behavior,
// run single-threaded after the worker pool drains since it needs the
// final mixed output and touches every channel's delay-line state.
func (r *Renderer) applyDecorrelationTail(out [][]float32, frameSamples int, activeThisFrame bool) {
	if !r.cfg.IABDecorrelationEnabled() {
		return
	}

	mix := activeThisFrame || r.decorrHold > 0
	if activeThisFrame {
		r.decorrHold = decorrelationHoldoverFrames
	} else if r.decorrHold > 0 {
		r.decorrHold--
	}

	if !mix {
		for _, proc := range r.decorr {
			proc.Reset()
		}
		return
	}

	dry := make([]float32, frameSamples)
	wet := make([]float32, frameSamples)
	for c, ch := range out {
		copy(dry, ch[:frameSamples])
		r.decorr[c].Process(dry, wet)
		for i := 0; i < frameSamples; i++ {
			ch[i] += wet[i]
		}
	}
}

const decorrelationHoldoverFrames = 4
