package render

// applyDecorrelationTail mixes each channel's decorrelated signal into
// out while the decorrelation holdover counter is active, extending
// DecorrelationHoldoverFrames past the last frame that carried a
// decorrelation-enabled object so the effect does not cut off abruptly.
func (r *Renderer) applyDecorrelationTail(out [][]float32, frameSamples int, activeThisFrame bool) {
	if !r.cfg.IABDecorrelationEnabled() {
		return
	}

	mix := activeThisFrame || r.decorrHold > 0
	if activeThisFrame {
		r.decorrHold = DecorrelationHoldoverFrames
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
