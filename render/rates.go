package render

import (
	"fmt"

	"github.com/dts-iab/renderer/errs"
)

// NumSubBlocks returns the number of object sub-blocks per frame for a
// given frame rate, per ST 2098-2 Table: 8 for 23.976/24/25/30 fps, 4
// for 48/50/60, 2 for 96/100/120. Ported from the reference
// implementation's GetIABNumSubBlocks.
func NumSubBlocks(frameRate float64) (int, error) {
	switch frameRate {
	case 23.976, 24, 25, 30:
		return 8, nil
	case 48, 50, 60:
		return 4, nil
	case 96, 100, 120:
		return 2, nil
	default:
		return 0, fmt.Errorf("%w: frame rate %v fps", errs.ErrUnsupportedRate, frameRate)
	}
}

var samplesPerFrame48k = map[float64]int{
	24: 2000, 25: 1920, 30: 1600,
	48: 1000, 50: 960, 60: 800,
	96: 500, 100: 480, 120: 400,
	23.976: 2002,
}

var samplesPerFrame96k = map[float64]int{
	24: 4000, 25: 3840, 30: 3200,
	48: 2000, 50: 1920, 60: 1600,
	96: 1000, 100: 960, 120: 800,
	23.976: 4004,
}

// NumFrameSamples returns the number of PCM samples per output channel
// in one frame, for the given frame rate and sample rate. Ported from
// the reference implementation's GetIABNumFrameSamples tables (48kHz
// and 96kHz).
func NumFrameSamples(frameRate float64, sampleRate int) (int, error) {
	var table map[float64]int
	switch sampleRate {
	case 48000:
		table = samplesPerFrame48k
	case 96000:
		table = samplesPerFrame96k
	default:
		return 0, fmt.Errorf("%w: sample rate %d Hz", errs.ErrUnsupportedRate, sampleRate)
	}
	n, ok := table[frameRate]
	if !ok {
		return 0, fmt.Errorf("%w: frame rate %v fps at %d Hz", errs.ErrUnsupportedRate, frameRate, sampleRate)
	}
	return n, nil
}
