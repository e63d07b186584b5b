package examplelayout

import (
	"math"

	"github.com/dts-iab/renderer/iabframe"
)

// SyntheticFrame builds a one-frame demo payload: a single object
// sweeping from screen-left to screen-right through a modest amount of
// overhead height, plus a two-channel bed carrying L/R tone data
// routed directly to the physical L/R speakers.
func SyntheticFrame(frameRate float64, sampleRate int) *iabframe.Frame {
	const objectAudioID = 1
	const bedLAudioID = 2
	const bedRAudioID = 3

	n := frameSamplesFor(frameRate, sampleRate)
	object := tone(n, 220, float32(sampleRate))
	bedL := tone(n, 440, float32(sampleRate))
	bedR := tone(n, 440, float32(sampleRate))

	numSubBlocks := subBlocksFor(frameRate)
	subBlocks := make([]iabframe.ObjectSubBlock, numSubBlocks)
	for i := range subBlocks {
		t := float64(i) / float64(numSubBlocks-1)
		subBlocks[i] = iabframe.ObjectSubBlock{
			Exists: true,
			X:      0.1 + 0.8*t, // sweeps screen-left to screen-right, within the unit cube
			Y:      0.1,
			Z:      0.2,
			Gain:   1.0,
		}
	}

	frame := &iabframe.Frame{
		FrameRate:  frameRate,
		SampleRate: sampleRate,
		Elements: []iabframe.SubElement{
			iabframe.Bed{
				ID:         "bed1",
				MetadataID: 1,
				Channels: []iabframe.BedChannel{
					{Channel: "L", AudioDataID: bedLAudioID, Gain: 0.5},
					{Channel: "R", AudioDataID: bedRAudioID, Gain: 0.5},
				},
			},
			iabframe.Object{
				ID:          "obj1",
				MetadataID:  2,
				AudioDataID: objectAudioID,
				SubBlocks:   subBlocks,
			},
		},
		Assets: map[uint32]iabframe.AudioAsset{
			objectAudioID: {AudioDataID: objectAudioID, IsDLC: false, Payload: pcm24(object)},
			bedLAudioID:   {AudioDataID: bedLAudioID, IsDLC: false, Payload: pcm24(bedL)},
			bedRAudioID:   {AudioDataID: bedRAudioID, IsDLC: false, Payload: pcm24(bedR)},
		},
	}
	return frame
}

func frameSamplesFor(frameRate float64, sampleRate int) int {
	table48 := map[float64]int{24: 2000, 25: 1920, 30: 1600, 48: 1000, 50: 960, 60: 800, 96: 500, 100: 480, 120: 400, 23.976: 2002}
	table96 := map[float64]int{24: 4000, 25: 3840, 30: 3200, 48: 2000, 50: 1920, 60: 1600, 96: 1000, 100: 960, 120: 800, 23.976: 4004}
	if sampleRate == 96000 {
		return table96[frameRate]
	}
	return table48[frameRate]
}

func subBlocksFor(frameRate float64) int {
	switch frameRate {
	case 23.976, 24, 25, 30:
		return 8
	case 48, 50, 60:
		return 4
	default:
		return 2
	}
}

func tone(n int, freqHz float64, sampleRate float32) []float32 {
	out := make([]float32, n)
	for i := range out {
		out[i] = float32(0.5 * math.Sin(2*math.Pi*freqHz*float64(i)/float64(sampleRate)))
	}
	return out
}

func pcm24(samples []float32) []byte {
	out := make([]byte, len(samples)*3)
	for i, s := range samples {
		v := int32(s * 8388607)
		off := i * 3
		out[off] = byte(v >> 16)
		out[off+1] = byte(v >> 8)
		out[off+2] = byte(v)
	}
	return out
}
