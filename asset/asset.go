// Package asset defines the renderer's audio asset decode boundary: a
// small interface invoked to turn a DLC or PCM frame element into
// floating-point samples. The actual codecs are out of scope; this
// package provides the contract, validation, and a pass-through stub
// usable in tests.
package asset

import (
	"fmt"
	"math"

	"github.com/dts-iab/renderer/errs"
)

// DLCElement is a reference to a DLC-coded audio asset within a frame.
type DLCElement struct {
	AudioDataID uint32
	FrameRate   float64 // fps, e.g. 24, 25; 23.976 is excluded (see PassthroughDecoder.DecodeDLC)
	CodedRate   int     // sample rate the asset was coded at, Hz
	Payload     []byte
}

// PCMElement is a reference to a raw PCM audio asset within a frame.
type PCMElement struct {
	AudioDataID uint32
	BitDepth    int // 16 or 24
	SampleRate  int
	Payload     []byte
}

// Decoder turns frame audio asset references into floating-point PCM.
// Implementations fail with errs.ErrDecode on malformed payloads.
type Decoder interface {
	// DecodeDLC decodes elem into buf at outputSampleRate. If elem was
	// coded at 96kHz and outputSampleRate is 48000, the decoder must
	// emit a decimated (half-rate) stream rather than erroring.
	DecodeDLC(elem DLCElement, outputSampleRate int, buf []float32) error

	// UnpackPCM unpacks elem's raw samples into buf.
	UnpackPCM(elem PCMElement, buf []float32) error
}

// PassthroughDecoder is a Decoder stub for tests: it treats DLC
// payloads as already being little-endian float32 samples (skipping
// real DLC bit-unpacking, which is out of scope) and PCM payloads as
// big-endian integer samples per ST 2098-2 packing.
type PassthroughDecoder struct{}

// DecodeDLC implements Decoder.
func (PassthroughDecoder) DecodeDLC(elem DLCElement, outputSampleRate int, buf []float32) error {
	if elem.FrameRate == 23.976 {
		return fmt.Errorf("%w: DLC is not defined at 23.976 fps", errs.ErrUnsupportedRate)
	}
	if len(elem.Payload)%4 != 0 {
		return fmt.Errorf("%w: DLC payload not a multiple of 4 bytes", errs.ErrDecode)
	}
	n := len(elem.Payload) / 4
	step := 1
	if elem.CodedRate == 96000 && outputSampleRate == 48000 {
		step = 2
	}
	out := 0
	for i := 0; i < n && out < len(buf); i += step {
		buf[out] = decodeLEFloat(elem.Payload[i*4 : i*4+4])
		out++
	}
	return nil
}

// UnpackPCM implements Decoder.
func (PassthroughDecoder) UnpackPCM(elem PCMElement, buf []float32) error {
	bytesPerSample := elem.BitDepth / 8
	if bytesPerSample != 2 && bytesPerSample != 3 {
		return fmt.Errorf("%w: unsupported PCM bit depth %d", errs.ErrDecode, elem.BitDepth)
	}
	if len(elem.Payload)%bytesPerSample != 0 {
		return fmt.Errorf("%w: PCM payload not aligned to sample width", errs.ErrDecode)
	}
	n := len(elem.Payload) / bytesPerSample
	for i := 0; i < n && i < len(buf); i++ {
		off := i * bytesPerSample
		switch bytesPerSample {
		case 2:
			v := int16(uint16(elem.Payload[off])<<8 | uint16(elem.Payload[off+1]))
			buf[i] = float32(v) / 32768.0
		case 3:
			v := int32(elem.Payload[off])<<16 | int32(elem.Payload[off+1])<<8 | int32(elem.Payload[off+2])
			if v&0x800000 != 0 {
				v |= -0x1000000 // sign-extend 24-bit
			}
			buf[i] = float32(v) / 8388608.0
		}
	}
	return nil
}

func decodeLEFloat(b []byte) float32 {
	bits := uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
	return math.Float32frombits(bits)
}
