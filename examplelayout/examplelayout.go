// Package examplelayout provides a fixed 9.1-OH-class speaker layout
// and a small synthetic frame, used by the demo binary and by tests
// that need a ready-made Config without authoring one by hand.
package examplelayout

import (
	"github.com/golang/geo/r3"

	"github.com/dts-iab/renderer/asset"
	"github.com/dts-iab/renderer/config"
)

// names, in output-channel order.
const (
	nL = iota
	nC
	nR
	nLSS
	nRSS
	nLRS
	nRRS
	nLFE
	nLH
	nCH
	nRH
	numSpeakers
)

// Config builds the example layout's renderer configuration, targeting
// the given soundfield URI. Additional config.Option values (e.g.
// config.WithSmoothing(false)) are forwarded to config.NewConfig.
func Config(targetSoundfield string, opts ...config.Option) (*config.Config, error) {
	speakers := []config.Speaker{
		{Name: "L", URI: "urn:smpte:ul:speaker:L", Position: pos(-30, 0), IsVBAP: true},
		{Name: "C", URI: "urn:smpte:ul:speaker:C", Position: pos(0, 0), IsVBAP: true},
		{Name: "R", URI: "urn:smpte:ul:speaker:R", Position: pos(30, 0), IsVBAP: true},
		{Name: "LSS", URI: "urn:smpte:ul:speaker:LSS", Position: pos(-90, 0), IsVBAP: true},
		{Name: "RSS", URI: "urn:smpte:ul:speaker:RSS", Position: pos(90, 0), IsVBAP: true},
		{Name: "LRS", URI: "urn:smpte:ul:speaker:LRS", Position: pos(-150, 0), IsVBAP: true},
		{Name: "RRS", URI: "urn:smpte:ul:speaker:RRS", Position: pos(150, 0), IsVBAP: true},
		{Name: "LFE", URI: "urn:smpte:ul:speaker:LFE", Position: pos(0, 0), IsVBAP: false},
		{Name: "LH", URI: "urn:smpte:ul:speaker:LH", Position: pos(-30, 21), IsVBAP: true},
		{Name: "CH", URI: "urn:smpte:ul:speaker:CH", Position: pos(0, 24), IsVBAP: true},
		{Name: "RH", URI: "urn:smpte:ul:speaker:RH", Position: pos(30, 21), IsVBAP: true},
	}

	patches := []config.Patch{
		{S1: nL, S2: nC, S3: nLH},
		{S1: nC, S2: nR, S3: nRH},
		{S1: nL, S2: nLH, S3: nCH},
		{S1: nC, S2: nCH, S3: nLH},
		{S1: nC, S2: nCH, S3: nRH},
		{S1: nR, S2: nRH, S3: nCH},
		{S1: nL, S2: nLSS, S3: nLH},
		{S1: nR, S2: nRSS, S3: nRH},
		{S1: nLSS, S2: nLRS, S3: nLH},
		{S1: nRSS, S2: nRRS, S3: nRH},
		{S1: nLRS, S2: nRRS, S3: nCH},
		{S1: nLRS, S2: nCH, S3: nLH},
		{S1: nRRS, S2: nCH, S3: nRH},
	}

	return config.NewConfig(speakers, patches, targetSoundfield, opts...)
}

func pos(azimuthDeg, elevationDeg float64) r3.Vector {
	return config.PolarToVBAPCartesian(config.PolarPosition{Radius: 1, AzimuthDeg: azimuthDeg, ElevationDeg: elevationDeg})
}

// Decoder returns an asset.Decoder suitable for the synthetic frame
// this package produces.
func Decoder() asset.Decoder { return asset.PassthroughDecoder{} }
