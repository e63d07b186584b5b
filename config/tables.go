package config

import (
	"math"

	"github.com/golang/geo/r3"
)

// ChannelID is an IAB bed channel identifier, e.g. "L", "C", "LFE".
type ChannelID string

// Channel identifiers for the ST 2098-2 core bed-channel set plus the
// BS.2051 additions the original renderer carries for extended layouts.
const (
	ChL    ChannelID = "L"
	ChLC   ChannelID = "LC"
	ChC    ChannelID = "C"
	ChRC   ChannelID = "RC"
	ChR    ChannelID = "R"
	ChLSS  ChannelID = "LSS"
	ChLS   ChannelID = "LS"
	ChLRS  ChannelID = "LRS"
	ChRRS  ChannelID = "RRS"
	ChRSS  ChannelID = "RSS"
	ChRS   ChannelID = "RS"
	ChLTS  ChannelID = "LTS"
	ChRTS  ChannelID = "RTS"
	ChLFE  ChannelID = "LFE"
	ChLH   ChannelID = "LH"
	ChRH   ChannelID = "RH"
	ChCH   ChannelID = "CH"
	ChLSH  ChannelID = "LSH"
	ChRSH  ChannelID = "RSH"
	ChLSSH ChannelID = "LSSH"
	ChRSSH ChannelID = "RSSH"
	ChLRSH ChannelID = "LRSH"
	ChRRSH ChannelID = "RRSH"
	ChTS   ChannelID = "TS"

	// BS.2051 additions.
	ChLTF  ChannelID = "LTF"
	ChRTF  ChannelID = "RTF"
	ChLTB  ChannelID = "LTB"
	ChRTB  ChannelID = "RTB"
	ChTSSL ChannelID = "TSSL"
	ChTSSR ChannelID = "TSSR"
	ChLFE1 ChannelID = "LFE1"
	ChLFE2 ChannelID = "LFE2"
	ChFL   ChannelID = "FL"
	ChFR   ChannelID = "FR"
)

// PolarPosition is a speaker or source position expressed the way the
// IAB configuration tables express it: unit radius, azimuth and
// elevation in degrees, azimuth measured positive to the right of
// centre, elevation positive upward.
type PolarPosition struct {
	Radius        float64
	AzimuthDeg    float64
	ElevationDeg  float64
}

// PolarToVBAPCartesian converts a polar speaker position into the VBAP
// cartesian basis: x = sin(az)cos(el), y = cos(az)cos(el), z = sin(el).
// This is the exact transform the reference configuration tables use to
// derive VBAP triangle-solve coordinates from the polar speaker layout.
func PolarToVBAPCartesian(p PolarPosition) r3.Vector {
	az := p.AzimuthDeg * math.Pi / 180
	el := p.ElevationDeg * math.Pi / 180
	return r3.Vector{
		X: math.Sin(az) * math.Cos(el),
		Y: math.Cos(az) * math.Cos(el),
		Z: math.Sin(el),
	}
}

// BedChannelInfo is the immutable, per-channel-ID configuration entry:
// its canonical speaker URI and its VBAP-basis cartesian position.
type BedChannelInfo struct {
	URI  string
	VBAP r3.Vector
}

var bedChannelTable = buildBedChannelTable()

// BedChannelTable returns the immutable map from every known IAB
// channel-ID to its canonical speaker URI and VBAP position. Grounded
// directly on the reference implementation's per-channel polar position
// table (IABConfigTables).
func BedChannelTable() map[ChannelID]BedChannelInfo {
	return bedChannelTable
}

func buildBedChannelTable() map[ChannelID]BedChannelInfo {
	type entry struct {
		id  ChannelID
		uri string
		pos PolarPosition
	}
	entries := []entry{
		{ChL, "urn:smpte:ul:speaker:L", PolarPosition{1.0, -30.0, 0.0}},
		{ChLC, "urn:smpte:ul:speaker:LC", PolarPosition{1.0, -16.1, 0.0}},
		{ChC, "urn:smpte:ul:speaker:C", PolarPosition{1.0, 0.0, 0.0}},
		{ChRC, "urn:smpte:ul:speaker:RC", PolarPosition{1.0, 16.1, 0.0}},
		{ChR, "urn:smpte:ul:speaker:R", PolarPosition{1.0, 30.0, 0.0}},
		{ChLSS, "urn:smpte:ul:speaker:LSS", PolarPosition{1.0, -90.0, 0.0}},
		{ChLS, "urn:smpte:ul:speaker:LS", PolarPosition{1.0, -110.0, 0.0}},
		{ChLRS, "urn:smpte:ul:speaker:LRS", PolarPosition{1.0, -150.0, 0.0}},
		{ChRRS, "urn:smpte:ul:speaker:RRS", PolarPosition{1.0, 150.0, 0.0}},
		{ChRSS, "urn:smpte:ul:speaker:RSS", PolarPosition{1.0, 90.0, 0.0}},
		{ChRS, "urn:smpte:ul:speaker:RS", PolarPosition{1.0, 110.0, 0.0}},
		{ChLTS, "urn:smpte:ul:speaker:LTS", PolarPosition{1.0, -90.0, 60.0}},
		{ChRTS, "urn:smpte:ul:speaker:RTS", PolarPosition{1.0, 90.0, 60.0}},
		{ChLFE, "urn:smpte:ul:speaker:LFE", PolarPosition{1.0, 0.0, 0.0}},
		{ChLH, "urn:smpte:ul:speaker:LH", PolarPosition{1.0, -30.0, 21.0}},
		{ChRH, "urn:smpte:ul:speaker:RH", PolarPosition{1.0, 30.0, 21.0}},
		{ChCH, "urn:smpte:ul:speaker:CH", PolarPosition{1.0, 0.0, 24.0}},
		{ChLSH, "urn:smpte:ul:speaker:LSH", PolarPosition{1.0, -110.0, 30.0}},
		{ChRSH, "urn:smpte:ul:speaker:RSH", PolarPosition{1.0, 110.0, 30.0}},
		{ChLSSH, "urn:smpte:ul:speaker:LSSH", PolarPosition{1.0, -90.0, 30.0}},
		{ChRSSH, "urn:smpte:ul:speaker:RSSH", PolarPosition{1.0, 90.0, 30.0}},
		{ChLRSH, "urn:smpte:ul:speaker:LRSH", PolarPosition{1.0, -150.0, 21.0}},
		{ChRRSH, "urn:smpte:ul:speaker:RRSH", PolarPosition{1.0, 150.0, 21.0}},
		{ChTS, "urn:smpte:ul:speaker:TS", PolarPosition{1.0, 0.0, 90.0}},
		{ChLTF, "urn:smpte:ul:speaker:LTF", PolarPosition{1.0, -24.79, 35.99}},
		{ChRTF, "urn:smpte:ul:speaker:RTF", PolarPosition{1.0, 24.79, 35.99}},
		{ChLTB, "urn:smpte:ul:speaker:LTB", PolarPosition{1.0, -155.21, 35.99}},
		{ChRTB, "urn:smpte:ul:speaker:RTB", PolarPosition{1.0, 155.21, 35.99}},
		{ChTSSL, "urn:smpte:ul:speaker:TSSL", PolarPosition{1.0, -90.0, 30.0}},
		{ChTSSR, "urn:smpte:ul:speaker:TSSR", PolarPosition{1.0, 90.0, 30.0}},
		{ChLFE1, "urn:smpte:ul:speaker:LFE1", PolarPosition{1.0, 0.0, 0.0}},
		{ChLFE2, "urn:smpte:ul:speaker:LFE2", PolarPosition{1.0, 45.0, -30.0}},
		{ChFL, "urn:smpte:ul:speaker:FL", PolarPosition{1.0, -45.0, 0.0}},
		{ChFR, "urn:smpte:ul:speaker:FR", PolarPosition{1.0, 45.0, 0.0}},
	}

	out := make(map[ChannelID]BedChannelInfo, len(entries))
	for _, e := range entries {
		out[e.id] = BedChannelInfo{URI: e.uri, VBAP: PolarToVBAPCartesian(e.pos)}
	}
	return out
}

// UseCase tags one of the IAB-defined soundfield/use-case layouts.
type UseCase string

const (
	UseCase51      UseCase = "5.1"
	UseCase71DS    UseCase = "7.1-DS"
	UseCase71SDS   UseCase = "7.1-SDS"
	UseCase111HT   UseCase = "11.1-HT"
	UseCase131HT   UseCase = "13.1-HT"
	UseCase91OH    UseCase = "9.1-OH"
	UseCase20ITUA  UseCase = "2.0-ITU-A"
	UseCase514ITUD UseCase = "5.1.4-ITU-D"
	UseCase714ITUJ UseCase = "7.1.4-ITU-J"
	UseCaseAlways  UseCase = "" // conditional-element gate meaning "always render"
)

var soundfieldUseCaseTable = map[string]UseCase{
	"urn:smpte:ul:soundfield:5.1":       UseCase51,
	"urn:smpte:ul:soundfield:7.1-DS":    UseCase71DS,
	"urn:smpte:ul:soundfield:7.1-SDS":   UseCase71SDS,
	"urn:smpte:ul:soundfield:11.1-HT":   UseCase111HT,
	"urn:smpte:ul:soundfield:13.1-HT":   UseCase131HT,
	"urn:smpte:ul:soundfield:9.1-OH":    UseCase91OH,
	"urn:smpte:ul:soundfield:2.0-ITU-A": UseCase20ITUA,
	"urn:smpte:ul:soundfield:5.1.4-ITU-D": UseCase514ITUD,
	"urn:smpte:ul:soundfield:7.1.4-ITU-J": UseCase714ITUJ,
}

// SoundfieldUseCaseTable returns the map from soundfield URI to the
// use-case tag it resolves to, grounded on the reference
// CreateSoundfieldToIABUseCaseMap table.
func SoundfieldUseCaseTable() map[string]UseCase {
	return soundfieldUseCaseTable
}
