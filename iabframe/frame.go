// Package iabframe models the already-parsed IAB frame data the
// renderer consumes: sub-elements, object/bed/remap definitions, and
// the frame-level metadata needed to size output buffers. It is not a
// bitstream parser — that remains out of scope.
package iabframe

import (
	"github.com/dts-iab/renderer/config"
)

// SubElementKind discriminates the sub-element tagged-sum type without
// relying on interface type-switches at every dispatch site.
type SubElementKind int

const (
	KindBed SubElementKind = iota
	KindObject
	KindBedRemap
	KindAuthoringToolInfo
	KindUserData
	KindZone19
)

// SubElement is one top-level (or nested, for beds) frame element.
type SubElement interface {
	ElementID() string
	Kind() SubElementKind
	// UseCase is the conditional-rendering gate: "" (config.UseCaseAlways)
	// means render unconditionally; otherwise the element renders only
	// when it matches the target renderer's use case.
	UseCase() config.UseCase
}

// BedChannel is one channel of a bed definition, carrying either direct
// PCM samples (via AudioDataID) referencing an asset element, silence
// if AudioDataID is zero, and per-channel gain.
type BedChannel struct {
	Channel     config.ChannelID
	AudioDataID uint32
	Gain        float64
}

// Bed is a bed definition: either a flat list of channels, or nested
// sub-beds (each itself a Bed) up to the format's nesting depth limit.
type Bed struct {
	ID         string
	MetadataID uint32
	UseCaseTag config.UseCase
	Channels   []BedChannel
	Nested     []Bed
}

func (b Bed) ElementID() string        { return b.ID }
func (b Bed) Kind() SubElementKind     { return KindBed }
func (b Bed) UseCase() config.UseCase  { return b.UseCaseTag }

// ObjectSubBlock is one time-varying spatial snapshot within an
// object's sub-block sequence. Exists=false means "carry forward the
// previous sub-block's values unchanged," per ST 2098-2's sub-block
// continuation rule.
type ObjectSubBlock struct {
	Exists            bool
	X, Y, Z           float64 // IAB unit-cube position
	Gain              float64
	Aperture          float64
	Divergence        float64
	SnapToSpeaker     bool
	ObjectZoneControl bool
	ZoneGains         [9]float64
	DecorrelationOn   bool
}

// Object is an object definition: an audio-data reference and an
// ordered sequence of spatial sub-blocks spanning the frame.
type Object struct {
	ID         string
	MetadataID uint32
	UseCaseTag config.UseCase
	AudioDataID uint32
	SubBlocks  []ObjectSubBlock
}

func (o Object) ElementID() string       { return o.ID }
func (o Object) Kind() SubElementKind    { return KindObject }
func (o Object) UseCase() config.UseCase { return o.UseCaseTag }

// BedRemapSubBlock holds one D-destination x S-source gain matrix row
// set for a bed remap's current sub-block.
type BedRemapSubBlock struct {
	Exists bool
	// Gains[s][d] is the gain applied from source channel s to
	// destination speaker/channel d (one row per source channel).
	Gains [][]float64
}

// BedRemap re-maps a bed's source channels onto arbitrary destination
// positions (physical speakers or VBAP-rendered nominal positions) via
// a per-sub-block gain matrix.
type BedRemap struct {
	ID            string
	MetadataID    uint32
	UseCaseTag    config.UseCase
	SourceBedID   string
	Destinations  []RemapDestination
	SubBlocks     []BedRemapSubBlock
}

func (r BedRemap) ElementID() string       { return r.ID }
func (r BedRemap) Kind() SubElementKind    { return KindBedRemap }
func (r BedRemap) UseCase() config.UseCase { return r.UseCaseTag }

// RemapDestination is one destination row of a bed remap: either a
// direct physical speaker name, or a nominal IAB-cube position to be
// rendered through VBAP.
type RemapDestination struct {
	SpeakerName string // non-empty selects direct routing
	X, Y, Z     float64
}

// Opaque carries sub-elements the renderer does not act on for
// rendering (authoring tool info, user data) but must still enumerate
// while walking the frame.
type Opaque struct {
	ID       string
	KindTag  SubElementKind
	UseCaseTag config.UseCase
}

func (o Opaque) ElementID() string       { return o.ID }
func (o Opaque) Kind() SubElementKind    { return o.KindTag }
func (o Opaque) UseCase() config.UseCase { return o.UseCaseTag }

// AudioAsset is a decodable (or raw) audio payload referenced by
// AudioDataID from bed channels and objects.
type AudioAsset struct {
	AudioDataID uint32
	IsDLC       bool
	Payload     []byte
	CodedRate   int
}

// Frame is one complete, already-parsed IAB frame.
type Frame struct {
	FrameRate    float64 // fps
	SampleRate   int     // Hz
	Elements     []SubElement
	Assets       map[uint32]AudioAsset
}
