package config

import (
	"fmt"

	"github.com/golang/geo/r3"

	"github.com/dts-iab/renderer/coords"
	"github.com/dts-iab/renderer/errs"
)

// Speaker is one physical output of the target loudspeaker layout.
type Speaker struct {
	Name         string
	URI          string    // canonical bed-channel URI this speaker satisfies directly, or "" if none
	Position     r3.Vector // VBAP-basis cartesian position
	CubePosition r3.Vector // equivalent position in the IAB unit cube, derived at config load
	IsVBAP       bool      // participates in VBAP triangle solves (false for e.g. LFE)
}

// Patch is a VBAP render patch: three speaker indices (into Config's
// speaker slice) and a 3x3 basis field. The vbap package does not read
// Basis; vbap.Prepare derives each patch's inverse from the speaker
// positions.
type Patch struct {
	S1, S2, S3 int
	Basis      [3]r3.Vector
}

// Config is the renderer's external configuration contract: an
// immutable speaker table, a fixed set of VBAP render patches, and the
// target soundfield/use-case this renderer instance renders toward.
type Config struct {
	speakers        []Speaker
	patches         []Patch
	targetSoundfield string
	targetUseCase    UseCase
	byName           map[string]int
	byURI            map[string]int
	smoothingEnabled bool
	decorrelation    bool
}

// Option configures a Config at construction time.
type Option func(*Config)

// WithSmoothing toggles cross-frame gain smoothing (enabled by default).
func WithSmoothing(enabled bool) Option {
	return func(c *Config) { c.smoothingEnabled = enabled }
}

// WithDecorrelation toggles IAB decorrelation processing (enabled by default).
func WithDecorrelation(enabled bool) Option {
	return func(c *Config) { c.decorrelation = enabled }
}

// NewConfig constructs and validates a renderer configuration. It
// returns errs.ErrBadConfig wrapped with detail if the speaker list or
// patch list is empty, if a patch references an out-of-range speaker
// index, or if targetSoundfield does not resolve in
// SoundfieldUseCaseTable.
func NewConfig(speakers []Speaker, patches []Patch, targetSoundfield string, opts ...Option) (*Config, error) {
	if len(speakers) == 0 {
		return nil, fmt.Errorf("%w: no speakers", errs.ErrBadConfig)
	}
	if len(patches) == 0 {
		return nil, fmt.Errorf("%w: no render patches", errs.ErrBadConfig)
	}
	useCase, ok := soundfieldUseCaseTable[targetSoundfield]
	if !ok {
		return nil, fmt.Errorf("%w: unresolvable target soundfield %q", errs.ErrBadConfig, targetSoundfield)
	}

	resolved := make([]Speaker, len(speakers))
	copy(resolved, speakers)

	byName := make(map[string]int, len(speakers))
	byURI := make(map[string]int, len(speakers))
	for i, s := range resolved {
		if _, dup := byName[s.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate speaker name %q", errs.ErrBadConfig, s.Name)
		}
		byName[s.Name] = i
		if s.URI != "" {
			byURI[s.URI] = i
		}
		cx, cy, cz := coords.VBAPToIAB(s.Position)
		resolved[i].CubePosition = r3.Vector{X: cx, Y: cy, Z: cz}
	}
	speakers = resolved

	for i, p := range patches {
		for _, idx := range []int{p.S1, p.S2, p.S3} {
			if idx < 0 || idx >= len(speakers) {
				return nil, fmt.Errorf("%w: patch %d references out-of-range speaker %d", errs.ErrBadConfig, i, idx)
			}
		}
	}

	c := &Config{
		speakers:         speakers,
		patches:          patches,
		targetSoundfield: targetSoundfield,
		targetUseCase:    useCase,
		byName:           byName,
		byURI:            byURI,
		smoothingEnabled: true,
		decorrelation:    true,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// PhysicalSpeakers returns every configured output speaker, in output
// channel order.
func (c *Config) PhysicalSpeakers() []Speaker { return c.speakers }

// AllSpeakers is an alias for PhysicalSpeakers kept for readability at
// call sites that enumerate VBAP-only subsets separately.
func (c *Config) AllSpeakers() []Speaker { return c.speakers }

// RenderPatches returns the configured VBAP render patches.
func (c *Config) RenderPatches() []Patch { return c.patches }

// TargetSoundfield returns the target soundfield URI this renderer was
// configured for.
func (c *Config) TargetSoundfield() string { return c.targetSoundfield }

// TargetUseCase returns the resolved use-case tag for the target
// soundfield, used to gate conditional frame sub-elements.
func (c *Config) TargetUseCase() UseCase { return c.targetUseCase }

// ChannelCount returns the number of physical output channels.
func (c *Config) ChannelCount() int { return len(c.speakers) }

// IndexByName returns the output channel index for a speaker name.
func (c *Config) IndexByName(name string) (int, bool) {
	idx, ok := c.byName[name]
	return idx, ok
}

// IndexByURI returns the output channel index for a bed-channel URI, if
// a physical speaker satisfies it directly.
func (c *Config) IndexByURI(uri string) (int, bool) {
	idx, ok := c.byURI[uri]
	return idx, ok
}

// SmoothingEnabled reports whether cross-frame gain smoothing is active.
func (c *Config) SmoothingEnabled() bool { return c.smoothingEnabled }

// IABDecorrelationEnabled reports whether decorrelation processing is active.
func (c *Config) IABDecorrelationEnabled() bool { return c.decorrelation }
