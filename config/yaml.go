package config

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/dts-iab/renderer/errs"
)

// yamlSpeaker is the on-disk shape of one speaker entry in a fixture
// file, following the same "struct-tagged YAML document" convention the
// reference direwolf-derived tooling uses for its tocalls.yaml lookup
// table: plain fields, no custom unmarshaler.
type yamlSpeaker struct {
	Name       string  `yaml:"name"`
	URI        string  `yaml:"uri"`
	AzimuthDeg float64 `yaml:"azimuth_deg"`
	Elevation  float64 `yaml:"elevation_deg"`
	VBAP       bool    `yaml:"vbap"`
}

type yamlPatch struct {
	Speakers []string `yaml:"speakers"` // exactly 3 speaker names
}

type yamlDoc struct {
	TargetSoundfield string        `yaml:"target_soundfield"`
	Speakers         []yamlSpeaker `yaml:"speakers"`
	Patches          []yamlPatch   `yaml:"patches"`
}

// LoadYAML parses a speaker/patch layout fixture. This is not the
// excluded textual IAB renderer-configuration grammar (bed-channel
// declarations, patch authoring syntax); it is a convenience document
// for tests and sample tooling listing speaker positions and
// pre-computed render patches by name.
func LoadYAML(r io.Reader, opts ...Option) (*Config, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: reading yaml fixture: %v", errs.ErrBadConfig, err)
	}

	var doc yamlDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: parsing yaml fixture: %v", errs.ErrBadConfig, err)
	}

	speakers := make([]Speaker, 0, len(doc.Speakers))
	byName := make(map[string]int, len(doc.Speakers))
	for _, ys := range doc.Speakers {
		pos := PolarToVBAPCartesian(PolarPosition{Radius: 1.0, AzimuthDeg: ys.AzimuthDeg, ElevationDeg: ys.Elevation})
		byName[ys.Name] = len(speakers)
		speakers = append(speakers, Speaker{Name: ys.Name, URI: ys.URI, Position: pos, IsVBAP: ys.VBAP})
	}

	patches := make([]Patch, 0, len(doc.Patches))
	for _, yp := range doc.Patches {
		if len(yp.Speakers) != 3 {
			return nil, fmt.Errorf("%w: patch does not name exactly 3 speakers", errs.ErrBadConfig)
		}
		idxs := make([]int, 3)
		for i, name := range yp.Speakers {
			idx, ok := byName[name]
			if !ok {
				return nil, fmt.Errorf("%w: patch references unknown speaker %q", errs.ErrBadConfig, name)
			}
			idxs[i] = idx
		}
		// Basis is left zero here; the vbap package derives each
		// patch's inverted basis from speaker positions in
		// vbap.Prepare, once, when a renderer is constructed.
		patches = append(patches, Patch{S1: idxs[0], S2: idxs[1], S3: idxs[2]})
	}

	return NewConfig(speakers, patches, doc.TargetSoundfield, opts...)
}
