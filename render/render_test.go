package render_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dts-iab/renderer/asset"
	"github.com/dts-iab/renderer/config"
	"github.com/dts-iab/renderer/coords"
	"github.com/dts-iab/renderer/examplelayout"
	"github.com/dts-iab/renderer/iabframe"
	"github.com/dts-iab/renderer/render"
	"github.com/dts-iab/renderer/smoothing"
	"github.com/dts-iab/renderer/zone9"
)

// encodePCM24 packs n repetitions of value into big-endian 24-bit PCM,
// the layout asset.PassthroughDecoder.UnpackPCM expects. value is
// clamped to the representable range, since 24-bit two's complement
// cannot exactly express 1.0.
func encodePCM24(value float64, n int) []byte {
	v := int32(math.Round(value * 8388608))
	if v > 8388607 {
		v = 8388607
	}
	if v < -8388608 {
		v = -8388608
	}
	out := make([]byte, n*3)
	for i := 0; i < n; i++ {
		off := i * 3
		out[off] = byte(v >> 16)
		out[off+1] = byte(v >> 8)
		out[off+2] = byte(v)
	}
	return out
}

func newTestRenderer(t *testing.T) (*render.Renderer, int) {
	t.Helper()
	cfg, err := examplelayout.Config("urn:smpte:ul:soundfield:9.1-OH")
	require.NoError(t, err)
	r, err := render.New(cfg, examplelayout.Decoder())
	require.NoError(t, err)
	return r, cfg.ChannelCount()
}

func makeOutput(channels, samples int) [][]float32 {
	out := make([][]float32, channels)
	for i := range out {
		out[i] = make([]float32, samples)
	}
	return out
}

func TestRenderIABFrame_RendersSyntheticFrameWithoutError(t *testing.T) {
	r, numCh := newTestRenderer(t)
	frame := examplelayout.SyntheticFrame(48, 48000)
	out := makeOutput(numCh, r.MaxOutputSampleCount())

	n, err := r.RenderIABFrame(frame, out)
	require.NoError(t, err)
	assert.Greater(t, n, 0)

	anyNonZero := false
	for _, ch := range out {
		for _, s := range ch[:n] {
			if s != 0 {
				anyNonZero = true
			}
		}
	}
	assert.True(t, anyNonZero, "expected some rendered signal")
}

func TestRenderIABFrame_RejectsWrongChannelCount(t *testing.T) {
	r, numCh := newTestRenderer(t)
	frame := examplelayout.SyntheticFrame(48, 48000)
	out := makeOutput(numCh-1, r.MaxOutputSampleCount())

	_, err := r.RenderIABFrame(frame, out)
	assert.Error(t, err)
}

func TestRenderIABFrame_ClosesAfterFatalError(t *testing.T) {
	r, numCh := newTestRenderer(t)
	badFrame := examplelayout.SyntheticFrame(48, 48000)
	badFrame.FrameRate = 12345 // unsupported rate

	out := makeOutput(numCh, r.MaxOutputSampleCount())
	_, err := r.RenderIABFrame(badFrame, out)
	require.Error(t, err)

	_, err = r.RenderIABFrame(examplelayout.SyntheticFrame(48, 48000), out)
	assert.Error(t, err)
}

func TestRenderIABFrame_FirstFrameRampsUpFromSilence(t *testing.T) {
	r, numCh := newTestRenderer(t)
	out := makeOutput(numCh, r.MaxOutputSampleCount())

	n1, err := r.RenderIABFrame(examplelayout.SyntheticFrame(48, 48000), out)
	require.NoError(t, err)
	require.Greater(t, n1, 10)

	// Gain smoothing ramps from zero on an entity's first appearance, so
	// the very first rendered sample should be quieter than one later in
	// the same frame once the ramp has completed.
	peak := func(idx int) float64 {
		p := 0.0
		for _, ch := range out {
			v := float64(ch[idx])
			if v < 0 {
				v = -v
			}
			if v > p {
				p = v
			}
		}
		return p
	}
	assert.LessOrEqual(t, peak(0), peak(n1-1)+1e-9)
}

func TestRenderIABFrame_NoWarningsOnWellFormedFrame(t *testing.T) {
	r, numCh := newTestRenderer(t)
	out := makeOutput(numCh, r.MaxOutputSampleCount())

	_, err := r.RenderIABFrame(examplelayout.SyntheticFrame(48, 48000), out)
	require.NoError(t, err)
	assert.Empty(t, r.Warnings())
}

// The remaining tests directly port the six end-to-end scenarios
// (S1-S6) from the format's testable-properties list: these are the
// spec's own acceptance criteria, not just incidental coverage.

// TestS1_BedDirectRouting ports S1: a 5.1 bed with every channel
// carrying the same constant-0.5 PCM asset must come out unchanged on
// every matching physical speaker.
func TestS1_BedDirectRouting(t *testing.T) {
	speakers := make([]config.Speaker, 0, 6)
	for _, ch := range []config.ChannelID{config.ChL, config.ChC, config.ChR, config.ChLS, config.ChRS, config.ChLFE} {
		info := config.BedChannelTable()[ch]
		speakers = append(speakers, config.Speaker{
			Name: string(ch), URI: info.URI, Position: info.VBAP, IsVBAP: ch != config.ChLFE,
		})
	}
	patches := []config.Patch{{S1: 0, S2: 1, S3: 2}}
	cfg, err := config.NewConfig(speakers, patches, "urn:smpte:ul:soundfield:5.1", config.WithSmoothing(false))
	require.NoError(t, err)

	r, err := render.New(cfg, asset.PassthroughDecoder{})
	require.NoError(t, err)

	const audioID = 1
	bed := iabframe.Bed{ID: "bed1", MetadataID: 1, Channels: []iabframe.BedChannel{
		{Channel: config.ChL, AudioDataID: audioID, Gain: 1},
		{Channel: config.ChC, AudioDataID: audioID, Gain: 1},
		{Channel: config.ChR, AudioDataID: audioID, Gain: 1},
		{Channel: config.ChLS, AudioDataID: audioID, Gain: 1},
		{Channel: config.ChRS, AudioDataID: audioID, Gain: 1},
		{Channel: config.ChLFE, AudioDataID: audioID, Gain: 1},
	}}
	frame := &iabframe.Frame{
		FrameRate: 24, SampleRate: 48000,
		Elements: []iabframe.SubElement{bed},
		Assets:   map[uint32]iabframe.AudioAsset{audioID: {AudioDataID: audioID, Payload: encodePCM24(0.5, 2000)}},
	}

	out := makeOutput(cfg.ChannelCount(), 2000)
	n, err := r.RenderIABFrame(frame, out)
	require.NoError(t, err)
	require.Equal(t, 2000, n)

	for _, ch := range out {
		for _, s := range ch {
			assert.InDelta(t, 0.5, s, 1e-4)
		}
	}
}

// TestS2_PointObjectAtSpeaker ports S2: an object panned exactly to a
// physical speaker's IAB-cube coordinate must render unity gain at
// that speaker and silence elsewhere.
func TestS2_PointObjectAtSpeaker(t *testing.T) {
	cfg, err := examplelayout.Config("urn:smpte:ul:soundfield:9.1-OH", config.WithSmoothing(false))
	require.NoError(t, err)
	r, err := render.New(cfg, asset.PassthroughDecoder{})
	require.NoError(t, err)

	lIdx, ok := cfg.IndexByName("L")
	require.True(t, ok)
	lx, ly, lz := coords.VBAPToIAB(cfg.PhysicalSpeakers()[lIdx].Position)

	frame := s2Frame(lx, ly, lz, false)
	out := makeOutput(cfg.ChannelCount(), 2000)
	n, err := r.RenderIABFrame(frame, out)
	require.NoError(t, err)
	require.Equal(t, 2000, n)

	assertPointObjectAtL(t, cfg, out)
}

// TestS3_SnapEquivalence ports S3: a position within snap tolerance of
// a speaker, with snap enabled, must render identically to S2.
func TestS3_SnapEquivalence(t *testing.T) {
	cfg, err := examplelayout.Config("urn:smpte:ul:soundfield:9.1-OH", config.WithSmoothing(false))
	require.NoError(t, err)
	r, err := render.New(cfg, asset.PassthroughDecoder{})
	require.NoError(t, err)

	lIdx, ok := cfg.IndexByName("L")
	require.True(t, ok)
	lx, ly, lz := coords.VBAPToIAB(cfg.PhysicalSpeakers()[lIdx].Position)

	frame := s2Frame(lx+0.01, ly+0.01, lz+0.01, true)
	out := makeOutput(cfg.ChannelCount(), 2000)
	n, err := r.RenderIABFrame(frame, out)
	require.NoError(t, err)
	require.Equal(t, 2000, n)

	assertPointObjectAtL(t, cfg, out)
}

func s2Frame(x, y, z float64, snap bool) *iabframe.Frame {
	const audioID = 1
	subBlocks := make([]iabframe.ObjectSubBlock, 8)
	for i := range subBlocks {
		subBlocks[i] = iabframe.ObjectSubBlock{Exists: true, X: x, Y: y, Z: z, Gain: 1, SnapToSpeaker: snap}
	}
	return &iabframe.Frame{
		FrameRate: 24, SampleRate: 48000,
		Elements: []iabframe.SubElement{iabframe.Object{ID: "obj1", MetadataID: 1, AudioDataID: audioID, SubBlocks: subBlocks}},
		Assets:   map[uint32]iabframe.AudioAsset{audioID: {AudioDataID: audioID, Payload: encodePCM24(1.0, 2000)}},
	}
}

func assertPointObjectAtL(t *testing.T, cfg *config.Config, out [][]float32) {
	t.Helper()
	lIdx, ok := cfg.IndexByName("L")
	require.True(t, ok)

	for _, s := range out[lIdx] {
		assert.InDelta(t, 1.0, s, 1e-3)
	}
	for i, ch := range out {
		if i == lIdx {
			continue
		}
		for _, s := range ch {
			assert.InDelta(t, 0, s, 1e-3)
		}
	}
}

// TestS4_Zone9ScreenOnlyNoOverhead ports S4, reproducing the reference
// renderer's own 9.1OH conformance fixture (30 speakers, uniform input
// power) from original_source/tests/Unit_Tests/IAB/IABRendererObjectZoneTests.cpp:
// expectedSpeakerGainsScreenOnlyNoOverhead. Non-screen VBAP speakers on
// each side (4 side-wall + 2 rear-wall + 4 ceiling = 10 of 30) fold
// entirely into that side's screen speaker; the center screen speaker
// and the 7 non-VBAP speakers are untouched.
func TestS4_Zone9ScreenOnlyNoOverhead(t *testing.T) {
	iabPos := coords.IABToVBAP
	type sp struct {
		name        string
		x, y, z     float64
		isVBAP      bool
	}
	defs := []sp{
		{"L", 0.1, 0, 0, true},
		{"C", 0.5, 0, 0, true},
		{"R", 0.9, 0, 0, true},
		{"LSSstar", 0.1, 0.5, 0, false},
		{"RSSstar", 0.9, 0.5, 0, false},
		{"LRSstar", 0.1, 0.98, 0, false},
		{"RRSstar", 0.9, 0.98, 0, false},
		{"LFEstar", 0.5, 0, 0, false},
		{"LTSstar", 0.1, 0.5, 0.5, false},
		{"RTSstar", 0.9, 0.5, 0.5, false},
		{"LRS1", 0.1, 0.98, 0, true},
		{"LRS2", 0.15, 0.98, 0, true},
		{"LSS1", 0.1, 0.5, 0, true},
		{"LSS2", 0.1, 0.55, 0, true},
		{"LSS3", 0.1, 0.45, 0, true},
		{"LSS4", 0.1, 0.6, 0, true},
		{"RRS1", 0.9, 0.98, 0, true},
		{"RRS2", 0.85, 0.98, 0, true},
		{"RSS1", 0.9, 0.5, 0, true},
		{"RSS2", 0.9, 0.55, 0, true},
		{"RSS3", 0.9, 0.45, 0, true},
		{"RSS4", 0.9, 0.6, 0, true},
		{"LTS1", 0.1, 0.5, 0.5, true},
		{"LTS2", 0.1, 0.55, 0.5, true},
		{"LTS3", 0.1, 0.45, 0.5, true},
		{"LTS4", 0.1, 0.6, 0.5, true},
		{"RTS1", 0.9, 0.5, 0.5, true},
		{"RTS2", 0.9, 0.55, 0.5, true},
		{"RTS3", 0.9, 0.45, 0.5, true},
		{"RTS4", 0.9, 0.6, 0.5, true},
	}
	require.Len(t, defs, 30)

	speakers := make([]config.Speaker, len(defs))
	for i, d := range defs {
		speakers[i] = config.Speaker{Name: d.name, Position: iabPos(d.x, d.y, d.z), IsVBAP: d.isVBAP}
	}
	patches := []config.Patch{{S1: 0, S2: 1, S3: 2}}
	cfg, err := config.NewConfig(speakers, patches, "urn:smpte:ul:soundfield:9.1-OH")
	require.NoError(t, err)

	engine := zone9.NewEngine(cfg)

	uniform := 1.0 / math.Sqrt(30)
	gains := make([]float64, 30)
	for i := range gains {
		gains[i] = uniform
	}

	zoneGains := [9]float64{1, 1, 1, 0, 0, 0, 0, 0, 0} // ScreenOnlyNoOverhead
	out, matched := engine.ProcessZoneGains(true, zoneGains, gains)
	require.True(t, matched)

	const tol = 1.0 / (2 * 1023.0)
	expectL := math.Sqrt(11.0 / 30.0)
	assert.InDelta(t, expectL, out[0], tol)   // L
	assert.InDelta(t, uniform, out[1], tol)   // C: untouched
	assert.InDelta(t, expectL, out[2], tol)   // R
	for i := 3; i <= 9; i++ {
		assert.InDelta(t, uniform, out[i], tol, "non-VBAP speaker %d must pass through unmodified", i)
	}
	for i := 10; i < 30; i++ {
		assert.InDelta(t, 0, out[i], tol, "redistributed-away VBAP speaker %d must be silent", i)
	}

	sumSq := 0.0
	for _, g := range out {
		sumSq += g * g
	}
	assert.InDelta(t, 1.0, sumSq, tol)
}

// TestS5_SmoothingRamp ports S5: a gain transition from 0.0 to 1.0
// ramps linearly over the full span, reaching exactly the target at
// the last sample, and the next call starts flat from that target.
func TestS5_SmoothingRamp(t *testing.T) {
	hist := smoothing.NewHistory()
	entity := smoothing.EntityID{MetadataID: 42}
	samples := make([]float32, 2000)
	for i := range samples {
		samples[i] = 1.0
	}

	out := makeOutput(1, 2000)
	smoothing.Apply(out, entity, hist, []float64{1.0}, samples, 0, 2000, true, false)

	for k := 0; k < 2000; k++ {
		want := float64(k+1) / 2000
		assert.InDelta(t, want, out[0][k], 1e-6)
	}
	assert.InDelta(t, 1.0, out[0][1999], 1e-6)

	// Next frame: previous end gain (1.0) is the new starting point, so
	// a same-target call holds flat immediately instead of re-ramping.
	next := makeOutput(1, 2000)
	smoothing.Apply(next, entity, hist, []float64{1.0}, samples, 0, 2000, true, false)
	assert.InDelta(t, 1.0, next[0][0], 1e-6)
}

// TestS6_BedRemapActivation ports S6: when a top-level bed remap matching
// the target use case references a bed whose own use case does not
// match, the renderer mixes that bed's channels through the remap matrix
// and does not route the bed's own channels directly, even though they
// are present in the frame.
func TestS6_BedRemapActivation(t *testing.T) {
	fiveOne := []config.ChannelID{config.ChL, config.ChC, config.ChR, config.ChLS, config.ChRS, config.ChLFE}
	speakers := make([]config.Speaker, len(fiveOne))
	for i, ch := range fiveOne {
		info := config.BedChannelTable()[ch]
		speakers[i] = config.Speaker{Name: string(ch), URI: info.URI, Position: info.VBAP, IsVBAP: ch != config.ChLFE}
	}
	patches := []config.Patch{{S1: 0, S2: 1, S3: 2}}
	cfg, err := config.NewConfig(speakers, patches, "urn:smpte:ul:soundfield:5.1", config.WithSmoothing(false))
	require.NoError(t, err)
	r, err := render.New(cfg, asset.PassthroughDecoder{})
	require.NoError(t, err)

	// 7.1-DS source bed: 8 channels (7 main + LFE), each a distinct
	// constant-value PCM asset so the remap matrix's routing is
	// individually verifiable.
	srcChannels := []config.ChannelID{config.ChL, config.ChR, config.ChC, config.ChLFE, config.ChLSS, config.ChRSS, config.ChLRS, config.ChRRS}
	bedChannels := make([]iabframe.BedChannel, len(srcChannels))
	assets := make(map[uint32]iabframe.AudioAsset, len(srcChannels))
	for i, ch := range srcChannels {
		audioID := uint32(i + 1)
		value := 0.1 * float64(i+1)
		bedChannels[i] = iabframe.BedChannel{Channel: ch, AudioDataID: audioID, Gain: 1}
		assets[audioID] = iabframe.AudioAsset{AudioDataID: audioID, Payload: encodePCM24(value, 2000)}
	}
	bed := iabframe.Bed{ID: "srcbed", MetadataID: 1, UseCaseTag: config.UseCase71DS, Channels: bedChannels}

	// Gains[s][d]: source row s routes to destination column d. d order
	// is L, C, R, LS, RS, LFE; s order is L, R, C, LFE, LSS, RSS, LRS, RRS.
	matrix := make([][]float64, len(srcChannels))
	for i := range matrix {
		matrix[i] = make([]float64, 6)
	}
	matrix[0][0] = 1 // L -> L
	matrix[1][2] = 1 // R -> R
	matrix[2][1] = 1 // C -> C
	matrix[3][5] = 1 // LFE -> LFE
	matrix[4][3] = 1 // LSS -> LS
	matrix[5][4] = 1 // RSS -> RS
	// LRS, RRS (rows 6, 7) are dropped: left as all-zero rows.

	remap := iabframe.BedRemap{
		ID: "remap1", MetadataID: 2, UseCaseTag: config.UseCase51, SourceBedID: "srcbed",
		Destinations: []iabframe.RemapDestination{
			{SpeakerName: "L"}, {SpeakerName: "C"}, {SpeakerName: "R"},
			{SpeakerName: "LS"}, {SpeakerName: "RS"}, {SpeakerName: "LFE"},
		},
		SubBlocks: []iabframe.BedRemapSubBlock{{Exists: true, Gains: matrix}},
	}

	frame := &iabframe.Frame{
		FrameRate: 24, SampleRate: 48000,
		Elements: []iabframe.SubElement{bed, remap},
		Assets:   assets,
	}

	out := makeOutput(cfg.ChannelCount(), 2000)
	n, err := r.RenderIABFrame(frame, out)
	require.NoError(t, err)
	require.Equal(t, 2000, n)

	expect := map[string]float64{"L": 0.1, "C": 0.3, "R": 0.2, "LS": 0.5, "RS": 0.6, "LFE": 0.4}
	for name, want := range expect {
		idx, ok := cfg.IndexByName(name)
		require.True(t, ok)
		for _, s := range out[idx] {
			assert.InDelta(t, want, s, 1e-3)
		}
	}
}
