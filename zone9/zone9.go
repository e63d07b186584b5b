// Package zone9 implements the IAB object zone-9 energy redistribution
// engine: mapping VBAP speakers into 21 directional sub-zones, matching
// a per-object 9-zone on/off gain pattern against the 11 patterns the
// format supports, and redistributing energy from disabled zones to
// their enabled neighbors while preserving total power.
//
// The sub-zone mapping, pattern table, and every redistribution
// preference chain below are ported directly from the reference IAB
// renderer's object-zone-control implementation; this is the
// authoritative source where the format's own documentation only
// summarizes.
package zone9

import (
	"math"

	"github.com/dts-iab/renderer/config"
)

// Zone9Group is one of the 21 directional sub-zones speakers are
// partitioned into.
type Zone9Group int

const (
	LeftScreen Zone9Group = iota
	CenterScreen
	RightScreen
	LeftWallFront
	LeftWallMid
	LeftWallRear
	RightWallFront
	RightWallMid
	RightWallRear
	LeftRearWall
	CenterRearWall
	RightRearWall
	LeftCeilingFront
	LeftCeilingMid
	LeftCeilingRear
	CenterCeilingFront
	CenterCeilingMid
	CenterCeilingRear
	RightCeilingFront
	RightCeilingMid
	RightCeilingRear
	numZone9Groups
)

// ZoneIndex is the 9 coarse zones a per-object gain pattern is
// expressed over: LeftScreen, CenterScreen, RightScreen, LeftWall,
// RightWall, LeftRear, RightRear, LeftCeiling, RightCeiling.
type ZoneIndex int

const (
	ZLeftScreen ZoneIndex = iota
	ZCenterScreen
	ZRightScreen
	ZLeftWall
	ZRightWall
	ZLeftRear
	ZRightRear
	ZLeftCeiling
	ZRightCeiling
	numZones
)

// Pattern is one of the 11 zone on/off combinations this format
// supports.
type Pattern int

const (
	NoBackNoOverhead Pattern = iota
	NoBackPlusOverhead
	NoSideNoOverhead
	NoSidePlusOverhead
	CenterBackNoOverhead
	CenterBackPlusOverhead
	ScreenOnlyNoOverhead
	ScreenOnlyPlusOverhead
	SurroundNoOverhead
	SurroundPlusOverhead
	FloorNoOverhead
	AllZonesEnabled // sentinel: no redistribution (also the "no match" result)
)

// supportedPatterns reproduces the reference table verbatim; column
// order is ZLeftScreen..ZRightCeiling.
var supportedPatterns = map[Pattern][9]int{
	NoBackNoOverhead:     {1, 1, 1, 1, 1, 0, 0, 0, 0},
	NoBackPlusOverhead:   {1, 1, 1, 1, 1, 0, 0, 1, 1},
	NoSideNoOverhead:     {1, 1, 1, 0, 0, 1, 1, 0, 0},
	NoSidePlusOverhead:   {1, 1, 1, 0, 0, 1, 1, 1, 1},
	CenterBackNoOverhead: {0, 1, 0, 0, 0, 1, 1, 0, 0},
	CenterBackPlusOverhead: {0, 1, 0, 0, 0, 1, 1, 1, 1},
	ScreenOnlyNoOverhead:   {1, 1, 1, 0, 0, 0, 0, 0, 0},
	ScreenOnlyPlusOverhead: {1, 1, 1, 0, 0, 0, 0, 1, 1},
	SurroundNoOverhead:     {0, 0, 0, 1, 1, 1, 1, 0, 0},
	SurroundPlusOverhead:   {0, 0, 0, 1, 1, 1, 1, 1, 1},
	FloorNoOverhead:        {1, 1, 1, 1, 1, 1, 1, 0, 0},
}

// MatchPattern converts 9 per-zone gains into a binary on/off pattern
// (0 = silent, 1 = unity) and matches it against the supported table.
// Any fractional gain aborts the match immediately (ok=false), matching
// the reference's MatchZoneGainPattern early return.
func MatchPattern(gains [9]float64) (Pattern, bool) {
	var bits [9]int
	for i, g := range gains {
		switch {
		case g == 0:
			bits[i] = 0
		case g == 1:
			bits[i] = 1
		default:
			return AllZonesEnabled, false
		}
	}
	for p, table := range supportedPatterns {
		if table == bits {
			return p, true
		}
	}
	return AllZonesEnabled, false
}

// MapSpeakerPositionToZoneIndex assigns a VBAP speaker's IAB unit-cube
// coordinate to one of the 21 sub-zones. x in [0,1] left(0)-to-right(1),
// y in [0,1] screen(0)-to-rear(1), z in [0,1] floor(0)-to-ceiling(1).
func MapSpeakerPositionToZoneIndex(x, y, z float64) Zone9Group {
	const tol = 0.05

	if z >= tol {
		// Ceiling.
		switch {
		case x < 0.5-tol:
			return ceilingFrontMidRear(x, y, true)
		case x > 0.5+tol:
			return ceilingFrontMidRear(x, y, false)
		default:
			return ceilingCenterFrontMidRear(y)
		}
	}

	// Floor.
	switch {
	case y < tol:
		// Screen row.
		switch {
		case x < 0.5-tol:
			return LeftScreen
		case x > 0.5+tol:
			return RightScreen
		default:
			return CenterScreen
		}
	case y > 1-tol:
		// Rear wall row.
		switch {
		case x < 0.5-tol:
			return LeftRearWall
		case x > 0.5+tol:
			return RightRearWall
		default:
			return CenterRearWall
		}
	default:
		// Side wall.
		if x > 0.5 {
			return wallFrontMidRear(y, false)
		}
		return wallFrontMidRear(y, true)
	}
}

func wallFrontMidRear(y float64, left bool) Zone9Group {
	switch {
	case y < 0.33:
		if left {
			return LeftWallFront
		}
		return RightWallFront
	case y > 0.67:
		if left {
			return LeftWallRear
		}
		return RightWallRear
	default:
		if left {
			return LeftWallMid
		}
		return RightWallMid
	}
}

func ceilingFrontMidRear(x, y float64, left bool) Zone9Group {
	switch {
	case y < 0.25:
		if left {
			return LeftCeilingFront
		}
		return RightCeilingFront
	case y > 0.75:
		if left {
			return LeftCeilingRear
		}
		return RightCeilingRear
	default:
		if left {
			return LeftCeilingMid
		}
		return RightCeilingMid
	}
}

func ceilingCenterFrontMidRear(y float64) Zone9Group {
	switch {
	case y < 0.25:
		return CenterCeilingFront
	case y > 0.75:
		return CenterCeilingRear
	default:
		return CenterCeilingMid
	}
}

// Engine holds the per-speaker-config sub-zone assignment, built once
// for a given Config and reused across frames.
type Engine struct {
	groupSpeakers [numZone9Groups][]int
}

// NewEngine partitions every VBAP-participating speaker in cfg into its
// zone-9 sub-zone, using each speaker's IAB-cube position (resolved at
// config load by config.NewConfig) rather than re-deriving one from its
// VBAP position here.
func NewEngine(cfg *config.Config) *Engine {
	e := &Engine{}
	for i, s := range cfg.PhysicalSpeakers() {
		if !s.IsVBAP {
			continue
		}
		c := s.CubePosition
		g := MapSpeakerPositionToZoneIndex(c.X, c.Y, math.Max(c.Z, 0))
		e.groupSpeakers[g] = append(e.groupSpeakers[g], i)
	}
	return e
}

// ProcessZoneGains redistributes energy among gains (indexed the same
// way as cfg.PhysicalSpeakers()) according to the zone pattern matched
// from the object's 9 coarse zone gains. It is a no-op if the pattern
// is AllZonesEnabled, unmatched, or objectZoneControl is not set.
func (e *Engine) ProcessZoneGains(objectZoneControl bool, zoneGains [9]float64, gains []float64) ([]float64, bool) {
	if !objectZoneControl {
		return gains, true
	}
	pattern, ok := MatchPattern(zoneGains)
	if !ok {
		return gains, false
	}
	if pattern == AllZonesEnabled {
		return gains, true
	}

	out := make([]float64, len(gains))
	copy(out, gains)

	noOverheadFamily := pattern == NoBackNoOverhead || pattern == NoSideNoOverhead ||
		pattern == CenterBackNoOverhead || pattern == ScreenOnlyNoOverhead ||
		pattern == SurroundNoOverhead || pattern == FloorNoOverhead

	if noOverheadFamily {
		e.redistributeFloorOnly(out)
	}

	switch pattern {
	case NoBackNoOverhead, NoBackPlusOverhead:
		e.redistributeNoBack(out)
	case NoSideNoOverhead, NoSidePlusOverhead:
		e.redistributeNoSide(out)
	case CenterBackNoOverhead, CenterBackPlusOverhead:
		e.redistributeCenterBack(out)
	case ScreenOnlyNoOverhead, ScreenOnlyPlusOverhead:
		e.redistributeScreenOnly(out)
	case SurroundNoOverhead, SurroundPlusOverhead:
		e.redistributeSurroundOnly(out)
	case FloorNoOverhead:
		// Already fully redistributed in step 1.
	}

	return out, true
}

func (e *Engine) group(g Zone9Group) []int { return e.groupSpeakers[g] }

func combine(groups ...[]int) []int {
	var out []int
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}

// selectTargets returns the first non-empty of the three preference
// lists, matching the reference SelectTargetSpeakers.
func selectTargets(first, second, third []int) []int {
	if len(first) > 0 {
		return first
	}
	if len(second) > 0 {
		return second
	}
	return third
}

// computeTargetPower zeros the source gains and returns the power per
// target: Σ source gains² / numTargets.
func computeTargetPower(sourceIdx []int, numTargets int, gains []float64) float64 {
	if numTargets == 0 {
		return 0
	}
	p := 0.0
	for _, i := range sourceIdx {
		p += gains[i] * gains[i]
		gains[i] = 0
	}
	return p / float64(numTargets)
}

// updateTargetGains adds powerPerTarget worth of power to every target
// gain, in place.
func updateTargetGains(targetIdx []int, powerPerTarget float64, gains []float64) {
	if powerPerTarget <= 0 {
		return
	}
	for _, i := range targetIdx {
		gains[i] = math.Sqrt(gains[i]*gains[i] + powerPerTarget)
	}
}

// redistribute moves all power from source to the selected target
// preference chain.
func (e *Engine) redistribute(source []int, gains []float64, first, second, third []int) {
	targets := selectTargets(first, second, third)
	p := computeTargetPower(source, len(targets), gains)
	updateTargetGains(targets, p, gains)
}

func (e *Engine) redistributeNoBack(gains []float64) {
	centerRear := e.group(CenterRearWall)
	if len(centerRear) > 0 {
		// The reference implementation's target-selection here only
		// ever resolves to the combined left+right wall group: the
		// two "preferred" aggregates it builds first are each
		// overwritten before use. Reproduced literally for parity.
		combinedWalls := combine(e.group(LeftWallFront), e.group(LeftWallMid), e.group(LeftWallRear),
			e.group(RightWallFront), e.group(RightWallMid), e.group(RightWallRear))
		e.redistribute(centerRear, gains, combinedWalls, nil, nil)
	}

	e.redistribute(e.group(LeftRearWall), gains, e.group(LeftWallRear), e.group(LeftWallMid), e.group(LeftWallFront))
	e.redistribute(e.group(RightRearWall), gains, e.group(RightWallRear), e.group(RightWallMid), e.group(RightWallFront))
}

func (e *Engine) redistributeNoSide(gains []float64) {
	e.redistribute(e.group(LeftWallFront), gains, e.group(LeftScreen), nil, nil)
	if len(e.group(LeftRearWall)) > 0 || len(e.group(LeftWallRear)) > 0 {
		e.redistribute(e.group(LeftWallMid), gains, combine(e.group(LeftScreen), e.group(LeftRearWall)), nil, nil)
	} else {
		// Neither a left-rear nor a left-wall-rear speaker exists:
		// these mid-wall speakers are the rearmost on this side, so
		// collapsing them into the screen would misrepresent the
		// image. Drop the energy instead.
	}
	e.redistribute(e.group(LeftWallRear), gains, e.group(LeftRearWall), nil, nil)

	e.redistribute(e.group(RightWallFront), gains, e.group(RightScreen), nil, nil)
	if len(e.group(RightRearWall)) > 0 || len(e.group(RightWallRear)) > 0 {
		e.redistribute(e.group(RightWallMid), gains, combine(e.group(RightScreen), e.group(RightRearWall)), nil, nil)
	}
	// Reference parity: this final redistribution is gated on the
	// *left* wall-rear group's occupancy rather than the right's, an
	// apparent copy-paste artifact in the source this port mirrors
	// exactly rather than silently repairing.
	if len(e.group(LeftWallRear)) > 0 {
		e.redistribute(e.group(RightWallRear), gains, e.group(RightRearWall), nil, nil)
	}
}

func (e *Engine) redistributeCenterBack(gains []float64) {
	e.redistributeNoSide(gains)
	e.redistribute(combine(e.group(LeftScreen), e.group(RightScreen)), gains, e.group(CenterScreen), nil, nil)
}

func (e *Engine) redistributeScreenOnly(gains []float64) {
	centerRear := e.group(CenterRearWall)
	if len(centerRear) > 0 {
		e.redistribute(centerRear, gains, e.group(CenterScreen), combine(e.group(LeftRearWall), e.group(RightRearWall)), nil)
	}

	leftSource := combine(e.group(LeftWallFront), e.group(LeftWallMid), e.group(LeftWallRear), e.group(LeftRearWall))
	if len(leftSource) > 0 {
		p := computeTargetPower(leftSource, max(len(e.group(LeftScreen)), 1), gains)
		updateTargetGains(e.group(LeftScreen), p, gains)
	}
	rightSource := combine(e.group(RightWallFront), e.group(RightWallMid), e.group(RightWallRear), e.group(RightRearWall))
	if len(rightSource) > 0 {
		p := computeTargetPower(rightSource, max(len(e.group(RightScreen)), 1), gains)
		updateTargetGains(e.group(RightScreen), p, gains)
	}
}

func (e *Engine) redistributeSurroundOnly(gains []float64) {
	e.redistribute(e.group(CenterScreen), gains, combine(e.group(LeftScreen), e.group(RightScreen)), nil, nil)

	e.redistribute(e.group(LeftScreen), gains,
		e.group(LeftWallFront), e.group(LeftWallMid), e.group(LeftWallRear))
	e.redistribute(e.group(RightScreen), gains,
		e.group(RightWallFront), e.group(RightWallMid), e.group(RightWallRear))
}

func (e *Engine) redistributeFloorOnly(gains []float64) {
	e.redistribute(e.group(CenterCeilingFront), gains,
		e.group(CenterScreen), combine(e.group(LeftCeilingFront), e.group(RightCeilingFront)),
		combine(e.group(LeftCeilingMid), e.group(RightCeilingMid), e.group(LeftCeilingRear), e.group(RightCeilingRear)))

	e.redistribute(e.group(CenterCeilingMid), gains,
		combine(e.group(LeftCeilingFront), e.group(LeftCeilingMid), e.group(LeftCeilingRear),
			e.group(RightCeilingFront), e.group(RightCeilingMid), e.group(RightCeilingRear)),
		combine(e.group(LeftWallFront), e.group(LeftWallMid), e.group(LeftWallRear),
			e.group(RightWallFront), e.group(RightWallMid), e.group(RightWallRear)),
		nil)

	e.redistribute(e.group(CenterCeilingRear), gains,
		e.group(CenterRearWall),
		combine(e.group(LeftCeilingRear), e.group(RightCeilingRear)),
		combine(e.group(LeftCeilingMid), e.group(RightCeilingMid), e.group(LeftCeilingFront), e.group(RightCeilingFront)))

	e.redistribute(e.group(LeftCeilingFront), gains,
		combine(e.group(LeftScreen), e.group(LeftWallFront)), e.group(LeftWallMid), e.group(LeftWallRear))
	e.redistribute(e.group(LeftCeilingMid), gains,
		e.group(LeftWallMid), combine(e.group(LeftWallFront), e.group(LeftWallRear)), nil)
	e.redistribute(e.group(LeftCeilingRear), gains,
		combine(e.group(LeftRearWall), e.group(LeftWallRear)), e.group(LeftWallMid), nil)

	e.redistribute(e.group(RightCeilingFront), gains,
		combine(e.group(RightScreen), e.group(RightWallFront)), e.group(RightWallMid), e.group(RightWallRear))
	e.redistribute(e.group(RightCeilingMid), gains,
		e.group(RightWallMid), combine(e.group(RightWallFront), e.group(RightWallRear)), nil)
	e.redistribute(e.group(RightCeilingRear), gains,
		combine(e.group(RightRearWall), e.group(RightWallRear)), e.group(RightWallMid), nil)
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
