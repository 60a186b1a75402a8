// Package geo classifies BFME2 world coordinates. The game world is a
// flat engine-local frame; positions are only ever compared against
// fixed map constants, never transformed.
package geo

import (
	geom "github.com/peterstace/simplefeatures/geom"
)

// World-coordinate thresholds for the supported map.
const (
	MapXMidpoint    = 2500.0
	MapYTopLine     = 3000.0
	MapYMidLine     = 1500.0
)

// Side is the spatial half of the map a team starts on.
type Side int

const (
	SideUnknown Side = iota
	SideLeft
	SideRight
)

func (s Side) String() string {
	switch s {
	case SideLeft:
		return "Left"
	case SideRight:
		return "Right"
	default:
		return "Unknown"
	}
}

// SideOf classifies a world coordinate against the map-width midpoint.
func SideOf(p geom.XY) Side {
	if p.X < MapXMidpoint {
		return SideLeft
	}
	return SideRight
}

// Valid reports whether a recorded position carries information. The
// engine emits the zero coordinate for unpositioned commands.
func Valid(p geom.XY) bool {
	return p.X != 0 || p.Y != 0
}

// Anchor is one of the six fixed render positions on the map graphic.
type Anchor int

const (
	AnchorTopLeft Anchor = iota
	AnchorMidLeft
	AnchorBottomLeft
	AnchorTopRight
	AnchorMidRight
	AnchorBottomRight
)

// Pixel coordinates of each anchor on the original 1624x1620 map asset.
// Callers scale them to the actual rendered image dimensions.
const (
	AssetWidth  = 1624.0
	AssetHeight = 1620.0
)

var anchorPixels = map[Anchor]geom.XY{
	AnchorTopLeft:     {X: 272, Y: 336},
	AnchorMidLeft:     {X: 198, Y: 896},
	AnchorBottomLeft:  {X: 344, Y: 1370},
	AnchorTopRight:    {X: 1330, Y: 336},
	AnchorMidRight:    {X: 1370, Y: 850},
	AnchorBottomRight: {X: 1314, Y: 1420},
}

// AnchorOf buckets a world coordinate into one of the six anchors.
func AnchorOf(p geom.XY) Anchor {
	left := p.X < MapXMidpoint
	switch {
	case p.Y > MapYTopLine:
		if left {
			return AnchorTopLeft
		}
		return AnchorTopRight
	case p.Y > MapYMidLine:
		if left {
			return AnchorMidLeft
		}
		return AnchorMidRight
	default:
		if left {
			return AnchorBottomLeft
		}
		return AnchorBottomRight
	}
}

// PixelsOn returns the anchor center scaled to a w x h rendering of the
// map asset.
func (a Anchor) PixelsOn(w, h int) (x, y int) {
	px := anchorPixels[a]
	return int(px.X / AssetWidth * float64(w)), int(px.Y / AssetHeight * float64(h))
}
