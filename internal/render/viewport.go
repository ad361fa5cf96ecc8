package render

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/project"
)

const (
	earthRadius = 6378137.0
	tileSize    = 512.0
	// fitPadding is the margin left around the data when fitting bounds.
	fitPadding = 20.0
)

// DefaultCenter is downtown Pittsburgh.
var DefaultCenter = orb.Point{-79.9959, 40.4406}

// DefaultZoom is used when a style has a centre but no zoom.
const DefaultZoom = 12.0

// Viewport maps lon/lat to canvas pixels through Web Mercator.
type Viewport struct {
	Center orb.Point
	Zoom   float64
	Width  int
	Height int
}

// Scale returns canvas pixels per Mercator metre.
func (v Viewport) Scale() float64 {
	return tileSize * math.Exp2(v.Zoom) / (2 * math.Pi * earthRadius)
}

// Project converts a lon/lat point to canvas pixels.
func (v Viewport) Project(p orb.Point) orb.Point {
	m := project.WGS84.ToMercator(p)
	c := project.WGS84.ToMercator(v.Center)
	s := v.Scale()
	return orb.Point{
		float64(v.Width)/2 + (m[0]-c[0])*s,
		float64(v.Height)/2 - (m[1]-c[1])*s,
	}
}

// Bound returns the lon/lat box visible on the canvas.
func (v Viewport) Bound() orb.Bound {
	c := project.WGS84.ToMercator(v.Center)
	s := v.Scale()
	hw, hh := float64(v.Width)/2/s, float64(v.Height)/2/s
	lo := project.Mercator.ToWGS84(orb.Point{c[0] - hw, c[1] - hh})
	hi := project.Mercator.ToWGS84(orb.Point{c[0] + hw, c[1] + hh})
	return orb.Bound{Min: lo, Max: hi}
}

// FitBound returns a viewport showing b with a small margin. An empty or
// degenerate bound is centred at DefaultZoom.
func FitBound(b orb.Bound, width, height int) Viewport {
	v := Viewport{Center: b.Center(), Zoom: DefaultZoom, Width: width, Height: height}
	lo := project.WGS84.ToMercator(b.Min)
	hi := project.WGS84.ToMercator(b.Max)
	bw, bh := hi[0]-lo[0], hi[1]-lo[1]
	if bw <= 0 && bh <= 0 {
		return v
	}

	aw := math.Max(float64(width)-2*fitPadding, 1)
	ah := math.Max(float64(height)-2*fitPadding, 1)
	s := math.Inf(1)
	if bw > 0 {
		s = aw / bw
	}
	if bh > 0 {
		s = math.Min(s, ah/bh)
	}
	v.Zoom = math.Log2(s * 2 * math.Pi * earthRadius / tileSize)
	v.Center = project.Mercator.ToWGS84(orb.Point{(lo[0] + hi[0]) / 2, (lo[1] + hi[1]) / 2})
	return v
}
