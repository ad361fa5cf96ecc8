package mask

import "math"

// Kind tells the rasteriser how to turn a Descriptor into alpha.
type Kind int

const (
	// KindNone leaves the destination untouched.
	KindNone Kind = iota
	// KindPath keeps pixels covered by Path.
	KindPath
	// KindRadial scales alpha by a radial gradient over the whole canvas.
	KindRadial
	// KindErodedPath fills Path opaque and then erases along each Strip.
	KindErodedPath
)

func (k Kind) String() string {
	switch k {
	case KindPath:
		return "path"
	case KindRadial:
		return "radial"
	case KindErodedPath:
		return "eroded-path"
	default:
		return "none"
	}
}

// Rect is an axis aligned box in canvas pixels.
type Rect struct {
	MinX, MinY, MaxX, MaxY float64
}

// Empty reports whether the box has no area.
func (r Rect) Empty() bool {
	return r.MaxX <= r.MinX || r.MaxY <= r.MinY
}

// Within reports whether r lies inside [0,w] x [0,h].
func (r Rect) Within(w, h float64) bool {
	return r.MinX >= 0 && r.MinY >= 0 && r.MaxX <= w && r.MaxY <= h
}

// Radial is a gradient of mask opacity from Center outwards. Opacity is
// InnerAlpha at distance 0 and falls linearly to 0 at Radius.
type Radial struct {
	Center     Point
	Radius     float64
	InnerAlpha float64
}

// Strip is one erase band of the squareFade frame: inside Area, mask alpha is
// multiplied by (1 - erase), where erase runs from 1 at From to 0 at To.
type Strip struct {
	Area Rect
	From Point
	To   Point
}

// Descriptor is the geometry of one frame for one canvas size.
type Descriptor struct {
	Style  FrameStyle
	Kind   Kind
	Width  int
	Height int
	Path   *Path
	Radial *Radial
	Strips []Strip
}

// IsNone reports whether applying the descriptor is a no-op.
func (d Descriptor) IsNone() bool {
	return d.Kind == KindNone
}

// Bounds returns the region the mask can leave non-transparent.
func (d Descriptor) Bounds() Rect {
	switch d.Kind {
	case KindPath, KindErodedPath:
		if d.Path == nil {
			return Rect{}
		}
		return d.Path.Bounds()
	case KindRadial:
		if d.Radial == nil {
			return Rect{}
		}
		c, r := d.Radial.Center, d.Radial.Radius
		return Rect{
			MinX: math.Max(0, c.X-r),
			MinY: math.Max(0, c.Y-r),
			MaxX: math.Min(float64(d.Width), c.X+r),
			MaxY: math.Min(float64(d.Height), c.Y+r),
		}
	default:
		return Rect{}
	}
}
