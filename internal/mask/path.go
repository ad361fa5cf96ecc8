package mask

import "math"

// Op is a path construction verb.
type Op int

const (
	MoveTo Op = iota
	LineTo
	CubeTo
	Close
)

// Point is a position in canvas pixels.
type Point struct {
	X, Y float64
}

// Segment is one path verb with its points. CubeTo carries two control
// points followed by the end point; MoveTo and LineTo carry one point.
type Segment struct {
	Op  Op
	Pts []Point
}

// Path is a closed outline filled with the non-zero rule.
type Path struct {
	Segments []Segment
}

// kappa places cubic control points so four segments approximate a circle.
const kappa = 0.5522847498307936

func (p *Path) moveTo(x, y float64) {
	p.Segments = append(p.Segments, Segment{Op: MoveTo, Pts: []Point{{x, y}}})
}

func (p *Path) lineTo(x, y float64) {
	p.Segments = append(p.Segments, Segment{Op: LineTo, Pts: []Point{{x, y}}})
}

func (p *Path) cubeTo(c1x, c1y, c2x, c2y, x, y float64) {
	p.Segments = append(p.Segments, Segment{Op: CubeTo, Pts: []Point{{c1x, c1y}, {c2x, c2y}, {x, y}}})
}

func (p *Path) close() {
	p.Segments = append(p.Segments, Segment{Op: Close})
}

func circlePath(cx, cy, r float64) *Path {
	p := &Path{}
	o := r * kappa
	p.moveTo(cx+r, cy)
	p.cubeTo(cx+r, cy+o, cx+o, cy+r, cx, cy+r)
	p.cubeTo(cx-o, cy+r, cx-r, cy+o, cx-r, cy)
	p.cubeTo(cx-r, cy-o, cx-o, cy-r, cx, cy-r)
	p.cubeTo(cx+o, cy-r, cx+r, cy-o, cx+r, cy)
	p.close()
	return p
}

func polygonPath(pts []Point) *Path {
	p := &Path{}
	for i, pt := range pts {
		if i == 0 {
			p.moveTo(pt.X, pt.Y)
		} else {
			p.lineTo(pt.X, pt.Y)
		}
	}
	p.close()
	return p
}

func rectPath(x, y, w, h float64) *Path {
	return polygonPath([]Point{{x, y}, {x + w, y}, {x + w, y + h}, {x, y + h}})
}

// roundedRectPath follows the canvas roundRect outline: straight edges joined
// by quarter circles of radius r, clamped to half the shorter side.
func roundedRectPath(x, y, w, h, r float64) *Path {
	r = math.Min(r, math.Min(w, h)/2)
	o := r * kappa
	p := &Path{}
	p.moveTo(x+r, y)
	p.lineTo(x+w-r, y)
	p.cubeTo(x+w-r+o, y, x+w, y+r-o, x+w, y+r)
	p.lineTo(x+w, y+h-r)
	p.cubeTo(x+w, y+h-r+o, x+w-r+o, y+h, x+w-r, y+h)
	p.lineTo(x+r, y+h)
	p.cubeTo(x+r-o, y+h, x, y+h-r+o, x, y+h-r)
	p.lineTo(x, y+r)
	p.cubeTo(x, y+r-o, x+r-o, y, x+r, y)
	p.close()
	return p
}

// Vertices returns the on-curve points of the path in order, skipping
// control points.
func (p *Path) Vertices() []Point {
	var out []Point
	for _, s := range p.Segments {
		if len(s.Pts) > 0 {
			out = append(out, s.Pts[len(s.Pts)-1])
		}
	}
	return out
}

// Bounds returns the box enclosing every point of the path, control points
// included. Cubic curves never leave the hull of their control points, so
// the box always encloses the filled area.
func (p *Path) Bounds() Rect {
	b := Rect{MinX: math.Inf(1), MinY: math.Inf(1), MaxX: math.Inf(-1), MaxY: math.Inf(-1)}
	for _, s := range p.Segments {
		for _, pt := range s.Pts {
			b.MinX = math.Min(b.MinX, pt.X)
			b.MinY = math.Min(b.MinY, pt.Y)
			b.MaxX = math.Max(b.MaxX, pt.X)
			b.MaxY = math.Max(b.MaxY, pt.Y)
		}
	}
	if b.MinX > b.MaxX {
		return Rect{}
	}
	return b
}
