package mask

import (
	"image"
	"math"

	"github.com/gogpu/gg"
	"golang.org/x/image/draw"
	"golang.org/x/image/vector"
)

var (
	opaque      = gg.RGBA{R: 1, G: 1, B: 1, A: 1}
	transparent = gg.RGBA{R: 1, G: 1, B: 1, A: 0}
)

// Rasterize evaluates the descriptor at every pixel centre and returns the
// coverage as an alpha mask. It returns nil for the none descriptor.
func (d Descriptor) Rasterize() *gg.Mask {
	if d.IsNone() || d.Width <= 0 || d.Height <= 0 {
		return nil
	}
	switch d.Kind {
	case KindPath:
		return fillPath(d.Path, d.Width, d.Height)
	case KindRadial:
		return fillRadial(d.Radial, d.Width, d.Height)
	case KindErodedPath:
		m := fillPath(d.Path, d.Width, d.Height)
		for _, s := range d.Strips {
			erase(m, s)
		}
		return m
	}
	return nil
}

// fillPath rasterises the path with anti-aliased coverage.
func fillPath(p *Path, w, h int) *gg.Mask {
	m := gg.NewMask(w, h)
	if p == nil {
		return m
	}

	z := vector.NewRasterizer(w, h)
	z.DrawOp = draw.Src
	for _, s := range p.Segments {
		switch s.Op {
		case MoveTo:
			z.MoveTo(f32(s.Pts[0].X), f32(s.Pts[0].Y))
		case LineTo:
			z.LineTo(f32(s.Pts[0].X), f32(s.Pts[0].Y))
		case CubeTo:
			z.CubeTo(
				f32(s.Pts[0].X), f32(s.Pts[0].Y),
				f32(s.Pts[1].X), f32(s.Pts[1].Y),
				f32(s.Pts[2].X), f32(s.Pts[2].Y),
			)
		case Close:
			z.ClosePath()
		}
	}

	coverage := image.NewAlpha(image.Rect(0, 0, w, h))
	z.Draw(coverage, coverage.Bounds(), image.Opaque, image.Point{})
	copy(m.Data(), coverage.Pix)
	return m
}

func fillRadial(r *Radial, w, h int) *gg.Mask {
	m := gg.NewMask(w, h)
	if r == nil || r.Radius <= 0 {
		return m
	}

	inner := opaque
	inner.A = r.InnerAlpha
	g := gg.NewRadialGradientBrush(r.Center.X, r.Center.Y, 0, r.Radius).
		AddColorStop(0, inner).
		AddColorStop(1, transparent)

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			a := g.ColorAt(float64(x)+0.5, float64(y)+0.5).A
			m.Set(x, y, toByte(a))
		}
	}
	return m
}

// erase applies one strip with destination-out: alpha *= 1 - erase.
func erase(m *gg.Mask, s Strip) {
	g := gg.NewLinearGradientBrush(s.From.X, s.From.Y, s.To.X, s.To.Y).
		AddColorStop(0, opaque).
		AddColorStop(1, transparent)

	x0 := int(math.Floor(s.Area.MinX))
	y0 := int(math.Floor(s.Area.MinY))
	x1 := int(math.Ceil(s.Area.MaxX))
	y1 := int(math.Ceil(s.Area.MaxY))
	for y := y0; y < y1; y++ {
		cy := float64(y) + 0.5
		if cy < s.Area.MinY || cy >= s.Area.MaxY {
			continue
		}
		for x := x0; x < x1; x++ {
			cx := float64(x) + 0.5
			if cx < s.Area.MinX || cx >= s.Area.MaxX {
				continue
			}
			keep := 1 - clamp01(g.ColorAt(cx, cy).A)
			m.Set(x, y, uint8(math.Round(float64(m.At(x, y))*keep)))
		}
	}
}

func f32(v float64) float32 { return float32(v) }

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}

func toByte(a float64) uint8 {
	return uint8(math.Round(clamp01(a) * 255))
}
