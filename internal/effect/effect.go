// Package effect implements the colour filters applied to exported snapshots.
//
// Each effect is a chain of CSS filter functions. Every function works on
// straight (non-premultiplied) colour in [0,1], clamps after each step and
// leaves alpha alone.
package effect

import (
	"fmt"
	"image/color"
	"math"

	"github.com/gogpu/gg"
)

// Effect selects the colour treatment of an export.
type Effect string

const (
	None      Effect = "none"
	Grayscale Effect = "grayscale"
	Sepia     Effect = "sepia"
	Invert    Effect = "invert"
	Vintage   Effect = "vintage"
)

// Effects lists every supported effect in menu order.
var Effects = []Effect{None, Grayscale, Sepia, Invert, Vintage}

// Labels are the human readable names shown in the editor.
var Labels = map[Effect]string{
	None:      "No Effect",
	Grayscale: "Grayscale",
	Sepia:     "Sepia",
	Invert:    "Invert",
	Vintage:   "Vintage",
}

// ParseEffect validates an effect name. The empty string is none.
func ParseEffect(s string) (Effect, error) {
	if s == "" {
		return None, nil
	}
	for _, e := range Effects {
		if string(e) == s {
			return e, nil
		}
	}
	return None, fmt.Errorf("unknown effect %q", s)
}

func (e Effect) String() string { return string(e) }

// Kind is one CSS filter function.
type Kind int

const (
	OpGrayscale Kind = iota
	OpSepia
	OpSaturate
	OpContrast
	OpInvert
)

// Op is a filter function with its amount.
type Op struct {
	Kind   Kind
	Amount float64
}

// Filter is an ordered chain of filter functions.
type Filter struct {
	Ops []Op
}

// For returns the filter chain of e. Unknown effects map to the identity.
func For(e Effect) Filter {
	switch e {
	case Grayscale:
		return Filter{Ops: []Op{{OpGrayscale, 1}}}
	case Sepia:
		return Filter{Ops: []Op{{OpSepia, 1}}}
	case Invert:
		return Filter{Ops: []Op{{OpInvert, 1}}}
	case Vintage:
		return Filter{Ops: []Op{{OpSepia, 0.7}, {OpSaturate, 1.2}, {OpContrast, 1.2}}}
	default:
		return Filter{}
	}
}

// IsIdentity reports whether the filter leaves every pixel unchanged.
func (f Filter) IsIdentity() bool {
	return len(f.Ops) == 0
}

// Apply runs the chain on one straight-alpha pixel.
func (f Filter) Apply(c color.NRGBA) color.NRGBA {
	if f.IsIdentity() {
		return c
	}
	v := gg.RGBA{R: float64(c.R) / 255, G: float64(c.G) / 255, B: float64(c.B) / 255, A: float64(c.A) / 255}
	for _, op := range f.Ops {
		v = op.apply(v)
	}
	return color.NRGBA{R: toByte(v.R), G: toByte(v.G), B: toByte(v.B), A: c.A}
}

type matrix [3][3]float64

var identity = matrix{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}

func (op Op) apply(c gg.RGBA) gg.RGBA {
	switch op.Kind {
	case OpGrayscale:
		return mul(lerp(identity, grayscaleMatrix, clamp01(op.Amount)), c)
	case OpSepia:
		return mul(lerp(identity, sepiaMatrix, clamp01(op.Amount)), c)
	case OpSaturate:
		return mul(saturateMatrix(op.Amount), c)
	case OpContrast:
		return gg.RGBA{
			R: clamp01((c.R-0.5)*op.Amount + 0.5),
			G: clamp01((c.G-0.5)*op.Amount + 0.5),
			B: clamp01((c.B-0.5)*op.Amount + 0.5),
			A: c.A,
		}
	case OpInvert:
		a := clamp01(op.Amount)
		return gg.RGBA{
			R: c.R + a*(1-2*c.R),
			G: c.G + a*(1-2*c.G),
			B: c.B + a*(1-2*c.B),
			A: c.A,
		}
	}
	return c
}

var grayscaleMatrix = matrix{
	{0.2126, 0.7152, 0.0722},
	{0.2126, 0.7152, 0.0722},
	{0.2126, 0.7152, 0.0722},
}

var sepiaMatrix = matrix{
	{0.393, 0.769, 0.189},
	{0.349, 0.686, 0.168},
	{0.272, 0.534, 0.131},
}

func saturateMatrix(s float64) matrix {
	return matrix{
		{0.213 + 0.787*s, 0.715 - 0.715*s, 0.072 - 0.072*s},
		{0.213 - 0.213*s, 0.715 + 0.285*s, 0.072 - 0.072*s},
		{0.213 - 0.213*s, 0.715 - 0.715*s, 0.072 + 0.928*s},
	}
}

func lerp(a, b matrix, t float64) matrix {
	var m matrix
	for i := range m {
		for j := range m[i] {
			m[i][j] = a[i][j] + (b[i][j]-a[i][j])*t
		}
	}
	return m
}

func mul(m matrix, c gg.RGBA) gg.RGBA {
	return gg.RGBA{
		R: clamp01(m[0][0]*c.R + m[0][1]*c.G + m[0][2]*c.B),
		G: clamp01(m[1][0]*c.R + m[1][1]*c.G + m[1][2]*c.B),
		B: clamp01(m[2][0]*c.R + m[2][1]*c.G + m[2][2]*c.B),
		A: c.A,
	}
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

func toByte(v float64) uint8 {
	return uint8(math.Round(clamp01(v) * 255))
}
