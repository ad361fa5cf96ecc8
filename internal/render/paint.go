package render

import (
	"github.com/gogpu/gg"

	"github.com/joeblew999/plat-style/internal/style"
)

// paintColor reads a colour paint property and multiplies in its opacity
// property. Expressions and unparsable values fall back to def.
func paintColor(l style.Layer, colorProp, opacityProp string, def gg.RGBA) gg.RGBA {
	c := def
	if s, ok := l.PaintString(colorProp); ok {
		if parsed, err := style.ParseColor(s); err == nil {
			c = parsed
		}
	}
	if op, ok := l.PaintNumber(opacityProp); ok {
		c.A *= clamp01(op)
	}
	return c
}

func paintNumber(l style.Layer, prop string, def float64) float64 {
	if v, ok := l.PaintNumber(prop); ok {
		return v
	}
	return def
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}

// inZoom reports whether zoom lies in the layer's [minzoom, maxzoom).
func inZoom(l style.Layer, zoom float64) bool {
	if l.MinZoom != nil && zoom < *l.MinZoom {
		return false
	}
	if l.MaxZoom != nil && zoom >= *l.MaxZoom {
		return false
	}
	return true
}
