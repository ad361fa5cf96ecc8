package style

import (
	"fmt"
	"math"
	"strings"
)

// DefaultTextSize is used when a symbol layer has no text-size.
const DefaultTextSize = 12.0

var colorProperty = map[string]string{
	"background": "background-color",
	"fill":       "fill-color",
	"line":       "line-color",
	"circle":     "circle-color",
	"symbol":     "text-color",
}

// ColorProperty returns the paint property the colour control of a layer
// type edits.
func ColorProperty(layerType string) (string, bool) {
	p, ok := colorProperty[layerType]
	return p, ok
}

// Properties are the editor controls of one layer, derived from its paint
// and layout.
type Properties struct {
	LayerID   string   `json:"layerId"`
	Type      string   `json:"type"`
	Visible   bool     `json:"visible"`
	Color     string   `json:"color"`
	Thickness *float64 `json:"thickness,omitempty"`
	TextSize  *float64 `json:"textSize,omitempty"`
	Font      string   `json:"font,omitempty"`
	HaloColor string   `json:"haloColor,omitempty"`
	HaloWidth *float64 `json:"haloWidth,omitempty"`
	HaloBlur  *float64 `json:"haloBlur,omitempty"`
	// HaloWidthPercent is the halo width relative to a quarter of the text size.
	HaloWidthPercent float64 `json:"haloWidthPercent"`
}

// Properties derives the editor controls of layer id.
func (d *Document) Properties(id string) (Properties, error) {
	l, ok := d.Layer(id)
	if !ok {
		return Properties{}, fmt.Errorf("%w: %q", ErrLayerNotFound, id)
	}
	p := Properties{LayerID: l.ID, Type: l.Type, Visible: l.Visible(), Color: "#000000"}
	if prop, ok := colorProperty[l.Type]; ok {
		if s, ok := l.PaintString(prop); ok && s != "" {
			p.Color = toHex(s)
		}
	}

	switch l.Type {
	case "line":
		w, ok := l.PaintNumber("line-width")
		if !ok {
			w = 1
		}
		p.Thickness = &w
	case "symbol":
		size := textSize(l)
		halo, _ := l.PaintNumber("text-halo-width")
		blur, ok := l.PaintNumber("text-halo-blur")
		if !ok {
			blur = 1
		}
		p.TextSize, p.HaloWidth, p.HaloBlur = &size, &halo, &blur
		p.HaloWidthPercent = haloPercent(halo, size)
		p.HaloColor = "#FFFFFF"
		if s, ok := l.PaintString("text-halo-color"); ok {
			p.HaloColor = toHex(s)
		}
		if fonts, ok := l.Layout["text-font"].([]any); ok && len(fonts) > 0 {
			p.Font, _ = fonts[0].(string)
		}
	}
	return p, nil
}

// SetColor sets the layer's main colour from "#rrggbb".
func (d *Document) SetColor(id, hex string) (*Document, error) {
	l, ok := d.Layer(id)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrLayerNotFound, id)
	}
	prop, ok := colorProperty[l.Type]
	if !ok {
		return nil, fmt.Errorf("layer %q of type %q has no color", id, l.Type)
	}
	return d.SetPaint(id, prop, HexToRGBA(hex, 1))
}

// SetHaloColor sets text-halo-color from "#rrggbb".
func (d *Document) SetHaloColor(id, hex string) (*Document, error) {
	return d.SetPaint(id, "text-halo-color", HexToRGBA(hex, 1))
}

// SetLineWidth sets line-width.
func (d *Document) SetLineWidth(id string, w float64) (*Document, error) {
	return d.SetPaint(id, "line-width", w)
}

// SetFont sets the first text-font.
func (d *Document) SetFont(id, font string) (*Document, error) {
	return d.SetLayout(id, "text-font", []any{font})
}

// SetTextSize sets text-size and rescales text-halo-width so the halo keeps
// its width relative to the text.
func (d *Document) SetTextSize(id string, size float64) (*Document, error) {
	return d.WithLayer(id, func(l *Layer) {
		halo, _ := l.PaintNumber("text-halo-width")
		pct := haloPercent(halo, textSize(*l))
		setProp(&l.Layout, "text-size", size)
		setProp(&l.Paint, "text-halo-width", pct/100*(size/4))
	})
}

// SetHaloWidthPercent sets text-halo-width to pct percent of a quarter of
// the text size. pct is clamped to [0,100].
func (d *Document) SetHaloWidthPercent(id string, pct float64) (*Document, error) {
	return d.WithLayer(id, func(l *Layer) {
		setProp(&l.Paint, "text-halo-width", clampPercent(pct)/100*(textSize(*l)/4))
	})
}

func textSize(l Layer) float64 {
	if s, ok := l.LayoutNumber("text-size"); ok && s != 0 {
		return s
	}
	return DefaultTextSize
}

func haloPercent(halo, size float64) float64 {
	if size == 0 {
		return 0
	}
	return clampPercent(halo / (size / 4) * 100)
}

func toHex(s string) string {
	if strings.HasPrefix(s, "rgb") {
		return RGBAToHex(s)
	}
	c, err := ParseColor(s)
	if err != nil {
		return "#FFFFFF"
	}
	return fmt.Sprintf("#%02X%02X%02X", channel(c.R), channel(c.G), channel(c.B))
}

func channel(v float64) uint8 {
	return uint8(math.Round(math.Max(0, math.Min(v, 1)) * 255))
}
