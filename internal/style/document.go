// Package style holds the map style document and the edits the editor makes
// to it. Documents are values: every edit returns a new *Document and leaves
// the receiver unchanged.
package style

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"math"
	"slices"
)

var (
	// ErrInvalidStyle is returned for a document without a layers array.
	ErrInvalidStyle = errors.New("invalid style format")
	// ErrLayerNotFound is returned when an edit names an unknown layer.
	ErrLayerNotFound = errors.New("layer not found")
)

//go:embed default-style.json
var defaultStyle []byte

// Source is a data source referenced by layers.
type Source struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
	URL  string          `json:"url,omitempty"`
}

// Layer is one entry of the layers array.
type Layer struct {
	ID          string          `json:"id"`
	Type        string          `json:"type"`
	Source      string          `json:"source,omitempty"`
	SourceLayer string          `json:"source-layer,omitempty"`
	MinZoom     *float64        `json:"minzoom,omitempty"`
	MaxZoom     *float64        `json:"maxzoom,omitempty"`
	Filter      json.RawMessage `json:"filter,omitempty"`
	Paint       map[string]any  `json:"paint,omitempty"`
	Layout      map[string]any  `json:"layout,omitempty"`
}

// Visible reports whether layout.visibility is anything but "none".
func (l Layer) Visible() bool {
	v, _ := l.Layout["visibility"].(string)
	return v != "none"
}

// PaintString returns a string paint property.
func (l Layer) PaintString(prop string) (string, bool) {
	s, ok := l.Paint[prop].(string)
	return s, ok
}

// PaintNumber returns a numeric paint property.
func (l Layer) PaintNumber(prop string) (float64, bool) {
	return number(l.Paint[prop])
}

// LayoutNumber returns a numeric layout property.
func (l Layer) LayoutNumber(prop string) (float64, bool) {
	return number(l.Layout[prop])
}

func (l Layer) clone() Layer {
	l.Paint = maps.Clone(l.Paint)
	l.Layout = maps.Clone(l.Layout)
	return l
}

// Document is a MapLibre shaped style.
type Document struct {
	Version int               `json:"version"`
	Name    string            `json:"name,omitempty"`
	Center  []float64         `json:"center,omitempty"`
	Zoom    *float64          `json:"zoom,omitempty"`
	Glyphs  string            `json:"glyphs,omitempty"`
	Sprite  string            `json:"sprite,omitempty"`
	Sources map[string]Source `json:"sources,omitempty"`
	Layers  []Layer           `json:"layers"`
}

// Parse decodes a style document. The only structural requirement is a
// layers array.
func Parse(data []byte) (*Document, error) {
	var shape struct {
		Layers json.RawMessage `json:"layers"`
	}
	if err := json.Unmarshal(data, &shape); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidStyle, err)
	}
	if len(shape.Layers) == 0 || shape.Layers[0] != '[' {
		return nil, fmt.Errorf("%w: layers must be an array", ErrInvalidStyle)
	}
	var d Document
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidStyle, err)
	}
	return &d, nil
}

// Default returns a fresh copy of the built-in style.
func Default() *Document {
	d, err := Parse(defaultStyle)
	if err != nil {
		panic(fmt.Sprintf("style: embedded default: %v", err))
	}
	return d
}

// Marshal encodes the document as indented JSON.
func (d *Document) Marshal() ([]byte, error) {
	return json.MarshalIndent(d, "", "  ")
}

// Layer returns the layer with the given id.
func (d *Document) Layer(id string) (Layer, bool) {
	i := d.index(id)
	if i < 0 {
		return Layer{}, false
	}
	return d.Layers[i], true
}

func (d *Document) index(id string) int {
	return slices.IndexFunc(d.Layers, func(l Layer) bool { return l.ID == id })
}

// Visibility maps each layer id to whether it is drawn.
func (d *Document) Visibility() map[string]bool {
	out := make(map[string]bool, len(d.Layers))
	for _, l := range d.Layers {
		out[l.ID] = l.Visible()
	}
	return out
}

// WithLayer returns a copy of d in which layer id has been replaced by the
// result of fn. fn receives a deep copy of the layer's property maps.
func (d *Document) WithLayer(id string, fn func(*Layer)) (*Document, error) {
	i := d.index(id)
	if i < 0 {
		return nil, fmt.Errorf("%w: %q", ErrLayerNotFound, id)
	}
	next := *d
	next.Layers = slices.Clone(d.Layers)
	l := d.Layers[i].clone()
	fn(&l)
	next.Layers[i] = l
	return &next, nil
}

// ToggleVisibility flips layout.visibility between "visible" and "none".
func (d *Document) ToggleVisibility(id string) (*Document, error) {
	return d.WithLayer(id, func(l *Layer) {
		vis := "none"
		if !l.Visible() {
			vis = "visible"
		}
		setProp(&l.Layout, "visibility", vis)
	})
}

// SetVisibility sets layout.visibility explicitly.
func (d *Document) SetVisibility(id string, visible bool) (*Document, error) {
	return d.WithLayer(id, func(l *Layer) {
		vis := "none"
		if visible {
			vis = "visible"
		}
		setProp(&l.Layout, "visibility", vis)
	})
}

// SetPaint sets one paint property.
func (d *Document) SetPaint(id, prop string, value any) (*Document, error) {
	return d.WithLayer(id, func(l *Layer) { setProp(&l.Paint, prop, value) })
}

// SetLayout sets one layout property.
func (d *Document) SetLayout(id, prop string, value any) (*Document, error) {
	return d.WithLayer(id, func(l *Layer) { setProp(&l.Layout, prop, value) })
}

func setProp(m *map[string]any, k string, v any) {
	if *m == nil {
		*m = map[string]any{}
	}
	(*m)[k] = v
}

func number(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}

func clampPercent(p float64) float64 {
	return math.Max(0, math.Min(p, 100))
}
