package style

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `{
  "version": 8,
  "layers": [
    {"id": "bg", "type": "background", "paint": {"background-color": "rgba(10, 20, 30, 1)"}},
    {"id": "roads", "type": "line", "paint": {"line-color": "rgba(255, 255, 255, 1)"}},
    {"id": "labels", "type": "symbol", "layout": {"text-size": 16, "visibility": "none"}, "paint": {"text-halo-width": 2}}
  ]
}`

func mustParse(t *testing.T, s string) *Document {
	t.Helper()
	d, err := Parse([]byte(s))
	require.NoError(t, err)
	return d
}

func TestParse_RequiresLayersArray(t *testing.T) {
	_, err := Parse([]byte(`{"version": 8}`))
	assert.ErrorIs(t, err, ErrInvalidStyle)

	_, err = Parse([]byte(`{"layers": {"a": 1}}`))
	assert.ErrorIs(t, err, ErrInvalidStyle)

	_, err = Parse([]byte(`not json`))
	assert.ErrorIs(t, err, ErrInvalidStyle)

	d, err := Parse([]byte(`{"layers": []}`))
	require.NoError(t, err)
	assert.Empty(t, d.Layers)
}

func TestDefault(t *testing.T) {
	d := Default()
	require.NotEmpty(t, d.Layers)
	require.Len(t, d.Center, 2)
	assert.InDelta(t, -79.9959, d.Center[0], 1e-9)
	assert.Contains(t, d.Sources, "city")

	d.Layers[0].ID = "changed"
	assert.NotEqual(t, "changed", Default().Layers[0].ID, "each call is a fresh copy")
}

func TestVisibility(t *testing.T) {
	d := mustParse(t, sample)
	assert.Equal(t, map[string]bool{"bg": true, "roads": true, "labels": false}, d.Visibility())
}

func TestToggleVisibility_IsImmutable(t *testing.T) {
	d := mustParse(t, sample)

	next, err := d.ToggleVisibility("roads")
	require.NoError(t, err)
	assert.False(t, next.Visibility()["roads"])
	assert.True(t, d.Visibility()["roads"], "original unchanged")

	back, err := next.ToggleVisibility("roads")
	require.NoError(t, err)
	assert.True(t, back.Visibility()["roads"])
	assert.False(t, next.Visibility()["roads"])

	_, err = d.ToggleVisibility("nope")
	assert.ErrorIs(t, err, ErrLayerNotFound)
}

func TestSetPaintAndLayout(t *testing.T) {
	d := mustParse(t, sample)

	next, err := d.SetPaint("bg", "background-color", "rgba(0, 0, 0, 1)")
	require.NoError(t, err)
	l, _ := next.Layer("bg")
	assert.Equal(t, "rgba(0, 0, 0, 1)", l.Paint["background-color"])
	orig, _ := d.Layer("bg")
	assert.Equal(t, "rgba(10, 20, 30, 1)", orig.Paint["background-color"])

	next, err = d.SetLayout("roads", "line-cap", "round")
	require.NoError(t, err)
	l, _ = next.Layer("roads")
	assert.Equal(t, "round", l.Layout["line-cap"])
	orig, _ = d.Layer("roads")
	assert.Nil(t, orig.Layout)
}

func TestProperties(t *testing.T) {
	d := mustParse(t, sample)

	p, err := d.Properties("roads")
	require.NoError(t, err)
	assert.Equal(t, "#FFFFFF", p.Color)
	require.NotNil(t, p.Thickness)
	assert.Equal(t, 1.0, *p.Thickness)

	p, err = d.Properties("labels")
	require.NoError(t, err)
	require.NotNil(t, p.TextSize)
	assert.Equal(t, 16.0, *p.TextSize)
	assert.Equal(t, 50.0, p.HaloWidthPercent)
	assert.Equal(t, "#FFFFFF", p.HaloColor)
	assert.False(t, p.Visible)

	_, err = d.Properties("missing")
	assert.ErrorIs(t, err, ErrLayerNotFound)
}

func TestSetTextSize_KeepsHaloPercent(t *testing.T) {
	d := mustParse(t, sample)
	next, err := d.SetTextSize("labels", 32)
	require.NoError(t, err)

	l, _ := next.Layer("labels")
	size, _ := l.LayoutNumber("text-size")
	halo, _ := l.PaintNumber("text-halo-width")
	assert.Equal(t, 32.0, size)
	assert.InDelta(t, 4.0, halo, 1e-9)
}

func TestSetHaloWidthPercent_Clamps(t *testing.T) {
	d := mustParse(t, sample)
	next, err := d.SetHaloWidthPercent("labels", 150)
	require.NoError(t, err)
	l, _ := next.Layer("labels")
	halo, _ := l.PaintNumber("text-halo-width")
	assert.InDelta(t, 4.0, halo, 1e-9)
}

func TestSetColor(t *testing.T) {
	d := mustParse(t, sample)
	next, err := d.SetColor("roads", "#ff8000")
	require.NoError(t, err)
	l, _ := next.Layer("roads")
	assert.Equal(t, "rgba(255, 128, 0, 1)", l.Paint["line-color"])

	p, err := next.Properties("roads")
	require.NoError(t, err)
	assert.Equal(t, "#FF8000", p.Color)
}

func TestRGBAToHex(t *testing.T) {
	assert.Equal(t, "#FF8000", RGBAToHex("rgba(255, 128, 0, 0.5)"))
	assert.Equal(t, "#0A141E", RGBAToHex("rgb(10, 20, 30)"))
	assert.Equal(t, "#FFFFFF", RGBAToHex(""))
	assert.Equal(t, "#FFFFFF", RGBAToHex("rgba(300, 0, 0, 1)"))
	assert.Equal(t, "#FFFFFF", RGBAToHex("#123456"))
	assert.Equal(t, "#010203", RGBAToHex(" rgba(1, 2, 3, 1)"))
	assert.Equal(t, "#010203", RGBAToHex("color: rgb(1, 2, 3);"))
}

func TestHexToRGBA(t *testing.T) {
	assert.Equal(t, "rgba(18, 52, 86, 1)", HexToRGBA("#123456", 1))
	assert.Equal(t, "rgba(18, 52, 86, 0.25)", HexToRGBA("#123456", 0.25))
	assert.Equal(t, "rgba(18, 52, 86, 1)", HexToRGBA("#123456", 7))
	assert.Equal(t, "rgba(18, 52, 86, 0)", HexToRGBA("#123456", -1))
	assert.Equal(t, "rgba(0, 0, 0, 0.5)", HexToRGBA("123456", 0.5))
}

func TestParseColor(t *testing.T) {
	c, err := ParseColor("#f00")
	require.NoError(t, err)
	assert.Equal(t, 1.0, c.R)
	assert.Equal(t, 1.0, c.A)

	c, err = ParseColor("rgba(0, 255, 0, 0.5)")
	require.NoError(t, err)
	assert.Equal(t, 1.0, c.G)
	assert.Equal(t, 0.5, c.A)

	c, err = ParseColor("white")
	require.NoError(t, err)
	assert.Equal(t, 1.0, c.B)

	_, err = ParseColor("hsl(0, 100%, 50%)")
	assert.Error(t, err)
}

func TestMatches(t *testing.T) {
	l := Layer{ID: "x", Filter: []byte(`["all", ["==", "kind", "road"], ["!in", "class", "path", "track"]]`)}

	ok, err := l.Matches(map[string]any{"kind": "road", "class": "primary"})
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = l.Matches(map[string]any{"kind": "road", "class": "track"})
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = Layer{}.Matches(nil)
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = Layer{Filter: []byte(`["~=", "a", 1]`)}.Matches(nil)
	assert.Error(t, err)
}
