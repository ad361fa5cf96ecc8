package effect

import (
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEffect(t *testing.T) {
	for _, e := range Effects {
		got, err := ParseEffect(string(e))
		require.NoError(t, err)
		assert.Equal(t, e, got)
		assert.NotEmpty(t, Labels[e])
	}
	got, err := ParseEffect("")
	require.NoError(t, err)
	assert.Equal(t, None, got)

	_, err = ParseEffect("blur")
	assert.Error(t, err)
}

func TestNone_IsIdentity(t *testing.T) {
	f := For(None)
	assert.True(t, f.IsIdentity())
	c := color.NRGBA{R: 12, G: 34, B: 56, A: 78}
	assert.Equal(t, c, f.Apply(c))
}

func TestInvert(t *testing.T) {
	got := For(Invert).Apply(color.NRGBA{R: 255, A: 255})
	assert.Equal(t, color.NRGBA{G: 255, B: 255, A: 255}, got)

	got = For(Invert).Apply(color.NRGBA{R: 100, G: 0, B: 255, A: 40})
	assert.Equal(t, color.NRGBA{R: 155, G: 255, B: 0, A: 40}, got)
}

func TestGrayscale(t *testing.T) {
	got := For(Grayscale).Apply(color.NRGBA{R: 255, A: 255})
	// 0.2126 * 255 = 54.2
	assert.Equal(t, color.NRGBA{R: 54, G: 54, B: 54, A: 255}, got)

	white := color.NRGBA{R: 255, G: 255, B: 255, A: 255}
	assert.Equal(t, white, For(Grayscale).Apply(white))
}

func TestSepia_ClampsWhite(t *testing.T) {
	got := For(Sepia).Apply(color.NRGBA{R: 255, G: 255, B: 255, A: 200})
	// Row sums: 1.351, 1.203, 0.937.
	assert.Equal(t, color.NRGBA{R: 255, G: 255, B: 239, A: 200}, got)
}

func TestVintage_KeepsAlphaAndWarms(t *testing.T) {
	in := color.NRGBA{R: 90, G: 120, B: 160, A: 128}
	got := For(Vintage).Apply(in)
	assert.Equal(t, uint8(128), got.A)
	assert.Greater(t, int(got.R)-int(got.B), int(in.R)-int(in.B), "sepia shifts toward red")
	assert.Len(t, For(Vintage).Ops, 3)
}

func TestSaturateOne_IsNoop(t *testing.T) {
	f := Filter{Ops: []Op{{OpSaturate, 1}}}
	c := color.NRGBA{R: 10, G: 200, B: 90, A: 255}
	assert.Equal(t, c, f.Apply(c))
}

func TestContrast(t *testing.T) {
	f := Filter{Ops: []Op{{OpContrast, 2}}}
	got := f.Apply(color.NRGBA{R: 0, G: 128, B: 255, A: 255})
	assert.Equal(t, uint8(0), got.R)
	assert.Equal(t, uint8(255), got.B)
	assert.InDelta(t, 129, int(got.G), 1)
}
