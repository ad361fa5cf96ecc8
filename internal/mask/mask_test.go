package mask

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFrameStyle(t *testing.T) {
	for _, s := range Styles {
		got, err := ParseFrameStyle(string(s))
		require.NoError(t, err)
		assert.Equal(t, s, got)
		assert.NotEmpty(t, Labels[s], "label for %s", s)
	}

	got, err := ParseFrameStyle("")
	require.NoError(t, err)
	assert.Equal(t, None, got)

	_, err = ParseFrameStyle("octagon")
	assert.Error(t, err)
}

func TestBuild_BoundsWithinCanvas(t *testing.T) {
	sizes := [][2]int{{1, 1}, {20, 20}, {21, 21}, {200, 100}, {100, 200}, {220, 220}, {640, 480}}
	for _, style := range Styles {
		for _, sz := range sizes {
			t.Run(fmt.Sprintf("%s/%dx%d", style, sz[0], sz[1]), func(t *testing.T) {
				d := Build(style, sz[0], sz[1])
				if d.IsNone() {
					return
				}
				b := d.Bounds()
				assert.False(t, b.Empty())
				assert.True(t, b.Within(float64(sz[0]), float64(sz[1])), "bounds %+v", b)
			})
		}
	}
}

func TestBuild_NoneAndDegenerate(t *testing.T) {
	assert.True(t, Build(None, 100, 100).IsNone())
	assert.True(t, Build(Circle, 0, 100).IsNone())
	assert.True(t, Build(Square, 20, 20).IsNone(), "no room inside the padding")
	assert.True(t, Build(Circle, 20, 20).IsNone())
	assert.Nil(t, Build(None, 10, 10).Rasterize())
}

func TestRasterize_Circle(t *testing.T) {
	m := Build(Circle, 200, 200).Rasterize()
	require.NotNil(t, m)
	assert.Equal(t, 200, m.Width())
	assert.Equal(t, 200, m.Height())

	for _, c := range [][2]int{{0, 0}, {199, 0}, {0, 199}, {199, 199}} {
		assert.Equal(t, uint8(0), m.At(c[0], c[1]), "corner %v", c)
	}
	assert.Equal(t, uint8(255), m.At(100, 100))
	assert.Equal(t, uint8(0), m.At(5, 100), "inside padding")
}

func TestRasterize_Square(t *testing.T) {
	m := Build(Square, 220, 220).Rasterize()
	require.NotNil(t, m)
	assert.Equal(t, uint8(0), m.At(9, 110))
	assert.Equal(t, uint8(255), m.At(10, 110))
	assert.Equal(t, uint8(255), m.At(209, 209))
	assert.Equal(t, uint8(0), m.At(210, 110))
}

func TestRasterize_SquareFade(t *testing.T) {
	m := Build(SquareFade, 220, 220).Rasterize()
	require.NotNil(t, m)

	assert.Equal(t, uint8(255), m.At(110, 110), "centre is untouched")
	assert.Equal(t, uint8(0), m.At(10, 110), "outer column fully erased")
	assert.Equal(t, uint8(0), m.At(209, 110))
	assert.Equal(t, uint8(0), m.At(110, 10))
	assert.Equal(t, uint8(0), m.At(110, 209))

	mid := m.At(35, 110)
	assert.Greater(t, mid, uint8(0))
	assert.Less(t, mid, uint8(255))

	// Alpha rises monotonically into the band.
	prev := uint8(0)
	for x := 10; x <= 60; x++ {
		a := m.At(x, 110)
		assert.GreaterOrEqual(t, a, prev, "x=%d", x)
		prev = a
	}

	// Corners are erased by two strips.
	assert.Less(t, m.At(35, 35), mid)
}

func TestBuild_SquareFadeNeedsWholePixelBands(t *testing.T) {
	for _, size := range []int{21, 22, 23} {
		assert.True(t, Build(SquareFade, size, size).IsNone(), "size=%d", size)
	}

	m := Build(SquareFade, 24, 24).Rasterize()
	require.NotNil(t, m)
	assert.Equal(t, uint8(255), m.At(12, 12), "centre is untouched")
	assert.Equal(t, uint8(0), m.At(10, 10), "corner is erased")
	assert.Equal(t, uint8(0), m.At(13, 12))
	assert.Equal(t, uint8(0), m.At(12, 13))
}

func TestRasterize_Fade(t *testing.T) {
	m := Build(Fade, 200, 100).Rasterize()
	require.NotNil(t, m)
	assert.Greater(t, m.At(100, 50), uint8(250))
	assert.Equal(t, uint8(0), m.At(0, 0))
	assert.Equal(t, uint8(0), m.At(40, 50), "radius is half the short side")
	assert.Less(t, m.At(120, 50), m.At(100, 50))
}

func TestHexagonVertices(t *testing.T) {
	d := Build(Hexagon, 220, 220)
	require.Equal(t, KindPath, d.Kind)

	want := []Point{
		{110, 10},
		{196.6, 60},
		{196.6, 160},
		{110, 210},
		{23.4, 160},
		{23.4, 60},
	}
	got := d.Path.Vertices()
	require.GreaterOrEqual(t, len(got), 6)
	for i, w := range want {
		assert.InDelta(t, w.X, got[i].X, 0.05, "vertex %d x", i)
		assert.InDelta(t, w.Y, got[i].Y, 0.05, "vertex %d y", i)
	}
}

func TestDiamondAndRoundedSquare(t *testing.T) {
	m := Build(Diamond, 220, 220).Rasterize()
	require.NotNil(t, m)
	assert.Equal(t, uint8(255), m.At(110, 110))
	assert.Equal(t, uint8(0), m.At(20, 20))

	r := Build(RoundedSquare, 220, 220).Rasterize()
	require.NotNil(t, r)
	assert.Equal(t, uint8(0), r.At(10, 10), "corner is rounded off")
	assert.Equal(t, uint8(255), r.At(10, 110))
}
