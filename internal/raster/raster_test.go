package raster

import (
	"image"
	"image/color"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Fill(t *testing.T) {
	r := New(3, 2, color.NRGBA{R: 10, G: 20, B: 30, A: 255})
	assert.Equal(t, 3, r.Width())
	assert.Equal(t, 2, r.Height())
	assert.Equal(t, color.NRGBA{R: 10, G: 20, B: 30, A: 255}, r.At(2, 1))
	assert.Equal(t, color.NRGBA{}, r.At(3, 0), "out of range reads are transparent")
}

func TestPix_ReturnsCopy(t *testing.T) {
	r := New(2, 2, color.NRGBA{R: 1, A: 255})
	pix := r.Pix()
	pix[0] = 99
	assert.Equal(t, uint8(1), r.At(0, 0).R)

	img := r.Image()
	img.Pix[0] = 42
	assert.Equal(t, uint8(1), r.At(0, 0).R)
}

func TestFromImage_OffsetOrigin(t *testing.T) {
	src := image.NewNRGBA(image.Rect(5, 5, 8, 7))
	src.SetNRGBA(5, 5, color.NRGBA{R: 200, A: 255})
	src.SetNRGBA(7, 6, color.NRGBA{B: 200, A: 128})

	r := FromImage(src)
	require.Equal(t, image.Rect(0, 0, 3, 2), r.Bounds())
	assert.Equal(t, color.NRGBA{R: 200, A: 255}, r.At(0, 0))
	assert.Equal(t, color.NRGBA{B: 200, A: 128}, r.At(2, 1))
}

func TestFromImage_ConvertsRGBA(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 1, 1))
	src.SetRGBA(0, 0, color.RGBA{G: 255, A: 255})
	r := FromImage(src)
	assert.Equal(t, color.NRGBA{G: 255, A: 255}, r.At(0, 0))
}

func TestFromPix_LengthMismatch(t *testing.T) {
	_, err := FromPix(2, 2, make([]uint8, 4))
	require.Error(t, err)

	r, err := FromPix(1, 1, []uint8{1, 2, 3, 4})
	require.NoError(t, err)
	assert.Equal(t, color.NRGBA{R: 1, G: 2, B: 3, A: 4}, r.At(0, 0))
}

func TestEncodeDecode(t *testing.T) {
	r := New(4, 3, color.NRGBA{R: 255, A: 255})
	data, err := r.EncodePNG()
	require.NoError(t, err)

	back, err := Decode(data)
	require.NoError(t, err)
	assert.True(t, r.Equal(back))
}

func TestDecode_Errors(t *testing.T) {
	_, err := Decode(nil)
	assert.ErrorIs(t, err, ErrEmpty)

	_, err = Decode([]byte("not an image"))
	assert.Error(t, err)
}

func TestEncodePNG_Empty(t *testing.T) {
	_, err := Raster{}.EncodePNG()
	assert.ErrorIs(t, err, ErrEmpty)
}

func TestEqual(t *testing.T) {
	a := New(2, 2, color.NRGBA{A: 255})
	b := New(2, 2, color.NRGBA{A: 255})
	c := New(2, 2, color.NRGBA{A: 254})
	d := New(2, 1, color.NRGBA{A: 255})

	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))
	assert.False(t, a.Equal(d))
	assert.True(t, Raster{}.Equal(Raster{}))
}

func TestDataURI(t *testing.T) {
	uri := DataURI([]byte{0x89, 'P', 'N', 'G'})
	assert.True(t, strings.HasPrefix(uri, "data:image/png;base64,"))
	assert.Equal(t, "data:image/png;base64,iVBORw==", uri)
}
