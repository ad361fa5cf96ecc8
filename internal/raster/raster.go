// Package raster holds the immutable pixel grid that flows through the export
// pipeline.
//
// A Raster is straight-alpha RGBA. Every accessor that exposes pixel memory
// returns a copy, so a Raster can be shared freely between goroutines.
package raster

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg"
	"image/png"

	"golang.org/x/image/draw"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

// ErrEmpty is returned when a Raster with no pixels is encoded or decoded.
var ErrEmpty = errors.New("raster: empty image")

// Raster is an immutable width x height grid of NRGBA pixels.
type Raster struct {
	img *image.NRGBA
}

// New returns a width x height Raster filled with c.
func New(width, height int, c color.NRGBA) Raster {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i+0] = c.R
		img.Pix[i+1] = c.G
		img.Pix[i+2] = c.B
		img.Pix[i+3] = c.A
	}
	return Raster{img: img}
}

// FromImage copies img into a new Raster whose origin is (0, 0).
func FromImage(img image.Image) Raster {
	b := img.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	if src, ok := img.(*image.NRGBA); ok {
		for y := 0; y < b.Dy(); y++ {
			so := src.PixOffset(b.Min.X, b.Min.Y+y)
			copy(dst.Pix[y*dst.Stride:y*dst.Stride+b.Dx()*4], src.Pix[so:so+b.Dx()*4])
		}
		return Raster{img: dst}
	}
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return Raster{img: dst}
}

// FromPix wraps an NRGBA pixel buffer without copying. The caller must not
// retain pix.
func FromPix(width, height int, pix []uint8) (Raster, error) {
	if len(pix) != width*height*4 {
		return Raster{}, fmt.Errorf("raster: pixel buffer is %d bytes, want %d", len(pix), width*height*4)
	}
	return Raster{img: &image.NRGBA{
		Pix:    pix,
		Stride: width * 4,
		Rect:   image.Rect(0, 0, width, height),
	}}, nil
}

// Decode decodes a PNG, JPEG, WebP or BMP encoded frame.
func Decode(data []byte) (Raster, error) {
	if len(data) == 0 {
		return Raster{}, ErrEmpty
	}
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return Raster{}, fmt.Errorf("raster: decoding frame: %w", err)
	}
	if img.Bounds().Empty() {
		return Raster{}, fmt.Errorf("raster: decoded %s frame: %w", format, ErrEmpty)
	}
	return FromImage(img), nil
}

// Width returns the width in pixels.
func (r Raster) Width() int {
	if r.img == nil {
		return 0
	}
	return r.img.Rect.Dx()
}

// Height returns the height in pixels.
func (r Raster) Height() int {
	if r.img == nil {
		return 0
	}
	return r.img.Rect.Dy()
}

// Empty reports whether the raster has no pixels.
func (r Raster) Empty() bool {
	return r.Width() == 0 || r.Height() == 0
}

// Bounds returns the pixel rectangle, always anchored at (0, 0).
func (r Raster) Bounds() image.Rectangle {
	return image.Rect(0, 0, r.Width(), r.Height())
}

// At returns the pixel at (x, y). Out of range reads are transparent.
func (r Raster) At(x, y int) color.NRGBA {
	if r.img == nil || !(image.Point{X: x, Y: y}).In(r.img.Rect) {
		return color.NRGBA{}
	}
	return r.img.NRGBAAt(x, y)
}

// Pix returns a copy of the NRGBA pixel data, row-major, 4 bytes per pixel.
func (r Raster) Pix() []uint8 {
	if r.img == nil {
		return nil
	}
	out := make([]uint8, len(r.img.Pix))
	copy(out, r.img.Pix)
	return out
}

// Image returns a copy of the raster as an *image.NRGBA.
func (r Raster) Image() *image.NRGBA {
	img := image.NewNRGBA(r.Bounds())
	if r.img != nil {
		copy(img.Pix, r.img.Pix)
	}
	return img
}

// Equal reports whether both rasters have the same size and pixels.
func (r Raster) Equal(o Raster) bool {
	if r.Width() != o.Width() || r.Height() != o.Height() {
		return false
	}
	if r.img == nil || o.img == nil {
		return r.img == o.img
	}
	return bytes.Equal(r.img.Pix, o.img.Pix)
}

// EncodePNG returns the PNG encoding of the raster.
func (r Raster) EncodePNG() ([]byte, error) {
	if r.Empty() {
		return nil, ErrEmpty
	}
	var buf bytes.Buffer
	enc := png.Encoder{CompressionLevel: png.DefaultCompression}
	if err := enc.Encode(&buf, r.img); err != nil {
		return nil, fmt.Errorf("raster: encoding png: %w", err)
	}
	return buf.Bytes(), nil
}

// DataURI formats PNG bytes as a data: URI suitable for an <img> src.
func DataURI(pngData []byte) string {
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(pngData)
}
