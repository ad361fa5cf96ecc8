// Package compositor draws a captured raster through a colour effect and a
// frame mask onto a fresh working surface.
package compositor

import (
	"errors"
	"fmt"
	"image"
	"image/color"

	"github.com/gogpu/gg"
	"github.com/sirupsen/logrus"

	"github.com/joeblew999/plat-style/internal/effect"
	"github.com/joeblew999/plat-style/internal/mask"
	"github.com/joeblew999/plat-style/internal/raster"
)

// ErrRenderingUnavailable is returned when no working surface can be allocated.
var ErrRenderingUnavailable = errors.New("rendering unavailable")

// MaxSurfacePixels caps the area of a working surface.
const MaxSurfacePixels = 1 << 26

// Allocator returns a cleared working surface of the given size.
type Allocator func(width, height int) (*Surface, error)

// DefaultAllocator allocates an in-memory surface.
func DefaultAllocator(width, height int) (*Surface, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d surface", ErrRenderingUnavailable, width, height)
	}
	if width > MaxSurfacePixels/height {
		return nil, fmt.Errorf("%w: %dx%d exceeds %d pixels", ErrRenderingUnavailable, width, height, MaxSurfacePixels)
	}
	return &Surface{img: image.NewNRGBA(image.Rect(0, 0, width, height))}, nil
}

// Compositor turns a raster into a framed, filtered copy.
type Compositor struct {
	alloc Allocator
	log   *logrus.Entry
}

// Option configures a Compositor.
type Option func(*Compositor)

// WithAllocator replaces the surface allocator.
func WithAllocator(a Allocator) Option {
	return func(c *Compositor) { c.alloc = a }
}

// WithLogger sets the logger used for failures.
func WithLogger(l *logrus.Entry) Option {
	return func(c *Compositor) { c.log = l }
}

// New creates a Compositor.
func New(opts ...Option) *Compositor {
	c := &Compositor{
		alloc: DefaultAllocator,
		log:   logrus.WithField("component", "compositor"),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Process draws r with the effect applied and then keeps only what the frame
// mask covers. The input is never modified.
func (c *Compositor) Process(r raster.Raster, e effect.Effect, frame mask.FrameStyle) (raster.Raster, error) {
	w, h := r.Width(), r.Height()
	s, err := c.alloc(w, h)
	if err != nil {
		c.log.WithFields(logrus.Fields{"width": w, "height": h}).WithError(err).Warn("surface allocation failed")
		if !errors.Is(err, ErrRenderingUnavailable) {
			err = fmt.Errorf("%w: %v", ErrRenderingUnavailable, err)
		}
		return raster.Raster{}, err
	}

	s.Clear()
	s.Draw(r, effect.For(e))

	if frame != mask.None {
		d := mask.Build(frame, w, h)
		if m := d.Rasterize(); m != nil {
			s.DestinationIn(m)
		}
	}

	c.log.WithFields(logrus.Fields{
		"width":  w,
		"height": h,
		"effect": e,
		"frame":  frame,
	}).Debug("composited")
	return s.Raster(), nil
}

// Surface is a straight-alpha working buffer.
type Surface struct {
	img *image.NRGBA
}

// Width of the surface in pixels.
func (s *Surface) Width() int { return s.img.Rect.Dx() }

// Height of the surface in pixels.
func (s *Surface) Height() int { return s.img.Rect.Dy() }

// Clear makes every pixel transparent.
func (s *Surface) Clear() {
	clear(s.img.Pix)
}

// Draw copies r onto the surface at the origin through f. The filter applies
// to this call only.
func (s *Surface) Draw(r raster.Raster, f effect.Filter) {
	src := r.Image()
	b := s.img.Rect.Intersect(src.Rect)
	if f.IsIdentity() {
		for y := b.Min.Y; y < b.Max.Y; y++ {
			copy(s.img.Pix[s.img.PixOffset(0, y):s.img.PixOffset(b.Max.X, y)], src.Pix[src.PixOffset(0, y):src.PixOffset(b.Max.X, y)])
		}
		return
	}
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			s.img.SetNRGBA(x, y, f.Apply(src.NRGBAAt(x, y)))
		}
	}
}

// DestinationIn scales each pixel's alpha by the mask coverage at that pixel.
// Pixels outside the mask become transparent.
func (s *Surface) DestinationIn(m *gg.Mask) {
	w, h := s.Width(), s.Height()
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var cov uint8
			if x < m.Width() && y < m.Height() {
				cov = m.At(x, y)
			}
			s.img.SetNRGBA(x, y, destinationIn(s.img.NRGBAAt(x, y), cov))
		}
	}
}

func destinationIn(c color.NRGBA, m uint8) color.NRGBA {
	a := uint8((uint32(c.A)*uint32(m) + 127) / 255)
	if a == 0 {
		return color.NRGBA{}
	}
	c.A = a
	return c
}

// Raster returns the surface contents as a new raster.
func (s *Surface) Raster() raster.Raster {
	return raster.FromImage(s.img)
}
