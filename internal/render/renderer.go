// Package render draws style documents in software and serves as the render
// source of the export pipeline.
package render

import (
	"context"
	"errors"
	"sync"

	"github.com/paulmach/orb"
	"github.com/sirupsen/logrus"

	"github.com/joeblew999/plat-style/internal/export"
	"github.com/joeblew999/plat-style/internal/style"
)

// ErrNoFrame is returned by Snapshot before the first frame is drawn.
var ErrNoFrame = errors.New("render: no frame drawn yet")

// Renderer redraws the current style whenever a repaint is requested. Run
// must be running for frames to be produced.
type Renderer struct {
	res     SourceResolver
	log     *logrus.Entry
	repaint chan struct{}

	mu      sync.Mutex
	doc     *style.Document
	width   int
	height  int
	vp      Viewport
	frame   []byte
	stats   Stats
	frames  uint64
	waiters []*export.Future[struct{}]
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithSources sets the resolver for style sources.
func WithSources(res SourceResolver) Option {
	return func(r *Renderer) { r.res = res }
}

// WithLogger sets the logger.
func WithLogger(l *logrus.Entry) Option {
	return func(r *Renderer) { r.log = l }
}

// New creates a renderer for a width x height canvas.
func New(width, height int, opts ...Option) *Renderer {
	r := &Renderer{
		res:     InlineSources{},
		log:     logrus.WithField("component", "render"),
		repaint: make(chan struct{}, 1),
		width:   width,
		height:  height,
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

var _ export.RenderSource = (*Renderer)(nil)

// SetStyle replaces the drawn document and requests a repaint.
func (r *Renderer) SetStyle(doc *style.Document) {
	r.mu.Lock()
	r.doc = doc
	r.mu.Unlock()
	r.TriggerRepaint()
}

// SetSize changes the canvas size and requests a repaint.
func (r *Renderer) SetSize(width, height int) {
	r.mu.Lock()
	r.width, r.height = width, height
	r.mu.Unlock()
	r.TriggerRepaint()
}

// TriggerRepaint queues a frame. Requests made while one is queued coalesce.
func (r *Renderer) TriggerRepaint() {
	select {
	case r.repaint <- struct{}{}:
	default:
	}
}

// OnceIdle returns a future resolved after the next frame that finishes
// with no repaint queued.
func (r *Renderer) OnceIdle() *export.Future[struct{}] {
	f := export.NewFuture[struct{}]()
	r.mu.Lock()
	r.waiters = append(r.waiters, f)
	r.mu.Unlock()
	return f
}

// Snapshot returns the last completed frame as PNG.
func (r *Renderer) Snapshot() (export.Snapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.frame == nil {
		return export.Snapshot{}, ErrNoFrame
	}
	return export.Snapshot{Width: r.vp.Width, Height: r.vp.Height, Data: r.frame}, nil
}

// Viewport returns the viewport of the last frame.
func (r *Renderer) Viewport() Viewport {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.vp
}

// Frames returns how many frames have been drawn.
func (r *Renderer) Frames() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.frames
}

// Run services repaint requests until ctx is done. Pending idle
// subscriptions are cancelled on return.
func (r *Renderer) Run(ctx context.Context) error {
	r.log.Info("renderer started")
	defer func() {
		r.mu.Lock()
		for _, w := range r.waiters {
			w.Cancel()
		}
		r.waiters = nil
		r.mu.Unlock()
		r.log.Info("renderer stopped")
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-r.repaint:
			r.drawFrame()
		}
	}
}

func (r *Renderer) drawFrame() {
	r.mu.Lock()
	doc, w, h := r.doc, r.width, r.height
	waiting := r.waiters
	r.waiters = nil
	r.mu.Unlock()

	if doc == nil {
		doc = style.Default()
	}
	vp := ViewportFor(doc, w, h, r.res)
	data, stats, err := Draw(doc, vp, r.res, r.log)
	if err != nil {
		r.log.WithError(err).Error("frame failed")
	}

	r.mu.Lock()
	if err == nil {
		r.frame, r.stats, r.vp = data, stats, vp
		r.frames++
	}
	idle := len(r.repaint) == 0
	if !idle {
		r.waiters = append(waiting, r.waiters...)
	}
	r.mu.Unlock()

	r.log.WithFields(logrus.Fields{
		"layers":   stats.Layers,
		"features": stats.Features,
		"idle":     idle,
	}).Debug("frame drawn")

	if idle {
		for _, f := range waiting {
			f.Resolve(struct{}{})
		}
	}
}

// ViewportFor centres on the document's center and zoom, or fits all of
// its resolvable features when it has none.
func ViewportFor(doc *style.Document, width, height int, res SourceResolver) Viewport {
	if len(doc.Center) == 2 {
		z := DefaultZoom
		if doc.Zoom != nil {
			z = *doc.Zoom
		}
		return Viewport{Center: orb.Point{doc.Center[0], doc.Center[1]}, Zoom: z, Width: width, Height: height}
	}

	var b orb.Bound
	found := false
	for name, src := range doc.Sources {
		fc, err := res.FeatureCollection(name, src)
		if err != nil {
			continue
		}
		for _, f := range fc.Features {
			if f.Geometry == nil {
				continue
			}
			if !found {
				b, found = f.Geometry.Bound(), true
			} else {
				b = b.Union(f.Geometry.Bound())
			}
		}
	}
	if !found {
		return Viewport{Center: DefaultCenter, Zoom: DefaultZoom, Width: width, Height: height}
	}
	return FitBound(b, width, height)
}
