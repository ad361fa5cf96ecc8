// Package export captures a frame from the render source, runs it through the
// compositor and keeps the single current export for download.
package export

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/sirupsen/logrus"

	"github.com/joeblew999/plat-style/internal/compositor"
	"github.com/joeblew999/plat-style/internal/effect"
	"github.com/joeblew999/plat-style/internal/mask"
	"github.com/joeblew999/plat-style/internal/raster"
)

var (
	// ErrSourceNotReady is returned by Generate when no render source is set.
	ErrSourceNotReady = errors.New("export: render source not ready")
	// ErrNotReady is returned by Download when no finished export is current.
	ErrNotReady = errors.New("export: no export ready")
	// ErrSuperseded is returned by a Generate call overtaken by a newer one.
	ErrSuperseded = errors.New("export: superseded by a newer export")
	// ErrDecode is returned when the captured frame cannot be decoded.
	ErrDecode = errors.New("export: captured frame could not be decoded")
)

// State is the phase of the export in flight.
type State string

const (
	StateIdle      State = "idle"
	StateWaiting   State = "waitingForIdleRender"
	StateCapturing State = "capturing"
	StateComposing State = "compositing"
	StateReady     State = "ready"
	StateFailed    State = "failed"
)

// Busy reports whether an export is in flight.
func (s State) Busy() bool {
	return s == StateWaiting || s == StateCapturing || s == StateComposing
}

// Event is reported to the observer on every state change.
type Event struct {
	Generation uint64
	State      State
	Frame      mask.FrameStyle
	Effect     effect.Effect
	Result     *Result
	Err        error
}

// Controller runs exports against one render source. It is safe for
// concurrent use; only the newest Generate call may publish a result.
type Controller struct {
	comp     *compositor.Compositor
	observer func(Event)
	now      func() time.Time
	log      *logrus.Entry

	mu      sync.Mutex
	source  RenderSource
	gen     uint64
	pending *Future[struct{}]
	state   State
	current *Result
}

// Option configures a Controller.
type Option func(*Controller)

// WithObserver registers a callback for state changes. It is called outside
// the controller's lock.
func WithObserver(fn func(Event)) Option {
	return func(c *Controller) { c.observer = fn }
}

// WithLogger sets the logger.
func WithLogger(l *logrus.Entry) Option {
	return func(c *Controller) { c.log = l }
}

// WithClock overrides time.Now for result timestamps.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

// New creates a controller. source may be nil and set later with SetSource;
// a nil comp uses the default compositor.
func New(source RenderSource, comp *compositor.Compositor, opts ...Option) *Controller {
	if comp == nil {
		comp = compositor.New()
	}
	c := &Controller{
		comp:   comp,
		now:    time.Now,
		log:    logrus.WithField("component", "export"),
		source: source,
		state:  StateIdle,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// SetSource replaces the render source. Any pending export is cancelled.
func (c *Controller) SetSource(src RenderSource) {
	c.mu.Lock()
	c.source = src
	c.gen++
	if c.pending != nil {
		c.pending.Cancel()
		c.pending = nil
	}
	if c.state.Busy() {
		c.state = StateIdle
	}
	c.mu.Unlock()
}

// State returns the current phase.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Current returns the current export, or nil.
func (c *Controller) Current() *Result {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// Download returns the current export as a PNG file. It fails with
// ErrNotReady unless the controller is Ready.
func (c *Controller) Download() (Download, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateReady || c.current == nil {
		return Download{}, fmt.Errorf("%w (state %s)", ErrNotReady, c.state)
	}
	return Download{
		Filename:    c.current.Filename(),
		ContentType: "image/png",
		Data:        c.current.PNG,
	}, nil
}

// Generate waits for the source to go idle, captures its frame and
// composites it with the frame mask and effect. A later Generate call
// supersedes this one: its idle wait is cancelled and its result is dropped.
func (c *Controller) Generate(ctx context.Context, frame mask.FrameStyle, e effect.Effect) (*Result, error) {
	c.mu.Lock()
	src := c.source
	if src == nil {
		c.mu.Unlock()
		c.log.Debug("generate without render source")
		return nil, ErrSourceNotReady
	}
	c.gen++
	gen := c.gen
	if c.pending != nil {
		c.pending.Cancel()
	}
	idle := src.OnceIdle()
	c.pending = idle
	ev := c.transition(gen, StateWaiting, frame, e, nil, nil)
	c.mu.Unlock()
	c.notify(ctx, ev)

	log := c.log.WithFields(logrus.Fields{"generation": gen, "frame": frame, "effect": e})
	log.Debug("waiting for idle render")

	src.TriggerRepaint()
	if _, err := idle.Wait(ctx); err != nil {
		if errors.Is(err, ErrCancelled) {
			return nil, ErrSuperseded
		}
		return nil, c.fail(ctx, gen, frame, e, fmt.Errorf("export: waiting for idle render: %w", err), log)
	}

	if !c.advance(ctx, gen, StateCapturing, frame, e) {
		return nil, ErrSuperseded
	}
	snap, err := src.Snapshot()
	if err != nil {
		return nil, c.fail(ctx, gen, frame, e, fmt.Errorf("export: capturing frame: %w", err), log)
	}
	r, err := raster.Decode(snap.Data)
	if err != nil {
		return nil, c.fail(ctx, gen, frame, e, fmt.Errorf("%w: %v", ErrDecode, err), log)
	}
	if snap.Width > 0 && snap.Height > 0 && (r.Width() != snap.Width || r.Height() != snap.Height) {
		err := fmt.Errorf("%w: frame is %dx%d, source reported %dx%d", ErrDecode, r.Width(), r.Height(), snap.Width, snap.Height)
		return nil, c.fail(ctx, gen, frame, e, err, log)
	}

	if !c.advance(ctx, gen, StateComposing, frame, e) {
		return nil, ErrSuperseded
	}
	out, err := c.comp.Process(r, e, frame)
	if err != nil {
		return nil, c.fail(ctx, gen, frame, e, err, log)
	}
	data, err := out.EncodePNG()
	if err != nil {
		return nil, c.fail(ctx, gen, frame, e, fmt.Errorf("export: encoding result: %w", err), log)
	}

	res := &Result{
		ID:        ulid.Make().String(),
		Frame:     frame,
		Effect:    e,
		Width:     out.Width(),
		Height:    out.Height(),
		PNG:       data,
		CreatedAt: c.now().UTC(),
	}

	c.mu.Lock()
	if gen != c.gen {
		c.mu.Unlock()
		log.Debug("discarding stale export")
		return nil, ErrSuperseded
	}
	c.current = res
	ev = c.transition(gen, StateReady, frame, e, res, nil)
	c.mu.Unlock()
	c.notify(ctx, ev)

	log.WithFields(logrus.Fields{"id": res.ID, "bytes": len(data)}).Info("export ready")
	return res, nil
}

// advance moves to the next phase if gen is still the newest generation.
func (c *Controller) advance(ctx context.Context, gen uint64, s State, frame mask.FrameStyle, e effect.Effect) bool {
	c.mu.Lock()
	if gen != c.gen {
		c.mu.Unlock()
		return false
	}
	if s != StateWaiting {
		c.pending = nil
	}
	ev := c.transition(gen, s, frame, e, nil, nil)
	c.mu.Unlock()
	c.notify(ctx, ev)
	return true
}

// fail records err as the outcome of gen. The previous result stays current.
func (c *Controller) fail(ctx context.Context, gen uint64, frame mask.FrameStyle, e effect.Effect, err error, log *logrus.Entry) error {
	c.mu.Lock()
	if gen != c.gen {
		c.mu.Unlock()
		return ErrSuperseded
	}
	if c.pending != nil {
		c.pending.Cancel()
		c.pending = nil
	}
	ev := c.transition(gen, StateFailed, frame, e, nil, err)
	c.mu.Unlock()
	c.notify(ctx, ev)

	log.WithError(err).Warn("export failed")
	return err
}

// transition must be called with mu held.
func (c *Controller) transition(gen uint64, s State, frame mask.FrameStyle, e effect.Effect, res *Result, err error) Event {
	c.state = s
	return Event{Generation: gen, State: s, Frame: frame, Effect: e, Result: res, Err: err}
}

func (c *Controller) notify(ctx context.Context, ev Event) {
	if c.observer != nil {
		c.observer(ev)
	}
	if fn, ok := ctx.Value(progressKey{}).(func(Event)); ok {
		fn(ev)
	}
}

type progressKey struct{}

// WithProgress returns a context that makes Generate report the state
// changes of that one call to fn, in addition to the observer.
func WithProgress(ctx context.Context, fn func(Event)) context.Context {
	return context.WithValue(ctx, progressKey{}, fn)
}
