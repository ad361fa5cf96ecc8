package export

import (
	"context"
	"errors"
	"image/color"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joeblew999/plat-style/internal/compositor"
	"github.com/joeblew999/plat-style/internal/effect"
	"github.com/joeblew999/plat-style/internal/mask"
	"github.com/joeblew999/plat-style/internal/raster"
)

// fakeSource hands out idle futures and lets the test decide when they fire.
type fakeSource struct {
	mu       sync.Mutex
	subs     []*Future[struct{}]
	repaints int
	data     []byte
	w, h     int
	snapErr  error
	subbed   chan struct{}
}

func newFakeSource(t *testing.T, w, h int) *fakeSource {
	t.Helper()
	data, err := raster.New(w, h, color.NRGBA{R: 255, A: 255}).EncodePNG()
	require.NoError(t, err)
	return &fakeSource{data: data, w: w, h: h, subbed: make(chan struct{}, 16)}
}

func (f *fakeSource) OnceIdle() *Future[struct{}] {
	fut := NewFuture[struct{}]()
	f.mu.Lock()
	f.subs = append(f.subs, fut)
	f.mu.Unlock()
	f.subbed <- struct{}{}
	return fut
}

func (f *fakeSource) TriggerRepaint() {
	f.mu.Lock()
	f.repaints++
	f.mu.Unlock()
}

func (f *fakeSource) Snapshot() (Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.snapErr != nil {
		return Snapshot{}, f.snapErr
	}
	return Snapshot{Width: f.w, Height: f.h, Data: f.data}, nil
}

// idle fires every outstanding subscription.
func (f *fakeSource) idle() {
	f.mu.Lock()
	subs := f.subs
	f.subs = nil
	f.mu.Unlock()
	for _, s := range subs {
		s.Resolve(struct{}{})
	}
}

func (f *fakeSource) waitSubscribed(t *testing.T) {
	t.Helper()
	select {
	case <-f.subbed:
	case <-time.After(2 * time.Second):
		t.Fatal("no idle subscription")
	}
}

type outcome struct {
	res *Result
	err error
}

func generateAsync(c *Controller, frame mask.FrameStyle, e effect.Effect) <-chan outcome {
	ch := make(chan outcome, 1)
	go func() {
		res, err := c.Generate(context.Background(), frame, e)
		ch <- outcome{res, err}
	}()
	return ch
}

func TestGenerate_Ready(t *testing.T) {
	src := newFakeSource(t, 100, 100)
	var states []State
	var mu sync.Mutex
	c := New(src, nil, WithObserver(func(ev Event) {
		mu.Lock()
		states = append(states, ev.State)
		mu.Unlock()
	}))

	done := generateAsync(c, mask.None, effect.Invert)
	src.waitSubscribed(t)
	assert.Equal(t, StateWaiting, c.State())
	src.idle()

	out := <-done
	require.NoError(t, out.err)
	assert.Equal(t, StateReady, c.State())
	assert.Equal(t, 1, src.repaints, "a repaint is forced so idle fires")
	assert.Equal(t, "map-export-none-invert.png", out.res.Filename())
	assert.NotEmpty(t, out.res.ID)

	r, err := raster.Decode(out.res.PNG)
	require.NoError(t, err)
	assert.True(t, raster.New(100, 100, color.NRGBA{G: 255, B: 255, A: 255}).Equal(r))

	dl, err := c.Download()
	require.NoError(t, err)
	assert.Equal(t, "map-export-none-invert.png", dl.Filename)
	assert.Equal(t, "image/png", dl.ContentType)

	mu.Lock()
	assert.Equal(t, []State{StateWaiting, StateCapturing, StateComposing, StateReady}, states)
	mu.Unlock()
}

func TestDownload_BeforeReadyIsRejected(t *testing.T) {
	src := newFakeSource(t, 50, 50)
	c := New(src, nil)

	_, err := c.Download()
	assert.ErrorIs(t, err, ErrNotReady)

	done := generateAsync(c, mask.Circle, effect.None)
	src.waitSubscribed(t)
	_, err = c.Download()
	assert.ErrorIs(t, err, ErrNotReady, "still waiting for idle")

	src.idle()
	require.NoError(t, (<-done).err)
	dl, err := c.Download()
	require.NoError(t, err)
	assert.Equal(t, "map-export-circle-none.png", dl.Filename)
}

func TestGenerate_RapidCallsKeepOnlyTheLast(t *testing.T) {
	src := newFakeSource(t, 60, 60)
	c := New(src, nil)

	first := generateAsync(c, mask.Circle, effect.None)
	src.waitSubscribed(t)
	second := generateAsync(c, mask.Hexagon, effect.Sepia)
	src.waitSubscribed(t)
	src.idle()

	a, b := <-first, <-second
	assert.ErrorIs(t, a.err, ErrSuperseded)
	assert.Nil(t, a.res)
	require.NoError(t, b.err)

	cur := c.Current()
	require.NotNil(t, cur)
	assert.Equal(t, mask.Hexagon, cur.Frame)
	assert.Equal(t, effect.Sepia, cur.Effect)
}

func TestGenerate_ProgressOnlySeesItsOwnCall(t *testing.T) {
	src := newFakeSource(t, 40, 40)
	c := New(src, nil)

	var mu sync.Mutex
	seen := map[string][]Event{}
	collect := func(name string) context.Context {
		return WithProgress(context.Background(), func(ev Event) {
			mu.Lock()
			seen[name] = append(seen[name], ev)
			mu.Unlock()
		})
	}

	first := make(chan error, 1)
	go func() {
		_, err := c.Generate(collect("first"), mask.Circle, effect.None)
		first <- err
	}()
	src.waitSubscribed(t)
	second := make(chan error, 1)
	go func() {
		_, err := c.Generate(collect("second"), mask.Diamond, effect.Grayscale)
		second <- err
	}()
	src.waitSubscribed(t)
	src.idle()

	assert.ErrorIs(t, <-first, ErrSuperseded)
	require.NoError(t, <-second)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, seen["first"], 1)
	assert.Equal(t, StateWaiting, seen["first"][0].State)
	assert.Equal(t, mask.Circle, seen["first"][0].Frame)

	var states []State
	for _, ev := range seen["second"] {
		assert.Equal(t, mask.Diamond, ev.Frame)
		assert.Equal(t, effect.Grayscale, ev.Effect)
		assert.Equal(t, uint64(2), ev.Generation)
		states = append(states, ev.State)
	}
	assert.Equal(t, []State{StateWaiting, StateCapturing, StateComposing, StateReady}, states)
}

func TestGenerate_NoSource(t *testing.T) {
	c := New(nil, nil)
	_, err := c.Generate(context.Background(), mask.Circle, effect.None)
	assert.ErrorIs(t, err, ErrSourceNotReady)
	assert.Equal(t, StateIdle, c.State())
}

func TestGenerate_DecodeFailureKeepsPrevious(t *testing.T) {
	src := newFakeSource(t, 40, 40)
	c := New(src, nil)

	done := generateAsync(c, mask.Square, effect.None)
	src.waitSubscribed(t)
	src.idle()
	prev := (<-done).res
	require.NotNil(t, prev)

	src.mu.Lock()
	src.data = []byte("garbage")
	src.mu.Unlock()

	done = generateAsync(c, mask.Circle, effect.Grayscale)
	src.waitSubscribed(t)
	src.idle()
	out := <-done
	assert.ErrorIs(t, out.err, ErrDecode)
	assert.Equal(t, StateFailed, c.State())
	assert.Same(t, prev, c.Current())

	_, err := c.Download()
	assert.ErrorIs(t, err, ErrNotReady)
}

func TestGenerate_SnapshotError(t *testing.T) {
	src := newFakeSource(t, 10, 10)
	src.snapErr = errors.New("canvas lost")
	c := New(src, nil)

	done := generateAsync(c, mask.None, effect.None)
	src.waitSubscribed(t)
	src.idle()
	out := <-done
	require.Error(t, out.err)
	assert.Equal(t, StateFailed, c.State())
}

func TestGenerate_CompositorUnavailable(t *testing.T) {
	src := newFakeSource(t, 10, 10)
	comp := compositor.New(compositor.WithAllocator(func(int, int) (*compositor.Surface, error) {
		return nil, compositor.ErrRenderingUnavailable
	}))
	c := New(src, comp)

	done := generateAsync(c, mask.Circle, effect.None)
	src.waitSubscribed(t)
	src.idle()
	out := <-done
	assert.ErrorIs(t, out.err, compositor.ErrRenderingUnavailable)
	assert.Nil(t, c.Current())
}

func TestGenerate_ContextCancelled(t *testing.T) {
	src := newFakeSource(t, 10, 10)
	c := New(src, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := c.Generate(ctx, mask.None, effect.None)
		done <- err
	}()
	src.waitSubscribed(t)
	cancel()

	err := <-done
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, StateFailed, c.State())
}

func TestFuture(t *testing.T) {
	f := NewFuture[int]()
	assert.False(t, f.Settled())
	assert.True(t, f.Resolve(7))
	assert.False(t, f.Cancel(), "first settle wins")

	v, err := f.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 7, v)

	g := NewFuture[int]()
	g.Cancel()
	_, err = g.Wait(context.Background())
	assert.ErrorIs(t, err, ErrCancelled)
}
