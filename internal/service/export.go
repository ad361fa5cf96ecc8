package service

import (
	"context"
	"errors"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/joeblew999/plat-style/internal/db"
	"github.com/joeblew999/plat-style/internal/effect"
	"github.com/joeblew999/plat-style/internal/export"
	"github.com/joeblew999/plat-style/internal/mask"
	"github.com/joeblew999/plat-style/internal/render"
)

// HistoryStore records finished exports.
type HistoryStore interface {
	Record(ctx context.Context, r db.ExportRecord) error
	List(ctx context.Context, offset, limit int) ([]db.ExportRecord, error)
	Count(ctx context.Context) (int, error)
}

// ExportService runs exports of the rendered map and keeps their history.
type ExportService struct {
	ctrl     *export.Controller
	renderer *render.Renderer
	history  HistoryStore
	bus      *EventBus
	log      *logrus.Entry

	mu   sync.RWMutex
	last export.Event
}

// NewExportService creates an export service capturing frames from renderer.
// history may be nil.
func NewExportService(renderer *render.Renderer, history HistoryStore, bus *EventBus) *ExportService {
	if bus == nil {
		bus = DefaultBus
	}
	s := &ExportService{
		renderer: renderer,
		history:  history,
		bus:      bus,
		log:      logrus.WithField("component", "exports"),
		last:     export.Event{State: export.StateIdle},
	}
	var src export.RenderSource
	if renderer != nil {
		src = renderer
	}
	s.ctrl = export.New(src, nil, export.WithObserver(s.observe))
	return s
}

// Options returns the frame styles and effects an export can use.
func (s *ExportService) Options() ExportOptions {
	opts := ExportOptions{Frames: []Option{}, Effects: []Option{}}
	for _, f := range mask.Styles {
		opts.Frames = append(opts.Frames, Option{Value: string(f), Label: mask.Labels[f]})
	}
	for _, e := range effect.Effects {
		opts.Effects = append(opts.Effects, Option{Value: string(e), Label: effect.Labels[e]})
	}
	if s.renderer != nil {
		vp := s.renderer.Viewport()
		opts.Width, opts.Height = vp.Width, vp.Height
	}
	return opts
}

// Generate exports the current map with a frame style and effect. The
// finished export is recorded in the history; a history failure is logged
// and does not fail the export.
func (s *ExportService) Generate(ctx context.Context, frame mask.FrameStyle, e effect.Effect) (*export.Result, error) {
	res, err := s.ctrl.Generate(ctx, frame, e)
	if err != nil {
		return nil, err
	}
	if s.history != nil {
		rec := db.ExportRecord{
			ID:        res.ID,
			Frame:     string(res.Frame),
			Effect:    string(res.Effect),
			Width:     res.Width,
			Height:    res.Height,
			Bytes:     len(res.PNG),
			Filename:  res.Filename(),
			CreatedAt: res.CreatedAt,
		}
		if err := s.history.Record(ctx, rec); err != nil {
			s.log.WithError(err).WithField("id", res.ID).Warn("export not recorded")
		}
	}
	return res, nil
}

// Status returns the pipeline state and the current export.
func (s *ExportService) Status() ExportStatus {
	s.mu.RLock()
	last := s.last
	s.mu.RUnlock()

	st := ExportStatus{
		State:  string(s.ctrl.State()),
		Frame:  string(last.Frame),
		Effect: string(last.Effect),
	}
	if last.Err != nil && last.State == export.StateFailed {
		st.Error = last.Err.Error()
	}
	if cur := s.ctrl.Current(); cur != nil {
		st.Current = infoOf(cur)
	}
	return st
}

// Current returns the current export, or nil.
func (s *ExportService) Current() *export.Result {
	return s.ctrl.Current()
}

// Frame returns the last frame drawn by the renderer.
func (s *ExportService) Frame() (export.Snapshot, error) {
	if s.renderer == nil {
		return export.Snapshot{}, export.ErrSourceNotReady
	}
	return s.renderer.Snapshot()
}

// Download returns the current export as a file. It fails with
// export.ErrNotReady unless the last export finished.
func (s *ExportService) Download() (export.Download, error) {
	return s.ctrl.Download()
}

// History returns one page of exports, most recent first, and the total
// number recorded.
func (s *ExportService) History(ctx context.Context, offset, limit int) ([]db.ExportRecord, int, error) {
	if s.history == nil {
		return []db.ExportRecord{}, 0, nil
	}
	total, err := s.history.Count(ctx)
	if err != nil {
		return nil, 0, err
	}
	list, err := s.history.List(ctx, offset, limit)
	if err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

func (s *ExportService) observe(ev export.Event) {
	s.mu.Lock()
	s.last = ev
	s.mu.Unlock()

	out := Event{Resource: ResourceExport, Action: string(ev.State)}
	if ev.Result != nil {
		out.ID = ev.Result.ID
	}
	if ev.Err != nil && !errors.Is(ev.Err, export.ErrSuperseded) {
		out.Detail = ev.Err.Error()
	}
	s.bus.Publish(out)
}

func infoOf(r *export.Result) *ExportInfo {
	return &ExportInfo{
		ID:        r.ID,
		Frame:     string(r.Frame),
		Effect:    string(r.Effect),
		Width:     r.Width,
		Height:    r.Height,
		Bytes:     len(r.PNG),
		Filename:  r.Filename(),
		CreatedAt: r.CreatedAt,
	}
}
