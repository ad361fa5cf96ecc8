package editor

import (
	"context"
	"errors"

	"github.com/danielgtaylor/huma/v2"

	"github.com/joeblew999/plat-style/internal/db"
	"github.com/joeblew999/plat-style/internal/effect"
	"github.com/joeblew999/plat-style/internal/export"
	"github.com/joeblew999/plat-style/internal/humastar"
	"github.com/joeblew999/plat-style/internal/mask"
	"github.com/joeblew999/plat-style/internal/service"
)

var progress = map[export.State]int{
	export.StateWaiting:   25,
	export.StateCapturing: 50,
	export.StateComposing: 75,
	export.StateReady:     100,
}

type ExportHandler struct {
	humastar.Handler
	exports *service.ExportService
}

func NewExportHandler(exports *service.ExportService, renderer *humastar.Renderer) *ExportHandler {
	return &ExportHandler{Handler: humastar.Handler{Renderer: renderer}, exports: exports}
}

func (h *ExportHandler) RegisterRoutes(api huma.API) {
	huma.Get(api, "/api/v1/editor/export/options", h.Options, huma.OperationTags("editor"))
	huma.Post(api, "/api/v1/editor/export", h.Generate, huma.OperationTags("editor"))
	huma.Get(api, "/api/v1/editor/export/history", h.History, huma.OperationTags("editor"))
}

// Options fills the frame and effect selects of the export dialog.
func (h *ExportHandler) Options(ctx context.Context, input *humastar.EmptyInput) (*huma.StreamResponse, error) {
	opts := h.exports.Options()
	return h.Stream(func(sse humastar.SSE) {
		sse.Patch(h.RenderSelect("", selectOptions(opts.Frames, string(mask.None))), "#frame-select")
		sse.Patch(h.RenderSelect("", selectOptions(opts.Effects, string(effect.None))), "#effect-select")
		sse.Signals(map[string]any{"frame": string(mask.None), "effect": string(effect.None)})
	}), nil
}

// Generate runs an export with the frame and effect signals and streams the
// pipeline state of that run until it settles. Other runs are not relayed.
func (h *ExportHandler) Generate(ctx context.Context, input *humastar.SignalsInput) (*huma.StreamResponse, error) {
	signals, err := input.MustParse()
	if err != nil {
		return nil, err
	}
	frame, err := mask.ParseFrameStyle(orDefault(signals.String("frame"), string(mask.None)))
	if err != nil {
		return nil, huma.Error422UnprocessableEntity(err.Error())
	}
	e, err := effect.ParseEffect(orDefault(signals.String("effect"), string(effect.None)))
	if err != nil {
		return nil, huma.Error422UnprocessableEntity(err.Error())
	}

	return h.Stream(func(sse humastar.SSE) {
		// one event per phase, so the buffer never blocks the export
		ch := make(chan export.Event, 8)
		runCtx := export.WithProgress(ctx, func(ev export.Event) { ch <- ev })

		type outcome struct {
			res *export.Result
			err error
		}
		done := make(chan outcome, 1)
		go func() {
			res, err := h.exports.Generate(runCtx, frame, e)
			done <- outcome{res, err}
			close(ch)
		}()

		for ev := range ch {
			sse.Signals(map[string]any{
				"exportstate":    string(ev.State),
				"exportprogress": progress[ev.State],
			})
		}
		out := <-done
		h.finish(sse, out.res, out.err)
	}), nil
}

func (h *ExportHandler) finish(sse humastar.SSE, res *export.Result, err error) {
	switch {
	case errors.Is(err, export.ErrSuperseded):
		sse.Signals(map[string]any{"exportstate": string(export.StateIdle), "exportprogress": 0})
		return
	case err != nil:
		sse.Signals(map[string]any{"exportstate": string(export.StateFailed), "exportprogress": 0})
		sse.Error("Export failed: " + err.Error())
		return
	}
	html, rerr := h.Renderer.Render("export-preview", res)
	if rerr != nil {
		sse.Error(rerr.Error())
		return
	}
	sse.Signals(map[string]any{"exportstate": string(export.StateReady), "exportprogress": 100})
	sse.Patch(html, "#export-preview")
	sse.Success("Export ready: " + res.Filename())
}

type HistoryInput struct {
	Limit int `query:"limit" minimum:"1" maximum:"200" default:"20" doc:"Rows to show"`
}

func (h *ExportHandler) History(ctx context.Context, input *HistoryInput) (*huma.StreamResponse, error) {
	list, _, err := h.exports.History(ctx, 0, input.Limit)
	if err != nil {
		return nil, huma.Error500InternalServerError("history unavailable", err)
	}
	return h.Stream(func(sse humastar.SSE) {
		sse.Patch(h.renderHistory(list), "#export-history")
	}), nil
}

func (h *ExportHandler) renderHistory(list []db.ExportRecord) string {
	items := make([]any, len(list))
	for i, r := range list {
		items[i] = r
	}
	return h.RenderList("history-row", items, "No exports yet", "Generated images are listed here.")
}

func selectOptions(opts []service.Option, selected string) []humastar.SelectOptionData {
	out := make([]humastar.SelectOptionData, len(opts))
	for i, o := range opts {
		out[i] = humastar.SelectOptionData{Value: o.Value, Label: o.Label, Selected: o.Value == selected}
	}
	return out
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
