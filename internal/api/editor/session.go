package editor

import (
	"context"

	"github.com/danielgtaylor/huma/v2"

	"github.com/joeblew999/plat-style/internal/humastar"
	"github.com/joeblew999/plat-style/internal/service"
)

// SessionHandler drives the resume prompt shown when a saved style exists.
type SessionHandler struct {
	humastar.Handler
	styles *service.StyleService
	layers *LayerHandler
}

func NewSessionHandler(styles *service.StyleService, renderer *humastar.Renderer) *SessionHandler {
	return &SessionHandler{
		Handler: humastar.Handler{Renderer: renderer},
		styles:  styles,
		layers:  NewLayerHandler(styles, renderer),
	}
}

func (h *SessionHandler) RegisterRoutes(api huma.API) {
	huma.Get(api, "/api/v1/editor/session", h.Session, huma.OperationTags("editor"))
	huma.Post(api, "/api/v1/editor/session/resume", h.Resume, huma.OperationTags("editor"))
	huma.Post(api, "/api/v1/editor/session/fresh", h.Fresh, huma.OperationTags("editor"))
}

func (h *SessionHandler) Session(ctx context.Context, input *humastar.EmptyInput) (*huma.StreamResponse, error) {
	return h.Stream(h.sendSession), nil
}

func (h *SessionHandler) Resume(ctx context.Context, input *humastar.EmptyInput) (*huma.StreamResponse, error) {
	return h.Stream(func(sse humastar.SSE) {
		ok, err := h.styles.Resume()
		if err != nil {
			sse.Error("Resume failed: " + err.Error())
			return
		}
		h.sendSession(sse)
		sse.Patch(h.layers.renderLayerList(), "#layer-list")
		if ok {
			sse.Success("Resumed saved style")
		} else {
			sse.Error("Saved style could not be read; starting fresh")
		}
	}), nil
}

func (h *SessionHandler) Fresh(ctx context.Context, input *humastar.EmptyInput) (*huma.StreamResponse, error) {
	return h.Stream(func(sse humastar.SSE) {
		if err := h.styles.StartFresh(); err != nil {
			sse.Error(err.Error())
			return
		}
		h.sendSession(sse)
		sse.Patch(h.layers.renderLayerList(), "#layer-list")
		sse.Success("Started a fresh style")
	}), nil
}

func (h *SessionHandler) sendSession(sse humastar.SSE) {
	s := h.styles.Session()
	sse.Signals(map[string]any{
		"hassaved":  s.HasSaved,
		"resumed":   s.Resumed,
		"stylename": s.Name,
		// the prompt is only shown before any choice was made
		"showresume": s.HasSaved && !s.Resumed && s.Version == 0,
	})
}
