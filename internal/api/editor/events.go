package editor

import (
	"context"

	"github.com/danielgtaylor/huma/v2"

	"github.com/joeblew999/plat-style/internal/export"
	"github.com/joeblew999/plat-style/internal/humastar"
	"github.com/joeblew999/plat-style/internal/service"
)

// EventHandler streams resource change events to the Datastar UI via SSE.
type EventHandler struct {
	humastar.Handler
	bus    *service.EventBus
	layers *LayerHandler
}

// NewEventHandler creates a new event handler.
func NewEventHandler(styles *service.StyleService, bus *service.EventBus, renderer *humastar.Renderer) *EventHandler {
	if bus == nil {
		bus = service.DefaultBus
	}
	return &EventHandler{
		Handler: humastar.Handler{Renderer: renderer},
		bus:     bus,
		layers:  NewLayerHandler(styles, renderer),
	}
}

func (h *EventHandler) RegisterRoutes(api huma.API) {
	huma.Get(api, "/api/v1/editor/events", h.Events,
		huma.OperationTags("editor"),
	)
}

func (h *EventHandler) Events(ctx context.Context, input *humastar.EmptyInput) (*huma.StreamResponse, error) {
	return &huma.StreamResponse{
		Body: func(humaCtx huma.Context) {
			sse := humastar.NewSSE(humaCtx)
			ch := h.bus.Subscribe()
			defer h.bus.Unsubscribe(ch)

			for {
				select {
				case <-ctx.Done():
					return
				case ev := <-ch:
					h.relay(sse, ev)
				}
			}
		},
	}, nil
}

func (h *EventHandler) relay(sse humastar.SSE, ev service.Event) {
	switch ev.Resource {
	case service.ResourceStyle, service.ResourceLayer:
		sse.Patch(h.layers.renderLayerList(), "#layer-list")
	case service.ResourceExport:
		signals := map[string]any{
			"exportstate":    ev.Action,
			"exportprogress": progress[export.State(ev.Action)],
		}
		if ev.Detail != "" {
			signals["error"] = ev.Detail
		}
		sse.Signals(signals)
	}
	sse.DispatchCustomEvent("resource-changed", map[string]any{
		"resource": ev.Resource,
		"action":   ev.Action,
		"id":       ev.ID,
	})
}
