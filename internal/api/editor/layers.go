// Package editor contains Datastar SSE handlers for the editor UI.
package editor

import (
	"context"
	"fmt"
	"strings"

	"github.com/danielgtaylor/huma/v2"

	"github.com/joeblew999/plat-style/internal/humastar"
	"github.com/joeblew999/plat-style/internal/service"
	"github.com/joeblew999/plat-style/internal/style"
)

type LayerHandler struct {
	humastar.Handler
	styles *service.StyleService
}

func NewLayerHandler(styles *service.StyleService, renderer *humastar.Renderer) *LayerHandler {
	return &LayerHandler{Handler: humastar.Handler{Renderer: renderer}, styles: styles}
}

func (h *LayerHandler) RegisterRoutes(api huma.API) {
	huma.Get(api, "/api/v1/editor/layers", h.ListLayers, huma.OperationTags("editor"))
	huma.Get(api, "/api/v1/editor/layers/{id}", h.EditLayer, huma.OperationTags("editor"))
	huma.Post(api, "/api/v1/editor/layers/{id}/toggle", h.ToggleLayer, huma.OperationTags("editor"))
	huma.Post(api, "/api/v1/editor/layers/{id}/properties", h.UpdateProperties, huma.OperationTags("editor"))
}

type LayerInput struct {
	ID string `path:"id" doc:"Layer ID"`
}

type LayerSignalsInput struct {
	ID string `path:"id" doc:"Layer ID"`
	humastar.SignalsInput
}

func (h *LayerHandler) ListLayers(ctx context.Context, input *humastar.EmptyInput) (*huma.StreamResponse, error) {
	return h.Stream(func(sse humastar.SSE) {
		sse.Patch(h.renderLayerList(), "#layer-list")
	}), nil
}

// EditLayer shows the property form of a layer and seeds its signals.
func (h *LayerHandler) EditLayer(ctx context.Context, input *LayerInput) (*huma.StreamResponse, error) {
	p, err := h.styles.Properties(input.ID)
	if err != nil {
		return nil, huma.Error404NotFound(err.Error())
	}
	return h.Stream(func(sse humastar.SSE) {
		html, err := h.Renderer.Render("layer-properties", p)
		if err != nil {
			sse.Error(err.Error())
			return
		}
		sse.Signals(propertySignals(p))
		sse.Replace(html, "#layer-properties")
	}), nil
}

func (h *LayerHandler) ToggleLayer(ctx context.Context, input *LayerInput) (*huma.StreamResponse, error) {
	return h.Stream(func(sse humastar.SSE) {
		doc, err := h.styles.ToggleVisibility(input.ID)
		if err != nil {
			sse.Error(err.Error())
			return
		}
		state := "shown"
		if !doc.Visibility()[input.ID] {
			state = "hidden"
		}
		sse.Patch(h.renderLayerList(), "#layer-list")
		sse.Success(fmt.Sprintf("Layer '%s' %s", input.ID, state))
	}), nil
}

// UpdateProperties applies the property form. Only signals that were sent
// are applied; text-only controls are skipped on layers without text.
func (h *LayerHandler) UpdateProperties(ctx context.Context, input *LayerSignalsInput) (*huma.StreamResponse, error) {
	signals, err := input.MustParse()
	if err != nil {
		return nil, err
	}
	p, err := h.styles.Properties(input.ID)
	if err != nil {
		return nil, huma.Error404NotFound(err.Error())
	}

	return h.Stream(func(sse humastar.SSE) {
		if err := applySignals(h.styles, p, signals); err != nil {
			sse.Error(err.Error())
			return
		}
		updated, _ := h.styles.Properties(input.ID)
		sse.Signals(propertySignals(updated))
		sse.Success(fmt.Sprintf("Layer '%s' updated", input.ID))
	}), nil
}

func applySignals(s *service.StyleService, p style.Properties, signals humastar.Signals) error {
	id := p.LayerID
	if c := signals.String("color"); c != "" && !strings.EqualFold(c, p.Color) {
		if _, err := s.SetColor(id, c); err != nil {
			return err
		}
	}
	if p.Thickness != nil {
		if w, ok := signals.Float("linewidth"); ok && w != *p.Thickness {
			if _, err := s.SetLineWidth(id, w); err != nil {
				return err
			}
		}
	}
	if p.TextSize == nil {
		return nil
	}
	if size, ok := signals.Float("textsize"); ok && size > 0 && size != *p.TextSize {
		if _, err := s.SetTextSize(id, size); err != nil {
			return err
		}
	}
	if f := signals.String("font"); f != "" && f != p.Font {
		if _, err := s.SetFont(id, f); err != nil {
			return err
		}
	}
	if c := signals.String("halocolor"); c != "" && !strings.EqualFold(c, p.HaloColor) {
		if _, err := s.SetHaloColor(id, c); err != nil {
			return err
		}
	}
	if pct, ok := signals.Float("halowidth"); ok && pct != p.HaloWidthPercent {
		if _, err := s.SetHaloWidthPercent(id, pct); err != nil {
			return err
		}
	}
	return nil
}

func propertySignals(p style.Properties) map[string]any {
	signals := map[string]any{
		"_layer": p.LayerID,
		"color":  p.Color,
	}
	if p.Thickness != nil {
		signals["linewidth"] = *p.Thickness
	}
	if p.TextSize != nil {
		signals["textsize"] = *p.TextSize
		signals["font"] = p.Font
		signals["halocolor"] = p.HaloColor
		signals["halowidth"] = p.HaloWidthPercent
	}
	return signals
}

func (h *LayerHandler) renderLayerList() string {
	layers := h.styles.Layers()
	items := make([]any, len(layers))
	for i, l := range layers {
		items[i] = l
	}
	return h.RenderList("layer-row", items, "No layers", "Load a style with a layers array")
}
