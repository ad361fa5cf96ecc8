// Package api defines the Huma API routes and handlers.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/danielgtaylor/huma/v2"

	"github.com/joeblew999/plat-style/internal/humastar"
	"github.com/joeblew999/plat-style/internal/service"
	"github.com/joeblew999/plat-style/internal/style"
)

// Services holds the service dependencies for API handlers.
type Services struct {
	Style  *service.StyleService
	Source *service.SourceService
	Export *service.ExportService
}

// RegisterRoutes registers every REST operation of the handler.
func RegisterRoutes(api huma.API, svc *Services) {
	huma.AutoRegister(api, NewAPIHandler(svc))
}

type LayerIDInput struct {
	ID string `path:"id" doc:"Layer ID" example:"roads"`
}

type MessageBody struct {
	Message string `json:"message" doc:"Result message"`
}

type HealthBody struct {
	Status  string `json:"status" doc:"Health status" example:"ok"`
	Version string `json:"version" doc:"API version" example:"1.0.0"`
}

// StyleOutput carries a style document verbatim.
type StyleOutput struct {
	ContentType string `header:"Content-Type"`
	Body        []byte
}

// StyleInput is a style document to load. It must have a layers array.
type StyleInput struct {
	Body map[string]any `doc:"Style document with a layers array"`
}

// LayerEdit changes one or more properties of a layer. Absent fields are
// left alone.
type LayerEdit struct {
	Visible          *bool          `json:"visible,omitempty" doc:"Show or hide the layer"`
	Color            string         `json:"color,omitempty" pattern:"^#[0-9a-fA-F]{6}$" doc:"Main colour" example:"#3366cc"`
	LineWidth        *float64       `json:"lineWidth,omitempty" minimum:"0" doc:"Line width in pixels"`
	TextSize         *float64       `json:"textSize,omitempty" minimum:"1" doc:"Label text size"`
	Font             string         `json:"font,omitempty" doc:"Label font" example:"Noto Sans Regular"`
	HaloColor        string         `json:"haloColor,omitempty" pattern:"^#[0-9a-fA-F]{6}$" doc:"Label halo colour"`
	HaloWidthPercent *float64       `json:"haloWidthPercent,omitempty" minimum:"0" maximum:"100" doc:"Halo width relative to a quarter of the text size"`
	Paint            map[string]any `json:"paint,omitempty" doc:"Raw paint properties"`
	Layout           map[string]any `json:"layout,omitempty" doc:"Raw layout properties"`
}

// LayerBody is a layer's editor controls with its actions.
type LayerBody struct {
	style.Properties
}

var layerActions = []humastar.ActionDef{
	{Rel: "toggle", Pattern: "/api/v1/layers/%s/toggle", Method: "POST", Title: "Toggle visibility"},
	{Rel: "edit", Pattern: "/api/v1/layers/%s", Method: "PATCH", Title: "Edit properties"},
}

// Actions implements humastar.Actor.
func (b LayerBody) Actions() []humastar.Action {
	return humastar.ActionsFor(b.LayerID, layerActions)
}

type SourceFileInput struct {
	Filename string `path:"filename" doc:"Source file name" example:"parks.geojson"`
}

type SourceUploadInput struct {
	Filename string `path:"filename" doc:"Source file name" example:"parks.geojson"`
	RawBody  []byte `contentType:"application/geo+json"`
}

// APIHandler holds all REST API handlers. Methods named Register* are
// auto-discovered by huma.AutoRegister.
type APIHandler struct {
	svc *Services
}

func NewAPIHandler(svc *Services) *APIHandler {
	return &APIHandler{svc: svc}
}

// RegisterHealth registers health check routes.
func (h *APIHandler) RegisterHealth(api huma.API) {
	huma.Get(api, "/health", h.GetHealth, huma.OperationTags("health"))
}

// RegisterStyle registers style document and session routes.
func (h *APIHandler) RegisterStyle(api huma.API) {
	huma.Get(api, "/api/v1/style", h.GetStyle, huma.OperationTags("style"))
	huma.Put(api, "/api/v1/style", h.PutStyle, huma.OperationTags("style"))
	huma.Delete(api, "/api/v1/style", h.ResetStyle, huma.OperationTags("style"))
	huma.Get(api, "/api/v1/session", h.GetSession, huma.OperationTags("style"))
	huma.Post(api, "/api/v1/session/resume", h.ResumeSession, huma.OperationTags("style"))
	huma.Post(api, "/api/v1/session/fresh", h.StartFresh, huma.OperationTags("style"))
}

// RegisterLayers registers layer routes.
func (h *APIHandler) RegisterLayers(api huma.API) {
	huma.Get(api, "/api/v1/layers", h.GetLayers, huma.OperationTags("layers"))
	huma.Get(api, "/api/v1/layers/{id}", h.GetLayer, huma.OperationTags("layers"))
	huma.Patch(api, "/api/v1/layers/{id}", h.PatchLayer, huma.OperationTags("layers"))
	huma.Post(api, "/api/v1/layers/{id}/toggle", h.ToggleLayer, huma.OperationTags("layers"))
}

// RegisterSources registers source file routes.
func (h *APIHandler) RegisterSources(api huma.API) {
	huma.Get(api, "/api/v1/sources", h.GetSources, huma.OperationTags("sources"))
	huma.Put(api, "/api/v1/sources/{filename}", h.PutSource, huma.OperationTags("sources"))
	huma.Delete(api, "/api/v1/sources/{filename}", h.DeleteSource, huma.OperationTags("sources"))
}

// Handlers

func (h *APIHandler) GetHealth(ctx context.Context, input *struct{}) (*struct{ Body HealthBody }, error) {
	return &struct{ Body HealthBody }{Body: HealthBody{Status: "ok", Version: "1.0.0"}}, nil
}

func (h *APIHandler) GetStyle(ctx context.Context, input *struct{}) (*StyleOutput, error) {
	data, err := h.svc.Style.Current().Marshal()
	if err != nil {
		return nil, apiError(err)
	}
	return &StyleOutput{ContentType: "application/json", Body: data}, nil
}

func (h *APIHandler) PutStyle(ctx context.Context, input *StyleInput) (*struct{ Body service.Session }, error) {
	data, err := json.Marshal(input.Body)
	if err != nil {
		return nil, huma.Error400BadRequest("invalid style document", err)
	}
	if _, err := h.svc.Style.Load(data); err != nil {
		return nil, apiError(err)
	}
	return &struct{ Body service.Session }{Body: h.svc.Style.Session()}, nil
}

func (h *APIHandler) ResetStyle(ctx context.Context, input *struct{}) (*struct{ Body service.Session }, error) {
	if err := h.svc.Style.Reset(); err != nil {
		return nil, apiError(err)
	}
	return &struct{ Body service.Session }{Body: h.svc.Style.Session()}, nil
}

func (h *APIHandler) GetSession(ctx context.Context, input *struct{}) (*struct{ Body service.Session }, error) {
	return &struct{ Body service.Session }{Body: h.svc.Style.Session()}, nil
}

func (h *APIHandler) ResumeSession(ctx context.Context, input *struct{}) (*struct{ Body service.Session }, error) {
	if _, err := h.svc.Style.Resume(); err != nil {
		return nil, apiError(err)
	}
	return &struct{ Body service.Session }{Body: h.svc.Style.Session()}, nil
}

func (h *APIHandler) StartFresh(ctx context.Context, input *struct{}) (*struct{ Body service.Session }, error) {
	if err := h.svc.Style.StartFresh(); err != nil {
		return nil, apiError(err)
	}
	return &struct{ Body service.Session }{Body: h.svc.Style.Session()}, nil
}

func (h *APIHandler) GetLayers(ctx context.Context, input *struct{}) (*struct{ Body []service.LayerSummary }, error) {
	return &struct{ Body []service.LayerSummary }{Body: h.svc.Style.Layers()}, nil
}

func (h *APIHandler) GetLayer(ctx context.Context, input *LayerIDInput) (*struct{ Body LayerBody }, error) {
	p, err := h.svc.Style.Properties(input.ID)
	if err != nil {
		return nil, apiError(err)
	}
	return &struct{ Body LayerBody }{Body: LayerBody{p}}, nil
}

func (h *APIHandler) ToggleLayer(ctx context.Context, input *LayerIDInput) (*struct{ Body LayerBody }, error) {
	if _, err := h.svc.Style.ToggleVisibility(input.ID); err != nil {
		return nil, apiError(err)
	}
	return h.GetLayer(ctx, input)
}

func (h *APIHandler) PatchLayer(ctx context.Context, input *struct {
	LayerIDInput
	Body LayerEdit
}) (*struct{ Body LayerBody }, error) {
	if err := applyEdit(h.svc.Style, input.ID, input.Body); err != nil {
		return nil, apiError(err)
	}
	return h.GetLayer(ctx, &input.LayerIDInput)
}

// applyEdit applies each present field of e in turn. Each step is saved, so
// an error leaves the earlier steps applied.
func applyEdit(s *service.StyleService, id string, e LayerEdit) error {
	var steps []func() (*style.Document, error)
	if e.Visible != nil {
		steps = append(steps, func() (*style.Document, error) { return s.SetVisibility(id, *e.Visible) })
	}
	if e.Color != "" {
		steps = append(steps, func() (*style.Document, error) { return s.SetColor(id, e.Color) })
	}
	if e.LineWidth != nil {
		steps = append(steps, func() (*style.Document, error) { return s.SetLineWidth(id, *e.LineWidth) })
	}
	if e.TextSize != nil {
		steps = append(steps, func() (*style.Document, error) { return s.SetTextSize(id, *e.TextSize) })
	}
	if e.Font != "" {
		steps = append(steps, func() (*style.Document, error) { return s.SetFont(id, e.Font) })
	}
	if e.HaloColor != "" {
		steps = append(steps, func() (*style.Document, error) { return s.SetHaloColor(id, e.HaloColor) })
	}
	if e.HaloWidthPercent != nil {
		steps = append(steps, func() (*style.Document, error) { return s.SetHaloWidthPercent(id, *e.HaloWidthPercent) })
	}
	for k, v := range e.Paint {
		steps = append(steps, func() (*style.Document, error) { return s.SetPaint(id, k, v) })
	}
	for k, v := range e.Layout {
		steps = append(steps, func() (*style.Document, error) { return s.SetLayout(id, k, v) })
	}
	if len(steps) == 0 {
		if _, err := s.Properties(id); err != nil {
			return err
		}
		return nil
	}
	for _, step := range steps {
		if _, err := step(); err != nil {
			return fmt.Errorf("editing layer %s: %w", id, err)
		}
	}
	return nil
}

func (h *APIHandler) GetSources(ctx context.Context, input *struct{}) (*struct{ Body []service.SourceFile }, error) {
	sources, err := h.svc.Source.List()
	if err != nil {
		return nil, apiError(err)
	}
	return &struct{ Body []service.SourceFile }{Body: sources}, nil
}

func (h *APIHandler) PutSource(ctx context.Context, input *SourceUploadInput) (*struct{ Body service.SourceFile }, error) {
	f, err := h.svc.Source.Save(input.Filename, bytes.NewReader(input.RawBody))
	if err != nil {
		return nil, huma.Error400BadRequest(err.Error())
	}
	return &struct{ Body service.SourceFile }{Body: f}, nil
}

func (h *APIHandler) DeleteSource(ctx context.Context, input *SourceFileInput) (*struct{ Body MessageBody }, error) {
	if err := h.svc.Source.Delete(input.Filename); err != nil {
		if errors.Is(err, service.ErrSourceNotFound) {
			return nil, huma.Error404NotFound(err.Error())
		}
		return nil, huma.Error400BadRequest(err.Error())
	}
	return &struct{ Body MessageBody }{Body: MessageBody{Message: "Source deleted"}}, nil
}
