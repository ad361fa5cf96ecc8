package api

import (
	"context"
	"errors"
	"fmt"

	"github.com/danielgtaylor/huma/v2"

	"github.com/joeblew999/plat-style/internal/db"
	"github.com/joeblew999/plat-style/internal/effect"
	"github.com/joeblew999/plat-style/internal/export"
	"github.com/joeblew999/plat-style/internal/humastar"
	"github.com/joeblew999/plat-style/internal/mask"
	"github.com/joeblew999/plat-style/internal/render"
	"github.com/joeblew999/plat-style/internal/service"
)

// ExportRequest selects the frame style and effect of an export.
type ExportRequest struct {
	Frame  string `json:"frame,omitempty" default:"none" enum:"none,circle,fade,square,squareFade,roundedSquare,diamond,hexagon" doc:"Frame style"`
	Effect string `json:"effect,omitempty" default:"none" enum:"none,grayscale,sepia,invert,vintage" doc:"Colour effect"`
}

// ExportStatusBody is the pipeline state with its actions.
type ExportStatusBody struct {
	service.ExportStatus
}

// Actions implements humastar.Actor: the download is only offered when an
// export is ready.
func (b ExportStatusBody) Actions() []humastar.Action {
	actions := []humastar.Action{
		{Rel: "generate", Href: "/api/v1/export", Method: "POST", Title: "Generate export"},
	}
	if b.State == string(export.StateReady) {
		actions = append(actions, humastar.Action{
			Rel: "download", Href: "/api/v1/export/download", Method: "GET", Title: "Download PNG",
		})
	}
	return actions
}

// PNGOutput is a binary PNG response.
type PNGOutput struct {
	ContentType        string `header:"Content-Type"`
	ContentDisposition string `header:"Content-Disposition"`
	CacheControl       string `header:"Cache-Control"`
	Body               []byte
}

type HistoryInput struct {
	Offset int `query:"offset" minimum:"0" default:"0" doc:"Rows to skip"`
	Limit  int `query:"limit" minimum:"1" maximum:"200" default:"20" doc:"Page size"`
}

// RegisterExport registers export routes.
func (h *APIHandler) RegisterExport(api huma.API) {
	huma.Get(api, "/api/v1/export/options", h.GetExportOptions, huma.OperationTags("export"))
	huma.Get(api, "/api/v1/export", h.GetExportStatus, huma.OperationTags("export"))
	huma.Post(api, "/api/v1/export", h.GenerateExport, huma.OperationTags("export"))
	huma.Get(api, "/api/v1/export/download", h.DownloadExport, huma.OperationTags("export"))
	huma.Get(api, "/api/v1/export/history", h.GetExportHistory, huma.OperationTags("export"))
	huma.Get(api, "/api/v1/map.png", h.GetMapFrame, huma.OperationTags("export"))
}

func (h *APIHandler) GetExportOptions(ctx context.Context, input *struct{}) (*struct{ Body service.ExportOptions }, error) {
	return &struct{ Body service.ExportOptions }{Body: h.svc.Export.Options()}, nil
}

func (h *APIHandler) GetExportStatus(ctx context.Context, input *struct{}) (*struct{ Body ExportStatusBody }, error) {
	return &struct{ Body ExportStatusBody }{Body: ExportStatusBody{h.svc.Export.Status()}}, nil
}

// GenerateExport runs an export and waits for it to finish.
func (h *APIHandler) GenerateExport(ctx context.Context, input *struct{ Body ExportRequest }) (*struct{ Body ExportStatusBody }, error) {
	frame, err := mask.ParseFrameStyle(input.Body.Frame)
	if err != nil {
		return nil, huma.Error422UnprocessableEntity(err.Error())
	}
	e, err := effect.ParseEffect(input.Body.Effect)
	if err != nil {
		return nil, huma.Error422UnprocessableEntity(err.Error())
	}
	if _, err := h.svc.Export.Generate(ctx, frame, e); err != nil {
		return nil, apiError(err)
	}
	return h.GetExportStatus(ctx, nil)
}

func (h *APIHandler) DownloadExport(ctx context.Context, input *struct{}) (*PNGOutput, error) {
	dl, err := h.svc.Export.Download()
	if err != nil {
		return nil, apiError(err)
	}
	return &PNGOutput{
		ContentType:        dl.ContentType,
		ContentDisposition: fmt.Sprintf(`attachment; filename="%s"`, dl.Filename),
		CacheControl:       "no-store",
		Body:               dl.Data,
	}, nil
}

func (h *APIHandler) GetExportHistory(ctx context.Context, input *HistoryInput) (*struct {
	Body humastar.PageBody[db.ExportRecord]
}, error) {
	list, total, err := h.svc.Export.History(ctx, input.Offset, input.Limit)
	if err != nil {
		return nil, apiError(err)
	}
	return &struct {
		Body humastar.PageBody[db.ExportRecord]
	}{Body: humastar.PageBody[db.ExportRecord]{
		Total: total, Offset: input.Offset, Limit: input.Limit, Data: list,
	}}, nil
}

// GetMapFrame returns the last frame drawn by the renderer.
func (h *APIHandler) GetMapFrame(ctx context.Context, input *struct{}) (*PNGOutput, error) {
	snap, err := h.svc.Export.Frame()
	if errors.Is(err, render.ErrNoFrame) {
		return nil, huma.Error503ServiceUnavailable("map not rendered yet")
	}
	if err != nil {
		return nil, apiError(err)
	}
	return &PNGOutput{ContentType: "image/png", CacheControl: "no-store", Body: snap.Data}, nil
}
