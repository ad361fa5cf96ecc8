package editor

import (
	"context"
	"mime/multipart"

	"github.com/danielgtaylor/huma/v2"

	"github.com/joeblew999/plat-style/internal/humastar"
	"github.com/joeblew999/plat-style/internal/service"
)

type SourceHandler struct {
	humastar.Handler
	sources *service.SourceService
}

func NewSourceHandler(sources *service.SourceService, renderer *humastar.Renderer) *SourceHandler {
	return &SourceHandler{Handler: humastar.Handler{Renderer: renderer}, sources: sources}
}

func (h *SourceHandler) RegisterRoutes(api huma.API) {
	huma.Get(api, "/api/v1/editor/sources", h.ListSources, huma.OperationTags("editor"))
	huma.Post(api, "/api/v1/editor/sources/upload", h.Upload, huma.OperationTags("editor"))
	huma.Delete(api, "/api/v1/editor/sources/{filename}", h.Delete, huma.OperationTags("editor"))
}

type SourceUploadInput struct {
	RawBody multipart.Form
}

func (h *SourceHandler) Upload(ctx context.Context, input *SourceUploadInput) (*huma.StreamResponse, error) {
	return h.Stream(func(sse humastar.SSE) {
		files := input.RawBody.File["file"]
		if len(files) == 0 {
			sse.Error("No file provided")
			return
		}

		fh := files[0]
		file, err := fh.Open()
		if err != nil {
			sse.Error("Failed to open uploaded file")
			return
		}
		defer file.Close()

		if _, err := h.sources.Save(fh.Filename, file); err != nil {
			sse.Error(err.Error())
			return
		}
		sse.Success("File uploaded: " + fh.Filename)
		h.patchList(sse)
	}), nil
}

type SourceDeleteInput struct {
	Filename string `path:"filename" doc:"Source filename to delete"`
}

func (h *SourceHandler) Delete(ctx context.Context, input *SourceDeleteInput) (*huma.StreamResponse, error) {
	return h.Stream(func(sse humastar.SSE) {
		if err := h.sources.Delete(input.Filename); err != nil {
			sse.Error(err.Error())
			return
		}
		sse.Success("Deleted: " + input.Filename)
		h.patchList(sse)
		sse.DispatchCustomEvent("source-changed", map[string]any{
			"action": "deleted", "filename": input.Filename,
		})
	}), nil
}

func (h *SourceHandler) ListSources(ctx context.Context, input *humastar.EmptyInput) (*huma.StreamResponse, error) {
	return h.Stream(h.patchList), nil
}

func (h *SourceHandler) patchList(sse humastar.SSE) {
	sources, err := h.sources.List()
	if err != nil {
		sse.Error("Failed to list sources: " + err.Error())
		return
	}
	items := make([]any, len(sources))
	for i, s := range sources {
		items[i] = s
	}
	sse.Patch(h.RenderList("source-row", items, "No source files", "Upload a GeoJSON file to use it in a style."), "#source-list")
}
