package api

import (
	"context"

	"github.com/danielgtaylor/huma/v2"

	"github.com/joeblew999/plat-style/internal/effect"
	"github.com/joeblew999/plat-style/internal/mask"
)

type InfoHandler struct {
	dataDir string
	dbOK    bool
}

func NewInfoHandler(dataDir string, dbOK bool) *InfoHandler {
	return &InfoHandler{dataDir: dataDir, dbOK: dbOK}
}

func (h *InfoHandler) RegisterRoutes(api huma.API) {
	huma.Get(api, "/api/v1/info", h.GetInfo, huma.OperationTags("health"))
}

type InfoBody struct {
	Name    string   `json:"name" doc:"Service name"`
	Version string   `json:"version" doc:"Service version"`
	DataDir string   `json:"data_dir" doc:"Data directory path"`
	DB      bool     `json:"db" doc:"Whether the export history database is available"`
	Frames  []string `json:"frames" doc:"Supported frame styles"`
	Effects []string `json:"effects" doc:"Supported colour effects"`
}

func (h *InfoHandler) GetInfo(ctx context.Context, input *struct{}) (*struct{ Body InfoBody }, error) {
	body := InfoBody{
		Name:    "plat-style",
		Version: "0.1.0",
		DataDir: h.dataDir,
		DB:      h.dbOK,
	}
	for _, f := range mask.Styles {
		body.Frames = append(body.Frames, string(f))
	}
	for _, e := range effect.Effects {
		body.Effects = append(body.Effects, string(e))
	}
	return &struct{ Body InfoBody }{Body: body}, nil
}
