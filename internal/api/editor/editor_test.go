package editor

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"strings"
	"testing"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humago"
	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joeblew999/plat-style/internal/humastar"
	"github.com/joeblew999/plat-style/internal/render"
	"github.com/joeblew999/plat-style/internal/service"
)

type fixture struct {
	api     humatest.TestAPI
	styles  *service.StyleService
	sources *service.SourceService
	bus     *service.EventBus
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dir := t.TempDir()
	bus := service.NewEventBus()
	styles := service.NewStyleService(dir, bus)
	sources := service.NewSourceService(dir)

	r := render.New(64, 48, render.WithSources(sources))
	r.SetStyle(styles.Current())
	styles.OnChange(r.SetStyle)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go r.Run(ctx)

	exports := service.NewExportService(r, nil, bus)
	fragments := humastar.MustRenderer()

	cfg := huma.DefaultConfig("editor test", "1.0.0")
	cfg.CreateHooks = nil
	api := humatest.Wrap(t, humago.New(http.NewServeMux(), cfg))

	NewLayerHandler(styles, fragments).RegisterRoutes(api)
	NewSourceHandler(sources, fragments).RegisterRoutes(api)
	NewExportHandler(exports, fragments).RegisterRoutes(api)
	NewSessionHandler(styles, fragments).RegisterRoutes(api)
	return &fixture{api: api, styles: styles, sources: sources, bus: bus}
}

func TestLayers_ListPatchesLayerList(t *testing.T) {
	f := newFixture(t)

	resp := f.api.Get("/api/v1/editor/layers")
	require.Equal(t, http.StatusOK, resp.Code)
	body := resp.Body.String()
	assert.Contains(t, body, "datastar-patch-elements")
	assert.Contains(t, body, "#layer-list")
	assert.Contains(t, body, `id="layer-roads"`)
}

func TestLayers_ToggleHidesLayer(t *testing.T) {
	f := newFixture(t)

	resp := f.api.Post("/api/v1/editor/layers/roads/toggle")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), "hidden-layer")
	assert.Contains(t, resp.Body.String(), "Layer 'roads' hidden")
	assert.False(t, f.styles.Current().Visibility()["roads"])

	resp = f.api.Post("/api/v1/editor/layers/nope/toggle")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `"error"`)
}

func TestLayers_EditAndApplyProperties(t *testing.T) {
	f := newFixture(t)

	resp := f.api.Get("/api/v1/editor/layers/roads")
	require.Equal(t, http.StatusOK, resp.Code)
	body := resp.Body.String()
	assert.Contains(t, body, "datastar-patch-signals")
	assert.Contains(t, body, `id="layer-properties"`)
	assert.Contains(t, body, "linewidth")

	resp = f.api.Post("/api/v1/editor/layers/roads/properties", "Content-Type: application/json",
		strings.NewReader(`{"color":"#abcdef","linewidth":"4"}`))
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), "Layer 'roads' updated")

	p, err := f.styles.Properties("roads")
	require.NoError(t, err)
	assert.Equal(t, "#ABCDEF", p.Color)
	require.NotNil(t, p.Thickness)
	assert.Equal(t, 4.0, *p.Thickness)

	resp = f.api.Get("/api/v1/editor/layers/nope")
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestSources_UploadAndDelete(t *testing.T) {
	f := newFixture(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "parks.geojson")
	require.NoError(t, err)
	_, err = fw.Write([]byte(`{"type":"FeatureCollection","features":[]}`))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	resp := f.api.Post("/api/v1/editor/sources/upload", "Content-Type: "+mw.FormDataContentType(), &buf)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), "File uploaded: parks.geojson")
	assert.Contains(t, resp.Body.String(), `id="source-parks.geojson"`)

	resp = f.api.Delete("/api/v1/editor/sources/parks.geojson")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), "No source files")
	assert.Contains(t, resp.Body.String(), "source-changed")

	list, err := f.sources.List()
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestExport_OptionsAndGenerate(t *testing.T) {
	f := newFixture(t)

	resp := f.api.Get("/api/v1/editor/export/options")
	require.Equal(t, http.StatusOK, resp.Code)
	body := resp.Body.String()
	assert.Contains(t, body, "#frame-select")
	assert.Contains(t, body, `<option value="squareFade">`)
	assert.Contains(t, body, `<option value="none" selected>`)

	resp = f.api.Post("/api/v1/editor/export", "Content-Type: application/json",
		strings.NewReader(`{"frame":"hexagon","effect":"sepia"}`))
	require.Equal(t, http.StatusOK, resp.Code)
	body = resp.Body.String()
	assert.Contains(t, body, `"exportstate":"ready"`)
	assert.Contains(t, body, `"exportprogress":100`)
	assert.Contains(t, body, "#export-preview")
	assert.Contains(t, body, "data:image/png;base64,")
	assert.Contains(t, body, "map-export-hexagon-sepia.png")

	resp = f.api.Post("/api/v1/editor/export", "Content-Type: application/json",
		strings.NewReader(`{"frame":"star"}`))
	assert.Equal(t, http.StatusUnprocessableEntity, resp.Code)
}

func TestExport_GenerateIgnoresOtherRuns(t *testing.T) {
	f := newFixture(t)

	// another run fails while this one is waiting for idle
	ch := f.bus.Subscribe()
	defer f.bus.Unsubscribe(ch)
	go func() {
		for ev := range ch {
			if ev.Resource == service.ResourceExport && ev.Action == "waitingForIdleRender" {
				f.bus.Publish(service.Event{Resource: service.ResourceExport, Action: "failed", Detail: "other run"})
				return
			}
		}
	}()

	resp := f.api.Post("/api/v1/editor/export", "Content-Type: application/json",
		strings.NewReader(`{"frame":"circle","effect":"none"}`))
	require.Equal(t, http.StatusOK, resp.Code)
	body := resp.Body.String()
	assert.Contains(t, body, `"exportstate":"waitingForIdleRender"`)
	assert.Contains(t, body, `"exportstate":"ready"`)
	assert.NotContains(t, body, `"exportstate":"failed"`)
	assert.NotContains(t, body, "Export failed")
}

func TestExport_HistoryWithoutStore(t *testing.T) {
	f := newFixture(t)

	resp := f.api.Get("/api/v1/editor/export/history")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), "#export-history")
	assert.Contains(t, resp.Body.String(), "No exports yet")
}

func TestSession_ResumeAndFresh(t *testing.T) {
	f := newFixture(t)

	resp := f.api.Get("/api/v1/editor/session")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `"hassaved":false`)

	_, err := f.styles.ToggleVisibility("roads")
	require.NoError(t, err)

	resp = f.api.Post("/api/v1/editor/session/resume")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), "Resumed saved style")
	assert.Contains(t, resp.Body.String(), `"resumed":true`)

	resp = f.api.Post("/api/v1/editor/session/fresh")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `"hassaved":false`)
	assert.True(t, f.styles.Current().Visibility()["roads"])
}

func TestEvents_RelayRendersLayerList(t *testing.T) {
	f := newFixture(t)
	h := NewEventHandler(f.styles, f.bus, humastar.MustRenderer())

	html := h.layers.renderLayerList()
	assert.Contains(t, html, `id="layer-roads"`)
	assert.Equal(t, 25, progress["waitingForIdleRender"])
	assert.Equal(t, 100, progress["ready"])
}
