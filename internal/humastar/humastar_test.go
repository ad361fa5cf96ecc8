package humastar

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSignals(t *testing.T) {
	s, err := ParseSignals([]byte(`{"frame":"circle","linewidth":"2.5","textsize":14,"visible":true}`))
	require.NoError(t, err)

	assert.Equal(t, "circle", s.String("frame"))
	assert.Equal(t, "", s.String("missing"))
	assert.True(t, s.Bool("visible"))
	assert.True(t, s.Has("frame"))
	assert.False(t, s.Has("effect"))

	w, ok := s.Float("linewidth")
	assert.True(t, ok)
	assert.Equal(t, 2.5, w)
	size, ok := s.Float("textsize")
	assert.True(t, ok)
	assert.Equal(t, 14.0, size)
	_, ok = s.Float("frame")
	assert.False(t, ok)

	empty, err := ParseSignals(nil)
	require.NoError(t, err)
	assert.Empty(t, empty)

	_, err = ParseSignals([]byte(`{`))
	assert.Error(t, err)

	in := &SignalsInput{RawBody: []byte(`[`)}
	_, err = in.MustParse()
	assert.Error(t, err)
}

func TestRenderer_Lists(t *testing.T) {
	r := MustRenderer()

	html := RenderList(r, "layer-row", nil, "No layers", "Load a style")
	assert.Contains(t, html, "No layers")

	type row struct {
		ID, Type string
		Visible  bool
	}
	html = RenderList(r, "layer-row", []any{row{ID: "roads", Type: "line", Visible: false}}, "", "")
	assert.Contains(t, html, `id="layer-roads"`)
	assert.Contains(t, html, "hidden-layer")

	html = RenderSelect(r, "-- pick --", []SelectOptionData{
		{Value: "circle", Label: "Circle Mask", Selected: true},
	})
	assert.Contains(t, html, `<option value="">-- pick --</option>`)
	assert.Contains(t, html, `<option value="circle" selected>Circle Mask</option>`)
}

func TestRenderer_OverrideDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "empty.html"),
		[]byte(`{{define "empty-state"}}<p>{{.Title}}!</p>{{end}}`), 0644))

	r, err := NewRenderer(dir)
	require.NoError(t, err)
	out, err := r.Render("empty-state", map[string]string{"Title": "Nothing"})
	require.NoError(t, err)
	assert.Equal(t, "<p>Nothing!</p>", out)

	_, err = r.Render("select-option", SelectOptionData{Value: "x", Label: "X"})
	assert.NoError(t, err, "built-in templates stay available")
}

func TestPaginationLinks(t *testing.T) {
	p := PageBody[int]{Total: 25, Offset: 10, Limit: 10}
	assert.Equal(t, []string{
		`</h?offset=0&limit=10>; rel="first"`,
		`</h?offset=0&limit=10>; rel="prev"`,
		`</h?offset=20&limit=10>; rel="next"`,
		`</h?offset=20&limit=10>; rel="last"`,
	}, p.PaginationLinks("/h"))

	empty := PageBody[int]{Limit: 10}
	assert.Equal(t, []string{
		`</h?offset=0&limit=10>; rel="first"`,
		`</h?offset=0&limit=10>; rel="last"`,
	}, empty.PaginationLinks("/h"))
}

func TestActionsFor(t *testing.T) {
	actions := ActionsFor("roads", []ActionDef{
		{Rel: "toggle", Pattern: "/api/v1/layers/%s/toggle", Method: "POST", Title: "Toggle visibility"},
	})
	require.Len(t, actions, 1)
	assert.Equal(t,
		`</api/v1/layers/roads/toggle>; rel="toggle"; method="POST"; title="Toggle visibility"`,
		actions[0].LinkHeader())
}
