package api

import (
	"github.com/danielgtaylor/huma/v2"

	"github.com/joeblew999/plat-style/internal/humastar"
)

// links maps operation paths to their RFC 8288 Link header values.
// Enables restish hypermedia navigation via `restish links <url>`.
var links = map[string][]string{
	"/health": {
		`</api/v1/info>; rel="info"`,
		`</api/v1/style>; rel="style"`,
		`</api/v1/layers>; rel="layers"`,
		`</api/v1/export>; rel="export"`,
	},
	"/api/v1/info": {
		`</health>; rel="health"`,
		`</api/v1/export/options>; rel="export-options"`,
	},
	"/api/v1/style": {
		`</api/v1/layers>; rel="layers"`,
		`</api/v1/session>; rel="session"`,
	},
	"/api/v1/session": {
		`</api/v1/session/resume>; rel="resume"`,
		`</api/v1/session/fresh>; rel="fresh"`,
	},
	"/api/v1/layers": {
		`</api/v1/style>; rel="style"`,
		`</api/v1/sources>; rel="sources"`,
	},
	"/api/v1/layers/{id}": {
		`</api/v1/layers>; rel="collection"`,
	},
	"/api/v1/sources": {
		`</api/v1/layers>; rel="layers"`,
	},
	"/api/v1/export": {
		`</api/v1/export/options>; rel="options"`,
		`</api/v1/export/history>; rel="history"`,
		`</api/v1/map.png>; rel="preview"`,
	},
	"/api/v1/export/history": {
		`</api/v1/export>; rel="export"`,
	},
	"/api/v1/tables": {
		`</api/v1/query>; rel="query"`,
	},
}

// LinkTransformer returns a Huma Transformer that injects the API's Link
// headers.
func LinkTransformer() huma.Transformer {
	return humastar.LinkTransformer(links)
}
