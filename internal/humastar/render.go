package humastar

import (
	"bytes"
	"embed"
	"html/template"
	"path/filepath"
	"sync"
)

//go:embed fragments/*.html
var fragments embed.FS

var funcMap = template.FuncMap{
	// dict builds a map from key-value pairs for nested templates.
	"dict": func(values ...any) map[string]any {
		if len(values)%2 != 0 {
			return nil
		}
		m := make(map[string]any, len(values)/2)
		for i := 0; i < len(values); i += 2 {
			key, ok := values[i].(string)
			if !ok {
				continue
			}
			m[key] = values[i+1]
		}
		return m
	},
	"safeURL": func(s string) template.URL { return template.URL(s) },
}

// Renderer executes the HTML fragment templates sent over SSE.
type Renderer struct {
	dir       string
	templates *template.Template
	mu        sync.RWMutex
}

// NewRenderer loads the built-in fragments, then any *.html in dir, which
// override built-in templates of the same name. dir may be empty.
func NewRenderer(dir string) (*Renderer, error) {
	r := &Renderer{dir: dir}
	if err := r.Reload(); err != nil {
		return nil, err
	}
	return r, nil
}

// MustRenderer is NewRenderer for the built-in fragments only.
func MustRenderer() *Renderer {
	r, err := NewRenderer("")
	if err != nil {
		panic(err)
	}
	return r
}

// Render renders a named template to a string.
func (r *Renderer) Render(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := r.RenderToBuffer(&buf, name, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// RenderToBuffer renders a named template into buf.
func (r *Renderer) RenderToBuffer(buf *bytes.Buffer, name string, data any) error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.templates.ExecuteTemplate(buf, name, data)
}

// Reload parses the templates again, picking up edits in the override dir.
func (r *Renderer) Reload() error {
	tmpl, err := template.New("").Funcs(funcMap).ParseFS(fragments, "fragments/*.html")
	if err != nil {
		return err
	}
	if r.dir != "" {
		matches, err := filepath.Glob(filepath.Join(r.dir, "*.html"))
		if err != nil {
			return err
		}
		if len(matches) > 0 {
			if tmpl, err = tmpl.ParseFiles(matches...); err != nil {
				return err
			}
		}
	}

	r.mu.Lock()
	r.templates = tmpl
	r.mu.Unlock()
	return nil
}
