package server

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humago"
	"github.com/sirupsen/logrus"

	"github.com/joeblew999/plat-style/internal/api"
	"github.com/joeblew999/plat-style/internal/api/editor"
	"github.com/joeblew999/plat-style/internal/db"
	"github.com/joeblew999/plat-style/internal/humastar"
	"github.com/joeblew999/plat-style/internal/render"
	"github.com/joeblew999/plat-style/internal/service"
)

//go:embed editor.html
var editorPage []byte

// Config holds the server configuration.
type Config struct {
	Host    string
	Port    string
	DataDir string
	WebDir  string // Path to web/ directory for static files and template overrides
	Width   int    // Map canvas size in pixels
	Height  int
}

// Server is the style editor HTTP server.
type Server struct {
	config    Config
	mux       *http.ServeMux
	humaAPI   huma.API
	db        *sql.DB
	bus       *service.EventBus
	services  *api.Services
	renderer  *render.Renderer
	fragments *humastar.Renderer
	log       *logrus.Entry
	cancel    context.CancelFunc
}

// New creates a new server and starts its map renderer.
func New(cfg Config) *Server {
	if cfg.Width <= 0 {
		cfg.Width = 1024
	}
	if cfg.Height <= 0 {
		cfg.Height = 768
	}
	log := logrus.WithField("component", "server")
	mux := http.NewServeMux()

	humaConfig := huma.DefaultConfig("plat-style API", "1.0.0")
	humaConfig.Info.Description = "Map style editor with framed and filtered image export."
	humaConfig.Servers = []*huma.Server{
		{URL: fmt.Sprintf("http://%s:%s", cfg.Host, cfg.Port), Description: "Local server"},
	}
	// Disable $schema property in responses (cleaner JSON)
	humaConfig.CreateHooks = []func(huma.Config) huma.Config{}
	humaConfig.Transformers = append(humaConfig.Transformers, api.LinkTransformer())

	humaAPI := humago.New(mux, humaConfig)

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		log.WithError(err).Warn("data directory not created")
	}

	bus := service.NewEventBus()
	sources := service.NewSourceService(cfg.DataDir)
	styles := service.NewStyleService(cfg.DataDir, bus)

	r := render.New(cfg.Width, cfg.Height, render.WithSources(sources))
	r.SetStyle(styles.Current())
	styles.OnChange(r.SetStyle)

	s := &Server{
		config:   cfg,
		mux:      mux,
		humaAPI:  humaAPI,
		bus:      bus,
		renderer: r,
		log:      log,
	}

	conn, err := db.Get(db.Config{DataDir: cfg.DataDir, DBName: "style"})
	var history service.HistoryStore
	if err != nil {
		log.WithError(err).Warn("export history disabled")
	} else if h, err := db.NewExportHistory(context.Background(), conn); err != nil {
		log.WithError(err).Warn("export history disabled")
	} else {
		s.db = conn
		history = h
	}

	s.services = &api.Services{
		Style:  styles,
		Source: sources,
		Export: service.NewExportService(r, history, bus),
	}

	fragmentsDir := ""
	if cfg.WebDir != "" {
		fragmentsDir = filepath.Join(cfg.WebDir, "templates", "fragments")
	}
	if fr, err := humastar.NewRenderer(fragmentsDir); err == nil {
		s.fragments = fr
	} else {
		log.WithError(err).Warn("fragment overrides ignored")
		s.fragments = humastar.MustRenderer()
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	go func() {
		if err := r.Run(ctx); err != nil && ctx.Err() == nil {
			log.WithError(err).Error("renderer stopped")
		}
	}()

	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// OpenAPI returns the generated OpenAPI document.
func (s *Server) OpenAPI() *huma.OpenAPI {
	return s.humaAPI.OpenAPI()
}

// Services returns the services behind the API.
func (s *Server) Services() *api.Services {
	return s.services
}

// Close stops the renderer and closes server resources.
func (s *Server) Close() error {
	s.cancel()
	return db.Close()
}

func (s *Server) routes() {
	// REST API (OpenAPI-documented JSON endpoints)
	api.RegisterRoutes(s.humaAPI, s.services)
	api.NewInfoHandler(s.config.DataDir, s.db != nil).RegisterRoutes(s.humaAPI)
	api.NewDBHandler(s.db).RegisterRoutes(s.humaAPI)

	// Editor SSE routes using Huma + Datastar SDK
	editor.NewLayerHandler(s.services.Style, s.fragments).RegisterRoutes(s.humaAPI)
	editor.NewSourceHandler(s.services.Source, s.fragments).RegisterRoutes(s.humaAPI)
	editor.NewExportHandler(s.services.Export, s.fragments).RegisterRoutes(s.humaAPI)
	editor.NewSessionHandler(s.services.Style, s.fragments).RegisterRoutes(s.humaAPI)
	editor.NewEventHandler(s.services.Style, s.bus, s.fragments).RegisterRoutes(s.humaAPI)

	if s.config.WebDir != "" {
		staticDir := filepath.Join(s.config.WebDir, "static")
		s.mux.Handle("/static/", http.StripPrefix("/static/", http.FileServer(http.Dir(staticDir))))
	}

	s.mux.HandleFunc("/editor", s.handleEditor)
	s.mux.HandleFunc("/", s.handleRoot)
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	http.Redirect(w, r, "/editor", http.StatusFound)
}

// handleEditor serves web/templates/editor.html when present, else the
// built-in page.
func (s *Server) handleEditor(w http.ResponseWriter, r *http.Request) {
	if s.config.WebDir != "" {
		templatePath := filepath.Join(s.config.WebDir, "templates", "editor.html")
		if _, err := os.Stat(templatePath); err == nil {
			http.ServeFile(w, r, templatePath)
			return
		}
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(editorPage)
}
