package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/danielgtaylor/huma/v2/humacli"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/joeblew999/plat-style/internal/db"
	"github.com/joeblew999/plat-style/internal/effect"
	"github.com/joeblew999/plat-style/internal/mask"
	"github.com/joeblew999/plat-style/internal/render"
	"github.com/joeblew999/plat-style/internal/server"
	"github.com/joeblew999/plat-style/internal/service"
	"github.com/joeblew999/plat-style/pkg/styleclient"
)

// Options defines all CLI flags and env vars for the style server.
// Flags: --host, --port, --data-dir, --web-dir, --width, --height, --log-level
// Env vars: SERVICE_HOST, SERVICE_PORT, SERVICE_DATA_DIR, SERVICE_WEB_DIR, ...
type Options struct {
	Host     string `doc:"Host to bind to" default:"0.0.0.0"`
	Port     int    `doc:"Port to listen on" short:"p" default:"8086"`
	DataDir  string `doc:"Directory for the saved style, sources and export history" default:".data"`
	WebDir   string `doc:"Path to web/ directory" default:"web"`
	Width    int    `doc:"Map canvas width in pixels" default:"1024"`
	Height   int    `doc:"Map canvas height in pixels" default:"768"`
	LogLevel string `doc:"Log level (debug, info, warn, error)" default:"info"`
}

func setupLogging(level string) {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		logrus.Fatalf("Invalid log level: %v", err)
	}
	logrus.SetLevel(lvl)
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})
}

func newServer(opts *Options) *server.Server {
	setupLogging(opts.LogLevel)
	return server.New(server.Config{
		Host:    opts.Host,
		Port:    fmt.Sprintf("%d", opts.Port),
		DataDir: opts.DataDir,
		WebDir:  opts.WebDir,
		Width:   opts.Width,
		Height:  opts.Height,
	})
}

func main() {
	if err := godotenv.Load(); err != nil {
		logrus.Debug("No .env file found")
	}

	cli := humacli.New(func(hooks humacli.Hooks, opts *Options) {
		var srv *server.Server
		var httpServer *http.Server

		hooks.OnStart(func() {
			srv = newServer(opts)
			addr := fmt.Sprintf("%s:%d", opts.Host, opts.Port)
			displayHost := opts.Host
			if displayHost == "0.0.0.0" {
				displayHost = "localhost"
			}
			baseURL := fmt.Sprintf("http://%s:%d", displayHost, opts.Port)

			fmt.Println()
			fmt.Printf("plat-style server starting...\n")
			fmt.Printf("  Server:  %s\n", baseURL)
			fmt.Printf("  Data:    %s\n", opts.DataDir)
			fmt.Printf("  Canvas:  %dx%d\n", opts.Width, opts.Height)
			fmt.Println()
			fmt.Printf("  Editor:  %s/editor\n", baseURL)
			fmt.Printf("  Docs:    %s/docs\n", baseURL)
			fmt.Printf("  OpenAPI: %s/openapi.json\n", baseURL)
			fmt.Println()

			httpServer = &http.Server{Addr: addr, Handler: srv}
			if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logrus.Fatalf("Server error: %v", err)
			}
		})

		hooks.OnStop(func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if httpServer != nil {
				httpServer.Shutdown(ctx)
			}
			if srv != nil {
				srv.Close()
			}
		})
	})

	cli.Root().Use = "style"
	cli.Root().Short = "Map style editor with framed image export"
	cli.Root().Version = "0.1.0"

	// spec subcommand: export OpenAPI spec
	specCmd := &cobra.Command{
		Use:   "spec",
		Short: "Export OpenAPI spec (JSON by default, --yaml for YAML)",
		Run: humacli.WithOptions(func(cmd *cobra.Command, args []string, opts *Options) {
			srv := newServer(opts)
			defer srv.Close()
			spec := srv.OpenAPI()

			useYAML, _ := cmd.Flags().GetBool("yaml")

			var output []byte
			var err error
			if useYAML {
				output, err = yaml.Marshal(spec)
			} else {
				output, err = json.MarshalIndent(spec, "", "  ")
			}
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error marshaling spec: %v\n", err)
				os.Exit(1)
			}
			fmt.Println(string(output))
		}),
	}
	specCmd.Flags().BoolP("yaml", "y", false, "Output as YAML instead of JSON")
	cli.Root().AddCommand(specCmd)

	// export subcommand: render the saved style to a PNG
	exportCmd := &cobra.Command{
		Use:   "export",
		Short: "Export the map as a framed PNG",
		Run: humacli.WithOptions(func(cmd *cobra.Command, args []string, opts *Options) {
			setupLogging(opts.LogLevel)
			frame, _ := cmd.Flags().GetString("frame")
			fx, _ := cmd.Flags().GetString("effect")
			out, _ := cmd.Flags().GetString("output")
			remote, _ := cmd.Flags().GetString("server")

			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
			defer cancel()

			var name string
			var data []byte
			var err error
			if remote != "" {
				name, data, err = exportRemote(ctx, remote, frame, fx)
			} else {
				name, data, err = exportLocal(ctx, opts, frame, fx)
			}
			if err != nil {
				fmt.Fprintf(os.Stderr, "Export failed: %v\n", err)
				os.Exit(1)
			}

			if out == "" {
				out = name
			}
			if err := os.WriteFile(out, data, 0o644); err != nil {
				fmt.Fprintf(os.Stderr, "Error writing %s: %v\n", out, err)
				os.Exit(1)
			}
			fmt.Printf("Wrote %s (%d bytes)\n", out, len(data))
		}),
	}
	exportCmd.Flags().String("frame", "none", "Frame style (none, circle, fade, square, squareFade, roundedSquare, diamond, hexagon)")
	exportCmd.Flags().String("effect", "none", "Colour effect (none, grayscale, sepia, invert, vintage)")
	exportCmd.Flags().StringP("output", "o", "", "Output file (default: export filename)")
	exportCmd.Flags().String("server", "", "Export through a running server at this URL")
	cli.Root().AddCommand(exportCmd)

	cli.Run()
}

func exportRemote(ctx context.Context, baseURL, frame, fx string) (string, []byte, error) {
	c := styleclient.New(baseURL)
	status, err := c.Generate(ctx, frame, fx)
	if err != nil {
		return "", nil, err
	}
	if status.State != "ready" {
		return "", nil, fmt.Errorf("export ended in state %s: %s", status.State, status.Error)
	}
	return c.Download(ctx)
}

// exportLocal renders the saved style of the data dir, or the default
// style, without starting a server.
func exportLocal(ctx context.Context, opts *Options, frame, fx string) (string, []byte, error) {
	f, err := mask.ParseFrameStyle(frame)
	if err != nil {
		return "", nil, err
	}
	e, err := effect.ParseEffect(fx)
	if err != nil {
		return "", nil, err
	}

	bus := service.NewEventBus()
	styles := service.NewStyleService(opts.DataDir, bus)
	if _, err := styles.Resume(); err != nil {
		return "", nil, err
	}
	sources := service.NewSourceService(opts.DataDir)

	r := render.New(opts.Width, opts.Height, render.WithSources(sources))
	r.SetStyle(styles.Current())
	runCtx, stop := context.WithCancel(ctx)
	defer stop()
	go r.Run(runCtx)

	var history service.HistoryStore
	if conn, err := db.Get(db.Config{DataDir: opts.DataDir, DBName: "style"}); err == nil {
		defer db.Close()
		if h, err := db.NewExportHistory(ctx, conn); err == nil {
			history = h
		}
	} else {
		logrus.WithError(err).Debug("export history disabled")
	}

	exports := service.NewExportService(r, history, bus)
	if _, err := exports.Generate(ctx, f, e); err != nil {
		return "", nil, err
	}
	dl, err := exports.Download()
	if err != nil {
		return "", nil, err
	}
	return filepath.Base(dl.Filename), dl.Data, nil
}
