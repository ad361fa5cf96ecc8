// Package styleclient is a Go client for the plat-style API.
package styleclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Health is the health check response.
type Health struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

// Info describes the server.
type Info struct {
	Name    string   `json:"name"`
	Version string   `json:"version"`
	DataDir string   `json:"data_dir"`
	DB      bool     `json:"db"`
	Frames  []string `json:"frames"`
	Effects []string `json:"effects"`
}

// Layer is one row of the layer list.
type Layer struct {
	ID      string `json:"id"`
	Type    string `json:"type"`
	Source  string `json:"source,omitempty"`
	Visible bool   `json:"visible"`
}

// ExportInfo describes a finished export.
type ExportInfo struct {
	ID        string    `json:"id"`
	Frame     string    `json:"frame"`
	Effect    string    `json:"effect"`
	Width     int       `json:"width"`
	Height    int       `json:"height"`
	Bytes     int       `json:"bytes"`
	Filename  string    `json:"filename"`
	CreatedAt time.Time `json:"createdAt"`
}

// ExportStatus is the state of the export pipeline.
type ExportStatus struct {
	State   string      `json:"state"`
	Frame   string      `json:"frame,omitempty"`
	Effect  string      `json:"effect,omitempty"`
	Error   string      `json:"error,omitempty"`
	Current *ExportInfo `json:"current,omitempty"`
}

// Error is a problem+json error returned by the API.
type Error struct {
	Status int    `json:"status"`
	Title  string `json:"title"`
	Detail string `json:"detail"`
}

func (e *Error) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%d %s: %s", e.Status, e.Title, e.Detail)
	}
	return fmt.Sprintf("%d %s", e.Status, e.Title)
}

// Client calls a plat-style server.
type Client struct {
	baseURL string
	http    *http.Client
}

// New creates a client for the server at baseURL.
func New(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 2 * time.Minute},
	}
}

func (c *Client) Health(ctx context.Context) (Health, error) {
	var out Health
	err := c.do(ctx, http.MethodGet, "/health", nil, &out)
	return out, err
}

func (c *Client) Info(ctx context.Context) (Info, error) {
	var out Info
	err := c.do(ctx, http.MethodGet, "/api/v1/info", nil, &out)
	return out, err
}

func (c *Client) Layers(ctx context.Context) ([]Layer, error) {
	var out []Layer
	err := c.do(ctx, http.MethodGet, "/api/v1/layers", nil, &out)
	return out, err
}

// ToggleLayer flips the visibility of a layer and returns the new state.
func (c *Client) ToggleLayer(ctx context.Context, id string) (bool, error) {
	var out struct {
		Visible bool `json:"visible"`
	}
	err := c.do(ctx, http.MethodPost, "/api/v1/layers/"+url.PathEscape(id)+"/toggle", nil, &out)
	return out.Visible, err
}

// Generate runs an export on the server and waits for it.
func (c *Client) Generate(ctx context.Context, frame, effect string) (ExportStatus, error) {
	var out ExportStatus
	req := map[string]string{"frame": frame, "effect": effect}
	err := c.do(ctx, http.MethodPost, "/api/v1/export", req, &out)
	return out, err
}

// Download fetches the current export as PNG bytes and its filename.
func (c *Client) Download(ctx context.Context) (string, []byte, error) {
	resp, err := c.send(ctx, http.MethodGet, "/api/v1/export/download", nil)
	if err != nil {
		return "", nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", nil, err
	}
	filename := "map-export.png"
	if _, params, err := mime.ParseMediaType(resp.Header.Get("Content-Disposition")); err == nil && params["filename"] != "" {
		filename = params["filename"]
	}
	return filename, data, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	resp, err := c.send(ctx, method, path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *Client) send(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		r = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, r)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		defer resp.Body.Close()
		apiErr := &Error{Status: resp.StatusCode, Title: http.StatusText(resp.StatusCode)}
		_ = json.NewDecoder(resp.Body).Decode(apiErr)
		return nil, apiErr
	}
	return resp, nil
}
