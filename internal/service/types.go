// Package service contains the business logic of the style editor: the
// edited style document, GeoJSON sources and the export pipeline.
package service

import (
	"time"
)

// LayerSummary is one row of the layer list.
type LayerSummary struct {
	ID      string `json:"id" doc:"Layer identifier" example:"roads"`
	Type    string `json:"type" doc:"Layer type" example:"line" enum:"background,fill,line,circle,symbol,raster,fill-extrusion,heatmap,hillshade"`
	Source  string `json:"source,omitempty" doc:"Source name" example:"city"`
	Visible bool   `json:"visible" doc:"Whether the layer is drawn"`
}

// Session describes the saved-style prompt shown on startup.
type Session struct {
	HasSaved bool   `json:"hasSaved" doc:"A saved style exists and can be resumed"`
	Resumed  bool   `json:"resumed" doc:"The saved style is the current style"`
	Version  int    `json:"version" doc:"Edit counter of the current style"`
	Name     string `json:"name,omitempty" doc:"Style name"`
}

// Option is a selectable frame style or effect.
type Option struct {
	Value string `json:"value" doc:"Identifier" example:"circle"`
	Label string `json:"label" doc:"Display label" example:"Circle Mask"`
}

// ExportOptions lists the choices of the export dialog.
type ExportOptions struct {
	Frames  []Option `json:"frames" doc:"Frame styles"`
	Effects []Option `json:"effects" doc:"Colour effects"`
	Width   int      `json:"width" doc:"Canvas width in pixels"`
	Height  int      `json:"height" doc:"Canvas height in pixels"`
}

// ExportInfo describes the current export without its pixels.
type ExportInfo struct {
	ID        string    `json:"id" doc:"Export ID (ULID)"`
	Frame     string    `json:"frame" doc:"Frame style"`
	Effect    string    `json:"effect" doc:"Colour effect"`
	Width     int       `json:"width" doc:"Width in pixels"`
	Height    int       `json:"height" doc:"Height in pixels"`
	Bytes     int       `json:"bytes" doc:"PNG size"`
	Filename  string    `json:"filename" doc:"Download filename" example:"map-export-circle-none.png"`
	CreatedAt time.Time `json:"createdAt" doc:"Completion time"`
}

// ExportStatus is the state of the export pipeline.
type ExportStatus struct {
	State   string      `json:"state" doc:"Pipeline state" enum:"idle,waitingForIdleRender,capturing,compositing,ready,failed"`
	Frame   string      `json:"frame,omitempty" doc:"Frame of the export in flight or last finished"`
	Effect  string      `json:"effect,omitempty" doc:"Effect of the export in flight or last finished"`
	Error   string      `json:"error,omitempty" doc:"Failure of the last attempt"`
	Current *ExportInfo `json:"current,omitempty" doc:"Current export, if any"`
}

// SourceFile represents a GeoJSON file in the sources directory.
type SourceFile struct {
	Name     string `json:"name" doc:"File name" example:"parks.geojson"`
	Size     string `json:"size" doc:"Human-readable file size" example:"1.2 MB"`
	FileType string `json:"fileType" doc:"File type" example:"GeoJSON"`
}
