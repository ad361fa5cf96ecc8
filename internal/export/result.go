package export

import (
	"fmt"
	"time"

	"github.com/joeblew999/plat-style/internal/effect"
	"github.com/joeblew999/plat-style/internal/mask"
	"github.com/joeblew999/plat-style/internal/raster"
)

// Result is a finished export.
type Result struct {
	ID        string          `json:"id"`
	Frame     mask.FrameStyle `json:"frame"`
	Effect    effect.Effect   `json:"effect"`
	Width     int             `json:"width"`
	Height    int             `json:"height"`
	PNG       []byte          `json:"-"`
	CreatedAt time.Time       `json:"createdAt"`
}

// Filename is the download name, map-export-<frame>-<effect>.png.
func (r *Result) Filename() string {
	return Filename(r.Frame, r.Effect)
}

// DataURI returns the PNG as a data: URI for previews.
func (r *Result) DataURI() string {
	return raster.DataURI(r.PNG)
}

// Filename builds the download name for a frame and effect.
func Filename(frame mask.FrameStyle, e effect.Effect) string {
	return fmt.Sprintf("map-export-%s-%s.png", frame, e)
}

// Download is the payload handed to the client.
type Download struct {
	Filename    string
	ContentType string
	Data        []byte
}
