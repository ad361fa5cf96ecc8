// Package mask builds the frame shapes applied to exported map snapshots.
//
// Build turns a FrameStyle and a canvas size into a Descriptor: a closed path,
// a radial gradient, or an opaque path with erase gradients. Rasterize turns a
// Descriptor into a per-pixel alpha mask that the compositor multiplies into
// the destination ("destination-in").
package mask

import "fmt"

// FrameStyle selects the decorative frame of an export.
type FrameStyle string

const (
	None          FrameStyle = "none"
	Circle        FrameStyle = "circle"
	Fade          FrameStyle = "fade"
	Square        FrameStyle = "square"
	SquareFade    FrameStyle = "squareFade"
	RoundedSquare FrameStyle = "roundedSquare"
	Diamond       FrameStyle = "diamond"
	Hexagon       FrameStyle = "hexagon"
)

// Styles lists every supported frame style in menu order.
var Styles = []FrameStyle{None, Circle, Fade, Square, SquareFade, RoundedSquare, Diamond, Hexagon}

// Labels are the human readable names shown in the editor.
var Labels = map[FrameStyle]string{
	None:          "No Frame",
	Circle:        "Circle Mask",
	Fade:          "Fade Edges",
	Square:        "Square",
	SquareFade:    "Square Fade",
	RoundedSquare: "Rounded Square",
	Diamond:       "Diamond",
	Hexagon:       "Hexagon",
}

// ParseFrameStyle validates a frame style name. The empty string is none.
func ParseFrameStyle(s string) (FrameStyle, error) {
	if s == "" {
		return None, nil
	}
	for _, f := range Styles {
		if string(f) == s {
			return f, nil
		}
	}
	return None, fmt.Errorf("unknown frame style %q", s)
}

func (f FrameStyle) String() string { return string(f) }
