package mask

import "math"

// Padding is the inset between the canvas edge and every framed shape.
const Padding = 10.0

const minBand = 1.0

// Build returns the mask geometry of style for a width x height canvas.
// A non-positive size, or a canvas too small to hold the inset shape,
// yields the none descriptor.
func Build(style FrameStyle, width, height int) Descriptor {
	none := Descriptor{Style: None, Kind: KindNone, Width: width, Height: height}
	if width <= 0 || height <= 0 || style == None {
		return none
	}

	w, h := float64(width), float64(height)
	cx, cy := w/2, h/2
	short := math.Min(w, h)
	side := short - 2*Padding

	d := Descriptor{Style: style, Width: width, Height: height}
	switch style {
	case Fade:
		d.Kind = KindRadial
		d.Radial = &Radial{Center: Point{cx, cy}, Radius: short / 2, InnerAlpha: 1}
		return d
	case Circle:
		r := short/2 - Padding
		if r <= 0 {
			return none
		}
		d.Kind = KindPath
		d.Path = circlePath(cx, cy, r)
		return d
	}

	if side <= 0 {
		return none
	}
	half := side / 2

	switch style {
	case Square:
		d.Kind = KindPath
		d.Path = rectPath(cx-half, cy-half, side, side)
	case RoundedSquare:
		d.Kind = KindPath
		d.Path = roundedRectPath(cx-half, cy-half, side, side, side/12)
	case Diamond:
		d.Kind = KindPath
		d.Path = polygonPath([]Point{
			{cx, cy - half},
			{cx + half, cy},
			{cx, cy + half},
			{cx - half, cy},
		})
	case Hexagon:
		d.Kind = KindPath
		d.Path = polygonPath(HexagonVertices(cx, cy, half))
	case SquareFade:
		// each edge band must cover at least one pixel centre
		if side < 4*minBand {
			return none
		}
		d.Kind = KindErodedPath
		d.Path = rectPath(cx-half, cy-half, side, side)
		d.Strips = fadeStrips(cx-half, cy-half, side)
	default:
		return none
	}
	return d
}

// HexagonVertices returns the six corners of a regular hexagon of radius r
// centred on (cx, cy), at 60*i - 90 degrees so the first corner points up.
func HexagonVertices(cx, cy, r float64) []Point {
	pts := make([]Point, 6)
	for i := range pts {
		a := (60*float64(i) - 90) * math.Pi / 180
		pts[i] = Point{cx + r*math.Cos(a), cy + r*math.Sin(a)}
	}
	return pts
}

// fadeStrips builds the four edge bands of a squareFade frame in the order
// they are erased: left, right, top, bottom. Each band is side/4 deep; the
// gradient starts at the centre of the outermost pixel row or column so that
// row is erased completely.
func fadeStrips(x, y, side float64) []Strip {
	band := side / 4
	const px = 0.5
	return []Strip{
		{
			Area: Rect{MinX: x, MinY: y, MaxX: x + band, MaxY: y + side},
			From: Point{x + px, y}, To: Point{x + band, y},
		},
		{
			Area: Rect{MinX: x + side - band, MinY: y, MaxX: x + side, MaxY: y + side},
			From: Point{x + side - px, y}, To: Point{x + side - band, y},
		},
		{
			Area: Rect{MinX: x, MinY: y, MaxX: x + side, MaxY: y + band},
			From: Point{x, y + px}, To: Point{x, y + band},
		},
		{
			Area: Rect{MinX: x, MinY: y + side - band, MaxX: x + side, MaxY: y + side},
			From: Point{x, y + side - px}, To: Point{x, y + side - band},
		},
	}
}
