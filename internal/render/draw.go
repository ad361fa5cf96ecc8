package render

import (
	"bytes"
	"fmt"
	"math"

	"github.com/gogpu/gg"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/planar"
	"github.com/paulmach/orb/simplify"
	"github.com/sirupsen/logrus"

	"github.com/joeblew999/plat-style/internal/style"
)

// SourceResolver loads the features of a style source.
type SourceResolver interface {
	FeatureCollection(name string, src style.Source) (*geojson.FeatureCollection, error)
}

// InlineSources resolves geojson sources whose data is embedded in the style.
type InlineSources struct{}

// FeatureCollection parses inline GeoJSON data.
func (InlineSources) FeatureCollection(name string, src style.Source) (*geojson.FeatureCollection, error) {
	if src.Type != "geojson" {
		return nil, fmt.Errorf("source %q: unsupported type %q", name, src.Type)
	}
	if len(src.Data) == 0 || src.Data[0] != '{' {
		return nil, fmt.Errorf("source %q: no inline data", name)
	}
	fc, err := geojson.UnmarshalFeatureCollection(src.Data)
	if err != nil {
		return nil, fmt.Errorf("source %q: %w", name, err)
	}
	return fc, nil
}

// Stats describes one drawn frame.
type Stats struct {
	Layers   int
	Features int
	Skipped  int
}

// minPixelArea culls polygons smaller than this on screen.
const minPixelArea = 0.25

type frame struct {
	dc    *gg.Context
	vp    Viewport
	view  orb.Bound
	stats Stats
	log   *logrus.Entry
}

// Draw renders doc into a PNG of the viewport's size. Symbol layers are not
// drawn; layers whose source fails to load are skipped and logged.
func Draw(doc *style.Document, vp Viewport, res SourceResolver, log *logrus.Entry) ([]byte, Stats, error) {
	if vp.Width <= 0 || vp.Height <= 0 {
		return nil, Stats{}, fmt.Errorf("render: invalid size %dx%d", vp.Width, vp.Height)
	}
	if log == nil {
		log = logrus.WithField("component", "render")
	}

	dc := gg.NewContext(vp.Width, vp.Height)
	defer dc.Close()

	f := &frame{dc: dc, vp: vp, view: vp.Bound(), log: log}
	sources := map[string]*geojson.FeatureCollection{}

	for _, l := range doc.Layers {
		if !l.Visible() || !inZoom(l, vp.Zoom) {
			continue
		}
		if l.Type == "background" {
			dc.ClearWithColor(paintColor(l, "background-color", "background-opacity", gg.RGBA{A: 1}))
			f.stats.Layers++
			continue
		}
		if l.Type == "symbol" {
			log.WithField("layer", l.ID).Debug("symbol layers are not drawn")
			continue
		}

		fc, ok := sources[l.Source]
		if !ok {
			src, found := doc.Sources[l.Source]
			if !found {
				log.WithField("layer", l.ID).Warnf("unknown source %q", l.Source)
				continue
			}
			var err error
			fc, err = res.FeatureCollection(l.Source, src)
			if err != nil {
				log.WithField("layer", l.ID).WithError(err).Warn("source unavailable")
			}
			sources[l.Source] = fc
		}
		if fc == nil {
			continue
		}
		if err := f.layer(l, fc); err != nil {
			return nil, f.stats, err
		}
		f.stats.Layers++
	}

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, f.stats, fmt.Errorf("render: encoding frame: %w", err)
	}
	return buf.Bytes(), f.stats, nil
}

func (f *frame) layer(l style.Layer, fc *geojson.FeatureCollection) error {
	for _, feat := range fc.Features {
		if feat.Geometry == nil || !feat.Geometry.Bound().Intersects(f.view) {
			f.stats.Skipped++
			continue
		}
		ok, err := l.Matches(feat.Properties)
		if err != nil {
			f.log.WithField("layer", l.ID).WithError(err).Warn("filter ignored")
			ok = true
		}
		if !ok {
			continue
		}

		var drawn bool
		switch l.Type {
		case "fill":
			drawn, err = f.fill(l, feat.Geometry)
		case "line":
			drawn, err = f.line(l, feat.Geometry)
		case "circle":
			drawn, err = f.circle(l, feat.Geometry)
		default:
			return nil
		}
		if err != nil {
			return fmt.Errorf("render: layer %q: %w", l.ID, err)
		}
		if drawn {
			f.stats.Features++
		}
	}
	return nil
}

// screen projects g to canvas pixels and drops detail below half a pixel.
func (f *frame) screen(g orb.Geometry) orb.Geometry {
	g = orb.Clone(g)
	switch geom := g.(type) {
	case orb.Point:
		return f.vp.Project(geom)
	case orb.MultiPoint:
		for i := range geom {
			geom[i] = f.vp.Project(geom[i])
		}
		return geom
	case orb.LineString:
		projectRing(f.vp, geom)
	case orb.MultiLineString:
		for _, ls := range geom {
			projectRing(f.vp, ls)
		}
	case orb.Polygon:
		for _, r := range geom {
			projectRing(f.vp, r)
		}
	case orb.MultiPolygon:
		for _, p := range geom {
			for _, r := range p {
				projectRing(f.vp, r)
			}
		}
	}
	return simplify.DouglasPeucker(0.5).Simplify(g)
}

func projectRing[T ~[]orb.Point](vp Viewport, pts T) {
	for i := range pts {
		pts[i] = vp.Project(pts[i])
	}
}

func (f *frame) fill(l style.Layer, g orb.Geometry) (bool, error) {
	var polys orb.MultiPolygon
	switch geom := f.screen(g).(type) {
	case orb.Polygon:
		polys = orb.MultiPolygon{geom}
	case orb.MultiPolygon:
		polys = geom
	default:
		return false, nil
	}

	dc := f.dc
	dc.SetFillRule(gg.FillRuleEvenOdd)
	n := 0
	for _, p := range polys {
		if len(p) == 0 || math.Abs(planar.Area(p)) < minPixelArea {
			continue
		}
		for _, r := range p {
			tracePath(dc, r, true)
		}
		n++
	}
	if n == 0 {
		return false, nil
	}

	c := paintColor(l, "fill-color", "fill-opacity", gg.RGBA{A: 1})
	dc.SetRGBA(c.R, c.G, c.B, c.A)
	if _, ok := l.PaintString("fill-outline-color"); !ok {
		return true, dc.Fill()
	}
	if err := dc.FillPreserve(); err != nil {
		return false, err
	}
	o := paintColor(l, "fill-outline-color", "fill-opacity", c)
	dc.SetRGBA(o.R, o.G, o.B, o.A)
	dc.SetLineWidth(1)
	return true, dc.Stroke()
}

func (f *frame) line(l style.Layer, g orb.Geometry) (bool, error) {
	var lines []orb.LineString
	closed := false
	switch geom := f.screen(g).(type) {
	case orb.LineString:
		lines = []orb.LineString{geom}
	case orb.MultiLineString:
		lines = geom
	case orb.Polygon:
		closed = true
		for _, r := range geom {
			lines = append(lines, orb.LineString(r))
		}
	case orb.MultiPolygon:
		closed = true
		for _, p := range geom {
			for _, r := range p {
				lines = append(lines, orb.LineString(r))
			}
		}
	default:
		return false, nil
	}

	dc := f.dc
	n := 0
	for _, ls := range lines {
		if len(ls) < 2 {
			continue
		}
		tracePath(dc, ls, closed)
		n++
	}
	if n == 0 {
		return false, nil
	}
	c := paintColor(l, "line-color", "line-opacity", gg.RGBA{A: 1})
	dc.SetRGBA(c.R, c.G, c.B, c.A)
	dc.SetLineWidth(paintNumber(l, "line-width", 1))
	dc.SetLineCap(gg.LineCapRound)
	dc.SetLineJoin(gg.LineJoinRound)
	return true, dc.Stroke()
}

func (f *frame) circle(l style.Layer, g orb.Geometry) (bool, error) {
	var pts []orb.Point
	switch geom := f.screen(g).(type) {
	case orb.Point:
		pts = []orb.Point{geom}
	case orb.MultiPoint:
		pts = geom
	default:
		return false, nil
	}

	dc := f.dc
	r := paintNumber(l, "circle-radius", 5)
	fillC := paintColor(l, "circle-color", "circle-opacity", gg.RGBA{A: 1})
	strokeW := paintNumber(l, "circle-stroke-width", 0)
	strokeC := paintColor(l, "circle-stroke-color", "circle-stroke-opacity", gg.RGBA{A: 1})

	for _, p := range pts {
		dc.DrawCircle(p[0], p[1], r)
		dc.SetRGBA(fillC.R, fillC.G, fillC.B, fillC.A)
		if strokeW <= 0 {
			if err := dc.Fill(); err != nil {
				return false, err
			}
			continue
		}
		if err := dc.FillPreserve(); err != nil {
			return false, err
		}
		dc.SetRGBA(strokeC.R, strokeC.G, strokeC.B, strokeC.A)
		dc.SetLineWidth(strokeW)
		if err := dc.Stroke(); err != nil {
			return false, err
		}
	}
	return len(pts) > 0, nil
}

func tracePath[T ~[]orb.Point](dc *gg.Context, pts T, closed bool) {
	for i, p := range pts {
		if i == 0 {
			dc.MoveTo(p[0], p[1])
		} else {
			dc.LineTo(p[0], p[1])
		}
	}
	if closed {
		dc.ClosePath()
	}
}
