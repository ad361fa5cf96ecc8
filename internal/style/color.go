package style

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/gogpu/gg"
)

var (
	rgbaPattern = regexp.MustCompile(`rgba?\((\d+), (\d+), (\d+)(?:, ([\d.]+))?\)`)
	hexPattern  = regexp.MustCompile(`^#([A-Fa-f0-9]{6})$`)
	anyHex      = regexp.MustCompile(`^#(?:[A-Fa-f0-9]{3,4}|[A-Fa-f0-9]{6}|[A-Fa-f0-9]{8})$`)
	cssRGB      = regexp.MustCompile(`^rgba?\(\s*([\d.]+)\s*,\s*([\d.]+)\s*,\s*([\d.]+)\s*(?:,\s*([\d.]+)\s*)?\)$`)
)

// RGBAToHex converts "rgb(r, g, b)" or "rgba(r, g, b, a)" to "#RRGGBB".
// Anything it cannot read, or a channel outside 0..255, gives white.
func RGBAToHex(s string) string {
	const white = "#FFFFFF"
	m := rgbaPattern.FindStringSubmatch(s)
	if m == nil {
		return white
	}
	var ch [3]int
	for i := range ch {
		v, err := strconv.Atoi(m[i+1])
		if err != nil || v < 0 || v > 255 {
			return white
		}
		ch[i] = v
	}
	return fmt.Sprintf("#%02X%02X%02X", ch[0], ch[1], ch[2])
}

// HexToRGBA converts "#rrggbb" to "rgba(r, g, b, a)" with alpha clamped to
// [0,1]. A malformed hex gives black with the alpha as passed.
func HexToRGBA(hex string, alpha float64) string {
	m := hexPattern.FindStringSubmatch(hex)
	if m == nil {
		return fmt.Sprintf("rgba(0, 0, 0, %s)", formatNumber(alpha))
	}
	n, _ := strconv.ParseUint(m[1], 16, 32)
	a := min(max(alpha, 0), 1)
	return fmt.Sprintf("rgba(%d, %d, %d, %s)", (n>>16)&255, (n>>8)&255, n&255, formatNumber(a))
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// ParseColor reads the colour forms found in style documents: #rgb, #rgba,
// #rrggbb, #rrggbbaa, rgb() and rgba(), plus a few CSS names.
func ParseColor(s string) (gg.RGBA, error) {
	s = strings.TrimSpace(s)
	if c, ok := namedColors[strings.ToLower(s)]; ok {
		return c, nil
	}
	if anyHex.MatchString(s) {
		return gg.Hex(s), nil
	}
	m := cssRGB.FindStringSubmatch(s)
	if m == nil {
		return gg.RGBA{}, fmt.Errorf("unsupported color %q", s)
	}
	var v [4]float64
	v[3] = 1
	for i := 0; i < 4; i++ {
		if m[i+1] == "" {
			continue
		}
		f, err := strconv.ParseFloat(m[i+1], 64)
		if err != nil {
			return gg.RGBA{}, fmt.Errorf("color %q: %w", s, err)
		}
		v[i] = f
	}
	return gg.RGBA{
		R: min(max(v[0]/255, 0), 1),
		G: min(max(v[1]/255, 0), 1),
		B: min(max(v[2]/255, 0), 1),
		A: min(max(v[3], 0), 1),
	}, nil
}

var namedColors = map[string]gg.RGBA{
	"transparent": {},
	"black":       {A: 1},
	"white":       {R: 1, G: 1, B: 1, A: 1},
	"red":         {R: 1, A: 1},
	"green":       {G: 128.0 / 255, A: 1},
	"blue":        {B: 1, A: 1},
	"gray":        {R: 128.0 / 255, G: 128.0 / 255, B: 128.0 / 255, A: 1},
	"grey":        {R: 128.0 / 255, G: 128.0 / 255, B: 128.0 / 255, A: 1},
}
