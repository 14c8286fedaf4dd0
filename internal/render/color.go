package render

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/lucasb-eyer/go-colorful"
)

// namedColors covers the color names clients most commonly pass.
var namedColors = map[string]string{
	"black":          "#000000",
	"white":          "#ffffff",
	"red":            "#ff0000",
	"green":          "#008000",
	"lime":           "#00ff00",
	"blue":           "#0000ff",
	"yellow":         "#ffff00",
	"cyan":           "#00ffff",
	"magenta":        "#ff00ff",
	"gray":           "#808080",
	"grey":           "#808080",
	"lightgray":      "#d3d3d3",
	"lightgrey":      "#d3d3d3",
	"darkgray":       "#a9a9a9",
	"darkgrey":       "#a9a9a9",
	"orange":         "#ffa500",
	"purple":         "#800080",
	"pink":           "#ffc0cb",
	"brown":          "#a52a2a",
	"gold":           "#ffd700",
	"salmon":         "#fa8072",
	"tan":            "#d2b48c",
	"beige":          "#f5f5dc",
	"navy":           "#000080",
	"teal":           "#008080",
	"lightblue":      "#add8e6",
	"steelblue":      "#4682b4",
	"lightsteelblue": "#b0c4de",
	"skyblue":        "#87ceeb",
	"paraview":       "#52576e",
}

// Color is a parsed color with alpha in [0, 1].
type Color struct {
	colorful.Color
	Alpha float64
}

// ParseColor accepts a color name or a "#RGB", "#RRGGBB" or "#RRGGBBAA" hex
// string.
func ParseColor(s string) (Color, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	if key == "" {
		return Color{}, errors.New("empty color string")
	}
	if hex, ok := namedColors[key]; ok {
		key = hex
	}
	if !strings.HasPrefix(key, "#") {
		return Color{}, errors.Newf("unknown color %q", s)
	}

	alpha := 1.0
	switch len(key) {
	case 4:
		// expand #rgb
		key = "#" + strings.Repeat(key[1:2], 2) + strings.Repeat(key[2:3], 2) + strings.Repeat(key[3:4], 2)
	case 9:
		a, err := strconv.ParseUint(key[7:], 16, 8)
		if err != nil {
			return Color{}, errors.Wrapf(err, "invalid alpha in %q", s)
		}
		alpha = float64(a) / 255
		key = key[:7]
	case 7:
	default:
		return Color{}, errors.Newf("invalid hex color length in %q", s)
	}

	c, err := colorful.Hex(key)
	if err != nil {
		return Color{}, errors.Wrapf(err, "invalid color %q", s)
	}
	return Color{Color: c, Alpha: alpha}, nil
}

// X3D formats the color as an X3D "r g b" triple.
func (c Color) X3D() string {
	return fmt.Sprintf("%.4g %.4g %.4g", c.R, c.G, c.B)
}

// shade scales the color toward black by intensity in [0, 1] and returns an
// opaque RGBA value.
func (c Color) shade(intensity float64) color.RGBA {
	r, g, b := colorful.Color{}.BlendRgb(c.Color, intensity).Clamped().RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 255}
}

func (c Color) rgba() color.RGBA {
	r, g, b := c.Clamped().RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 255}
}
