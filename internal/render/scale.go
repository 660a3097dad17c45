// Package render turns availability levels into something to look at: a
// level->color scale, a PNG stripe of per-day levels and an HTML preview card.
//
// Nothing here feeds back into the availability engine; the engine only hands
// over integer levels in [0, total].
package render

import (
	"fmt"
	"image/color"
	"math"
)

// DefaultHue is the OKLCH hue of the default purple brand color.
const DefaultHue = 277

// Scale maps a level in [0, Total] to a color. Level 0 uses Zero; every other
// level is interpolated linearly on level/Total between two OKLCH endpoints.
type Scale struct {
	Total int
	Hue   float64
	Dark  bool
	Zero  color.NRGBA
}

// NewScale builds a scale for total participants.
func NewScale(total int, hue float64, dark bool) Scale {
	zero := color.NRGBA{R: 0xe6, G: 0xe1, B: 0xf4, A: 0xff}
	if dark {
		zero = color.NRGBA{R: 0x2a, G: 0x27, B: 0x3a, A: 0xff}
	}
	return Scale{Total: total, Hue: hue, Dark: dark, Zero: zero}
}

// Ratio is level/Total clamped to [0, 1]; 0 when nobody responded.
func (s Scale) Ratio(level int) float64 {
	if s.Total <= 0 || level <= 0 {
		return 0
	}
	return math.Min(1, float64(level)/float64(s.Total))
}

// OKLCH returns lightness, chroma and hue for a non-zero level.
func (s Scale) OKLCH(level int) (l, c, h float64) {
	r := s.Ratio(level)
	if s.Dark {
		// Brighter as more people are free: L 0.35 -> 0.9.
		return math.Min(0.9, 0.35+r*0.55), math.Min(0.18, 0.08+r*0.08), s.Hue
	}
	// Darker as more people are free: L 0.9 -> 0.4.
	return math.Max(0.3, 0.9-r*0.5), math.Min(0.18, 0.06+r*0.12), s.Hue
}

// CSS returns the color as a CSS value.
func (s Scale) CSS(level int) string {
	if level <= 0 || s.Total <= 0 {
		return hex(s.Zero)
	}
	l, c, h := s.OKLCH(level)
	return fmt.Sprintf("oklch(%.3f %.3f %.1f)", l, c, h)
}

// Color returns the sRGB color for level.
func (s Scale) Color(level int) color.NRGBA {
	if level <= 0 || s.Total <= 0 {
		return s.Zero
	}
	return oklchToNRGBA(s.OKLCH(level))
}

// Map returns the CSS color of every level 0..Total.
func (s Scale) Map() map[int]string {
	m := make(map[int]string, s.Total+1)
	for level := 0; level <= s.Total; level++ {
		m[level] = s.CSS(level)
	}
	return m
}

func hex(c color.NRGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// oklchToNRGBA converts via OKLab and linear sRGB, clipping out-of-gamut
// channels.
func oklchToNRGBA(l, c, h float64) color.NRGBA {
	rad := h * math.Pi / 180
	a, b := c*math.Cos(rad), c*math.Sin(rad)

	l1 := l + 0.3963377774*a + 0.2158037573*b
	m1 := l - 0.1055613458*a - 0.0638541728*b
	s1 := l - 0.0894841775*a - 1.2914855480*b
	l3, m3, s3 := l1*l1*l1, m1*m1*m1, s1*s1*s1

	r := +4.0767416621*l3 - 3.3077115913*m3 + 0.2309699292*s3
	g := -1.2684380046*l3 + 2.6097574011*m3 - 0.3413193965*s3
	bl := -0.0041960863*l3 - 0.7034186147*m3 + 1.7076147010*s3

	return color.NRGBA{R: toByte(r), G: toByte(g), B: toByte(bl), A: 0xff}
}

func toByte(linear float64) uint8 {
	v := math.Max(0, math.Min(1, linear))
	if v <= 0.0031308 {
		v *= 12.92
	} else {
		v = 1.055*math.Pow(v, 1/2.4) - 0.055
	}
	return uint8(math.Round(math.Max(0, math.Min(1, v)) * 255))
}
