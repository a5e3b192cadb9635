// Package epd converts images into what an e-paper panel can show: a small
// fixed palette and the bit-packed wire format the client firmware reads.
package epd

import (
	"fmt"
	"image/color"
	"strings"
)

// Palette is the ordered set of colors a panel can render. Codes[i] is the
// bit pattern the firmware expects for Colors[i].
type Palette struct {
	Name   string
	Colors []color.RGBA
	Codes  []uint8
	Bits   int
}

var (
	black  = color.RGBA{0, 0, 0, 255}
	white  = color.RGBA{255, 255, 255, 255}
	red    = color.RGBA{255, 0, 0, 255}
	green  = color.RGBA{0, 255, 0, 255}
	blue   = color.RGBA{0, 0, 255, 255}
	yellow = color.RGBA{255, 255, 0, 255}
	orange = color.RGBA{255, 128, 0, 255}
)

// BlackWhite is the plain monochrome panel.
var BlackWhite = Palette{
	Name:   "bw",
	Colors: []color.RGBA{black, white},
	Codes:  []uint8{0, 1},
	Bits:   1,
}

// BlackWhiteRed is the three color panel. The firmware reads two bits per
// pixel: 00 black, 01 white, 11 red.
var BlackWhiteRed = Palette{
	Name:   "bwr",
	Colors: []color.RGBA{black, white, red},
	Codes:  []uint8{0b00, 0b01, 0b11},
	Bits:   2,
}

// SevenColor is the ACeP panel, three bits per pixel in controller order.
var SevenColor = Palette{
	Name:   "7color",
	Colors: []color.RGBA{black, white, green, blue, red, yellow, orange},
	Codes:  []uint8{0, 1, 2, 3, 4, 5, 6},
	Bits:   3,
}

// Palettes lists the supported palettes, default first.
var Palettes = []Palette{BlackWhiteRed, BlackWhite, SevenColor}

// PaletteByName looks up a palette. The empty name selects the default.
func PaletteByName(name string) (Palette, error) {
	if name == "" {
		return Palettes[0], nil
	}
	for _, p := range Palettes {
		if strings.EqualFold(p.Name, name) {
			return p, nil
		}
	}
	return Palette{}, fmt.Errorf("unknown palette %q", name)
}

// Validate checks that colors and codes correspond and codes fit in Bits.
func (p Palette) Validate() error {
	if len(p.Colors) == 0 {
		return fmt.Errorf("palette %s: no colors", p.Name)
	}
	if len(p.Colors) != len(p.Codes) {
		return fmt.Errorf("palette %s: %d colors but %d codes", p.Name, len(p.Colors), len(p.Codes))
	}
	if p.Bits < 1 || p.Bits > 8 {
		return fmt.Errorf("palette %s: %d bits per pixel", p.Name, p.Bits)
	}
	for i, code := range p.Codes {
		if int(code)>>p.Bits != 0 {
			return fmt.Errorf("palette %s: code %#b of color %d does not fit in %d bits", p.Name, code, i, p.Bits)
		}
	}
	return nil
}

// Nearest returns the index of the palette color closest to c by squared
// RGB distance. Ties go to the lowest index.
func (p Palette) Nearest(c color.Color) int {
	r, g, b := rgb8(c)
	best, bestDist := 0, -1
	for i, pc := range p.Colors {
		dr := r - int(pc.R)
		dg := g - int(pc.G)
		db := b - int(pc.B)
		d := dr*dr + dg*dg + db*db
		if bestDist < 0 || d < bestDist {
			best, bestDist = i, d
		}
	}
	return best
}

// ColorPalette returns the colors as a color.Palette for image.Paletted.
func (p Palette) ColorPalette() color.Palette {
	out := make(color.Palette, len(p.Colors))
	for i, c := range p.Colors {
		out[i] = c
	}
	return out
}

// rgb8 flattens c onto white and returns 8-bit channels.
func rgb8(c color.Color) (int, int, int) {
	r, g, b, a := c.RGBA()
	// Premultiplied: add the white that shows through.
	bg := 0xffff - a
	return int((r + bg) >> 8), int((g + bg) >> 8), int((b + bg) >> 8)
}
