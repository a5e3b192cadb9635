package epd

import (
	"fmt"
	"image"
)

// PackedLen is the wire length of a width x height frame.
func PackedLen(width, height int, p Palette) int {
	return (width*height*p.Bits + 7) / 8
}

// Pack encodes img in the panel's wire format. Each pixel becomes its
// palette code, written row-major and most significant bit first. Rows are
// not padded: codes run on across row boundaries and only the final byte is
// filled with zero bits.
//
// Pixels of a paletted image in p's colors are taken by index; anything else
// goes through Nearest.
func Pack(img image.Image, p Palette) ([]byte, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	b := img.Bounds()
	out := make([]byte, PackedLen(b.Dx(), b.Dy(), p))

	index := func(x, y int) int { return p.Nearest(img.At(x, y)) }
	if src, ok := img.(*image.Paletted); ok && samePalette(src, p) {
		index = func(x, y int) int { return int(src.ColorIndexAt(x, y)) }
	}

	bit := 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			i := index(x, y)
			if i >= len(p.Codes) {
				return nil, fmt.Errorf("pixel %d,%d: palette index %d out of range", x, y, i)
			}
			code := p.Codes[i]
			for k := p.Bits - 1; k >= 0; k-- {
				if code>>k&1 == 1 {
					out[bit/8] |= 0x80 >> (bit % 8)
				}
				bit++
			}
		}
	}
	return out, nil
}

func samePalette(img *image.Paletted, p Palette) bool {
	if len(img.Palette) != len(p.Colors) {
		return false
	}
	for i, c := range img.Palette {
		r, g, b, a := c.RGBA()
		pr, pg, pb, pa := p.Colors[i].RGBA()
		if r != pr || g != pg || b != pb || a != pa {
			return false
		}
	}
	return true
}
