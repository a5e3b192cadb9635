package epd

import (
	"image"
	"image/draw"

	xdraw "golang.org/x/image/draw"
)

// Quantize maps img onto the palette. Continuous-tone images are flattened
// onto white and dithered with Floyd-Steinberg error diffusion. Paletted
// images are mapped color by color without dithering, so quantizing a
// quantized image returns it unchanged.
func Quantize(img image.Image, p Palette) *image.Paletted {
	b := img.Bounds()
	out := image.NewPaletted(image.Rect(0, 0, b.Dx(), b.Dy()), p.ColorPalette())

	if src, ok := img.(*image.Paletted); ok {
		lookup := make([]uint8, len(src.Palette))
		for i, c := range src.Palette {
			lookup[i] = uint8(p.Nearest(c))
		}
		for y := 0; y < b.Dy(); y++ {
			for x := 0; x < b.Dx(); x++ {
				out.SetColorIndex(x, y, lookup[src.ColorIndexAt(b.Min.X+x, b.Min.Y+y)])
			}
		}
		return out
	}

	flat := image.NewRGBA(out.Bounds())
	draw.Draw(flat, flat.Bounds(), image.White, image.Point{}, draw.Src)
	draw.Draw(flat, flat.Bounds(), img, b.Min, draw.Over)
	xdraw.FloydSteinberg.Draw(out, out.Bounds(), flat, image.Point{})
	return out
}
