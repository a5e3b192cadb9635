// Package graphics draws the small amount of text and shapes the content
// producers need: labels, boxed captions, dots and dashed rules.
//
// Text uses the 7x13 bitmap face from golang.org/x/image, scaled up by whole
// pixels so it stays crisp on e-paper.
package graphics

import (
	"image"
	"image/color"
	"image/draw"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

var (
	Black = color.RGBA{0, 0, 0, 255}
	White = color.RGBA{255, 255, 255, 255}
	Red   = color.RGBA{255, 0, 0, 255}
)

// Anchor selects how a text box is positioned.
type Anchor int

const (
	// AtPoint centers the text on Placement.XY.
	AtPoint Anchor = iota
	// Center centers the text in the destination.
	Center
	// CenterX centers horizontally with the top edge at Placement.XY.Y.
	CenterX
	// BottomRight aligns the outer box with the destination's corner.
	BottomRight
)

// Placement positions a text box.
type Placement struct {
	Anchor Anchor
	XY     image.Point
}

// TextStyle controls text rendering. Zero colors skip the box and border.
type TextStyle struct {
	Color       color.Color
	Scale       int
	BoxColor    color.Color
	Padding     int
	BorderColor color.Color
	BorderWidth int
}

var face font.Face = basicfont.Face7x13

func (s TextStyle) scale() int {
	if s.Scale < 1 {
		return 1
	}
	return s.Scale
}

// MeasureText returns the rendered text size for the style, excluding the
// box padding and border.
func MeasureText(text string, style TextStyle) image.Point {
	metrics := face.Metrics()
	w := font.MeasureString(face, text).Ceil()
	h := (metrics.Ascent + metrics.Descent).Ceil()
	return image.Pt(w*style.scale(), h*style.scale())
}

// DrawText draws text with an optional box and border and returns the
// border's outer rectangle.
func DrawText(dst draw.Image, text string, at Placement, style TextStyle) image.Rectangle {
	size := MeasureText(text, style)
	inset := style.Padding + style.BorderWidth
	bounds := dst.Bounds()

	var origin image.Point
	switch at.Anchor {
	case Center:
		origin = image.Pt(bounds.Min.X+(bounds.Dx()-size.X)/2, bounds.Min.Y+(bounds.Dy()-size.Y)/2)
	case CenterX:
		origin = image.Pt(bounds.Min.X+(bounds.Dx()-size.X)/2, at.XY.Y)
	case BottomRight:
		origin = image.Pt(bounds.Max.X-inset-size.X, bounds.Max.Y-inset-size.Y)
	default:
		origin = image.Pt(at.XY.X-size.X/2, at.XY.Y-size.Y/2)
	}

	textRect := image.Rectangle{Min: origin, Max: origin.Add(size)}
	box := textRect.Inset(-style.Padding)
	outer := box.Inset(-style.BorderWidth)
	if style.BorderColor != nil && style.BorderWidth > 0 {
		draw.Draw(dst, outer, image.NewUniform(style.BorderColor), image.Point{}, draw.Src)
	}
	if style.BoxColor != nil {
		draw.Draw(dst, box, image.NewUniform(style.BoxColor), image.Point{}, draw.Src)
	}

	fg := style.Color
	if fg == nil {
		fg = Black
	}
	scale := style.scale()
	glyphs := image.NewRGBA(image.Rect(0, 0, size.X/scale, size.Y/scale))
	d := &font.Drawer{
		Dst:  glyphs,
		Src:  image.NewUniform(fg),
		Face: face,
		Dot:  fixed.P(0, face.Metrics().Ascent.Ceil()),
	}
	d.DrawString(text)
	xdraw.NearestNeighbor.Scale(dst, textRect, glyphs, glyphs.Bounds(), draw.Over, nil)

	return outer
}

// Fill paints the whole image with c.
func Fill(dst draw.Image, c color.Color) {
	draw.Draw(dst, dst.Bounds(), image.NewUniform(c), image.Point{}, draw.Src)
}

// FillCircle paints a disc of radius r centered on c.
func FillCircle(dst draw.Image, center image.Point, r int, c color.Color) {
	for y := -r; y <= r; y++ {
		for x := -r; x <= r; x++ {
			if x*x+y*y <= r*r {
				dst.Set(center.X+x, center.Y+y, c)
			}
		}
	}
}

// DashedVLine draws a vertical dashed line at x from y0 to y1 with dashes
// and gaps of length dash.
func DashedVLine(dst draw.Image, x, y0, y1, dash int, c color.Color) {
	if dash < 1 {
		dash = 1
	}
	for y := y0; y < y1; y += 2 * dash {
		for i := 0; i < dash && y+i < y1; i++ {
			dst.Set(x, y+i, c)
		}
	}
}

// VLine draws a solid vertical line at x from y0 to y1.
func VLine(dst draw.Image, x, y0, y1 int, c color.Color) {
	for y := y0; y < y1; y++ {
		dst.Set(x, y, c)
	}
}
