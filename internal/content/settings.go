package content

import (
	"image"
	"image/draw"

	"github.com/pbaille/accent/internal/graphics"
)

const (
	settingsTextY = 228
	computerX     = 296
	computerY     = 145
)

// SettingsImage is shown when a display has nothing else to show: unknown
// users, empty schedules and failed content. It points at the settings page,
// shrinking the link text when it does not fit. computer is an optional
// illustration drawn above the link.
func SettingsImage(url string, computer image.Image, width, height int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	graphics.Fill(img, graphics.Red)

	// Layout is designed for 640x384 and scaled to other sizes.
	textY := height * settingsTextY / 384
	style := graphics.TextStyle{Color: graphics.White, Scale: 2}
	if graphics.MeasureText(url, style).X > width {
		style.Scale = 1
	}
	graphics.DrawText(img, url, graphics.Placement{Anchor: graphics.CenterX, XY: image.Pt(0, textY)}, style)

	if computer != nil {
		b := computer.Bounds()
		pt := image.Pt(computerX*width/640, computerY*height/384)
		draw.Draw(img, b.Sub(b.Min).Add(pt), computer, b.Min, draw.Over)
	}
	return img
}
