package graphics

import (
	"image"
	"image/color"
	"testing"
)

func countColor(img image.Image, want color.Color) int {
	wr, wg, wb, _ := want.RGBA()
	n := 0
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl, _ := img.At(x, y).RGBA()
			if r == wr && g == wg && bl == wb {
				n++
			}
		}
	}
	return n
}

func TestMeasureTextScales(t *testing.T) {
	one := MeasureText("abc", TextStyle{})
	two := MeasureText("abc", TextStyle{Scale: 2})
	if one.X != 21 || one.Y != 13 {
		t.Fatalf("size = %v, want 21x13", one)
	}
	if two.X != 2*one.X || two.Y != 2*one.Y {
		t.Fatalf("scaled size = %v, want %v", two, one.Mul(2))
	}
}

func TestDrawTextCenteredBox(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 200, 100))
	Fill(img, White)

	box := DrawText(img, "12 min", Placement{Anchor: Center}, TextStyle{
		Color:       White,
		BoxColor:    Black,
		Padding:     4,
		BorderColor: Red,
		BorderWidth: 2,
	})

	if !box.In(img.Bounds()) {
		t.Fatalf("box %v outside image", box)
	}
	cx, cy := (box.Min.X+box.Max.X)/2, (box.Min.Y+box.Max.Y)/2
	if cx < 98 || cx > 102 || cy < 48 || cy > 52 {
		t.Fatalf("box %v not centered", box)
	}
	if countColor(img, Red) == 0 {
		t.Fatal("border not drawn")
	}
	if countColor(img, Black) == 0 {
		t.Fatal("box not drawn")
	}
}

func TestDrawTextBottomRight(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 120, 40))
	box := DrawText(img, "Map data", Placement{Anchor: BottomRight}, TextStyle{BoxColor: White, Padding: 3})
	if box.Max != img.Bounds().Max {
		t.Fatalf("box %v not in the corner of %v", box, img.Bounds())
	}
}

func TestFillCircle(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 21, 21))
	Fill(img, White)
	FillCircle(img, image.Pt(10, 10), 5, Red)

	if img.RGBAAt(10, 10) != Red {
		t.Fatal("center not filled")
	}
	if img.RGBAAt(0, 0) != White {
		t.Fatal("corner filled")
	}
}
