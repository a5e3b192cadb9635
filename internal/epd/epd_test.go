package epd

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"math/rand/v2"
	"strings"
	"testing"
)

func gradient(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{uint8(x * 255 / w), uint8(y * 255 / h), uint8((x + y) % 256), 255})
		}
	}
	return img
}

func noise(w, h int, seed uint64) *image.RGBA {
	r := rand.New(rand.NewPCG(seed, seed))
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = uint8(r.IntN(256))
	}
	for i := 3; i < len(img.Pix); i += 4 {
		img.Pix[i] = 255
	}
	return img
}

func TestPalettesValid(t *testing.T) {
	for _, p := range Palettes {
		if err := p.Validate(); err != nil {
			t.Errorf("%s: %v", p.Name, err)
		}
	}
	bad := Palette{Name: "bad", Colors: []color.RGBA{black, white}, Codes: []uint8{0}, Bits: 1}
	if err := bad.Validate(); err == nil {
		t.Error("mismatched lengths accepted")
	}
	wide := Palette{Name: "wide", Colors: []color.RGBA{black, white}, Codes: []uint8{0, 2}, Bits: 1}
	if err := wide.Validate(); err == nil {
		t.Error("code wider than bits accepted")
	}
}

func TestPaletteByName(t *testing.T) {
	tests := []struct {
		name string
		want string
		ok   bool
	}{
		{"", "bwr", true},
		{"bw", "bw", true},
		{"BWR", "bwr", true},
		{"7color", "7color", true},
		{"cmyk", "", false},
	}
	for _, tt := range tests {
		p, err := PaletteByName(tt.name)
		if (err == nil) != tt.ok {
			t.Errorf("PaletteByName(%q) err = %v", tt.name, err)
			continue
		}
		if p.Name != tt.want {
			t.Errorf("PaletteByName(%q) = %s, want %s", tt.name, p.Name, tt.want)
		}
	}
}

func TestNearest(t *testing.T) {
	tests := []struct {
		name string
		c    color.Color
		want int
	}{
		{"black", color.RGBA{10, 10, 10, 255}, 0},
		{"white", color.RGBA{240, 230, 250, 255}, 1},
		{"red", color.RGBA{200, 40, 30, 255}, 2},
		{"mid gray", color.RGBA{128, 128, 128, 255}, 1},
		{"transparent shows white", color.RGBA{0, 0, 0, 0}, 1},
	}
	for _, tt := range tests {
		if got := BlackWhiteRed.Nearest(tt.c); got != tt.want {
			t.Errorf("%s: Nearest = %d, want %d", tt.name, got, tt.want)
		}
	}
}

func TestNearestTieGoesToLowestIndex(t *testing.T) {
	p := Palette{
		Name:   "tie",
		Colors: []color.RGBA{{254, 0, 0, 255}, {0, 0, 0, 255}},
		Codes:  []uint8{0, 1},
		Bits:   1,
	}
	if got := p.Nearest(color.RGBA{127, 0, 0, 255}); got != 0 {
		t.Fatalf("Nearest = %d, want 0", got)
	}
	p.Colors[0], p.Colors[1] = p.Colors[1], p.Colors[0]
	if got := p.Nearest(color.RGBA{127, 0, 0, 255}); got != 0 {
		t.Fatalf("swapped Nearest = %d, want 0", got)
	}
}

func TestQuantizeOnlyPaletteColors(t *testing.T) {
	for _, p := range Palettes {
		q := Quantize(gradient(37, 23), p)
		if q.Bounds() != image.Rect(0, 0, 37, 23) {
			t.Fatalf("%s: bounds = %v", p.Name, q.Bounds())
		}
		for _, i := range q.Pix {
			if int(i) >= len(p.Colors) {
				t.Fatalf("%s: index %d out of palette", p.Name, i)
			}
		}
	}
}

func TestQuantizeMidGray(t *testing.T) {
	gray := image.NewUniform(color.RGBA{128, 128, 128, 255})
	img := image.NewRGBA(image.Rect(0, 0, 16, 16))
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			img.Set(x, y, gray.C)
		}
	}

	q := Quantize(img, BlackWhiteRed)
	counts := make([]int, len(BlackWhiteRed.Colors))
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			c := q.At(x, y)
			i := BlackWhiteRed.Nearest(c)
			if BlackWhiteRed.Colors[i] != color.RGBAModel.Convert(c) {
				t.Fatalf("pixel %d,%d = %v not in palette", x, y, c)
			}
			counts[i]++
		}
	}
	// The first pixel has no diffused error yet, so it takes the nearest
	// color outright.
	if q.ColorIndexAt(0, 0) != 1 {
		t.Fatalf("first pixel index = %d, want white", q.ColorIndexAt(0, 0))
	}
	if counts[0] == 0 || counts[1] == 0 {
		t.Fatalf("dithered gray should mix black and white, got %v", counts)
	}
}

func TestQuantizeIdempotent(t *testing.T) {
	for _, p := range Palettes {
		for _, img := range []image.Image{gradient(40, 30), noise(25, 25, 7)} {
			once := Quantize(img, p)
			twice := Quantize(once, p)
			if !bytes.Equal(once.Pix, twice.Pix) {
				t.Fatalf("%s: quantize not idempotent", p.Name)
			}
		}
	}
}

func TestQuantizePalettedSkipsDither(t *testing.T) {
	src := image.NewPaletted(image.Rect(0, 0, 4, 4), color.Palette{color.RGBA{128, 128, 128, 255}, color.RGBA{220, 0, 0, 255}})
	src.SetColorIndex(3, 3, 1)

	q := Quantize(src, BlackWhiteRed)
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			want := uint8(1)
			if x == 3 && y == 3 {
				want = 2
			}
			if got := q.ColorIndexAt(x, y); got != want {
				t.Fatalf("pixel %d,%d = %d, want %d", x, y, got, want)
			}
		}
	}
}

func TestPackLength(t *testing.T) {
	sizes := []image.Point{{1, 1}, {3, 1}, {7, 3}, {640, 384}, {5, 5}}
	for _, p := range Palettes {
		for _, s := range sizes {
			data, err := Pack(Quantize(noise(s.X, s.Y, 1), p), p)
			if err != nil {
				t.Fatal(err)
			}
			want := (s.X*s.Y*p.Bits + 7) / 8
			if len(data) != want || PackedLen(s.X, s.Y, p) != want {
				t.Fatalf("%s %v: len = %d, want %d", p.Name, s, len(data), want)
			}
		}
	}
}

func TestPackKnownBytes(t *testing.T) {
	row := func(p Palette, indexes ...uint8) *image.Paletted {
		img := image.NewPaletted(image.Rect(0, 0, len(indexes), 1), p.ColorPalette())
		copy(img.Pix, indexes)
		return img
	}
	tests := []struct {
		name string
		p    Palette
		img  image.Image
		want []byte
	}{
		{"bwr", BlackWhiteRed, row(BlackWhiteRed, 0, 1, 2, 1), []byte{0x1d}},
		{"bwr two bytes", BlackWhiteRed, row(BlackWhiteRed, 2, 2, 2, 2, 1), []byte{0xff, 0x40}},
		{"bw padded", BlackWhite, row(BlackWhite, 1, 0, 1), []byte{0xa0}},
		{"seven color", SevenColor, row(SevenColor, 4, 6), []byte{0x98}},
	}
	for _, tt := range tests {
		got, err := Pack(tt.img, tt.p)
		if err != nil {
			t.Fatalf("%s: %v", tt.name, err)
		}
		if !bytes.Equal(got, tt.want) {
			t.Errorf("%s: Pack = %x, want %x", tt.name, got, tt.want)
		}
	}
}

func TestPackRowsRunOn(t *testing.T) {
	// 3x2 monochrome: six bits in one byte, no per-row padding.
	img := image.NewRGBA(image.Rect(0, 0, 3, 2))
	for i, c := range []color.RGBA{white, black, black, black, black, white} {
		img.Set(i%3, i/3, c)
	}
	got, err := Pack(img, BlackWhite)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, []byte{0x84}) {
		t.Fatalf("Pack = %x, want 84", got)
	}
}

func TestEncodeFormats(t *testing.T) {
	img := gradient(20, 10)

	var buf bytes.Buffer
	if err := Encode(&buf, img, BlackWhiteRed, FormatEPD); err != nil {
		t.Fatal(err)
	}
	if buf.Len() != PackedLen(20, 10, BlackWhiteRed) {
		t.Fatalf("epd length = %d", buf.Len())
	}

	buf.Reset()
	if err := Encode(&buf, img, BlackWhiteRed, FormatPNG); err != nil {
		t.Fatal(err)
	}
	decoded, err := png.Decode(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if decoded.Bounds().Dx() != 20 || decoded.Bounds().Dy() != 10 {
		t.Fatalf("png bounds = %v", decoded.Bounds())
	}

	buf.Reset()
	if err := Encode(&buf, img, BlackWhiteRed, FormatGIF); err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("GIF8")) {
		t.Fatal("gif header missing")
	}

	if err := Encode(&buf, img, BlackWhiteRed, Format("bmp")); err == nil {
		t.Fatal("unknown format accepted")
	}
}

func TestCHeader(t *testing.T) {
	var buf bytes.Buffer
	if err := CHeader(&buf, "assets/client/error.gif", []byte{0x01, 0xab}); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{
		"#ifndef ERROR_IMAGE_H\n#define ERROR_IMAGE_H\n",
		"const char error_image[] =\n",
		"    \"\\x01\\xab\";\n",
		"#endif  // ERROR_IMAGE_H\n",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("header missing %q:\n%s", want, out)
		}
	}
}

func TestCHeaderWrapsLines(t *testing.T) {
	var buf bytes.Buffer
	data := make([]byte, 100)
	if err := CHeader(&buf, "error.gif", data); err != nil {
		t.Fatal(err)
	}
	lines := 0
	for _, line := range strings.Split(buf.String(), "\n") {
		if len(line) > 80 {
			t.Fatalf("line too long: %d", len(line))
		}
		if strings.HasPrefix(line, headerLinePrefix) {
			lines++
		}
	}
	if want := (100 + headerBytesLine - 1) / headerBytesLine; lines != want {
		t.Fatalf("got %d data lines, want %d", lines, want)
	}
}
