package epd

import (
	"bufio"
	"fmt"
	"image"
	"image/gif"
	"image/png"
	"io"
	"path"
	"strings"
)

// Format is an output encoding for a quantized frame.
type Format string

const (
	FormatEPD Format = "epd"
	FormatGIF Format = "gif"
	FormatPNG Format = "png"
)

// ContentType returns the HTTP media type of the format.
func (f Format) ContentType() string {
	switch f {
	case FormatGIF:
		return "image/gif"
	case FormatPNG:
		return "image/png"
	default:
		return "application/octet-stream"
	}
}

// Encode quantizes img and writes it to w in the given format.
func Encode(w io.Writer, img image.Image, p Palette, format Format) error {
	q := Quantize(img, p)
	switch format {
	case FormatEPD:
		data, err := Pack(q, p)
		if err != nil {
			return err
		}
		_, err = w.Write(data)
		return err
	case FormatGIF:
		return gif.Encode(w, q, &gif.Options{NumColors: len(p.Colors)})
	case FormatPNG:
		return png.Encode(w, q)
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}

// header formatting, chosen to keep lines within 80 columns.
const (
	headerLinePrefix = "    \""
	headerByte       = "\\x%02x"
	headerBytesLine  = (80 - len(headerLinePrefix) - 1) / 4
)

// CHeader writes data as a C header declaring a const char array, for images
// compiled into the client firmware. The variable and guard names derive
// from source, e.g. "assets/error.gif" gives error_image and ERROR_IMAGE_H.
func CHeader(w io.Writer, source string, data []byte) error {
	base := strings.TrimSuffix(path.Base(source), path.Ext(source))
	variable := base + "_image"
	guard := strings.ToUpper(variable) + "_H"

	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "#ifndef %s\n#define %s\n\n", guard, guard)
	fmt.Fprintf(bw, "// Generated from %q.\n", path.Base(source))
	fmt.Fprintf(bw, "const char %s[] =\n", variable)
	if len(data) == 0 {
		fmt.Fprint(bw, "    \"\";\n")
	}
	for i := 0; i < len(data); i += headerBytesLine {
		end := min(i+headerBytesLine, len(data))
		bw.WriteString(headerLinePrefix)
		for _, c := range data[i:end] {
			fmt.Fprintf(bw, headerByte, c)
		}
		bw.WriteString("\"")
		if end == len(data) {
			bw.WriteString(";")
		}
		bw.WriteString("\n")
	}
	fmt.Fprintf(bw, "\n#endif  // %s\n", guard)
	return bw.Flush()
}
