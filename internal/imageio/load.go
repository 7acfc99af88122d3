// Package imageio converts on-disk image files to and from the
// detect.Image buffer contract: row-major, 8-bit grayscale, no padding.
package imageio

import (
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"

	"golang.org/x/image/bmp"

	"github.com/fimd/fimd/internal/detect"
)

// Format identifies how a file's bytes map to pixels.
type Format string

const (
	FormatAuto Format = "auto" // sniff by decoding; falls back to raw
	FormatRaw  Format = "raw"  // exactly W*H bytes, no header
	FormatPNG  Format = "png"
	FormatJPEG Format = "jpeg"
	FormatBMP  Format = "bmp"
)

func init() {
	// image.Decode dispatches on the registered format list; jpeg and png
	// self-register via their own init funcs when imported, bmp needs an
	// explicit registration since x/image/bmp doesn't do it itself.
	image.RegisterFormat("bmp", "BM", bmp.Decode, bmp.DecodeConfig)
}

// Load reads path and returns a detect.Image. For FormatRaw, width and
// height must be supplied since the format carries no header; they are
// ignored for decoded formats (the dimensions come from the file itself).
func Load(path string, format Format, width, height int) (*detect.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("imageio: open %s: %w", path, err)
	}
	defer f.Close()

	if format == FormatRaw {
		return loadRaw(f, width, height)
	}

	img, _, err := image.Decode(f)
	if err != nil {
		if format == FormatAuto {
			if _, serr := f.Seek(0, io.SeekStart); serr == nil {
				return loadRaw(f, width, height)
			}
		}
		return nil, fmt.Errorf("imageio: decode %s: %w", path, err)
	}
	return toGray(img), nil
}

func loadRaw(r io.Reader, width, height int) (*detect.Image, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("imageio: raw format requires positive width and height")
	}
	want := width * height
	pix := make([]byte, want)
	n, err := io.ReadFull(r, pix)
	if err != nil && err != io.ErrUnexpectedEOF {
		return nil, fmt.Errorf("imageio: read raw pixels: %w", err)
	}
	if n != want {
		return nil, fmt.Errorf("imageio: raw file has %d bytes, want %d (%dx%d)", n, want, width, height)
	}
	if extra, _ := r.Read(make([]byte, 1)); extra > 0 {
		return nil, fmt.Errorf("imageio: raw file has more than %d bytes (%dx%d)", want, width, height)
	}
	return &detect.Image{W: width, H: height, Pix: pix}, nil
}

// toGray converts a decoded image.Image to an 8-bit grayscale buffer using
// the standard library's own luma conversion (color.GrayModel), rather
// than hand-rolled weighted coefficients.
func toGray(src image.Image) *detect.Image {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	out := detect.NewImage(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			g := color.GrayModel.Convert(src.At(b.Min.X+x, b.Min.Y+y)).(color.Gray)
			out.Pix[y*w+x] = g.Y
		}
	}
	return out
}
