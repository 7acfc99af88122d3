package imageio

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"

	"github.com/fimd/fimd/internal/detect"
)

var (
	markerColor = color.RGBA{R: 255, G: 64, B: 64, A: 255}
	sunColor    = color.RGBA{R: 64, G: 200, B: 255, A: 255}
	crossArm    = 4
)

// WriteAnnotated renders src (the pre-detect grayscale snapshot, since
// Detect mutates its input) as an RGBA PNG with a colored cross drawn over
// every marker and sun position, for visual inspection. The detector
// itself never reads this output back.
func WriteAnnotated(path string, src *detect.Image, res *detect.Result) error {
	out := image.NewRGBA(image.Rect(0, 0, src.W, src.H))
	for y := 0; y < src.H; y++ {
		for x := 0; x < src.W; x++ {
			v := src.At(x, y)
			out.Set(x, y, color.Gray{Y: v})
		}
	}

	for _, p := range res.Markers {
		drawCross(out, p, markerColor)
	}
	for _, p := range res.Suns {
		drawCross(out, p, sunColor)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("imageio: create %s: %w", path, err)
	}
	defer f.Close()
	if err := png.Encode(f, out); err != nil {
		return fmt.Errorf("imageio: encode %s: %w", path, err)
	}
	return nil
}

func drawCross(img *image.RGBA, p detect.Point2D, c color.RGBA) {
	b := img.Bounds()
	for d := -crossArm; d <= crossArm; d++ {
		setIfInBounds(img, b, p.X+d, p.Y, c)
		setIfInBounds(img, b, p.X, p.Y+d, c)
	}
}

func setIfInBounds(img *image.RGBA, b image.Rectangle, x, y int, c color.RGBA) {
	if x < b.Min.X || x >= b.Max.X || y < b.Min.Y || y >= b.Max.Y {
		return
	}
	img.Set(x, y, c)
}
