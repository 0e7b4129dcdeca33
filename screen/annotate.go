package screen

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// referenceWidth is the fixed width the drawing-density factor is derived
// from, so stroke and chip sizing look consistent across bitmap sizes.
const referenceWidth = 360.0

var (
	boxColor   = color.RGBA{R: 66, G: 133, B: 244, A: 255}
	chipColor  = color.RGBA{R: 66, G: 133, B: 244, A: 230}
	labelColor = color.RGBA{R: 255, G: 255, B: 255, A: 255}
)

// Annotate draws a dashed outline and an id label chip for every target onto
// a copy of src. The input bitmap is never mutated; ownership stays with the
// caller. Bounds are scaled from the original screen dimensions to the bitmap
// dimensions and clamped; targets that end up with a non-positive area after
// clamping are skipped.
func Annotate(src image.Image, targets []AnnotationTarget, screenWidth, screenHeight int) (*image.RGBA, error) {
	if screenWidth <= 0 || screenHeight <= 0 {
		return nil, fmt.Errorf("invalid screen dimensions %dx%d", screenWidth, screenHeight)
	}
	if src == nil {
		return nil, fmt.Errorf("annotation failed: nil source image")
	}

	dst := imageToRGBA(src)

	bw := dst.Bounds().Dx()
	bh := dst.Bounds().Dy()
	if bw <= 0 || bh <= 0 {
		return nil, fmt.Errorf("annotation failed: empty source image")
	}

	scaleX := float64(bw) / float64(screenWidth)
	scaleY := float64(bh) / float64(screenHeight)
	density := float64(bw) / referenceWidth

	for _, t := range targets {
		x1 := clamp(int(float64(t.Bounds.Left)*scaleX), 0, bw)
		y1 := clamp(int(float64(t.Bounds.Top)*scaleY), 0, bh)
		x2 := clamp(int(float64(t.Bounds.Right)*scaleX), 0, bw)
		y2 := clamp(int(float64(t.Bounds.Bottom)*scaleY), 0, bh)

		if x2 <= x1 || y2 <= y1 {
			// fully outside the visible area after clamping
			continue
		}

		drawDashedRect(dst, x1, y1, x2, y2, density, boxColor)
		drawLabelChip(dst, labelForID(t.ID), x1, y1, density)
	}

	return dst, nil
}

// imageToRGBA copies any image into a fresh RGBA canvas for drawing.
func imageToRGBA(img image.Image) *image.RGBA {
	bounds := img.Bounds()
	rgba := image.NewRGBA(bounds)
	draw.Draw(rgba, bounds, img, bounds.Min, draw.Src)
	return rgba
}

// labelForID strips the resource id namespace (everything through ":id/")
// when present, otherwise returns the id unmodified.
func labelForID(id string) string {
	if i := strings.Index(id, ":id/"); i >= 0 {
		return id[i+len(":id/"):]
	}
	return id
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// drawDashedRect draws a dashed rectangle outline. Stroke width and dash
// pattern scale with the drawing density.
func drawDashedRect(img *image.RGBA, x1, y1, x2, y2 int, density float64, c color.Color) {
	stroke := maxInt(1, int(2*density))
	dashOn := maxInt(2, int(6*density))
	dashOff := maxInt(1, int(4*density))
	period := dashOn + dashOff

	setThick := func(x, y int) {
		for dy := 0; dy < stroke; dy++ {
			for dx := 0; dx < stroke; dx++ {
				px, py := x+dx, y+dy
				if px >= 0 && px < img.Bounds().Max.X && py >= 0 && py < img.Bounds().Max.Y {
					img.Set(px, py, c)
				}
			}
		}
	}

	for x := x1; x < x2; x++ {
		if (x-x1)%period < dashOn {
			setThick(x, y1)
			setThick(x, y2-stroke)
		}
	}
	for y := y1; y < y2; y++ {
		if (y-y1)%period < dashOn {
			setThick(x1, y)
			setThick(x2-stroke, y)
		}
	}
}

// drawLabelChip draws a filled chip with the label text, anchored at the
// rectangle's top-left corner. A chip that would start above the bitmap is
// shifted down so it stays inside.
func drawLabelChip(img *image.RGBA, label string, x, y int, density float64) {
	if label == "" {
		return
	}

	face := basicfont.Face7x13
	pad := maxInt(2, int(2*density))
	textW := font.MeasureString(face, label).Ceil()
	chipW := textW + 2*pad
	chipH := face.Height + 2*pad

	chipY := y - chipH
	if chipY < 0 {
		chipY = 0
	}

	chip := image.Rect(x, chipY, x+chipW, chipY+chipH).Intersect(img.Bounds())
	draw.Draw(img, chip, image.NewUniform(chipColor), image.Point{}, draw.Over)

	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(labelColor),
		Face: face,
		Dot: fixed.Point26_6{
			X: fixed.I(x + pad),
			Y: fixed.I(chipY + pad + face.Ascent),
		},
	}
	d.DrawString(label)
}
