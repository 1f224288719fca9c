package render

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/font/inconsolata"
	"golang.org/x/image/math/fixed"
)

const (
	borderWidth = 3
	wireWidth   = 4
)

// Rasterize draws l into a PNG.
func Rasterize(l Layout) ([]byte, error) {
	if l.Width <= 0 || l.Height <= 0 {
		return nil, errors.New("diagram has no area")
	}
	img := image.NewRGBA(image.Rect(0, 0, l.Width, l.Height))
	draw.Draw(img, img.Bounds(), &image.Uniform{color.White}, image.Point{}, draw.Src)

	drawCentered(img, l.Width/2, 28, l.Title, inconsolata.Bold8x16, colorText)

	for _, c := range l.Conductors {
		for _, s := range c.Segments {
			fillRect(img, wireRect(s), c.Color)
		}
	}

	for _, b := range l.Boxes {
		fillRect(img, b.Rect, colorBgLight)
		strokeRect(img, b.Rect, b.Border)
		cx := (b.Rect.Min.X + b.Rect.Max.X) / 2
		y := b.Rect.Min.Y + 35
		for _, line := range wrapLabel(b.Label, inconsolata.Bold8x16, b.Rect.Dx()-2*borderWidth-4) {
			drawCentered(img, cx, y, line, inconsolata.Bold8x16, colorText)
			y += 18
		}
		drawCentered(img, cx, y+12, b.Value, inconsolata.Regular8x16, colorText)
	}

	for _, e := range l.Legend {
		fillRect(img, image.Rect(e.At.X, e.At.Y-10, e.At.X+20, e.At.Y), e.Color)
		strokeRect(img, image.Rect(e.At.X, e.At.Y-10, e.At.X+20, e.At.Y), colorBorder)
		drawText(img, e.At.X+26, e.At.Y, e.Name, inconsolata.Regular8x16, colorText)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func wireRect(s Segment) image.Rectangle {
	r := image.Rectangle{Min: s.From, Max: s.To}.Canon()
	half := wireWidth / 2
	return image.Rect(r.Min.X-half, r.Min.Y-half, r.Max.X+half, r.Max.Y+half)
}

func fillRect(img *image.RGBA, r image.Rectangle, c color.Color) {
	draw.Draw(img, r, &image.Uniform{c}, image.Point{}, draw.Src)
}

func strokeRect(img *image.RGBA, r image.Rectangle, c color.Color) {
	w := borderWidth
	if r.Dx() < 2*w || r.Dy() < 2*w {
		w = 1
	}
	fillRect(img, image.Rect(r.Min.X, r.Min.Y, r.Max.X, r.Min.Y+w), c)
	fillRect(img, image.Rect(r.Min.X, r.Max.Y-w, r.Max.X, r.Max.Y), c)
	fillRect(img, image.Rect(r.Min.X, r.Min.Y, r.Min.X+w, r.Max.Y), c)
	fillRect(img, image.Rect(r.Max.X-w, r.Min.Y, r.Max.X, r.Max.Y), c)
}

// wrapLabel splits s at its last space when it does not fit in width.
func wrapLabel(s string, face font.Face, width int) []string {
	if font.MeasureString(face, s).Ceil() <= width {
		return []string{s}
	}
	if i := strings.LastIndex(s, " "); i > 0 {
		return []string{s[:i], s[i+1:]}
	}
	return []string{s}
}

func drawCentered(img *image.RGBA, cx, baseline int, s string, face font.Face, c color.Color) {
	width := font.MeasureString(face, s).Ceil()
	drawText(img, cx-width/2, baseline, s, face, c)
}

func drawText(img *image.RGBA, x, baseline int, s string, face font.Face, c color.Color) {
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(c),
		Face: face,
		Dot:  fixed.Point26_6{X: fixed.I(x), Y: fixed.I(baseline)},
	}
	d.DrawString(s)
}
