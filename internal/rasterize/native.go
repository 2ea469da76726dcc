package rasterize

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"math"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// Native draws charts in process with no external renderer.
type Native struct {
	Width  int
	Height int
}

func NewNative() *Native {
	return &Native{Width: 900, Height: 400}
}

func (n *Native) Render(ctx context.Context, c Chart) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(c.Entries) == 0 {
		return nil, ErrEmptyChart
	}

	w, h := n.Width, n.Height
	if w <= 0 || h <= 0 {
		w, h = 900, 400
	}
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.White, image.Point{}, draw.Src)

	if c.Title != "" {
		drawText(img, c.Title, (w-textWidth(c.Title))/2, 24, colorText)
	}

	switch c.Kind {
	case KindPie:
		if err := drawPie(img, c); err != nil {
			return nil, err
		}
	default:
		drawBars(img, c)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode chart png: %w", err)
	}
	return buf.Bytes(), nil
}

func drawBars(img *image.RGBA, c Chart) {
	w, h := img.Bounds().Dx(), img.Bounds().Dy()
	baseline := h - marginBottom

	fill(img, image.Rect(marginLeft, baseline, w-marginRight, baseline+1), colorAxis)
	fill(img, image.Rect(marginLeft, marginTop, marginLeft+1, baseline), colorAxis)

	for _, b := range bars(c, w, h) {
		fill(img, image.Rect(b.X, b.Y, b.X+b.W, b.Y+b.H), b.Color)
		lx := b.X + (b.W-textWidth(b.Label))/2
		drawText(img, b.Label, lx, baseline+18, colorText)
		v := fmt.Sprintf("%.2f", b.Value)
		drawText(img, v, b.X+(b.W-textWidth(v))/2, b.Y-4, colorText)
	}
}

func drawPie(img *image.RGBA, c Chart) error {
	parts := slices(c)
	if len(parts) == 0 {
		return ErrEmptyChart
	}
	w, h := img.Bounds().Dx(), img.Bounds().Dy()
	r := float64(h-marginTop-20) / 2
	cx := float64(w) / 3
	cy := float64(marginTop) + r

	for y := int(cy - r); y <= int(cy+r); y++ {
		for x := int(cx - r); x <= int(cx+r); x++ {
			dx, dy := float64(x)+0.5-cx, float64(y)+0.5-cy
			if dx*dx+dy*dy > r*r {
				continue
			}
			a := math.Atan2(dx, -dy)
			if a < 0 {
				a += 2 * math.Pi
			}
			for _, s := range parts {
				if a >= s.Start && a < s.End {
					img.SetRGBA(x, y, s.Color)
					break
				}
			}
		}
	}

	lx := int(cx+r) + 40
	for i, s := range parts {
		ly := marginTop + 10 + i*20
		fill(img, image.Rect(lx, ly-10, lx+12, ly+2), s.Color)
		drawText(img, s.Label, lx+18, ly, colorText)
	}
	return nil
}

func fill(img *image.RGBA, r image.Rectangle, c color.RGBA) {
	draw.Draw(img, r, image.NewUniform(c), image.Point{}, draw.Src)
}

func drawText(img *image.RGBA, s string, x, y int, c color.Color) {
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(c),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(s)
}

func textWidth(s string) int {
	return font.MeasureString(basicfont.Face7x13, s).Ceil()
}
