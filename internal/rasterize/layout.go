package rasterize

import (
	"fmt"
	"image/color"
	"math"
)

var (
	colorRed    = color.RGBA{239, 68, 68, 255}
	colorGreen  = color.RGBA{34, 197, 94, 255}
	colorYellow = color.RGBA{234, 179, 8, 255}
	colorBlue   = color.RGBA{59, 130, 246, 255}
	colorAxis   = color.RGBA{107, 114, 128, 255}
	colorText   = color.RGBA{31, 41, 55, 255}
)

var piePalette = []color.RGBA{
	{0xFF, 0x63, 0x84, 255},
	{0x36, 0xA2, 0xEB, 255},
	{0xFF, 0xCE, 0x56, 255},
	{0x4B, 0xC0, 0xC0, 255},
	{0x99, 0x66, 0xFF, 255},
	{0xFF, 0x9F, 0x40, 255},
}

// rankColor highlights the three largest entries.
func rankColor(i int) color.RGBA {
	switch i {
	case 0:
		return colorRed
	case 1:
		return colorGreen
	case 2:
		return colorYellow
	default:
		return colorBlue
	}
}

const maxLabel = 10

func shortLabel(s string) string {
	r := []rune(s)
	if len(r) <= maxLabel {
		return s
	}
	return string(r[:maxLabel]) + "..."
}

const (
	marginLeft   = 50
	marginRight  = 20
	marginTop    = 40
	marginBottom = 60
)

type bar struct {
	X, Y, W, H int
	Color      color.RGBA
	Label      string
	Value      float64
}

// bars lays out one bar per entry inside a w×h canvas. Non-positive
// values get a zero-height bar.
func bars(c Chart, w, h int) []bar {
	if len(c.Entries) == 0 {
		return nil
	}
	maxV := 0.0
	for _, e := range c.Entries {
		maxV = math.Max(maxV, e.Value)
	}

	plotW := w - marginLeft - marginRight
	plotH := h - marginTop - marginBottom
	slot := plotW / len(c.Entries)
	bw := slot * 7 / 10
	if bw < 1 {
		bw = 1
	}
	baseline := h - marginBottom

	out := make([]bar, 0, len(c.Entries))
	for i, e := range c.Entries {
		bh := 0
		if maxV > 0 && e.Value > 0 {
			bh = int(math.Round(e.Value / maxV * float64(plotH)))
		}
		out = append(out, bar{
			X:     marginLeft + i*slot + (slot-bw)/2,
			Y:     baseline - bh,
			W:     bw,
			H:     bh,
			Color: rankColor(i),
			Label: shortLabel(e.Name),
			Value: e.Value,
		})
	}
	return out
}

type slice struct {
	Start, End float64 // radians, clockwise from 12 o'clock
	Color      color.RGBA
	Label      string
	Percent    float64
}

// slices splits the circle by positive value. It returns nil when
// nothing is positive.
func slices(c Chart) []slice {
	total := 0.0
	for _, e := range c.Entries {
		if e.Value > 0 {
			total += e.Value
		}
	}
	if total <= 0 {
		return nil
	}

	var out []slice
	angle := 0.0
	for i, e := range c.Entries {
		if e.Value <= 0 {
			continue
		}
		span := e.Value / total * 2 * math.Pi
		out = append(out, slice{
			Start:   angle,
			End:     angle + span,
			Color:   piePalette[i%len(piePalette)],
			Label:   fmt.Sprintf("%s %.1f%%", shortLabel(e.Name), e.Value/total*100),
			Percent: e.Value / total * 100,
		})
		angle += span
	}
	return out
}
