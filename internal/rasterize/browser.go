package rasterize

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"image/color"
	"math"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

// Browser renders charts as SVG in headless Chrome and screenshots the
// chart element once the page reports it is drawn.
type Browser struct {
	// ControlURL of a running Chrome. Empty launches a local headless one.
	ControlURL string
	Timeout    time.Duration
	Width      int
	Height     int

	// launch starts a local Chrome and returns its control URL and a
	// function that stops it.
	launch func() (string, func(), error)

	mu      sync.Mutex
	browser *rod.Browser
	kill    func()
}

func NewBrowser(controlURL string, timeout time.Duration) *Browser {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Browser{
		ControlURL: controlURL,
		Timeout:    timeout,
		Width:      900,
		Height:     400,
		launch:     launchLocal,
	}
}

func launchLocal() (string, func(), error) {
	l := launcher.New().Headless(true)
	url, err := l.Launch()
	if err != nil {
		return "", nil, err
	}
	return url, l.Kill, nil
}

func (b *Browser) connect() (*rod.Browser, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.browser != nil {
		return b.browser, nil
	}

	controlURL := b.ControlURL
	var kill func()
	if controlURL == "" {
		launch := b.launch
		if launch == nil {
			launch = launchLocal
		}
		url, stop, err := launch()
		if err != nil {
			return nil, fmt.Errorf("launch chrome: %w", err)
		}
		controlURL, kill = url, stop
	}

	br := rod.New().ControlURL(controlURL)
	if err := br.Connect(); err != nil {
		if kill != nil {
			kill()
		}
		return nil, fmt.Errorf("connect to chrome: %w", err)
	}
	b.browser = br
	b.kill = kill
	return br, nil
}

func (b *Browser) Render(ctx context.Context, c Chart) ([]byte, error) {
	if len(c.Entries) == 0 {
		return nil, ErrEmptyChart
	}
	html, err := chartPage(c, b.Width, b.Height)
	if err != nil {
		return nil, err
	}

	br, err := b.connect()
	if err != nil {
		return nil, err
	}

	page, err := br.Context(ctx).Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, fmt.Errorf("open chart page: %w", err)
	}
	defer page.Close()

	page = page.Timeout(b.Timeout)
	if err := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             b.Width,
		Height:            b.Height,
		DeviceScaleFactor: 1,
	}); err != nil {
		return nil, fmt.Errorf("set viewport: %w", err)
	}
	if err := page.SetDocumentContent(html); err != nil {
		return nil, fmt.Errorf("load chart page: %w", err)
	}
	if err := page.Wait(rod.Eval(`() => window.chartReady === true`)); err != nil {
		return nil, fmt.Errorf("wait for chart: %w", err)
	}

	el, err := page.Element("#chart")
	if err != nil {
		return nil, fmt.Errorf("find chart element: %w", err)
	}
	png, err := el.Screenshot(proto.PageCaptureScreenshotFormatPng, 0)
	if err != nil {
		return nil, fmt.Errorf("screenshot chart: %w", err)
	}
	return png, nil
}

func (b *Browser) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	var err error
	if b.browser != nil {
		err = b.browser.Close()
		b.browser = nil
	}
	if b.kill != nil {
		b.kill()
		b.kill = nil
	}
	return err
}

var pageTmpl = template.Must(template.New("chart").Funcs(template.FuncMap{
	"rgb": func(c color.RGBA) string { return fmt.Sprintf("rgb(%d,%d,%d)", c.R, c.G, c.B) },
}).Parse(`<!DOCTYPE html>
<html><head><meta charset="utf-8">
<style>body{margin:0;background:#fff;font-family:sans-serif}</style>
</head><body>
<svg id="chart" xmlns="http://www.w3.org/2000/svg" width="{{.W}}" height="{{.H}}" viewBox="0 0 {{.W}} {{.H}}">
<rect width="100%" height="100%" fill="#fff"/>
<text x="{{.CX}}" y="24" text-anchor="middle" font-size="16" fill="#1f2937">{{.Title}}</text>
{{range .Bars}}<rect x="{{.X}}" y="{{.Y}}" width="{{.W}}" height="{{.H}}" fill="{{rgb .Color}}"/>
<text x="{{.LX}}" y="{{.LY}}" text-anchor="middle" font-size="12" fill="#1f2937">{{.Label}}</text>
{{end}}{{range .Slices}}<path d="{{.D}}" fill="{{rgb .Color}}"/>
<text x="{{.LX}}" y="{{.LY}}" font-size="12" fill="#1f2937">{{.Label}}</text>
{{end}}</svg>
<script>requestAnimationFrame(function(){window.chartReady=true;});</script>
</body></html>`))

type svgBar struct {
	bar
	LX, LY int
}

type svgSlice struct {
	D      string
	Color  color.RGBA
	Label  string
	LX, LY int
}

func chartPage(c Chart, w, h int) (string, error) {
	data := struct {
		W, H, CX int
		Title    string
		Bars     []svgBar
		Slices   []svgSlice
	}{W: w, H: h, CX: w / 2, Title: c.Title}

	switch c.Kind {
	case KindPie:
		parts := slices(c)
		if len(parts) == 0 {
			return "", ErrEmptyChart
		}
		r := float64(h-marginTop-20) / 2
		cx, cy := float64(w)/3, float64(marginTop)+r
		for i, s := range parts {
			data.Slices = append(data.Slices, svgSlice{
				D:     arcPath(cx, cy, r, s.Start, s.End),
				Color: s.Color,
				Label: s.Label,
				LX:    int(cx+r) + 40,
				LY:    marginTop + 10 + i*20,
			})
		}
	default:
		for _, b := range bars(c, w, h) {
			data.Bars = append(data.Bars, svgBar{bar: b, LX: b.X + b.W/2, LY: h - marginBottom + 18})
		}
	}

	var buf bytes.Buffer
	if err := pageTmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render chart page: %w", err)
	}
	return buf.String(), nil
}

func arcPath(cx, cy, r, start, end float64) string {
	if end-start >= 2*math.Pi-1e-9 {
		return fmt.Sprintf("M %.2f %.2f m -%.2f 0 a %.2f %.2f 0 1 0 %.2f 0 a %.2f %.2f 0 1 0 -%.2f 0",
			cx, cy, r, r, r, 2*r, r, r, 2*r)
	}
	x0, y0 := cx+r*math.Sin(start), cy-r*math.Cos(start)
	x1, y1 := cx+r*math.Sin(end), cy-r*math.Cos(end)
	large := 0
	if end-start > math.Pi {
		large = 1
	}
	return fmt.Sprintf("M %.2f %.2f L %.2f %.2f A %.2f %.2f 0 %d 1 %.2f %.2f Z",
		cx, cy, x0, y0, r, r, large, x1, y1)
}
