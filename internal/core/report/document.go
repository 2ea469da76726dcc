// Package report composes paginated PDF reports for single prediction
// records and for the whole garden.
//
// Composition and rendering are separate steps. Compose builds a
// Document of positioned elements in millimetres on A4 portrait; Render
// turns a Document into PDF bytes. Each compose call owns its Document and
// cursor, so concurrent reports share nothing but the catalog and the
// rasterizer.
package report

import "github.com/atanuroy911/drorange-webapp/internal/locale"

const (
	PageWidth  = 210.0
	PageHeight = 297.0

	// TopMargin is where the cursor starts on every page after the first.
	TopMargin = 15.0
	// BottomLimit is the lowest y a block may reach before it moves to a
	// new page.
	BottomLimit = 285.0
	// ContentStart is where the cursor starts below the header band.
	ContentStart = 40.0
	HeaderHeight = 30.0
	FooterY      = 290.0
)

type RGB struct{ R, G, B int }

var (
	Black  = RGB{0, 0, 0}
	White  = RGB{255, 255, 255}
	Orange = RGB{255, 165, 0}
	Blue   = RGB{59, 130, 246}
	Red    = RGB{255, 0, 0}
	Gray   = RGB{150, 150, 150}
)

// Element is one positioned drawing instruction.
type Element interface {
	isElement()
}

// Text draws Lines starting at baseline Y, LineHeight apart.
type Text struct {
	X, Y       float64
	Size       float64
	Color      RGB
	Lines      []string
	LineHeight float64
}

type Rect struct {
	X, Y, W, H float64
	Fill       RGB
}

// Rule is a horizontal line.
type Rule struct {
	X1, X2, Y float64
}

type Image struct {
	X, Y, W, H float64
	// Format is the image type understood by the PDF writer: "PNG", "JPG"
	// or "GIF".
	Format string
	Data   []byte
}

func (Text) isElement()  {}
func (Rect) isElement()  {}
func (Rule) isElement()  {}
func (Image) isElement() {}

type Page struct {
	Elements []Element
}

// Document is a composed report ready for rendering.
type Document struct {
	Title string
	Face  locale.Face
	Pages []*Page
}

// Texts returns every text line of the document in order, handy for
// assertions.
func (d *Document) Texts() []string {
	var out []string
	for _, p := range d.Pages {
		for _, e := range p.Elements {
			if t, ok := e.(Text); ok {
				out = append(out, t.Lines...)
			}
		}
	}
	return out
}
