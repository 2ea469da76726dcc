package report

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/go-pdf/fpdf"
	"go.uber.org/zap"

	"github.com/atanuroy911/drorange-webapp/internal/locale"
)

const fallbackFamily = "Helvetica"

// Renderer owns the font files and writes Documents as PDF. A face whose
// font file is missing falls back to Helvetica, which only prints
// Latin-1; other characters come out as '?'.
type Renderer struct {
	dir    string
	files  map[locale.Face]string
	logger *zap.Logger

	mu      sync.Mutex
	cache   map[string][]byte
	missing map[string]bool
}

type FontFiles struct {
	Dir     string
	Latin   string
	Bengali string
	Arabic  string
}

func NewRenderer(fonts FontFiles, logger *zap.Logger) *Renderer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Renderer{
		dir: fonts.Dir,
		files: map[locale.Face]string{
			locale.FaceLatin:   fonts.Latin,
			locale.FaceBengali: fonts.Bengali,
			locale.FaceArabic:  fonts.Arabic,
		},
		logger:  logger,
		cache:   make(map[string][]byte),
		missing: make(map[string]bool),
	}
}

func (r *Renderer) fontBytes(face locale.Face) []byte {
	if r == nil || r.dir == "" || r.files[face] == "" {
		return nil
	}
	path := filepath.Join(r.dir, r.files[face])

	r.mu.Lock()
	defer r.mu.Unlock()
	if data, ok := r.cache[path]; ok {
		return data
	}
	if r.missing[path] {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		r.missing[path] = true
		r.logger.Warn("font unavailable, using Helvetica",
			zap.String("face", string(face)), zap.String("path", path), zap.Error(err))
		return nil
	}
	r.cache[path] = data
	return data
}

// install selects the face on pdf and returns the conversion every string
// must go through before it is measured or printed.
func (r *Renderer) install(pdf *fpdf.Fpdf, face locale.Face) func(string) string {
	if data := r.fontBytes(face); data != nil {
		family := "doc-" + string(face)
		pdf.AddUTF8FontFromBytes(family, "", data)
		pdf.SetFont(family, "", 12)
		return func(s string) string { return s }
	}

	pdf.SetFont(fallbackFamily, "", 12)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	return func(s string) string { return tr(latin1(s)) }
}

func latin1(s string) string {
	return strings.Map(func(r rune) rune {
		if r > 0xFF {
			return '?'
		}
		return r
	}, s)
}

type pdfMeasurer struct {
	pdf  *fpdf.Fpdf
	conv func(string) string
}

func (m *pdfMeasurer) Width(s string, size float64) float64 {
	m.pdf.SetFontSize(size)
	return m.pdf.GetStringWidth(m.conv(s))
}

// Measurer returns text metrics for face. It is not safe for concurrent
// use; each composition takes its own.
func (r *Renderer) Measurer(face locale.Face) TextMeasurer {
	pdf := fpdf.New("P", "mm", "A4", "")
	return &pdfMeasurer{pdf: pdf, conv: r.install(pdf, face)}
}

// Render writes doc as PDF bytes.
func (r *Renderer) Render(doc *Document) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetCreator("Dr. Orange", true)
	if doc.Title != "" {
		pdf.SetTitle(doc.Title, true)
	}
	conv := r.install(pdf, doc.Face)

	for pi, p := range doc.Pages {
		pdf.AddPage()
		for ei, e := range p.Elements {
			switch e := e.(type) {
			case Rect:
				pdf.SetFillColor(e.Fill.R, e.Fill.G, e.Fill.B)
				pdf.Rect(e.X, e.Y, e.W, e.H, "F")
			case Rule:
				pdf.SetDrawColor(0, 0, 0)
				pdf.Line(e.X1, e.Y, e.X2, e.Y)
			case Text:
				pdf.SetFontSize(e.Size)
				pdf.SetTextColor(e.Color.R, e.Color.G, e.Color.B)
				for i, line := range e.Lines {
					pdf.Text(e.X, e.Y+float64(i)*e.LineHeight, conv(line))
				}
			case Image:
				name := fmt.Sprintf("img-%d-%d", pi, ei)
				opt := fpdf.ImageOptions{ImageType: e.Format}
				pdf.RegisterImageOptionsReader(name, opt, bytes.NewReader(e.Data))
				pdf.ImageOptions(name, e.X, e.Y, e.W, e.H, false, opt, 0, "")
			}
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("write pdf: %w", err)
	}
	return buf.Bytes(), nil
}
