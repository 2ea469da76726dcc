package report

import "strings"

// TextMeasurer reports the printed width in mm of s at a font size in pt.
type TextMeasurer interface {
	Width(s string, size float64) float64
}

const (
	lineHeight = 4.0
	headingAdv = 8.0
)

// layout tracks the vertical cursor of one document.
type layout struct {
	doc     *Document
	page    *Page
	y       float64
	measure TextMeasurer

	// onNewPage runs right after a page break caused by a block, before
	// the block itself is drawn.
	onNewPage func()
}

func newLayout(doc *Document, m TextMeasurer) *layout {
	l := &layout{doc: doc, measure: m}
	l.addPage()
	return l
}

func (l *layout) addPage() {
	l.page = &Page{}
	l.doc.Pages = append(l.doc.Pages, l.page)
	l.y = TopMargin
}

func (l *layout) draw(e Element) {
	l.page.Elements = append(l.page.Elements, e)
}

// fit starts a new page when a block of height h does not fit below the
// cursor. A block taller than a page is left at the top of the fresh page
// and allowed to run over.
func (l *layout) fit(h float64) {
	if l.y+h <= BottomLimit || l.y <= TopMargin {
		return
	}
	l.addPage()
	if l.onNewPage != nil {
		hook := l.onNewPage
		l.onNewPage = nil
		hook()
		l.onNewPage = hook
	}
}

func (l *layout) skip(dy float64) {
	l.y += dy
}

// heading draws a 14pt section title with a rule under it. keep is the
// height of the first block that must stay on the same page.
func (l *layout) heading(title string, color RGB, keep float64) {
	l.fit(headingAdv + keep)
	l.draw(Text{X: 10, Y: l.y, Size: 14, Color: color, Lines: []string{title}, LineHeight: lineHeight})
	l.draw(Rule{X1: 10, X2: 200, Y: l.y + 2})
	l.y += headingAdv
}

// line draws a single unwrapped text line and advances by adv.
func (l *layout) line(x float64, size float64, color RGB, s string, adv float64) {
	l.fit(adv)
	l.draw(Text{X: x, Y: l.y, Size: size, Color: color, Lines: []string{s}, LineHeight: lineHeight})
	l.y += adv
}

// labeled draws "label" at lx and text wrapped to width at tx, then
// advances by lines*4 + gap.
func (l *layout) labeled(lx, tx float64, size float64, label, text string, width, gap float64) {
	lines := l.wrap(text, width, size)
	adv := float64(len(lines))*lineHeight + gap
	l.fit(adv)
	if label != "" {
		l.draw(Text{X: lx, Y: l.y, Size: size, Color: Black, Lines: []string{label}, LineHeight: lineHeight})
	}
	l.draw(Text{X: tx, Y: l.y, Size: size, Color: Black, Lines: lines, LineHeight: lineHeight})
	l.y += adv
}

func (l *layout) image(x float64, img Image, maxW, maxH, gap float64, ar float64) {
	w, h := fitImage(ar, maxW, maxH)
	l.fit(h + gap)
	img.X, img.Y, img.W, img.H = x, l.y, w, h
	l.draw(img)
	l.y += h + gap
}

// errorBlock replaces a failed image with a red notice.
func (l *layout) errorBlock(x float64, size float64, msg string) {
	l.fit(20)
	l.draw(Text{X: x, Y: l.y + 10, Size: size, Color: Red, Lines: []string{msg}, LineHeight: lineHeight})
	l.y += 20
}

// fitImage scales an image of aspect ratio ar (w/h) into maxW×maxH.
func fitImage(ar, maxW, maxH float64) (float64, float64) {
	if ar <= 0 {
		return maxW, maxH
	}
	w := maxW
	h := w / ar
	if h > maxH {
		h = maxH
		w = h * ar
	}
	return w, h
}

func (l *layout) wrap(text string, width, size float64) []string {
	return wrapText(text, width, func(s string) float64 { return l.measure.Width(s, size) })
}

// wrapText breaks text into lines no wider than width. Explicit newlines
// and the leading indent of each paragraph are kept; words wider than a
// line are split by rune. The result always has at least one line.
func wrapText(text string, width float64, widthOf func(string) float64) []string {
	var out []string
	for _, para := range strings.Split(text, "\n") {
		words := strings.Fields(para)
		if len(words) == 0 {
			out = append(out, "")
			continue
		}
		lead := para[:len(para)-len(strings.TrimLeft(para, " \t"))]
		cur := ""
		for i, w := range words {
			cand := w
			switch {
			case i == 0:
				cand = lead + w
			case cur != "":
				cand = cur + " " + w
			}
			if widthOf(cand) <= width {
				cur = cand
				continue
			}
			if cur != "" {
				out = append(out, cur)
				cur = ""
			}
			for widthOf(w) > width && len([]rune(w)) > 1 {
				head, rest := splitRunes(w, width, widthOf)
				out = append(out, head)
				w = rest
			}
			cur = w
		}
		out = append(out, cur)
	}
	return out
}

// splitRunes returns the longest prefix of w that fits, at least one rune.
func splitRunes(w string, width float64, widthOf func(string) float64) (string, string) {
	r := []rune(w)
	n := 1
	for n < len(r) && widthOf(string(r[:n+1])) <= width {
		n++
	}
	return string(r[:n]), string(r[n:])
}
