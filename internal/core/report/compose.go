package report

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/atanuroy911/drorange-webapp/internal/core/aggregate"
	"github.com/atanuroy911/drorange-webapp/internal/core/catalog"
	"github.com/atanuroy911/drorange-webapp/internal/core/model"
	"github.com/atanuroy911/drorange-webapp/internal/core/qr"
	"github.com/atanuroy911/drorange-webapp/internal/locale"
	"github.com/atanuroy911/drorange-webapp/internal/rasterize"
)

// ErrNoData means there was nothing to report on.
var ErrNoData = errors.New("no data to generate report")

const (
	RecordTitle    = "Dr. Orange - Tree Report"
	AggregateTitle = "Dr. Orange - Garden Aggregate Report"

	na          = "N/A"
	naItem      = "- N/A"
	noTopDetail = "Details not available for the top prediction."
	noAggDetail = "Details not available for the highest predicted class."
	chartError  = "Chart rendering error."
	imageError  = "Error loading image."
	qrError     = "QR Code Error"
	rawError    = "Error displaying raw data."
	noSummary   = "Summary not available."
	solutionsCt = "Suggested Solutions (cont.):"
)

// GardenSummarizer writes a short narrative for the aggregate report.
type GardenSummarizer interface {
	SummarizeGarden(ctx context.Context, locale string, top []model.AggregateEntry, details []model.CatalogEntry) (string, error)
}

// Composer builds report Documents. It is safe for concurrent use as
// long as Measurer returns a fresh measurer per call.
type Composer struct {
	Measurer func(locale.Face) TextMeasurer
	Now      func() time.Time
	Logger   *zap.Logger
}

func NewComposer(r *Renderer, logger *zap.Logger) *Composer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Composer{Measurer: r.Measurer, Now: time.Now, Logger: logger}
}

func (c *Composer) start(state locale.ViewState, title string) *layout {
	doc := &Document{Title: title, Face: state.Face()}
	l := newLayout(doc, c.Measurer(doc.Face))
	l.draw(Rect{X: 0, Y: 0, W: PageWidth, H: HeaderHeight, Fill: Orange})
	l.draw(Text{X: 35, Y: 18, Size: 20, Color: White, Lines: []string{title}, LineHeight: lineHeight})
	l.y = ContentStart
	return l
}

func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return na
	}
	return s
}

// ComposeRecordReport lays out the report of a single prediction record.
// Failures of individual parts end up as notices in the document.
func (c *Composer) ComposeRecordReport(ctx context.Context, state locale.ViewState, rec model.PredictionRecord, r rasterize.Rasterizer, cat catalog.Lookup) *Document {
	log := c.Logger.With(zap.String("record", rec.ID))
	l := c.start(state, RecordTitle)
	l.draw(Text{X: 35, Y: 25, Size: 12, Color: White, Lines: []string{"Reported by: " + orNA(rec.TreeAuthor)}, LineHeight: lineHeight})

	// basic info and QR
	y := l.y
	l.draw(Text{X: 10, Y: y, Size: 12, Color: Black, LineHeight: 6, Lines: []string{
		"Tree ID: " + orNA(rec.TreeID),
		"Tree Description: " + orNA(rec.TreeDescription),
		"Date: " + state.FormatDate(rec.CreatedAt),
		"Time: " + state.FormatTime(rec.CreatedAt),
	}})
	code, _, err := func() (Image, float64, error) {
		png, err := qr.PNG(rec.ScoreMap)
		if err != nil {
			return Image{}, 0, err
		}
		return prepareImage(png)
	}()
	if err != nil {
		log.Warn("qr code failed", zap.Error(err))
		l.draw(Text{X: 150, Y: y + 15, Size: 12, Color: Red, Lines: []string{qrError}, LineHeight: lineHeight})
	} else {
		code.X, code.Y, code.W, code.H = 150, y-5, 45, 45
		l.draw(code)
	}
	l.skip(40)

	// captured image
	photo, photoAR, err := func() (Image, float64, error) {
		data, err := decodePhoto(rec.LastImage)
		if err != nil {
			return Image{}, 0, err
		}
		return prepareImage(data)
	}()
	if err != nil {
		log.Warn("captured image unusable", zap.Error(err))
		l.heading("Captured Image:", Blue, 20)
		l.errorBlock(10, 12, imageError)
	} else {
		_, h := fitImage(photoAR, 80, 60)
		l.heading("Captured Image:", Blue, h+5)
		l.image(10, photo, 80, 60, 5, photoAR)
	}

	// result chart
	chart, chartAR, err := c.chart(ctx, r, rasterize.Chart{
		Kind:    rasterize.KindBar,
		Entries: aggregate.Entries(rec.ScoreMap),
	})
	if err != nil {
		log.Warn("chart rendering failed", zap.Error(err))
		l.heading("Result Chart:", Blue, 20)
		l.errorBlock(10, 12, chartError)
	} else {
		_, h := fitImage(chartAR, 180, 80)
		l.heading("Result Chart:", Blue, h+5)
		l.image(10, chart, 180, 80, 5, chartAR)
	}

	// top prediction details
	var (
		entry model.CatalogEntry
		found bool
	)
	if name, _, ok := aggregate.TopPrediction(rec.ScoreMap); ok && cat != nil {
		entry, found = cat.Lookup(name)
	}
	l.heading("Top Prediction Details:", Blue, 6)
	if found {
		l.labeled(10, 35, 10, "Class:", orNA(entry.ClassName), 160, 2)
		l.labeled(10, 35, 10, "Type:", orNA(entry.Type), 160, 2)
		l.labeled(10, 35, 10, "Description:", orNA(entry.Description), 160, 2)
		l.labeled(10, 35, 10, "Damage:", orNA(entry.Damage), 160, 2)
		l.line(10, 10, Black, "Solutions:", 6)
		c.solutions(l, entry.Solutions, 15)
	} else {
		l.line(10, 10, Black, noTopDetail, 6)
	}
	l.skip(5)

	// raw data
	l.heading("Raw Data:", Blue, lineHeight)
	raw, err := json.MarshalIndent(rec.ScoreMap, "", "  ")
	if err != nil {
		log.Warn("raw data unprintable", zap.Error(err))
		l.line(10, 9, Black, rawError, 6)
	} else {
		for _, line := range l.wrap(string(raw), 180, 9) {
			l.line(10, 9, Black, line, lineHeight)
		}
	}

	return l.doc
}

func (c *Composer) solutions(l *layout, items []string, x float64) {
	if len(items) == 0 {
		l.line(x, 10, Black, naItem, 6)
		return
	}
	for _, s := range items {
		l.labeled(0, x, 10, "", "- "+s, 160, 1)
	}
}

func (c *Composer) chart(ctx context.Context, r rasterize.Rasterizer, ch rasterize.Chart) (Image, float64, error) {
	if r == nil {
		return Image{}, 0, errors.New("no rasterizer configured")
	}
	png, err := r.Render(ctx, ch)
	if err != nil {
		return Image{}, 0, err
	}
	return prepareImage(png)
}

// ComposeAggregateReport lays out the garden report from sorted aggregate
// entries. It returns ErrNoData when entries is empty. sum may be nil.
func (c *Composer) ComposeAggregateReport(ctx context.Context, state locale.ViewState, entries []model.AggregateEntry, r rasterize.Rasterizer, cat catalog.Lookup, sum GardenSummarizer) (*Document, error) {
	if len(entries) == 0 {
		return nil, ErrNoData
	}
	log := c.Logger
	l := c.start(state, AggregateTitle)

	// distribution chart
	chart, chartAR, err := c.chart(ctx, r, rasterize.Chart{Kind: rasterize.KindPie, Entries: entries})
	if err != nil {
		log.Warn("aggregate chart rendering failed", zap.Error(err))
		l.heading("Overall Garden Analysis - Prediction Distribution:", Black, 20)
		l.errorBlock(10, 14, chartError)
	} else {
		_, h := fitImage(chartAR, 150, 80)
		l.heading("Overall Garden Analysis - Prediction Distribution:", Black, h+10)
		l.image(30, chart, 150, 80, 10, chartAR)
	}

	// summary and details
	top := entries[0]
	var (
		entry model.CatalogEntry
		found bool
	)
	if cat != nil {
		entry, found = cat.Lookup(top.Name)
	}

	l.heading("Summary and Details:", Blue, 8)
	l.fit(8)
	l.draw(Text{X: 10, Y: l.y, Size: 12, Color: Black, Lines: []string{"Highest Predicted Class:"}, LineHeight: lineHeight})
	l.draw(Text{X: 70, Y: l.y, Size: 12, Color: Black, Lines: []string{fmt.Sprintf("%s (Aggregate Value: %.2f)", top.Name, top.Value)}, LineHeight: lineHeight})
	l.skip(8)

	if found {
		l.line(10, 12, Black, "Details:", 6)
		l.labeled(15, 45, 10, "Type:", orNA(entry.Type), 160, 2)
		l.labeled(15, 45, 10, "Description:", orNA(entry.Description), 160, 2)
		l.labeled(15, 45, 10, "Potential Damage:", orNA(entry.Damage), 160, 2)
		l.line(15, 10, Black, "Suggested Solutions:", 6)
		l.onNewPage = func() { l.line(15, 10, Black, solutionsCt, 6) }
		c.solutions(l, entry.Solutions, 20)
		l.onNewPage = nil
		l.skip(5)
	} else {
		l.line(15, 10, Black, noAggDetail, 10)
	}

	// optional narrative
	if sum != nil {
		text := c.gardenSummary(ctx, state, entries, cat, sum)
		l.heading("Garden Summary:", Blue, 6)
		l.labeled(0, 10, 10, "", text, 180, 2)
		l.skip(5)
	}

	// top defects
	l.heading("Top 3 Detected Defects:", Blue, 7)
	total := aggregate.Total(entries)
	for i, d := range aggregate.Head(entries, 3) {
		share := na
		if total > 0 {
			share = fmt.Sprintf("%.2f%%", aggregate.Percentage(d.Value, total))
		}
		l.line(15, 12, Black, fmt.Sprintf("%d. %s (Aggregate Value: %.2f, %s)",
			i+1, d.Name, d.Value, share), 7)
	}
	l.skip(5)

	// footer
	if l.y > 270 {
		l.addPage()
	}
	l.draw(Text{X: 10, Y: FooterY, Size: 10, Color: Gray, LineHeight: lineHeight, Lines: []string{
		"Report Generated on: " + state.FormatDateTime(c.Now()),
	}})

	return l.doc, nil
}

func (c *Composer) gardenSummary(ctx context.Context, state locale.ViewState, entries []model.AggregateEntry, cat catalog.Lookup, sum GardenSummarizer) string {
	top := aggregate.Head(entries, 3)
	var details []model.CatalogEntry
	if cat != nil {
		for _, e := range top {
			if d, ok := cat.Lookup(e.Name); ok {
				details = append(details, d)
			}
		}
	}
	text, err := sum.SummarizeGarden(ctx, state.Locale, top, details)
	if err != nil {
		c.Logger.Warn("garden summary failed", zap.Error(err))
		return noSummary
	}
	if strings.TrimSpace(text) == "" {
		return noSummary
	}
	return strings.TrimSpace(text)
}
