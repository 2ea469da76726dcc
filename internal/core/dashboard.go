// Package core wires the store, catalogs, composer and renderer into the
// operations the HTTP server and the CLI expose.
package core

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/atanuroy911/drorange-webapp/internal/core/aggregate"
	"github.com/atanuroy911/drorange-webapp/internal/core/catalog"
	"github.com/atanuroy911/drorange-webapp/internal/core/export"
	"github.com/atanuroy911/drorange-webapp/internal/core/model"
	"github.com/atanuroy911/drorange-webapp/internal/core/qr"
	"github.com/atanuroy911/drorange-webapp/internal/core/report"
	"github.com/atanuroy911/drorange-webapp/internal/driver"
	"github.com/atanuroy911/drorange-webapp/internal/locale"
	"github.com/atanuroy911/drorange-webapp/internal/rasterize"
)

var (
	ErrMissingFields = errors.New("missing fields")
	ErrInvalidLink   = errors.New("invalid link format")
)

// IngestRequest is one reading posted by a field device.
type IngestRequest struct {
	Link       json.RawMessage
	TreeID     string
	TreeDesc   string
	TreeAuthor string
	LastImage  string
}

// Artifact is a generated file ready for download.
type Artifact struct {
	Filename    string
	ContentType string
	Data        []byte
}

type AnalysisEntry struct {
	Name       string  `json:"name"`
	Value      float64 `json:"value"`
	Percentage float64 `json:"percentage"`
}

type Analysis struct {
	Entries []AnalysisEntry `json:"entries"`
	Total   float64         `json:"total"`
}

type Dashboard struct {
	Store    driver.RecordStore
	Catalogs *catalog.Registry
	Composer *report.Composer
	Renderer *report.Renderer
	// Rasterizer draws charts when the caller did not upload one.
	Rasterizer rasterize.Rasterizer
	// Summarizer is optional.
	Summarizer report.GardenSummarizer
	Logger     *zap.Logger

	UUIDGenerator   func() string
	Now             func() time.Time
	BulkConcurrency int

	DefaultLocale string
	Location      *time.Location

	closers []func(context.Context) error
}

func NewDashboard(store driver.RecordStore, catalogs *catalog.Registry, renderer *report.Renderer, r rasterize.Rasterizer, logger *zap.Logger) *Dashboard {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dashboard{
		Store:           store,
		Catalogs:        catalogs,
		Composer:        report.NewComposer(renderer, logger.Named("report")),
		Renderer:        renderer,
		Rasterizer:      r,
		Logger:          logger,
		UUIDGenerator:   func() string { return uuid.New().String() },
		Now:             time.Now,
		BulkConcurrency: 4,
		DefaultLocale:   locale.Default,
		Location:        time.Local,
	}
}

func isBlank(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	switch string(raw) {
	case "", "null", "false", `""`, "0":
		return true
	}
	return false
}

// Ingest validates and stores a reading.
func (d *Dashboard) Ingest(ctx context.Context, req IngestRequest) (model.PredictionRecord, error) {
	if isBlank(req.Link) || strings.TrimSpace(req.TreeID) == "" || req.LastImage == "" {
		return model.PredictionRecord{}, ErrMissingFields
	}

	scores, err := model.ParseScoreMap(req.Link)
	if err != nil {
		return model.PredictionRecord{}, fmt.Errorf("%w: %v", ErrInvalidLink, err)
	}

	rec := model.PredictionRecord{
		ID:              d.UUIDGenerator(),
		TreeID:          req.TreeID,
		TreeDescription: req.TreeDesc,
		TreeAuthor:      req.TreeAuthor,
		ScoreMap:        scores,
		LastImage:       req.LastImage,
		CreatedAt:       d.Now().UTC(),
	}
	if err := d.Store.CreatePrediction(ctx, rec); err != nil {
		return model.PredictionRecord{}, fmt.Errorf("save prediction: %w", err)
	}

	d.Logger.Info("prediction saved",
		zap.String("id", rec.ID), zap.String("tree_id", rec.TreeID), zap.Int("classes", scores.Len()))
	return rec, nil
}

func (d *Dashboard) List(ctx context.Context) ([]model.PredictionRecord, error) {
	return d.Store.ListPredictions(ctx)
}

func (d *Dashboard) Get(ctx context.Context, id string) (model.PredictionRecord, error) {
	return d.Store.GetPrediction(ctx, id)
}

func (d *Dashboard) Delete(ctx context.Context, id string) error {
	if err := d.Store.DeletePrediction(ctx, id); err != nil {
		return err
	}
	d.Logger.Info("prediction deleted", zap.String("id", id))
	return nil
}

// Analysis returns the top k aggregate entries with their share of the
// garden-wide total.
func (d *Dashboard) Analysis(ctx context.Context, k int) (Analysis, error) {
	records, err := d.Store.ListPredictions(ctx)
	if err != nil {
		return Analysis{}, err
	}
	all := aggregate.Aggregate(records)
	total := aggregate.Total(all)

	out := Analysis{Entries: []AnalysisEntry{}, Total: total}
	for _, e := range aggregate.Head(all, k) {
		var pct float64
		if total > 0 {
			pct = aggregate.Percentage(e.Value, total)
		}
		out.Entries = append(out.Entries, AnalysisEntry{Name: e.Name, Value: e.Value, Percentage: pct})
	}
	return out, nil
}

// QR returns the score map of a record as a QR code data URL.
func (d *Dashboard) QR(ctx context.Context, id string) (string, error) {
	rec, err := d.Store.GetPrediction(ctx, id)
	if err != nil {
		return "", err
	}
	return qr.DataURL(rec.ScoreMap)
}

// LookupClass finds the catalog entry of class in the view's locale.
func (d *Dashboard) LookupClass(state locale.ViewState, class string) (model.CatalogEntry, bool, error) {
	cat, err := d.Catalogs.Get(state.Locale)
	if err != nil {
		return model.CatalogEntry{}, false, err
	}
	e, ok := cat.Lookup(class)
	return e, ok, nil
}

// catalogFor never fails: a missing catalog turns into placeholder text.
func (d *Dashboard) catalogFor(state locale.ViewState) catalog.Lookup {
	cat, err := d.Catalogs.Get(state.Locale)
	if err != nil {
		d.Logger.Warn("catalog unavailable", zap.String("locale", state.Locale), zap.Error(err))
		return nil
	}
	return cat
}

func (d *Dashboard) rasterizer(chartPNG []byte) rasterize.Rasterizer {
	if len(chartPNG) > 0 {
		return rasterize.Static{PNG: chartPNG}
	}
	return d.Rasterizer
}

func (d *Dashboard) renderRecord(ctx context.Context, state locale.ViewState, rec model.PredictionRecord, r rasterize.Rasterizer) ([]byte, error) {
	doc := d.Composer.ComposeRecordReport(ctx, state, rec, r, d.catalogFor(state))
	data, err := d.Renderer.Render(doc)
	if err != nil {
		return nil, fmt.Errorf("render record report: %w", err)
	}
	return data, nil
}

// RecordReport builds the PDF of one record. chartPNG, when set, is used
// as the result chart instead of drawing one.
func (d *Dashboard) RecordReport(ctx context.Context, state locale.ViewState, id string, chartPNG []byte) (Artifact, error) {
	rec, err := d.Store.GetPrediction(ctx, id)
	if err != nil {
		return Artifact{}, err
	}
	data, err := d.renderRecord(ctx, state, rec, d.rasterizer(chartPNG))
	if err != nil {
		return Artifact{}, err
	}
	return Artifact{
		Filename:    report.RecordFilename(state, rec),
		ContentType: "application/pdf",
		Data:        data,
	}, nil
}

// AggregateReport builds the garden report over every stored record. It
// returns report.ErrNoData when there is nothing numeric to report.
func (d *Dashboard) AggregateReport(ctx context.Context, state locale.ViewState, chartPNG []byte) (Artifact, error) {
	records, err := d.Store.ListPredictions(ctx)
	if err != nil {
		return Artifact{}, err
	}

	doc, err := d.Composer.ComposeAggregateReport(ctx, state, aggregate.Aggregate(records),
		d.rasterizer(chartPNG), d.catalogFor(state), d.Summarizer)
	if err != nil {
		return Artifact{}, err
	}
	data, err := d.Renderer.Render(doc)
	if err != nil {
		return Artifact{}, fmt.Errorf("render aggregate report: %w", err)
	}
	return Artifact{
		Filename:    report.AggregateFilename(d.Now()),
		ContentType: "application/pdf",
		Data:        data,
	}, nil
}

// ExportCSV returns ok=false when there are no records.
func (d *Dashboard) ExportCSV(ctx context.Context, state locale.ViewState) (Artifact, bool, error) {
	records, err := d.Store.ListPredictions(ctx)
	if err != nil {
		return Artifact{}, false, err
	}
	data, ok, err := export.ToDelimitedText(records, state)
	if err != nil || !ok {
		return Artifact{}, ok, err
	}
	return Artifact{
		Filename:    export.Filename(d.Now()),
		ContentType: "text/csv; charset=utf-8",
		Data:        data,
	}, true, nil
}

// BulkRecordReports writes one PDF per stored record into dir and
// returns the written paths in list order.
func (d *Dashboard) BulkRecordReports(ctx context.Context, state locale.ViewState, dir string) ([]string, error) {
	records, err := d.Store.ListPredictions(ctx)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, report.ErrNoData
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	paths := make([]string, len(records))
	seen := make(map[string]bool, len(records))
	for i, rec := range records {
		name := report.RecordFilename(state, rec)
		if seen[name] {
			name = strings.TrimSuffix(name, ".pdf") + "-" + rec.ID + ".pdf"
		}
		seen[name] = true
		paths[i] = filepath.Join(dir, name)
	}

	limit := d.BulkConcurrency
	if limit < 1 {
		limit = 1
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, rec := range records {
		i, rec := i, rec
		g.Go(func() error {
			data, err := d.renderRecord(gctx, state, rec, d.Rasterizer)
			if err != nil {
				return fmt.Errorf("record %s: %w", rec.ID, err)
			}
			if err := os.WriteFile(paths[i], data, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", paths[i], err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	d.Logger.Info("record reports written", zap.Int("count", len(paths)), zap.String("dir", dir))
	return paths, nil
}
