package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/atanuroy911/drorange-webapp/internal/config"
	"github.com/atanuroy911/drorange-webapp/internal/core/catalog"
	"github.com/atanuroy911/drorange-webapp/internal/core/report"
	"github.com/atanuroy911/drorange-webapp/internal/core/summary"
	"github.com/atanuroy911/drorange-webapp/internal/driver"
	"github.com/atanuroy911/drorange-webapp/internal/llm"
	"github.com/atanuroy911/drorange-webapp/internal/locale"
	"github.com/atanuroy911/drorange-webapp/internal/rasterize"
)

// OpenStore connects the configured record store backend.
func OpenStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (driver.RecordStore, error) {
	switch cfg.Store.Backend {
	case "sqlite":
		s, err := driver.OpenSQLite(cfg.Store.SQLitePath)
		if err != nil {
			return nil, err
		}
		logger.Info("using sqlite store", zap.String("path", s.Path()))
		return s, nil
	case "memgraph":
		d, err := driver.NewMemgraphDriver(ctx, cfg.Memgraph.URI, cfg.Memgraph.User, cfg.Memgraph.Password, logger.Named("memgraph"))
		if err != nil {
			return nil, err
		}
		if err := d.BuildIndices(ctx); err != nil {
			_ = d.Close(ctx)
			return nil, err
		}
		return driver.NewMemgraphStore(d), nil
	default:
		return nil, fmt.Errorf("unsupported store backend: %s", cfg.Store.Backend)
	}
}

// NewRasterizer returns the configured server side chart renderer.
func NewRasterizer(cfg config.ReportConfig, kind string) (rasterize.Rasterizer, error) {
	if kind == "" {
		kind = cfg.Rasterizer
	}
	switch kind {
	case "native":
		return rasterize.NewNative(), nil
	case "browser":
		return rasterize.NewBrowser(cfg.BrowserControlURL, time.Duration(cfg.RasterTimeoutSec)*time.Second), nil
	default:
		return nil, fmt.Errorf("unsupported rasterizer: %s", kind)
	}
}

// Open builds a Dashboard from configuration. Close releases what it
// opened.
func Open(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Dashboard, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	mode, err := catalog.ParseMatchMode(cfg.Catalog.Match)
	if err != nil {
		return nil, err
	}
	tz, err := time.LoadLocation(cfg.Locale.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", cfg.Locale.Timezone, err)
	}
	r, err := NewRasterizer(cfg.Report, "")
	if err != nil {
		return nil, err
	}

	store, err := OpenStore(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	catalogs := catalog.NewRegistry(catalog.RegistryOptions{
		Dir:      cfg.Catalog.Dir,
		Fallback: cfg.Catalog.Fallback,
		Mode:     mode,
		Logger:   logger.Named("catalog"),
	})
	renderer := report.NewRenderer(report.FontFiles{
		Dir:     cfg.Report.FontsDir,
		Latin:   cfg.Report.LatinFont,
		Bengali: cfg.Report.BengaliFont,
		Arabic:  cfg.Report.ArabicFont,
	}, logger.Named("pdf"))

	d := NewDashboard(store, catalogs, renderer, r, logger.Named("dashboard"))
	d.BulkConcurrency = cfg.Concurrency.BulkReports
	d.DefaultLocale = cfg.Locale.Default
	d.Location = tz
	d.closers = append(d.closers, store.Close)
	if c, ok := r.(io.Closer); ok {
		d.closers = append(d.closers, func(context.Context) error { return c.Close() })
	}

	client, err := llm.NewClient(ctx, cfg.LLM, logger.Named("llm"))
	if err != nil {
		_ = d.Close(ctx)
		return nil, fmt.Errorf("failed to initialize llm client: %w", err)
	}
	if client != nil {
		d.Summarizer = summary.NewSummarizer(client, cfg.Summary)
		if c, ok := client.(io.Closer); ok {
			d.closers = append(d.closers, func(context.Context) error { return c.Close() })
		}
		logger.Info("garden summaries enabled", zap.String("provider", cfg.LLM.Provider))
	}

	return d, nil
}

// ViewState resolves the request locale against the dashboard defaults.
func (d *Dashboard) ViewState(param, acceptLanguage string) locale.ViewState {
	return locale.Resolve(param, acceptLanguage, d.DefaultLocale, d.Location)
}

func (d *Dashboard) Close(ctx context.Context) error {
	var errs []error
	for i := len(d.closers) - 1; i >= 0; i-- {
		if err := d.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	d.closers = nil
	return errors.Join(errs...)
}
