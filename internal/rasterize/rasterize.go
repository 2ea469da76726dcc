// Package rasterize turns chart descriptions into PNG images for reports.
package rasterize

import (
	"context"
	"errors"

	"github.com/atanuroy911/drorange-webapp/internal/core/model"
)

var ErrEmptyChart = errors.New("chart has no data")

type Kind string

const (
	KindBar Kind = "bar"
	KindPie Kind = "pie"
)

// Chart is what a report asks to have drawn. Entries are expected in
// display order, largest first.
type Chart struct {
	Kind    Kind
	Title   string
	Entries []model.AggregateEntry
}

// Rasterizer renders a chart to PNG bytes. Render returns only once the
// image is complete.
type Rasterizer interface {
	Render(ctx context.Context, c Chart) ([]byte, error)
}

// Static hands back a PNG produced elsewhere, typically a chart the
// dashboard already drew and uploaded with the report request.
type Static struct {
	PNG []byte
}

func (s Static) Render(ctx context.Context, c Chart) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(s.PNG) == 0 {
		return nil, ErrEmptyChart
	}
	return s.PNG, nil
}
