package core

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atanuroy911/drorange-webapp/internal/core/catalog"
	"github.com/atanuroy911/drorange-webapp/internal/core/report"
	"github.com/atanuroy911/drorange-webapp/internal/driver"
	"github.com/atanuroy911/drorange-webapp/internal/locale"
	"github.com/atanuroy911/drorange-webapp/internal/rasterize"
)

var testNow = time.Date(2024, 3, 7, 14, 5, 9, 0, time.UTC)

func newTestDashboard(t *testing.T) (*Dashboard, *MockStore) {
	t.Helper()
	store := &MockStore{}
	d := NewDashboard(store,
		catalog.NewRegistry(catalog.RegistryOptions{Fallback: "en"}),
		report.NewRenderer(report.FontFiles{}, nil),
		rasterize.NewNative(), nil)

	n := 0
	d.UUIDGenerator = func() string {
		n++
		return fmt.Sprintf("uuid-%d", n)
	}
	tick := 0
	d.Now = func() time.Time {
		tick++
		return testNow.Add(time.Duration(tick) * time.Minute)
	}
	return d, store
}

func ingest(t *testing.T, d *Dashboard, tree, link string) string {
	t.Helper()
	rec, err := d.Ingest(context.Background(), IngestRequest{
		Link:      json.RawMessage(link),
		TreeID:    tree,
		LastImage: "aGVsbG8=",
	})
	require.NoError(t, err)
	return rec.ID
}

func testPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 2))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestIngest(t *testing.T) {
	ctx := context.Background()
	d, store := newTestDashboard(t)

	rec, err := d.Ingest(ctx, IngestRequest{
		Link:       json.RawMessage(`"{\"HLB\": 0.9, \"Healthy\": \"0.1\"}"`),
		TreeID:     "T1",
		TreeDesc:   "north row",
		TreeAuthor: "field-7",
		LastImage:  "aGVsbG8=",
	})
	require.NoError(t, err)
	assert.Equal(t, "uuid-1", rec.ID)
	assert.Equal(t, 2, rec.ScoreMap.Len())
	assert.Equal(t, "north row", rec.TreeDescription)
	assert.Equal(t, testNow.Add(time.Minute), rec.CreatedAt)

	stored, err := store.GetPrediction(ctx, "uuid-1")
	require.NoError(t, err)
	assert.Equal(t, "T1", stored.TreeID)
}

func TestIngest_Validation(t *testing.T) {
	ctx := context.Background()
	d, store := newTestDashboard(t)

	cases := []struct {
		name string
		req  IngestRequest
		want error
	}{
		{"no link", IngestRequest{TreeID: "T1", LastImage: "x"}, ErrMissingFields},
		{"null link", IngestRequest{Link: json.RawMessage("null"), TreeID: "T1", LastImage: "x"}, ErrMissingFields},
		{"empty string link", IngestRequest{Link: json.RawMessage(`""`), TreeID: "T1", LastImage: "x"}, ErrMissingFields},
		{"no tree", IngestRequest{Link: json.RawMessage(`{"A":1}`), LastImage: "x"}, ErrMissingFields},
		{"no image", IngestRequest{Link: json.RawMessage(`{"A":1}`), TreeID: "T1"}, ErrMissingFields},
		{"string not json", IngestRequest{Link: json.RawMessage(`"not json"`), TreeID: "T1", LastImage: "x"}, ErrInvalidLink},
		{"array", IngestRequest{Link: json.RawMessage(`[1,2]`), TreeID: "T1", LastImage: "x"}, ErrInvalidLink},
		{"string array", IngestRequest{Link: json.RawMessage(`"[1,2]"`), TreeID: "T1", LastImage: "x"}, ErrInvalidLink},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := d.Ingest(ctx, tc.req)
			assert.ErrorIs(t, err, tc.want)
		})
	}

	records, err := store.ListPredictions(ctx)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestIngest_StoreError(t *testing.T) {
	d, store := newTestDashboard(t)
	store.Err = errors.New("disk full")
	_, err := d.Ingest(context.Background(), IngestRequest{Link: json.RawMessage(`{"A":1}`), TreeID: "T1", LastImage: "x"})
	assert.ErrorContains(t, err, "disk full")
}

func TestListAndDelete(t *testing.T) {
	ctx := context.Background()
	d, _ := newTestDashboard(t)
	first := ingest(t, d, "T1", `{"A":1}`)
	second := ingest(t, d, "T2", `{"A":2}`)

	list, err := d.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second, list[0].ID)

	require.NoError(t, d.Delete(ctx, first))
	assert.ErrorIs(t, d.Delete(ctx, first), driver.ErrNotFound)

	list, err = d.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestAnalysis(t *testing.T) {
	ctx := context.Background()
	d, _ := newTestDashboard(t)

	a, err := d.Analysis(ctx, 3)
	require.NoError(t, err)
	assert.Empty(t, a.Entries)
	assert.Zero(t, a.Total)

	ingest(t, d, "T1", `{"A":3,"B":"x","C":1}`)
	ingest(t, d, "T2", `{"A":2,"D":4}`)

	a, err = d.Analysis(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, 10.0, a.Total)
	assert.Equal(t, []AnalysisEntry{
		{Name: "A", Value: 5, Percentage: 50},
		{Name: "D", Value: 4, Percentage: 40},
	}, a.Entries)
}

func TestQR(t *testing.T) {
	ctx := context.Background()
	d, _ := newTestDashboard(t)
	id := ingest(t, d, "T1", `{"HLB":0.9}`)

	url, err := d.QR(ctx, id)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "data:image/png;base64,"))

	_, err = d.QR(ctx, "missing")
	assert.ErrorIs(t, err, driver.ErrNotFound)
}

func TestLookupClass(t *testing.T) {
	d, _ := newTestDashboard(t)

	e, ok, err := d.LookupClass(locale.New("en", time.UTC), "hlb")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "HLB", e.ClassName)

	_, ok, err = d.LookupClass(locale.New("en", time.UTC), "Nitrogen deficiency")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRecordReport(t *testing.T) {
	ctx := context.Background()
	d, _ := newTestDashboard(t)
	id := ingest(t, d, "Tree 9", `{"HLB":0.9,"Healthy":0.1}`)
	state := locale.New("cn", time.UTC)

	art, err := d.RecordReport(ctx, state, id, nil)
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", art.ContentType)
	assert.Equal(t, "Tree_9-2024-3-7-14-06-09.pdf", art.Filename)
	assert.True(t, bytes.HasPrefix(art.Data, []byte("%PDF-")))

	// An uploaded chart replaces the server side rasterizer.
	mock := &MockRasterizer{}
	d.Rasterizer = mock
	_, err = d.RecordReport(ctx, state, id, testPNG(t))
	require.NoError(t, err)
	assert.Empty(t, mock.Kinds)

	_, err = d.RecordReport(ctx, state, "missing", nil)
	assert.ErrorIs(t, err, driver.ErrNotFound)
}

func TestAggregateReport(t *testing.T) {
	ctx := context.Background()
	d, _ := newTestDashboard(t)
	state := locale.New("en", time.UTC)

	_, err := d.AggregateReport(ctx, state, nil)
	assert.ErrorIs(t, err, report.ErrNoData)

	// Only non-numeric scores still means no data.
	ingest(t, d, "T1", `{"A":"x"}`)
	_, err = d.AggregateReport(ctx, state, nil)
	assert.ErrorIs(t, err, report.ErrNoData)

	ingest(t, d, "T2", `{"HLB":2,"Healthy":1}`)
	sum := &MockSummarizer{Response: "Mostly HLB."}
	d.Summarizer = sum

	art, err := d.AggregateReport(ctx, state, nil)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(art.Data, []byte("%PDF-")))
	assert.True(t, strings.HasPrefix(art.Filename, "Garden_Aggregate_Report_2024_03_07"))
	assert.Equal(t, 1, sum.Calls)
}

func TestAggregateReport_RasterizerFailure(t *testing.T) {
	ctx := context.Background()
	d, _ := newTestDashboard(t)
	ingest(t, d, "T1", `{"HLB":2}`)

	mock := &MockRasterizer{Err: errors.New("browser gone")}
	d.Rasterizer = mock

	art, err := d.AggregateReport(ctx, locale.New("en", time.UTC), nil)
	require.NoError(t, err)
	assert.NotEmpty(t, art.Data)
	assert.Equal(t, []rasterize.Kind{rasterize.KindPie}, mock.Kinds)
}

func TestExportCSV(t *testing.T) {
	ctx := context.Background()
	d, _ := newTestDashboard(t)
	state := locale.New("cn", time.UTC)

	_, ok, err := d.ExportCSV(ctx, state)
	require.NoError(t, err)
	assert.False(t, ok)

	ingest(t, d, "T1", `{"HLB":0.5}`)
	art, ok, err := d.ExportCSV(ctx, state)
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, strings.HasPrefix(art.Filename, "predictions_"))
	assert.Contains(t, string(art.Data), `T1,2024/3/7 14:06:09,"{""HLB"":0.5}"`)
}

func TestBulkRecordReports(t *testing.T) {
	ctx := context.Background()
	d, _ := newTestDashboard(t)
	state := locale.New("en", time.UTC)
	dir := filepath.Join(t.TempDir(), "out")

	_, err := d.BulkRecordReports(ctx, state, dir)
	assert.ErrorIs(t, err, report.ErrNoData)

	for i := 0; i < 5; i++ {
		ingest(t, d, fmt.Sprintf("T%d", i), `{"HLB":1,"Healthy":0.5}`)
	}
	d.BulkConcurrency = 2

	paths, err := d.BulkRecordReports(ctx, state, dir)
	require.NoError(t, err)
	require.Len(t, paths, 5)
	for _, p := range paths {
		data, err := os.ReadFile(p)
		require.NoError(t, err)
		assert.True(t, bytes.HasPrefix(data, []byte("%PDF-")), p)
	}
}

func TestBulkRecordReports_DuplicateNames(t *testing.T) {
	ctx := context.Background()
	d, _ := newTestDashboard(t)
	d.Now = func() time.Time { return testNow }
	ingest(t, d, "T1", `{"A":1}`)
	ingest(t, d, "T1", `{"A":2}`)

	paths, err := d.BulkRecordReports(ctx, locale.New("en", time.UTC), t.TempDir())
	require.NoError(t, err)
	require.Len(t, paths, 2)
	assert.NotEqual(t, paths[0], paths[1])
}
