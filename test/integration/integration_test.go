//go:build integration

package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atanuroy911/drorange-webapp/internal/config"
	"github.com/atanuroy911/drorange-webapp/internal/core"
	"github.com/atanuroy911/drorange-webapp/internal/driver"
)

// memgraphConfig returns the repository config pointed at Memgraph, or
// skips when MEMGRAPH_URI is not set.
func memgraphConfig(t *testing.T) *config.Config {
	t.Helper()
	_ = godotenv.Load("../../.env")

	if os.Getenv("MEMGRAPH_URI") == "" {
		t.Skip("Skipping integration test: MEMGRAPH_URI not set")
	}

	cfg, err := config.LoadOrDefault("../../config/config.toml")
	require.NoError(t, err)
	cfg.ApplyEnv()
	cfg.Store.Backend = "memgraph"
	cfg.Catalog.Dir = ""
	cfg.LLM.Provider = ""
	return cfg
}

func TestFullFlow(t *testing.T) {
	cfg := memgraphConfig(t)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	d, err := core.Open(ctx, cfg, nil)
	require.NoError(t, err)
	defer d.Close(context.Background())

	tree := "it-" + uuid.New().String()
	rec, err := d.Ingest(ctx, core.IngestRequest{
		Link:      json.RawMessage(`"{\"HLB\": 0.82, \"Healthy\": \"0.11\", \"note\": true}"`),
		TreeID:    tree,
		TreeDesc:  "integration",
		LastImage: "aGVsbG8=",
	})
	require.NoError(t, err)
	defer d.Delete(context.Background(), rec.ID)

	got, err := d.Get(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, tree, got.TreeID)
	assert.Equal(t, 3, got.ScoreMap.Len())
	names := []string{}
	for _, s := range got.ScoreMap.Scores() {
		names = append(names, s.Name)
	}
	assert.Equal(t, []string{"HLB", "Healthy", "note"}, names)

	state := d.ViewState("en", "")
	art, err := d.RecordReport(ctx, state, rec.ID, nil)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(art.Data, []byte("%PDF-")))

	art, err = d.AggregateReport(ctx, state, nil)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(art.Data, []byte("%PDF-")))

	require.NoError(t, d.Delete(ctx, rec.ID))
	assert.ErrorIs(t, d.Delete(ctx, rec.ID), driver.ErrNotFound)
}
