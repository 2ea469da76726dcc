//go:build integration

package driver

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemgraphIntegration_RoundTrip(t *testing.T) {
	uri := os.Getenv("MEMGRAPH_URI")
	if uri == "" {
		uri = "bolt://localhost:7687"
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	d, err := NewMemgraphDriver(ctx, uri, os.Getenv("MEMGRAPH_USER"), os.Getenv("MEMGRAPH_PASSWORD"), nil)
	if err != nil {
		t.Skipf("memgraph not reachable: %v", err)
	}
	require.NoError(t, d.BuildIndices(ctx))

	s := NewMemgraphStore(d)
	defer s.Close(ctx)

	rec := testRecord(uuid.New().String(), time.Now())
	require.NoError(t, s.CreatePrediction(ctx, rec))
	defer s.DeletePrediction(ctx, rec.ID)

	got, err := s.GetPrediction(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, rec.TreeID, got.TreeID)
	assert.Equal(t, rec.ScoreMap, got.ScoreMap)
	assert.Equal(t, rec.CreatedAt.UnixNano(), got.CreatedAt.UnixNano())

	require.NoError(t, s.DeletePrediction(ctx, rec.ID))
	_, err = s.GetPrediction(ctx, rec.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}
