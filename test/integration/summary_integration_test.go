//go:build integration

package integration

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atanuroy911/drorange-webapp/internal/config"
	"github.com/atanuroy911/drorange-webapp/internal/core/catalog"
	"github.com/atanuroy911/drorange-webapp/internal/core/model"
	"github.com/atanuroy911/drorange-webapp/internal/core/summary"
	"github.com/atanuroy911/drorange-webapp/internal/llm"
)

func TestGardenSummaryIntegration(t *testing.T) {
	_ = godotenv.Load("../../.env")
	if os.Getenv("LLM_PROVIDER") == "" {
		t.Skip("Skipping integration test: LLM_PROVIDER not set")
	}

	cfg, err := config.LoadOrDefault("../../config/config.toml")
	require.NoError(t, err)
	cfg.ApplyEnv()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	client, err := llm.NewClient(ctx, cfg.LLM, nil)
	require.NoError(t, err)
	require.NotNil(t, client)

	cat, err := catalog.NewRegistry(catalog.RegistryOptions{Fallback: "en"}).Get("en")
	require.NoError(t, err)

	top := []model.AggregateEntry{{Name: "HLB", Value: 4.2}, {Name: "Red Scale", Value: 1.3}, {Name: "Healthy", Value: 0.9}}
	var details []model.CatalogEntry
	for _, e := range top {
		if d, ok := cat.Lookup(e.Name); ok {
			details = append(details, d)
		}
	}

	s := summary.NewSummarizer(client, cfg.Summary)
	text, err := s.SummarizeGarden(ctx, "en", top, details)
	require.NoError(t, err)
	assert.NotEmpty(t, text)
	t.Logf("summary: %s", text)
}
