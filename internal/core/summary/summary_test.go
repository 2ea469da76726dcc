package summary

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atanuroy911/drorange-webapp/internal/config"
	"github.com/atanuroy911/drorange-webapp/internal/core/model"
)

func testInput() ([]model.AggregateEntry, []model.CatalogEntry) {
	top := []model.AggregateEntry{
		{Name: "HLB", Value: 1.75},
		{Name: "Healthy", Value: 0.5},
	}
	details := []model.CatalogEntry{
		{ClassName: "HLB", Type: "Disease", Description: "Greening.", Solutions: []string{"Remove trees", "Control psyllids"}},
	}
	return top, details
}

func TestSummarizeGarden_JSON(t *testing.T) {
	mockLLM := &MockLLMClient{
		Response: "Sure:\n```json\n{\"summary\": \"The garden shows HLB.\"}\n```",
	}
	s := NewSummarizer(mockLLM, config.SummaryPrompts{Garden: "locale=%s\n%s\n%s"})

	top, details := testInput()
	out, err := s.SummarizeGarden(context.Background(), "en", top, details)
	require.NoError(t, err)
	assert.Equal(t, "The garden shows HLB.", out)

	require.Len(t, mockLLM.Prompts, 1)
	prompt := mockLLM.Prompts[0]
	assert.Contains(t, prompt, "locale=en")
	assert.Contains(t, prompt, "- HLB: 1.75")
	assert.Contains(t, prompt, "- HLB (Disease): Greening. Solutions: Remove trees; Control psyllids")
}

func TestSummarizeGarden_PlainTextFallback(t *testing.T) {
	mockLLM := &MockLLMClient{Response: "  Mostly healthy trees.  "}
	s := NewSummarizer(mockLLM, config.Default().Summary)

	top, _ := testInput()
	out, err := s.SummarizeGarden(context.Background(), "cn", top, nil)
	require.NoError(t, err)
	assert.Equal(t, "Mostly healthy trees.", out)
	assert.Contains(t, mockLLM.Prompts[0], "- none")
}

func TestSummarizeGarden_Errors(t *testing.T) {
	s := NewSummarizer(&MockLLMClient{Err: errors.New("quota")}, config.Default().Summary)
	top, details := testInput()
	_, err := s.SummarizeGarden(context.Background(), "en", top, details)
	assert.ErrorContains(t, err, "quota")

	s = NewSummarizer(nil, config.Default().Summary)
	_, err = s.SummarizeGarden(context.Background(), "en", top, details)
	assert.Error(t, err)
}
