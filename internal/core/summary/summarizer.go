package summary

import (
	"context"
	"fmt"
	"strings"

	"github.com/atanuroy911/drorange-webapp/internal/config"
	"github.com/atanuroy911/drorange-webapp/internal/core/common"
	"github.com/atanuroy911/drorange-webapp/internal/core/model"
	"github.com/atanuroy911/drorange-webapp/internal/llm"
)

type Summarizer struct {
	LLM     llm.LLMClient
	Prompts config.SummaryPrompts
}

func NewSummarizer(llmClient llm.LLMClient, prompts config.SummaryPrompts) *Summarizer {
	return &Summarizer{
		LLM:     llmClient,
		Prompts: prompts,
	}
}

// SummarizeGarden asks the model for a short narrative over the top
// aggregate entries and the catalog notes of those classes.
func (s *Summarizer) SummarizeGarden(ctx context.Context, locale string, top []model.AggregateEntry, details []model.CatalogEntry) (string, error) {
	if s.LLM == nil {
		return "", fmt.Errorf("no llm client configured")
	}

	entriesList := ""
	for _, e := range top {
		entriesList += fmt.Sprintf("- %s: %.2f\n", e.Name, e.Value)
	}

	notes := ""
	for _, d := range details {
		notes += fmt.Sprintf("- %s (%s): %s", d.ClassName, d.Type, d.Description)
		if len(d.Solutions) > 0 {
			notes += fmt.Sprintf(" Solutions: %s", strings.Join(d.Solutions, "; "))
		}
		notes += "\n"
	}
	if notes == "" {
		notes = "- none\n"
	}

	prompt := fmt.Sprintf(s.Prompts.Garden, locale, entriesList, notes)

	response, err := s.LLM.Generate(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("failed to generate garden summary: %w", err)
	}

	result, err := common.ParseJSON[model.GardenSummary](response)
	if err == nil && result.Summary != "" {
		return strings.TrimSpace(result.Summary), nil
	}

	// Plain text answers are used as is.
	return strings.TrimSpace(response), nil
}
