package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/stitts-dev/fight-edge/internal/llm"
	"github.com/stitts-dev/fight-edge/internal/models"
)

type OverviewGenerator interface {
	Overview(ctx context.Context, event models.Event) (string, error)
}

// CardOverview asks the backend for a free-text read of the whole card. The
// text is shared with every per-fight prompt.
type CardOverview struct {
	backend   llm.Backend
	prompts   *PromptBuilder
	maxTokens int
	logger    *logrus.Logger
}

func NewCardOverview(backend llm.Backend, prompts *PromptBuilder, maxTokens int, logger *logrus.Logger) *CardOverview {
	return &CardOverview{
		backend:   backend,
		prompts:   prompts,
		maxTokens: maxTokens,
		logger:    logger,
	}
}

func (o *CardOverview) Overview(ctx context.Context, event models.Event) (string, error) {
	prompt, system := o.prompts.BuildOverviewPrompt(event)

	resp, err := o.backend.Complete(ctx, llm.CompletionRequest{
		SystemPrompt:    system,
		Prompt:          prompt,
		MaxOutputTokens: o.maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("failed to generate card overview: %w", err)
	}

	text := strings.TrimSpace(string(resp.Content))
	o.logger.WithFields(logrus.Fields{
		"event":  event.Name,
		"length": len(text),
	}).Debug("Generated card overview")
	return text, nil
}
