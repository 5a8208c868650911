package services

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stitts-dev/fight-edge/internal/contract"
	"github.com/stitts-dev/fight-edge/internal/llm"
	"github.com/stitts-dev/fight-edge/internal/models"
)

// FightRequest identifies one matchup on a card.
type FightRequest struct {
	EventName string
	Matchup   models.Matchup
	// Position is the 1-based card position, used as the summary ID when the
	// matchup has none.
	Position int
	Overview string
}

type SummaryGenerator interface {
	Generate(ctx context.Context, req FightRequest) models.Result[models.EdgeSummary]
}

type BreakdownGenerator interface {
	Generate(ctx context.Context, req FightRequest) models.Result[models.FightBreakdown]
}

// RetryPolicy applies to BackendUnavailable failures only. The zero value
// makes exactly one backend call per artifact.
type RetryPolicy struct {
	MaxRetries int
	Backoff    time.Duration
}

type AdapterConfig struct {
	MaxOutputTokens int
	Retry           RetryPolicy
}

// generationAdapter turns one backend call into one validated record or a
// GenerationError. It never panics or returns a bare error to its caller.
type generationAdapter struct {
	backend  llm.Backend
	prompts  *PromptBuilder
	contract contract.Contract
	artifact models.Artifact
	config   AdapterConfig
	logger   *logrus.Logger
}

func (a *generationAdapter) generate(ctx context.Context, req FightRequest, decode func([]byte) error) *models.GenerationError {
	if err := req.Matchup.Validate(); err != nil {
		var genErr *models.GenerationError
		if !errors.As(err, &genErr) {
			return a.failure(models.KindInputInvalid, req.Matchup.Label, err)
		}
		genErr.Artifact = a.artifact
		return genErr
	}

	prompt, system, err := a.prompts.BuildFightPrompt(a.artifact, PromptContext{
		EventName: req.EventName,
		Matchup:   req.Matchup,
		Overview:  req.Overview,
	})
	if err != nil {
		return a.failure(models.KindInputInvalid, req.Matchup.Label, err)
	}

	log := a.logger.WithFields(logrus.Fields{
		"artifact": a.artifact,
		"matchup":  req.Matchup.Label,
		"backend":  a.backend.Name(),
	})

	var genErr *models.GenerationError
	for attempt := 0; attempt <= a.config.Retry.MaxRetries; attempt++ {
		if attempt > 0 {
			log.WithFields(logrus.Fields{
				"attempt": attempt + 1,
				"error":   genErr.Cause.Error(),
			}).Info("Retrying generation after backend failure")

			if err := sleepCtx(ctx, a.config.Retry.Backoff*time.Duration(attempt)); err != nil {
				return a.failure(models.KindCanceled, req.Matchup.Label, err)
			}
		}

		start := time.Now()
		genErr = a.once(ctx, req.Matchup.Label, prompt, system, decode)
		if genErr == nil {
			log.WithField("duration_ms", time.Since(start).Milliseconds()).Debug("Generated artifact")
			return nil
		}
		if !genErr.Retriable() || !temporary(genErr.Cause) {
			break
		}
	}

	log.WithFields(logrus.Fields{
		"kind":  genErr.Kind,
		"error": genErr.Cause.Error(),
	}).Warn("Artifact generation failed")
	return genErr
}

func (a *generationAdapter) once(ctx context.Context, label, prompt, system string, decode func([]byte) error) *models.GenerationError {
	c := a.contract
	resp, err := a.backend.Complete(ctx, llm.CompletionRequest{
		SystemPrompt:    system,
		Prompt:          prompt,
		Contract:        &c,
		MaxOutputTokens: a.config.MaxOutputTokens,
	})
	if err != nil {
		return a.failure(classify(ctx, err), label, err)
	}

	if err := decode(resp.Content); err != nil {
		return a.failure(classify(ctx, err), label, err)
	}
	return nil
}

func (a *generationAdapter) failure(kind models.ErrorKind, label string, cause error) *models.GenerationError {
	return &models.GenerationError{
		Kind:         kind,
		Artifact:     a.artifact,
		MatchupLabel: label,
		Cause:        cause,
	}
}

func classify(ctx context.Context, err error) models.ErrorKind {
	switch {
	case ctx.Err() != nil, errors.Is(err, context.Canceled):
		return models.KindCanceled
	case errors.Is(err, contract.ErrContractViolation), errors.Is(err, llm.ErrMalformedOutput):
		return models.KindContractViolation
	default:
		return models.KindBackendUnavailable
	}
}

// temporary is false for backend answers that will not change on retry, like 400 or 401.
func temporary(err error) bool {
	var apiErr *llm.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Temporary()
	}
	return true
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// SummaryAdapter produces one EdgeSummary per call.
type SummaryAdapter struct {
	adapter generationAdapter
}

func NewSummaryAdapter(backend llm.Backend, prompts *PromptBuilder, cfg AdapterConfig, logger *logrus.Logger) *SummaryAdapter {
	return &SummaryAdapter{adapter: generationAdapter{
		backend:  backend,
		prompts:  prompts,
		contract: contract.Summary(),
		artifact: models.ArtifactSummary,
		config:   cfg,
		logger:   logger,
	}}
}

func (a *SummaryAdapter) Generate(ctx context.Context, req FightRequest) models.Result[models.EdgeSummary] {
	var summary models.EdgeSummary
	genErr := a.adapter.generate(ctx, req, func(data []byte) error {
		s, err := contract.DecodeSummary(data)
		if err != nil {
			return err
		}
		summary = s
		return nil
	})
	if genErr != nil {
		return models.Fail[models.EdgeSummary](genErr)
	}

	summary.ID = req.Matchup.ID
	if summary.ID == "" {
		summary.ID = strconv.Itoa(req.Position)
	}
	summary.FightLabel = req.Matchup.Label
	return models.Ok(summary)
}

// BreakdownAdapter produces one FightBreakdown per call.
type BreakdownAdapter struct {
	adapter generationAdapter
}

func NewBreakdownAdapter(backend llm.Backend, prompts *PromptBuilder, cfg AdapterConfig, logger *logrus.Logger) *BreakdownAdapter {
	return &BreakdownAdapter{adapter: generationAdapter{
		backend:  backend,
		prompts:  prompts,
		contract: contract.Breakdown(),
		artifact: models.ArtifactBreakdown,
		config:   cfg,
		logger:   logger,
	}}
}

func (a *BreakdownAdapter) Generate(ctx context.Context, req FightRequest) models.Result[models.FightBreakdown] {
	var breakdown models.FightBreakdown
	genErr := a.adapter.generate(ctx, req, func(data []byte) error {
		b, err := contract.DecodeBreakdown(data)
		if err != nil {
			return err
		}
		breakdown = b
		return nil
	})
	if genErr != nil {
		return models.Fail[models.FightBreakdown](genErr)
	}

	breakdown.FightLabel = req.Matchup.Label
	return models.Ok(breakdown)
}
