package services

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/stitts-dev/fight-edge/internal/models"
)

type FightRunner interface {
	Analyze(ctx context.Context, req FightRequest) models.FightAnalysis
}

// FightAnalyzer produces both artifacts for one matchup. The summary call
// completes before the breakdown call starts; a failure of one never skips the other.
type FightAnalyzer struct {
	summaries  SummaryGenerator
	breakdowns BreakdownGenerator
	logger     *logrus.Logger
}

func NewFightAnalyzer(summaries SummaryGenerator, breakdowns BreakdownGenerator, logger *logrus.Logger) *FightAnalyzer {
	return &FightAnalyzer{
		summaries:  summaries,
		breakdowns: breakdowns,
		logger:     logger,
	}
}

func (f *FightAnalyzer) Analyze(ctx context.Context, req FightRequest) models.FightAnalysis {
	analysis := models.FightAnalysis{
		Index:   req.Position - 1,
		Matchup: req.Matchup,
	}

	analysis.Summary = guard(req, models.ArtifactSummary, func() models.Result[models.EdgeSummary] {
		return f.summaries.Generate(ctx, req)
	})
	analysis.Breakdown = guard(req, models.ArtifactBreakdown, func() models.Result[models.FightBreakdown] {
		return f.breakdowns.Generate(ctx, req)
	})

	errs := analysis.Errors()
	f.logger.WithFields(logrus.Fields{
		"matchup":      req.Matchup.Label,
		"position":     req.Position,
		"summary_ok":   analysis.Summary.IsOk(),
		"breakdown_ok": analysis.Breakdown.IsOk(),
		"failures":     len(errs),
	}).Info("Fight analysis finished")

	return analysis
}

// guard turns a panicking generator into a recorded failure for that slot.
func guard[T any](req FightRequest, artifact models.Artifact, fn func() models.Result[T]) (result models.Result[T]) {
	defer func() {
		if r := recover(); r != nil {
			result = models.Fail[T](&models.GenerationError{
				Kind:         models.KindBackendUnavailable,
				Artifact:     artifact,
				MatchupLabel: req.Matchup.Label,
				Cause:        fmt.Errorf("generator panic: %v", r),
			})
		}
	}()
	return fn()
}
