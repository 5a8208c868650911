package services

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stitts-dev/fight-edge/internal/models"
	"golang.org/x/sync/errgroup"
)

// ProgressFunc receives progress events. It is called from worker goroutines
// and must be safe for concurrent use.
type ProgressFunc func(models.AnalysisProgress)

// CardAnalyzer fans a card out to a bounded pool of fight analyses and
// reassembles the results in card order.
type CardAnalyzer struct {
	fights   FightRunner
	overview OverviewGenerator
	workers  int
	logger   *logrus.Logger
}

// NewCardAnalyzer builds the analyzer. overview may be nil; workers below 1 run sequentially.
func NewCardAnalyzer(fights FightRunner, overview OverviewGenerator, workers int, logger *logrus.Logger) *CardAnalyzer {
	if workers < 1 {
		workers = 1
	}
	return &CardAnalyzer{
		fights:   fights,
		overview: overview,
		workers:  workers,
		logger:   logger,
	}
}

// AnalyzeCard analyzes every matchup of event. It only fails when the card
// itself is invalid; backend failures and cancellation leave matchups absent
// from the result and are listed in Failures.
func (c *CardAnalyzer) AnalyzeCard(ctx context.Context, event models.Event) (models.AnalysisResult, error) {
	return c.Analyze(ctx, event, nil)
}

// Analyze is AnalyzeCard with progress reporting.
func (c *CardAnalyzer) Analyze(ctx context.Context, event models.Event, progress ProgressFunc) (models.AnalysisResult, error) {
	if err := event.Validate(); err != nil {
		return models.AnalysisResult{}, fmt.Errorf("invalid card %q: %w", event.Name, err)
	}
	if progress == nil {
		progress = func(models.AnalysisProgress) {}
	}

	total := len(event.Matchups)
	start := time.Now()
	log := c.logger.WithFields(logrus.Fields{
		"event":    event.Name,
		"matchups": total,
		"workers":  c.workers,
	})
	log.Info("Starting card analysis")
	progress(models.AnalysisProgress{Stage: models.StageStarted, Total: total, Timestamp: time.Now()})

	overview := c.cardOverview(ctx, event, progress)

	analyses := make([]models.FightAnalysis, total)
	var completed atomic.Int32

	var g errgroup.Group
	g.SetLimit(c.workers)
	for i, matchup := range event.Matchups {
		i, matchup := i, matchup
		g.Go(func() error {
			req := FightRequest{
				EventName: event.Name,
				Matchup:   matchup,
				Position:  i + 1,
				Overview:  overview,
			}

			var analysis models.FightAnalysis
			if ctx.Err() == nil {
				analysis = c.fights.Analyze(ctx, req)
			}
			// Anything still in flight when the caller gives up counts as a double failure.
			if err := ctx.Err(); err != nil {
				analysis = abandoned(req, err)
			}
			analysis.Index = i
			analyses[i] = analysis

			done := int(completed.Add(1))
			progress(models.AnalysisProgress{
				Stage:        models.StageFight,
				Completed:    done,
				Total:        total,
				MatchupLabel: matchup.Label,
				SummaryOK:    analysis.Summary.IsOk(),
				BreakdownOK:  analysis.Breakdown.IsOk(),
				Timestamp:    time.Now(),
			})
			return nil
		})
	}
	_ = g.Wait()

	result := assemble(analyses)

	kinds := make(map[models.ErrorKind]int)
	for _, f := range result.Failures {
		kinds[f.Kind]++
	}
	log.WithFields(logrus.Fields{
		"summaries":   len(result.Summaries),
		"breakdowns":  len(result.Breakdowns),
		"failures":    len(result.Failures),
		"by_kind":     kinds,
		"duration_ms": time.Since(start).Milliseconds(),
		"canceled":    ctx.Err() != nil,
	}).Info("Card analysis completed")

	progress(models.AnalysisProgress{
		Stage:     models.StageCompleted,
		Completed: total,
		Total:     total,
		Message:   fmt.Sprintf("%d summaries, %d breakdowns", len(result.Summaries), len(result.Breakdowns)),
		Timestamp: time.Now(),
	})

	return result, nil
}

func (c *CardAnalyzer) cardOverview(ctx context.Context, event models.Event, progress ProgressFunc) string {
	if c.overview == nil || len(event.Matchups) == 0 {
		return ""
	}

	text, err := c.overview.Overview(ctx, event)
	if err != nil {
		c.logger.WithError(err).WithField("event", event.Name).Warn("Card overview unavailable, continuing without it")
		return ""
	}
	progress(models.AnalysisProgress{
		Stage:     models.StageOverview,
		Total:     len(event.Matchups),
		Timestamp: time.Now(),
	})
	return text
}

func abandoned(req FightRequest, cause error) models.FightAnalysis {
	fail := func(artifact models.Artifact) *models.GenerationError {
		return &models.GenerationError{
			Kind:         models.KindCanceled,
			Artifact:     artifact,
			MatchupLabel: req.Matchup.Label,
			Cause:        cause,
		}
	}
	return models.FightAnalysis{
		Matchup:   req.Matchup,
		Summary:   models.Fail[models.EdgeSummary](fail(models.ArtifactSummary)),
		Breakdown: models.Fail[models.FightBreakdown](fail(models.ArtifactBreakdown)),
	}
}

// assemble appends present artifacts in card order. A matchup missing one
// artifact leaves no gap in the other collection.
func assemble(analyses []models.FightAnalysis) models.AnalysisResult {
	result := models.AnalysisResult{
		Summaries:  []models.EdgeSummary{},
		Breakdowns: []models.FightBreakdown{},
	}
	for _, a := range analyses {
		if s, ok := a.Summary.Get(); ok {
			result.Summaries = append(result.Summaries, s)
		}
		if b, ok := a.Breakdown.Get(); ok {
			result.Breakdowns = append(result.Breakdowns, b)
		}
		result.Failures = append(result.Failures, a.Errors()...)
	}
	return result
}
