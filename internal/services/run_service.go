package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stitts-dev/fight-edge/internal/models"
	"github.com/stitts-dev/fight-edge/internal/repository"
)

var (
	ErrRateLimited = errors.New("analysis rate limit exceeded")
	ErrRunCanceled = errors.New("analysis run canceled")
)

type CardRunner interface {
	Analyze(ctx context.Context, event models.Event, progress ProgressFunc) (models.AnalysisResult, error)
}

type RunStore interface {
	Save(ctx context.Context, run models.AnalysisRun, summary repository.RunSummary) error
	GetByID(ctx context.Context, ownerID, id string) (models.AnalysisRun, error)
	ListByOwner(ctx context.Context, ownerID string, limit int) ([]models.RunListItem, error)
}

type RunServiceConfig struct {
	// ResultCacheTTL of zero disables result caching.
	ResultCacheTTL time.Duration
	// RunsPerHour of zero disables the per-owner limit.
	RunsPerHour int
}

type RunRequest struct {
	OwnerID string
	// RunID lets a client subscribe to progress before starting the run. Generated when empty.
	RunID string
	Title string
	Event models.Event
}

type RunOutcome struct {
	Run      models.AnalysisRun        `json:"run"`
	TopBet   *models.EdgeSummary       `json:"topBet,omitempty"`
	Ranked   []models.EdgeSummary      `json:"ranked"`
	Failures []*models.GenerationError `json:"failures,omitempty"`
	Cached   bool                      `json:"cached"`
}

// RunService turns a card into a persisted AnalysisRun.
type RunService struct {
	analyzer CardRunner
	store    RunStore
	cache    *CacheService
	progress ProgressPublisher
	config   RunServiceConfig
	logger   *logrus.Logger
	now      func() time.Time
}

// NewRunService wires the run pipeline. cache and progress may be nil.
func NewRunService(analyzer CardRunner, store RunStore, cache *CacheService, progress ProgressPublisher, cfg RunServiceConfig, logger *logrus.Logger) *RunService {
	return &RunService{
		analyzer: analyzer,
		store:    store,
		cache:    cache,
		progress: progress,
		config:   cfg,
		logger:   logger,
		now:      time.Now,
	}
}

// Run analyzes the card and saves the run once every matchup has been attempted.
func (s *RunService) Run(ctx context.Context, req RunRequest) (*RunOutcome, error) {
	if err := req.Event.Validate(); err != nil {
		return nil, err
	}
	if err := s.checkRateLimit(ctx, req.OwnerID); err != nil {
		return nil, err
	}

	runID := req.RunID
	if runID == "" {
		runID = uuid.NewString()
	}
	log := s.logger.WithFields(logrus.Fields{
		"run_id":   runID,
		"owner_id": req.OwnerID,
		"event":    req.Event.Name,
	})

	result, cached := s.cachedResult(ctx, req.Event)
	if !cached {
		var err error
		result, err = s.analyzer.Analyze(ctx, req.Event, s.progressFor(ctx, runID))
		if err != nil {
			return nil, err
		}
		if ctx.Err() != nil {
			log.Warn("Analysis run canceled before completion, not persisting")
			return nil, fmt.Errorf("%w: %v", ErrRunCanceled, ctx.Err())
		}
		if len(result.Failures) == 0 {
			s.storeResult(ctx, req.Event, result)
		}
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		title = req.Event.Name + " Analysis"
	}
	run := models.AnalysisRun{
		ID:         runID,
		OwnerID:    req.OwnerID,
		Title:      title,
		EventID:    req.Event.ID,
		CreatedAt:  s.now().UTC(),
		Summaries:  result.Summaries,
		Breakdowns: result.Breakdowns,
	}

	outcome := &RunOutcome{
		Run:      run,
		Ranked:   RankSummaries(run.Summaries),
		Failures: result.Failures,
		Cached:   cached,
	}
	summary := repository.RunSummary{BetCount: BetCount(run.Summaries)}
	if top, ok := TopBet(run.Summaries); ok {
		outcome.TopBet = &top
		summary.TopBet = top.RecommendedBet
	}

	if err := s.store.Save(ctx, run, summary); err != nil {
		return nil, fmt.Errorf("failed to persist analysis run %s: %w", runID, err)
	}

	log.WithFields(logrus.Fields{
		"summaries":  len(run.Summaries),
		"breakdowns": len(run.Breakdowns),
		"failures":   len(result.Failures),
		"top_bet":    summary.TopBet,
		"cached":     cached,
	}).Info("Analysis run saved")

	return outcome, nil
}

func (s *RunService) Get(ctx context.Context, ownerID, id string) (models.AnalysisRun, error) {
	return s.store.GetByID(ctx, ownerID, id)
}

func (s *RunService) List(ctx context.Context, ownerID string, limit int) ([]models.RunListItem, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.store.ListByOwner(ctx, ownerID, limit)
}

func (s *RunService) progressFor(ctx context.Context, runID string) ProgressFunc {
	if s.progress == nil {
		return nil
	}
	return func(p models.AnalysisProgress) {
		p.RunID = runID
		s.progress.PublishProgress(ctx, p)
	}
}

// checkRateLimit counts runs per owner per clock hour. Redis errors fail open.
func (s *RunService) checkRateLimit(ctx context.Context, ownerID string) error {
	if s.cache == nil || s.config.RunsPerHour <= 0 {
		return nil
	}

	now := s.now()
	count, err := s.cache.IncrementWindow(ctx, RunCounterKey(ownerID, now), time.Hour)
	if err != nil {
		s.logger.WithError(err).WithField("owner_id", ownerID).Warn("Rate limit check failed, allowing run")
		return nil
	}
	if count > int64(s.config.RunsPerHour) {
		return fmt.Errorf("%w: %d runs per hour", ErrRateLimited, s.config.RunsPerHour)
	}
	return nil
}

func (s *RunService) cachedResult(ctx context.Context, event models.Event) (models.AnalysisResult, bool) {
	if s.cache == nil || s.config.ResultCacheTTL <= 0 {
		return models.AnalysisResult{}, false
	}

	var result models.AnalysisResult
	if err := s.cache.Get(ctx, CardResultKey(CardHash(event)), &result); err != nil {
		if !errors.Is(err, ErrCacheMiss) {
			s.logger.WithError(err).Warn("Failed to read cached card result")
		}
		return models.AnalysisResult{}, false
	}
	return result, true
}

func (s *RunService) storeResult(ctx context.Context, event models.Event, result models.AnalysisResult) {
	if s.cache == nil || s.config.ResultCacheTTL <= 0 {
		return
	}
	if err := s.cache.Set(ctx, CardResultKey(CardHash(event)), result, s.config.ResultCacheTTL); err != nil {
		s.logger.WithError(err).Warn("Failed to cache card result")
	}
}

// CardHash identifies a card by its name, matchups and prices.
func CardHash(event models.Event) string {
	data, _ := json.Marshal(struct {
		Name     string           `json:"name"`
		Matchups []models.Matchup `json:"matchups"`
	}{event.Name, event.Matchups})
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
