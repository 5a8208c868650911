package services

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stitts-dev/fight-edge/internal/models"
)

type ProgressPublisher interface {
	PublishProgress(ctx context.Context, progress models.AnalysisProgress)
}

// RedisProgressPublisher fans progress out over redis pub/sub so any API
// instance can relay it to websocket subscribers.
type RedisProgressPublisher struct {
	cache   *CacheService
	timeout time.Duration
	logger  *logrus.Logger
}

func NewRedisProgressPublisher(cache *CacheService, logger *logrus.Logger) *RedisProgressPublisher {
	return &RedisProgressPublisher{
		cache:   cache,
		timeout: 2 * time.Second,
		logger:  logger,
	}
}

// PublishProgress is best effort: failures are logged and dropped.
func (p *RedisProgressPublisher) PublishProgress(ctx context.Context, progress models.AnalysisProgress) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.timeout)
	defer cancel()

	if err := p.cache.Publish(ctx, ProgressChannel(progress.RunID), progress); err != nil {
		p.logger.WithError(err).WithFields(logrus.Fields{
			"run_id": progress.RunID,
			"stage":  progress.Stage,
		}).Debug("Failed to publish analysis progress")
	}
}
