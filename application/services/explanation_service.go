package services

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Anidipta/Node-Learner/application/ports"
	pkgerrors "github.com/Anidipta/Node-Learner/pkg/errors"
)

const (
	explanationKeyPrefix  = "explanation:"
	defaultExplanationTTL = 3600
)

// ExplanationService serves long-form topic explanations. Explanations
// are pure reads with no graph side effects, and the same topic keeps
// coming back as users revisit nodes, so results sit in the cache for an
// hour.
type ExplanationService struct {
	explorer ports.Explorer
	cache    ports.Cache
	ttl      int
	timeout  time.Duration
	logger   *zap.Logger
}

// NewExplanationService creates the explanation service. The cache is
// optional; without one every call reaches the explorer.
func NewExplanationService(explorer ports.Explorer, cache ports.Cache, ttlSeconds int, timeout time.Duration, logger *zap.Logger) *ExplanationService {
	if ttlSeconds <= 0 {
		ttlSeconds = defaultExplanationTTL
	}
	if timeout <= 0 {
		timeout = defaultExplorerTimeout
	}
	return &ExplanationService{
		explorer: explorer,
		cache:    cache,
		ttl:      ttlSeconds,
		timeout:  timeout,
		logger:   logger,
	}
}

// Explain returns a detailed explanation of topic, from cache when one
// is fresh.
func (s *ExplanationService) Explain(ctx context.Context, topic string) (string, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return "", pkgerrors.NewValidationError("topic is required")
	}

	key := explanationKeyPrefix + topic
	if s.cache != nil {
		if cached, found := s.cache.Get(ctx, key); found {
			if explanation, ok := cached.(string); ok {
				s.logger.Debug("Explanation cache hit", zap.String("topic", topic))
				return explanation, nil
			}
		}
	}

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	explanation, err := s.explorer.DetailedExplanation(callCtx, topic)
	if err != nil {
		return "", expansionErr(topic, err)
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, explanation, s.ttl); err != nil {
			s.logger.Warn("Failed to cache explanation",
				zap.String("topic", topic),
				zap.Error(err),
			)
		}
	}
	return explanation, nil
}
