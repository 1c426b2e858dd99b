package ai

import (
	"context"
	"time"

	"github.com/sashabaranov/go-openai"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/Anidipta/Node-Learner/infrastructure/config"
	pkgerrors "github.com/Anidipta/Node-Learner/pkg/errors"
)

// completionTemperature keeps explorations reproducible enough that the
// same topic lands on similar concept sets across sessions.
const completionTemperature = 0.3

// ChatClient is the transport the explorer speaks through. One method is
// enough: every exploration is a single system+user exchange.
type ChatClient interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// OpenAIClient talks to any OpenAI-compatible chat endpoint. The default
// configuration points at Groq; a circuit breaker sheds calls when the
// endpoint is failing, so a degraded model provider cannot pile up
// blocked expansion requests.
type OpenAIClient struct {
	client  *openai.Client
	model   string
	breaker *gobreaker.CircuitBreaker
	logger  *zap.Logger
}

// NewOpenAIClient builds the chat client from service configuration.
func NewOpenAIClient(cfg *config.Config, logger *zap.Logger) *OpenAIClient {
	clientConfig := openai.DefaultConfig(cfg.ExplorerAPIKey)
	if cfg.ExplorerBaseURL != "" {
		clientConfig.BaseURL = cfg.ExplorerBaseURL
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "explorer",
		MaxRequests: 3,
		Interval:    30 * time.Second,
		Timeout:     60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 5 {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= 0.8
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("Explorer circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})

	return &OpenAIClient{
		client:  openai.NewClientWithConfig(clientConfig),
		model:   cfg.ExplorerModel,
		breaker: breaker,
		logger:  logger,
	}
}

// Complete runs one chat completion and returns the raw assistant text.
func (c *OpenAIClient) Complete(ctx context.Context, system, user string) (string, error) {
	result, err := c.breaker.Execute(func() (interface{}, error) {
		resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model: c.model,
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleSystem, Content: system},
				{Role: openai.ChatMessageRoleUser, Content: user},
			},
			Temperature: completionTemperature,
		})
		if err != nil {
			return nil, err
		}
		if len(resp.Choices) == 0 {
			return nil, pkgerrors.NewExternalError("explorer", nil).
				WithDetails(map[string]interface{}{"reason": "no choices returned"})
		}
		return resp.Choices[0].Message.Content, nil
	})
	if err != nil {
		switch err {
		case gobreaker.ErrOpenState, gobreaker.ErrTooManyRequests:
			c.logger.Warn("Explorer call shed by circuit breaker", zap.Error(err))
			return "", pkgerrors.NewUnavailableError("explorer").WithCause(err)
		}
		if ctx.Err() != nil {
			return "", pkgerrors.NewTimeoutError("explorer completion").WithCause(err)
		}
		return "", pkgerrors.NewExternalError("explorer", err)
	}

	text, ok := result.(string)
	if !ok {
		return "", pkgerrors.NewInternalError("unexpected completion result type")
	}
	return text, nil
}
