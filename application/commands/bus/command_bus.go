// Package bus dispatches write operations to their registered handlers.
// Commands are pointer types: handlers write results back into the
// command, since dispatch returns only an error.
package bus

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"

	"go.uber.org/zap"
)

var (
	// ErrHandlerNotFound means no handler was registered for the
	// command's type.
	ErrHandlerNotFound = errors.New("command handler not found")

	// ErrValidationFailed wraps the command's own Validate error.
	ErrValidationFailed = errors.New("command validation failed")
)

// Command is a request to change session or stored state.
type Command interface {
	Validate() error
}

// CommandHandler executes one command type.
type CommandHandler interface {
	Handle(ctx context.Context, cmd Command) error
}

// CommandHandlerFunc adapts a function to the CommandHandler interface.
type CommandHandlerFunc func(ctx context.Context, cmd Command) error

func (f CommandHandlerFunc) Handle(ctx context.Context, cmd Command) error {
	return f(ctx, cmd)
}

// CommandBus routes commands to handlers keyed by concrete type.
type CommandBus struct {
	handlers map[reflect.Type]CommandHandler
	mu       sync.RWMutex
}

// NewCommandBus creates an empty bus.
func NewCommandBus() *CommandBus {
	return &CommandBus{
		handlers: make(map[reflect.Type]CommandHandler),
	}
}

// Register binds a handler to cmdType's concrete type. A second handler
// for the same type is a wiring bug and is rejected.
func (b *CommandBus) Register(cmdType Command, handler CommandHandler) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	t := reflect.TypeOf(cmdType)
	if _, exists := b.handlers[t]; exists {
		return fmt.Errorf("handler already registered for command type %s", t.String())
	}

	b.handlers[t] = handler
	return nil
}

// Send validates the command and dispatches it. Validation failures
// never reach a handler.
func (b *CommandBus) Send(ctx context.Context, cmd Command) error {
	if err := cmd.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrValidationFailed, err)
	}

	b.mu.RLock()
	handler, exists := b.handlers[reflect.TypeOf(cmd)]
	b.mu.RUnlock()

	if !exists {
		return fmt.Errorf("%w for command type %T", ErrHandlerNotFound, cmd)
	}

	return handler.Handle(ctx, cmd)
}

// Middleware wraps a handler with cross-cutting behavior.
type Middleware func(next CommandHandler) CommandHandler

// LoggingMiddleware logs every dispatch and every failure at the bus
// boundary, regardless of what the handler itself logs.
func LoggingMiddleware(logger *zap.Logger) Middleware {
	return func(next CommandHandler) CommandHandler {
		return CommandHandlerFunc(func(ctx context.Context, cmd Command) error {
			cmdType := reflect.TypeOf(cmd).String()
			logger.Debug("Dispatching command", zap.String("command", cmdType))

			err := next.Handle(ctx, cmd)
			if err != nil {
				logger.Error("Command failed",
					zap.String("command", cmdType),
					zap.Error(err),
				)
			}
			return err
		})
	}
}

// Pipeline applies a fixed middleware chain to handlers at
// registration time.
type Pipeline struct {
	middlewares []Middleware
}

// NewPipeline creates a pipeline; middlewares run in the order given.
func NewPipeline(middlewares ...Middleware) *Pipeline {
	return &Pipeline{
		middlewares: middlewares,
	}
}

// Execute wraps handler with the pipeline's chain.
func (p *Pipeline) Execute(handler CommandHandler) CommandHandler {
	for i := len(p.middlewares) - 1; i >= 0; i-- {
		handler = p.middlewares[i](handler)
	}
	return handler
}
