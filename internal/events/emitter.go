package events

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/phrazzld/adaptiq/internal/platform/logger"
	"github.com/phrazzld/adaptiq/internal/redact"
)

// InMemoryEventEmitter dispatches events synchronously, in registration
// order, to the handlers registered in this process.
type InMemoryEventEmitter struct {
	mu       sync.RWMutex
	handlers []EventHandler
	logger   *slog.Logger
}

var _ EventEmitter = (*InMemoryEventEmitter)(nil)

// NewInMemoryEventEmitter creates an emitter with no handlers.
func NewInMemoryEventEmitter(log *slog.Logger) *InMemoryEventEmitter {
	if log == nil {
		log = slog.Default()
	}
	return &InMemoryEventEmitter{
		logger: log.With(slog.String("component", "event_emitter")),
	}
}

// RegisterHandler subscribes handler to every later event.
func (e *InMemoryEventEmitter) RegisterHandler(handler EventHandler) {
	e.mu.Lock()
	e.handlers = append(e.handlers, handler)
	n := len(e.handlers)
	e.mu.Unlock()

	e.logger.Debug("registered event handler", slog.Int("handler_count", n))
}

// EmitEvent delivers event to every handler, even after one fails, and
// returns the joined handler errors.
func (e *InMemoryEventEmitter) EmitEvent(ctx context.Context, event *Event) error {
	e.mu.RLock()
	handlers := append([]EventHandler(nil), e.handlers...)
	e.mu.RUnlock()

	log := logger.FromContextOrDefault(ctx, e.logger).With(
		slog.String("event_id", event.ID.String()),
		slog.String("event_type", event.Type),
	)
	if len(handlers) == 0 {
		log.Debug("no handlers registered for event")
		return nil
	}

	var errs []error
	for i, h := range handlers {
		if err := h.HandleEvent(ctx, event); err != nil {
			log.Error("handler failed to process event", redact.Attr(err), slog.Int("handler_index", i))
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
