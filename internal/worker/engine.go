package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/bigp7952/siggil-sub002/internal/config"
	"github.com/bigp7952/siggil-sub002/internal/event"
	"github.com/bigp7952/siggil-sub002/internal/messaging"
	"github.com/bigp7952/siggil-sub002/internal/observability"
)

// HandlerRegistration binds an event type to a handler.
type HandlerRegistration struct {
	EventType event.Type
	Handler   Handler
}

// Handler processes one decoded event.
type Handler func(context.Context, event.Envelope) error

// Params collects dependencies via Fx.
type Params struct {
	fx.In

	Client        messaging.Client
	Logger        *zap.Logger
	Config        config.Config
	Metrics       *observability.Metrics `optional:"true"`
	Registrations []HandlerRegistration  `group:"worker.handlers"`
}

// Engine orchestrates background message consumption.
type Engine struct {
	client        messaging.Client
	logger        *zap.Logger
	cfg           config.Config
	metrics       *observability.Metrics
	registrations map[event.Type][]Handler
	cancel        context.CancelFunc
	wg            *sync.WaitGroup
}

// NewEngine constructs the worker Engine.
func NewEngine(p Params) *Engine {
	reg := make(map[event.Type][]Handler, len(p.Registrations))
	for _, r := range p.Registrations {
		if r.EventType == "" || r.Handler == nil {
			continue
		}
		reg[r.EventType] = append(reg[r.EventType], r.Handler)
	}

	return &Engine{
		client:        p.Client,
		logger:        p.Logger,
		cfg:           p.Config,
		metrics:       p.Metrics,
		registrations: reg,
	}
}

// Module wires the engine into Fx lifecycle.
var Module = fx.Options(
	fx.Provide(NewEngine),
	fx.Invoke(func(lc fx.Lifecycle, engine *Engine) {
		lc.Append(fx.Hook{
			OnStart: engine.start,
			OnStop:  engine.stop,
		})
	}),
)

func (e *Engine) start(ctx context.Context) error {
	if !e.cfg.Messaging.Enabled || !e.cfg.Messaging.Workers.Enabled {
		e.logger.Info("worker engine disabled")

		return nil
	}
	if len(e.registrations) == 0 {
		e.logger.Info("worker engine has no handlers; skipping")

		return nil
	}

	concurrency := e.cfg.Messaging.Workers.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}

	runCtx, cancel := context.WithCancel(context.Background())
	e.cancel = cancel
	e.wg = &sync.WaitGroup{}

	for i := 0; i < concurrency; i++ {
		workerID := i
		e.wg.Add(1)
		go func() {
			defer e.wg.Done()
			e.consumeLoop(runCtx, workerID)
		}()
	}

	e.logger.Info("worker engine started", zap.Int("workers", concurrency))

	return nil
}

func (e *Engine) stop(ctx context.Context) error {
	if e.cancel == nil {
		return nil
	}
	e.cancel()
	done := make(chan struct{})
	go func() {
		if e.wg != nil {
			e.wg.Wait()
		}
		close(done)
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		e.logger.Info("worker engine stopped")

		return nil
	}
}

// Dispatch decodes msg and runs every handler registered for its event type.
// Malformed messages are logged and dropped so they do not block the partition.
func (e *Engine) Dispatch(ctx context.Context, msg messaging.Message) error {
	env, err := event.Decode(msg)
	if err != nil {
		e.logger.Warn("dropping undecodable message",
			zap.String("topic", msg.Topic),
			zap.Int64("offset", msg.Offset),
			zap.Error(err),
		)

		return nil
	}

	handlers, ok := e.registrations[env.Type]
	if !ok {
		e.logger.Debug("no handler for event", zap.String("type", string(env.Type)))

		return nil
	}

	var errs []error
	for _, handler := range handlers {
		if err := handler(ctx, env); err != nil {
			errs = append(errs, err)
		}
	}
	e.metrics.EventProcessed(ctx, string(env.Type), len(errs) == 0)
	return errors.Join(errs...)
}

func (e *Engine) consumeLoop(ctx context.Context, workerID int) {
	backoff := time.Second
	for {
		if ctx.Err() != nil {
			return
		}

		err := e.client.Consume(ctx, func(msgCtx context.Context, msg messaging.Message) error {
			e.logger.Debug("processing message", zap.String("topic", msg.Topic), zap.Int("worker", workerID))

			return e.Dispatch(msgCtx, msg)
		})

		if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return
		}

		e.logger.Error("consume loop error", zap.Error(err))

		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return
		}

		if backoff < 30*time.Second {
			backoff *= 2
		}
	}
}
