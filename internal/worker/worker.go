// Package worker runs one search engine in a cancellable batch loop and
// reports progress through protocol events.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"ssh-vanity/internal/domain"
	"ssh-vanity/internal/keygen"
	"ssh-vanity/internal/protocol"
)

var (
	// ErrAlreadyInitialised is returned by a second Initialise.
	ErrAlreadyInitialised = errors.New("worker already initialised")
	// ErrNotInitialised is returned by Run before Initialise.
	ErrNotInitialised = errors.New("worker not initialised")
	// ErrAlreadyRunning is returned by Run while a loop is active.
	ErrAlreadyRunning = errors.New("worker already running")
)

// InitError wraps lifecycle misuse and engine construction failures.
type InitError struct {
	Err error
}

// Error formats the underlying cause.
func (e *InitError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("init: %v", e.Err)
}

// Unwrap exposes the cause for errors.Is / errors.As.
func (e *InitError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// EngineError wraps a failure raised while generating a batch.
type EngineError struct {
	Err error
}

// Error formats the underlying cause.
func (e *EngineError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("engine: %v", e.Err)
}

// Unwrap exposes the cause for errors.Is / errors.As.
func (e *EngineError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Engine is the bounded batch search a worker drives.
type Engine interface {
	GenerateBatch(batchSize int) (*domain.KeyPair, error)
}

// EngineFactory builds an engine from a job config.
type EngineFactory func(cfg domain.JobConfig) (Engine, error)

// KeygenEngine is the production EngineFactory.
func KeygenEngine(cfg domain.JobConfig) (Engine, error) {
	engine, err := keygen.NewEngine(cfg)
	if err != nil {
		return nil, err
	}
	return engine, nil
}

// Emitter receives events produced by a worker. It must not block forever.
type Emitter func(protocol.Event)

// Worker owns one engine and the loop driving it.
type Worker struct {
	ID string

	newEngine EngineFactory
	emit      Emitter
	logger    *slog.Logger

	mu        sync.Mutex
	engine    Engine
	batchSize int
	running   bool
	cancel    context.CancelFunc
	// loopDone is non-nil while a batch loop is still inside the engine,
	// including after Stop until the loop returns.
	loopDone chan struct{}
}

// New creates an uninitialised worker.
func New(id string, newEngine EngineFactory, emit Emitter, logger *slog.Logger) *Worker {
	if newEngine == nil {
		newEngine = KeygenEngine
	}
	if emit == nil {
		emit = func(protocol.Event) {}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Worker{
		ID:        id,
		newEngine: newEngine,
		emit:      emit,
		logger:    logger.With("worker", id),
	}
}

// Initialise builds the engine for cfg.
func (w *Worker) Initialise(cfg domain.JobConfig, batchSize int) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.engine != nil {
		return &InitError{Err: ErrAlreadyInitialised}
	}
	if batchSize < 1 {
		batchSize = domain.DefaultBatchSize
	}

	engine, err := w.newEngine(cfg)
	if err != nil {
		return &InitError{Err: err}
	}
	w.engine = engine
	w.batchSize = batchSize
	return nil
}

// Run drives the batch loop until a match, an engine failure, Stop, or ctx
// cancellation. Engine failures are emitted as error events; the returned
// error only reports lifecycle misuse. A Run that follows Stop waits for the
// stopped loop to leave the engine before starting.
func (w *Worker) Run(ctx context.Context) error {
	w.mu.Lock()
	for {
		if w.engine == nil {
			w.mu.Unlock()
			return &InitError{Err: ErrNotInitialised}
		}
		if w.running {
			w.mu.Unlock()
			return ErrAlreadyRunning
		}
		if w.loopDone == nil {
			break
		}
		prev := w.loopDone
		w.mu.Unlock()
		select {
		case <-prev:
		case <-ctx.Done():
			return nil
		}
		w.mu.Lock()
	}
	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	w.running = true
	w.cancel = cancel
	w.loopDone = done
	engine, batchSize := w.engine, w.batchSize
	w.mu.Unlock()

	defer func() {
		cancel()
		w.mu.Lock()
		w.running = false
		w.cancel = nil
		w.loopDone = nil
		w.mu.Unlock()
		close(done)
	}()

	w.logger.Debug("batch loop started", "batch_size", batchSize)
	for runCtx.Err() == nil {
		pair, err := generate(engine, batchSize)
		if err != nil {
			if runCtx.Err() != nil {
				return nil
			}
			w.logger.Warn("batch failed", "error", err)
			w.emit(protocol.ErrorEvent(&EngineError{Err: err}))
			return nil
		}
		if pair != nil {
			w.logger.Info("match found")
			w.emit(protocol.Found{Data: *pair})
			return nil
		}
		w.emit(protocol.Progress{KeysGenerated: batchSize})
	}
	w.logger.Debug("batch loop cancelled")
	return nil
}

// Stop requests cancellation. It is safe at any time and idempotent.
func (w *Worker) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.cancel != nil {
		w.cancel()
	}
	w.running = false
}

// Reset stops the worker and drops its engine so it can be initialised again.
func (w *Worker) Reset() {
	w.Stop()
	w.mu.Lock()
	defer w.mu.Unlock()
	w.engine = nil
	w.batchSize = 0
}

// Running reports whether a batch loop is active.
func (w *Worker) Running() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

// generate runs one batch, converting engine panics into errors.
func generate(engine Engine, batchSize int) (pair *domain.KeyPair, err error) {
	defer func() {
		if r := recover(); r != nil {
			pair = nil
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return engine.GenerateBatch(batchSize)
}
