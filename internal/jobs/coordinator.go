package jobs

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"ssh-vanity/internal/domain"
	"ssh-vanity/internal/keygen"
	"ssh-vanity/internal/protocol"
	"ssh-vanity/internal/worker"
)

// Observer receives coordinator events after state has been committed.
type Observer interface {
	OnEvent(Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Event)

// OnEvent calls f.
func (f ObserverFunc) OnEvent(e Event) { f(e) }

// Options configures a Coordinator. Zero values select production defaults.
type Options struct {
	NewEngine     worker.EngineFactory
	Logger        *slog.Logger
	Events        *EventBus
	StatsInterval time.Duration
	Now           func() time.Time
}

// Coordinator owns the worker pool and the run state machine. Every
// RunState mutation happens under mu; worker events for a run are consumed
// by a single goroutine in arrival order.
type Coordinator struct {
	newEngine     worker.EngineFactory
	logger        *slog.Logger
	events        *EventBus
	statsInterval time.Duration
	now           func() time.Time

	mu        sync.Mutex
	state     runState
	workers   map[string]*workerHandle
	cancelRun context.CancelFunc

	obsMu     sync.RWMutex
	observers map[int]Observer
	nextObsID int
}

// workerHandle is the coordinator's side of one spawned worker.
type workerHandle struct {
	id     string
	inbox  chan protocol.Message
	cancel context.CancelFunc
	logger *slog.Logger
}

// send queues a command without blocking the coordinator.
func (h *workerHandle) send(msg protocol.Message) {
	select {
	case h.inbox <- msg:
	default:
		h.logger.Warn("worker inbox full, command dropped", "type", msg.MessageType())
	}
}

// envelope tags a worker event with its origin.
type envelope struct {
	runID    string
	workerID string
	msg      protocol.Message
}

// NewCoordinator creates a coordinator in idle state.
func NewCoordinator(opts Options) *Coordinator {
	c := &Coordinator{
		newEngine:     opts.NewEngine,
		logger:        opts.Logger,
		events:        opts.Events,
		statsInterval: opts.StatsInterval,
		now:           opts.Now,
		state:         runState{status: domain.RunStatusIdle},
		workers:       make(map[string]*workerHandle),
		observers:     make(map[int]Observer),
	}
	if c.newEngine == nil {
		c.newEngine = worker.KeygenEngine
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	if c.events == nil {
		c.events = NewEventBus(1000)
	}
	if c.statsInterval <= 0 {
		c.statsInterval = DefaultStatsInterval
	}
	if c.now == nil {
		c.now = time.Now
	}
	return c
}

// Start validates cfg and spawns cfg.WorkerCount workers.
func (c *Coordinator) Start(cfg domain.JobConfig) (domain.Run, error) {
	cfg = cfg.Normalize()

	c.mu.Lock()
	if c.state.status == domain.RunStatusRunning {
		c.mu.Unlock()
		return domain.Run{}, ErrAlreadyRunning
	}
	if err := cfg.Validate(); err != nil {
		c.mu.Unlock()
		return domain.Run{}, err
	}

	runID := uuid.NewString()
	runCtx, cancel := context.WithCancel(context.Background())
	inbox := make(chan envelope, cfg.WorkerCount*4)

	c.state = runState{
		id:        runID,
		status:    domain.RunStatusRunning,
		startedAt: c.now(),
		config:    &cfg,
	}
	c.cancelRun = cancel
	for i := 0; i < cfg.WorkerCount; i++ {
		h := c.spawn(runCtx, runID, inbox)
		c.workers[h.id] = h
		h.send(protocol.Init{Config: cfg, BatchSize: cfg.BatchSize})
	}

	go c.consume(runCtx, inbox)
	go c.sample(runCtx, runID, keygen.ExpectedAttempts(cfg))

	c.logger.Info("search started",
		"run", runID,
		"workers", cfg.WorkerCount,
		"keywords", len(cfg.Keywords),
		"fields", len(cfg.Fields),
		"batch_size", cfg.BatchSize,
	)
	run := c.state.snapshot(len(c.workers))
	ev := c.publishLocked(Event{Type: EventTypeStatus, Status: domain.RunStatusRunning, Message: "Search started"})
	c.mu.Unlock()

	c.notify(ev)
	return run, nil
}

// Stop cancels a running search. It is a no-op in any other state.
func (c *Coordinator) Stop() {
	c.mu.Lock()
	if c.state.status != domain.RunStatusRunning {
		c.mu.Unlock()
		return
	}
	ev := c.stopLocked()
	c.mu.Unlock()

	c.notify(ev)
}

// Reset stops any running search and returns to idle with cleared counters.
func (c *Coordinator) Reset() {
	c.mu.Lock()
	var out []Event
	if c.state.status == domain.RunStatusRunning {
		out = append(out, c.stopLocked())
	}
	c.state = runState{status: domain.RunStatusIdle}
	out = append(out, c.publishLocked(Event{Type: EventTypeStatus, Status: domain.RunStatusIdle, Message: "Reset"}))
	c.mu.Unlock()

	c.notify(out...)
}

// Snapshot returns the current run state.
func (c *Coordinator) Snapshot() domain.Run {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.snapshot(len(c.workers))
}

// Stats samples the current run for display.
func (c *Coordinator) Stats() domain.Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.statsLocked()
}

// Events returns retained events with sequence greater than sinceSeq.
func (c *Coordinator) Events(sinceSeq int64) []Event {
	return c.events.Since(sinceSeq)
}

// LastSeq returns the sequence of the newest published event.
func (c *Coordinator) LastSeq() int64 {
	return c.events.LastSeq()
}

// Subscribe registers o and returns a function that removes it.
func (c *Coordinator) Subscribe(o Observer) func() {
	c.obsMu.Lock()
	defer c.obsMu.Unlock()
	id := c.nextObsID
	c.nextObsID++
	c.observers[id] = o
	return func() {
		c.obsMu.Lock()
		defer c.obsMu.Unlock()
		delete(c.observers, id)
	}
}

// spawn starts one worker mailbox bound to the run context.
func (c *Coordinator) spawn(runCtx context.Context, runID string, inbox chan<- envelope) *workerHandle {
	id := uuid.NewString()
	ctx, cancel := context.WithCancel(runCtx)
	emit := func(ev protocol.Event) {
		select {
		case inbox <- envelope{runID: runID, workerID: id, msg: ev}:
		case <-ctx.Done():
		}
	}

	h := &workerHandle{
		id:     id,
		inbox:  make(chan protocol.Message, 8),
		cancel: cancel,
		logger: c.logger.With("run", runID, "worker", id),
	}
	w := worker.New(id, c.newEngine, emit, h.logger)
	go w.Serve(ctx, h.inbox)
	return h
}

// consume applies worker events for one run, one at a time.
func (c *Coordinator) consume(ctx context.Context, inbox <-chan envelope) {
	for {
		select {
		case <-ctx.Done():
			return
		case env := <-inbox:
			c.handle(env)
		}
	}
}

// handle applies one worker event. Events for another run, or arriving after
// the run left running, are discarded.
func (c *Coordinator) handle(env envelope) {
	c.mu.Lock()
	if env.runID != c.state.id || c.state.status != domain.RunStatusRunning {
		c.mu.Unlock()
		return
	}

	var out []Event
	switch m := env.msg.(type) {
	case protocol.Initialised:
		if h, ok := c.workers[env.workerID]; ok {
			h.send(protocol.Start{})
		}
	case protocol.Progress:
		if m.KeysGenerated > 0 {
			c.state.total += uint64(m.KeysGenerated)
		}
	case protocol.Found:
		pair := m.Data
		c.transitionLocked(domain.RunStatusFound)
		c.state.result = &pair
		c.stopAllLocked()
		c.logger.Info("match found", "run", c.state.id, "worker", env.workerID, "keys", c.state.total)
		out = append(out,
			c.publishLocked(Event{Type: EventTypeResult, Status: domain.RunStatusFound, WorkerID: env.workerID, Result: &pair, Message: "Match found"}),
		)
	case protocol.Error:
		out = append(out, c.failLocked(env.workerID, m.Error))
	case protocol.Stopped:
	default:
		out = append(out, c.failLocked(env.workerID, protocol.Unexpected(env.msg).Error()))
	}
	c.mu.Unlock()

	c.notify(out...)
}

// failLocked moves the run to error and tears it down.
func (c *Coordinator) failLocked(workerID, message string) Event {
	c.transitionLocked(domain.RunStatusError)
	c.state.errMsg = message
	c.stopAllLocked()
	c.logger.Error("search failed", "run", c.state.id, "worker", workerID, "error", message)
	return c.publishLocked(Event{Type: EventTypeError, Status: domain.RunStatusError, WorkerID: workerID, Message: message})
}

// stopLocked cancels a running search on request.
func (c *Coordinator) stopLocked() Event {
	c.stopAllLocked()
	c.transitionLocked(domain.RunStatusStopped)
	c.logger.Info("search stopped", "run", c.state.id, "keys", c.state.total)
	return c.publishLocked(Event{Type: EventTypeStatus, Status: domain.RunStatusStopped, Message: "Search stopped"})
}

// transitionLocked applies one edge. Callers check the source status first,
// so a rejected edge is a coordinator bug and is logged.
func (c *Coordinator) transitionLocked(to domain.RunStatus) bool {
	if err := c.state.transition(to); err != nil {
		c.logger.Error("run state unchanged", "run", c.state.id, "error", err)
		return false
	}
	return true
}

// stopAllLocked cancels and releases every worker and the run's goroutines.
func (c *Coordinator) stopAllLocked() {
	for id, h := range c.workers {
		h.send(protocol.Stop{})
		h.cancel()
		delete(c.workers, id)
	}
	if c.cancelRun != nil {
		c.cancelRun()
		c.cancelRun = nil
	}
}

// sample publishes display stats until the run ends.
func (c *Coordinator) sample(ctx context.Context, runID string, expected float64) {
	ticker := time.NewTicker(c.statsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.mu.Lock()
			if c.state.id != runID || c.state.status != domain.RunStatusRunning {
				c.mu.Unlock()
				return
			}
			stats := ComputeStats(c.state.startedAt, c.now(), c.state.total, expected)
			ev := c.publishLocked(Event{Type: EventTypeStats, Status: domain.RunStatusRunning, Stats: &stats})
			c.mu.Unlock()

			c.notify(ev)
		}
	}
}

// statsLocked samples the current run.
func (c *Coordinator) statsLocked() domain.Stats {
	if c.state.startedAt.IsZero() {
		return domain.Stats{}
	}
	end := c.now()
	expected := 0.0
	if c.state.config != nil {
		expected = keygen.ExpectedAttempts(*c.state.config)
	}
	stats := ComputeStats(c.state.startedAt, end, c.state.total, expected)
	if c.state.status != domain.RunStatusRunning {
		// Rate and ETA only describe a live run.
		stats.KeysPerSecond = 0
		stats.ETA = 0
	}
	return stats
}

// publishLocked stamps the run id and records the event.
func (c *Coordinator) publishLocked(ev Event) Event {
	ev.RunID = c.state.id
	return c.events.Publish(ev)
}

// notify delivers committed events to observers.
func (c *Coordinator) notify(events ...Event) {
	if len(events) == 0 {
		return
	}
	c.obsMu.RLock()
	observers := make([]Observer, 0, len(c.observers))
	for _, o := range c.observers {
		observers = append(observers, o)
	}
	c.obsMu.RUnlock()

	for _, ev := range events {
		for _, o := range observers {
			o.OnEvent(ev)
		}
	}
}
