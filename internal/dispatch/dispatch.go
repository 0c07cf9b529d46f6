// Package dispatch runs behavior tree ticks for many characters off the
// simulation goroutine.
//
// Characters Enqueue one Job per simulation tick and, in the same tick, Take
// whatever result an earlier job left for them. A single dispatcher goroutine
// sleeps until work arrives, drains up to BatchSize jobs, ticks them
// concurrently on a pool of Workers goroutines and merges the batch into the
// result table under one lock. Decisions are therefore applied at least one
// tick after the snapshot they were computed from; a tick that panics is
// logged and leaves no result.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"runtime/debug"
	"sync"
	"sync/atomic"

	"github.com/joeycumines/goblinscript/internal/behavior"
	"golang.org/x/sync/errgroup"
)

// DefaultBatchSize caps how many jobs one dispatcher pass takes.
const DefaultBatchSize = 32

var (
	ErrNotStarted     = errors.New("dispatch: dispatcher not started")
	ErrAlreadyStarted = errors.New("dispatch: dispatcher already started")
	ErrStopped        = errors.New("dispatch: dispatcher stopped")
)

// Job asks for one tree tick on behalf of a character.
type Job struct {
	CharacterID uint64
	Snapshot    behavior.Snapshot
	Tree        *behavior.Tree
	Delta       float32
}

// Stats is a point-in-time copy of the dispatcher counters.
type Stats struct {
	Enqueued uint64
	Batches  uint64
	Ticked   uint64
	Panics   uint64
	Merged   uint64
	Taken    uint64
	Pending  int
}

func (s Stats) String() string {
	return fmt.Sprintf("enqueued=%d batches=%d ticked=%d panics=%d merged=%d taken=%d pending=%d",
		s.Enqueued, s.Batches, s.Ticked, s.Panics, s.Merged, s.Taken, s.Pending)
}

type counters struct {
	enqueued atomic.Uint64
	batches  atomic.Uint64
	ticked   atomic.Uint64
	panics   atomic.Uint64
	merged   atomic.Uint64
	taken    atomic.Uint64
}

const (
	stateNew int32 = iota
	stateRunning
	stateStopped
)

// Dispatcher is the process-wide tick pipeline. Construct it once with New,
// Start it once, and pass it to every character that needs it.
type Dispatcher struct {
	workers   int
	batchSize int
	logger    *slog.Logger

	queue *jobQueue

	mu      sync.Mutex
	results map[uint64][]behavior.Intent

	// life serializes Start and Stop; state is read without it.
	life   sync.Mutex
	state  atomic.Int32
	cancel context.CancelFunc
	done   chan struct{}

	stats counters
}

// Option configures New.
type Option func(*Dispatcher)

// WithWorkers sets the worker pool size. Values below 1 mean GOMAXPROCS.
func WithWorkers(n int) Option { return func(d *Dispatcher) { d.workers = n } }

// WithBatchSize sets the batch cap. Values below 1 mean DefaultBatchSize.
func WithBatchSize(n int) Option { return func(d *Dispatcher) { d.batchSize = n } }

// WithLogger sets the logger for panics and lifecycle events.
func WithLogger(l *slog.Logger) Option { return func(d *Dispatcher) { d.logger = l } }

// New returns a dispatcher that has not been started.
func New(opts ...Option) *Dispatcher {
	d := &Dispatcher{
		queue:   newJobQueue(),
		results: make(map[uint64][]behavior.Intent),
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.workers < 1 {
		d.workers = runtime.GOMAXPROCS(0)
	}
	if d.batchSize < 1 {
		d.batchSize = DefaultBatchSize
	}
	if d.logger == nil {
		d.logger = slog.Default()
	}
	return d
}

func (d *Dispatcher) Workers() int { return d.workers }

func (d *Dispatcher) BatchSize() int { return d.batchSize }

// Start launches the dispatcher goroutine. It may be called exactly once;
// the dispatcher runs until ctx is done or Stop is called, and cannot be
// restarted after either.
func (d *Dispatcher) Start(ctx context.Context) error {
	d.life.Lock()
	defer d.life.Unlock()
	switch d.state.Load() {
	case stateRunning:
		return ErrAlreadyStarted
	case stateStopped:
		return ErrStopped
	}
	ctx, d.cancel = context.WithCancel(ctx)
	d.state.Store(stateRunning)
	d.logger.Debug("dispatcher started", "workers", d.workers, "batch_size", d.batchSize)
	go d.loop(ctx)
	return nil
}

// Stop halts the dispatcher and waits for the in-flight batch to finish.
// Queued jobs that were not yet drained are dropped. Safe to call more than
// once and concurrently.
func (d *Dispatcher) Stop() {
	d.life.Lock()
	switch d.state.Swap(stateStopped) {
	case stateNew:
		close(d.done)
	case stateRunning:
		d.cancel()
	}
	d.life.Unlock()
	<-d.done
}

// Done is closed once the dispatcher goroutine has exited.
func (d *Dispatcher) Done() <-chan struct{} { return d.done }

// Enqueue submits a job without blocking. Callers treat an error as "no
// decision this tick".
func (d *Dispatcher) Enqueue(job Job) error {
	switch d.state.Load() {
	case stateNew:
		return ErrNotStarted
	case stateStopped:
		return ErrStopped
	}
	if job.Tree == nil {
		return errors.New("dispatch: job has no tree")
	}
	d.queue.push(job)
	d.stats.enqueued.Add(1)
	return nil
}

// Take removes and returns the latest result deposited for id. It never
// blocks; ok is false when no result is waiting.
func (d *Dispatcher) Take(id uint64) (intents []behavior.Intent, ok bool) {
	d.mu.Lock()
	intents, ok = d.results[id]
	if ok {
		delete(d.results, id)
	}
	d.mu.Unlock()
	if ok {
		d.stats.taken.Add(1)
	}
	return intents, ok
}

// Stats returns the current counters.
func (d *Dispatcher) Stats() Stats {
	return Stats{
		Enqueued: d.stats.enqueued.Load(),
		Batches:  d.stats.batches.Load(),
		Ticked:   d.stats.ticked.Load(),
		Panics:   d.stats.panics.Load(),
		Merged:   d.stats.merged.Load(),
		Taken:    d.stats.taken.Load(),
		Pending:  d.queue.len(),
	}
}

func (d *Dispatcher) loop(ctx context.Context) {
	defer func() {
		d.state.Store(stateStopped)
		d.cancel()
		dropped := d.queue.reset()
		d.logger.Debug("dispatcher stopped", "dropped", dropped, "stats", d.Stats().String())
		close(d.done)
	}()
	batch := make([]Job, 0, d.batchSize)
	results := make([]result, 0, d.batchSize)
	for {
		batch = d.queue.drain(batch[:0], d.batchSize)
		if len(batch) == 0 {
			select {
			case <-ctx.Done():
				return
			case <-d.queue.signal:
				continue
			}
		}
		results = d.runBatch(batch, results[:0])
		d.merge(results)
		clear(batch)
		if ctx.Err() != nil {
			return
		}
	}
}

type result struct {
	id      uint64
	intents []behavior.Intent
	ok      bool
}

// runBatch ticks every job concurrently, each writing only its own slot.
func (d *Dispatcher) runBatch(batch []Job, out []result) []result {
	out = append(out, make([]result, len(batch))...)
	var g errgroup.Group
	g.SetLimit(d.workers)
	for i := range batch {
		g.Go(func() error {
			out[i] = d.tick(batch[i])
			return nil
		})
	}
	_ = g.Wait()
	d.stats.batches.Add(1)
	return out
}

func (d *Dispatcher) tick(job Job) (r result) {
	defer func() {
		if v := recover(); v != nil {
			d.logger.Error("behavior tree tick panicked",
				"character", job.CharacterID,
				"tree", job.Tree.Name(),
				"panic", v,
				"stack", string(debug.Stack()))
			d.stats.panics.Add(1)
			r = result{}
		}
	}()
	intents := job.Tree.Tick(job.Snapshot, job.Delta)
	d.stats.ticked.Add(1)
	return result{id: job.CharacterID, intents: intents, ok: true}
}

// merge publishes a batch. Slots are in enqueue order, so a later job for
// the same character replaces an earlier one.
func (d *Dispatcher) merge(results []result) {
	var n uint64
	d.mu.Lock()
	for _, r := range results {
		if !r.ok {
			continue
		}
		d.results[r.id] = r.intents
		n++
	}
	d.mu.Unlock()
	d.stats.merged.Add(n)
}
