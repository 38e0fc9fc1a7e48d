// ABOUTME: Bounded background writer pool for fire-and-forget persistence
// ABOUTME: Dispatch never blocks the caller; overflow and store failures are logged, not propagated

package store

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

const (
	// DefaultWriterWorkers is the number of goroutines draining the job queue.
	DefaultWriterWorkers = 4

	// DefaultWriterQueueSize bounds the pending job queue. Dispatches beyond
	// this are dropped with a warning rather than blocking a live session.
	DefaultWriterQueueSize = 256

	// writeTimeout bounds a single store call made by a worker.
	writeTimeout = 10 * time.Second
)

// writeJob is one deferred store operation with a name for log attribution.
type writeJob struct {
	name string
	fn   func(ctx context.Context) error
}

// Writer dispatches store writes to a fixed worker pool so the response
// stream is never gated on store round-trips. Durability is best-effort:
// failed or dropped writes are logged and forgotten.
type Writer struct {
	store  Store
	jobs   chan writeJob
	wg     sync.WaitGroup
	logger *slog.Logger

	mu     sync.RWMutex
	closed bool
}

// NewWriter creates a Writer backed by the given store and starts its workers.
// Pass 0 for workers or queueSize to use the defaults.
func NewWriter(s Store, workers, queueSize int, logger *slog.Logger) *Writer {
	if logger == nil {
		logger = slog.Default()
	}
	if workers <= 0 {
		workers = DefaultWriterWorkers
	}
	if queueSize <= 0 {
		queueSize = DefaultWriterQueueSize
	}

	w := &Writer{
		store:  s,
		jobs:   make(chan writeJob, queueSize),
		logger: logger.With("component", "writer"),
	}

	w.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go w.worker()
	}

	return w
}

// CreateSession dispatches a non-blocking session insert.
func (w *Writer) CreateSession(session *Session) {
	w.enqueue("create_session", func(ctx context.Context) error {
		return w.store.CreateSession(ctx, session)
	})
}

// InsertEvent dispatches a non-blocking event insert.
func (w *Writer) InsertEvent(event *Event) {
	w.enqueue("insert_event", func(ctx context.Context) error {
		return w.store.InsertEvent(ctx, event)
	})
}

// enqueue hands a job to the pool without blocking. Jobs submitted after
// Close, or while the queue is full, are dropped with a warning.
func (w *Writer) enqueue(name string, fn func(ctx context.Context) error) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	if w.closed {
		w.logger.Warn("writer closed, dropping write", "job", name)
		return
	}

	select {
	case w.jobs <- writeJob{name: name, fn: fn}:
	default:
		w.logger.Warn("write queue full, dropping write", "job", name)
	}
}

func (w *Writer) worker() {
	defer w.wg.Done()

	for job := range w.jobs {
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		if err := job.fn(ctx); err != nil {
			w.logger.Error("background write failed", "job", job.name, "error", err)
		}
		cancel()
	}
}

// Close stops accepting new jobs, drains the queue, and waits for the
// workers to finish. Safe to call more than once.
func (w *Writer) Close() {
	w.mu.Lock()
	alreadyClosed := w.closed
	if !alreadyClosed {
		w.closed = true
		close(w.jobs)
	}
	w.mu.Unlock()

	w.wg.Wait()
}
