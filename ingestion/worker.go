package ingestion

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/docvec/queue"
)

const (
	// DefaultWorkerConcurrency is how many jobs the worker runs at once.
	DefaultWorkerConcurrency = 3
	// DefaultPollInterval is how long the worker sleeps when the queue
	// is empty.
	DefaultPollInterval = 500 * time.Millisecond
)

// StorePinger checks storage connectivity before the worker starts taking
// jobs. The badger backend satisfies it.
type StorePinger interface {
	Ping(ctx context.Context) error
}

// Worker drains the ingestion queue, running each job through the
// processor. Failed jobs go back to the queue with backoff until their
// attempts run out.
type Worker struct {
	queue        *queue.Queue
	processor    *Processor
	store        StorePinger
	pool         *ants.Pool
	pollInterval time.Duration
	logger       *slog.Logger

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	running sync.WaitGroup
}

// WorkerOption configures a Worker.
type WorkerOption func(*Worker) error

// WithConcurrency sets how many jobs run at once.
// Default is DefaultWorkerConcurrency.
func WithConcurrency(n int) WorkerOption {
	return func(w *Worker) error {
		if n < 1 {
			n = 1
		}
		if w.pool != nil {
			w.pool.Release()
		}
		pool, err := ants.NewPool(n)
		if err != nil {
			return err
		}
		w.pool = pool
		return nil
	}
}

// WithPollInterval sets the idle sleep between queue polls.
// Default is DefaultPollInterval.
func WithPollInterval(d time.Duration) WorkerOption {
	return func(w *Worker) error {
		if d <= 0 {
			return fmt.Errorf("poll interval must be positive")
		}
		w.pollInterval = d
		return nil
	}
}

// WithWorkerLogger sets a custom logger.
// Default is slog.Default().
func WithWorkerLogger(logger *slog.Logger) WorkerOption {
	return func(w *Worker) error {
		if logger == nil {
			logger = slog.Default()
		}
		w.logger = logger.With("component", "worker")
		return nil
	}
}

// NewWorker creates a worker draining q through processor.
func NewWorker(q *queue.Queue, processor *Processor, store StorePinger, opts ...WorkerOption) (*Worker, error) {
	if q == nil {
		return nil, ErrQueueRequired
	}
	if processor == nil {
		return nil, ErrProcessorRequired
	}

	pool, err := ants.NewPool(DefaultWorkerConcurrency)
	if err != nil {
		return nil, err
	}

	w := &Worker{
		queue:        q,
		processor:    processor,
		store:        store,
		pool:         pool,
		pollInterval: DefaultPollInterval,
		logger:       slog.Default().With("component", "worker"),
	}

	for _, opt := range opts {
		if err := opt(w); err != nil {
			pool.Release()
			return nil, err
		}
	}

	return w, nil
}

// Start verifies store connectivity and begins draining the queue in the
// background. Returns an error if the store is unreachable.
func (w *Worker) Start(ctx context.Context) error {
	if w.store != nil {
		if err := w.store.Ping(ctx); err != nil {
			return fmt.Errorf("store connectivity check failed: %w", err)
		}
	}

	loopCtx, cancel := context.WithCancel(ctx)
	w.mu.Lock()
	w.cancel = cancel
	w.done = make(chan struct{})
	w.mu.Unlock()

	w.logger.Info("worker started", "queue", w.queue.Name(), "concurrency", w.pool.Cap())
	go w.loop(loopCtx)
	return nil
}

// Stop halts polling, waits for in-flight jobs and releases the pool.
func (w *Worker) Stop() {
	w.mu.Lock()
	cancel, done := w.cancel, w.done
	w.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
	w.running.Wait()
	w.pool.Release()
	w.logger.Info("worker stopped")
}

func (w *Worker) loop(ctx context.Context) {
	defer close(w.done)

	for {
		if ctx.Err() != nil {
			return
		}

		job, err := w.queue.Dequeue(ctx)
		if err != nil {
			w.logger.Error("dequeue failed", "err", err)
			w.sleep(ctx)
			continue
		}
		if job == nil {
			w.sleep(ctx)
			continue
		}

		w.running.Add(1)
		submitted := job
		if err := w.pool.Submit(func() {
			defer w.running.Done()
			w.handle(ctx, submitted)
		}); err != nil {
			w.running.Done()
			w.logger.Error("submitting job to pool failed", "jobID", job.ID, "err", err)
			if failErr := w.queue.Fail(ctx, job, err); failErr != nil {
				w.logger.Error("recording job failure failed", "jobID", job.ID, "err", failErr)
			}
		}
	}
}

func (w *Worker) handle(ctx context.Context, job *queue.Job) {
	result, err := w.processor.Process(ctx, job.Payload)
	if err != nil {
		if failErr := w.queue.Fail(ctx, job, err); failErr != nil {
			w.logger.Error("recording job failure failed", "jobID", job.ID, "err", failErr)
		}
		return
	}

	if err := w.queue.Complete(ctx, job); err != nil {
		w.logger.Error("recording job completion failed", "jobID", job.ID, "err", err)
		return
	}
	w.logger.Info("job completed",
		"jobID", job.ID,
		"documentID", result.DocumentID,
		"chunks", result.Chunks)
}

func (w *Worker) sleep(ctx context.Context) {
	select {
	case <-time.After(w.pollInterval):
	case <-ctx.Done():
	}
}
