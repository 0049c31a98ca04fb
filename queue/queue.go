// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


// Package queue implements a durable job queue on top of the badger backend.
// Jobs survive restarts; retries use exponential backoff. A subscription
// side channel publishes lifecycle events for observers.
package queue

import (
	"context"
	"encoding/binary"
	"fmt"
	"log/slog"
	"sync"
	"time"

	badgerdb "github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/poiesic/docvec/storage"
	"github.com/poiesic/docvec/storage/badger"
)

// Key prefixes for queue records
const (
	jobRecordPrefix = "jobrec"
	jobReadyPrefix  = "jobrdy"
)

// Queue is a named durable job queue.
type Queue struct {
	backend     *badger.Backend
	name        string
	maxAttempts int
	backoffBase time.Duration
	logger      *slog.Logger

	mu   sync.Mutex
	subs map[int]chan Event
	next int
}

// Option configures a Queue.
type Option func(*Queue) error

// WithMaxAttempts sets how many times a job runs before being marked failed.
// Default is DefaultMaxAttempts.
func WithMaxAttempts(n int) Option {
	return func(q *Queue) error {
		if n < 1 {
			return fmt.Errorf("max attempts must be positive, got %d", n)
		}
		q.maxAttempts = n
		return nil
	}
}

// WithBackoffBase sets the delay before the first retry.
// Default is DefaultBackoffBase.
func WithBackoffBase(d time.Duration) Option {
	return func(q *Queue) error {
		if d <= 0 {
			return fmt.Errorf("backoff base must be positive, got %s", d)
		}
		q.backoffBase = d
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(q *Queue) error {
		if logger == nil {
			logger = slog.Default()
		}
		q.logger = logger.With("component", "queue", "queue", q.name)
		return nil
	}
}

// New creates a queue with the given name on the backend. Jobs left in the
// active state by a previous process are recovered: re-queued for immediate
// redelivery, or marked failed when their attempt budget is already spent.
func New(backend *badger.Backend, name string, opts ...Option) (*Queue, error) {
	q := &Queue{
		backend:     backend,
		name:        name,
		maxAttempts: DefaultMaxAttempts,
		backoffBase: DefaultBackoffBase,
		logger:      slog.Default().With("component", "queue", "queue", name),
		subs:        make(map[int]chan Event),
	}
	for _, opt := range opts {
		if err := opt(q); err != nil {
			return nil, err
		}
	}
	if err := q.recover(); err != nil {
		return nil, fmt.Errorf("recovering interrupted jobs: %w", err)
	}
	return q, nil
}

// recover re-queues jobs that were claimed but never completed or failed,
// so a crash between Dequeue and Complete/Fail cannot strand them. The
// interrupted attempt stays counted; a job with no attempts left is marked
// failed instead of re-delivered.
func (q *Queue) recover() error {
	now := time.Now().UTC()

	return q.backend.WithTx(func(tx *badgerdb.Txn) error {
		opts := badgerdb.DefaultIteratorOptions
		opts.Prefix = []byte(jobRecordPrefix + ":")
		iter := tx.NewIterator(opts)

		var interrupted []*Job
		for iter.Rewind(); iter.Valid(); iter.Next() {
			var job *Job
			err := iter.Item().Value(func(val []byte) error {
				var unmarshalErr error
				job, unmarshalErr = unmarshalJob(val)
				return unmarshalErr
			})
			if err != nil {
				iter.Close()
				return err
			}
			if job.Queue == q.name && job.State == StateActive {
				interrupted = append(interrupted, job)
			}
		}
		iter.Close()

		if len(interrupted) == 0 {
			return nil
		}

		for _, job := range interrupted {
			job.UpdatedAt = now
			if job.Attempts >= job.MaxAttempts {
				job.State = StateFailed
				if job.LastError == "" {
					job.LastError = "interrupted before completion"
				}
				q.logger.Error("interrupted job out of attempts, marking failed",
					"jobID", job.ID, "attempts", job.Attempts)
			} else {
				job.State = StateQueued
				job.ReadyAt = now
				if err := tx.Set(q.makeReadyKey(job.ReadyAt, job.ID), []byte(job.ID)); err != nil {
					return err
				}
				q.logger.Warn("re-queued interrupted job",
					"jobID", job.ID, "attempts", job.Attempts)
			}
			if err := tx.Set(makeJobKey(job.ID), marshalJob(job)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// Name returns the queue name.
func (q *Queue) Name() string {
	return q.name
}

// Close closes all subscription channels.
func (q *Queue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	for id, ch := range q.subs {
		close(ch)
		delete(q.subs, id)
	}
	return nil
}

// Enqueue adds a job carrying payload and makes it immediately ready.
func (q *Queue) Enqueue(ctx context.Context, payload string) (*Job, error) {
	now := time.Now().UTC()
	job := &Job{
		ID:          uuid.NewString(),
		Queue:       q.name,
		Payload:     payload,
		State:       StateQueued,
		MaxAttempts: q.maxAttempts,
		EnqueuedAt:  now,
		ReadyAt:     now,
		UpdatedAt:   now,
	}

	err := q.backend.WithTx(func(tx *badgerdb.Txn) error {
		if err := tx.Set(makeJobKey(job.ID), marshalJob(job)); err != nil {
			return err
		}
		if err := tx.Set(q.makeReadyKey(job.ReadyAt, job.ID), []byte(job.ID)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return nil, err
	}

	q.logger.Debug("job enqueued", "jobID", job.ID, "payload", payload)
	q.publish(Event{Type: EventEnqueued, JobID: job.ID, Queue: q.name, Payload: payload, Time: now})
	return job, nil
}

// Dequeue claims the oldest ready job, marks it active and increments its
// attempt counter. Returns nil when no job is ready.
func (q *Queue) Dequeue(ctx context.Context) (*Job, error) {
	var job *Job
	now := time.Now().UTC()

	err := q.backend.WithTx(func(tx *badgerdb.Txn) error {
		opts := badgerdb.DefaultIteratorOptions
		opts.Prefix = q.readyPrefix()
		iter := tx.NewIterator(opts)

		var readyKey []byte
		var jobID string
		for iter.Rewind(); iter.Valid(); iter.Next() {
			key := iter.Item().Key()
			if readyAtFromKey(key, len(q.readyPrefix())).After(now) {
				break
			}
			readyKey = iter.Item().KeyCopy(nil)
			if err := iter.Item().Value(func(val []byte) error {
				jobID = string(val)
				return nil
			}); err != nil {
				iter.Close()
				return err
			}
			break
		}
		iter.Close()

		if jobID == "" {
			return nil
		}

		stored, err := readJob(tx, jobID)
		if err != nil {
			return err
		}
		if stored == nil {
			// Stale index entry; drop it
			return tx.Delete(readyKey)
		}

		stored.State = StateActive
		stored.Attempts++
		stored.UpdatedAt = now

		if err := tx.Delete(readyKey); err != nil {
			return err
		}
		if err := tx.Set(makeJobKey(stored.ID), marshalJob(stored)); err != nil {
			return err
		}
		if err := tx.Commit(); err != nil {
			return err
		}
		job = stored
		return nil
	}, true)
	if err != nil {
		return nil, err
	}

	if job != nil {
		q.publish(Event{Type: EventStarted, JobID: job.ID, Queue: q.name, Payload: job.Payload, Attempts: job.Attempts, Time: now})
	}
	return job, nil
}

// Complete marks an active job as finished.
func (q *Queue) Complete(ctx context.Context, job *Job) error {
	now := time.Now().UTC()
	job.State = StateCompleted
	job.UpdatedAt = now

	err := q.backend.WithTx(func(tx *badgerdb.Txn) error {
		if err := tx.Set(makeJobKey(job.ID), marshalJob(job)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return err
	}

	q.publish(Event{Type: EventCompleted, JobID: job.ID, Queue: q.name, Payload: job.Payload, Attempts: job.Attempts, Time: now})
	return nil
}

// Fail records a failed attempt. Jobs with attempts left are re-queued with
// exponential backoff; exhausted jobs go to the failed state.
func (q *Queue) Fail(ctx context.Context, job *Job, cause error) error {
	now := time.Now().UTC()
	job.LastError = cause.Error()
	job.UpdatedAt = now

	retrying := job.Attempts < job.MaxAttempts
	if retrying {
		job.State = StateQueued
		job.ReadyAt = now.Add(q.backoff(job.Attempts))
	} else {
		job.State = StateFailed
	}

	err := q.backend.WithTx(func(tx *badgerdb.Txn) error {
		if err := tx.Set(makeJobKey(job.ID), marshalJob(job)); err != nil {
			return err
		}
		if retrying {
			if err := tx.Set(q.makeReadyKey(job.ReadyAt, job.ID), []byte(job.ID)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return err
	}

	event := Event{JobID: job.ID, Queue: q.name, Payload: job.Payload, Attempts: job.Attempts, Error: job.LastError, Time: now}
	if retrying {
		q.logger.Warn("job attempt failed, retrying",
			"jobID", job.ID, "attempt", job.Attempts, "readyAt", job.ReadyAt, "err", cause)
		event.Type = EventRetried
	} else {
		q.logger.Error("job failed permanently",
			"jobID", job.ID, "attempts", job.Attempts, "err", cause)
		event.Type = EventFailed
	}
	q.publish(event)
	return nil
}

// Get retrieves a job by ID. Returns storage.ErrNotFound when absent.
func (q *Queue) Get(ctx context.Context, id string) (*Job, error) {
	var job *Job
	err := q.backend.WithTx(func(tx *badgerdb.Txn) error {
		var err error
		job, err = readJob(tx, id)
		if err != nil {
			return err
		}
		if job == nil {
			return storage.ErrNotFound
		}
		return nil
	}, false)
	return job, err
}

// Subscribe registers an observer for lifecycle events. The returned cancel
// function must be called to release the channel. Slow consumers lose
// events instead of blocking the queue.
func (q *Queue) Subscribe(buffer int) (<-chan Event, func()) {
	if buffer < 1 {
		buffer = 16
	}
	ch := make(chan Event, buffer)

	q.mu.Lock()
	id := q.next
	q.next++
	q.subs[id] = ch
	q.mu.Unlock()

	cancel := func() {
		q.mu.Lock()
		defer q.mu.Unlock()
		if sub, ok := q.subs[id]; ok {
			close(sub)
			delete(q.subs, id)
		}
	}
	return ch, cancel
}

func (q *Queue) publish(event Event) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, ch := range q.subs {
		select {
		case ch <- event:
		default:
		}
	}
}

// backoff computes the delay after the given attempt number.
func (q *Queue) backoff(attempts int) time.Duration {
	if attempts < 1 {
		attempts = 1
	}
	return q.backoffBase << (attempts - 1)
}

func (q *Queue) readyPrefix() []byte {
	return []byte(jobReadyPrefix + ":" + q.name + ":")
}

func (q *Queue) makeReadyKey(readyAt time.Time, id string) []byte {
	prefix := q.readyPrefix()
	buf := make([]byte, len(prefix)+8+len(id))
	offset := copy(buf, prefix)
	// BigEndian so lexicographic order matches readiness order
	binary.BigEndian.PutUint64(buf[offset:], uint64(readyAt.UnixMicro()))
	offset += 8
	copy(buf[offset:], []byte(id))
	return buf
}

func makeJobKey(id string) []byte {
	return []byte(jobRecordPrefix + ":" + id)
}

// readyAtFromKey extracts the readiness timestamp from an index key.
func readyAtFromKey(key []byte, prefixLen int) time.Time {
	if len(key) < prefixLen+8 {
		return time.Time{}
	}
	micros := binary.BigEndian.Uint64(key[prefixLen:])
	return time.UnixMicro(int64(micros)).UTC()
}

// readJob reads a job record from the transaction.
// Returns nil without error when the key is absent.
func readJob(tx *badgerdb.Txn, id string) (*Job, error) {
	item, err := tx.Get(makeJobKey(id))
	if err != nil {
		if err == badgerdb.ErrKeyNotFound {
			return nil, nil
		}
		return nil, err
	}

	var job *Job
	err = item.Value(func(val []byte) error {
		var unmarshalErr error
		job, unmarshalErr = unmarshalJob(val)
		return unmarshalErr
	})
	return job, err
}
