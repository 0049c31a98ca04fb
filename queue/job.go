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


package queue

import "time"

// JobState describes where a job is in its lifecycle.
type JobState string

const (
	// StateQueued means the job is waiting to become ready.
	StateQueued JobState = "queued"
	// StateActive means a worker is processing the job.
	StateActive JobState = "active"
	// StateCompleted means the job finished successfully.
	StateCompleted JobState = "completed"
	// StateFailed means the job exhausted its attempts.
	StateFailed JobState = "failed"
)

const (
	// DefaultMaxAttempts is how many times a job runs before it is
	// marked failed.
	DefaultMaxAttempts = 3
	// DefaultBackoffBase is the delay before the first retry; each
	// subsequent retry doubles it.
	DefaultBackoffBase = 2 * time.Second
)

// Job is one unit of queued work. Payload is opaque to the queue; for
// ingestion it carries the document ID only. The upload's optional
// attributes (filename, content type) live on the document's FileRef and
// are resolved from the store when the job is processed.
type Job struct {
	ID          string
	Queue       string
	Payload     string
	State       JobState
	Attempts    int // number of times the job has been handed to a worker
	MaxAttempts int
	LastError   string
	EnqueuedAt  time.Time
	ReadyAt     time.Time // earliest time the job may be dequeued
	UpdatedAt   time.Time
}

// EventType classifies queue lifecycle events.
type EventType string

const (
	EventEnqueued  EventType = "enqueued"
	EventStarted   EventType = "started"
	EventRetried   EventType = "retried"
	EventCompleted EventType = "completed"
	EventFailed    EventType = "failed"
)

// Event is emitted on the subscription side channel whenever a job changes
// state. Events are advisory; consumers that fall behind lose events rather
// than blocking the queue.
type Event struct {
	Type     EventType
	JobID    string
	Queue    string
	Payload  string
	Attempts int
	Error    string
	Time     time.Time
}
