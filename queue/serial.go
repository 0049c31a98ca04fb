package queue

import (
	"time"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/raw"
	"github.com/mus-format/mus-go/varint"
)

// Hand-written MUS serializer for stored jobs. Field order is part of the
// storage format; append new fields at the end only.

var jobMUS = jobSerializer{}

type jobSerializer struct{}

func (jobSerializer) Marshal(j Job, bs []byte) (n int) {
	n = ord.String.Marshal(j.ID, bs)
	n += ord.String.Marshal(j.Queue, bs[n:])
	n += ord.String.Marshal(j.Payload, bs[n:])
	n += ord.String.Marshal(string(j.State), bs[n:])
	n += varint.Int.Marshal(j.Attempts, bs[n:])
	n += varint.Int.Marshal(j.MaxAttempts, bs[n:])
	n += ord.String.Marshal(j.LastError, bs[n:])
	n += marshalTime(j.EnqueuedAt, bs[n:])
	n += marshalTime(j.ReadyAt, bs[n:])
	n += marshalTime(j.UpdatedAt, bs[n:])
	return n
}

func (jobSerializer) Unmarshal(bs []byte) (j Job, n int, err error) {
	var (
		c     int
		state string
	)
	if j.ID, n, err = ord.String.Unmarshal(bs); err != nil {
		return
	}
	if j.Queue, c, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += c
	if j.Payload, c, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += c
	if state, c, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += c
	j.State = JobState(state)
	if j.Attempts, c, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += c
	if j.MaxAttempts, c, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += c
	if j.LastError, c, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += c
	if j.EnqueuedAt, c, err = unmarshalTime(bs[n:]); err != nil {
		return
	}
	n += c
	if j.ReadyAt, c, err = unmarshalTime(bs[n:]); err != nil {
		return
	}
	n += c
	if j.UpdatedAt, c, err = unmarshalTime(bs[n:]); err != nil {
		return
	}
	n += c
	return
}

func (jobSerializer) Size(j Job) (size int) {
	size = ord.String.Size(j.ID)
	size += ord.String.Size(j.Queue)
	size += ord.String.Size(j.Payload)
	size += ord.String.Size(string(j.State))
	size += varint.Int.Size(j.Attempts)
	size += varint.Int.Size(j.MaxAttempts)
	size += ord.String.Size(j.LastError)
	size += timeSize * 3
	return size
}

func marshalJob(j *Job) []byte {
	buf := make([]byte, jobMUS.Size(*j))
	jobMUS.Marshal(*j, buf)
	return buf
}

func unmarshalJob(data []byte) (*Job, error) {
	j, _, err := jobMUS.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	return &j, nil
}

// Timestamps are stored as fixed-width microsecond epoch values.
const timeSize = 8

func marshalTime(t time.Time, bs []byte) int {
	return raw.Int64.Marshal(t.UnixMicro(), bs)
}

func unmarshalTime(bs []byte) (time.Time, int, error) {
	micros, n, err := raw.Int64.Unmarshal(bs)
	if err != nil {
		return time.Time{}, n, err
	}
	return time.UnixMicro(micros).UTC(), n, nil
}
