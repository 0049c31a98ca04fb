package core

import (
	"time"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/raw"
	"github.com/mus-format/mus-go/varint"
)

// Hand-written MUS serializers for the stored record types. Field order is
// part of the storage format; append new fields at the end only.

var (
	embeddingMUS = ord.NewSliceSer[float32](raw.Float32)
	metadataMUS  = ord.NewMapSer[string, string](ord.String, ord.String)
)

// DocumentMUS serializes Document records.
var DocumentMUS = documentMUS{}

type documentMUS struct{}

func (documentMUS) Marshal(d Document, bs []byte) (n int) {
	n = ord.String.Marshal(d.ID, bs)
	n += ord.String.Marshal(d.Filename, bs[n:])
	n += ord.String.Marshal(d.ContentType, bs[n:])
	n += ord.String.Marshal(string(d.Status), bs[n:])
	n += ord.String.Marshal(d.ExtractedText, bs[n:])
	n += varint.Int.Marshal(d.TotalPages, bs[n:])
	n += raw.Int64.Marshal(d.Duration.Milliseconds(), bs[n:])
	n += metadataMUS.Marshal(d.Metadata, bs[n:])
	n += marshalTime(d.CreatedAt, bs[n:])
	n += marshalTime(d.UpdatedAt, bs[n:])
	return n
}

func (documentMUS) Unmarshal(bs []byte) (d Document, n int, err error) {
	var (
		c      int
		status string
		millis int64
	)
	if d.ID, n, err = ord.String.Unmarshal(bs); err != nil {
		return
	}
	if d.Filename, c, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += c
	if d.ContentType, c, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += c
	if status, c, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += c
	d.Status = DocumentStatus(status)
	if d.ExtractedText, c, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += c
	if d.TotalPages, c, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += c
	if millis, c, err = raw.Int64.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += c
	d.Duration = time.Duration(millis) * time.Millisecond
	if d.Metadata, c, err = metadataMUS.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += c
	if d.CreatedAt, c, err = unmarshalTime(bs[n:]); err != nil {
		return
	}
	n += c
	if d.UpdatedAt, c, err = unmarshalTime(bs[n:]); err != nil {
		return
	}
	n += c
	return
}

func (documentMUS) Size(d Document) (size int) {
	size = ord.String.Size(d.ID)
	size += ord.String.Size(d.Filename)
	size += ord.String.Size(d.ContentType)
	size += ord.String.Size(string(d.Status))
	size += ord.String.Size(d.ExtractedText)
	size += varint.Int.Size(d.TotalPages)
	size += raw.Int64.Size(d.Duration.Milliseconds())
	size += metadataMUS.Size(d.Metadata)
	size += timeSize * 2
	return size
}

// ChunkMUS serializes Chunk records.
var ChunkMUS = chunkMUS{}

type chunkMUS struct{}

func (chunkMUS) Marshal(ch Chunk, bs []byte) (n int) {
	n = ord.String.Marshal(ch.ID, bs)
	n += ord.String.Marshal(ch.DocumentID, bs[n:])
	n += ord.String.Marshal(ch.Text, bs[n:])
	n += varint.Int.Marshal(ch.Index, bs[n:])
	n += varint.Int.Marshal(ch.PageNumber, bs[n:])
	n += varint.Int.Marshal(ch.StartChar, bs[n:])
	n += varint.Int.Marshal(ch.EndChar, bs[n:])
	n += embeddingMUS.Marshal(ch.Embedding, bs[n:])
	n += metadataMUS.Marshal(ch.Metadata, bs[n:])
	n += marshalTime(ch.CreatedAt, bs[n:])
	return n
}

func (chunkMUS) Unmarshal(bs []byte) (ch Chunk, n int, err error) {
	var c int
	if ch.ID, n, err = ord.String.Unmarshal(bs); err != nil {
		return
	}
	if ch.DocumentID, c, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += c
	if ch.Text, c, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += c
	if ch.Index, c, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += c
	if ch.PageNumber, c, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += c
	if ch.StartChar, c, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += c
	if ch.EndChar, c, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += c
	if ch.Embedding, c, err = embeddingMUS.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += c
	if ch.Metadata, c, err = metadataMUS.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += c
	if ch.CreatedAt, c, err = unmarshalTime(bs[n:]); err != nil {
		return
	}
	n += c
	return
}

func (chunkMUS) Size(ch Chunk) (size int) {
	size = ord.String.Size(ch.ID)
	size += ord.String.Size(ch.DocumentID)
	size += ord.String.Size(ch.Text)
	size += varint.Int.Size(ch.Index)
	size += varint.Int.Size(ch.PageNumber)
	size += varint.Int.Size(ch.StartChar)
	size += varint.Int.Size(ch.EndChar)
	size += embeddingMUS.Size(ch.Embedding)
	size += metadataMUS.Size(ch.Metadata)
	size += timeSize
	return size
}

// FileRefMUS serializes FileRef records.
var FileRefMUS = fileRefMUS{}

type fileRefMUS struct{}

func (fileRefMUS) Marshal(f FileRef, bs []byte) (n int) {
	n = ord.String.Marshal(f.DocumentID, bs)
	n += ord.String.Marshal(f.BlobKey, bs[n:])
	n += ord.String.Marshal(f.Filename, bs[n:])
	n += ord.String.Marshal(f.ContentType, bs[n:])
	n += ord.String.Marshal(f.Digest, bs[n:])
	n += marshalTime(f.UploadedAt, bs[n:])
	return n
}

func (fileRefMUS) Unmarshal(bs []byte) (f FileRef, n int, err error) {
	var c int
	if f.DocumentID, n, err = ord.String.Unmarshal(bs); err != nil {
		return
	}
	if f.BlobKey, c, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += c
	if f.Filename, c, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += c
	if f.ContentType, c, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += c
	if f.Digest, c, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += c
	if f.UploadedAt, c, err = unmarshalTime(bs[n:]); err != nil {
		return
	}
	n += c
	return
}

func (fileRefMUS) Size(f FileRef) (size int) {
	size = ord.String.Size(f.DocumentID)
	size += ord.String.Size(f.BlobKey)
	size += ord.String.Size(f.Filename)
	size += ord.String.Size(f.ContentType)
	size += ord.String.Size(f.Digest)
	size += timeSize
	return size
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
