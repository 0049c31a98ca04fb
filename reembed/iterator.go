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

package reembed

import (
	"context"

	"github.com/poiesic/docvec/core"
	"github.com/poiesic/docvec/storage"
)

const (
	// DefaultBatchSize is the default number of chunks per batch
	DefaultBatchSize = 100

	// documentPageSize is how many documents are listed per storage call
	documentPageSize = 50
)

// ChunkIterator walks every chunk in the store, document by document,
// emitting them in batches.
type ChunkIterator struct {
	documents storage.DocumentRepository
	chunks    storage.ChunkRepository
	batchSize int
}

// NewChunkIterator creates a new chunk iterator.
// batchSize: number of chunks per batch (must be > 0)
func NewChunkIterator(documents storage.DocumentRepository, chunks storage.ChunkRepository, batchSize int) *ChunkIterator {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	return &ChunkIterator{
		documents: documents,
		chunks:    chunks,
		batchSize: batchSize,
	}
}

// ForEach calls fn for each batch of chunks. Batches may span document
// boundaries. Iteration stops on the first error from fn; context
// cancellation is checked between batches.
func (it *ChunkIterator) ForEach(ctx context.Context, fn func([]*core.Chunk) error) error {
	batch := make([]*core.Chunk, 0, it.batchSize)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := fn(batch); err != nil {
			return err
		}
		batch = make([]*core.Chunk, 0, it.batchSize)

		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
			return nil
		}
	}

	for offset := 0; ; offset += documentPageSize {
		docs, _, err := it.documents.ListDocuments(ctx, documentPageSize, offset, "")
		if err != nil {
			return err
		}
		if len(docs) == 0 {
			break
		}

		for _, doc := range docs {
			chunks, err := it.chunks.GetDocumentChunks(ctx, doc.ID)
			if err != nil {
				return err
			}
			for _, chunk := range chunks {
				batch = append(batch, chunk)
				if len(batch) >= it.batchSize {
					if err := flush(); err != nil {
						return err
					}
				}
			}
		}

		if len(docs) < documentPageSize {
			break
		}
	}

	return flush()
}
