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


package badger

import (
	"context"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/docvec/core"
	"github.com/poiesic/docvec/storage"
)

// DocumentRepository implements storage.DocumentRepository for BadgerDB.
type DocumentRepository struct {
	backend *Backend
}

var _ storage.DocumentRepository = (*DocumentRepository)(nil)

// NewDocumentRepository creates a new DocumentRepository.
func NewDocumentRepository(backend *Backend) *DocumentRepository {
	return &DocumentRepository{backend: backend}
}

// Close releases repository resources. The backend is owned by the caller.
func (r *DocumentRepository) Close() error {
	return nil
}

// PutProcessedDocument writes a finished document record together with its
// chunk batch in one transaction. Readers never observe a document with only
// part of its chunks.
func (r *DocumentRepository) PutProcessedDocument(ctx context.Context, doc *core.Document, chunks []*core.Chunk) error {
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now().UTC()
	}
	doc.UpdatedAt = doc.CreatedAt

	return r.backend.WithTx(func(tx *badger.Txn) error {
		key := makeDocumentKey(doc.ID)
		_, err := tx.Get(key)
		if err == nil {
			return storage.ErrDuplicate
		}
		if err != badger.ErrKeyNotFound {
			return err
		}

		if err := tx.Set(key, storage.MarshalDocument(doc)); err != nil {
			return err
		}

		// Update creation-time index
		createdKey := makeDocumentCreatedKey(doc.CreatedAt, doc.ID)
		if err := tx.Set(createdKey, []byte(doc.ID)); err != nil {
			return err
		}

		for _, chunk := range chunks {
			if chunk.CreatedAt.IsZero() {
				chunk.CreatedAt = doc.CreatedAt
			}
			if err := tx.Set(makeChunkKey(chunk.ID), storage.MarshalChunk(chunk)); err != nil {
				return err
			}
			// Update chunk-by-document index
			indexKey := makeChunkDocumentKey(chunk.DocumentID, chunk.Index)
			if err := tx.Set(indexKey, []byte(chunk.ID)); err != nil {
				return err
			}
		}

		return tx.Commit()
	}, true)
}

// GetDocument retrieves a single document record by ID.
func (r *DocumentRepository) GetDocument(ctx context.Context, id string) (*core.Document, error) {
	var result *core.Document
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = readDocument(tx, makeDocumentKey(id))
		if err != nil {
			return err
		}
		if result == nil {
			return storage.ErrNotFound
		}
		return nil
	}, false)
	return result, err
}

// ListDocuments returns documents ordered by creation time descending.
// The second return value is the total match count before pagination.
func (r *DocumentRepository) ListDocuments(ctx context.Context, limit, offset int, status core.DocumentStatus) ([]*core.Document, int, error) {
	var results []*core.Document
	total := 0

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		// Use reverse iterator to get most recent documents first
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true

		iter := tx.NewIterator(opts)
		defer iter.Close()

		// Seek past the last possible key in the creation-time index
		startKey := makePartialDocumentCreatedKey(time.Date(9999, 12, 31, 23, 59, 59, 999999999, time.UTC))
		prefix := []byte(documentCreatedPrefix + ":")

		for iter.Seek(startKey); iter.Valid(); iter.Next() {
			key := iter.Item().Key()
			if len(key) < len(prefix) || string(key[:len(prefix)]) != string(prefix) {
				break
			}

			var documentID string
			if err := iter.Item().Value(func(val []byte) error {
				documentID = string(val)
				return nil
			}); err != nil {
				return err
			}

			doc, err := readDocument(tx, makeDocumentKey(documentID))
			if err != nil {
				return err
			}
			if doc == nil {
				continue
			}
			if status != "" && doc.Status != status {
				continue
			}

			// The page is carved out of the ordered match stream; total
			// keeps counting past it.
			if total >= offset && len(results) < limit {
				results = append(results, doc)
			}
			total++
		}
		return nil
	}, false)

	if err != nil {
		return nil, 0, err
	}
	return results, total, nil
}

// DeleteDocument removes the document record and its creation-time index
// entry. Chunks are removed separately; deleting a missing document is a
// no-op.
func (r *DocumentRepository) DeleteDocument(ctx context.Context, id string) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		key := makeDocumentKey(id)
		doc, err := readDocument(tx, key)
		if err != nil {
			return err
		}
		if doc == nil {
			return nil
		}

		createdKey := makeDocumentCreatedKey(doc.CreatedAt, doc.ID)
		if err := tx.Delete(createdKey); err != nil {
			return err
		}
		if err := tx.Delete(key); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// readDocument reads a document record from the transaction.
// Returns nil without error when the key is absent.
func readDocument(tx *badger.Txn, key []byte) (*core.Document, error) {
	item, err := tx.Get(key)
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, nil
		}
		return nil, err
	}

	var doc *core.Document
	err = item.Value(func(val []byte) error {
		var unmarshalErr error
		doc, unmarshalErr = storage.UnmarshalDocument(val)
		return unmarshalErr
	})
	return doc, err
}
