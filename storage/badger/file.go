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

// FileRepository implements storage.FileRepository for BadgerDB.
type FileRepository struct {
	backend *Backend
}

var _ storage.FileRepository = (*FileRepository)(nil)

// NewFileRepository creates a new FileRepository.
func NewFileRepository(backend *Backend) *FileRepository {
	return &FileRepository{backend: backend}
}

// Close releases repository resources. The backend is owned by the caller.
func (r *FileRepository) Close() error {
	return nil
}

// PutFileRef stores or replaces the file reference for a document.
func (r *FileRepository) PutFileRef(ctx context.Context, ref *core.FileRef) error {
	if ref.UploadedAt.IsZero() {
		ref.UploadedAt = time.Now().UTC()
	}
	return r.backend.WithTx(func(tx *badger.Txn) error {
		if err := tx.Set(makeFileRefKey(ref.DocumentID), storage.MarshalFileRef(ref)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// GetFileRef retrieves the file reference for a document.
func (r *FileRepository) GetFileRef(ctx context.Context, documentID string) (*core.FileRef, error) {
	var result *core.FileRef
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeFileRefKey(documentID))
		if err != nil {
			if err == badger.ErrKeyNotFound {
				return storage.ErrNotFound
			}
			return err
		}
		return item.Value(func(val []byte) error {
			var unmarshalErr error
			result, unmarshalErr = storage.UnmarshalFileRef(val)
			return unmarshalErr
		})
	}, false)
	return result, err
}

// DeleteFileRef removes the file reference. Missing refs are not an error.
func (r *FileRepository) DeleteFileRef(ctx context.Context, documentID string) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		if err := tx.Delete(makeFileRefKey(documentID)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}
