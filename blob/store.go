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


// Package blob abstracts where raw uploaded files live. The pipeline only
// ever streams whole objects by key; listing and metadata are out of scope.
//
// Implementations:
//
//   - blob/fs: local directory, the default for single-node deployments
//   - blob/s3: AWS S3 or any S3-compatible object store
package blob

import (
	"context"
	"errors"
	"io"
)

// ErrNotFound is returned when no object exists under the requested key.
var ErrNotFound = errors.New("blob not found")

// Store reads and writes raw file bytes by key.
// Implementations must be safe for concurrent use.
type Store interface {
	// Put stores the object under key, replacing any existing object.
	Put(ctx context.Context, key string, data io.Reader, contentType string) error

	// Get opens the object for reading. The caller must close the reader.
	// Returns ErrNotFound if no object exists under key.
	Get(ctx context.Context, key string) (io.ReadCloser, error)

	// Delete removes the object. Deleting a missing object is not an error.
	Delete(ctx context.Context, key string) error
}
