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


package core

import (
	"fmt"
	"strings"
)

// MinChunkLength is the minimum trimmed chunk length. Shorter segments are
// never stored; the chunker discards them at chunking time.
const MinChunkLength = 10

// ValidateDocument validates a Document according to domain rules.
//
// Validation rules:
//   - ID must not be empty
//   - Status must be completed or failed
//
// NOT validated:
//   - ExtractedText (genuinely empty source text is allowed)
//   - TotalPages (0 means the format is not paginated)
func ValidateDocument(doc *Document) error {
	if doc == nil {
		return fmt.Errorf("%w: document is nil", ErrInvalidDocument)
	}

	if doc.ID == "" {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, ErrEmptyDocumentID)
	}

	if err := ValidateStatus(doc.Status); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}

	return nil
}

// ValidateChunk validates a Chunk according to domain rules.
//
// Validation rules:
//   - DocumentID must not be empty
//   - trimmed Text must be at least MinChunkLength characters
//   - ID must equal ChunkID(DocumentID, Index)
//
// NOT validated:
//   - Embedding (nil is a valid state)
//   - PageNumber (0 means unknown)
func ValidateChunk(chunk *Chunk) error {
	if chunk == nil {
		return fmt.Errorf("%w: chunk is nil", ErrInvalidChunk)
	}

	if chunk.DocumentID == "" {
		return fmt.Errorf("%w: %w", ErrInvalidChunk, ErrEmptyDocumentID)
	}

	if len(strings.TrimSpace(chunk.Text)) < MinChunkLength {
		return fmt.Errorf("%w: %w", ErrInvalidChunk, ErrChunkTooShort)
	}

	if chunk.ID != ChunkID(chunk.DocumentID, chunk.Index) {
		return fmt.Errorf("%w: %w", ErrInvalidChunk, ErrChunkIDMismatch)
	}

	return nil
}

// ValidateStatus validates that a DocumentStatus has a valid value.
func ValidateStatus(status DocumentStatus) error {
	if status != StatusCompleted && status != StatusFailed {
		return fmt.Errorf("%w: value %q", ErrInvalidStatus, status)
	}
	return nil
}
