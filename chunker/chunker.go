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


// Package chunker splits extracted text into fixed-size overlapping windows
// suitable for embedding. Offsets are in runes, not bytes, so multi-byte
// text chunks the same as ASCII.
package chunker

import (
	"fmt"
	"strings"

	"github.com/poiesic/docvec/core"
)

const (
	// DefaultChunkSize is the window width in characters.
	DefaultChunkSize = 500
	// DefaultOverlap is how many characters consecutive windows share.
	DefaultOverlap = 50
)

// Piece is one window of the source text. StartChar/EndChar describe the
// untrimmed window within the source; Text carries the trimmed content.
type Piece struct {
	Text      string
	Index     int
	StartChar int
	EndChar   int
}

// Chunker produces overlapping windows over text.
type Chunker struct {
	chunkSize int
	overlap   int
	minLength int
}

// Option configures a Chunker.
type Option func(*Chunker) error

// WithChunkSize sets the window width in characters.
func WithChunkSize(size int) Option {
	return func(c *Chunker) error {
		if size < 1 {
			return fmt.Errorf("chunk size must be positive, got %d", size)
		}
		c.chunkSize = size
		return nil
	}
}

// WithOverlap sets how many characters consecutive windows share.
// Must be smaller than the chunk size or the window would never advance.
func WithOverlap(overlap int) Option {
	return func(c *Chunker) error {
		if overlap < 0 {
			return fmt.Errorf("overlap must not be negative, got %d", overlap)
		}
		c.overlap = overlap
		return nil
	}
}

// WithMinLength sets the minimum trimmed length a window must have to be
// kept. Default is core.MinChunkLength.
func WithMinLength(min int) Option {
	return func(c *Chunker) error {
		if min < 0 {
			return fmt.Errorf("min length must not be negative, got %d", min)
		}
		c.minLength = min
		return nil
	}
}

// New creates a Chunker with the given options.
func New(opts ...Option) (*Chunker, error) {
	c := &Chunker{
		chunkSize: DefaultChunkSize,
		overlap:   DefaultOverlap,
		minLength: core.MinChunkLength,
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	if c.overlap >= c.chunkSize {
		return nil, fmt.Errorf("overlap %d must be smaller than chunk size %d", c.overlap, c.chunkSize)
	}
	return c, nil
}

// Split windows text into pieces. Windows advance by chunkSize-overlap
// characters; windows whose trimmed content is shorter than the minimum are
// discarded, and surviving pieces are re-indexed so Index stays contiguous
// from zero.
func (c *Chunker) Split(text string) []Piece {
	runes := []rune(text)
	if len(runes) == 0 {
		return nil
	}

	step := c.chunkSize - c.overlap
	var pieces []Piece

	for start := 0; start < len(runes); start += step {
		end := start + c.chunkSize
		if end > len(runes) {
			end = len(runes)
		}

		trimmed := strings.TrimSpace(string(runes[start:end]))
		if len([]rune(trimmed)) >= c.minLength {
			pieces = append(pieces, Piece{
				Text:      trimmed,
				Index:     len(pieces),
				StartChar: start,
				EndChar:   end,
			})
		}

		if end == len(runes) {
			break
		}
	}

	return pieces
}
