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


package storage

import "errors"

var (
	// ErrNotFound is returned when a requested record doesn't exist.
	ErrNotFound = errors.New("record not found")

	// ErrDuplicate is returned when a write would violate a uniqueness
	// constraint, e.g. storing a second document with the same ID.
	ErrDuplicate = errors.New("record already exists")

	// ErrPartialDeletion is returned when a multi-step delete removed some
	// but not all of a document's state, leaving orphaned records behind.
	// There is no automatic repair; re-running the delete is safe.
	ErrPartialDeletion = errors.New("partial deletion left orphaned records")
)
