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


// Package storage defines the persistence contracts for documents, chunks
// and file references, plus the serialization helpers shared by backends.
//
// The write path for documents is deliberately narrow: a document record and
// its chunk batch are persisted together, once, after processing finishes.
// Deletion is the opposite: two independent, idempotent operations (document
// record, then chunks), which can leave orphaned chunks if interrupted
// between the two. That window is an accepted limitation of the design.
package storage
