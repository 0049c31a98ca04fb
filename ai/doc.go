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


// Package ai provides abstractions for the embedding services used in Docvec.
//
// The core domain and pipeline depend on the Embedder interface rather than
// a concrete client, so providers can be swapped without touching business
// logic.
//
// # Implementation Packages
//
//   - ai/openai: production implementation using OpenAI-compatible APIs
//     through langchaingo
//   - ai/rest: minimal client for bare embedding endpoints that speak
//     a single POST /embeddings route
//   - ai/mock: test doubles for unit testing without external services
//
// Public constructors (openai.NewProvider, rest.NewEmbedder) return interface
// types to enforce abstraction. Mock constructors return concrete types so
// tests can inject behavior and assert call counts.
//
// Unreachable services are a distinct failure class: clients wrap
// ErrServiceUnreachable so callers can substitute FallbackVector placeholders
// instead of dropping work on the floor.
package ai
