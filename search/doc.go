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

// Package search answers similarity queries over embedded chunks.
//
// SearchVector scans the chunk store for the nearest neighbors of a raw
// embedding. SearchText embeds the query first and then does the same.
// Results come back in non-increasing score order, truncated to topK,
// and chunks without an embedding never appear.
//
// The Searcher also exposes a Health probe reporting store and embedding
// service reachability along with corpus statistics.
package search
