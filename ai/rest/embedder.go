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


// Package rest implements ai.Embedder against bare embedding services that
// expose a single POST /embeddings route taking {"text": ...} and returning
// {"embedding": [...]}. Typical for small self-hosted model servers that
// don't speak the OpenAI API.
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/poiesic/docvec/ai"
)

// Embedder implements ai.Embedder over a plain HTTP embedding endpoint.
type Embedder struct {
	host   string
	model  string
	client *http.Client
	logger *slog.Logger
}

var _ ai.Embedder = (*Embedder)(nil)

type embeddingRequest struct {
	Text  string `json:"text"`
	Model string `json:"model,omitempty"`
}

type embeddingResponse struct {
	Embedding []float32 `json:"embedding"`
}

// NewEmbedder creates an embedder talking to the service in config.
// The config's Timeout bounds each request.
func NewEmbedder(config *ai.Config) (ai.Embedder, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &Embedder{
		host:   strings.TrimSuffix(config.EmbeddingHost, "/"),
		model:  config.EmbeddingModel,
		client: &http.Client{Timeout: config.Timeout},
		logger: slog.Default().With("component", "rest-embedder"),
	}, nil
}

// EmbedText generates a vector embedding for a single text string.
func (e *Embedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	reqBody, err := json.Marshal(embeddingRequest{Text: text, Model: e.model})
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, e.host+"/embeddings", bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(httpReq)
	if err != nil {
		return nil, e.classify(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("embedding request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var embResp embeddingResponse
	if err := json.NewDecoder(resp.Body).Decode(&embResp); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	if len(embResp.Embedding) == 0 {
		return nil, fmt.Errorf("service returned no embedding")
	}
	return embResp.Embedding, nil
}

// EmbedTexts generates embeddings one request at a time; the endpoint has
// no batch route.
func (e *Embedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	results := make([][]float32, len(texts))
	for i, text := range texts {
		vector, err := e.EmbedText(ctx, text)
		if err != nil {
			return nil, err
		}
		results[i] = vector
	}
	return results, nil
}

// Ping checks whether the embedding service is reachable.
func (e *Embedder) Ping(ctx context.Context) error {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, e.host, nil)
	if err != nil {
		return err
	}
	resp, err := e.client.Do(httpReq)
	if err != nil {
		return e.classify(err)
	}
	resp.Body.Close()
	return nil
}

// classify folds transport errors into the unreachable class so callers
// can fall back instead of failing the chunk.
func (e *Embedder) classify(err error) error {
	if ai.IsUnreachable(err) {
		e.logger.Warn("embedding service unreachable", "host", e.host, "err", err)
		return fmt.Errorf("%w: %w", ai.ErrServiceUnreachable, err)
	}
	return fmt.Errorf("sending request: %w", err)
}
