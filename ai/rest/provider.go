package rest

import (
	"github.com/poiesic/docvec/ai"
)

// Provider implements ai.AIProvider over the bare /embeddings endpoint.
type Provider struct {
	embedder ai.Embedder
}

// NewProvider creates a provider for services speaking the plain REST
// embedding contract rather than the OpenAI API.
func NewProvider(config *ai.Config) (ai.AIProvider, error) {
	embedder, err := NewEmbedder(config)
	if err != nil {
		return nil, err
	}
	return &Provider{embedder: embedder}, nil
}

// Embedder returns the text embedding service.
func (p *Provider) Embedder() ai.Embedder {
	return p.embedder
}

// Close releases resources held by the provider. The HTTP client needs no
// explicit cleanup.
func (p *Provider) Close() error {
	return nil
}
