// Package mock provides test double implementations of the embedding
// interfaces.
//
// The mocks allow tests to run without external AI service dependencies and
// enable controlled, deterministic behavior.
//
// # Usage in Tests
//
//	// Basic usage with default behavior
//	provider := mock.NewMockProvider()
//	vector, err := provider.Embedder().EmbedText(ctx, "test")
//
//	// Failure injection
//	embedder := mock.NewMockEmbedder()
//	embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
//	    return nil, ai.ErrServiceUnreachable
//	}
//
//	// Check call counts
//	count := embedder.CallCount()
//
// The default embedder returns deterministic vectors derived from a hash of
// the input text, so identical texts always embed identically.
package mock
