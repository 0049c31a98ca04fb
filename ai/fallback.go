package ai

import "math/rand/v2"

// FallbackVector generates a random placeholder embedding of the given
// width, each component uniform in [-0.5, 0.5). It stands in for a real
// embedding when the service is unreachable, so the chunk stays searchable
// instead of being dropped. The vector carries no semantic meaning.
func FallbackVector(dims int) []float32 {
	vector := make([]float32, dims)
	for i := range vector {
		vector[i] = rand.Float32() - 0.5
	}
	return vector
}
