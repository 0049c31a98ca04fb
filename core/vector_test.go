package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCosineSimilarity_Identity(t *testing.T) {
	v := []float32{0.3, -0.5, 0.8, 0.1}
	assert.InDelta(t, 1.0, CosineSimilarity(v, v), 1e-6)
}

func TestCosineSimilarity_Opposite(t *testing.T) {
	v := []float32{0.3, -0.5, 0.8, 0.1}
	neg := make([]float32, len(v))
	for i := range v {
		neg[i] = -v[i]
	}
	assert.InDelta(t, -1.0, CosineSimilarity(v, neg), 1e-6)
}

func TestCosineSimilarity_Symmetric(t *testing.T) {
	a := []float32{1, 2, 3}
	b := []float32{-2, 0.5, 4}
	assert.InDelta(t, float64(CosineSimilarity(a, b)), float64(CosineSimilarity(b, a)), 1e-7)
}

func TestCosineSimilarity_Orthogonal(t *testing.T) {
	a := []float32{1, 0, 0}
	b := []float32{0, 1, 0}
	assert.InDelta(t, 0.0, CosineSimilarity(a, b), 1e-7)
}

func TestCosineSimilarity_MismatchedLengths(t *testing.T) {
	a := []float32{1, 0, 0}
	b := []float32{1, 0}
	assert.Equal(t, float32(0), CosineSimilarity(a, b))
}

func TestCosineSimilarity_ZeroMagnitude(t *testing.T) {
	a := []float32{0, 0, 0}
	b := []float32{1, 2, 3}
	assert.Equal(t, float32(0), CosineSimilarity(a, b))
	assert.Equal(t, float32(0), CosineSimilarity(b, a))
}

func TestCosineSimilarity_Empty(t *testing.T) {
	assert.Equal(t, float32(0), CosineSimilarity(nil, nil))
}

func TestNormalize(t *testing.T) {
	v := []float32{3, 4}
	n := Normalize(v)
	assert.InDelta(t, 0.6, n[0], 1e-6)
	assert.InDelta(t, 0.8, n[1], 1e-6)

	// Input untouched
	assert.Equal(t, float32(3), v[0])
}

func TestNormalize_ZeroVector(t *testing.T) {
	n := Normalize([]float32{0, 0, 0})
	assert.Equal(t, []float32{0, 0, 0}, n)
}

func TestNormalize_Empty(t *testing.T) {
	assert.Empty(t, Normalize(nil))
}
