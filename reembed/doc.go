// Package reembed regenerates embeddings for every stored chunk, typically
// after switching embedding models.
//
// Chunks are walked document by document and embedded in batches, with
// retry and exponential backoff around the embedding service, progress
// reporting, and vector normalization for cosine similarity search.
package reembed
