// Package ingestion turns uploaded files into searchable chunks.
//
// The Processor runs the pipeline for a single document: resolve the file
// reference, download the blob, extract text, chunk it, embed each chunk
// and persist the document with its chunk batch in one atomic write.
// Embedding is the only best-effort stage; an unreachable service yields
// random fallback vectors and any other failure leaves the chunk without
// an embedding. All other stages fail the document.
//
// The Worker drains the durable ingestion queue through the Processor with
// bounded concurrency. A shared Gate caps how many documents are inside
// the pipeline at once no matter who initiated them.
package ingestion
