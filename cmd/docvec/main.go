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

package main

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"log/slog"
	"mime"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/poiesic/docvec"
	"github.com/poiesic/docvec/ai"
	"github.com/poiesic/docvec/ai/rest"
	"github.com/poiesic/docvec/blob"
	"github.com/poiesic/docvec/blob/fs"
	"github.com/poiesic/docvec/blob/s3"
	"github.com/poiesic/docvec/core"
	"github.com/poiesic/docvec/ingestion"
	"github.com/poiesic/docvec/reembed"
	"github.com/poiesic/docvec/storage"
)

func main() {
	dbFlag := &cli.StringFlag{
		Name:     "db",
		Aliases:  []string{"d"},
		Usage:    "Path to BadgerDB database directory",
		Required: true,
	}
	blobFlags := []cli.Flag{
		&cli.StringFlag{
			Name:  "blob-dir",
			Usage: "Directory for the filesystem blob store",
			Value: "blobs",
		},
		&cli.StringFlag{
			Name:  "s3-bucket",
			Usage: "S3 bucket for the blob store (overrides blob-dir)",
		},
	}
	embeddingFlags := []cli.Flag{
		&cli.StringFlag{
			Name:  "embedding-host",
			Usage: "Embedding service host URL",
			Value: "http://localhost:11434/v1",
		},
		&cli.StringFlag{
			Name:  "embedding-model",
			Usage: "Embedding model name",
			Value: "embeddinggemma",
		},
		&cli.IntFlag{
			Name:  "dimensions",
			Usage: "Embedding vector width",
			Value: 384,
		},
		&cli.StringFlag{
			Name:  "embedding-api",
			Usage: "Embedding service dialect: openai or rest",
			Value: "openai",
		},
	}

	app := &cli.App{
		Name:  "docvec",
		Usage: "Document ingestion and semantic search over embedded chunks",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:      "serve",
				Usage:     "Run the ingestion worker until interrupted",
				Action:    serveCommand,
				ArgsUsage: " ",
				Flags: append(append([]cli.Flag{dbFlag,
					&cli.IntFlag{
						Name:  "concurrency",
						Usage: "Number of documents processed in parallel",
						Value: ingestion.DefaultWorkerConcurrency,
					},
					&cli.DurationFlag{
						Name:  "poll-interval",
						Usage: "Idle sleep between queue polls",
						Value: ingestion.DefaultPollInterval,
					},
					&cli.BoolFlag{
						Name:  "verbose",
						Usage: "Print queue lifecycle events",
					},
				}, blobFlags...), embeddingFlags...),
			},
			{
				Name:      "add",
				Usage:     "Upload files and enqueue them for ingestion",
				ArgsUsage: "FILE [FILE...]",
				Action:    addCommand,
				Flags: append([]cli.Flag{dbFlag,
					&cli.StringFlag{
						Name:  "content-type",
						Usage: "Override the detected content type",
					},
				}, blobFlags...),
			},
			{
				Name:      "search",
				Usage:     "Search chunks by semantic similarity to a text query",
				ArgsUsage: "QUERY",
				Action:    searchCommand,
				Flags: append([]cli.Flag{dbFlag,
					&cli.IntFlag{
						Name:    "top-k",
						Aliases: []string{"k"},
						Usage:   "Maximum number of results",
						Value:   10,
					},
					&cli.StringFlag{
						Name:  "document",
						Usage: "Restrict the search to one document ID",
					},
				}, embeddingFlags...),
			},
			{
				Name:      "list",
				Usage:     "List stored documents, newest first",
				ArgsUsage: " ",
				Action:    listCommand,
				Flags: []cli.Flag{dbFlag,
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Page size",
						Value: 20,
					},
					&cli.IntFlag{
						Name:  "offset",
						Usage: "Page offset",
					},
					&cli.StringFlag{
						Name:  "status",
						Usage: "Filter by status (completed, failed)",
					},
				},
			},
			{
				Name:      "delete",
				Usage:     "Delete documents with their chunks and file references",
				ArgsUsage: "DOCUMENT_ID [DOCUMENT_ID...]",
				Action:    deleteCommand,
				Flags:     []cli.Flag{dbFlag},
			},
			{
				Name:      "stats",
				Usage:     "Show document and chunk counts",
				ArgsUsage: " ",
				Action:    statsCommand,
				Flags:     []cli.Flag{dbFlag},
			},
			{
				Name:      "reembed",
				Usage:     "Regenerate the embeddings of every stored chunk",
				ArgsUsage: " ",
				Action:    reembedCommand,
				Flags: append([]cli.Flag{dbFlag,
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Number of chunks to process in each batch",
						Value: 100,
					},
					&cli.IntFlag{
						Name:  "report-interval",
						Usage: "Report progress every N chunks",
						Value: 100,
					},
					&cli.IntFlag{
						Name:  "max-retries",
						Usage: "Maximum retry attempts for failed operations",
						Value: 3,
					},
					&cli.DurationFlag{
						Name:  "retry-delay",
						Usage: "Base delay for exponential backoff",
						Value: 1 * time.Second,
					},
				}, embeddingFlags...),
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func openDatabase(c *cli.Context) (*docvec.Database, error) {
	// Commands without embedding flags fall back to the defaults.
	aiConfig := ai.DefaultConfig()
	if host := c.String("embedding-host"); host != "" {
		aiConfig.EmbeddingHost = host
	}
	if model := c.String("embedding-model"); model != "" {
		aiConfig.EmbeddingModel = model
	}
	if dims := c.Int("dimensions"); dims > 0 {
		aiConfig.Dimensions = dims
	}
	if err := aiConfig.Validate(); err != nil {
		return nil, fmt.Errorf("invalid AI configuration: %w", err)
	}

	opts := []docvec.DatabaseOption{docvec.WithAIConfig(aiConfig)}
	switch api := c.String("embedding-api"); api {
	case "", "openai":
	case "rest":
		provider, err := rest.NewProvider(aiConfig)
		if err != nil {
			return nil, fmt.Errorf("failed to create embedding provider: %w", err)
		}
		opts = append(opts, docvec.WithAIProvider(provider))
	default:
		return nil, fmt.Errorf("unknown embedding-api %q: must be openai or rest", api)
	}

	db, err := docvec.NewDatabase(c.String("db"), opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}

func openBlobStore(ctx context.Context, c *cli.Context) (blob.Store, error) {
	if bucket := c.String("s3-bucket"); bucket != "" {
		return s3.NewStore(ctx, bucket)
	}
	return fs.NewStore(c.String("blob-dir"))
}

func serveCommand(c *cli.Context) error {
	ctx := c.Context

	db, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	blobs, err := openBlobStore(ctx, c)
	if err != nil {
		return fmt.Errorf("failed to open blob store: %w", err)
	}

	processor, err := db.NewProcessor(blobs)
	if err != nil {
		return fmt.Errorf("failed to create processor: %w", err)
	}

	worker, err := db.NewWorker(processor,
		ingestion.WithConcurrency(c.Int("concurrency")),
		ingestion.WithPollInterval(c.Duration("poll-interval")))
	if err != nil {
		return fmt.Errorf("failed to create worker: %w", err)
	}

	if c.Bool("verbose") {
		events, cancel := db.Queue().Subscribe(64)
		defer cancel()
		go func() {
			for event := range events {
				fmt.Fprintf(os.Stderr, "[%s] job %s document %s attempts=%d %s\n",
					event.Type, event.JobID, event.Payload, event.Attempts, event.Error)
			}
		}()
	}

	if err := worker.Start(ctx); err != nil {
		return fmt.Errorf("failed to start worker: %w", err)
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	fmt.Fprintln(os.Stderr, "shutting down")
	worker.Stop()
	return nil
}

func addCommand(c *cli.Context) error {
	if c.NArg() == 0 {
		return fmt.Errorf("at least one file is required")
	}
	ctx := c.Context

	db, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	blobs, err := openBlobStore(ctx, c)
	if err != nil {
		return fmt.Errorf("failed to open blob store: %w", err)
	}

	for _, path := range c.Args().Slice() {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}

		filename := filepath.Base(path)
		contentType := c.String("content-type")
		if contentType == "" {
			contentType = contentTypeFor(filename)
		}

		ref := core.NewFileRef(filename, contentType, data)
		if err := blobs.Put(ctx, ref.BlobKey, bytes.NewReader(data), contentType); err != nil {
			return fmt.Errorf("failed to store %s: %w", path, err)
		}
		if err := db.FileRepository().PutFileRef(ctx, ref); err != nil {
			return fmt.Errorf("failed to record file reference for %s: %w", path, err)
		}

		job, err := db.Queue().Enqueue(ctx, ref.DocumentID)
		if err != nil {
			return fmt.Errorf("failed to enqueue %s: %w", path, err)
		}

		fmt.Printf("%s\tdocument=%s\tjob=%s\n", filename, ref.DocumentID, job.ID)
	}

	return nil
}

func searchCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("exactly one query argument is required")
	}
	ctx := c.Context

	db, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	searcher, err := db.NewSearcher()
	if err != nil {
		return fmt.Errorf("failed to create searcher: %w", err)
	}

	var filter *storage.SearchFilter
	if docID := c.String("document"); docID != "" {
		filter = &storage.SearchFilter{DocumentID: docID}
	}

	results, err := searcher.SearchText(ctx, c.Args().First(), c.Int("top-k"), filter)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if len(results) == 0 {
		fmt.Println("no results")
		return nil
	}

	for i, result := range results {
		fmt.Printf("%2d. [%.4f] %s #%d\n    %s\n",
			i+1, result.Score, result.Chunk.DocumentID, result.Chunk.Index,
			truncate(result.Chunk.Text, 160))
	}
	return nil
}

func listCommand(c *cli.Context) error {
	ctx := c.Context

	db, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	status := core.DocumentStatus(c.String("status"))
	docs, total, err := db.ListDocuments(ctx, c.Int("limit"), c.Int("offset"), status)
	if err != nil {
		return fmt.Errorf("failed to list documents: %w", err)
	}

	fmt.Printf("%d documents\n", total)
	for _, doc := range docs {
		fmt.Printf("%s\t%s\t%s\t%s\n",
			doc.ID, doc.Status, doc.CreatedAt.Format(time.RFC3339), doc.Filename)
	}
	return nil
}

func deleteCommand(c *cli.Context) error {
	if c.NArg() == 0 {
		return fmt.Errorf("at least one document ID is required")
	}
	ctx := c.Context

	db, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	for _, id := range c.Args().Slice() {
		if err := db.DeleteDocument(ctx, id); err != nil {
			return fmt.Errorf("failed to delete %s: %w", id, err)
		}
		fmt.Printf("deleted %s\n", id)
	}
	return nil
}

func statsCommand(c *cli.Context) error {
	db, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	stats, err := db.Stats(c.Context)
	if err != nil {
		return fmt.Errorf("failed to gather stats: %w", err)
	}

	fmt.Printf("documents:        %d\n", stats.Documents)
	fmt.Printf("chunks:           %d\n", stats.Chunks)
	fmt.Printf("embedded chunks:  %d\n", stats.EmbeddedChunks)
	fmt.Printf("chunks/document:  %.1f\n", stats.AvgChunksPerDoc)
	return nil
}

func reembedCommand(c *cli.Context) error {
	db, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	config := &reembed.Config{
		BatchSize:      c.Int("batch-size"),
		ReportInterval: c.Int("report-interval"),
		MaxRetries:     c.Int("max-retries"),
		RetryDelay:     c.Duration("retry-delay"),
	}
	if config.BatchSize <= 0 {
		return fmt.Errorf("batch-size must be greater than 0")
	}
	if config.ReportInterval <= 0 {
		return fmt.Errorf("report-interval must be greater than 0")
	}
	if config.MaxRetries <= 0 {
		return fmt.Errorf("max-retries must be greater than 0")
	}

	fmt.Fprintf(os.Stderr, "Database: %s\n", c.String("db"))
	fmt.Fprintf(os.Stderr, "Embedding host: %s\n", c.String("embedding-host"))
	fmt.Fprintf(os.Stderr, "Embedding model: %s\n", c.String("embedding-model"))
	fmt.Fprintln(os.Stderr)

	if err := db.NewReembedder(config, os.Stderr).Run(c.Context); err != nil {
		return fmt.Errorf("reembedding failed: %w", err)
	}
	return nil
}

// contentTypeFor guesses a content type from the file extension, falling
// back to application/octet-stream.
func contentTypeFor(filename string) string {
	if t := mime.TypeByExtension(filepath.Ext(filename)); t != "" {
		return t
	}
	return "application/octet-stream"
}

func truncate(text string, max int) string {
	text = strings.ReplaceAll(text, "\n", " ")
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	return string(runes[:max-1]) + "…"
}

func setupLogger(c *cli.Context) error {
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
