package index

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/emaadiliX/retail-operations-copilot/internal/ingest"
)

// Embedder is the embedding capability the indexer needs.
type Embedder interface {
	EmbedBatches(ctx context.Context, texts []string) ([][]float32, error)
}

// Indexer builds the vector collection from ingested chunks.
type Indexer struct {
	store    Store
	embedder Embedder
	logger   *log.Logger
}

// NewIndexer creates an indexer over the given store and embedder.
func NewIndexer(store Store, embedder Embedder) *Indexer {
	return &Indexer{
		store:    store,
		embedder: embedder,
		logger:   log.New(log.Writer(), "[INDEXER] ", log.LstdFlags),
	}
}

// Build embeds and upserts chunks. When reset is true the existing
// collection is dropped first; otherwise a populated collection is left
// as-is and Build returns without re-embedding.
func (ix *Indexer) Build(ctx context.Context, chunks []ingest.Chunk, reset bool) error {
	if reset {
		if err := ix.store.Drop(ctx); err != nil && !errors.Is(err, ErrIndexNotFound) {
			return fmt.Errorf("dropping collection: %w", err)
		}
	}
	if err := ix.store.EnsureIndex(ctx); err != nil && !errors.Is(err, ErrIndexExists) {
		return fmt.Errorf("ensuring collection: %w", err)
	}

	if !reset {
		count, err := ix.store.Count(ctx)
		if err != nil && !errors.Is(err, ErrIndexNotFound) {
			return fmt.Errorf("counting collection: %w", err)
		}
		if count > 0 {
			ix.logger.Printf("collection already holds %d chunks, skipping build (use reset to rebuild)", count)
			return nil
		}
	}

	if len(chunks) == 0 {
		ix.logger.Printf("no chunks to index")
		return nil
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	vectors, err := ix.embedder.EmbedBatches(ctx, texts)
	if err != nil {
		return fmt.Errorf("embedding chunks: %w", err)
	}
	if len(vectors) != len(chunks) {
		return fmt.Errorf("embedded %d vectors for %d chunks", len(vectors), len(chunks))
	}

	records := make([]Record, len(chunks))
	for i, c := range chunks {
		records[i] = Record{
			ID:       c.ID,
			Vector:   vectors[i],
			Text:     c.Text,
			Document: c.DocumentName,
			Page:     c.PageNumber,
			Chunk:    c.ChunkIndex,
			Citation: c.Citation(),
			FilePath: c.FilePath,
		}
	}
	if err := ix.store.Upsert(ctx, records); err != nil {
		return fmt.Errorf("upserting records: %w", err)
	}
	ix.logger.Printf("indexed %d chunks", len(records))
	return nil
}
