package retrieval

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"

	"github.com/emaadiliX/retail-operations-copilot/internal/agent/telemetry"
	"github.com/emaadiliX/retail-operations-copilot/internal/index"
)

// Fixed messages surfaced to downstream stages. These are part of the
// external contract and must not be reworded.
const (
	NotFoundMessage      = "Not found in sources. The available documents do not contain information to answer this query."
	MultiNotFoundMessage = "Not found in sources."
)

// Embedder is the embedding capability the retriever needs.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// Chunk is one retrieved unit of evidence with provenance and score.
type Chunk struct {
	ID              string  `json:"-"`
	Text            string  `json:"text"`
	DocumentName    string  `json:"document_name"`
	PageNumber      int     `json:"page_number"`
	ChunkIndex      int     `json:"chunk_index"`
	Citation        string  `json:"citation"`
	SimilarityScore float64 `json:"similarity_score"`
}

// Result is the tagged outcome of a retrieval. Found is false whenever
// nothing survives the similarity gate; misses are signalled here, never
// as errors.
type Result struct {
	Found      bool               `json:"found"`
	Message    string             `json:"message"`
	Chunks     []Chunk            `json:"chunks"`
	Context    string             `json:"context"`
	Citations  []string           `json:"citations"`
	ByDocument map[string][]Chunk `json:"chunks_by_document,omitempty"`
}

// Retriever answers similarity queries against the vector index.
type Retriever struct {
	store     index.Store
	embedder  Embedder
	telemetry *telemetry.Telemetry
	logger    *log.Logger
}

// New creates a retriever over the given store and embedder.
func New(store index.Store, embedder Embedder, tele *telemetry.Telemetry) *Retriever {
	return &Retriever{
		store:     store,
		embedder:  embedder,
		telemetry: tele,
		logger:    log.New(log.Writer(), "[RETRIEVAL] ", log.LstdFlags),
	}
}

// Search embeds the query, runs KNN and keeps hits whose similarity
// (1 - distance) clears minScore. The index's distance-ascending order is
// preserved. A missing collection or a failed embedding yields an empty
// slice, not an error.
func (r *Retriever) Search(ctx context.Context, query string, topK int, minScore float64) []Chunk {
	vectors, err := r.embedder.Embed(ctx, []string{query})
	if err != nil || len(vectors) == 0 {
		r.logger.Printf("ERROR: failed to embed query: %v", err)
		return nil
	}

	matches, err := r.store.Query(ctx, vectors[0], topK)
	if err != nil {
		if errors.Is(err, index.ErrIndexNotFound) {
			r.logger.Printf("ERROR: collection not found, has the index been built?")
		} else {
			r.logger.Printf("ERROR: search failed: %v", err)
		}
		return nil
	}

	var chunks []Chunk
	for _, m := range matches {
		score := 1 - m.Distance
		if score < minScore {
			continue
		}
		chunks = append(chunks, Chunk{
			ID:              m.ID,
			Text:            m.Text,
			DocumentName:    m.Document,
			PageNumber:      m.Page,
			ChunkIndex:      m.Chunk,
			Citation:        m.Citation,
			SimilarityScore: score,
		})
	}
	return chunks
}

// MultiSearch runs Search per query and merges the results: duplicates are
// dropped on first occurrence, then the union is re-sorted by similarity
// descending. The sort is stable so ties keep their first-seen order.
func (r *Retriever) MultiSearch(ctx context.Context, queries []string, perQuery int, minScore float64) []Chunk {
	var all []Chunk
	seen := make(map[string]struct{})
	for _, q := range queries {
		for _, c := range r.Search(ctx, q, perQuery, minScore) {
			if _, ok := seen[c.ID]; ok {
				continue
			}
			seen[c.ID] = struct{}{}
			all = append(all, c)
		}
	}
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].SimilarityScore > all[j].SimilarityScore
	})
	return all
}

// RetrieveWithContext packages a single-query search into a tagged Result.
func (r *Retriever) RetrieveWithContext(ctx context.Context, query string, topK int, minScore float64) Result {
	chunks := r.Search(ctx, query, topK, minScore)
	r.telemetry.RecordRetrievalEvent("single", len(chunks) > 0, len(chunks))
	if len(chunks) == 0 {
		return Result{Found: false, Message: NotFoundMessage}
	}

	byDoc := make(map[string][]Chunk)
	for _, c := range chunks {
		byDoc[c.DocumentName] = append(byDoc[c.DocumentName], c)
	}

	return Result{
		Found:      true,
		Message:    fmt.Sprintf("Found %d relevant chunks from %d documents.", len(chunks), len(byDoc)),
		Chunks:     chunks,
		Context:    sourceContext(chunks),
		Citations:  uniqueCitations(chunks),
		ByDocument: byDoc,
	}
}

// MultiQueryRetrieval packages a multi-query merge into a tagged Result.
func (r *Retriever) MultiQueryRetrieval(ctx context.Context, queries []string, perQuery int, minScore float64) Result {
	chunks := r.MultiSearch(ctx, queries, perQuery, minScore)
	r.telemetry.RecordRetrievalEvent("multi", len(chunks) > 0, len(chunks))
	if len(chunks) == 0 {
		return Result{Found: false, Message: MultiNotFoundMessage}
	}

	return Result{
		Found:     true,
		Message:   fmt.Sprintf("Found %d unique chunks across %d queries.", len(chunks), len(queries)),
		Chunks:    chunks,
		Context:   sourceContext(chunks),
		Citations: uniqueCitations(chunks),
	}
}

// sourceContext renders chunks as numbered source blocks.
func sourceContext(chunks []Chunk) string {
	parts := make([]string, len(chunks))
	for i, c := range chunks {
		parts[i] = fmt.Sprintf("[Source %d] %s\n%s\n", i+1, c.Citation, c.Text)
	}
	return strings.Join(parts, "\n---\n")
}

// uniqueCitations dedupes citations preserving first-seen order.
func uniqueCitations(chunks []Chunk) []string {
	seen := make(map[string]struct{}, len(chunks))
	var out []string
	for _, c := range chunks {
		if _, ok := seen[c.Citation]; ok {
			continue
		}
		seen[c.Citation] = struct{}{}
		out = append(out, c.Citation)
	}
	return out
}
