package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/emaadiliX/retail-operations-copilot/config"
	"github.com/emaadiliX/retail-operations-copilot/internal/agent/telemetry"
	"github.com/emaadiliX/retail-operations-copilot/internal/retrieval"
)

// Sentinel strings returned to the model when retrieval comes up empty.
// These exact phrasings are the contract the stage instructions rely on.
const (
	searchNotFoundMessage      = "Not found in sources. The available documents do not contain information relevant to this query."
	multiSearchNotFoundMessage = "Not found in sources. None of the queries returned relevant results from the document set."
)

// Searcher is the retrieval capability the toolset needs.
type Searcher interface {
	RetrieveWithContext(ctx context.Context, query string, topK int, minScore float64) retrieval.Result
	MultiQueryRetrieval(ctx context.Context, queries []string, perQuery int, minScore float64) retrieval.Result
}

// Toolset exposes the knowledge-base search tools to the research stage
// and records every citation the stage was actually shown. The recorded
// set is the ground truth for rejecting fabricated citations.
type Toolset struct {
	retriever Searcher
	cfg       config.RetrievalConfig
	telemetry *telemetry.Telemetry

	mu        sync.Mutex
	citations map[string]struct{}
}

// NewToolset creates a toolset for one pipeline run.
func NewToolset(retriever Searcher, cfg config.RetrievalConfig, tele *telemetry.Telemetry) *Toolset {
	return &Toolset{
		retriever: retriever,
		cfg:       cfg,
		telemetry: tele,
		citations: make(map[string]struct{}),
	}
}

// Seen reports whether a citation was surfaced by any tool call so far.
func (t *Toolset) Seen(citation string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.citations[citation]
	return ok
}

func (t *Toolset) record(chunks []retrieval.Chunk) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, c := range chunks {
		t.citations[c.Citation] = struct{}{}
	}
}

// Tools returns the tool definitions for the research stage.
func (t *Toolset) Tools() []Tool {
	return []Tool{
		{
			Name:        "search_retail_documents",
			Description: "Search the retail knowledge base for information related to a query.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"query": map[string]any{
						"type":        "string",
						"description": "Search query to run against the document store",
					},
					"top_k": map[string]any{
						"type":        "integer",
						"description": "Number of chunks to retrieve",
					},
				},
				"required": []string{"query"},
			},
			Handler: t.search,
		},
		{
			Name:        "multi_search_retail_documents",
			Description: "Run multiple comma-separated search queries and combine the results. Use this when a topic needs info from different angles.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"queries": map[string]any{
						"type":        "string",
						"description": "Comma-separated list of search queries",
					},
				},
				"required": []string{"queries"},
			},
			Handler: t.multiSearch,
		},
	}
}

func (t *Toolset) search(ctx context.Context, args json.RawMessage) (string, error) {
	var params struct {
		Query string `json:"query"`
		TopK  int    `json:"top_k"`
	}
	if err := json.Unmarshal(args, &params); err != nil {
		return "invalid arguments: " + err.Error(), nil
	}
	topK := params.TopK
	if topK <= 0 {
		topK = t.cfg.TopK
	}

	res := t.retriever.RetrieveWithContext(ctx, params.Query, topK, t.cfg.ToolMinScore)
	t.telemetry.RecordToolCall("search_retail_documents", res.Found)
	if !res.Found {
		return searchNotFoundMessage, nil
	}
	t.record(res.Chunks)

	body := retrieval.ContextForAgent(res.Chunks, true)
	citations := retrieval.Citations(res.Chunks)
	return body + "\n\n## Citations\n" + citations, nil
}

func (t *Toolset) multiSearch(ctx context.Context, args json.RawMessage) (string, error) {
	var params struct {
		Queries string `json:"queries"`
	}
	if err := json.Unmarshal(args, &params); err != nil {
		return "invalid arguments: " + err.Error(), nil
	}

	var queries []string
	for _, q := range strings.Split(params.Queries, ",") {
		if q = strings.TrimSpace(q); q != "" {
			queries = append(queries, q)
		}
	}
	if len(queries) == 0 {
		return "No valid queries provided.", nil
	}

	res := t.retriever.MultiQueryRetrieval(ctx, queries, t.cfg.TopKPerQuery, t.cfg.ToolMinScore)
	t.telemetry.RecordToolCall("multi_search_retail_documents", res.Found)
	if !res.Found {
		return multiSearchNotFoundMessage, nil
	}
	t.record(res.Chunks)

	body := retrieval.ContextForAgent(res.Chunks, true)
	citations := retrieval.Citations(res.Chunks)
	return fmt.Sprintf("Combined results from %d queries:\n\n%s\n\n## Citations\n%s",
		len(queries), body, citations), nil
}
