package agent

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/emaadiliX/retail-operations-copilot/config"
	"github.com/emaadiliX/retail-operations-copilot/internal/retrieval"
)

type fakeSearcher struct {
	single      retrieval.Result
	multi       retrieval.Result
	lastQuery   string
	lastQueries []string
	lastTopK    int
	lastScore   float64
}

func (f *fakeSearcher) RetrieveWithContext(ctx context.Context, query string, topK int, minScore float64) retrieval.Result {
	f.lastQuery = query
	f.lastTopK = topK
	f.lastScore = minScore
	return f.single
}

func (f *fakeSearcher) MultiQueryRetrieval(ctx context.Context, queries []string, perQuery int, minScore float64) retrieval.Result {
	f.lastQueries = queries
	f.lastScore = minScore
	return f.multi
}

func retrievalCfg() config.RetrievalConfig {
	return config.RetrievalConfig{TopK: 5, TopKPerQuery: 3, MinScore: 0.5, ToolMinScore: 0.3}
}

func foundResult() retrieval.Result {
	chunks := []retrieval.Chunk{
		{
			Citation:        "inventory.txt, Page 2, Chunk 1",
			Text:            "Cycle counting raised accuracy to 95%.",
			DocumentName:    "inventory.txt",
			SimilarityScore: 0.82,
		},
	}
	return retrieval.Result{Found: true, Chunks: chunks}
}

func callTool(t *testing.T, ts *Toolset, name, args string) string {
	t.Helper()
	for _, tool := range ts.Tools() {
		if tool.Name == name {
			out, err := tool.Handler(context.Background(), json.RawMessage(args))
			if err != nil {
				t.Fatalf("tool %s: %v", name, err)
			}
			return out
		}
	}
	t.Fatalf("tool %s not registered", name)
	return ""
}

func TestSearchToolFound(t *testing.T) {
	searcher := &fakeSearcher{single: foundResult()}
	ts := NewToolset(searcher, retrievalCfg(), nil)

	out := callTool(t, ts, "search_retail_documents", `{"query": "inventory accuracy"}`)
	if !strings.Contains(out, "## Citations") {
		t.Fatalf("citations section missing: %q", out)
	}
	if !strings.Contains(out, "inventory.txt, Page 2, Chunk 1") {
		t.Fatalf("citation missing: %q", out)
	}
	if searcher.lastQuery != "inventory accuracy" || searcher.lastTopK != 5 {
		t.Fatalf("defaults not applied: %+v", searcher)
	}
	if searcher.lastScore != 0.3 {
		t.Fatalf("tool must use the looser tool gate, got %v", searcher.lastScore)
	}
	if !ts.Seen("inventory.txt, Page 2, Chunk 1") {
		t.Fatalf("citation not recorded")
	}
}

func TestSearchToolNotFound(t *testing.T) {
	ts := NewToolset(&fakeSearcher{single: retrieval.Result{Found: false, Message: retrieval.NotFoundMessage}}, retrievalCfg(), nil)

	out := callTool(t, ts, "search_retail_documents", `{"query": "unicorn forecasting"}`)
	if out != searchNotFoundMessage {
		t.Fatalf("got %q", out)
	}
	if ts.Seen("inventory.txt, Page 2, Chunk 1") {
		t.Fatalf("not-found call must record nothing")
	}
}

func TestSearchToolTopKOverride(t *testing.T) {
	searcher := &fakeSearcher{single: foundResult()}
	ts := NewToolset(searcher, retrievalCfg(), nil)
	callTool(t, ts, "search_retail_documents", `{"query": "q", "top_k": 9}`)
	if searcher.lastTopK != 9 {
		t.Fatalf("top_k override ignored, got %d", searcher.lastTopK)
	}
}

func TestMultiSearchTool(t *testing.T) {
	searcher := &fakeSearcher{multi: foundResult()}
	ts := NewToolset(searcher, retrievalCfg(), nil)

	out := callTool(t, ts, "multi_search_retail_documents",
		`{"queries": "supply chain visibility, , inventory management "}`)
	if !strings.HasPrefix(out, "Combined results from 2 queries:") {
		t.Fatalf("prefix wrong: %q", out)
	}
	want := []string{"supply chain visibility", "inventory management"}
	if len(searcher.lastQueries) != 2 || searcher.lastQueries[0] != want[0] || searcher.lastQueries[1] != want[1] {
		t.Fatalf("queries parsed wrong: %v", searcher.lastQueries)
	}
}

func TestMultiSearchToolNotFound(t *testing.T) {
	ts := NewToolset(&fakeSearcher{multi: retrieval.Result{Found: false}}, retrievalCfg(), nil)
	out := callTool(t, ts, "multi_search_retail_documents", `{"queries": "a, b"}`)
	if out != multiSearchNotFoundMessage {
		t.Fatalf("got %q", out)
	}
}

func TestMultiSearchToolNoQueries(t *testing.T) {
	ts := NewToolset(&fakeSearcher{}, retrievalCfg(), nil)
	out := callTool(t, ts, "multi_search_retail_documents", `{"queries": " , , "}`)
	if out != "No valid queries provided." {
		t.Fatalf("got %q", out)
	}
}
