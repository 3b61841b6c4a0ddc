package retrieval

import (
	"strings"
	"testing"
)

func sampleChunk(citation, text string, score float64) Chunk {
	return Chunk{Citation: citation, Text: text, SimilarityScore: score}
}

func TestContextForAgent(t *testing.T) {
	chunks := []Chunk{
		sampleChunk("returns.txt, Page 1, Chunk 0", "window is 30 days", 0.91),
		sampleChunk("shrink.txt, Page 4, Chunk 2", "count weekly", 0.72),
	}
	got := ContextForAgent(chunks, true)
	for _, want := range []string{
		"# Retrieved Information",
		"Found 2 relevant sources:",
		"## Source 1",
		"**Citation:** returns.txt, Page 1, Chunk 0",
		"**Relevance Score:** 0.910",
		"window is 30 days",
		"## Source 2",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("context missing %q", want)
		}
	}

	noScores := ContextForAgent(chunks, false)
	if strings.Contains(noScores, "Relevance Score") {
		t.Errorf("scores rendered when includeScores=false")
	}
}

func TestContextForAgentEmpty(t *testing.T) {
	if got := ContextForAgent(nil, false); got != "No relevant information found in the documents." {
		t.Fatalf("got %q", got)
	}
}

func TestCitations(t *testing.T) {
	chunks := []Chunk{
		sampleChunk("a.txt, Page 1, Chunk 0", "", 0.9),
		sampleChunk("a.txt, Page 1, Chunk 0", "", 0.8),
		sampleChunk("b.txt, Page 3, Chunk 1", "", 0.7),
	}
	got := Citations(chunks)
	want := "1. a.txt, Page 1, Chunk 0\n2. b.txt, Page 3, Chunk 1"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
	if Citations(nil) != "No sources" {
		t.Fatalf("empty case wrong")
	}
}

func TestResultsForDisplay(t *testing.T) {
	long := strings.Repeat("z", 400)
	chunks := []Chunk{sampleChunk("a.txt, Page 1, Chunk 0", long, 0.88)}
	got := ResultsForDisplay(chunks)
	if !strings.Contains(got, "Found 1 relevant chunks:") {
		t.Errorf("header missing: %q", got)
	}
	if !strings.Contains(got, "Similarity Score: 0.880") {
		t.Errorf("score missing")
	}
	if !strings.Contains(got, strings.Repeat("z", 300)+"...") {
		t.Errorf("preview not truncated to 300")
	}
	if strings.Contains(got, strings.Repeat("z", 301)) {
		t.Errorf("preview exceeds 300 chars")
	}
	if ResultsForDisplay(nil) != "No results found." {
		t.Errorf("empty case wrong")
	}
}
