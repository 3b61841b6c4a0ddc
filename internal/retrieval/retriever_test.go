package retrieval

import (
	"context"
	"errors"
	"testing"

	"github.com/emaadiliX/retail-operations-copilot/internal/index"
)

type fakeEmbedder struct {
	err error
}

func (f *fakeEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{1, 0, 0}
	}
	return out, nil
}

type fakeStore struct {
	byQuery map[int][]index.Match // served in call order
	calls   int
	err     error
}

func (f *fakeStore) EnsureIndex(ctx context.Context) error                   { return nil }
func (f *fakeStore) Drop(ctx context.Context) error                          { return nil }
func (f *fakeStore) Upsert(ctx context.Context, records []index.Record) error { return nil }
func (f *fakeStore) Count(ctx context.Context) (int, error)                  { return 0, nil }
func (f *fakeStore) Close()                                                  {}

func (f *fakeStore) Query(ctx context.Context, vector []float32, k int) ([]index.Match, error) {
	defer func() { f.calls++ }()
	if f.err != nil {
		return nil, f.err
	}
	return f.byQuery[f.calls], nil
}

func match(id, doc string, page, chunk int, distance float64) index.Match {
	return index.Match{
		ID:       id,
		Text:     "text for " + id,
		Document: doc,
		Page:     page,
		Chunk:    chunk,
		Citation: doc + ", Page 1, Chunk 0",
		Distance: distance,
	}
}

func TestSearchSimilarityGate(t *testing.T) {
	store := &fakeStore{byQuery: map[int][]index.Match{
		0: {
			match("a", "returns.txt", 1, 0, 0.30), // similarity 0.70
			match("b", "returns.txt", 1, 1, 0.58), // similarity 0.42, below gate
		},
	}}
	r := New(store, &fakeEmbedder{}, nil)

	chunks := r.Search(context.Background(), "return window", 5, 0.5)
	if len(chunks) != 1 {
		t.Fatalf("got %d chunks, want 1", len(chunks))
	}
	if chunks[0].ID != "a" {
		t.Fatalf("wrong chunk survived the gate: %s", chunks[0].ID)
	}
	if got := chunks[0].SimilarityScore; got < 0.699 || got > 0.701 {
		t.Fatalf("similarity = %v, want 0.70", got)
	}
}

func TestSearchPreservesIndexOrder(t *testing.T) {
	store := &fakeStore{byQuery: map[int][]index.Match{
		0: {
			match("a", "d.txt", 1, 0, 0.10),
			match("b", "d.txt", 1, 1, 0.20),
			match("c", "d.txt", 1, 2, 0.30),
		},
	}}
	r := New(store, &fakeEmbedder{}, nil)

	chunks := r.Search(context.Background(), "q", 5, 0.5)
	want := []string{"a", "b", "c"}
	for i, id := range want {
		if chunks[i].ID != id {
			t.Fatalf("order changed at %d: got %s, want %s", i, chunks[i].ID, id)
		}
	}
}

func TestSearchMissingIndexIsEmpty(t *testing.T) {
	r := New(&fakeStore{err: index.ErrIndexNotFound}, &fakeEmbedder{}, nil)
	if got := r.Search(context.Background(), "q", 5, 0.5); got != nil {
		t.Fatalf("missing index must yield empty, got %v", got)
	}
}

func TestSearchEmbedFailureIsEmpty(t *testing.T) {
	r := New(&fakeStore{}, &fakeEmbedder{err: errors.New("api down")}, nil)
	if got := r.Search(context.Background(), "q", 5, 0.5); got != nil {
		t.Fatalf("embed failure must yield empty, got %v", got)
	}
}

func TestRetrieveWithContextNotFound(t *testing.T) {
	r := New(&fakeStore{}, &fakeEmbedder{}, nil)
	res := r.RetrieveWithContext(context.Background(), "q", 5, 0.5)
	if res.Found {
		t.Fatalf("expected found=false")
	}
	if res.Message != NotFoundMessage {
		t.Fatalf("message = %q", res.Message)
	}
	if len(res.Chunks) != 0 || res.Context != "" || len(res.Citations) != 0 {
		t.Fatalf("not-found result must be empty: %+v", res)
	}
}

func TestRetrieveWithContextFound(t *testing.T) {
	store := &fakeStore{byQuery: map[int][]index.Match{
		0: {
			match("a", "returns.txt", 1, 0, 0.10),
			match("b", "shrink.txt", 1, 0, 0.20),
		},
	}}
	r := New(store, &fakeEmbedder{}, nil)

	res := r.RetrieveWithContext(context.Background(), "q", 5, 0.5)
	if !res.Found {
		t.Fatalf("expected found=true")
	}
	if res.Message != "Found 2 relevant chunks from 2 documents." {
		t.Fatalf("message = %q", res.Message)
	}
	if len(res.ByDocument["returns.txt"]) != 1 || len(res.ByDocument["shrink.txt"]) != 1 {
		t.Fatalf("grouping wrong: %v", res.ByDocument)
	}
	if res.Context == "" {
		t.Fatalf("context missing")
	}
}

func TestMultiSearchDedupFirstWinsThenSorts(t *testing.T) {
	// Query 1 sees chunk "x" at similarity 0.9; query 2 returns "x" again at
	// 0.7 plus a fresh "y" at 0.8. The duplicate is dropped keeping the 0.9
	// record, and the union is sorted descending.
	store := &fakeStore{byQuery: map[int][]index.Match{
		0: {match("x", "a.txt", 1, 0, 0.10)},
		1: {
			match("x", "a.txt", 1, 0, 0.30),
			match("y", "b.txt", 1, 0, 0.20),
		},
	}}
	r := New(store, &fakeEmbedder{}, nil)

	chunks := r.MultiSearch(context.Background(), []string{"q1", "q2"}, 3, 0.5)
	if len(chunks) != 2 {
		t.Fatalf("got %d chunks, want 2", len(chunks))
	}
	if chunks[0].ID != "x" || chunks[1].ID != "y" {
		t.Fatalf("order wrong: %s, %s", chunks[0].ID, chunks[1].ID)
	}
	if got := chunks[0].SimilarityScore; got < 0.899 || got > 0.901 {
		t.Fatalf("duplicate must keep first-seen score, got %v", got)
	}
}

func TestMultiQueryRetrievalNotFound(t *testing.T) {
	r := New(&fakeStore{err: index.ErrIndexNotFound}, &fakeEmbedder{}, nil)
	res := r.MultiQueryRetrieval(context.Background(), []string{"q1", "q2"}, 3, 0.5)
	if res.Found {
		t.Fatalf("expected found=false")
	}
	if res.Message != MultiNotFoundMessage {
		t.Fatalf("message = %q", res.Message)
	}
}

func TestMultiQueryRetrievalFound(t *testing.T) {
	store := &fakeStore{byQuery: map[int][]index.Match{
		0: {match("x", "a.txt", 1, 0, 0.10)},
		1: {match("y", "b.txt", 1, 0, 0.20)},
	}}
	r := New(store, &fakeEmbedder{}, nil)

	res := r.MultiQueryRetrieval(context.Background(), []string{"q1", "q2"}, 3, 0.5)
	if !res.Found {
		t.Fatalf("expected found=true")
	}
	if res.Message != "Found 2 unique chunks across 2 queries." {
		t.Fatalf("message = %q", res.Message)
	}
}

func TestUniqueCitationsFirstSeen(t *testing.T) {
	chunks := []Chunk{
		{Citation: "a.txt, Page 1, Chunk 0"},
		{Citation: "b.txt, Page 2, Chunk 1"},
		{Citation: "a.txt, Page 1, Chunk 0"},
	}
	got := uniqueCitations(chunks)
	if len(got) != 2 {
		t.Fatalf("got %d citations, want 2", len(got))
	}
	if got[0] != "a.txt, Page 1, Chunk 0" || got[1] != "b.txt, Page 2, Chunk 1" {
		t.Fatalf("order wrong: %v", got)
	}
}
