package index

import (
	"context"
	"errors"
)

// Sentinel errors for the vector index.
var (
	// ErrIndexNotFound signals that the collection has not been created yet.
	ErrIndexNotFound = errors.New("vector index not found")
	// ErrIndexExists signals that EnsureIndex found the collection in place.
	ErrIndexExists = errors.New("vector index already exists")
)

// Record is one chunk as stored in the vector index.
type Record struct {
	ID       string
	Vector   []float32
	Text     string
	Document string
	Page     int
	Chunk    int
	Citation string
	FilePath string
}

// Match is one KNN hit. Distance is the raw cosine distance reported by the
// index; callers derive similarity from it.
type Match struct {
	ID       string
	Text     string
	Document string
	Page     int
	Chunk    int
	Citation string
	FilePath string
	Distance float64
}

// Store is the vector index capability the retriever and indexer build on.
type Store interface {
	// EnsureIndex creates the collection schema. Returns ErrIndexExists
	// when the collection is already in place.
	EnsureIndex(ctx context.Context) error
	// Drop removes the collection and its stored chunks.
	Drop(ctx context.Context) error
	// Upsert writes records, overwriting existing IDs in place.
	Upsert(ctx context.Context, records []Record) error
	// Query returns up to k nearest matches in distance-ascending order.
	// Returns ErrIndexNotFound when the collection does not exist.
	Query(ctx context.Context, vector []float32, k int) ([]Match, error)
	// Count reports the number of stored chunks.
	Count(ctx context.Context) (int, error)
	Close()
}
