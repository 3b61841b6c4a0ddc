package ingest

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"strings"
)

// ChunkParams controls the sliding-window splitter.
type ChunkParams struct {
	Size      int
	Overlap   int
	MinLength int
}

// Chunk is one retrievable unit of a document page. IDs are stable across
// re-ingestion so the vector index can overwrite in place.
type Chunk struct {
	ID           string
	Text         string
	DocumentName string
	PageNumber   int
	ChunkIndex   int
	FilePath     string
	ChunkLength  int
	TotalOnPage  int
}

// ChunkID derives the stable chunk identifier.
func ChunkID(document string, page, index int) string {
	sum := md5.Sum([]byte(fmt.Sprintf("%s_%d_%d", document, page, index)))
	return hex.EncodeToString(sum[:])
}

// Citation renders the human-readable source reference for the chunk.
func (c Chunk) Citation() string {
	return fmt.Sprintf("%s, Page %d, Chunk %d", c.DocumentName, c.PageNumber, c.ChunkIndex)
}

// SplitText splits text into overlapping windows of at most p.Size bytes.
// When a window would end mid-word the cut retracts to the last space
// strictly after the window start; if no such space exists the hard cut
// stands. Each window is trimmed and dropped when shorter than p.MinLength.
// The window start always advances by p.Size - p.Overlap, so the split is
// deterministic and never loops.
func SplitText(text string, p ChunkParams) []string {
	if text == "" || p.Size <= 0 {
		return nil
	}
	step := p.Size - p.Overlap
	if step <= 0 {
		step = p.Size
	}

	var chunks []string
	for start := 0; start < len(text); start += step {
		end := start + p.Size
		if end > len(text) {
			end = len(text)
		} else if end < len(text) && text[end] != ' ' {
			if rel := strings.LastIndexByte(text[start:end], ' '); rel > 0 {
				end = start + rel
			}
		}
		chunk := strings.TrimSpace(text[start:end])
		if len(chunk) >= p.MinLength {
			chunks = append(chunks, chunk)
		}
	}
	return chunks
}

// ChunkPage splits one page of a document into Chunk records.
func ChunkPage(document, filePath string, page int, text string, p ChunkParams) []Chunk {
	pieces := SplitText(text, p)
	chunks := make([]Chunk, 0, len(pieces))
	for i, piece := range pieces {
		chunks = append(chunks, Chunk{
			ID:           ChunkID(document, page, i),
			Text:         piece,
			DocumentName: document,
			PageNumber:   page,
			ChunkIndex:   i,
			FilePath:     filePath,
			ChunkLength:  len(piece),
			TotalOnPage:  len(pieces),
		})
	}
	return chunks
}
