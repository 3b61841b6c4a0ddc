package ingest

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Page is one page of a source document.
type Page struct {
	Number int
	Text   string
}

// Source yields the pages of a single document. Implementations for richer
// formats (PDF extraction and the like) plug in behind this interface.
type Source interface {
	Name() string
	Path() string
	Pages() ([]Page, error)
}

// textFile is a plain-text source. Form feeds delimit pages; a file without
// form feeds is a single page.
type textFile struct {
	path string
}

func (f textFile) Name() string { return filepath.Base(f.path) }
func (f textFile) Path() string { return f.path }

func (f textFile) Pages() ([]Page, error) {
	raw, err := os.ReadFile(f.path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", f.path, err)
	}
	var pages []Page
	num := 0
	for _, part := range strings.Split(string(raw), "\f") {
		num++
		if strings.TrimSpace(part) == "" {
			continue
		}
		pages = append(pages, Page{Number: num, Text: part})
	}
	return pages, nil
}

// FileSource wraps a single .txt/.md file as a Source.
func FileSource(path string) Source { return textFile{path: path} }

// DirSource lists the text documents of a corpus directory in name order.
func DirSource(dir string) ([]Source, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading corpus dir %s: %w", dir, err)
	}
	var sources []Source
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".txt", ".md":
			sources = append(sources, textFile{path: filepath.Join(dir, e.Name())})
		}
	}
	sort.Slice(sources, func(i, j int) bool { return sources[i].Name() < sources[j].Name() })
	return sources, nil
}

// ProcessDocument chunks every page of a source document.
func ProcessDocument(src Source, p ChunkParams, logger *log.Logger) ([]Chunk, error) {
	pages, err := src.Pages()
	if err != nil {
		return nil, err
	}
	var chunks []Chunk
	for _, page := range pages {
		chunks = append(chunks, ChunkPage(src.Name(), src.Path(), page.Number, page.Text, p)...)
	}
	if logger != nil {
		logger.Printf("processed %s: %d pages, %d chunks", src.Name(), len(pages), len(chunks))
	}
	return chunks, nil
}

// IngestDir chunks every document in the corpus directory.
func IngestDir(dir string, p ChunkParams, logger *log.Logger) ([]Chunk, error) {
	sources, err := DirSource(dir)
	if err != nil {
		return nil, err
	}
	var all []Chunk
	for _, src := range sources {
		chunks, err := ProcessDocument(src, p, logger)
		if err != nil {
			return nil, err
		}
		all = append(all, chunks...)
	}
	if logger != nil {
		logger.Printf("ingested %d documents, %d chunks total", len(sources), len(all))
	}
	return all, nil
}
