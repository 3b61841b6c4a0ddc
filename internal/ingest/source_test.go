package ingest

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestTextFilePages(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "handbook.txt", "page one content\fpage two content\f\fpage four content")

	src := FileSource(filepath.Join(dir, "handbook.txt"))
	pages, err := src.Pages()
	if err != nil {
		t.Fatal(err)
	}
	if len(pages) != 3 {
		t.Fatalf("got %d pages, want 3 (blank page skipped)", len(pages))
	}
	if pages[0].Number != 1 || pages[1].Number != 2 || pages[2].Number != 4 {
		t.Fatalf("page numbering wrong: %+v", pages)
	}
	if !strings.Contains(pages[2].Text, "page four") {
		t.Fatalf("page text wrong: %q", pages[2].Text)
	}
}

func TestDirSource(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "b_returns.txt", "returns policy")
	writeFile(t, dir, "a_shrink.md", "shrink playbook")
	writeFile(t, dir, "ignore.csv", "not,a,document")
	if err := os.Mkdir(filepath.Join(dir, "sub"), 0o755); err != nil {
		t.Fatal(err)
	}

	sources, err := DirSource(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(sources) != 2 {
		t.Fatalf("got %d sources, want 2", len(sources))
	}
	if sources[0].Name() != "a_shrink.md" || sources[1].Name() != "b_returns.txt" {
		t.Fatalf("sources not in name order: %s, %s", sources[0].Name(), sources[1].Name())
	}
}

func TestIngestDir(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "doc.txt", strings.Repeat("weekly cycle count procedure ", 50))

	chunks, err := IngestDir(dir, ChunkParams{Size: 200, Overlap: 40, MinLength: 20}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(chunks) == 0 {
		t.Fatalf("expected chunks")
	}
	for _, c := range chunks {
		if c.DocumentName != "doc.txt" {
			t.Fatalf("wrong document name %q", c.DocumentName)
		}
		if c.PageNumber != 1 {
			t.Fatalf("wrong page number %d", c.PageNumber)
		}
	}
}
