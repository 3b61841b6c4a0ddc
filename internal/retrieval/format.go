package retrieval

import (
	"fmt"
	"strings"
)

// ContextForAgent renders chunks as a structured markdown context block for
// LLM consumption.
func ContextForAgent(chunks []Chunk, includeScores bool) string {
	if len(chunks) == 0 {
		return "No relevant information found in the documents."
	}

	var b strings.Builder
	b.WriteString("# Retrieved Information\n\n")
	fmt.Fprintf(&b, "Found %d relevant sources:\n", len(chunks))

	for i, c := range chunks {
		fmt.Fprintf(&b, "\n## Source %d\n", i+1)
		fmt.Fprintf(&b, "**Citation:** %s\n", c.Citation)
		if includeScores {
			fmt.Fprintf(&b, "**Relevance Score:** %.3f\n", c.SimilarityScore)
		}
		fmt.Fprintf(&b, "\n**Content:**\n%s\n", c.Text)
		b.WriteString("\n" + strings.Repeat("-", 70) + "\n")
	}
	return b.String()
}

// Citations renders the unique citations of chunks as a numbered list in
// first-seen order.
func Citations(chunks []Chunk) string {
	if len(chunks) == 0 {
		return "No sources"
	}
	unique := uniqueCitations(chunks)
	lines := make([]string, len(unique))
	for i, c := range unique {
		lines[i] = fmt.Sprintf("%d. %s", i+1, c)
	}
	return strings.Join(lines, "\n")
}

// ResultsForDisplay renders chunks for terminal output.
func ResultsForDisplay(chunks []Chunk) string {
	if len(chunks) == 0 {
		return "No results found."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d relevant chunks:\n\n", len(chunks))
	for i, c := range chunks {
		fmt.Fprintf(&b, "[%d] %s\n", i+1, c.Citation)
		fmt.Fprintf(&b, "Similarity Score: %.3f\n", c.SimilarityScore)
		b.WriteString("Text Preview:\n")
		if len(c.Text) > 300 {
			b.WriteString(c.Text[:300] + "...")
		} else {
			b.WriteString(c.Text)
		}
		b.WriteString("\n\n")
	}
	return strings.TrimRight(b.String(), "\n") + "\n"
}
