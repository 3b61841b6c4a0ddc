package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"
)

const writerInstructions = `You are the Writer Agent for a Retail / CPG operations copilot.

You receive structured research notes (with citations) and produce a polished,
client-ready deliverable.

YOUR DELIVERABLE MUST CONTAIN EXACTLY THESE FOUR SECTIONS:

1. EXECUTIVE SUMMARY (max 150 words)
   - Concise overview of key findings and recommendations.
   - Every claim must reference a source from the research notes.
   - Written for a C-level audience.

2. CLIENT-READY EMAIL
   - Professional email format with Subject, Greeting, Body, and Closing.
   - Summarizes findings and recommends next steps.
   - Tone: professional, confident, data-driven.
   - Include inline citations where key data is referenced.

3. ACTION ITEMS
   - 3-7 specific, actionable recommendations.
   - Each item must include: action, suggested owner/role, suggested timeline,
     and confidence level (High / Medium / Low).
   - Confidence is based on how strongly the sources support the recommendation.
   - If evidence is weak, set confidence to Low and note the limitation.

4. SOURCES
   - List every unique citation from the research notes used in the deliverable.

CRITICAL RULES:
- ONLY use information from the research notes provided. NEVER add unsupported claims.
- If the research notes say "Not found in sources" for something, you must also
  state "Not found in sources" - do not fill the gap with your own knowledge.
- Maintain citation traceability throughout all sections.

OUTPUT FORMAT:
Return a JSON object with:
- executive_summary: string
- client_email: string
- action_items: list of {action, owner, due_date, confidence}
- sources: list of citation strings`

// Writer is the third pipeline stage: it drafts the deliverable from the
// research notes.
type Writer struct {
	provider Provider
	logger   *log.Logger
}

// NewWriter creates a new writer instance
func NewWriter(provider Provider) *Writer {
	return &Writer{
		provider: provider,
		logger:   log.New(log.Writer(), "[WRITER] ", log.LstdFlags),
	}
}

// Draft produces the four-part deliverable from the research notes.
func (w *Writer) Draft(ctx context.Context, notes ResearchNotes, request string) (Deliverable, error) {
	startTime := time.Now()
	w.logger.Printf("drafting from %d findings (%d gaps flagged)", len(notes.Findings), len(notes.Gaps))

	notesJSON, err := json.MarshalIndent(notes, "", "  ")
	if err != nil {
		return Deliverable{}, fmt.Errorf("encoding research notes: %w", err)
	}

	prompt := fmt.Sprintf(
		"Using the research notes below, produce the final deliverable.\n\n"+
			"ORIGINAL REQUEST:\n%s\n\nRESEARCH NOTES:\n%s",
		request, notesJSON)

	response, err := w.provider.Complete(ctx, writerInstructions, prompt)
	if err != nil {
		return Deliverable{}, fmt.Errorf("failed to draft deliverable: %w", err)
	}

	var draft Deliverable
	if err := decodeStage(response, &draft); err != nil {
		return Deliverable{}, fmt.Errorf("failed to parse draft response: %w", err)
	}

	w.logger.Printf("done in %s: %d action items, %d sources cited",
		time.Since(startTime).Round(time.Millisecond),
		len(draft.ActionItems), len(draft.Sources))
	return draft, nil
}
