package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"
)

const researcherInstructions = `You are the Research Agent for a Retail / CPG operations copilot.

You have access to a knowledge base of retail and CPG documents including
whitepapers, strategy reports, and industry analyses. Use the provided
search tools to find relevant information.

WORKFLOW:
1. You will receive an execution plan with research queries and focus areas.
2. Use the search tools to retrieve information for each query.
3. Extract key facts, statistics, and insights from the retrieved sources.
4. Compile your findings into structured research notes.

CRITICAL RULES:
- ONLY use information found in the retrieved documents. NEVER fabricate data.
- ALWAYS include the exact citation for every finding (DocumentName, Page, Chunk).
- If a query returns no results, record it as a gap - say "Not found in sources."
- Do NOT add your own knowledge or assumptions beyond what the sources state.
- Prefer specific numbers, percentages, and quotes over vague summaries.

OUTPUT FORMAT:
Return a JSON object with:
- findings: list of {finding, citation, relevance} - one per key fact
- gaps: list of information that was needed but not found
- sources_used: all unique citations referenced
- summary: what was found and what is missing`

// Researcher is the second pipeline stage: it executes the plan's queries
// through the search tools and compiles cited research notes.
type Researcher struct {
	provider  Provider
	maxRounds int
	logger    *log.Logger
}

// NewResearcher creates a new researcher instance
func NewResearcher(provider Provider, maxRounds int) *Researcher {
	return &Researcher{
		provider:  provider,
		maxRounds: maxRounds,
		logger:    log.New(log.Writer(), "[RESEARCHER] ", log.LstdFlags),
	}
}

// Research runs the tool loop over the execution plan. Findings whose
// citations never appeared in any tool result are demoted to gaps, so a
// fabricated citation can never reach the writer.
func (r *Researcher) Research(ctx context.Context, plan ExecutionPlan, request string, tools *Toolset) (ResearchNotes, error) {
	startTime := time.Now()
	r.logger.Printf("researching: %s (%d queries)", plan.TaskSummary, len(plan.ResearchQueries))

	planJSON, err := json.MarshalIndent(plan, "", "  ")
	if err != nil {
		return ResearchNotes{}, fmt.Errorf("encoding plan: %w", err)
	}

	prompt := fmt.Sprintf(
		"Execute the following research plan. Use the search tools to find information for each query.\n\n"+
			"EXECUTION PLAN:\n%s\n\nORIGINAL USER REQUEST:\n%s",
		planJSON, request)

	response, err := r.provider.CompleteWithTools(ctx, researcherInstructions, prompt, tools.Tools(), r.maxRounds)
	if err != nil {
		return ResearchNotes{}, fmt.Errorf("failed to execute research: %w", err)
	}

	var notes ResearchNotes
	if err := decodeStage(response, &notes); err != nil {
		return ResearchNotes{}, fmt.Errorf("failed to parse research response: %w", err)
	}

	notes = enforceCitations(notes, tools)

	r.logger.Printf("done in %s: %d findings, %d gaps, %d sources",
		time.Since(startTime).Round(time.Millisecond),
		len(notes.Findings), len(notes.Gaps), len(notes.SourcesUsed))
	return notes, nil
}

// enforceCitations drops findings whose citation was never surfaced by a
// tool call and records them as gaps. SourcesUsed keeps seen citations only.
func enforceCitations(notes ResearchNotes, tools *Toolset) ResearchNotes {
	kept := notes.Findings[:0:0]
	for _, f := range notes.Findings {
		if tools.Seen(f.Citation) {
			kept = append(kept, f)
			continue
		}
		notes.Gaps = append(notes.Gaps,
			fmt.Sprintf("Dropped finding with unknown citation %q: %s", f.Citation, f.Finding))
	}
	notes.Findings = kept

	sources := notes.SourcesUsed[:0:0]
	for _, s := range notes.SourcesUsed {
		if tools.Seen(s) {
			sources = append(sources, s)
		}
	}
	notes.SourcesUsed = sources
	return notes
}
