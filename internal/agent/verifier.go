package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"
)

const verifierInstructions = `You are the Verifier Agent for a Retail / CPG operations copilot.

Your job is to ensure the deliverable is factually grounded in the
research notes provided. You receive:
  (a) The draft deliverable (Executive Summary, Client Email, Action Items, Sources).
  (b) The original research notes with findings and citations.

VERIFICATION PROCESS:
1. Extract every factual claim from the Executive Summary and Client Email.
2. For each claim, check whether it can be traced to a specific finding
   in the research notes.
3. Assign a verdict to each claim:
   - SUPPORTED: directly backed by at least one finding + citation.
   - PARTIALLY SUPPORTED: related finding exists but the claim adds
     detail or interpretation not in the source.
   - NOT SUPPORTED: no matching finding in the research notes -
     this is a potential hallucination.
4. Check Action Items: each recommendation's confidence should match
   the evidence strength in the research notes.

OUTPUT:
Return a JSON object with:
- overall_verdict: PASS / FAIL / PARTIAL
  - PASS    = all claims are SUPPORTED
  - FAIL    = any claim is NOT SUPPORTED
  - PARTIAL = some claims are only PARTIALLY SUPPORTED
- verified_claims: list of {claim, verdict, supporting_sources, explanation}
- unsupported_claims: list of claims that are NOT SUPPORTED
- suggestions: how to fix problems found

If the overall_verdict is FAIL or PARTIAL, you MUST also provide:
- corrected_executive_summary: rewrite with unsupported claims removed or
  replaced with "Not found in sources".
- corrected_client_email: same treatment.
- corrected_action_items: remove or lower confidence on unsupported items.

CRITICAL RULES:
- Be strict: if a claim cannot be traced to a specific research finding
  with a citation, mark it NOT SUPPORTED.
- "Not found in sources" is the required phrase for missing evidence.
- Do NOT approve vague or unverifiable statements.
- You do NOT have access to the original documents - only the research notes.
  Verify claims ONLY against the research findings provided.`

// Verifier is the fourth pipeline stage: it audits the draft against the
// research notes.
type Verifier struct {
	provider Provider
	logger   *log.Logger
}

// NewVerifier creates a new verifier instance
func NewVerifier(provider Provider) *Verifier {
	return &Verifier{
		provider: provider,
		logger:   log.New(log.Writer(), "[VERIFIER] ", log.LstdFlags),
	}
}

// Verify checks the draft's claims against the research notes. A verdict
// other than PASS without corrections is a schema violation and fails the
// stage.
func (v *Verifier) Verify(ctx context.Context, draft Deliverable, notes ResearchNotes) (VerificationReport, error) {
	startTime := time.Now()
	v.logger.Printf("verifying draft with %d action items against %d findings",
		len(draft.ActionItems), len(notes.Findings))

	draftJSON, err := json.MarshalIndent(draft, "", "  ")
	if err != nil {
		return VerificationReport{}, fmt.Errorf("encoding draft: %w", err)
	}
	notesJSON, err := json.MarshalIndent(notes, "", "  ")
	if err != nil {
		return VerificationReport{}, fmt.Errorf("encoding research notes: %w", err)
	}

	prompt := fmt.Sprintf(
		"Verify the following deliverable against the research notes.\n\n"+
			"DRAFT DELIVERABLE:\n%s\n\nRESEARCH NOTES (with citations):\n%s",
		draftJSON, notesJSON)

	response, err := v.provider.Complete(ctx, verifierInstructions, prompt)
	if err != nil {
		return VerificationReport{}, fmt.Errorf("failed to verify draft: %w", err)
	}

	var report VerificationReport
	if err := decodeStage(response, &report); err != nil {
		return VerificationReport{}, fmt.Errorf("failed to parse verification response: %w", err)
	}

	v.logger.Printf("done in %s: verdict=%s, %d claims checked, %d unsupported",
		time.Since(startTime).Round(time.Millisecond),
		report.OverallVerdict, len(report.VerifiedClaims), len(report.UnsupportedClaims))
	return report, nil
}
