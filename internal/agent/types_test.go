package agent

import (
	"errors"
	"testing"
)

func validPlan() ExecutionPlan {
	return ExecutionPlan{
		TaskSummary: "Improve inventory accuracy in omnichannel retail.",
		SubTasks:    []string{"survey current accuracy baselines", "find proven countermeasures"},
		ResearchQueries: []ResearchQuery{
			{Query: "inventory accuracy omnichannel", Purpose: "baseline data"},
			{Query: "cycle counting best practices", Purpose: "countermeasures"},
		},
		FocusAreas: []string{"inventory accuracy"},
	}
}

func validDraft() Deliverable {
	return Deliverable{
		ExecutiveSummary: "Accuracy improves with cycle counting.",
		ClientEmail:      "Subject: Inventory accuracy\n\nHello,\n...",
		ActionItems: []ActionItem{
			{Action: "Adopt weekly cycle counts", Owner: "Ops lead", DueDate: "Q2", Confidence: "High"},
			{Action: "Pilot RFID in two stores", Owner: "IT", DueDate: "Q3", Confidence: "Medium"},
			{Action: "Review shrink reporting", Owner: "Finance", DueDate: "Q2", Confidence: "Low"},
		},
		Sources: []string{"inventory.txt, Page 2, Chunk 1"},
	}
}

func TestExecutionPlanValidate(t *testing.T) {
	if err := validPlan().Validate(); err != nil {
		t.Fatalf("valid plan rejected: %v", err)
	}

	p := validPlan()
	p.TaskSummary = "  "
	if err := p.Validate(); !errors.Is(err, ErrSchemaViolation) {
		t.Fatalf("empty summary not rejected: %v", err)
	}

	p = validPlan()
	p.ResearchQueries = nil
	if err := p.Validate(); !errors.Is(err, ErrSchemaViolation) {
		t.Fatalf("missing queries not rejected: %v", err)
	}

	p = validPlan()
	p.ResearchQueries[1].Query = ""
	if err := p.Validate(); !errors.Is(err, ErrSchemaViolation) {
		t.Fatalf("empty query not rejected: %v", err)
	}
}

func TestResearchNotesValidate(t *testing.T) {
	notes := ResearchNotes{
		Findings: []ResearchFinding{
			{Finding: "Cycle counting raises accuracy to 95%", Citation: "inventory.txt, Page 2, Chunk 1", Relevance: "core"},
		},
		Summary: "found cycle counting evidence",
	}
	if err := notes.Validate(); err != nil {
		t.Fatalf("valid notes rejected: %v", err)
	}

	notes.Findings[0].Citation = ""
	if err := notes.Validate(); !errors.Is(err, ErrSchemaViolation) {
		t.Fatalf("citation-less finding not rejected: %v", err)
	}
}

func TestDeliverableValidate(t *testing.T) {
	if err := validDraft().Validate(); err != nil {
		t.Fatalf("valid draft rejected: %v", err)
	}

	d := validDraft()
	d.ActionItems = d.ActionItems[:2]
	if err := d.Validate(); !errors.Is(err, ErrSchemaViolation) {
		t.Fatalf("2 action items not rejected: %v", err)
	}

	d = validDraft()
	d.ActionItems[0].Confidence = "Certain"
	if err := d.Validate(); !errors.Is(err, ErrSchemaViolation) {
		t.Fatalf("bad confidence not rejected: %v", err)
	}

	d = validDraft()
	d.ClientEmail = ""
	if err := d.Validate(); !errors.Is(err, ErrSchemaViolation) {
		t.Fatalf("missing email not rejected: %v", err)
	}
}

func TestVerificationReportValidate(t *testing.T) {
	pass := VerificationReport{
		OverallVerdict: VerdictPass,
		VerifiedClaims: []ClaimVerification{
			{Claim: "cycle counts help", Verdict: ClaimSupported, Explanation: "finding 1"},
		},
	}
	if err := pass.Validate(); err != nil {
		t.Fatalf("valid PASS rejected: %v", err)
	}

	failNoCorrections := VerificationReport{OverallVerdict: VerdictFail}
	if err := failNoCorrections.Validate(); !errors.Is(err, ErrSchemaViolation) {
		t.Fatalf("FAIL without corrections not rejected: %v", err)
	}

	fixed := "corrected summary"
	failWithCorrections := VerificationReport{
		OverallVerdict:            VerdictFail,
		CorrectedExecutiveSummary: &fixed,
	}
	if err := failWithCorrections.Validate(); err != nil {
		t.Fatalf("FAIL with corrections rejected: %v", err)
	}

	fixed = "rewritten summary"
	passWithCorrections := VerificationReport{
		OverallVerdict:            VerdictPass,
		CorrectedExecutiveSummary: &fixed,
	}
	if err := passWithCorrections.Validate(); !errors.Is(err, ErrSchemaViolation) {
		t.Fatalf("PASS with corrections not rejected: %v", err)
	}

	badClaim := pass
	badClaim.VerifiedClaims = []ClaimVerification{{Claim: "x", Verdict: "MAYBE"}}
	if err := badClaim.Validate(); !errors.Is(err, ErrSchemaViolation) {
		t.Fatalf("bad claim verdict not rejected: %v", err)
	}

	badVerdict := VerificationReport{OverallVerdict: "INCONCLUSIVE"}
	if err := badVerdict.Validate(); !errors.Is(err, ErrSchemaViolation) {
		t.Fatalf("bad overall verdict not rejected: %v", err)
	}
}

func TestApplyCorrections(t *testing.T) {
	draft := validDraft()

	// PASS carries no corrections, the draft passes through intact.
	pass := VerificationReport{OverallVerdict: VerdictPass}
	if got := pass.Apply(draft); got.ExecutiveSummary != draft.ExecutiveSummary ||
		got.ClientEmail != draft.ClientEmail || len(got.ActionItems) != len(draft.ActionItems) {
		t.Fatalf("PASS changed the draft: %+v", got)
	}

	// PASS ignores stray corrected fields too: the merge never rewrites an
	// approved draft.
	stray := "rewritten summary"
	passWithStray := VerificationReport{
		OverallVerdict:            VerdictPass,
		CorrectedExecutiveSummary: &stray,
	}
	if got := passWithStray.Apply(draft); got.ExecutiveSummary != draft.ExecutiveSummary {
		t.Fatalf("PASS verdict rewrote the draft: %q", got.ExecutiveSummary)
	}

	// FAIL with a corrected summary only: summary replaced, everything else
	// falls back to the draft.
	fixed := "Corrected: Not found in sources for the 40% claim."
	fail := VerificationReport{
		OverallVerdict:            VerdictFail,
		CorrectedExecutiveSummary: &fixed,
	}
	got := fail.Apply(draft)
	if got.ExecutiveSummary != fixed {
		t.Fatalf("corrected summary not applied: %q", got.ExecutiveSummary)
	}
	if got.ClientEmail != draft.ClientEmail {
		t.Fatalf("email must fall back to draft")
	}
	if len(got.ActionItems) != len(draft.ActionItems) {
		t.Fatalf("action items must fall back to draft")
	}
	if len(got.Sources) != len(draft.Sources) {
		t.Fatalf("sources must always come from the draft")
	}

	// Corrected action items replace the whole list.
	partial := VerificationReport{
		OverallVerdict: VerdictPartial,
		CorrectedActionItems: []ActionItem{
			{Action: "Adopt weekly cycle counts", Owner: "Ops lead", DueDate: "Q2", Confidence: "Low"},
		},
	}
	got = partial.Apply(draft)
	if len(got.ActionItems) != 1 || got.ActionItems[0].Confidence != "Low" {
		t.Fatalf("corrected action items not applied: %+v", got.ActionItems)
	}
}
