package agent

import (
	"fmt"
	"strings"
)

// Typed records exchanged between pipeline stages. JSON field names are the
// wire contract with the LLM and with API clients.

// ResearchQuery is one search the planner wants the researcher to run.
type ResearchQuery struct {
	Query   string `json:"query"`
	Purpose string `json:"purpose"`
}

// ExecutionPlan is the planner's output.
type ExecutionPlan struct {
	TaskSummary     string          `json:"task_summary"`
	SubTasks        []string        `json:"sub_tasks"`
	ResearchQueries []ResearchQuery `json:"research_queries"`
	FocusAreas      []string        `json:"focus_areas"`
}

func (p ExecutionPlan) Validate() error {
	if strings.TrimSpace(p.TaskSummary) == "" {
		return fmt.Errorf("plan has no task summary: %w", ErrSchemaViolation)
	}
	if len(p.SubTasks) == 0 {
		return fmt.Errorf("plan has no sub-tasks: %w", ErrSchemaViolation)
	}
	if len(p.ResearchQueries) == 0 {
		return fmt.Errorf("plan has no research queries: %w", ErrSchemaViolation)
	}
	for i, q := range p.ResearchQueries {
		if strings.TrimSpace(q.Query) == "" {
			return fmt.Errorf("research query %d is empty: %w", i, ErrSchemaViolation)
		}
	}
	return nil
}

// ResearchFinding is one grounded fact with its citation.
type ResearchFinding struct {
	Finding   string `json:"finding"`
	Citation  string `json:"citation"`
	Relevance string `json:"relevance"`
}

// ResearchNotes is the researcher's output.
type ResearchNotes struct {
	Findings    []ResearchFinding `json:"findings"`
	Gaps        []string          `json:"gaps"`
	SourcesUsed []string          `json:"sources_used"`
	Summary     string            `json:"summary"`
}

func (n ResearchNotes) Validate() error {
	for i, f := range n.Findings {
		if strings.TrimSpace(f.Finding) == "" {
			return fmt.Errorf("finding %d is empty: %w", i, ErrSchemaViolation)
		}
		if strings.TrimSpace(f.Citation) == "" {
			return fmt.Errorf("finding %d has no citation: %w", i, ErrSchemaViolation)
		}
	}
	return nil
}

// ActionItem is one recommendation in the deliverable.
type ActionItem struct {
	Action     string `json:"action"`
	Owner      string `json:"owner"`
	DueDate    string `json:"due_date"`
	Confidence string `json:"confidence"`
}

func (a ActionItem) Validate() error {
	if strings.TrimSpace(a.Action) == "" {
		return fmt.Errorf("action item has no action: %w", ErrSchemaViolation)
	}
	switch a.Confidence {
	case "High", "Medium", "Low":
		return nil
	default:
		return fmt.Errorf("action item confidence %q is not High/Medium/Low: %w", a.Confidence, ErrSchemaViolation)
	}
}

// Deliverable is the four-part output of the writer, and after correction
// merge, of the whole pipeline.
type Deliverable struct {
	ExecutiveSummary string       `json:"executive_summary"`
	ClientEmail      string       `json:"client_email"`
	ActionItems      []ActionItem `json:"action_items"`
	Sources          []string     `json:"sources"`
}

func (d Deliverable) Validate() error {
	if strings.TrimSpace(d.ExecutiveSummary) == "" {
		return fmt.Errorf("deliverable has no executive summary: %w", ErrSchemaViolation)
	}
	if strings.TrimSpace(d.ClientEmail) == "" {
		return fmt.Errorf("deliverable has no client email: %w", ErrSchemaViolation)
	}
	if len(d.ActionItems) < 3 || len(d.ActionItems) > 7 {
		return fmt.Errorf("deliverable has %d action items, want 3-7: %w", len(d.ActionItems), ErrSchemaViolation)
	}
	for _, a := range d.ActionItems {
		if err := a.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Claim verdicts.
const (
	ClaimSupported          = "SUPPORTED"
	ClaimPartiallySupported = "PARTIALLY SUPPORTED"
	ClaimNotSupported       = "NOT SUPPORTED"
)

// Overall verdicts.
const (
	VerdictPass    = "PASS"
	VerdictFail    = "FAIL"
	VerdictPartial = "PARTIAL"
)

// ClaimVerification is the verifier's judgement on a single claim.
type ClaimVerification struct {
	Claim             string   `json:"claim"`
	Verdict           string   `json:"verdict"`
	SupportingSources []string `json:"supporting_sources"`
	Explanation       string   `json:"explanation"`
}

func (c ClaimVerification) Validate() error {
	switch c.Verdict {
	case ClaimSupported, ClaimPartiallySupported, ClaimNotSupported:
		return nil
	default:
		return fmt.Errorf("claim verdict %q is invalid: %w", c.Verdict, ErrSchemaViolation)
	}
}

// VerificationReport is the verifier's output. The corrected fields are
// mandatory whenever the overall verdict is not PASS.
type VerificationReport struct {
	OverallVerdict            string              `json:"overall_verdict"`
	VerifiedClaims            []ClaimVerification `json:"verified_claims"`
	UnsupportedClaims         []string            `json:"unsupported_claims"`
	Suggestions               []string            `json:"suggestions"`
	CorrectedExecutiveSummary *string             `json:"corrected_executive_summary,omitempty"`
	CorrectedClientEmail      *string             `json:"corrected_client_email,omitempty"`
	CorrectedActionItems      []ActionItem        `json:"corrected_action_items,omitempty"`
}

func (v VerificationReport) Validate() error {
	switch v.OverallVerdict {
	case VerdictPass, VerdictFail, VerdictPartial:
	default:
		return fmt.Errorf("overall verdict %q is invalid: %w", v.OverallVerdict, ErrSchemaViolation)
	}
	for _, c := range v.VerifiedClaims {
		if err := c.Validate(); err != nil {
			return err
		}
	}
	if v.OverallVerdict != VerdictPass && !v.hasCorrections() {
		return fmt.Errorf("verdict %s without corrections: %w", v.OverallVerdict, ErrSchemaViolation)
	}
	if v.OverallVerdict == VerdictPass && v.hasCorrections() {
		return fmt.Errorf("verdict PASS with corrections: %w", ErrSchemaViolation)
	}
	for _, a := range v.CorrectedActionItems {
		if err := a.Validate(); err != nil {
			return err
		}
	}
	return nil
}

func (v VerificationReport) hasCorrections() bool {
	return v.CorrectedExecutiveSummary != nil ||
		v.CorrectedClientEmail != nil ||
		v.CorrectedActionItems != nil
}

// Apply merges the report's corrections into the draft: each field takes
// the corrected version when present and falls back to the draft otherwise.
// A PASS verdict always returns the draft intact.
func (v VerificationReport) Apply(draft Deliverable) Deliverable {
	if v.OverallVerdict == VerdictPass {
		return draft
	}
	final := draft
	if v.CorrectedExecutiveSummary != nil {
		final.ExecutiveSummary = *v.CorrectedExecutiveSummary
	}
	if v.CorrectedClientEmail != nil {
		final.ClientEmail = *v.CorrectedClientEmail
	}
	if v.CorrectedActionItems != nil {
		final.ActionItems = v.CorrectedActionItems
	}
	return final
}

// PipelineResult bundles every stage artifact of one run.
type PipelineResult struct {
	Plan             ExecutionPlan      `json:"plan"`
	Research         ResearchNotes      `json:"research"`
	Draft            Deliverable        `json:"draft"`
	Verification     VerificationReport `json:"verification"`
	FinalDeliverable Deliverable        `json:"final_deliverable"`
}
