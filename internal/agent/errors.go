package agent

import "errors"

var (
	// ErrSchemaViolation signals a stage output that does not satisfy its
	// record contract. Stage failures are fatal; the pipeline never retries.
	ErrSchemaViolation = errors.New("stage output violates schema")
	// ErrToolBudgetExhausted signals that the research stage hit its
	// tool-round budget without producing a final answer.
	ErrToolBudgetExhausted = errors.New("tool call budget exhausted")
)
