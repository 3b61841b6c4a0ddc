// Package trace records what each pipeline stage did: inputs, outputs,
// timing and failures. The log is append-only observability data; the
// pipeline never reads it back to make decisions.
package trace

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// Status of one trace entry.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusError     Status = "error"
)

// Preview truncation limits.
const (
	inputPreviewLimit  = 200
	outputPreviewLimit = 300
)

// Entry is one stage execution record.
type Entry struct {
	AgentName     string         `json:"agent"`
	Stage         string         `json:"stage"`
	Status        Status         `json:"status"`
	InputPreview  string         `json:"input_preview"`
	OutputPreview string         `json:"output_preview"`
	StartTime     time.Time      `json:"start_time"`
	EndTime       time.Time      `json:"end_time"`
	Duration      time.Duration  `json:"-"`
	DurationSecs  float64        `json:"duration_seconds"`
	ErrorMessage  string         `json:"error,omitempty"`
	Metadata      map[string]any `json:"metadata,omitempty"`
}

// Log is an append-only record of one pipeline run.
type Log struct {
	mu            sync.Mutex
	entries       []*Entry
	pipelineStart time.Time
	pipelineEnd   time.Time
}

// NewLog creates an empty trace log.
func NewLog() *Log { return &Log{} }

// StartPipeline marks the beginning of the run.
func (l *Log) StartPipeline() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.pipelineStart = time.Now()
}

// EndPipeline marks the end of the run.
func (l *Log) EndPipeline() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.pipelineEnd = time.Now()
}

// TotalDuration reports the wall time between StartPipeline and EndPipeline.
func (l *Log) TotalDuration() time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.pipelineStart.IsZero() || l.pipelineEnd.IsZero() {
		return 0
	}
	return l.pipelineEnd.Sub(l.pipelineStart)
}

// Begin appends a running entry for a stage and returns it.
func (l *Log) Begin(agentName, stage, inputPreview string) *Entry {
	e := &Entry{
		AgentName:    agentName,
		Stage:        stage,
		Status:       StatusRunning,
		InputPreview: Preview(inputPreview, inputPreviewLimit),
		StartTime:    time.Now(),
	}
	l.mu.Lock()
	l.entries = append(l.entries, e)
	l.mu.Unlock()
	return e
}

// Complete marks an entry as finished.
func (l *Log) Complete(e *Entry, outputPreview string, metadata map[string]any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e.EndTime = time.Now()
	e.Duration = e.EndTime.Sub(e.StartTime)
	e.DurationSecs = e.Duration.Seconds()
	e.Status = StatusCompleted
	e.OutputPreview = Preview(outputPreview, outputPreviewLimit)
	if len(metadata) > 0 {
		if e.Metadata == nil {
			e.Metadata = make(map[string]any, len(metadata))
		}
		for k, v := range metadata {
			e.Metadata[k] = v
		}
	}
}

// Fail marks an entry as errored.
func (l *Log) Fail(e *Entry, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e.EndTime = time.Now()
	e.Duration = e.EndTime.Sub(e.StartTime)
	e.DurationSecs = e.Duration.Seconds()
	e.Status = StatusError
	if err != nil {
		e.ErrorMessage = err.Error()
	}
}

// Snapshot returns a copy of the entries recorded so far.
func (l *Log) Snapshot() []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Entry, len(l.entries))
	for i, e := range l.entries {
		out[i] = *e
	}
	return out
}

// FormatForDisplay renders the log for terminal output.
func (l *Log) FormatForDisplay() string {
	entries := l.Snapshot()
	rule := strings.Repeat("=", 70)
	lines := []string{rule, "  AGENT TRACE LOG", rule}

	for i, e := range entries {
		var icon string
		switch e.Status {
		case StatusCompleted:
			icon = "OK"
		case StatusError:
			icon = "ERR"
		case StatusRunning:
			icon = "..."
		default:
			icon = "--"
		}

		lines = append(lines, fmt.Sprintf("\n[%s] Step %d: %s (%s)", icon, i+1, e.AgentName, e.Stage))
		lines = append(lines, fmt.Sprintf("     Duration : %.2fs", e.DurationSecs))
		if e.InputPreview != "" {
			lines = append(lines, fmt.Sprintf("     Input    : %s", Preview(e.InputPreview, 120)))
		}
		if e.OutputPreview != "" {
			lines = append(lines, fmt.Sprintf("     Output   : %s", Preview(e.OutputPreview, 200)))
		}
		if e.ErrorMessage != "" {
			lines = append(lines, fmt.Sprintf("     Error    : %s", e.ErrorMessage))
		}
		for k, v := range e.Metadata {
			lines = append(lines, fmt.Sprintf("     %s: %v", k, v))
		}
	}

	lines = append(lines, fmt.Sprintf("\nTotal pipeline time: %.2fs", l.TotalDuration().Seconds()))
	lines = append(lines, rule)
	return strings.Join(lines, "\n")
}

// Preview truncates s to at most limit bytes, marking the cut.
func Preview(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit] + "..."
}
