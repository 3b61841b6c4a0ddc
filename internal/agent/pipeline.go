package agent

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	oteltrace "go.opentelemetry.io/otel/trace"

	"github.com/emaadiliX/retail-operations-copilot/config"
	"github.com/emaadiliX/retail-operations-copilot/internal/agent/telemetry"
	"github.com/emaadiliX/retail-operations-copilot/internal/agent/trace"
)

var pipelineTracer oteltrace.Tracer = otel.Tracer("copilot/internal/agent/pipeline")

// Pipeline runs the five stages in strict order:
// Plan -> Research -> Draft -> Verify -> Deliver.
// Any stage failure aborts the run; there are no retries and no partial
// deliverables.
type Pipeline struct {
	provider  Provider
	retriever Searcher
	telemetry *telemetry.Telemetry
	cfg       *config.Config

	planner    *Planner
	researcher *Researcher
	writer     *Writer
	verifier   *Verifier
	logger     *log.Logger
}

// NewPipeline wires the stages over a shared provider and retriever.
func NewPipeline(provider Provider, retriever Searcher, tele *telemetry.Telemetry, cfg *config.Config) *Pipeline {
	return &Pipeline{
		provider:   provider,
		retriever:  retriever,
		telemetry:  tele,
		cfg:        cfg,
		planner:    NewPlanner(provider),
		researcher: NewResearcher(provider, cfg.Pipeline.MaxToolRounds),
		writer:     NewWriter(provider),
		verifier:   NewVerifier(provider),
		logger:     log.New(log.Writer(), "[PIPELINE] ", log.LstdFlags),
	}
}

// Run executes the whole pipeline for one business request. The returned
// trace log records every stage regardless of outcome.
func (pl *Pipeline) Run(ctx context.Context, request string) (PipelineResult, *trace.Log, error) {
	runID := uuid.NewString()
	runStart := time.Now()
	tr := trace.NewLog()
	tr.StartPipeline()
	defer tr.EndPipeline()

	ctx, span := pipelineTracer.Start(ctx, "pipeline.run",
		oteltrace.WithAttributes(attribute.String("run.id", runID)))
	defer span.End()

	pl.logger.Printf("run %s started: %.120s", runID, request)

	var result PipelineResult
	err := func() error {
		// Plan
		plan, err := pl.runPlanStage(ctx, tr, request)
		if err != nil {
			return fmt.Errorf("planning failed: %w", err)
		}
		result.Plan = plan

		// Research
		research, err := pl.runResearchStage(ctx, tr, plan, request)
		if err != nil {
			return fmt.Errorf("research failed: %w", err)
		}
		result.Research = research

		// Draft
		draft, err := pl.runDraftStage(ctx, tr, research, request)
		if err != nil {
			return fmt.Errorf("drafting failed: %w", err)
		}
		result.Draft = draft

		// Verify
		report, err := pl.runVerifyStage(ctx, tr, draft, research)
		if err != nil {
			return fmt.Errorf("verification failed: %w", err)
		}
		result.Verification = report

		// Deliver: pure merge, no model call.
		result.FinalDeliverable = pl.runDeliverStage(tr, draft, report)
		return nil
	}()

	pl.telemetry.RecordRun(runID, time.Since(runStart), err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		pl.logger.Printf("run %s failed: %v", runID, err)
		return PipelineResult{}, tr, err
	}
	span.SetStatus(codes.Ok, "completed")
	pl.logger.Printf("run %s completed in %s (verdict=%s)",
		runID, time.Since(runStart).Round(time.Millisecond), result.Verification.OverallVerdict)
	return result, tr, nil
}

func (pl *Pipeline) runPlanStage(ctx context.Context, tr *trace.Log, request string) (ExecutionPlan, error) {
	ctx, span := pipelineTracer.Start(ctx, "pipeline.plan")
	defer span.End()
	entry := tr.Begin("Planner Agent", "plan", request)
	start := time.Now()

	plan, err := pl.planner.Plan(ctx, request)
	pl.telemetry.RecordStageEvent("plan", time.Since(start), err)
	if err != nil {
		tr.Fail(entry, err)
		span.SetStatus(codes.Error, err.Error())
		return ExecutionPlan{}, err
	}
	tr.Complete(entry, plan.TaskSummary, map[string]any{
		"sub_tasks": len(plan.SubTasks),
		"queries":   len(plan.ResearchQueries),
	})
	span.SetStatus(codes.Ok, "completed")
	return plan, nil
}

func (pl *Pipeline) runResearchStage(ctx context.Context, tr *trace.Log, plan ExecutionPlan, request string) (ResearchNotes, error) {
	ctx, span := pipelineTracer.Start(ctx, "pipeline.research")
	defer span.End()
	entry := tr.Begin("Research Agent", "research", plan.TaskSummary)
	start := time.Now()

	// Fresh toolset per run: the citation record must not leak across runs.
	tools := NewToolset(pl.retriever, pl.cfg.Retrieval, pl.telemetry)
	notes, err := pl.researcher.Research(ctx, plan, request, tools)
	pl.telemetry.RecordStageEvent("research", time.Since(start), err)
	if err != nil {
		tr.Fail(entry, err)
		span.SetStatus(codes.Error, err.Error())
		return ResearchNotes{}, err
	}
	tr.Complete(entry, notes.Summary, map[string]any{
		"findings": len(notes.Findings),
		"gaps":     len(notes.Gaps),
	})
	span.SetStatus(codes.Ok, "completed")
	return notes, nil
}

func (pl *Pipeline) runDraftStage(ctx context.Context, tr *trace.Log, notes ResearchNotes, request string) (Deliverable, error) {
	ctx, span := pipelineTracer.Start(ctx, "pipeline.draft")
	defer span.End()
	entry := tr.Begin("Writer Agent", "draft", notes.Summary)
	start := time.Now()

	draft, err := pl.writer.Draft(ctx, notes, request)
	pl.telemetry.RecordStageEvent("draft", time.Since(start), err)
	if err != nil {
		tr.Fail(entry, err)
		span.SetStatus(codes.Error, err.Error())
		return Deliverable{}, err
	}
	tr.Complete(entry, draft.ExecutiveSummary, map[string]any{
		"action_items": len(draft.ActionItems),
	})
	span.SetStatus(codes.Ok, "completed")
	return draft, nil
}

func (pl *Pipeline) runVerifyStage(ctx context.Context, tr *trace.Log, draft Deliverable, notes ResearchNotes) (VerificationReport, error) {
	ctx, span := pipelineTracer.Start(ctx, "pipeline.verify")
	defer span.End()
	entry := tr.Begin("Verifier Agent", "verify", draft.ExecutiveSummary)
	start := time.Now()

	report, err := pl.verifier.Verify(ctx, draft, notes)
	pl.telemetry.RecordStageEvent("verify", time.Since(start), err)
	if err != nil {
		tr.Fail(entry, err)
		span.SetStatus(codes.Error, err.Error())
		return VerificationReport{}, err
	}
	tr.Complete(entry, report.OverallVerdict, map[string]any{
		"claims":      len(report.VerifiedClaims),
		"unsupported": len(report.UnsupportedClaims),
	})
	span.SetStatus(codes.Ok, "completed")
	return report, nil
}

func (pl *Pipeline) runDeliverStage(tr *trace.Log, draft Deliverable, report VerificationReport) Deliverable {
	entry := tr.Begin("Deliver", "deliver", report.OverallVerdict)
	final := report.Apply(draft)
	tr.Complete(entry, final.ExecutiveSummary, map[string]any{
		"corrections_applied": report.OverallVerdict != VerdictPass,
	})
	return final
}
