package agent

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"
)

const plannerInstructions = `You are the Planner Agent for a Retail / CPG operations copilot.

Your job is to take a user's business request and break it down into a
structured execution plan that the other agents will follow.

RULES:
1. Read the user's request carefully and figure out the main question or goal.
2. Break it into 3-6 concrete sub-tasks that can each be researched on their own.
3. For each sub-task, write one or two specific search queries that the
   Research Agent will use to search our knowledge base of retail/CPG documents
   (whitepapers, strategy reports, supply-chain studies, omnichannel analyses).
4. Pick out the key focus areas or themes the research should cover.
5. Keep queries specific and grounded - do not write anything too vague or broad.
6. Use terminology that would actually appear in industry reports
   (e.g., "omnichannel fulfillment", "inventory accuracy", "supply chain visibility").

OUTPUT FORMAT:
Return a JSON object with:
- task_summary: one-sentence summary of the user's request
- sub_tasks: ordered list of sub-tasks
- research_queries: list of {query, purpose} objects
- focus_areas: key themes to cover`

// Planner is the first pipeline stage: it turns a business request into an
// execution plan.
type Planner struct {
	provider Provider
	logger   *log.Logger
}

// NewPlanner creates a new planner instance
func NewPlanner(provider Provider) *Planner {
	return &Planner{
		provider: provider,
		logger:   log.New(log.Writer(), "[PLANNER] ", log.LstdFlags),
	}
}

// Plan creates an execution plan for a business request.
func (p *Planner) Plan(ctx context.Context, request string) (ExecutionPlan, error) {
	startTime := time.Now()
	p.logger.Printf("planning request: %.120s", request)

	prompt := "Create an execution plan for the following business request:\n\n" + request
	response, err := p.provider.Complete(ctx, plannerInstructions, prompt)
	if err != nil {
		return ExecutionPlan{}, fmt.Errorf("failed to generate plan: %w", err)
	}

	var plan ExecutionPlan
	if err := decodeStage(response, &plan); err != nil {
		return ExecutionPlan{}, fmt.Errorf("failed to parse planning response: %w", err)
	}

	p.logger.Printf("done in %s: %d sub-tasks, %d queries, focus: %s",
		time.Since(startTime).Round(time.Millisecond),
		len(plan.SubTasks), len(plan.ResearchQueries), strings.Join(plan.FocusAreas, ", "))
	return plan, nil
}
