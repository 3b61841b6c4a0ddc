package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/emaadiliX/retail-operations-copilot/config"
	"github.com/emaadiliX/retail-operations-copilot/internal/agent"
	"github.com/emaadiliX/retail-operations-copilot/internal/agent/telemetry"
	"github.com/emaadiliX/retail-operations-copilot/internal/embedding"
	"github.com/emaadiliX/retail-operations-copilot/internal/index"
	"github.com/emaadiliX/retail-operations-copilot/internal/retrieval"
)

func askCMD() *cobra.Command {
	var showTrace bool
	cmd := &cobra.Command{
		Use:   "ask <request>",
		Short: "Run the full pipeline for a business request",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.LoadConfig(cfgPath)
			request := strings.Join(args, " ")

			tele := telemetry.NewTelemetry(cfg.Telemetry)
			embedder, err := embedding.NewClient(cfg.Embedding, tele)
			if err != nil {
				return err
			}
			store, err := index.NewRedis(cfg.Index, cfg.Embedding.Dimensions)
			if err != nil {
				return err
			}
			defer store.Close()

			retriever := retrieval.New(store, embedder, tele)
			provider, err := agent.NewOpenAIProvider(cfg.LLM)
			if err != nil {
				return err
			}
			pipeline := agent.NewPipeline(provider, retriever, tele, cfg)

			result, tr, err := pipeline.Run(cmd.Context(), request)
			if showTrace {
				defer fmt.Println(tr.FormatForDisplay())
			}
			if err != nil {
				return err
			}

			printDeliverable(result.FinalDeliverable, result.Verification.OverallVerdict)
			return nil
		},
	}
	cmd.Flags().BoolVar(&showTrace, "trace", false, "print the agent trace log")
	return cmd
}

func printDeliverable(d agent.Deliverable, verdict string) {
	rule := strings.Repeat("=", 70)
	fmt.Println(rule)
	fmt.Printf("  DELIVERABLE (verification: %s)\n", verdict)
	fmt.Println(rule)

	fmt.Println("\n## Executive Summary")
	fmt.Println(d.ExecutiveSummary)

	fmt.Println("\n## Client Email")
	fmt.Println(d.ClientEmail)

	fmt.Println("\n## Action Items")
	for i, a := range d.ActionItems {
		fmt.Printf("%d. %s (owner: %s, due: %s, confidence: %s)\n",
			i+1, a.Action, a.Owner, a.DueDate, a.Confidence)
	}

	fmt.Println("\n## Sources")
	if len(d.Sources) == 0 {
		fmt.Println("No sources")
	}
	for i, s := range d.Sources {
		fmt.Printf("[%d] %s\n", i+1, s)
	}
}
