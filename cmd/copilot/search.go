package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/emaadiliX/retail-operations-copilot/config"
	"github.com/emaadiliX/retail-operations-copilot/internal/agent/telemetry"
	"github.com/emaadiliX/retail-operations-copilot/internal/embedding"
	"github.com/emaadiliX/retail-operations-copilot/internal/index"
	"github.com/emaadiliX/retail-operations-copilot/internal/retrieval"
)

func searchCMD() *cobra.Command {
	var topK int
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Query the document index directly",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.LoadConfig(cfgPath)
			query := strings.Join(args, " ")
			if topK == 0 {
				topK = cfg.Retrieval.TopK
			}

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
			result := retriever.RetrieveWithContext(cmd.Context(), query, topK, cfg.Retrieval.MinScore)
			fmt.Println(result.Message)
			if result.Found {
				fmt.Println()
				fmt.Println(retrieval.ResultsForDisplay(result.Chunks))
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&topK, "top-k", 0, "number of chunks to retrieve (default from config)")
	return cmd
}
