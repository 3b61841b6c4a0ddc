package main

import (
	"log"

	"github.com/spf13/cobra"

	"github.com/emaadiliX/retail-operations-copilot/config"
	"github.com/emaadiliX/retail-operations-copilot/internal/agent/telemetry"
	"github.com/emaadiliX/retail-operations-copilot/internal/embedding"
	"github.com/emaadiliX/retail-operations-copilot/internal/index"
	"github.com/emaadiliX/retail-operations-copilot/internal/ingest"
)

func indexCMD() *cobra.Command {
	var reset bool
	var corpusDir string
	cmd := &cobra.Command{
		Use:   "index",
		Short: "Chunk, embed and index the document corpus",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.LoadConfig(cfgPath)
			if corpusDir == "" {
				corpusDir = cfg.Ingest.CorpusDir
			}

			logger := log.New(log.Writer(), "[INGEST] ", log.LstdFlags)
			chunks, err := ingest.IngestDir(corpusDir, ingest.ChunkParams{
				Size:      cfg.Ingest.ChunkSize,
				Overlap:   cfg.Ingest.ChunkOverlap,
				MinLength: cfg.Ingest.MinChunkSize,
			}, logger)
			if err != nil {
				return err
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

			return index.NewIndexer(store, embedder).Build(cmd.Context(), chunks, reset)
		},
	}
	cmd.Flags().BoolVar(&reset, "reset", false, "drop and rebuild the collection")
	cmd.Flags().StringVar(&corpusDir, "corpus", "", "corpus directory (default from config)")
	return cmd
}
