package main

import (
	"github.com/spf13/cobra"

	"github.com/emaadiliX/retail-operations-copilot/config"
	srv "github.com/emaadiliX/retail-operations-copilot/internal/server"
)

func serveCMD() *cobra.Command {
	var serveAddr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.LoadConfig(cfgPath)
			return srv.Run(cfg, serveAddr)
		},
	}
	cmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from config)")
	return cmd
}
