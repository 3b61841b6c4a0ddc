package main

import (
	"os"

	"github.com/spf13/cobra"
)

var cfgPath string

func main() {
	var root = &cobra.Command{
		Use:   "copilot",
		Short: "Retail operations copilot over a grounded document index",
	}
	root.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "config file (default is .)")

	root.AddCommand(indexCMD(), searchCMD(), askCMD(), serveCMD())
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
