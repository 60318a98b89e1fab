// Package cli implements the rag command line.
package cli

import (
	"github.com/spf13/cobra"
)

var (
	configPath string
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:   "rag",
	Short: "Index documents and chat with them",
	Long: `rag indexes PDF files, CSV files and web pages into a vector store
and answers questions strictly from the indexed content.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to YAML config file (default ./config.yaml or ~/.config/rag-notebook/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override the configured log level")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
