package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var indexType string

var indexCmd = &cobra.Command{
	Use:   "index [location]",
	Short: "Index a PDF file, CSV file or URL",
	Long: `Loads the location, sanitizes and embeds its content and appends it to
the vector store. Prints the indexing result as JSON.`,
	Example: `  rag index --type pdf ./handbook.pdf
  rag index --type url https://docs.example.com`,
	Args: cobra.ExactArgs(1),
	RunE: runIndex,
}

func init() {
	indexCmd.Flags().StringVarP(&indexType, "type", "t", "", "source type: pdf, csv or url")
	_ = indexCmd.MarkFlagRequired("type")
	rootCmd.AddCommand(indexCmd)
}

func runIndex(cmd *cobra.Command, args []string) error {
	a, err := assemble(cmd.Context())
	if err != nil {
		return err
	}
	defer a.close()

	res, err := a.svc.Index(cmd.Context(), args[0], indexType)
	if err != nil {
		return fmt.Errorf("indexing failed: %w", err)
	}
	data, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return nil
}
