package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/Yogesh-0811/RAG-Notebook/internal/tui"
)

var chatCmd = &cobra.Command{
	Use:   "chat [question]",
	Short: "Ask questions about indexed documents",
	Long: `With a question, prints a single answer and exits. Without one, opens
an interactive chat console.

Controls:
  Enter        - Send
  PgUp/PgDown  - Scroll transcript
  Esc, Ctrl+C  - Quit`,
	RunE: runChat,
}

func init() {
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, args []string) error {
	a, err := assemble(cmd.Context())
	if err != nil {
		return err
	}
	defer a.close()

	if len(args) > 0 {
		reply, err := a.svc.Chat(cmd.Context(), strings.Join(args, " "))
		if err != nil {
			return fmt.Errorf("chat failed: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), reply)
		return nil
	}

	m := tui.New(cmd.Context(), a.svc, "Ready. Ask a question about your documents.")
	_, err = tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(cmd.Context())).Run()
	return err
}
