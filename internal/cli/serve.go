package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/Yogesh-0811/RAG-Notebook/internal/server"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Long: `Serves POST /api/indexing, /api/upload and /api/chat together with
/healthz and /metrics until interrupted.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides server.addr)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := assemble(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	if a.log.GetLevel() < logrus.DebugLevel {
		gin.SetMode(gin.ReleaseMode)
	}
	cfg := a.cfg.Server
	if serveAddr != "" {
		cfg.Addr = serveAddr
	}
	return server.New(cfg, a.svc, a.metrics, a.log).Run(ctx)
}
