package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"factures/internal/api"
	"factures/internal/logger"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the reconciliation and export API over HTTP",
	Long: `Start the HTTP API used by the invoice review screen.

Endpoints:
  POST /api/reconcile              check an extraction result
  GET  /api/invoices               list stored invoices
  POST /api/invoices               import an extraction result
  GET  /api/invoices/:id           get one invoice
  PUT  /api/invoices/:id/confirm   confirm corrected amounts
  GET  /api/export                 download csv, fec or xlsx
  GET  /api/export/records         preview the export records`,
	Example: `  factures serve
  factures serve --addr 127.0.0.1:9000`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", "", "Listen address (default: HTTP_ADDR or :8080)")
}

func runServe(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("serve")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc, closeFn, err := openService(ctx, cmd)
	if err != nil {
		return err
	}
	defer closeFn()

	serverConfig := cfg.ServerConfig()
	if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
		serverConfig.Addr = addr
	}

	log.Info().Str("database", cfg.DatabasePath).Msg("Invoice database opened")

	return api.NewServer(serverConfig, svc).Start(ctx)
}
