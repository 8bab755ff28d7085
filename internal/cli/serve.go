package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ppiankov/verdict/internal/api"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const shutdownGrace = 15 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the fact-check HTTP API",
	Long: `Serve the HTTP API:

  POST /api/fact-check        {"text": "..."} or {"url": "..."}
  POST /api/fact-check-image  {"image_data_url": "..."} or {"image_url": "..."}
  POST /api/extract           {"url": "..."}
  GET  /api/health
  GET  /metrics

Example:
  verdict serve --addr :9000`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", "", "listen address (default from server.addr, :8080)")
	_ = viper.BindPFlag("server.addr", serveCmd.Flags().Lookup("addr"))
}

func runServe(cmd *cobra.Command, args []string) error {
	a, err := newApp(viper.GetViper())
	if err != nil {
		return err
	}
	server := api.NewServer(a.config, a.pipeline, a.metrics, a.logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	a.logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}
