package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/TFMV/keydiff/api"
	"github.com/TFMV/keydiff/config"
	"github.com/TFMV/keydiff/logger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newServeCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve comparisons over HTTP",
		Long: `The serve command starts the keydiff API:

  GET  /health    liveness probe
  GET  /version   build information
  POST /diff      multipart upload of "orig" and "diff" CSV files; form fields
                  orig_index, diff_index, with_prefix, with_headers,
                  key_delimiter, delimiter and show_unchanged`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			log := logger.GetLogger()
			server := api.NewServer(*config.LoadServer(a.v), log)

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
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

			log.Info("Received shutdown signal, stopping server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		},
	}

	cmd.Flags().String("port", "3000", "Port to listen on")
	cmd.Flags().Bool("prefork", false, "Use multiple processes (SO_REUSEPORT)")
	cmd.Flags().Int("body-limit-mb", 64, "Maximum request body size in MiB")
	bindFlags(a.v, cmd.Flags(), map[string]string{
		"server.port":          "port",
		"server.prefork":       "prefork",
		"server.body_limit_mb": "body-limit-mb",
	})

	return cmd
}
