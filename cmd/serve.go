package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"yqhp/automation-engine/api/rest"
	"yqhp/automation-engine/pkg/logger"
)

var serveAddress string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long: `Serve starts the REST API for validating, planning and executing
workflows, including the websocket run event stream.`,
	Example: `  automation-engine serve
  automation-engine serve --address :9000`,
	RunE: serveAPI,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddress, "address", "", "listen address (overrides config)")
	rootCmd.AddCommand(serveCmd)
}

func serveAPI(cmd *cobra.Command, args []string) error {
	eng, err := newEngine()
	if err != nil {
		return err
	}

	sc := &rest.Config{
		Address:      cfg.Server.Address,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		EnableCORS:   cfg.Server.EnableCORS,
		APIKey:       cfg.Server.APIKey,
	}
	if serveAddress != "" {
		sc.Address = serveAddress
	}
	server := rest.NewServer(eng, sc)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting API server", zap.String("address", sc.Address))
		errCh <- server.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-sigCh:
		logger.Info("shutting down", zap.String("signal", sig.String()))
		return server.Shutdown()
	}
}
