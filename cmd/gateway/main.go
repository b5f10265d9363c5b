package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	cblog "github.com/charmbracelet/log"
	"github.com/darksworm/mongonaut/pkg/config"
	appcontext "github.com/darksworm/mongonaut/pkg/context"
	"github.com/darksworm/mongonaut/pkg/gateway"
	"github.com/spf13/cobra"
)

var appVersion = "dev"

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "mongonaut-gateway",
	Short: "REST gateway between the mongonaut console and MongoDB",
	Long: `mongonaut-gateway keeps authenticated MongoDB connections and exposes
database, collection and GridFS bucket management over HTTP.

Examples:
  mongonaut-gateway                          # listen on :8080
  mongonaut-gateway --config gateway.yaml    # read settings from YAML
  mongonaut-gateway --listen :9000 --read-only

Environment:
  MONGONAUT_GATEWAY_TOKEN   bearer token every request must carry`,
	Version:      appVersion,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve(cmd)
	},
}

var (
	flagConfig   string
	flagListen   string
	flagReadOnly bool
	flagLogLevel string
)

func init() {
	rootCmd.Flags().StringVarP(&flagConfig, "config", "c", "", "Path to the gateway YAML config")
	rootCmd.Flags().StringVarP(&flagListen, "listen", "l", "", "Listen address (overrides config)")
	rootCmd.Flags().BoolVar(&flagReadOnly, "read-only", false, "Reject every create and drop")
	rootCmd.Flags().StringVar(&flagLogLevel, "log-level", "", "debug, info, warn or error (overrides config)")
}

func serve(cmd *cobra.Command) error {
	cfg, err := config.ReadGatewayConfigFromPath(flagConfig)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("listen") {
		cfg.Listen = flagListen
	}
	if cmd.Flags().Changed("read-only") {
		cfg.ReadOnly = flagReadOnly
	}
	if flagLogLevel != "" {
		cfg.LogLevel = flagLogLevel
	}
	if token := os.Getenv("MONGONAUT_GATEWAY_TOKEN"); token != "" {
		cfg.AuthToken = token
	}
	setupLogging(cfg.LogLevel)
	appcontext.SetTimeout(appcontext.OpMongo, cfg.Mongo.OperationTimeout)

	registry := gateway.NewRegistry(gateway.NewMongoDialer(cfg.Mongo))
	api := gateway.NewServer(cfg, registry)

	srv := &http.Server{
		Addr:              cfg.Listen,
		Handler:           api.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		cblog.Info("Gateway listening", "addr", cfg.Listen, "basePath", api.BasePath(),
			"readOnly", cfg.ReadOnly, "tls", cfg.TLSEnabled(), "token", cfg.AuthToken != "")
		if cfg.TLSEnabled() {
			errCh <- srv.ListenAndServeTLS(cfg.TLSCert, cfg.TLSKey)
			return
		}
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
		cblog.Info("Shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		cblog.Warn("Graceful shutdown failed", "err", err)
	}
	registry.CloseAll(shutdownCtx)
	return nil
}

func setupLogging(level string) {
	cblog.SetOutput(os.Stderr)
	cblog.SetReportTimestamp(true)
	lvl, err := cblog.ParseLevel(level)
	if err != nil {
		lvl = cblog.InfoLevel
	}
	cblog.SetLevel(lvl)
	cblog.SetPrefix("gateway")
}
