package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/sagarc03/signet"
	"github.com/sagarc03/signet/config"
	signethttp "github.com/sagarc03/signet/http"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long:  `Start the signet HTTP server.`,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().Int("port", 8080, "HTTP server port (env: SIGNET_SERVER_PORT, PORT)")
	serveCmd.Flags().String("public-url", "", "externally reachable server URL, used by the local backend")
	serveCmd.Flags().StringSlice("allowed-origins", nil, "allowed CORS origins, * for any (env: SIGNET_CORS_ALLOWED_ORIGINS, ALLOWED_ORIGINS)")

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	cfg, err := config.FromContext(ctx)
	if err != nil {
		return err
	}

	opened, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer opened.close()

	service, err := signet.NewService(opened.store, signet.ServiceConfig{
		Mimes:              signet.DefaultMimeAllowlist(cfg.Uploads.AllowSVG),
		Keys:               signet.NewKeyDeriver(),
		PublicBaseURL:      cfg.Storage.PublicBaseURL,
		StrictStreamErrors: cfg.Server.StrictStreamErrors,
	})
	if err != nil {
		return fmt.Errorf("create service: %w", err)
	}

	handlerConfig := signethttp.HandlerConfig{
		CORS: signethttp.CORSConfig{
			AllowedOrigins: cfg.CORS.AllowedOrigins,
			AllowedMethods: corsMethods(opened.extraMethods),
			AllowedHeaders: signethttp.DefaultCORSHeaders,
			MaxAge:         cfg.CORS.MaxAge,
		},
		Mounts:       opened.mounts,
		MaxBodyBytes: cfg.Server.MaxBodyBytes,
	}

	handler := signethttp.NewHandler(&handlerConfig, service)

	addr := fmt.Sprintf(":%d", cfg.Server.Port)

	server := &http.Server{
		Addr:         addr,
		Handler:      handler.Router(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

		select {
		case <-sigCh:
		case <-ctx.Done():
			return
		}

		slog.Info("shutting down server...")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown error", "err", err)
		}
		cancel()
	}()

	slog.Info("starting server",
		"addr", addr,
		"backend", cfg.Storage.Backend,
		"bucket", cfg.Storage.Bucket,
		"allowed_origins", cfg.CORS.AllowedOrigins,
		"content_types", service.Mimes().Types(),
	)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}
