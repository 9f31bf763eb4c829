package cmd

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

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humaecho"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/donaldgifford/shopify-admin/internal/api/handlers"
	mw "github.com/donaldgifford/shopify-admin/internal/api/middleware"
	"github.com/donaldgifford/shopify-admin/internal/config"
	"github.com/donaldgifford/shopify-admin/pkg/logger"
	"github.com/donaldgifford/shopify-admin/pkg/shopify"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the gateway",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	log := logger.New(logger.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: os.Stderr,
	})

	client, err := shopify.New(cfg.Shopify.Shop,
		append(cfg.Shopify.ClientOptions(), shopify.WithLogger(log))...,
	)
	if err != nil {
		return fmt.Errorf("creating shopify client: %w", err)
	}

	e := newServer(cfg, client, log)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      e,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting server", "addr", addr, "shop", client.Shop())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("serving: %w", err)
		}
	case <-ctx.Done():
	}

	log.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down server: %w", err)
	}

	log.Info("server stopped")
	return nil
}

// newServer wires every gateway route onto a fresh echo instance.
func newServer(cfg *config.Config, client *shopify.Client, log *slog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(mw.RequestLog(log), mw.Metrics(), mw.Recovery(log))

	health := handlers.NewHealthHandler(client)
	e.GET("/healthz", health.Healthz)
	e.GET("/readyz", health.Readyz)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	install := handlers.NewInstallHandler(client, cfg.Shopify.Scopes, cfg.Shopify.RedirectURL, log)
	e.GET("/auth/install", install.Install)
	e.GET("/auth/callback", install.Callback)

	webhooks := handlers.NewWebhookHandler(client, cfg.Server.MaxBodyBytes, log)
	e.POST("/webhooks/:topic", webhooks.Receive)

	api := humaecho.New(e, huma.DefaultConfig("shop-gateway", Version))
	handlers.RegisterAPIRoutes(api, handlers.NewAPIHandler(client, cfg.Shopify.Scopes, cfg.Shopify.RedirectURL))

	return e
}
