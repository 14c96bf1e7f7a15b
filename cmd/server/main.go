package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"tides-mcp/internal/config"
	"tides-mcp/internal/logging"
	"tides-mcp/internal/mcp"
	"tides-mcp/internal/services"
	"tides-mcp/internal/storage"
	"tides-mcp/internal/tls"
)

var (
	cfgFile     string
	transport   string
	addr        string
	storagePath string
)

var rootCmd = &cobra.Command{
	Use:   "tides-server",
	Short: "MCP server for rhythmic workflow management",
	Long: "Tides is an MCP server that manages tidal workflows: recurring or " +
		"one-off units of work with flow sessions logged against them. It serves " +
		"the create_tide, list_tides, flow_tide and end_tide tools over stdio or HTTP.",
	SilenceUsage: true,
	RunE:         run,
}

func init() {
	rootCmd.Flags().StringVar(&cfgFile, "config", "", "path to config file")
	rootCmd.Flags().StringVar(&transport, "transport", "", "transport to serve on: stdio or http")
	rootCmd.Flags().StringVar(&addr, "addr", "", "listen address for the http transport")
	rootCmd.Flags().StringVar(&storagePath, "storage", "", "storage directory for tide records")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	logger := logging.NewLogger()

	cfg, err := config.LoadConfig(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if transport != "" {
		cfg.Server.Transport = transport
	}
	if addr != "" {
		cfg.Server.Addr = addr
	}
	if storagePath != "" {
		cfg.Storage.Path = config.ExpandHome(storagePath)
	}

	// Storage must be usable before any tool is served. This is the
	// only fatal-at-startup condition.
	store, err := storage.NewFileTideStore(cfg.Storage.Path)
	if err != nil {
		return err
	}
	logger.Info("storage ready at %s", store.Dir())

	tideService := services.NewTideService(store, logger)
	srv := mcp.NewServer(tideService)

	switch cfg.Server.Transport {
	case "stdio":
		logger.Info("🌊 Starting Tides MCP Server (stdio)...")
		return mcpserver.ServeStdio(srv.GetMCPServer())
	case "http":
		return serveHTTP(cfg, logger, srv)
	default:
		return fmt.Errorf("unknown transport %q (expected stdio or http)", cfg.Server.Transport)
	}
}

func serveHTTP(cfg *config.Config, logger *logging.Logger, srv *mcp.Server) error {
	e := echo.New()
	e.HideBanner = true

	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	mcpHandlers := http.NewServeMux()
	mcp.MountHTTPHandlers(mcpHandlers, srv.GetMCPServer())
	e.Any("/mcp", echo.WrapHandler(mcpHandlers))
	e.Any("/mcp/*", echo.WrapHandler(mcpHandlers))

	logger.Info("MCP protocol handlers mounted")

	server := &http.Server{
		Addr:        cfg.Server.Addr,
		Handler:     e,
		ReadTimeout: 15 * time.Second,
		// No WriteTimeout: SSE streams stay open indefinitely.
		IdleTimeout: 60 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("🌊 Starting Tides MCP Server (http) on %s, tls=%v", cfg.Server.Addr, cfg.TLS.Enable)
		if cfg.TLS.Enable {
			if cfg.TLS.CertFile == "" || cfg.TLS.KeyFile == "" {
				logger.Error("TLS enabled but cert/key file not provided")
				serverErrors <- server.ListenAndServe()
				return
			}
			if _, err := os.Stat(cfg.TLS.CertFile); os.IsNotExist(err) {
				if len(cfg.TLS.Hostnames) > 0 {
					if err := tls.GenerateSelfSignedCert(cfg.TLS.CertFile, cfg.TLS.KeyFile, cfg.TLS.Hostnames); err != nil {
						logger.Error("failed to generate self-signed cert: %v", err)
					}
				}
			}
			serverErrors <- server.ListenAndServeTLS(cfg.TLS.CertFile, cfg.TLS.KeyFile)
		} else {
			serverErrors <- server.ListenAndServe()
		}
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != http.ErrServerClosed {
			return err
		}
	case sig := <-shutdown:
		logger.Info("shutdown signal received: %v", sig)

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			logger.Error("server shutdown error: %v", err)
			if err := server.Close(); err != nil {
				logger.Error("server close error: %v", err)
			}
		}

		logger.Info("server stopped gracefully")
	}

	return nil
}
