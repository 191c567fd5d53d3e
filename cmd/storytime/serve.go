package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/nerdenough/ai-storytime/internal/config"
	"github.com/nerdenough/ai-storytime/internal/home"
	"github.com/nerdenough/ai-storytime/internal/server"
)

var (
	serveHost    string
	servePort    string
	logLevel     string
	waitBackends time.Duration
	watchConfig  bool
	swaggerSpec  string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the storytime server",
	Long: `Start the storytime HTTP server.

The server provides:
  - POST /api/books        - Write and illustrate a new book
  - GET  /api/books/{id}   - Fetch a stored book
  - GET  /data/...         - Generated images and records
  - /health, /ready        - Liveness and backend readiness

Examples:
  storytime serve                        # Start on default port 8080
  storytime serve --port 3000            # Start on custom port
  storytime serve --wait-backends 2m     # Wait for sd-webui to come up first`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		// Set up logger
		var level slog.Level
		if err := level.UnmarshalText([]byte(logLevel)); err != nil {
			return fmt.Errorf("invalid --log-level %q: %w", logLevel, err)
		}
		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: level,
		}))

		// Get home directory
		h, err := home.New(homeDir)
		if err != nil {
			return err
		}

		cfgPath := cfgFile
		if cfgPath == "" && h.ConfigExists() {
			cfgPath = h.ConfigPath()
		}
		mgr, err := config.NewManager(cfgPath)
		if err != nil {
			return err
		}
		mgr.SetLogger(logger)
		if f := mgr.ConfigFile(); f != "" {
			logger.Info("loaded config", "file", f)
			if watchConfig {
				mgr.WatchConfig()
			}
		} else {
			logger.Info("no config file found, using defaults")
		}

		srv, err := server.New(server.Config{
			Host:            serveHost,
			Port:            servePort,
			Home:            h,
			ConfigManager:   mgr,
			WaitBackends:    waitBackends,
			SwaggerSpecPath: swaggerSpec,
			Logger:          logger,
		})
		if err != nil {
			return err
		}

		// Start server (blocks until shutdown)
		return srv.Start(ctx)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveHost, "host", "127.0.0.1", "Host to bind to")
	serveCmd.Flags().StringVar(&servePort, "port", "8080", "Port to listen on")
	serveCmd.Flags().StringVar(&logLevel, "log-level", "info", "Log level: debug, info, warn, error")
	serveCmd.Flags().DurationVar(&waitBackends, "wait-backends", 0, "Wait up to this long for image backends before serving")
	serveCmd.Flags().BoolVar(&watchConfig, "watch-config", true, "Reload providers when the config file changes")
	serveCmd.Flags().StringVar(&swaggerSpec, "swagger-spec", "", "Serve this swagger.json instead of the built-in document")

	rootCmd.AddCommand(serveCmd)
}
