package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/face-kiosk/internal/config"
	"github.com/kozaktomas/face-kiosk/internal/kiosk"
	"github.com/kozaktomas/face-kiosk/internal/ui"
	"github.com/kozaktomas/face-kiosk/internal/web"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the kiosk web server",
	Long: `Start the Face Kiosk web server.
The kiosk page shows the live camera preview with a capture button, the
registration form, the people list and the access log. The camera is
opened once at startup and released on shutdown.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().Int("port", 0, "Port to listen on (defaults to WEB_PORT or 8443)")
	serveCmd.Flags().String("host", "", "Host to bind to (defaults to WEB_HOST or 0.0.0.0)")
}

// resolveServeHostPort applies the flag overrides on top of the environment.
func resolveServeHostPort(cmd *cobra.Command, cfg *config.Config) {
	if port := mustGetInt(cmd, "port"); port != 0 {
		cfg.Web.Port = port
	}
	if host := mustGetString(cmd, "host"); host != "" {
		cfg.Web.Host = host
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	resolveServeHostPort(cmd, cfg)

	board := ui.NewBoard()
	app, err := kiosk.New(cfg, board, kiosk.Options{CaptureDir: captureDir, Logger: slog.Default()})
	if err != nil {
		return err
	}
	defer app.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Camera failures are already shown on the page; the kiosk keeps running.
	if err := app.Start(ctx); err != nil {
		fmt.Printf("Warning: %v\n", err)
	}
	app.People.Trigger()
	app.AccessLog.Trigger()

	server := web.NewServer(cfg, app, board, slog.Default())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		fmt.Println("\nShutting down...")

		shutdownCtx, shutdownCancel := context.WithTimeout(ctx, 30*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			fmt.Printf("Error during shutdown: %v\n", err)
		}
	}()

	scheme := "http"
	if cfg.Web.TLSEnabled() {
		scheme = "https"
	}
	fmt.Printf("Starting Face Kiosk on %s://%s:%d (backend %s)\n", scheme, cfg.Web.Host, cfg.Web.Port, cfg.Backend.URL)
	fmt.Println("Press Ctrl+C to stop")

	if err := server.Start(); err != nil {
		return fmt.Errorf("starting server: %w", err)
	}
	return nil
}
