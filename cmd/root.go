package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/kozaktomas/face-kiosk/internal/config"
	"github.com/kozaktomas/face-kiosk/internal/kiosk"
	"github.com/kozaktomas/face-kiosk/internal/ui"
)

var (
	captureDir string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "face-kiosk",
	Short: "A kiosk client for a face recognition backend",
	Long: `Face Kiosk drives a remote face recognition service. It registers people
with a reference image, captures camera frames for recognition and shows the
backend's people list and access log.

Run "face-kiosk serve" for the kiosk page, or use the one-shot commands.`,
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&captureDir, "capture", "", "Directory to save API responses for testing")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
}

func initConfig() {
	// .env file is optional, don't fail if not found
	_ = godotenv.Load()

	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

// newApp loads the configuration and builds a kiosk reporting to renderer.
func newApp(renderer ui.Renderer) (*kiosk.App, error) {
	cfg := config.Load()
	app, err := kiosk.New(cfg, renderer, kiosk.Options{CaptureDir: captureDir, Logger: slog.Default()})
	if err != nil {
		return nil, err
	}
	return app, nil
}
