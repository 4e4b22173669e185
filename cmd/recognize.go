package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/face-kiosk/internal/camera"
	"github.com/kozaktomas/face-kiosk/internal/ui"
)

var recognizeCmd = &cobra.Command{
	Use:   "recognize",
	Short: "Capture one camera frame and recognize the faces in it",
	Long: `Open the camera, capture a single frame and submit it for recognition.

Every face the backend finds is printed on its own line, followed by the
refreshed access log. The camera is configured with CAMERA_SOURCE.

Example:
  CAMERA_SOURCE=still:./door.png face-kiosk recognize
  face-kiosk recognize --wait 10s`,
	Args: cobra.NoArgs,
	RunE: runRecognize,
}

func init() {
	rootCmd.AddCommand(recognizeCmd)
	recognizeCmd.Flags().Duration("wait", 5*time.Second, "How long to wait for the first camera frame")
}

func runRecognize(cmd *cobra.Command, args []string) error {
	wait := mustGetDuration(cmd, "wait")
	ctx := cmd.Context()

	app, err := newApp(ui.NewTextRenderer(os.Stdout))
	if err != nil {
		return err
	}
	defer app.Close()

	// The camera error has been printed; the capture still goes through.
	if err := app.Start(ctx); err != nil {
		slog.Debug("kiosk started with errors", "error", err)
	}
	if app.Camera.State() == camera.StateBound {
		waitForFrame(ctx, app.Sink, wait)
	}

	out, err := app.Pipeline.Capture(ctx)
	if err != nil {
		return fmt.Errorf("recognition failed: %w", err)
	}
	if len(out.Results) == 0 {
		fmt.Println("No faces found.")
	}

	app.AccessLog.Wait()
	return nil
}

// waitForFrame blocks until the camera delivered a frame. A missing frame is
// not fatal: the capture then submits a blank canvas.
func waitForFrame(ctx context.Context, sink *camera.Sink, wait time.Duration) {
	ctx, cancel := context.WithTimeout(ctx, wait)
	defer cancel()
	if err := sink.WaitFrame(ctx); errors.Is(err, context.DeadlineExceeded) {
		fmt.Printf("Warning: no camera frame after %s, capturing a blank frame\n", wait)
	}
}
