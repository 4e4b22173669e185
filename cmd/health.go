package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/face-kiosk/internal/ui"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check that the recognition backend is reachable",
	Args:  cobra.NoArgs,
	RunE:  runHealth,
}

func init() {
	rootCmd.AddCommand(healthCmd)
}

func runHealth(cmd *cobra.Command, args []string) error {
	app, err := newApp(ui.NewBoard())
	if err != nil {
		return err
	}
	defer app.Close()

	banner, err := app.Client.Ping(cmd.Context())
	if err != nil {
		return fmt.Errorf("%s: %w", ui.ErrorText(err, app.Config.Messages), err)
	}
	fmt.Printf("Backend %s is up: %s\n", app.Config.Backend.URL, banner)
	return nil
}
