package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/face-kiosk/internal/ui"
)

var peopleCmd = &cobra.Command{
	Use:   "people",
	Short: "List the registered people",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp(ui.NewTextRenderer(os.Stdout))
		if err != nil {
			return err
		}
		defer app.Close()
		return app.People.Refresh(cmd.Context())
	},
}

var accessLogCmd = &cobra.Command{
	Use:   "access-log",
	Short: "Show the recognition access log",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp(ui.NewTextRenderer(os.Stdout))
		if err != nil {
			return err
		}
		defer app.Close()
		return app.AccessLog.Refresh(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(peopleCmd)
	rootCmd.AddCommand(accessLogCmd)
}
