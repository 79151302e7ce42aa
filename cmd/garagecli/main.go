// garagecli is the operator CLI: run the backend or fire a one-off sync from
// a shell or a cron job.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tsiory-dev/garagesync/internal/server"
	"github.com/tsiory-dev/garagesync/internal/server/config"
)

var rootCmd = &cobra.Command{
	Use:           "garagecli",
	Short:         "Repair shop backend and Firestore sync",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API server with the background sync ticker",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := server.NewApp(config.LoadConfig())
		if err != nil {
			return err
		}
		app.Run(cmd.Context())
		return nil
	},
}

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Run one synchronization pass against the remote store",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := server.NewApp(config.LoadConfig())
		if err != nil {
			return err
		}

		summary, err := app.RunSyncOnce(cmd.Context())
		if err != nil {
			return err
		}

		fmt.Printf("pushed %d, pulled %d, payments %d, skipped %d, failed %d\n",
			summary.RepairsPushed, summary.RepairsPulled, summary.PaymentsImported,
			summary.Skipped, summary.Failed)
		return nil
	},
}

func main() {
	rootCmd.AddCommand(serveCmd, syncCmd)

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
