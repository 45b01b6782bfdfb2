package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var deleteCmd = &cobra.Command{
	Use:   "delete <id>...",
	Short: "Remove tracked emails",
	Long:  `Delete removes records from the tracking database. The emails stay in Gmail.`,
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.tracker.Delete(ctx, args...); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d record(s)\n", len(args))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(deleteCmd)
}
