package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var relabelCmd = &cobra.Command{
	Use:   "relabel <id> <stage>",
	Short: "Change the stage of a tracked email",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.tracker.Relabel(ctx, args[0], args[1]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Relabelled %s\n", args[0])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(relabelCmd)
}
