package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"jobtrail/internal/mailbox/gmail"
	"jobtrail/internal/record"
	"jobtrail/internal/store"
	"jobtrail/internal/store/memory"
)

var fetchDryRun bool

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Fetch recent Gmail messages and store the job-related ones",
	Long: `Fetch lists messages received in the lookback window (GMAIL_LOOKBACK_DAYS),
keeps the job-related ones, labels them and stores the new ones.

On first use it prints a Google consent URL. The browser redirect completes
sign-in; the code can also be pasted here.`,
	Args:        cobra.NoArgs,
	Annotations: map[string]string{logToStderr: ""},
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		target := a.store
		if fetchDryRun {
			target, err = scratchCopy(ctx, a.store)
			if err != nil {
				return err
			}
		}

		prompt := gmail.TerminalPrompter{In: os.Stdin, Out: os.Stderr}
		runner, err := a.runnerInto(ctx, target, prompt, nil)
		if err != nil {
			return err
		}
		rep, err := runner.Run(ctx, cfg.Gmail.Lookback())
		if err != nil {
			return err
		}
		if fetchDryRun {
			fmt.Fprintln(cmd.OutOrStdout(), "dry run: would have", rep.Summary())
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), rep.Summary())
		return nil
	},
}

// scratchCopy loads every stored record into a memory store so a dry run
// sees the same duplicates without writing anything.
func scratchCopy(ctx context.Context, src store.RecordStore) (store.RecordStore, error) {
	all, err := src.List(ctx, record.Filter{})
	if err != nil {
		return nil, fmt.Errorf("copy records: %w", err)
	}
	dst := memory.New()
	for _, r := range all {
		if _, err := dst.Insert(ctx, r.Email); err != nil {
			return nil, fmt.Errorf("copy records: %w", err)
		}
	}
	return dst, nil
}

func init() {
	rootCmd.AddCommand(fetchCmd)
	fetchCmd.Flags().BoolVar(&fetchDryRun, "dry-run", false, "Report what would be added without storing anything")
}
