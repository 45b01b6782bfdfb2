package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"jobtrail/internal/record"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show totals by stage and the response and offer rates",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		st, err := a.tracker.Stats(ctx)
		if err != nil {
			return err
		}
		printStats(cmd.OutOrStdout(), st)
		return nil
	},
}

func printStats(w io.Writer, st record.Stats) {
	fmt.Fprintf(w, "Total tracked: %d\n", st.Total)
	fmt.Fprintf(w, "Last 7 days:   %d\n\n", st.Recent)
	fmt.Fprintln(w, "By label:")
	for _, sc := range st.ByStage {
		fmt.Fprintf(w, "  %-12s %d\n", sc.Stage, sc.Count)
	}
	p := st.Pipeline
	fmt.Fprintln(w, "\nPipeline:")
	fmt.Fprintf(w, "  Applications: %d\n", p.Applications)
	fmt.Fprintf(w, "  Interviews:   %d\n", p.Interviews)
	fmt.Fprintf(w, "  Offers:       %d\n", p.Offers)
	fmt.Fprintf(w, "  Rejections:   %d\n", p.Rejections)
	fmt.Fprintf(w, "  Response rate: %s\n", record.FormatRate(p.ResponseRate()))
	fmt.Fprintf(w, "  Offer rate:    %s\n", record.FormatRate(p.OfferRate()))
}

func init() {
	rootCmd.AddCommand(statsCmd)
}
