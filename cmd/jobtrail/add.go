package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"jobtrail/internal/record"
	"jobtrail/internal/taxonomy"
)

var (
	addSubject string
	addSender  string
	addStage   string
	addDate    string
)

var addCmd = &cobra.Command{
	Use:   "add",
	Short: "Track an email by hand",
	Long: `Add stores a record that did not come from Gmail, such as a forwarded message
or a phone screen. It goes through the same duplicate checks as fetched mail.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		e := record.Email{
			Subject: addSubject,
			Sender:  addSender,
			Stage:   taxonomy.Stage(addStage),
		}
		if addDate != "" {
			t, err := parseDate(addDate)
			if err != nil {
				return err
			}
			e.ReceivedAt = t
		}

		a, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		id, err := a.tracker.AddManual(ctx, e)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), id)
		return nil
	},
}

// parseDate accepts RFC 3339 or a plain date, read in local time.
func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	t, err := time.ParseInLocation("2006-01-02", s, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("date %q: want YYYY-MM-DD or RFC 3339", s)
	}
	return t.UTC(), nil
}

func init() {
	rootCmd.AddCommand(addCmd)
	addCmd.Flags().StringVar(&addSubject, "subject", "", "Email subject (required)")
	addCmd.Flags().StringVar(&addSender, "sender", "", "Sender, e.g. 'Acme Jobs <jobs@acme.com>' (required)")
	addCmd.Flags().StringVar(&addStage, "stage", "", "Stage; defaults to other")
	addCmd.Flags().StringVar(&addDate, "date", "", "Received date; defaults to now")
	_ = addCmd.MarkFlagRequired("subject")
	_ = addCmd.MarkFlagRequired("sender")
}
