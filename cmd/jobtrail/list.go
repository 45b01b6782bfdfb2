package main

import (
	"encoding/json"
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"jobtrail/internal/record"
	"jobtrail/internal/util"
)

var (
	listStage  string
	listSearch string
	listJSON   bool
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List tracked job emails, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		recs, err := a.tracker.List(ctx, listStage, listSearch)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if listJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(toListRows(recs))
		}
		if len(recs) == 0 {
			fmt.Fprintln(out, "No job emails found.")
			return nil
		}
		fmt.Fprintln(out, recordsTable(recs))
		return nil
	},
}

type listRow struct {
	ID         string `json:"id"`
	Stage      string `json:"stage"`
	Subject    string `json:"subject"`
	Sender     string `json:"sender"`
	ReceivedAt string `json:"received_at"`
	MessageID  string `json:"message_id,omitempty"`
}

func toListRows(recs []record.Stored) []listRow {
	rows := make([]listRow, 0, len(recs))
	for _, r := range recs {
		rows = append(rows, listRow{
			ID:         r.ID,
			Stage:      r.Stage.String(),
			Subject:    r.Subject,
			Sender:     r.Sender,
			ReceivedAt: r.ReceivedAt.UTC().Format("2006-01-02T15:04:05.000Z"),
			MessageID:  r.MessageID,
		})
	}
	return rows
}

var headerCell = lipgloss.NewStyle().Bold(true).Padding(0, 1)
var cell = lipgloss.NewStyle().Padding(0, 1)

func recordsTable(recs []record.Stored) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("ID", "DATE", "STAGE", "FROM", "SUBJECT").
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerCell
			}
			return cell
		})
	for _, r := range recs {
		t.Row(
			r.ID,
			r.ReceivedAt.Local().Format("2006-01-02"),
			r.Stage.String(),
			util.Truncate(util.SenderName(r.Sender), 24),
			util.Truncate(r.Subject, 60),
		)
	}
	return t.Render()
}

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().StringVar(&listStage, "stage", "all", "Only show this stage (application, interview, offer, rejection, other)")
	listCmd.Flags().StringVar(&listSearch, "search", "", "Only show emails whose subject or sender contains this text")
	listCmd.Flags().BoolVar(&listJSON, "json", false, "Output in JSON format")
}
