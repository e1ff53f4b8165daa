package cmd

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/mockt/mockt/internal/report"
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "List interviews stored on this machine",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		e, err := openEnv(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		ctx := cmd.Context()
		recs, err := e.store.SessionRepo().List(ctx, limit)
		if err != nil {
			return fmt.Errorf("list sessions: %w", err)
		}
		out := cmd.OutOrStdout()
		if len(recs) == 0 {
			fmt.Fprintln(out, "No sessions found.")
			return nil
		}

		current, _ := e.store.SessionRepo().Current(ctx, time.Now())

		t := newTable(out, "", "ID", "Created", "Role", "Difficulty", "Answered", "Avg score")
		for _, rec := range recs {
			events, err := e.store.EventRepo().AnswerEvents(ctx, rec.SessionID)
			if err != nil {
				return fmt.Errorf("answers of %s: %w", rec.SessionID, err)
			}
			r := report.Build(&rec, events)
			scored := 0
			for _, row := range r.Rows {
				if row.Score != nil {
					scored++
				}
			}
			avg := "-"
			if a, ok := r.Average(); ok {
				avg = fmt.Sprintf("%.1f", a)
			}
			marker := ""
			if rec.SessionID == current {
				marker = "*"
			}
			t.row(marker,
				rec.SessionID,
				rec.CreatedAt.Local().Format("2006-01-02 15:04"),
				truncate(rec.JobRole, 28),
				rec.Difficulty,
				fmt.Sprintf("%d/%d", scored, len(r.Rows)),
				avg)
		}
		if err := t.Flush(); err != nil {
			return err
		}
		if current != "" {
			fmt.Fprintln(out, "\n* resumable from the home menu")
		}
		return nil
	},
}

var exportCmd = &cobra.Command{
	Use:   "export <session-id>",
	Short: "Export a session's answers and scores to an xlsx workbook",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		output, _ := cmd.Flags().GetString("output")

		e, err := openEnv(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		ctx := cmd.Context()
		rec, err := e.store.SessionRepo().Get(ctx, args[0])
		if err != nil {
			return fmt.Errorf("session %s: %w", args[0], err)
		}
		events, err := e.store.EventRepo().AnswerEvents(ctx, rec.SessionID)
		if err != nil {
			return fmt.Errorf("read answers: %w", err)
		}

		if output == "" {
			output = rec.SessionID + ".xlsx"
		}
		if err := report.Save(output, report.Build(rec, events)); err != nil {
			return err
		}
		abs, err := filepath.Abs(output)
		if err != nil {
			abs = output
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", abs)
		return nil
	},
}

func init() {
	sessionsCmd.Flags().IntP("limit", "n", 20, "Number of sessions to show")
	exportCmd.Flags().StringP("output", "o", "", "Output file (default <session-id>.xlsx)")
}
