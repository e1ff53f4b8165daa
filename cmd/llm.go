package cmd

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/mockt/mockt/internal/llm"
	"github.com/mockt/mockt/internal/store"
)

var llmCmd = &cobra.Command{
	Use:   "llm",
	Short: "Inspect the requests the local coach sent to the LLM",
}

var llmListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent LLM requests",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		purpose, _ := cmd.Flags().GetString("purpose")

		e, err := openEnv(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		events, err := e.store.EventRepo().QueryLLMRequests(cmd.Context(), store.QueryOpts{Limit: limit, Purpose: purpose})
		if err != nil {
			return fmt.Errorf("query LLM requests: %w", err)
		}
		out := cmd.OutOrStdout()
		if len(events) == 0 {
			fmt.Fprintln(out, "No LLM requests recorded.")
			return nil
		}

		t := newTable(out, "ID", "Time", "Purpose", "Model", "Tokens in/out", "Latency", "Result")
		for _, ev := range events {
			result := "ok"
			if !ev.Success {
				result = "failed"
			}
			t.row(ev.ID,
				ev.Timestamp.Local().Format(time.DateTime),
				ev.Purpose,
				truncate(ev.Model, 32),
				fmt.Sprintf("%d/%d", ev.InputTokens, ev.OutputTokens),
				time.Duration(ev.LatencyMs)*time.Millisecond,
				result)
		}
		return t.Flush()
	},
}

var llmViewCmd = &cobra.Command{
	Use:   "view <id>",
	Short: "Show the full prompt and reply of one request",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid request ID %q", args[0])
		}

		e, err := openEnv(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		ev, err := e.store.EventRepo().GetLLMRequest(cmd.Context(), id)
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("no LLM request with ID %d", id)
		}
		if err != nil {
			return fmt.Errorf("get LLM request: %w", err)
		}

		out := cmd.OutOrStdout()
		t := newTable(out)
		t.row("ID:", ev.ID)
		t.row("Time:", ev.Timestamp.Local().Format(time.DateTime))
		t.row("Provider:", ev.Provider)
		t.row("Model:", ev.Model)
		t.row("Purpose:", ev.Purpose)
		t.row("Tokens:", fmt.Sprintf("%d in, %d out", ev.InputTokens, ev.OutputTokens))
		t.row("Latency:", time.Duration(ev.LatencyMs)*time.Millisecond)
		if ev.Success {
			t.row("Result:", "ok")
		} else {
			t.row("Result:", "failed: "+ev.ErrorMessage)
		}
		if err := t.Flush(); err != nil {
			return err
		}

		section(out, "Request", ev.RequestBody)
		section(out, "Response", ev.ResponseBody)
		return nil
	},
}

func section(w io.Writer, title, body string) {
	fmt.Fprintf(w, "\n── %s %s\n", title, strings.Repeat("─", max(56-len(title), 4)))
	if body == "" {
		body = "(empty)"
	}
	fmt.Fprintln(w, body)
}

var llmStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Summarize token usage and estimated cost",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv(cmd)
		if err != nil {
			return err
		}
		defer e.Close()
		events := e.store.EventRepo()
		ctx := cmd.Context()
		out := cmd.OutOrStdout()

		byPurpose, err := events.LLMUsageByPurpose(ctx)
		if err != nil {
			return fmt.Errorf("usage by purpose: %w", err)
		}
		if len(byPurpose) == 0 {
			fmt.Fprintln(out, "No LLM requests recorded.")
			return nil
		}

		var sum store.LLMUsageStats
		t := newTable(out, "Purpose", "Requests", "Failed", "Tokens in", "Tokens out", "Avg latency")
		for _, st := range byPurpose {
			t.row(st.Key, st.Requests, st.Failures, st.InputTokens, st.OutputTokens,
				time.Duration(st.AvgLatencyMs)*time.Millisecond)
			sum.Requests += st.Requests
			sum.Failures += st.Failures
			sum.InputTokens += st.InputTokens
			sum.OutputTokens += st.OutputTokens
		}
		t.row("total", sum.Requests, sum.Failures, sum.InputTokens, sum.OutputTokens, "")
		if err := t.Flush(); err != nil {
			return err
		}

		byModel, err := events.LLMUsageByModel(ctx)
		if err != nil {
			return fmt.Errorf("usage by model: %w", err)
		}
		fmt.Fprintln(out)
		var total float64
		var unpriced []string
		t = newTable(out, "Model", "Requests", "Tokens in", "Tokens out", "Est. cost")
		for _, st := range byModel {
			cost := "?"
			if c := llm.LookupCost(st.Key); c != nil {
				usd := c.Cost(st.InputTokens, st.OutputTokens)
				total += usd
				cost = formatCost(usd)
			} else {
				unpriced = append(unpriced, st.Key)
			}
			t.row(truncate(st.Key, 40), st.Requests, st.InputTokens, st.OutputTokens, cost)
		}
		label := "total"
		if len(unpriced) > 0 {
			label = "total (priced models)"
		}
		t.row(label, "", "", "", formatCost(total))
		if err := t.Flush(); err != nil {
			return err
		}
		if len(unpriced) > 0 {
			fmt.Fprintf(out, "\nNo price list for: %s\n", strings.Join(unpriced, ", "))
		}
		return nil
	},
}

func init() {
	llmListCmd.Flags().IntP("limit", "n", 20, "Number of requests to show")
	llmListCmd.Flags().StringP("purpose", "p", "", "Only show one purpose ("+llm.PurposeQuestionGen+" or "+llm.PurposeAnswerEval+")")

	llmCmd.AddCommand(llmListCmd, llmViewCmd, llmStatsCmd)
}
