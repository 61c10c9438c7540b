package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"paperCoach/internal/coaching"
)

func newReportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Coaching feedback, weekly reports and challenges",
	}
	cmd.AddCommand(newFeedbackCmd(), newWeeklyCmd(), newChallengeCmd())
	return cmd
}

func newFeedbackCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "feedback",
		Short: "Analyze your trading history and show coaching messages",
		RunE: func(cmd *cobra.Command, args []string) error {
			msgs, err := current.service.SessionFeedback(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, m := range msgs {
				printMessage(out, m)
			}
			return nil
		},
	}
}

func newWeeklyCmd() *cobra.Command {
	var weekStart string
	cmd := &cobra.Command{
		Use:   "weekly",
		Short: "Summarize one week of trading",
		RunE: func(cmd *cobra.Command, args []string) error {
			start, err := parseWeekStart(weekStart, time.Now())
			if err != nil {
				return err
			}
			r, err := current.service.WeeklyReport(cmd.Context(), start)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Week %s - %s\n", r.WeekStart.Format("2006-01-02"), r.WeekEnd.AddDate(0, 0, -1).Format("2006-01-02"))
			fmt.Fprintf(out, "Trades: %d (won %d, %.1f%%)  PnL: %.2f  best %.2f  worst %.2f\n",
				r.TotalTrades, r.WinningTrades, r.WinRate, r.TotalPNL, r.BestTrade, r.WorstTrade)
			fmt.Fprintf(out, "Journal entries: %d  negative emotions: %.1f%%  risk score: %.0f\n",
				r.JournalEntries, r.NegativeEmotionRate, r.RiskScore)
			for _, p := range r.Patterns {
				fmt.Fprintf(out, "  pattern %s (%s)\n", coaching.PatternTitle(p.Type), p.Severity)
			}
			for _, s := range r.Suggestions {
				fmt.Fprintf(out, "  - %s\n", s)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&weekStart, "week-start", "", "first day of the week, YYYY-MM-DD (default: this Monday)")
	return cmd
}

func newChallengeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "challenge",
		Short: "Recommend a challenge based on your habits",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := current.service.RecommendChallenge(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s [%s, %d days]\n%s\n", c.Title, c.Difficulty, c.DurationDays, c.Description)
			return nil
		},
	}
}

func printMessage(out io.Writer, m coaching.Message) {
	fmt.Fprintf(out, "[%s] %s\n  %s\n", m.Category, m.Title, m.Text)
	for _, a := range m.ActionItems {
		fmt.Fprintf(out, "  - %s\n", a)
	}
}

// parseWeekStart parses a YYYY-MM-DD date in UTC, or returns the Monday of now's week.
func parseWeekStart(s string, now time.Time) (time.Time, error) {
	if s != "" {
		t, err := time.Parse("2006-01-02", s)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid --week-start %q: %w", s, err)
		}
		return t, nil
	}
	y, m, d := now.UTC().Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	offset := (int(day.Weekday()) + 6) % 7
	return day.AddDate(0, 0, -offset), nil
}
