package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/dukerupert/roomie/internal/chore"
)

// statusLabel renders a status in its tag color.
func statusLabel(s chore.Status) string {
	label := strings.ReplaceAll(string(s), "_", " ")
	switch s {
	case chore.StatusOverdue:
		return color.New(color.FgRed, color.Bold).Sprint(label)
	case chore.StatusOnTime:
		return color.New(color.FgGreen).Sprint(label)
	case chore.StatusDone:
		return color.New(color.FgHiBlue).Sprint(label)
	default:
		return color.New(color.FgHiBlack).Sprint(label)
	}
}

func printDashboard(w io.Writer, roomName string, items []chore.DashboardItem) {
	fmt.Fprintf(w, "%s\n", color.New(color.Bold).Sprintf("Room %s", roomName))
	if len(items) == 0 {
		fmt.Fprintln(w, "  no chores")
		return
	}
	for _, it := range items {
		due := it.DueDate
		if due == "" {
			due = "-"
		}
		fmt.Fprintf(w, "  %-10s  %-24s  %s\n", due, it.Title, statusLabel(it.Status))
	}
}

func printCalendar(w io.Writer, events []chore.CalendarEvent) {
	if len(events) == 0 {
		fmt.Fprintln(w, "no upcoming chores")
		return
	}
	last := ""
	for _, ev := range events {
		if ev.Date != last {
			fmt.Fprintln(w, color.New(color.Bold).Sprint(ev.Date))
			last = ev.Date
		}
		marker := ""
		if !ev.IsPublic {
			marker = color.New(color.FgCyan).Sprint(" [private]")
		}
		fmt.Fprintf(w, "  %-24s  %s%s\n", ev.Title, statusLabel(ev.Status), marker)
	}
}

func printStats(w io.Writer, completion chore.CompletionStats, counts chore.StatusCounts, contributions []chore.Contribution, upcoming []chore.Upcoming, ahead int, names map[int64]string) {
	fmt.Fprintf(w, "Completion: %d%% (%d of %d on track, %d pending)\n",
		completion.Percentage, completion.Completed, completion.Total, completion.Pending)
	fmt.Fprintf(w, "Status:     %s %d  %s %d  %s %d  %s %d\n",
		statusLabel(chore.StatusOverdue), counts.Overdue,
		statusLabel(chore.StatusOnTime), counts.OnTime,
		statusLabel(chore.StatusFuture), counts.Future,
		statusLabel(chore.StatusDone), counts.Done)

	fmt.Fprintln(w, "Contributions:")
	if len(contributions) == 0 {
		fmt.Fprintln(w, "  none")
	}
	for _, c := range contributions {
		fmt.Fprintf(w, "  %-20s %d\n", memberName(names, c.MemberID), c.Count)
	}

	fmt.Fprintf(w, "Upcoming (next %d days):\n", ahead)
	if len(upcoming) == 0 {
		fmt.Fprintln(w, "  none")
	}
	for _, u := range upcoming {
		fmt.Fprintf(w, "  %-24s %dx\n", u.Title, u.Count)
	}
}

func printRoster(w io.Writer, roster []chore.RosterEntry, names map[int64]string) {
	if len(roster) == 0 {
		fmt.Fprintln(w, "no shared chores on duty")
		return
	}
	for _, r := range roster {
		fmt.Fprintf(w, "  %-24s  %s\n", r.Title, color.New(color.FgHiGreen).Sprint(memberName(names, r.MemberID)))
	}
}

func memberName(names map[int64]string, id int64) string {
	if n, ok := names[id]; ok {
		return n
	}
	return fmt.Sprintf("member %d", id)
}

func choresCmd(opts *rootOptions) *cobra.Command {
	var roomID, memberID int64
	var date string

	cmd := &cobra.Command{
		Use:   "chores",
		Short: "Show every chore in a room with its status",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := opts.openReport(roomID, date)
			if err != nil {
				return err
			}
			defer env.Close()

			items, err := env.chores.Dashboard(cmd.Context(), env.room.ID, memberID)
			if err != nil {
				return fmt.Errorf("load chores: %w", err)
			}
			printDashboard(cmd.OutOrStdout(), env.room.Name, items)
			return nil
		},
	}
	cmd.Flags().Int64Var(&roomID, "room", 0, "room ID (required)")
	cmd.Flags().Int64Var(&memberID, "member", 0, "member ID; includes that member's private chores")
	cmd.Flags().StringVar(&date, "date", "", "reference date YYYY-MM-DD (default today)")
	cmd.MarkFlagRequired("room")
	return cmd
}

func calendarCmd(opts *rootOptions) *cobra.Command {
	var roomID, memberID int64
	var days int
	var date string

	cmd := &cobra.Command{
		Use:   "calendar",
		Short: "Show projected due dates",
		RunE: func(cmd *cobra.Command, args []string) error {
			if days < 1 {
				return fmt.Errorf("--days must be at least 1")
			}
			env, err := opts.openReport(roomID, date)
			if err != nil {
				return err
			}
			defer env.Close()

			start := env.chores.Today()
			events, err := env.chores.Calendar(cmd.Context(), env.room.ID, memberID, start, start.AddDate(0, 0, days))
			if err != nil {
				return fmt.Errorf("load calendar: %w", err)
			}
			printCalendar(cmd.OutOrStdout(), events)
			return nil
		},
	}
	cmd.Flags().Int64Var(&roomID, "room", 0, "room ID (required)")
	cmd.Flags().Int64Var(&memberID, "member", 0, "member ID; includes that member's private chores")
	cmd.Flags().IntVar(&days, "days", chore.DefaultLookaheadDays, "days to project from today")
	cmd.Flags().StringVar(&date, "date", "", "reference date YYYY-MM-DD (default today)")
	cmd.MarkFlagRequired("room")
	return cmd
}

func statsCmd(opts *rootOptions) *cobra.Command {
	var roomID int64
	var days, ahead int
	var date string

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show completion, status counts, contributions and upcoming load",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := opts.openReport(roomID, date)
			if err != nil {
				return err
			}
			defer env.Close()

			ctx := cmd.Context()
			completion, err := env.chores.Completion(ctx, env.room.ID)
			if err != nil {
				return fmt.Errorf("load completion: %w", err)
			}
			counts, err := env.chores.Counts(ctx, env.room.ID)
			if err != nil {
				return fmt.Errorf("load counts: %w", err)
			}
			contributions, err := env.chores.Contributions(ctx, env.room.ID, days)
			if err != nil {
				return fmt.Errorf("load contributions: %w", err)
			}
			upcoming, err := env.chores.Upcoming(ctx, env.room.ID, ahead)
			if err != nil {
				return fmt.Errorf("load upcoming: %w", err)
			}
			if ahead <= 0 {
				ahead = env.lookahead
			}
			names, err := env.memberNames(ctx)
			if err != nil {
				return fmt.Errorf("load members: %w", err)
			}

			printStats(cmd.OutOrStdout(), completion, counts, contributions, upcoming, ahead, names)
			return nil
		},
	}
	cmd.Flags().Int64Var(&roomID, "room", 0, "room ID (required)")
	cmd.Flags().IntVar(&days, "days", 0, "contribution window in days (default from config)")
	cmd.Flags().IntVar(&ahead, "ahead", 0, "upcoming window in days (default from config)")
	cmd.Flags().StringVar(&date, "date", "", "reference date YYYY-MM-DD (default today)")
	cmd.MarkFlagRequired("room")
	return cmd
}

func rosterCmd(opts *rootOptions) *cobra.Command {
	var roomID int64
	var date string

	cmd := &cobra.Command{
		Use:   "roster",
		Short: "Show who is on duty for each shared chore",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := opts.openReport(roomID, date)
			if err != nil {
				return err
			}
			defer env.Close()

			roster, err := env.chores.Roster(cmd.Context(), env.room.ID)
			if err != nil {
				return fmt.Errorf("load roster: %w", err)
			}
			names, err := env.memberNames(cmd.Context())
			if err != nil {
				return fmt.Errorf("load members: %w", err)
			}
			printRoster(cmd.OutOrStdout(), roster, names)
			return nil
		},
	}
	cmd.Flags().Int64Var(&roomID, "room", 0, "room ID (required)")
	cmd.Flags().StringVar(&date, "date", "", "reference date YYYY-MM-DD (default today)")
	cmd.MarkFlagRequired("room")
	return cmd
}
