// cmd/calendar.go
package cmd

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/aceteam-ai/gatewatch/internal/gateway"
	"github.com/aceteam-ai/gatewatch/internal/schedule"
	"github.com/aceteam-ai/gatewatch/internal/ui"
)

var calendarWeek string

var calendarCmd = &cobra.Command{
	Use:   "calendar",
	Short: "Show the week's projected job runs",
	Long: `Projects every scheduled job onto the Monday-to-Sunday week containing
--week (default: today) and prints the runs grouped by day in local time.

Cron projection honors minute, hour and day-of-week only; jobs relying on
day-of-month or month fields are listed as warnings.`,
	Example: `  gatewatch calendar
  gatewatch calendar --week 2026-10-12`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		day, err := parseWeek(calendarWeek, time.Now(), time.Local)
		if err != nil {
			return err
		}

		_, client, err := loadClient()
		if err != nil {
			return err
		}

		var jobs []gateway.Job
		err = ui.RunWithSpinner("Fetching jobs", func() error {
			jobs, err = client.ListJobs(cmd.Context(), true)
			return err
		})
		if err != nil {
			return err
		}

		start, end := schedule.WeekWindow(day)
		occurrences := schedule.ProjectAll(jobs, start, end)
		Debug("projected %d occurrences from %d jobs", len(occurrences), len(jobs))

		fmt.Print(renderCalendar(start, schedule.GroupByDay(occurrences, time.Local)))
		printLintWarnings(jobs)
		return nil
	},
}

// parseWeek resolves --week to a day in loc; empty means now.
func parseWeek(week string, now time.Time, loc *time.Location) (time.Time, error) {
	if week == "" {
		return now.In(loc), nil
	}
	t, err := time.ParseInLocation(time.DateOnly, week, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("--week must be a date in YYYY-MM-DD format: %w", err)
	}
	return t, nil
}

// renderCalendar prints seven day sections starting at the Monday start.
func renderCalendar(start time.Time, days map[string][]schedule.Occurrence) string {
	var b strings.Builder

	b.WriteString(ui.TitleStyle.Render("Week of "+start.Format("Mon Jan 2, 2006")) + "\n")

	total := 0
	for i := range 7 {
		day := start.AddDate(0, 0, i)
		occurrences := slices.Clone(days[day.Format(time.DateOnly)])
		slices.SortStableFunc(occurrences, func(a, b schedule.Occurrence) int {
			return a.Start.Compare(b.Start)
		})
		total += len(occurrences)

		b.WriteString(ui.SubtitleStyle.Render(day.Format("Mon 2006-01-02")) + "\n")
		if len(occurrences) == 0 {
			b.WriteString("  " + ui.MutedStyle.Render("no runs") + "\n")
			continue
		}
		for _, o := range occurrences {
			line := fmt.Sprintf("  %s %s-%s  %s",
				ui.StatusDot(o.Status),
				o.Start.In(start.Location()).Format("15:04"),
				o.End.In(start.Location()).Format("15:04"),
				o.Title)
			if o.Type != schedule.TypeScheduled {
				line += " " + ui.MutedStyle.Render("["+o.Type+"]")
			}
			if o.Disabled {
				line += " " + ui.WarningStyle.Render("(disabled)")
			}
			b.WriteString(line + "\n")
		}
	}

	b.WriteString("\n" + ui.MutedStyle.Render(fmt.Sprintf("%d run(s) this week", total)) + "\n")
	return b.String()
}

func init() {
	rootCmd.AddCommand(calendarCmd)
	calendarCmd.Flags().StringVar(&calendarWeek, "week", "", "Any date in the week to show (YYYY-MM-DD)")
}
