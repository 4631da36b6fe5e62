// cmd/jobs.go
package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/aceteam-ai/gatewatch/internal/gateway"
	"github.com/aceteam-ai/gatewatch/internal/schedule"
	"github.com/aceteam-ai/gatewatch/internal/ui"
)

var (
	jobsIncludeDisabled bool
	jobsJSON            bool
)

var jobsCmd = &cobra.Command{
	Use:     "jobs",
	Aliases: []string{"cron"},
	Short:   "List scheduled jobs",
	Long: `Lists the gateway's scheduled jobs with their schedule, last status and
next run. Cron expressions that the calendar cannot project faithfully are
flagged with a warning.`,
	Example: `  gatewatch jobs
  gatewatch jobs --include-disabled=false
  gatewatch jobs --json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, client, err := loadClient()
		if err != nil {
			return err
		}

		var jobs []gateway.Job
		err = ui.RunWithSpinner("Fetching jobs", func() error {
			jobs, err = client.ListJobs(cmd.Context(), jobsIncludeDisabled)
			return err
		})
		if err != nil {
			return err
		}

		if jobsJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(jobs)
		}

		if len(jobs) == 0 {
			fmt.Println("No jobs scheduled.")
			return nil
		}

		headerColor.Printf("%d job(s)\n\n", len(jobs))
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tSCHEDULE\tSTATUS\tLAST RUN\tNEXT RUN")
		for _, job := range jobs {
			name := job.Name
			if !job.Enabled {
				name += " (disabled)"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
				job.ID, name, schedule.Describe(job, time.Local),
				jobStatus(job), relativeMs(job.LastRunAtMs), relativeMs(job.NextRunAtMs))
		}
		w.Flush()

		printLintWarnings(jobs)
		return nil
	},
}

func jobStatus(job gateway.Job) string {
	status := schedule.StatusOf(job)
	switch status {
	case schedule.StatusOK:
		return goodColor.Sprint(status)
	case schedule.StatusError:
		return badColor.Sprint(status)
	default:
		return warnColor.Sprint(status)
	}
}

// printLintWarnings reports cron jobs whose expressions the calendar
// projects differently from a full cron engine.
func printLintWarnings(jobs []gateway.Job) {
	first := true
	for _, job := range jobs {
		if job.ScheduleKind != gateway.ScheduleCron {
			continue
		}
		res := schedule.Lint(job.ScheduleExpr)
		if res.Valid && res.Projected && len(res.Warnings) == 0 {
			continue
		}
		if first {
			fmt.Println()
			labelColor.Println("Schedule warnings:")
			first = false
		}
		if !res.Valid {
			badColor.Printf("  %s %q: %s\n", job.ID, job.ScheduleExpr, res.Error)
		}
		for _, warning := range res.Warnings {
			warnColor.Printf("  %s %q: %s\n", job.ID, job.ScheduleExpr, warning)
		}
	}
}

func init() {
	rootCmd.AddCommand(jobsCmd)
	jobsCmd.Flags().BoolVar(&jobsIncludeDisabled, "include-disabled", true, "Include disabled jobs")
	jobsCmd.Flags().BoolVar(&jobsJSON, "json", false, "Print jobs as JSON")
}
