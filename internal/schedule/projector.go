// Package schedule projects job schedule definitions onto calendar windows.
//
// Cron expressions are evaluated in a deliberately reduced form: only the
// minute, hour and day-of-week fields are used, and day-of-week must be "*"
// or a single number 0-6 (Sunday=0). Day-of-month and month are accepted but
// not evaluated, so "0 9 1 * *" projects every day at 09:00, not only on the
// first of the month. This is a known limitation; Lint reports it per
// expression.
package schedule

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/aceteam-ai/gatewatch/internal/gateway"
)

// Duration is the nominal length of every occurrence. It is a display
// convenience, not a measured job duration.
const Duration = time.Hour

// Occurrence types
const (
	TypeScheduled = "scheduled"
	TypeInterval  = "interval"
	TypeOneshot   = "oneshot"
)

// Occurrence statuses
const (
	StatusOK      = "ok"
	StatusError   = "error"
	StatusPending = "pending"
)

// Occurrence is one projected run of a job.
type Occurrence struct {
	ID       string      `json:"id"`
	JobID    string      `json:"jobId"`
	Title    string      `json:"title"`
	Start    time.Time   `json:"start"`
	End      time.Time   `json:"end"`
	Type     string      `json:"type"`
	Status   string      `json:"status"`
	Disabled bool        `json:"disabled"`
	Job      gateway.Job `json:"job"`
}

// Project returns the occurrences of job inside [start, end], both ends
// inclusive, in chronological order. Cron days are computed in start's
// location. Malformed schedules yield no occurrences.
func Project(job gateway.Job, start, end time.Time) []Occurrence {
	if end.Before(start) {
		return nil
	}

	switch job.ScheduleKind {
	case gateway.ScheduleCron:
		return projectCron(job, start, end)
	case gateway.ScheduleEvery:
		if job.NextRunAtMs == nil {
			return nil
		}
		return projectAt(job, time.UnixMilli(*job.NextRunAtMs).In(start.Location()), start, end, TypeInterval)
	case gateway.ScheduleOnce:
		if job.OnceAtMs == nil {
			return nil
		}
		return projectAt(job, time.UnixMilli(*job.OnceAtMs).In(start.Location()), start, end, TypeOneshot)
	default:
		return nil
	}
}

// ProjectAll concatenates the projections of jobs, job by job.
func ProjectAll(jobs []gateway.Job, start, end time.Time) []Occurrence {
	var out []Occurrence
	for _, job := range jobs {
		out = append(out, Project(job, start, end)...)
	}
	return out
}

// GroupByDay buckets occurrences by their start date (YYYY-MM-DD) in loc,
// preserving the input order inside each bucket.
func GroupByDay(occurrences []Occurrence, loc *time.Location) map[string][]Occurrence {
	if loc == nil {
		loc = time.Local
	}
	days := make(map[string][]Occurrence)
	for _, o := range occurrences {
		key := o.Start.In(loc).Format(time.DateOnly)
		days[key] = append(days[key], o)
	}
	return days
}

// WeekWindow returns the Monday-to-Sunday week containing t, from Monday
// 00:00 to Sunday 23:59:59.999 in t's location.
func WeekWindow(t time.Time) (time.Time, time.Time) {
	offset := (int(t.Weekday()) + 6) % 7
	start := time.Date(t.Year(), t.Month(), t.Day()-offset, 0, 0, 0, 0, t.Location())
	end := time.Date(start.Year(), start.Month(), start.Day()+7, 0, 0, 0, 0, t.Location()).Add(-time.Millisecond)
	return start, end
}

// cronFields is the evaluated subset of a five-field cron expression.
type cronFields struct {
	minute  int
	hour    int
	weekday int // -1 means any day
}

// parseCron extracts minute, hour and day-of-week. Anything it cannot
// evaluate reports ok=false.
func parseCron(expr string) (cronFields, bool) {
	parts := strings.Fields(expr)
	if len(parts) < 5 {
		return cronFields{}, false
	}

	minute, err := strconv.Atoi(parts[0])
	if err != nil || minute < 0 || minute > 59 {
		return cronFields{}, false
	}
	hour, err := strconv.Atoi(parts[1])
	if err != nil || hour < 0 || hour > 23 {
		return cronFields{}, false
	}

	f := cronFields{minute: minute, hour: hour, weekday: -1}
	if parts[4] != "*" {
		dow, err := strconv.Atoi(parts[4])
		if err != nil || dow < 0 || dow > 6 {
			return cronFields{}, false
		}
		f.weekday = dow
	}
	return f, true
}

func projectCron(job gateway.Job, start, end time.Time) []Occurrence {
	f, ok := parseCron(job.ScheduleExpr)
	if !ok {
		return nil
	}

	loc := start.Location()
	end = end.In(loc)

	var out []Occurrence
	for day := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, loc); !day.After(end); day = day.AddDate(0, 0, 1) {
		if f.weekday >= 0 && int(day.Weekday()) != f.weekday {
			continue
		}
		at := time.Date(day.Year(), day.Month(), day.Day(), f.hour, f.minute, 0, 0, loc)
		if !inWindow(at, start, end) {
			continue
		}
		out = append(out, newOccurrence(job, at, job.Name, TypeScheduled))
	}
	return out
}

func projectAt(job gateway.Job, at, start, end time.Time, typ string) []Occurrence {
	if !inWindow(at, start, end) {
		return nil
	}
	title := job.Name
	if typ == TypeInterval && job.EveryMs != nil && *job.EveryMs > 0 {
		title = fmt.Sprintf("%s (every %s)", job.Name, FormatInterval(*job.EveryMs))
	}
	return []Occurrence{newOccurrence(job, at, title, typ)}
}

func newOccurrence(job gateway.Job, at time.Time, title, typ string) Occurrence {
	return Occurrence{
		ID:       fmt.Sprintf("%s-%d", job.ID, at.UnixMilli()),
		JobID:    job.ID,
		Title:    title,
		Start:    at,
		End:      at.Add(Duration),
		Type:     typ,
		Status:   StatusOf(job),
		Disabled: !job.Enabled,
		Job:      job,
	}
}

func inWindow(t, start, end time.Time) bool {
	return !t.Before(start) && !t.After(end)
}

// StatusOf maps a job's last run status onto an occurrence status.
func StatusOf(job gateway.Job) string {
	switch job.LastStatus {
	case StatusError:
		return StatusError
	case StatusOK:
		return StatusOK
	default:
		return StatusPending
	}
}

// FormatInterval renders an interval as whole hours ("2h") or, below one
// hour, whole minutes ("15m").
func FormatInterval(ms int64) string {
	d := time.Duration(ms) * time.Millisecond
	if h := int64(d / time.Hour); h > 0 {
		return fmt.Sprintf("%dh", h)
	}
	return fmt.Sprintf("%dm", int64(d/time.Minute))
}

// Describe is a one-line human description of a job's schedule.
func Describe(job gateway.Job, loc *time.Location) string {
	switch {
	case job.ScheduleKind == gateway.ScheduleCron && job.ScheduleExpr != "":
		tz := job.Timezone
		if tz == "" {
			tz = "UTC"
		}
		return fmt.Sprintf("%s (%s)", job.ScheduleExpr, tz)
	case job.ScheduleKind == gateway.ScheduleEvery && job.EveryMs != nil && *job.EveryMs > 0:
		return "Every " + FormatInterval(*job.EveryMs)
	case job.ScheduleKind == gateway.ScheduleOnce && job.OnceAtMs != nil:
		if loc == nil {
			loc = time.Local
		}
		return "Once at " + time.UnixMilli(*job.OnceAtMs).In(loc).Format("2006-01-02 15:04")
	default:
		return "Unknown"
	}
}
