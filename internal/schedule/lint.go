package schedule

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// standardParser accepts five-field expressions and @descriptors.
var standardParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// LintResult describes how an expression will be treated by Project.
type LintResult struct {
	Expr string `json:"expr"`

	// Valid reports whether the expression is standard cron syntax.
	Valid bool   `json:"valid"`
	Error string `json:"error,omitempty"`

	// Projected reports whether Project will emit occurrences for it.
	Projected bool `json:"projected"`

	Warnings []string `json:"warnings,omitempty"`
}

// Lint checks expr against standard cron syntax and lists the ways the
// projection will differ from a full cron evaluator. It never affects
// projection.
func Lint(expr string) LintResult {
	res := LintResult{Expr: expr, Valid: true}

	if _, err := standardParser.Parse(expr); err != nil {
		res.Valid = false
		res.Error = err.Error()
	}

	_, res.Projected = parseCron(expr)

	parts := strings.Fields(expr)
	if len(parts) < 5 {
		res.Warnings = append(res.Warnings, fmt.Sprintf("expected 5 fields, got %d; no occurrences will be projected", len(parts)))
		return res
	}
	if len(parts) > 5 {
		res.Warnings = append(res.Warnings, fmt.Sprintf("fields after the fifth are ignored: %q", strings.Join(parts[5:], " ")))
	}

	if !single(parts[0], 0, 59) {
		res.Warnings = append(res.Warnings, fmt.Sprintf("minute %q is not a single value 0-59; no occurrences will be projected", parts[0]))
	}
	if !single(parts[1], 0, 23) {
		res.Warnings = append(res.Warnings, fmt.Sprintf("hour %q is not a single value 0-23; no occurrences will be projected", parts[1]))
	}
	if parts[2] != "*" {
		res.Warnings = append(res.Warnings, fmt.Sprintf("day-of-month %q is ignored; the job is shown on every matching weekday", parts[2]))
	}
	if parts[3] != "*" {
		res.Warnings = append(res.Warnings, fmt.Sprintf("month %q is ignored; the job is shown in every month", parts[3]))
	}
	if parts[4] != "*" && !single(parts[4], 0, 6) {
		res.Warnings = append(res.Warnings, fmt.Sprintf("day-of-week %q is not \"*\" or a single value 0-6; no occurrences will be projected", parts[4]))
	}
	return res
}

// Next returns the next activation of expr after t using full cron
// semantics, for comparison with the projected calendar. ok is false when
// expr is not valid cron.
func Next(expr string, t time.Time) (time.Time, bool) {
	sched, err := standardParser.Parse(expr)
	if err != nil {
		return time.Time{}, false
	}
	next := sched.Next(t)
	return next, !next.IsZero()
}

func single(field string, lo, hi int) bool {
	n, err := strconv.Atoi(field)
	return err == nil && n >= lo && n <= hi
}
