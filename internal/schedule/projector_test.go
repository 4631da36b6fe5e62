package schedule

import (
	"testing"
	"time"

	"github.com/aceteam-ai/gatewatch/internal/gateway"
)

// 2026-10-12 is a Monday.
var (
	monday   = time.Date(2026, 10, 12, 0, 0, 0, 0, time.UTC)
	weekEnd  = time.Date(2026, 10, 18, 23, 59, 59, int(999*time.Millisecond), time.UTC)
	thursday = time.Date(2026, 10, 15, 13, 45, 0, 0, time.UTC)
)

func ms(t time.Time) *int64 {
	v := t.UnixMilli()
	return &v
}

func cronJob(expr string) gateway.Job {
	return gateway.Job{ID: "j1", Name: "digest", Enabled: true, ScheduleKind: gateway.ScheduleCron, ScheduleExpr: expr, Timezone: "UTC"}
}

func TestProjectCronWeekday(t *testing.T) {
	start, end := WeekWindow(thursday)

	got := Project(cronJob("0 9 * * 1"), start, end)
	if len(got) != 1 {
		t.Fatalf("expected 1 occurrence, got %d: %+v", len(got), got)
	}

	o := got[0]
	wantStart := time.Date(2026, 10, 12, 9, 0, 0, 0, time.UTC)
	if !o.Start.Equal(wantStart) {
		t.Errorf("start = %v, want %v", o.Start, wantStart)
	}
	if !o.End.Equal(wantStart.Add(time.Hour)) {
		t.Errorf("end = %v, want 10:00", o.End)
	}
	if o.Type != TypeScheduled || o.Title != "digest" || o.JobID != "j1" {
		t.Errorf("unexpected occurrence %+v", o)
	}
	if o.ID != "j1-1791795600000" {
		t.Errorf("id = %q", o.ID)
	}
}

func TestProjectCronEveryDay(t *testing.T) {
	got := Project(cronJob("30 14 * * *"), monday, weekEnd)
	if len(got) != 7 {
		t.Fatalf("expected 7 occurrences, got %d", len(got))
	}
	for i, o := range got {
		want := time.Date(2026, 10, 12+i, 14, 30, 0, 0, time.UTC)
		if !o.Start.Equal(want) {
			t.Errorf("occurrence %d start = %v, want %v", i, o.Start, want)
		}
		if i > 0 && !o.Start.After(got[i-1].Start) {
			t.Errorf("occurrences not chronological at %d", i)
		}
	}
}

func TestProjectCronMalformed(t *testing.T) {
	tests := []struct {
		name string
		expr string
	}{
		{"non-numeric fields", "x y * * *"},
		{"too few fields", "0 9 * *"},
		{"empty", ""},
		{"hour out of range", "0 24 * * *"},
		{"minute out of range", "60 9 * * *"},
		{"step minute", "*/5 * * * *"},
		{"weekday range", "0 9 * * 1-5"},
		{"weekday out of range", "0 9 * * 7"},
		{"weekday name", "0 9 * * MON"},
		{"descriptor", "@daily"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Project(cronJob(tt.expr), monday, weekEnd)
			if len(got) != 0 {
				t.Errorf("Project(%q) = %d occurrences, want none", tt.expr, len(got))
			}
		})
	}
}

func TestProjectCronIgnoresDayOfMonthAndMonth(t *testing.T) {
	// Only January 1st under full cron; projected every day here.
	got := Project(cronJob("0 9 1 1 *"), monday, weekEnd)
	if len(got) != 7 {
		t.Errorf("expected 7 occurrences with day-of-month and month ignored, got %d", len(got))
	}
}

func TestProjectCronRespectsWindowBounds(t *testing.T) {
	start := monday.Add(10 * time.Hour)
	end := monday.Add(24*time.Hour + 9*time.Hour)

	got := Project(cronJob("0 9 * * *"), start, end)
	if len(got) != 1 {
		t.Fatalf("expected only Tuesday 09:00 (inclusive end), got %d", len(got))
	}
	if want := time.Date(2026, 10, 13, 9, 0, 0, 0, time.UTC); !got[0].Start.Equal(want) {
		t.Errorf("start = %v, want %v", got[0].Start, want)
	}
}

func TestProjectCronUsesWindowLocation(t *testing.T) {
	zone := time.FixedZone("UTC+2", 2*60*60)
	start, end := WeekWindow(time.Date(2026, 10, 14, 12, 0, 0, 0, zone))

	got := Project(cronJob("0 9 * * 1"), start, end)
	if len(got) != 1 {
		t.Fatalf("expected 1 occurrence, got %d", len(got))
	}
	if got[0].Start.Hour() != 9 || got[0].Start.Location() != zone {
		t.Errorf("start = %v, want 09:00 in the window's zone", got[0].Start)
	}
	if want := time.Date(2026, 10, 12, 7, 0, 0, 0, time.UTC); !got[0].Start.Equal(want) {
		t.Errorf("start = %v, want %v", got[0].Start.UTC(), want)
	}
}

func TestProjectEvery(t *testing.T) {
	base := gateway.Job{ID: "hb", Name: "backup", Enabled: true, ScheduleKind: gateway.ScheduleEvery, EveryMs: ptr(int64(2 * time.Hour / time.Millisecond))}

	inside := base
	inside.NextRunAtMs = ms(thursday)
	got := Project(inside, monday, weekEnd)
	if len(got) != 1 {
		t.Fatalf("expected 1 occurrence, got %d", len(got))
	}
	if !got[0].Start.Equal(thursday) {
		t.Errorf("start = %v, want %v", got[0].Start, thursday)
	}
	if got[0].Title != "backup (every 2h)" || got[0].Type != TypeInterval {
		t.Errorf("unexpected occurrence %+v", got[0])
	}

	outside := base
	outside.NextRunAtMs = ms(weekEnd.Add(time.Millisecond))
	if got := Project(outside, monday, weekEnd); len(got) != 0 {
		t.Errorf("expected none outside the window, got %d", len(got))
	}

	if got := Project(base, monday, weekEnd); len(got) != 0 {
		t.Errorf("expected none without nextRunAtMs, got %d", len(got))
	}
}

func TestProjectInclusiveBounds(t *testing.T) {
	for _, at := range []time.Time{monday, weekEnd} {
		job := gateway.Job{ID: "o", Name: "launch", ScheduleKind: gateway.ScheduleOnce, OnceAtMs: ms(at)}
		got := Project(job, monday, weekEnd)
		if len(got) != 1 {
			t.Errorf("once at %v: expected 1 occurrence, got %d", at, len(got))
			continue
		}
		if got[0].Type != TypeOneshot || !got[0].End.Equal(got[0].Start.Add(time.Hour)) {
			t.Errorf("unexpected occurrence %+v", got[0])
		}
	}
}

func TestProjectOnce(t *testing.T) {
	job := gateway.Job{ID: "o", Name: "launch", ScheduleKind: gateway.ScheduleOnce}
	if got := Project(job, monday, weekEnd); len(got) != 0 {
		t.Errorf("expected none without onceAtMs, got %d", len(got))
	}

	job.OnceAtMs = ms(monday.Add(-time.Millisecond))
	if got := Project(job, monday, weekEnd); len(got) != 0 {
		t.Errorf("expected none before the window, got %d", len(got))
	}
}

func TestProjectInvertedWindow(t *testing.T) {
	if got := Project(cronJob("0 9 * * *"), weekEnd, monday); got != nil {
		t.Errorf("expected nil for an inverted window, got %v", got)
	}
}

func TestProjectUnknownKind(t *testing.T) {
	job := gateway.Job{ID: "u", ScheduleKind: "hourly", NextRunAtMs: ms(thursday)}
	if got := Project(job, monday, weekEnd); len(got) != 0 {
		t.Errorf("expected none for unknown kind, got %d", len(got))
	}
}

func TestProjectStatusAndDisabled(t *testing.T) {
	tests := []struct {
		lastStatus string
		enabled    bool
		want       string
	}{
		{"ok", true, StatusOK},
		{"error", true, StatusError},
		{"", true, StatusPending},
		{"skipped", false, StatusPending},
		{"error", false, StatusError},
	}
	for _, tt := range tests {
		job := cronJob("0 9 * * 1")
		job.LastStatus = tt.lastStatus
		job.Enabled = tt.enabled

		got := Project(job, monday, weekEnd)
		if len(got) != 1 {
			t.Fatalf("disabled jobs must still project; got %d occurrences", len(got))
		}
		if got[0].Status != tt.want {
			t.Errorf("lastStatus %q: status = %q, want %q", tt.lastStatus, got[0].Status, tt.want)
		}
		if got[0].Disabled == tt.enabled {
			t.Errorf("enabled=%v: disabled flag = %v", tt.enabled, got[0].Disabled)
		}
	}
}

func TestProjectAllAndGroupByDay(t *testing.T) {
	jobs := []gateway.Job{
		cronJob("0 9 * * 1"),
		{ID: "o", Name: "launch", ScheduleKind: gateway.ScheduleOnce, OnceAtMs: ms(monday.Add(18 * time.Hour))},
		{ID: "e", Name: "sync", ScheduleKind: gateway.ScheduleEvery, NextRunAtMs: ms(thursday)},
		cronJob("bogus"),
	}

	all := ProjectAll(jobs, monday, weekEnd)
	if len(all) != 3 {
		t.Fatalf("expected 3 occurrences, got %d", len(all))
	}

	days := GroupByDay(all, time.UTC)
	if len(days["2026-10-12"]) != 2 {
		t.Errorf("Monday bucket = %d, want 2", len(days["2026-10-12"]))
	}
	if len(days["2026-10-15"]) != 1 || days["2026-10-15"][0].JobID != "e" {
		t.Errorf("Thursday bucket = %+v", days["2026-10-15"])
	}

	// 18:00 UTC Monday is already Tuesday at UTC+8.
	shifted := GroupByDay(all, time.FixedZone("UTC+8", 8*60*60))
	if len(shifted["2026-10-13"]) != 1 {
		t.Errorf("expected the evening occurrence on Tuesday at UTC+8, got %v", shifted)
	}
}

func TestWeekWindow(t *testing.T) {
	tests := []struct {
		name string
		in   time.Time
	}{
		{"monday midnight", monday},
		{"thursday", thursday},
		{"sunday night", time.Date(2026, 10, 18, 23, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end := WeekWindow(tt.in)
			if !start.Equal(monday) {
				t.Errorf("start = %v, want %v", start, monday)
			}
			if !end.Equal(weekEnd) {
				t.Errorf("end = %v, want %v", end, weekEnd)
			}
		})
	}
}

func TestFormatInterval(t *testing.T) {
	tests := []struct {
		ms   int64
		want string
	}{
		{2 * 60 * 60 * 1000, "2h"},
		{90 * 60 * 1000, "1h"},
		{15 * 60 * 1000, "15m"},
		{30 * 1000, "0m"},
	}
	for _, tt := range tests {
		if got := FormatInterval(tt.ms); got != tt.want {
			t.Errorf("FormatInterval(%d) = %q, want %q", tt.ms, got, tt.want)
		}
	}
}

func TestDescribe(t *testing.T) {
	tests := []struct {
		job  gateway.Job
		want string
	}{
		{cronJob("0 9 * * 1"), "0 9 * * 1 (UTC)"},
		{gateway.Job{ScheduleKind: gateway.ScheduleEvery, EveryMs: ptr(int64(900000))}, "Every 15m"},
		{gateway.Job{ScheduleKind: gateway.ScheduleOnce, OnceAtMs: ms(thursday)}, "Once at 2026-10-15 13:45"},
		{gateway.Job{ScheduleKind: gateway.ScheduleEvery}, "Unknown"},
	}
	for _, tt := range tests {
		if got := Describe(tt.job, time.UTC); got != tt.want {
			t.Errorf("Describe = %q, want %q", got, tt.want)
		}
	}
}

func ptr[T any](v T) *T { return &v }
