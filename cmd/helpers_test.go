// cmd/helpers_test.go
package cmd

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"

	"github.com/aceteam-ai/gatewatch/internal/config"
	"github.com/aceteam-ai/gatewatch/internal/schedule"
)

func TestParseCallParams(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    string
		wantErr bool
	}{
		{"no params", []string{"ping"}, `{}`, false},
		{"empty params", []string{"ping", ""}, `{}`, false},
		{"object", []string{"sessions.list", `{"limit":5}`}, `{"limit":5}`, false},
		{"array", []string{"ping", `[1,2]`}, "", true},
		{"null", []string{"ping", `null`}, "", true},
		{"not json", []string{"ping", `limit=5`}, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseCallParams(tt.args)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseCallParams() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && string(got) != tt.want {
				t.Errorf("parseCallParams() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestParseWeek(t *testing.T) {
	now := time.Date(2026, 10, 17, 15, 0, 0, 0, time.UTC)

	got, err := parseWeek("", now, time.UTC)
	if err != nil || !got.Equal(now) {
		t.Errorf("parseWeek(\"\") = %v, %v", got, err)
	}

	got, err = parseWeek("2026-10-12", now, time.UTC)
	if err != nil {
		t.Fatalf("parseWeek: %v", err)
	}
	if want := time.Date(2026, 10, 12, 0, 0, 0, 0, time.UTC); !got.Equal(want) {
		t.Errorf("parseWeek = %v, want %v", got, want)
	}

	if _, err := parseWeek("12/10/2026", now, time.UTC); err == nil {
		t.Error("expected error for a non-ISO date")
	}
}

func TestRenderCalendar(t *testing.T) {
	start := time.Date(2026, 10, 12, 0, 0, 0, 0, time.UTC)
	late := schedule.Occurrence{
		Title:  "digest",
		Start:  start.Add(9 * time.Hour),
		End:    start.Add(10 * time.Hour),
		Type:   schedule.TypeScheduled,
		Status: schedule.StatusOK,
	}
	early := schedule.Occurrence{
		Title:    "backup (every 2h)",
		Start:    start.Add(7 * time.Hour),
		End:      start.Add(8 * time.Hour),
		Type:     schedule.TypeInterval,
		Status:   schedule.StatusPending,
		Disabled: true,
	}
	days := map[string][]schedule.Occurrence{"2026-10-12": {late, early}}

	out := renderCalendar(start, days)

	for _, want := range []string{
		"Week of Mon Oct 12, 2026",
		"Mon 2026-10-12",
		"Sun 2026-10-18",
		"09:00-10:00  digest",
		"07:00-08:00  backup (every 2h)",
		"[interval]",
		"(disabled)",
		"2 run(s) this week",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("calendar output missing %q:\n%s", want, out)
		}
	}
	if strings.Index(out, "07:00") > strings.Index(out, "09:00") {
		t.Error("runs within a day should be in chronological order")
	}
	if strings.Count(out, "no runs") != 6 {
		t.Errorf("expected 6 empty days:\n%s", out)
	}
}

func TestCommandLineMasksToken(t *testing.T) {
	cmd := &cobra.Command{Use: "call"}
	cmd.Flags().String("token", "", "")
	cmd.Flags().Bool("json", false, "")
	cmd.Flags().Bool("debug", false, "")
	for name, value := range map[string]string{"token": "s3cret", "json": "true", "debug": "true"} {
		if err := cmd.Flags().Set(name, value); err != nil {
			t.Fatal(err)
		}
	}

	got := commandLine(cmd, []string{"ping"})
	if want := "gatewatch call --json --token=*** ping"; got != want {
		t.Errorf("commandLine = %q, want %q", got, want)
	}
}

func TestDebugLogFileIsClosed(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	prevLogger, prevDebug := logger, debugMode
	t.Cleanup(func() {
		logger, debugMode = prevLogger, prevDebug
	})

	debugMode = true
	initLogger()
	if debugLogFile == nil {
		t.Fatal("debug log file was not opened")
	}
	f := debugLogFile

	Debug("hello %s", "gateway")
	closeDebugLog()

	if debugLogFile != nil {
		t.Error("debug log handle should be cleared after close")
	}
	if _, err := f.Write([]byte("x")); err == nil {
		t.Error("debug log file should be closed")
	}

	data, err := os.ReadFile(filepath.Join(home, ".gatewatch", "logs", "debug.log"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "hello gateway") {
		t.Errorf("debug.log = %q", data)
	}

	// Logging after close must not touch the closed file.
	Debug("after close")
	closeDebugLog()
}

func TestRenderConfigRedactsToken(t *testing.T) {
	cfg := config.Default()
	cfg.Token = "s3cret"

	out, err := renderConfig(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(out, "s3cret") {
		t.Errorf("token leaked:\n%s", out)
	}
	if !strings.Contains(out, "gateway_url: "+config.DefaultGatewayURL) {
		t.Errorf("missing gateway_url:\n%s", out)
	}
}

func TestFormatters(t *testing.T) {
	if got := shortID("sess-1"); got != "sess-1" {
		t.Errorf("shortID short = %q", got)
	}
	if got := shortID("0123456789abcdef"); got != "0123456789ab…" {
		t.Errorf("shortID long = %q", got)
	}
	if got := formatCost(0.01); got != "$0.0100" {
		t.Errorf("formatCost = %q", got)
	}
	if got := formatTokens(1234567); got != "1,234,567" {
		t.Errorf("formatTokens = %q", got)
	}
	if got := relativeMs(nil); got != "-" {
		t.Errorf("relativeMs(nil) = %q", got)
	}
	ms := time.Now().Add(-3 * time.Hour).UnixMilli()
	if got := relativeMs(&ms); got != "3 hours ago" {
		t.Errorf("relativeMs = %q", got)
	}
}
