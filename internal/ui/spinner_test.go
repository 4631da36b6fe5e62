package ui

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func TestSpinnerWithoutAnimation(t *testing.T) {
	var buf bytes.Buffer
	s := NewSpinner()
	s.SetWriter(&buf)

	s.Start("Fetching jobs")
	s.Success("Fetched 3 jobs")
	s.Success("ignored after stop")

	out := buf.String()
	if !strings.Contains(out, "Fetched 3 jobs") {
		t.Errorf("missing final message in %q", out)
	}
	if strings.Contains(out, "ignored") || strings.Contains(out, "\r") {
		t.Errorf("unexpected output %q", out)
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{1500 * time.Millisecond, "1.5s"},
		{75 * time.Second, "1m15s"},
	}
	for _, tt := range tests {
		if got := formatDuration(tt.in); got != tt.want {
			t.Errorf("formatDuration(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
