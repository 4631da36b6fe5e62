// internal/ui/spinner.go
package ui

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/fatih/color"
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// Spinner shows progress for a single gateway round trip on stderr. When
// color output is disabled (pipes, --no-color) it stays silent until Stop.
type Spinner struct {
	mu        sync.Mutex
	message   string
	running   bool
	animated  bool
	done      chan struct{}
	stopped   chan struct{}
	writer    io.Writer
	startTime time.Time
}

// NewSpinner creates a spinner writing to stderr.
func NewSpinner() *Spinner {
	return &Spinner{writer: os.Stderr, animated: !color.NoColor}
}

// SetWriter sets the output writer and disables animation.
func (s *Spinner) SetWriter(w io.Writer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writer = w
	s.animated = false
}

// Start begins the spinner animation with a message
func (s *Spinner) Start(message string) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.message = message
	s.running = true
	s.done = make(chan struct{})
	s.stopped = make(chan struct{})
	s.startTime = time.Now()
	animated := s.animated
	s.mu.Unlock()

	if animated {
		go s.animate()
	} else {
		close(s.stopped)
	}
}

// Stop stops the spinner and optionally shows a final message
func (s *Spinner) Stop(finalMessage string) {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	close(s.done)
	s.mu.Unlock()

	<-s.stopped
	if s.animated {
		s.clearLine()
	}
	if finalMessage != "" {
		fmt.Fprintln(s.writer, finalMessage)
	}
}

// Success stops with a green checkmark
func (s *Spinner) Success(message string) {
	s.Stop(color.GreenString("✓") + " " + message)
}

// Fail stops with a red X
func (s *Spinner) Fail(message string) {
	s.Stop(color.RedString("✗") + " " + message)
}

func (s *Spinner) animate() {
	defer close(s.stopped)

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for frame := 0; ; frame++ {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.mu.Lock()
			message := s.message
			elapsed := time.Since(s.startTime)
			s.mu.Unlock()

			s.clearLine()
			var timeStr string
			if elapsed > time.Second {
				timeStr = color.HiBlackString(" (%s)", formatDuration(elapsed))
			}
			fmt.Fprintf(s.writer, "%s %s%s", color.CyanString(spinnerFrames[frame%len(spinnerFrames)]), message, timeStr)
		}
	}
}

func (s *Spinner) clearLine() {
	fmt.Fprint(s.writer, "\r\033[K")
}

func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	minutes := int(d.Minutes())
	seconds := int(d.Seconds()) % 60
	return fmt.Sprintf("%dm%ds", minutes, seconds)
}

// RunWithSpinner executes fn while showing a spinner
func RunWithSpinner(message string, fn func() error) error {
	spinner := NewSpinner()
	spinner.Start(message)
	if err := fn(); err != nil {
		spinner.Fail(message + " - failed")
		return err
	}
	spinner.Success(message)
	return nil
}
