package dashboard

import (
	"github.com/aceteam-ai/gatewatch/internal/gateway"
	"github.com/aceteam-ai/gatewatch/internal/schedule"
)

// ErrGatewayMessage is the error text returned when the gateway call fails.
const ErrGatewayMessage = "Failed to connect to gateway"

// HealthResponse is returned by GET /api/health.
type HealthResponse struct {
	Status    string               `json:"status"`
	Timestamp int64                `json:"timestamp"`
	Version   string               `json:"version,omitempty"`
	Gateway   gateway.HealthStatus `json:"gateway"`
}

// JobsResponse is returned by GET /api/cron.
type JobsResponse struct {
	Jobs  []gateway.Job `json:"jobs"`
	Error string        `json:"error,omitempty"`
}

// UsageResponse is returned by GET /api/usage.
type UsageResponse struct {
	TodayTokens int64   `json:"todayTokens"`
	TodayCost   float64 `json:"todayCost"`
	Sessions    int     `json:"sessions"`
	Error       string  `json:"error,omitempty"`
}

// SessionView is one flattened row of GET /api/activity.
type SessionView struct {
	ID               string  `json:"id"`
	CreatedAt        *int64  `json:"createdAt,omitempty"`
	UpdatedAt        *int64  `json:"updatedAt,omitempty"`
	Status           string  `json:"status"`
	Model            string  `json:"model,omitempty"`
	TotalTokens      int64   `json:"totalTokens"`
	PromptTokens     int64   `json:"promptTokens"`
	CompletionTokens int64   `json:"completionTokens"`
	Cost             float64 `json:"cost"`
	MessageCount     int64   `json:"messageCount"`
}

// ActivityResponse is returned by GET /api/activity.
type ActivityResponse struct {
	Sessions []SessionView `json:"sessions"`
	Error    string        `json:"error,omitempty"`
}

// CalendarResponse is returned by GET /api/calendar.
type CalendarResponse struct {
	Start int64                            `json:"start"`
	End   int64                            `json:"end"`
	Days  map[string][]schedule.Occurrence `json:"days"`

	// Lint lists cron jobs whose calendar differs from full cron semantics
	Lint  map[string]schedule.LintResult `json:"lint,omitempty"`
	Error string                         `json:"error,omitempty"`
}

// NewSessionView flattens a session, defaulting the status to "unknown".
func NewSessionView(s gateway.Session) SessionView {
	v := SessionView{
		ID:           s.ID,
		CreatedAt:    s.CreatedAt,
		UpdatedAt:    s.UpdatedAt,
		Status:       s.Status,
		Model:        s.Model,
		TotalTokens:  s.Tokens(),
		Cost:         s.CostTotal(),
		MessageCount: s.MessageCount,
	}
	if v.Status == "" {
		v.Status = "unknown"
	}
	if s.Usage != nil {
		if s.Usage.PromptTokens != nil {
			v.PromptTokens = *s.Usage.PromptTokens
		}
		if s.Usage.CompletionTokens != nil {
			v.CompletionTokens = *s.Usage.CompletionTokens
		}
	}
	return v
}
