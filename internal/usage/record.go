package usage

import (
	"time"

	"github.com/aceteam-ai/gatewatch/internal/gateway"
)

// Record is a stored snapshot of one gateway session's usage.
type Record struct {
	// Database ID (set after insert)
	ID int64

	SessionID string
	Status    string
	Model     string

	// Zero when the gateway did not report them
	CreatedAt time.Time
	UpdatedAt time.Time

	// TotalTokens is authoritative; the split may be missing
	PromptTokens     int64
	CompletionTokens int64
	TotalTokens      int64

	Cost         float64
	MessageCount int64

	// When this snapshot was last written
	SyncedAt time.Time
}

// FromSession flattens a gateway session into a Record. Missing numbers
// become zero and a missing status becomes "unknown".
func FromSession(s gateway.Session) Record {
	r := Record{
		SessionID:    s.ID,
		Status:       s.Status,
		Model:        s.Model,
		TotalTokens:  s.Tokens(),
		Cost:         s.CostTotal(),
		MessageCount: s.MessageCount,
	}
	if r.Status == "" {
		r.Status = "unknown"
	}
	if s.CreatedAt != nil {
		r.CreatedAt = time.UnixMilli(*s.CreatedAt).UTC()
	}
	if s.UpdatedAt != nil {
		r.UpdatedAt = time.UnixMilli(*s.UpdatedAt).UTC()
	}
	if s.Usage != nil {
		if s.Usage.PromptTokens != nil {
			r.PromptTokens = *s.Usage.PromptTokens
		}
		if s.Usage.CompletionTokens != nil {
			r.CompletionTokens = *s.Usage.CompletionTokens
		}
	}
	return r
}

// LastActive is UpdatedAt, falling back to CreatedAt.
func (r Record) LastActive() time.Time {
	if !r.UpdatedAt.IsZero() {
		return r.UpdatedAt
	}
	return r.CreatedAt
}
