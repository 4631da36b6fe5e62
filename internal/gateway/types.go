package gateway

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// ScheduleKind selects which schedule field of a Job is meaningful.
type ScheduleKind string

const (
	ScheduleCron  ScheduleKind = "cron"
	ScheduleEvery ScheduleKind = "every"
	ScheduleOnce  ScheduleKind = "once"
)

// Job is a scheduled job definition as reported by cron.list. Exactly one
// of ScheduleExpr, EveryMs and OnceAtMs is meaningful, selected by
// ScheduleKind.
type Job struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	Enabled      bool         `json:"enabled"`
	ScheduleKind ScheduleKind `json:"scheduleKind"`
	ScheduleExpr string       `json:"scheduleExpr,omitempty"`
	Timezone     string       `json:"timezone,omitempty"`
	EveryMs      *int64       `json:"everyMs,omitempty"`
	OnceAtMs     *int64       `json:"onceAtMs,omitempty"`

	// NextRunAtMs is computed by the gateway and is advisory
	NextRunAtMs *int64 `json:"nextRunAtMs,omitempty"`
	LastRunAtMs *int64 `json:"lastRunAtMs,omitempty"`
	LastStatus  string `json:"lastStatus,omitempty"` // "ok", "error" or empty
	LastError   string `json:"lastError,omitempty"`

	PayloadKind string `json:"payloadKind,omitempty"`
	PayloadText string `json:"payloadText,omitempty"`
}

// UnmarshalJSON accepts both the gateway's nested job shape
// ({schedule:{kind,expr,everyMs,atMs,tz}, state:{...}, payload:{...}}) and
// the default flat JSON encoding. Fields of the wrong type are
// treated as absent.
func (j *Job) UnmarshalJSON(data []byte) error {
	*j = Job{}
	obj := objectOf(data)
	if obj == nil {
		return nil
	}

	j.ID = stringOf(obj["id"])
	j.Name = stringOf(obj["name"])
	j.Enabled = boolOf(obj["enabled"])

	// Flat fields first; nested fields win when present.
	j.ScheduleKind = ScheduleKind(stringOf(obj["scheduleKind"]))
	j.ScheduleExpr = stringOf(obj["scheduleExpr"])
	j.Timezone = stringOf(obj["timezone"])
	j.EveryMs = int64Of(obj["everyMs"])
	j.OnceAtMs = int64Of(obj["onceAtMs"])
	j.NextRunAtMs = int64Of(obj["nextRunAtMs"])
	j.LastRunAtMs = int64Of(obj["lastRunAtMs"])
	j.LastStatus = stringOf(obj["lastStatus"])
	j.LastError = stringOf(obj["lastError"])
	j.PayloadKind = stringOf(obj["payloadKind"])
	j.PayloadText = stringOf(obj["payloadText"])

	if sched := objectOf(obj["schedule"]); sched != nil {
		if kind := stringOf(sched["kind"]); kind != "" {
			j.ScheduleKind = ScheduleKind(kind)
		}
		if expr := stringOf(sched["expr"]); expr != "" {
			j.ScheduleExpr = expr
		}
		if v := int64Of(sched["everyMs"]); v != nil {
			j.EveryMs = v
		}
		if v := int64Of(sched["atMs"]); v != nil {
			j.OnceAtMs = v
		}
		if tz := stringOf(sched["tz"]); tz != "" {
			j.Timezone = tz
		}
	}
	if state := objectOf(obj["state"]); state != nil {
		if v := int64Of(state["nextRunAtMs"]); v != nil {
			j.NextRunAtMs = v
		}
		if v := int64Of(state["lastRunAtMs"]); v != nil {
			j.LastRunAtMs = v
		}
		if s := stringOf(state["lastStatus"]); s != "" {
			j.LastStatus = s
		}
		if s := stringOf(state["lastError"]); s != "" {
			j.LastError = s
		}
	}
	if payload := objectOf(obj["payload"]); payload != nil {
		if kind := stringOf(payload["kind"]); kind != "" {
			j.PayloadKind = kind
		}
		text := stringOf(payload["text"])
		if text == "" {
			text = stringOf(payload["message"])
		}
		if text != "" {
			j.PayloadText = text
		}
	}

	if j.Timezone == "" {
		j.Timezone = "UTC"
	}
	return nil
}

// Session is one session record from sessions.list.
type Session struct {
	ID           string `json:"id"`
	CreatedAt    *int64 `json:"createdAt,omitempty"`
	UpdatedAt    *int64 `json:"updatedAt,omitempty"`
	Status       string `json:"status,omitempty"`
	Model        string `json:"model,omitempty"`
	Usage        *Usage `json:"usage,omitempty"`
	MessageCount int64  `json:"messageCount,omitempty"`
}

// Usage holds token and cost counters. TotalTokens is authoritative even
// when the prompt and completion counts are absent.
type Usage struct {
	TotalTokens      *int64 `json:"totalTokens,omitempty"`
	PromptTokens     *int64 `json:"promptTokens,omitempty"`
	CompletionTokens *int64 `json:"completionTokens,omitempty"`
	Cost             *Cost  `json:"cost,omitempty"`
}

// Cost is a monetary amount. Values are not exact beyond 4 decimal digits.
type Cost struct {
	Total *float64 `json:"total,omitempty"`
}

// UnmarshalJSON decodes a session leniently: a record that is not an object
// decodes to the zero Session, and fields of the wrong type are absent.
func (s *Session) UnmarshalJSON(data []byte) error {
	*s = Session{}
	obj := objectOf(data)
	if obj == nil {
		return nil
	}

	s.ID = stringOf(obj["id"])
	s.CreatedAt = int64Of(obj["createdAt"])
	s.UpdatedAt = int64Of(obj["updatedAt"])
	s.Status = stringOf(obj["status"])
	s.Model = stringOf(obj["model"])
	if n := int64Of(obj["messageCount"]); n != nil {
		s.MessageCount = *n
	}

	if u := objectOf(obj["usage"]); u != nil {
		usage := &Usage{
			TotalTokens:      int64Of(u["totalTokens"]),
			PromptTokens:     int64Of(u["promptTokens"]),
			CompletionTokens: int64Of(u["completionTokens"]),
		}
		if c := objectOf(u["cost"]); c != nil {
			usage.Cost = &Cost{Total: float64Of(c["total"])}
		}
		s.Usage = usage
	}
	return nil
}

// Tokens returns the authoritative total token count, 0 when absent.
func (s Session) Tokens() int64 {
	if s.Usage == nil || s.Usage.TotalTokens == nil {
		return 0
	}
	return *s.Usage.TotalTokens
}

// CostTotal returns the session cost, 0 when absent.
func (s Session) CostTotal() float64 {
	if s.Usage == nil || s.Usage.Cost == nil || s.Usage.Cost.Total == nil {
		return 0
	}
	return *s.Usage.Cost.Total
}

func objectOf(raw json.RawMessage) map[string]json.RawMessage {
	if isNull(raw) {
		return nil
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil
	}
	return obj
}

func stringOf(raw json.RawMessage) string {
	var s string
	if isNull(raw) || json.Unmarshal(raw, &s) != nil {
		return ""
	}
	return s
}

func boolOf(raw json.RawMessage) bool {
	var b bool
	if isNull(raw) || json.Unmarshal(raw, &b) != nil {
		return false
	}
	return b
}

// float64Of accepts JSON numbers and numeric strings.
func float64Of(raw json.RawMessage) *float64 {
	if isNull(raw) {
		return nil
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil
		}
		return &f
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if f, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
			return &f
		}
	}
	return nil
}

// int64Of accepts integral and fractional numbers (truncated) and numeric strings.
func int64Of(raw json.RawMessage) *int64 {
	if isNull(raw) {
		return nil
	}
	var n int64
	if err := json.Unmarshal(raw, &n); err == nil {
		return &n
	}
	f := float64Of(raw)
	if f == nil || *f > math.MaxInt64 || *f < math.MinInt64 {
		return nil
	}
	n = int64(*f)
	return &n
}
