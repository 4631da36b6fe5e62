package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Remote methods consumed by gatewatch
const (
	MethodPing         = "ping"
	MethodSessionsList = "sessions.list"
	MethodCronList     = "cron.list"
)

// Gateway reachability, as reported by Health
const (
	HealthConnected   = "connected"
	HealthUnreachable = "unreachable"
)

// PingTimeout bounds the liveness probe.
const PingTimeout = 3 * time.Second

// SessionsListParams is the parameter object for sessions.list.
type SessionsListParams struct {
	Limit        int `json:"limit"`
	MessageLimit int `json:"messageLimit"`
}

// CronListParams is the parameter object for cron.list.
type CronListParams struct {
	IncludeDisabled bool `json:"includeDisabled"`
}

// HealthStatus classifies gateway reachability.
type HealthStatus struct {
	URL    string `json:"url"`
	Status string `json:"status"`
}

// Ping sends a liveness probe.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.CallWithTimeout(ctx, MethodPing, struct{}{}, PingTimeout)
	return err
}

// Health pings the gateway and classifies the outcome. An HTTP error status
// is reported as "error:<status>"; a gateway that answered with a logical
// error is still reachable.
func (c *Client) Health(ctx context.Context) HealthStatus {
	status := HealthStatus{URL: c.baseURL, Status: HealthConnected}

	err := c.Ping(ctx)
	if err == nil {
		return status
	}

	var gwErr *Error
	switch {
	case !errors.As(err, &gwErr):
		status.Status = HealthUnreachable
	case gwErr.HTTPStatus != 0:
		status.Status = fmt.Sprintf("error:%d", gwErr.HTTPStatus)
	case gwErr.Kind == KindRemote:
		status.Status = HealthConnected
	default:
		status.Status = HealthUnreachable
	}
	return status
}

// ListSessions fetches recent sessions.
func (c *Client) ListSessions(ctx context.Context, limit, messageLimit int) ([]Session, error) {
	raw, err := c.Call(ctx, MethodSessionsList, SessionsListParams{Limit: limit, MessageLimit: messageLimit})
	if err != nil {
		return nil, err
	}

	var result struct {
		Sessions []Session `json:"sessions"`
	}
	if err := decodeResult(raw, &result); err != nil {
		return nil, &Error{Kind: KindMalformed, Method: MethodSessionsList, Message: "unexpected sessions.list result", Err: err}
	}
	if result.Sessions == nil {
		result.Sessions = []Session{}
	}
	return result.Sessions, nil
}

// ListJobs fetches job definitions, normalized to the flat Job shape.
func (c *Client) ListJobs(ctx context.Context, includeDisabled bool) ([]Job, error) {
	raw, err := c.Call(ctx, MethodCronList, CronListParams{IncludeDisabled: includeDisabled})
	if err != nil {
		return nil, err
	}

	var result struct {
		Jobs []Job `json:"jobs"`
	}
	if err := decodeResult(raw, &result); err != nil {
		return nil, &Error{Kind: KindMalformed, Method: MethodCronList, Message: "unexpected cron.list result", Err: err}
	}
	if result.Jobs == nil {
		result.Jobs = []Job{}
	}
	return result.Jobs, nil
}

// decodeResult unmarshals a call result; an absent result leaves v untouched.
func decodeResult(raw json.RawMessage, v any) error {
	if isNull(raw) {
		return nil
	}
	return json.Unmarshal(raw, v)
}
