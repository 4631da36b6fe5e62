// Package gateway provides a client for the orchestration gateway.
//
// The gateway has spoken three incompatible wire generations: JSON-RPC over
// HTTP, a tool-invocation HTTP wrapper, and a stateful WebSocket session that
// requires a connect handshake. The generation is chosen once from
// configuration; callers see the same Call contract and the same error
// taxonomy whichever Codec is active.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"runtime"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/hashicorp/go-version"
)

const (
	// DefaultBaseURL is used when no gateway URL is configured
	DefaultBaseURL = "http://localhost:8080"

	// DefaultTimeout bounds each call unless overridden per call
	DefaultTimeout = 10 * time.Second

	// maxErrorBody caps how much of a failed HTTP body ends up in an error message
	maxErrorBody = 200
)

// Config holds configuration for the gateway client. It is read once by
// NewClient and never consulted again.
type Config struct {
	// BaseURL is the gateway base URL (e.g., "http://localhost:8080")
	BaseURL string

	// Token is the optional bearer token
	Token string

	// Mode selects the wire generation (default: rpc)
	Mode Mode

	// Timeout is the default per-call timeout (default: 10s)
	Timeout time.Duration

	// HTTPClient is used by the HTTP generations (default: a fresh client)
	HTTPClient *http.Client

	// Dialer is used by the session generation (default: websocket.DefaultDialer settings)
	Dialer *websocket.Dialer

	// ClientID and ClientVersion identify this client in the session handshake
	ClientID      string
	ClientVersion string

	// MinServerVersion, when set, is a version constraint (e.g. ">= 2026.1")
	// the gateway must satisfy during the session handshake
	MinServerVersion string

	// DebugFunc is an optional callback for debug logging
	DebugFunc func(format string, args ...any)
}

// Client issues calls against the gateway. It holds no per-call state, so a
// single Client may be shared by concurrent callers.
type Client struct {
	baseURL    string
	token      string
	codec      Codec
	timeout    time.Duration
	httpClient *http.Client
	dialer     *websocket.Dialer
	clientInfo ClientInfo
	minServer  version.Constraints
	seq        atomic.Uint64

	// Debug callback (optional)
	debugFunc func(format string, args ...any)
}

// NewClient creates a new gateway client.
func NewClient(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Mode == "" {
		cfg.Mode = ModeRPC
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{}
	}
	if cfg.Dialer == nil {
		// The per-call context is the only deadline on the upgrade.
		cfg.Dialer = &websocket.Dialer{
			Proxy: http.ProxyFromEnvironment,
		}
	}
	if cfg.ClientID == "" {
		cfg.ClientID = "gatewatch"
	}
	if cfg.ClientVersion == "" {
		cfg.ClientVersion = "dev"
	}

	codec, err := NewCodec(cfg.Mode)
	if err != nil {
		return nil, err
	}

	var minServer version.Constraints
	if cfg.MinServerVersion != "" {
		minServer, err = version.NewConstraint(cfg.MinServerVersion)
		if err != nil {
			return nil, fmt.Errorf("invalid minimum gateway version %q: %w", cfg.MinServerVersion, err)
		}
	}

	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		token:      cfg.Token,
		codec:      codec,
		timeout:    cfg.Timeout,
		httpClient: cfg.HTTPClient,
		dialer:     cfg.Dialer,
		clientInfo: ClientInfo{
			ID:         cfg.ClientID,
			Version:    cfg.ClientVersion,
			Platform:   runtime.GOOS,
			Mode:       "cli",
			InstanceID: uuid.New().String(),
		},
		minServer: minServer,
		debugFunc: cfg.DebugFunc,
	}, nil
}

// debug logs a message if debug function is configured
func (c *Client) debug(format string, args ...any) {
	if c.debugFunc != nil {
		c.debugFunc(format, args...)
	}
}

// BaseURL returns the gateway base URL without a trailing slash.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Mode returns the active wire generation.
func (c *Client) Mode() Mode {
	return c.codec.Mode()
}

// nextID returns a fresh correlation id. ConnectID is never produced.
func (c *Client) nextID() string {
	return fmt.Sprintf("%s-%d", c.clientInfo.InstanceID[:8], c.seq.Add(1))
}

// Call invokes method with the client's default timeout.
func (c *Client) Call(ctx context.Context, method string, params any) (json.RawMessage, error) {
	return c.CallWithTimeout(ctx, method, params, c.timeout)
}

// CallWithTimeout invokes method and returns its raw JSON result, or a single
// *Error. A non-positive timeout means the client default. The client never
// retries.
func (c *Client) CallWithTimeout(ctx context.Context, method string, params any, timeout time.Duration) (json.RawMessage, error) {
	if timeout <= 0 {
		timeout = c.timeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	var (
		result json.RawMessage
		err    error
	)
	if c.codec.Mode() == ModeWS {
		result, err = c.callSession(ctx, method, params)
	} else {
		result, err = c.callHTTP(ctx, method, params)
	}
	if err != nil {
		var gwErr *Error
		if errors.As(err, &gwErr) && gwErr.Method == "" {
			gwErr.Method = method
		}
		c.debug("gateway: %s %s failed after %v: %v", c.codec.Mode(), method, time.Since(start), err)
		return nil, err
	}

	c.debug("gateway: %s %s ok in %v (%d bytes)", c.codec.Mode(), method, time.Since(start), len(result))
	return result, nil
}

// callHTTP performs one stateless exchange with an HTTP codec.
func (c *Client) callHTTP(ctx context.Context, method string, params any) (json.RawMessage, error) {
	codec := c.codec.(HTTPCodec)

	body, err := codec.Encode("", method, params)
	if err != nil {
		return nil, encodeError(method, err)
	}
	c.debug("request: POST %s - body: %s", codec.Path(), string(body))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+codec.Path(), bytes.NewReader(body))
	if err != nil {
		return nil, newError(KindUnreachable, "failed to create request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, timeoutError(ctx)
		}
		return nil, newError(KindUnreachable, "request failed", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		if ctx.Err() != nil {
			return nil, timeoutError(ctx)
		}
		return nil, newError(KindUnreachable, "failed to read response body", err)
	}

	c.debug("response: %d - %s", resp.StatusCode, truncate(string(respBody), maxErrorBody))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		gwErr := &Error{
			Kind:       KindRemote,
			HTTPStatus: resp.StatusCode,
			Message:    fmt.Sprintf("gateway returned %d: %s", resp.StatusCode, truncate(strings.TrimSpace(string(respBody)), maxErrorBody)),
		}
		// Prefer the gateway's own error message when the body carries one.
		if frame, err := codec.Decode(respBody); err == nil && frame.Err != nil {
			gwErr.Message = fmt.Sprintf("gateway returned %d: %s", resp.StatusCode, frame.Err.Message)
			gwErr.Code = frame.Err.Code
		}
		return nil, gwErr
	}

	frame, err := codec.Decode(respBody)
	if err != nil {
		return nil, err
	}
	if frame.Err != nil {
		return nil, frame.Err
	}
	return frame.Result, nil
}

// callSession opens a socket, handshakes, sends one request and closes.
func (c *Client) callSession(ctx context.Context, method string, params any) (json.RawMessage, error) {
	wsURL, err := sessionURL(c.baseURL)
	if err != nil {
		return nil, newError(KindUnreachable, "invalid gateway URL", err)
	}

	s := newSession(c.debug)
	defer s.close()

	if err := s.dial(ctx, c.dialer, wsURL); err != nil {
		return nil, err
	}

	hello, err := s.handshake(ctx, c.connectParams())
	if err != nil {
		return nil, err
	}
	if err := c.checkHello(hello); err != nil {
		return nil, err
	}

	return s.call(ctx, c.nextID(), method, params)
}

// connectParams builds the handshake payload. The token travels here and
// nowhere else on the session transport.
func (c *Client) connectParams() ConnectParams {
	p := ConnectParams{
		MinProtocol: ProtocolMin,
		MaxProtocol: ProtocolMax,
		Client:      c.clientInfo,
		Role:        DefaultRole,
	}
	if c.token != "" {
		p.Auth = &ConnectAuth{Token: c.token}
	}
	return p
}

// checkHello validates the negotiated protocol and, if configured, the
// gateway version.
func (c *Client) checkHello(hello HelloPayload) error {
	if hello.Protocol != 0 && (hello.Protocol < ProtocolMin || hello.Protocol > ProtocolMax) {
		return newError(KindHandshakeFailed,
			fmt.Sprintf("gateway negotiated protocol %d, client supports %d-%d", hello.Protocol, ProtocolMin, ProtocolMax), nil)
	}
	if c.minServer == nil {
		return nil
	}

	if hello.Server == nil || hello.Server.Version == "" {
		return newError(KindHandshakeFailed, "gateway did not report a version", nil)
	}
	v, err := version.NewVersion(hello.Server.Version)
	if err != nil {
		return newError(KindHandshakeFailed, fmt.Sprintf("gateway reported invalid version %q", hello.Server.Version), err)
	}
	if !c.minServer.Check(v) {
		return newError(KindHandshakeFailed,
			fmt.Sprintf("gateway version %s does not satisfy %s", v, c.minServer), nil)
	}
	return nil
}

// encodeError reports params that cannot be serialized. Nothing was sent.
func encodeError(method string, err error) *Error {
	return newError(KindMalformed, fmt.Sprintf("cannot encode %s request", method), err)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
