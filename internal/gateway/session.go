package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// SessionState is the lifecycle state of a session connection.
type SessionState int

const (
	StateIdle SessionState = iota
	StateConnecting
	StateHandshaking
	StateReady
	StateAwaiting
	StateClosed
	StateFailed
)

func (s SessionState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateHandshaking:
		return "handshaking"
	case StateReady:
		return "ready"
	case StateAwaiting:
		return "awaiting"
	case StateClosed:
		return "closed"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// session owns one socket for the lifetime of a single call. It awaits at
// most one correlation id at a time; frames carrying any other id are
// dropped, and a delivered frame clears the awaited id so nothing can be
// resolved twice.
type session struct {
	codec WSSessionCodec
	conn  *websocket.Conn
	debug func(format string, args ...any)

	mu         sync.Mutex
	state      SessionState
	awaitID    string
	handshaken bool
	closeErr   error

	replies   chan Frame
	closed    chan struct{}
	closeOnce sync.Once
	readDone  chan struct{}
}

func newSession(debug func(format string, args ...any)) *session {
	return &session{
		debug:    debug,
		state:    StateIdle,
		replies:  make(chan Frame, 1),
		closed:   make(chan struct{}),
		readDone: make(chan struct{}),
	}
}

// State returns the current lifecycle state.
func (s *session) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *session) setState(state SessionState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	// Terminal states are sticky.
	if s.state == StateClosed || s.state == StateFailed {
		return
	}
	s.state = state
}

// sessionURL converts an HTTP base URL to the session socket URL.
func sessionURL(baseURL string) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", err
	}

	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	case "http":
		u.Scheme = "ws"
	case "ws", "wss":
	default:
		return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if u.Path == "" {
		u.Path = "/"
	}

	return u.String(), nil
}

func (s *session) dial(ctx context.Context, dialer *websocket.Dialer, wsURL string) error {
	s.setState(StateConnecting)
	s.debug("ws: connecting to %s", wsURL)

	conn, resp, err := dialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		s.setState(StateFailed)
		if ctx.Err() != nil {
			return timeoutError(ctx)
		}
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return newError(KindTimeout, "websocket upgrade timed out", err)
		}
		if resp != nil {
			return newError(KindUnreachable, fmt.Sprintf("websocket connection failed with status %d", resp.StatusCode), err)
		}
		return newError(KindUnreachable, "websocket connection failed", err)
	}

	s.conn = conn
	go s.readLoop()
	return nil
}

// readLoop runs until the socket is closed by either side.
func (s *session) readLoop() {
	defer close(s.readDone)

	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			s.markClosed(err)
			return
		}

		frame, err := s.codec.Decode(data)
		if err != nil {
			if !errors.Is(err, errNotResponse) {
				s.debug("ws: ignoring undecodable frame: %v", err)
			}
			continue
		}
		s.deliver(frame)
	}
}

func (s *session) deliver(f Frame) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.awaitID == "" || f.ID != s.awaitID {
		s.debug("ws: ignoring frame id=%q (awaiting %q)", f.ID, s.awaitID)
		return
	}
	s.awaitID = ""

	select {
	case s.replies <- f:
	default:
	}
}

func (s *session) markClosed(err error) {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.closeErr = err
		s.awaitID = ""
		if s.state != StateClosed {
			s.state = StateFailed
		}
		s.mu.Unlock()
		close(s.closed)
	})
}

// expire forgets the awaited id so a late frame cannot resolve it.
func (s *session) expire() {
	s.mu.Lock()
	s.awaitID = ""
	s.mu.Unlock()
}

func (s *session) closedError() *Error {
	s.mu.Lock()
	handshaken, cause := s.handshaken, s.closeErr
	s.mu.Unlock()

	if !handshaken {
		return newError(KindClosedEarly, "", cause)
	}
	return newError(KindClosed, "", cause)
}

// roundTrip sends one request and waits for the frame answering it.
func (s *session) roundTrip(ctx context.Context, id, method string, params any) (Frame, error) {
	data, err := s.codec.Encode(id, method, params)
	if err != nil {
		return Frame{}, encodeError(method, err)
	}

	s.mu.Lock()
	if s.state == StateClosed || s.state == StateFailed {
		s.mu.Unlock()
		return Frame{}, s.closedError()
	}
	s.awaitID = id
	s.mu.Unlock()

	if deadline, ok := ctx.Deadline(); ok {
		s.conn.SetWriteDeadline(deadline)
	}
	if err := s.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		s.expire()
		if ctx.Err() != nil {
			return Frame{}, timeoutError(ctx)
		}
		return Frame{}, s.closedError()
	}
	s.debug("ws: sent %s id=%s", method, id)

	select {
	case f := <-s.replies:
		return f, nil
	case <-s.closed:
		// A reply may have landed just before the close.
		select {
		case f := <-s.replies:
			return f, nil
		default:
		}
		return Frame{}, s.closedError()
	case <-ctx.Done():
		s.expire()
		return Frame{}, timeoutError(ctx)
	}
}

// handshake performs the connect exchange. No application request may be
// sent before it succeeds.
func (s *session) handshake(ctx context.Context, params ConnectParams) (HelloPayload, error) {
	s.setState(StateHandshaking)

	f, err := s.roundTrip(ctx, ConnectID, ConnectMethod, params)
	if err != nil {
		s.setState(StateFailed)
		return HelloPayload{}, err
	}
	if f.Err != nil {
		s.setState(StateFailed)
		return HelloPayload{}, &Error{
			Kind:    KindHandshakeFailed,
			Message: f.Err.Message,
			Code:    f.Err.Code,
		}
	}

	var hello HelloPayload
	if !isNull(f.Result) {
		if err := json.Unmarshal(f.Result, &hello); err != nil {
			s.setState(StateFailed)
			return HelloPayload{}, newError(KindHandshakeFailed, "invalid handshake response", err)
		}
	}

	s.mu.Lock()
	s.handshaken = true
	s.mu.Unlock()
	s.setState(StateReady)
	return hello, nil
}

// call sends an application request over a ready session.
func (s *session) call(ctx context.Context, id, method string, params any) (json.RawMessage, error) {
	s.setState(StateAwaiting)

	f, err := s.roundTrip(ctx, id, method, params)
	if err != nil {
		s.setState(StateFailed)
		return nil, err
	}
	s.setState(StateReady)

	if f.Err != nil {
		return nil, f.Err
	}
	return f.Result, nil
}

// close releases the socket and waits for the read loop to exit.
func (s *session) close() {
	s.mu.Lock()
	s.state = StateClosed
	s.awaitID = ""
	s.mu.Unlock()

	if s.conn == nil {
		return
	}

	err := s.conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second),
	)
	if err != nil && !errors.Is(err, websocket.ErrCloseSent) {
		s.debug("ws: error sending close message: %v", err)
	}
	s.conn.Close()
	<-s.readDone
}

func timeoutError(ctx context.Context) *Error {
	err := ctx.Err()
	if errors.Is(err, context.Canceled) {
		return newError(KindTimeout, "call cancelled", err)
	}
	return newError(KindTimeout, "call timed out", err)
}
