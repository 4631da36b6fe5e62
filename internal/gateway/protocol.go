// internal/gateway/protocol.go
package gateway

import "encoding/json"

// Frame types on the session socket
const (
	// FrameTypeRequest is sent from client to gateway
	FrameTypeRequest = "req"

	// FrameTypeResponse answers a request with the same id
	FrameTypeResponse = "res"

	// FrameTypeEvent is unsolicited gateway traffic; the client ignores it
	FrameTypeEvent = "event"
)

// Handshake constants
const (
	// ConnectID is the correlation id reserved for the handshake request
	ConnectID = "connect"

	// ConnectMethod is the handshake method name
	ConnectMethod = "connect"

	// ProtocolMin and ProtocolMax bound the session protocol versions this client speaks
	ProtocolMin = 3
	ProtocolMax = 3

	// DefaultRole is the role the client asks for in the handshake
	DefaultRole = "operator"
)

// RequestFrame is an outbound session request.
type RequestFrame struct {
	Type   string `json:"type"`
	ID     string `json:"id"`
	Method string `json:"method"`
	Params any    `json:"params,omitempty"`
}

// ResponseFrame is an inbound session frame. Gateways answer with either
// payload or result; both are accepted.
type ResponseFrame struct {
	Type    string          `json:"type"`
	ID      string          `json:"id,omitempty"`
	OK      *bool           `json:"ok,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   json.RawMessage `json:"error,omitempty"`
	Event   string          `json:"event,omitempty"`
}

// ConnectParams is the handshake payload, sent once per connection.
type ConnectParams struct {
	MinProtocol int          `json:"minProtocol"`
	MaxProtocol int          `json:"maxProtocol"`
	Client      ClientInfo   `json:"client"`
	Role        string       `json:"role"`
	Auth        *ConnectAuth `json:"auth,omitempty"`
}

// ClientInfo identifies this client to the gateway.
type ClientInfo struct {
	ID         string `json:"id"`
	Version    string `json:"version"`
	Platform   string `json:"platform"`
	Mode       string `json:"mode"`
	InstanceID string `json:"instanceId"`
}

// ConnectAuth carries the bearer token for the session.
type ConnectAuth struct {
	Token string `json:"token"`
}

// HelloPayload is the successful handshake response.
type HelloPayload struct {
	Protocol int         `json:"protocol,omitempty"`
	Server   *ServerInfo `json:"server,omitempty"`
}

// ServerInfo describes the gateway build.
type ServerInfo struct {
	Version string `json:"version,omitempty"`
	ConnID  string `json:"connId,omitempty"`
}

// WSSessionCodec is the stateful WebSocket session generation.
type WSSessionCodec struct{}

func (WSSessionCodec) Mode() Mode { return ModeWS }

func (WSSessionCodec) Encode(id, method string, params any) ([]byte, error) {
	return json.Marshal(RequestFrame{
		Type:   FrameTypeRequest,
		ID:     id,
		Method: method,
		Params: paramsOrEmpty(params),
	})
}

func (WSSessionCodec) Decode(data []byte) (Frame, error) {
	var f ResponseFrame
	if err := json.Unmarshal(data, &f); err != nil {
		return Frame{}, malformed("invalid session frame", err)
	}
	if f.Type != FrameTypeResponse {
		return Frame{}, errNotResponse
	}
	if !isNull(f.Error) || (f.OK != nil && !*f.OK) {
		return Frame{ID: f.ID, Err: parseRemoteError(f.Error, "request failed")}, nil
	}
	result := f.Payload
	if isNull(result) {
		result = f.Result
	}
	return Frame{ID: f.ID, Result: nullToNil(result)}, nil
}
