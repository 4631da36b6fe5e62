package gateway

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Mode selects which wire generation the client speaks. It is configured,
// never negotiated.
type Mode string

const (
	// ModeRPC posts {method, params} to <base>/rpc
	ModeRPC Mode = "rpc"

	// ModeTools posts {tool, args} to <base>/tools/invoke
	ModeTools Mode = "tools"

	// ModeWS opens a WebSocket session with a connect handshake
	ModeWS Mode = "ws"
)

// ParseMode converts a configuration string into a Mode.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeRPC:
		return ModeRPC, nil
	case ModeTools:
		return ModeTools, nil
	case ModeWS:
		return ModeWS, nil
	default:
		return "", fmt.Errorf("unknown transport mode %q (want rpc, tools or ws)", s)
	}
}

// Frame is a decoded response, normalized across wire generations.
// Exactly one of Result or Err is meaningful.
type Frame struct {
	// ID is the correlation id carried by the frame (empty for HTTP codecs)
	ID string

	// Result is the raw JSON result; nil when the gateway sent none
	Result json.RawMessage

	// Err is set when the gateway reported a logical failure
	Err *Error
}

// Codec encodes requests and decodes responses for one wire generation.
type Codec interface {
	Mode() Mode

	// Encode builds the outbound frame for a call.
	Encode(id, method string, params any) ([]byte, error)

	// Decode parses an inbound frame. A returned error is a *Error of
	// KindMalformed, or errNotResponse for session frames that carry no
	// response.
	Decode(data []byte) (Frame, error)
}

// HTTPCodec is a Codec carried over a single HTTP POST.
type HTTPCodec interface {
	Codec

	// Path is the endpoint path appended to the gateway base URL.
	Path() string
}

// NewCodec returns the codec for mode.
func NewCodec(mode Mode) (Codec, error) {
	switch mode {
	case ModeRPC:
		return HTTPRPCCodec{}, nil
	case ModeTools:
		return ToolInvokeCodec{}, nil
	case ModeWS:
		return WSSessionCodec{}, nil
	default:
		return nil, fmt.Errorf("unknown transport mode %q", mode)
	}
}

// HTTPRPCCodec is the plain JSON-RPC-over-HTTP generation.
type HTTPRPCCodec struct{}

type rpcRequest struct {
	Method string `json:"method"`
	Params any    `json:"params"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result,omitempty"`
	Error  json.RawMessage `json:"error,omitempty"`
}

func (HTTPRPCCodec) Mode() Mode   { return ModeRPC }
func (HTTPRPCCodec) Path() string { return "/rpc" }

func (HTTPRPCCodec) Encode(_ string, method string, params any) ([]byte, error) {
	return json.Marshal(rpcRequest{Method: method, Params: paramsOrEmpty(params)})
}

func (HTTPRPCCodec) Decode(data []byte) (Frame, error) {
	var resp rpcResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return Frame{}, malformed("invalid rpc response", err)
	}
	if !isNull(resp.Error) {
		return Frame{Err: parseRemoteError(resp.Error, "RPC error")}, nil
	}
	return Frame{Result: nullToNil(resp.Result)}, nil
}

// ToolInvokeCodec is the tool-invocation HTTP wrapper generation. Dotted
// method names become underscored tool names.
type ToolInvokeCodec struct{}

type toolRequest struct {
	Tool string `json:"tool"`
	Args any    `json:"args"`
}

type toolResponse struct {
	OK     *bool           `json:"ok"`
	Result *toolResult     `json:"result,omitempty"`
	Error  json.RawMessage `json:"error,omitempty"`
}

type toolResult struct {
	Content []toolContent `json:"content"`
}

type toolContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

func (ToolInvokeCodec) Mode() Mode   { return ModeTools }
func (ToolInvokeCodec) Path() string { return "/tools/invoke" }

// ToolName rewrites a dotted method name into the tool naming convention.
func ToolName(method string) string {
	return strings.ReplaceAll(method, ".", "_")
}

func (ToolInvokeCodec) Encode(_ string, method string, params any) ([]byte, error) {
	return json.Marshal(toolRequest{Tool: ToolName(method), Args: paramsOrEmpty(params)})
}

func (ToolInvokeCodec) Decode(data []byte) (Frame, error) {
	var resp toolResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return Frame{}, malformed("invalid tool response", err)
	}
	if resp.OK == nil {
		if !isNull(resp.Error) {
			return Frame{Err: parseRemoteError(resp.Error, "tool invocation failed")}, nil
		}
		return Frame{}, malformed("tool response missing ok flag", nil)
	}
	if !*resp.OK {
		return Frame{Err: parseRemoteError(resp.Error, "tool invocation failed")}, nil
	}
	if resp.Result == nil || len(resp.Result.Content) == 0 {
		return Frame{}, nil
	}

	// The payload is JSON carried inside a text item. Text that is not JSON
	// is still a valid result and is returned as a string.
	text := resp.Result.Content[0].Text
	if trimmed := bytes.TrimSpace([]byte(text)); len(trimmed) > 0 && json.Valid(trimmed) {
		return Frame{Result: nullToNil(json.RawMessage(trimmed))}, nil
	}
	raw, err := json.Marshal(text)
	if err != nil {
		return Frame{}, malformed("encode text payload", err)
	}
	return Frame{Result: raw}, nil
}

// remoteError is the object form of a gateway error. The code may be a
// number (JSON-RPC) or a string (session protocol).
type remoteError struct {
	Message string          `json:"message"`
	Code    json.RawMessage `json:"code,omitempty"`
	Type    string          `json:"type,omitempty"`
}

// parseRemoteError accepts either a bare string or an error object.
func parseRemoteError(raw json.RawMessage, fallback string) *Error {
	e := &Error{Kind: KindRemote, Message: fallback}
	if isNull(raw) {
		return e
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if s != "" {
			e.Message = s
		}
		return e
	}

	var obj remoteError
	if err := json.Unmarshal(raw, &obj); err == nil {
		if obj.Message != "" {
			e.Message = obj.Message
		}
		if !isNull(obj.Code) {
			var code string
			if err := json.Unmarshal(obj.Code, &code); err == nil {
				e.Code = code
			} else {
				e.Code = string(obj.Code)
			}
		} else if obj.Type != "" {
			e.Code = obj.Type
		}
	}
	return e
}

func malformed(message string, cause error) *Error {
	return newError(KindMalformed, message, cause)
}

func paramsOrEmpty(params any) any {
	if params == nil {
		return struct{}{}
	}
	return params
}

func isNull(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

func nullToNil(raw json.RawMessage) json.RawMessage {
	if isNull(raw) {
		return nil
	}
	return raw
}

// errNotResponse marks session frames that are not responses (events, pings).
var errNotResponse = errors.New("not a response frame")
