package gateway

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParseMode(t *testing.T) {
	tests := []struct {
		input   string
		want    Mode
		wantErr bool
	}{
		{"rpc", ModeRPC, false},
		{"tools", ModeTools, false},
		{"ws", ModeWS, false},
		{" WS ", ModeWS, false},
		{"grpc", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseMode(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseMode(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseMode(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestToolName(t *testing.T) {
	tests := []struct {
		method string
		want   string
	}{
		{"cron.list", "cron_list"},
		{"sessions.list", "sessions_list"},
		{"ping", "ping"},
		{"a.b.c", "a_b_c"},
	}
	for _, tt := range tests {
		if got := ToolName(tt.method); got != tt.want {
			t.Errorf("ToolName(%q) = %q, want %q", tt.method, got, tt.want)
		}
	}
}

func TestHTTPRPCCodecEncode(t *testing.T) {
	data, err := HTTPRPCCodec{}.Encode("ignored", "sessions.list", SessionsListParams{Limit: 10})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	want := `{"method":"sessions.list","params":{"limit":10,"messageLimit":0}}`
	if string(data) != want {
		t.Errorf("Encode = %s, want %s", data, want)
	}

	data, _ = HTTPRPCCodec{}.Encode("", "ping", nil)
	if string(data) != `{"method":"ping","params":{}}` {
		t.Errorf("nil params should encode as {}, got %s", data)
	}
}

func TestHTTPRPCCodecDecode(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantResult string
		wantErrMsg string
		wantCode   string
		malformed  bool
	}{
		{name: "result", body: `{"result":{"ok":true}}`, wantResult: `{"ok":true}`},
		{name: "null result", body: `{"result":null}`},
		{name: "empty object", body: `{}`},
		{name: "error object", body: `{"error":{"message":"boom","code":-32601}}`, wantErrMsg: "boom", wantCode: "-32601"},
		{name: "error without message", body: `{"error":{}}`, wantErrMsg: "RPC error"},
		{name: "error string", body: `{"error":"nope"}`, wantErrMsg: "nope"},
		{name: "null error is ignored", body: `{"result":1,"error":null}`, wantResult: `1`},
		{name: "not json", body: `<html>`, malformed: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			frame, err := HTTPRPCCodec{}.Decode([]byte(tt.body))
			if tt.malformed {
				if !errors.Is(err, ErrMalformedResponse) {
					t.Fatalf("expected malformed error, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Decode: %v", err)
			}
			if tt.wantErrMsg != "" {
				if frame.Err == nil {
					t.Fatalf("expected remote error, got result %s", frame.Result)
				}
				if frame.Err.Message != tt.wantErrMsg {
					t.Errorf("message = %q, want %q", frame.Err.Message, tt.wantErrMsg)
				}
				if frame.Err.Code != tt.wantCode {
					t.Errorf("code = %q, want %q", frame.Err.Code, tt.wantCode)
				}
				if !errors.Is(frame.Err, ErrRemote) {
					t.Error("remote error should match ErrRemote")
				}
				return
			}
			if frame.Err != nil {
				t.Fatalf("unexpected remote error: %v", frame.Err)
			}
			if string(frame.Result) != tt.wantResult {
				t.Errorf("result = %s, want %s", frame.Result, tt.wantResult)
			}
		})
	}
}

func TestToolInvokeCodecEncode(t *testing.T) {
	data, err := ToolInvokeCodec{}.Encode("", "cron.list", CronListParams{IncludeDisabled: true})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	want := `{"tool":"cron_list","args":{"includeDisabled":true}}`
	if string(data) != want {
		t.Errorf("Encode = %s, want %s", data, want)
	}
}

func TestToolInvokeCodecDecode(t *testing.T) {
	t.Run("json text payload", func(t *testing.T) {
		body := `{"ok":true,"result":{"content":[{"type":"text","text":"{\"jobs\":[]}"}]}}`
		frame, err := ToolInvokeCodec{}.Decode([]byte(body))
		if err != nil {
			t.Fatalf("Decode: %v", err)
		}
		if string(frame.Result) != `{"jobs":[]}` {
			t.Errorf("result = %s", frame.Result)
		}
	})

	t.Run("non-json text is returned verbatim", func(t *testing.T) {
		body := `{"ok":true,"result":{"content":[{"type":"text","text":"not json"}]}}`
		frame, err := ToolInvokeCodec{}.Decode([]byte(body))
		if err != nil {
			t.Fatalf("Decode: %v", err)
		}
		if frame.Err != nil {
			t.Fatalf("unexpected remote error: %v", frame.Err)
		}
		var s string
		if err := json.Unmarshal(frame.Result, &s); err != nil {
			t.Fatalf("result should be a JSON string, got %s", frame.Result)
		}
		if s != "not json" {
			t.Errorf("result = %q, want %q", s, "not json")
		}
	})

	t.Run("only first content item is used", func(t *testing.T) {
		body := `{"ok":true,"result":{"content":[{"type":"text","text":"1"},{"type":"text","text":"2"}]}}`
		frame, _ := ToolInvokeCodec{}.Decode([]byte(body))
		if string(frame.Result) != "1" {
			t.Errorf("result = %s, want 1", frame.Result)
		}
	})

	t.Run("null text payload", func(t *testing.T) {
		body := `{"ok":true,"result":{"content":[{"type":"text","text":" null "}]}}`
		frame, err := ToolInvokeCodec{}.Decode([]byte(body))
		if err != nil || frame.Err != nil || frame.Result != nil {
			t.Errorf("expected nil result, got %+v, %v", frame, err)
		}
	})

	t.Run("no content", func(t *testing.T) {
		frame, err := ToolInvokeCodec{}.Decode([]byte(`{"ok":true,"result":{"content":[]}}`))
		if err != nil || frame.Err != nil || frame.Result != nil {
			t.Errorf("expected empty result, got %+v, %v", frame, err)
		}
	})

	t.Run("ok false with string error", func(t *testing.T) {
		frame, err := ToolInvokeCodec{}.Decode([]byte(`{"ok":false,"error":"tool not found"}`))
		if err != nil {
			t.Fatalf("Decode: %v", err)
		}
		if frame.Err == nil || frame.Err.Message != "tool not found" {
			t.Errorf("expected remote error 'tool not found', got %+v", frame.Err)
		}
	})

	t.Run("ok false with error object", func(t *testing.T) {
		frame, _ := ToolInvokeCodec{}.Decode([]byte(`{"ok":false,"error":{"type":"not_found","message":"Tool not available"}}`))
		if frame.Err == nil || frame.Err.Message != "Tool not available" || frame.Err.Code != "not_found" {
			t.Errorf("unexpected error %+v", frame.Err)
		}
	})

	t.Run("missing ok flag", func(t *testing.T) {
		_, err := ToolInvokeCodec{}.Decode([]byte(`{"result":{}}`))
		if !errors.Is(err, ErrMalformedResponse) {
			t.Errorf("expected malformed, got %v", err)
		}
	})
}

func TestWSSessionCodec(t *testing.T) {
	data, err := WSSessionCodec{}.Encode("abc-1", "cron.list", CronListParams{})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	var req RequestFrame
	if err := json.Unmarshal(data, &req); err != nil {
		t.Fatalf("unmarshal request: %v", err)
	}
	want := RequestFrame{Type: "req", ID: "abc-1", Method: "cron.list", Params: map[string]any{"includeDisabled": false}}
	if diff := cmp.Diff(want, req); diff != "" {
		t.Errorf("request frame mismatch (-want +got):\n%s", diff)
	}

	tests := []struct {
		name        string
		body        string
		wantID      string
		wantResult  string
		wantErr     string
		notResponse bool
	}{
		{name: "payload", body: `{"type":"res","id":"x","ok":true,"payload":{"a":1}}`, wantID: "x", wantResult: `{"a":1}`},
		{name: "result", body: `{"type":"res","id":"y","result":[1,2]}`, wantID: "y", wantResult: `[1,2]`},
		{name: "error", body: `{"type":"res","id":"z","ok":false,"error":{"code":"INVALID_REQUEST","message":"bad"}}`, wantID: "z", wantErr: "bad"},
		{name: "ok false without error", body: `{"type":"res","id":"z","ok":false}`, wantID: "z", wantErr: "request failed"},
		{name: "event", body: `{"type":"event","event":"tick"}`, notResponse: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			frame, err := WSSessionCodec{}.Decode([]byte(tt.body))
			if tt.notResponse {
				if !errors.Is(err, errNotResponse) {
					t.Fatalf("expected errNotResponse, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Decode: %v", err)
			}
			if frame.ID != tt.wantID {
				t.Errorf("id = %q, want %q", frame.ID, tt.wantID)
			}
			if tt.wantErr != "" {
				if frame.Err == nil || frame.Err.Message != tt.wantErr {
					t.Errorf("error = %+v, want message %q", frame.Err, tt.wantErr)
				}
				return
			}
			if string(frame.Result) != tt.wantResult {
				t.Errorf("result = %s, want %s", frame.Result, tt.wantResult)
			}
		})
	}
}

func TestErrorIs(t *testing.T) {
	err := &Error{Kind: KindTimeout, Method: "ping"}
	if !errors.Is(err, ErrTimeout) {
		t.Error("timeout error should match ErrTimeout")
	}
	if errors.Is(err, ErrRemote) {
		t.Error("timeout error should not match ErrRemote")
	}
	if KindOf(err) != KindTimeout {
		t.Errorf("KindOf = %v", KindOf(err))
	}
	if KindOf(errors.New("other")) != 0 {
		t.Error("KindOf on foreign error should be 0")
	}
	if got := err.Error(); got != "ping: gateway call timed out" {
		t.Errorf("Error() = %q", got)
	}
}
