package gateway

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func ptr[T any](v T) *T { return &v }

func TestJobUnmarshal(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want Job
	}{
		{
			name: "flat shape",
			in:   `{"id":"a","name":"A","enabled":true,"scheduleKind":"every","everyMs":60000,"nextRunAtMs":5,"lastStatus":"ok"}`,
			want: Job{ID: "a", Name: "A", Enabled: true, ScheduleKind: ScheduleEvery, EveryMs: ptr[int64](60000), NextRunAtMs: ptr[int64](5), LastStatus: "ok", Timezone: "UTC"},
		},
		{
			name: "nested shape wins",
			in: `{"id":"b","scheduleKind":"every","schedule":{"kind":"once","atMs":1700000000000},
			      "state":{"lastRunAtMs":10,"lastStatus":"error","lastError":"boom"},
			      "payload":{"kind":"agentTurn","text":"hello"}}`,
			want: Job{ID: "b", ScheduleKind: ScheduleOnce, OnceAtMs: ptr[int64](1700000000000), LastRunAtMs: ptr[int64](10),
				LastStatus: "error", LastError: "boom", PayloadKind: "agentTurn", PayloadText: "hello", Timezone: "UTC"},
		},
		{
			name: "wrong types are absent",
			in:   `{"id":7,"name":"c","enabled":"yes","schedule":"0 9 * * *","state":[1,2]}`,
			want: Job{Name: "c", Timezone: "UTC"},
		},
		{
			name: "numeric strings are accepted",
			in:   `{"id":"d","schedule":{"kind":"every","everyMs":"3600000"}}`,
			want: Job{ID: "d", ScheduleKind: ScheduleEvery, EveryMs: ptr[int64](3600000), Timezone: "UTC"},
		},
		{
			name: "not an object",
			in:   `"job"`,
			want: Job{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got Job
			if err := json.Unmarshal([]byte(tt.in), &got); err != nil {
				t.Fatalf("Unmarshal: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("job mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

// The dashboard serves jobs with the default encoding; decoding it again
// must not lose fields.
func TestJobDecodesDefaultEncoding(t *testing.T) {
	want := Job{
		ID:           "j1",
		Name:         "digest",
		Enabled:      true,
		ScheduleKind: ScheduleCron,
		ScheduleExpr: "0 9 * * 1",
		Timezone:     "Europe/Berlin",
		NextRunAtMs:  ptr(int64(1791795600000)),
		LastRunAtMs:  ptr(int64(1791190800000)),
		LastStatus:   "error",
		LastError:    "exit 1",
		PayloadKind:  "agentTurn",
		PayloadText:  "summarize",
	}

	data, err := json.Marshal(want)
	if err != nil {
		t.Fatal(err)
	}
	var got Job
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("decoded job mismatch (-want +got):\n%s", diff)
	}
}

func TestSessionUnmarshal(t *testing.T) {
	var sessions []Session
	in := `[
		{"id":"s1","status":"active","model":"m","createdAt":1000,"usage":{"totalTokens":100,"cost":{"total":0.01}}},
		{"id":"s2","usage":{"totalTokens":"50"}},
		{"id":"s3","usage":"n/a"},
		42
	]`
	if err := json.Unmarshal([]byte(in), &sessions); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if len(sessions) != 4 {
		t.Fatalf("got %d sessions", len(sessions))
	}

	if sessions[0].Tokens() != 100 || sessions[0].CostTotal() != 0.01 || *sessions[0].CreatedAt != 1000 {
		t.Errorf("s1 = %+v", sessions[0])
	}
	if sessions[1].Tokens() != 50 || sessions[1].CostTotal() != 0 {
		t.Errorf("s2 tokens=%d cost=%v", sessions[1].Tokens(), sessions[1].CostTotal())
	}
	if sessions[2].Usage != nil || sessions[2].Tokens() != 0 {
		t.Errorf("s3 usage should be absent, got %+v", sessions[2].Usage)
	}
	if diff := cmp.Diff(Session{}, sessions[3]); diff != "" {
		t.Errorf("non-object record should decode to zero value:\n%s", diff)
	}
}
