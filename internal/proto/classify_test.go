package proto

import (
	"errors"
	"testing"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		response string
		wantKind Kind
		wantCode int
	}{
		{
			name:     "ERR prefix",
			response: "ERR unknown",
			wantKind: KindErr,
		},
		{
			name:     "embedded ERR token",
			response: "x ERR y",
			wantKind: KindErr,
		},
		{
			name:     "CODE field",
			response: "something failed CODE=4756 while applying",
			wantKind: KindErr,
			wantCode: 4756,
		},
		{
			name:     "lowercase err prefix",
			response: "err: no such chart",
			wantKind: KindErr,
		},
		{
			name:     "lowercase code field",
			response: "failure code=4802",
			wantKind: KindErr,
			wantCode: 4802,
		},
		{
			name:     "plain OK",
			response: "OK|done",
			wantKind: KindOK,
		},
		{
			name:     "ERR without surrounding spaces is not a token match",
			response: "TRANSFERRED 3 items",
			wantKind: KindOK,
		},
		{
			name:     "empty response",
			response: "",
			wantKind: KindOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.response)
			if got.Kind != tt.wantKind {
				t.Errorf("Classify(%q).Kind = %v, want %v", tt.response, got.Kind, tt.wantKind)
			}
			if got.Code != tt.wantCode {
				t.Errorf("Classify(%q).Code = %d, want %d", tt.response, got.Code, tt.wantCode)
			}
			if got.Text != tt.response {
				t.Errorf("Classify(%q).Text = %q, want original text", tt.response, got.Text)
			}
		})
	}
}

func TestResultAsError(t *testing.T) {
	if err := Classify("OK|done").AsError(); err != nil {
		t.Fatalf("AsError() on OK result = %v, want nil", err)
	}

	err := Classify("ERR bad chart CODE=4101").AsError()
	if err == nil {
		t.Fatal("AsError() on error result = nil, want *RemoteError")
	}
	var remote *RemoteError
	if !errors.As(err, &remote) {
		t.Fatalf("AsError() returned %T, want *RemoteError", err)
	}
	if remote.Code != 4101 {
		t.Errorf("remote.Code = %d, want 4101", remote.Code)
	}
}

func TestRequestLine(t *testing.T) {
	r := Request{ID: "abc-123", Type: OpApplyTpl, Params: []string{"EURUSD", "M5", "tpl_0011aabbcc"}}
	want := "abc-123|APPLY_TPL|EURUSD|M5|tpl_0011aabbcc"
	if got := r.Line(); got != want {
		t.Errorf("Line() = %q, want %q", got, want)
	}
}

func TestNewRequestUniqueIDs(t *testing.T) {
	a := NewRequest(OpSnapshot)
	b := NewRequest(OpSnapshot)
	if a.ID == "" || a.ID == b.ID {
		t.Errorf("NewRequest IDs not unique: %q vs %q", a.ID, b.ID)
	}
}
