package output

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/quantrig/bridgecli/internal/attach"
	"github.com/quantrig/bridgecli/internal/command"
	"github.com/quantrig/bridgecli/internal/paths"
	"github.com/quantrig/bridgecli/internal/proto"
	"github.com/quantrig/bridgecli/internal/transport"
)

func newFormatter(jsonMode bool) (*Formatter, *bytes.Buffer, *bytes.Buffer) {
	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}
	return &Formatter{JSON: jsonMode, Out: out, ErrOut: errOut}, out, errOut
}

func decodeEnvelope(t *testing.T, out *bytes.Buffer) map[string]any {
	t.Helper()
	var env map[string]any
	if err := json.Unmarshal(out.Bytes(), &env); err != nil {
		t.Fatalf("output is not one JSON object: %v\n%s", err, out.String())
	}
	return env
}

func TestSuccessPlain(t *testing.T) {
	f, out, errOut := newFormatter(false)
	if code := f.Success("OK|done"); code != ExitOK {
		t.Errorf("exit code = %d, want %d", code, ExitOK)
	}
	if out.String() != "OK|done\n" {
		t.Errorf("stdout = %q", out.String())
	}
	if errOut.Len() != 0 {
		t.Errorf("stderr = %q, want empty", errOut.String())
	}
}

func TestSuccessJSON(t *testing.T) {
	f, out, _ := newFormatter(true)
	f.Success("OK|done")
	env := decodeEnvelope(t, out)
	if env["kind"] != "ok" || env["result"] != "OK|done" {
		t.Errorf("envelope = %v", env)
	}
}

func TestSuccessStepsPlain(t *testing.T) {
	f, out, _ := newFormatter(false)
	f.SuccessSteps([]string{"OK|1", "OK|2"})
	if out.String() != "OK|1\nOK|2\n" {
		t.Errorf("stdout = %q", out.String())
	}
}

func TestFailureKinds(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantKind string
	}{
		{"parse", &command.ParseError{Msg: "bad", Usage: "add ..."}, "parse_error"},
		{"transport", &transport.Error{Addr: "h:9000", Err: errors.New("refused")}, "transport_error"},
		{"timeout", &transport.Error{Addr: "h:9000", Timeout: true, Err: errors.New("deadline")}, "transport_timeout"},
		{"remote", &proto.RemoteError{Response: "ERR x CODE=4301", Code: 4301}, "remote_error"},
		{"verify", &attach.VerificationError{Expert: "MyEA", Symbol: "EURUSD", Timeframe: "M5", Attempts: 2}, "ea_not_attached"},
		{"resolve", &paths.ResolutionError{Query: "x", Root: "/data"}, "path_error"},
		{"wrapped remote", fmt.Errorf("step 2: %w", &proto.RemoteError{Response: "ERR y", Code: 0}), "remote_error"},
		{"unknown", errors.New("boom"), "error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, out, _ := newFormatter(true)
			if code := f.Failure(tt.err); code != ExitFailure {
				t.Errorf("exit code = %d, want %d", code, ExitFailure)
			}
			env := decodeEnvelope(t, out)
			if env["kind"] != tt.wantKind {
				t.Errorf("kind = %v, want %q", env["kind"], tt.wantKind)
			}
		})
	}
}

func TestFailurePlainParseShowsUsage(t *testing.T) {
	f, _, errOut := newFormatter(false)
	f.Failure(&command.ParseError{Msg: "add needs exactly one indicator name", Usage: "add [SYMBOL TF] NAME"})
	got := errOut.String()
	if !strings.Contains(got, "usage: add [SYMBOL TF] NAME") {
		t.Errorf("stderr = %q, want usage line", got)
	}
}

func TestFailureRemoteCodeHints(t *testing.T) {
	f, _, errOut := newFormatter(false)
	f.Failure(&proto.RemoteError{Response: "ERR cannot create indicator CODE=4802", Code: 4802})
	got := errOut.String()
	if !strings.Contains(got, "Suggested actions:") {
		t.Errorf("stderr = %q, want hint block for code 4802", got)
	}
	if !strings.Contains(got, "MQL5/Indicators") {
		t.Errorf("stderr = %q, want path-convention reminder", got)
	}
}

func TestFailureUnknownCodeNoHints(t *testing.T) {
	f, _, errOut := newFormatter(false)
	f.Failure(&proto.RemoteError{Response: "ERR odd CODE=1", Code: 1})
	if strings.Contains(errOut.String(), "Suggested actions:") {
		t.Errorf("stderr = %q, want no hint block for unknown code", errOut.String())
	}
}

func TestFailureJSONIncludesCodeAndHints(t *testing.T) {
	f, out, _ := newFormatter(true)
	f.Failure(&proto.RemoteError{Response: "ERR cannot create indicator CODE=4802", Code: 4802})
	env := decodeEnvelope(t, out)
	if env["code"] != float64(4802) {
		t.Errorf("code = %v, want 4802", env["code"])
	}
	if hints, ok := env["hints"].([]any); !ok || len(hints) == 0 {
		t.Errorf("hints = %v, want non-empty", env["hints"])
	}
}
