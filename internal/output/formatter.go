package output

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/quantrig/bridgecli/internal/attach"
	"github.com/quantrig/bridgecli/internal/command"
	"github.com/quantrig/bridgecli/internal/paths"
	"github.com/quantrig/bridgecli/internal/proto"
	"github.com/quantrig/bridgecli/internal/transport"
)

// Exit codes. Every failure class maps to 1; partial results never change
// the code.
const (
	ExitOK      = 0
	ExitFailure = 1
)

// Formatter renders results and errors as either plain text or one JSON
// envelope per invocation. All output paths funnel through it so the exit
// code is decided in exactly one place.
type Formatter struct {
	JSON   bool
	Out    io.Writer
	ErrOut io.Writer
}

// envelope is the single JSON object emitted per invocation in JSON mode.
type envelope struct {
	Kind   string   `json:"kind"`
	Result string   `json:"result,omitempty"`
	Steps  []string `json:"steps,omitempty"`
	Error  string   `json:"error,omitempty"`
	Code   int      `json:"code,omitempty"`
	Usage  string   `json:"usage,omitempty"`
	Hints  []string `json:"hints,omitempty"`
}

// Success renders a single-response result and returns the exit code.
func (f *Formatter) Success(text string) int {
	if f.JSON {
		f.emit(envelope{Kind: "ok", Result: text})
		return ExitOK
	}
	if text != "" {
		fmt.Fprintln(f.Out, text)
	}
	return ExitOK
}

// SuccessSteps renders a multi-step result, one response per step.
func (f *Formatter) SuccessSteps(responses []string) int {
	if f.JSON {
		f.emit(envelope{Kind: "ok", Steps: responses})
		return ExitOK
	}
	for _, r := range responses {
		fmt.Fprintln(f.Out, r)
	}
	return ExitOK
}

// Failure classifies err, renders it and returns the exit code.
func (f *Formatter) Failure(err error) int {
	env := classify(err)
	if f.JSON {
		f.emit(env)
		return ExitFailure
	}

	fmt.Fprintln(f.ErrOut, "error: "+env.Error)
	if env.Usage != "" {
		fmt.Fprintln(f.ErrOut, "usage: "+env.Usage)
	}
	if len(env.Hints) > 0 {
		fmt.Fprintln(f.ErrOut, "\nSuggested actions:")
		for _, hint := range env.Hints {
			fmt.Fprintln(f.ErrOut, "  → "+hint)
		}
	}
	return ExitFailure
}

func (f *Formatter) emit(env envelope) {
	enc := json.NewEncoder(f.Out)
	if err := enc.Encode(env); err != nil {
		fmt.Fprintln(f.ErrOut, "error: "+env.Error)
	}
}

// classify maps the error taxonomy onto envelope kinds.
func classify(err error) envelope {
	var parseErr *command.ParseError
	if errors.As(err, &parseErr) {
		return envelope{Kind: "parse_error", Error: parseErr.Msg, Usage: parseErr.Usage}
	}

	var transportErr *transport.Error
	if errors.As(err, &transportErr) {
		kind := "transport_error"
		if transportErr.Timeout {
			kind = "transport_timeout"
		}
		return envelope{Kind: kind, Error: transportErr.Error()}
	}

	var remoteErr *proto.RemoteError
	if errors.As(err, &remoteErr) {
		return envelope{
			Kind:  "remote_error",
			Error: remoteErr.Response,
			Code:  remoteErr.Code,
			Hints: hintsForCode(remoteErr.Code),
		}
	}

	var verifyErr *attach.VerificationError
	if errors.As(err, &verifyErr) {
		return envelope{
			Kind:  "ea_not_attached",
			Error: verifyErr.Error(),
			Hints: []string{
				"Check the Experts tab in the terminal for EA init errors",
				"Confirm automated trading is enabled in the terminal",
			},
		}
	}

	var resolveErr *paths.ResolutionError
	if errors.As(err, &resolveErr) {
		return envelope{
			Kind:  "path_error",
			Error: resolveErr.Error(),
			Hints: []string{
				"Verify the terminal data directory setting points at the right installation",
				"Compiled files must sit under MQL5/Indicators or MQL5/Experts",
			},
		}
	}

	return envelope{Kind: "error", Error: err.Error()}
}
