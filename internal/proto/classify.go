package proto

import (
	"fmt"
	"regexp"
	"strings"
)

// Kind tags a classified bridge response.
type Kind int

const (
	// KindOK indicates a successful response.
	KindOK Kind = iota
	// KindErr indicates the bridge reported a failure.
	KindErr
)

// String returns the string representation of Kind.
func (k Kind) String() string {
	switch k {
	case KindOK:
		return "ok"
	case KindErr:
		return "error"
	default:
		return "unknown"
	}
}

// Result is a classified bridge response. Code is zero when the response
// carried no CODE= field.
type Result struct {
	Kind Kind
	Text string
	Code int
}

// OK reports whether the response was classified as success.
func (r Result) OK() bool { return r.Kind == KindOK }

var codeRe = regexp.MustCompile(`(?i)CODE=(\d+)`)

// Classify decides success or error from a raw response string.
//
// The bridge's error vocabulary is not formally specified, so this is
// deliberately permissive-but-simple: a response is an error if,
// case-insensitively, it starts with "ERR", contains " ERR ", or contains
// "CODE=". Nothing else is inspected.
func Classify(response string) Result {
	upper := strings.ToUpper(response)

	isErr := strings.HasPrefix(upper, "ERR") ||
		strings.Contains(upper, " ERR ") ||
		strings.Contains(upper, "CODE=")

	res := Result{Kind: KindOK, Text: response}
	if !isErr {
		return res
	}
	res.Kind = KindErr
	if m := codeRe.FindStringSubmatch(response); m != nil {
		// Digits only per the regexp; ignore overflow-sized garbage.
		fmt.Sscanf(m[1], "%d", &res.Code)
	}
	return res
}

// RemoteError is a classified bridge failure surfaced to the caller.
type RemoteError struct {
	Response string
	Code     int
}

// Error implements the error interface.
func (e *RemoteError) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("bridge error (code %d): %s", e.Code, e.Response)
	}
	return fmt.Sprintf("bridge error: %s", e.Response)
}

// AsError converts an error-kind result into a *RemoteError, or nil for OK.
func (r Result) AsError() error {
	if r.OK() {
		return nil
	}
	return &RemoteError{Response: r.Text, Code: r.Code}
}
