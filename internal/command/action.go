package command

import "strings"

// Action is one parsed command. Every variant re-serializes to a canonical
// token form via Tokens(); parsing those tokens again yields an equal Action.
type Action interface {
	Tokens() []string
}

// Send is a single wire request: a protocol message type plus its positional
// parameters. Param order is protocol-defined; no named fields cross the wire.
type Send struct {
	Type   string
	Params []string
}

// Multi is an ordered sequence of wire requests executed strictly
// sequentially. Steps mutate shared remote state (the active chart) and must
// observe each other's effects in order.
type Multi struct {
	Steps []Send
}

// RawLine passes a pre-formed protocol line through untouched.
type RawLine struct {
	Line string
}

// JsonPayload sends one JSON value in JSON mode.
type JsonPayload struct {
	Payload string
}

// AttachKind distinguishes indicator and expert attach targets.
type AttachKind string

const (
	// KindIndicator is an indicator attach; SubWindow is meaningful.
	KindIndicator AttachKind = "indicator"
	// KindExpert is an Expert Advisor attach; SubWindow is ignored.
	KindExpert AttachKind = "expert"
)

// AttachInfo describes what gets attached where. SubWindow is meaningful
// only when Kind is KindIndicator.
type AttachInfo struct {
	Kind      AttachKind
	Name      string
	Symbol    string
	Timeframe string
	SubWindow int
}

// ExpertAttach is the multi-step EA attach handled by the orchestrator:
// ensure chart, save template, apply it, then verify the EA actually runs.
type ExpertAttach struct {
	Info   AttachInfo
	Base   string // optional base template
	Params string // ;-joined key=value inputs
}

// Install routes to the external installer service.
type Install struct {
	Args []string
}

// Test routes to the external backtest/tester service.
type Test struct {
	Args []string
}

// Diag routes to local diagnostics.
type Diag struct {
	Args []string
}

// Tokens implements Action.
func (s Send) Tokens() []string { return sendTokens(s) }

// Tokens implements Action.
func (m Multi) Tokens() []string {
	var out []string
	for i, s := range m.Steps {
		if i > 0 {
			out = append(out, "+")
		}
		out = append(out, sendTokens(s)...)
	}
	return out
}

// Tokens implements Action.
func (r RawLine) Tokens() []string { return []string{"raw", r.Line} }

// Tokens implements Action.
func (j JsonPayload) Tokens() []string { return []string{"json", j.Payload} }

// Tokens implements Action.
func (a ExpertAttach) Tokens() []string {
	out := []string{"expert", "attach", a.Info.Symbol, a.Info.Timeframe, a.Info.Name}
	if a.Base != "" {
		out = append(out, a.Base)
	}
	if a.Params != "" {
		out = append(out, "--params", a.Params)
	}
	return out
}

// Tokens implements Action.
func (i Install) Tokens() []string { return append([]string{"install"}, i.Args...) }

// Tokens implements Action.
func (t Test) Tokens() []string { return append([]string{"test"}, t.Args...) }

// Tokens implements Action.
func (d Diag) Tokens() []string { return append([]string{"diag"}, d.Args...) }

// String renders an action for logs.
func String(a Action) string { return strings.Join(a.Tokens(), " ") }
