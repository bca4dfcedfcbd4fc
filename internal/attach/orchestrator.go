package attach

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/quantrig/bridgecli/internal/command"
	"github.com/quantrig/bridgecli/internal/paths"
	"github.com/quantrig/bridgecli/internal/proto"
	"github.com/quantrig/bridgecli/internal/tpl"
)

// Verification polls twice with a fixed backoff. APPLY_TPL returning success
// does not guarantee the EA is running: the bridge races with the terminal's
// UI thread, so the template is re-read from disk after a short wait.
const (
	verifyAttempts = 2
	verifyBackoff  = 400 * time.Millisecond
)

// Sender performs one classified request-response exchange with the bridge.
type Sender interface {
	Send(ctx context.Context, req proto.Request) (proto.Result, error)
}

// ChartEnsurer guarantees a chart is open before templates are applied to it.
type ChartEnsurer interface {
	EnsureChart(ctx context.Context, symbol, timeframe string) error
}

// Verifier checks whether the EA actually ended up attached.
type Verifier interface {
	Verify(ctx context.Context, info command.AttachInfo) (bool, error)
}

// Clock abstracts backoff sleeps so tests can simulate time.
type Clock interface {
	Sleep(d time.Duration)
}

type realClock struct{}

func (realClock) Sleep(d time.Duration) { time.Sleep(d) }

// RealClock returns the wall clock.
func RealClock() Clock { return realClock{} }

// VerificationError reports an EA that the bridge claimed to attach but that
// never showed up in the live chart template. Distinguished from a remote
// error because the remote calls all reported success.
type VerificationError struct {
	Expert    string
	Symbol    string
	Timeframe string
	Attempts  int
}

// Error implements the error interface.
func (e *VerificationError) Error() string {
	return fmt.Sprintf("ea_not_attached: %s not present on %s %s after %d verification polls",
		e.Expert, e.Symbol, e.Timeframe, e.Attempts)
}

// Orchestrator sequences multi-step attach operations against the bridge.
// One orchestrator serves one CLI invocation; it is not safe for concurrent
// use and never needs to be, since one invocation is one sequential command.
type Orchestrator struct {
	sender   Sender
	charts   ChartEnsurer
	verifier Verifier
	data     *paths.DataDir
	clock    Clock
	log      zerolog.Logger
	state    State
}

// New creates an orchestrator with production collaborators.
func New(sender Sender, data *paths.DataDir, log zerolog.Logger) *Orchestrator {
	return &Orchestrator{
		sender:   sender,
		charts:   &chartEnsurer{sender: sender},
		verifier: &templateVerifier{sender: sender, data: data},
		data:     data,
		clock:    realClock{},
		log:      log,
		state:    StateIdle,
	}
}

// NewWithDeps creates an orchestrator with injected collaborators for tests.
func NewWithDeps(sender Sender, charts ChartEnsurer, verifier Verifier, data *paths.DataDir, clock Clock, log zerolog.Logger) *Orchestrator {
	return &Orchestrator{
		sender:   sender,
		charts:   charts,
		verifier: verifier,
		data:     data,
		clock:    clock,
		log:      log,
		state:    StateIdle,
	}
}

// State returns the current state, for tests and trace output.
func (o *Orchestrator) State() State { return o.state }

// AttachExpert runs the full EA attach sequence:
// ensure chart, SAVE_TPL_EA, APPLY_TPL, then verify the EA is present.
func (o *Orchestrator) AttachExpert(ctx context.Context, req command.ExpertAttach) error {
	o.state = StateIdle
	info := req.Info

	// Opening the chart is a prerequisite, not part of the retry loop:
	// applying a template to a nonexistent chart is a different failure
	// class than a template that did not take.
	if err := o.charts.EnsureChart(ctx, info.Symbol, info.Timeframe); err != nil {
		return err
	}
	if err := o.advance(StateChartEnsured); err != nil {
		return err
	}

	tplName := tpl.Name(info.Name, info.Symbol, info.Timeframe, req.Params)

	save := proto.NewRequest(proto.OpSaveTplEA, info.Name, tplName, req.Base, req.Params)
	res, err := o.sender.Send(ctx, save)
	if err != nil {
		return err
	}
	if !res.OK() {
		if !indicatesInvalidBase(res.Text) {
			return res.AsError()
		}
		// The only place a protocol call is substituted by a local file
		// write: template authoring is a superset of what the bridge can
		// be told to do generically.
		o.log.Warn().Str("response", res.Text).Msg("bridge rejected base template, materializing locally")
		if err := o.materializeFallback(tplName, info.Name, req.Params); err != nil {
			return err
		}
	}

	// APPLY_TPL depends on SAVE_TPL_EA's on-disk side effect, so the two
	// are strictly sequential. In the fallback branch SAVE_TPL_EA is not
	// re-sent; only the apply goes out.
	apply := proto.NewRequest(proto.OpApplyTpl, info.Symbol, info.Timeframe, tplName)
	res, err = o.sender.Send(ctx, apply)
	if err != nil {
		return err
	}
	if !res.OK() {
		return res.AsError()
	}
	if err := o.advance(StateStepsSent); err != nil {
		return err
	}

	if err := o.advance(StateVerifying); err != nil {
		return err
	}
	for attempt := 1; attempt <= verifyAttempts; attempt++ {
		found, err := o.verifier.Verify(ctx, info)
		if err != nil {
			o.log.Warn().Err(err).Int("attempt", attempt).Msg("verification poll failed")
		}
		if found {
			return o.advance(StateVerified)
		}
		if attempt < verifyAttempts {
			o.clock.Sleep(verifyBackoff)
		}
	}

	if err := o.advance(StateFailed); err != nil {
		return err
	}
	return &VerificationError{
		Expert:    info.Name,
		Symbol:    info.Symbol,
		Timeframe: info.Timeframe,
		Attempts:  verifyAttempts,
	}
}

// RunSteps executes plain sends strictly in order and returns their raw
// responses. No verification: the state machine collapses to a single
// sent-then-done transition.
func (o *Orchestrator) RunSteps(ctx context.Context, steps []command.Send) ([]string, error) {
	responses := make([]string, 0, len(steps))
	for _, step := range steps {
		res, err := o.sender.Send(ctx, proto.NewRequest(step.Type, step.Params...))
		if err != nil {
			return responses, err
		}
		if !res.OK() {
			return responses, res.AsError()
		}
		responses = append(responses, res.Text)
	}
	return responses, nil
}

func (o *Orchestrator) materializeFallback(tplName, expertName, params string) error {
	if o.data == nil {
		return fmt.Errorf("no terminal data directory configured for local template fallback")
	}
	if err := o.data.EnsureTemplatesDir(); err != nil {
		return err
	}
	dest := o.data.TemplatePath(tplName)
	candidates := tpl.FallbackCandidates(o.data.TemplatesDir())
	return tpl.Materialize(dest, candidates, expertName, params)
}

// indicatesInvalidBase recognizes the bridge's invalid-base-template error
// text. The vocabulary is informal, so this matches loosely on both words.
func indicatesInvalidBase(text string) bool {
	t := strings.ToLower(text)
	if !strings.Contains(t, "base") {
		return false
	}
	return strings.Contains(t, "template") || strings.Contains(t, "tpl")
}

// expertCandidates returns the names a verifier should accept: the full
// resolved name and its basename.
func expertCandidates(name string) []string {
	base := filepath.Base(strings.ReplaceAll(name, `\`, "/"))
	if base == name {
		return []string{name}
	}
	return []string{name, base}
}
