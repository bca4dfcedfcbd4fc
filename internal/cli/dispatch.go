package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/quantrig/bridgecli/internal/attach"
	"github.com/quantrig/bridgecli/internal/command"
	"github.com/quantrig/bridgecli/internal/config"
	"github.com/quantrig/bridgecli/internal/extsvc"
	"github.com/quantrig/bridgecli/internal/output"
	"github.com/quantrig/bridgecli/internal/paths"
	"github.com/quantrig/bridgecli/internal/proto"
	"github.com/quantrig/bridgecli/internal/transport"
)

// app wires one invocation's collaborators together.
type app struct {
	formatter *output.Formatter
	log       zerolog.Logger
	client    *transport.Client
	data      *paths.DataDir // nil when no data directory is configured
	runner    *extsvc.Runner
	orch      *attach.Orchestrator
	defaults  config.DefaultsConfig
}

// bridgeSender adapts the transport client to the orchestrator's Sender:
// serialize, exchange, classify.
type bridgeSender struct {
	client *transport.Client
}

func (s *bridgeSender) Send(ctx context.Context, req proto.Request) (proto.Result, error) {
	raw, err := s.client.Send(ctx, req.Line())
	if err != nil {
		return proto.Result{}, err
	}
	return proto.Classify(raw), nil
}

func newApp() (*app, error) {
	resolved, err := config.Resolve(cfgFile, config.Flags{
		Host:      flagHost,
		Port:      flagPort,
		TimeoutMS: flagTimeoutMS,
		Terminal:  flagTerminal,
		DataDir:   flagDataDir,
		Symbol:    flagSymbol,
		Timeframe: flagTimeframe,
	})
	if err != nil {
		return nil, err
	}

	log := newLogger()
	client, err := transport.New(resolved.Transport, log)
	if err != nil {
		return nil, err
	}

	var data *paths.DataDir
	if resolved.Runner.DataDir != "" {
		data, err = paths.NewDataDir(resolved.Runner.DataDir)
		if err != nil {
			return nil, err
		}
	}

	sender := &bridgeSender{client: client}
	return &app{
		formatter: &output.Formatter{JSON: jsonOutput, Out: os.Stdout, ErrOut: os.Stderr},
		log:       log,
		client:    client,
		data:      data,
		runner:    extsvc.NewRunner(resolved.Runner, log),
		orch:      attach.New(sender, data, log),
		defaults:  resolved.Defaults,
	}, nil
}

// parseContext builds the parser's defaults and resolvers. Without a data
// directory names pass through unresolved; the bridge reports its own error
// if they are wrong.
func (a *app) parseContext() command.Context {
	ctx := command.Context{
		Symbol:    a.defaults.Symbol,
		Timeframe: a.defaults.Timeframe,
	}
	if a.data == nil {
		return ctx
	}
	ctx.ResolveIndicator = resolverFunc(&paths.Resolver{Root: a.data.IndicatorsDir()})
	ctx.ResolveExpert = resolverFunc(&paths.Resolver{Root: a.data.ExpertsDir()})
	return ctx
}

func resolverFunc(r *paths.Resolver) func(string) (string, error) {
	return func(name string) (string, error) {
		if art := r.Resolve(name); art != nil {
			return art.CanonicalRelativeName, nil
		}
		return "", &paths.ResolutionError{Query: name, Root: r.Root}
	}
}

// runTokens is the root command's body: wire up, parse, dispatch, format.
func runTokens(ctx context.Context, tokens []string) int {
	a, err := newApp()
	if err != nil {
		f := &output.Formatter{JSON: jsonOutput, Out: os.Stdout, ErrOut: os.Stderr}
		return f.Failure(err)
	}
	return a.run(ctx, tokens)
}

func (a *app) run(ctx context.Context, tokens []string) int {
	action, err := command.Parse(tokens, a.parseContext())
	if err != nil {
		return a.formatter.Failure(err)
	}
	a.log.Debug().Str("action", command.String(action)).Msg("dispatching")
	return a.dispatch(ctx, action)
}

func (a *app) dispatch(ctx context.Context, action command.Action) int {
	switch act := action.(type) {
	case command.Send:
		responses, err := a.orch.RunSteps(ctx, []command.Send{act})
		if err != nil {
			return a.formatter.Failure(err)
		}
		return a.formatter.Success(responses[0])

	case command.Multi:
		responses, err := a.orch.RunSteps(ctx, act.Steps)
		if err != nil {
			return a.formatter.Failure(err)
		}
		return a.formatter.SuccessSteps(responses)

	case command.ExpertAttach:
		if err := a.orch.AttachExpert(ctx, act); err != nil {
			return a.formatter.Failure(err)
		}
		return a.formatter.Success(fmt.Sprintf("OK %s attached on %s %s",
			act.Info.Name, act.Info.Symbol, act.Info.Timeframe))

	case command.RawLine:
		raw, err := a.client.Send(ctx, act.Line)
		if err != nil {
			return a.formatter.Failure(err)
		}
		res := proto.Classify(raw)
		if !res.OK() {
			return a.formatter.Failure(res.AsError())
		}
		return a.formatter.Success(res.Text)

	case command.JsonPayload:
		raw, err := a.client.SendJSON(ctx, json.RawMessage(act.Payload))
		if err != nil {
			return a.formatter.Failure(err)
		}
		res := proto.Classify(raw)
		if !res.OK() {
			return a.formatter.Failure(res.AsError())
		}
		return a.formatter.Success(res.Text)

	case command.Install:
		out, err := a.runner.Install(ctx, act.Args)
		if err != nil {
			return a.formatter.Failure(err)
		}
		return a.formatter.Success(out)

	case command.Test:
		res, err := a.runner.Test(ctx, act.Args)
		if err != nil {
			return a.formatter.Failure(err)
		}
		return a.formatter.Success(formatTestResult(res))

	case command.Diag:
		return a.runDiag(ctx, act)

	default:
		return a.formatter.Failure(fmt.Errorf("unhandled action %T", action))
	}
}

func (a *app) runDiag(ctx context.Context, act command.Diag) int {
	if a.data == nil {
		return a.formatter.Failure(fmt.Errorf("diag needs a terminal data directory (--data or %s)", config.EnvData))
	}
	report := extsvc.Diagnose(a.data)

	// `diag --log N` additionally tails the bridge's remote log.
	if n, ok := diagLogLines(act.Args); ok {
		responses, err := a.orch.RunSteps(ctx, []command.Send{
			{Type: proto.OpLogTail, Params: []string{strconv.Itoa(n)}},
		})
		if err != nil {
			return a.formatter.Failure(err)
		}
		report += "\n\nbridge log:\n" + responses[0]
	}
	return a.formatter.Success(report)
}

// diagLogLines extracts the trailing `--log N` pair from a Diag action.
func diagLogLines(args []string) (int, bool) {
	for i := 0; i+1 < len(args); i++ {
		if args[i] == "--log" {
			if n, err := strconv.Atoi(args[i+1]); err == nil {
				return n, true
			}
		}
	}
	return 0, false
}

func formatTestResult(res *extsvc.TestResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "run: %s\n", res.RunDir)
	fmt.Fprintf(&b, "report: %s", res.Report)
	for _, l := range res.Logs {
		fmt.Fprintf(&b, "\nlog: %s", l)
	}
	return b.String()
}
