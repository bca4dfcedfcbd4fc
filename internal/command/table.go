package command

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/quantrig/bridgecli/internal/proto"
)

// verbKey keys the flat dispatch table. sub is empty for verbs without a
// sub-command.
type verbKey struct {
	verb string
	sub  string
}

type handler struct {
	usage string
	fn    func(rest []string, ctx Context) (Action, error)
}

// verbTakesSub marks verbs whose next token is a sub-command.
var verbTakesSub = map[string]bool{
	"expert":    true,
	"chart":     true,
	"template":  true,
	"indicator": true,
	"trade":     true,
	"global":    true,
	"input":     true,
	"object":    true,
	"screen":    true,
}

// dispatchTable returns the authoritative (verb, sub-verb) table. Each
// handler produces exactly one Action. This is a function rather than a
// package var to avoid initialization cycles through the usage helpers.
func dispatchTable() map[verbKey]handler {
	return map[verbKey]handler{
		{"add", ""}: {
			usage: "add [SYMBOL TF] NAME [sub=N] [--params k=v ...]",
			fn:    handleAdd,
		},
		{"del", ""}: {
			usage: "del [SYMBOL TF] NAME",
			fn:    handleDel,
		},
		{"expert", "attach"}: {
			usage: "expert attach [SYMBOL TF] NAME [BASE.tpl] [--params k=v ...]",
			fn:    handleExpertAttach,
		},
		{"chart", "open"}: {
			usage: "chart open [SYMBOL TF]",
			fn:    sendSymbolTF(proto.OpChartOpen),
		},
		{"chart", "list"}: {
			usage: "chart list",
			fn:    handleChartList,
		},
		{"template", "save"}: {
			usage: "template save [SYMBOL TF] NAME",
			fn:    sendSymbolTFName(proto.OpSaveTpl),
		},
		{"template", "apply"}: {
			usage: "template apply [SYMBOL TF] NAME",
			fn:    sendSymbolTFName(proto.OpApplyTpl),
		},
		{"indicator", "list"}: {
			usage: "indicator list [SYMBOL TF]",
			fn:    sendSymbolTF(proto.OpIndList),
		},
		{"indicator", "buffers"}: {
			usage: "indicator buffers [SYMBOL TF] NAME [--buffers N]",
			fn:    handleIndicatorBuffers,
		},
		{"trade", "buy"}: {
			usage: "trade buy [SYMBOL] LOTS",
			fn:    handleTrade(proto.OpTradeBuy),
		},
		{"trade", "sell"}: {
			usage: "trade sell [SYMBOL] LOTS",
			fn:    handleTrade(proto.OpTradeSell),
		},
		{"trade", "close"}: {
			usage: "trade close TICKET",
			fn:    handleTradeClose,
		},
		{"global", "get"}: {
			usage: "global get NAME",
			fn:    handleGlobal(proto.OpGlobalGet, 1),
		},
		{"global", "set"}: {
			usage: "global set NAME VALUE",
			fn:    handleGlobal(proto.OpGlobalSet, 2),
		},
		{"global", "del"}: {
			usage: "global del NAME",
			fn:    handleGlobal(proto.OpGlobalDel, 1),
		},
		{"input", "set"}: {
			usage: "input set [SYMBOL TF] KEY VALUE",
			fn:    handleInputSet,
		},
		{"snapshot", ""}: {
			usage: "snapshot [SYMBOL TF] [--shot] [--shotname NAME]",
			fn:    handleSnapshot,
		},
		{"object", "list"}: {
			usage: "object list [SYMBOL TF]",
			fn:    sendSymbolTF(proto.OpObjectList),
		},
		{"object", "del"}: {
			usage: "object del [SYMBOL TF] NAME",
			fn:    sendSymbolTFName(proto.OpObjectDel),
		},
		{"screen", "shot"}: {
			usage: "screen shot [SYMBOL TF] [--shotname NAME]",
			fn:    handleScreenShot,
		},
		{"install", ""}: {
			usage: "install [ARGS...]",
			fn:    func(rest []string, _ Context) (Action, error) { return Install{Args: rest}, nil },
		},
		{"test", ""}: {
			usage: "test EA [ARGS...] [--report]",
			fn:    handleTest,
		},
		{"run", ""}: {
			usage: "run EA [ARGS...] [--report]",
			fn:    handleTest,
		},
		{"diag", ""}: {
			usage: "diag [ARGS...] [--log N]",
			fn:    handleDiag,
		},
		{"raw", ""}: {
			usage: "raw LINE",
			fn: func(rest []string, _ Context) (Action, error) {
				return RawLine{Line: strings.Join(rest, " ")}, nil
			},
		},
		{"json", ""}: {
			usage: "json PAYLOAD",
			fn: func(rest []string, _ Context) (Action, error) {
				return JsonPayload{Payload: strings.Join(rest, " ")}, nil
			},
		},
		{"cmd", ""}: {
			usage: "cmd TYPE [PARAMS...]",
			fn:    handleCmd,
		},
	}
}

func usageFor(verb string) string {
	var lines []string
	for key, h := range dispatchTable() {
		if key.verb == verb {
			lines = append(lines, h.usage)
		}
	}
	sort.Strings(lines)
	return strings.Join(lines, "\n       ")
}

func topUsage() string {
	seen := map[string]bool{}
	var lines []string
	for _, h := range dispatchTable() {
		if !seen[h.usage] {
			seen[h.usage] = true
			lines = append(lines, h.usage)
		}
	}
	sort.Strings(lines)
	return strings.Join(lines, "\n       ")
}

func handleAdd(rest []string, ctx Context) (Action, error) {
	u := usageFor("add")
	fs, pos, err := scanFlags(rest, u)
	if err != nil {
		return nil, err
	}
	symbol, tf, pos, err := takeSymbolTF(pos, ctx, u)
	if err != nil {
		return nil, err
	}
	sub, _, pos, err := takeSub(pos, u)
	if err != nil {
		return nil, err
	}
	if len(pos) != 1 {
		return nil, &ParseError{Msg: "add needs exactly one indicator name", Usage: u}
	}
	name, err := ctx.resolveIndicator(pos[0])
	if err != nil {
		return nil, err
	}
	return Send{
		Type:   proto.OpAttachIndFull,
		Params: []string{symbol, tf, name, strconv.Itoa(sub), fs.Params},
	}, nil
}

func handleDel(rest []string, ctx Context) (Action, error) {
	u := usageFor("del")
	_, pos, err := scanFlags(rest, u)
	if err != nil {
		return nil, err
	}
	symbol, tf, pos, err := takeSymbolTF(pos, ctx, u)
	if err != nil {
		return nil, err
	}
	if err := rejectBareKV(pos, u); err != nil {
		return nil, err
	}
	if len(pos) != 1 {
		return nil, &ParseError{Msg: "del needs exactly one indicator name", Usage: u}
	}
	name, err := ctx.resolveIndicator(pos[0])
	if err != nil {
		return nil, err
	}
	return Send{Type: proto.OpDetachInd, Params: []string{symbol, tf, name}}, nil
}

func handleExpertAttach(rest []string, ctx Context) (Action, error) {
	u := usageFor("expert")
	fs, pos, err := scanFlags(rest, u)
	if err != nil {
		return nil, err
	}
	symbol, tf, pos, err := takeSymbolTF(pos, ctx, u)
	if err != nil {
		return nil, err
	}
	if err := rejectBareKV(pos, u); err != nil {
		return nil, err
	}
	if len(pos) < 1 || len(pos) > 2 {
		return nil, &ParseError{Msg: "expert attach needs an EA name and an optional base template", Usage: u}
	}
	name, err := ctx.resolveExpert(pos[0])
	if err != nil {
		return nil, err
	}
	base := ""
	if len(pos) == 2 {
		base = pos[1]
	}
	return ExpertAttach{
		Info:   AttachInfo{Kind: KindExpert, Name: name, Symbol: symbol, Timeframe: tf},
		Base:   base,
		Params: fs.Params,
	}, nil
}

func handleChartList(rest []string, _ Context) (Action, error) {
	if len(rest) != 0 {
		return nil, &ParseError{Msg: "chart list takes no arguments", Usage: usageFor("chart")}
	}
	return Send{Type: proto.OpChartsList}, nil
}

func handleIndicatorBuffers(rest []string, ctx Context) (Action, error) {
	u := usageFor("indicator")
	fs, pos, err := scanFlags(rest, u)
	if err != nil {
		return nil, err
	}
	symbol, tf, pos, err := takeSymbolTF(pos, ctx, u)
	if err != nil {
		return nil, err
	}
	if err := rejectBareKV(pos, u); err != nil {
		return nil, err
	}
	if len(pos) != 1 {
		return nil, &ParseError{Msg: "indicator buffers needs exactly one indicator name", Usage: u}
	}
	name, err := ctx.resolveIndicator(pos[0])
	if err != nil {
		return nil, err
	}
	count := 1
	if fs.HasBuffers {
		count = fs.Buffers
	}
	return Send{
		Type:   proto.OpIndBuffers,
		Params: []string{symbol, tf, name, strconv.Itoa(count)},
	}, nil
}

func handleTrade(op string) func([]string, Context) (Action, error) {
	return func(rest []string, ctx Context) (Action, error) {
		u := usageFor("trade")
		_, pos, err := scanFlags(rest, u)
		if err != nil {
			return nil, err
		}
		if err := rejectBareKV(pos, u); err != nil {
			return nil, err
		}
		var symbol, lots string
		switch len(pos) {
		case 1:
			if ctx.Symbol == "" {
				return nil, &ParseError{Msg: "no symbol given and no default set", Usage: u}
			}
			symbol, lots = ctx.Symbol, pos[0]
		case 2:
			symbol, lots = strings.ToUpper(pos[0]), pos[1]
		default:
			return nil, &ParseError{Msg: "trade needs [SYMBOL] LOTS", Usage: u}
		}
		return Send{Type: op, Params: []string{symbol, lots}}, nil
	}
}

func handleTradeClose(rest []string, _ Context) (Action, error) {
	u := usageFor("trade")
	if len(rest) != 1 {
		return nil, &ParseError{Msg: "trade close needs exactly one ticket", Usage: u}
	}
	return Send{Type: proto.OpTradeClose, Params: []string{rest[0]}}, nil
}

func handleGlobal(op string, arity int) func([]string, Context) (Action, error) {
	return func(rest []string, _ Context) (Action, error) {
		u := usageFor("global")
		if len(rest) != arity {
			return nil, &ParseError{Msg: fmt.Sprintf("global takes %d argument(s)", arity), Usage: u}
		}
		return Send{Type: op, Params: rest}, nil
	}
}

func handleInputSet(rest []string, ctx Context) (Action, error) {
	u := usageFor("input")
	_, pos, err := scanFlags(rest, u)
	if err != nil {
		return nil, err
	}
	symbol, tf, pos, err := takeSymbolTF(pos, ctx, u)
	if err != nil {
		return nil, err
	}
	if err := rejectBareKV(pos, u); err != nil {
		return nil, err
	}
	if len(pos) != 2 {
		return nil, &ParseError{Msg: "input set needs KEY VALUE", Usage: u}
	}
	return Send{Type: proto.OpInputSet, Params: []string{symbol, tf, pos[0], pos[1]}}, nil
}

// handleSnapshot returns a plain chart snapshot, or with --shot a two-step
// sequence that also captures a screenshot of the same chart.
func handleSnapshot(rest []string, ctx Context) (Action, error) {
	u := usageFor("snapshot")
	fs, pos, err := scanFlags(rest, u)
	if err != nil {
		return nil, err
	}
	symbol, tf, pos, err := takeSymbolTF(pos, ctx, u)
	if err != nil {
		return nil, err
	}
	if len(pos) != 0 {
		return nil, &ParseError{Msg: "snapshot takes no positional arguments", Usage: u}
	}

	snap := Send{Type: proto.OpSnapshot, Params: []string{symbol, tf}}
	if !fs.Shot {
		return snap, nil
	}
	return Multi{Steps: []Send{
		snap,
		{Type: proto.OpScreenShot, Params: []string{symbol, tf, fs.ShotName}},
	}}, nil
}

func handleScreenShot(rest []string, ctx Context) (Action, error) {
	u := usageFor("screen")
	fs, pos, err := scanFlags(rest, u)
	if err != nil {
		return nil, err
	}
	symbol, tf, pos, err := takeSymbolTF(pos, ctx, u)
	if err != nil {
		return nil, err
	}
	if len(pos) != 0 {
		return nil, &ParseError{Msg: "screen shot takes no positional arguments", Usage: u}
	}
	return Send{Type: proto.OpScreenShot, Params: []string{symbol, tf, fs.ShotName}}, nil
}

func handleTest(rest []string, _ Context) (Action, error) {
	fs, pos, err := scanFlags(rest, usageFor("test"))
	if err != nil {
		return nil, err
	}
	args := pos
	if fs.Report {
		args = append(args, "--report")
	}
	return Test{Args: args}, nil
}

func handleDiag(rest []string, _ Context) (Action, error) {
	fs, pos, err := scanFlags(rest, usageFor("diag"))
	if err != nil {
		return nil, err
	}
	args := pos
	if fs.HasLog {
		args = append(args, "--log", strconv.Itoa(fs.Log))
	}
	return Diag{Args: args}, nil
}

func handleCmd(rest []string, _ Context) (Action, error) {
	if len(rest) == 0 {
		return nil, &ParseError{Msg: "cmd needs a message type", Usage: usageFor("cmd")}
	}
	return Send{Type: strings.ToUpper(rest[0]), Params: rest[1:]}, nil
}

// sendTokens maps a Send back to its canonical command tokens. Types never
// produced by the parser render as a generic "send" form for logs.
func sendTokens(s Send) []string {
	p := func(i int) string {
		if i < len(s.Params) {
			return s.Params[i]
		}
		return ""
	}
	switch s.Type {
	case proto.OpAttachIndFull:
		out := []string{"add", p(0), p(1), p(2)}
		if p(3) != "" && p(3) != "0" {
			out = append(out, "sub="+p(3))
		}
		if p(4) != "" {
			out = append(out, "--params", p(4))
		}
		return out
	case proto.OpDetachInd:
		return []string{"del", p(0), p(1), p(2)}
	case proto.OpChartOpen:
		return []string{"chart", "open", p(0), p(1)}
	case proto.OpChartsList:
		return []string{"chart", "list"}
	case proto.OpSaveTpl:
		return []string{"template", "save", p(0), p(1), p(2)}
	case proto.OpApplyTpl:
		return []string{"template", "apply", p(0), p(1), p(2)}
	case proto.OpIndList:
		return []string{"indicator", "list", p(0), p(1)}
	case proto.OpIndBuffers:
		return []string{"indicator", "buffers", p(0), p(1), p(2), "--buffers", p(3)}
	case proto.OpTradeBuy:
		return []string{"trade", "buy", p(0), p(1)}
	case proto.OpTradeSell:
		return []string{"trade", "sell", p(0), p(1)}
	case proto.OpTradeClose:
		return []string{"trade", "close", p(0)}
	case proto.OpGlobalGet:
		return []string{"global", "get", p(0)}
	case proto.OpGlobalSet:
		return []string{"global", "set", p(0), p(1)}
	case proto.OpGlobalDel:
		return []string{"global", "del", p(0)}
	case proto.OpInputSet:
		return []string{"input", "set", p(0), p(1), p(2), p(3)}
	case proto.OpSnapshot:
		return []string{"snapshot", p(0), p(1)}
	case proto.OpObjectList:
		return []string{"object", "list", p(0), p(1)}
	case proto.OpObjectDel:
		return []string{"object", "del", p(0), p(1), p(2)}
	case proto.OpScreenShot:
		out := []string{"screen", "shot", p(0), p(1)}
		if p(2) != "" {
			out = append(out, "--shotname", p(2))
		}
		return out
	default:
		return append([]string{"cmd", s.Type}, s.Params...)
	}
}

// sendSymbolTF handles verbs of the shape `<verb> [SYMBOL TF]`.
func sendSymbolTF(op string) func([]string, Context) (Action, error) {
	return func(rest []string, ctx Context) (Action, error) {
		u := topUsage()
		_, pos, err := scanFlags(rest, u)
		if err != nil {
			return nil, err
		}
		symbol, tf, pos, err := takeSymbolTF(pos, ctx, u)
		if err != nil {
			return nil, err
		}
		if len(pos) != 0 {
			return nil, &ParseError{Msg: fmt.Sprintf("unexpected arguments: %s", strings.Join(pos, " ")), Usage: u}
		}
		return Send{Type: op, Params: []string{symbol, tf}}, nil
	}
}

// sendSymbolTFName handles verbs of the shape `<verb> [SYMBOL TF] NAME`.
// NAME here is a remote identifier (template, object), never resolved on disk.
func sendSymbolTFName(op string) func([]string, Context) (Action, error) {
	return func(rest []string, ctx Context) (Action, error) {
		u := topUsage()
		_, pos, err := scanFlags(rest, u)
		if err != nil {
			return nil, err
		}
		symbol, tf, pos, err := takeSymbolTF(pos, ctx, u)
		if err != nil {
			return nil, err
		}
		if err := rejectBareKV(pos, u); err != nil {
			return nil, err
		}
		if len(pos) != 1 {
			return nil, &ParseError{Msg: "exactly one name expected", Usage: u}
		}
		return Send{Type: op, Params: []string{symbol, tf, pos[0]}}, nil
	}
}
