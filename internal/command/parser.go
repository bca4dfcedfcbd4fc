package command

import (
	"fmt"
	"regexp"
	"strings"
)

// ParseError is a malformed command. It carries a usage string and is never
// retried.
type ParseError struct {
	Msg   string
	Usage string
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	if e.Usage == "" {
		return e.Msg
	}
	return e.Msg + "\nusage: " + e.Usage
}

// Context supplies defaults and name resolution to the parser. Resolvers map
// a user-given short name to its canonical relative identifier; nil resolvers
// pass names through unchanged.
type Context struct {
	Symbol           string
	Timeframe        string
	ResolveIndicator func(name string) (string, error)
	ResolveExpert    func(name string) (string, error)
}

func (c Context) resolveIndicator(name string) (string, error) {
	if c.ResolveIndicator == nil {
		return name, nil
	}
	return c.ResolveIndicator(name)
}

func (c Context) resolveExpert(name string) (string, error) {
	if c.ResolveExpert == nil {
		return name, nil
	}
	return c.ResolveExpert(name)
}

// timeframeRe matches the terminal's timeframe vocabulary: M1..M30, H1..H12,
// D1, W1, MN1 and the minute-count MN1440 family.
var timeframeRe = regexp.MustCompile(`^(MN|M|H|D|W)[0-9]{1,4}$`)

// IsTimeframe reports whether the token names a timeframe.
func IsTimeframe(tok string) bool {
	return timeframeRe.MatchString(strings.ToUpper(tok))
}

// takeSymbolTF consumes an optional leading SYMBOL TIMEFRAME pair. If the
// first or second token matches the timeframe pattern it is consumed as TF
// (and the token before it, if any, as SYMBOL); otherwise both fall back to
// the context defaults.
func takeSymbolTF(tokens []string, ctx Context, usage string) (symbol, tf string, rest []string, err error) {
	symbol, tf = ctx.Symbol, ctx.Timeframe

	switch {
	case len(tokens) >= 1 && IsTimeframe(tokens[0]):
		tf = strings.ToUpper(tokens[0])
		rest = tokens[1:]
	case len(tokens) >= 2 && IsTimeframe(tokens[1]):
		symbol = strings.ToUpper(tokens[0])
		tf = strings.ToUpper(tokens[1])
		rest = tokens[2:]
	default:
		rest = tokens
	}

	if symbol == "" || tf == "" {
		return "", "", nil, &ParseError{
			Msg:   "no symbol/timeframe given and no defaults set",
			Usage: usage,
		}
	}
	return symbol, tf, rest, nil
}

// Parse turns shell-split tokens into exactly one Action. Commands chained
// with a standalone "+" parse into a Multi of plain sends; raw and json
// payloads are never split.
func Parse(tokens []string, ctx Context) (Action, error) {
	if len(tokens) == 0 {
		return nil, &ParseError{Msg: "empty command", Usage: topUsage()}
	}

	verb := strings.ToLower(tokens[0])
	if verb != "raw" && verb != "json" {
		if groups := splitChain(tokens); len(groups) > 1 {
			return parseChain(groups, ctx)
		}
	}
	return parseOne(tokens, ctx)
}

// splitChain splits tokens on standalone "+" separators.
func splitChain(tokens []string) [][]string {
	var groups [][]string
	start := 0
	for i, tok := range tokens {
		if tok == "+" {
			groups = append(groups, tokens[start:i])
			start = i + 1
		}
	}
	return append(groups, tokens[start:])
}

// parseChain parses each "+"-separated group and collects the resulting wire
// steps. Only plain sends may be chained; a step that itself expands to
// several sends (snapshot --shot) is flattened in order.
func parseChain(groups [][]string, ctx Context) (Action, error) {
	var steps []Send
	for _, g := range groups {
		if len(g) == 0 {
			return nil, &ParseError{Msg: "empty step in + chain", Usage: topUsage()}
		}
		a, err := parseOne(g, ctx)
		if err != nil {
			return nil, err
		}
		switch s := a.(type) {
		case Send:
			steps = append(steps, s)
		case Multi:
			steps = append(steps, s.Steps...)
		default:
			return nil, &ParseError{
				Msg:   fmt.Sprintf("%s cannot be chained with +", strings.ToLower(g[0])),
				Usage: topUsage(),
			}
		}
	}
	return Multi{Steps: steps}, nil
}

func parseOne(tokens []string, ctx Context) (Action, error) {
	verb := strings.ToLower(tokens[0])
	rest := tokens[1:]

	sub := ""
	if verbTakesSub[verb] {
		if len(rest) == 0 {
			return nil, &ParseError{
				Msg:   fmt.Sprintf("%s needs a sub-command", verb),
				Usage: usageFor(verb),
			}
		}
		sub = strings.ToLower(rest[0])
		rest = rest[1:]
	}

	h, ok := dispatchTable()[verbKey{verb, sub}]
	if !ok {
		return nil, &ParseError{
			Msg:   fmt.Sprintf("unknown command %q", strings.TrimSpace(verb+" "+sub)),
			Usage: topUsage(),
		}
	}
	return h.fn(rest, ctx)
}
