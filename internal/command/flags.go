package command

import (
	"fmt"
	"strconv"
	"strings"
)

// flagSet holds the scanned option flags shared by all verb handlers.
type flagSet struct {
	Params     string
	HasParams  bool
	Report     bool
	Buffers    int
	HasBuffers bool
	Log        int
	HasLog     bool
	Shot       bool
	ShotName   string
}

func looksLikeFlag(tok string) bool { return strings.HasPrefix(tok, "--") }

// scanFlags splits tokens into option flags and positionals, left to right.
// A flag consumes an =-attached value or the following bare token when that
// token does not itself look like a flag. --params is special: everything
// remaining becomes its value, joined with ";".
func scanFlags(tokens []string, usage string) (flagSet, []string, error) {
	var fs flagSet
	var positionals []string

	for i := 0; i < len(tokens); i++ {
		tok := tokens[i]
		if !looksLikeFlag(tok) {
			positionals = append(positionals, tok)
			continue
		}

		name, attached, hasAttached := strings.Cut(tok[2:], "=")
		switch name {
		case "params":
			parts := make([]string, 0, len(tokens)-i)
			if hasAttached {
				parts = append(parts, attached)
			}
			parts = append(parts, tokens[i+1:]...)
			fs.Params = strings.Join(parts, ";")
			fs.HasParams = true
			i = len(tokens)

		case "report":
			fs.Report = true

		case "shot":
			fs.Shot = true

		case "shotname":
			val, consumed, err := flagValue(attached, hasAttached, tokens, i, usage)
			if err != nil {
				return fs, nil, err
			}
			fs.ShotName = val
			i += consumed

		case "buffers", "log":
			val, consumed, err := flagValue(attached, hasAttached, tokens, i, usage)
			if err != nil {
				return fs, nil, err
			}
			n, convErr := strconv.Atoi(val)
			if convErr != nil {
				return fs, nil, &ParseError{
					Msg:   fmt.Sprintf("--%s needs a number, got %q", name, val),
					Usage: usage,
				}
			}
			if name == "buffers" {
				fs.Buffers, fs.HasBuffers = n, true
			} else {
				fs.Log, fs.HasLog = n, true
			}
			i += consumed

		default:
			return fs, nil, &ParseError{
				Msg:   fmt.Sprintf("unknown flag --%s", name),
				Usage: usage,
			}
		}
	}
	return fs, positionals, nil
}

// flagValue returns the flag's value and how many extra tokens it consumed.
func flagValue(attached string, hasAttached bool, tokens []string, i int, usage string) (string, int, error) {
	if hasAttached {
		return attached, 0, nil
	}
	if i+1 < len(tokens) && !looksLikeFlag(tokens[i+1]) {
		return tokens[i+1], 1, nil
	}
	return "", 0, &ParseError{
		Msg:   fmt.Sprintf("flag %s needs a value", tokens[i]),
		Usage: usage,
	}
}

// takeSub extracts a sub=N sub-window spec from the positionals. Any other
// bare key=value token is rejected: without the --params prefix it is
// ambiguous between a filename containing '=' and an indicator parameter.
func takeSub(positionals []string, usage string) (sub int, hasSub bool, rest []string, err error) {
	for _, tok := range positionals {
		if val, ok := strings.CutPrefix(tok, "sub="); ok {
			n, convErr := strconv.Atoi(val)
			if convErr != nil {
				return 0, false, nil, &ParseError{
					Msg:   fmt.Sprintf("sub-window must be a number, got %q", val),
					Usage: usage,
				}
			}
			sub, hasSub = n, true
			continue
		}
		rest = append(rest, tok)
	}
	if err := rejectBareKV(rest, usage); err != nil {
		return 0, false, nil, err
	}
	return sub, hasSub, rest, nil
}

// rejectBareKV fails on key=value tokens that were not introduced by
// --params, with an explicit hint instead of a silent positional parse.
func rejectBareKV(tokens []string, usage string) error {
	for _, tok := range tokens {
		if strings.Contains(tok, "=") {
			return &ParseError{
				Msg:   fmt.Sprintf("unexpected %q: indicator/EA parameters go after --params (e.g. --params %s)", tok, tok),
				Usage: usage,
			}
		}
	}
	return nil
}
