package output

// remoteHints maps known bridge error codes to actionable suggestions.
// The table is heuristic: codes come from the terminal's runtime error
// vocabulary and the hint is only ever appended, never substituted for
// the raw response text.
var remoteHints = map[int][]string{
	4301: { // unknown symbol
		"Check the symbol spelling against the terminal's Market Watch",
		"Add the symbol to Market Watch before opening a chart on it",
	},
	4756: { // trade request send failed
		"Confirm automated trading is enabled in the terminal",
		"Check the trade server connection status in the terminal",
	},
	4802: { // indicator cannot be created, usually a bad path
		"Indicator names are relative to MQL5/Indicators, e.g. Custom\\MyIndicator",
		"Use a compiled .ex5 name without the extension",
		"Run `bridgecli diag` to list the artifacts found under the data directory",
	},
	5019: { // file does not exist
		"Check the file path relative to the terminal data directory",
		"Run `bridgecli install` to copy the artifact into place",
	},
}

func hintsForCode(code int) []string {
	if code == 0 {
		return nil
	}
	return remoteHints[code]
}
