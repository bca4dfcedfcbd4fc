package tpl

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// digestLen is the number of hex characters kept from the full hash.
// Short enough to stay readable in terminal logs, long enough that
// distinct attach requests never collide in practice.
const digestLen = 10

// Name derives the deterministic template name for an attach request.
//
// Identical (name, symbol, timeframe, params) inputs always produce a
// byte-identical result, so re-sending the same attach overwrites the same
// artifact on the terminal instead of accumulating garbage template files.
func Name(name, symbol, timeframe, params string) string {
	sum := sha256.Sum256([]byte(strings.Join([]string{name, symbol, timeframe, params}, "|")))
	return "tpl_" + hex.EncodeToString(sum[:])[:digestLen]
}
