package tpl

import (
	"bufio"
	"bytes"
	"path/filepath"
	"strings"
)

// HasExpert reports whether the template content contains an <expert> block
// whose name= line matches any of the given candidates, case-insensitively.
//
// Candidates are typically the fully resolved expert name and its basename;
// terminals write either form depending on how the EA was attached.
func HasExpert(content []byte, candidates ...string) bool {
	normalized := make([]string, 0, len(candidates))
	for _, c := range candidates {
		c = strings.TrimSuffix(c, filepath.Ext(c))
		if c != "" {
			normalized = append(normalized, strings.ToLower(c))
		}
	}
	if len(normalized) == 0 {
		return false
	}

	inExpert := false
	scanner := bufio.NewScanner(bytes.NewReader(content))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch {
		case strings.EqualFold(line, "<expert>"):
			inExpert = true
		case strings.EqualFold(line, "</expert>"):
			inExpert = false
		case inExpert && strings.HasPrefix(strings.ToLower(line), "name="):
			got := strings.ToLower(strings.TrimSpace(line[len("name="):]))
			got = strings.TrimSuffix(got, ".ex5")
			got = strings.TrimSuffix(got, ".mq5")
			for _, want := range normalized {
				// Match against the full relative name or just its basename.
				if got == want || filepath.Base(strings.ReplaceAll(got, `\`, "/")) == filepath.Base(strings.ReplaceAll(want, `\`, "/")) {
					return true
				}
			}
		}
	}
	return false
}
