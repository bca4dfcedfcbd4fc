package tpl

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// fallbackBases are the base templates tried, in order, when the bridge
// rejects the requested base. Popup.tpl and Default.tpl ship with every
// terminal install; the lowercase variant covers case-sensitive mounts.
var fallbackBases = []string{"Default.tpl", "default.tpl", "Popup.tpl"}

// FallbackCandidates returns the absolute paths of the fallback base
// templates under the terminal's templates directory, in preference order.
func FallbackCandidates(templatesDir string) []string {
	out := make([]string, len(fallbackBases))
	for i, b := range fallbackBases {
		out[i] = filepath.Join(templatesDir, b)
	}
	return out
}

// Materialize writes a template to destPath by taking the first existing
// base candidate and grafting an <expert> block for the given EA onto it.
//
// This is local template authoring: a superset of what the bridge can be
// told to do generically, used only when the remote SAVE_TPL_EA path failed
// on an invalid base template.
func Materialize(destPath string, baseCandidates []string, expertName, params string) error {
	var base []byte
	var chosen string
	for _, candidate := range baseCandidates {
		data, err := os.ReadFile(candidate)
		if err == nil {
			base = data
			chosen = candidate
			break
		}
	}
	if chosen == "" {
		return fmt.Errorf("no fallback base template found (tried %s)", strings.Join(baseCandidates, ", "))
	}

	block := expertBlock(expertName, params)
	content := string(base)

	// Keep the document well-formed: the expert block belongs inside <chart>.
	if idx := strings.LastIndex(content, "</chart>"); idx >= 0 {
		content = content[:idx] + block + content[idx:]
	} else {
		content += block
	}

	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return fmt.Errorf("failed to create template directory: %w", err)
	}
	if err := os.WriteFile(destPath, []byte(content), 0o644); err != nil {
		return fmt.Errorf("failed to write template %s: %w", destPath, err)
	}
	return nil
}

func expertBlock(expertName, params string) string {
	var sb strings.Builder
	sb.WriteString("<expert>\n")
	fmt.Fprintf(&sb, "name=%s\n", expertName)
	sb.WriteString("flags=343\n")
	sb.WriteString("window_num=0\n")
	sb.WriteString("<inputs>\n")
	for _, kv := range strings.Split(params, ";") {
		if kv = strings.TrimSpace(kv); kv != "" {
			sb.WriteString(kv + "\n")
		}
	}
	sb.WriteString("</inputs>\n")
	sb.WriteString("</expert>\n")
	return sb.String()
}
