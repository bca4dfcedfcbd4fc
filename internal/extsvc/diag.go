package extsvc

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/quantrig/bridgecli/internal/paths"
)

// Diagnose inspects the terminal data directory layout and reports what a
// misconfigured setup most often gets wrong: missing directories and empty
// artifact trees.
func Diagnose(data *paths.DataDir) string {
	var b strings.Builder
	fmt.Fprintf(&b, "data directory: %s\n", data.Root())

	dirs := []struct {
		label string
		path  string
	}{
		{"templates", data.TemplatesDir()},
		{"experts", data.ExpertsDir()},
		{"indicators", data.IndicatorsDir()},
		{"logs", data.LogsDir()},
	}
	for _, d := range dirs {
		info, err := os.Stat(d.path)
		switch {
		case err != nil:
			fmt.Fprintf(&b, "%-11s MISSING %s\n", d.label, d.path)
		case !info.IsDir():
			fmt.Fprintf(&b, "%-11s NOT A DIRECTORY %s\n", d.label, d.path)
		default:
			fmt.Fprintf(&b, "%-11s ok (%d compiled artifacts)\n", d.label, countCompiled(d.path))
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func countCompiled(root string) int {
	n := 0
	filepath.WalkDir(root, func(_ string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() && strings.EqualFold(filepath.Ext(d.Name()), ".ex5") {
			n++
		}
		return nil
	})
	return n
}
