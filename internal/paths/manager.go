package paths

import (
	"fmt"
	"os"
	"path/filepath"
)

// DataDir manages the file layout under a terminal data directory.
// The constructor accepts either a POSIX or a Windows path; everything is
// normalized to the POSIX side so the CLI can read what the bridge writes.
type DataDir struct {
	root string
}

// NewDataDir creates a DataDir rooted at the terminal data path.
func NewDataDir(dataPath string) (*DataDir, error) {
	if IsWindowsPath(dataPath) {
		posix, err := ToPOSIX(dataPath)
		if err != nil {
			return nil, fmt.Errorf("failed to translate data path: %w", err)
		}
		dataPath = posix
	}
	return &DataDir{root: dataPath}, nil
}

// Root returns the POSIX-side data directory root.
func (d *DataDir) Root() string { return d.root }

// TemplatesDir returns the directory the terminal reads templates from.
func (d *DataDir) TemplatesDir() string {
	return filepath.Join(d.root, "Profiles", "Templates")
}

// TemplatePath returns the on-disk path of a named template.
func (d *DataDir) TemplatePath(name string) string {
	return filepath.Join(d.TemplatesDir(), name+".tpl")
}

// ExpertsDir returns the root searched for Expert Advisors.
func (d *DataDir) ExpertsDir() string {
	return filepath.Join(d.root, "MQL5", "Experts")
}

// IndicatorsDir returns the root searched for indicators.
func (d *DataDir) IndicatorsDir() string {
	return filepath.Join(d.root, "MQL5", "Indicators")
}

// LogsDir returns the terminal log directory.
func (d *DataDir) LogsDir() string {
	return filepath.Join(d.root, "Logs")
}

// EnsureTemplatesDir creates the templates directory if needed. Used before
// the local template-materialization fallback writes into it.
func (d *DataDir) EnsureTemplatesDir() error {
	if err := os.MkdirAll(d.TemplatesDir(), 0o755); err != nil {
		return fmt.Errorf("failed to create templates directory: %w", err)
	}
	return nil
}
