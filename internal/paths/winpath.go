package paths

import (
	"fmt"
	"os/exec"
	"regexp"
	"strings"
)

// helperTool is the external translator used when direct drive-letter
// mapping is insufficient (UNC paths, unusual mounts). Overridable in tests.
var helperTool = "wslpath"

var (
	driveRe = regexp.MustCompile(`^([A-Za-z]):[\\/]`)
	uncRe   = regexp.MustCompile(`^\\\\`)
	mntRe   = regexp.MustCompile(`^/mnt/([a-zA-Z])(/.*)?$`)
)

// IsWindowsPath reports whether p looks like a Windows drive or UNC path.
func IsWindowsPath(p string) bool {
	return driveRe.MatchString(p) || uncRe.MatchString(p)
}

// ToPOSIX translates a Windows path to its POSIX-mounted equivalent.
// Drive-letter paths are mapped directly (C:\x -> /mnt/c/x); UNC paths go
// through the external helper tool.
func ToPOSIX(winPath string) (string, error) {
	if m := driveRe.FindStringSubmatch(winPath); m != nil {
		drive := strings.ToLower(m[1])
		rest := strings.ReplaceAll(winPath[len(m[0]):], `\`, "/")
		if rest == "" {
			return "/mnt/" + drive, nil
		}
		return "/mnt/" + drive + "/" + rest, nil
	}
	if uncRe.MatchString(winPath) {
		return runHelper("-u", winPath)
	}
	return "", fmt.Errorf("not a Windows path: %s", winPath)
}

// ToWindows translates a POSIX-mounted path back to Windows form.
// /mnt/<drive>/... maps directly; anything else goes through the helper.
// The drive letter is normalized to uppercase, so converting a
// lowercase-drive Windows path and back differs only in drive case —
// equal under Windows' case-insensitive path semantics.
func ToWindows(posixPath string) (string, error) {
	if m := mntRe.FindStringSubmatch(posixPath); m != nil {
		drive := strings.ToUpper(m[1])
		rest := strings.TrimPrefix(m[2], "/")
		if rest == "" {
			return drive + `:\`, nil
		}
		return drive + `:\` + strings.ReplaceAll(rest, "/", `\`), nil
	}
	return runHelper("-w", posixPath)
}

func runHelper(flag, path string) (string, error) {
	out, err := exec.Command(helperTool, flag, path).Output()
	if err != nil {
		return "", fmt.Errorf("%s %s %s: %w", helperTool, flag, path, err)
	}
	return strings.TrimSpace(string(out)), nil
}
