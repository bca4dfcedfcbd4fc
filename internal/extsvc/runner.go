package extsvc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/rs/zerolog"

	"github.com/quantrig/bridgecli/internal/config"
)

// Runner invokes the external installer and backtest/tester services. Both
// are opaque processes: bridgecli passes arguments through and consumes their
// output, never their internals.
type Runner struct {
	desc config.RunnerDescriptor
	log  zerolog.Logger
}

// NewRunner creates a Runner bound to the resolved runner descriptor.
func NewRunner(desc config.RunnerDescriptor, log zerolog.Logger) *Runner {
	return &Runner{desc: desc, log: log}
}

// TestResult is the tester's JSON output shape. Consumed here, produced by
// the external tester.
type TestResult struct {
	RunDir string   `json:"run_dir"`
	Report string   `json:"report"`
	Logs   []string `json:"logs"`
}

// Install runs the external installer with the given arguments and returns
// its combined output.
func (r *Runner) Install(ctx context.Context, args []string) (string, error) {
	if r.desc.Installer == "" {
		return "", fmt.Errorf("no installer configured (set runner.installer in the config file)")
	}
	out, err := r.run(ctx, r.desc.Installer, args)
	if err != nil {
		return "", fmt.Errorf("installer failed: %w", err)
	}
	return out, nil
}

// Test runs the external tester and decodes its JSON result.
func (r *Runner) Test(ctx context.Context, args []string) (*TestResult, error) {
	if r.desc.Tester == "" {
		return nil, fmt.Errorf("no tester configured (set runner.tester in the config file)")
	}
	out, err := r.run(ctx, r.desc.Tester, args)
	if err != nil {
		return nil, fmt.Errorf("tester failed: %w", err)
	}

	result := &TestResult{}
	if err := json.Unmarshal([]byte(out), result); err != nil {
		return nil, fmt.Errorf("tester produced malformed result: %w", err)
	}
	return result, nil
}

func (r *Runner) run(ctx context.Context, name string, args []string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Env = append(os.Environ(),
		config.EnvTerminal+"="+r.desc.TerminalPath,
		config.EnvData+"="+r.desc.DataDir,
	)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	r.log.Debug().Str("command", name).Strs("args", args).Msg("running external service")
	if err := cmd.Run(); err != nil {
		detail := strings.TrimSpace(stderr.String())
		if detail != "" {
			return "", fmt.Errorf("%w: %s", err, detail)
		}
		return "", err
	}
	return strings.TrimSpace(stdout.String()), nil
}
