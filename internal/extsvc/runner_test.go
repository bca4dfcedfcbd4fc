package extsvc

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/quantrig/bridgecli/internal/config"
	"github.com/quantrig/bridgecli/internal/paths"
)

func writeScript(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "svc.sh")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestInstallPassesArgsAndEnv(t *testing.T) {
	script := writeScript(t, `echo "installed $1 into $BRIDGE_DATA"`)
	r := NewRunner(config.RunnerDescriptor{Installer: script, DataDir: "/data/root"}, zerolog.Nop())

	out, err := r.Install(context.Background(), []string{"MyEA.ex5"})
	if err != nil {
		t.Fatalf("Install() error: %v", err)
	}
	if out != "installed MyEA.ex5 into /data/root" {
		t.Errorf("output = %q", out)
	}
}

func TestInstallUnconfigured(t *testing.T) {
	r := NewRunner(config.RunnerDescriptor{}, zerolog.Nop())
	if _, err := r.Install(context.Background(), nil); err == nil {
		t.Fatal("Install() = nil error, want unconfigured failure")
	}
}

func TestInstallSurfacesStderr(t *testing.T) {
	script := writeScript(t, `echo "junction target busy" >&2; exit 3`)
	r := NewRunner(config.RunnerDescriptor{Installer: script}, zerolog.Nop())

	_, err := r.Install(context.Background(), nil)
	if err == nil || !strings.Contains(err.Error(), "junction target busy") {
		t.Errorf("Install() error = %v, want stderr detail", err)
	}
}

func TestTestDecodesResult(t *testing.T) {
	script := writeScript(t, `echo '{"run_dir":"/runs/7","report":"/runs/7/report.html","logs":["/runs/7/tester.log"]}'`)
	r := NewRunner(config.RunnerDescriptor{Tester: script}, zerolog.Nop())

	res, err := r.Test(context.Background(), []string{"MyEA", "--report"})
	if err != nil {
		t.Fatalf("Test() error: %v", err)
	}
	if res.RunDir != "/runs/7" || res.Report != "/runs/7/report.html" || len(res.Logs) != 1 {
		t.Errorf("result = %+v", res)
	}
}

func TestTestMalformedResult(t *testing.T) {
	script := writeScript(t, `echo "not json"`)
	r := NewRunner(config.RunnerDescriptor{Tester: script}, zerolog.Nop())

	if _, err := r.Test(context.Background(), nil); err == nil {
		t.Fatal("Test() = nil error, want decode failure")
	}
}

func TestDiagnoseReportsLayout(t *testing.T) {
	root := t.TempDir()
	data, err := paths.NewDataDir(root)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(filepath.Join(data.IndicatorsDir(), "Custom"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(data.IndicatorsDir(), "Custom", "X.ex5"), []byte{0}, 0o644); err != nil {
		t.Fatal(err)
	}

	report := Diagnose(data)
	if !strings.Contains(report, "indicators  ok (1 compiled artifacts)") {
		t.Errorf("report missing indicator count:\n%s", report)
	}
	if !strings.Contains(report, "templates   MISSING") {
		t.Errorf("report missing template dir warning:\n%s", report)
	}
}
