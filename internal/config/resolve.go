package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/quantrig/bridgecli/internal/transport"
)

// Environment variables consulted during resolution.
const (
	EnvHost      = "BRIDGE_HOST"       // comma-separated host list
	EnvPort      = "BRIDGE_PORT"       // decimal port
	EnvTimeoutMS = "BRIDGE_TIMEOUT_MS" // decimal milliseconds
	EnvTerminal  = "BRIDGE_TERMINAL"   // terminal executable path
	EnvData      = "BRIDGE_DATA"       // terminal data directory
)

// Flags carries the values given on the command line, zero when unset.
type Flags struct {
	Host      string // comma-separated host list
	Port      int
	TimeoutMS int
	Terminal  string
	DataDir   string
	Symbol    string
	Timeframe string
}

// RunnerDescriptor locates the terminal installation for the external
// installer/tester services and the template verifier.
type RunnerDescriptor struct {
	TerminalPath string
	DataDir      string
	Installer    string
	Tester       string
}

// Resolved is the merged configuration a CLI invocation runs with.
type Resolved struct {
	Transport transport.Descriptor
	Runner    RunnerDescriptor
	Defaults  DefaultsConfig
}

// Resolve merges the four configuration sources. Per source and per field,
// the config file wins over the environment, the environment over the CLI
// flag, and the flag over the built-in default; the first non-empty value
// is taken. An empty path skips the file source; a named file that cannot
// be read or parsed is an error.
func Resolve(path string, flags Flags) (*Resolved, error) {
	file := &Config{}
	if path != "" {
		loaded, err := LoadConfig(path)
		if err != nil {
			return nil, err
		}
		file = loaded
	}

	def := DefaultConfig()

	hosts, err := resolveHosts(file.Bridge.Hosts, flags.Host, def.Bridge.Hosts)
	if err != nil {
		return nil, err
	}
	port, err := resolveInt(file.Bridge.Port, EnvPort, flags.Port, def.Bridge.Port)
	if err != nil {
		return nil, err
	}
	timeoutMS, err := resolveInt(file.Bridge.TimeoutMS, EnvTimeoutMS, flags.TimeoutMS, def.Bridge.TimeoutMS)
	if err != nil {
		return nil, err
	}

	merged := &Config{
		Bridge: BridgeConfig{Hosts: hosts, Port: port, TimeoutMS: timeoutMS},
	}
	if err := merged.Validate(); err != nil {
		return nil, err
	}

	return &Resolved{
		Transport: transport.Descriptor{
			Hosts:   hosts,
			Port:    port,
			Timeout: time.Duration(timeoutMS) * time.Millisecond,
		},
		Runner: RunnerDescriptor{
			TerminalPath: resolveString(file.Terminal.Path, EnvTerminal, flags.Terminal, ""),
			DataDir:      resolveString(file.Terminal.DataDir, EnvData, flags.DataDir, ""),
			Installer:    file.Runner.Installer,
			Tester:       file.Runner.Tester,
		},
		Defaults: DefaultsConfig{
			Symbol:    resolveString(file.Defaults.Symbol, "", flags.Symbol, ""),
			Timeframe: resolveString(file.Defaults.Timeframe, "", flags.Timeframe, ""),
		},
	}, nil
}

func resolveString(fileVal, envKey, flagVal, defVal string) string {
	if fileVal != "" {
		return fileVal
	}
	if envKey != "" {
		if v := os.Getenv(envKey); v != "" {
			return v
		}
	}
	if flagVal != "" {
		return flagVal
	}
	return defVal
}

func resolveInt(fileVal int, envKey string, flagVal, defVal int) (int, error) {
	if fileVal != 0 {
		return fileVal, nil
	}
	if v := os.Getenv(envKey); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return 0, fmt.Errorf("%s must be a number, got %q", envKey, v)
		}
		return n, nil
	}
	if flagVal != 0 {
		return flagVal, nil
	}
	return defVal, nil
}

func resolveHosts(fileHosts []string, flagHost string, defHosts []string) ([]string, error) {
	if len(fileHosts) != 0 {
		return fileHosts, nil
	}
	if v := os.Getenv(EnvHost); v != "" {
		return splitHosts(v), nil
	}
	if flagHost != "" {
		return splitHosts(flagHost), nil
	}
	return defHosts, nil
}

func splitHosts(s string) []string {
	var out []string
	for _, h := range strings.Split(s, ",") {
		if h = strings.TrimSpace(h); h != "" {
			out = append(out, h)
		}
	}
	return out
}
