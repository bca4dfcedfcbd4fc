package cli

import (
	"context"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/quantrig/bridgecli/internal/extsvc"
	"github.com/quantrig/bridgecli/internal/proto"
	"github.com/quantrig/bridgecli/internal/transport"
)

func TestDiagLogLines(t *testing.T) {
	tests := []struct {
		name   string
		args   []string
		want   int
		wantOK bool
	}{
		{"present", []string{"--log", "50"}, 50, true},
		{"after positionals", []string{"verbose", "--log", "10"}, 10, true},
		{"absent", []string{"verbose"}, 0, false},
		{"dangling flag", []string{"--log"}, 0, false},
		{"non-numeric", []string{"--log", "many"}, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := diagLogLines(tt.args)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("diagLogLines(%v) = %d, %v; want %d, %v", tt.args, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestFormatTestResult(t *testing.T) {
	res := &extsvc.TestResult{
		RunDir: "/runs/7",
		Report: "/runs/7/report.html",
		Logs:   []string{"/runs/7/a.log", "/runs/7/b.log"},
	}
	want := "run: /runs/7\nreport: /runs/7/report.html\nlog: /runs/7/a.log\nlog: /runs/7/b.log"
	if got := formatTestResult(res); got != want {
		t.Errorf("formatTestResult() = %q, want %q", got, want)
	}
}

// bridgeSender must serialize the request as one protocol line and classify
// whatever comes back.
func TestBridgeSenderRoundTrip(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer ln.Close()

	received := make(chan string, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		buf := make([]byte, 1024)
		n, _ := conn.Read(buf)
		received <- string(buf[:n])
		conn.Write([]byte("ERR no chart CODE=4101\n"))
	}()

	addr := ln.Addr().(*net.TCPAddr)
	client, err := transport.New(transport.Descriptor{
		Hosts:   []string{addr.IP.String()},
		Port:    addr.Port,
		Timeout: 2 * time.Second,
	}, zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}

	s := &bridgeSender{client: client}
	res, err := s.Send(context.Background(), proto.NewRequest(proto.OpChartOpen, "EURUSD", "M5"))
	if err != nil {
		t.Fatalf("Send() error: %v", err)
	}
	if res.OK() {
		t.Error("result classified OK, want remote error")
	}
	if res.Code != 4101 {
		t.Errorf("code = %d, want 4101", res.Code)
	}

	line := strings.TrimSuffix(<-received, "\n")
	if !strings.HasSuffix(line, "|CHART_OPEN|EURUSD|M5") {
		t.Errorf("wire line = %q, want id|CHART_OPEN|EURUSD|M5", line)
	}
	// The leading field is the request ID.
	if strings.Count(line, "|") != 3 || strings.HasPrefix(line, "|") {
		t.Errorf("wire line = %q, want four pipe-delimited fields", line)
	}
}
