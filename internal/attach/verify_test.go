package attach

import (
	"context"
	"os"
	"testing"

	"github.com/quantrig/bridgecli/internal/command"
	"github.com/quantrig/bridgecli/internal/paths"
	"github.com/quantrig/bridgecli/internal/proto"
)

// savingSender simulates the bridge's SAVE_TPL side effect: it writes the
// requested template file into the data directory.
type savingSender struct {
	data    *paths.DataDir
	content string
	saved   []string
}

func (s *savingSender) Send(_ context.Context, req proto.Request) (proto.Result, error) {
	if req.Type == proto.OpSaveTpl {
		name := req.Params[2]
		s.saved = append(s.saved, name)
		if err := os.WriteFile(s.data.TemplatePath(name), []byte(s.content), 0o644); err != nil {
			return proto.Result{}, err
		}
	}
	return proto.Classify("OK"), nil
}

func verifierFixture(t *testing.T, tplContent string) (*templateVerifier, *savingSender) {
	t.Helper()
	data, err := paths.NewDataDir(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if err := data.EnsureTemplatesDir(); err != nil {
		t.Fatal(err)
	}
	sender := &savingSender{data: data, content: tplContent}
	return &templateVerifier{sender: sender, data: data}, sender
}

func TestVerifyFindsExpertBlock(t *testing.T) {
	content := "<chart>\n<expert>\nname=MyEA\n</expert>\n</chart>\n"
	v, sender := verifierFixture(t, content)

	info := command.AttachInfo{Kind: command.KindExpert, Name: "MyEA", Symbol: "EURUSD", Timeframe: "M5"}
	found, err := v.Verify(context.Background(), info)
	if err != nil {
		t.Fatalf("Verify() error: %v", err)
	}
	if !found {
		t.Error("Verify() = false, want expert block found")
	}
	if len(sender.saved) != 1 {
		t.Fatalf("SAVE_TPL sent %d times, want 1", len(sender.saved))
	}
	// The throwaway template is removed after the check.
	if _, err := os.Stat(v.data.TemplatePath(sender.saved[0])); !os.IsNotExist(err) {
		t.Errorf("throwaway template %s not cleaned up", sender.saved[0])
	}
}

func TestVerifyAcceptsBasenameOfQualifiedExpert(t *testing.T) {
	content := "<chart>\n<expert>\nname=MyEA\n</expert>\n</chart>\n"
	v, _ := verifierFixture(t, content)

	info := command.AttachInfo{Kind: command.KindExpert, Name: `Custom\MyEA`, Symbol: "EURUSD", Timeframe: "M5"}
	found, err := v.Verify(context.Background(), info)
	if err != nil {
		t.Fatalf("Verify() error: %v", err)
	}
	if !found {
		t.Error("Verify() = false, want basename match for qualified name")
	}
}

func TestVerifyMissesAbsentExpert(t *testing.T) {
	v, _ := verifierFixture(t, "<chart>\n</chart>\n")

	info := command.AttachInfo{Kind: command.KindExpert, Name: "MyEA", Symbol: "EURUSD", Timeframe: "M5"}
	found, err := v.Verify(context.Background(), info)
	if err != nil {
		t.Fatalf("Verify() error: %v", err)
	}
	if found {
		t.Error("Verify() = true, want miss on template without expert block")
	}
}

// The verifier is exercised end to end through the orchestrator elsewhere;
// this pins the wire shape of the throwaway save.
func TestVerifySaveRequestShape(t *testing.T) {
	v, sender := verifierFixture(t, "<chart>\n</chart>\n")

	info := command.AttachInfo{Kind: command.KindExpert, Name: "MyEA", Symbol: "GBPUSD", Timeframe: "H4"}
	if _, err := v.Verify(context.Background(), info); err != nil {
		t.Fatalf("Verify() error: %v", err)
	}
	if len(sender.saved) != 1 {
		t.Fatalf("SAVE_TPL sent %d times, want 1", len(sender.saved))
	}
	name := sender.saved[0]
	if len(name) != len("chk_")+8 || name[:4] != "chk_" {
		t.Errorf("throwaway name = %q, want chk_ prefix with 8 hex chars", name)
	}
}
