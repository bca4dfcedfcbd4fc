package attach

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"

	"github.com/quantrig/bridgecli/internal/command"
	"github.com/quantrig/bridgecli/internal/paths"
	"github.com/quantrig/bridgecli/internal/proto"
	"github.com/quantrig/bridgecli/internal/tpl"
)

// templateVerifier asks the bridge to save the live chart to a throwaway
// template, reads that file off the shared filesystem and looks for an
// <expert> block naming the attached EA.
//
// This assumes the bridge writes to a filesystem the CLI can see (WSL-mounted
// or local). Behavior is undefined across physically separate machines with
// no shared filesystem; that is an environmental constraint of the design,
// not something this code can detect.
type templateVerifier struct {
	sender Sender
	data   *paths.DataDir
}

// Verify implements Verifier.
func (v *templateVerifier) Verify(ctx context.Context, info command.AttachInfo) (bool, error) {
	if v.data == nil {
		return false, fmt.Errorf("no terminal data directory configured for attach verification")
	}

	throwaway := "chk_" + uuid.New().String()[:8]
	path := v.data.TemplatePath(throwaway)
	// The throwaway is deleted after each check regardless of outcome.
	defer os.Remove(path)

	res, err := v.sender.Send(ctx, proto.NewRequest(proto.OpSaveTpl, info.Symbol, info.Timeframe, throwaway))
	if err != nil {
		return false, err
	}
	if !res.OK() {
		return false, res.AsError()
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return false, fmt.Errorf("failed to read verification template: %w", err)
	}
	return tpl.HasExpert(content, expertCandidates(info.Name)...), nil
}
