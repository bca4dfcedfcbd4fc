package attach

import (
	"context"
	"strings"

	"github.com/quantrig/bridgecli/internal/proto"
)

// chartEnsurer queries the bridge's open charts and opens the target chart
// when absent. CHARTS_LIST responses look like
// "OK|EURUSD,M5;GBPUSD,H1;...".
type chartEnsurer struct {
	sender Sender
}

// EnsureChart implements ChartEnsurer.
func (c *chartEnsurer) EnsureChart(ctx context.Context, symbol, timeframe string) error {
	res, err := c.sender.Send(ctx, proto.NewRequest(proto.OpChartsList))
	if err != nil {
		return err
	}
	if !res.OK() {
		return res.AsError()
	}
	if chartListed(res.Text, symbol, timeframe) {
		return nil
	}

	res, err = c.sender.Send(ctx, proto.NewRequest(proto.OpChartOpen, symbol, timeframe))
	if err != nil {
		return err
	}
	return res.AsError()
}

func chartListed(response, symbol, timeframe string) bool {
	body := response
	if i := strings.Index(response, "|"); i >= 0 {
		body = response[i+1:]
	}
	want := strings.ToUpper(symbol + "," + timeframe)
	for _, entry := range strings.Split(body, ";") {
		if strings.ToUpper(strings.TrimSpace(entry)) == want {
			return true
		}
	}
	return false
}
