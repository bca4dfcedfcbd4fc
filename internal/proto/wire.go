package proto

import (
	"strings"

	"github.com/google/uuid"
)

// Message types understood by the bridge. Params are positional and
// pipe-delimited on the wire; no named fields ever cross it.
const (
	OpChartsList    = "CHARTS_LIST"
	OpChartOpen     = "CHART_OPEN"
	OpSaveTpl       = "SAVE_TPL"
	OpSaveTplEA     = "SAVE_TPL_EA"
	OpApplyTpl      = "APPLY_TPL"
	OpAttachIndFull = "ATTACH_IND_FULL"
	OpDetachInd     = "DETACH_IND"
	OpIndList       = "IND_LIST"
	OpIndBuffers    = "IND_BUFFERS"
	OpTradeBuy      = "TRADE_BUY"
	OpTradeSell     = "TRADE_SELL"
	OpTradeClose    = "TRADE_CLOSE"
	OpGlobalGet     = "GLOBAL_GET"
	OpGlobalSet     = "GLOBAL_SET"
	OpGlobalDel     = "GLOBAL_DEL"
	OpInputSet      = "INPUT_SET"
	OpSnapshot      = "SNAPSHOT"
	OpObjectList    = "OBJECT_LIST"
	OpObjectDel     = "OBJECT_DEL"
	OpScreenShot    = "SCREEN_SHOT"
	OpLogTail       = "LOG_TAIL"
	OpCmd           = "CMD"
)

// Request is one line-mode wire request.
type Request struct {
	ID     string
	Type   string
	Params []string
}

// NewRequest builds a request with a fresh unique ID.
func NewRequest(msgType string, params ...string) Request {
	return Request{
		ID:     uuid.New().String(),
		Type:   msgType,
		Params: params,
	}
}

// Line renders the request in wire form: <requestId>|<TYPE>|<param1>|...
// The trailing newline is added by the transport.
func (r Request) Line() string {
	fields := make([]string, 0, len(r.Params)+2)
	fields = append(fields, r.ID, r.Type)
	fields = append(fields, r.Params...)
	return strings.Join(fields, "|")
}
