package polygon

import (
	"bytes"
	"fmt"

	json "github.com/goccy/go-json"
	"github.com/shopspring/decimal"

	"tickalert/internal/domain/model"
)

const (
	evStatus = "status"
	evTrade  = "T"
)

// Kind tagged variant of an inbound stream message
type Kind int

const (
	KindUnknown Kind = iota
	KindStatus
	KindTrade
)

func (k Kind) String() string {
	switch k {
	case KindStatus:
		return "status"
	case KindTrade:
		return "trade"
	default:
		return "unknown"
	}
}

type StatusMessage struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// Message one element of a frame. Exactly one of Status/Trade is meaningful, selected by Kind.
type Message struct {
	Kind   Kind
	Tag    string
	Status StatusMessage
	Trade  model.TradeEvent
	// Err set when the element had a known tag but an unusable shape
	Err error
}

type wireMessage struct {
	Ev      string          `json:"ev"`
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Sym     string          `json:"sym"`
	Price   decimal.Decimal `json:"p"`
	Volume  *float64        `json:"v"`
	Size    *float64        `json:"s"`
	Conds   []int           `json:"c"`
	Ts      int64           `json:"t"`
}

// DecodeFrame normalizes a frame (single object or array) into messages.
// The error is non-nil only when the frame is not valid JSON of either shape.
func DecodeFrame(b []byte) ([]Message, error) {
	b = bytes.TrimSpace(b)
	if len(b) == 0 {
		return nil, fmt.Errorf("empty frame")
	}

	var raws []json.RawMessage
	switch b[0] {
	case '[':
		if err := json.Unmarshal(b, &raws); err != nil {
			return nil, fmt.Errorf("decode frame array: %w", err)
		}
	case '{':
		if !json.Valid(b) {
			return nil, fmt.Errorf("decode frame object: invalid json")
		}
		raws = []json.RawMessage{b}
	default:
		return nil, fmt.Errorf("unexpected frame json: %.32q", b)
	}

	out := make([]Message, 0, len(raws))
	for _, raw := range raws {
		out = append(out, decodeMessage(raw))
	}
	return out, nil
}

func decodeMessage(raw json.RawMessage) Message {
	var w wireMessage
	if err := json.Unmarshal(raw, &w); err != nil {
		return Message{Kind: KindUnknown, Err: err}
	}

	switch w.Ev {
	case evStatus:
		return Message{
			Kind:   KindStatus,
			Tag:    w.Ev,
			Status: StatusMessage{Status: w.Status, Message: w.Message},
		}
	case evTrade:
		if w.Sym == "" {
			return Message{Kind: KindUnknown, Tag: w.Ev, Err: fmt.Errorf("trade without symbol")}
		}
		return Message{Kind: KindTrade, Tag: w.Ev, Trade: model.TradeEvent{
			Symbol:     w.Sym,
			Price:      w.Price,
			Volume:     tradeVolume(w),
			Conditions: w.Conds,
			Timestamp:  w.Ts,
		}}
	default:
		return Message{Kind: KindUnknown, Tag: w.Ev}
	}
}

// tradeVolume prefers "v" and falls back to the per-trade size "s"
func tradeVolume(w wireMessage) int64 {
	switch {
	case w.Volume != nil:
		return int64(*w.Volume)
	case w.Size != nil:
		return int64(*w.Size)
	default:
		return 0
	}
}
