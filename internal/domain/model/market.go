package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Exchange primary listing venue of a symbol
type Exchange string

const (
	ExchangeNASDAQ Exchange = "NASDAQ"
	ExchangeNYSE   Exchange = "NYSE"
	ExchangeAMEX   Exchange = "AMEX"
	ExchangeOther  Exchange = "OTHER"
)

// Symbol one entry of the reference catalog, immutable after load
type Symbol struct {
	Ticker          string   `json:"ticker"`
	PrimaryExchange Exchange `json:"primary_exchange"`
	// MIC is the raw exchange code reported by the catalog (e.g. XNAS)
	MIC string `json:"mic"`
}

// TradeEvent one inbound trade, never persisted
type TradeEvent struct {
	Symbol     string          `json:"sym"`
	Price      decimal.Decimal `json:"p"`
	Volume     int64           `json:"v"`
	Conditions []int           `json:"c"`
	Timestamp  int64           `json:"t"` // unix ms, 0 when absent
}

// FirstCondition returns the significant condition flag, 0 when the sequence is empty
func (t TradeEvent) FirstCondition() int {
	if len(t.Conditions) == 0 {
		return 0
	}
	return t.Conditions[0]
}

// Detection a trade that passed the spike rule
type Detection struct {
	Symbol     string          `json:"symbol"`
	Price      decimal.Decimal `json:"price"`
	Volume     int64           `json:"volume"`
	Condition  int             `json:"condition"`
	DetectedAt time.Time       `json:"detected_at"`
}

// NewsItem headline returned by the enrichment gateway
type NewsItem struct {
	Headline string `json:"headline"`
	Summary  string `json:"summary"`
	URL      string `json:"url"`
}

// Alert the composed message fanned out to subscribers and publishers
type Alert struct {
	ID        string     `json:"id"`
	Detection Detection  `json:"detection"`
	News      []NewsItem `json:"news"`
	Text      string     `json:"text"`
	CreatedAt time.Time  `json:"created_at"`
}
