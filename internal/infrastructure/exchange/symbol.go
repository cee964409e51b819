package exchange

import (
	"strings"

	"tickalert/internal/domain/model"
)

// TradeTopicPrefix channel prefix for per-symbol trades
const TradeTopicPrefix = "T."

// ParseExchange maps a catalog exchange code (MIC or venue name) onto the venue enum
func ParseExchange(code string) model.Exchange {
	switch strings.ToUpper(strings.TrimSpace(code)) {
	case "XNAS", "NASDAQ":
		return model.ExchangeNASDAQ
	case "XNYS", "NYSE":
		return model.ExchangeNYSE
	case "XASE", "AMEX", "NYSEAMERICAN":
		return model.ExchangeAMEX
	default:
		return model.ExchangeOther
	}
}

// NormalizeCodes upper-cases, trims and dedups exchange codes, keeping order
func NormalizeCodes(in []string) []string {
	out := make([]string, 0, len(in))
	seen := map[string]struct{}{}
	for _, s := range in {
		u := strings.ToUpper(strings.TrimSpace(s))
		if u == "" {
			continue
		}
		if _, ok := seen[u]; ok {
			continue
		}
		seen[u] = struct{}{}
		out = append(out, u)
	}
	return out
}

// Topic returns the trade channel for a ticker, e.g. AAPL -> T.AAPL
func Topic(ticker string) string {
	return TradeTopicPrefix + strings.ToUpper(strings.TrimSpace(ticker))
}

// TopicsFor builds one trade topic per symbol
func TopicsFor(symbols []model.Symbol) []string {
	out := make([]string, 0, len(symbols))
	for _, s := range symbols {
		if strings.TrimSpace(s.Ticker) == "" {
			continue
		}
		out = append(out, Topic(s.Ticker))
	}
	return out
}

// Chunk partitions topics into consecutive groups of at most size entries.
// Every topic appears in exactly one chunk.
func Chunk(topics []string, size int) [][]string {
	if size <= 0 || len(topics) == 0 {
		return nil
	}
	chunks := make([][]string, 0, (len(topics)+size-1)/size)
	for i := 0; i < len(topics); i += size {
		end := i + size
		if end > len(topics) {
			end = len(topics)
		}
		chunks = append(chunks, topics[i:end])
	}
	return chunks
}
