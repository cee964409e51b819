package polygon

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	json "github.com/goccy/go-json"
	"github.com/rs/zerolog/log"

	"tickalert/internal/domain/model"
	"tickalert/internal/infrastructure/exchange"
)

const (
	tickersPath      = "/v3/reference/tickers"
	DefaultPageLimit = 1000
	maxPages         = 10000
)

// ReferenceClient pages through the reference ticker catalog
type ReferenceClient struct {
	client    *resty.Client
	apiKey    string
	pageLimit int
}

type tickerResult struct {
	Ticker          string `json:"ticker"`
	PrimaryExchange string `json:"primary_exchange"`
}

type tickersPage struct {
	Status  string         `json:"status"`
	Results []tickerResult `json:"results"`
	NextURL string         `json:"next_url"`
	Error   string         `json:"error"`
}

func NewReferenceClient(baseURL, apiKey string, pageLimit int, timeout time.Duration) *ReferenceClient {
	if pageLimit <= 0 || pageLimit > DefaultPageLimit {
		pageLimit = DefaultPageLimit
	}
	return &ReferenceClient{
		client:    newRestClient(baseURL, timeout),
		apiKey:    strings.TrimSpace(apiKey),
		pageLimit: pageLimit,
	}
}

// LoadSymbols returns every active ticker listed on one of exchanges, deduplicated,
// in page concatenation order. Any failed page fails the whole load.
func (c *ReferenceClient) LoadSymbols(ctx context.Context, exchanges []string) ([]model.Symbol, error) {
	codes := exchange.NormalizeCodes(exchanges)
	if len(codes) == 0 {
		return nil, errors.New("exchange set is empty")
	}
	allowed := make(map[string]struct{}, len(codes))
	for _, code := range codes {
		allowed[code] = struct{}{}
	}

	seen := make(map[string]struct{})
	var out []model.Symbol
	for _, code := range codes {
		n, err := c.loadExchange(ctx, code, allowed, seen, &out)
		if err != nil {
			return nil, fmt.Errorf("load %s tickers: %w", code, err)
		}
		log.Info().Str("exchange", code).Int("pages", n).Int("total", len(out)).Msg("exchange tickers loaded")
	}
	return out, nil
}

func (c *ReferenceClient) loadExchange(ctx context.Context, code string, allowed, seen map[string]struct{}, out *[]model.Symbol) (int, error) {
	page, err := c.fetch(ctx, c.client.R().SetQueryParams(map[string]string{
		"market":   "stocks",
		"exchange": code,
		"active":   "true",
		"limit":    strconv.Itoa(c.pageLimit),
	}), tickersPath)
	if err != nil {
		return 0, err
	}

	pages := 1
	for {
		for _, r := range page.Results {
			ticker := strings.TrimSpace(r.Ticker)
			mic := strings.ToUpper(strings.TrimSpace(r.PrimaryExchange))
			if ticker == "" {
				continue
			}
			if _, ok := allowed[mic]; !ok {
				continue
			}
			if _, dup := seen[ticker]; dup {
				continue
			}
			seen[ticker] = struct{}{}
			*out = append(*out, model.Symbol{
				Ticker:          ticker,
				PrimaryExchange: exchange.ParseExchange(mic),
				MIC:             mic,
			})
		}

		next := strings.TrimSpace(page.NextURL)
		if next == "" {
			return pages, nil
		}
		if pages >= maxPages {
			return pages, fmt.Errorf("page limit %d exceeded", maxPages)
		}
		log.Debug().Str("exchange", code).Int("page", pages+1).Str("url", redact(next, c.apiKey)).Msg("fetching next page")

		page, err = c.fetch(ctx, c.client.R(), next)
		if err != nil {
			return pages, fmt.Errorf("page %d: %w", pages+1, err)
		}
		pages++
	}
}

// fetch issues one GET with the credential appended to the query
func (c *ReferenceClient) fetch(ctx context.Context, req *resty.Request, url string) (*tickersPage, error) {
	resp, err := req.SetContext(ctx).SetQueryParam(apiKeyParam, c.apiKey).Get(url)
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, fmt.Errorf("reference http %d: %s", resp.StatusCode(), truncate(resp.String(), 200))
	}

	var page tickersPage
	if err := json.Unmarshal(resp.Body(), &page); err != nil {
		return nil, fmt.Errorf("decode tickers page: %w", err)
	}
	if strings.EqualFold(page.Status, "ERROR") {
		return nil, fmt.Errorf("reference api error: %s", page.Error)
	}
	return &page, nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
