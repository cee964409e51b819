package polygon

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	json "github.com/goccy/go-json"
	"github.com/rs/zerolog/log"

	"tickalert/internal/domain/model"
)

const (
	newsPath         = "/v2/reference/news"
	DefaultNewsLimit = 3
	summaryMaxRunes  = 200

	noTitle   = "(no title)"
	noSummary = "(no summary)"
)

// NewsClient is the enrichment gateway: bounded latency, never returns an error
type NewsClient struct {
	client  *resty.Client
	apiKey  string
	limit   int
	timeout time.Duration
}

type newsResult struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	ArticleURL  string `json:"article_url"`
}

type newsResponse struct {
	Status  string       `json:"status"`
	Results []newsResult `json:"results"`
}

func NewNewsClient(baseURL, apiKey string, limit int, timeout time.Duration) *NewsClient {
	if limit <= 0 {
		limit = DefaultNewsLimit
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &NewsClient{
		client:  newRestClient(baseURL, timeout),
		apiKey:  strings.TrimSpace(apiKey),
		limit:   limit,
		timeout: timeout,
	}
}

func (c *NewsClient) FetchNews(ctx context.Context, symbol string) []model.NewsItem {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"ticker":    symbol,
			"limit":     strconv.Itoa(c.limit),
			"order":     "desc",
			"sort":      "published_utc",
			apiKeyParam: c.apiKey,
		}).
		Get(newsPath)
	if err != nil {
		log.Error().Err(err).Str("symbol", symbol).Msg("news fetch failed")
		return []model.NewsItem{}
	}
	if resp.IsError() {
		log.Error().Int("status", resp.StatusCode()).Str("symbol", symbol).Msg("news fetch failed")
		return []model.NewsItem{}
	}

	var body newsResponse
	if err := json.Unmarshal(resp.Body(), &body); err != nil || body.Results == nil {
		log.Warn().Err(err).Str("symbol", symbol).Msg("unexpected news payload, using empty list")
		return []model.NewsItem{}
	}

	out := make([]model.NewsItem, 0, len(body.Results))
	for _, r := range body.Results {
		if len(out) >= c.limit {
			break
		}
		out = append(out, normalizeNews(r))
	}
	return out
}

func normalizeNews(r newsResult) model.NewsItem {
	item := model.NewsItem{
		Headline: strings.TrimSpace(r.Title),
		Summary:  truncate(strings.TrimSpace(r.Description), summaryMaxRunes),
		URL:      strings.TrimSpace(r.ArticleURL),
	}
	if item.Headline == "" {
		item.Headline = noTitle
	}
	if item.Summary == "" {
		item.Summary = noSummary
	}
	return item
}
