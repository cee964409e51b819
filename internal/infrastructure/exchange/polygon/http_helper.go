package polygon

import (
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

const (
	DefaultRestURL = "https://api.polygon.io"
	DefaultWsURL   = "wss://socket.polygon.io/stocks"

	apiKeyParam = "apiKey"
)

func newRestClient(baseURL string, timeout time.Duration) *resty.Client {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = DefaultRestURL
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")
}

// redact strips the credential from a url before it is logged
func redact(rawURL, apiKey string) string {
	if apiKey == "" {
		return rawURL
	}
	return strings.ReplaceAll(rawURL, apiKey, "***")
}
