package polygon

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchNewsNormalizes(t *testing.T) {
	long := strings.Repeat("x", 250)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/reference/news", r.URL.Path)
		assert.Equal(t, "TSLA", r.URL.Query().Get("ticker"))
		assert.Equal(t, "3", r.URL.Query().Get("limit"))
		assert.Equal(t, "desc", r.URL.Query().Get("order"))
		fmt.Fprintf(w, `{"status":"OK","results":[
			{"title":"Deliveries beat","description":"%s","article_url":"https://example.com/a"},
			{"description":"body only"},
			{"title":"Third"},
			{"title":"Fourth"}]}`, long)
	}))
	defer srv.Close()

	c := NewNewsClient(srv.URL, "k", 3, 2*time.Second)
	news := c.FetchNews(context.Background(), "TSLA")

	require.Len(t, news, 3)
	assert.Equal(t, "Deliveries beat", news[0].Headline)
	assert.Len(t, []rune(news[0].Summary), 200)
	assert.Equal(t, "https://example.com/a", news[0].URL)
	assert.Equal(t, noTitle, news[1].Headline)
	assert.Equal(t, "", news[1].URL)
	assert.Equal(t, noSummary, news[2].Summary)
}

func TestFetchNewsNeverFails(t *testing.T) {
	cases := map[string]http.HandlerFunc{
		"server error": func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusInternalServerError) },
		"malformed":    func(w http.ResponseWriter, r *http.Request) { fmt.Fprint(w, `{"results":`) },
		"no results":   func(w http.ResponseWriter, r *http.Request) { fmt.Fprint(w, `{"status":"OK"}`) },
		"slow": func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-r.Context().Done():
			case <-time.After(2 * time.Second):
			}
		},
	}
	for name, h := range cases {
		t.Run(name, func(t *testing.T) {
			srv := httptest.NewServer(h)
			defer srv.Close()

			c := NewNewsClient(srv.URL, "k", 3, 200*time.Millisecond)
			news := c.FetchNews(context.Background(), "AAPL")
			assert.NotNil(t, news)
			assert.Empty(t, news)
		})
	}
}

func TestFetchNewsUnreachable(t *testing.T) {
	c := NewNewsClient("http://127.0.0.1:1", "k", 3, 200*time.Millisecond)
	assert.Empty(t, c.FetchNews(context.Background(), "AAPL"))
}
