package polygon

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tickalert/internal/domain/model"
)

// catalog serves two pages per exchange; every page mixes in foreign-exchange and duplicate tickers.
func catalog(t *testing.T, apiKey string) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if r.URL.Query().Get("apiKey") != apiKey {
			http.Error(w, `{"status":"ERROR","error":"bad key"}`, http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		ex := r.URL.Query().Get("exchange")
		cursor := r.URL.Query().Get("cursor")
		switch {
		case ex == "XNAS" && cursor == "":
			fmt.Fprintf(w, `{"status":"OK","results":[{"ticker":"AAPL","primary_exchange":"XNAS"},{"ticker":"ZZZ","primary_exchange":"ARCX"},{"ticker":"MSFT","primary_exchange":"XNAS"}],"next_url":"%s/v3/reference/tickers?cursor=nas2"}`, srv.URL)
		case cursor == "nas2":
			fmt.Fprint(w, `{"status":"OK","results":[{"ticker":"AAPL","primary_exchange":"XNAS"},{"ticker":"NVDA","primary_exchange":"XNAS"}]}`)
		case ex == "XNYS" && cursor == "":
			fmt.Fprintf(w, `{"status":"OK","results":[{"ticker":"IBM","primary_exchange":"XNYS"}],"next_url":"%s/v3/reference/tickers?cursor=nys2"}`, srv.URL)
		case cursor == "nys2":
			fmt.Fprint(w, `{"status":"OK","results":[{"ticker":"MSFT","primary_exchange":"XNAS"},{"ticker":"GE","primary_exchange":"XNYS"},{"ticker":"QQQ","primary_exchange":"XASE"}]}`)
		default:
			fmt.Fprint(w, `{"status":"OK","results":[]}`)
		}
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func TestLoadSymbolsPagesFiltersAndDedups(t *testing.T) {
	srv, calls := catalog(t, "k1")
	c := NewReferenceClient(srv.URL, "k1", 1000, 5*time.Second)

	syms, err := c.LoadSymbols(context.Background(), []string{"xnas", "XNYS"})
	require.NoError(t, err)

	var tickers []string
	for _, s := range syms {
		tickers = append(tickers, s.Ticker)
	}
	assert.Equal(t, []string{"AAPL", "MSFT", "NVDA", "IBM", "GE"}, tickers)
	assert.Equal(t, model.ExchangeNASDAQ, syms[0].PrimaryExchange)
	assert.Equal(t, model.ExchangeNYSE, syms[3].PrimaryExchange)
	assert.Equal(t, int32(4), calls.Load())
}

func TestLoadSymbolsFailsOnAnyPage(t *testing.T) {
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("cursor") != "" {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		fmt.Fprintf(w, `{"results":[{"ticker":"AAPL","primary_exchange":"XNAS"}],"next_url":"%s/v3/reference/tickers?cursor=2"}`, srv.URL)
	}))
	defer srv.Close()

	c := NewReferenceClient(srv.URL, "k", 1000, 5*time.Second)
	syms, err := c.LoadSymbols(context.Background(), []string{"XNAS"})
	require.Error(t, err)
	assert.Nil(t, syms)
}

func TestLoadSymbolsRejectsEmptyExchangeSet(t *testing.T) {
	c := NewReferenceClient("http://127.0.0.1:1", "k", 1000, time.Second)
	_, err := c.LoadSymbols(context.Background(), []string{" "})
	require.Error(t, err)
}

func TestLoadSymbolsBadCredential(t *testing.T) {
	srv, _ := catalog(t, "right")
	c := NewReferenceClient(srv.URL, "wrong", 1000, 5*time.Second)

	_, err := c.LoadSymbols(context.Background(), []string{"XNAS"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}
