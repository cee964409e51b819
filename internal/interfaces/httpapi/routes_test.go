package httpapi

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeState struct {
	name      string
	streaming bool
}

func (f fakeState) StateName() string { return f.name }
func (f fakeState) Streaming() bool   { return f.streaming }

func do(t *testing.T, h http.Handler, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, path, nil))
	return rec
}

func TestStatus(t *testing.T) {
	r := SetupRoutes(NewHandler(nil, 0))
	rec := do(t, r, http.MethodGet, "/status")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Server is alive and monitoring stocks.", rec.Body.String())
}

func TestHealthReflectsStreamState(t *testing.T) {
	r := SetupRoutes(NewHandler(fakeState{name: "streaming", streaming: true}, 7000))
	rec := do(t, r, http.MethodGet, "/health")
	require.Equal(t, http.StatusOK, rec.Code)

	var body healthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body.Status)
	assert.Equal(t, "streaming", body.Stream)
	assert.Equal(t, 7000, body.Universe)

	r = SetupRoutes(NewHandler(fakeState{name: "reconnecting"}, 7000))
	rec = do(t, r, http.MethodGet, "/health")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestMetricsAndMethods(t *testing.T) {
	r := SetupRoutes(NewHandler(nil, 0))
	rec := do(t, r, http.MethodGet, "/metrics")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, r, http.MethodPost, "/status")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
