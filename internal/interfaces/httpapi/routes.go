package httpapi

import (
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const statusText = "Server is alive and monitoring stocks."

// StreamState reports the streaming client state for /health
type StreamState interface {
	StateName() string
	Streaming() bool
}

// Handler holds dependencies for HTTP handlers
type Handler struct {
	stream   StreamState
	universe int
	started  time.Time
}

// NewHandler creates a new Handler
func NewHandler(stream StreamState, universe int) *Handler {
	return &Handler{stream: stream, universe: universe, started: time.Now()}
}

// SetupRoutes configures all routes
func SetupRoutes(h *Handler) *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/status", h.Status).Methods(http.MethodGet)
	r.HandleFunc("/health", h.HealthCheck).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	return r
}

// Status handles GET /status
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(statusText))
}

type healthResponse struct {
	Status   string `json:"status"`
	Stream   string `json:"stream"`
	Universe int    `json:"universe"`
	Uptime   string `json:"uptime"`
}

// HealthCheck handles GET /health; 503 while the stream is not delivering trades
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{
		Status:   "ok",
		Stream:   "unknown",
		Universe: h.universe,
		Uptime:   time.Since(h.started).Truncate(time.Second).String(),
	}
	code := http.StatusOK
	if h.stream != nil {
		resp.Stream = h.stream.StateName()
		if !h.stream.Streaming() {
			resp.Status = "degraded"
			code = http.StatusServiceUnavailable
		}
	}
	respondJSON(w, code, resp)
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
