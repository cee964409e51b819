package polygon

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"tickalert/internal/application/port"
	"tickalert/internal/domain/model"
	"tickalert/internal/infrastructure/exchange"
	"tickalert/internal/infrastructure/metrics"
)

// DefaultChunkSize topics per subscribe frame
const DefaultChunkSize = 1000

// State lifecycle of the streaming connection
type State int32

const (
	StateDisconnected State = iota
	StateConnecting
	StateAuthenticating
	StateSubscribing
	StateStreaming
	StateClosing
	StateReconnecting
	StateTerminated
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateAuthenticating:
		return "authenticating"
	case StateSubscribing:
		return "subscribing"
	case StateStreaming:
		return "streaming"
	case StateClosing:
		return "closing"
	case StateReconnecting:
		return "reconnecting"
	case StateTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}

type StreamConfig struct {
	URL              string
	APIKey           string
	ChunkSize        int
	HandshakeTimeout time.Duration
	PingInterval     time.Duration
	ReadTimeout      time.Duration
}

type wsMsg struct {
	Action string `json:"action"`
	Params string `json:"params"`
}

func authMsg(key string) wsMsg { return wsMsg{Action: "auth", Params: key} }

func subscribeMsg(topics []string) wsMsg {
	return wsMsg{Action: "subscribe", Params: strings.Join(topics, ",")}
}

// StreamClient owns one long-lived trade stream over a fixed topic set.
// The topic set and universe are immutable once constructed.
type StreamClient struct {
	cfg      StreamConfig
	topics   []string
	universe map[string]struct{}
	handler  port.TradeHandler
	dialer   *websocket.Dialer
	state    atomic.Int32
}

func NewStreamClient(cfg StreamConfig, symbols []model.Symbol, handler port.TradeHandler) *StreamClient {
	cfg.URL = strings.TrimSpace(cfg.URL)
	if cfg.URL == "" {
		cfg.URL = DefaultWsURL
	}
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = DefaultChunkSize
	}
	if cfg.HandshakeTimeout <= 0 {
		cfg.HandshakeTimeout = 10 * time.Second
	}
	if cfg.PingInterval <= 0 {
		cfg.PingInterval = 25 * time.Second
	}
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = 60 * time.Second
	}

	universe := make(map[string]struct{}, len(symbols))
	for _, s := range symbols {
		universe[strings.ToUpper(strings.TrimSpace(s.Ticker))] = struct{}{}
	}

	return &StreamClient{
		cfg:      cfg,
		topics:   exchange.TopicsFor(symbols),
		universe: universe,
		handler:  handler,
		dialer: &websocket.Dialer{
			HandshakeTimeout:  cfg.HandshakeTimeout,
			EnableCompression: true,
		},
	}
}

func (c *StreamClient) Name() string { return "polygon" }

func (c *StreamClient) State() State { return State(c.state.Load()) }

func (c *StreamClient) StateName() string { return c.State().String() }

// Streaming reports whether trades are currently being received
func (c *StreamClient) Streaming() bool { return c.State() == StateStreaming }

func (c *StreamClient) setState(s State) {
	prev := State(c.state.Swap(int32(s)))
	if prev != s {
		log.Debug().Str("feed", c.Name()).Str("from", prev.String()).Str("to", s.String()).Msg("stream state")
	}
}

// Terminate marks the client as finished; no further sessions are expected.
func (c *StreamClient) Terminate() { c.setState(StateTerminated) }

// Reconnecting marks the gap between two sessions.
func (c *StreamClient) Reconnecting() { c.setState(StateReconnecting) }

func (c *StreamClient) Topics() []string { return c.topics }

// Run executes one session: connect, authenticate, subscribe in chunks, stream until the
// transport fails or ctx ends. streamed reports whether the session reached streaming.
func (c *StreamClient) Run(ctx context.Context) (streamed bool, err error) {
	if len(c.topics) == 0 {
		return false, errors.New("no topics to subscribe")
	}

	c.setState(StateConnecting)
	log.Info().Str("feed", c.Name()).Str("url", c.cfg.URL).Msg("ws connecting")
	conn, _, err := c.dialer.DialContext(ctx, c.cfg.URL, nil)
	if err != nil {
		c.setState(StateClosing)
		return false, fmt.Errorf("dial: %w", err)
	}
	defer func() {
		c.setState(StateClosing)
		if ctx.Err() != nil {
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, "shutdown"),
				time.Now().Add(time.Second))
		}
		_ = conn.Close()
	}()

	// acknowledgment arrives later as a status frame, never awaited here
	c.setState(StateAuthenticating)
	if err := conn.WriteJSON(authMsg(c.cfg.APIKey)); err != nil {
		return false, fmt.Errorf("auth write: %w", err)
	}

	c.setState(StateSubscribing)
	chunks := exchange.Chunk(c.topics, c.cfg.ChunkSize)
	for i, chunk := range chunks {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		if err := conn.WriteJSON(subscribeMsg(chunk)); err != nil {
			return false, fmt.Errorf("subscribe chunk %d: %w", i, err)
		}
	}
	log.Info().
		Str("feed", c.Name()).
		Int("topics", len(c.topics)).
		Int("chunks", len(chunks)).
		Int("chunk_size", c.cfg.ChunkSize).
		Msg("ws connected & subscribed")

	c.setState(StateStreaming)
	err = c.readLoop(ctx, conn, func(b []byte) { c.handleFrame(ctx, b) })
	return true, err
}

func (c *StreamClient) handleFrame(ctx context.Context, b []byte) {
	msgs, err := DecodeFrame(b)
	if err != nil {
		metrics.FramesTotal.WithLabelValues("malformed").Inc()
		log.Error().Str("feed", c.Name()).Err(err).Int("bytes", len(b)).Msg("malformed frame discarded")
		return
	}
	metrics.FramesTotal.WithLabelValues("ok").Inc()

	for _, m := range msgs {
		metrics.MessagesTotal.WithLabelValues(m.Kind.String()).Inc()
		switch m.Kind {
		case KindStatus:
			ev := log.Info()
			if strings.Contains(m.Status.Status, "fail") || m.Status.Status == "error" {
				ev = log.Warn()
			}
			ev.Str("feed", c.Name()).Str("status", m.Status.Status).Str("message", m.Status.Message).Msg("stream status")
		case KindTrade:
			if _, ok := c.universe[m.Trade.Symbol]; !ok {
				continue
			}
			c.handler.OnTrade(ctx, m.Trade)
		default:
			if m.Err != nil {
				log.Debug().Str("feed", c.Name()).Str("ev", m.Tag).Err(m.Err).Msg("message skipped")
			}
		}
	}
}

func (c *StreamClient) readLoop(ctx context.Context, conn *websocket.Conn, onMsg func([]byte)) error {
	_ = conn.SetReadDeadline(time.Now().Add(c.cfg.ReadTimeout))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(c.cfg.ReadTimeout))
		return nil
	})

	pingTicker := time.NewTicker(c.cfg.PingInterval)
	defer pingTicker.Stop()

	errCh := make(chan error, 1)
	go func() {
		defer close(errCh)
		for {
			_, b, err := conn.ReadMessage()
			if err != nil {
				errCh <- err
				return
			}
			_ = conn.SetReadDeadline(time.Now().Add(c.cfg.ReadTimeout))
			onMsg(b)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-errCh:
			return err
		case <-pingTicker.C:
			_ = conn.WriteControl(websocket.PingMessage, []byte("ping"), time.Now().Add(5*time.Second))
		}
	}
}
