package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "tickalert"

var (
	FramesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "stream_frames_total",
		Help:      "Inbound stream frames by decode result.",
	}, []string{"result"})

	MessagesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "stream_messages_total",
		Help:      "Decoded stream messages by kind.",
	}, []string{"kind"})

	DetectionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "detections_total",
		Help:      "Spike detections by outcome (queued, cooldown, dropped).",
	}, []string{"outcome"})

	DeliveriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "deliveries_total",
		Help:      "Per-subscriber delivery attempts by result.",
	}, []string{"channel", "result"})

	PublishesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "publishes_total",
		Help:      "Side-channel alert publishes by publisher and result.",
	}, []string{"publisher", "result"})

	StreamSessions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "stream_sessions_total",
		Help:      "Streaming sessions by end reason.",
	}, []string{"reason"})

	UniverseSize = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "universe_symbols",
		Help:      "Symbols in the loaded subscription universe.",
	})
)
