package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ActiveWebSocketConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "screencast_relay_active_websocket_connections",
		Help: "Number of active WebSocket connections",
	})

	WebSocketConnectionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "screencast_relay_websocket_connections_total",
		Help: "Total number of WebSocket connections",
	})

	WebSocketDisconnectionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "screencast_relay_websocket_disconnections_total",
		Help: "Total number of WebSocket disconnections",
	})

	RegisteredConnections = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "screencast_relay_registered_connections",
		Help: "Number of connections currently holding a role slot",
	}, []string{"role"}) // "producer" | "viewer"

	RegistrationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "screencast_relay_registrations_total",
		Help: "Total number of role registrations",
	}, []string{"role"})

	ReplacementsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "screencast_relay_replacements_total",
		Help: "Registrations that orphaned a previous slot occupant",
	}, []string{"role"})

	SignallingMessagesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "screencast_relay_signalling_messages_total",
		Help: "Total relayed signalling messages",
	}, []string{"type", "result"}) // result: "delivered" | "dropped"

	MalformedMessagesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "screencast_relay_malformed_messages_total",
		Help: "Inbound frames that failed to decode or validate",
	})

	ProtocolViolationsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "screencast_relay_protocol_violations_total",
		Help: "Connections closed because their first message was not a registration",
	})

	BroadcastChunksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "screencast_relay_broadcast_chunks_total",
		Help: "Producer chunks received in broadcast mode",
	})

	BroadcastBytesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "screencast_relay_broadcast_bytes_total",
		Help: "Broadcast bytes processed",
	}, []string{"direction"}) // "received" | "sent"

	BroadcastSkippedWritesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "screencast_relay_broadcast_skipped_writes_total",
		Help: "Fan-out writes skipped because the viewer channel was closed or failed",
	})

	BroadcastFanOutDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "screencast_relay_broadcast_fanout_seconds",
		Help:    "Time to write one chunk to every viewer",
		Buckets: prometheus.ExponentialBuckets(0.0001, 2, 14), // 100us to ~1.6s
	})

	QualityDirectivesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "screencast_relay_quality_directives_total",
		Help: "Quality directives emitted by the viewer",
	}, []string{"action"}) // "lower" | "raise"

	PLIRequestsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "screencast_relay_pli_requests_total",
		Help: "Total PLI requests sent by the viewer",
	})

	ConfigReloads = promauto.NewCounter(prometheus.CounterOpts{
		Name: "screencast_relay_config_reloads_total",
		Help: "Number of configuration reloads",
	})

	StartTime = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "screencast_relay_start_time_seconds",
		Help: "Server start time in Unix seconds",
	})
)
