package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "parley_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "parley_http_request_duration_seconds",
			Help:    "HTTP request duration",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"method", "path"},
	)

	// Business metrics
	UsersRegistered = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "parley_users_registered_total",
			Help: "Total users registered",
		},
	)

	MessagesSent = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "parley_messages_sent_total",
			Help: "Total messages sent",
		},
	)

	NotificationsFanned = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "parley_notifications_fanned_total",
			Help: "Total notifications written by fan-out",
		},
	)

	PresenceUpdates = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "parley_presence_updates_total",
			Help: "Total presence flag writes",
		},
	)

	// Realtime metrics
	WebsocketConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "parley_websocket_connections",
			Help: "Currently connected websocket clients",
		},
	)

	EventsDelivered = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "parley_events_delivered_total",
			Help: "Realtime events forwarded to websocket clients",
		},
		[]string{"channel"},
	)
)
