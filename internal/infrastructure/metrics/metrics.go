package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Realtime channel metrics
	SocketsOpen = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "bookmate_sockets_open",
			Help: "Currently open websocket connections",
		},
	)

	UsersOnline = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "bookmate_users_online",
			Help: "Users currently registered in the presence table",
		},
	)

	// Delivery metrics
	MessagesPersisted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "bookmate_messages_persisted_total",
			Help: "Chat messages written to durable storage",
		},
	)

	DeliveryFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "bookmate_delivery_failures_total",
			Help: "Message deliveries aborted by a persistence failure",
		},
	)

	LivePushes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bookmate_live_pushes_total",
			Help: "Live events pushed over the realtime channel",
		},
		[]string{"event", "outcome"}, // outcome: delivered | absent
	)
)
