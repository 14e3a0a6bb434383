// Package metrics provides Prometheus instrumentation for the WhoU chat
// server. It exposes gauges for connection, queue and chat counts, plus
// counters for message and matching throughput.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// ConnectionsTotal tracks the current number of active WebSocket connections.
	ConnectionsTotal = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "whou_connections_total",
		Help: "Current number of active WebSocket connections",
	})

	// OnlineUsers tracks the number of registered users (joined the queue at
	// least once and still connected).
	OnlineUsers = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "whou_online_users",
		Help: "Current number of registered users",
	})

	// MatchQueueSize tracks the current number of users in the waiting queue.
	MatchQueueSize = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "whou_match_queue_size",
		Help: "Current number of users in the waiting queue",
	})

	// ActiveChats tracks the current number of active pairings.
	ActiveChats = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "whou_active_chats",
		Help: "Current number of active chats",
	})

	// MessagesTotal counts relay attempts by outcome: "relayed",
	// "rate_limited", "too_long", "dropped_empty", "not_matched",
	// "undeliverable".
	MessagesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "whou_messages_total",
		Help: "Total number of message relay attempts by outcome",
	}, []string{"outcome"})

	// MatchesTotal counts committed pairings.
	MatchesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "whou_matches_total",
		Help: "Total number of committed pairings",
	})

	// ReportsTotal counts filed abuse reports.
	ReportsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "whou_reports_total",
		Help: "Total number of abuse reports filed",
	})

	// ReapedTotal counts users disconnected by the inactivity reaper.
	ReapedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "whou_reaped_total",
		Help: "Total number of users disconnected for inactivity",
	})
)

func init() {
	prometheus.MustRegister(
		ConnectionsTotal,
		OnlineUsers,
		MatchQueueSize,
		ActiveChats,
		MessagesTotal,
		MatchesTotal,
		ReportsTotal,
		ReapedTotal,
	)
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
