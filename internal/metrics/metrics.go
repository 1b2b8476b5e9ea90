// Package metrics holds the process-wide prometheus collectors.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	FramesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "whalebot_frames_total", Help: "Raw websocket frames received"},
		[]string{"batch"},
	)
	TradesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "whalebot_trades_total", Help: "Trade events decoded"},
		[]string{"batch"},
	)
	AlertsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "whalebot_alerts_total", Help: "Alerts produced by the trade filter"},
		[]string{"side"},
	)
	AlertsDropped = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "whalebot_alerts_dropped_total", Help: "Alerts dropped because the delivery queue was full"},
	)
	NotifyFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "whalebot_notify_failures_total", Help: "Failed deliveries per sender"},
		[]string{"sender"},
	)
	ReconnectsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "whalebot_reconnects_total", Help: "Stream reconnect attempts"},
		[]string{"batch"},
	)
	ConnectionState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{Name: "whalebot_connection_state", Help: "Stream state: 0 connecting, 1 open, 2 closed pending retry, 3 stopped"},
		[]string{"batch"},
	)
)

func init() {
	prometheus.MustRegister(
		FramesTotal, TradesTotal, AlertsTotal, AlertsDropped,
		NotifyFailures, ReconnectsTotal, ConnectionState,
	)
}

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
