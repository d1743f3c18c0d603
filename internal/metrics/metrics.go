package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	DispatchTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "schoolnotify", Name: "dispatch_total",
		Help: "Dispatch attempts by outcome",
	}, []string{"outcome"})

	WebhookCallbacks = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "schoolnotify", Name: "webhook_callbacks_total",
		Help: "Inbound gateway callbacks by kind",
	}, []string{"kind"})

	GatewaySend = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "schoolnotify", Name: "gateway_send_seconds",
		Help: "Gateway send latency", Buckets: prometheus.DefBuckets,
	})

	Transitions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "schoolnotify", Name: "session_transitions_total",
		Help: "Session state transitions",
	}, []string{"op"})

	DBPing = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "schoolnotify", Name: "db_ping_seconds",
		Help: "DB ping latency", Buckets: prometheus.DefBuckets,
	})
)

func init() {
	prometheus.MustRegister(DispatchTotal, WebhookCallbacks, GatewaySend, Transitions, DBPing)
}

func Handler() http.Handler { return promhttp.Handler() }

func ObserveDBPing(d time.Duration) { DBPing.Observe(d.Seconds()) }

func ObserveGatewaySend(d time.Duration) { GatewaySend.Observe(d.Seconds()) }
