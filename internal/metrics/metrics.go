package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	OutcomeSuccess  = "success"
	OutcomeRejected = "rejected"
	OutcomeFailure  = "failure"
)

var (
	LiveClients = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "gitbridge_live_clients",
		Help: "Number of connected live-update clients",
	})
	Broadcasts = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "gitbridge_broadcasts_total",
		Help: "Repository events broadcast to live-update clients",
	})
	EventsDelivered = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "gitbridge_events_delivered_total",
		Help: "Repository events successfully sent to a single client",
	})
	PipelineTriggers = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "gitbridge_pipeline_triggers_total",
		Help: "Orchestrator pipeline triggers by outcome",
	}, []string{"outcome"})
	OAuthExchanges = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "gitbridge_oauth_exchanges_total",
		Help: "OAuth code exchanges by provider and outcome",
	}, []string{"provider", "outcome"})
)

// Register adds the application collectors to r.
func Register(r prometheus.Registerer) {
	r.MustRegister(
		LiveClients,
		Broadcasts,
		EventsDelivered,
		PipelineTriggers,
		OAuthExchanges,
	)
}
