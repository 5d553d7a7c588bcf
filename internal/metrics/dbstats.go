package metrics

import (
	"database/sql"

	"github.com/prometheus/client_golang/prometheus"
)

// RegisterDBStatsMetrics exposes database/sql pool statistics as Prometheus gauges.
func RegisterDBStatsMetrics(r prometheus.Registerer, name string, db *sql.DB) {
	labels := prometheus.Labels{"db": name}
	r.MustRegister(
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name:        "gitbridge_db_open_conns",
			Help:        "Number of established connections, in use and idle",
			ConstLabels: labels,
		}, func() float64 {
			return float64(db.Stats().OpenConnections)
		}),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name:        "gitbridge_db_in_use_conns",
			Help:        "Number of connections currently in use",
			ConstLabels: labels,
		}, func() float64 {
			return float64(db.Stats().InUse)
		}),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name:        "gitbridge_db_max_open_conns",
			Help:        "Maximum number of open connections",
			ConstLabels: labels,
		}, func() float64 {
			return float64(db.Stats().MaxOpenConnections)
		}),
	)
}
