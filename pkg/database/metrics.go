package database

import (
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	poolAcquiredConns = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "pgx_pool_acquired_conns",
			Help: "Number of currently acquired connections in the pool",
		},
		[]string{"service"},
	)

	poolIdleConns = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "pgx_pool_idle_conns",
			Help: "Number of currently idle connections in the pool",
		},
		[]string{"service"},
	)

	poolTotalConns = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "pgx_pool_total_conns",
			Help: "Total number of connections in the pool",
		},
		[]string{"service"},
	)
)

// RegisterPoolMetrics samples pgx pool statistics into Prometheus gauges every
// 15 seconds. The goroutine exits when the pool is closed and Stat starts
// reporting zero total connections with a closed pool.
func RegisterPoolMetrics(pool *pgxpool.Pool, service string) {
	go func() {
		ticker := time.NewTicker(15 * time.Second)
		defer ticker.Stop()

		for range ticker.C {
			stat := pool.Stat()
			poolAcquiredConns.WithLabelValues(service).Set(float64(stat.AcquiredConns()))
			poolIdleConns.WithLabelValues(service).Set(float64(stat.IdleConns()))
			poolTotalConns.WithLabelValues(service).Set(float64(stat.TotalConns()))
		}
	}()
}
