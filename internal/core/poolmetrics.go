// AngelaMos | 2026
// poolmetrics.go

package core

import (
	"database/sql"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
)

// RegisterPoolMetrics exposes connection pool occupancy of the database
// and Redis clients as gauges sampled at scrape time.
func RegisterPoolMetrics(
	reg prometheus.Registerer,
	dbStats func() sql.DBStats,
	redisStats func() *redis.PoolStats,
) error {
	gauges := []prometheus.Collector{
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "dentflow_db_open_connections",
			Help: "Open database connections",
		}, func() float64 { return float64(dbStats().OpenConnections) }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "dentflow_db_in_use_connections",
			Help: "Database connections currently in use",
		}, func() float64 { return float64(dbStats().InUse) }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "dentflow_db_wait_count",
			Help: "Total connections waited for",
		}, func() float64 { return float64(dbStats().WaitCount) }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "dentflow_redis_total_connections",
			Help: "Connections in the Redis pool",
		}, func() float64 { return float64(redisStats().TotalConns) }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "dentflow_redis_idle_connections",
			Help: "Idle connections in the Redis pool",
		}, func() float64 { return float64(redisStats().IdleConns) }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "dentflow_redis_timeouts",
			Help: "Redis pool wait timeouts",
		}, func() float64 { return float64(redisStats().Timeouts) }),
	}

	for _, g := range gauges {
		if err := reg.Register(g); err != nil {
			return err
		}
	}
	return nil
}
