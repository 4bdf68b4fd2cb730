package metrics

import (
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP 请求延迟（秒）
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		},
		[]string{"method", "path", "status"},
	)

	// MQ 消费延迟（毫秒）
	MQConsumeLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mq_consume_latency_ms",
			Help:    "MQ message consumption latency in milliseconds",
			Buckets: prometheus.ExponentialBuckets(10, 2, 10), // 10ms to ~10s
		},
		[]string{"routing_key", "queue"},
	)

	SlowQueryCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "db_slow_query_total",
			Help: "Statements slower than the configured threshold",
		},
		[]string{"operation"},
	)

	OutboxPublishCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "outbox_publish_total",
			Help: "Outbox events handed to the broker",
		},
		[]string{"routing_key", "status"}, // status: sent, failed, rejected
	)

	ScheduleBuildDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "schedule_build_duration_seconds",
			Help:    "Time to load projects and build a Gantt view",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 12),
		},
		[]string{"mode"},
	)

	ScheduleCacheCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "schedule_cache_total",
			Help: "Gantt view cache lookups",
		},
		[]string{"result"}, // hit, miss, error
	)

	TaskImportCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "task_import_rows_total",
			Help: "CSV task rows processed",
		},
		[]string{"result"}, // added, skipped
	)

	EarnedValueSnapshotCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "earned_value_snapshot_total",
			Help: "Earned value snapshots recorded by the worker",
		},
		[]string{"trigger"},
	)
)

// RecordHTTPRequestDuration 记录 HTTP 请求延迟
func RecordHTTPRequestDuration(method, path, status string, duration time.Duration) {
	HTTPRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

// RecordMQConsumeLatency 记录 MQ 消费延迟
func RecordMQConsumeLatency(routingKey, queue string, duration time.Duration) {
	MQConsumeLatency.WithLabelValues(routingKey, queue).Observe(float64(duration.Milliseconds()))
}

// IncrementSlowQuery labels by the leading SQL keyword to keep cardinality bounded.
func IncrementSlowQuery(sql string) {
	op := "unknown"
	if fields := strings.Fields(sql); len(fields) > 0 {
		op = strings.ToLower(fields[0])
	}
	SlowQueryCount.WithLabelValues(op).Inc()
}

func IncrementOutboxPublish(routingKey, status string) {
	OutboxPublishCount.WithLabelValues(routingKey, status).Inc()
}

func RecordScheduleBuild(mode string, duration time.Duration) {
	ScheduleBuildDuration.WithLabelValues(mode).Observe(duration.Seconds())
}

func IncrementScheduleCache(result string) {
	ScheduleCacheCount.WithLabelValues(result).Inc()
}

func AddTaskImport(result string, n int) {
	TaskImportCount.WithLabelValues(result).Add(float64(n))
}

func IncrementEarnedValueSnapshot(trigger string) {
	EarnedValueSnapshotCount.WithLabelValues(trigger).Inc()
}
