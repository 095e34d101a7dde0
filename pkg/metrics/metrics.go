package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// =============================================================================
// HTTP Метрики
// =============================================================================

// HttpRequestsTotal - счётчик всех HTTP запросов
// Labels: service, method, path, status
var HttpRequestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	},
	[]string{"service", "method", "path", "status"},
)

// HttpRequestDuration - гистограмма времени ответа
var HttpRequestDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	},
	[]string{"service", "method", "path"},
)

// HttpRequestsInFlight - текущее количество обрабатываемых запросов
var HttpRequestsInFlight = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "http_requests_in_flight",
		Help: "Current number of HTTP requests being processed",
	},
	[]string{"service"},
)

// =============================================================================
// Database Метрики
// =============================================================================

// DbQueryDuration - время выполнения SQL запросов
var DbQueryDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "db_query_duration_seconds",
		Help:    "Duration of database queries in seconds",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
	},
	[]string{"service", "operation", "table"},
)

// DbErrors - счётчик ошибок базы данных
var DbErrors = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "db_errors_total",
		Help: "Total number of database errors",
	},
	[]string{"service", "operation"},
)

// =============================================================================
// Kafka Метрики
// =============================================================================

// KafkaMessagesProduced - отправленные сообщения
var KafkaMessagesProduced = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "kafka_messages_produced_total",
		Help: "Total number of Kafka messages produced",
	},
	[]string{"service", "topic"},
)

// KafkaProduceDuration - время отправки сообщения
var KafkaProduceDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "kafka_produce_duration_seconds",
		Help:    "Duration of Kafka produce operations",
		Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
	},
	[]string{"service", "topic"},
)

// KafkaErrors - ошибки Kafka
var KafkaErrors = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "kafka_errors_total",
		Help: "Total number of Kafka errors",
	},
	[]string{"service", "topic"},
)

// =============================================================================
// Business Метрики (специфичные для rating-service)
// =============================================================================

// ScrapeAttempts - попытки обновления снапшота по исходу
// status: success, transport_error, extraction_error, storage_error
var ScrapeAttempts = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "rating_scrape_attempts_total",
		Help: "Total number of rating refresh attempts by outcome",
	},
	[]string{"status"},
)

// ExtractionStrategyHits - какая стратегия извлечения сработала
// strategy: structured_data, inline_attribute, localized_caption, loose_pattern, none
var ExtractionStrategyHits = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "rating_extraction_strategy_hits_total",
		Help: "Which extraction strategy produced the score",
	},
	[]string{"strategy"},
)

// SnapshotsSaved - сохранённые снапшоты
var SnapshotsSaved = promauto.NewCounter(
	prometheus.CounterOpts{
		Name: "rating_snapshots_saved_total",
		Help: "Total number of rating snapshots saved",
	},
)

// LastObservedScore - последний извлечённый рейтинг
var LastObservedScore = promauto.NewGauge(
	prometheus.GaugeOpts{
		Name: "rating_last_observed_score",
		Help: "Most recently extracted rating score",
	},
)

// RefreshDuration - полное время операции Refresh (fetch + extract + save)
var RefreshDuration = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Name:    "rating_refresh_duration_seconds",
		Help:    "Duration of full refresh operations",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30},
	},
)
