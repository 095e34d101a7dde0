package metrics

import (
	"time"
)

type DbTimer struct {
	service   string
	operation string
	table     string
	start     time.Time
}

func NewDbTimer(service, operation, table string) *DbTimer {
	return &DbTimer{
		service:   service,
		operation: operation,
		table:     table,
		start:     time.Now(),
	}
}

func (dt *DbTimer) ObserveDuration() {
	duration := time.Since(dt.start).Seconds()
	DbQueryDuration.WithLabelValues(dt.service, dt.operation, dt.table).Observe(duration)
}

func RecordDbError(service, operation string) {
	DbErrors.WithLabelValues(service, operation).Inc()
}

type KafkaProduceTimer struct {
	service string
	topic   string
	start   time.Time
}

func NewKafkaProduceTimer(service, topic string) *KafkaProduceTimer {
	return &KafkaProduceTimer{
		service: service,
		topic:   topic,
		start:   time.Now(),
	}
}

func (kt *KafkaProduceTimer) Success() {
	KafkaMessagesProduced.WithLabelValues(kt.service, kt.topic).Inc()
	KafkaProduceDuration.WithLabelValues(kt.service, kt.topic).Observe(time.Since(kt.start).Seconds())
}

func (kt *KafkaProduceTimer) Error() {
	KafkaErrors.WithLabelValues(kt.service, kt.topic).Inc()
}
