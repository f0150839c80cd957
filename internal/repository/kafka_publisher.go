package repository

import (
	"context"

	"PumpScan/internal/domain/models"
	"PumpScan/internal/domain/repository"
	pkgkafka "PumpScan/pkg/kafka"
)

// MessageWriter is the subset of the Kafka producer the publisher needs.
type MessageWriter interface {
	Publish(ctx context.Context, topic string, msg pkgkafka.Message) error
	Close() error
}

// KafkaPublisher implements ReportPublisher for Kafka. Reports are keyed by scan id.
type KafkaPublisher struct {
	producer MessageWriter
	topic    string
}

// NewKafkaPublisher creates Kafka publisher.
func NewKafkaPublisher(producer MessageWriter, topic string) repository.ReportPublisher {
	return &KafkaPublisher{producer: producer, topic: topic}
}

func (p *KafkaPublisher) PublishReport(ctx context.Context, r *models.ScanReport) error {
	return p.producer.Publish(ctx, p.topic, pkgkafka.Message{
		Key:   []byte(r.ScanID),
		Value: r,
		Headers: map[string]string{
			pkgkafka.TraceHeader: r.ScanID,
			"trigger":            r.Trigger,
			"recommendation":     string(r.Summary.Recommendation.Level),
		},
	})
}

func (p *KafkaPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}
