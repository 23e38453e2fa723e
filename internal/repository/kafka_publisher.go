package repository

import (
	"context"

	"FinSight/internal/domain/models"
	domrepo "FinSight/internal/domain/repository"
	pkgkafka "FinSight/pkg/kafka"
)

// messageProducer is the slice of pkg/kafka.Producer the publisher needs.
type messageProducer interface {
	Publish(ctx context.Context, topic string, key []byte, value interface{}) error
	Close() error
}

var _ messageProducer = (*pkgkafka.Producer)(nil)

// KafkaPublisher implements Publisher. Messages are keyed by company id so one
// company's outcomes and reports stay ordered on a partition.
type KafkaPublisher struct {
	producer     messageProducer
	outcomeTopic string
	reportTopic  string
}

var _ domrepo.Publisher = (*KafkaPublisher)(nil)

func NewKafkaPublisher(producer *pkgkafka.Producer, outcomeTopic, reportTopic string) *KafkaPublisher {
	return newKafkaPublisher(producer, outcomeTopic, reportTopic)
}

func newKafkaPublisher(p messageProducer, outcomeTopic, reportTopic string) *KafkaPublisher {
	return &KafkaPublisher{producer: p, outcomeTopic: outcomeTopic, reportTopic: reportTopic}
}

func (p *KafkaPublisher) PublishOutcome(ctx context.Context, o *models.FilingOutcome) error {
	return p.producer.Publish(ctx, p.outcomeTopic, []byte(o.CompanyID), o)
}

func (p *KafkaPublisher) PublishReport(ctx context.Context, r *models.CompanyReport) error {
	return p.producer.Publish(ctx, p.reportTopic, []byte(r.CompanyID), r)
}

func (p *KafkaPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}
