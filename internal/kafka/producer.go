package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"tx-monitor/internal/models"

	"github.com/IBM/sarama"
)

// Producer публикует необрабатываемые сообщения стрима в dead-letter топик.
// Альтернатива бесконечному ретраю битого сообщения: стрим не должен
// блокироваться, но и молча терять события нельзя.
type Producer interface {
	SendDeadLetter(ctx context.Context, payload []byte, reason string) error
	Close() error
}

type KafkaProducer struct {
	producer sarama.SyncProducer
	topic    string
	log      *slog.Logger
}

func NewKafkaProducer(brokers []string, topic string, log *slog.Logger) (Producer, error) {
	config := sarama.NewConfig()
	config.Producer.Return.Successes = true
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Retry.Max = 5
	config.Producer.Compression = sarama.CompressionSnappy
	config.Producer.Timeout = 5 * time.Second

	producer, err := sarama.NewSyncProducer(brokers, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka producer: %w", err)
	}

	log.Info("dead-letter producer создан", slog.String("topic", topic), slog.Any("brokers", brokers))

	return &KafkaProducer{
		producer: producer,
		topic:    topic,
		log:      log,
	}, nil
}

func (p *KafkaProducer) SendDeadLetter(ctx context.Context, payload []byte, reason string) error {
	deadLetter := models.DeadLetterMessage{
		Reason:   reason,
		Payload:  payload,
		FailedAt: time.Now().UTC(),
	}

	data, err := json.Marshal(deadLetter)
	if err != nil {
		return fmt.Errorf("marshal error: %w", err)
	}

	msg := &sarama.ProducerMessage{
		Topic: p.topic,
		Value: sarama.ByteEncoder(data),
	}

	type result struct {
		partition int32
		offset    int64
		err       error
	}

	resultCh := make(chan result, 1)

	go func() {
		partition, offset, err := p.producer.SendMessage(msg)
		resultCh <- result{partition, offset, err}
	}()

	select {
	case res := <-resultCh:
		if res.err != nil {
			p.log.Error("kafka send failed",
				slog.String("reason", reason),
				slog.String("error", res.err.Error()))
			return res.err
		}
		p.log.Warn("сообщение отправлено в dead-letter топик",
			slog.String("reason", reason),
			slog.Int("partition", int(res.partition)),
			slog.Int64("offset", res.offset))
		return nil

	case <-ctx.Done():
		p.log.Warn("kafka send cancelled", slog.String("reason", reason))
		return ctx.Err()
	}
}

func (p *KafkaProducer) Close() error {
	if p.producer == nil {
		return nil
	}
	p.log.Info("закрытие dead-letter producer")
	return p.producer.Close()
}

type NoOpProducer struct {
	log *slog.Logger
}

func NewNoOpProducer(log *slog.Logger) Producer {
	return &NoOpProducer{log: log}
}

func (p *NoOpProducer) SendDeadLetter(ctx context.Context, payload []byte, reason string) error {
	p.log.Warn("dead-letter producer отключен, сообщение отброшено",
		slog.String("reason", reason),
		slog.String("payload", string(payload)))
	return nil
}

func (p *NoOpProducer) Close() error {
	return nil
}
