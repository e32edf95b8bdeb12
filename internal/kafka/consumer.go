package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"tx-monitor/internal/custom_err"
	"tx-monitor/internal/models"
	"tx-monitor/internal/service"

	"github.com/IBM/sarama"
)

// Consumer читает внешние транзакции из топика и прогоняет их через ingest.
// Offset коммитится только после успешной записи в базу (at-least-once);
// битые сообщения уходят в dead-letter топик и коммитятся сразу.
type Consumer struct {
	consumerGroup sarama.ConsumerGroup
	transactions  service.Transactions
	deadLetters   Producer
	topic         string
	workers       int
	log           *slog.Logger
	wg            sync.WaitGroup
}

func NewConsumer(
	brokers []string,
	groupID, topic string,
	workers int,
	transactions service.Transactions,
	deadLetters Producer,
	log *slog.Logger,
) (*Consumer, error) {
	config := sarama.NewConfig()
	config.Version = sarama.V3_0_0_0
	config.Consumer.Group.Rebalance.Strategy = sarama.NewBalanceStrategyRoundRobin()
	config.Consumer.Offsets.Initial = sarama.OffsetOldest
	config.Consumer.Return.Errors = true

	consumerGroup, err := sarama.NewConsumerGroup(brokers, groupID, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create consumer group: %w", err)
	}

	log.Info("kafka consumer создан",
		slog.String("group_id", groupID),
		slog.String("topic", topic),
		slog.Int("workers", workers))

	return &Consumer{
		consumerGroup: consumerGroup,
		transactions:  transactions,
		deadLetters:   deadLetters,
		topic:         topic,
		workers:       workers,
		log:           log,
	}, nil
}

func (c *Consumer) Start(ctx context.Context) error {
	c.log.Info("запуск kafka consumer")

	handler := &consumerGroupHandler{
		transactions: c.transactions,
		deadLetters:  c.deadLetters,
		log:          c.log,
	}

	for i := 0; i < c.workers; i++ {
		c.wg.Add(1)
		go func(workerID int) {
			defer c.wg.Done()
			c.log.Info("воркер запущен", slog.Int("worker_id", workerID))

			for {

				if err := c.consumerGroup.Consume(ctx, []string{c.topic}, handler); err != nil {
					if errors.Is(err, sarama.ErrClosedConsumerGroup) {
						return
					}
					c.log.Error("ошибка consume",
						slog.Int("worker_id", workerID),
						slog.String("error", err.Error()))
				}

				if ctx.Err() != nil {
					return
				}
			}
		}(i)
	}

	go func() {
		for err := range c.consumerGroup.Errors() {
			c.log.Error("ошибка consumer group", slog.String("error", err.Error()))
		}
	}()

	return nil
}

func (c *Consumer) Close(ctx context.Context) error {
	c.log.Info("закрытие kafka consumer")

	done := make(chan struct{})
	go func() {
		if err := c.consumerGroup.Close(); err != nil {
			c.log.Error("failed to close consumer group", slog.String("error", err.Error()))
		}
		c.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		c.log.Info("kafka consumer закрыт")
		return nil
	case <-ctx.Done():
		c.log.Warn("kafka consumer close timeout")
		return ctx.Err()
	}
}

type consumerGroupHandler struct {
	transactions service.Transactions
	deadLetters  Producer
	log          *slog.Logger
}

func (h *consumerGroupHandler) Setup(sarama.ConsumerGroupSession) error {
	return nil
}

func (h *consumerGroupHandler) Cleanup(sarama.ConsumerGroupSession) error {
	return nil
}

func (h *consumerGroupHandler) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for message := range claim.Messages() {
		if err := h.processMessage(session.Context(), message); err != nil {
			// Транзиентная ошибка: offset не коммитим, claim прерываем,
			// сообщение будет доставлено повторно
			h.log.Error("failed to process message, will be redelivered",
				slog.String("topic", message.Topic),
				slog.Int64("offset", message.Offset),
				slog.String("error", err.Error()))
			return err
		}
		session.MarkMessage(message, "")
	}
	return nil
}

func (h *consumerGroupHandler) processMessage(ctx context.Context, message *sarama.ConsumerMessage) error {
	h.log.Debug("получено сообщение из kafka",
		slog.String("topic", message.Topic),
		slog.Int("partition", int(message.Partition)),
		slog.Int64("offset", message.Offset))

	var streamTx models.StreamTransaction
	if err := json.Unmarshal(message.Value, &streamTx); err != nil {
		h.log.Error("ошибка десериализации сообщения",
			slog.String("error", err.Error()),
			slog.String("raw_message", string(message.Value)))

		return h.sendToDeadLetter(ctx, message.Value, fmt.Sprintf("unmarshal error: %v", err))
	}

	transaction, err := h.transactions.IngestStream(ctx, streamTx)
	if err != nil {
		if errors.Is(err, custom_err.ErrInvalidAmount) {
			return h.sendToDeadLetter(ctx, message.Value, err.Error())
		}
		return err
	}

	h.log.Info("stream-сообщение обработано",
		slog.String("transaction_id", transaction.ID.String()),
		slog.Int64("offset", message.Offset))

	return nil
}

// sendToDeadLetter коммитит offset битого сообщения только после того,
// как оно durable в dead-letter топике
func (h *consumerGroupHandler) sendToDeadLetter(ctx context.Context, payload []byte, reason string) error {
	if err := h.deadLetters.SendDeadLetter(ctx, payload, reason); err != nil {
		return fmt.Errorf("failed to dead-letter message: %w", err)
	}
	return nil
}
