/*
Package kafka feeds envelopes from a Kafka topic into the indexer.

PURPOSE:
  The upstream decoder publishes one JSON envelope per message (the same
  schema POST /api/events accepts). The consumer decodes each message and
  hands it to indexer.Handle, committing the offset only once the event
  has been applied.

DELIVERY:
  - Partition order is preserved: messages are fetched and applied one at a time.
  - A message that cannot be decoded is logged and committed, so one bad
    payload does not wedge the partition.
  - A store failure stops the loop without committing. After a restart the
    message is redelivered, and idempotent reducers make that safe.

SEE ALSO:
  - factory/event.go: Envelope JSON schema
  - indexer/indexer.go: Handle
*/
package kafka

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/warp/rent-indexer/config"
	"github.com/warp/rent-indexer/event"
	"github.com/warp/rent-indexer/factory"
)

// Reader is the part of *kafka.Reader the consumer uses.
type Reader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Handler applies one decoded event. *indexer.Indexer satisfies it.
type Handler interface {
	Handle(ctx context.Context, env event.Envelope) error
}

type Consumer struct {
	reader  Reader
	handler Handler
	factory *factory.EventFactory
	log     *zap.Logger
}

// NewReader builds a consumer-group reader for cfg.
func NewReader(cfg config.KafkaConfig) (*kafka.Reader, error) {
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("kafka consumer requires at least one broker")
	}
	if cfg.GroupID == "" {
		return nil, fmt.Errorf("kafka consumer requires group id")
	}
	if cfg.Topic == "" {
		return nil, fmt.Errorf("kafka consumer requires a topic")
	}
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers:  cfg.Brokers,
		GroupID:  cfg.GroupID,
		Topic:    cfg.Topic,
		MinBytes: 1,
		MaxBytes: 10e6,
		MaxWait:  500 * time.Millisecond,
	}), nil
}

func NewConsumer(reader Reader, handler Handler, log *zap.Logger) *Consumer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Consumer{
		reader:  reader,
		handler: handler,
		factory: factory.NewEventFactory(),
		log:     log,
	}
}

// Run consumes until ctx is cancelled or an event fails to apply.
// Cancellation returns nil.
func (c *Consumer) Run(ctx context.Context) error {
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			return fmt.Errorf("fetch: %w", err)
		}

		if err := c.process(ctx, msg); err != nil {
			return err
		}
		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("commit %s/%d@%d: %w", msg.Topic, msg.Partition, msg.Offset, err)
		}
	}
}

func (c *Consumer) process(ctx context.Context, msg kafka.Message) error {
	env, err := c.factory.ParseEnvelope(msg.Value)
	if err != nil {
		c.log.Warn("dropping undecodable message",
			zap.String("topic", msg.Topic),
			zap.Int("partition", msg.Partition),
			zap.Int64("offset", msg.Offset),
			zap.Error(err))
		return nil
	}
	if err := c.handler.Handle(ctx, env); err != nil {
		return fmt.Errorf("offset %d: %w", msg.Offset, err)
	}
	return nil
}

// Close closes the underlying reader.
func (c *Consumer) Close() error {
	return c.reader.Close()
}
