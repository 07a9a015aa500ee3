package activity

import (
	"context"
	"time"

	usecase "taskaty/backend/internal/usecase/auth"

	"github.com/pkg/errors"
	"github.com/twmb/franz-go/pkg/kgo"
	"github.com/vmihailenco/msgpack/v5"
	"go.uber.org/zap"
)

// DefaultTopic receives activity events when no topic is configured.
const DefaultTopic = "taskaty.user-activity"

// maxBufferedRecords caps memory held while brokers are unreachable.
const maxBufferedRecords = 10000

type producer interface {
	TryProduce(ctx context.Context, r *kgo.Record, promise func(*kgo.Record, error))
	Flush(ctx context.Context) error
	Close()
}

// KafkaPublisher produces msgpack-encoded events keyed by user id.
type KafkaPublisher struct {
	client producer
	topic  string
	logger *zap.Logger
}

var _ usecase.EventPublisher = (*KafkaPublisher)(nil)

// NewKafkaPublisher connects a producer to brokers.
func NewKafkaPublisher(brokers []string, topic string, logger *zap.Logger) (*KafkaPublisher, error) {
	if topic == "" {
		topic = DefaultTopic
	}
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
		kgo.ProducerLinger(50*time.Millisecond),
		kgo.RecordRetries(5),
		kgo.MaxBufferedRecords(maxBufferedRecords),
	)
	if err != nil {
		return nil, errors.Wrap(err, "kafka client")
	}
	return &KafkaPublisher{client: client, topic: topic, logger: logger}, nil
}

// Publish queues the event asynchronously and never waits for buffer space.
// Events that do not fit are dropped; delivery failures are logged.
func (p *KafkaPublisher) Publish(ctx context.Context, event usecase.Event) {
	payload, err := msgpack.Marshal(event)
	if err != nil {
		p.logger.Error("Failed to encode activity event", zap.String("type", event.Type), zap.Error(err))
		return
	}

	record := &kgo.Record{
		Topic: p.topic,
		Key:   []byte(event.UserID),
		Value: payload,
		Headers: []kgo.RecordHeader{
			{Key: "event-type", Value: []byte(event.Type)},
		},
	}
	// The request context ends with the response; delivery must outlive it.
	p.client.TryProduce(context.WithoutCancel(ctx), record, func(r *kgo.Record, err error) {
		switch {
		case err == nil:
		case errors.Is(err, kgo.ErrMaxBuffered):
			p.logger.Warn("Dropped activity event, producer buffer is full",
				zap.String("type", event.Type),
				zap.String("user_id", event.UserID),
			)
		default:
			p.logger.Warn("Failed to deliver activity event",
				zap.String("type", event.Type),
				zap.String("topic", r.Topic),
				zap.Error(err),
			)
		}
	})
}

// Close flushes buffered records and releases the client.
func (p *KafkaPublisher) Close(ctx context.Context) error {
	defer p.client.Close()
	if err := p.client.Flush(ctx); err != nil {
		return errors.Wrap(err, "flush activity events")
	}
	return nil
}

// Decode unpacks a record value produced by Publish.
func Decode(payload []byte) (usecase.Event, error) {
	var event usecase.Event
	err := msgpack.Unmarshal(payload, &event)
	return event, err
}
