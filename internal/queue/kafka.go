package queue

import (
    "context"
    "encoding/json"
    "fmt"
    "strconv"

    "github.com/segmentio/kafka-go"
)

// DefaultTopic is the Kafka topic reservation events are written to.
const DefaultTopic = "reservation-events"

type messageWriter interface {
    WriteMessages(ctx context.Context, msgs ...kafka.Message) error
    Close() error
}

// KafkaPublisher writes events keyed by reservation id so every event of
// one reservation lands on the same partition in order.
type KafkaPublisher struct {
    writer messageWriter
}

func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
    if topic == "" {
        topic = DefaultTopic
    }
    return &KafkaPublisher{writer: &kafka.Writer{
        Addr:                   kafka.TCP(brokers...),
        Topic:                  topic,
        Balancer:               &kafka.Hash{},
        AllowAutoTopicCreation: true,
    }}
}

func (p *KafkaPublisher) Publish(ctx context.Context, ev ReservationEvent) error {
    body, err := json.Marshal(ev)
    if err != nil {
        return fmt.Errorf("marshal event: %w", err)
    }
    msg := kafka.Message{
        Key:   []byte(strconv.FormatUint(ev.ReservationID, 10)),
        Value: body,
        Headers: []kafka.Header{
            {Key: "type", Value: []byte(ev.Type)},
        },
    }
    if err := p.writer.WriteMessages(ctx, msg); err != nil {
        return fmt.Errorf("kafka write: %w", err)
    }
    return nil
}

func (p *KafkaPublisher) Close() error { return p.writer.Close() }
