package queue

import (
    "context"
    "fmt"
    "strings"
)

// Publisher delivers reservation events to a broker.
type Publisher interface {
    Publish(ctx context.Context, ev ReservationEvent) error
    Close() error
}

// NopPublisher drops every event.  Used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, ReservationEvent) error { return nil }
func (NopPublisher) Close() error                                    { return nil }

// BrokerConfig selects and addresses the event broker.
type BrokerConfig struct {
    Kind         string // "rabbitmq", "kafka" or "none"
    AMQPURL      string
    Queue        string
    KafkaBrokers []string
    KafkaTopic   string
}

// NewPublisher builds the publisher named by cfg.Kind.
func NewPublisher(cfg BrokerConfig) (Publisher, error) {
    switch strings.ToLower(cfg.Kind) {
    case "", "rabbitmq", "amqp":
        return NewRabbitPublisher(cfg.AMQPURL, cfg.Queue), nil
    case "kafka":
        if len(cfg.KafkaBrokers) == 0 {
            return nil, fmt.Errorf("kafka publisher: no brokers configured")
        }
        return NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic), nil
    case "none", "off":
        return NopPublisher{}, nil
    }
    return nil, fmt.Errorf("unknown event broker %q", cfg.Kind)
}
