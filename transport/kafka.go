package transport

import (
	"context"
	"fmt"

	"github.com/maxpert/pathglob/cfg"
	"github.com/segmentio/kafka-go"
)

const (
	DefaultKafkaBatchSize  = 100
	DefaultKafkaBatchBytes = 1 << 20 // 1MB
)

func init() {
	RegisterSource("kafka", func(config cfg.EndpointConfiguration) (Source, error) {
		return NewKafkaSource(KafkaSourceConfig{
			Brokers: config.Brokers,
			Topic:   config.Topic,
			GroupID: config.GroupID,
		})
	})

	RegisterSink("kafka", func(config cfg.EndpointConfiguration) (Sink, error) {
		kafkaConfig := DefaultKafkaConfig(config.Brokers)
		if config.BatchSize > 0 {
			kafkaConfig.BatchSize = config.BatchSize
		}
		return NewKafkaSink(kafkaConfig)
	})
}

// KafkaSourceConfig holds configuration for KafkaSource
type KafkaSourceConfig struct {
	Brokers []string // Kafka broker addresses
	Topic   string   // Topic to consume
	GroupID string   // Consumer group; empty reads without committing
}

// KafkaSource consumes a Kafka topic
type KafkaSource struct {
	reader  *kafka.Reader
	grouped bool
}

// NewKafkaSource creates a reader for the configured topic
func NewKafkaSource(config KafkaSourceConfig) (*KafkaSource, error) {
	if len(config.Brokers) == 0 {
		return nil, fmt.Errorf("kafka source requires at least one broker address")
	}
	if config.Topic == "" {
		return nil, fmt.Errorf("kafka source requires a topic")
	}

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers: config.Brokers,
		Topic:   config.Topic,
		GroupID: config.GroupID,
	})

	return &KafkaSource{reader: reader, grouped: config.GroupID != ""}, nil
}

// Receive fetches the next message without committing it
func (k *KafkaSource) Receive(ctx context.Context) (Message, error) {
	m, err := k.reader.FetchMessage(ctx)
	if err != nil {
		return Message{}, err
	}

	return Message{
		Topic: m.Topic,
		Key:   string(m.Key),
		Value: m.Value,
		ref:   m,
	}, nil
}

// Ack commits the message offset for consumer groups
func (k *KafkaSource) Ack(msg Message) error {
	if !k.grouped {
		return nil
	}
	m, ok := msg.ref.(kafka.Message)
	if !ok {
		return fmt.Errorf("message was not received from kafka")
	}
	return k.reader.CommitMessages(context.Background(), m)
}

// Close closes the reader
func (k *KafkaSource) Close() error {
	return k.reader.Close()
}

// KafkaSink implements the Sink interface for Kafka publishing
type KafkaSink struct {
	writer *kafka.Writer
}

// KafkaConfig holds configuration for KafkaSink
type KafkaConfig struct {
	Brokers          []string           // Kafka broker addresses
	BatchSize        int                // Batch size for writes (default: 100)
	BatchBytes       int64              // Max batch bytes (default: 1MB)
	RequiredAcks     kafka.RequiredAcks // Ack requirement (default: RequireAll)
	AutoCreateTopics bool               // Auto-create topics if they don't exist (default: true)
}

// DefaultKafkaConfig returns a KafkaConfig with sensible defaults
func DefaultKafkaConfig(brokers []string) KafkaConfig {
	return KafkaConfig{
		Brokers:          brokers,
		BatchSize:        DefaultKafkaBatchSize,
		BatchBytes:       DefaultKafkaBatchBytes,
		RequiredAcks:     kafka.RequireAll,
		AutoCreateTopics: true,
	}
}

// NewKafkaSink creates a new KafkaSink with the given configuration
func NewKafkaSink(config KafkaConfig) (*KafkaSink, error) {
	if len(config.Brokers) == 0 {
		return nil, fmt.Errorf("kafka sink requires at least one broker address")
	}

	if config.BatchSize == 0 {
		config.BatchSize = DefaultKafkaBatchSize
	}
	if config.BatchBytes == 0 {
		config.BatchBytes = DefaultKafkaBatchBytes
	}

	writer := &kafka.Writer{
		Addr:                   kafka.TCP(config.Brokers...),
		Balancer:               &kafka.Hash{}, // Same key, same partition
		BatchSize:              config.BatchSize,
		BatchBytes:             config.BatchBytes,
		RequiredAcks:           config.RequiredAcks,
		Async:                  false,
		AllowAutoTopicCreation: config.AutoCreateTopics,
	}

	return &KafkaSink{writer: writer}, nil
}

// Publish sends a record to Kafka.
// Uses context.Background() because the pipeline worker owns retries.
func (k *KafkaSink) Publish(topic, key string, value []byte) error {
	msg := kafka.Message{
		Topic: topic,
		Key:   []byte(key),
		Value: value,
	}

	return k.writer.WriteMessages(context.Background(), msg)
}

// Close releases resources held by the KafkaSink
func (k *KafkaSink) Close() error {
	if k.writer == nil {
		return nil
	}
	return k.writer.Close()
}
