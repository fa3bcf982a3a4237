package transport

import (
	"context"
	"fmt"
	"sync"

	"github.com/maxpert/pathglob/cfg"
)

// Message is one record moving through a pipeline
type Message struct {
	Topic string // Topic or subject the message arrived on
	Key   string // Partition/routing key, if any
	Value []byte // Encoded record

	ref any // Transport-specific handle used by Ack
}

// Source delivers messages in arrival order
type Source interface {
	// Receive blocks for the next message. It returns io.EOF once the
	// source is exhausted and ctx.Err() when ctx is cancelled.
	Receive(ctx context.Context) (Message, error)
	// Ack marks a message as consumed
	Ack(msg Message) error
	// Close releases any resources held by the source
	Close() error
}

// Sink represents a destination for filtered records (e.g., Kafka, NATS, stdout)
type Sink interface {
	// Publish sends a record to the sink
	Publish(topic string, key string, value []byte) error
	// Close releases any resources held by the sink
	Close() error
}

// SourceFactory creates a Source from a configuration
type SourceFactory func(cfg.EndpointConfiguration) (Source, error)

// SinkFactory creates a Sink from a configuration
type SinkFactory func(cfg.EndpointConfiguration) (Sink, error)

var (
	sourceFactories = make(map[string]SourceFactory)
	sinkFactories   = make(map[string]SinkFactory)
	factoryMu       sync.RWMutex
)

// RegisterSource registers a source factory for a type
func RegisterSource(sourceType string, factory SourceFactory) {
	factoryMu.Lock()
	defer factoryMu.Unlock()
	sourceFactories[sourceType] = factory
}

// RegisterSink registers a sink factory for a type
func RegisterSink(sinkType string, factory SinkFactory) {
	factoryMu.Lock()
	defer factoryMu.Unlock()
	sinkFactories[sinkType] = factory
}

// NewSource creates a source for config.Type
func NewSource(config cfg.EndpointConfiguration) (Source, error) {
	factoryMu.RLock()
	factory, exists := sourceFactories[config.Type]
	factoryMu.RUnlock()

	if !exists {
		return nil, fmt.Errorf("unknown source type: %s", config.Type)
	}
	return factory(config)
}

// NewSink creates a sink for config.Type
func NewSink(config cfg.EndpointConfiguration) (Sink, error) {
	factoryMu.RLock()
	factory, exists := sinkFactories[config.Type]
	factoryMu.RUnlock()

	if !exists {
		return nil, fmt.Errorf("unknown sink type: %s", config.Type)
	}
	return factory(config)
}
