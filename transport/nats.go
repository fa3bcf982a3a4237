package transport

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/maxpert/pathglob/cfg"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/rs/zerolog/log"
)

func init() {
	RegisterSource("nats", func(config cfg.EndpointConfiguration) (Source, error) {
		if config.NatsURL == "" {
			return nil, fmt.Errorf("nats source requires nats_url")
		}
		if config.Subject == "" {
			return nil, fmt.Errorf("nats source requires subject")
		}
		return NewNatsSource(config.NatsURL, config.Subject, config.Queue)
	})

	RegisterSink("nats", func(config cfg.EndpointConfiguration) (Sink, error) {
		if config.NatsURL == "" {
			return nil, fmt.Errorf("nats sink requires nats_url")
		}
		return NewNatsSink(config.NatsURL, config.JetStream)
	})
}

func connectNats(url string) (*nats.Conn, error) {
	nc, err := nats.Connect(url,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	return nc, nil
}

// NatsSource consumes a core NATS subject, optionally in a queue group
type NatsSource struct {
	nc  *nats.Conn
	sub *nats.Subscription
}

// NewNatsSource subscribes to subject
func NewNatsSource(url, subject, queue string) (*NatsSource, error) {
	nc, err := connectNats(url)
	if err != nil {
		return nil, err
	}

	var sub *nats.Subscription
	if queue != "" {
		sub, err = nc.QueueSubscribeSync(subject, queue)
	} else {
		sub, err = nc.SubscribeSync(subject)
	}
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to subscribe to %s: %w", subject, err)
	}

	log.Info().Str("subject", subject).Str("queue", queue).Msg("Subscribed to NATS subject")
	return &NatsSource{nc: nc, sub: sub}, nil
}

// Receive waits for the next message on the subject
func (n *NatsSource) Receive(ctx context.Context) (Message, error) {
	msg, err := n.sub.NextMsgWithContext(ctx)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Message{}, ctxErr
		}
		return Message{}, fmt.Errorf("failed to receive from %s: %w", n.sub.Subject, err)
	}

	return Message{
		Topic: msg.Subject,
		Key:   msg.Header.Get("key"),
		Value: msg.Data,
	}, nil
}

// Ack is a no-op: core NATS delivery is at-most-once
func (n *NatsSource) Ack(Message) error {
	return nil
}

// Close unsubscribes and closes the connection
func (n *NatsSource) Close() error {
	if n.sub != nil {
		n.sub.Unsubscribe()
	}
	if n.nc != nil {
		n.nc.Close()
	}
	return nil
}

// NatsSink publishes to NATS, through JetStream when enabled
type NatsSink struct {
	nc *nats.Conn
	js jetstream.JetStream

	streamsMu sync.Mutex
	streams   map[string]struct{}
}

// NewNatsSink creates a new NATS sink
func NewNatsSink(url string, useJetStream bool) (*NatsSink, error) {
	nc, err := connectNats(url)
	if err != nil {
		return nil, err
	}

	sink := &NatsSink{nc: nc, streams: make(map[string]struct{})}
	if useJetStream {
		js, err := jetstream.New(nc)
		if err != nil {
			nc.Close()
			return nil, fmt.Errorf("failed to create JetStream context: %w", err)
		}
		sink.js = js
	}

	return sink, nil
}

// Publish sends a record to NATS
// topic: subject (e.g., "filtered.request")
// key: message key (stored as header for routing)
func (n *NatsSink) Publish(topic, key string, value []byte) error {
	msg := &nats.Msg{
		Subject: topic,
		Data:    value,
		Header:  nats.Header{"key": []string{key}},
	}

	if n.js == nil {
		if err := n.nc.PublishMsg(msg); err != nil {
			return fmt.Errorf("failed to publish to %s: %w", topic, err)
		}
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := n.ensureStream(ctx, topic); err != nil {
		return err
	}

	if _, err := n.js.PublishMsg(ctx, msg); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", topic, err)
	}
	return nil
}

// ensureStream creates the JetStream stream for topic once per sink
func (n *NatsSink) ensureStream(ctx context.Context, topic string) error {
	n.streamsMu.Lock()
	defer n.streamsMu.Unlock()

	if _, ok := n.streams[topic]; ok {
		return nil
	}

	streamName := sanitizeStreamName(topic)
	_, err := n.js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:      streamName,
		Subjects:  []string{topic},
		Storage:   jetstream.FileStorage,
		Retention: jetstream.LimitsPolicy,
		MaxAge:    24 * time.Hour,
	})
	if err != nil {
		return fmt.Errorf("failed to ensure stream %s: %w", streamName, err)
	}

	n.streams[topic] = struct{}{}
	return nil
}

// Close releases resources held by the NatsSink
func (n *NatsSink) Close() error {
	if n.nc != nil {
		if err := n.nc.Flush(); err != nil {
			log.Warn().Err(err).Msg("Failed to flush NATS connection")
		}
		n.nc.Close()
	}
	return nil
}

// sanitizeStreamName converts a subject to a valid JetStream stream name.
// Stream names can't contain '.', '*', '>' or spaces.
func sanitizeStreamName(topic string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '.', '*', '>', ' ':
			return '_'
		}
		return r
	}, topic)
}
