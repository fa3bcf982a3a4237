package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/maxpert/pathglob/cfg"
	"github.com/maxpert/pathglob/codec"
	"github.com/maxpert/pathglob/stream"
	"github.com/maxpert/pathglob/subscription"
	"github.com/maxpert/pathglob/telemetry"
	"github.com/maxpert/pathglob/transport"
	"github.com/rs/zerolog/log"
)

// EventPlaceholder in a topic template is replaced by the lowercased event
const EventPlaceholder = "{event}"

const (
	// Default initial retry delay for failed publish operations
	DefaultRetryInitial = 100 * time.Millisecond
	// Default maximum retry delay (exponential backoff cap)
	DefaultRetryMax = 30 * time.Second
	// Default exponential backoff multiplier
	DefaultRetryMultiplier = 2.0
	// Maximum number of retry attempts before giving up on a record
	DefaultMaxRetries = 100
	// Delay before receiving again after a source error
	DefaultReceiveBackoff = time.Second
)

// WorkerConfig configures a filter pipeline worker
type WorkerConfig struct {
	Name            string                            // Pipeline name (for logs and metrics)
	Source          transport.Source                  // Where records come from
	Sink            transport.Sink                    // Where forwarded records go
	Codec           codec.Codec                       // Reads event and path from records
	Stage           *stream.Stage[subscription.Event] // Subscription filter
	Topic           string                            // Sink topic template, "" keeps the source topic
	Stats           *Stats                            // Outcome counters (created if nil)
	RetryInitial    time.Duration                     // Initial retry delay
	RetryMax        time.Duration                     // Max retry delay
	RetryMultiplier float64                           // Backoff multiplier
	MaxRetries      int                               // Maximum publish attempts per record
}

// ConfigFromSettings fills retry and topic settings from the loaded configuration
func ConfigFromSettings(p cfg.PipelineConfiguration) WorkerConfig {
	return WorkerConfig{
		Name:            p.Name,
		Topic:           p.Topic,
		RetryInitial:    time.Duration(p.RetryInitialMS) * time.Millisecond,
		RetryMax:        time.Duration(p.RetryMaxMS) * time.Millisecond,
		RetryMultiplier: p.RetryMultiplier,
		MaxRetries:      p.MaxRetries,
	}
}

// Worker moves records from a source to a sink, forwarding only those the
// stage subscribes to. Records are handled one at a time in arrival order.
type Worker struct {
	config      WorkerConfig
	stopCh      chan struct{} // Stop signal
	doneCh      chan struct{} // Done signal
	running     atomic.Bool
	lifecycleMu sync.Mutex // Protects Start/Stop lifecycle operations
}

// NewWorker creates a new pipeline worker
func NewWorker(config WorkerConfig) (*Worker, error) {
	if config.Name == "" {
		return nil, fmt.Errorf("worker name is required")
	}
	if config.Source == nil {
		return nil, fmt.Errorf("source is required")
	}
	if config.Sink == nil {
		return nil, fmt.Errorf("sink is required")
	}
	if config.Codec == nil {
		return nil, fmt.Errorf("codec is required")
	}
	if config.Stage == nil {
		return nil, fmt.Errorf("stage is required")
	}

	if config.Stats == nil {
		config.Stats = NewStats()
	}
	if config.RetryInitial <= 0 {
		config.RetryInitial = DefaultRetryInitial
	}
	if config.RetryMax <= 0 {
		config.RetryMax = DefaultRetryMax
	}
	if config.RetryMultiplier <= 0 {
		config.RetryMultiplier = DefaultRetryMultiplier
	}
	if config.MaxRetries <= 0 {
		config.MaxRetries = DefaultMaxRetries
	}

	done := make(chan struct{})
	close(done)

	return &Worker{
		config: config,
		stopCh: make(chan struct{}),
		doneCh: done,
	}, nil
}

// Stats returns the worker's counters
func (w *Worker) Stats() *Stats {
	return w.config.Stats
}

// Start starts the worker goroutine
func (w *Worker) Start() {
	w.lifecycleMu.Lock()
	defer w.lifecycleMu.Unlock()

	if w.running.Load() {
		return // Already running
	}

	w.running.Store(true)
	w.stopCh = make(chan struct{})
	w.doneCh = make(chan struct{})

	log.Info().
		Str("worker", w.config.Name).
		Str("codec", w.config.Codec.Name()).
		Int("events", w.config.Stage.Table().Len()).
		Msg("Starting filter pipeline worker")

	go w.receiveLoop()
}

// Done is closed once the worker loop exits, either because the source is
// exhausted or because Stop was called
func (w *Worker) Done() <-chan struct{} {
	w.lifecycleMu.Lock()
	defer w.lifecycleMu.Unlock()
	return w.doneCh
}

// Stop stops the worker gracefully
func (w *Worker) Stop() {
	w.lifecycleMu.Lock()
	defer w.lifecycleMu.Unlock()

	if !w.running.Load() {
		return // Not running
	}

	log.Info().Str("worker", w.config.Name).Msg("Stopping filter pipeline worker")

	close(w.stopCh)
	<-w.doneCh // Wait for goroutine to finish
	w.running.Store(false)

	log.Info().Str("worker", w.config.Name).Msg("Filter pipeline worker stopped")
}

// receiveLoop is the main worker loop
func (w *Worker) receiveLoop() {
	defer close(w.doneCh)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		select {
		case <-w.stopCh:
			cancel()
		case <-ctx.Done():
		}
	}()

	for {
		msg, err := w.config.Source.Receive(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) {
				log.Info().Str("worker", w.config.Name).Msg("Source exhausted")
				return
			}
			if ctx.Err() != nil {
				return
			}
			if errors.Is(err, transport.ErrLineTooLong) {
				w.config.Stats.DecodeError()
				log.Warn().
					Err(err).
					Str("worker", w.config.Name).
					Msg("Skipped oversized record")
				continue
			}
			log.Error().
				Err(err).
				Str("worker", w.config.Name).
				Msg("Failed to receive record")
			if !w.sleep(DefaultReceiveBackoff) {
				return
			}
			continue
		}

		if err := w.processMessage(msg); err != nil {
			// Stopped mid-retry; leave the record unacknowledged
			log.Warn().
				Err(err).
				Str("worker", w.config.Name).
				Msg("Record left unacknowledged")
			return
		}
	}
}

// processMessage filters and forwards a single record.
// Delivery semantics: at-least-once for forwarded records.
// - Records are published first, then acknowledged.
// - Undecodable, dropped and failed records are acknowledged and skipped.
// - An error is returned only when the worker stops during a retry.
func (w *Worker) processMessage(msg transport.Message) error {
	event, err := w.config.Codec.Peek(msg.Value)
	if err != nil {
		w.config.Stats.DecodeError()
		telemetry.DecodeErrorsTotal.With(w.config.Name).Inc()
		log.Warn().
			Err(err).
			Str("worker", w.config.Name).
			Str("topic", msg.Topic).
			Msg("Failed to read record, skipping")
		w.ack(msg)
		return nil
	}

	start := time.Now()
	decision := w.config.Stage.Evaluate(event)
	telemetry.EvaluateSeconds.Observe(time.Since(start).Seconds())
	w.config.Stats.Observe(event, decision)
	telemetry.ItemsTotal.With(metricEvent(event, decision), string(decision.Reason)).Inc()

	if !decision.Forward {
		log.Debug().
			Str("event", event.Type).
			Str("path", event.Path).
			Str("reason", string(decision.Reason)).
			Msg("Record dropped")
		w.ack(msg)
		return nil
	}

	topic := w.buildTopic(msg.Topic, event.Type)
	key := msg.Key
	if key == "" {
		key = event.Path
	}

	if err := w.publishWithRetry(topic, key, msg.Value); err != nil {
		if w.stopped() {
			return err
		}
		w.config.Stats.PublishFailure()
		telemetry.PublishFailuresTotal.With(w.config.Name).Inc()
		log.Error().
			Err(err).
			Str("worker", w.config.Name).
			Str("topic", topic).
			Msg("Dropping record after publish failures")
	}

	w.ack(msg)
	return nil
}

func (w *Worker) ack(msg transport.Message) {
	if err := w.config.Source.Ack(msg); err != nil {
		log.Warn().
			Err(err).
			Str("worker", w.config.Name).
			Msg("Failed to acknowledge record - it may be redelivered")
	}
}

// buildTopic expands the topic template for an event
func (w *Worker) buildTopic(sourceTopic, event string) string {
	if w.config.Topic == "" {
		return sourceTopic
	}
	return strings.ReplaceAll(w.config.Topic, EventPlaceholder, strings.ToLower(event))
}

// metricEvent bounds the event label to subscribed events
func metricEvent(event subscription.Event, decision subscription.Decision) string {
	if decision.Reason == subscription.ReasonUnsubscribed {
		return UnsubscribedEvent
	}
	return strings.ToLower(event.Type)
}

// publishWithRetry publishes data with exponential backoff retry
// Returns error if max retries exhausted or worker stopped
func (w *Worker) publishWithRetry(topic, key string, data []byte) error {
	delay := w.config.RetryInitial
	attempts := 0

	for {
		start := time.Now()
		err := w.config.Sink.Publish(topic, key, data)
		if err == nil {
			telemetry.PublishDurationSeconds.With(w.config.Name).Observe(time.Since(start).Seconds())
			return nil
		}

		attempts++

		if attempts >= w.config.MaxRetries {
			return fmt.Errorf("exhausted max retries (%d) for topic %s: %w", w.config.MaxRetries, topic, err)
		}

		log.Warn().
			Err(err).
			Str("worker", w.config.Name).
			Str("topic", topic).
			Int("attempt", attempts).
			Dur("retry_delay", delay).
			Msg("Failed to publish record, retrying")
		telemetry.PublishRetriesTotal.With(w.config.Name).Inc()

		// Sleep with stop check
		if !w.sleep(delay) {
			return fmt.Errorf("worker stopped during retry")
		}

		// Exponential backoff
		delay = time.Duration(float64(delay) * w.config.RetryMultiplier)
		if delay > w.config.RetryMax {
			delay = w.config.RetryMax
		}
	}
}

func (w *Worker) stopped() bool {
	select {
	case <-w.stopCh:
		return true
	default:
		return false
	}
}

// sleep sleeps for the given duration, checking stopCh
// Returns true if sleep completed, false if stopped
func (w *Worker) sleep(d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-w.stopCh:
		return false
	case <-timer.C:
		return true
	}
}
