// Package outbox buffers roster events in memory and delivers them to Kafka.
package outbox

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"example.com/activityregistry/internal/events"
)

const drainTimeout = 5 * time.Second

// Publisher accepts roster events. Publish must not block the caller.
type Publisher interface {
	Publish(ctx context.Context, evt events.RosterChanged)
}

// NoopPublisher discards every event.
type NoopPublisher struct{}

// Publish performs no action.
func (NoopPublisher) Publish(context.Context, events.RosterChanged) {}

type messageWriter interface {
	WriteMessages(context.Context, string, ...kafka.Message) error
}

// Config tunes the dispatcher.
type Config struct {
	Topic         string
	BufferSize    int
	BatchSize     int
	FlushInterval time.Duration
}

// Dispatcher is a Publisher backed by a bounded queue drained into Kafka.
type Dispatcher struct {
	writer           messageWriter
	cfg              Config
	queue            chan events.RosterChanged
	logger           *zap.Logger
	shutdownComplete chan struct{}
}

// NewDispatcher constructs a Dispatcher. Call Start to begin delivery.
func NewDispatcher(writer messageWriter, cfg Config, log *zap.Logger) *Dispatcher {
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 1
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 1
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = time.Second
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Dispatcher{
		writer:           writer,
		cfg:              cfg,
		queue:            make(chan events.RosterChanged, cfg.BufferSize),
		logger:           log,
		shutdownComplete: make(chan struct{}),
	}
}

// Publish enqueues evt, dropping it when the buffer is full.
func (d *Dispatcher) Publish(_ context.Context, evt events.RosterChanged) {
	select {
	case d.queue <- evt:
	default:
		droppedCounter.Inc()
		d.logger.Warn("outbox full, dropping roster event",
			zap.String("event_id", evt.EventID),
			zap.String("event_type", evt.EventType),
			zap.String("activity", evt.Activity),
		)
	}
}

// Start runs the delivery loop until ctx is cancelled, then flushes whatever
// is still buffered. It should be called in a goroutine.
func (d *Dispatcher) Start(ctx context.Context) {
	ticker := time.NewTicker(d.cfg.FlushInterval)
	defer func() {
		ticker.Stop()
		close(d.shutdownComplete)
	}()

	batch := make([]events.RosterChanged, 0, d.cfg.BatchSize)
	for {
		select {
		case <-ctx.Done():
			d.drain(batch)
			return
		case evt := <-d.queue:
			batch = append(batch, evt)
			if len(batch) >= d.cfg.BatchSize {
				d.flush(ctx, batch)
				batch = batch[:0]
			}
		case <-ticker.C:
			if len(batch) > 0 {
				d.flush(ctx, batch)
				batch = batch[:0]
			}
		}
	}
}

// Wait waits until the dispatcher stops.
func (d *Dispatcher) Wait() {
	<-d.shutdownComplete
}

func (d *Dispatcher) drain(batch []events.RosterChanged) {
	ctx, cancel := context.WithTimeout(context.Background(), drainTimeout)
	defer cancel()

	for {
		select {
		case evt := <-d.queue:
			batch = append(batch, evt)
			if len(batch) >= d.cfg.BatchSize {
				d.flush(ctx, batch)
				batch = batch[:0]
			}
		default:
			if len(batch) > 0 {
				d.flush(ctx, batch)
			}
			return
		}
	}
}

func (d *Dispatcher) flush(ctx context.Context, batch []events.RosterChanged) {
	start := time.Now()
	defer func() { batchDuration.Observe(time.Since(start).Seconds()) }()

	msgs := make([]kafka.Message, 0, len(batch))
	for _, evt := range batch {
		msg, err := encode(evt)
		if err != nil {
			failedCounter.Inc()
			d.logger.Error("encode roster event", zap.String("event_id", evt.EventID), zap.Error(err))
			continue
		}
		msgs = append(msgs, msg)
	}
	if len(msgs) == 0 {
		return
	}

	if err := d.writer.WriteMessages(ctx, d.cfg.Topic, msgs...); err != nil {
		failedCounter.Add(float64(len(msgs)))
		d.logger.Error("outbox delivery failure",
			zap.String("topic", d.cfg.Topic),
			zap.Int("events", len(msgs)),
			zap.Error(err),
		)
		return
	}
	deliveredCounter.Add(float64(len(msgs)))
	d.logger.Debug("outbox batch delivered", zap.String("topic", d.cfg.Topic), zap.Int("events", len(msgs)))
}

func encode(evt events.RosterChanged) (kafka.Message, error) {
	payload, err := json.Marshal(evt)
	if err != nil {
		return kafka.Message{}, err
	}
	return kafka.Message{
		Key:   []byte(evt.Activity),
		Value: payload,
		Time:  evt.OccurredAt,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(evt.EventType)},
			{Key: "event_id", Value: []byte(evt.EventID)},
		},
	}, nil
}
