// Package notify forwards announced audit events to Kafka for downstream
// notification and reporting consumers.
//
// Announce never blocks: events go into a bounded buffer and Run drains it
// in batches. While the broker is failing a circuit breaker holds delivery
// back, and once the buffer is full the oldest events are dropped.
package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"time"

	"audittrail/pkg/platform/audit"
	"audittrail/pkg/platform/circuit"

	"github.com/google/uuid"
	"github.com/twmb/franz-go/pkg/kgo"
)

// Producer is the subset of *kgo.Client used for delivery.
type Producer interface {
	ProduceSync(ctx context.Context, rs ...*kgo.Record) kgo.ProduceResults
}

const (
	HeaderMessageID = "message_id"
	HeaderSensorID  = "sensor_id"

	defaultBatchSize     = 100
	defaultFlushInterval = time.Second
	drainTimeout         = 5 * time.Second
)

type KafkaNotifier struct {
	producer      Producer
	topic         string
	buffer        *RingBuffer[audit.EventRecord]
	breaker       *circuit.Breaker
	batchSize     int
	flushInterval time.Duration
	wake          chan struct{}
	logger        *slog.Logger
	metrics       *Metrics

	// pending is the batch that failed last time; only Run touches it.
	pending []audit.EventRecord
}

type Option func(*KafkaNotifier)

func WithLogger(logger *slog.Logger) Option {
	return func(n *KafkaNotifier) {
		n.logger = logger
	}
}

func WithMetrics(m *Metrics) Option {
	return func(n *KafkaNotifier) {
		n.metrics = m
	}
}

func WithBufferSize(size int) Option {
	return func(n *KafkaNotifier) {
		n.buffer = NewRingBuffer[audit.EventRecord](size)
	}
}

func WithBatchSize(size int) Option {
	return func(n *KafkaNotifier) {
		if size > 0 {
			n.batchSize = size
		}
	}
}

func WithFlushInterval(d time.Duration) Option {
	return func(n *KafkaNotifier) {
		if d > 0 {
			n.flushInterval = d
		}
	}
}

func WithBreaker(b *circuit.Breaker) Option {
	return func(n *KafkaNotifier) {
		if b != nil {
			n.breaker = b
		}
	}
}

func New(producer Producer, topic string, opts ...Option) (*KafkaNotifier, error) {
	if producer == nil {
		return nil, errors.New("producer is required")
	}
	if topic == "" {
		return nil, errors.New("topic is required")
	}
	n := &KafkaNotifier{
		producer:      producer,
		topic:         topic,
		batchSize:     defaultBatchSize,
		flushInterval: defaultFlushInterval,
		wake:          make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(n)
	}
	if n.buffer == nil {
		n.buffer = NewRingBuffer[audit.EventRecord](0)
	}
	if n.breaker == nil {
		n.breaker = circuit.New("kafka-notify")
	}
	if n.logger == nil {
		n.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return n, nil
}

// Announce queues record for delivery.
func (n *KafkaNotifier) Announce(ctx context.Context, record audit.EventRecord) {
	if n.buffer.Enqueue(record) {
		n.metrics.incDropped()
		n.logger.WarnContext(ctx, "notify buffer full, dropped oldest event",
			"dropped_total", n.buffer.Dropped(),
		)
	}
	n.metrics.setDepth(n.buffer.Len())
	if n.buffer.Len() >= n.batchSize {
		select {
		case n.wake <- struct{}{}:
		default:
		}
	}
}

// Run delivers until ctx is done, then makes one last bounded attempt to
// drain what is buffered.
func (n *KafkaNotifier) Run(ctx context.Context) error {
	ticker := time.NewTicker(n.flushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			drainCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), drainTimeout)
			n.drain(drainCtx)
			cancel()
			return nil
		case <-ticker.C:
			n.drain(ctx)
		case <-n.wake:
			n.drain(ctx)
		}
	}
}

// drain publishes batches until the buffer is empty or a publish fails.
func (n *KafkaNotifier) drain(ctx context.Context) {
	for {
		if len(n.pending) == 0 {
			n.pending = n.buffer.DequeueBatch(n.batchSize)
		}
		if len(n.pending) == 0 {
			return
		}
		if err := n.flush(ctx); err != nil {
			return
		}
	}
}

// flush publishes the pending batch. It keeps the batch when the breaker
// is open or the produce fails.
func (n *KafkaNotifier) flush(ctx context.Context) error {
	if len(n.pending) == 0 {
		return nil
	}
	if !n.breaker.Allow() {
		return fmt.Errorf("%s circuit open", n.breaker.Name())
	}

	records := make([]*kgo.Record, 0, len(n.pending))
	for _, ev := range n.pending {
		rec, err := n.message(ev)
		if err != nil {
			n.logger.ErrorContext(ctx, "dropping unencodable audit event", "event_id", ev.ID, "error", err)
			continue
		}
		records = append(records, rec)
	}

	if err := n.producer.ProduceSync(ctx, records...).FirstErr(); err != nil {
		n.metrics.incPublishErrors()
		if _, change := n.breaker.RecordFailure(); change.Opened {
			n.metrics.setCircuitOpen(true)
			n.logger.WarnContext(ctx, "notify circuit opened", "error", err)
		}
		n.logger.ErrorContext(ctx, "publish audit events failed",
			"batch", len(n.pending),
			"error", err,
		)
		return err
	}

	if _, change := n.breaker.RecordSuccess(); change.Closed {
		n.metrics.setCircuitOpen(false)
		n.logger.InfoContext(ctx, "notify circuit closed")
	}
	n.metrics.addPublished(len(records))
	n.pending = nil
	n.metrics.setDepth(n.buffer.Len())
	return nil
}

func (n *KafkaNotifier) message(ev audit.EventRecord) (*kgo.Record, error) {
	value, err := json.Marshal(ev)
	if err != nil {
		return nil, err
	}
	return &kgo.Record{
		Topic: n.topic,
		Key:   []byte(strconv.FormatInt(ev.ID, 10)),
		Value: value,
		Headers: []kgo.RecordHeader{
			{Key: HeaderMessageID, Value: []byte(uuid.NewString())},
			{Key: HeaderSensorID, Value: []byte(strconv.Itoa(int(ev.SensorID)))},
		},
	}, nil
}

// Pending is the number of events not yet published.
func (n *KafkaNotifier) Pending() int {
	return n.buffer.Len() + len(n.pending)
}
