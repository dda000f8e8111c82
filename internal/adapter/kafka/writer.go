package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/jonboulle/clockwork"
	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/station-bubble-chart/internal/chart"
	"github.com/couchcryptid/station-bubble-chart/internal/config"
	"github.com/couchcryptid/station-bubble-chart/internal/observability"
)

const (
	publishTimeout = 5 * time.Second

	// batchTimeout bounds how long a synchronous single-frame write waits for
	// its batch to fill. kafka-go defaults to one second.
	batchTimeout = 10 * time.Millisecond
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// FramePublisher produces rendered frames to a Kafka topic so that remote
// viewers can replay a session's transitions.
type FramePublisher struct {
	writer  messageWriter
	clock   clockwork.Clock
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewFramePublisher creates a Kafka producer for the configured frames topic.
func NewFramePublisher(cfg *config.Config, clock clockwork.Clock, logger *slog.Logger, metrics *observability.Metrics) *FramePublisher {
	w := &kafkago.Writer{
		Addr:                   kafkago.TCP(cfg.KafkaBrokers...),
		Topic:                  cfg.KafkaFramesTopic,
		Balancer:               &kafkago.Hash{},
		BatchTimeout:           batchTimeout,
		RequiredAcks:           kafkago.RequireOne,
		AllowAutoTopicCreation: true,
	}
	return &FramePublisher{writer: w, clock: clock, logger: logger, metrics: metrics}
}

// envelope is the message value.
type envelope struct {
	SessionID   string      `json:"session_id"`
	PublishedAt time.Time   `json:"published_at"`
	Frame       chart.Frame `json:"frame"`
}

// Publish writes f for sessionID. Messages are keyed by session so a
// session's frames stay ordered within one partition.
func (p *FramePublisher) Publish(ctx context.Context, sessionID string, f chart.Frame) error {
	msg, err := serializeToMessage(sessionID, f, p.clock.Now())
	if err != nil {
		return err
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.metrics.PublishErrors.Inc()
		return fmt.Errorf("publish frame %d: %w", f.Seq, err)
	}
	p.metrics.FramesPublished.Inc()
	return nil
}

// ForSession returns a renderer publishing sessionID's frames. Publishing is
// best effort: failures are logged and counted but never fail a render.
func (p *FramePublisher) ForSession(sessionID string) chart.Renderer {
	return chart.RendererFunc(func(ctx context.Context, f chart.Frame) error {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
		defer cancel()
		if err := p.Publish(ctx, sessionID, f); err != nil {
			p.logger.Warn("frame publish failed", "session_id", sessionID, "seq", f.Seq, "error", err)
		}
		return nil
	})
}

func (p *FramePublisher) Close() error {
	return p.writer.Close()
}

// serializeToMessage marshals a frame into a Kafka message.
func serializeToMessage(sessionID string, f chart.Frame, now time.Time) (kafkago.Message, error) {
	data, err := json.Marshal(envelope{SessionID: sessionID, PublishedAt: now.UTC(), Frame: f})
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize frame: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(sessionID),
		Value: data,
		Time:  now,
		Headers: []kafkago.Header{
			{Key: "session_id", Value: []byte(sessionID)},
			{Key: "frame_seq", Value: []byte(strconv.FormatUint(f.Seq, 10))},
			{Key: "published_at", Value: []byte(now.UTC().Format(time.RFC3339))},
		},
	}, nil
}
