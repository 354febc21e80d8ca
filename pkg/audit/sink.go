package audit

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
)

const DefaultTopic = "formflow.audit"

// WatermillSink publishes events as JSON messages keyed by execution id.
type WatermillSink struct {
	publisher message.Publisher
	topic     string
	logger    *slog.Logger
}

func NewWatermillSink(publisher message.Publisher, topic string, logger *slog.Logger) *WatermillSink {
	if topic == "" {
		topic = DefaultTopic
	}

	return &WatermillSink{
		publisher: publisher,
		topic:     topic,
		logger:    logger.With("module", "audit"),
	}
}

func (s *WatermillSink) Append(ctx context.Context, event Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to encode audit event", "node_id", event.NodeID, "error", err)
		return
	}

	id := event.ID
	if id == "" {
		id = watermill.NewUUID()
	}

	msg := message.NewMessage(id, payload)
	msg.SetContext(ctx)
	msg.Metadata.Set("event_type", event.Type)
	msg.Metadata.Set("sub_type", event.SubType)
	msg.Metadata.Set("status", string(event.Status))
	msg.Metadata.Set("execution_id", event.ExecutionID)

	if err := s.publisher.Publish(s.topic, msg); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish audit event", "node_id", event.NodeID, "error", err)
	}
}

func (s *WatermillSink) Close() error {
	return s.publisher.Close()
}

// LogSink writes events to the log.
type LogSink struct {
	logger *slog.Logger
}

func NewLogSink(logger *slog.Logger) *LogSink {
	return &LogSink{logger: logger.With("module", "audit")}
}

func (s *LogSink) Append(ctx context.Context, event Event) {
	level := slog.LevelInfo
	if event.Status == StatusFailed {
		level = slog.LevelWarn
	}

	s.logger.Log(ctx, level, "mapping node audited",
		"execution_id", event.ExecutionID,
		"node_id", event.NodeID,
		"node_type", event.NodeType,
		"status", event.Status,
		"message", event.Message,
		"error", event.Error,
	)
}

// Discard drops every event.
type Discard struct{}

func (Discard) Append(context.Context, Event) {}
