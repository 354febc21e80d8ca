package cmd

import (
	"fmt"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/dukex/formflow/pkg/audit"
	"github.com/dukex/formflow/pkg/channels/gochannel"
	"github.com/dukex/formflow/pkg/channels/kafka"
)

// NewAuditSink creates the audit sink for provider: "kafka", "gochannel",
// "log" or "none".
func NewAuditSink(provider, brokers, topic string, logger *slog.Logger) audit.Sink {
	if topic == "" {
		topic = audit.DefaultTopic
	}

	switch provider {
	case "kafka":
		pub, err := kafka.CreatePublisher(watermill.NewSlogLogger(logger), kafka.ParseBrokers(brokers))
		if err != nil {
			panic(fmt.Errorf("failed to create Kafka publisher: %w", err))
		}

		return audit.NewWatermillSink(pub, topic, logger)
	case "gochannel":
		pub, _, err := gochannel.CreateChannel(watermill.NewSlogLogger(logger))
		if err != nil {
			panic(fmt.Errorf("failed to create GoChannel pub/sub: %w", err))
		}

		return audit.NewWatermillSink(pub, topic, logger)
	case "log", "":
		return audit.NewLogSink(logger)
	case "none":
		return audit.Discard{}
	default:
		panic("Unsupported audit provider: " + provider)
	}
}
