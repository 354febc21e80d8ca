package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/dukex/formflow/pkg/audit"
	"github.com/dukex/formflow/pkg/channels/kafka"
	"github.com/dukex/formflow/pkg/log"
	"github.com/urfave/cli/v3"
)

func NewAuditTailCommand() *cli.Command {
	return &cli.Command{
		Name:  "tail",
		Usage: "Follow audit events published to Kafka",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "kafka-brokers",
				Usage:    "Comma separated Kafka brokers",
				Required: true,
				Sources:  cli.EnvVars("KAFKA_BROKERS"),
			},
			&cli.StringFlag{
				Name:    "topic",
				Usage:   "Audit topic",
				Value:   audit.DefaultTopic,
				Sources: cli.EnvVars("AUDIT_TOPIC"),
			},
			&cli.BoolFlag{
				Name:  "failed",
				Usage: "Only print failed nodes",
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			logger := log.WithModule("audit_tail")

			ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()

			sub, err := kafka.CreateSubscriber(watermill.NewSlogLogger(logger), kafka.ParseBrokers(command.String("kafka-brokers")), "formflow-audit-tail")
			if err != nil {
				return fmt.Errorf("failed to create Kafka subscriber: %w", err)
			}

			defer func() {
				if err := sub.Close(); err != nil {
					logger.Error("Failed to close subscriber", "error", err)
				}
			}()

			messages, err := sub.Subscribe(ctx, command.String("topic"))
			if err != nil {
				return fmt.Errorf("failed to subscribe: %w", err)
			}

			return tail(ctx, messages, os.Stdout, command.Bool("failed"))
		},
	}
}

// tail prints one line per event until ctx is done or messages closes.
// Undecodable payloads are acknowledged and skipped.
func tail(ctx context.Context, messages <-chan *message.Message, w io.Writer, onlyFailed bool) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-messages:
			if !ok {
				return nil
			}

			var event audit.Event
			if err := json.Unmarshal(msg.Payload, &event); err != nil {
				log.WithModule("audit_tail").Warn("skipping undecodable audit message", "uuid", msg.UUID, "error", err)
				msg.Ack()

				continue
			}

			msg.Ack()

			if onlyFailed && event.Status != audit.StatusFailed {
				continue
			}

			if _, err := fmt.Fprintln(w, formatEvent(event)); err != nil {
				return err
			}
		}
	}
}

func formatEvent(event audit.Event) string {
	line := fmt.Sprintf("%s %s %-8s %s/%s %s",
		event.Timestamp.UTC().Format("2006-01-02T15:04:05Z"),
		event.ExecutionID,
		event.Status,
		event.SubType,
		event.NodeID,
		event.SubmissionID,
	)

	if event.Error != "" {
		line += " error=" + event.Error
	} else if event.Message != "" {
		line += " " + event.Message
	}

	return line
}
