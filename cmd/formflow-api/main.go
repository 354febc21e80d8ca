package main

import (
	"context"
	"io"
	"os"

	"github.com/dukex/formflow/pkg/cmd"
	"github.com/dukex/formflow/pkg/log"
	"github.com/dukex/formflow/pkg/metrics"
	"github.com/dukex/formflow/pkg/otelhelper"
	"github.com/dukex/formflow/pkg/services"
	"github.com/dukex/formflow/pkg/workflow"
	cli "github.com/urfave/cli/v3"
)

const defaultPort = 9091

func main() {
	logger := log.WithModule("api")

	command := &cli.Command{
		Name:                  "formflow-api",
		Usage:                 "Run form submission mapping flows against the CRM",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port to run the API server on",
				Value:   defaultPort,
				Sources: cli.EnvVars("PORT"),
			},
			&cli.StringFlag{
				Name:    "database-url",
				Usage:   "Mapping store: a directory path or a postgres:// URL",
				Value:   "./data/mappings",
				Sources: cli.EnvVars("DATABASE_URL"),
			},
			&cli.StringFlag{
				Name:    "redis-url",
				Usage:   "Redis URL for stored CRM tokens and the mapping cache",
				Sources: cli.EnvVars("REDIS_URL"),
			},
			&cli.StringFlag{
				Name:    "audit",
				Usage:   "Audit sink (kafka, gochannel, log, none)",
				Value:   "log",
				Sources: cli.EnvVars("AUDIT_PROVIDER"),
			},
			&cli.StringFlag{
				Name:    "kafka-brokers",
				Usage:   "Comma separated Kafka brokers for the kafka audit sink",
				Sources: cli.EnvVars("KAFKA_BROKERS"),
			},
			&cli.StringFlag{
				Name:    "audit-topic",
				Usage:   "Topic audit events are published to",
				Sources: cli.EnvVars("AUDIT_TOPIC"),
			},
			&cli.StringFlag{
				Name:    "salesforce-client-id",
				Usage:   "Connected app client id used to refresh CRM tokens",
				Sources: cli.EnvVars("SALESFORCE_CLIENT_ID"),
			},
			&cli.StringFlag{
				Name:    "salesforce-client-secret",
				Usage:   "Connected app client secret",
				Sources: cli.EnvVars("SALESFORCE_CLIENT_SECRET"),
			},
			&cli.StringFlag{
				Name:    "salesforce-token-url",
				Usage:   "OAuth token endpoint of the CRM",
				Value:   cmd.SalesforceTokenURL,
				Sources: cli.EnvVars("SALESFORCE_TOKEN_URL"),
			},
			&cli.StringFlag{
				Name:    "api-version",
				Usage:   "CRM REST API version, e.g. 59.0",
				Sources: cli.EnvVars("SALESFORCE_API_VERSION"),
			},
			&cli.StringFlag{
				Name:    "google-client-id",
				Usage:   "OAuth client id for spreadsheet access; sheet nodes fail without it",
				Sources: cli.EnvVars("GOOGLE_CLIENT_ID"),
			},
			&cli.StringFlag{
				Name:    "google-client-secret",
				Usage:   "OAuth client secret for spreadsheet access",
				Sources: cli.EnvVars("GOOGLE_CLIENT_SECRET"),
			},
			&cli.BoolFlag{
				Name:    "tracing",
				Usage:   "Export traces over OTLP/HTTP",
				Sources: cli.EnvVars("TRACING_ENABLED"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"))

			logger.InfoContext(ctx, "Initializing formflow API")

			registry := cmd.NewRegistry(log.WithModule("registry"))

			persistence := cmd.NewPersistence(ctx, logger, command.String("database-url"), command.String("redis-url"))
			defer func() {
				if err := persistence.Close(ctx); err != nil {
					logger.ErrorContext(ctx, "Failed to close persistence", "error", err)
				}
			}()

			sink := cmd.NewAuditSink(command.String("audit"), command.String("kafka-brokers"), command.String("audit-topic"), logger)
			if closer, ok := sink.(io.Closer); ok {
				defer func() {
					if err := closer.Close(); err != nil {
						logger.ErrorContext(ctx, "Failed to close audit sink", "error", err)
					}
				}()
			}

			tracer := otelhelper.NoopTracer()
			if command.Bool("tracing") {
				t, err := otelhelper.NewTracer(ctx, "formflow-api")
				if err != nil {
					return err
				}

				tracer = t
			}

			m := metrics.New()

			executor := workflow.NewExecutor(
				registry,
				log.WithModule("workflow_executor"),
				workflow.WithMappings(persistence),
				workflow.WithAuditSink(sink),
				workflow.WithTracer(tracer),
				workflow.WithMetrics(m),
			)

			runnerOpts := []services.RunnerOption{
				services.WithRunnerMetrics(m),
				services.WithAPIVersion(command.String("api-version")),
			}

			if redisURL := command.String("redis-url"); redisURL != "" {
				client, err := cmd.NewRedisClient(redisURL)
				if err != nil {
					return err
				}

				runnerOpts = append(runnerOpts, services.WithTokenProvider(cmd.NewTokenProvider(
					client,
					command.String("salesforce-client-id"),
					command.String("salesforce-client-secret"),
					command.String("salesforce-token-url"),
				)))
			}

			if google := cmd.NewGoogleRefresher(command.String("google-client-id"), command.String("google-client-secret")); google != nil {
				runnerOpts = append(runnerOpts, services.WithGoogleRefresher(google))
			}

			api := NewAPI(
				logger,
				services.NewRunner(executor, runnerOpts...),
				services.NewPublishing(persistence, registry),
				registry,
				m,
			)

			if err := api.Start(command.Int("port")); err != nil {
				logger.ErrorContext(ctx, "Failed to start API server", "error", err)
			}

			return nil
		},
	}

	if err := command.Run(context.Background(), os.Args); err != nil {
		panic(err)
	}
}
