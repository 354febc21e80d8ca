package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/dukex/formflow/pkg/cmd"
	"github.com/dukex/formflow/pkg/log"
	"github.com/dukex/formflow/pkg/models"
	"github.com/dukex/formflow/pkg/services"
	"github.com/dukex/formflow/pkg/soql"
	"github.com/dukex/formflow/pkg/web"
	"github.com/dukex/formflow/pkg/workflow"
	"github.com/urfave/cli/v3"
)

func NewRunCommand() *cli.Command {
	return &cli.Command{
		Name:    "run",
		Aliases: []string{"r"},
		Usage:   "Execute a flow file against the CRM and print the node results",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "flow",
				Aliases:  []string{"f"},
				Usage:    "Path to a JSON run request, in the POST /mappings/run body shape",
				Required: true,
			},
			&cli.StringFlag{
				Name:    "access-token",
				Usage:   "CRM access token for the flow owner",
				Sources: cli.EnvVars("SALESFORCE_ACCESS_TOKEN"),
			},
			&cli.StringFlag{
				Name:    "api-version",
				Usage:   "CRM REST API version, e.g. 59.0",
				Sources: cli.EnvVars("SALESFORCE_API_VERSION"),
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
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			logger := log.WithModule("cli")

			req, err := loadFlow(command.String("flow"))
			if err != nil {
				return err
			}

			req.AccessToken = command.String("access-token")

			sink := cmd.NewAuditSink(command.String("audit"), command.String("kafka-brokers"), "", logger)
			if closer, ok := sink.(io.Closer); ok {
				defer func() {
					if err := closer.Close(); err != nil {
						logger.Error("Failed to close audit sink", "error", err)
					}
				}()
			}

			executor := workflow.NewExecutor(
				cmd.NewRegistry(log.WithModule("registry")),
				log.WithModule("workflow_executor"),
				workflow.WithAuditSink(sink),
			)
			runner := services.NewRunner(executor, services.WithAPIVersion(command.String("api-version")))

			result, runErr := runner.Run(ctx, req)
			if result != nil {
				if err := printResults(os.Stdout, result); err != nil {
					return err
				}
			}

			if errors.Is(runErr, services.ErrFlowFailed) {
				return cli.Exit(runErr.Error(), 2)
			}

			return runErr
		},
	}
}

// NewPreviewCommand prints the query each Find node of a flow would issue,
// without contacting the CRM.
func NewPreviewCommand() *cli.Command {
	return &cli.Command{
		Name:  "preview",
		Usage: "Print the queries of the Find nodes in a flow file",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "flow",
				Aliases:  []string{"f"},
				Usage:    "Path to a JSON run request",
				Required: true,
			},
		},
		Action: func(_ context.Context, command *cli.Command) error {
			req, err := loadFlow(command.String("flow"))
			if err != nil {
				return err
			}

			return printQueries(os.Stdout, req.Nodes)
		},
	}
}

func loadFlow(path string) (*models.RunRequest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading flow file: %w", err)
	}

	var body web.RunMappingRequest
	if err := json.Unmarshal(data, &body); err != nil {
		return nil, fmt.Errorf("decoding flow file %s: %w", path, err)
	}

	nodes, err := models.NormalizeNodes(body.Nodes)
	if err != nil {
		return nil, fmt.Errorf("flow file %s: %w", path, err)
	}

	return &models.RunRequest{
		UserID:        body.UserID,
		InstanceURL:   body.InstanceURL,
		FormID:        body.FormID,
		FormVersionID: body.FormVersionID,
		SubmissionID:  body.SubmissionID,
		FormData:      body.FormData,
		Nodes:         nodes,
	}, nil
}

func printResults(w io.Writer, result *models.RunResult) error {
	out := web.RunMappingResponse{
		Success:        len(result.FailedNodes()) == 0,
		Results:        result.Results,
		NewAccessToken: result.NewAccessToken,
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	return enc.Encode(out)
}

func printQueries(w io.Writer, nodes []*models.Node) error {
	for _, node := range nodes {
		if node.Type != models.NodeTypeFind && node.Type != models.NodeTypeFilter {
			continue
		}

		query, err := soql.Build(node)
		if err != nil {
			return fmt.Errorf("node %s: %w", node.NodeID, err)
		}

		if _, err := fmt.Fprintf(w, "%s\t%s\n", node.NodeID, query); err != nil {
			return err
		}
	}

	return nil
}
