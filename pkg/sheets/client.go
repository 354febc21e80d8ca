// Package sheets reads and writes spreadsheet rows through the Google Sheets
// API on behalf of a form owner.
package sheets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/dukex/formflow/pkg/log"
	"github.com/dukex/formflow/pkg/models"
	"golang.org/x/oauth2"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"
)

const valueInputOption = "USER_ENTERED"

// Client implements models.SheetClient. A call answered with 401 is retried
// once with a refreshed token.
type Client struct {
	tokens   TokenSource
	endpoint string
	base     http.RoundTripper
	logger   *slog.Logger

	mu      sync.Mutex
	service *sheetsapi.Service
}

type Option func(*Client)

// WithEndpoint points the client at another API root, e.g. a test server.
func WithEndpoint(endpoint string) Option {
	return func(c *Client) {
		c.endpoint = endpoint
	}
}

func WithTransport(base http.RoundTripper) Option {
	return func(c *Client) {
		c.base = base
	}
}

func NewClient(tokens TokenSource, opts ...Option) *Client {
	c := &Client{
		tokens: tokens,
		base:   http.DefaultTransport,
		logger: log.WithModule("sheets"),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

func (c *Client) serviceFor(ctx context.Context, forceRefresh bool) (*sheetsapi.Service, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.service != nil && !forceRefresh {
		return c.service, nil
	}

	token, err := c.tokens.Token(ctx, forceRefresh)
	if err != nil {
		return nil, err
	}

	httpClient := &http.Client{
		Transport: &oauth2.Transport{
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"}),
			Base:   c.base,
		},
	}

	opts := []option.ClientOption{option.WithHTTPClient(httpClient)}
	if c.endpoint != "" {
		opts = append(opts, option.WithEndpoint(c.endpoint))
	}

	service, err := sheetsapi.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating sheets service: %w", err)
	}

	c.service = service

	return service, nil
}

func (c *Client) call(ctx context.Context, op string, fn func(*sheetsapi.Service) error) error {
	service, err := c.serviceFor(ctx, false)
	if err != nil {
		return err
	}

	err = fn(service)
	if !isUnauthorized(err) {
		return wrap(op, err)
	}

	c.logger.InfoContext(ctx, "sheets token rejected, refreshing", "op", op)

	service, err = c.serviceFor(ctx, true)
	if err != nil {
		return err
	}

	return wrap(op, fn(service))
}

func (c *Client) Rows(ctx context.Context, spreadsheetID, sheet string) ([][]string, error) {
	var rows [][]string

	err := c.call(ctx, "read rows", func(s *sheetsapi.Service) error {
		resp, err := s.Spreadsheets.Values.Get(spreadsheetID, quoteSheet(sheet)).Context(ctx).Do()
		if err != nil {
			return err
		}

		rows = make([][]string, len(resp.Values))
		for i, row := range resp.Values {
			rows[i] = make([]string, len(row))
			for j, cell := range row {
				if cell != nil {
					rows[i][j] = fmt.Sprint(cell)
				}
			}
		}

		return nil
	})

	return rows, err
}

func (c *Client) WriteHeader(ctx context.Context, spreadsheetID, sheet string, header []string) error {
	return c.update(ctx, "write header", spreadsheetID, quoteSheet(sheet)+"!A1", header)
}

func (c *Client) UpdateRow(ctx context.Context, spreadsheetID, sheet string, row int, values []string) error {
	return c.update(ctx, "update row", spreadsheetID, fmt.Sprintf("%s!A%d", quoteSheet(sheet), row), values)
}

func (c *Client) update(ctx context.Context, op, spreadsheetID, a1 string, values []string) error {
	return c.call(ctx, op, func(s *sheetsapi.Service) error {
		_, err := s.Spreadsheets.Values.Update(spreadsheetID, a1, valueRange(values)).
			ValueInputOption(valueInputOption).
			Context(ctx).
			Do()

		return err
	})
}

func (c *Client) AppendRow(ctx context.Context, spreadsheetID, sheet string, values []string) error {
	return c.call(ctx, "append row", func(s *sheetsapi.Service) error {
		_, err := s.Spreadsheets.Values.Append(spreadsheetID, quoteSheet(sheet), valueRange(values)).
			ValueInputOption(valueInputOption).
			InsertDataOption("INSERT_ROWS").
			Context(ctx).
			Do()

		return err
	})
}

func valueRange(values []string) *sheetsapi.ValueRange {
	row := make([]any, len(values))
	for i, v := range values {
		row[i] = v
	}

	return &sheetsapi.ValueRange{MajorDimension: "ROWS", Values: [][]any{row}}
}

// quoteSheet renders a sheet name for A1 notation.
func quoteSheet(name string) string {
	return "'" + strings.ReplaceAll(name, "'", "''") + "'"
}

func isUnauthorized(err error) bool {
	var apiErr *googleapi.Error

	return errors.As(err, &apiErr) && apiErr.Code == http.StatusUnauthorized
}

func wrap(op string, err error) error {
	if err == nil {
		return nil
	}

	return fmt.Errorf("sheets %s: %w", op, err)
}

// Opener hands out clients that share one credential per run.
type Opener struct {
	tokens TokenSource
	opts   []Option
}

func NewOpener(tokens TokenSource, opts ...Option) *Opener {
	return &Opener{tokens: tokens, opts: opts}
}

func (o *Opener) Open(ctx context.Context) (models.SheetClient, error) {
	client := NewClient(o.tokens, o.opts...)

	// resolve the credential up front so a missing one fails the node early
	if _, err := client.serviceFor(ctx, false); err != nil {
		return nil, err
	}

	return client, nil
}
