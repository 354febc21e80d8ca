// Package salesforce is the REST client used by the record nodes. Every
// call goes through a per-invocation Session that retries once with a
// refreshed token when the API answers 401.
package salesforce

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dukex/formflow/pkg/log"
)

const defaultTimeout = 30 * time.Second

type Client struct {
	session    *Session
	httpClient *http.Client
	logger     *slog.Logger
}

type Option func(*Client)

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

func NewClient(session *Session, opts ...Option) *Client {
	c := &Client{
		session:    session,
		httpClient: &http.Client{Timeout: defaultTimeout},
		logger:     log.WithModule("salesforce"),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

func (c *Client) Session() *Session {
	return c.session
}

type queryResponse struct {
	TotalSize      int              `json:"totalSize"`
	Done           bool             `json:"done"`
	Records        []map[string]any `json:"records"`
	NextRecordsURL string           `json:"nextRecordsUrl"`
}

// Query runs a SOQL statement and returns every record, following
// nextRecordsUrl until the result set is done.
func (c *Client) Query(ctx context.Context, soql string) ([]map[string]any, error) {
	endpoint := c.session.dataURL("/query?q=" + url.QueryEscape(soql))
	records := make([]map[string]any, 0)

	for endpoint != "" {
		body, err := c.do(ctx, "query", http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, err
		}

		var page queryResponse
		if err := json.Unmarshal(body, &page); err != nil {
			return nil, fmt.Errorf("decoding query response: %w", err)
		}

		for _, record := range page.Records {
			delete(record, "attributes")
			records = append(records, record)
		}

		endpoint = ""
		if !page.Done && page.NextRecordsURL != "" {
			endpoint = c.session.InstanceURL + page.NextRecordsURL
		}
	}

	c.logger.DebugContext(ctx, "query completed", "records", len(records))

	return records, nil
}

// CreateRecord inserts a record and returns its id. An empty or non-JSON
// response body is treated as an empty object.
func (c *Client) CreateRecord(ctx context.Context, object string, payload map[string]any) (string, error) {
	body, err := c.do(ctx, "create", http.MethodPost, c.session.dataURL("/sobjects/"+url.PathEscape(object)+"/"), payload)
	if err != nil {
		return "", err
	}

	created := map[string]any{}
	if len(bytes.TrimSpace(body)) > 0 {
		if err := json.Unmarshal(body, &created); err != nil {
			created = map[string]any{}
		}
	}

	id, _ := created["id"].(string)

	return id, nil
}

// UpdateRecord patches a single record.
func (c *Client) UpdateRecord(ctx context.Context, object, id string, payload map[string]any) error {
	_, err := c.do(ctx, "update", http.MethodPatch,
		c.session.dataURL("/sobjects/"+url.PathEscape(object)+"/"+url.PathEscape(id)), payload)

	return err
}

func (c *Client) do(ctx context.Context, op, method, endpoint string, payload any) ([]byte, error) {
	var encoded []byte

	if payload != nil {
		var err error

		encoded, err = json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encoding %s payload: %w", op, err)
		}
	}

	for attempt := 0; ; attempt++ {
		token, err := c.session.Token(ctx)
		if err != nil {
			return nil, fmt.Errorf("salesforce %s: %w", op, err)
		}

		status, body, err := c.send(ctx, method, endpoint, token, encoded)
		if err != nil {
			return nil, fmt.Errorf("salesforce %s: %w", op, err)
		}

		if status == http.StatusUnauthorized && attempt == 0 {
			_, refreshErr := c.session.Refresh(ctx)
			if refreshErr == nil {
				c.logger.InfoContext(ctx, "access token refreshed, retrying", "op", op)
				continue
			}

			if !errors.Is(refreshErr, ErrAlreadyRefreshed) {
				c.logger.WarnContext(ctx, "access token refresh failed", "op", op, "error", refreshErr)
			}
		}

		if status < 200 || status >= 300 {
			return nil, &APIError{Op: op, StatusCode: status, Body: strings.TrimSpace(string(body))}
		}

		return body, nil
	}
}

func (c *Client) send(ctx context.Context, method, endpoint, token string, payload []byte) (int, []byte, error) {
	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reqBody)
	if err != nil {
		return 0, nil, err
	}

	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, err
	}

	return resp.StatusCode, body, nil
}
