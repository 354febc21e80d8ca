package salesforce

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/dukex/formflow/pkg/models"
)

// BatchSize is the composite batch limit per request.
const BatchSize = 25

type batchRequest struct {
	BatchRequests []batchSubrequest `json:"batchRequests"`
}

type batchSubrequest struct {
	Method    string         `json:"method"`
	URL       string         `json:"url"`
	RichInput map[string]any `json:"richInput"`
}

type batchResponse struct {
	HasErrors bool               `json:"hasErrors"`
	Results   []batchItemOutcome `json:"results"`
}

type batchItemOutcome struct {
	StatusCode int             `json:"statusCode"`
	Result     json.RawMessage `json:"result"`
}

// BatchUpdate applies payload to every id, 25 records per composite
// request. A failing chunk marks only its own ids as failed.
func (c *Client) BatchUpdate(ctx context.Context, object string, ids []string, payload map[string]any) models.BatchResult {
	result := models.BatchResult{
		SuccessfulIDs: []string{},
		FailedRecords: []models.FailedRecord{},
	}

	for start := 0; start < len(ids); start += BatchSize {
		end := min(start+BatchSize, len(ids))
		chunk := ids[start:end]

		succeeded, failed := c.updateChunk(ctx, object, chunk, payload)
		result.SuccessfulIDs = append(result.SuccessfulIDs, succeeded...)
		result.FailedRecords = append(result.FailedRecords, failed...)
	}

	c.logger.InfoContext(ctx, "batch update finished",
		"object", object,
		"succeeded", len(result.SuccessfulIDs),
		"failed", len(result.FailedRecords),
	)

	return result
}

func (c *Client) updateChunk(ctx context.Context, object string, ids []string, payload map[string]any) ([]string, []models.FailedRecord) {
	req := batchRequest{BatchRequests: make([]batchSubrequest, len(ids))}
	for i, id := range ids {
		req.BatchRequests[i] = batchSubrequest{
			Method:    http.MethodPatch,
			URL:       fmt.Sprintf("%s/sobjects/%s/%s", c.session.APIVersion, url.PathEscape(object), url.PathEscape(id)),
			RichInput: payload,
		}
	}

	body, err := c.do(ctx, "batch", http.MethodPost, c.session.dataURL("/composite/batch"), req)
	if err != nil {
		return nil, failAll(ids, err.Error())
	}

	var resp batchResponse
	if err := json.Unmarshal(body, &resp); err != nil || len(resp.Results) != len(ids) {
		return nil, failAll(ids, "unexpected composite batch response")
	}

	if !resp.HasErrors {
		return append([]string(nil), ids...), nil
	}

	var (
		succeeded []string
		failed    []models.FailedRecord
	)

	for i, outcome := range resp.Results {
		if outcome.StatusCode >= 400 {
			failed = append(failed, models.FailedRecord{ID: ids[i], Error: itemError(outcome)})
			continue
		}

		succeeded = append(succeeded, ids[i])
	}

	return succeeded, failed
}

func failAll(ids []string, reason string) []models.FailedRecord {
	failed := make([]models.FailedRecord, len(ids))
	for i, id := range ids {
		failed[i] = models.FailedRecord{ID: id, Error: reason}
	}

	return failed
}

// itemError pulls the first message from a subrequest error payload.
func itemError(outcome batchItemOutcome) string {
	var errs []struct {
		Message   string `json:"message"`
		ErrorCode string `json:"errorCode"`
	}

	if err := json.Unmarshal(outcome.Result, &errs); err == nil && len(errs) > 0 {
		if errs[0].ErrorCode != "" {
			return errs[0].ErrorCode + ": " + errs[0].Message
		}

		return errs[0].Message
	}

	return fmt.Sprintf("HTTP %d", outcome.StatusCode)
}
