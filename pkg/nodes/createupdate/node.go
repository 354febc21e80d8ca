package createupdate

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/dukex/formflow/pkg/models"
	"github.com/dukex/formflow/pkg/soql"
)

var ErrNoFieldValues = errors.New("no valid field values found for mappings")

type CreateUpdateNode struct{}

func NewCreateUpdateNode() *CreateUpdateNode {
	return &CreateUpdateNode{}
}

func (n *CreateUpdateNode) Execute(ctx context.Context, run *models.ExecutionContext, node *models.Node) (models.NodeResult, error) {
	if node.SalesforceObject == "" {
		return models.NodeResult{}, fmt.Errorf("node %s: %w", node.NodeID, soql.ErrMissingObject)
	}

	query, err := soql.Build(node)
	if err != nil {
		return models.NodeResult{}, err
	}

	payload, missing := BuildPayload(node.FieldMappings, run.Variables)
	if len(payload) == 0 {
		return models.NodeResult{}, fmt.Errorf("%w: %s", ErrNoFieldValues, strings.Join(missing, ", "))
	}

	if len(missing) > 0 {
		run.Logger.DebugContext(ctx, "mapped fields without a value", "fields", missing)
	}

	crm := run.Services.CRM

	if query != "" {
		records, err := crm.Query(ctx, query)
		if err != nil {
			return models.NodeResult{}, fmt.Errorf("looking up %s records: %w", node.SalesforceObject, err)
		}

		if ids := recordIDs(records); len(ids) > 0 {
			return n.update(ctx, run, node, query, ids, payload), nil
		}
	}

	id, err := crm.CreateRecord(ctx, node.SalesforceObject, payload)
	if err != nil {
		return models.NodeResult{
			Status:  models.NodeStatusFailed,
			Success: false,
			Error:   err.Error(),
			Data:    map[string]any{"action": "create", "query": query},
		}, nil
	}

	run.Logger.InfoContext(ctx, "record created", "object", node.SalesforceObject, "record_id", id)

	return models.NodeResult{
		Status:  models.NodeStatusSuccess,
		Success: true,
		Message: fmt.Sprintf("Created %s record", node.SalesforceObject),
		Data: map[string]any{
			"action":   "created",
			"recordId": id,
			"query":    query,
		},
	}, nil
}

func (n *CreateUpdateNode) update(ctx context.Context, run *models.ExecutionContext, node *models.Node, query string, ids []string, payload map[string]any) models.NodeResult {
	batch := run.Services.CRM.BatchUpdate(ctx, node.SalesforceObject, ids, payload)

	result := models.NodeResult{
		Status:  models.NodeStatusSuccess,
		Success: true,
		Message: fmt.Sprintf("Updated %d %s records", len(batch.SuccessfulIDs), node.SalesforceObject),
		Data: map[string]any{
			"action":        "updated",
			"query":         query,
			"recordIds":     batch.SuccessfulIDs,
			"failedRecords": batch.FailedRecords,
			"updatedCount":  len(batch.SuccessfulIDs),
			"failedCount":   len(batch.FailedRecords),
		},
	}

	if len(batch.FailedRecords) > 0 {
		result.Status = models.NodeStatusPartial
		result.Success = false
		result.Error = fmt.Sprintf("%d of %d records failed to update", len(batch.FailedRecords), len(ids))
	}

	return result
}

func recordIDs(records []map[string]any) []string {
	ids := make([]string, 0, len(records))

	for _, r := range records {
		if id, ok := r["Id"].(string); ok && id != "" {
			ids = append(ids, id)
		}
	}

	return ids
}

// BuildPayload maps form values onto object fields, coercing by field type.
// It returns the payload and the form fields that had no usable value.
func BuildPayload(mappings []models.FieldMapping, values map[string]any) (map[string]any, []string) {
	payload := make(map[string]any, len(mappings))

	var missing []string

	for _, m := range mappings {
		if m.SalesforceField == "" {
			continue
		}

		raw := values[m.FormFieldID]
		if m.PicklistValue != "" {
			raw = m.PicklistValue
		}

		value, ok := coerce(raw, m.FieldType)
		if !ok {
			missing = append(missing, m.FormFieldID)
			continue
		}

		payload[m.SalesforceField] = value
	}

	return payload, missing
}

func coerce(raw any, fieldType string) (any, bool) {
	switch v := raw.(type) {
	case nil:
		return nil, false
	case string:
		if strings.TrimSpace(v) == "" {
			return nil, false
		}
	case []any:
		parts := make([]string, 0, len(v))
		for _, item := range v {
			if item != nil {
				parts = append(parts, fmt.Sprint(item))
			}
		}

		if len(parts) == 0 {
			return nil, false
		}

		// multi-select picklists are semicolon separated
		return strings.Join(parts, ";"), true
	}

	switch strings.ToLower(fieldType) {
	case "number", "double", "currency", "percent", "int", "integer":
		if s, ok := raw.(string); ok {
			if f, err := strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(s), ",", ""), 64); err == nil {
				return f, true
			}
		}
	case "boolean", "checkbox":
		switch v := raw.(type) {
		case bool:
			return v, true
		case string:
			switch strings.ToLower(strings.TrimSpace(v)) {
			case "true", "yes", "on", "1", "checked":
				return true, true
			case "false", "no", "off", "0":
				return false, true
			}
		}
	}

	return raw, true
}
