package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/mitchellh/mapstructure"
)

var ErrMissingNodeID = errors.New("node id is required")

// persistedKeys maps the suffix-keyed field names used by the stored node
// records to the canonical keys.
var persistedKeys = map[string]string{
	"Node_Id__c":           "nodeId",
	"Type__c":              "type",
	"Order__c":             "order",
	"Label__c":             "label",
	"Object_Name__c":       "salesforceObject",
	"Salesforce_Object__c": "salesforceObject",
	"Conditions__c":        "conditions",
	"Field_Mappings__c":    "fieldMappings",
	"Config__c":            "config",
	"Loop_Config__c":       "loopConfig",
	"Formatter_Config__c":  "formatterConfig",
	"Path_Option__c":       "pathOption",
	"id":                   "nodeId",
}

// jsonEncodedKeys may arrive as JSON text instead of structured values.
var jsonEncodedKeys = []string{"conditions", "fieldMappings", "config", "loopConfig", "formatterConfig"}

// nestedConfigKeys are promoted from config when absent at the top level.
var nestedConfigKeys = []string{"loopConfig", "formatterConfig", "pathOption", "fieldMappings", "conditions"}

var nodeTypeAliases = map[string]NodeType{
	"GoogleSheet":       NodeTypeGoogleSheet,
	"Google_Sheet":      NodeTypeGoogleSheet,
	"Find Google Sheet": NodeTypeFindGoogleSheet,
}

// NormalizeNode converts either the persisted (suffix-keyed, JSON-string
// fields) or the camelCase node shape into a Node.
func NormalizeNode(raw map[string]any) (*Node, error) {
	canonical := make(map[string]any, len(raw))

	for k, v := range raw {
		key := k
		if alias, ok := persistedKeys[k]; ok {
			key = alias
		}

		// A camelCase key wins over its persisted alias.
		if _, exists := canonical[key]; exists && key != k {
			continue
		}

		canonical[key] = v
	}

	for _, key := range jsonEncodedKeys {
		decoded, err := decodeJSONField(canonical[key])
		if err != nil {
			return nil, fmt.Errorf("decoding %s: %w", key, err)
		}

		canonical[key] = decoded
	}

	if cfg, ok := canonical["config"].(map[string]any); ok {
		for _, key := range nestedConfigKeys {
			if canonical[key] != nil {
				continue
			}

			if v, ok := cfg[key]; ok {
				decoded, err := decodeJSONField(v)
				if err != nil {
					return nil, fmt.Errorf("decoding config.%s: %w", key, err)
				}

				canonical[key] = decoded
			}
		}
	}

	var node Node

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: true,
		DecodeHook:       conditionSetHook,
		Result:           &node,
	})
	if err != nil {
		return nil, err
	}

	if err := decoder.Decode(canonical); err != nil {
		return nil, fmt.Errorf("decoding node: %w", err)
	}

	if node.NodeID == "" {
		return nil, ErrMissingNodeID
	}

	if alias, ok := nodeTypeAliases[string(node.Type)]; ok {
		node.Type = alias
	}

	return &node, nil
}

// NormalizeNodes normalizes a list, failing on the first invalid entry.
func NormalizeNodes(raw []map[string]any) ([]*Node, error) {
	nodes := make([]*Node, 0, len(raw))

	for i, r := range raw {
		node, err := NormalizeNode(r)
		if err != nil {
			return nil, fmt.Errorf("node %d: %w", i, err)
		}

		nodes = append(nodes, node)
	}

	return nodes, nil
}

func decodeJSONField(v any) (any, error) {
	s, ok := v.(string)
	if !ok {
		return v, nil
	}

	s = strings.TrimSpace(s)
	if s == "" || s == "null" {
		return nil, nil
	}

	var out any
	if err := json.Unmarshal([]byte(s), &out); err != nil {
		return nil, err
	}

	return out, nil
}

var (
	conditionSetType    = reflect.TypeOf(ConditionSet{})
	conditionSetPtrType = reflect.TypeOf(&ConditionSet{})
)

// conditionSetHook accepts a flat condition list where a ConditionSet is
// expected.
func conditionSetHook(_ reflect.Type, to reflect.Type, data any) (any, error) {
	if to != conditionSetType && to != conditionSetPtrType {
		return data, nil
	}

	if list, ok := data.([]any); ok {
		return map[string]any{
			"conditions": list,
			"logicType":  string(LogicAnd),
		}, nil
	}

	return data, nil
}
