package models

import (
	"encoding/json"
	"time"
)

// NodeStatus is the outcome recorded for a node.
type NodeStatus string

const (
	NodeStatusSuccess   NodeStatus = "success"
	NodeStatusPartial   NodeStatus = "partial"
	NodeStatusCompleted NodeStatus = "completed"
	NodeStatusSkipped   NodeStatus = "skipped"
	NodeStatusFailed    NodeStatus = "failed"
)

// NodeResult is the per-node outcome stored in the run's results map. Data
// carries type specific fields (ids, recordId, output...) and is flattened
// into the JSON object next to the common fields.
type NodeResult struct {
	NodeID    string
	Type      NodeType
	Status    NodeStatus
	Success   bool
	Message   string
	Error     string
	Data      map[string]any
	Timestamp time.Time
}

// Get reads a Data entry.
func (r NodeResult) Get(key string) any {
	if r.Data == nil {
		return nil
	}

	return r.Data[key]
}

// Failed reports whether the result counts against the flow. Skipped and
// partial results may carry an error without failing it.
func (r NodeResult) Failed() bool {
	switch r.Status {
	case NodeStatusFailed:
		return true
	case NodeStatusSkipped, NodeStatusPartial:
		return false
	default:
		return r.Error != ""
	}
}

func (r NodeResult) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(r.Data)+6)
	for k, v := range r.Data {
		out[k] = v
	}

	out["nodeId"] = r.NodeID
	out["type"] = r.Type
	out["status"] = r.Status
	out["success"] = r.Success

	if r.Message != "" {
		out["message"] = r.Message
	}

	if r.Error != "" {
		out["error"] = r.Error
	}

	if !r.Timestamp.IsZero() {
		out["timestamp"] = r.Timestamp
	}

	return json.Marshal(out)
}

func (r *NodeResult) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*r = NodeResult{Data: map[string]any{}}

	for k, v := range raw {
		switch k {
		case "nodeId":
			r.NodeID, _ = v.(string)
		case "type":
			s, _ := v.(string)
			r.Type = NodeType(s)
		case "status":
			s, _ := v.(string)
			r.Status = NodeStatus(s)
		case "success":
			r.Success, _ = v.(bool)
		case "message":
			r.Message, _ = v.(string)
		case "error":
			r.Error, _ = v.(string)
		case "timestamp":
			if s, ok := v.(string); ok {
				r.Timestamp, _ = time.Parse(time.RFC3339Nano, s)
			}
		default:
			r.Data[k] = v
		}
	}

	return nil
}
