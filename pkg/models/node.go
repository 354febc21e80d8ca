// Package models defines the canonical mapping-flow node shape, the per-run
// execution context and the results produced by node executors.
package models

// NodeType identifies which executor handles a node.
type NodeType string

const (
	NodeTypeStart           NodeType = "Start"
	NodeTypeEnd             NodeType = "End"
	NodeTypeCreateUpdate    NodeType = "CreateUpdate"
	NodeTypeFind            NodeType = "Find"
	NodeTypeFilter          NodeType = "Filter"
	NodeTypeLoop            NodeType = "Loop"
	NodeTypePath            NodeType = "Path"
	NodeTypeFormatter       NodeType = "Formatter"
	NodeTypeCondition       NodeType = "Condition"
	NodeTypeGoogleSheet     NodeType = "Google Sheet"
	NodeTypeFindGoogleSheet NodeType = "FindGoogleSheet"
)

// IsStructural reports whether the node only shapes the editor graph and is
// never executed.
func (t NodeType) IsStructural() bool {
	return t == NodeTypeStart || t == NodeTypeEnd || t == NodeTypePath
}

// PathOption selects how a Condition node gates the nodes after it.
type PathOption string

const (
	PathOptionRules     PathOption = "Rules"
	PathOptionFallback  PathOption = "Fallback"
	PathOptionAlwaysRun PathOption = "Always Run"
)

// Node is one step in a mapping flow.
type Node struct {
	NodeID           string           `json:"nodeId"`
	Type             NodeType         `json:"type"`
	Order            int              `json:"order"`
	Label            string           `json:"label,omitempty"`
	SalesforceObject string           `json:"salesforceObject,omitempty"`
	Conditions       *ConditionSet    `json:"conditions,omitempty"`
	FieldMappings    []FieldMapping   `json:"fieldMappings,omitempty"`
	LoopConfig       *LoopConfig      `json:"loopConfig,omitempty"`
	FormatterConfig  *FormatterConfig `json:"formatterConfig,omitempty"`
	PathOption       PathOption       `json:"pathOption,omitempty"`
	Config           map[string]any   `json:"config,omitempty"`
}

// HasDefinition reports whether the node carries enough of its own
// definition to run without a stored mapping.
func (n *Node) HasDefinition() bool {
	return n.SalesforceObject != "" ||
		n.Conditions != nil ||
		len(n.FieldMappings) > 0 ||
		n.LoopConfig != nil ||
		n.FormatterConfig != nil ||
		len(n.Config) > 0
}

// ConfigString reads a string entry from Config.
func (n *Node) ConfigString(key string) string {
	if n.Config == nil {
		return ""
	}

	if s, ok := n.Config[key].(string); ok {
		return s
	}

	return ""
}

// FieldMapping binds a form field to a target field (a CRM field, or a
// column header for sheet nodes).
type FieldMapping struct {
	FormFieldID     string `json:"formFieldId"`
	SalesforceField string `json:"salesforceField"`
	FieldType       string `json:"fieldType,omitempty"`
	PicklistValue   string `json:"picklistValue,omitempty"`
}

// LoopVariables selects which iteration counters a Loop exposes.
type LoopVariables struct {
	CurrentIndex bool `json:"currentIndex,omitempty"`
	Counter      bool `json:"counter,omitempty"`
	IndexBase    int  `json:"indexBase,omitempty"`
}

// LoopConfig drives a Loop node over a prior node's ids.
type LoopConfig struct {
	LoopCollection          string        `json:"loopCollection"`
	CurrentItemVariableName string        `json:"currentItemVariableName,omitempty"`
	LoopVariables           LoopVariables `json:"loopVariables,omitempty"`
	MaxIterations           int           `json:"maxIterations,omitempty"`
}

// FormatterConfig selects a formatter operation and its input.
type FormatterConfig struct {
	FormatType     string         `json:"formatType"`
	Operation      string         `json:"operation"`
	InputField     string         `json:"inputField,omitempty"`
	InputField2    string         `json:"inputField2,omitempty"`
	Options        map[string]any `json:"options,omitempty"`
	UseCustomInput bool           `json:"useCustomInput,omitempty"`
	CustomValue    string         `json:"customValue,omitempty"`
	OutputVariable string         `json:"outputVariable,omitempty"`
}
