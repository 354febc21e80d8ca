package models

// Operator is a comparison between a record field and a condition value.
type Operator string

const (
	OperatorEquals     Operator = "="
	OperatorNotEquals  Operator = "!="
	OperatorLike       Operator = "LIKE"
	OperatorNotLike    Operator = "NOT LIKE"
	OperatorStartsWith Operator = "STARTS WITH"
	OperatorEndsWith   Operator = "ENDS WITH"
	OperatorIsNull     Operator = "IS NULL"
	OperatorIsNotNull  Operator = "IS NOT NULL"
	OperatorGreater    Operator = ">"
	OperatorLess       Operator = "<"
	OperatorGreaterEq  Operator = ">="
	OperatorLessEq     Operator = "<="
	OperatorBetween    Operator = "BETWEEN"
	OperatorIn         Operator = "IN"
	OperatorNotIn      Operator = "NOT IN"
)

// LogicType joins the conditions of a set.
type LogicType string

const (
	LogicAnd    LogicType = "AND"
	LogicOr     LogicType = "OR"
	LogicCustom LogicType = "Custom"
)

// Condition compares Field against Value. Value is kept as text; BETWEEN
// takes "min,max" and IN takes a comma separated list.
type Condition struct {
	Field    string   `json:"field"`
	Operator Operator `json:"operator"`
	Value    string   `json:"value"`
}

// ConditionSet groups conditions with their join logic and result shaping.
type ConditionSet struct {
	Conditions  []Condition `json:"conditions"`
	LogicType   LogicType   `json:"logicType,omitempty"`
	CustomLogic string      `json:"customLogic,omitempty"`
	ReturnLimit int         `json:"returnLimit,omitempty"`
	SortField   string      `json:"sortField,omitempty"`
	SortOrder   string      `json:"sortOrder,omitempty"`
}

// Len is nil-safe.
func (s *ConditionSet) Len() int {
	if s == nil {
		return 0
	}

	return len(s.Conditions)
}

// Logic returns the effective join logic, AND when unset.
func (s *ConditionSet) Logic() LogicType {
	if s == nil || s.LogicType == "" {
		return LogicAnd
	}

	return s.LogicType
}
