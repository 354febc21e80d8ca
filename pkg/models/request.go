package models

import "slices"

// RunRequest is one flow invocation for one form submission.
type RunRequest struct {
	UserID        string
	InstanceURL   string
	AccessToken   string
	FormID        string
	FormVersionID string
	SubmissionID  string
	FormData      map[string]any
	Nodes         []*Node
}

// RunResult is the results map of a finished run.
type RunResult struct {
	ExecutionID    string                `json:"executionId"`
	Results        map[string]NodeResult `json:"results"`
	NewAccessToken string                `json:"newAccessToken,omitempty"`
}

// Failed reports whether any node failed. Skipped nodes never fail a run.
func (r *RunResult) Failed() bool {
	for _, result := range r.Results {
		if result.Failed() {
			return true
		}
	}

	return false
}

// FailedNodes lists the ids of failed nodes.
func (r *RunResult) FailedNodes() []string {
	var ids []string

	for id, result := range r.Results {
		if result.Failed() {
			ids = append(ids, id)
		}
	}

	slices.Sort(ids)

	return ids
}
