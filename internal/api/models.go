package api

import "github.com/roach88/rowlock/internal/workitem"

// AssignRequest is the body of every assign endpoint.
type AssignRequest struct {
	ID            workitem.ID `json:"id"`
	AssignedTo    string      `json:"assignedTo"`
	ForceConflict bool        `json:"forceConflict"`
}

// AssignResponse reports a completed assignment.
type AssignResponse struct {
	Outcome  workitem.Outcome  `json:"outcome"`
	Strategy workitem.Strategy `json:"strategy"`
	Message  string            `json:"message"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error   string            `json:"error"`
	Code    int               `json:"code"`
	Message string            `json:"message"`
	Outcome *workitem.Outcome `json:"outcome,omitempty"`
}

// HealthResponse is returned by GET /healthz.
type HealthResponse struct {
	Status string `json:"status"`
}
