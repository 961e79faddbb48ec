package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/roach88/rowlock/internal/workitem"
)

const conflictMessage = "Resource was already modified. Please retry"

var outcomeToHTTPStatus = map[workitem.Outcome]int{
	workitem.Success:  http.StatusOK,
	workitem.NotFound: http.StatusNotFound,
	workitem.Conflict: http.StatusConflict,
	workitem.Failure:  http.StatusInternalServerError,
}

func statusFor(outcome workitem.Outcome) int {
	if status, ok := outcomeToHTTPStatus[outcome]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// mapUpdateError maps a failed update to HTTP status, error code and message.
func mapUpdateError(outcome workitem.Outcome, id workitem.ID, err error) (int, string, string) {
	switch outcome {
	case workitem.NotFound:
		return http.StatusNotFound, "not_found", fmt.Sprintf("Work Item with Id %d was not found!", id)
	case workitem.Conflict:
		return http.StatusConflict, "conflict", conflictMessage
	}

	code := workitem.CodeOf(err)
	switch code {
	case workitem.ErrCodeInvalidAssignee:
		return http.StatusInternalServerError, "invalid_assignee", err.Error()
	case workitem.ErrCodeInjectorDisabled:
		return http.StatusInternalServerError, "injector_disabled", "forceConflict is disabled on this server"
	case workitem.ErrCodeTransient:
		return http.StatusInternalServerError, "transient_store_failure", err.Error()
	}
	return http.StatusInternalServerError, strings.ToLower(string(code)), err.Error()
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{
		Error:   code,
		Code:    status,
		Message: message,
	})
}

func writeOutcomeError(w http.ResponseWriter, outcome workitem.Outcome, id workitem.ID, err error) {
	status, code, message := mapUpdateError(outcome, id, err)
	writeJSON(w, status, ErrorResponse{
		Error:   code,
		Code:    status,
		Message: message,
		Outcome: &outcome,
	})
}
