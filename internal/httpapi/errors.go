package httpapi

import (
	"encoding/json"
	"net/http"

	"arinfer/pkg/types"
)

// statusClientClosed is the conventional status for a request whose work was
// cancelled before it finished.
const statusClientClosed = 499

// writeJSONError writes a consistent JSON error payload.
func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(types.ErrorResponse{Error: msg, Code: status})
}

// statusForOutcome maps an inference outcome to an HTTP status code.
func statusForOutcome(outcome string) int {
	switch outcome {
	case types.OutcomeCompleted, types.OutcomeNoNode:
		// no capable node is an ordinary answer carried in the Error output
		return http.StatusOK
	case types.OutcomeTooBusy:
		return http.StatusTooManyRequests
	case types.OutcomeTimeout:
		return http.StatusGatewayTimeout
	case types.OutcomeDuplicate:
		return http.StatusConflict
	case types.OutcomeCancelled:
		return statusClientClosed
	default:
		return http.StatusInternalServerError
	}
}
