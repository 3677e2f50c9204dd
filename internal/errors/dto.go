package errors

import (
	"encoding/json"
	"strings"

	"github.com/cockroachdb/errors"
)

// ErrorResponse is the envelope every failed API call returns.
type ErrorResponse struct {
	Success bool        `json:"success"`
	Error   ErrorDetail `json:"error"`
}

// ErrorDetail carries the caller-facing message and any reportable details.
type ErrorDetail struct {
	Display       string         `json:"message"`
	InternalError string         `json:"internal_error,omitempty"`
	Details       map[string]any `json:"details,omitempty"`
}

// NewErrorResponse builds the response envelope from a marked error,
// surfacing only hints and reportable details.
func NewErrorResponse(err error) ErrorResponse {
	return ErrorResponse{
		Success: false,
		Error: ErrorDetail{
			Display: DisplayMessage(err),
			Details: SafeDetails(err),
		},
	}
}

// DisplayMessage returns the first non-empty hint attached to the error,
// or a generic message when the error carries none.
func DisplayMessage(err error) string {
	for _, hint := range errors.GetAllHints(err) {
		if hint = strings.TrimSpace(hint); hint != "" {
			return hint
		}
	}
	return "An unexpected error occurred"
}

// SafeDetails collects the reportable details attached anywhere in the
// error chain into a single map. Returns an empty map when none exist.
func SafeDetails(err error) map[string]any {
	details := make(map[string]any)
	for _, sdp := range errors.GetAllSafeDetails(err) {
		for _, payload := range sdp.SafeDetails {
			if !strings.HasPrefix(payload, safeDetailsPrefix) {
				continue
			}
			var decoded map[string]any
			if jsonErr := json.Unmarshal([]byte(payload[len(safeDetailsPrefix):]), &decoded); jsonErr != nil {
				continue
			}
			for k, v := range decoded {
				details[k] = v
			}
		}
	}
	return details
}
