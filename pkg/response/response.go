package response

import (
	"encoding/json"
	"net/http"

	"github.com/toeicgenius/assessment_service/internal/errors"
)

// ErrorBody is the serialized error payload.
type ErrorBody struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// JSON writes data as the response body verbatim. Assessment payloads
// carry their own shape; there is no envelope.
func JSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// Error writes an error response. AppErrors keep their code and details;
// anything else is reported as an internal error.
func Error(w http.ResponseWriter, err error) {
	appErr, ok := err.(*errors.AppError)
	if !ok {
		appErr = errors.Internal("internal server error")
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(appErr.HTTPStatus())
	json.NewEncoder(w).Encode(map[string]interface{}{
		"error": ErrorBody{
			Code:    string(appErr.Code),
			Message: appErr.Message,
			Details: appErr.Details,
		},
	})
}

// BadRequest writes a 400 with a validation error body.
func BadRequest(w http.ResponseWriter, message string) {
	Error(w, errors.Validation(message))
}
