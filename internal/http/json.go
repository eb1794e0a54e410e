package httpx

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"

	apperrors "github.com/100-hours-a-week/3-vani-kim-community-BE/internal/errors"
)

// DecodeJSON decodes JSON from the request body into the destination and handles errors.
// Returns true if successful, false if there was an error (error response already written).
func DecodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		WriteError(w, ErrorParams{Status: http.StatusBadRequest, Code: "INVALID_JSON", Message: "request body is not valid JSON"})
		return false
	}

	return true
}

// WriteJSON writes a JSON response with the given status code and data.
func WriteJSON(w http.ResponseWriter, code int, v any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if _, err := buf.WriteTo(w); err != nil {
		// Response writer errors (e.g., client disconnect) can't be recovered from here.
		return
	}
}

// ErrorParams groups parameters for WriteError.
type ErrorParams struct {
	Status  int
	Code    string
	Message string
}

// errorBody is the wire shape of every error response.
type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// WriteError writes a JSON error response using ErrorParams.
func WriteError(w http.ResponseWriter, p ErrorParams) {
	WriteJSON(w, p.Status, errorBody{Code: p.Code, Message: p.Message})
}

// WriteAppError maps an application error onto the HTTP error contract.
func WriteAppError(w http.ResponseWriter, err error) {
	WriteError(w, errorParamsFor(err))
}

// errorParamsFor implements the boundary error mapping. Unknown errors are
// reported generically so internals never leak to clients.
func errorParamsFor(err error) ErrorParams {
	switch apperrors.GetCode(err) {
	case apperrors.ErrCodeNotFound:
		return ErrorParams{Status: http.StatusNotFound, Code: "RESOURCE_NOT_FOUND", Message: messageOf(err)}
	case apperrors.ErrCodeConflict, apperrors.ErrCodeInvalidCredentials:
		return ErrorParams{Status: http.StatusConflict, Code: "RESOURCE_CONFLICT", Message: messageOf(err)}
	case apperrors.ErrCodeValidation:
		return ErrorParams{Status: http.StatusBadRequest, Code: "INVALID_REQUEST", Message: messageOf(err)}
	case apperrors.ErrCodeUnauthorized:
		return ErrorParams{Status: http.StatusUnauthorized, Code: "UNAUTHORIZED", Message: messageOf(err)}
	case apperrors.ErrCodeForbidden:
		return ErrorParams{Status: http.StatusForbidden, Code: "FORBIDDEN", Message: messageOf(err)}
	case apperrors.ErrCodeTokenPersistence:
		// The rotation write failed; the client must log in again.
		return ErrorParams{Status: http.StatusUnauthorized, Code: "TOKEN_SAVE_FAILED", Message: "session could not be saved, please log in again"}
	default:
		return ErrorParams{Status: http.StatusInternalServerError, Code: "INTERNAL_SERVER_ERROR", Message: "internal server error"}
	}
}

func messageOf(err error) string {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return err.Error()
}
