package gemini

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"google.golang.org/genai"
)

// ErrMissingAPIKey is returned before any request when no API key is set.
var ErrMissingAPIKey = errors.New("Please enter your Gemini API Key first.")

// APIError is a non-success response from the Gemini API.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API Error (%d): %s", e.Status, e.Message)
}

// TransportError means the request never produced an HTTP response.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("network error: %v", e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// mapError converts SDK errors into APIError or TransportError.
func mapError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		status := apiErr.Code
		if status == 0 {
			status = http.StatusBadGateway
		}
		msg := ""
		if decodedBody(apiErr) {
			msg = apiErr.Message
		}
		if msg == "" {
			msg = http.StatusText(status)
		}
		return &APIError{Status: status, Message: msg}
	}
	return &TransportError{Err: err}
}

// decodedBody reports whether the SDK parsed an {"error": {...}} object.
// Otherwise Message holds the raw response body and Status the HTTP status
// line, e.g. "500 Internal Server Error".
func decodedBody(e genai.APIError) bool {
	return !strings.HasPrefix(e.Status, strconv.Itoa(e.Code)+" ")
}
