package httpclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrUnauthorized matches any *APIError carrying status 401.
var ErrUnauthorized = errors.New("unauthorized")

// APIError is a response with a non-2xx status.
// Body is the server body verbatim or, when the server sent none, a
// synthesized {"message":"<status> <reason>"} using the server's reason phrase.
type APIError struct {
	Status int
	Body   []byte
}

func newAPIError(status int, statusLine string, body []byte) *APIError {
	if len(body) == 0 {
		msg := strings.TrimSpace(statusLine)
		if msg == "" {
			msg = fmt.Sprintf("%d %s", status, http.StatusText(status))
		}
		synth, _ := json.Marshal(map[string]string{"message": msg})
		body = synth
	}
	return &APIError{Status: status, Body: body}
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.Status, e.Message())
}

// Message returns the "message" member of a JSON body, or the raw body.
func (e *APIError) Message() string {
	var payload struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(e.Body, &payload); err == nil && payload.Message != "" {
		return payload.Message
	}
	return string(e.Body)
}

// Decode unmarshals the body into v.
func (e *APIError) Decode(v any) error {
	return json.Unmarshal(e.Body, v)
}

// Is reports ErrUnauthorized for 401 responses.
func (e *APIError) Is(target error) bool {
	return target == ErrUnauthorized && e.Status == http.StatusUnauthorized
}

// NetworkError is a failure where no response was received.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error: %v", e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// CanceledError is a request aborted by its caller. It is not a failure to
// report to the user.
type CanceledError struct {
	Err error
}

func (e *CanceledError) Error() string {
	return fmt.Sprintf("request canceled: %v", e.Err)
}

func (e *CanceledError) Unwrap() error {
	return e.Err
}

// IsCanceled reports whether err is a canceled request.
func IsCanceled(err error) bool {
	var c *CanceledError
	return errors.As(err, &c)
}
