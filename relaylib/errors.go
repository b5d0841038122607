package relaylib

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrRelayShutdown     = errors.New("relay instance was shutdown")
	ErrNoData            = errors.New("no data yet")
	ErrEmptyPrompt       = errors.New("prompt is empty")
	ErrInvalidParams     = errors.New("invalid completion parameters")
	ErrInvalidCompletion = errors.New("upstream has returned invalid completion")
)

// HTTPStatusError is returned by HTTPClient if remote side has responded
// with 4xx or 5xx status code. Body contains a beginning of response
// body, it is enough to extract error messages.
type HTTPStatusError struct {
	StatusCode int
	Status     string
	Body       []byte
}

func (h *HTTPStatusError) Error() string {
	return fmt.Sprintf("netloc has responded with %s", h.Status)
}

type jsonHTTPError struct {
	Error   string `json:"error"`
	Context string `json:"context,omitempty"`
	Status  string `json:"status"`
}

type httpError struct {
	message    string
	err        error
	statusCode int
}

func (h *httpError) Message() string {
	if h == nil {
		return ""
	}

	return h.message
}

func (h *httpError) Err() string {
	if err := errors.Unwrap(h); err != nil {
		return err.Error()
	}

	return ""
}

func (h *httpError) StatusCode() int {
	if h != nil && h.statusCode != 0 {
		return h.statusCode
	}

	return http.StatusInternalServerError
}

func (h *httpError) Unwrap() error {
	if h == nil {
		return nil
	}

	return h.err
}

func (h *httpError) Error() string {
	switch {
	case h == nil:
		return ""
	case h.err != nil && h.message != "":
		return h.message + ": " + h.err.Error()
	case h.err != nil:
		return h.err.Error()
	}

	return h.message
}

func (h *httpError) MarshalJSON() ([]byte, error) {
	value := jsonHTTPError{
		Error:   h.Message(),
		Context: h.Err(),
		Status:  "error",
	}

	return json.Marshal(&value)
}
