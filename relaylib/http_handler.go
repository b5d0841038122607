package relaylib

import (
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/qri-io/jsonschema"
)

const httpRequestBodyLimit = 1024 * 1024

var (
	handleChatRequestJSONSchema = func() *jsonschema.Schema {
		data := `{
            "type": "object",
            "required": [
                "prompt"
            ],
            "properties": {
                "prompt": {
                    "type": "string",
                    "minLength": 1
                }
            }
        }`

		rv := &jsonschema.Schema{}
		if err := json.Unmarshal([]byte(data), rv); err != nil {
			panic(err)
		}

		return rv
	}()

	handleGenerateRequestJSONSchema = func() *jsonschema.Schema {
		data := `{
            "type": "object",
            "required": [
                "params"
            ],
            "properties": {
                "params": {
                    "type": "object"
                }
            }
        }`

		rv := &jsonschema.Schema{}
		if err := json.Unmarshal([]byte(data), rv); err != nil {
			panic(err)
		}

		return rv
	}()
)

type handleChatRequest struct {
	Prompt string `json:"prompt"`
}

type handleGenerateRequest struct {
	Params json.RawMessage `json:"params"`
}

type handleChatResponse struct {
	Reply  string `json:"reply"`
	Status string `json:"status"`
}

type handleInfoResponse struct {
	Info string `json:"info"`
}

type httpHandler struct {
	relay *Relay
}

func (h httpHandler) handleChat(w http.ResponseWriter, req *http.Request) {
	bodyBytes, ok := h.readJSONBody(w, req, handleChatRequestJSONSchema, "Missing prompt")
	if !ok {
		return
	}

	parsedRequest := handleChatRequest{}
	if err := json.Unmarshal(bodyBytes, &parsedRequest); err != nil {
		h.sendError(w, err, "Cannot parse request JSON", http.StatusBadRequest)

		return
	}

	result, err := h.relay.Chat(req.Context(), ClientIP(req), parsedRequest.Prompt)
	h.sendResult(w, result, err)
}

func (h httpHandler) handleGenerate(w http.ResponseWriter, req *http.Request) {
	bodyBytes, ok := h.readJSONBody(w, req, handleGenerateRequestJSONSchema, "Missing params")
	if !ok {
		return
	}

	parsedRequest := handleGenerateRequest{}
	if err := json.Unmarshal(bodyBytes, &parsedRequest); err != nil {
		h.sendError(w, err, "Cannot parse request JSON", http.StatusBadRequest)

		return
	}

	result, err := h.relay.Generate(req.Context(), ClientIP(req), parsedRequest.Params)
	h.sendResult(w, result, err)
}

func (h httpHandler) handleDebug(w http.ResponseWriter, req *http.Request) {
	records, err := h.relay.DebugDump()
	if errors.Is(err, ErrNoData) {
		h.encodeJSON(w, handleInfoResponse{Info: "No requests logged yet."})

		return
	}

	h.encodeJSON(w, records)
}

func (h httpHandler) handleSummary(w http.ResponseWriter, req *http.Request) {
	summary, err := h.relay.Summary()
	if errors.Is(err, ErrNoData) {
		h.encodeJSON(w, handleInfoResponse{Info: "No data yet."})

		return
	}

	h.encodeJSON(w, summary)
}

func (h httpHandler) handleStats(w http.ResponseWriter, req *http.Request) {
	response := struct {
		Results []*UsageStats `json:"results"`
	}{
		Results: h.relay.Stats(),
	}

	h.encodeJSON(w, response)
}

// readJSONBody reads request body and validates it with the schema.
// On failure an error is sent and false is returned.
func (h httpHandler) readJSONBody(w http.ResponseWriter,
	req *http.Request,
	schema *jsonschema.Schema,
	invalidMessage string) ([]byte, bool) {
	if !strings.Contains(req.Header.Get("Content-Type"), "application/json") {
		h.sendError(w, nil, "Incorrect content type", http.StatusUnsupportedMediaType)

		return nil, false
	}

	bodyBytes, err := io.ReadAll(io.LimitReader(req.Body, httpRequestBodyLimit))

	req.Body.Close()

	if err != nil {
		h.sendError(w, err, "Cannot read request body", http.StatusBadRequest)

		return nil, false
	}

	errs, err := schema.ValidateBytes(req.Context(), bodyBytes)
	if err != nil {
		h.sendError(w, err, "Cannot parse request JSON", http.StatusBadRequest)

		return nil, false
	}

	if len(errs) > 0 {
		h.sendError(w, errs[0], invalidMessage, http.StatusBadRequest)

		return nil, false
	}

	return bodyBytes, true
}

func (h httpHandler) sendResult(w http.ResponseWriter, result ChatResult, err error) {
	switch {
	case err == nil:
		h.encodeJSON(w, handleChatResponse{
			Reply:  result.Reply,
			Status: "success",
		})
	case errors.Is(err, ErrEmptyPrompt):
		h.sendError(w, err, "Missing prompt", http.StatusBadRequest)
	case errors.Is(err, ErrInvalidParams):
		h.sendError(w, err, "Invalid prompt format", http.StatusBadRequest)
	case errors.Is(err, ErrRelayShutdown):
		h.sendError(w, err, "Service is shutting down", http.StatusServiceUnavailable)
	default:
		h.sendError(w, err, "Cannot get a reply", 0)
	}
}

func (h httpHandler) encodeJSON(w http.ResponseWriter, data interface{}) {
	encoder := json.NewEncoder(w)

	w.Header().Set("Content-Type", "application/json")
	encoder.SetEscapeHTML(false)
	encoder.Encode(data) // nolint: errcheck
}

func (h httpHandler) sendError(w http.ResponseWriter, err error, message string, statusCode int) {
	e := &httpError{
		message:    message,
		statusCode: statusCode,
		err:        err,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(e.StatusCode())
	h.encodeJSON(w, e)
}

// ClientIP returns an address of the client: the first entry of
// X-Forwarded-For or, if there is no such header, a host of remote
// address.
func ClientIP(req *http.Request) string {
	if forwarded := req.Header.Get("X-Forwarded-For"); forwarded != "" {
		return strings.TrimSpace(strings.Split(forwarded, ",")[0])
	}

	host, _, err := net.SplitHostPort(req.RemoteAddr)
	if err != nil {
		return ""
	}

	return host
}

// NewHTTPHandler builds an HTTP API of the relay. protect wraps
// endpoints which talk to upstream, it is a place for authentication.
// It can be nil.
func NewHTTPHandler(relay *Relay, protect func(http.Handler) http.Handler) http.Handler {
	handler := httpHandler{
		relay: relay,
	}
	router := chi.NewRouter()

	router.Use(middleware.StripSlashes)
	router.Use(middleware.Recoverer)

	router.Group(func(r chi.Router) {
		if protect != nil {
			r.Use(protect)
		}

		r.Post("/chat", handler.handleChat)
		r.Post("/generate", handler.handleGenerate)
	})

	router.Get("/debug", handler.handleDebug)
	router.Get("/summary", handler.handleSummary)
	router.Get("/stats", handler.handleStats)

	return router
}
