package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/9seconds/promptrelay/relaylib"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

const openaiResponseLimit = 16 * 1024 * 1024

type openaiClient struct {
	client  relaylib.HTTPClient
	baseURL string
	apiKey  string
	model   string
}

func (o openaiClient) Name() string {
	return NameOpenAI
}

func (o openaiClient) Complete(ctx context.Context, request relaylib.CompletionRequest) (relaylib.Completion, error) {
	result := relaylib.Completion{}

	body, err := o.makeBody(request)
	if err != nil {
		return result, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		o.baseURL+"/v1/chat/completions", bytes.NewReader(body))
	if err != nil {
		return result, fmt.Errorf("cannot build a request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+o.apiKey)

	if request.RequestID != "" {
		req.Header.Set("X-Request-ID", request.RequestID)
	}

	resp, err := o.client.Do(req)
	if err != nil {
		return result, o.wrapError(err)
	}

	defer func() {
		io.Copy(io.Discard, resp.Body) // nolint: errcheck
		resp.Body.Close()
	}()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, openaiResponseLimit))
	if err != nil {
		return result, fmt.Errorf("cannot read a response: %w", err)
	}

	return o.parseResponse(respBody, request)
}

// makeBody serializes request and fills the fields which are not
// controlled by the caller.
func (o openaiClient) makeBody(request relaylib.CompletionRequest) ([]byte, error) {
	body, err := json.Marshal(request)
	if err != nil {
		return nil, fmt.Errorf("cannot serialize a request: %w", err)
	}

	if request.Model == "" {
		if body, err = sjson.SetBytes(body, "model", o.model); err != nil {
			return nil, fmt.Errorf("cannot set a model: %w", err)
		}
	}

	if body, err = sjson.SetBytes(body, "stream", false); err != nil {
		return nil, fmt.Errorf("cannot disable streaming: %w", err)
	}

	return body, nil
}

func (o openaiClient) parseResponse(body []byte, request relaylib.CompletionRequest) (relaylib.Completion, error) {
	result := relaylib.Completion{}

	if !gjson.ValidBytes(body) {
		return result, errors.New("cannot parse a response: invalid json")
	}

	parsed := gjson.ParseBytes(body)
	content := parsed.Get("choices.0.message.content")

	if !content.Exists() {
		return result, ErrEmptyReply
	}

	if !parsed.Get("usage").Exists() {
		return result, ErrNoUsage
	}

	result.Reply = content.String()
	result.Model = parsed.Get("model").String()
	result.Usage = relaylib.TokenUsage{
		Total:      int(parsed.Get("usage.total_tokens").Int()),
		Prompt:     int(parsed.Get("usage.prompt_tokens").Int()),
		Completion: int(parsed.Get("usage.completion_tokens").Int()),
	}

	if result.Model == "" {
		result.Model = request.Model
	}

	if result.Model == "" {
		result.Model = o.model
	}

	return result, nil
}

// wrapError attaches an upstream error message if remote side has
// explained what is wrong.
func (o openaiClient) wrapError(err error) error {
	statusErr := &relaylib.HTTPStatusError{}

	if errors.As(err, &statusErr) {
		if msg := gjson.GetBytes(statusErr.Body, "error.message").String(); msg != "" {
			return fmt.Errorf("cannot send a request: %w (%s)", err, msg)
		}
	}

	return fmt.Errorf("cannot send a request: %w", err)
}

// NewOpenAI creates a client of OpenAI chat completions API. Any
// compatible API can be used with a custom baseURL. If model is empty,
// DefaultOpenAIModel is used for requests which do not specify one.
func NewOpenAI(client relaylib.HTTPClient, baseURL, apiKey, model string) (relaylib.LLMClient, error) {
	if apiKey == "" {
		return nil, ErrAuthTokenIsRequired
	}

	if baseURL == "" {
		baseURL = "https://api.openai.com"
	}

	if model == "" {
		model = DefaultOpenAIModel
	}

	return openaiClient{
		client:  client,
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		model:   model,
	}, nil
}
