package relaylib

import (
	"encoding/json"
	"fmt"
)

// GeoInfo is a resolved location of the client. It is immutable once
// cached.
type GeoInfo struct {
	Country   string `json:"client_country"`
	City      string `json:"client_city"`
	LocalTime string `json:"client_local_time"`
	Flag      string `json:"client_flag"`
}

// GeoLookupResult is what provider has managed to find out about IP
// address. Empty Timezone and City are allowed, empty Country is not.
type GeoLookupResult struct {
	Country     string
	City        string
	CountryCode string
	Timezone    string
}

// UsageRecord is a single completed upstream call.
type UsageRecord struct {
	GeoInfo

	ID                string `json:"id"`
	Endpoint          string `json:"endpoint"`
	Timestamp         string `json:"timestamp"`
	ClientIP          string `json:"client_ip"`
	RequestCount      uint64 `json:"request_count"`
	Prompt            string `json:"prompt"`
	PromptLengthChars int    `json:"prompt_length_chars"`
	PromptLengthWords int    `json:"prompt_length_words"`
	TokenUsage        int    `json:"token_usage"`
	PromptTokens      int    `json:"prompt_tokens"`
	CompletionTokens  int    `json:"completion_tokens"`
	ResponseTimeMS    int64  `json:"response_time_ms"`
	Model             string `json:"model"`
	ResponsePreview   string `json:"response_preview"`
}

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// CompletionRequest is a parameter object for upstream call. It is
// either built from a plain prompt or parsed from a validated JSON
// document, see ParseCompletionRequest.
type CompletionRequest struct {
	Model       string    `json:"model,omitempty"`
	Messages    []Message `json:"messages"`
	Temperature *float64  `json:"temperature,omitempty"`
	TopP        *float64  `json:"top_p,omitempty"`
	MaxTokens   *int      `json:"max_tokens,omitempty"`
	RequestID   string    `json:"-"`
}

type TokenUsage struct {
	Total      int
	Prompt     int
	Completion int
}

// Completion is an answer of upstream.
type Completion struct {
	Reply string
	Model string
	Usage TokenUsage
}

// Valid checks that completion has token counts which can be stored.
func (c Completion) Valid() bool {
	return c.Usage.Total >= 0 && c.Usage.Prompt >= 0 && c.Usage.Completion >= 0
}

// ChatResult is returned to the caller of Relay on success.
type ChatResult struct {
	Reply  string      `json:"reply"`
	Record UsageRecord `json:"-"`
}

// KeyCount is a single entry of top-N list. It is serialized as a
// 2-elements array: ["key", count].
type KeyCount struct {
	Key   string
	Count int
}

func (k KeyCount) MarshalJSON() ([]byte, error) {
	return json.Marshal([]interface{}{k.Key, k.Count})
}

func (k *KeyCount) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage

	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("cannot unmarshal key count: %w", err)
	}

	if len(raw) != 2 {
		return fmt.Errorf("incorrect key count: %s", string(data))
	}

	if err := json.Unmarshal(raw[0], &k.Key); err != nil {
		return fmt.Errorf("cannot unmarshal key: %w", err)
	}

	if err := json.Unmarshal(raw[1], &k.Count); err != nil {
		return fmt.Errorf("cannot unmarshal count: %w", err)
	}

	return nil
}

// Summary is a set of aggregates computed from a snapshot of the usage
// log.
type Summary struct {
	TotalRequests         int        `json:"total_requests"`
	TotalTokens           int        `json:"total_tokens_used"`
	TotalPromptTokens     int        `json:"total_prompt_tokens"`
	TotalCompletionTokens int        `json:"total_completion_tokens"`
	AverageTokens         float64    `json:"average_tokens_per_request"`
	AverageResponseTimeMS float64    `json:"average_response_time_ms"`
	TopIPs                []KeyCount `json:"top_ips"`
	TopCountries          []KeyCount `json:"top_countries"`
	TopModels             []KeyCount `json:"top_models"`
	LastUpdated           string     `json:"last_updated"`
}
