package llm

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/9seconds/promptrelay/relaylib"
	"google.golang.org/genai"
)

type geminiClient struct {
	client *genai.Client
	model  string
}

func (g geminiClient) Name() string {
	return NameGemini
}

func (g geminiClient) Complete(ctx context.Context, request relaylib.CompletionRequest) (relaylib.Completion, error) {
	result := relaylib.Completion{}

	model := request.Model
	if model == "" {
		model = g.model
	}

	contents, config := makeGeminiRequest(request)

	resp, err := g.client.Models.GenerateContent(ctx, model, contents, config)
	if err != nil {
		return result, fmt.Errorf("cannot generate content: %w", err)
	}

	return makeGeminiCompletion(resp, model)
}

func makeGeminiCompletion(resp *genai.GenerateContentResponse, model string) (relaylib.Completion, error) {
	result := relaylib.Completion{}

	if len(resp.Candidates) == 0 {
		return result, ErrEmptyReply
	}

	if resp.UsageMetadata == nil {
		return result, ErrNoUsage
	}

	result.Reply = resp.Text()
	result.Model = resp.ModelVersion
	result.Usage = relaylib.TokenUsage{
		Total:      int(resp.UsageMetadata.TotalTokenCount),
		Prompt:     int(resp.UsageMetadata.PromptTokenCount),
		Completion: int(resp.UsageMetadata.CandidatesTokenCount),
	}

	if result.Model == "" {
		result.Model = model
	}

	return result, nil
}

// makeGeminiRequest converts messages into Gemini contents. System
// messages go to a system instruction, assistant messages become
// messages of a model.
func makeGeminiRequest(request relaylib.CompletionRequest) ([]*genai.Content, *genai.GenerateContentConfig) {
	config := &genai.GenerateContentConfig{}
	contents := make([]*genai.Content, 0, len(request.Messages))
	systemParts := []string{}

	for _, msg := range request.Messages {
		switch msg.Role {
		case relaylib.RoleSystem:
			systemParts = append(systemParts, msg.Content)
		case relaylib.RoleAssistant:
			contents = append(contents, genai.NewContentFromText(msg.Content, genai.RoleModel))
		default:
			contents = append(contents, genai.NewContentFromText(msg.Content, genai.RoleUser))
		}
	}

	if len(systemParts) > 0 {
		config.SystemInstruction = genai.NewContentFromText(strings.Join(systemParts, "\n"), genai.RoleUser)
	}

	if request.Temperature != nil {
		config.Temperature = genai.Ptr(float32(*request.Temperature))
	}

	if request.TopP != nil {
		config.TopP = genai.Ptr(float32(*request.TopP))
	}

	if request.MaxTokens != nil {
		config.MaxOutputTokens = int32(*request.MaxTokens)
	}

	return contents, config
}

// NewGemini creates a client of Gemini API. httpClient is used for all
// requests of SDK, so timeouts are configured there.
func NewGemini(ctx context.Context, httpClient *http.Client, apiKey, model string) (relaylib.LLMClient, error) {
	if apiKey == "" {
		return nil, ErrAuthTokenIsRequired
	}

	if model == "" {
		model = DefaultGeminiModel
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: httpClient,
	})
	if err != nil {
		return nil, fmt.Errorf("cannot create gemini client: %w", err)
	}

	return geminiClient{
		client: client,
		model:  model,
	}, nil
}
