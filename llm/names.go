package llm

const (
	// Identifier for OpenAI compatible chat completions API.
	NameOpenAI = "openai"

	// Identifier for Google Gemini API.
	NameGemini = "gemini"
)

const (
	DefaultOpenAIModel = "gpt-4"
	DefaultGeminiModel = "gemini-2.0-flash"
)
