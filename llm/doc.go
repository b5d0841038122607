// Package llm contains upstream clients of large language models.
//
// Each client implements relaylib.LLMClient and converts
// relaylib.CompletionRequest into a call to its provider: OpenAI chat
// completions API over plain HTTP or Gemini through google genai SDK.
// Both return relaylib.Completion with a reply, a model which has
// actually served the request and token usage.
package llm
