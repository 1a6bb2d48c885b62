// Ollama Provider implementation using go-openai library.
//
// Information Hiding:
// - Uses Ollama's OpenAI-compatible API on a local endpoint
// - No API key required for a local daemon
// - Model pulling and daemon lifecycle are outside this package

package llm

import (
	"context"

	openai "github.com/sashabaranov/go-openai"
)

const defaultOllamaBaseURL = "http://localhost:11434/v1"

// OllamaProvider implements the Provider interface for a locally hosted
// Ollama daemon.
type OllamaProvider struct {
	client      *openai.Client
	model       string
	maxTokens   int
	temperature float32
}

// NewOllamaProvider creates a new Ollama provider. baseURL may be empty to
// use the default local endpoint.
func NewOllamaProvider(baseURL, model string, maxTokens uint32, temperature float32) *OllamaProvider {
	if baseURL == "" {
		baseURL = defaultOllamaBaseURL
	}

	// Ollama ignores the API key but go-openai requires a non-empty one.
	config := openai.DefaultConfig("ollama")
	config.BaseURL = baseURL

	return &OllamaProvider{
		client:      openai.NewClientWithConfig(config),
		model:       model,
		maxTokens:   int(maxTokens),
		temperature: temperature,
	}
}

// Name returns the provider name.
func (p *OllamaProvider) Name() string {
	return "ollama"
}

// Model returns the current model.
func (p *OllamaProvider) Model() string {
	return p.model
}

// Generate sends a prompt and returns the generated text.
func (p *OllamaProvider) Generate(ctx context.Context, prompt string) (string, error) {
	req := openai.ChatCompletionRequest{
		Model: p.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		MaxCompletionTokens: p.maxTokens,
		Temperature:         p.temperature,
	}

	resp, err := p.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", providerErr(p.Name(), err)
	}

	content := ""
	if len(resp.Choices) > 0 {
		content = resp.Choices[0].Message.Content
	}
	return content, nil
}

// Verify OllamaProvider implements Provider
var _ Provider = (*OllamaProvider)(nil)
