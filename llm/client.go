// Client - Simple wrapper around providers.

package llm

import (
	"context"
)

// Client wraps a Provider with a simple interface.
type Client struct {
	provider Provider
}

// NewClient creates a new completion client from a provider.
func NewClient(provider Provider) *Client {
	return &Client{provider: provider}
}

// Generate sends a prompt and returns the generated text.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	return c.provider.Generate(ctx, prompt)
}

// Model returns the model the underlying provider uses.
func (c *Client) Model() string {
	return c.provider.Model()
}

// Provider returns the underlying provider.
func (c *Client) Provider() Provider {
	return c.provider
}
