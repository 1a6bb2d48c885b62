// Package llm provides completion provider abstractions.
//
// Provider interface - the abstract interface for completion providers.
// Each provider implementation hides:
// - API client initialization and authentication
// - Request/response format conversion
// - Provider-specific error handling

package llm

import (
	"context"
	"fmt"
)

// Provider defines the abstract interface for completion providers.
// Implementations hide provider-specific details while exposing a single
// prompt-in/text-out call.
type Provider interface {
	// Name returns the provider name (for logging/debugging).
	Name() string

	// Model returns the current model being used.
	Model() string

	// Generate sends a prompt and returns the generated text.
	// Failures are returned as *ProviderError.
	Generate(ctx context.Context, prompt string) (string, error)
}

// ProviderError wraps a completion provider failure (network, malformed
// response, quota). Callers catch it at the boundary where the call was
// made; it is never persisted as a conversation turn.
type ProviderError struct {
	Provider string
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s: generation failed: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// providerErr wraps err as a ProviderError for the named provider.
func providerErr(provider string, err error) error {
	return &ProviderError{Provider: provider, Err: err}
}
