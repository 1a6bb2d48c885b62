package llm

import (
	"errors"
	"testing"
)

func TestParseProviderType(t *testing.T) {
	cases := []struct {
		input    string
		expected ProviderType
	}{
		{"ollama", ProviderOllama},
		{"local", ProviderOllama},
		{"OLLAMA", ProviderOllama},
		{"openai", ProviderOpenAI},
		{"gpt", ProviderOpenAI},
		{"anthropic", ProviderAnthropic},
		{"claude", ProviderAnthropic},
		{"gemini", ProviderGemini},
		{"google", ProviderGemini},
	}

	for _, tc := range cases {
		got, err := ParseProviderType(tc.input)
		if err != nil {
			t.Errorf("ParseProviderType(%q) returned error: %v", tc.input, err)
			continue
		}
		if got != tc.expected {
			t.Errorf("ParseProviderType(%q) = %v, expected %v", tc.input, got, tc.expected)
		}
	}
}

func TestParseProviderTypeUnknown(t *testing.T) {
	if _, err := ParseProviderType("not_a_provider"); err == nil {
		t.Error("expected error for unknown provider")
	}
}

func TestOllamaFromEnvNeedsNoKey(t *testing.T) {
	provider, err := ProviderOllama.FromEnv()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if provider.Name() != "ollama" {
		t.Errorf("expected provider 'ollama', got %q", provider.Name())
	}
	if provider.Model() != ModelOllamaLlama32 {
		t.Errorf("expected default model %q, got %q", ModelOllamaLlama32, provider.Model())
	}
}

func TestBuilderModelOverride(t *testing.T) {
	provider, err := ProviderOllama.Model(ModelOllamaMistral7B).FromEnv()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if provider.Model() != ModelOllamaMistral7B {
		t.Errorf("expected %q, got %q", ModelOllamaMistral7B, provider.Model())
	}
}

func TestBuilderExplicitKey(t *testing.T) {
	provider, err := ProviderOpenAI.APIKey("test-key")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if provider.Name() != "openai" {
		t.Errorf("expected 'openai', got %q", provider.Name())
	}
}

func TestProviderErrorUnwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := providerErr("ollama", cause)

	var pe *ProviderError
	if !errors.As(err, &pe) {
		t.Fatal("expected error to be a *ProviderError")
	}
	if pe.Provider != "ollama" {
		t.Errorf("expected provider 'ollama', got %q", pe.Provider)
	}
	if !errors.Is(err, cause) {
		t.Error("expected wrapped cause to be reachable via errors.Is")
	}
}

func TestProviderTypeString(t *testing.T) {
	if ProviderOllama.String() != "ollama" {
		t.Errorf("unexpected String: %q", ProviderOllama.String())
	}
	if ProviderType(99).String() != "unknown" {
		t.Errorf("expected 'unknown' for invalid type")
	}
}
