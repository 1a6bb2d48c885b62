// Package config provides application settings.
//
// Settings are loaded ONCE at startup from a JSON file in the user settings
// directory, with environment variable overrides applied on top. Nothing
// re-reads the file implicitly; callers that want fresh values call
// Reload explicitly.

package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// Settings holds all application configuration.
type Settings struct {
	// Provider selects the completion provider (ollama, openai, anthropic, gemini).
	Provider string `json:"provider"`
	// Model is the completion model identifier. Empty means the provider default.
	Model string `json:"model"`
	// OllamaBaseURL overrides the local Ollama endpoint. Empty means the default.
	OllamaBaseURL string `json:"ollama_base_url"`
	// MaxTokens caps completion length.
	MaxTokens uint32 `json:"max_tokens"`
	// Temperature controls sampling (0.0 = deterministic).
	Temperature float64 `json:"temperature"`
	// DatabasePath is the conversation history SQLite file.
	DatabasePath string `json:"database_path"`
	// TemplatesPath is the prompt templates JSON file.
	TemplatesPath string `json:"templates_path"`
	// Session is the conversation session to use when none is named.
	Session string `json:"session"`

	path string // settings file this was loaded from
}

// defaults returns the built-in settings, rooted in dir.
func defaults(dir string) Settings {
	return Settings{
		Provider:      "ollama",
		Model:         "",
		MaxTokens:     4096,
		Temperature:   0.7,
		DatabasePath:  filepath.Join(dir, "chat_history.db"),
		TemplatesPath: filepath.Join(dir, "templates.json"),
		Session:       "Default",
	}
}

// UserDir returns the per-user settings directory, creating it if needed.
func UserDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory: %w", err)
	}
	dir := filepath.Join(home, ".madick_ai")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create settings directory: %w", err)
	}
	return dir, nil
}

// Load reads settings from the JSON file at path. A missing file yields
// defaults; a present but unreadable file is an error. Environment
// overrides are applied after the file.
func Load(path string) (*Settings, error) {
	settings := defaults(filepath.Dir(path))
	settings.path = path

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read settings file: %w", err)
		}
	} else {
		if err := json.Unmarshal(data, &settings); err != nil {
			return nil, fmt.Errorf("failed to parse settings file: %w", err)
		}
	}

	if err := settings.applyEnv(); err != nil {
		return nil, err
	}
	return &settings, nil
}

// LoadDefault loads settings from the user settings directory.
func LoadDefault() (*Settings, error) {
	dir, err := UserDir()
	if err != nil {
		return nil, err
	}
	return Load(filepath.Join(dir, "settings.json"))
}

// Reload re-reads the settings file this Settings was loaded from and
// replaces the receiver's values. The explicit alternative to ad hoc
// re-reads scattered through callers.
func (s *Settings) Reload() error {
	fresh, err := Load(s.path)
	if err != nil {
		return err
	}
	*s = *fresh
	return nil
}

// Save writes the current settings to the file they were loaded from.
func (s *Settings) Save() error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0644); err != nil {
		return fmt.Errorf("failed to write settings file: %w", err)
	}
	return nil
}

// Path returns the settings file path backing this Settings.
func (s *Settings) Path() string {
	return s.path
}

// applyEnv overlays CHATBOT_* environment variables.
func (s *Settings) applyEnv() error {
	if val := os.Getenv("CHATBOT_PROVIDER"); val != "" {
		s.Provider = val
	}
	if val := os.Getenv("CHATBOT_MODEL"); val != "" {
		s.Model = val
	}
	if val := os.Getenv("OLLAMA_BASE_URL"); val != "" {
		s.OllamaBaseURL = val
	}
	if val := os.Getenv("CHATBOT_DB_PATH"); val != "" {
		s.DatabasePath = val
	}
	if val := os.Getenv("CHATBOT_SESSION"); val != "" {
		s.Session = val
	}

	maxTokens, err := getEnvUint32("CHATBOT_MAX_TOKENS", s.MaxTokens)
	if err != nil {
		return err
	}
	s.MaxTokens = maxTokens

	temperature, err := getEnvFloat64("CHATBOT_TEMPERATURE", s.Temperature)
	if err != nil {
		return err
	}
	s.Temperature = temperature

	return nil
}

// Environment variable helpers with proper error handling

func getEnvUint32(key string, defaultVal uint32) (uint32, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	i, err := strconv.ParseUint(val, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid value for %s: %q: %w", key, val, err)
	}
	return uint32(i), nil
}

func getEnvFloat64(key string, defaultVal float64) (float64, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	f, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid value for %s: %q: %w", key, val, err)
	}
	return f, nil
}
