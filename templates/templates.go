// Package templates provides prompt template storage.
//
// Information Hiding:
// - JSON file layout and default seeding encapsulated
// - Templates are plain key-value blobs with no validation
// - Placeholder substitution hidden behind Render

package templates

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"
)

// Template is one stored prompt template. The prompt text may contain a
// literal {input} marker replaced at render time.
type Template struct {
	Prompt      string `json:"prompt"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Created     string `json:"created"`
}

// Manager owns a named set of prompt templates persisted to a JSON file.
type Manager struct {
	path      string
	templates map[string]Template
}

// NewManager loads templates from path, seeding built-in defaults when the
// file does not exist or cannot be parsed.
func NewManager(path string) *Manager {
	m := &Manager{path: path}
	m.templates = m.load()
	return m
}

func (m *Manager) load() map[string]Template {
	data, err := os.ReadFile(m.path)
	if err == nil {
		var templates map[string]Template
		if err := json.Unmarshal(data, &templates); err == nil {
			return templates
		}
	}
	return defaultTemplates()
}

// save writes the current template set to disk.
func (m *Manager) save() error {
	data, err := json.MarshalIndent(m.templates, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal templates: %w", err)
	}
	if err := os.WriteFile(m.path, data, 0644); err != nil {
		return fmt.Errorf("failed to write templates file: %w", err)
	}
	return nil
}

// Get returns the prompt text for a template, or "" when absent.
func (m *Manager) Get(name string) string {
	return m.templates[name].Prompt
}

// Add stores a new template and persists the set.
func (m *Manager) Add(name, prompt, description, category string) error {
	if category == "" {
		category = "custom"
	}
	m.templates[name] = Template{
		Prompt:      prompt,
		Description: description,
		Category:    category,
		Created:     time.Now().Format(time.RFC3339),
	}
	return m.save()
}

// Delete removes a template by name. Deleting an unknown name is a no-op.
func (m *Manager) Delete(name string) error {
	if _, ok := m.templates[name]; !ok {
		return nil
	}
	delete(m.templates, name)
	return m.save()
}

// All returns a copy of every stored template keyed by name.
func (m *Manager) All() map[string]Template {
	result := make(map[string]Template, len(m.templates))
	for name, template := range m.templates {
		result[name] = template
	}
	return result
}

// Names returns the template names in sorted order.
func (m *Manager) Names() []string {
	names := make([]string, 0, len(m.templates))
	for name := range m.templates {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Categories returns the unique categories across all templates, sorted.
func (m *Manager) Categories() []string {
	seen := make(map[string]bool)
	for _, template := range m.templates {
		category := template.Category
		if category == "" {
			category = "custom"
		}
		seen[category] = true
	}

	categories := make([]string, 0, len(seen))
	for category := range seen {
		categories = append(categories, category)
	}
	sort.Strings(categories)
	return categories
}

// ByCategory returns the templates in one category, keyed by name.
func (m *Manager) ByCategory(category string) map[string]Template {
	result := make(map[string]Template)
	for name, template := range m.templates {
		c := template.Category
		if c == "" {
			c = "custom"
		}
		if c == category {
			result[name] = template
		}
	}
	return result
}

// Render substitutes input for every literal {input} marker in the named
// template's prompt. Returns an error for an unknown template.
func (m *Manager) Render(name, input string) (string, error) {
	template, ok := m.templates[name]
	if !ok {
		return "", fmt.Errorf("unknown template: %q", name)
	}
	return strings.ReplaceAll(template.Prompt, "{input}", input), nil
}

// defaultTemplates returns the built-in template set seeded on first run.
func defaultTemplates() map[string]Template {
	now := time.Now().Format(time.RFC3339)
	return map[string]Template{
		"Code Explanation": {
			Prompt:      "Explain this code in detail:\n```\n{input}\n```",
			Description: "Get a detailed explanation of code",
			Category:    "development",
			Created:     now,
		},
		"Summarize": {
			Prompt:      "Please summarize the following text:\n\n{input}",
			Description: "Create a concise summary of text",
			Category:    "writing",
			Created:     now,
		},
		"Translate": {
			Prompt:      "Translate the following text to {language}:\n\n{input}",
			Description: "Translate text to another language",
			Category:    "language",
			Created:     now,
		},
		"Pros and Cons": {
			Prompt:      "List the pros and cons of {input}",
			Description: "Analyze advantages and disadvantages",
			Category:    "analysis",
			Created:     now,
		},
		"Writing Assistant": {
			Prompt:      "Help me write {input}",
			Description: "Get assistance with writing",
			Category:    "writing",
			Created:     now,
		},
		"Data Analysis": {
			Prompt:      "Analyze this dataset and provide insights:\n\n{input}",
			Description: "Get insights from data",
			Category:    "analysis",
			Created:     now,
		},
	}
}
