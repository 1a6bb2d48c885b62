package export

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/MadickAngeCesar/chatbot/storage"
)

func sampleTurns() []storage.Turn {
	reply := "hello!"
	return []storage.Turn{
		{
			ID:          1,
			Timestamp:   "2026-08-30T10:00:00Z",
			Model:       "llama3.2:1b",
			UserMessage: "hi",
			AIResponse:  &reply,
			Session:     "Default",
		},
		{
			ID:          2,
			Timestamp:   "2026-08-30T10:01:00Z",
			Model:       "llama3.2:1b",
			UserMessage: "failed one <script>",
			AIResponse:  nil,
			Session:     "Default",
		},
	}
}

func TestParseFormat(t *testing.T) {
	cases := map[string]Format{
		"json":     FormatJSON,
		"TEXT":     FormatText,
		"txt":      FormatText,
		"md":       FormatMarkdown,
		"markdown": FormatMarkdown,
		"html":     FormatHTML,
	}
	for input, expected := range cases {
		got, err := ParseFormat(input)
		if err != nil {
			t.Errorf("ParseFormat(%q) returned error: %v", input, err)
			continue
		}
		if got != expected {
			t.Errorf("ParseFormat(%q) = %q, expected %q", input, got, expected)
		}
	}

	if _, err := ParseFormat("pdf"); err == nil {
		t.Error("expected error for unsupported format")
	}
}

func TestRenderJSONRoundTrips(t *testing.T) {
	output, err := Render(FormatJSON, sampleTurns(), DefaultOptions())
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}

	var decoded []storage.Turn
	if err := json.Unmarshal([]byte(output), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if len(decoded) != 2 {
		t.Fatalf("expected 2 turns, got %d", len(decoded))
	}
	if decoded[1].AIResponse != nil {
		t.Error("expected null ai_response to survive the round trip")
	}
}

func TestRenderText(t *testing.T) {
	output, err := Render(FormatText, sampleTurns(), DefaultOptions())
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if !strings.Contains(output, "You: hi") {
		t.Errorf("expected user message in text output:\n%s", output)
	}
	if !strings.Contains(output, "AI: hello!") {
		t.Errorf("expected AI response in text output:\n%s", output)
	}
	if !strings.Contains(output, "(no response)") {
		t.Errorf("expected placeholder for missing response:\n%s", output)
	}
}

func TestRenderMarkdown(t *testing.T) {
	output, err := Render(FormatMarkdown, sampleTurns(), DefaultOptions())
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if !strings.HasPrefix(output, "# Conversation Export") {
		t.Errorf("expected markdown heading:\n%s", output)
	}
	if !strings.Contains(output, "**You:** hi") {
		t.Errorf("expected markdown user message:\n%s", output)
	}
}

func TestRenderHTMLEscapesContent(t *testing.T) {
	output, err := Render(FormatHTML, sampleTurns(), DefaultOptions())
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if strings.Contains(output, "<script>") {
		t.Error("expected user content to be HTML-escaped")
	}
	if !strings.Contains(output, "&lt;script&gt;") {
		t.Error("expected escaped form of user content")
	}
	if !strings.Contains(output, "<style>") {
		t.Error("expected CSS when IncludeCSS is set")
	}
}

func TestRenderHTMLOptions(t *testing.T) {
	opts := Options{Title: "My Chat", IncludeCSS: false, IncludeTimestamps: false}
	output, err := Render(FormatHTML, sampleTurns(), opts)
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if strings.Contains(output, "<style>") {
		t.Error("expected no CSS when IncludeCSS is false")
	}
	if strings.Contains(output, "2026-08-30T10:00:00Z") {
		t.Error("expected no timestamps when IncludeTimestamps is false")
	}
	if !strings.Contains(output, "My Chat") {
		t.Error("expected custom title")
	}
}

func TestChronological(t *testing.T) {
	turns := sampleTurns() // oldest first here
	reversed := Chronological(turns)

	if reversed[0].ID != 2 || reversed[1].ID != 1 {
		t.Errorf("expected order reversed, got ids %d, %d", reversed[0].ID, reversed[1].ID)
	}
	// Input is untouched.
	if turns[0].ID != 1 {
		t.Error("expected input slice to be unmodified")
	}
}

func TestFormatExtension(t *testing.T) {
	if FormatJSON.Extension() != ".json" || FormatHTML.Extension() != ".html" {
		t.Error("unexpected extensions")
	}
}
