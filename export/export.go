// Package export renders conversation turns into portable formats.
//
// Pure formatting: the only store interaction is the Recent/Search call the
// caller already made to obtain the turns.

package export

import (
	"encoding/json"
	"fmt"
	"html"
	"strings"

	"github.com/MadickAngeCesar/chatbot/storage"
)

// Format identifies an export rendering.
type Format string

const (
	FormatJSON     Format = "json"
	FormatText     Format = "text"
	FormatMarkdown Format = "markdown"
	FormatHTML     Format = "html"
)

// ParseFormat parses a format name (case-insensitive).
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "json":
		return FormatJSON, nil
	case "text", "txt":
		return FormatText, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	case "html":
		return FormatHTML, nil
	default:
		return "", fmt.Errorf("unknown export format: %q", s)
	}
}

// Extension returns the conventional file extension for the format.
func (f Format) Extension() string {
	switch f {
	case FormatJSON:
		return ".json"
	case FormatText:
		return ".txt"
	case FormatMarkdown:
		return ".md"
	case FormatHTML:
		return ".html"
	default:
		return ""
	}
}

// Options control the HTML rendering; the other formats ignore them.
type Options struct {
	Title             string
	IncludeCSS        bool
	IncludeTimestamps bool
}

// DefaultOptions returns the options the export dialog defaults to.
func DefaultOptions() Options {
	return Options{
		Title:             "Conversation Export",
		IncludeCSS:        true,
		IncludeTimestamps: true,
	}
}

// Render formats the given turns, in the order given, into the requested
// format.
func Render(format Format, turns []storage.Turn, opts Options) (string, error) {
	switch format {
	case FormatJSON:
		return renderJSON(turns)
	case FormatText:
		return renderText(turns), nil
	case FormatMarkdown:
		return renderMarkdown(turns), nil
	case FormatHTML:
		return renderHTML(turns, opts), nil
	default:
		return "", fmt.Errorf("unknown export format: %q", format)
	}
}

// Chronological returns a copy of turns in oldest-first order, for display
// or export of a store result that arrived newest-first.
func Chronological(turns []storage.Turn) []storage.Turn {
	result := make([]storage.Turn, len(turns))
	for i, turn := range turns {
		result[len(turns)-1-i] = turn
	}
	return result
}

func renderJSON(turns []storage.Turn) (string, error) {
	data, err := json.MarshalIndent(turns, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal turns: %w", err)
	}
	return string(data), nil
}

func renderText(turns []storage.Turn) string {
	var b strings.Builder
	for _, turn := range turns {
		fmt.Fprintf(&b, "[%s] (%s)\n", turn.Timestamp, turn.Model)
		fmt.Fprintf(&b, "You: %s\n", turn.UserMessage)
		if turn.AIResponse != nil {
			fmt.Fprintf(&b, "AI: %s\n", *turn.AIResponse)
		} else {
			b.WriteString("AI: (no response)\n")
		}
		b.WriteString("\n")
	}
	return b.String()
}

func renderMarkdown(turns []storage.Turn) string {
	var b strings.Builder
	b.WriteString("# Conversation Export\n\n")
	for _, turn := range turns {
		fmt.Fprintf(&b, "## %s — %s\n\n", turn.Timestamp, turn.Model)
		fmt.Fprintf(&b, "**You:** %s\n\n", turn.UserMessage)
		if turn.AIResponse != nil {
			fmt.Fprintf(&b, "**AI:** %s\n\n", *turn.AIResponse)
		} else {
			b.WriteString("**AI:** _(no response)_\n\n")
		}
	}
	return b.String()
}

const htmlCSS = `<style>
body { font-family: sans-serif; background: #1e1e1e; color: #ffffff; margin: 2em; }
.turn { border: 1px solid #3f3f3f; border-radius: 5px; padding: 1em; margin-bottom: 1em; }
.meta { color: #999999; font-size: 0.8em; }
.user { color: #4CAF50; }
.ai { color: #2196F3; }
</style>`

func renderHTML(turns []storage.Turn, opts Options) string {
	title := opts.Title
	if title == "" {
		title = "Conversation Export"
	}

	var b strings.Builder
	b.WriteString("<!DOCTYPE html>\n<html>\n<head>\n")
	fmt.Fprintf(&b, "<title>%s</title>\n", html.EscapeString(title))
	if opts.IncludeCSS {
		b.WriteString(htmlCSS)
		b.WriteString("\n")
	}
	b.WriteString("</head>\n<body>\n")
	fmt.Fprintf(&b, "<h1>%s</h1>\n", html.EscapeString(title))

	for _, turn := range turns {
		b.WriteString(`<div class="turn">` + "\n")
		if opts.IncludeTimestamps {
			fmt.Fprintf(&b, `<div class="meta">%s — %s</div>`+"\n",
				html.EscapeString(turn.Timestamp), html.EscapeString(turn.Model))
		}
		fmt.Fprintf(&b, `<p class="user"><strong>You:</strong> %s</p>`+"\n",
			html.EscapeString(turn.UserMessage))
		if turn.AIResponse != nil {
			fmt.Fprintf(&b, `<p class="ai"><strong>AI:</strong> %s</p>`+"\n",
				html.EscapeString(*turn.AIResponse))
		} else {
			b.WriteString(`<p class="ai"><strong>AI:</strong> <em>(no response)</em></p>` + "\n")
		}
		b.WriteString("</div>\n")
	}

	b.WriteString("</body>\n</html>\n")
	return b.String()
}
