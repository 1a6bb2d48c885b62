// Command execution for CLI commands.
//
// Information Hiding:
// - Store/provider/template wiring hidden behind App
// - Output formatting hidden
// - The store is only ever driven from the command goroutine; completion
//   calls run on worker tasks and report back one result each

package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/MadickAngeCesar/chatbot/config"
	"github.com/MadickAngeCesar/chatbot/export"
	"github.com/MadickAngeCesar/chatbot/internal/textutil"
	"github.com/MadickAngeCesar/chatbot/llm"
	"github.com/MadickAngeCesar/chatbot/storage"
	"github.com/MadickAngeCesar/chatbot/task"
	"github.com/MadickAngeCesar/chatbot/templates"
)

// historyLimit is how many turns the chat REPL replays and the history
// command shows by default.
const historyLimit = 50

// App wires the store, completion client, and template manager for the
// CLI commands.
type App struct {
	Settings  *config.Settings
	Store     storage.ConversationStore
	Client    *llm.Client
	Templates *templates.Manager
}

// NewApp builds an App from settings: opens the conversation store, creates
// the completion provider, and loads templates.
func NewApp(settings *config.Settings) (*App, error) {
	store, err := storage.OpenSqlite(settings.DatabasePath)
	if err != nil {
		return nil, err
	}

	provider, err := createProvider(settings)
	if err != nil {
		store.Close()
		return nil, err
	}

	return &App{
		Settings:  settings,
		Store:     store,
		Client:    llm.NewClient(provider),
		Templates: templates.NewManager(settings.TemplatesPath),
	}, nil
}

// Close releases the App's resources.
func (a *App) Close() error {
	return a.Store.Close()
}

func createProvider(settings *config.Settings) (llm.Provider, error) {
	providerType, err := llm.ParseProviderType(settings.Provider)
	if err != nil {
		return nil, err
	}

	builder := llm.NewProviderBuilder(providerType).
		MaxTokens(settings.MaxTokens).
		Temperature(float32(settings.Temperature))
	if settings.Model != "" {
		builder = builder.Model(settings.Model)
	}
	if settings.OllamaBaseURL != "" {
		builder = builder.BaseURL(settings.OllamaBaseURL)
	}
	return builder.FromEnv()
}

// Ask sends one prompt, prints the response, and records the turn.
// templateName, when non-empty, renders the prompt through that template.
func (a *App) Ask(ctx context.Context, prompt, templateName string) error {
	if templateName != "" {
		rendered, err := a.Templates.Render(templateName, prompt)
		if err != nil {
			return err
		}
		prompt = rendered
	}

	response, err := a.generate(ctx, prompt)
	if err != nil {
		return err
	}

	fmt.Println(response)

	if err := a.Store.Append(ctx, a.Client.Model(), prompt, &response, a.Settings.Session); err != nil {
		return err
	}
	return nil
}

// generate runs the completion call on a worker task and waits for its one
// result. The blocking provider call never runs on the command goroutine.
func (a *App) generate(ctx context.Context, prompt string) (string, error) {
	worker := task.Run(ctx, func(ctx context.Context) (string, error) {
		return a.Client.Generate(ctx, prompt)
	})
	return worker.Wait(ctx)
}

// Chat starts an interactive chat session against the configured session.
func (a *App) Chat(ctx context.Context) error {
	session := a.Settings.Session

	fmt.Printf("Chatting with %s (session %q). Type /help for commands.\n\n", a.Client.Model(), session)

	if err := a.replayHistory(ctx, session); err != nil {
		return err
	}

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "/") {
			quit, err := a.handleDirective(ctx, line, &session)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			}
			if quit {
				return nil
			}
			continue
		}

		response, err := a.generate(ctx, line)
		if err != nil {
			// Provider failures surface inline and are not persisted.
			var pe *llm.ProviderError
			if errors.As(err, &pe) {
				fmt.Fprintf(os.Stderr, "Error: %v\n", pe)
				continue
			}
			return err
		}

		fmt.Printf("\n%s\n\n", response)

		if err := a.Store.Append(ctx, a.Client.Model(), line, &response, session); err != nil {
			fmt.Fprintf(os.Stderr, "Error: failed to save turn: %v\n", err)
		}
	}
	return scanner.Err()
}

// replayHistory prints the session's recent turns oldest first.
func (a *App) replayHistory(ctx context.Context, session string) error {
	turns, err := a.Store.Recent(ctx, session, historyLimit)
	if err != nil {
		return fmt.Errorf("history unavailable: %w", err)
	}
	for _, turn := range export.Chronological(turns) {
		printTurn(turn)
	}
	return nil
}

func (a *App) handleDirective(ctx context.Context, line string, session *string) (quit bool, err error) {
	fields := strings.Fields(line)
	directive := fields[0]
	arg := strings.TrimSpace(strings.TrimPrefix(line, directive))

	switch directive {
	case "/quit", "/exit":
		return true, nil
	case "/help":
		fmt.Println(`Commands:
  /history             show recent turns
  /search <query>      search this session
  /session <name>      switch session
  /sessions            list sessions
  /template <name>     show a template
  /templates           list templates
  /clear               clear this session's history
  /quit                leave the chat`)
		return false, nil
	case "/history":
		return false, a.replayHistory(ctx, *session)
	case "/search":
		turns, err := a.Store.Search(ctx, arg, *session)
		if err != nil {
			return false, err
		}
		if len(turns) == 0 {
			fmt.Println("No matches.")
			return false, nil
		}
		for _, turn := range export.Chronological(turns) {
			printTurn(turn)
		}
		return false, nil
	case "/session":
		if arg == "" {
			fmt.Printf("Current session: %s\n", *session)
			return false, nil
		}
		*session = arg
		fmt.Printf("Switched to session %q.\n", arg)
		return false, a.replayHistory(ctx, arg)
	case "/sessions":
		sessions, err := a.Store.Sessions(ctx)
		if err != nil {
			return false, err
		}
		for _, name := range sessions {
			fmt.Println(name)
		}
		return false, nil
	case "/template":
		prompt := a.Templates.Get(arg)
		if prompt == "" {
			return false, fmt.Errorf("unknown template: %q", arg)
		}
		fmt.Println(prompt)
		return false, nil
	case "/templates":
		for _, name := range a.Templates.Names() {
			fmt.Println(name)
		}
		return false, nil
	case "/clear":
		if err := a.Store.ClearSession(ctx, *session); err != nil {
			return false, err
		}
		fmt.Printf("Cleared session %q.\n", *session)
		return false, nil
	default:
		return false, fmt.Errorf("unknown command: %s", directive)
	}
}

// History prints the most recent turns for the configured session.
func (a *App) History(ctx context.Context, limit int) error {
	turns, err := a.Store.Recent(ctx, a.Settings.Session, limit)
	if err != nil {
		return fmt.Errorf("history unavailable: %w", err)
	}
	if len(turns) == 0 {
		fmt.Println("No history.")
		return nil
	}
	for _, turn := range export.Chronological(turns) {
		printTurn(turn)
	}
	return nil
}

// Search prints the turns in the configured session matching query.
func (a *App) Search(ctx context.Context, query string) error {
	turns, err := a.Store.Search(ctx, query, a.Settings.Session)
	if err != nil {
		return fmt.Errorf("search unavailable: %w", err)
	}
	if len(turns) == 0 {
		fmt.Println("No matches.")
		return nil
	}
	for _, turn := range export.Chronological(turns) {
		printTurn(turn)
	}
	return nil
}

// Sessions lists the sessions that currently have history.
func (a *App) Sessions(ctx context.Context) error {
	sessions, err := a.Store.Sessions(ctx)
	if err != nil {
		return err
	}
	if len(sessions) == 0 {
		fmt.Println("No sessions.")
		return nil
	}
	for _, name := range sessions {
		fmt.Println(name)
	}
	return nil
}

// Clear removes history. With all set it truncates every session;
// otherwise only the configured session is cleared.
func (a *App) Clear(ctx context.Context, all bool) error {
	if all {
		if err := a.Store.Clear(ctx); err != nil {
			return err
		}
		fmt.Println("Cleared all history.")
		return nil
	}
	if err := a.Store.ClearSession(ctx, a.Settings.Session); err != nil {
		return err
	}
	fmt.Printf("Cleared session %q.\n", a.Settings.Session)
	return nil
}

// Export writes the configured session's history to outPath in the given
// format. An empty outPath derives a file name from the session label.
func (a *App) Export(ctx context.Context, formatName, outPath string, limit int) error {
	format, err := export.ParseFormat(formatName)
	if err != nil {
		return err
	}

	turns, err := a.Store.Recent(ctx, a.Settings.Session, limit)
	if err != nil {
		return fmt.Errorf("history unavailable: %w", err)
	}

	output, err := export.Render(format, export.Chronological(turns), export.DefaultOptions())
	if err != nil {
		return err
	}

	if outPath == "" {
		outPath = textutil.CleanFilename(a.Settings.Session+"_history") + format.Extension()
	}
	if dir := filepath.Dir(outPath); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create export directory: %w", err)
		}
	}
	if err := os.WriteFile(outPath, []byte(output), 0644); err != nil {
		return fmt.Errorf("failed to write export: %w", err)
	}

	fmt.Printf("Exported %d turns to %s (%s)\n", len(turns), outPath, textutil.FormatBytes(int64(len(output))))
	return nil
}

func printTurn(turn storage.Turn) {
	fmt.Printf("You: %s\n", turn.UserMessage)
	if turn.AIResponse != nil {
		fmt.Printf("AI:  %s\n", textutil.Truncate(*turn.AIResponse, 2000))
	} else {
		fmt.Println("AI:  (no response)")
	}
}
