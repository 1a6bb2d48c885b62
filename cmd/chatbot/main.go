// Package main provides the chatbot CLI entry point.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/MadickAngeCesar/chatbot/cli"
	"github.com/MadickAngeCesar/chatbot/config"
)

var (
	// Global flags
	providerFlag string
	modelFlag    string
	sessionFlag  string
	dbPathFlag   string
)

func main() {
	// Load .env file if present (ignore "file not found" errors)
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			fmt.Fprintf(os.Stderr, "Warning: failed to load .env file: %v\n", err)
		}
	}

	rootCmd := &cobra.Command{
		Use:   "chatbot",
		Short: "Chat with a locally hosted language model",
		Long: `A chat client for locally hosted and API language models, with
session-scoped conversation history, substring search, prompt templates,
and export to JSON, text, Markdown, or HTML.`,
	}

	// Global flags
	rootCmd.PersistentFlags().StringVarP(&providerFlag, "provider", "p", "", "completion provider (ollama, openai, anthropic, gemini)")
	rootCmd.PersistentFlags().StringVarP(&modelFlag, "model", "m", "", "model identifier")
	rootCmd.PersistentFlags().StringVarP(&sessionFlag, "session", "s", "", "conversation session")
	rootCmd.PersistentFlags().StringVar(&dbPathFlag, "db", "", "conversation history database path")

	rootCmd.AddCommand(chatCmd())
	rootCmd.AddCommand(askCmd())
	rootCmd.AddCommand(historyCmd())
	rootCmd.AddCommand(searchCmd())
	rootCmd.AddCommand(sessionsCmd())
	rootCmd.AddCommand(clearCmd())
	rootCmd.AddCommand(exportCmd())
	rootCmd.AddCommand(templateCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadSettings loads the user settings once and applies flag overrides.
func loadSettings() (*config.Settings, error) {
	settings, err := config.LoadDefault()
	if err != nil {
		return nil, err
	}
	if providerFlag != "" {
		settings.Provider = providerFlag
	}
	if modelFlag != "" {
		settings.Model = modelFlag
	}
	if sessionFlag != "" {
		settings.Session = sessionFlag
	}
	if dbPathFlag != "" {
		settings.DatabasePath = dbPathFlag
	}
	return settings, nil
}

// withApp builds the App, runs fn, and closes the App afterwards.
func withApp(fn func(ctx context.Context, app *cli.App) error) error {
	settings, err := loadSettings()
	if err != nil {
		return err
	}

	app, err := cli.NewApp(settings)
	if err != nil {
		return err
	}
	defer app.Close()

	return fn(context.Background(), app)
}

func chatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive chat session",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(ctx context.Context, app *cli.App) error {
				return app.Chat(ctx)
			})
		},
	}
}

func askCmd() *cobra.Command {
	var templateName string

	cmd := &cobra.Command{
		Use:   "ask <prompt>",
		Short: "Send one prompt and print the response",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(ctx context.Context, app *cli.App) error {
				return app.Ask(ctx, args[0], templateName)
			})
		},
	}
	cmd.Flags().StringVarP(&templateName, "template", "t", "", "render the prompt through a template")
	return cmd
}

func historyCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent turns in the current session",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(ctx context.Context, app *cli.App) error {
				return app.History(ctx, limit)
			})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 50, "maximum turns to show")
	return cmd
}

func searchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "search <query>",
		Short: "Search the current session's history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(ctx context.Context, app *cli.App) error {
				return app.Search(ctx, args[0])
			})
		},
	}
}

func sessionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sessions",
		Short: "List sessions that have history",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(ctx context.Context, app *cli.App) error {
				return app.Sessions(ctx)
			})
		},
	}
}

func clearCmd() *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Clear conversation history",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(ctx context.Context, app *cli.App) error {
				return app.Clear(ctx, all)
			})
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "clear every session, not just the current one")
	return cmd
}

func exportCmd() *cobra.Command {
	var (
		format string
		out    string
		limit  int
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the current session's history",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(ctx context.Context, app *cli.App) error {
				return app.Export(ctx, format, out, limit)
			})
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "json", "export format (json, text, markdown, html)")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default derived from session)")
	cmd.Flags().IntVarP(&limit, "limit", "n", 50, "maximum turns to export")
	return cmd
}

func templateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "template",
		Short: "Manage prompt templates",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List templates by category",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(ctx context.Context, app *cli.App) error {
				return app.TemplateList()
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "show <name>",
		Short: "Print a template's prompt text",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(ctx context.Context, app *cli.App) error {
				return app.TemplateShow(args[0])
			})
		},
	})

	var (
		description string
		category    string
	)
	addCmd := &cobra.Command{
		Use:   "add <name> <prompt>",
		Short: "Add a template (use {input} as the substitution marker)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(ctx context.Context, app *cli.App) error {
				return app.TemplateAdd(args[0], args[1], description, category)
			})
		},
	}
	addCmd.Flags().StringVarP(&description, "description", "d", "", "template description")
	addCmd.Flags().StringVarP(&category, "category", "c", "", "template category")
	cmd.AddCommand(addCmd)

	cmd.AddCommand(&cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a template",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(ctx context.Context, app *cli.App) error {
				return app.TemplateDelete(args[0])
			})
		},
	})

	return cmd
}
