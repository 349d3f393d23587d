package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/mentapp/mentapp-go/internal/client"
	appconfig "github.com/mentapp/mentapp-go/internal/config"
	"github.com/mentapp/mentapp-go/internal/pkg/logger"
	"github.com/mentapp/mentapp-go/internal/pkg/metrics"
	"github.com/mentapp/mentapp-go/internal/session"
)

// contextKey is a custom type for context keys to avoid collisions
type contextKey string

const cliContextKey contextKey = "cliContext"

// CliContext holds shared CLI context
type CliContext struct {
	Config  *Config
	Context *Context
	Client  *client.Client
	Logger  *slog.Logger
}

// Global logging flags
var (
	logLevel      string
	logFile       string
	alsoLogStderr bool
	logFormat     string
)

// NewRootCommand creates the root cobra command
func NewRootCommand() *cobra.Command {
	var ctx CliContext

	rootCmd := &cobra.Command{
		Use:           "ment",
		Short:         "CLI for the MentApp bilingual message board",
		Long:          `A command line interface for browsing, posting, translating, and moderating ments via the MentApp REST API.`,
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors (main.go handles it)
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := setupLogging(); err != nil {
				return fmt.Errorf("failed to setup logging: %w", err)
			}

			ctx.Logger = slog.Default().With("component", "cli")
			ctx.Logger.Debug("CLI started", "command", cmd.Name())

			// Config commands only touch ~/.mentapp, no client needed.
			if commandInGroup(cmd, "config") {
				cmd.SetContext(context.WithValue(cmd.Context(), cliContextKey, &ctx))
				return nil
			}

			config, err := LoadConfig()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			current, err := config.GetCurrentContext()
			if err != nil {
				return err
			}
			ctx.Config = config
			ctx.Context = current

			apiClient, err := newAPIClient(current)
			if err != nil {
				return err
			}
			ctx.Client = apiClient

			// Every CLI run starts with an empty access token cell, so
			// commands that need auth recover a session from the durable
			// refresh token up front. Anonymous and auth-entry commands
			// skip this.
			anonymousList := cmd.Name() == "list" && cmd.Parent() != nil && cmd.Parent().Name() == "ment"
			if !commandInGroup(cmd, "auth") && !anonymousList {
				ok, err := apiClient.InitFromRefresh(cmd.Context())
				if err != nil {
					return err
				}
				if !ok {
					return fmt.Errorf("not logged in: please run 'ment auth login' first")
				}
			}

			cmd.SetContext(context.WithValue(cmd.Context(), cliContextKey, &ctx))
			return nil
		},
	}

	// Add subcommands
	rootCmd.AddCommand(newAuthCommand())
	rootCmd.AddCommand(newConfigCommand())
	rootCmd.AddCommand(newMentCommand())
	rootCmd.AddCommand(newAdminCommand())
	rootCmd.AddCommand(newBookmarkCommand())
	rootCmd.AddCommand(newProfileCommand())

	// Add logging flags
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn",
		"Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "",
		"Log file path (if specified, logs to file instead of stderr)")
	rootCmd.PersistentFlags().BoolVar(&alsoLogStderr, "alsologtostderr", false,
		"Log to both file and stderr")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text",
		"Log format (text, json)")

	return rootCmd
}

// newAPIClient builds the authenticated API client for the given context,
// backed by the per-context credentials file. A context without a base URL
// falls back to the application config (config.yaml, .env, MENTAPP_* env
// vars), which is how CI and containerized runs are configured.
func newAPIClient(current *Context) (*client.Client, error) {
	baseURL := current.API.BaseURL
	timeout := current.API.Timeout
	if baseURL == "" {
		appCfg, err := appconfig.Load("")
		if err != nil {
			return nil, err
		}
		baseURL = appCfg.API.BaseURL
		timeout = appCfg.API.Timeout
		if current.Google.ClientID == "" {
			current.Google.ClientID = appCfg.Google.ClientID
			current.Google.RedirectURI = appCfg.Google.RedirectURI
		}
	}

	storage, err := NewFileStorage()
	if err != nil {
		return nil, err
	}
	store := session.NewStore(storage)

	apiClient, err := client.New(client.Config{
		BaseURL:   baseURL,
		Timeout:   timeout,
		Transport: metrics.NewTransport(nil),
		OnSessionExpired: func() {
			fmt.Println("Your session has expired. Please run 'ment auth login' again.")
		},
	}, store)
	if err != nil {
		return nil, fmt.Errorf("failed to create API client: %w", err)
	}
	return apiClient, nil
}

// commandInGroup reports whether cmd is the named command or one of its
// direct children.
func commandInGroup(cmd *cobra.Command, name string) bool {
	if cmd.Name() == name {
		return true
	}
	parent := cmd.Parent()
	return parent != nil && parent.Name() == name
}

// cliContextFrom extracts the shared CLI context set up by the root command.
func cliContextFrom(cmd *cobra.Command) (*CliContext, error) {
	ctx, ok := cmd.Context().Value(cliContextKey).(*CliContext)
	if !ok || ctx == nil {
		return nil, fmt.Errorf("CLI context not initialised")
	}
	return ctx, nil
}

// setupLogging installs the process-wide default logger from the flags.
func setupLogging() error {
	log, err := logger.Setup(logger.Config{
		Level:      logger.ParseLevel(logLevel),
		LogFile:    logFile,
		AlsoStderr: alsoLogStderr,
		Format:     logFormat,
	})
	if err != nil {
		return err
	}
	slog.SetDefault(log)
	return nil
}
