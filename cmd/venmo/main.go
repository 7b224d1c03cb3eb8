package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/MarkoPoloResearchLab/venmo/internal/journal"
	"github.com/MarkoPoloResearchLab/venmo/internal/store"
	"github.com/MarkoPoloResearchLab/venmo/pkg/venmo"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const (
	flagToken           = "token"
	flagUserAgent       = "user-agent"
	flagRandomUserAgent = "random-user-agent"
	flagRESTBaseURL     = "rest-base-url"
	flagGraphQLURL      = "graphql-url"
	flagDatabaseURL     = "database-url"
	flagJournalBackend  = "journal-backend"
	flagTimeout         = "timeout"
	envPrefix           = "VENMO"
	defaultTimeout      = 15 * time.Second
)

type runtimeConfig struct {
	Token          string
	UserAgent      string
	RESTBaseURL    string
	GraphQLURL     string
	DatabaseURL    string
	JournalBackend string
	Timeout        time.Duration
}

// session is the wiring shared by every subcommand invocation.
type session struct {
	client  *venmo.Client
	journal journal.Store
	logger  *zap.Logger
	cleanup func()
}

func main() {
	rootCmd := newRootCommand()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "venmo: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	cfg := &runtimeConfig{}
	cmd := &cobra.Command{
		Use:           "venmo",
		Short:         "Command-line client for the Venmo private API",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return loadConfig(cmd, cfg)
		},
	}

	flags := cmd.PersistentFlags()
	flags.String(flagToken, "", "Venmo access token (required)")
	flags.String(flagUserAgent, venmo.DefaultUserAgent, "User-Agent header sent with every request")
	flags.Bool(flagRandomUserAgent, false, "pick a random browser User-Agent for this run")
	flags.String(flagRESTBaseURL, venmo.DefaultRESTBaseURL, "REST API base URL")
	flags.String(flagGraphQLURL, venmo.DefaultGraphQLURL, "GraphQL endpoint URL")
	flags.String(flagDatabaseURL, "", "journal database url (postgres:// or sqlite path); empty disables the journal")
	flags.String(flagJournalBackend, store.BackendGorm, "journal backend: gorm or pgx")
	flags.Duration(flagTimeout, defaultTimeout, "per-command timeout")

	cmd.AddCommand(
		newBalanceCommand(cfg),
		newTransactionsCommand(cfg),
		newWalletCommand(cfg),
		newUserCommand(cfg),
		newTransferCommand(cfg, transferPay),
		newTransferCommand(cfg, transferRequest),
		newJournalCommand(cfg),
	)
	return cmd
}

func loadConfig(cmd *cobra.Command, cfg *runtimeConfig) error {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	for _, flagName := range []string{flagToken, flagUserAgent, flagRandomUserAgent, flagRESTBaseURL, flagGraphQLURL, flagDatabaseURL, flagJournalBackend, flagTimeout} {
		if err := v.BindPFlag(flagName, cmd.Flags().Lookup(flagName)); err != nil {
			return err
		}
	}

	cfg.Token = strings.TrimSpace(v.GetString(flagToken))
	cfg.UserAgent = strings.TrimSpace(v.GetString(flagUserAgent))
	if v.GetBool(flagRandomUserAgent) {
		cfg.UserAgent = venmo.RandomUserAgent()
	}
	cfg.RESTBaseURL = strings.TrimSpace(v.GetString(flagRESTBaseURL))
	cfg.GraphQLURL = strings.TrimSpace(v.GetString(flagGraphQLURL))
	cfg.DatabaseURL = strings.TrimSpace(v.GetString(flagDatabaseURL))
	cfg.JournalBackend = strings.TrimSpace(v.GetString(flagJournalBackend))
	cfg.Timeout = v.GetDuration(flagTimeout)
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	return nil
}

func openSession(ctx context.Context, cfg *runtimeConfig, requireClient bool) (*session, error) {
	logger, err := zap.NewProduction()
	if err != nil {
		return nil, fmt.Errorf("logger init: %w", err)
	}
	opened := &session{logger: logger, cleanup: func() { _ = logger.Sync() }}

	operationLoggers := journal.Fanout{journal.NewZapLogger(logger)}
	if cfg.DatabaseURL != "" {
		journalStore, closeStore, err := store.OpenJournal(ctx, cfg.DatabaseURL, cfg.JournalBackend)
		if err != nil {
			opened.cleanup()
			return nil, fmt.Errorf("journal open: %w", err)
		}
		previous := opened.cleanup
		opened.cleanup = func() {
			_ = closeStore()
			previous()
		}
		opened.journal = journalStore
		operationLoggers = append(operationLoggers, journal.NewRecorder(journalStore, logger, nil))
	}
	if !requireClient {
		return opened, nil
	}
	if cfg.Token == "" {
		opened.cleanup()
		return nil, fmt.Errorf("%s is required", flagToken)
	}

	client, err := venmo.NewClient(cfg.Token,
		venmo.WithUserAgent(cfg.UserAgent),
		venmo.WithRESTBaseURL(cfg.RESTBaseURL),
		venmo.WithGraphQLURL(cfg.GraphQLURL),
		venmo.WithHTTPClient(&http.Client{Timeout: cfg.Timeout}),
		venmo.WithOperationLogger(operationLoggers),
	)
	if err != nil {
		opened.cleanup()
		return nil, err
	}
	opened.client = client
	return opened, nil
}

// runWithSession bounds the command by the configured timeout and interrupt signals.
func runWithSession(cmd *cobra.Command, cfg *runtimeConfig, requireClient bool, run func(ctx context.Context, opened *session, out io.Writer) error) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	opened, err := openSession(ctx, cfg, requireClient)
	if err != nil {
		return err
	}
	defer opened.cleanup()
	return run(ctx, opened, cmd.OutOrStdout())
}

func writeJSON(out io.Writer, value any) error {
	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(value)
}
