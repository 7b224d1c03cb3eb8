package main

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/MarkoPoloResearchLab/venmo/internal/gateway"
	"github.com/MarkoPoloResearchLab/venmo/internal/store"
	"github.com/MarkoPoloResearchLab/venmo/pkg/venmo"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	flagListenAddr      = "listen-addr"
	flagToken           = "token"
	flagUserAgent       = "user-agent"
	flagRandomUserAgent = "random-user-agent"
	flagRESTBaseURL     = "rest-base-url"
	flagGraphQLURL      = "graphql-url"
	flagUpstreamTimeout = "upstream-timeout"
	flagAllowedOrigins  = "allowed-origins"
	flagJWTSigningKey   = "jwt-signing-key"
	flagJWTIssuer       = "jwt-issuer"
	flagJWTCookieName   = "jwt-cookie-name"
	flagDatabaseURL     = "database-url"
	flagJournalBackend  = "journal-backend"
	envPrefix           = "VENMOGW"
)

func main() {
	rootCmd := newRootCommand()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "venmo-gateway: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	cfg := gateway.Config{}
	cmd := &cobra.Command{
		Use:           "venmo-gateway",
		Short:         "Session-protected HTTP façade over one Venmo account",
		SilenceUsage:  true,
		SilenceErrors: true,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return loadConfig(cmd, &cfg)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return gateway.Run(ctx, cfg)
		},
	}

	cmd.Flags().String(flagListenAddr, "", "HTTP listen address (default :9090)")
	cmd.Flags().String(flagToken, "", "Venmo access token (required)")
	cmd.Flags().String(flagUserAgent, "", "User-Agent header sent upstream")
	cmd.Flags().Bool(flagRandomUserAgent, false, "pick a random browser User-Agent at startup")
	cmd.Flags().String(flagRESTBaseURL, "", "REST API base URL")
	cmd.Flags().String(flagGraphQLURL, "", "GraphQL endpoint URL")
	cmd.Flags().Duration(flagUpstreamTimeout, 0, "upstream request timeout (e.g. 10s)")
	cmd.Flags().String(flagAllowedOrigins, "", "comma-separated list of allowed CORS origins")
	cmd.Flags().String(flagJWTSigningKey, "", "TAuth JWT signing key (required)")
	cmd.Flags().String(flagJWTIssuer, "", "expected JWT issuer")
	cmd.Flags().String(flagJWTCookieName, "", "JWT cookie name")
	cmd.Flags().String(flagDatabaseURL, "", "journal database url; empty disables the journal")
	cmd.Flags().String(flagJournalBackend, store.BackendGorm, "journal backend: gorm or pgx")

	return cmd
}

func loadConfig(cmd *cobra.Command, cfg *gateway.Config) error {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	for _, flagName := range []string{flagListenAddr, flagToken, flagUserAgent, flagRandomUserAgent, flagRESTBaseURL, flagGraphQLURL, flagUpstreamTimeout, flagAllowedOrigins, flagJWTSigningKey, flagJWTIssuer, flagJWTCookieName, flagDatabaseURL, flagJournalBackend} {
		if err := v.BindPFlag(flagName, cmd.Flags().Lookup(flagName)); err != nil {
			return err
		}
	}

	if !v.IsSet(flagToken) {
		return fmt.Errorf("%s is required", flagToken)
	}
	if !v.IsSet(flagJWTSigningKey) {
		return fmt.Errorf("%s is required", flagJWTSigningKey)
	}

	cfg.ListenAddr = strings.TrimSpace(v.GetString(flagListenAddr))
	cfg.Token = strings.TrimSpace(v.GetString(flagToken))
	cfg.UserAgent = strings.TrimSpace(v.GetString(flagUserAgent))
	if v.GetBool(flagRandomUserAgent) {
		cfg.UserAgent = venmo.RandomUserAgent()
	}
	cfg.RESTBaseURL = strings.TrimSpace(v.GetString(flagRESTBaseURL))
	cfg.GraphQLURL = strings.TrimSpace(v.GetString(flagGraphQLURL))
	cfg.UpstreamTimeout = v.GetDuration(flagUpstreamTimeout)
	cfg.AllowedOrigins = gateway.ParseAllowedOrigins(v.GetString(flagAllowedOrigins))
	cfg.SessionSigningKey = v.GetString(flagJWTSigningKey)
	cfg.SessionIssuer = strings.TrimSpace(v.GetString(flagJWTIssuer))
	cfg.SessionCookieName = strings.TrimSpace(v.GetString(flagJWTCookieName))
	cfg.DatabaseURL = strings.TrimSpace(v.GetString(flagDatabaseURL))
	cfg.JournalBackend = strings.TrimSpace(v.GetString(flagJournalBackend))

	return cfg.Validate()
}
