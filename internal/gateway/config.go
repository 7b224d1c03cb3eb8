package gateway

import (
	"fmt"
	"strings"
	"time"

	"github.com/MarkoPoloResearchLab/venmo/internal/store"
	"github.com/MarkoPoloResearchLab/venmo/pkg/venmo"
)

const (
	defaultListenAddr      = ":9090"
	defaultAllowedOrigin   = "http://localhost:8000"
	defaultSessionIssuer   = "tauth"
	defaultSessionCookie   = "app_session"
	defaultUpstreamTimeout = 10 * time.Second
)

// Config aggregates runtime settings for the gateway.
type Config struct {
	ListenAddr        string
	Token             string
	UserAgent         string
	RESTBaseURL       string
	GraphQLURL        string
	UpstreamTimeout   time.Duration
	AllowedOrigins    []string
	SessionSigningKey string
	SessionIssuer     string
	SessionCookieName string
	DatabaseURL       string
	JournalBackend    string
}

// Validate applies defaults and ensures the configuration contains sane values.
func (cfg *Config) Validate() error {
	cfg.ListenAddr = defaultIfEmpty(cfg.ListenAddr, defaultListenAddr)
	cfg.UserAgent = defaultIfEmpty(cfg.UserAgent, venmo.DefaultUserAgent)
	cfg.RESTBaseURL = defaultIfEmpty(cfg.RESTBaseURL, venmo.DefaultRESTBaseURL)
	cfg.GraphQLURL = defaultIfEmpty(cfg.GraphQLURL, venmo.DefaultGraphQLURL)
	cfg.JournalBackend = defaultIfEmpty(cfg.JournalBackend, store.BackendGorm)
	if cfg.UpstreamTimeout <= 0 {
		cfg.UpstreamTimeout = defaultUpstreamTimeout
	}
	if len(cfg.AllowedOrigins) == 0 {
		cfg.AllowedOrigins = []string{defaultAllowedOrigin}
	}
	cfg.SessionIssuer = defaultIfEmpty(cfg.SessionIssuer, defaultSessionIssuer)
	cfg.SessionCookieName = defaultIfEmpty(cfg.SessionCookieName, defaultSessionCookie)
	if strings.TrimSpace(cfg.Token) == "" {
		return fmt.Errorf("access token is required")
	}
	if len(cfg.SessionSigningKey) == 0 {
		return fmt.Errorf("jwt signing key is required")
	}
	switch cfg.JournalBackend {
	case store.BackendGorm, store.BackendPgx:
	default:
		return fmt.Errorf("unsupported journal backend %q", cfg.JournalBackend)
	}
	return nil
}

func defaultIfEmpty(value string, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}

// ParseAllowedOrigins splits comma-delimited origins into a slice.
func ParseAllowedOrigins(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return []string{}
	}
	parts := strings.Split(raw, ",")
	normalized := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			normalized = append(normalized, trimmed)
		}
	}
	return normalized
}
