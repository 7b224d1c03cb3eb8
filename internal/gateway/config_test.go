package gateway

import (
	"testing"
	"time"

	"github.com/MarkoPoloResearchLab/venmo/pkg/venmo"
)

func TestParseAllowedOrigins(t *testing.T) {
	origins := ParseAllowedOrigins(" http://a.com , http://b.com ,")
	if len(origins) != 2 || origins[0] != "http://a.com" || origins[1] != "http://b.com" {
		t.Fatalf("unexpected origins: %#v", origins)
	}
	if empty := ParseAllowedOrigins("   "); len(empty) != 0 {
		t.Fatalf("expected no origins, got %#v", empty)
	}
}

func TestConfigValidateMissingFields(t *testing.T) {
	cfg := Config{}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected validation error")
	}
	cfg = Config{Token: "token"}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected signing key error")
	}
}

func TestConfigValidateDefaults(t *testing.T) {
	cfg := Config{Token: "token", SessionSigningKey: "k"}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.ListenAddr != defaultListenAddr || cfg.UpstreamTimeout != 10*time.Second {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.RESTBaseURL != venmo.DefaultRESTBaseURL || cfg.GraphQLURL != venmo.DefaultGraphQLURL || cfg.UserAgent != venmo.DefaultUserAgent {
		t.Fatalf("unexpected endpoint defaults: %+v", cfg)
	}
	if cfg.SessionIssuer != "tauth" || cfg.SessionCookieName != "app_session" || cfg.JournalBackend != "gorm" {
		t.Fatalf("unexpected session defaults: %+v", cfg)
	}
}

func TestConfigValidateRejectsUnknownBackend(t *testing.T) {
	cfg := Config{Token: "token", SessionSigningKey: "k", JournalBackend: "mongo"}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected backend error")
	}
}
