package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoadClientDefaults(t *testing.T) {
	cfg, err := LoadClient()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.APIBaseURL != "http://localhost:5000/api" {
		t.Errorf("APIBaseURL = %q", cfg.APIBaseURL)
	}
	if cfg.HTTPTimeout != 10*time.Second {
		t.Errorf("HTTPTimeout = %v", cfg.HTTPTimeout)
	}
}

func TestLoadClientRejectsBadTimeout(t *testing.T) {
	t.Setenv("ATTEND_HTTP_TIMEOUT", "-1s")
	_, err := LoadClient()
	if err == nil || !strings.Contains(err.Error(), "ATTEND_HTTP_TIMEOUT") {
		t.Fatalf("expected ATTEND_HTTP_TIMEOUT error, got %v", err)
	}
}

func TestLoadAuthorityRequiresSecret(t *testing.T) {
	t.Setenv("ATTEND_JWT_SECRET", "")
	_, err := LoadAuthority()
	if err == nil || !strings.Contains(err.Error(), "ATTEND_JWT_SECRET") {
		t.Fatalf("expected missing secret error, got %v", err)
	}
}

func TestLoadAuthorityDefaults(t *testing.T) {
	t.Setenv("ATTEND_JWT_SECRET", "s3cret")
	cfg, err := LoadAuthority()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Cooldown != time.Hour {
		t.Errorf("Cooldown = %v", cfg.Cooldown)
	}
	if cfg.MinExpiry != 2 || cfg.MaxExpiry != 60 || cfg.DefaultExpiry != 5 {
		t.Errorf("expiry bounds = %d/%d/%d", cfg.MinExpiry, cfg.DefaultExpiry, cfg.MaxExpiry)
	}
}

func TestLoadAuthorityRejectsInvertedExpiryBounds(t *testing.T) {
	t.Setenv("ATTEND_JWT_SECRET", "s3cret")
	t.Setenv("ATTEND_MIN_EXPIRY_MINUTES", "90")
	_, err := LoadAuthority()
	if err == nil || !strings.Contains(err.Error(), "ATTEND_MAX_EXPIRY_MINUTES") {
		t.Fatalf("expected bounds error, got %v", err)
	}
}

func TestLoadAuthorityRejectsDefaultOutsideBounds(t *testing.T) {
	t.Setenv("ATTEND_JWT_SECRET", "s3cret")
	t.Setenv("ATTEND_DEFAULT_EXPIRY_MINUTES", "120")
	_, err := LoadAuthority()
	if err == nil || !strings.Contains(err.Error(), "ATTEND_DEFAULT_EXPIRY_MINUTES") {
		t.Fatalf("expected default expiry error, got %v", err)
	}
}
