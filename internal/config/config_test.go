package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gtm-labs/outreach-pipeline/internal/config"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, v := range []string{
		"GEMINI_API_KEY", "EXA_API_KEY", "GEMINI_BASE_URL", "EXA_BASE_URL",
		"COMPANY_MODEL", "CONTACT_MODEL", "RESEARCH_MODEL", "EMAIL_MODEL",
		"SESSION_DB", "RATE_LIMIT_RPS", "REQUEST_TIMEOUT", "HISTORY_WINDOW",
	} {
		t.Setenv(v, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.CompanyModel != "gemini-2.5-flash" || cfg.ResearchModel != "gemini-2.5-pro" {
		t.Fatalf("unexpected default models: %#v", cfg)
	}
	if cfg.HistoryWindow != 6 {
		t.Fatalf("history window = %d, want 6", cfg.HistoryWindow)
	}
	if cfg.RequestTimeout != 3*time.Minute {
		t.Fatalf("request timeout = %s", cfg.RequestTimeout)
	}
}

func TestLoadFileAndEnvPrecedence(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte(`
gemini_api_key: file-gemini
exa_api_key: file-exa
company_model: file-model
request_timeout: 90s
history_window: 2
`)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv("GEMINI_API_KEY", "env-gemini")
	t.Setenv("HISTORY_WINDOW", "4")

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	// Env wins over file, file wins over defaults.
	if cfg.GeminiAPIKey != "env-gemini" {
		t.Fatalf("gemini key = %q", cfg.GeminiAPIKey)
	}
	if cfg.ExaAPIKey != "file-exa" {
		t.Fatalf("exa key = %q", cfg.ExaAPIKey)
	}
	if cfg.CompanyModel != "file-model" {
		t.Fatalf("company model = %q", cfg.CompanyModel)
	}
	if cfg.ContactModel != "gemini-2.5-flash" {
		t.Fatalf("contact model = %q", cfg.ContactModel)
	}
	if cfg.RequestTimeout != 90*time.Second {
		t.Fatalf("request timeout = %s", cfg.RequestTimeout)
	}
	if cfg.HistoryWindow != 4 {
		t.Fatalf("history window = %d", cfg.HistoryWindow)
	}
}

func TestLoadRejectsBadFileDuration(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("request_timeout: soon\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := config.Load(path); err == nil {
		t.Fatal("expected error for invalid request_timeout")
	}
}

func TestLoadRejectsBadEnvValues(t *testing.T) {
	clearEnv(t)
	t.Setenv("RATE_LIMIT_RPS", "not-a-number")

	if _, err := config.Load(""); err == nil {
		t.Fatal("expected error for invalid RATE_LIMIT_RPS")
	}
}

func TestValidateRequiresBothKeys(t *testing.T) {
	tests := []struct {
		name   string
		cfg    config.Config
		wantOK bool
	}{
		{name: "both present", cfg: config.Config{GeminiAPIKey: "g", ExaAPIKey: "e"}, wantOK: true},
		{name: "missing gemini", cfg: config.Config{ExaAPIKey: "e"}},
		{name: "missing exa", cfg: config.Config{GeminiAPIKey: "g"}},
		{name: "both missing", cfg: config.Config{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantOK {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("expected validation error")
			}
			var ce *config.Error
			if !errors.As(err, &ce) {
				t.Fatalf("expected *config.Error, got %T", err)
			}
		})
	}
}
