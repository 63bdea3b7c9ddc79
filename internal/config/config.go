// Package config assembles runtime configuration for the outreach pipeline:
// defaults, then an optional YAML file, then environment variables. The core
// never reads the environment itself; it receives an explicit Config.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Error is a pre-flight configuration failure. It blocks a run from starting
// rather than surfacing mid-pipeline.
type Error struct {
	Msg string
}

func (e *Error) Error() string {
	return "config error: " + e.Msg
}

// Config is the full runtime configuration.
type Config struct {
	// GeminiAPIKey authenticates model calls. Required.
	GeminiAPIKey string
	// ExaAPIKey authenticates the web-search tool. Required.
	ExaAPIKey string

	// Base URL overrides, for proxies/testing.
	GeminiBaseURL string
	ExaBaseURL    string

	// Per-stage model names.
	CompanyModel  string
	ContactModel  string
	ResearchModel string
	EmailModel    string

	// SessionDB is the sqlite DSN/path for per-stage conversation history.
	SessionDB string

	// RateLimitRPS is a global model-call rate limit. <=0 disables.
	RateLimitRPS float64
	// RequestTimeout bounds one model call including tool round-trips.
	RequestTimeout time.Duration
	// HistoryWindow is the number of prior exchanges replayed per call.
	HistoryWindow int
}

// Default returns the built-in configuration. The finder stages use the fast
// model; research and email writing use the stronger one.
func Default() Config {
	return Config{
		CompanyModel:   "gemini-2.5-flash",
		ContactModel:   "gemini-2.5-flash",
		ResearchModel:  "gemini-2.5-pro",
		EmailModel:     "gemini-2.5-pro",
		SessionDB:      "tmp/gtm_outreach.db",
		RequestTimeout: 3 * time.Minute,
		HistoryWindow:  6,
	}
}

// fileConfig is the YAML shape. Durations are strings ("90s", "3m").
type fileConfig struct {
	GeminiAPIKey   string  `yaml:"gemini_api_key"`
	ExaAPIKey      string  `yaml:"exa_api_key"`
	GeminiBaseURL  string  `yaml:"gemini_base_url"`
	ExaBaseURL     string  `yaml:"exa_base_url"`
	CompanyModel   string  `yaml:"company_model"`
	ContactModel   string  `yaml:"contact_model"`
	ResearchModel  string  `yaml:"research_model"`
	EmailModel     string  `yaml:"email_model"`
	SessionDB      string  `yaml:"session_db"`
	RateLimitRPS   float64 `yaml:"rate_limit_rps"`
	RequestTimeout string  `yaml:"request_timeout"`
	HistoryWindow  int     `yaml:"history_window"`
}

// Load builds the configuration: defaults, overridden by the YAML file at
// path (if non-empty), overridden by environment variables.
func Load(path string) (Config, error) {
	cfg := Default()

	if strings.TrimSpace(path) != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		var fc fileConfig
		if err := yaml.Unmarshal(b, &fc); err != nil {
			return Config{}, fmt.Errorf("parse config file YAML: %w", err)
		}
		cfg, err = mergeFile(cfg, fc)
		if err != nil {
			return Config{}, err
		}
	}

	return overlayEnv(cfg)
}

func mergeFile(cfg Config, fc fileConfig) (Config, error) {
	setStr := func(dst *string, v string) {
		if strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	setStr(&cfg.GeminiAPIKey, fc.GeminiAPIKey)
	setStr(&cfg.ExaAPIKey, fc.ExaAPIKey)
	setStr(&cfg.GeminiBaseURL, fc.GeminiBaseURL)
	setStr(&cfg.ExaBaseURL, fc.ExaBaseURL)
	setStr(&cfg.CompanyModel, fc.CompanyModel)
	setStr(&cfg.ContactModel, fc.ContactModel)
	setStr(&cfg.ResearchModel, fc.ResearchModel)
	setStr(&cfg.EmailModel, fc.EmailModel)
	setStr(&cfg.SessionDB, fc.SessionDB)
	if fc.RateLimitRPS > 0 {
		cfg.RateLimitRPS = fc.RateLimitRPS
	}
	if strings.TrimSpace(fc.RequestTimeout) != "" {
		d, err := time.ParseDuration(strings.TrimSpace(fc.RequestTimeout))
		if err != nil {
			return Config{}, fmt.Errorf("invalid request_timeout=%q: %w", fc.RequestTimeout, err)
		}
		cfg.RequestTimeout = d
	}
	if fc.HistoryWindow > 0 {
		cfg.HistoryWindow = fc.HistoryWindow
	}
	return cfg, nil
}

func overlayEnv(cfg Config) (Config, error) {
	cfg.GeminiAPIKey = envStr("GEMINI_API_KEY", cfg.GeminiAPIKey)
	cfg.ExaAPIKey = envStr("EXA_API_KEY", cfg.ExaAPIKey)
	cfg.GeminiBaseURL = envStr("GEMINI_BASE_URL", cfg.GeminiBaseURL)
	cfg.ExaBaseURL = envStr("EXA_BASE_URL", cfg.ExaBaseURL)
	cfg.CompanyModel = envStr("COMPANY_MODEL", cfg.CompanyModel)
	cfg.ContactModel = envStr("CONTACT_MODEL", cfg.ContactModel)
	cfg.ResearchModel = envStr("RESEARCH_MODEL", cfg.ResearchModel)
	cfg.EmailModel = envStr("EMAIL_MODEL", cfg.EmailModel)
	cfg.SessionDB = envStr("SESSION_DB", cfg.SessionDB)

	var err error
	cfg.RateLimitRPS, err = envFloat("RATE_LIMIT_RPS", cfg.RateLimitRPS)
	if err != nil {
		return Config{}, err
	}
	cfg.RequestTimeout, err = envDuration("REQUEST_TIMEOUT", cfg.RequestTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.HistoryWindow, err = envInt("HISTORY_WINDOW", cfg.HistoryWindow)
	if err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks that both external credentials are present. Missing keys
// block a run from starting; the pipeline never degrades silently.
func (c Config) Validate() error {
	if strings.TrimSpace(c.GeminiAPIKey) == "" {
		return &Error{Msg: "GEMINI_API_KEY is required"}
	}
	if strings.TrimSpace(c.ExaAPIKey) == "" {
		return &Error{Msg: "EXA_API_KEY is required"}
	}
	return nil
}

func envStr(varName, fallback string) string {
	v := strings.TrimSpace(os.Getenv(varName))
	if v == "" {
		return fallback
	}
	return v
}

func envInt(varName string, fallback int) (int, error) {
	v := strings.TrimSpace(os.Getenv(varName))
	if v == "" {
		return fallback, nil
	}
	out, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s=%q: %w", varName, v, err)
	}
	return out, nil
}

func envFloat(varName string, fallback float64) (float64, error) {
	v := strings.TrimSpace(os.Getenv(varName))
	if v == "" {
		return fallback, nil
	}
	out, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s=%q: %w", varName, v, err)
	}
	return out, nil
}

func envDuration(varName string, fallback time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(varName))
	if v == "" {
		return fallback, nil
	}
	out, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s=%q: %w", varName, v, err)
	}
	return out, nil
}
