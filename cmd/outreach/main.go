package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gtm-labs/outreach-pipeline/internal/agent/gemini"
	"github.com/gtm-labs/outreach-pipeline/internal/agent/session"
	"github.com/gtm-labs/outreach-pipeline/internal/config"
	"github.com/gtm-labs/outreach-pipeline/internal/exa"
	"github.com/gtm-labs/outreach-pipeline/internal/outreach"
	"github.com/gtm-labs/outreach-pipeline/internal/util"
	"github.com/gtm-labs/outreach-pipeline/internal/webui"
)

func main() {
	ctx := context.Background()

	if len(os.Args) < 2 {
		usage(os.Stderr)
		os.Exit(2)
	}

	switch os.Args[1] {
	case "help", "-h", "--help":
		usage(os.Stdout)
		return
	case "run":
		os.Exit(runOnce(ctx, os.Args[2:]))
	case "serve":
		os.Exit(runServe(ctx, os.Args[2:]))
	default:
		_, _ = fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", os.Args[1])
		usage(os.Stderr)
		os.Exit(2)
	}
}

func runOnce(ctx context.Context, args []string) int {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	var (
		configPath    string
		target        string
		offering      string
		senderName    string
		senderCompany string
		calendarLink  string
		companies     int
		style         string
	)
	fs.StringVar(&configPath, "config", "", "Optional YAML config file path")
	fs.StringVar(&target, "target", "", "Target companies description (industry, size, region, tech, etc.)")
	fs.StringVar(&offering, "offering", "", "Your product/service offering (1-3 sentences)")
	fs.StringVar(&senderName, "sender-name", "", `Sender name (default "Sales Team")`)
	fs.StringVar(&senderCompany, "sender-company", "", `Sender company (default "Our Company")`)
	fs.StringVar(&calendarLink, "calendar-link", "", "Calendar link to include in emails (optional)")
	fs.IntVar(&companies, "companies", 5, "Number of companies to find (1-10)")
	fs.StringVar(&style, "style", "Professional", "Email style: "+strings.Join(outreach.EmailStyles(), ", "))
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if strings.TrimSpace(target) == "" || strings.TrimSpace(offering) == "" {
		_, _ = fmt.Fprintln(os.Stderr, "run requires --target and --offering")
		return 2
	}

	logger := log.New(os.Stderr, "", log.LstdFlags)
	pipe, store, code := buildPipeline(ctx, configPath, logger)
	if code != 0 {
		return code
	}
	defer func() {
		_ = store.Close()
	}()

	result, err := pipe.Run(ctx, outreach.TargetingRequest{
		TargetDescription:   target,
		OfferingDescription: offering,
		SenderName:          senderName,
		SenderCompany:       senderCompany,
		CalendarLink:        calendarLink,
		MaxCompanies:        companies,
		Style:               style,
	}, func(p outreach.Progress) {
		logger.Printf("progress: %d%% state=%s %s", p.Percent, p.State, p.Detail)
	})
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "run failed: %s\n", util.RedactSecrets(err.Error()))
		return 1
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "encode result: %s\n", err.Error())
		return 1
	}
	return 0
}

func runServe(ctx context.Context, args []string) int {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	var (
		configPath string
		addr       string
	)
	fs.StringVar(&configPath, "config", "", "Optional YAML config file path")
	fs.StringVar(&addr, "addr", ":8080", "Listen address")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	logger := log.New(os.Stdout, "", log.LstdFlags)
	pipe, store, code := buildPipeline(ctx, configPath, logger)
	if code != 0 {
		return code
	}
	defer func() {
		_ = store.Close()
	}()

	srv := webui.New(pipe, logger)
	logger.Printf("listening on %s", addr)
	if err := http.ListenAndServe(addr, srv.Handler()); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "serve failed: %s\n", util.RedactSecrets(err.Error()))
		return 1
	}
	return 0
}

func buildPipeline(ctx context.Context, configPath string, logger *log.Logger) (*outreach.Pipeline, *session.Store, int) {
	cfg, err := config.Load(configPath)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "config error: %s\n", util.RedactSecrets(err.Error()))
		return nil, nil, 2
	}
	if err := cfg.Validate(); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "%s\n", util.RedactSecrets(err.Error()))
		return nil, nil, 2
	}

	if dir := filepath.Dir(cfg.SessionDB); dir != "." && dir != "" && !strings.HasPrefix(cfg.SessionDB, "file:") {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			_, _ = fmt.Fprintf(os.Stderr, "create session db directory: %s\n", err.Error())
			return nil, nil, 2
		}
	}

	store, err := session.Open(ctx, cfg.SessionDB)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "session store error: %s\n", util.RedactSecrets(err.Error()))
		return nil, nil, 2
	}

	searcher, err := exa.New(exa.Config{
		APIKey:  cfg.ExaAPIKey,
		BaseURL: cfg.ExaBaseURL,
	})
	if err != nil {
		_ = store.Close()
		_, _ = fmt.Fprintf(os.Stderr, "exa config error: %s\n", util.RedactSecrets(err.Error()))
		return nil, nil, 2
	}

	gw, err := gemini.New(ctx, gemini.Config{
		APIKey:         cfg.GeminiAPIKey,
		BaseURL:        cfg.GeminiBaseURL,
		RateLimitRPS:   cfg.RateLimitRPS,
		RequestTimeout: cfg.RequestTimeout,
		HistoryWindow:  cfg.HistoryWindow,
	}, searcher, store)
	if err != nil {
		_ = store.Close()
		_, _ = fmt.Fprintf(os.Stderr, "gemini config error: %s\n", util.RedactSecrets(err.Error()))
		return nil, nil, 2
	}

	runner := outreach.NewRunner(gw, outreach.Models{
		CompanyFinder: cfg.CompanyModel,
		ContactFinder: cfg.ContactModel,
		Researcher:    cfg.ResearchModel,
		EmailWriter:   cfg.EmailModel,
	})
	return outreach.NewPipeline(runner, logger), store, 0
}

func usage(w *os.File) {
	_, _ = fmt.Fprintf(w, `outreach: GTM B2B outreach pipeline (companies -> contacts -> research -> emails)

Usage:
  outreach <command> [flags]

Commands:
  run    Run the pipeline once and print the result bundle as JSON
  serve  Serve the form UI and JSON API

Examples:
  outreach run --target "seed-stage fintech startups" --offering "compliance automation SaaS" --companies 3
  outreach serve --addr :8080

Environment:
  GEMINI_API_KEY   Gemini API key (required)
  EXA_API_KEY      Exa web-search API key (required)
  GEMINI_BASE_URL  Optional Gemini base URL override (proxies/testing)
  EXA_BASE_URL     Optional Exa base URL override (proxies/testing)
  COMPANY_MODEL    Model for the company finder stage
  CONTACT_MODEL    Model for the contact finder stage
  RESEARCH_MODEL   Model for the research stage
  EMAIL_MODEL      Model for the email writer stage
  SESSION_DB       SQLite path for per-stage conversation history
  RATE_LIMIT_RPS   Global model-call rate limit, 0 disables
  REQUEST_TIMEOUT  Per-call timeout (e.g. 3m)
  HISTORY_WINDOW   Prior exchanges replayed per call

`)
}
