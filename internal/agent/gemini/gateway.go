// Package gemini implements the agent gateway on the Gemini API, with web
// search exposed to the model as a function tool and per-session history
// replayed from the session store.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/time/rate"
	"google.golang.org/genai"

	"github.com/gtm-labs/outreach-pipeline/internal/agent"
	"github.com/gtm-labs/outreach-pipeline/internal/agent/session"
	"github.com/gtm-labs/outreach-pipeline/internal/exa"
)

// Searcher runs one web search on behalf of the model.
type Searcher interface {
	Search(ctx context.Context, query string, numResults int) ([]exa.Result, error)
}

type Config struct {
	APIKey string

	// BaseURL overrides the Gemini API base URL. Useful for proxies/testing.
	BaseURL string

	// RateLimitRPS is a global request rate limit shared by all sessions.
	// Set to <=0 to disable.
	RateLimitRPS float64

	// RequestTimeout bounds a single model call, tool round-trips included.
	RequestTimeout time.Duration

	// HistoryWindow is the number of prior exchanges replayed per call.
	HistoryWindow int

	// MaxToolRounds caps search-tool round-trips within one call.
	MaxToolRounds int
}

func (c Config) withDefaults() Config {
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = 3 * time.Minute
	}
	if c.HistoryWindow <= 0 {
		c.HistoryWindow = 6
	}
	if c.MaxToolRounds <= 0 {
		c.MaxToolRounds = 8
	}
	return c
}

// Gateway is the Gemini-backed agent gateway. Calls are synchronous; the
// caller blocks until the model replies or errors.
type Gateway struct {
	client   *genai.Client
	searcher Searcher
	store    *session.Store
	limiter  *rate.Limiter
	timeout  time.Duration
	window   int
	rounds   int
}

func New(ctx context.Context, cfg Config, searcher Searcher, store *session.Store) (*Gateway, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}
	if store == nil {
		return nil, fmt.Errorf("session store is required")
	}
	cfg = cfg.withDefaults()

	cc := &genai.ClientConfig{
		APIKey:  strings.TrimSpace(cfg.APIKey),
		Backend: genai.BackendGeminiAPI,
	}
	if strings.TrimSpace(cfg.BaseURL) != "" {
		cc.HTTPOptions.BaseURL = strings.TrimSpace(cfg.BaseURL)
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, err
	}

	var limiter *rate.Limiter
	if cfg.RateLimitRPS > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimitRPS), 1)
	}

	return &Gateway{
		client:   client,
		searcher: searcher,
		store:    store,
		limiter:  limiter,
		timeout:  cfg.RequestTimeout,
		window:   cfg.HistoryWindow,
		rounds:   cfg.MaxToolRounds,
	}, nil
}

var searchTool = &genai.Tool{
	FunctionDeclarations: []*genai.FunctionDeclaration{{
		Name:        "web_search",
		Description: "Search the web and return result titles, URLs and short text excerpts.",
		Parameters: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"query":       {Type: genai.TypeString, Description: "Search query"},
				"num_results": {Type: genai.TypeInteger, Description: "Number of results (1-10)"},
			},
			Required: []string{"query"},
		},
	}},
}

// Submit sends the prompt to the model within the request's session and
// returns the final text reply. The user prompt and the reply are appended to
// the session history on success.
func (g *Gateway) Submit(ctx context.Context, req agent.Request) (string, error) {
	if strings.TrimSpace(req.Session) == "" {
		return "", fmt.Errorf("session id is required")
	}
	if strings.TrimSpace(req.Model) == "" {
		return "", fmt.Errorf("model name is required")
	}
	if req.Tools.WebSearch && g.searcher == nil {
		return "", fmt.Errorf("web search requested but no searcher configured")
	}

	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	// One history exchange is a user/model message pair.
	history, err := g.store.Recent(ctx, req.Session, g.window*2)
	if err != nil {
		return "", err
	}

	contents := make([]*genai.Content, 0, len(history)+1)
	for _, m := range history {
		role := genai.Role(genai.RoleUser)
		if m.Role == session.RoleModel {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(m.Text, role))
	}
	contents = append(contents, genai.NewContentFromText(req.Prompt, genai.RoleUser))

	cfg := &genai.GenerateContentConfig{
		CandidateCount: 1,
	}
	if len(req.Instructions) > 0 {
		cfg.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{genai.NewPartFromText(strings.Join(req.Instructions, "\n"))},
		}
	}
	if req.Tools.WebSearch {
		cfg.Tools = []*genai.Tool{searchTool}
	}

	for round := 0; round <= g.rounds; round++ {
		if g.limiter != nil {
			if err := g.limiter.Wait(ctx); err != nil {
				return "", err
			}
		}

		resp, err := g.client.Models.GenerateContent(ctx, req.Model, contents, cfg)
		if err != nil {
			return "", &agent.GatewayError{Err: err}
		}

		calls := resp.FunctionCalls()
		if len(calls) == 0 {
			text := resp.Text()
			if err := g.store.Append(ctx, req.Session,
				session.Message{Role: session.RoleUser, Text: req.Prompt},
				session.Message{Role: session.RoleModel, Text: text},
			); err != nil {
				return "", err
			}
			return text, nil
		}

		if len(resp.Candidates) > 0 && resp.Candidates[0].Content != nil {
			contents = append(contents, resp.Candidates[0].Content)
		}
		parts := make([]*genai.Part, 0, len(calls))
		for _, call := range calls {
			parts = append(parts, genai.NewPartFromFunctionResponse(call.Name, g.runTool(ctx, call)))
		}
		contents = append(contents, genai.NewContentFromParts(parts, genai.RoleUser))
	}

	return "", &agent.GatewayError{Err: fmt.Errorf("model did not produce a final reply within %d tool rounds", g.rounds)}
}

func (g *Gateway) runTool(ctx context.Context, call *genai.FunctionCall) map[string]any {
	if call.Name != "web_search" {
		return map[string]any{"error": fmt.Sprintf("unknown tool %q", call.Name)}
	}

	query, _ := call.Args["query"].(string)
	n := 5
	if raw, ok := call.Args["num_results"].(float64); ok && raw > 0 {
		n = int(raw)
	}

	results, err := g.searcher.Search(ctx, query, n)
	if err != nil {
		// Tool failures go back to the model as data; only transport errors
		// from the model call itself abort the run.
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return map[string]any{"error": "search timed out"}
		}
		return map[string]any{"error": err.Error()}
	}

	items := make([]map[string]any, 0, len(results))
	for _, r := range results {
		items = append(items, map[string]any{
			"title": r.Title,
			"url":   r.URL,
			"text":  r.Text,
		})
	}
	return map[string]any{"results": items}
}
