package agent

import (
	"context"
	"fmt"
)

// Fixed conversation sessions, one per pipeline stage. Each session keeps an
// independent history so stage context never bleeds into another stage.
const (
	SessionCompanyFinder = "gtm_outreach_company_finder"
	SessionContactFinder = "gtm_outreach_contact_finder"
	SessionResearcher    = "gtm_outreach_researcher"
	SessionEmailWriter   = "gtm_outreach_email_writer"
)

// ToolSet declares the tool capabilities available to the model for one call.
type ToolSet struct {
	WebSearch bool
}

// Request is a single prompt submission to a named conversational agent.
type Request struct {
	// Session identifies the conversation; history is persisted and replayed
	// per session.
	Session string

	// Model is the model name to invoke for this call.
	Model string

	Tools ToolSet

	// Instructions are the system instruction lines for this agent role.
	Instructions []string

	// Prompt is the user prompt text.
	Prompt string
}

// Gateway submits a prompt to a tool-equipped, session-persisted
// conversational agent and returns the model's free-form text reply.
type Gateway interface {
	Submit(ctx context.Context, req Request) (string, error)
}

// GatewayFunc adapts a function to the Gateway interface. Useful for stubbing
// the model service in tests.
type GatewayFunc func(ctx context.Context, req Request) (string, error)

func (f GatewayFunc) Submit(ctx context.Context, req Request) (string, error) {
	return f(ctx, req)
}

// GatewayError wraps a transport, auth or rate-limit failure from the backing
// model service. Fatal to the current run; callers must not retry.
type GatewayError struct {
	Err error
}

func (e *GatewayError) Error() string {
	if e == nil || e.Err == nil {
		return "agent gateway error"
	}
	return fmt.Sprintf("agent gateway: %s", e.Err.Error())
}

func (e *GatewayError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}
