package outreach

import (
	"context"
	"encoding/json"

	"github.com/gtm-labs/outreach-pipeline/internal/agent"
)

// Models selects the model invoked by each stage.
type Models struct {
	CompanyFinder string
	ContactFinder string
	Researcher    string
	EmailWriter   string
}

// Runner executes the individual pipeline stages against an agent gateway.
// Each stage builds a prompt from its template plus JSON-serialized upstream
// data, submits it within the stage's session, extracts a JSON object from
// the reply, and reads one fixed top-level key.
type Runner struct {
	gw     agent.Gateway
	models Models
}

func NewRunner(gw agent.Gateway, models Models) *Runner {
	return &Runner{gw: gw, models: models}
}

// FindCompanies asks for maxCompanies target companies. Whatever the model
// returns, the result window is clamped to max(1, min(maxCompanies, 10));
// the request itself is not validated.
func (r *Runner) FindCompanies(ctx context.Context, req TargetingRequest) ([]Company, error) {
	reply, err := r.gw.Submit(ctx, agent.Request{
		Session:      agent.SessionCompanyFinder,
		Model:        r.models.CompanyFinder,
		Tools:        agent.ToolSet{WebSearch: true},
		Instructions: companyFinderInstructions,
		Prompt:       companyFinderPrompt(req.MaxCompanies, req.TargetDescription, req.OfferingDescription),
	})
	if err != nil {
		return nil, err
	}
	parsed, err := ExtractJSON(reply)
	if err != nil {
		return nil, err
	}

	companies := collectionKey[Company](parsed, "companies")
	limit := req.MaxCompanies
	if limit > 10 {
		limit = 10
	}
	if limit < 1 {
		limit = 1
	}
	if len(companies) > limit {
		companies = companies[:limit]
	}
	return companies, nil
}

// FindContacts asks for 2-3 decision makers per company. Counts are a
// model-side instruction only; display layers truncate to 3 per company.
func (r *Runner) FindContacts(ctx context.Context, companies []Company, req TargetingRequest) ([]ContactCompany, error) {
	companiesJSON, err := json.Marshal(companies)
	if err != nil {
		return nil, err
	}
	reply, err := r.gw.Submit(ctx, agent.Request{
		Session:      agent.SessionContactFinder,
		Model:        r.models.ContactFinder,
		Tools:        agent.ToolSet{WebSearch: true},
		Instructions: contactFinderInstructions,
		Prompt:       contactFinderPrompt(req.TargetDescription, req.OfferingDescription, string(companiesJSON)),
	})
	if err != nil {
		return nil, err
	}
	parsed, err := ExtractJSON(reply)
	if err != nil {
		return nil, err
	}
	return collectionKey[ContactCompany](parsed, "companies"), nil
}

// Research asks for 2-4 personalization insights per company (display layers
// truncate to 4).
func (r *Runner) Research(ctx context.Context, companies []Company) ([]ResearchCompany, error) {
	companiesJSON, err := json.Marshal(companies)
	if err != nil {
		return nil, err
	}
	reply, err := r.gw.Submit(ctx, agent.Request{
		Session:      agent.SessionResearcher,
		Model:        r.models.Researcher,
		Tools:        agent.ToolSet{WebSearch: true},
		Instructions: researchInstructions,
		Prompt:       researchPrompt(string(companiesJSON)),
	})
	if err != nil {
		return nil, err
	}
	parsed, err := ExtractJSON(reply)
	if err != nil {
		return nil, err
	}
	return collectionKey[ResearchCompany](parsed, "companies"), nil
}

// WriteEmails drafts one email per contact in the selected style. Callers
// must not invoke it with an empty contacts list; the orchestrator skips the
// stage entirely in that case.
func (r *Runner) WriteEmails(ctx context.Context, contacts []ContactCompany, research []ResearchCompany, req TargetingRequest) ([]OutreachEmail, error) {
	contactsJSON, err := json.Marshal(contacts)
	if err != nil {
		return nil, err
	}
	researchJSON, err := json.Marshal(research)
	if err != nil {
		return nil, err
	}
	reply, err := r.gw.Submit(ctx, agent.Request{
		Session:      agent.SessionEmailWriter,
		Model:        r.models.EmailWriter,
		Tools:        agent.ToolSet{},
		Instructions: emailWriterInstructions(req.Style),
		Prompt: emailWriterPrompt(
			req.SenderName,
			req.SenderCompany,
			req.OfferingDescription,
			req.CalendarLink,
			string(contactsJSON),
			string(researchJSON),
		),
	})
	if err != nil {
		return nil, err
	}
	parsed, err := ExtractJSON(reply)
	if err != nil {
		return nil, err
	}
	return collectionKey[OutreachEmail](parsed, "emails"), nil
}
