// Package outreach implements the four-stage GTM outreach pipeline: find
// target companies, find contacts, gather personalization research, and
// draft outreach emails. Every stage delegates to an agent gateway and
// parses a JSON object out of the model's free-form reply.
package outreach

import "strings"

// TargetingRequest is the immutable input to one pipeline run.
type TargetingRequest struct {
	TargetDescription   string
	OfferingDescription string

	// MaxCompanies is the requested company count (1-10). Out-of-range
	// values are not rejected; the company finder clamps its result window
	// instead.
	MaxCompanies int

	SenderName    string
	SenderCompany string
	CalendarLink  string

	// Style selects the email tone. Unknown values fall back to
	// StyleProfessional.
	Style string
}

func (r TargetingRequest) withDefaults() TargetingRequest {
	r.TargetDescription = strings.TrimSpace(r.TargetDescription)
	r.OfferingDescription = strings.TrimSpace(r.OfferingDescription)
	r.CalendarLink = strings.TrimSpace(r.CalendarLink)
	if strings.TrimSpace(r.SenderName) == "" {
		r.SenderName = "Sales Team"
	}
	if strings.TrimSpace(r.SenderCompany) == "" {
		r.SenderCompany = "Our Company"
	}
	if _, ok := emailStyles[r.Style]; !ok {
		r.Style = StyleProfessional
	}
	return r
}

// Company is one company finder hit.
type Company struct {
	Name    string `json:"name"`
	Website string `json:"website"`
	WhyFit  string `json:"why_fit"`
}

// Contact is one decision maker at a company. Inferred marks an email
// address guessed from a naming pattern rather than found; the flag always
// accompanies a guessed address.
type Contact struct {
	FullName string `json:"full_name"`
	Title    string `json:"title"`
	Email    string `json:"email"`
	Inferred bool   `json:"inferred"`
}

// ContactCompany groups contacts under a company name. The name is the
// model's association, not a strict foreign key into the company list.
type ContactCompany struct {
	Name     string    `json:"name"`
	Contacts []Contact `json:"contacts"`
}

// ResearchCompany carries personalization insights for a company.
type ResearchCompany struct {
	Name     string   `json:"name"`
	Insights []string `json:"insights"`
}

// OutreachEmail is one drafted email. The 120-160 word body length is a
// prompt instruction, not a validated invariant.
type OutreachEmail struct {
	Company string `json:"company"`
	Contact string `json:"contact"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// PipelineResult is the aggregate of one completed run. It is created fresh
// per run and replaced wholesale; failed runs never touch the previous one.
type PipelineResult struct {
	Companies []Company         `json:"companies"`
	Contacts  []ContactCompany  `json:"contacts"`
	Research  []ResearchCompany `json:"research"`
	Emails    []OutreachEmail   `json:"emails"`
}
