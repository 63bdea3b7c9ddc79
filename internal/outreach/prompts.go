package outreach

import "fmt"

// Email style catalog. Unknown keys fall back to StyleProfessional.
const (
	StyleProfessional = "Professional"
	StyleCasual       = "Casual"
	StyleCold         = "Cold"
	StyleConsultative = "Consultative"
)

var emailStyles = map[string]string{
	StyleProfessional: "Style: Professional. Clear, respectful, and businesslike. Short paragraphs; no slang.",
	StyleCasual:       "Style: Casual. Friendly, approachable, first-name basis. No slang or emojis; keep it human.",
	StyleCold:         "Style: Cold email. Strong hook in opening 2 lines, tight value proposition, minimal fluff, strong CTA.",
	StyleConsultative: "Style: Consultative. Insight-led, frames observed problems and tailored solution hypotheses; soft CTA.",
}

// EmailStyles lists the selectable styles in display order.
func EmailStyles() []string {
	return []string{StyleProfessional, StyleCasual, StyleCold, StyleConsultative}
}

func styleInstruction(key string) string {
	if s, ok := emailStyles[key]; ok {
		return s
	}
	return emailStyles[StyleProfessional]
}

var companyFinderInstructions = []string{
	"You are CompanyFinderAgent. Use the web_search tool to find companies that match the targeting criteria.",
	"Return ONLY valid JSON with key 'companies' as a list; respect the requested limit provided in the user prompt.",
	"Each item must have: name, website, why_fit (1-2 lines).",
}

var contactFinderInstructions = []string{
	"You are ContactFinderAgent. Use the web_search tool to find 1-2 relevant decision makers per company and their emails if available.",
	"Prioritize roles from Founder's Office, GTM (Marketing/Growth), Sales leadership, Partnerships/Business Development, and Product Marketing.",
	"Search queries can include patterns like '<Company> email format', 'contact', 'team', 'leadership', and role titles.",
	"If direct emails are not found, infer likely email using common formats (e.g., first.last@domain), but mark inferred=true.",
	"Return ONLY valid JSON with key 'companies' as a list; each has: name, contacts: [{full_name, title, email, inferred}]",
}

var researchInstructions = []string{
	"You are ResearchAgent. For each company, collect concise, valuable insights from:",
	"1) Their official website (about, blog, product pages)",
	"2) Reddit discussions (site:reddit.com mentions)",
	"Summarize 2-4 interesting, non-generic points per company that a human would bring up in an email to show genuine effort.",
	"Return ONLY valid JSON with key 'companies' as a list; each has: name, insights: [strings].",
}

func emailWriterInstructions(styleKey string) []string {
	return []string{
		"You are EmailWriterAgent. Write concise, personalized B2B outreach emails.",
		styleInstruction(styleKey),
		"Return ONLY valid JSON with key 'emails' as a list of items: {company, contact, subject, body}.",
		"Length: 120-160 words. Include 1-2 lines of strong personalization referencing research insights (company website and Reddit findings).",
		"CTA: suggest a short intro call; include sender company name and calendar link if provided.",
	}
}

func companyFinderPrompt(maxCompanies int, targetDesc, offeringDesc string) string {
	return fmt.Sprintf(
		"Find exactly %d companies that are a strong B2B fit given the user inputs.\n"+
			"Targeting: %s\n"+
			"Offering: %s\n"+
			"For each, provide: name, website, why_fit (1-2 lines).",
		maxCompanies, targetDesc, offeringDesc,
	)
}

func contactFinderPrompt(targetDesc, offeringDesc, companiesJSON string) string {
	return fmt.Sprintf(
		"For each company below, find 2-3 relevant decision makers and emails (if available). Ensure at least 2 per company when possible, and cap at 3.\n"+
			"If not available, infer likely email and mark inferred=true.\n"+
			"Targeting: %s\nOffering: %s\n"+
			"Companies JSON: %s\n"+
			"Return JSON: {companies: [{name, contacts: [{full_name, title, email, inferred}]}]}",
		targetDesc, offeringDesc, companiesJSON,
	)
}

func researchPrompt(companiesJSON string) string {
	return fmt.Sprintf(
		"For each company, gather 2-4 interesting insights from their website and Reddit that would help personalize outreach.\n"+
			"Companies JSON: %s\n"+
			"Return JSON: {companies: [{name, insights: [string, ...]}]}",
		companiesJSON,
	)
}

func emailWriterPrompt(senderName, senderCompany, offeringDesc, calendarLink, contactsJSON, researchJSON string) string {
	if calendarLink == "" {
		calendarLink = "N/A"
	}
	return fmt.Sprintf(
		"Write personalized outreach emails for the following contacts.\n"+
			"Sender: %s at %s.\n"+
			"Offering: %s.\n"+
			"Calendar link: %s.\n"+
			"Contacts JSON: %s\n"+
			"Research JSON: %s\n"+
			"Return JSON with key 'emails' as a list of {company, contact, subject, body}.",
		senderName, senderCompany, offeringDesc, calendarLink, contactsJSON, researchJSON,
	)
}
