package outreach

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"
)

// State names the orchestrator's position in a run. Transitions are strictly
// sequential and forward-only; Failed is terminal and reachable from any
// non-terminal state.
type State string

const (
	StateIdle             State = "idle"
	StateFindingCompanies State = "finding_companies"
	StateFindingContacts  State = "finding_contacts"
	StateResearching      State = "researching"
	StateWritingEmails    State = "writing_emails"
	StateCompleted        State = "completed"
	StateFailed           State = "failed"
)

// Progress is one observational checkpoint, reported after each stage.
type Progress struct {
	State   State
	Percent int
	Detail  string
}

// Observer receives progress checkpoints during a run. May be nil.
type Observer func(Progress)

// ErrRunInFlight is returned when a run is requested while another is still
// executing. There is exactly one run in flight at a time.
var ErrRunInFlight = errors.New("a pipeline run is already in flight")

// Pipeline orchestrates the four stages and holds the most recent successful
// result. A failed run leaves the previous result untouched; a successful
// run replaces it atomically.
type Pipeline struct {
	runner *Runner
	logger *log.Logger

	mu      sync.Mutex
	state   State
	running bool
	latest  *PipelineResult
}

func NewPipeline(runner *Runner, logger *log.Logger) *Pipeline {
	if logger == nil {
		logger = log.New(log.Writer(), "", log.LstdFlags)
	}
	return &Pipeline{
		runner: runner,
		logger: logger,
		state:  StateIdle,
	}
}

// State returns the current orchestrator state.
func (p *Pipeline) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Latest returns a copy of the most recent successful result, if any.
func (p *Pipeline) Latest() (PipelineResult, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.latest == nil {
		return PipelineResult{}, false
	}
	return *p.latest, true
}

// Run executes one full pipeline run synchronously: companies, contacts,
// research, emails. Downstream stages are skipped (not failed) when an
// upstream stage yields nothing. Any stage error transitions the run to
// Failed and is surfaced verbatim; no stage is retried.
func (p *Pipeline) Run(ctx context.Context, req TargetingRequest, observe Observer) (PipelineResult, error) {
	if err := p.begin(); err != nil {
		return PipelineResult{}, err
	}
	defer p.end()

	req = req.withDefaults()
	runID := fmt.Sprintf("run-%d", time.Now().UnixNano())
	logf := func(format string, args ...any) {
		prefix := make([]any, 0, len(args)+1)
		prefix = append(prefix, runID)
		prefix = append(prefix, args...)
		p.logger.Printf("run=%s "+format, prefix...)
	}
	runStart := time.Now()
	logf("outreach run start: maxCompanies=%d style=%s", req.MaxCompanies, req.Style)

	checkpoint := func(st State, percent int, detail string) {
		if observe != nil {
			observe(Progress{State: st, Percent: percent, Detail: detail})
		}
	}

	p.setState(StateFindingCompanies)
	stageStart := time.Now()
	companies, err := p.runner.FindCompanies(ctx, req)
	if err != nil {
		return p.fail(logf, "finding companies", err)
	}
	logf("found %d companies in %s", len(companies), time.Since(stageStart).Round(time.Millisecond))
	checkpoint(StateFindingCompanies, 25, fmt.Sprintf("Found %d companies", len(companies)))

	p.setState(StateFindingContacts)
	var contacts []ContactCompany
	if len(companies) > 0 {
		stageStart = time.Now()
		contacts, err = p.runner.FindContacts(ctx, companies, req)
		if err != nil {
			return p.fail(logf, "finding contacts", err)
		}
		logf("collected contacts for %d companies in %s", len(contacts), time.Since(stageStart).Round(time.Millisecond))
	} else {
		logf("no companies found; skipping contact search")
	}
	checkpoint(StateFindingContacts, 50, fmt.Sprintf("Collected contacts for %d companies", len(contacts)))

	p.setState(StateResearching)
	var research []ResearchCompany
	if len(companies) > 0 {
		stageStart = time.Now()
		research, err = p.runner.Research(ctx, companies)
		if err != nil {
			return p.fail(logf, "researching", err)
		}
		logf("compiled research for %d companies in %s", len(research), time.Since(stageStart).Round(time.Millisecond))
	} else {
		logf("no companies found; skipping research")
	}
	checkpoint(StateResearching, 75, fmt.Sprintf("Compiled research for %d companies", len(research)))

	p.setState(StateWritingEmails)
	var emails []OutreachEmail
	if len(contacts) > 0 {
		stageStart = time.Now()
		emails, err = p.runner.WriteEmails(ctx, contacts, research, req)
		if err != nil {
			return p.fail(logf, "writing emails", err)
		}
		logf("generated %d emails in %s", len(emails), time.Since(stageStart).Round(time.Millisecond))
	} else {
		logf("no contacts found; skipping email writing")
	}
	checkpoint(StateWritingEmails, 100, fmt.Sprintf("Generated %d emails", len(emails)))

	result := PipelineResult{
		Companies: companies,
		Contacts:  contacts,
		Research:  research,
		Emails:    emails,
	}

	p.mu.Lock()
	p.state = StateCompleted
	stored := result
	p.latest = &stored
	p.mu.Unlock()

	logf("outreach run complete: companies=%d contacts=%d research=%d emails=%d duration=%s",
		len(companies), len(contacts), len(research), len(emails),
		time.Since(runStart).Round(time.Millisecond))
	return result, nil
}

func (p *Pipeline) begin() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.running {
		return ErrRunInFlight
	}
	p.running = true
	return nil
}

func (p *Pipeline) end() {
	p.mu.Lock()
	p.running = false
	p.mu.Unlock()
}

func (p *Pipeline) setState(s State) {
	p.mu.Lock()
	p.state = s
	p.mu.Unlock()
}

func (p *Pipeline) fail(logf func(string, ...any), stage string, err error) (PipelineResult, error) {
	p.setState(StateFailed)
	logf("outreach run failed while %s: %s", stage, err.Error())
	return PipelineResult{}, err
}
