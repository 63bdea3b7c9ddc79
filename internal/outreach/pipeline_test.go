package outreach_test

import (
	"context"
	"errors"
	"io"
	"log"
	"strings"
	"sync"
	"testing"

	"github.com/gtm-labs/outreach-pipeline/internal/agent"
	"github.com/gtm-labs/outreach-pipeline/internal/outreach"
)

// sessionStub answers each session with a fixed reply and counts invocations
// per session.
type sessionStub struct {
	mu      sync.Mutex
	replies map[string]string
	calls   map[string]int
}

func newSessionStub(replies map[string]string) *sessionStub {
	return &sessionStub{replies: replies, calls: make(map[string]int)}
}

func (s *sessionStub) Submit(_ context.Context, req agent.Request) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls[req.Session]++
	reply, ok := s.replies[req.Session]
	if !ok {
		return "", errors.New("unexpected session: " + req.Session)
	}
	return reply, nil
}

func (s *sessionStub) callCount(session string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[session]
}

func newTestPipeline(gw agent.Gateway) *outreach.Pipeline {
	runner := outreach.NewRunner(gw, testModels)
	return outreach.NewPipeline(runner, log.New(io.Discard, "", 0))
}

const fullCompaniesReply = `{"companies": [
	{"name": "Alpha", "website": "https://alpha.test", "why_fit": "fit a"},
	{"name": "Beta", "website": "https://beta.test", "why_fit": "fit b"},
	{"name": "Gamma", "website": "https://gamma.test", "why_fit": "fit c"}
]}`

const fullContactsReply = `{"companies": [
	{"name": "Alpha", "contacts": [
		{"full_name": "A One", "title": "CEO", "email": "a1@alpha.test", "inferred": false},
		{"full_name": "A Two", "title": "VP Sales", "email": "a.two@alpha.test", "inferred": true}]},
	{"name": "Beta", "contacts": [
		{"full_name": "B One", "title": "CMO", "email": "b1@beta.test", "inferred": false},
		{"full_name": "B Two", "title": "Head of BD", "email": "b2@beta.test", "inferred": false}]},
	{"name": "Gamma", "contacts": [
		{"full_name": "G One", "title": "Founder", "email": "g1@gamma.test", "inferred": false},
		{"full_name": "G Two", "title": "PMM", "email": "g2@gamma.test", "inferred": false}]}
]}`

const fullResearchReply = `{"companies": [
	{"name": "Alpha", "insights": ["a i1", "a i2", "a i3"]},
	{"name": "Beta", "insights": ["b i1", "b i2", "b i3"]},
	{"name": "Gamma", "insights": ["g i1", "g i2", "g i3"]}
]}`

const fullEmailsReply = `{"emails": [
	{"company": "Alpha", "contact": "A One", "subject": "s1", "body": "b1"},
	{"company": "Beta", "contact": "B One", "subject": "s2", "body": "b2"},
	{"company": "Gamma", "contact": "G Two", "subject": "s3", "body": "b3"}
]}`

func fullRequest() outreach.TargetingRequest {
	return outreach.TargetingRequest{
		TargetDescription:   "seed-stage fintech startups",
		OfferingDescription: "compliance automation SaaS",
		MaxCompanies:        3,
	}
}

func TestRunEndToEnd(t *testing.T) {
	stub := newSessionStub(map[string]string{
		agent.SessionCompanyFinder: fullCompaniesReply,
		agent.SessionContactFinder: fullContactsReply,
		agent.SessionResearcher:    fullResearchReply,
		agent.SessionEmailWriter:   fullEmailsReply,
	})
	pipe := newTestPipeline(stub)

	var checkpoints []int
	result, err := pipe.Run(context.Background(), fullRequest(), func(p outreach.Progress) {
		checkpoints = append(checkpoints, p.Percent)
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(result.Companies) != 3 || len(result.Contacts) != 3 || len(result.Research) != 3 || len(result.Emails) != 3 {
		t.Fatalf("unexpected result sizes: companies=%d contacts=%d research=%d emails=%d",
			len(result.Companies), len(result.Contacts), len(result.Research), len(result.Emails))
	}

	// Every email must trace back to a company and contact from the contact
	// stage output.
	for _, e := range result.Emails {
		found := false
		for _, cc := range result.Contacts {
			if cc.Name != e.Company {
				continue
			}
			for _, c := range cc.Contacts {
				if c.FullName == e.Contact {
					found = true
				}
			}
		}
		if !found {
			t.Fatalf("email %q -> %q does not trace back to contacts", e.Company, e.Contact)
		}
	}

	want := []int{25, 50, 75, 100}
	if len(checkpoints) != len(want) {
		t.Fatalf("got checkpoints %v, want %v", checkpoints, want)
	}
	for i := range want {
		if checkpoints[i] != want[i] {
			t.Fatalf("got checkpoints %v, want %v", checkpoints, want)
		}
	}

	if pipe.State() != outreach.StateCompleted {
		t.Fatalf("state = %q, want completed", pipe.State())
	}
	if got, ok := pipe.Latest(); !ok || len(got.Companies) != 3 {
		t.Fatalf("latest result not stored: ok=%t %#v", ok, got)
	}
}

func TestRunShortCircuitNoCompanies(t *testing.T) {
	stub := newSessionStub(map[string]string{
		agent.SessionCompanyFinder: `{"companies": []}`,
	})
	pipe := newTestPipeline(stub)

	var checkpoints []int
	result, err := pipe.Run(context.Background(), fullRequest(), func(p outreach.Progress) {
		checkpoints = append(checkpoints, p.Percent)
	})
	if err != nil {
		t.Fatalf("empty companies must not fail the run: %v", err)
	}

	if stub.callCount(agent.SessionContactFinder) != 0 {
		t.Fatal("contact finder must not be invoked without companies")
	}
	if stub.callCount(agent.SessionResearcher) != 0 {
		t.Fatal("researcher must not be invoked without companies")
	}
	if stub.callCount(agent.SessionEmailWriter) != 0 {
		t.Fatal("email writer must not be invoked without contacts")
	}
	if len(result.Contacts) != 0 || len(result.Research) != 0 || len(result.Emails) != 0 {
		t.Fatalf("expected empty downstream collections: %#v", result)
	}
	if len(checkpoints) != 4 {
		t.Fatalf("skipped stages still report checkpoints, got %v", checkpoints)
	}
	if pipe.State() != outreach.StateCompleted {
		t.Fatalf("state = %q, want completed", pipe.State())
	}
}

func TestRunShortCircuitNoContacts(t *testing.T) {
	stub := newSessionStub(map[string]string{
		agent.SessionCompanyFinder: fullCompaniesReply,
		agent.SessionContactFinder: `{"companies": []}`,
		agent.SessionResearcher:    fullResearchReply,
	})
	pipe := newTestPipeline(stub)

	result, err := pipe.Run(context.Background(), fullRequest(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if stub.callCount(agent.SessionEmailWriter) != 0 {
		t.Fatal("email writer must not be invoked without contacts")
	}
	if len(result.Emails) != 0 {
		t.Fatalf("expected no emails, got %#v", result.Emails)
	}
	if len(result.Research) != 3 {
		t.Fatalf("research must still run with companies present, got %d", len(result.Research))
	}
}

func TestRunParseFailurePreservesPreviousResult(t *testing.T) {
	stub := newSessionStub(map[string]string{
		agent.SessionCompanyFinder: fullCompaniesReply,
		agent.SessionContactFinder: fullContactsReply,
		agent.SessionResearcher:    fullResearchReply,
		agent.SessionEmailWriter:   fullEmailsReply,
	})
	pipe := newTestPipeline(stub)

	if _, err := pipe.Run(context.Background(), fullRequest(), nil); err != nil {
		t.Fatalf("first run failed: %v", err)
	}

	const garbage = "TOTALLY NOT JSON %%%"
	stub.mu.Lock()
	stub.replies[agent.SessionContactFinder] = garbage
	stub.mu.Unlock()

	_, err := pipe.Run(context.Background(), fullRequest(), nil)
	if err == nil {
		t.Fatal("expected parse failure")
	}
	var pe *outreach.ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("expected *ParseError, got %T: %v", err, err)
	}
	if !strings.Contains(err.Error(), garbage) {
		t.Fatalf("error must carry the offending raw text: %q", err.Error())
	}
	if pipe.State() != outreach.StateFailed {
		t.Fatalf("state = %q, want failed", pipe.State())
	}

	// The failed run must not corrupt the previously completed result.
	prev, ok := pipe.Latest()
	if !ok {
		t.Fatal("previous result lost")
	}
	if len(prev.Companies) != 3 || len(prev.Emails) != 3 {
		t.Fatalf("previous result corrupted: %#v", prev)
	}
}

func TestRunGatewayErrorHaltsRun(t *testing.T) {
	gwErr := &agent.GatewayError{Err: errors.New("rate limited")}
	gw := agent.GatewayFunc(func(_ context.Context, req agent.Request) (string, error) {
		if req.Session == agent.SessionCompanyFinder {
			return fullCompaniesReply, nil
		}
		return "", gwErr
	})
	pipe := newTestPipeline(gw)

	_, err := pipe.Run(context.Background(), fullRequest(), nil)
	if err == nil {
		t.Fatal("expected gateway error")
	}
	var ge *agent.GatewayError
	if !errors.As(err, &ge) {
		t.Fatalf("expected *GatewayError, got %T", err)
	}
	if !strings.Contains(err.Error(), "rate limited") {
		t.Fatalf("gateway error message not surfaced verbatim: %q", err.Error())
	}
	if _, ok := pipe.Latest(); ok {
		t.Fatal("failed run must not store a result")
	}
}

func TestRunRejectsConcurrentRun(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	gw := agent.GatewayFunc(func(_ context.Context, req agent.Request) (string, error) {
		close(started)
		<-release
		return `{"companies": []}`, nil
	})
	pipe := newTestPipeline(gw)

	done := make(chan error, 1)
	go func() {
		_, err := pipe.Run(context.Background(), fullRequest(), nil)
		done <- err
	}()

	<-started
	_, err := pipe.Run(context.Background(), fullRequest(), nil)
	if !errors.Is(err, outreach.ErrRunInFlight) {
		t.Fatalf("expected ErrRunInFlight, got %v", err)
	}
	close(release)
	if err := <-done; err != nil {
		t.Fatalf("first run failed: %v", err)
	}
}
