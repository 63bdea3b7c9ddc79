// Package webui serves the outreach form and a small JSON API over the
// pipeline. One run executes at a time; a run requested while another is in
// flight gets 409.
package webui

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/gtm-labs/outreach-pipeline/internal/outreach"
	"github.com/gtm-labs/outreach-pipeline/internal/util"
)

const (
	// Display caps: contacts shown per company and insights per company.
	maxContactsShown = 3
	maxInsightsShown = 4
)

type Server struct {
	pipe   *outreach.Pipeline
	logger *log.Logger
}

func New(pipe *outreach.Pipeline, logger *log.Logger) *Server {
	return &Server{pipe: pipe, logger: logger}
}

// Handler returns the HTTP handler for the UI and API.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/api/run", s.handleRun)
	mux.HandleFunc("/api/results", s.handleResults)
	return mux
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(indexHTML))
}

type runRequest struct {
	TargetDescription   string `json:"target_description"`
	OfferingDescription string `json:"offering_description"`
	SenderName          string `json:"sender_name"`
	SenderCompany       string `json:"sender_company"`
	CalendarLink        string `json:"calendar_link"`
	MaxCompanies        int    `json:"max_companies"`
	Style               string `json:"style"`
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req runRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if strings.TrimSpace(req.TargetDescription) == "" || strings.TrimSpace(req.OfferingDescription) == "" {
		writeError(w, http.StatusBadRequest, "target_description and offering_description are required")
		return
	}
	// The form layer bounds the count; the pipeline clamps again defensively.
	if req.MaxCompanies < 1 {
		req.MaxCompanies = 1
	}
	if req.MaxCompanies > 10 {
		req.MaxCompanies = 10
	}

	result, err := s.pipe.Run(r.Context(), outreach.TargetingRequest{
		TargetDescription:   req.TargetDescription,
		OfferingDescription: req.OfferingDescription,
		SenderName:          req.SenderName,
		SenderCompany:       req.SenderCompany,
		CalendarLink:        req.CalendarLink,
		MaxCompanies:        req.MaxCompanies,
		Style:               req.Style,
	}, func(p outreach.Progress) {
		s.logger.Printf("progress: state=%s percent=%d detail=%q", p.State, p.Percent, p.Detail)
	})
	if err != nil {
		if errors.Is(err, outreach.ErrRunInFlight) {
			writeError(w, http.StatusConflict, err.Error())
			return
		}
		writeError(w, http.StatusBadGateway, util.RedactSecrets(err.Error()))
		return
	}

	writeJSON(w, http.StatusOK, truncateForDisplay(result))
}

func (s *Server) handleResults(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	result, ok := s.pipe.Latest()
	if !ok {
		writeError(w, http.StatusNotFound, "no completed run yet")
		return
	}
	writeJSON(w, http.StatusOK, truncateForDisplay(result))
}

// truncateForDisplay applies the rendering caps: 3 contacts per company and 4
// insights per company. The stored result keeps everything the model sent.
func truncateForDisplay(in outreach.PipelineResult) outreach.PipelineResult {
	out := in
	out.Contacts = make([]outreach.ContactCompany, len(in.Contacts))
	for i, c := range in.Contacts {
		out.Contacts[i] = c
		if len(c.Contacts) > maxContactsShown {
			out.Contacts[i].Contacts = c.Contacts[:maxContactsShown]
		}
	}
	out.Research = make([]outreach.ResearchCompany, len(in.Research))
	for i, rc := range in.Research {
		out.Research[i] = rc
		if len(rc.Insights) > maxInsightsShown {
			out.Research[i].Insights = rc.Insights[:maxInsightsShown]
		}
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
