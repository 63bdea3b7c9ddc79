package exa

import (
	"fmt"
	"net/http"
	"strings"
)

// HTTPError is a sanitized summary of a non-2xx Exa API response.
//
// Important: response bodies are truncated before inclusion; the API key is
// sent only in a request header and never appears in responses.
type HTTPError struct {
	Op         string
	StatusCode int
	Status     string

	// Snippet is a truncated hint from the response body.
	Snippet string
}

func (e *HTTPError) Error() string {
	if e == nil {
		return "exa http error"
	}
	msg := fmt.Sprintf("exa api error: op=%s status=%s", strings.TrimSpace(e.Op), strings.TrimSpace(e.Status))
	if strings.TrimSpace(e.Snippet) != "" {
		msg += " body=" + strings.TrimSpace(e.Snippet)
	}
	return msg
}

func newHTTPError(op string, resp *http.Response, body []byte) error {
	h := &HTTPError{Op: op}
	if resp != nil {
		h.StatusCode = resp.StatusCode
		h.Status = resp.Status
	}
	h.Snippet = truncateSnippet(body)
	return h
}

func truncateSnippet(body []byte) string {
	if len(body) == 0 {
		return ""
	}
	const max = 256
	b := body
	if len(b) > max {
		b = b[:max]
	}
	s := string(b)
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "\r", " ")
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	if len(body) > max {
		return s + "..."
	}
	return s
}
