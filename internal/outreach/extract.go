package outreach

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ParseError reports a model reply that contained no parsable JSON. It keeps
// the original reply text so a bad prompt/model pairing can be diagnosed.
type ParseError struct {
	Raw string
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse JSON: %v\nresponse was:\n%s", e.Err, e.Raw)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// ExtractJSON parses a JSON value out of a model reply, tolerating
// surrounding prose: first a strict parse of the whole text, then the
// substring between the first '{' and the last '}' inclusive.
//
// A reply containing multiple sibling top-level JSON objects is not
// supported: the outermost brace pair then spans them all and fails to
// parse. Text without braces fails immediately.
func ExtractJSON(raw string) (any, error) {
	var out any
	strictErr := json.Unmarshal([]byte(raw), &out)
	if strictErr == nil {
		return out, nil
	}

	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start != -1 && end != -1 && end > start {
		if err := json.Unmarshal([]byte(raw[start:end+1]), &out); err == nil {
			return out, nil
		}
	}
	return nil, &ParseError{Raw: raw, Err: strictErr}
}

// collectionKey pulls a named list out of a parsed reply and decodes it into
// typed records. A non-object reply, a missing key, or a list of the wrong
// shape all yield an empty collection: downstream short-circuit logic
// handles emptiness, so a shape miss is never fatal.
func collectionKey[T any](parsed any, key string) []T {
	obj, ok := parsed.(map[string]any)
	if !ok {
		return nil
	}
	v, ok := obj[key]
	if !ok {
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	var out []T
	if err := json.Unmarshal(b, &out); err != nil {
		return nil
	}
	return out
}
