// Package jsonextract recovers the first complete JSON value from
// free-form model output. Completions routinely wrap JSON in prose or
// markdown fences and embed stray brackets inside string values, so
// naive first-brace-to-last-brace slicing is not enough.
package jsonextract

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrNoJSON reports input with no JSON value anywhere in it.
var ErrNoJSON = errors.New("no JSON value found in text")

// MalformedError reports a candidate slice that did not parse.
type MalformedError struct {
	Candidate string
	Err       error
}

func (e *MalformedError) Error() string {
	return fmt.Sprintf("malformed JSON: %s", e.Err.Error())
}

func (e *MalformedError) Unwrap() error {
	return e.Err
}

// IsMalformed reports whether err came out of this package, i.e. the text
// carried no JSON or carried JSON that would not parse. Callers use this
// to present the failure as a bad upstream response instead of a network
// fault.
func IsMalformed(err error) bool {
	var m *MalformedError
	return errors.Is(err, ErrNoJSON) || errors.As(err, &m)
}

// Extract returns the first complete JSON value (object or array)
// embedded in text. A fenced code block, when present, bounds the search.
// Extract only slices; Unmarshal parses.
func Extract(text string) (string, error) {
	text = strings.TrimSpace(text)
	if region, ok := fencedRegion(text); ok {
		text = region
	}

	start := strings.IndexAny(text, "{[")
	if start < 0 {
		return "", ErrNoJSON
	}
	opener := text[start]
	closer := byte('}')
	if opener == '[' {
		closer = ']'
	}

	end := scanBalanced(text, start, opener, closer)
	if end < 0 {
		// unbalanced input: cut at the last closer in sight as a best
		// effort. this can slice wrong on truncated output; the parse in
		// Unmarshal is the backstop.
		end = lastCloser(text)
		if end <= start {
			end = len(text) - 1
		}
	}

	return text[start : end+1], nil
}

// Unmarshal extracts the first JSON value in text and decodes it into T.
func Unmarshal[T any](text string) (T, error) {
	var out T
	candidate, err := Extract(text)
	if err != nil {
		return out, err
	}
	err = json.Unmarshal([]byte(candidate), &out)
	if err != nil {
		return out, &MalformedError{Candidate: candidate, Err: err}
	}
	return out, nil
}

const (
	outsideString = iota
	insideString
	escapePending
)

// scanBalanced walks text from start counting opener/closer depth,
// ignoring brackets inside quoted strings and quotes behind backslash
// escapes. Returns the index where depth returns to zero, or -1 if it
// never does.
func scanBalanced(text string, start int, opener, closer byte) int {
	state := outsideString
	depth := 0

	for i := start; i < len(text); i++ {
		c := text[i]
		switch state {
		case outsideString:
			switch c {
			case '"':
				state = insideString
			case opener:
				depth++
			case closer:
				depth--
				if depth == 0 {
					return i
				}
			}
		case insideString:
			switch c {
			case '\\':
				state = escapePending
			case '"':
				state = outsideString
			}
		case escapePending:
			state = insideString
		}
	}

	return -1
}

func lastCloser(text string) int {
	brace := strings.LastIndexByte(text, '}')
	bracket := strings.LastIndexByte(text, ']')
	if brace > bracket {
		return brace
	}
	return bracket
}

// fencedRegion returns the body of the first ```json fence, or of the
// first unlabeled fence whose content starts with a bracket. Fences with
// other language labels don't bound the search.
func fencedRegion(text string) (string, bool) {
	if region, ok := fenceBody(text, "```json"); ok {
		return region, true
	}
	region, ok := fenceBody(text, "```")
	if !ok {
		return "", false
	}
	trimmed := strings.TrimSpace(region)
	if len(trimmed) > 0 && (trimmed[0] == '{' || trimmed[0] == '[') {
		return region, true
	}
	return "", false
}

func fenceBody(text, marker string) (string, bool) {
	start := strings.Index(strings.ToLower(text), marker)
	if start < 0 {
		return "", false
	}
	body := text[start+len(marker):]
	end := strings.Index(body, "```")
	if end < 0 {
		return "", false
	}
	return body[:end], true
}
