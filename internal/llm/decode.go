package llm

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// ParseError describes model output that could not be decoded
type ParseError struct {
	Reason string
	Raw    string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("parse model output: %s: %v", e.Reason, e.Err)
	}
	return "parse model output: " + e.Reason
}

func (e *ParseError) Unwrap() error { return e.Err }

// Validator is implemented by payloads with semantic checks beyond the schema
type Validator interface {
	Validate() error
}

// Result is either a decoded value or a parse failure
type Result[T any] struct {
	Value T
	Err   *ParseError
}

// OK reports whether decoding succeeded
func (r Result[T]) OK() bool { return r.Err == nil }

// Unwrap returns the value or the parse error as an error
func (r Result[T]) Unwrap() (T, error) {
	if r.Err != nil {
		var zero T
		return zero, r.Err
	}
	return r.Value, nil
}

// Parse decodes a JSON object from model text. The object may be bare or
// inside a fenced code block. Unknown fields are rejected and the value's
// Validate method, if any, must pass.
func Parse[T any](text string) Result[T] {
	raw := extractJSON(text)
	if raw == "" {
		return Result[T]{Err: &ParseError{Reason: "no JSON object found", Raw: text}}
	}

	var v T
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&v); err != nil {
		return Result[T]{Err: &ParseError{Reason: "schema mismatch", Raw: raw, Err: err}}
	}
	if dec.More() {
		return Result[T]{Err: &ParseError{Reason: "trailing data after JSON object", Raw: raw}}
	}

	if val, ok := any(&v).(Validator); ok {
		if err := val.Validate(); err != nil {
			return Result[T]{Err: &ParseError{Reason: "invalid content", Raw: raw, Err: err}}
		}
	}
	return Result[T]{Value: v}
}

// extractJSON returns the first balanced JSON object in text
func extractJSON(text string) string {
	s := strings.TrimSpace(text)
	if i := strings.Index(s, "```"); i >= 0 {
		rest := s[i+3:]
		if nl := strings.IndexByte(rest, '\n'); nl >= 0 {
			rest = rest[nl+1:]
		}
		if end := strings.Index(rest, "```"); end >= 0 {
			s = strings.TrimSpace(rest[:end])
		}
	}

	start := strings.IndexByte(s, '{')
	if start < 0 {
		return ""
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		ch := s[i]
		switch {
		case escaped:
			escaped = false
		case inString && ch == '\\':
			escaped = true
		case ch == '"':
			inString = !inString
		case inString:
		case ch == '{':
			depth++
		case ch == '}':
			depth--
			if depth == 0 {
				return s[start : i+1]
			}
		}
	}
	return ""
}

// PromptJSON renders v compactly for inclusion in a prompt
func PromptJSON(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return "{}"
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, data); err != nil {
		return string(data)
	}
	return buf.String()
}
