package llm

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

type scorePayload struct {
	Score   int      `json:"score"`
	Reasons []string `json:"reasons"`
}

func (p *scorePayload) Validate() error {
	if p.Score < 0 || p.Score > 100 {
		return errors.New("score out of range")
	}
	return nil
}

func TestParse(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		want   scorePayload
		reason string
	}{
		{
			name: "bare object",
			text: `{"score": 72, "reasons": ["repeat founder"]}`,
			want: scorePayload{Score: 72, Reasons: []string{"repeat founder"}},
		},
		{
			name: "fenced with prose",
			text: "Here you go:\n```json\n{\"score\": 40, \"reasons\": []}\n```\nThanks",
			want: scorePayload{Score: 40, Reasons: []string{}},
		},
		{
			name: "braces inside strings",
			text: `Result: {"score": 10, "reasons": ["uses {templates}"]} done`,
			want: scorePayload{Score: 10, Reasons: []string{"uses {templates}"}},
		},
		{name: "no object", text: "I cannot help with that.", reason: "no JSON object found"},
		{name: "unknown field", text: `{"score": 5, "confidence": 0.3}`, reason: "schema mismatch"},
		{name: "wrong type", text: `{"score": "high"}`, reason: "schema mismatch"},
		{name: "fails validation", text: `{"score": 140}`, reason: "invalid content"},
		{name: "unterminated", text: `{"score": 5`, reason: "no JSON object found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Parse[scorePayload](tt.text)
			if tt.reason != "" {
				if res.OK() {
					t.Fatalf("expected parse error %q, got %+v", tt.reason, res.Value)
				}
				if res.Err.Reason != tt.reason {
					t.Errorf("reason = %q, want %q", res.Err.Reason, tt.reason)
				}
				_, err := res.Unwrap()
				var perr *ParseError
				if !errors.As(err, &perr) {
					t.Errorf("Unwrap should return *ParseError, got %T", err)
				}
				return
			}
			if !res.OK() {
				t.Fatalf("unexpected error: %v", res.Err)
			}
			if diff := cmp.Diff(tt.want, res.Value); diff != "" {
				t.Errorf("value mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestPromptJSON(t *testing.T) {
	got := PromptJSON(map[string]int{"b": 2, "a": 1})
	if got != `{"a":1,"b":2}` {
		t.Errorf("PromptJSON = %s", got)
	}
}
