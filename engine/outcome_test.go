package engine

import (
	stderrors "errors"
	"strings"
	"testing"

	"github.com/wippyai/digest-playground/errors"
)

func TestDecodeOutcome(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    Outcome
	}{
		{"success", `{"text":"SELECT * FROM t","hash":"abc123"}`, Success("SELECT * FROM t", "abc123")},
		{"error", `{"error":"syntax error near SELEKT"}`, Failure("syntax error near SELEKT")},
		{"error wins over fields", `{"error":"boom","text":"a","hash":"b"}`, Failure("boom")},
		{"empty error is falsy", `{"error":"","text":"a","hash":"b"}`, Success("a", "b")},
		{"null error is falsy", `{"error":null,"text":"a","hash":"b"}`, Success("a", "b")},
		{"empty strings", `{"text":"","hash":""}`, Success("", "")},
		{"numeric error", `{"error":42}`, Failure(MessageMalformed)},
		{"missing hash", `{"text":"a"}`, Failure(MessageMalformed)},
		{"wrong types", `{"text":1,"hash":true}`, Failure(MessageMalformed)},
		{"array", `["text","hash"]`, Failure(MessageMalformed)},
		{"scalar", `"text"`, Failure(MessageMalformed)},
		{"truncated", `{"text":"a","hash":`, Failure(MessageMalformed)},
		{"empty", ``, Failure(MessageMalformed)},
		{"empty object", `{}`, Failure(MessageMalformed)},
		{"escaped unicode", `{"text":"SELECT \u00e9","hash":"h"}`, Success("SELECT é", "h")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DecodeOutcome([]byte(tt.payload))
			if got != tt.want {
				t.Errorf("DecodeOutcome(%s) = %+v, want %+v", tt.payload, got, tt.want)
			}
		})
	}
}

func TestOutcomeConstructors(t *testing.T) {
	if s := Success("t", "h"); s.Failed || s.Message != "" {
		t.Errorf("Success = %+v", s)
	}
	if f := Failure("m"); !f.Failed || f.Text != "" || f.Hash != "" {
		t.Errorf("Failure = %+v", f)
	}
}

func TestParseOutcome_Reason(t *testing.T) {
	tests := []struct {
		payload string
		reason  string
	}{
		{`nope`, "not valid JSON"},
		{`[1]`, "not a JSON object"},
		{`{"error":{}}`, "error field is JSON"},
		{`{"text":"a"}`, "must both be strings"},
	}

	for _, tt := range tests {
		_, err := ParseOutcome([]byte(tt.payload))
		if err == nil {
			t.Errorf("ParseOutcome(%s) returned no error", tt.payload)
			continue
		}
		var e *errors.Error
		if !stderrors.As(err, &e) || e.Kind != errors.KindInvalidData || e.Phase != errors.PhaseDecode {
			t.Errorf("ParseOutcome(%s) error = %v, want decode/invalid_data", tt.payload, err)
		}
		if !strings.Contains(err.Error(), tt.reason) {
			t.Errorf("ParseOutcome(%s) error = %q, want it to mention %q", tt.payload, err, tt.reason)
		}
	}

	out, err := ParseOutcome([]byte(`{"error":"syntax error"}`))
	if err != nil || out != Failure("syntax error") {
		t.Errorf("engine-reported error: got %+v, %v", out, err)
	}
}
