// Package schema defines the one canonical wire format exchanged with the
// drafting and judgment models, and decodes responses into typed values.
//
// A response must be a JSON object whose schema_version equals the expected
// version. Anything else is a *SchemaViolation. Inside a matching envelope,
// wrong-typed fields are coerced to empty or neutral values.
package schema

import (
	"encoding/json"
	"fmt"
)

const (
	AnswerVersion     = "policygate.answer.v1"
	AssessmentVersion = "policygate.assessment.v1"
)

// SchemaViolation reports a response that does not match its canonical schema
type SchemaViolation struct {
	Schema   string // "answer" or "assessment"
	Expected string
	Got      string
	Reason   string
}

func (e *SchemaViolation) Error() string {
	if e.Got != "" {
		return fmt.Sprintf("%s schema violation: %s (expected %s, got %s)", e.Schema, e.Reason, e.Expected, e.Got)
	}
	return fmt.Sprintf("%s schema violation: %s (expected %s)", e.Schema, e.Reason, e.Expected)
}

// envelope parses content into top-level fields and checks the version
func envelope(content, name, version string) (map[string]json.RawMessage, error) {
	raw := ExtractJSON(content)
	if raw == "" {
		return nil, &SchemaViolation{Schema: name, Expected: version, Reason: "no JSON object in response"}
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &fields); err != nil {
		return nil, &SchemaViolation{Schema: name, Expected: version, Reason: "invalid JSON: " + err.Error()}
	}

	got, ok := asString(fields["schema_version"])
	if !ok || got == "" {
		return nil, &SchemaViolation{Schema: name, Expected: version, Reason: "missing schema_version"}
	}
	if got != version {
		return nil, &SchemaViolation{Schema: name, Expected: version, Got: got, Reason: "unsupported schema_version"}
	}

	return fields, nil
}

func asString(raw json.RawMessage) (string, bool) {
	if len(raw) == 0 {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}

// asStrings decodes a list, dropping non-string elements. ok is false when raw is not a list.
func asStrings(raw json.RawMessage) ([]string, bool) {
	if len(raw) == 0 {
		return nil, false
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, false
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := asString(item); ok {
			out = append(out, s)
		}
	}
	return out, true
}

func asFloat(raw json.RawMessage) (float64, bool) {
	if len(raw) == 0 {
		return 0, false
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		return 0, false
	}
	return f, true
}

func asBool(raw json.RawMessage) (bool, bool) {
	if len(raw) == 0 {
		return false, false
	}
	var b bool
	if err := json.Unmarshal(raw, &b); err != nil {
		return false, false
	}
	return b, true
}

func asObjects(raw json.RawMessage) []json.RawMessage {
	if len(raw) == 0 {
		return nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil
	}
	return items
}

func asObject(raw json.RawMessage) (map[string]json.RawMessage, bool) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil || obj == nil {
		return nil, false
	}
	return obj, true
}
