package llm

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/ppiankov/policygate/internal/assumption"
	"github.com/ppiankov/policygate/internal/model"
	"github.com/ppiankov/policygate/internal/schema"
)

var testChunks = []model.RetrievedChunk{
	{Chunk: model.Chunk{ID: "vacation-policy:sec0001", Text: "Employees receive 15 days of vacation."}},
	{Chunk: model.Chunk{ID: "vacation-policy:sec0002", Text: "Unused days expire on December 31."}},
}

func TestDrafter_Draft(t *testing.T) {
	fake := &fakeProvider{responses: []string{`{
  "schema_version": "policygate.answer.v1",
  "claims": [{"text": "Employees receive 15 days of vacation.", "citations": ["vacation-policy:sec0001"]}],
  "assumptions": [{"type": "A1_SCOPE", "impact": "low", "text": "Employee is full-time."}],
  "final_answer": "You receive 15 days."
}`}}

	p, err := NewDrafter(fake, "gpt-4o").Draft(context.Background(), "How much vacation?", testChunks)
	if err != nil {
		t.Fatalf("Draft failed: %v", err)
	}

	if len(p.Claims) != 1 || p.Claims[0].Citations[0] != "vacation-policy:sec0001" {
		t.Errorf("unexpected claims: %+v", p.Claims)
	}
	if len(p.Assumptions) != 1 || p.Assumptions[0].Source != assumption.SourceModel {
		t.Errorf("expected model-sourced assumption, got %+v", p.Assumptions)
	}

	if !fake.lastReq.JSON {
		t.Error("expected JSON mode")
	}
	if fake.lastReq.Model != "gpt-4o" {
		t.Errorf("expected model gpt-4o, got %s", fake.lastReq.Model)
	}
	if !strings.Contains(fake.lastReq.System, schema.AnswerVersion) {
		t.Error("system prompt must name the schema version")
	}
	for _, want := range []string{"How much vacation?", "[vacation-policy:sec0001]", "December 31"} {
		if !strings.Contains(fake.lastReq.Prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestDrafter_SchemaViolation(t *testing.T) {
	fake := &fakeProvider{responses: []string{`{"answer": "15 days", "citations": ["a:b"]}`}}

	_, err := NewDrafter(fake, "").Draft(context.Background(), "q", testChunks)
	var violation *schema.SchemaViolation
	if !errors.As(err, &violation) {
		t.Fatalf("expected schema violation, got %v", err)
	}
}

func TestDrafter_ProviderError(t *testing.T) {
	fake := &fakeProvider{errs: []error{errors.New("boom")}}

	_, err := NewDrafter(fake, "").Draft(context.Background(), "q", nil)
	if err == nil || !strings.Contains(err.Error(), "draft answer") {
		t.Errorf("expected wrapped provider error, got %v", err)
	}
}

func TestJudge_Judge(t *testing.T) {
	raw := `{"schema_version": "policygate.assessment.v1", "issues": []}`
	fake := &fakeProvider{responses: []string{raw}}

	got, err := NewJudge(fake, "gpt-4o").Judge(context.Background(), model.JudgeRequest{
		Question: "How much vacation?",
		Context:  testChunks,
		Claims: []model.Claim{
			{Text: "Employees receive 15 days.", Citations: []string{"vacation-policy:sec0001"}},
			{Text: "Uncited."},
		},
	})
	if err != nil {
		t.Fatalf("Judge failed: %v", err)
	}
	if got != raw {
		t.Errorf("expected raw response passthrough, got %q", got)
	}

	for _, want := range []string{
		"0. Employees receive 15 days. (citations: vacation-policy:sec0001)",
		"1. Uncited. (citations: none)",
		"[vacation-policy:sec0002]",
	} {
		if !strings.Contains(fake.lastReq.Prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
	if !strings.Contains(fake.lastReq.System, "claim_checks") {
		t.Error("system prompt must request claim_checks")
	}
}

func TestFormatContext_Empty(t *testing.T) {
	if got := FormatContext(nil); !strings.Contains(got, "no policy excerpts") {
		t.Errorf("unexpected empty context rendering: %q", got)
	}
}
