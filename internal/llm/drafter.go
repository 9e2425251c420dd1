package llm

import (
	"context"
	"fmt"

	"github.com/ppiankov/policygate/internal/assumption"
	"github.com/ppiankov/policygate/internal/model"
	"github.com/ppiankov/policygate/internal/schema"
)

// Drafter asks the answer model for a claim-structured proposal
type Drafter struct {
	provider Provider
	model    string
}

// NewDrafter creates a drafter; an empty model uses the provider default
func NewDrafter(provider Provider, model string) *Drafter {
	return &Drafter{provider: provider, model: model}
}

// Draft returns the decoded proposal. A response outside the canonical
// schema is returned as a *schema.SchemaViolation.
func (d *Drafter) Draft(ctx context.Context, question string, chunks []model.RetrievedChunk) (model.AnswerProposal, error) {
	resp, err := d.provider.Complete(ctx, CompletionRequest{
		System: answerSystemPrompt,
		Prompt: BuildAnswerPrompt(question, chunks),
		Model:  d.model,
		JSON:   true,
	})
	if err != nil {
		return model.AnswerProposal{}, fmt.Errorf("draft answer: %w", err)
	}

	proposal, err := schema.DecodeProposal(resp.Content)
	if err != nil {
		return model.AnswerProposal{}, err
	}

	for i := range proposal.Assumptions {
		proposal.Assumptions[i].Source = assumption.SourceModel
	}
	return proposal, nil
}
