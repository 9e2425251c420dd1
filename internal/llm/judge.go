package llm

import (
	"context"
	"fmt"

	"github.com/ppiankov/policygate/internal/model"
)

// Judge asks the verification model for a raw structured assessment
type Judge struct {
	provider Provider
	model    string
}

// NewJudge creates a judge; an empty model uses the provider default
func NewJudge(provider Provider, model string) *Judge {
	return &Judge{provider: provider, model: model}
}

// Judge returns the raw model output; decoding and normalization happen in the assessor
func (j *Judge) Judge(ctx context.Context, req model.JudgeRequest) (string, error) {
	resp, err := j.provider.Complete(ctx, CompletionRequest{
		System: policySystemPrompt,
		Prompt: BuildPolicyPrompt(req),
		Model:  j.model,
		JSON:   true,
	})
	if err != nil {
		return "", fmt.Errorf("judge answer: %w", err)
	}
	return resp.Content, nil
}
