// Package pipeline answers one question end to end: retrieve policy
// excerpts, draft a cited answer, judge it, and run the compliance checks
// that decide whether the answer may be shown.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ppiankov/policygate/internal/assumption"
	"github.com/ppiankov/policygate/internal/compliance"
	"github.com/ppiankov/policygate/internal/extract"
	"github.com/ppiankov/policygate/internal/model"
	"github.com/ppiankov/policygate/internal/retrieve"
	"github.com/ppiankov/policygate/internal/schema"
)

// Drafter produces a claim-structured answer proposal
type Drafter interface {
	Draft(ctx context.Context, question string, chunks []model.RetrievedChunk) (model.AnswerProposal, error)
}

// Assessor produces the normalized semantic assessment of drafted claims
type Assessor interface {
	Assess(ctx context.Context, question string, chunks []model.RetrievedChunk, claims []model.Claim) (model.Assessment, error)
}

// Recorder persists finished reports
type Recorder interface {
	Record(report *model.Report) error
}

// Deps are the collaborators a pipeline runs against
type Deps struct {
	Retriever retrieve.Retriever
	Drafter   Drafter
	Assessor  Assessor
	Recorder  Recorder // optional
	Models    model.ModelInfo
	Logger    *slog.Logger
}

// Pipeline orchestrates the complete question flow
type Pipeline struct {
	retriever    retrieve.Retriever
	drafter      Drafter
	assessor     Assessor
	recorder     Recorder
	orchestrator *compliance.Orchestrator
	topK         int
	models       model.ModelInfo
	logger       *slog.Logger
	now          func() time.Time
	closers      []func() error
}

// New creates a pipeline from cfg and explicit collaborators
func New(cfg *model.Config, deps Deps) *Pipeline {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		retriever:    deps.Retriever,
		drafter:      deps.Drafter,
		assessor:     deps.Assessor,
		recorder:     deps.Recorder,
		orchestrator: compliance.NewOrchestrator(compliance.ConfigFromModel(cfg), logger),
		topK:         cfg.Retrieval.TopK,
		models:       deps.Models,
		logger:       logger,
		now:          time.Now,
	}
}

// Ask answers question and returns the full report. Errors are returned only
// for infrastructure failures (retrieval, provider transport, audit); an
// answer that cannot be verified is a report with a do_not_use decision.
func (p *Pipeline) Ask(ctx context.Context, question string) (*model.Report, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, fmt.Errorf("question is empty")
	}

	askedAt := p.now().UTC()
	requestID := uuid.NewString()
	logger := p.logger.With("request_id", requestID)

	// 1. Retrieve
	hits, err := p.retriever.Retrieve(ctx, question, p.topK)
	if err != nil {
		return nil, fmt.Errorf("retrieve: %w", err)
	}
	hits = retrieve.Dedup(hits, p.topK)
	retrieved := retrieve.RetrievedMap(hits)
	logger.Debug("retrieved policy excerpts", "count", len(hits))

	// 2. Draft
	var draftViolation error
	proposal, err := p.drafter.Draft(ctx, question, hits)
	if err != nil {
		var violation *schema.SchemaViolation
		if !errors.As(err, &violation) {
			return nil, err
		}
		logger.Warn("drafted answer rejected", "reason", violation.Reason, "got_version", violation.Got)
		draftViolation = err
		proposal = model.AnswerProposal{}
	}

	claims := proposal.Claims
	if len(claims) == 0 && strings.TrimSpace(proposal.FinalAnswer) != "" {
		claims = extract.ClaimsFromAnswer(proposal.FinalAnswer, chunkIDs(hits))
		logger.Debug("claims recovered from final answer", "count", len(claims))
	}

	// 3. Assumptions
	detected := assumption.Detect(question, claims, contextText(hits))
	assumptions := assumption.Merge(proposal.Assumptions, detected)

	// 4. Assess; an answer with no claims is blocked without a judgment
	assessment := model.StrictAssessment()
	var assessErr error
	if len(claims) > 0 {
		assessment, assessErr = p.assessor.Assess(ctx, question, hits, claims)
		if assessErr != nil && ctx.Err() != nil {
			return nil, fmt.Errorf("assess: %w", assessErr)
		}
	}

	// 5. Decide
	outcome := p.orchestrator.Decide(ctx, compliance.Input{
		Claims:      claims,
		Retrieved:   retrieved,
		Assumptions: assumptions,
		Assessment:  assessment,
		AssessErr:   assessErr,
	})

	decision := outcome.Decision
	if draftViolation != nil {
		decision.Reasons = append([]string{fmt.Sprintf("Drafted answer unusable: %v", draftViolation)}, decision.Reasons...)
	}

	report := &model.Report{
		RequestID:   requestID,
		Question:    question,
		AskedAt:     askedAt,
		Retrieved:   hits,
		Proposal:    proposal,
		Assumptions: assumptions,
		Claims:      outcome.Claims,
		Decision:    decision,
		Models:      p.models,
	}

	logger.Info("decision",
		"status", decision.Status,
		"claims", len(claims),
		"assumptions", len(assumptions),
		"confidence", decision.Assessment.Confidence)

	// 6. Audit
	if p.recorder != nil {
		if err := p.recorder.Record(report); err != nil {
			return nil, fmt.Errorf("audit: %w", err)
		}
	}

	return report, nil
}

// Close releases resources opened by the pipeline
func (p *Pipeline) Close() error {
	var errs []error
	for _, c := range p.closers {
		errs = append(errs, c())
	}
	return errors.Join(errs...)
}

func chunkIDs(hits []model.RetrievedChunk) []string {
	ids := make([]string, len(hits))
	for i, h := range hits {
		ids[i] = h.ID
	}
	return ids
}

func contextText(hits []model.RetrievedChunk) string {
	texts := make([]string, len(hits))
	for i, h := range hits {
		texts[i] = h.Text
	}
	return strings.Join(texts, "\n\n")
}
