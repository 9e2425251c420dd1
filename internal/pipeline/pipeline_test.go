package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/policygate/internal/assess"
	"github.com/ppiankov/policygate/internal/decision"
	"github.com/ppiankov/policygate/internal/model"
	"github.com/ppiankov/policygate/internal/schema"
)

type fakeRetriever struct {
	hits []model.RetrievedChunk
	err  error
}

func (f *fakeRetriever) Retrieve(context.Context, string, int) ([]model.RetrievedChunk, error) {
	return f.hits, f.err
}

type fakeDrafter struct {
	proposal model.AnswerProposal
	err      error
}

func (f *fakeDrafter) Draft(context.Context, string, []model.RetrievedChunk) (model.AnswerProposal, error) {
	return f.proposal, f.err
}

type fakeAssessor struct {
	assessment model.Assessment
	err        error
	calls      int
	claims     []model.Claim
}

func (f *fakeAssessor) Assess(_ context.Context, _ string, _ []model.RetrievedChunk, claims []model.Claim) (model.Assessment, error) {
	f.calls++
	f.claims = claims
	return f.assessment, f.err
}

type fakeRecorder struct {
	reports []*model.Report
	err     error
}

func (f *fakeRecorder) Record(r *model.Report) error {
	f.reports = append(f.reports, r)
	return f.err
}

const vacationText = "Full-time employees receive 15 days of vacation per calendar year."

func vacationHits() []model.RetrievedChunk {
	return []model.RetrievedChunk{
		{Chunk: model.Chunk{ID: "hr:sec0001", Text: vacationText}, Distance: 0.1},
		{Chunk: model.Chunk{ID: "hr:sec0001", Text: "duplicate"}, Distance: 0.2},
		{Chunk: model.Chunk{ID: "hr:sec0002", Text: "Unused vacation expires on December 31."}, Distance: 0.3},
	}
}

func cleanProposal() model.AnswerProposal {
	return model.AnswerProposal{
		Claims:      []model.Claim{{Text: vacationText, Citations: []string{"hr:sec0001"}}},
		FinalAnswer: "You receive 15 days of vacation per calendar year.",
	}
}

func compliantAssessment() model.Assessment {
	return model.Assessment{RiskLevel: model.RiskLow, Confidence: 0.95, IsCompliant: true}
}

type fixture struct {
	retriever *fakeRetriever
	drafter   *fakeDrafter
	assessor  *fakeAssessor
	recorder  *fakeRecorder
}

func newFixture() *fixture {
	return &fixture{
		retriever: &fakeRetriever{hits: vacationHits()},
		drafter:   &fakeDrafter{proposal: cleanProposal()},
		assessor:  &fakeAssessor{assessment: compliantAssessment()},
		recorder:  &fakeRecorder{},
	}
}

func (f *fixture) pipeline(cfg *model.Config) *Pipeline {
	if cfg == nil {
		cfg = model.DefaultConfig()
	}
	return New(cfg, Deps{
		Retriever: f.retriever,
		Drafter:   f.drafter,
		Assessor:  f.assessor,
		Recorder:  f.recorder,
		Models:    model.ModelInfo{Provider: "fake", Model: "m", Retriever: "local"},
	})
}

func TestPipeline_Ask_Safe(t *testing.T) {
	f := newFixture()

	report, err := f.pipeline(nil).Ask(context.Background(), "  How many vacation days do I get?  ")
	require.NoError(t, err)

	assert.Equal(t, model.StatusSafe, report.Decision.Status)
	assert.Equal(t, []string{decision.ReasonNoIssues}, report.Decision.Reasons)
	assert.Equal(t, "How many vacation days do I get?", report.Question)

	_, err = uuid.Parse(report.RequestID)
	assert.NoError(t, err)
	assert.False(t, report.AskedAt.IsZero())

	require.Len(t, report.Retrieved, 2, "duplicate ids are dropped")
	require.Len(t, report.Claims, 1)
	assert.Empty(t, report.Claims[0].GateIssues)
	assert.True(t, report.Claims[0].Grounded)
	assert.Equal(t, "fake", report.Models.Provider)

	assert.Equal(t, 1, f.assessor.calls)
	require.Len(t, f.recorder.reports, 1)
	assert.Same(t, report, f.recorder.reports[0])
}

func TestPipeline_Ask_TopKCapsRetrieval(t *testing.T) {
	f := newFixture()
	cfg := model.DefaultConfig()
	cfg.Retrieval.TopK = 1

	report, err := f.pipeline(cfg).Ask(context.Background(), "vacation days")
	require.NoError(t, err)
	require.Len(t, report.Retrieved, 1)
	assert.Equal(t, "hr:sec0001", report.Retrieved[0].ID)
}

func TestPipeline_Ask_GateFailureBlocks(t *testing.T) {
	f := newFixture()
	f.drafter.proposal.Claims = []model.Claim{{Text: "Vacation is 20 days.", Citations: []string{"hr:sec0001"}}}

	report, err := f.pipeline(nil).Ask(context.Background(), "How many vacation days?")
	require.NoError(t, err)

	assert.Equal(t, model.StatusBlock, report.Decision.Status)
	assert.Equal(t, []string{"claim[0]: UNSUPPORTED_NUMBER:missing=['20']"}, report.Decision.Reasons)
	assert.False(t, report.Decision.Assessment.IsCompliant)
}

func TestPipeline_Ask_DraftSchemaViolationBlocks(t *testing.T) {
	f := newFixture()
	f.drafter.err = &schema.SchemaViolation{Schema: "answer", Expected: schema.AnswerVersion, Reason: "missing schema_version"}

	report, err := f.pipeline(nil).Ask(context.Background(), "How many vacation days?")
	require.NoError(t, err)

	assert.Equal(t, model.StatusBlock, report.Decision.Status)
	require.GreaterOrEqual(t, len(report.Decision.Reasons), 2)
	assert.True(t, strings.HasPrefix(report.Decision.Reasons[0], "Drafted answer unusable: answer schema violation"))
	assert.Contains(t, report.Decision.Reasons, "answer: NO_CLAIMS")
	assert.Equal(t, 0, f.assessor.calls, "no claims means no judgment call")
}

func TestPipeline_Ask_DraftTransportErrorFails(t *testing.T) {
	f := newFixture()
	f.drafter.err = errors.New("draft answer: connection refused")

	_, err := f.pipeline(nil).Ask(context.Background(), "q?")
	require.Error(t, err)
	assert.Empty(t, f.recorder.reports)
}

func TestPipeline_Ask_RetrieveErrorFails(t *testing.T) {
	f := newFixture()
	f.retriever.err = errors.New("index unavailable")

	_, err := f.pipeline(nil).Ask(context.Background(), "q?")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "retrieve")
}

func TestPipeline_Ask_FallbackClaimsFromFinalAnswer(t *testing.T) {
	f := newFixture()
	f.drafter.proposal = model.AnswerProposal{
		FinalAnswer: "Full-time employees receive 15 days of vacation per calendar year [hr:sec0001].",
	}

	report, err := f.pipeline(nil).Ask(context.Background(), "How many vacation days?")
	require.NoError(t, err)

	require.Len(t, f.assessor.claims, 1)
	assert.Equal(t, []string{"hr:sec0001"}, f.assessor.claims[0].Citations)
	assert.Equal(t, model.StatusSafe, report.Decision.Status)
	assert.Empty(t, report.Proposal.Claims, "proposal is kept as drafted")
	require.Len(t, report.Claims, 1)
}

func TestPipeline_Ask_UncitedFallbackBlocks(t *testing.T) {
	f := newFixture()
	f.drafter.proposal = model.AnswerProposal{FinalAnswer: "You get plenty of vacation."}

	report, err := f.pipeline(nil).Ask(context.Background(), "How many vacation days?")
	require.NoError(t, err)
	assert.Equal(t, model.StatusBlock, report.Decision.Status)
	assert.Equal(t, []string{"claim[0]: MISSING_CITATIONS"}, report.Decision.Reasons)
}

func TestPipeline_Ask_AssessmentFailureBlocks(t *testing.T) {
	f := newFixture()
	f.assessor.assessment = model.StrictAssessment(assess.IssueSchemaViolation)
	f.assessor.err = &schema.SchemaViolation{Schema: "assessment", Expected: schema.AssessmentVersion, Reason: "no JSON object in response"}

	report, err := f.pipeline(nil).Ask(context.Background(), "How many vacation days?")
	require.NoError(t, err)

	assert.Equal(t, model.StatusBlock, report.Decision.Status)
	require.Len(t, report.Decision.Reasons, 1)
	assert.Contains(t, report.Decision.Reasons[0], "Semantic assessment unusable")
	assert.Contains(t, report.Decision.Assessment.Issues, assess.IssueSchemaViolation)
}

func TestPipeline_Ask_CancelledDuringAssessmentFails(t *testing.T) {
	f := newFixture()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	f.assessor.err = context.Canceled

	_, err := f.pipeline(nil).Ask(ctx, "How many vacation days?")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPipeline_Ask_MissingContextAssumptionBlocks(t *testing.T) {
	f := newFixture()
	f.drafter.proposal.Assumptions = []model.Assumption{{
		Type:   model.AssumptionMissingContext,
		Impact: model.ImpactHigh,
		Text:   "Part-time accrual is not covered.",
		Source: "model",
	}}

	report, err := f.pipeline(nil).Ask(context.Background(), "How many vacation days?")
	require.NoError(t, err)

	assert.Equal(t, model.StatusBlock, report.Decision.Status)
	assert.Equal(t, []string{"Missing context assumption: Part-time accrual is not covered."}, report.Decision.Reasons)
	assert.LessOrEqual(t, report.Decision.Assessment.Confidence, 0.7)
	require.Len(t, report.Assumptions, 1)
}

func TestPipeline_Ask_DetectsScopeAssumption(t *testing.T) {
	f := newFixture()
	f.retriever.hits = append(f.retriever.hits, model.RetrievedChunk{
		Chunk: model.Chunk{ID: "hr:sec0003", Text: "This policy applies to full-time staff only."},
	})

	report, err := f.pipeline(nil).Ask(context.Background(), "How many vacation days?")
	require.NoError(t, err)

	require.Len(t, report.Assumptions, 1)
	assert.Equal(t, model.AssumptionScope, report.Assumptions[0].Type)
	assert.LessOrEqual(t, report.Decision.Assessment.Confidence, 0.85)
	assert.Equal(t, model.StatusSafe, report.Decision.Status)
}

func TestPipeline_Ask_AuditFailure(t *testing.T) {
	f := newFixture()
	f.recorder.err = errors.New("disk full")

	_, err := f.pipeline(nil).Ask(context.Background(), "How many vacation days?")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "audit")
}

func TestPipeline_Ask_EmptyQuestion(t *testing.T) {
	_, err := newFixture().pipeline(nil).Ask(context.Background(), "   ")
	assert.Error(t, err)
}

func TestPipeline_Ask_NoRecorder(t *testing.T) {
	f := newFixture()
	p := New(model.DefaultConfig(), Deps{Retriever: f.retriever, Drafter: f.drafter, Assessor: f.assessor})

	report, err := p.Ask(context.Background(), "How many vacation days?")
	require.NoError(t, err)
	assert.Equal(t, model.StatusSafe, report.Decision.Status)
	assert.NoError(t, p.Close())
}

func TestNewFromConfig_RequiresKey(t *testing.T) {
	cfg := model.DefaultConfig()
	cfg.Retrieval.DataDir = t.TempDir()

	_, err := NewFromConfig(cfg, Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "API key")
}

func TestNewFromConfig_InvalidConfig(t *testing.T) {
	cfg := model.DefaultConfig()
	cfg.Decision.ConfidenceThreshold = 2

	_, err := NewFromConfig(cfg, Options{})
	assert.Error(t, err)
}

func TestNewLimiter_LocalProviderUnlimited(t *testing.T) {
	cfg := model.DefaultConfig()
	cfg.LLM.Provider = "ollama"
	cfg.RateLimiting.RequestsPerSecond = 0.001
	cfg.RateLimiting.BurstSize = 1

	limiter := NewLimiter(cfg)
	for i := 0; i < 3; i++ {
		assert.True(t, limiter.Allow("http://localhost:11434"))
	}
}
