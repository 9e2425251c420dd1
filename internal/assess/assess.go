// Package assess adapts the external semantic judgment into a normalized
// model.Assessment whose invariants hold whatever the judge returns.
package assess

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/ppiankov/policygate/internal/model"
	"github.com/ppiankov/policygate/internal/schema"
)

// Issue codes added by the assessor itself
const (
	IssueUnsupportedClaim      = "UNSUPPORTED_CLAIM"
	IssueSchemaViolation       = "ASSESSMENT_SCHEMA_VIOLATION"
	IssueAssessmentUnavailable = "ASSESSMENT_UNAVAILABLE"
)

const (
	issuesConfidenceCap       = 0.84 // strictly below 0.85
	nonCompliantConfidenceCap = 0.8
)

// Judge returns the raw structured judgment for a request
type Judge interface {
	Judge(ctx context.Context, req model.JudgeRequest) (string, error)
}

// Assessor runs the judge and normalizes its verdict
type Assessor struct {
	judge  Judge
	logger *slog.Logger
}

// NewAssessor creates an assessor; a nil logger uses slog.Default()
func NewAssessor(judge Judge, logger *slog.Logger) *Assessor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Assessor{judge: judge, logger: logger}
}

// Assess returns the normalized assessment. On failure it returns the strict
// default assessment tagged with the failure code, together with the error.
// A *schema.SchemaViolation is returned as-is so callers can errors.As it.
func (a *Assessor) Assess(ctx context.Context, question string, chunks []model.RetrievedChunk, claims []model.Claim) (model.Assessment, error) {
	raw, err := a.judge.Judge(ctx, model.JudgeRequest{
		Question: question,
		Context:  chunks,
		Claims:   claims,
	})
	if err != nil {
		return model.StrictAssessment(IssueAssessmentUnavailable), fmt.Errorf("semantic judgment failed: %w", err)
	}

	decoded, err := schema.DecodeAssessment(raw)
	if err != nil {
		var violation *schema.SchemaViolation
		if errors.As(err, &violation) {
			a.logger.Warn("assessment rejected", "reason", violation.Reason, "got_version", violation.Got)
		}
		return model.StrictAssessment(IssueSchemaViolation), err
	}

	result := Normalize(decoded)
	a.logger.Debug("assessment normalized",
		"risk", result.RiskLevel,
		"confidence", result.Confidence,
		"compliant", result.IsCompliant,
		"issues", len(result.Issues))
	return result, nil
}

// Normalize enforces the assessment invariants on a decoded judgment:
// known risk level, confidence in [0,1], unsupported claims force
// non-compliance, and the self-reported confidence never exceeds what the
// issue list and compliance flag allow.
func Normalize(raw schema.RawAssessment) model.Assessment {
	out := model.Assessment{
		Issues:      []string{},
		RiskLevel:   model.ParseRiskLevel(strings.ToLower(strings.TrimSpace(raw.RiskLevel))),
		Confidence:  clamp01(raw.Confidence),
		IsCompliant: raw.IsCompliant,
	}
	out = out.WithIssues(trimAll(raw.Issues)...)

	for _, check := range raw.ClaimChecks {
		if check.Supported {
			continue
		}
		out = out.NonCompliant()
		codes := trimAll(check.Issues)
		if len(codes) == 0 {
			codes = []string{IssueUnsupportedClaim}
		}
		out = out.WithIssues(codes...)
	}

	if len(out.Issues) > 0 {
		out = out.WithConfidenceCap(issuesConfidenceCap)
	}
	if !out.IsCompliant {
		out = out.WithConfidenceCap(nonCompliantConfidenceCap)
	}
	return out
}

func clamp01(f float64) float64 {
	switch {
	case math.IsNaN(f), f < 0:
		return 0
	case f > 1:
		return 1
	default:
		return f
	}
}

func trimAll(codes []string) []string {
	out := make([]string, 0, len(codes))
	for _, c := range codes {
		if c = strings.TrimSpace(c); c != "" {
			out = append(out, c)
		}
	}
	return out
}
