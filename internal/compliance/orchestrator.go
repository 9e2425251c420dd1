// Package compliance sequences the verification components into one final
// decision with strict override precedence.
package compliance

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ppiankov/policygate/internal/assumption"
	"github.com/ppiankov/policygate/internal/decision"
	"github.com/ppiankov/policygate/internal/gate"
	"github.com/ppiankov/policygate/internal/grounding"
	"github.com/ppiankov/policygate/internal/model"
)

// IssueNoClaims blocks an answer that offers nothing the gates can verify
const IssueNoClaims = "NO_CLAIMS"

// Config wires the component thresholds
type Config struct {
	Gate       gate.Config
	MinOverlap int
	Decision   decision.Config
	Workers    int // per-claim checks run in parallel when > 1
}

// ConfigFromModel builds the orchestrator config from the runtime config
func ConfigFromModel(c *model.Config) Config {
	return Config{
		Gate:       gate.ConfigFromModel(c.Gates),
		MinOverlap: c.Grounding.MinOverlap,
		Decision:   decision.ConfigFromModel(c.Decision),
		Workers:    c.Concurrency.GateWorkers,
	}
}

// Input is everything the orchestrator needs for one answer
type Input struct {
	Claims      []model.Claim
	Retrieved   map[string]string // chunk id → text
	Assumptions []model.Assumption
	Assessment  model.Assessment // normalized semantic judgment
	AssessErr   error            // non-nil when the judgment could not be obtained or decoded
}

// Outcome is the final decision plus the per-claim trail behind it
type Outcome struct {
	Decision       model.Decision
	Claims         []model.ClaimAudit
	Classification assumption.Classification
}

// Orchestrator applies the precedence Assumption-BLOCK > HardGate-BLOCK >
// Assumption-REVIEW > Evaluator
type Orchestrator struct {
	config  Config
	gates   *gate.Engine
	checker *grounding.Checker
	logger  *slog.Logger
}

// NewOrchestrator creates an orchestrator; a nil logger uses slog.Default()
func NewOrchestrator(config Config, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		config:  config,
		gates:   gate.NewEngine(config.Gate),
		checker: grounding.NewChecker(config.MinOverlap),
		logger:  logger,
	}
}

// Decide produces the final decision. The input assessment is never
// modified; the decision carries a derived copy that is at least as strict.
func (o *Orchestrator) Decide(ctx context.Context, in Input) Outcome {
	audits := o.checkClaims(ctx, in.Claims, in.Retrieved)
	class := assumption.Classify(in.Assumptions)

	var gateReasons []string
	var gateIssues []string
	for _, a := range audits {
		for _, issue := range a.GateIssues {
			gateReasons = append(gateReasons, fmt.Sprintf("claim[%d]: %s", a.Index, issue))
			gateIssues = append(gateIssues, issue)
		}
		if len(a.UnknownCitations) > 0 {
			o.logger.Warn("claim cites ids outside retrieved context", "claim", a.Index, "ids", a.UnknownCitations)
		}
		if a.HasCitations() && !a.Grounded {
			o.logger.Warn("weak citation relevance", "claim", a.Index)
		}
	}
	if len(in.Claims) == 0 {
		gateReasons = append(gateReasons, "answer: "+IssueNoClaims)
		gateIssues = append(gateIssues, IssueNoClaims)
	}

	derived := in.Assessment.
		WithConfidenceCap(class.ConfidenceCap).
		WithIssues(gateIssues...).
		WithIssues(class.Issues...)
	if len(gateIssues) > 0 || class.Tier == assumption.TierBlock || in.AssessErr != nil {
		derived = derived.NonCompliant()
	}

	out := Outcome{Claims: audits, Classification: class}

	switch {
	case class.Tier == assumption.TierBlock:
		reasons := blockReasons(in.Assumptions)
		reasons = append(reasons, gateReasons...)
		out.Decision = model.Decision{Status: model.StatusBlock, Reasons: reasons, Assessment: derived}

	case len(gateReasons) > 0:
		out.Decision = model.Decision{Status: model.StatusBlock, Reasons: gateReasons, Assessment: derived}

	case in.AssessErr != nil:
		out.Decision = model.Decision{
			Status:     model.StatusBlock,
			Reasons:    []string{fmt.Sprintf("Semantic assessment unusable: %v", in.AssessErr)},
			Assessment: derived,
		}

	case class.Tier == assumption.TierReview:
		reasons := []string{"Assumptions require human review."}
		reasons = append(reasons, class.Issues...)
		out.Decision = model.Decision{Status: model.StatusReview, Reasons: reasons, Assessment: derived}

	default:
		out.Decision = decision.Evaluate(derived, o.config.Decision)
	}

	o.logger.Debug("decision",
		"status", out.Decision.Status,
		"tier", class.Tier,
		"gate_issues", len(gateIssues),
		"confidence", out.Decision.Assessment.Confidence)
	return out
}

// blockReasons lists the missing-context assumptions behind a BLOCK tier
func blockReasons(assumptions []model.Assumption) []string {
	var reasons []string
	for _, a := range assumptions {
		if a.Type == model.AssumptionMissingContext {
			reasons = append(reasons, fmt.Sprintf("Missing context assumption: %s", a.Text))
		}
	}
	if len(reasons) == 0 {
		reasons = []string{"Assumptions indicate missing context."}
	}
	return reasons
}
