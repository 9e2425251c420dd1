// Package decision converts a normalized assessment into the three-state verdict.
package decision

import (
	"fmt"

	"github.com/ppiankov/policygate/internal/model"
)

// Config holds the evaluator thresholds
type Config struct {
	ConfidenceThreshold float64 // below this the answer is not used
	ReviewConfidence    float64 // below this the answer needs review
}

// DefaultConfig returns the stock thresholds
func DefaultConfig() Config {
	return Config{ConfidenceThreshold: 0.5, ReviewConfidence: 0.8}
}

// ConfigFromModel builds evaluator thresholds from the runtime config.
// Values are taken as given; 0 is a valid threshold, not "unset".
func ConfigFromModel(c model.DecisionConfig) Config {
	return Config{
		ConfidenceThreshold: c.ConfidenceThreshold,
		ReviewConfidence:    c.ReviewConfidence,
	}
}

const (
	ReasonNonCompliant = "Policy verification marked answer as non-compliant."
	ReasonCritical     = "Risk level is CRITICAL."
	ReasonNoIssues     = "No issues detected."
)

// Evaluate classifies a. It is pure: the same input always yields the same Decision.
func Evaluate(a model.Assessment, cfg Config) model.Decision {
	var blockReasons []string
	if !a.IsCompliant {
		blockReasons = append(blockReasons, ReasonNonCompliant)
	}
	if a.RiskLevel == model.RiskCritical {
		blockReasons = append(blockReasons, ReasonCritical)
	}
	if a.Confidence < cfg.ConfidenceThreshold {
		blockReasons = append(blockReasons, fmt.Sprintf("Confidence %.2f is below threshold (%.2f).", a.Confidence, cfg.ConfidenceThreshold))
	}
	if len(blockReasons) > 0 {
		return model.Decision{Status: model.StatusBlock, Reasons: blockReasons, Assessment: a.Clone()}
	}

	if a.RiskLevel == model.RiskHigh || a.Confidence < cfg.ReviewConfidence {
		reasons := []string{fmt.Sprintf("Risk level is High or confidence is below %.2f. Needs human review.", cfg.ReviewConfidence)}
		reasons = append(reasons, a.Issues...)
		return model.Decision{Status: model.StatusReview, Reasons: reasons, Assessment: a.Clone()}
	}

	return model.Decision{Status: model.StatusSafe, Reasons: []string{ReasonNoIssues}, Assessment: a.Clone()}
}
