package model

import (
	"fmt"
	"time"
)

// Report is the complete audit record for one question
type Report struct {
	RequestID string    `json:"request_id"`
	Question  string    `json:"question"`
	AskedAt   time.Time `json:"asked_at"`

	Retrieved   []RetrievedChunk `json:"retrieved"`   // Context handed to both models
	Proposal    AnswerProposal   `json:"proposal"`    // Draft as decoded from the drafting model
	Assumptions []Assumption     `json:"assumptions"` // Declared and detected, deduplicated
	Claims      []ClaimAudit     `json:"claims"`      // Per-claim gate and grounding results

	Decision Decision `json:"decision"`

	Models ModelInfo `json:"models"`
}

// ClaimAudit captures every check run against one claim
type ClaimAudit struct {
	Index            int      `json:"index"`
	Text             string   `json:"text"`
	Citations        []string `json:"citations"`
	GateIssues       []string `json:"gate_issues,omitempty"`       // Binding
	UnknownCitations []string `json:"unknown_citations,omitempty"` // Advisory
	Grounded         bool     `json:"grounded"`                    // Advisory keyword overlap result
}

// Blocked reports whether any hard gate failed for this claim
func (c ClaimAudit) Blocked() bool {
	return len(c.GateIssues) > 0
}

// ModelInfo records which external collaborators produced the report
type ModelInfo struct {
	Provider  string `json:"provider"`
	Model     string `json:"model"`
	Retriever string `json:"retriever"`
}

// Warnings lists advisory findings worth surfacing next to the decision
func (r *Report) Warnings() []string {
	var warnings []string
	for _, c := range r.Claims {
		if len(c.UnknownCitations) > 0 {
			warnings = append(warnings, fmt.Sprintf("claim %d: cites ids not in retrieved context: %v", c.Index, c.UnknownCitations))
		}
		if !c.Grounded && c.HasCitations() {
			warnings = append(warnings, fmt.Sprintf("claim %d: weak keyword overlap with cited text", c.Index))
		}
	}
	return warnings
}

// HasCitations reports whether the audited claim carried any citation
func (c ClaimAudit) HasCitations() bool {
	return len(c.Citations) > 0
}
