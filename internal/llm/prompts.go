package llm

import (
	"fmt"
	"strings"

	"github.com/ppiankov/policygate/internal/model"
	"github.com/ppiankov/policygate/internal/schema"
)

const answerSystemPrompt = `You are the Answer Agent for enterprise policies.

You will receive a user question and a set of policy excerpts, each with an ID such as "vacation-policy:sec0002".

Rules:
1. Only rely on the given excerpts. If they are not enough, say so and declare an A3_MISSING_CONTEXT assumption.
2. Split the answer into claims. One claim states exactly one policy rule; never bundle rules with "and", "including" or "as well as".
3. Every claim cites the IDs of the excerpts that state it, copied exactly.
4. Copy numbers, dates and named schedules exactly as written in the cited excerpt. Never mention an appendix, table or schedule the excerpt does not name.
5. Declare every assumption you had to make, typed as:
   - A1_SCOPE: the person asking is assumed to fall inside the policy's applicability
   - A2_INTERPRETATION: ambiguous wording was read one particular way
   - A3_MISSING_CONTEXT: the excerpts lack something the answer needs

Return ONLY valid JSON with this schema:
{
  "schema_version": "` + schema.AnswerVersion + `",
  "claims": [{"text": "...", "citations": ["policyX:secY"]}],
  "assumptions": [{"type": "A1_SCOPE" | "A2_INTERPRETATION" | "A3_MISSING_CONTEXT", "impact": "low" | "medium" | "high", "text": "..."}],
  "final_answer": "..."
}`

const policySystemPrompt = `You are the Policy Verification Agent.

You will receive the user question, the policy excerpts and a proposed answer split into numbered claims with citations.

Your job:
1. For each claim, check whether it is fully supported by the excerpts it cites.
2. Identify unsupported statements or hallucinations.
3. Identify risks or ambiguities relevant to compliance (e.g. employee rights, data privacy).
4. Decide whether the answer is compliant and safe to use as-is.

Return ONLY valid JSON with this schema:
{
  "schema_version": "` + schema.AssessmentVersion + `",
  "issues": ["ISSUE_CODE", "..."],
  "risk_level": "low" | "medium" | "high" | "critical",
  "confidence": 0.0-1.0,
  "is_compliant": true | false,
  "claim_checks": [{"claim_index": 0, "supported": true | false, "issues": ["ISSUE_CODE"]}]
}

Be strict. If there is doubt, lower the confidence and/or compliance.`

// FormatContext renders retrieved chunks as "[id] text" blocks
func FormatContext(chunks []model.RetrievedChunk) string {
	if len(chunks) == 0 {
		return "(no policy excerpts were retrieved)"
	}
	var b strings.Builder
	for i, c := range chunks {
		if i > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "[%s]\n%s", c.ID, strings.TrimSpace(c.Text))
	}
	return b.String()
}

// BuildAnswerPrompt builds the user prompt for drafting
func BuildAnswerPrompt(question string, chunks []model.RetrievedChunk) string {
	return fmt.Sprintf("Question:\n%s\n\nPolicy excerpts:\n%s\n\nMake sure the JSON is properly formatted.",
		strings.TrimSpace(question), FormatContext(chunks))
}

// BuildPolicyPrompt builds the user prompt for the semantic judgment
func BuildPolicyPrompt(req model.JudgeRequest) string {
	var claims strings.Builder
	if len(req.Claims) == 0 {
		claims.WriteString("(the answer contains no claims)")
	}
	for i, c := range req.Claims {
		cites := strings.Join(c.Citations, ", ")
		if cites == "" {
			cites = "none"
		}
		fmt.Fprintf(&claims, "%d. %s (citations: %s)\n", i, strings.TrimSpace(c.Text), cites)
	}

	return fmt.Sprintf("Question:\n%s\n\nPolicy excerpts:\n%s\n\nProposed answer claims:\n%s",
		strings.TrimSpace(req.Question), FormatContext(req.Context), claims.String())
}
