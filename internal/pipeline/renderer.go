package pipeline

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ppiankov/policygate/internal/model"
)

// Renderer writes reports as JSON, Markdown, or a terminal summary
type Renderer struct {
	includeFooter bool
}

// NewRenderer creates a renderer
func NewRenderer(includeFooter bool) *Renderer {
	return &Renderer{includeFooter: includeFooter}
}

// RenderJSON writes the full report to path
func (r *Renderer) RenderJSON(report *model.Report, path string) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	return writeFile(path, append(data, '\n'))
}

// RenderMarkdown writes a reviewer-oriented Markdown report to path
func (r *Renderer) RenderMarkdown(report *model.Report, path string) error {
	return writeFile(path, []byte(r.Markdown(report)))
}

// Markdown formats the report for human review
func (r *Renderer) Markdown(report *model.Report) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Policy Answer Review\n\n")
	fmt.Fprintf(&b, "**Question:** %s\n\n", report.Question)
	fmt.Fprintf(&b, "**Decision:** `%s`\n\n", report.Decision.Status)
	fmt.Fprintf(&b, "- Request: `%s`\n", report.RequestID)
	if !report.AskedAt.IsZero() {
		fmt.Fprintf(&b, "- Asked: %s\n", report.AskedAt.Format("2006-01-02 15:04:05 MST"))
	}
	a := report.Decision.Assessment
	fmt.Fprintf(&b, "- Risk: %s, confidence %.2f, compliant %v\n\n", a.RiskLevel, a.Confidence, a.IsCompliant)

	b.WriteString("## Reasons\n\n")
	for _, reason := range report.Decision.Reasons {
		fmt.Fprintf(&b, "- %s\n", reason)
	}
	b.WriteString("\n")

	if report.Proposal.FinalAnswer != "" {
		b.WriteString("## Drafted Answer\n\n")
		for _, line := range strings.Split(report.Proposal.FinalAnswer, "\n") {
			fmt.Fprintf(&b, "> %s\n", line)
		}
		b.WriteString("\n")
	}

	if len(report.Claims) > 0 {
		b.WriteString("## Claims\n\n")
		b.WriteString("| # | Claim | Citations | Gate issues | Grounded |\n")
		b.WriteString("|---|-------|-----------|-------------|----------|\n")
		for _, c := range report.Claims {
			fmt.Fprintf(&b, "| %d | %s | %s | %s | %s |\n",
				c.Index,
				cell(c.Text),
				cell(strings.Join(c.Citations, ", ")),
				cell(strings.Join(c.GateIssues, "; ")),
				yesNo(c.Grounded))
		}
		b.WriteString("\n")
	}

	if len(report.Assumptions) > 0 {
		b.WriteString("## Assumptions\n\n")
		for _, as := range report.Assumptions {
			fmt.Fprintf(&b, "- **%s** (%s, %s): %s\n", as.Type, as.Impact, as.Source, as.Text)
		}
		b.WriteString("\n")
	}

	if warnings := report.Warnings(); len(warnings) > 0 {
		b.WriteString("## Warnings\n\n")
		for _, w := range warnings {
			fmt.Fprintf(&b, "- %s\n", w)
		}
		b.WriteString("\n")
	}

	if len(report.Retrieved) > 0 {
		b.WriteString("## Retrieved Excerpts\n\n")
		for _, h := range report.Retrieved {
			fmt.Fprintf(&b, "- `%s` (distance %.4f): %s\n", h.ID, h.Distance, preview(h.Text, 220))
		}
		b.WriteString("\n")
	}

	if r.includeFooter {
		b.WriteString("---\n\n")
		fmt.Fprintf(&b, "_Generated by policygate. Answers marked `%s` or `%s` must not reach users without human review._\n",
			model.StatusReview, model.StatusBlock)
	}

	return b.String()
}

// RenderSummary writes the short terminal summary
func (r *Renderer) RenderSummary(w io.Writer, report *model.Report) error {
	var b strings.Builder

	fmt.Fprintf(&b, "Decision: %s\n", report.Decision.Status)
	for _, reason := range report.Decision.Reasons {
		fmt.Fprintf(&b, "  - %s\n", reason)
	}

	for _, c := range report.Claims {
		if len(c.GateIssues) == 0 {
			continue
		}
		fmt.Fprintf(&b, "Claim %d: %s\n", c.Index, preview(c.Text, 120))
		for _, issue := range c.GateIssues {
			fmt.Fprintf(&b, "  ✗ %s\n", issue)
		}
	}

	for _, warning := range report.Warnings() {
		fmt.Fprintf(&b, "⚠ %s\n", warning)
	}

	if report.Decision.Status == model.StatusSafe && report.Proposal.FinalAnswer != "" {
		fmt.Fprintf(&b, "\n%s\n", report.Proposal.FinalAnswer)
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func writeFile(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func cell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.Join(strings.Fields(s), " ")
}

func preview(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
