package compliance

import (
	"context"

	"github.com/ppiankov/policygate/internal/model"
	"github.com/ppiankov/policygate/internal/worker"
)

// claimJob runs the binding gates and advisory grounding checks for one claim
type claimJob struct {
	index     int
	claim     model.Claim
	retrieved map[string]string
	o         *Orchestrator
}

type claimResult struct {
	audit model.ClaimAudit
}

func (r *claimResult) GetError() error { return nil }

func (j *claimJob) Execute(ctx context.Context) worker.Result {
	return &claimResult{audit: j.o.checkClaim(j.index, j.claim, j.retrieved)}
}

func (o *Orchestrator) checkClaim(index int, claim model.Claim, retrieved map[string]string) model.ClaimAudit {
	g := o.checker.Check(claim, retrieved)
	return model.ClaimAudit{
		Index:            index,
		Text:             claim.Text,
		Citations:        append([]string(nil), claim.Citations...),
		GateIssues:       o.gates.Run(claim, retrieved),
		UnknownCitations: g.UnknownCitations,
		Grounded:         g.Grounded,
	}
}

// checkClaims audits every claim, in parallel when configured. Audits are
// merged by claim index; a slot left empty by cancellation is filled in
// sequentially so every claim is always checked.
func (o *Orchestrator) checkClaims(ctx context.Context, claims []model.Claim, retrieved map[string]string) []model.ClaimAudit {
	audits := make([]model.ClaimAudit, len(claims))

	if o.config.Workers <= 1 || len(claims) <= 1 {
		for i, c := range claims {
			audits[i] = o.checkClaim(i, c, retrieved)
		}
		return audits
	}

	jobs := make([]worker.Job, len(claims))
	for i, c := range claims {
		jobs[i] = &claimJob{index: i, claim: c, retrieved: retrieved, o: o}
	}

	results := worker.Run(ctx, o.config.Workers, jobs)
	for i := range claims {
		if res, ok := results[i].(*claimResult); ok && res != nil {
			audits[i] = res.audit
		} else {
			audits[i] = o.checkClaim(i, claims[i], retrieved)
		}
	}
	return audits
}
