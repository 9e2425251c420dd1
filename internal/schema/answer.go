package schema

import (
	"encoding/json"
	"strings"

	"github.com/ppiankov/policygate/internal/model"
)

// DecodeProposal decodes a drafting response in the policygate.answer.v1 format:
//
//	{"schema_version": "policygate.answer.v1",
//	 "claims": [{"text": "...", "citations": ["policy:sec0001"]}],
//	 "assumptions": [{"type": "A1_SCOPE", "impact": "low", "text": "..."}],
//	 "final_answer": "..."}
//
// A malformed claim degrades to an empty claim rather than failing the response.
func DecodeProposal(content string) (model.AnswerProposal, error) {
	fields, err := envelope(content, "answer", AnswerVersion)
	if err != nil {
		return model.AnswerProposal{}, err
	}

	var p model.AnswerProposal
	for _, raw := range asObjects(fields["claims"]) {
		p.Claims = append(p.Claims, decodeClaim(raw))
	}
	for _, raw := range asObjects(fields["assumptions"]) {
		if a, ok := decodeAssumption(raw); ok {
			p.Assumptions = append(p.Assumptions, a)
		}
	}
	p.FinalAnswer, _ = asString(fields["final_answer"])

	return p, nil
}

func decodeClaim(raw json.RawMessage) model.Claim {
	obj, ok := asObject(raw)
	if !ok {
		return model.Claim{}
	}

	var c model.Claim
	c.Text, _ = asString(obj["text"])

	if cites, ok := asStrings(obj["citations"]); ok {
		c.Citations = cleanCitations(cites)
	} else if single, ok := asString(obj["citations"]); ok {
		c.Citations = cleanCitations([]string{single})
	}
	return c
}

// cleanCitations trims ids and drops blanks, keeping model order
func cleanCitations(ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(strings.Trim(strings.TrimSpace(id), "[]"))
		if id != "" {
			out = append(out, id)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// decodeAssumption accepts the v1 object form; a bare string becomes an UNKNOWN assumption
func decodeAssumption(raw json.RawMessage) (model.Assumption, bool) {
	if s, ok := asString(raw); ok {
		s = strings.TrimSpace(s)
		if s == "" {
			return model.Assumption{}, false
		}
		return model.Assumption{Type: model.AssumptionUnknown, Impact: model.ImpactMedium, Text: s}, true
	}

	obj, ok := asObject(raw)
	if !ok {
		return model.Assumption{}, false
	}

	typ, _ := asString(obj["type"])
	impact, _ := asString(obj["impact"])
	text, _ := asString(obj["text"])

	typ = strings.ToUpper(strings.TrimSpace(typ))
	if typ == "" {
		typ = string(model.AssumptionUnknown)
	}

	return model.Assumption{
		Type:   model.AssumptionType(typ),
		Impact: model.ParseImpact(strings.ToLower(strings.TrimSpace(impact))),
		Text:   strings.TrimSpace(text),
	}, true
}
