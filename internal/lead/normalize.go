package lead

import (
	"fmt"
	"strings"
)

// DecodeSubmission reconciles an untyped intake payload into a
// canonical Submission. It never fails on shape problems: unknown keys
// are ignored and absent fields resolve to the sentinel, so the result
// is always safe to validate, log, and render.
func DecodeSubmission(root map[string]any) *Submission {
	container := lookupMap(root, metadataContainers)
	if container == nil {
		container = map[string]any{}
	}

	meta := Metadata{}
	for _, f := range metadataFields {
		value := orSentinel(lookupString(container, f.paths))
		switch f.name {
		case "company":
			meta.Company = value
		case "contact":
			meta.Contact = value
		case "role":
			meta.Role = value
		case "email":
			meta.Email = value
		case "phone":
			meta.Phone = value
		case "niche":
			meta.Niche = value
		case "billing":
			meta.BillingRange = value
		case "activity":
			meta.Activity = value
		}
	}

	rfcRaw := lookupString(container, rfcContainerPaths)
	if rfcRaw == "" {
		rfcRaw = lookupString(root, rfcRootPaths)
	}
	meta.RFC = orSentinel(SanitizeRFC(rfcRaw))

	if fin := lookupMap(container, []path{{"financial_data"}, {"financialData"}}); fin != nil {
		meta.FinancialData = fin
	}

	return &Submission{
		Metadata:  meta,
		Responses: normalizeResponses(root["responses"]),
	}
}

// normalizeResponses accepts bare strings (question only) or objects
// with drifting key names, and synthesizes a Q<index> label when only
// an index survives.
func normalizeResponses(raw any) []Response {
	items, ok := raw.([]any)
	if !ok {
		return nil
	}
	var out []Response
	for _, item := range items {
		switch t := item.(type) {
		case string:
			if q := strings.TrimSpace(t); q != "" {
				out = append(out, Response{Question: q, Answer: Sentinel})
			}
		case map[string]any:
			r, ok := normalizeResponseObject(t)
			if ok {
				out = append(out, r)
			}
		}
	}
	return out
}

func normalizeResponseObject(item map[string]any) (Response, bool) {
	q := lookupString(item, []path{{"question"}, {"q"}, {"text"}})
	if q == "" {
		if idx := lookupString(item, []path{{"q_index"}, {"num"}, {"id"}}); idx != "" {
			q = "Q" + idx
		}
	}
	a := lookupString(item, []path{{"answer"}, {"a"}, {"response"}, {"value"}})
	if q == "" && a == "" {
		return Response{}, false
	}

	r := Response{Question: orSentinel(q), Answer: orSentinel(a)}
	if idx, ok := item["q_index"]; ok {
		r.QIndex = idx
	}
	if cat := lookupString(item, []path{{"category_id"}, {"cat"}}); cat != "" {
		r.CategoryID = cat
	}
	return r, true
}

// Validate enforces the required-field gate and the data-quality
// floor. It runs before any external call.
func (s *Submission) Validate() error {
	var missing []string
	if s.Metadata.RFC == Sentinel || len(s.Metadata.RFC) < MinRFCLength {
		missing = append(missing, fmt.Sprintf("RFC válido (min %d caracteres)", MinRFCLength))
	}
	if s.Metadata.Activity == Sentinel {
		missing = append(missing, "Giro / Actividad Principal")
	}
	if s.Metadata.Niche == Sentinel {
		missing = append(missing, "Nicho")
	}
	if s.Metadata.BillingRange == Sentinel {
		missing = append(missing, "Rango de Facturación")
	}
	if len(s.Responses) == 0 {
		missing = append(missing, "Respuestas del cuestionario")
	} else if s.AnsweredCount() < MinAnsweredResponses {
		missing = append(missing, fmt.Sprintf("Cuestionario incompleto (mínimo %d respuestas)", MinAnsweredResponses))
	}
	if len(missing) > 0 {
		return &ValidationError{Missing: missing}
	}
	return nil
}
