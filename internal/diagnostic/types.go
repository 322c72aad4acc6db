package diagnostic

import (
	"encoding/json"
	"strconv"
	"strings"
)

// NeutralScore replaces a missing, unparseable, or exactly-zero risk
// score. A true zero is operationally indistinguishable from an
// upstream failure and must never reach a client as "safe".
const NeutralScore = 50.0

// RiskAssessment is the reconciled risk block of a diagnostic.
type RiskAssessment struct {
	Score           float64  `json:"overall_risk_score"`
	Level           string   `json:"risk_level"`
	CriticalFinding string   `json:"critical_finding"`
	Findings        []string `json:"hallazgos_tecnicos"`
}

// Result is the scoring service's structured output after
// reconciliation. Every field is guaranteed populated: decoding
// substitutes defaults for anything the model omitted or misplaced.
type Result struct {
	Risk            RiskAssessment `json:"risk_assessment"`
	SalesPitch      string         `json:"sales_pitch"`
	MarkdownContent string         `json:"markdown_content"`
	AdminSummary    string         `json:"admin_report_summary"`
	Degraded        bool           `json:"degraded,omitempty"`
}

// Summary picks the best available one-line description for the CRM
// row: admin summary, then risk level, then the critical finding.
func (r *Result) Summary() string {
	for _, s := range []string{r.AdminSummary, r.Risk.Level, r.Risk.CriticalFinding} {
		if strings.TrimSpace(s) != "" {
			return s
		}
	}
	return "N/A"
}

// DecodeResult parses the untrusted model output. The payload is
// duck-typed: the risk block may arrive under risk_assessment or
// lead_assessment, the score as a number or a string, the pitch as a
// string or an object. Absence of any field is not an error.
func DecodeResult(raw []byte) (*Result, error) {
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	return decodeResultTree(doc), nil
}

func decodeResultTree(doc map[string]any) *Result {
	payload := doc
	if nested, ok := doc["diagnostic_payload"].(map[string]any); ok {
		payload = nested
	}

	risk, _ := payload["risk_assessment"].(map[string]any)
	if risk == nil {
		risk, _ = payload["lead_assessment"].(map[string]any)
	}

	res := &Result{
		Risk: RiskAssessment{
			Score:           coerceScore(firstValue(risk, "overall_risk_score", "risk_score")),
			Level:           coerceString(firstValue(risk, "risk_level", "level")),
			CriticalFinding: coerceString(firstValue(risk, "critical_finding", "summary")),
			Findings:        coerceStrings(firstValue(risk, "hallazgos_tecnicos", "technical_findings", "findings")),
		},
		SalesPitch:      coercePitch(firstValue(payload, "sales_pitch"), firstValue(risk, "pitch")),
		MarkdownContent: coerceString(firstValue(payload, "markdown_content", "content")),
		AdminSummary:    decodeAdminSummary(payload, risk),
	}
	if res.Risk.Level == "" {
		res.Risk.Level = "VULNERABILIDAD DETECTADA"
	}
	return res
}

func decodeAdminSummary(payload, risk map[string]any) string {
	if admin, ok := payload["admin_report"].(map[string]any); ok {
		if s := coerceString(admin["summary"]); s != "" {
			return s
		}
	}
	return coerceString(firstValue(risk, "summary", "risk_level", "recommendation"))
}

func firstValue(m map[string]any, keys ...string) any {
	if m == nil {
		return nil
	}
	for _, k := range keys {
		if v, ok := m[k]; ok && v != nil {
			return v
		}
	}
	return nil
}

// coerceScore accepts numbers and numeric strings; zero and garbage
// both collapse to NeutralScore.
func coerceScore(v any) float64 {
	var score float64
	switch t := v.(type) {
	case float64:
		score = t
	case int:
		score = float64(t)
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return NeutralScore
		}
		score = parsed
	default:
		return NeutralScore
	}
	if score <= 0 {
		return NeutralScore
	}
	if score > 100 {
		return 100
	}
	return score
}

func coerceString(v any) string {
	s, _ := v.(string)
	return strings.TrimSpace(s)
}

func coerceStrings(v any) []string {
	items, ok := v.([]any)
	if !ok {
		return nil
	}
	var out []string
	for _, item := range items {
		if s := coerceString(item); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// coercePitch handles models that wrap the pitch in an object with an
// urgent_recommendation field.
func coercePitch(candidates ...any) string {
	for _, v := range candidates {
		switch t := v.(type) {
		case string:
			if s := strings.TrimSpace(t); s != "" {
				return s
			}
		case map[string]any:
			if s := coerceString(t["urgent_recommendation"]); s != "" {
				return s
			}
		}
	}
	return ""
}
