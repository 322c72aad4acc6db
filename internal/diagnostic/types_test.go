package diagnostic

import "testing"

func TestDecodeResultCanonical(t *testing.T) {
	raw := `{
		"risk_assessment": {
			"overall_risk_score": 82,
			"risk_level": "CRÍTICO",
			"critical_finding": "Activos expuestos",
			"hallazgos_tecnicos": ["Sin holding", "Inmuebles en la operadora"]
		},
		"sales_pitch": "Blindaje urgente",
		"markdown_content": "### Detalle",
		"admin_report": {"summary": "Lead caliente"}
	}`
	res, err := DecodeResult([]byte(raw))
	if err != nil {
		t.Fatalf("DecodeResult: %v", err)
	}
	if res.Risk.Score != 82 {
		t.Errorf("score = %v, want 82", res.Risk.Score)
	}
	if res.Risk.Level != "CRÍTICO" {
		t.Errorf("level = %q", res.Risk.Level)
	}
	if len(res.Risk.Findings) != 2 {
		t.Errorf("findings = %v", res.Risk.Findings)
	}
	if res.Summary() != "Lead caliente" {
		t.Errorf("summary = %q, want admin summary", res.Summary())
	}
}

func TestDecodeResultScoreDefaults(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want float64
	}{
		{"missing", `{"risk_assessment": {}}`, NeutralScore},
		{"zero", `{"risk_assessment": {"overall_risk_score": 0}}`, NeutralScore},
		{"negative", `{"risk_assessment": {"overall_risk_score": -4}}`, NeutralScore},
		{"numeric string", `{"risk_assessment": {"overall_risk_score": "73.5"}}`, 73.5},
		{"garbage string", `{"risk_assessment": {"overall_risk_score": "alto"}}`, NeutralScore},
		{"overshoot", `{"risk_assessment": {"overall_risk_score": 140}}`, 100},
	}
	for _, c := range cases {
		res, err := DecodeResult([]byte(c.raw))
		if err != nil {
			t.Fatalf("%s: %v", c.name, err)
		}
		if res.Risk.Score != c.want {
			t.Errorf("%s: score = %v, want %v", c.name, res.Risk.Score, c.want)
		}
	}
}

func TestDecodeResultLeadAssessmentFallback(t *testing.T) {
	raw := `{"lead_assessment": {"overall_risk_score": 61, "risk_level": "MODERADO"}}`
	res, err := DecodeResult([]byte(raw))
	if err != nil {
		t.Fatalf("DecodeResult: %v", err)
	}
	if res.Risk.Score != 61 || res.Risk.Level != "MODERADO" {
		t.Errorf("risk = %+v", res.Risk)
	}
}

func TestDecodeResultDiagnosticPayloadWrapper(t *testing.T) {
	raw := `{"diagnostic_payload": {"risk_assessment": {"overall_risk_score": 45}}}`
	res, err := DecodeResult([]byte(raw))
	if err != nil {
		t.Fatalf("DecodeResult: %v", err)
	}
	if res.Risk.Score != 45 {
		t.Errorf("score = %v, want 45", res.Risk.Score)
	}
}

func TestDecodeResultPitchObject(t *testing.T) {
	raw := `{"sales_pitch": {"urgent_recommendation": "Agendar llamada hoy"}}`
	res, err := DecodeResult([]byte(raw))
	if err != nil {
		t.Fatalf("DecodeResult: %v", err)
	}
	if res.SalesPitch != "Agendar llamada hoy" {
		t.Errorf("pitch = %q", res.SalesPitch)
	}
}

func TestDecodeResultDefaultLevel(t *testing.T) {
	res, err := DecodeResult([]byte(`{}`))
	if err != nil {
		t.Fatalf("DecodeResult: %v", err)
	}
	if res.Risk.Level != "VULNERABILIDAD DETECTADA" {
		t.Errorf("level = %q", res.Risk.Level)
	}
}

func TestDecodeResultMalformedJSON(t *testing.T) {
	if _, err := DecodeResult([]byte("no es json")); err == nil {
		t.Fatal("expected error for malformed JSON")
	}
}

func TestSummaryFallbackChain(t *testing.T) {
	r := &Result{}
	if r.Summary() != "N/A" {
		t.Errorf("empty result summary = %q, want N/A", r.Summary())
	}
	r.Risk.CriticalFinding = "hallazgo"
	if r.Summary() != "hallazgo" {
		t.Errorf("summary = %q, want critical finding", r.Summary())
	}
	r.Risk.Level = "ALTO"
	if r.Summary() != "ALTO" {
		t.Errorf("summary = %q, want level over finding", r.Summary())
	}
	r.AdminSummary = "resumen"
	if r.Summary() != "resumen" {
		t.Errorf("summary = %q, want admin summary first", r.Summary())
	}
}
