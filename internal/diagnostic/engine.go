package diagnostic

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mentoresestrategicos/kontify-brain/internal/lead"
)

// ErrScoringUnavailable wraps every scoring failure: transport errors
// after retries, empty output, or unparseable output. Callers degrade
// to Fallback instead of aborting the pipeline.
var ErrScoringUnavailable = errors.New("scoring service unavailable")

const maxAttempts = 3

// Engine turns a validated submission into a diagnostic Result.
type Engine struct {
	caller LLMCaller
	sopDir string
	log    *zap.Logger
}

func NewEngine(caller LLMCaller, sopDir string, log *zap.Logger) *Engine {
	return &Engine{caller: caller, sopDir: sopDir, log: log}
}

// Run scores a submission. Transient transport failures are retried
// with backoff; malformed content gets corrective feedback appended to
// the prompt. Anything still failing after the attempt budget returns
// an error wrapping ErrScoringUnavailable.
func (e *Engine) Run(ctx context.Context, sub *lead.Submission) (*Result, error) {
	if e.caller == nil {
		return nil, fmt.Errorf("%w: no caller configured", ErrScoringUnavailable)
	}
	prompt, err := e.buildPrompt(sub)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrScoringUnavailable, err)
	}

	feedback := ""
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		fullPrompt := prompt
		if feedback != "" {
			fullPrompt += "\n\n" + feedback
		}
		started := time.Now()
		raw, err := e.caller.GenerateJSON(ctx, fullPrompt)
		if err != nil {
			class := classifyTransportError(err)
			e.log.Warn("scoring transport error",
				zap.Int("attempt", attempt),
				zap.Int("class", int(class)),
				zap.Duration("elapsed", time.Since(started)),
				zap.Error(err))
			if retryable(class) && attempt < maxAttempts {
				select {
				case <-time.After(backoffDelay(attempt)):
					continue
				case <-ctx.Done():
					return nil, fmt.Errorf("%w: %v", ErrScoringUnavailable, ctx.Err())
				}
			}
			return nil, fmt.Errorf("%w: %v", ErrScoringUnavailable, err)
		}

		clean := stripCodeFences(raw)
		if clean == "" {
			feedback = "Your previous response was empty. Return valid JSON only."
			continue
		}
		res, err := DecodeResult([]byte(clean))
		if err != nil {
			e.log.Warn("scoring returned invalid json",
				zap.Int("attempt", attempt),
				zap.Duration("elapsed", time.Since(started)),
				zap.Error(err))
			feedback = "Your previous response was not valid JSON. Return valid JSON only."
			continue
		}
		e.log.Info("scoring complete",
			zap.Int("attempt", attempt),
			zap.Float64("score", res.Risk.Score),
			zap.Duration("elapsed", time.Since(started)))
		return res, nil
	}
	return nil, fmt.Errorf("%w: no parseable output after %d attempts", ErrScoringUnavailable, maxAttempts)
}

// Fallback returns the fixed degraded diagnostic used when scoring
// fails, so the pipeline still produces a deliverable and a log
// record.
func (e *Engine) Fallback(sub *lead.Submission) *Result {
	return Fallback(sub)
}

func Fallback(sub *lead.Submission) *Result {
	return &Result{
		Risk: RiskAssessment{
			Score:           NeutralScore,
			Level:           "DIAGNÓSTICO PRELIMINAR (SERVICIO DEGRADADO)",
			CriticalFinding: "El motor de análisis no estuvo disponible; un consultor revisará las respuestas manualmente.",
			Findings: []string{
				fmt.Sprintf("RFC registrado: %s", sub.Metadata.RFC),
				fmt.Sprintf("Giro registrado: %s", sub.Metadata.Activity),
				fmt.Sprintf("Respuestas capturadas: %d", len(sub.Responses)),
			},
		},
		SalesPitch:      "Su información fue recibida correctamente. Un consultor senior completará el diagnóstico y se pondrá en contacto a la brevedad.",
		MarkdownContent: "### Diagnóstico preliminar\nEl análisis automático no pudo completarse. Las respuestas quedaron registradas y serán evaluadas manualmente.",
		AdminSummary:    fmt.Sprintf("Diagnóstico degradado para %s: revisar manualmente.", sub.Metadata.Company),
		Degraded:        true,
	}
}

// buildPrompt assembles the audit prompt from the niche SOP document
// and the normalized submission.
func (e *Engine) buildPrompt(sub *lead.Submission) (string, error) {
	sop, err := e.loadSOP(sub.Metadata.Niche)
	if err != nil {
		return "", err
	}
	responsesJSON, err := json.Marshal(sub.Responses)
	if err != nil {
		return "", err
	}
	financialJSON, _ := json.Marshal(sub.Metadata.FinancialData)

	var b strings.Builder
	fmt.Fprintf(&b, "ROL: Senior Auditor & Strategic Risk Consultant.\n")
	fmt.Fprintf(&b, "OBJETIVO: Diagnóstico de Robustez Corporativa para [%s] en el nicho [%s].\n\n", sub.Metadata.Company, sub.Metadata.Niche)
	fmt.Fprintf(&b, "METODOLOGÍA:\n")
	fmt.Fprintf(&b, "1. Evalúa los vectores de riesgo definidos en el SOP:\n%s\n", sop)
	fmt.Fprintf(&b, "2. Cruza con las respuestas reales (pueden ser SÍ/NO o multiopción; no conviertas opciones múltiples a binario). Total: %d. Datos: %s\n", len(sub.Responses), responsesJSON)
	fmt.Fprintf(&b, "3. Impacto financiero: %s | Rango de facturación: %s\n", financialJSON, sub.Metadata.BillingRange)
	fmt.Fprintf(&b, "4. Actividad principal: %s\n", sub.Metadata.Activity)
	fmt.Fprintf(&b, "5. RFC (trazabilidad y contexto fiscal): %s\n\n", sub.Metadata.RFC)
	b.WriteString(`REGLA DE CÁLCULO DE RIESGO:
- 0-30: Vigilancia Preventiva (controles sólidos).
- 31-70: Vulnerabilidad Moderada (deficiencias en procesos secundarios).
- 71-100: RIESGO CRÍTICO (fallas en blindaje de activos, cumplimiento fiscal o gobernanza).

Retorna únicamente un JSON válido con esta estructura:
{
  "risk_assessment": {
    "overall_risk_score": 0-100,
    "risk_level": "Nivel de riesgo",
    "critical_finding": "Hallazgo principal del diagnóstico",
    "hallazgos_tecnicos": ["Hallazgo 1 basado en SOP", "Hallazgo 2 basado en SOP"]
  },
  "sales_pitch": "Texto persuasivo de 2 frases sobre la urgencia de corrección.",
  "markdown_content": "### Análisis de Vulnerabilidad\nContenido detallado en Markdown sin el título principal.",
  "admin_report": {"summary": "Resumen técnico para el CRM"}
}`)
	return b.String(), nil
}

// loadSOP reads the niche's scoring playbook, falling back to the
// holding playbook for niches without a dedicated one.
func (e *Engine) loadSOP(niche string) (string, error) {
	candidates := []string{
		filepath.Join(e.sopDir, niche+"_sop.md"),
		filepath.Join(e.sopDir, "holding_sop.md"),
	}
	var lastErr error
	for _, p := range candidates {
		content, err := os.ReadFile(p)
		if err == nil {
			return string(content), nil
		}
		lastErr = err
	}
	return "", fmt.Errorf("load sop for %q: %w", niche, lastErr)
}
