// Package server exposes the lead intake HTTP API.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/mentoresestrategicos/kontify-brain/internal/diagnostic"
	"github.com/mentoresestrategicos/kontify-brain/internal/lead"
	"github.com/mentoresestrategicos/kontify-brain/internal/ledger"
	"github.com/mentoresestrategicos/kontify-brain/internal/notify"
	"github.com/mentoresestrategicos/kontify-brain/internal/questionbank"
	"github.com/mentoresestrategicos/kontify-brain/internal/report"
)

const serviceVersion = "2.0"

// Scorer produces a diagnostic for a validated submission.
type Scorer interface {
	Run(ctx context.Context, sub *lead.Submission) (*diagnostic.Result, error)
	Fallback(sub *lead.Submission) *diagnostic.Result
}

// LeadLog is the subset of the ledger the server writes to.
type LeadLog interface {
	Append(ctx context.Context, e ledger.Entry) error
	MarkSynced(ctx context.Context, requestID string) error
}

// LeadNotifier fans a processed lead out to the external sinks.
type LeadNotifier interface {
	NotifyAll(ctx context.Context, ev *notify.Event) notify.Outcome
}

type Server struct {
	bank       *questionbank.Bank
	scorer     Scorer
	renderer   report.Renderer
	notifier   LeadNotifier
	leads      LeadLog
	tracer     trace.Tracer
	log        *zap.Logger
	publicDir  string
	reportsDir string
	publicURL  string
}

type Options struct {
	Bank       *questionbank.Bank
	Scorer     Scorer
	Renderer   report.Renderer
	Notifier   LeadNotifier
	Leads      LeadLog
	Tracer     trace.Tracer
	Log        *zap.Logger
	PublicDir  string
	ReportsDir string
	// PublicURL prefixes report links in notifications. Responses
	// always use the relative /reports path.
	PublicURL string
}

func New(opts Options) http.Handler {
	log := opts.Log
	if log == nil {
		log = zap.NewNop()
	}
	s := &Server{
		bank:       opts.Bank,
		scorer:     opts.Scorer,
		renderer:   opts.Renderer,
		notifier:   opts.Notifier,
		leads:      opts.Leads,
		tracer:     opts.Tracer,
		log:        log,
		publicDir:  opts.PublicDir,
		reportsDir: opts.ReportsDir,
		publicURL:  strings.TrimRight(opts.PublicURL, "/"),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/api/questions/", s.handleQuestions)
	mux.HandleFunc("/api/submit", s.handleSubmit)
	mux.HandleFunc("/reports/", s.handleReports)
	mux.HandleFunc("/", s.handleRoot)
	return mux
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"error": msg})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, 200, map[string]any{"status": "ok", "service": "kontify-brain"})
}

func (s *Server) handleQuestions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	niche := strings.TrimPrefix(r.URL.Path, "/api/questions/")
	niche = strings.TrimSuffix(niche, "/")
	if niche == "" {
		writeError(w, 400, "niche is required")
		return
	}

	questions, err := s.bank.Questions(niche)
	switch {
	case errors.Is(err, questionbank.ErrUnknownNiche):
		writeError(w, 404, fmt.Sprintf("nicho desconocido: %s", niche))
		return
	case err != nil:
		s.log.Error("question bank read failed", zap.String("niche", niche), zap.Error(err))
		writeError(w, 500, "banco de preguntas no disponible")
		return
	}
	writeJSON(w, 200, questions)
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	requestID := uuid.New().String()[:8]
	log := s.log.With(zap.String("request_id", requestID))

	ctx := r.Context()
	if s.tracer != nil {
		var span trace.Span
		ctx, span = s.tracer.Start(ctx, "submit",
			trace.WithAttributes(attribute.String("request.id", requestID)))
		defer span.End()
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, 5<<20))
	if err != nil {
		writeJSON(w, 400, submitError("cuerpo de la solicitud inválido", requestID))
		return
	}
	var root map[string]any
	if err := json.Unmarshal(body, &root); err != nil {
		writeJSON(w, 400, submitError("JSON inválido", requestID))
		return
	}

	sub := lead.DecodeSubmission(root)
	if err := sub.Validate(); err != nil {
		var verr *lead.ValidationError
		msg := "datos incompletos"
		if errors.As(err, &verr) {
			msg = "Falta campo obligatorio: " + verr.First()
		}
		log.Info("submission rejected",
			zap.String("company", sub.Metadata.Company), zap.String("reason", msg))
		writeJSON(w, 400, submitError(msg, requestID))
		return
	}

	receivedAt := time.Now()
	log.Info("submission accepted",
		zap.String("company", sub.Metadata.Company),
		zap.String("niche", sub.Metadata.Niche),
		zap.Int("responses", sub.AnsweredCount()))

	result := s.score(ctx, log, sub)

	pdf, err := s.render(ctx, requestID, receivedAt, sub, result)
	if err != nil {
		log.Error("report render failed", zap.Error(err))
		writeJSON(w, 500, submitError("no se pudo generar el reporte", requestID))
		return
	}

	filename := reportFilename(sub.Metadata.Company, requestID)
	err = os.MkdirAll(s.reportsDir, 0o755)
	if err == nil {
		err = os.WriteFile(filepath.Join(s.reportsDir, filename), pdf, 0o644)
	}
	if err != nil {
		log.Error("report write failed", zap.String("file", filename), zap.Error(err))
		writeJSON(w, 500, submitError("no se pudo guardar el reporte", requestID))
		return
	}

	reportPath := "/reports/" + filename
	s.record(ctx, log, requestID, receivedAt, sub, result, reportPath)

	writeJSON(w, 200, map[string]any{
		"status":     "success",
		"version":    serviceVersion,
		"report_url": reportPath,
		"requestId":  requestID,
	})
}

func submitError(msg, requestID string) map[string]any {
	return map[string]any{"status": "error", "message": msg, "requestId": requestID}
}

// score runs the diagnostic engine, falling back to the degraded
// preliminary diagnostic when scoring is unavailable.
func (s *Server) score(ctx context.Context, log *zap.Logger, sub *lead.Submission) *diagnostic.Result {
	if s.tracer != nil {
		var span trace.Span
		ctx, span = s.tracer.Start(ctx, "score")
		defer span.End()
	}
	result, err := s.scorer.Run(ctx, sub)
	if err != nil {
		log.Warn("scoring unavailable, using degraded diagnostic", zap.Error(err))
		return s.scorer.Fallback(sub)
	}
	return result
}

func (s *Server) render(ctx context.Context, requestID string, receivedAt time.Time, sub *lead.Submission, result *diagnostic.Result) ([]byte, error) {
	if s.tracer != nil {
		var span trace.Span
		ctx, span = s.tracer.Start(ctx, "render")
		defer span.End()
	}
	doc := &report.Document{
		Folio:       requestID,
		GeneratedAt: receivedAt,
		Lead:        sub.Metadata,
		Diagnostic:  *result,
	}
	return s.renderer.Render(ctx, doc)
}

// record appends the lead to the local ledger and fans out
// notifications. Neither failure aborts the request.
func (s *Server) record(ctx context.Context, log *zap.Logger, requestID string, receivedAt time.Time, sub *lead.Submission, result *diagnostic.Result, reportPath string) {
	if s.tracer != nil {
		var span trace.Span
		ctx, span = s.tracer.Start(ctx, "record")
		defer span.End()
	}

	if s.leads != nil {
		entry := ledger.Entry{
			ReceivedAt: receivedAt,
			RequestID:  requestID,
			Company:    sub.Metadata.Company,
			Niche:      sub.Metadata.Niche,
			RFC:        sub.Metadata.RFC,
			Score:      result.Risk.Score,
			Service:    notify.RecommendedService(result.Risk.Score),
			ReportRef:  reportPath,
			Degraded:   result.Degraded,
		}
		if err := s.leads.Append(ctx, entry); err != nil {
			log.Error("ledger append failed", zap.Error(err))
		}
	}

	if s.notifier == nil {
		return
	}
	ev := &notify.Event{
		RequestID:  requestID,
		ReceivedAt: receivedAt,
		Lead:       sub.Metadata,
		Diagnostic: *result,
		ReportURL:  s.publicURL + reportPath,
	}
	outcome := s.notifier.NotifyAll(ctx, ev)
	if outcome.SheetsOK && s.leads != nil {
		if err := s.leads.MarkSynced(ctx, requestID); err != nil {
			log.Warn("ledger sync flag failed", zap.Error(err))
		}
	}
}

func (s *Server) handleReports(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	name := strings.TrimPrefix(r.URL.Path, "/reports/")
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		writeError(w, 400, "invalid report path")
		return
	}
	path := filepath.Join(s.reportsDir, name)
	if _, err := os.Stat(path); err != nil {
		writeError(w, 404, "report not found")
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	http.ServeFile(w, r, path)
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "no-store")
	if r.URL.Path == "/" || r.URL.Path == "/index.html" {
		http.ServeFile(w, r, filepath.Join(s.publicDir, "index.html"))
		return
	}
	path := filepath.Join(s.publicDir, filepath.Clean(r.URL.Path))
	if _, err := fs.Stat(os.DirFS(s.publicDir), strings.TrimPrefix(filepath.Clean(r.URL.Path), "/")); err == nil {
		http.ServeFile(w, r, path)
		return
	}
	http.NotFound(w, r)
}

// reportFilename builds KONTIFY_<Company>_<requestID>.pdf with the
// company name reduced to filesystem-safe characters.
func reportFilename(company, requestID string) string {
	cleaned := strings.Map(func(r rune) rune {
		switch {
		case unicode.IsLetter(r) && r < 128, unicode.IsDigit(r):
			return r
		case r == ' ':
			return '_'
		default:
			return -1
		}
	}, strings.TrimSpace(company))
	if cleaned == "" {
		cleaned = "Lead"
	}
	return fmt.Sprintf("KONTIFY_%s_%s.pdf", cleaned, requestID)
}
