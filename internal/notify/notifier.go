package notify

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/mentoresestrategicos/kontify-brain/internal/diagnostic"
	"github.com/mentoresestrategicos/kontify-brain/internal/lead"
)

const (
	summaryMaxLen = 150

	serviceGold  = "Blindaje Gold / PropCo"
	serviceNiche = "Específico por Nicho"
)

// Event carries everything the outbound sinks need about one
// processed lead.
type Event struct {
	RequestID  string
	ReceivedAt time.Time
	Lead       lead.Metadata
	Diagnostic diagnostic.Result
	ReportURL  string
}

// RecommendedService maps a risk score to the follow-up offering.
func RecommendedService(score float64) string {
	if score > 70 {
		return serviceGold
	}
	return serviceNiche
}

// BuildRow lays out the spreadsheet columns A through L for one lead.
func BuildRow(ev *Event) []string {
	summary := ev.Diagnostic.Summary()
	if len(summary) > summaryMaxLen {
		summary = summary[:summaryMaxLen]
	}
	return []string{
		ev.ReceivedAt.Format("2006-01-02 15:04:05"),
		ev.Lead.Company,
		ev.Lead.Niche,
		ev.Lead.Contact,
		ev.Lead.Email,
		ev.Lead.Phone,
		fmt.Sprintf("%.1f", ev.Diagnostic.Risk.Score),
		summary,
		RecommendedService(ev.Diagnostic.Risk.Score),
		ev.ReportURL,
		ev.Lead.RFC,
		ev.Lead.Activity,
	}
}

// Outcome records which sinks accepted the event. Failures are logged
// by the notifier and never abort the request.
type Outcome struct {
	WebhookOK bool
	SheetsOK  bool
	EmailOK   bool
}

// Notifier fans one lead event out to the chat webhook, the
// spreadsheet and the courtesy email, in that order.
type Notifier struct {
	webhook *SlackWebhook
	sheets  *SheetsClient
	email   *SendGridClient
	log     *zap.Logger
}

func NewNotifier(webhook *SlackWebhook, sheets *SheetsClient, email *SendGridClient, log *zap.Logger) *Notifier {
	if log == nil {
		log = zap.NewNop()
	}
	return &Notifier{webhook: webhook, sheets: sheets, email: email, log: log}
}

// NotifyAll delivers the event to every configured sink. Each sink
// failure is logged and swallowed so one outage cannot block lead
// processing.
func (n *Notifier) NotifyAll(ctx context.Context, ev *Event) Outcome {
	var out Outcome

	if n.webhook != nil && n.webhook.Configured() {
		if err := n.webhook.Post(ctx, buildAlertText(ev)); err != nil {
			n.log.Warn("webhook notification failed",
				zap.String("request_id", ev.RequestID), zap.Error(err))
		} else {
			out.WebhookOK = true
		}
	}

	if n.sheets != nil && n.sheets.Configured() {
		if err := n.sheets.AppendRow(ctx, BuildRow(ev)); err != nil {
			n.log.Warn("sheets append failed, lead kept in local ledger",
				zap.String("request_id", ev.RequestID), zap.Error(err))
		} else {
			out.SheetsOK = true
		}
	}

	if n.email != nil && n.email.Configured() && ev.Lead.Email != "" && ev.Lead.Email != lead.Sentinel {
		subject := "Tu Diagnóstico de Riesgo Corporativo | Kontify"
		if err := n.email.Send(ctx, ev.Lead.Email, subject, buildEmailBody(ev)); err != nil {
			n.log.Warn("courtesy email failed",
				zap.String("request_id", ev.RequestID), zap.Error(err))
		} else {
			out.EmailOK = true
		}
	}

	return out
}

func buildAlertText(ev *Event) string {
	return fmt.Sprintf(
		":rotating_light: Nuevo lead calificado\n"+
			"Empresa: %s\nNicho: %s\nScore de riesgo: %.1f/100\n"+
			"Servicio recomendado: %s\nReporte: %s",
		ev.Lead.Company, ev.Lead.Niche, ev.Diagnostic.Risk.Score,
		RecommendedService(ev.Diagnostic.Risk.Score), ev.ReportURL)
}

func buildEmailBody(ev *Event) string {
	return fmt.Sprintf(
		"Hola %s,\n\n"+
			"Gracias por completar el diagnóstico de riesgo de %s.\n"+
			"Tu score preliminar es %.1f/100.\n\n"+
			"Puedes descargar tu reporte completo aquí: %s\n\n"+
			"Un asesor de Mentores Estratégicos te contactará en breve.\n\n"+
			"Kontify - Mentores Estratégicos",
		ev.Lead.Contact, ev.Lead.Company, ev.Diagnostic.Risk.Score, ev.ReportURL)
}
