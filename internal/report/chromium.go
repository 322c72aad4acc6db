package report

import (
	"context"
	"encoding/base64"
	"fmt"
	"html"
	"os"
	"strings"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// ChromiumRenderer prints the branded HTML report to PDF through a
// headless Chromium.
type ChromiumRenderer struct {
	chromePath string
}

func NewChromiumRenderer() *ChromiumRenderer {
	return &ChromiumRenderer{chromePath: DetectChromePath()}
}

// Available reports whether a Chromium binary was found at
// construction time.
func (r *ChromiumRenderer) Available() bool {
	return r.chromePath != ""
}

func (r *ChromiumRenderer) Render(ctx context.Context, doc *Document) ([]byte, error) {
	htmlDoc, err := buildHTML(doc)
	if err != nil {
		return nil, err
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	opts := []chromedp.ExecAllocatorOption{
		chromedp.NoSandbox,
		chromedp.DisableGPU,
		chromedp.Flag("disable-dev-shm-usage", true),
	}
	if r.chromePath != "" {
		opts = append(opts, chromedp.ExecPath(r.chromePath))
	}
	allocCtx, allocCancel := chromedp.NewExecAllocator(timeoutCtx, append(chromedp.DefaultExecAllocatorOptions[:], opts...)...)
	defer allocCancel()

	taskCtx, taskCancel := chromedp.NewContext(allocCtx)
	defer taskCancel()

	var pdf []byte
	dataURL := "data:text/html;base64," + base64.StdEncoding.EncodeToString([]byte(htmlDoc))
	if err := chromedp.Run(taskCtx,
		chromedp.Navigate(dataURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.ActionFunc(func(ctx context.Context) error {
			footer := `<div style="width:100%;text-align:center;font-size:8px;color:#666;">` +
				`Página <span class="pageNumber"></span> de <span class="totalPages"></span> | Kontify - Mentores Estratégicos</div>`
			out, _, err := page.PrintToPDF().
				WithPrintBackground(true).
				WithDisplayHeaderFooter(true).
				WithHeaderTemplate(`<div></div>`).
				WithFooterTemplate(footer).
				WithPaperWidth(8.27).
				WithPaperHeight(11.69).
				WithMarginTop(0.5).
				WithMarginBottom(0.75).
				WithMarginLeft(0.45).
				WithMarginRight(0.45).
				Do(ctx)
			if err != nil {
				return err
			}
			pdf = out
			return nil
		}),
	); err != nil {
		return nil, err
	}
	return pdf, nil
}

const reportCSS = `
html,body,*{-webkit-print-color-adjust:exact !important;print-color-adjust:exact !important;}
body{font-family:Helvetica,Arial,sans-serif;color:#1c1917;background:#fff;padding:0.6rem;}
.wrap{max-width:1000px;margin:0 auto;}
.brand{background:#000;color:#fff;padding:14px 18px;display:flex;justify-content:space-between;align-items:center;}
.brand .mark{display:inline-block;width:14px;height:14px;background:#c1ff72;margin-right:8px;vertical-align:middle;}
.brand .meta{text-align:right;color:#999;font-size:0.75rem;}
h1{color:#007bff;font-size:1.5rem;margin:1.1rem 0 0.2rem;}
.client{font-size:1.05rem;font-weight:700;margin-bottom:1rem;}
.meter{position:relative;height:34px;background:#f0f0f0;margin-bottom:0.4rem;}
.meter .fill{height:34px;}
.meter .fill.critical{background:#ff3232;}
.meter .fill.moderate{background:#ffc800;}
.meter .fill.preventive{background:#c1ff72;}
.meter .label{position:absolute;inset:0;display:flex;align-items:center;justify-content:center;font-weight:700;}
.level{font-size:0.85rem;color:#44403c;margin-bottom:1.1rem;}
.pitch{background:#e6f2ff;border:1px solid #b6d7f5;color:#0050a0;font-style:italic;padding:0.7rem 0.9rem;margin-bottom:1.2rem;}
h2.section{font-size:1rem;border-bottom:2px solid #000;padding-bottom:0.2rem;margin:1.2rem 0 0.6rem;}
ul.findings li{margin-bottom:0.25rem;}
.report-html table{width:100%;border-collapse:collapse;border:1px solid #a8a29e;font-size:0.8rem;}
.report-html th,.report-html td{border:1px solid #a8a29e;padding:0.35rem 0.45rem;text-align:left;vertical-align:top;}
.privacy{font-size:0.62rem;color:#777;margin-top:2rem;border-top:1px solid #ddd;padding-top:0.5rem;}
@media print{ @page{size:auto;margin:12mm;} body{padding:0;} }
`

const privacyNotice = "Aviso de Privacidad: Los datos recabados en este diagnóstico son tratados con estricta confidencialidad por Kontify. Sus datos personales están protegidos conforme a la Ley Federal de Protección de Datos Personales. Este documento constituye un diagnóstico preliminar basado en información autodeclarada."

func buildHTML(doc *Document) (string, error) {
	var content strings.Builder
	md := goldmark.New(goldmark.WithExtensions(extension.GFM))
	if err := md.Convert([]byte(doc.Diagnostic.MarkdownContent), &content); err != nil {
		return "", fmt.Errorf("markdown convert: %w", err)
	}

	score := doc.Diagnostic.Risk.Score
	band := scoreBand(score)

	var b strings.Builder
	b.WriteString("<!doctype html><html><head><meta charset='utf-8'><title>Diagnóstico de Riesgo</title><style>")
	b.WriteString(reportCSS)
	b.WriteString("</style></head><body><div class='wrap'>")

	fmt.Fprintf(&b, "<div class='brand'><div><span class='mark'></span><strong>Kontify</strong> · Mentores Estratégicos</div>"+
		"<div class='meta'>Folio: %s<br>Fecha: %s</div></div>",
		html.EscapeString(doc.Folio), doc.GeneratedAt.Format("02/01/2006"))

	b.WriteString("<h1>DIAGNÓSTICO DE RIESGO CORPORATIVO</h1>")
	fmt.Fprintf(&b, "<div class='client'>Cliente: %s</div>", html.EscapeString(doc.Lead.Company))

	fmt.Fprintf(&b, "<div class='meter'><div class='fill %s' style='width:%.0f%%'></div>"+
		"<div class='label'>SCORE DE RIESGO: %.1f/100</div></div>", band, score, score)
	fmt.Fprintf(&b, "<div class='level'>%s</div>", html.EscapeString(doc.Diagnostic.Risk.Level))

	if pitch := strings.TrimSpace(doc.Diagnostic.SalesPitch); pitch != "" {
		b.WriteString("<h2 class='section'>ESTRATEGIA RECOMENDADA</h2>")
		fmt.Fprintf(&b, "<div class='pitch'>&ldquo;%s&rdquo;</div>", html.EscapeString(pitch))
	}

	b.WriteString("<h2 class='section'>HALLAZGOS Y ANÁLISIS TÉCNICO</h2>")
	if cf := strings.TrimSpace(doc.Diagnostic.Risk.CriticalFinding); cf != "" {
		fmt.Fprintf(&b, "<p><strong>Hallazgo crítico:</strong> %s</p>", html.EscapeString(cf))
	}
	if len(doc.Diagnostic.Risk.Findings) > 0 {
		b.WriteString("<ul class='findings'>")
		for _, f := range doc.Diagnostic.Risk.Findings {
			fmt.Fprintf(&b, "<li>%s</li>", html.EscapeString(f))
		}
		b.WriteString("</ul>")
	}
	fmt.Fprintf(&b, "<div class='report-html'>%s</div>", content.String())

	fmt.Fprintf(&b, "<div class='privacy'>%s</div>", html.EscapeString(privacyNotice))
	b.WriteString("</div></body></html>")
	return b.String(), nil
}

// DetectChromePath probes the usual Chromium install locations.
func DetectChromePath() string {
	candidates := []string{
		"/usr/bin/chromium-browser",
		"/usr/bin/chromium",
		"/usr/bin/google-chrome",
	}
	for _, p := range candidates {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}
