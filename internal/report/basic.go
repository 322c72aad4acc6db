package report

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/mentoresestrategicos/kontify-brain/internal/lead"
)

// BasicRenderer emits a plain single-font PDF without an external
// browser. It covers hosts where no Chromium binary is installed.
//
// The layout is a monochrome text page: header, score line, pitch,
// then the diagnostic body with markdown syntax stripped. Text runs
// through a Latin-1 fold because the embedded Helvetica uses
// WinAnsiEncoding.
type BasicRenderer struct{}

func NewBasicRenderer() *BasicRenderer { return &BasicRenderer{} }

const (
	pageWidth  = 595.28 // A4 in points
	pageHeight = 841.89
	marginX    = 50.0
	marginTop  = 60.0
	lineHeight = 14.0
	bodySize   = 10
	titleSize  = 16
	maxCols    = 92 // rough character budget per line at bodySize
)

func (r *BasicRenderer) Render(_ context.Context, doc *Document) ([]byte, error) {
	lines := buildTextLines(doc)
	usableHeight := float64(pageHeight - marginTop - 60)
	perPage := int(usableHeight / lineHeight)
	if perPage < 1 {
		perPage = 1
	}

	var pages [][]textLine
	for len(lines) > 0 {
		n := perPage
		if n > len(lines) {
			n = len(lines)
		}
		pages = append(pages, lines[:n])
		lines = lines[n:]
	}
	if len(pages) == 0 {
		pages = [][]textLine{nil}
	}

	return assemblePDF(pages)
}

type textLine struct {
	text string
	size int
	bold bool
}

func buildTextLines(doc *Document) []textLine {
	var out []textLine
	add := func(size int, bold bool, s string) {
		for _, w := range wrapText(s, maxCols*bodySize/size) {
			out = append(out, textLine{text: w, size: size, bold: bold})
		}
	}

	add(titleSize, true, "DIAGNÓSTICO DE RIESGO CORPORATIVO")
	add(bodySize, false, "Kontify - Mentores Estratégicos")
	add(bodySize, false, fmt.Sprintf("Folio: %s | Fecha: %s", doc.Folio, doc.GeneratedAt.Format("02/01/2006")))
	out = append(out, textLine{})
	add(12, true, "Cliente: "+doc.Lead.Company)
	add(12, true, fmt.Sprintf("SCORE DE RIESGO: %.1f/100 (%s)", doc.Diagnostic.Risk.Score, doc.Diagnostic.Risk.Level))
	out = append(out, textLine{})

	if pitch := strings.TrimSpace(doc.Diagnostic.SalesPitch); pitch != "" {
		add(bodySize, true, "ESTRATEGIA RECOMENDADA")
		add(bodySize, false, pitch)
		out = append(out, textLine{})
	}

	add(bodySize, true, "HALLAZGOS Y ANÁLISIS TÉCNICO")
	if cf := strings.TrimSpace(doc.Diagnostic.Risk.CriticalFinding); cf != "" {
		add(bodySize, false, "Hallazgo crítico: "+cf)
	}
	for _, f := range doc.Diagnostic.Risk.Findings {
		add(bodySize, false, "- "+f)
	}
	out = append(out, textLine{})

	for _, raw := range strings.Split(doc.Diagnostic.MarkdownContent, "\n") {
		line := stripMarkdown(raw)
		if line == "" {
			out = append(out, textLine{})
			continue
		}
		add(bodySize, false, line)
	}

	out = append(out, textLine{})
	add(7, false, privacyNotice)
	return out
}

// stripMarkdown flattens the markdown syntax the text page cannot
// style: emphasis markers, heading hashes and list bullets.
func stripMarkdown(s string) string {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, "**", "")
	s = strings.TrimLeft(s, "#")
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "* ") {
		s = "- " + s[2:]
	}
	return s
}

func wrapText(s string, cols int) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if cols < 20 {
		cols = 20
	}
	words := strings.Fields(s)
	var lines []string
	var cur strings.Builder
	for _, w := range words {
		if cur.Len() > 0 && cur.Len()+1+len(w) > cols {
			lines = append(lines, cur.String())
			cur.Reset()
		}
		if cur.Len() > 0 {
			cur.WriteByte(' ')
		}
		cur.WriteString(w)
	}
	if cur.Len() > 0 {
		lines = append(lines, cur.String())
	}
	return lines
}

// escapePDFString escapes the delimiters of a PDF literal string.
func escapePDFString(s string) string {
	var b strings.Builder
	for _, r := range lead.FoldLatin1(s) {
		switch r {
		case '(', ')', '\\':
			b.WriteByte('\\')
			b.WriteByte(byte(r))
		default:
			// WinAnsi is byte oriented, so runes stay <= 0xFF
			// after the fold.
			b.WriteByte(byte(r))
		}
	}
	return b.String()
}

func assemblePDF(pages [][]textLine) ([]byte, error) {
	// Object layout: 1 catalog, 2 pages, 3 regular font, 4 bold
	// font, then alternating page/content objects.
	var objects []string

	pageObjIDs := make([]int, len(pages))
	next := 5
	for i := range pages {
		pageObjIDs[i] = next
		next += 2
	}

	var kids []string
	for _, id := range pageObjIDs {
		kids = append(kids, fmt.Sprintf("%d 0 R", id))
	}

	objects = append(objects, "<< /Type /Catalog /Pages 2 0 R >>")
	objects = append(objects, fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>",
		strings.Join(kids, " "), len(pages)))
	objects = append(objects, "<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>")
	objects = append(objects, "<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica-Bold /Encoding /WinAnsiEncoding >>")

	for i, lines := range pages {
		stream := buildContentStream(lines)
		contentID := pageObjIDs[i] + 1
		objects = append(objects, fmt.Sprintf(
			"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 %.2f %.2f] "+
				"/Resources << /Font << /F1 3 0 R /F2 4 0 R >> >> /Contents %d 0 R >>",
			pageWidth, pageHeight, contentID))
		objects = append(objects, fmt.Sprintf("<< /Length %d >>\nstream\n%sendstream", len(stream), stream))
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects)+1)
	for i, obj := range objects {
		offsets[i+1] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}
	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(objects)+1)
	for i := 1; i <= len(objects); i++ {
		fmt.Fprintf(&buf, "%010d 00000 n \n", offsets[i])
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n",
		len(objects)+1, xref)
	return buf.Bytes(), nil
}

func buildContentStream(lines []textLine) string {
	var b strings.Builder
	b.WriteString("BT\n")
	y := pageHeight - marginTop
	for _, ln := range lines {
		if ln.text == "" {
			y -= lineHeight
			continue
		}
		font := "/F1"
		if ln.bold {
			font = "/F2"
		}
		size := ln.size
		if size == 0 {
			size = bodySize
		}
		fmt.Fprintf(&b, "%s %d Tf\n1 0 0 1 %.2f %.2f Tm\n(%s) Tj\n",
			font, size, marginX, y, escapePDFString(ln.text))
		y -= lineHeight
		if size > bodySize {
			y -= float64(size-bodySize) * 0.6
		}
	}
	b.WriteString("ET\n")
	return b.String()
}
