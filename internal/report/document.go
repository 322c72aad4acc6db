package report

import (
	"context"
	"time"

	"github.com/mentoresestrategicos/kontify-brain/internal/diagnostic"
	"github.com/mentoresestrategicos/kontify-brain/internal/lead"
)

// Document is everything a renderer needs to produce the client-facing
// risk report.
type Document struct {
	Folio       string
	GeneratedAt time.Time
	Lead        lead.Metadata
	Diagnostic  diagnostic.Result
}

// Renderer produces the report PDF bytes. A render failure aborts the
// submission pipeline: without a deliverable there is nothing to
// notify about.
type Renderer interface {
	Render(ctx context.Context, doc *Document) ([]byte, error)
}

// scoreBand returns the traffic-light band for a risk score; the bands
// match the scoring rule communicated to the model.
func scoreBand(score float64) string {
	switch {
	case score > 70:
		return "critical"
	case score > 40:
		return "moderate"
	default:
		return "preventive"
	}
}
