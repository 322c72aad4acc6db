package lead

import "strings"

// Sentinel marks a logical field that was absent from every candidate
// location. Downstream sinks (spreadsheet, PDF, email) print it as-is.
const Sentinel = "N/A"

// MinRFCLength is the shortest syntactically acceptable tax id after
// sanitization (12 for companies, 13 for individuals).
const MinRFCLength = 12

// MinAnsweredResponses is the data-quality floor: a questionnaire with
// fewer real answers produces a worthless diagnostic, so it is rejected
// before any scoring cost is incurred.
const MinAnsweredResponses = 10

// Metadata is the canonical lead record reconciled from the untyped
// request tree. Every field defaults to Sentinel rather than "".
type Metadata struct {
	Company       string         `json:"company_name"`
	Contact       string         `json:"contact_name"`
	Role          string         `json:"contact_role"`
	Email         string         `json:"contact_email"`
	Phone         string         `json:"contact_phone"`
	Niche         string         `json:"niche_id"`
	BillingRange  string         `json:"billing_range"`
	RFC           string         `json:"rfc"`
	Activity      string         `json:"main_activity"`
	FinancialData map[string]any `json:"financial_data,omitempty"`
}

// Response is one normalized questionnaire answer.
type Response struct {
	Question   string `json:"question"`
	Answer     string `json:"answer"`
	QIndex     any    `json:"q_index,omitempty"`
	CategoryID string `json:"category_id,omitempty"`
}

// Answered reports whether the response carries a real answer rather
// than the sentinel placeholder.
func (r Response) Answered() bool {
	a := strings.TrimSpace(r.Answer)
	return a != "" && !strings.EqualFold(a, Sentinel)
}

// Submission is a decoded and reconciled intake request.
type Submission struct {
	Metadata  Metadata
	Responses []Response
}

// AnsweredCount returns the number of non-sentinel answers.
func (s *Submission) AnsweredCount() int {
	n := 0
	for _, r := range s.Responses {
		if r.Answered() {
			n++
		}
	}
	return n
}

// ValidationError reports the required fields a submission is missing.
// Validation happens before any external call so a bad request never
// costs an LLM or spreadsheet round-trip.
type ValidationError struct {
	Missing []string
}

func (e *ValidationError) Error() string {
	return "missing required fields: " + strings.Join(e.Missing, ", ")
}

// First returns the description of the first missing field, for the
// client-facing error message.
func (e *ValidationError) First() string {
	if len(e.Missing) == 0 {
		return "invalid submission"
	}
	return e.Missing[0]
}
