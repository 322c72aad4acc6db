package questionbank

import (
	"regexp"
	"strings"
)

// Question is one categorized entry of a niche diagnostic document.
// Number is kept verbatim as text: authors use leading zeros and gaps
// and the frontend echoes the label back unchanged.
type Question struct {
	Text     string   `json:"q"`
	Number   string   `json:"num"`
	Category string   `json:"cat"`
	Options  []string `json:"options"`
}

var (
	categoryRe   = regexp.MustCompile(`^##\s+(?:[A-Za-z0-9]+\.\s*)?([^(]+)`)
	questionRe   = regexp.MustCompile(`^(\d+)\.\s+(.+)$`)
	sameLineOpts = regexp.MustCompile(`\[([^\]]+)\]$`)
	nextLineOpts = regexp.MustCompile(`^\[([^\]]+)\]$`)
	optionsLabel = regexp.MustCompile(`(?i)^OPTIONS:`)
)

// Parse extracts the ordered question list from a diagnostic markdown
// document. Malformed lines are skipped, never reported: the documents
// are edited by hand and a broken line must not take the endpoint down.
func Parse(content string) []Question {
	var questions []Question
	currentCategory := "General"

	lines := strings.Split(content, "\n")
	for i := 0; i < len(lines); i++ {
		line := strings.TrimSpace(lines[i])

		if m := categoryRe.FindStringSubmatch(line); m != nil {
			currentCategory = strings.TrimSpace(m[1])
			continue
		}

		m := questionRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		num := m[1]
		text := strings.TrimSpace(m[2])
		var options []string

		if sm := sameLineOpts.FindStringSubmatch(text); sm != nil && looksLikeOptions(sm[1]) {
			options = splitOptions(sm[1])
			text = strings.TrimSpace(strings.TrimSuffix(text, sm[0]))
		} else if i+1 < len(lines) {
			next := strings.TrimSpace(lines[i+1])
			if nm := nextLineOpts.FindStringSubmatch(next); nm != nil && looksLikeOptions(nm[1]) {
				options = splitOptions(nm[1])
				i++ // options line consumed
			}
		}

		questions = append(questions, Question{
			Text:     text,
			Number:   num,
			Category: currentCategory,
			Options:  options,
		})
	}
	return questions
}

// looksLikeOptions distinguishes a choice list from an annotation
// bracket (citations, editor notes). A bare bracketed phrase with no
// separator and no OPTIONS marker stays part of the question text.
func looksLikeOptions(raw string) bool {
	return strings.Contains(raw, "|") || strings.Contains(strings.ToUpper(raw), "OPTIONS")
}

func splitOptions(raw string) []string {
	raw = strings.TrimSpace(optionsLabel.ReplaceAllString(strings.TrimSpace(raw), ""))
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, "|")
	options := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			options = append(options, p)
		}
	}
	return options
}
