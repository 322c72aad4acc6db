package questionbank

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

var (
	// ErrUnknownNiche means the niche id has no diagnostic document.
	ErrUnknownNiche = errors.New("unknown niche")
	// ErrBankUnavailable means the niche is known but its document
	// could not be read from disk.
	ErrBankUnavailable = errors.New("diagnostic document unavailable")
)

// documents maps each supported niche to its diagnostic document.
var documents = map[string]string{
	"holding":          "holding_grupo_diagnostico.md",
	"constructora":     "constructora_diagnostico.md",
	"autotransporte":   "autotransporte_diagnostico.md",
	"comercializadora": "comercializadora_diagnostico.md",
	"manufactura":      "manufactura_transformacion_diagnostico.md",
}

// Bank resolves niche ids to parsed question lists.
type Bank struct {
	dir string
}

func NewBank(dir string) *Bank {
	return &Bank{dir: dir}
}

// Questions loads and parses the diagnostic document for a niche.
func (b *Bank) Questions(niche string) ([]Question, error) {
	filename, ok := documents[niche]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownNiche, niche)
	}
	content, err := os.ReadFile(filepath.Join(b.dir, filename))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrBankUnavailable, filename, err)
	}
	return Parse(string(content)), nil
}

// Niches returns the supported niche ids.
func (b *Bank) Niches() []string {
	out := make([]string, 0, len(documents))
	for id := range documents {
		out = append(out, id)
	}
	return out
}
