package questionbank

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestBankQuestionsKnownNiche(t *testing.T) {
	dir := t.TempDir()
	doc := "## A. Flota\n1. ¿Las unidades están aseguradas? [SÍ | NO]\n"
	if err := os.WriteFile(filepath.Join(dir, "autotransporte_diagnostico.md"), []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}

	bank := NewBank(dir)
	questions, err := bank.Questions("autotransporte")
	if err != nil {
		t.Fatalf("Questions: %v", err)
	}
	if len(questions) != 1 {
		t.Fatalf("expected 1 question, got %d", len(questions))
	}
	if questions[0].Category != "Flota" {
		t.Errorf("category = %q, want Flota", questions[0].Category)
	}
}

func TestBankUnknownNiche(t *testing.T) {
	bank := NewBank(t.TempDir())
	_, err := bank.Questions("fintech")
	if !errors.Is(err, ErrUnknownNiche) {
		t.Fatalf("expected ErrUnknownNiche, got %v", err)
	}
}

func TestBankMissingDocument(t *testing.T) {
	bank := NewBank(t.TempDir())
	_, err := bank.Questions("holding")
	if !errors.Is(err, ErrBankUnavailable) {
		t.Fatalf("expected ErrBankUnavailable, got %v", err)
	}
}

func TestBankNichesCoversAllDocuments(t *testing.T) {
	bank := NewBank(".")
	niches := bank.Niches()
	if len(niches) != len(documents) {
		t.Fatalf("expected %d niches, got %d", len(documents), len(niches))
	}
	seen := map[string]bool{}
	for _, n := range niches {
		seen[n] = true
	}
	for id := range documents {
		if !seen[id] {
			t.Errorf("niche %q missing from Niches()", id)
		}
	}
}
