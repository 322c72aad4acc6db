package logging

import "testing"

func TestNewLevels(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error"} {
		log, err := New(level, "json")
		if err != nil {
			t.Errorf("New(%q, json): %v", level, err)
			continue
		}
		_ = log.Sync()
	}
}

func TestNewConsoleFormat(t *testing.T) {
	if _, err := New("info", "console"); err != nil {
		t.Fatalf("New console: %v", err)
	}
}

func TestNewRejectsBadInput(t *testing.T) {
	if _, err := New("loud", "json"); err == nil {
		t.Error("invalid level must fail")
	}
	if _, err := New("info", "xml"); err == nil {
		t.Error("invalid format must fail")
	}
}
