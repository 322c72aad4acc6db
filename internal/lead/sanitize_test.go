package lead

import (
	"strings"
	"testing"
)

func TestSanitizeRFC(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"CP01020304-56", "CP0102030456"},
		{"cp 0102 0304 56", "CP0102030456"},
		{"  CP0102030456  ", "CP0102030456"},
		{"CORTO1", ""},
		{"", ""},
	}
	for _, c := range cases {
		if got := SanitizeRFC(c.in); got != c.want {
			t.Errorf("SanitizeRFC(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestSanitizeRFCIdempotent(t *testing.T) {
	once := SanitizeRFC("gal-010203 4t5")
	if twice := SanitizeRFC(once); twice != once {
		t.Errorf("not idempotent: %q then %q", once, twice)
	}
}

func TestFoldLatin1TypographicPunctuation(t *testing.T) {
	in := "“Análisis” — riesgo crítico… • detalle"
	out := FoldLatin1(in)
	if strings.ContainsAny(out, "“”—…•") {
		t.Errorf("typographic punctuation survived: %q", out)
	}
	if !strings.Contains(out, `"Análisis"`) {
		t.Errorf("accented latin-1 text must survive: %q", out)
	}
}

func TestFoldLatin1ReplacesOutOfRepertoire(t *testing.T) {
	out := FoldLatin1("riesgo 高 nivel")
	if out != "riesgo ? nivel" {
		t.Errorf("FoldLatin1 = %q, want %q", out, "riesgo ? nivel")
	}
}
