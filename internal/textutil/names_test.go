package textutil_test

import (
	"testing"

	"enrollsync/internal/textutil"
)

func TestNormalizeName(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "accents", in: "MARÍA PÉREZ", want: "MARIA PEREZ"},
		{name: "spacing and case", in: "  Maria   Perez", want: "MARIA PEREZ"},
		{name: "tilde", in: "Íñigo Muñoz", want: "INIGO MUNOZ"},
		{name: "hyphen kept", in: "Ana-Lucía  Ruiz", want: "ANA-LUCIA RUIZ"},
		{name: "digits and punctuation dropped", in: "Juan Gómez (2)", want: "JUAN GOMEZ"},
		{name: "tabs and newlines", in: "juan\tcarlos\nlopez", want: "JUAN CARLOS LOPEZ"},
		{name: "empty", in: "", want: ""},
		{name: "whitespace only", in: "   \t ", want: ""},
		{name: "symbols only", in: "123 !!", want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := textutil.NormalizeName(tt.in); got != tt.want {
				t.Fatalf("NormalizeName(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNormalizeNameIdempotent(t *testing.T) {
	inputs := []string{
		"", " ", "MARÍA PÉREZ", "  Maria   Perez", "o'neil", "José-María  de la Cruz", "ÆØÅ ß", "2024", "WAT 2023",
		"Çağla Şen", " Luz Marina ",
	}
	for _, in := range inputs {
		once := textutil.NormalizeName(in)
		twice := textutil.NormalizeName(once)
		if once != twice {
			t.Fatalf("NormalizeName not idempotent for %q: %q then %q", in, once, twice)
		}
	}
}

func TestFold(t *testing.T) {
	if got := textutil.Fold("  Correo  Electrónico "); got != "correo electronico" {
		t.Fatalf("Fold returned %q", got)
	}
	if got := textutil.Fold("E-mail"); got != "e-mail" {
		t.Fatalf("Fold should keep punctuation, got %q", got)
	}
}

func TestSanitizeToken(t *testing.T) {
	if got := textutil.SanitizeToken("MARIA PEREZ"); got != "maria_perez" {
		t.Fatalf("SanitizeToken returned %q", got)
	}
	if got := textutil.SanitizeToken("  "); got != "unknown" {
		t.Fatalf("expected unknown for blank input, got %q", got)
	}
	if got := textutil.SanitizeFileName("  Pasaporte Ñandú: copia?.pdf"); got != "Pasaporte_Nandu-_copia.pdf" {
		t.Fatalf("SanitizeFileName returned %q", got)
	}
	if got := textutil.DigitsOnly("+57 (300) 123-4567"); got != "573001234567" {
		t.Fatalf("DigitsOnly returned %q", got)
	}
}
