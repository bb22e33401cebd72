package nonperson_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"enrollsync/internal/nonperson"
)

func TestFilterRejectsArtifacts(t *testing.T) {
	f := nonperson.New(nonperson.List{})
	tests := []struct {
		name string
		want nonperson.Rule
	}{
		{"AU PAIR", nonperson.RuleBlacklist},
		{"au pair", nonperson.RuleBlacklist},
		{"  Lista   de Espera ", nonperson.RuleBlacklist},
		{"Canada", nonperson.RuleBlacklist},
		{"2019", nonperson.RuleBlacklist},
		{"2031", nonperson.RulePattern},
		{"WAT 2030", nonperson.RulePattern},
		{"ppm 2029", nonperson.RulePattern},
		{"Docs Visa Juan", nonperson.RulePattern},
		{"Formatos correo", nonperson.RulePattern},
		{"12. Seguimiento", nonperson.RulePattern},
		{"Preguntas Work and Travel 2025", nonperson.RulePattern},
		{"MARKETING", nonperson.RuleShape},
		{"marketing", nonperson.RuleShape},
		{"JD", nonperson.RuleShape},
		{"WAT ICE", nonperson.RuleShape},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := f.Check(tt.name); got != tt.want {
				t.Fatalf("Check(%q) = %q, want %q", tt.name, got, tt.want)
			}
			if !f.IsNonPerson(tt.name) {
				t.Fatalf("IsNonPerson(%q) = false", tt.name)
			}
		})
	}
}

func TestFilterNumericStrings(t *testing.T) {
	f := nonperson.New(nonperson.List{})
	for _, name := range []string{"123456", "1.234.567", "99,5", "000"} {
		if !f.IsNonPerson(name) {
			t.Fatalf("expected numeric %q to be rejected", name)
		}
	}
}

func TestFilterAcceptsPeople(t *testing.T) {
	f := nonperson.New(nonperson.List{})
	for _, name := range []string{"Juan Gomez", "MARÍA PÉREZ", "Ana-Lucía Ruiz Torres", "Alexandrina Wu"} {
		if f.IsNonPerson(name) {
			t.Fatalf("expected %q to be accepted, rule %q", name, f.Check(name))
		}
	}
}

func TestBlacklistTokensRegardlessOfCase(t *testing.T) {
	f := nonperson.New(nonperson.List{})
	for _, token := range []string{"TODOS", "OFICINA", "VISAS", "QUOTATIONS", "DUBAI", "IRLANDA"} {
		for _, variant := range []string{token, strings.ToLower(token), token[:1] + strings.ToLower(token[1:])} {
			if !f.IsNonPerson(variant) {
				t.Fatalf("expected %q to be rejected", variant)
			}
		}
	}
}

func TestWhitelistOverridesEveryRule(t *testing.T) {
	f := nonperson.New(nonperson.List{Whitelist: []string{"student-1"}})
	if f.Rejects("student-1", "MARKETING") {
		t.Fatal("whitelisted id should not be rejected")
	}
	if !f.Rejects("student-2", "MARKETING") {
		t.Fatal("non-whitelisted id should be rejected")
	}
	if f.Rejects("student-2", "Juan Gomez") {
		t.Fatal("person name should not be rejected")
	}
}

func TestLoadListExtendsBlacklist(t *testing.T) {
	path := filepath.Join(t.TempDir(), "filter.yaml")
	content := "blacklist:\n  - seguimiento clientes\nwhitelist:\n  - abc\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write list: %v", err)
	}
	list, err := nonperson.LoadList(path)
	if err != nil {
		t.Fatalf("LoadList failed: %v", err)
	}
	f := nonperson.New(list)
	if got := f.Check("Seguimiento Clientes"); got != nonperson.RuleBlacklist {
		t.Fatalf("expected blacklist hit, got %q", got)
	}
	if !f.Whitelisted("abc") {
		t.Fatal("expected abc to be whitelisted")
	}
}

func TestLoadListMissingFile(t *testing.T) {
	list, err := nonperson.LoadList(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("LoadList failed: %v", err)
	}
	if len(list.Blacklist) != 0 || len(list.Whitelist) != 0 {
		t.Fatalf("expected empty list, got %+v", list)
	}
}
