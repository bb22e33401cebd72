package production

import "testing"

func TestRebind(t *testing.T) {
	query := "SELECT id FROM persons WHERE email = ? AND phone = ?"
	if got := rebind(DriverSQLite, query); got != query {
		t.Fatalf("sqlite rebind changed query: %q", got)
	}
	want := "SELECT id FROM persons WHERE email = $1 AND phone = $2"
	if got := rebind(DriverPostgres, query); got != want {
		t.Fatalf("postgres rebind = %q, want %q", got, want)
	}
}

func TestSplitStatements(t *testing.T) {
	got := splitStatements("CREATE TABLE a (x TEXT);\n\n CREATE INDEX i ON a (x);\n")
	if len(got) != 2 {
		t.Fatalf("expected 2 statements, got %d: %q", len(got), got)
	}
	if got[1] != "CREATE INDEX i ON a (x)" {
		t.Fatalf("unexpected statement %q", got[1])
	}
}
