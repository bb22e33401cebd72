package identity_test

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"enrollsync/internal/identity"
)

func TestKeysForFollowsCascadeOrder(t *testing.T) {
	c := identity.NewCandidate("María Pérez", "Maria@X.com ", "300 123 4567", "1.020.304")
	got := identity.KeysFor(c)
	want := []identity.MatchKey{
		{Kind: identity.KeyNationalID, Value: "1020304"},
		{Kind: identity.KeyEmail, Value: "maria@x.com"},
		{Kind: identity.KeyNamePhone, Value: "MARIA PEREZ|3001234567"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("KeysFor mismatch (-want +got):\n%s", diff)
	}
}

func TestKeysForNameOnlyWhenNoContact(t *testing.T) {
	c := identity.NewCandidate("  Juan  Gomez", "n/a", "123", "")
	keys := identity.KeysFor(c)
	if len(keys) != 1 || keys[0] != identity.NameOnlyKey("Juan Gomez") {
		t.Fatalf("expected name-only key, got %v", keys)
	}
	if keys[0].String() != "name_only:JUAN GOMEZ" {
		t.Fatalf("unexpected key string %q", keys[0].String())
	}
	if _, ok := identity.PrimaryKey(identity.Candidate{}); ok {
		t.Fatal("empty candidate should have no primary key")
	}
}

func TestIndexMergesOnSharedEmail(t *testing.T) {
	ix := identity.NewIndex()
	first := identity.NewCandidate("Ana Ruiz", "ana@x.com", "", "")
	second := identity.NewCandidate("Ana M. Ruiz", "ANA@x.com", "3001112222", "")
	second.City = "Bogotá"

	if _, merged := ix.Add(first); merged {
		t.Fatal("first add should not merge")
	}
	entry, merged := ix.Add(second)
	if !merged {
		t.Fatal("second add should merge on email")
	}
	if ix.Len() != 1 || ix.Merges() != 1 {
		t.Fatalf("expected one entry and one merge, got len=%d merges=%d", ix.Len(), ix.Merges())
	}
	if entry.FullName != "Ana Ruiz" {
		t.Fatalf("existing name must not be overwritten, got %q", entry.FullName)
	}
	if entry.Phone != "3001112222" || entry.City != "Bogotá" {
		t.Fatalf("null fields should be filled, got %+v", entry)
	}
	if _, ok := ix.Lookup(identity.NamePhoneKey("Ana Ruiz", "3001112222")); !ok {
		t.Fatal("merged entry should be reachable by its new name+phone key")
	}
}

func TestIndexKeepsSameNameDifferentEmailsApart(t *testing.T) {
	ix := identity.NewIndex()
	ix.Add(identity.NewCandidate("Luis Diaz", "luis1@x.com", "", ""))
	ix.Add(identity.NewCandidate("Luis Diaz", "luis2@x.com", "", ""))
	if ix.Len() != 2 {
		t.Fatalf("expected two entries, got %d", ix.Len())
	}
}

func TestFillNeverOverwrites(t *testing.T) {
	born := time.Date(1998, 9, 25, 0, 0, 0, 0, time.UTC)
	c := identity.Candidate{FullName: "A", Email: "a@x.com"}
	changed := c.Fill(identity.Candidate{FullName: "B", Email: "b@x.com", BirthDate: born, Country: "Colombia"})
	if !changed {
		t.Fatal("expected a change")
	}
	if c.FullName != "A" || c.Email != "a@x.com" {
		t.Fatalf("non-null fields overwritten: %+v", c)
	}
	if !c.BirthDate.Equal(born) || c.Country != "Colombia" {
		t.Fatalf("null fields not filled: %+v", c)
	}
	if c.Fill(identity.Candidate{FullName: "C"}) {
		t.Fatal("expected no change")
	}
}

func TestCleaners(t *testing.T) {
	if got := identity.CleanEmail("no-at-sign"); got != "" {
		t.Fatalf("CleanEmail kept %q", got)
	}
	if got := identity.CleanPhone("12345"); got != "" {
		t.Fatalf("CleanPhone kept short value %q", got)
	}
	if got := identity.CleanPhone("3001234567.0"); got != "3001234567" {
		t.Fatalf("CleanPhone returned %q", got)
	}
	if got := identity.CleanNationalID("1020304.0"); got != "1020304" {
		t.Fatalf("CleanNationalID returned %q", got)
	}
	if got := identity.CleanText(" NaN "); got != "" {
		t.Fatalf("CleanText returned %q", got)
	}
}

func TestPlaceholderEmail(t *testing.T) {
	tests := []struct {
		name string
		c    identity.Candidate
		want string
	}{
		{"phone wins", identity.NewCandidate("Juan Gómez", "", "+57 300 123 4567", ""), "phone.573001234567@placeholder.invalid"},
		{"name fallback", identity.NewCandidate("Juan Gómez", "", "", ""), "juan_gomez@placeholder.invalid"},
		{"empty name", identity.Candidate{}, "unknown@placeholder.invalid"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := identity.PlaceholderEmail(tt.c)
			if got != tt.want {
				t.Fatalf("PlaceholderEmail = %q, want %q", got, tt.want)
			}
			if !identity.IsPlaceholderEmail(got) {
				t.Fatalf("IsPlaceholderEmail(%q) = false", got)
			}
		})
	}
	if identity.IsPlaceholderEmail("juan@x.com") {
		t.Fatal("real address reported as placeholder")
	}
}
