package staging_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"enrollsync/internal/failure"
	"enrollsync/internal/identity"
	"enrollsync/internal/staging"
)

func openStore(t *testing.T) *staging.Store {
	t.Helper()
	store, err := staging.Open(filepath.Join(t.TempDir(), "stage", staging.DatabaseName))
	if err != nil {
		t.Fatalf("staging.Open failed: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func directoryPerson(rel, name string) staging.Person {
	c := identity.NewCandidate(name, "", "", "")
	return staging.PersonFromCandidate(staging.DirectoryPersonID(rel), c, staging.SourceDirectory, rel)
}

func TestOpenIsReentrant(t *testing.T) {
	path := filepath.Join(t.TempDir(), staging.DatabaseName)
	for i := 0; i < 2; i++ {
		store, err := staging.Open(path)
		if err != nil {
			t.Fatalf("Open #%d failed: %v", i+1, err)
		}
		if store.Path() != path {
			t.Fatalf("Path = %q, want %q", store.Path(), path)
		}
		if err := store.Close(); err != nil {
			t.Fatalf("Close failed: %v", err)
		}
	}
}

func TestUpsertPersonIsIdempotentAndCoalesces(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	p := directoryPerson("Au Pair/Juan Gomez", "Juan Gomez")
	res, err := store.UpsertPerson(ctx, p)
	if err != nil {
		t.Fatalf("UpsertPerson failed: %v", err)
	}
	if res != staging.WriteInserted {
		t.Fatalf("first write = %s, want inserted", res)
	}

	res, err = store.UpsertPerson(ctx, p)
	if err != nil {
		t.Fatalf("UpsertPerson failed: %v", err)
	}
	if res != staging.WriteUnchanged {
		t.Fatalf("repeat write = %s, want unchanged", res)
	}

	enriched := p
	enriched.Email = "juan@x.com"
	enriched.FullName = "JUAN GOMEZ RENAMED"
	res, err = store.UpsertPerson(ctx, enriched)
	if err != nil {
		t.Fatalf("UpsertPerson failed: %v", err)
	}
	if res != staging.WriteUpdated {
		t.Fatalf("enriching write = %s, want updated", res)
	}

	overwrite := p
	overwrite.Email = "other@x.com"
	if _, err := store.UpsertPerson(ctx, overwrite); err != nil {
		t.Fatalf("UpsertPerson failed: %v", err)
	}

	got, err := store.PersonByID(ctx, p.ID)
	if err != nil {
		t.Fatalf("PersonByID failed: %v", err)
	}
	if got == nil {
		t.Fatal("expected person to exist")
	}
	if got.Email != "juan@x.com" {
		t.Fatalf("email = %q, want first non-null value kept", got.Email)
	}
	if got.FullName != "Juan Gomez" {
		t.Fatalf("full name = %q, want original", got.FullName)
	}
}

func TestDocumentsDedupByChecksum(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	p := directoryPerson("Juan Gomez", "Juan Gomez")
	st := staging.Student{ID: staging.StudentID(p.ID), Status: "ENROLLED", Program: "Au Pair"}
	if _, _, err := store.StageStudent(ctx, p, st); err != nil {
		t.Fatalf("StageStudent failed: %v", err)
	}

	doc := staging.Document{
		ID:           staging.DocumentID("abc"),
		StudentID:    st.ID,
		OriginalName: "pasaporte.pdf",
		FileName:     "PASSPORT_01.pdf",
		Checksum:     "abc",
		Size:         10,
		DocType:      "PASSPORT",
		SourcePath:   "/src/Juan Gomez/pasaporte.pdf",
	}
	inserted, err := store.UpsertDocument(ctx, doc)
	if err != nil || !inserted {
		t.Fatalf("first UpsertDocument = %v, %v", inserted, err)
	}
	copyDoc := doc
	copyDoc.ID = staging.DocumentID("different-id")
	copyDoc.OriginalName = "copy.pdf"
	inserted, err = store.UpsertDocument(ctx, copyDoc)
	if err != nil {
		t.Fatalf("UpsertDocument failed: %v", err)
	}
	if inserted {
		t.Fatal("expected duplicate checksum to be skipped")
	}
	has, err := store.HasDocument(ctx, "abc")
	if err != nil || !has {
		t.Fatalf("HasDocument = %v, %v", has, err)
	}

	records, err := store.Documents(ctx)
	if err != nil {
		t.Fatalf("Documents failed: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 document, got %d", len(records))
	}
	if records[0].Owner.ID != p.ID {
		t.Fatalf("document owner = %s, want %s", records[0].Owner.ID, p.ID)
	}
}

func TestDocumentRequiresStudent(t *testing.T) {
	store := openStore(t)
	_, err := store.UpsertDocument(context.Background(), staging.Document{
		ID: "d", StudentID: "missing", OriginalName: "a.pdf", FileName: "a.pdf",
		Checksum: "x", DocType: "OTHER", SourcePath: "/a.pdf",
	})
	if err == nil {
		t.Fatal("expected foreign key failure")
	}
	if !errors.Is(err, failure.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestStageLeadAndFailures(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	c := identity.NewCandidate("Ana Ruiz", "ana@x.com", "3001234567", "")
	key, _ := identity.PrimaryKey(c)
	p := staging.PersonFromCandidate(staging.TabularPersonID(key), c, staging.SourceTabular, "leads.csv")
	lead := staging.Lead{
		ID:          staging.LeadID(p.ID, "Au Pair", "leads.csv"),
		Program:     "Au Pair",
		Status:      "INTERESTED",
		SourceFile:  "leads.csv",
		SourceSheet: "Interesados",
		RowIndex:    2,
	}
	personRes, leadRes, err := store.StageLead(ctx, p, lead)
	if err != nil {
		t.Fatalf("StageLead failed: %v", err)
	}
	if personRes != staging.WriteInserted || leadRes != staging.WriteInserted {
		t.Fatalf("StageLead = %s/%s, want inserted/inserted", personRes, leadRes)
	}
	_, leadRes, err = store.StageLead(ctx, p, lead)
	if err != nil {
		t.Fatalf("StageLead repeat failed: %v", err)
	}
	if leadRes != staging.WriteUnchanged {
		t.Fatalf("repeat lead = %s, want unchanged", leadRes)
	}

	leads, err := store.Leads(ctx)
	if err != nil {
		t.Fatalf("Leads failed: %v", err)
	}
	if len(leads) != 1 || leads[0].Person.Email != "ana@x.com" || leads[0].Lead.RowIndex != 2 {
		t.Fatalf("unexpected leads: %+v", leads)
	}

	runID := staging.NewRunID()
	want := staging.Failure{
		RunID:        runID,
		RecordKind:   "lead",
		Payload:      `{"full_name":"X"}`,
		ErrorType:    failure.CategoryValidation,
		ErrorMessage: "not null",
		SourceFile:   "leads.csv",
		RowIndex:     5,
	}
	if err := store.RecordFailure(ctx, want); err != nil {
		t.Fatalf("RecordFailure failed: %v", err)
	}
	if err := store.RecordFailure(ctx, staging.Failure{RunID: "other", RecordKind: "lead", ErrorType: failure.CategoryDatabase}); err != nil {
		t.Fatalf("RecordFailure failed: %v", err)
	}
	got, err := store.Failures(ctx, runID)
	if err != nil {
		t.Fatalf("Failures failed: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 failure for run, got %d", len(got))
	}
	got[0].ID = 0
	got[0].CreatedAt = time.Time{}
	if diff := cmp.Diff(want, got[0]); diff != "" {
		t.Fatalf("failure mismatch (-want +got):\n%s", diff)
	}
}

func TestRecordRunAndRuns(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	run := staging.Run{
		ID:         staging.NewRunID(),
		Kind:       staging.RunIngestion,
		SourceDir:  "/data/src",
		Status:     staging.RunCompleted,
		StartedAt:  start,
		FinishedAt: start.Add(90 * time.Second),
		Stats:      map[string]int{"persons_created": 3},
	}
	if err := store.RecordRun(ctx, run); err != nil {
		t.Fatalf("RecordRun failed: %v", err)
	}
	runs, err := store.Runs(ctx, staging.RunIngestion, 5)
	if err != nil {
		t.Fatalf("Runs failed: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("expected 1 run, got %d", len(runs))
	}
	if diff := cmp.Diff(run, runs[0]); diff != "" {
		t.Fatalf("run mismatch (-want +got):\n%s", diff)
	}
	if runs[0].Duration() != 90*time.Second {
		t.Fatalf("duration = %s", runs[0].Duration())
	}
	migrations, err := store.Runs(ctx, staging.RunMigration, 0)
	if err != nil {
		t.Fatalf("Runs failed: %v", err)
	}
	if len(migrations) != 0 {
		t.Fatalf("expected no migration runs, got %d", len(migrations))
	}
}

func TestDeleteStudentCascades(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	p := directoryPerson("2024", "2024")
	st := staging.Student{ID: staging.StudentID(p.ID), Status: "ENROLLED", SourceDir: "2024"}
	if _, _, err := store.StageStudent(ctx, p, st); err != nil {
		t.Fatalf("StageStudent failed: %v", err)
	}
	if _, err := store.UpsertDocument(ctx, staging.Document{
		ID: staging.DocumentID("sum"), StudentID: st.ID, OriginalName: "a.pdf", FileName: "OTHER_01.pdf",
		Checksum: "sum", DocType: "OTHER", SourcePath: "/src/2024/a.pdf", StagedPath: "/stage/documents/x/OTHER_01.pdf",
	}); err != nil {
		t.Fatalf("UpsertDocument failed: %v", err)
	}

	deleted, err := store.DeleteStudent(ctx, st.ID)
	if err != nil {
		t.Fatalf("DeleteStudent failed: %v", err)
	}
	if deleted.Documents != 1 || deleted.Students != 1 || deleted.Persons != 1 {
		t.Fatalf("unexpected deletion: %+v", deleted)
	}
	if len(deleted.StagedPaths) != 1 {
		t.Fatalf("expected staged path reported, got %v", deleted.StagedPaths)
	}

	again, err := store.DeleteStudent(ctx, st.ID)
	if err != nil {
		t.Fatalf("DeleteStudent repeat failed: %v", err)
	}
	if again.Total() != 0 {
		t.Fatalf("expected empty deletion, got %+v", again)
	}
}

func TestStatsAndTruncate(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	p := directoryPerson("Maria Perez", "María Pérez")
	if _, _, err := store.StageStudent(ctx, p, staging.Student{ID: staging.StudentID(p.ID), Status: "ENROLLED"}); err != nil {
		t.Fatalf("StageStudent failed: %v", err)
	}
	if _, err := store.InsertReference(ctx, staging.ReferenceRow{
		Type: "PRICE_LIST", SourceFile: "precios.csv", RowIndex: 2, Payload: map[string]string{"programa": "Au Pair"},
	}); err != nil {
		t.Fatalf("InsertReference failed: %v", err)
	}

	stats, err := store.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats["persons"] != 1 || stats["students"] != 1 || stats["reference_data"] != 1 || stats["students_without_documents"] != 1 {
		t.Fatalf("unexpected stats: %v", stats)
	}

	removed, err := store.Truncate(ctx)
	if err != nil {
		t.Fatalf("Truncate failed: %v", err)
	}
	if removed["persons"] != 1 || removed["students"] != 1 {
		t.Fatalf("unexpected removed counts: %v", removed)
	}
	stats, err = store.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	for table, count := range stats {
		if count != 0 {
			t.Fatalf("expected %s empty after truncate, got %d", table, count)
		}
	}
}
