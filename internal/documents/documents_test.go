package documents_test

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/goleak"

	"enrollsync/internal/documents"
	"enrollsync/internal/failure"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		want documents.Type
	}{
		{"Pasaporte Juan.pdf", documents.TypePassport},
		{"DS-160 confirmation.pdf", documents.TypeVisa},
		{"Visa passport scan.pdf", documents.TypePassport},
		{"Certificado de Notas.pdf", documents.TypeTranscript},
		{"foto 2x2.jpg", documents.TypePhoto},
		{"Cédula ampliada.pdf", documents.TypeIDCard},
		{"Hoja de Vida.docx", documents.TypeResume},
		{"CU2024 firmado.pdf", documents.TypeContract},
		{"Antecedentes Policía.pdf", documents.TypeBackgroundCheck},
		{"Cotización.xlsx", documents.TypeQuotation},
		{"scan0001.pdf", documents.TypeOther},
	}
	for _, tt := range tests {
		if got := documents.Classify(tt.name); got != tt.want {
			t.Fatalf("Classify(%q) = %s, want %s", tt.name, got, tt.want)
		}
	}
}

func TestMIMEType(t *testing.T) {
	if got := documents.MIMEType("a.PDF"); got != "application/pdf" {
		t.Fatalf("unexpected mime %q", got)
	}
	if got := documents.MIMEType("a.weird"); got != "application/octet-stream" {
		t.Fatalf("unexpected default mime %q", got)
	}
}

func TestLocalAdapterMetadata(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "Pasaporte.pdf")
	content := []byte("passport bytes")
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	sum := sha256.Sum256(content)

	adapter := documents.NewLocalAdapter()
	meta, err := adapter.Metadata(path, "Juan Gomez")
	if err != nil {
		t.Fatalf("Metadata failed: %v", err)
	}
	if meta.Checksum != hex.EncodeToString(sum[:]) || len(meta.Checksum) != 64 {
		t.Fatalf("unexpected checksum %q", meta.Checksum)
	}
	if meta.Size != int64(len(content)) || meta.MIME != "application/pdf" || meta.DocType != documents.TypePassport {
		t.Fatalf("unexpected metadata %+v", meta)
	}
	if meta.OwnerHint != "Juan Gomez" || meta.Name != "Pasaporte.pdf" {
		t.Fatalf("unexpected metadata %+v", meta)
	}
}

func TestLocalAdapterValidate(t *testing.T) {
	adapter := documents.NewLocalAdapter()
	if err := adapter.Validate(filepath.Join(t.TempDir(), "missing.pdf")); !errors.Is(err, failure.ErrIO) {
		t.Fatalf("expected i/o error for missing file, got %v", err)
	}
	if err := adapter.Validate(t.TempDir()); err == nil {
		t.Fatal("expected error for directory")
	}
}

func TestDescribeKeepsOrderAndCollectsFailures(t *testing.T) {
	dir := t.TempDir()
	var paths []string
	for _, name := range []string{"a.pdf", "b.jpg", "c.docx", "d.png"} {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(name), 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
		paths = append(paths, path)
	}
	paths = append(paths[:2], append([]string{filepath.Join(dir, "gone.pdf")}, paths[2:]...)...)

	metas, failed, err := documents.Describe(context.Background(), documents.NewLocalAdapter(), paths, "owner", 3)
	if err != nil {
		t.Fatalf("Describe failed: %v", err)
	}
	if len(metas) != 4 || len(failed) != 1 {
		t.Fatalf("expected 4 results and 1 failure, got %d and %d", len(metas), len(failed))
	}
	want := []string{"a.pdf", "b.jpg", "c.docx", "d.png"}
	for i, meta := range metas {
		if meta.Name != want[i] {
			t.Fatalf("result %d = %s, want %s", i, meta.Name, want[i])
		}
	}
	if filepath.Base(failed[0].Path) != "gone.pdf" {
		t.Fatalf("unexpected failure %+v", failed[0])
	}
}

func TestDescribeHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	path := filepath.Join(t.TempDir(), "a.pdf")
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, _, err := documents.Describe(ctx, documents.NewLocalAdapter(), []string{path}, "", 1); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
