package logging_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"enrollsync/internal/config"
	"enrollsync/internal/logging"
)

func TestNewFromConfigWritesJSONFile(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.LogDir = t.TempDir()
	cfg.Logging.Level = "warn"

	logger, err := logging.NewFromConfig(&cfg)
	if err != nil {
		t.Fatalf("NewFromConfig failed: %v", err)
	}
	logger.Info("suppressed")
	logger.Warn("lead skipped", logging.String(logging.FieldEventType, "lead_failed"))

	content, err := os.ReadFile(filepath.Join(cfg.Paths.LogDir, logging.LogFileName))
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(content)), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected 1 log line, got %d: %q", len(lines), content)
	}
	var record map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &record); err != nil {
		t.Fatalf("decode log line: %v", err)
	}
	if record["msg"] != "lead skipped" || record["level"] != "warn" || record["event_type"] != "lead_failed" {
		t.Fatalf("unexpected record: %v", record)
	}
	if _, ok := record["ts"]; !ok {
		t.Fatalf("expected ts key, got %v", record)
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestJSONLoggerRendersDurationsInMilliseconds(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "json.log")
	logger, err := logging.New(logging.Options{
		Format:           "json",
		Level:            "info",
		OutputPaths:      []string{logPath},
		ErrorOutputPaths: []string{logPath},
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	logger.Info("run finished", logging.Duration("duration", 1500*time.Millisecond))

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(content), `"duration_ms":1500`) {
		t.Fatalf("expected duration_ms field, got %q", content)
	}
}

func TestConsoleLoggerOmitsSourceForInfo(t *testing.T) {
	tests := []struct {
		level      string
		wantSource bool
	}{
		{level: "info", wantSource: false},
		{level: "debug", wantSource: true},
	}
	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			logPath := filepath.Join(t.TempDir(), "console.log")
			logger, err := logging.New(logging.Options{
				Format:           "console",
				Level:            tt.level,
				OutputPaths:      []string{logPath},
				ErrorOutputPaths: []string{logPath},
			})
			if err != nil {
				t.Fatalf("New failed: %v", err)
			}
			logger.Info("message")

			content, err := os.ReadFile(logPath)
			if err != nil {
				t.Fatalf("read log file: %v", err)
			}
			if got := strings.Contains(string(content), ".go:"); got != tt.wantSource {
				t.Fatalf("source present = %v, want %v: %q", got, tt.wantSource, content)
			}
		})
	}
}

func TestConsoleLoggerRendersSubjectAndFields(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "console.log")
	logger, err := logging.New(logging.Options{
		Format:           "console",
		Level:            "info",
		OutputPaths:      []string{logPath},
		ErrorOutputPaths: []string{logPath},
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	ctx := logging.WithRunID(context.Background(), "0123456789abcdef")
	ctx = logging.WithRecordKind(ctx, "lead")
	component := logging.NewComponentLogger(logger, "migrate")
	logging.WithContext(ctx, component).Warn("lead skipped",
		logging.String("full_name", "Juan Gomez"),
		logging.Int64("size_bytes", 2048),
		logging.String("checksum", "abc"),
	)

	out := string(mustRead(t, logPath))
	for _, want := range []string{"WARN [migrate] Run 01234567 (lead) - lead skipped", "- Name: Juan Gomez", "- Size Bytes: 2.0 kB", "more field"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output:\n%s", want, out)
		}
	}
	if strings.Contains(out, "checksum") {
		t.Errorf("checksum should be hidden at info level:\n%s", out)
	}
}

func TestWithContextAddsFields(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	ctx := logging.WithRunID(context.Background(), "run-42")
	ctx = logging.WithRecordKind(ctx, "student")
	ctx = logging.WithSourceFile(ctx, "/data/ESTUDIANTES.csv")
	ctx = logging.WithSourceFile(ctx, "   ")

	logging.WithContext(ctx, logger).Info("contextual log")

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := map[string]string{
		logging.FieldRunID:      "run-42",
		logging.FieldRecordKind: "student",
		logging.FieldSourceFile: "/data/ESTUDIANTES.csv",
	}
	for key, value := range want {
		if record[key] != value {
			t.Errorf("field %s = %v, want %q", key, record[key], value)
		}
	}
	if id, ok := logging.RunIDFromContext(ctx); !ok || id != "run-42" {
		t.Fatalf("RunIDFromContext = %q, %v", id, ok)
	}
}

func TestWarnWithContextInjectsDefaults(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	logging.WarnWithContext(logger, "document skipped", "document_unmatched",
		logging.String(logging.FieldErrorHint, "rename the directory"),
		logging.Error(errors.New("no owner")),
	)

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if record[logging.FieldEventType] != "document_unmatched" {
		t.Fatalf("event_type = %v", record[logging.FieldEventType])
	}
	if record[logging.FieldErrorHint] != "rename the directory" {
		t.Fatalf("error_hint overwritten: %v", record[logging.FieldErrorHint])
	}
	if record[logging.FieldImpact] == nil {
		t.Fatalf("expected default impact, got %v", record)
	}
}

func mustRead(t *testing.T, path string) []byte {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return data
}
