package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"enrollsync/internal/config"
	"enrollsync/internal/testsupport"
)

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
	sourceDir  string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()
	clearDatabaseEnv(t)
	t.Setenv("HOME", t.TempDir())

	cfg := testsupport.NewConfig(t)
	configPath := filepath.Join(testsupport.BaseDir(cfg), "config.toml")
	writeTestConfig(t, configPath, cfg)
	return &cliTestEnv{cfg: cfg, configPath: configPath, sourceDir: cfg.Paths.SourceDir}
}

func clearDatabaseEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{config.EnvStagingDSN, config.EnvProductionDSN, config.EnvDatabaseURL} {
		t.Setenv(key, "")
	}
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	data, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func seedSourceTree(t *testing.T, src string) {
	t.Helper()
	testsupport.WriteFile(t, filepath.Join(src, "Work and Travel", "Juan Gomez", "pasaporte.pdf"), 256)
	testsupport.WriteFile(t, filepath.Join(src, "Work and Travel", "Juan Gomez", "visa.pdf"), 128)
	testsupport.WriteFile(t, filepath.Join(src, "Au Pair", "Laura Perez", "foto.jpg"), 64)
	testsupport.WriteText(t, filepath.Join(src, "estudiantes.csv"), "Nombre,Correo\nJuan Gomez,juan@example.com\n")
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	flags := []string{"--log-level", "error"}
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func decodeJSON[T any](t *testing.T, raw string) T {
	t.Helper()
	var v T
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		t.Fatalf("decode output %q: %v", raw, err)
	}
	return v
}
