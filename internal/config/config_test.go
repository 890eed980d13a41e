package config

import (
	"os"
	"path/filepath"
	"testing"

	"treelint/internal/diag"
	"treelint/internal/rules"
)

func writeManifest(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, ManifestName)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}
	return path
}

func TestLoadAndResolve(t *testing.T) {
	dir := t.TempDir()
	path := writeManifest(t, dir, `
max_diagnostics = 25

[rules.throw-in-cleanup]
severity = "error"

[rules.empty-cleanup]
enabled = false
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.MaxDiagnostics != 25 {
		t.Fatalf("expected max_diagnostics 25, got %d", cfg.MaxDiagnostics)
	}

	registry := rules.Default()
	if err := cfg.Validate(registry); err != nil {
		t.Fatalf("validate failed: %v", err)
	}

	rule, _ := registry.Lookup("throw-in-cleanup")
	if got := cfg.RuleSeverity(rule); got != diag.SevError {
		t.Fatalf("expected severity override to error, got %s", got)
	}
	if cfg.RuleEnabled("empty-cleanup") {
		t.Fatalf("empty-cleanup should be disabled")
	}
	if !cfg.RuleEnabled("rethrow-outside-catch") {
		t.Fatalf("unconfigured rules default to enabled")
	}
}

func TestValidateRejectsUnknownRule(t *testing.T) {
	dir := t.TempDir()
	path := writeManifest(t, dir, `
[rules.no-such-rule]
enabled = false
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if err := cfg.Validate(rules.Default()); err == nil {
		t.Fatalf("expected unknown rule rejection")
	}
}

func TestValidateRejectsBadSeverity(t *testing.T) {
	dir := t.TempDir()
	path := writeManifest(t, dir, `
[rules.throw-in-cleanup]
severity = "fatal"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if err := cfg.Validate(rules.Default()); err == nil {
		t.Fatalf("expected unknown severity rejection")
	}
}

func TestFindWalksUpward(t *testing.T) {
	root := t.TempDir()
	writeManifest(t, root, "max_diagnostics = 5\n")
	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	path, ok, err := Find(nested)
	if err != nil {
		t.Fatalf("find failed: %v", err)
	}
	if !ok {
		t.Fatalf("manifest not found from nested dir")
	}
	if filepath.Dir(path) != root {
		t.Fatalf("expected manifest in %s, got %s", root, path)
	}
}

func TestDefaultWhenMissing(t *testing.T) {
	_, ok, err := Find(t.TempDir())
	if err != nil {
		t.Fatalf("find failed: %v", err)
	}
	if ok {
		t.Fatalf("unexpected manifest in empty dir")
	}
	cfg := Default()
	if cfg.MaxDiagnostics != 100 {
		t.Fatalf("unexpected default cap %d", cfg.MaxDiagnostics)
	}
}
