package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ConfigFileName), []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return dir
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Interpretation != ModeEager {
		t.Errorf("interpretation = %q, want eager", cfg.Interpretation)
	}
	if cfg.MonteCarlo.Samples != 1 {
		t.Errorf("samples = %d, want 1", cfg.MonteCarlo.Samples)
	}
	if cfg.MonteCarlo.Seed != nil {
		t.Errorf("seed = %v, want unset", *cfg.MonteCarlo.Seed)
	}
}

func TestLoadFullConfig(t *testing.T) {
	dir := writeConfig(t, `
interpretation: montecarlo
montecarlo:
  samples: 10
  seed: 42
cache:
  path: memo.db
`)
	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Interpretation != ModeMonteCarlo {
		t.Errorf("interpretation = %q, want montecarlo", cfg.Interpretation)
	}
	if cfg.MonteCarlo.Samples != 10 {
		t.Errorf("samples = %d, want 10", cfg.MonteCarlo.Samples)
	}
	if cfg.MonteCarlo.Seed == nil || *cfg.MonteCarlo.Seed != 42 {
		t.Errorf("seed = %v, want 42", cfg.MonteCarlo.Seed)
	}
	if cfg.Cache.Path != "memo.db" {
		t.Errorf("cache path = %q, want memo.db", cfg.Cache.Path)
	}
}

func TestLoadPartialConfigKeepsDefaults(t *testing.T) {
	dir := writeConfig(t, "interpretation: lazy\n")
	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Interpretation != ModeLazy {
		t.Errorf("interpretation = %q, want lazy", cfg.Interpretation)
	}
	if cfg.MonteCarlo.Samples != 1 {
		t.Errorf("samples = %d, want the default 1", cfg.MonteCarlo.Samples)
	}
}

func TestLoadRejectsUnknownMode(t *testing.T) {
	dir := writeConfig(t, "interpretation: psychic\n")
	_, err := Load(dir)
	if err == nil || !strings.Contains(err.Error(), "unknown interpretation") {
		t.Fatalf("load = %v, want unknown interpretation error", err)
	}
}

func TestLoadRejectsBadYAML(t *testing.T) {
	dir := writeConfig(t, "interpretation: [\n")
	if _, err := Load(dir); err == nil {
		t.Fatal("load succeeded on malformed yaml")
	}
}

func TestValidateSamples(t *testing.T) {
	cfg := Default()
	cfg.MonteCarlo.Samples = 0
	if err := cfg.Validate(); err == nil {
		t.Fatal("validate accepted zero samples")
	}
}
