package config

import (
	"os"
	"path/filepath"
	"testing"
)

const validYAML = `
version: v1
rules:
  - id: r1
    name: rule one
    enabled: true
    trigger:
      event:
        name: goal_achieved
    actions:
      - kind: notify_coach
        priority: high
`

// Same rule, but with the actions stripped: parses fine, fails validation.
const invalidYAML = `
version: v1
rules:
  - id: r1
    name: rule one
    enabled: true
    trigger:
      event:
        name: goal_achieved
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "rules.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestNewLoader(t *testing.T) {
	l, err := NewLoader(writeConfig(t, validYAML))
	if err != nil {
		t.Fatalf("NewLoader error: %v", err)
	}
	cfg := l.Config()
	if len(cfg.Rules) != 1 || cfg.Rules[0].ID != "r1" {
		t.Errorf("unexpected config: %+v", cfg)
	}
	if cfg.Engine.SweepWorkers != 8 || cfg.Engine.SubjectKind != "client" {
		t.Errorf("defaults not applied: %+v", cfg.Engine)
	}
}

func TestNewLoader_RejectsInvalidConfig(t *testing.T) {
	if _, err := NewLoader(writeConfig(t, invalidYAML)); err == nil {
		t.Fatal("expected validation error, got nil")
	}
}

// A reload of a config that parses but fails validation must return an error
// and leave the previously installed config in place.
func TestLoader_ReloadKeepsLastValidConfig(t *testing.T) {
	path := writeConfig(t, validYAML)
	l, err := NewLoader(path)
	if err != nil {
		t.Fatalf("NewLoader error: %v", err)
	}
	l.OnChange(func(*File) {
		t.Error("invalid config must not reach OnChange callbacks")
	})

	if err := os.WriteFile(path, []byte(invalidYAML), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := l.Reload(); err == nil {
		t.Fatal("expected reload to fail validation")
	}

	cfg := l.Config()
	if len(cfg.Rules) != 1 || len(cfg.Rules[0].Actions) != 1 {
		t.Errorf("Config() no longer reflects the last valid file: %+v", cfg)
	}
}
