package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func runConfigCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stdout)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), err
}

func TestConfigInitWritesSample(t *testing.T) {
	target := filepath.Join(t.TempDir(), "config.toml")

	stdout, err := runConfigCLI(t, "config", "init", "--path", target)
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	if !strings.Contains(stdout, "Wrote sample configuration") {
		t.Fatalf("unexpected output:\n%s", stdout)
	}

	data, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(data), "model_dir") {
		t.Fatal("sample config lacks model_dir")
	}
}

func TestConfigShowPrintsDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	stdout, err := runConfigCLI(t, "config", "show")
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	if !strings.Contains(stdout, "defaults (no config file found)") {
		t.Fatalf("expected defaults note:\n%s", stdout)
	}
	if !strings.Contains(stdout, "api_bind") {
		t.Fatalf("expected rendered config:\n%s", stdout)
	}
}

func TestConfigInitRefusesOverwrite(t *testing.T) {
	target := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(target, []byte("# existing"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := runConfigCLI(t, "config", "init", "--path", target); err == nil {
		t.Fatal("expected error without --overwrite")
	}
	if _, err := runConfigCLI(t, "config", "init", "--path", target, "--overwrite"); err != nil {
		t.Fatalf("config init --overwrite: %v", err)
	}
}
