package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"taggerd/internal/config"
	"taggerd/internal/daemon"
	"taggerd/internal/testsupport"
)

type cliTestEnv struct {
	cfg        *config.Config
	daemon     *daemon.Daemon
	address    string
	configPath string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	cfg := testsupport.NewConfig(t, testsupport.WithDefaultModel("wd14"))
	configPath := filepath.Join(t.TempDir(), "config.toml")
	writeTestConfig(t, configPath, cfg)

	d, err := daemon.New(cfg, nil)
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	d.Registry().Register(testsupport.NewFakeInterrogator("wd14"))

	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("daemon.Start: %v", err)
	}
	t.Cleanup(func() { d.Close() })

	return &cliTestEnv{
		cfg:        cfg,
		daemon:     d,
		address:    d.Addr(),
		configPath: configPath,
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

func runCLI(t *testing.T, args []string, address, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	flags := []string{"--address", address}
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestModelsCommand(t *testing.T) {
	env := setupCLITestEnv(t)

	stdout, _, err := runCLI(t, []string{"models"}, env.address, env.configPath)
	if err != nil {
		t.Fatalf("models: %v", err)
	}
	if !strings.Contains(stdout, "wd14") {
		t.Fatalf("expected model name in output:\n%s", stdout)
	}
	if !strings.Contains(stdout, "Wd14") {
		t.Fatalf("expected display name in output:\n%s", stdout)
	}
}

func TestTagCommand(t *testing.T) {
	env := setupCLITestEnv(t)

	imagePath := filepath.Join(t.TempDir(), "image.png")
	if err := os.WriteFile(imagePath, testsupport.PNGBytes(t), 0o644); err != nil {
		t.Fatal(err)
	}

	stdout, _, err := runCLI(t, []string{"tag", imagePath, "--threshold", "0.5"}, env.address, env.configPath)
	if err != nil {
		t.Fatalf("tag: %v", err)
	}
	if !strings.Contains(stdout, "Cat") {
		t.Fatalf("expected tag above threshold in output:\n%s", stdout)
	}
	if strings.Contains(stdout, "Outdoors") {
		t.Fatalf("expected low-confidence tag to be filtered:\n%s", stdout)
	}
}

func TestTagCommandMissingFile(t *testing.T) {
	env := setupCLITestEnv(t)
	_, _, err := runCLI(t, []string{"tag", filepath.Join(t.TempDir(), "missing.png")}, env.address, env.configPath)
	if err == nil {
		t.Fatal("expected error for missing image file")
	}
}

func TestUnloadCommand(t *testing.T) {
	env := setupCLITestEnv(t)

	stdout, _, err := runCLI(t, []string{"unload"}, env.address, env.configPath)
	if err != nil {
		t.Fatalf("unload: %v", err)
	}
	if !strings.Contains(stdout, "Successfully unloaded") {
		t.Fatalf("unexpected unload output:\n%s", stdout)
	}
}

func TestHistoryCommandEmpty(t *testing.T) {
	env := setupCLITestEnv(t)

	stdout, _, err := runCLI(t, []string{"history"}, env.address, env.configPath)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if !strings.Contains(stdout, "No interrogations recorded") {
		t.Fatalf("unexpected history output:\n%s", stdout)
	}
}

func TestDisplayName(t *testing.T) {
	if got := displayName("hatsune_miku"); got != "Hatsune Miku" {
		t.Fatalf("displayName = %q", got)
	}
}
