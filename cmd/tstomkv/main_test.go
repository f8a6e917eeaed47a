package main

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"tstomkv/internal/services"
	"tstomkv/internal/testsupport"
)

func TestConfigInitAndValidate(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"config", "validate"}, env.configPath)
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Configuration valid")
	requireContains(t, out, "Transfer backend: local")

	target := filepath.Join(t.TempDir(), "config.toml")
	out, _, err = runCLI(t, []string{"config", "init", "--path", target}, "")
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}

	if _, _, err := runCLI(t, []string{"config", "init", "--path", target}, ""); err == nil {
		t.Fatal("expected init to refuse overwriting an existing file")
	}
}

func TestConfigInitWritesBackendAndRoots(t *testing.T) {
	setupCLITestEnv(t)
	recordings := filepath.Join(t.TempDir(), "recordings")
	target := filepath.Join(t.TempDir(), "config.toml")

	out, _, err := runCLI(t, []string{"config", "init", "--path", target, "--backend", "local", "--root", recordings}, "")
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Transfer backend: local")
	requireContains(t, out, recordings)
	requireContains(t, out, "Converts .ts to .mkv")

	out, _, err = runCLI(t, []string{"config", "validate"}, target)
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "roots: "+recordings)
	requireContains(t, out, "Configuration valid")

	if _, _, err := runCLI(t, []string{"config", "init", "--path", filepath.Join(t.TempDir(), "x.toml"), "--backend", "ftp"}, ""); err == nil {
		t.Fatal("expected unknown backend to be rejected")
	}
}

func TestStopAndClear(t *testing.T) {
	env := setupCLITestEnv(t)
	stopFile := env.cfg.StopFilePath()

	out, _, err := runCLI(t, []string{"stop"}, env.configPath)
	if err != nil {
		t.Fatalf("stop: %v", err)
	}
	requireContains(t, out, "Stop requested")
	if !testsupport.Exists(stopFile) {
		t.Fatalf("expected %s to exist", stopFile)
	}

	if _, _, err := runCLI(t, []string{"stop", "--clear"}, env.configPath); err != nil {
		t.Fatalf("stop --clear: %v", err)
	}
	if testsupport.Exists(stopFile) {
		t.Fatalf("expected %s to be removed", stopFile)
	}
}

func TestListShowsPendingRecordings(t *testing.T) {
	env := setupCLITestEnv(t)
	testsupport.WriteRecording(t, env.remoteRoot, "Show/Show - Pilot.ts", 2048)

	out, _, err := runCLI(t, []string{"list"}, env.configPath)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	requireContains(t, out, "Pilot")
	requireContains(t, out, "1 recordings")
}

func TestRunConvertsAndReplacesRecording(t *testing.T) {
	env := setupCLITestEnv(t)
	source := testsupport.WriteRecording(t, env.remoteRoot, "Show/Episode.ts", 4096)

	out, _, err := runCLI(t, []string{"run"}, env.configPath)
	if err != nil {
		t.Fatalf("run: %v\n%s", err, out)
	}
	requireContains(t, out, "[1/1]")
	if testsupport.Exists(filepath.FromSlash(source)) {
		t.Fatalf("source %s should have been removed", source)
	}
	converted := filepath.Join(env.remoteRoot, "Show", "Episode.mkv")
	data, err := os.ReadFile(converted)
	if err != nil {
		t.Fatalf("read converted file: %v", err)
	}
	if string(data) != "matroska" {
		t.Fatalf("converted content = %q", data)
	}

	out, _, err = runCLI(t, []string{"history"}, env.configPath)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	requireContains(t, out, "completed")
}

func TestRunHonoursStopFile(t *testing.T) {
	env := setupCLITestEnv(t)
	source := testsupport.WriteRecording(t, env.remoteRoot, "Show/Episode.ts", 4096)
	if err := os.WriteFile(env.cfg.StopFilePath(), nil, 0o644); err != nil {
		t.Fatalf("write stop file: %v", err)
	}

	out, _, err := runCLI(t, []string{"run"}, env.configPath)
	if !errors.Is(err, services.ErrStopRequested) {
		t.Fatalf("expected stop, got %v", err)
	}
	if services.ExitCode(err) != 0 {
		t.Fatalf("stop must exit cleanly, got %d", services.ExitCode(err))
	}
	requireContains(t, out, "Stopped")
	if !testsupport.Exists(filepath.FromSlash(source)) {
		t.Fatal("source must be untouched when stopped before the first item")
	}
}

func TestRunRejectsNegativeSkip(t *testing.T) {
	env := setupCLITestEnv(t)
	_, _, err := runCLI(t, []string{"run", "--skip", "-1"}, env.configPath)
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestStagingListAndClean(t *testing.T) {
	env := setupCLITestEnv(t)
	testsupport.WriteFile(t, filepath.Join(env.cfg.Paths.StagingDir, "Show", "Episode.ts"), 1024)

	out, _, err := runCLI(t, []string{"staging", "list"}, env.configPath)
	if err != nil {
		t.Fatalf("staging list: %v", err)
	}
	requireContains(t, out, "Show/Episode.ts")

	out, _, err = runCLI(t, []string{"staging", "clean", "--older-than", "0"}, env.configPath)
	if err != nil {
		t.Fatalf("staging clean: %v", err)
	}
	requireContains(t, out, "Removed 1 files")
	if testsupport.Exists(filepath.Join(env.cfg.Paths.StagingDir, "Show")) {
		t.Fatal("emptied directory should be pruned")
	}
}
