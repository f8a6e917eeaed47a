package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"tstomkv/internal/config"
	"tstomkv/internal/testsupport"
)

const ffmpegStub = `#!/bin/sh
sink=""
out=""
prev=""
for arg in "$@"; do
	if [ "$prev" = "-progress" ]; then
		sink="$arg"
	fi
	prev="$arg"
	out="$arg"
done
printf 'out_time_ms=60000000\nprogress=end\n' > "$sink"
printf 'matroska' > "$out"
`

const ffprobeStub = `#!/bin/sh
printf '{"streams":[{"codec_type":"video","duration":"60.000000"}],"format":{"duration":"60.000000"}}'
`

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
	remoteRoot string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	cfg := testsupport.NewConfig(t)
	base := testsupport.BaseDir(cfg)
	homeDir := filepath.Join(base, "home")
	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", homeDir)

	binDir := filepath.Join(base, "bin")
	if err := os.MkdirAll(binDir, 0o755); err != nil {
		t.Fatalf("mkdir bin: %v", err)
	}
	cfg.Encoder.FFmpegBinary = filepath.Join(binDir, "ffmpeg")
	cfg.Encoder.FFprobeBinary = filepath.Join(binDir, "ffprobe")
	for path, script := range map[string]string{
		cfg.Encoder.FFmpegBinary:  ffmpegStub,
		cfg.Encoder.FFprobeBinary: ffprobeStub,
	} {
		if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
			t.Fatalf("write stub %s: %v", path, err)
		}
	}

	configPath := filepath.Join(homeDir, ".config", "tstomkv", "config.toml")
	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		t.Fatalf("mkdir config dir: %v", err)
	}
	writeTestConfig(t, configPath, cfg)

	return &cliTestEnv{
		cfg:        cfg,
		configPath: configPath,
		remoteRoot: testsupport.RemoteRoot(cfg),
	}
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	roots := make([]string, 0, len(cfg.Source.Roots))
	for _, r := range cfg.Source.Roots {
		roots = append(roots, fmt.Sprintf("%q", r))
	}
	content := fmt.Sprintf(`[paths]
staging_dir = %q
log_dir = %q
env_file = ""

[source]
roots = [%s]

[transfer]
backend = "local"

[catalog]
kind = "listing"
skip_prefixes = []

[encoder]
ffmpeg_binary = %q
ffprobe_binary = %q

[progress]
poll_interval_seconds = 1

[logging]
level = "error"
`,
		cfg.Paths.StagingDir,
		cfg.Paths.LogDir,
		strings.Join(roots, ", "),
		cfg.Encoder.FFmpegBinary,
		cfg.Encoder.FFprobeBinary,
	)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
