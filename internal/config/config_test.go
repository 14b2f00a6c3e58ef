package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Runner.PollInterval != DefaultPollInterval {
		t.Errorf("expected poll interval %v, got %v", DefaultPollInterval, cfg.Runner.PollInterval)
	}

	if cfg.Runner.StreamAttempts != 3 {
		t.Errorf("expected 3 stream attempts, got %d", cfg.Runner.StreamAttempts)
	}

	if cfg.Runner.StreamRetryDelay != 300*time.Millisecond {
		t.Errorf("expected stream retry delay 300ms, got %v", cfg.Runner.StreamRetryDelay)
	}

	if !cfg.History.Enabled {
		t.Error("expected history to be enabled by default")
	}
}

func TestValidate_ValidConfig(t *testing.T) {
	cfg := Default()
	if err := Validate(cfg); err != nil {
		t.Errorf("expected valid config, got error: %v", err)
	}
}

func TestValidate_InvalidStreamAttempts(t *testing.T) {
	cfg := Default()
	cfg.Runner.StreamAttempts = 0

	err := Validate(cfg)
	if err == nil {
		t.Fatal("expected validation error for stream attempts")
	}

	errs, ok := err.(ValidationErrors)
	if !ok {
		t.Fatalf("expected ValidationErrors, got %T", err)
	}

	found := false
	for _, e := range errs {
		if e.Field == "runner.stream_attempts" {
			found = true
			break
		}
	}
	if !found {
		t.Error("expected error for runner.stream_attempts field")
	}
}

func TestValidate_InvalidLogLevel(t *testing.T) {
	cfg := Default()
	cfg.Logging.Level = "invalid"

	if err := Validate(cfg); err == nil {
		t.Error("expected validation error for invalid log level")
	}
}

func TestValidate_PartialCredentials(t *testing.T) {
	cfg := Default()
	cfg.AWS.AccessKeyID = "AKIA"

	if err := Validate(cfg); err == nil {
		t.Error("expected validation error for access key without secret")
	}
}

func TestValidate_UploadWithoutBucket(t *testing.T) {
	cfg := Default()
	cfg.Report.Upload.Enabled = true

	if err := Validate(cfg); err == nil {
		t.Error("expected validation error for upload without bucket")
	}
}

func TestValidate_UnknownCompression(t *testing.T) {
	cfg := Default()
	cfg.Report.Compression = "lz4"

	if err := Validate(cfg); err == nil {
		t.Error("expected validation error for unsupported compression")
	}
}

func TestLoadFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "stepbench.yaml")

	content := `
project:
  dir: "/srv/bench"
aws:
  region: "us-west-2"
runner:
  poll_interval: "2s"
  stream_attempts: 5
report:
  compression: "zstd"
logging:
  level: "debug"
`
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	cfg, err := LoadFromFile(configPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Project.Dir != "/srv/bench" {
		t.Errorf("expected project dir /srv/bench, got %s", cfg.Project.Dir)
	}

	if cfg.AWS.Region != "us-west-2" {
		t.Errorf("expected region us-west-2, got %s", cfg.AWS.Region)
	}

	if cfg.Runner.PollInterval != 2*time.Second {
		t.Errorf("expected poll interval 2s, got %v", cfg.Runner.PollInterval)
	}

	if cfg.Runner.StreamAttempts != 5 {
		t.Errorf("expected 5 stream attempts, got %d", cfg.Runner.StreamAttempts)
	}

	if cfg.Runner.LogSettleDelay != DefaultLogSettleDelay {
		t.Errorf("expected default settle delay, got %v", cfg.Runner.LogSettleDelay)
	}

	if cfg.Report.Compression != "zstd" {
		t.Errorf("expected zstd compression, got %s", cfg.Report.Compression)
	}

	if cfg.Logging.Level != "debug" {
		t.Errorf("expected log level debug, got %s", cfg.Logging.Level)
	}
}

func TestLoadWithEnvOverride(t *testing.T) {
	t.Setenv("STEPBENCH_AWS_REGION", "eu-central-1")
	t.Setenv("STEPBENCH_RUNNER_PARALLELISM", "4")

	cfg, err := LoadWithDefaults()
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.AWS.Region != "eu-central-1" {
		t.Errorf("expected region eu-central-1 from env, got %s", cfg.AWS.Region)
	}

	if cfg.Runner.Parallelism != 4 {
		t.Errorf("expected parallelism 4 from env, got %d", cfg.Runner.Parallelism)
	}
}

func TestProjectResolve(t *testing.T) {
	cfg := &ProjectConfig{Dir: "/srv/bench", RunnableDir: "runnable"}

	if got := cfg.Resolve("out/report.json"); got != "/srv/bench/out/report.json" {
		t.Errorf("expected project-relative path, got %s", got)
	}

	if got := cfg.Resolve("/tmp/report.json"); got != "/tmp/report.json" {
		t.Errorf("expected absolute path to be kept, got %s", got)
	}

	if got := cfg.RunnablePath(); got != "/srv/bench/runnable" {
		t.Errorf("expected runnable path /srv/bench/runnable, got %s", got)
	}
}

func TestLoadFromFile_Missing(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "nope.yaml"))
	if !errors.Is(err, ErrConfigNotFound) {
		t.Errorf("expected ErrConfigNotFound, got %v", err)
	}
}

func TestLoadFromFile_Invalid(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "stepbench.yaml")
	if err := os.WriteFile(configPath, []byte("runner:\n  stream_attempts: 0\n"), 0o644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	_, err := LoadFromFile(configPath)
	if !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}

	var verrs ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		t.Errorf("expected ValidationErrors, got %T", err)
	}
}
