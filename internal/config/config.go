// Package config provides configuration management for stepbench.
package config

import (
	"path/filepath"
	"time"
)

// Config is the root configuration structure for stepbench.
type Config struct {
	Project ProjectConfig `mapstructure:"project"`
	AWS     AWSConfig     `mapstructure:"aws"`
	Runner  RunnerConfig  `mapstructure:"runner"`
	Report  ReportConfig  `mapstructure:"report"`
	History HistoryConfig `mapstructure:"history"`
	Metrics MetricsConfig `mapstructure:"metrics"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// ProjectConfig locates runnables and resolves relative output paths.
type ProjectConfig struct {
	// Base directory of the project; relative paths resolve against it
	Dir string `mapstructure:"dir"`

	// Directory holding <name>.yaml runnable files, relative to Dir
	RunnableDir string `mapstructure:"runnable_dir"`
}

// Resolve joins p onto the project directory unless it is already absolute.
func (c *ProjectConfig) Resolve(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.Dir, p)
}

// RunnablePath returns the absolute-or-project-relative runnable directory.
func (c *ProjectConfig) RunnablePath() string {
	return c.Resolve(c.RunnableDir)
}

// AWSConfig holds credentials and endpoint overrides for the AWS clients.
// Empty credentials fall back to the SDK's default chain.
type AWSConfig struct {
	Region          string `mapstructure:"region"`
	Profile         string `mapstructure:"profile"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	SessionToken    string `mapstructure:"session_token"`

	// Custom endpoint for all services (e.g. LocalStack)
	Endpoint string `mapstructure:"endpoint"`
}

// RunnerConfig controls polling and log discovery timing.
type RunnerConfig struct {
	// Interval between DescribeExecution calls
	PollInterval time.Duration `mapstructure:"poll_interval"`

	// Attempts to find a log stream not claimed by an earlier repetition
	StreamAttempts int `mapstructure:"stream_attempts"`

	// Delay before the first stream lookup; doubles on each retry
	StreamRetryDelay time.Duration `mapstructure:"stream_retry_delay"`

	// Wait before reading a freshly located stream
	LogSettleDelay time.Duration `mapstructure:"log_settle_delay"`

	// Runnables executed concurrently by `run --all`
	Parallelism int `mapstructure:"parallelism"`
}

// ReportConfig controls how reports are persisted.
type ReportConfig struct {
	// Compression for the local report file: "", "gzip" or "zstd"
	Compression string `mapstructure:"compression"`

	Upload UploadConfig `mapstructure:"upload"`
}

// UploadConfig archives a copy of every report in S3.
type UploadConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Bucket  string `mapstructure:"bucket"`
	Prefix  string `mapstructure:"prefix"`
}

// HistoryConfig holds the run history database settings.
type HistoryConfig struct {
	Enabled bool `mapstructure:"enabled"`

	// SQLite database file, relative to the project directory
	Path string `mapstructure:"path"`

	BusyTimeout time.Duration `mapstructure:"busy_timeout"`
}

// MetricsConfig holds Prometheus export settings.
type MetricsConfig struct {
	// Textfile collector output; empty disables the export
	Textfile string `mapstructure:"textfile"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Log level (debug, info, warn, error)
	Level string `mapstructure:"level"`

	// Log format (json, console)
	Format string `mapstructure:"format"`
}
