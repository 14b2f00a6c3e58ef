package config

import (
	"fmt"
	"strings"
	"time"
)

type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	var sb strings.Builder
	sb.WriteString("configuration validation failed:\n")
	for _, err := range e {
		sb.WriteString("  - ")
		sb.WriteString(err.Error())
		sb.WriteString("\n")
	}
	return sb.String()
}

func Validate(cfg *Config) error {
	var errs ValidationErrors

	errs = append(errs, validateProject(&cfg.Project)...)
	errs = append(errs, validateAWS(&cfg.AWS)...)
	errs = append(errs, validateRunner(&cfg.Runner)...)
	errs = append(errs, validateReport(&cfg.Report)...)
	errs = append(errs, validateHistory(&cfg.History)...)
	errs = append(errs, validateLogging(&cfg.Logging)...)

	if len(errs) > 0 {
		return errs
	}
	return nil
}

func validateProject(cfg *ProjectConfig) ValidationErrors {
	var errs ValidationErrors

	if cfg.Dir == "" {
		errs = append(errs, ValidationError{
			Field:   "project.dir",
			Message: "is required",
		})
	}

	if cfg.RunnableDir == "" {
		errs = append(errs, ValidationError{
			Field:   "project.runnable_dir",
			Message: "is required",
		})
	}

	return errs
}

func validateAWS(cfg *AWSConfig) ValidationErrors {
	var errs ValidationErrors

	if (cfg.AccessKeyID == "") != (cfg.SecretAccessKey == "") {
		errs = append(errs, ValidationError{
			Field:   "aws.access_key_id",
			Message: "access_key_id and secret_access_key must be set together",
		})
	}

	if cfg.SessionToken != "" && cfg.AccessKeyID == "" {
		errs = append(errs, ValidationError{
			Field:   "aws.session_token",
			Message: "requires access_key_id and secret_access_key",
		})
	}

	return errs
}

func validateRunner(cfg *RunnerConfig) ValidationErrors {
	var errs ValidationErrors

	if cfg.PollInterval <= 0 {
		errs = append(errs, ValidationError{
			Field:   "runner.poll_interval",
			Message: "must be positive",
		})
	}

	if cfg.PollInterval > 0 && cfg.PollInterval < 100*time.Millisecond {
		errs = append(errs, ValidationError{
			Field:   "runner.poll_interval",
			Message: "values below 100ms will be throttled by the Step Functions API",
		})
	}

	if cfg.StreamAttempts < 1 {
		errs = append(errs, ValidationError{
			Field:   "runner.stream_attempts",
			Message: "must be at least 1",
		})
	}

	if cfg.StreamRetryDelay < 0 {
		errs = append(errs, ValidationError{
			Field:   "runner.stream_retry_delay",
			Message: "must be non-negative",
		})
	}

	if cfg.LogSettleDelay < 0 {
		errs = append(errs, ValidationError{
			Field:   "runner.log_settle_delay",
			Message: "must be non-negative",
		})
	}

	if cfg.Parallelism < 1 {
		errs = append(errs, ValidationError{
			Field:   "runner.parallelism",
			Message: "must be at least 1",
		})
	}

	return errs
}

func validateReport(cfg *ReportConfig) ValidationErrors {
	var errs ValidationErrors

	validCompression := map[string]bool{"": true, "gzip": true, "zstd": true}
	if !validCompression[cfg.Compression] {
		errs = append(errs, ValidationError{
			Field:   "report.compression",
			Message: "must be empty, 'gzip' or 'zstd'",
		})
	}

	if cfg.Upload.Enabled && cfg.Upload.Bucket == "" {
		errs = append(errs, ValidationError{
			Field:   "report.upload.bucket",
			Message: "required when upload is enabled",
		})
	}

	return errs
}

func validateHistory(cfg *HistoryConfig) ValidationErrors {
	var errs ValidationErrors

	if cfg.Enabled && cfg.Path == "" {
		errs = append(errs, ValidationError{
			Field:   "history.path",
			Message: "required when history is enabled",
		})
	}

	return errs
}

func validateLogging(cfg *LoggingConfig) ValidationErrors {
	var errs ValidationErrors

	validLevels := map[string]bool{
		"trace": true, "debug": true, "info": true,
		"warn": true, "error": true, "fatal": true, "panic": true,
	}
	if !validLevels[cfg.Level] {
		errs = append(errs, ValidationError{
			Field:   "logging.level",
			Message: "must be one of: trace, debug, info, warn, error, fatal, panic",
		})
	}

	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[cfg.Format] {
		errs = append(errs, ValidationError{
			Field:   "logging.format",
			Message: "must be 'json' or 'console'",
		})
	}

	return errs
}
