package config

import "time"

// Default configuration values.
const (
	// Project defaults.
	DefaultProjectDir  = "."
	DefaultRunnableDir = "runnable"

	// Runner defaults.
	DefaultPollInterval     = 1500 * time.Millisecond
	DefaultStreamAttempts   = 3
	DefaultStreamRetryDelay = 300 * time.Millisecond
	DefaultLogSettleDelay   = 500 * time.Millisecond
	DefaultParallelism      = 1

	// History defaults.
	DefaultHistoryPath = ".stepbench/history.db"
	DefaultBusyTimeout = 5 * time.Second

	// Logging defaults.
	DefaultLogLevel  = "info"
	DefaultLogFormat = "console"
)

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Project: ProjectConfig{
			Dir:         DefaultProjectDir,
			RunnableDir: DefaultRunnableDir,
		},
		Runner: RunnerConfig{
			PollInterval:     DefaultPollInterval,
			StreamAttempts:   DefaultStreamAttempts,
			StreamRetryDelay: DefaultStreamRetryDelay,
			LogSettleDelay:   DefaultLogSettleDelay,
			Parallelism:      DefaultParallelism,
		},
		History: HistoryConfig{
			Enabled:     true,
			Path:        DefaultHistoryPath,
			BusyTimeout: DefaultBusyTimeout,
		},
		Logging: LoggingConfig{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}
