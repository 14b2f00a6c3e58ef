package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/spf13/viper"
)

var (
	ErrConfigNotFound = errors.New("config file not found")
	ErrInvalidConfig  = errors.New("invalid configuration")
)

type LoadOptions struct {
	ConfigFile string
	EnvPrefix  string
	Defaults   *Config
}

func Load(opts LoadOptions) (*Config, error) {
	v := viper.New()

	defaults := opts.Defaults
	if defaults == nil {
		defaults = Default()
	}
	setViperDefaults(v, defaults)

	if opts.EnvPrefix == "" {
		opts.EnvPrefix = "STEPBENCH"
	}
	v.SetEnvPrefix(opts.EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
	} else {
		v.SetConfigName("stepbench")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/stepbench")
	}

	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		switch {
		case errors.As(err, &configFileNotFoundError):
			// no file on the search path; defaults and env only
		case opts.ConfigFile != "" && errors.Is(err, fs.ErrNotExist):
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, opts.ConfigFile)
		default:
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	expandEnvInConfig(v)

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	return cfg, nil
}

func LoadFromFile(path string) (*Config, error) {
	return Load(LoadOptions{ConfigFile: path})
}

func LoadWithDefaults() (*Config, error) {
	return Load(LoadOptions{})
}

// setViperDefaults registers every key so AutomaticEnv can override it.
func setViperDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("project.dir", cfg.Project.Dir)
	v.SetDefault("project.runnable_dir", cfg.Project.RunnableDir)

	v.SetDefault("aws.region", cfg.AWS.Region)
	v.SetDefault("aws.profile", cfg.AWS.Profile)
	v.SetDefault("aws.access_key_id", cfg.AWS.AccessKeyID)
	v.SetDefault("aws.secret_access_key", cfg.AWS.SecretAccessKey)
	v.SetDefault("aws.session_token", cfg.AWS.SessionToken)
	v.SetDefault("aws.endpoint", cfg.AWS.Endpoint)

	v.SetDefault("runner.poll_interval", cfg.Runner.PollInterval)
	v.SetDefault("runner.stream_attempts", cfg.Runner.StreamAttempts)
	v.SetDefault("runner.stream_retry_delay", cfg.Runner.StreamRetryDelay)
	v.SetDefault("runner.log_settle_delay", cfg.Runner.LogSettleDelay)
	v.SetDefault("runner.parallelism", cfg.Runner.Parallelism)

	v.SetDefault("report.compression", cfg.Report.Compression)
	v.SetDefault("report.upload.enabled", cfg.Report.Upload.Enabled)
	v.SetDefault("report.upload.bucket", cfg.Report.Upload.Bucket)
	v.SetDefault("report.upload.prefix", cfg.Report.Upload.Prefix)

	v.SetDefault("history.enabled", cfg.History.Enabled)
	v.SetDefault("history.path", cfg.History.Path)
	v.SetDefault("history.busy_timeout", cfg.History.BusyTimeout)

	v.SetDefault("metrics.textfile", cfg.Metrics.Textfile)

	v.SetDefault("logging.level", cfg.Logging.Level)
	v.SetDefault("logging.format", cfg.Logging.Format)
}

func expandEnvInConfig(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		val := v.GetString(key)
		if strings.HasPrefix(val, "${") && strings.HasSuffix(val, "}") {
			envVar := val[2 : len(val)-1]
			if envVal := os.Getenv(envVar); envVal != "" {
				v.Set(key, envVal)
			}
		}
	}
}
