package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/giantswarm/cmdtee"
)

// settings holds the resolved CLI configuration. Values cascade from
// defaults, then cmdtee.yaml, then CMDTEE_* environment variables
// (optionally seeded from a .env file); command-line flags are applied on
// top by the caller.
type settings struct {
	Timeout      time.Duration `mapstructure:"timeout"`
	BaseDir      string        `mapstructure:"base_dir"`
	ChunkSize    int           `mapstructure:"chunk_size"`
	PollInterval time.Duration `mapstructure:"poll_interval"`
	KillGrace    time.Duration `mapstructure:"kill_grace"`
	Dir          string        `mapstructure:"dir"`
	Quiet        bool          `mapstructure:"quiet"`
	Debug        bool          `mapstructure:"debug"`
	NoJournal    bool          `mapstructure:"no_journal"`
}

func defaultSettings() settings {
	return settings{
		BaseDir:      filepath.Join(os.TempDir(), cmdtee.DefaultBaseDirName),
		ChunkSize:    cmdtee.DefaultChunkSize,
		PollInterval: cmdtee.DefaultPollInterval,
		KillGrace:    cmdtee.DefaultKillGrace,
	}
}

// loadSettings resolves the configuration cascade up to, but not including,
// command-line flags. A named envFile must exist; the implicit .env is
// optional.
func loadSettings(envFile string) (settings, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return settings{}, fmt.Errorf("load env file: %w", err)
		}
	} else if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return settings{}, fmt.Errorf("load .env: %w", err)
	}

	s := defaultSettings()

	v := viper.New()
	v.SetConfigName("cmdtee")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if dir, err := os.UserConfigDir(); err == nil {
		v.AddConfigPath(filepath.Join(dir, "cmdtee"))
	}

	// Defaults must be registered per key so AutomaticEnv can resolve the
	// CMDTEE_* variables during Unmarshal.
	v.SetDefault("timeout", s.Timeout)
	v.SetDefault("base_dir", s.BaseDir)
	v.SetDefault("chunk_size", s.ChunkSize)
	v.SetDefault("poll_interval", s.PollInterval)
	v.SetDefault("kill_grace", s.KillGrace)
	v.SetDefault("dir", s.Dir)
	v.SetDefault("quiet", s.Quiet)
	v.SetDefault("debug", s.Debug)
	v.SetDefault("no_journal", s.NoJournal)

	v.SetEnvPrefix("CMDTEE")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return settings{}, fmt.Errorf("read config file: %w", err)
		}
	}

	if err := v.Unmarshal(&s); err != nil {
		return settings{}, fmt.Errorf("parse configuration: %w", err)
	}

	return s, nil
}

// validate rejects values that would otherwise panic inside the option
// constructors. Zero means "use the default" here, so only negatives are
// errors.
func (s settings) validate() error {
	var errs []error
	if s.Timeout < 0 {
		errs = append(errs, fmt.Errorf("timeout must not be negative, got %s", s.Timeout))
	}
	if s.ChunkSize < 0 {
		errs = append(errs, fmt.Errorf("chunk size must not be negative, got %d", s.ChunkSize))
	}
	if s.PollInterval < 0 {
		errs = append(errs, fmt.Errorf("poll interval must not be negative, got %s", s.PollInterval))
	}
	if s.KillGrace < 0 {
		errs = append(errs, fmt.Errorf("kill grace must not be negative, got %s", s.KillGrace))
	}

	return errors.Join(errs...)
}
