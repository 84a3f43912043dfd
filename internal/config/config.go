package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	RegistryPath string       `mapstructure:"registry_path" yaml:"registry_path"`
	OutputDir    string       `mapstructure:"output_dir" yaml:"output_dir"`
	SMTP         SMTPConfig   `mapstructure:"smtp" yaml:"smtp"`
	IMAP         IMAPConfig   `mapstructure:"imap" yaml:"imap"`
	Prompt       PromptConfig `mapstructure:"prompt" yaml:"prompt"`
	Log          LogConfig    `mapstructure:"log" yaml:"log"`
}

type SMTPConfig struct {
	Port int `mapstructure:"port" yaml:"port"`
}

type IMAPConfig struct {
	Port    int    `mapstructure:"port" yaml:"port"`
	Mailbox string `mapstructure:"mailbox" yaml:"mailbox"`
}

// PromptConfig bounds interactive retry loops. Zero means unbounded.
type PromptConfig struct {
	MaxAttempts int `mapstructure:"max_attempts" yaml:"max_attempts"`
}

type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

func DefaultConfig() Config {
	return Config{
		OutputDir: ".",
		SMTP: SMTPConfig{
			Port: 587,
		},
		IMAP: IMAPConfig{
			Port:    993,
			Mailbox: "INBOX",
		},
		Log: LogConfig{
			Level:  "warn",
			Format: "text",
		},
	}
}

func ConfigPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// Load reads the config file at path (the default location when empty),
// applies MAILCTL_* environment overrides and fills in defaults. A missing
// config file is not an error.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		var err error
		path, err = ConfigPath()
		if err != nil {
			return cfg, err
		}
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("MAILCTL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v, cfg)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return cfg, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}

	if cfg.RegistryPath == "" {
		registryPath, err := RegistryPath()
		if err != nil {
			return cfg, err
		}
		cfg.RegistryPath = registryPath
	}
	registryPath, err := expandHome(cfg.RegistryPath)
	if err != nil {
		return cfg, err
	}
	cfg.RegistryPath = registryPath

	return cfg, Validate(cfg)
}

func setDefaults(v *viper.Viper, cfg Config) {
	v.SetDefault("registry_path", cfg.RegistryPath)
	v.SetDefault("output_dir", cfg.OutputDir)

	v.SetDefault("smtp.port", cfg.SMTP.Port)

	v.SetDefault("imap.port", cfg.IMAP.Port)
	v.SetDefault("imap.mailbox", cfg.IMAP.Mailbox)

	v.SetDefault("prompt.max_attempts", cfg.Prompt.MaxAttempts)

	v.SetDefault("log.level", cfg.Log.Level)
	v.SetDefault("log.format", cfg.Log.Format)
}

func Validate(cfg Config) error {
	if cfg.SMTP.Port <= 0 || cfg.SMTP.Port > 65535 {
		return fmt.Errorf("smtp.port out of range: %d", cfg.SMTP.Port)
	}
	if cfg.IMAP.Port <= 0 || cfg.IMAP.Port > 65535 {
		return fmt.Errorf("imap.port out of range: %d", cfg.IMAP.Port)
	}
	if cfg.IMAP.Mailbox == "" {
		return fmt.Errorf("imap.mailbox is required")
	}
	if cfg.Prompt.MaxAttempts < 0 {
		return fmt.Errorf("prompt.max_attempts must not be negative")
	}
	switch cfg.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("log.format must be text or json, got %q", cfg.Log.Format)
	}
	return nil
}

// Credentials are collected interactively for one login and never written
// to disk.
type Credentials struct {
	Email    string
	Password string
}
