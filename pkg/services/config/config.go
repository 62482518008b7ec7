package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Store     StoreConfig     `mapstructure:"store"`
	Reports   ReportsConfig   `mapstructure:"reports"`
	Artifacts ArtifactsConfig `mapstructure:"artifacts"`
	Email     EmailConfig     `mapstructure:"email"`
	Profiles  ProfilesConfig  `mapstructure:"profiles"`
}

type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

type StoreConfig struct {
	Path string `mapstructure:"path"`
}

type ReportsConfig struct {
	Workers     int `mapstructure:"workers"`
	QueueSize   int `mapstructure:"queue_size"`
	PollSeconds int `mapstructure:"poll_seconds"`
	MaxAttempts int `mapstructure:"max_attempts"`
}

// ArtifactsConfig picks where rendered reports land. Backend is "fs"
// or "s3"; Dir applies to fs, Bucket/Prefix/LinkTTLHours to s3.
type ArtifactsConfig struct {
	Backend      string `mapstructure:"backend"`
	Dir          string `mapstructure:"dir"`
	Bucket       string `mapstructure:"bucket"`
	Prefix       string `mapstructure:"prefix"`
	LinkTTLHours int    `mapstructure:"link_ttl_hours"`
}

type EmailConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	From    string `mapstructure:"from"`
}

type ProfilesConfig struct {
	Path string `mapstructure:"path"`
}

// Load reads the app config. A missing path keeps defaults plus any
// CLOUDSCOPE_* environment overrides.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("CLOUDSCOPE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("store.path", "cloudscope.db")
	v.SetDefault("reports.workers", 2)
	v.SetDefault("reports.queue_size", 16)
	v.SetDefault("reports.poll_seconds", 2)
	v.SetDefault("reports.max_attempts", 10)
	v.SetDefault("artifacts.backend", "fs")
	v.SetDefault("artifacts.dir", "reports")
	v.SetDefault("artifacts.prefix", "reports")
	v.SetDefault("artifacts.link_ttl_hours", 24)
	v.SetDefault("email.enabled", false)
	v.SetDefault("profiles.path", DefaultProfilesPath())
}

// DefaultProfilesPath is where the profile registry lives unless
// configured otherwise.
func DefaultProfilesPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "profiles.ini"
	}
	return filepath.Join(home, ".cloudscope", "profiles.ini")
}
