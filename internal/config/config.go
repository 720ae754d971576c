package config

import "time"

// Config is the root configuration for deskbridge.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	API      APIConfig      `yaml:"api"`
	Database DatabaseConfig `yaml:"database"`
	Export   ExportConfig   `yaml:"export"`
}

type ServerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	LogLevel string `yaml:"log_level"`
	LogFile  string `yaml:"log_file"`
}

// APIConfig points at the remote ticketing API.
// AccessToken and RefreshToken are environment-only seeds
// (DESKBRIDGE_TOKEN_ACCESS / DESKBRIDGE_TOKEN_REFRESH) for headless setups
// where no interactive login happens; they are never read from YAML so a
// config file cannot carry credentials.
type APIConfig struct {
	BaseURL         string        `yaml:"base_url"`
	RefreshInterval time.Duration `yaml:"refresh_interval"`
	RequestTimeout  time.Duration `yaml:"request_timeout"`
	UserAgent       string        `yaml:"user_agent"`
	AccessToken     string        `yaml:"-"`
	RefreshToken    string        `yaml:"-"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

type ExportConfig struct {
	Directory string `yaml:"directory"`
}

// Defaults returns a Config with sensible default values.
func Defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Host:     "127.0.0.1",
			Port:     8430,
			LogLevel: "info",
		},
		API: APIConfig{
			RefreshInterval: 50 * time.Minute,
			RequestTimeout:  30 * time.Second,
			UserAgent:       "deskbridge",
		},
		Database: DatabaseConfig{
			Path: "~/.config/deskbridge/deskbridge.db",
		},
		Export: ExportConfig{
			Directory: ".",
		},
	}
}
