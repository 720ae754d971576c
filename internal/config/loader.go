package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// searchPaths returns the ordered list of config file locations to try.
func searchPaths() []string {
	paths := []string{
		"/etc/deskbridge/deskbridge.yaml",
	}

	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "deskbridge", "deskbridge.yaml"))
	}

	paths = append(paths, "deskbridge.yaml")

	if envPath := os.Getenv("DESKBRIDGE_CONFIG"); envPath != "" {
		paths = append(paths, envPath)
	}

	return paths
}

// Load reads configuration from YAML files and environment variables.
// Files are loaded in order (each overrides the previous):
// /etc/deskbridge/deskbridge.yaml < ~/.config/deskbridge/deskbridge.yaml < ./deskbridge.yaml < $DESKBRIDGE_CONFIG
func Load() (*Config, error) {
	cfg := Defaults()

	loadDotenv()

	for _, path := range searchPaths() {
		if err := loadFile(cfg, path); err != nil {
			return nil, fmt.Errorf("loading config %s: %w", path, err)
		}
	}

	applyEnvOverrides(cfg)

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// LoadFromFile reads configuration from a specific file path.
func LoadFromFile(path string) (*Config, error) {
	cfg := Defaults()

	loadDotenv()

	if err := loadFile(cfg, path); err != nil {
		return nil, fmt.Errorf("loading config %s: %w", path, err)
	}

	applyEnvOverrides(cfg)

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// loadDotenv pulls a local .env file into the process environment so a
// development checkout can override settings without exporting anything.
func loadDotenv() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Debug("no .env file loaded", "error", err)
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables have higher priority than YAML config values.
func applyEnvOverrides(cfg *Config) {
	if base := os.Getenv("DESKBRIDGE_API_BASE_URL"); base != "" {
		cfg.API.BaseURL = base
	}
	if path := os.Getenv("DESKBRIDGE_DB_PATH"); path != "" {
		cfg.Database.Path = path
	}
	if level := os.Getenv("DESKBRIDGE_LOG_LEVEL"); level != "" {
		cfg.Server.LogLevel = level
	}
	if token := os.Getenv("DESKBRIDGE_TOKEN_ACCESS"); token != "" {
		cfg.API.AccessToken = token
	}
	if token := os.Getenv("DESKBRIDGE_TOKEN_REFRESH"); token != "" {
		cfg.API.RefreshToken = token
	}
}

func loadFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path) //nolint:gosec // path comes from trusted config search paths
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading file: %w", err)
	}

	slog.Debug("loading config file", "path", path)

	expanded := os.ExpandEnv(string(data))

	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return fmt.Errorf("parsing YAML: %w", err)
	}

	return nil
}

// ExpandHome replaces a leading ~ with the user's home directory.
func ExpandHome(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}

func validate(cfg *Config) error {
	if cfg.Server.Port < 1 || cfg.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", cfg.Server.Port)
	}

	if cfg.Server.Host == "0.0.0.0" {
		return fmt.Errorf("server.host must not be 0.0.0.0: the bridge holds session credentials and must listen on localhost only")
	}

	if cfg.API.BaseURL == "" {
		return fmt.Errorf("api.base_url is required")
	}
	u, err := url.Parse(cfg.API.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("api.base_url %q must be an absolute URL", cfg.API.BaseURL)
	}

	if cfg.API.RefreshInterval < time.Minute {
		return fmt.Errorf("api.refresh_interval must be at least 1m, got %s", cfg.API.RefreshInterval)
	}

	cfg.Database.Path = ExpandHome(cfg.Database.Path)
	cfg.Export.Directory = ExpandHome(cfg.Export.Directory)

	return nil
}
