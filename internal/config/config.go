// Package config loads the CLI configuration: compiled-in defaults, an
// optional YAML file, then environment variable overrides, in that order.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"github.com/AstroAir/github-cli/pkg/logging"
)

const (
	// DefaultClientID is the OAuth app used for device flow logins.
	DefaultClientID = "Iv1.c42d2e9c91e3a928"

	// DefaultScopes are requested during login.
	DefaultScopes = "repo,read:user,user:email,gist,workflow"

	// envPrefix namespaces the environment overrides (GH_CLI_CLIENT_ID,
	// GH_CLI_SCOPES, ...).
	envPrefix = "GH_CLI"

	// defaultConfigDir is relative to the user's home directory.
	defaultConfigDir = ".config/github-cli"
)

// RetrySettings is the retry policy section of the configuration.
type RetrySettings struct {
	MaxAttempts int           `yaml:"maxAttempts" envconfig:"RETRY_MAX_ATTEMPTS"`
	BaseDelay   time.Duration `yaml:"baseDelay" envconfig:"RETRY_BASE_DELAY"`
	MaxDelay    time.Duration `yaml:"maxDelay" envconfig:"RETRY_MAX_DELAY"`
	Exponential bool          `yaml:"exponential" envconfig:"RETRY_EXPONENTIAL"`
	Jitter      bool          `yaml:"jitter" envconfig:"RETRY_JITTER"`
}

// Config is the full CLI configuration.
type Config struct {
	// Host is the GitHub host tokens are stored under.
	Host string `yaml:"host" envconfig:"HOST"`

	// ClientID is the OAuth app client id.
	ClientID string `yaml:"clientId" envconfig:"CLIENT_ID"`

	// Scopes is the comma-separated scope list requested at login.
	Scopes string `yaml:"scopes" envconfig:"SCOPES"`

	// DeviceCodeURL is the device authorization endpoint.
	DeviceCodeURL string `yaml:"deviceCodeUrl" envconfig:"DEVICE_CODE_URL"`

	// TokenURL is the token endpoint.
	TokenURL string `yaml:"tokenUrl" envconfig:"TOKEN_URL"`

	// APIBaseURL is the REST API base, also probed for reachability.
	APIBaseURL string `yaml:"apiBaseUrl" envconfig:"API_BASE_URL"`

	// TokenStorageDir overrides where tokens are persisted.
	TokenStorageDir string `yaml:"tokenStorageDir" envconfig:"TOKEN_STORAGE_DIR"`

	// Retry is the retry policy for authentication requests.
	Retry RetrySettings `yaml:"retry"`
}

// Default returns the compiled-in configuration.
func Default() Config {
	return Config{
		Host:          "github.com",
		ClientID:      DefaultClientID,
		Scopes:        DefaultScopes,
		DeviceCodeURL: "https://github.com/login/device/code",
		TokenURL:      "https://github.com/login/oauth/access_token",
		APIBaseURL:    "https://api.github.com",
		Retry: RetrySettings{
			MaxAttempts: 3,
			BaseDelay:   2 * time.Second,
			MaxDelay:    60 * time.Second,
			Exponential: true,
			Jitter:      true,
		},
	}
}

// DefaultPath returns the default config file location, or "" when the home
// directory cannot be determined.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, defaultConfigDir, "config.yaml")
}

// Load builds the effective configuration. A missing file is not an error;
// a malformed file is.
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		path = DefaultPath()
	}
	if path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	if err := envconfig.Process(envPrefix, &cfg); err != nil {
		return Config{}, fmt.Errorf("applying environment overrides: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			logging.Debug("Config", "no config file at %s, using defaults", path)
			return nil
		}
		return fmt.Errorf("reading config file %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parsing config file %s: %w", path, err)
	}
	logging.Debug("Config", "loaded config file %s", path)
	return nil
}

func (c Config) validate() error {
	if c.ClientID == "" {
		return fmt.Errorf("client id must not be empty")
	}
	if c.Retry.MaxAttempts < 1 {
		return fmt.Errorf("retry maxAttempts must be at least 1, got %d", c.Retry.MaxAttempts)
	}
	if c.Retry.BaseDelay <= 0 || c.Retry.MaxDelay < c.Retry.BaseDelay {
		return fmt.Errorf("retry delays must satisfy 0 < baseDelay <= maxDelay")
	}
	return nil
}
