// Package config provides configuration management for the Family Helper console.
// It handles loading and parsing YAML configuration files, and provides structured
// access to application settings including the API base URL, identity provider
// parameters, credential storage location, and feature flags.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultPageSize is the page size requested by list screens when the
// configuration does not override it.
const DefaultPageSize = 20

// Config represents the application's configuration, loaded from a YAML file.
// Environment variables override file values so containerized deployments can
// run without a config file at all.
type Config struct {
	// APIBaseURL is the base URL of the Family Helper backend API.
	APIBaseURL string `yaml:"api-base-url" json:"api-base-url"`

	// AuthDomain is the identity provider domain, e.g. "familyhelper.eu.auth0.com".
	AuthDomain string `yaml:"auth-domain" json:"auth-domain"`

	// AuthClientID is the OAuth client identifier registered with the identity provider.
	AuthClientID string `yaml:"auth-client-id" json:"auth-client-id"`

	// AuthScopes lists the scopes requested during login.
	AuthScopes []string `yaml:"auth-scopes,omitempty" json:"auth-scopes,omitempty"`

	// CredentialsDir is the directory where the credential pair is persisted.
	CredentialsDir string `yaml:"credentials-dir" json:"credentials-dir"`

	// DeepLinkPort is the local port the deep-link bridge listens on.
	DeepLinkPort int `yaml:"deeplink-port" json:"deeplink-port"`

	// RequestTimeoutSeconds bounds every outbound API call. <= 0 means 30s.
	RequestTimeoutSeconds int `yaml:"request-timeout-seconds,omitempty" json:"request-timeout-seconds,omitempty"`

	// PageSize is the page size used by paginated admin screens.
	PageSize int `yaml:"page-size,omitempty" json:"page-size,omitempty"`

	// Debug enables verbose request logging including scrubbed bodies.
	Debug bool `yaml:"debug" json:"debug"`

	// LoggingToFile switches log output from stdout to rotating files.
	LoggingToFile bool `yaml:"logging-to-file" json:"logging-to-file"`

	// LogsMaxTotalSizeMB caps the total size of the logs directory. 0 disables cleanup.
	LogsMaxTotalSizeMB int `yaml:"logs-max-total-size-mb,omitempty" json:"logs-max-total-size-mb,omitempty"`

	// FeatureFlags toggles optional screens (e.g. "secret-santa", "item-registry").
	FeatureFlags map[string]bool `yaml:"feature-flags,omitempty" json:"feature-flags,omitempty"`
}

// LoadConfig reads the YAML file at path, applies environment overrides and
// fills defaults. A missing file is not an error; the environment alone can
// supply a complete configuration.
func LoadConfig(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if errUnmarshal := yaml.Unmarshal(data, cfg); errUnmarshal != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, errUnmarshal)
		}
	case os.IsNotExist(err):
		// env-only configuration
	default:
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	cfg.applyEnv()
	cfg.applyDefaults()

	if err = cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the settings every component depends on.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.APIBaseURL) == "" {
		return fmt.Errorf("config: api-base-url is required")
	}
	if strings.TrimSpace(c.AuthDomain) == "" {
		return fmt.Errorf("config: auth-domain is required")
	}
	if strings.TrimSpace(c.AuthClientID) == "" {
		return fmt.Errorf("config: auth-client-id is required")
	}
	return nil
}

// FeatureEnabled reports whether the named feature flag is on.
// Unknown flags default to enabled so new backend features surface without
// a console release.
func (c *Config) FeatureEnabled(name string) bool {
	if c == nil || c.FeatureFlags == nil {
		return true
	}
	enabled, ok := c.FeatureFlags[name]
	if !ok {
		return true
	}
	return enabled
}

func (c *Config) applyEnv() {
	if v, ok := lookupEnv("FH_API_BASE_URL"); ok {
		c.APIBaseURL = v
	}
	if v, ok := lookupEnv("FH_AUTH_DOMAIN"); ok {
		c.AuthDomain = v
	}
	if v, ok := lookupEnv("FH_AUTH_CLIENT_ID"); ok {
		c.AuthClientID = v
	}
	if v, ok := lookupEnv("FH_CREDENTIALS_DIR"); ok {
		c.CredentialsDir = v
	}
	if v, ok := lookupEnv("FH_DEEPLINK_PORT"); ok {
		if port, err := strconv.Atoi(v); err == nil {
			c.DeepLinkPort = port
		}
	}
	if v, ok := lookupEnv("FH_DEBUG"); ok {
		if debug, err := strconv.ParseBool(v); err == nil {
			c.Debug = debug
		}
	}
}

func (c *Config) applyDefaults() {
	c.APIBaseURL = strings.TrimRight(strings.TrimSpace(c.APIBaseURL), "/")
	if len(c.AuthScopes) == 0 {
		c.AuthScopes = []string{"openid", "profile", "email", "offline_access"}
	}
	if strings.TrimSpace(c.CredentialsDir) == "" {
		if home, err := os.UserHomeDir(); err == nil {
			c.CredentialsDir = filepath.Join(home, ".familyhelper")
		} else {
			c.CredentialsDir = ".familyhelper"
		}
	}
	if c.DeepLinkPort == 0 {
		c.DeepLinkPort = 8422
	}
	if c.RequestTimeoutSeconds <= 0 {
		c.RequestTimeoutSeconds = 30
	}
	if c.PageSize <= 0 {
		c.PageSize = DefaultPageSize
	}
}

func lookupEnv(key string) (string, bool) {
	if value, ok := os.LookupEnv(key); ok {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			return trimmed, true
		}
	}
	return "", false
}
