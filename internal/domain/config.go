package domain

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Defaults applied before the configuration file and environment are read.
const (
	DefaultUserAgent         = "RedditMCPServer/1.0.0"
	DefaultAPIBaseURL        = "https://oauth.reddit.com"
	DefaultTokenURL          = "https://www.reddit.com/api/v1/access_token"
	DefaultTimeout           = 30 * time.Second
	DefaultRequestsPerMinute = 60
	DefaultRetryCount        = 2
	DefaultHTTPHost          = "127.0.0.1"
	DefaultHTTPPort          = 8080
)

// Config represents the server configuration.
type Config struct {
	Transport TransportConfig `yaml:"transport"`
	Reddit    RedditConfig    `yaml:"reddit"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// TransportConfig defines transport settings.
type TransportConfig struct {
	Type string     `yaml:"type"` // "stdio" or "http"
	HTTP HTTPConfig `yaml:"http,omitempty"`
}

// HTTPConfig defines HTTP transport settings.
// Only used when transport type is "http".
type HTTPConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// RedditConfig holds the Reddit application credentials and client tuning.
type RedditConfig struct {
	ClientID          string        `yaml:"client_id"`
	ClientSecret      string        `yaml:"client_secret"`
	UserAgent         string        `yaml:"user_agent"`
	Username          string        `yaml:"username,omitempty"`
	Password          string        `yaml:"password,omitempty"`
	APIBaseURL        string        `yaml:"api_base_url,omitempty"`
	TokenURL          string        `yaml:"token_url,omitempty"`
	Timeout           time.Duration `yaml:"timeout,omitempty"`
	RequestsPerMinute int           `yaml:"requests_per_minute,omitempty"`
	RetryCount        int           `yaml:"retry_count,omitempty"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	Level  string `yaml:"level,omitempty"`
	Format string `yaml:"format,omitempty"` // "json" or "text"
	File   string `yaml:"file,omitempty"`
}

// DefaultConfig returns a configuration with every default filled in.
func DefaultConfig() *Config {
	return &Config{
		Transport: TransportConfig{
			Type: "stdio",
			HTTP: HTTPConfig{Host: DefaultHTTPHost, Port: DefaultHTTPPort},
		},
		Reddit: RedditConfig{
			UserAgent:         DefaultUserAgent,
			APIBaseURL:        DefaultAPIBaseURL,
			TokenURL:          DefaultTokenURL,
			Timeout:           DefaultTimeout,
			RequestsPerMinute: DefaultRequestsPerMinute,
			RetryCount:        DefaultRetryCount,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// LoadConfig builds the configuration from defaults, an optional YAML file, a
// .env file in the working directory, and finally environment variables.
// An empty path or a missing file is not an error; invalid YAML is.
func LoadConfig(path string) (*Config, error) {
	config := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, config); err != nil {
				return nil, fmt.Errorf("invalid YAML syntax in configuration file: %w", err)
			}
		case os.IsNotExist(err):
			// Environment-only configuration
		default:
			return nil, fmt.Errorf("failed to read configuration file: %w", err)
		}
	}

	// Values already present in the environment win over .env
	_ = godotenv.Load()
	config.ApplyEnv(os.Getenv)
	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// ApplyEnv overrides configuration values from environment variables.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if val := getenv("REDDIT_CLIENT_ID"); val != "" {
		c.Reddit.ClientID = val
	}
	if val := getenv("REDDIT_CLIENT_SECRET"); val != "" {
		c.Reddit.ClientSecret = val
	}
	if val := getenv("REDDIT_USER_AGENT"); val != "" {
		c.Reddit.UserAgent = val
	}
	if val := getenv("REDDIT_USERNAME"); val != "" {
		c.Reddit.Username = val
	}
	if val := getenv("REDDIT_PASSWORD"); val != "" {
		c.Reddit.Password = val
	}
	if val := getenv("MCP_TRANSPORT"); val != "" {
		c.Transport.Type = val
	}
	if val := getenv("MCP_HTTP_HOST"); val != "" {
		c.Transport.HTTP.Host = val
	}
	if val := getenv("MCP_HTTP_PORT"); val != "" {
		if port, err := strconv.Atoi(val); err == nil {
			c.Transport.HTTP.Port = port
		}
	}
	if val := getenv("LOG_LEVEL"); val != "" {
		c.Logging.Level = val
	}
}

// applyDefaults restores defaults for fields a YAML file explicitly emptied.
func (c *Config) applyDefaults() {
	if c.Reddit.UserAgent == "" {
		c.Reddit.UserAgent = DefaultUserAgent
	}
	if c.Reddit.APIBaseURL == "" {
		c.Reddit.APIBaseURL = DefaultAPIBaseURL
	}
	if c.Reddit.TokenURL == "" {
		c.Reddit.TokenURL = DefaultTokenURL
	}
	if c.Reddit.Timeout <= 0 {
		c.Reddit.Timeout = DefaultTimeout
	}
	if c.Reddit.RequestsPerMinute <= 0 {
		c.Reddit.RequestsPerMinute = DefaultRequestsPerMinute
	}
}

// Validate checks the configuration for completeness and correctness.
// Returns an error describing all validation failures.
func (c *Config) Validate() error {
	var errors []string

	if err := c.validateTransport(); err != nil {
		errors = append(errors, err.Error())
	}

	if err := c.Reddit.Validate(); err != nil {
		errors = append(errors, err.Error())
	}

	if len(errors) > 0 {
		return fmt.Errorf("validation errors: %s", strings.Join(errors, "; "))
	}

	return nil
}

// validateTransport validates the transport configuration.
func (c *Config) validateTransport() error {
	var errors []string

	if c.Transport.Type == "" {
		errors = append(errors, "transport type is required")
	} else if c.Transport.Type != "stdio" && c.Transport.Type != "http" {
		errors = append(errors, fmt.Sprintf("invalid transport type '%s': must be 'stdio' or 'http'", c.Transport.Type))
	}

	if c.Transport.Type == "http" {
		if c.Transport.HTTP.Host == "" {
			errors = append(errors, "HTTP host is required when transport type is 'http'")
		}
		if c.Transport.HTTP.Port <= 0 || c.Transport.HTTP.Port > 65535 {
			errors = append(errors, fmt.Sprintf("invalid HTTP port %d: must be between 1 and 65535", c.Transport.HTTP.Port))
		}
	}

	if len(errors) > 0 {
		return fmt.Errorf("%s", strings.Join(errors, "; "))
	}

	return nil
}

// Validate validates the Reddit settings.
func (rc *RedditConfig) Validate() error {
	var errors []string

	if rc.ClientID == "" {
		errors = append(errors, "reddit client_id is required (or set REDDIT_CLIENT_ID)")
	}
	if rc.ClientSecret == "" {
		errors = append(errors, "reddit client_secret is required (or set REDDIT_CLIENT_SECRET)")
	}
	if (rc.Username == "") != (rc.Password == "") {
		errors = append(errors, "reddit username and password must be provided together")
	}

	endpoints := []struct{ name, raw string }{
		{"api_base_url", rc.APIBaseURL},
		{"token_url", rc.TokenURL},
	}
	for _, endpoint := range endpoints {
		name, raw := endpoint.name, endpoint.raw
		if raw == "" {
			continue
		}
		parsedURL, err := url.Parse(raw)
		if err != nil {
			errors = append(errors, fmt.Sprintf("reddit %s is invalid: %v", name, err))
		} else if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
			errors = append(errors, fmt.Sprintf("reddit %s must use http or https scheme", name))
		} else if parsedURL.Host == "" {
			errors = append(errors, fmt.Sprintf("reddit %s must include a host", name))
		}
	}

	if rc.RetryCount < 0 {
		errors = append(errors, fmt.Sprintf("invalid reddit retry_count %d: must not be negative", rc.RetryCount))
	}

	if len(errors) > 0 {
		return fmt.Errorf("%s", strings.Join(errors, "; "))
	}

	return nil
}
