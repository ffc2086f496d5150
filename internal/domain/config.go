package domain

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// DefaultTrelloBaseURL is the root of the Trello REST API.
const DefaultTrelloBaseURL = "https://api.trello.com/1"

// Config represents the server configuration.
// It is built once at startup and read-only afterwards.
type Config struct {
	Trello    TrelloConfig    `mapstructure:"trello"`
	Transport TransportConfig `mapstructure:"transport"`
	Epic      EpicConfig      `mapstructure:"epic"`
	Log       LogConfig       `mapstructure:"log"`
}

// TrelloConfig holds the credentials and the board every tool operates on.
type TrelloConfig struct {
	APIKey  string        `mapstructure:"api_key"`
	Token   string        `mapstructure:"token"`
	BoardID string        `mapstructure:"board_id"`
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// TransportConfig defines transport settings.
type TransportConfig struct {
	Type string     `mapstructure:"type"` // "stdio" or "http"
	HTTP HTTPConfig `mapstructure:"http"`
}

// HTTPConfig defines HTTP transport settings.
// Only used when transport type is "http".
type HTTPConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// EpicConfig tunes create_epic.
type EpicConfig struct {
	// SubtaskConcurrency bounds how many sub-cards are written at once.
	// 1 keeps sub-task creation strictly sequential.
	SubtaskConcurrency int `mapstructure:"subtask_concurrency"`
}

// LogConfig controls the logger.
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// envBindings maps configuration keys to the environment variables that override them.
var envBindings = map[string]string{
	"trello.api_key":           "TRELLO_API_KEY",
	"trello.token":             "TRELLO_TOKEN",
	"trello.board_id":          "TRELLO_BOARD_ID",
	"trello.base_url":          "TRELLO_BASE_URL",
	"trello.timeout":           "TRELLO_TIMEOUT",
	"transport.type":           "MCP_TRANSPORT",
	"transport.http.host":      "MCP_HTTP_HOST",
	"transport.http.port":      "MCP_HTTP_PORT",
	"epic.subtask_concurrency": "EPIC_SUBTASK_CONCURRENCY",
	"log.level":                "LOG_LEVEL",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("trello.api_key", "")
	v.SetDefault("trello.token", "")
	v.SetDefault("trello.board_id", "")
	v.SetDefault("trello.base_url", DefaultTrelloBaseURL)
	v.SetDefault("trello.timeout", 30*time.Second)
	v.SetDefault("transport.type", "stdio")
	v.SetDefault("transport.http.host", "localhost")
	v.SetDefault("transport.http.port", 8080)
	v.SetDefault("epic.subtask_concurrency", 1)
	v.SetDefault("log.level", "info")
}

// LoadConfig builds the configuration from defaults, an optional YAML file
// and the environment, in increasing order of precedence.
// An empty path skips the file. Trello credentials are not validated.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		values, err := readConfigFile(path)
		if err != nil {
			return nil, err
		}
		if err := v.MergeConfigMap(values); err != nil {
			return nil, fmt.Errorf("failed to merge configuration file: %w", err)
		}
	}

	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", env, err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to decode configuration: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &config, nil
}

// readConfigFile reads a YAML configuration file into a generic map.
func readConfigFile(path string) (map[string]interface{}, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("configuration file not found: %s", path)
		}
		return nil, fmt.Errorf("failed to read configuration file: %w", err)
	}

	values := make(map[string]interface{})
	if err := yaml.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("invalid YAML syntax in configuration file: %w", err)
	}

	return values, nil
}

// Validate checks the settings this server cannot run without.
// Returns an error describing all validation failures.
func (c *Config) Validate() error {
	var errors []string

	if err := c.validateTransport(); err != nil {
		errors = append(errors, err.Error())
	}

	if c.Trello.BaseURL == "" {
		errors = append(errors, "trello base_url must not be empty")
	}

	if c.Trello.Timeout < 0 {
		errors = append(errors, fmt.Sprintf("invalid trello timeout %s: must not be negative", c.Trello.Timeout))
	}

	if c.Epic.SubtaskConcurrency < 1 {
		errors = append(errors, fmt.Sprintf("invalid epic subtask_concurrency %d: must be at least 1", c.Epic.SubtaskConcurrency))
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
