package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/abdul-hamid-achik/hitdraft/packages/compose"
	"github.com/goccy/go-json"
)

// Config represents the hitdraft configuration
type Config struct {
	Timeout          int               `json:"timeout,omitempty"` // milliseconds
	FollowRedirects  *bool             `json:"followRedirects,omitempty"`
	MaxRedirects     int               `json:"maxRedirects,omitempty"`
	ValidateSSL      *bool             `json:"validateSSL,omitempty"`
	Proxy            string            `json:"proxy,omitempty"`
	UserAgent        string            `json:"userAgent,omitempty"`
	Headers          map[string]string `json:"headers,omitempty"`          // Default headers for all requests
	ContentTypeMatch string            `json:"contentTypeMatch,omitempty"` // "exact" or "fold"
	Store            StoreConfig       `json:"store,omitempty"`
	EnvFile          string            `json:"envFile,omitempty"`
	Variables        map[string]any    `json:"variables,omitempty"` // {{name}} values
	Verbose          *bool             `json:"verbose,omitempty"`
	NoColor          *bool             `json:"noColor,omitempty"`
	LogFile          string            `json:"logFile,omitempty"`
}

// StoreConfig selects the saved-request backend
type StoreConfig struct {
	Driver string `json:"driver,omitempty"` // memory, sqlite or file
	Path   string `json:"path,omitempty"`
}

// BoolPtr returns a pointer to b
func BoolPtr(b bool) *bool {
	return &b
}

// getBool returns the value of a bool pointer, or the default if nil
func getBool(b *bool, defaultVal bool) bool {
	if b == nil {
		return defaultVal
	}
	return *b
}

// GetFollowRedirects returns the follow redirects setting, defaulting to true
func (c *Config) GetFollowRedirects() bool {
	return getBool(c.FollowRedirects, true)
}

// GetValidateSSL returns the validate SSL setting, defaulting to true
func (c *Config) GetValidateSSL() bool {
	return getBool(c.ValidateSSL, true)
}

// GetVerbose returns the verbose setting, defaulting to false
func (c *Config) GetVerbose() bool {
	return getBool(c.Verbose, false)
}

// GetNoColor returns the no color setting, defaulting to false
func (c *Config) GetNoColor() bool {
	return getBool(c.NoColor, false)
}

// GetTimeout returns the request timeout as a duration
func (c *Config) GetTimeout() time.Duration {
	if c.Timeout <= 0 {
		return DefaultTimeout
	}
	return time.Duration(c.Timeout) * time.Millisecond
}

// GetContentTypeMatch returns how an existing Content-Type header is detected
func (c *Config) GetContentTypeMatch() compose.Match {
	return compose.ParseMatch(c.ContentTypeMatch)
}

// ConfigFilenames contains the possible config file names
var ConfigFilenames = []string{
	".hitdraft.json",
	"hitdraft.json",
	".hitdraftrc",
}

// LoadConfig loads configuration from the specified path or searches for config files
func LoadConfig(path string) (*Config, error) {
	if path != "" {
		return loadConfigFromFile(path)
	}

	// Search for config file in current directory
	return FindAndLoadConfig(".")
}

// FindAndLoadConfig searches for a config file in the given directory
func FindAndLoadConfig(dir string) (*Config, error) {
	for _, filename := range ConfigFilenames {
		configPath := filepath.Join(dir, filename)
		if _, err := os.Stat(configPath); err == nil {
			return loadConfigFromFile(configPath)
		}
	}

	// Return defaults if no config file found
	return DefaultConfig(), nil
}

// loadConfigFromFile loads configuration from a specific file
func loadConfigFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	config := DefaultConfig()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}

	return config, nil
}

// ParseError reports a config file that is not valid JSON
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return "parse config " + e.Path + ": " + e.Err.Error()
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Merge merges another config into this one, with other taking precedence
func (c *Config) Merge(other *Config) *Config {
	if other == nil {
		return c
	}

	result := *c // Copy

	if other.Timeout > 0 {
		result.Timeout = other.Timeout
	}
	if other.MaxRedirects > 0 {
		result.MaxRedirects = other.MaxRedirects
	}
	if other.Proxy != "" {
		result.Proxy = other.Proxy
	}
	if other.UserAgent != "" {
		result.UserAgent = other.UserAgent
	}
	if other.ContentTypeMatch != "" {
		result.ContentTypeMatch = other.ContentTypeMatch
	}
	if other.Store.Driver != "" {
		result.Store.Driver = other.Store.Driver
	}
	if other.Store.Path != "" {
		result.Store.Path = other.Store.Path
	}
	if other.EnvFile != "" {
		result.EnvFile = other.EnvFile
	}
	if other.LogFile != "" {
		result.LogFile = other.LogFile
	}

	// Boolean flags - only override if explicitly set in other config
	if other.FollowRedirects != nil {
		result.FollowRedirects = other.FollowRedirects
	}
	if other.ValidateSSL != nil {
		result.ValidateSSL = other.ValidateSSL
	}
	if other.Verbose != nil {
		result.Verbose = other.Verbose
	}
	if other.NoColor != nil {
		result.NoColor = other.NoColor
	}

	// Maps are copied so the merged config never shares them with either input
	if len(c.Headers) > 0 || len(other.Headers) > 0 {
		result.Headers = make(map[string]string, len(c.Headers)+len(other.Headers))
		for k, v := range c.Headers {
			result.Headers[k] = v
		}
		for k, v := range other.Headers {
			result.Headers[k] = v
		}
	}
	if len(c.Variables) > 0 || len(other.Variables) > 0 {
		result.Variables = make(map[string]any, len(c.Variables)+len(other.Variables))
		for k, v := range c.Variables {
			result.Variables[k] = v
		}
		for k, v := range other.Variables {
			result.Variables[k] = v
		}
	}

	return &result
}

// SaveConfig saves the configuration to a file
func (c *Config) SaveConfig(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}
