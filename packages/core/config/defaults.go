package config

import (
	"os"
	"path/filepath"
	"time"
)

const (
	// DefaultTimeout is used when the config leaves timeout unset
	DefaultTimeout = 30 * time.Second
	// DefaultMaxRedirects caps redirect chains
	DefaultMaxRedirects = 10
)

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	return &Config{
		Timeout:          int(DefaultTimeout / time.Millisecond),
		FollowRedirects:  BoolPtr(true),
		MaxRedirects:     DefaultMaxRedirects,
		ValidateSSL:      BoolPtr(true),
		ContentTypeMatch: "exact",
		Store: StoreConfig{
			Driver: "file",
			Path:   DefaultStorePath(),
		},
		Verbose: BoolPtr(false),
		NoColor: BoolPtr(false),
	}
}

// DefaultStorePath is the YAML store under the user config directory, or
// in the working directory when that cannot be determined.
func DefaultStorePath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return filepath.Join(".hitdraft", "saved.yaml")
	}
	return filepath.Join(dir, "hitdraft", "saved.yaml")
}

// IsDefault returns true if the config matches defaults
func (c *Config) IsDefault() bool {
	defaults := DefaultConfig()
	return c.Timeout == defaults.Timeout &&
		c.GetFollowRedirects() == defaults.GetFollowRedirects() &&
		c.MaxRedirects == defaults.MaxRedirects &&
		c.GetValidateSSL() == defaults.GetValidateSSL() &&
		c.Proxy == defaults.Proxy &&
		c.UserAgent == defaults.UserAgent &&
		len(c.Headers) == 0 &&
		len(c.Variables) == 0 &&
		c.ContentTypeMatch == defaults.ContentTypeMatch &&
		c.Store == defaults.Store &&
		c.EnvFile == defaults.EnvFile &&
		c.GetVerbose() == defaults.GetVerbose() &&
		c.GetNoColor() == defaults.GetNoColor() &&
		c.LogFile == defaults.LogFile
}
