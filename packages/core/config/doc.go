// Package config handles configuration loading and management for hitdraft.
//
// It provides functionality for:
//   - Loading configuration from .hitdraft.json, hitdraft.json or .hitdraftrc
//   - Default configuration values
//   - Merging command-line overrides on top of a loaded file
package config
