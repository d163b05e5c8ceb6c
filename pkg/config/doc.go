// Package config handles configuration management for bonsetup.
// It supports loading configuration from multiple sources including
// TOML files, a .env file, environment variables, and command-line flags.
package config
