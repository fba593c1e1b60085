// Package config defines the application configuration structure and loading
// logic. Configuration is sourced from an optional YAML file and environment
// variables with the MEALGATE_ prefix, with env vars taking precedence, and is
// validated before the application starts.
package config
