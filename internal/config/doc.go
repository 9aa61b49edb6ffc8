// Package config loads stratum configuration from JSON or YAML files with
// environment overrides. Load returns built-in defaults when no path is
// given; Validate gates startup on a usable configuration.
package config
