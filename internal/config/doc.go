// Package config defines the simulator settings and provides helpers to load,
// validate and save them in YAML format.
//
// Settings come from three layers applied in order: built-in defaults, the
// YAML file, and SITE_ENV_* environment variables (optionally read from a
// .env file).
package config
