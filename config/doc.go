// Package config loads application configuration from a YAML file, an
// optional .env file and DB_* environment overrides.
package config
