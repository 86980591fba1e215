// Package config loads tablescrape settings from a TOML file, .env files and
// TABLESCRAPE_* environment variables.
package config
