// Package config loads, normalizes, and validates autosort configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// OPENROUTER_API_KEY and AUTOSORT_SOURCE_DIR. The Config type centralizes
// every knob the CLI and pipeline need, so directories, category rules, and
// model credentials are discovered in one pass.
//
// Always obtain settings through this package so downstream code receives
// expanded paths, canonical extensions, and clear validation errors.
package config
