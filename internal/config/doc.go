// Package config loads, validates, and normalizes taggerd configuration.
//
// Configuration is a single TOML file, ~/.config/taggerd/config.toml by
// default, with a project-local taggerd.toml fallback. Defaults cover every
// field so the daemon runs without a config file. Secrets (the API
// credential list) are sourced from the environment, never the file.
package config
