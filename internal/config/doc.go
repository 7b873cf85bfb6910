// Package config loads, validates, and normalizes subweave configuration.
//
// Configuration lives in a TOML file (default ~/.config/subweave/config.toml)
// with an embedded sample for `subweave config init`. Load applies defaults,
// expands ~ in paths, pulls API keys from the environment (including a
// best-effort .env), and rejects values the pipeline cannot run with.
package config
