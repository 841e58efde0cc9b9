// Package config loads and holds the presence client settings.
//
// Settings are read from YAML (.yaml, .yml), TOML (.toml) or JSON with
// comments (.json, .jsonc), chosen by file extension. Keys missing from the
// file keep their defaults; unknown keys are rejected.
//
// A Store holds the live settings and notifies listeners when they change,
// so a running client can pick up a new client id or idle threshold without
// a restart.
package config
