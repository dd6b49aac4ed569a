// Package config loads and validates backlog configuration from TOML.
//
// Configuration is intentionally small: directory locations, the daemon
// socket, and logging output. Scheduling policy (the failure threshold,
// ordering rules) is fixed in code, not configuration.
package config
