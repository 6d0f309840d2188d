// Package config loads, normalizes, and validates inboxwatch configuration.
//
// It supplies repository defaults, expands user paths (tilde shortcuts,
// environment variables, paths relative to the executable directory), reads
// TOML files, loads optional .env files, and layers the per-install override
// file over the legacy flat keys and the structured sections. Every precedence
// chain is expressed as an ordered candidate list so the watcher and viewer
// resolve the same answer the same way.
//
// Always obtain settings through this package so both executables agree on
// the store DSN, the viewer executable, the instance lock, and the log
// directory.
package config
