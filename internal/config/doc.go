// Package config loads, normalizes, and validates murmur configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// DEEPGRAM_API_KEY. The Config type centralizes every knob the pipeline and CLI
// need: provider credentials, dispatch limits, segment policy, ledger and
// history locations.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical language hints, and clear validation errors.
package config
